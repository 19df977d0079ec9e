// Package rate estimates upload throughput from cumulative progress
// reports and projects the time an upload has left.
package rate

import (
	"time"
)

const (
	// RetentionWindow is how far back samples contribute to an estimate.
	RetentionWindow = 15 * time.Second
	// MinSamples is the number of in-window samples needed before an
	// estimate is reported.
	MinSamples = 5
)

// Sample is one cumulative progress observation.
type Sample struct {
	Bytes int64
	At    time.Time
}

// Estimator keeps the samples of a single upload. Samples must be
// recorded in non-decreasing time order. An Estimator is not safe for
// concurrent use; the owning session serializes access.
type Estimator struct {
	samples []Sample
}

// NewEstimator returns an empty estimator.
func NewEstimator() *Estimator {
	return &Estimator{samples: make([]Sample, 0, 32)}
}

// Record adds a sample and returns the throughput in bytes per second
// across the retained window. The boolean is false while there is not
// enough data for a meaningful estimate, in which case the rate must not
// be shown.
func (e *Estimator) Record(bytes int64, now time.Time) (float64, bool) {
	e.samples = append(e.samples, Sample{Bytes: bytes, At: now})
	e.evict(now)

	if len(e.samples) < MinSamples {
		return 0, false
	}

	oldest := e.samples[0]
	newest := e.samples[len(e.samples)-1]
	elapsed := newest.At.Sub(oldest.At)
	if elapsed <= 0 {
		return 0, false
	}
	return float64(newest.Bytes-oldest.Bytes) / elapsed.Seconds(), true
}

// RecordMillis is Record with the timestamp given as Unix milliseconds.
func (e *Estimator) RecordMillis(bytes, nowMillis int64) (float64, bool) {
	return e.Record(bytes, time.UnixMilli(nowMillis))
}

// evict drops samples older than the retention window, always keeping
// the newest one.
func (e *Estimator) evict(now time.Time) {
	cutoff := now.Add(-RetentionWindow)
	drop := 0
	for drop < len(e.samples)-1 && e.samples[drop].At.Before(cutoff) {
		drop++
	}
	if drop == 0 {
		return
	}
	n := copy(e.samples, e.samples[drop:])
	e.samples = e.samples[:n]
}

// Len returns the number of retained samples.
func (e *Estimator) Len() int {
	return len(e.samples)
}

// Samples returns a copy of the retained samples, oldest first.
func (e *Estimator) Samples() []Sample {
	return append([]Sample(nil), e.samples...)
}

// Reset discards every sample.
func (e *Estimator) Reset() {
	e.samples = e.samples[:0]
}

// Remaining projects how long the rest of an upload takes at
// bytesPerSecond. It reports false when the rate is unusable.
func Remaining(total, uploaded int64, bytesPerSecond float64) (time.Duration, bool) {
	if bytesPerSecond <= 0 {
		return 0, false
	}
	left := total - uploaded
	if left <= 0 {
		return 0, true
	}
	seconds := float64(left) / bytesPerSecond
	return time.Duration(seconds * float64(time.Second)), true
}

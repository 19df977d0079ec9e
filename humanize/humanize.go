// Package humanize renders byte counts, durations and timestamps the way
// fluffy shows them to people.
package humanize

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Binary size units.
const (
	KB int64 = 1 << 10
	MB int64 = 1 << 20
	GB int64 = 1 << 30
)

var sizeUnits = []struct {
	size  int64
	label string
}{
	{GB, "GB"},
	{MB, "MB"},
	{KB, "KB"},
}

// Plural returns the suffix for a count of n things.
func Plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Size renders bytes using the largest unit that keeps the value at or
// above one, with one decimal place. Counts below 1 KB are plain bytes.
func Size(bytes int64) string {
	for _, unit := range sizeUnits {
		if bytes >= unit.size {
			return fmt.Sprintf("%.1f %s", float64(bytes)/float64(unit.size), unit.label)
		}
	}
	return fmt.Sprintf("%d bytes", bytes)
}

// Duration renders a number of seconds as at most two units, starting at
// the highest non-zero one, e.g. "2 hours, 5 minutes" or "40 seconds".
func Duration(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	if math.IsInf(seconds, 1) {
		seconds = math.MaxInt32
	}

	total := int64(math.Floor(seconds))
	parts := []struct {
		count int64
		unit  string
	}{
		{total / 3600, "hour"},
		{(total / 60) % 60, "minute"},
		{total % 60, "second"},
	}

	first := 0
	for first < len(parts)-1 && parts[first].count == 0 {
		first++
	}
	last := first + 2
	if last > len(parts) {
		last = len(parts)
	}

	rendered := make([]string, 0, 2)
	for _, p := range parts[first:last] {
		rendered = append(rendered, fmt.Sprintf("%d %s%s", p.count, p.unit, Plural(p.count)))
	}
	return strings.Join(rendered, ", ")
}

// DurationOf is Duration for a time.Duration.
func DurationOf(d time.Duration) string {
	return Duration(d.Seconds())
}

// TimeAgo describes how long before now t was, in the largest whole unit:
// "12 seconds ago", "3 days ago". Months are 30 days and years 12 months.
func TimeAgo(t, now time.Time) string {
	const (
		minute = 60
		hour   = minute * 60
		day    = hour * 24
		month  = day * 30
		year   = month * 12
	)

	secondsAgo := int64(math.Round(now.Sub(t).Seconds()))
	if secondsAgo < 0 {
		secondsAgo = 0
	}

	var (
		count int64
		unit  string
	)
	switch {
	case secondsAgo < minute:
		count, unit = secondsAgo, "second"
	case secondsAgo < hour:
		count, unit = secondsAgo/minute, "minute"
	case secondsAgo < day:
		count, unit = secondsAgo/hour, "hour"
	case secondsAgo < month:
		count, unit = secondsAgo/day, "day"
	case secondsAgo < year:
		count, unit = secondsAgo/month, "month"
	default:
		count, unit = secondsAgo/year, "year"
	}
	return fmt.Sprintf("%d %s%s ago", count, unit, Plural(count))
}

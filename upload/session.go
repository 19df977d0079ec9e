package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/fluffy/rate"
)

// ErrInvalidTransition indicates an operation the session's current
// state does not allow.
var ErrInvalidTransition = errors.New("invalid session transition")

// ErrCancelled indicates the transfer was cancelled by the user.
var ErrCancelled = errors.New("upload cancelled")

// ErrNilArgument indicates a nil result or error handed to a session.
var ErrNilArgument = errors.New("nil session argument")

// State is the lifecycle position of a Session.
type State uint8

const (
	// StateIdle indicates nothing is queued.
	StateIdle State = iota
	// StateFilesQueued indicates files are ready to be uploaded.
	StateFilesQueued
	// StateUploading indicates a transfer is in flight.
	StateUploading
	// StateCompleted indicates the server accepted the upload.
	StateCompleted
	// StateCancelled indicates the upload was cancelled or failed.
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFilesQueued:
		return "files-queued"
	case StateUploading:
		return "uploading"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// TimeProvider abstracts time operations for deterministic testing.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

// Progress is a snapshot of a running upload.
type Progress struct {
	Sent  int64
	Total int64

	// Rate and Remaining are only meaningful when HasRate is true.
	HasRate   bool
	Rate      float64
	Remaining time.Duration
}

// Fraction returns the completed share of the upload in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Sent) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// Session is one user's upload workflow: its queue, its in-flight
// transfer and the rate estimate for that transfer. Methods are safe for
// concurrent use so progress can arrive from the transport goroutine
// while the caller cancels. Callbacks run without the session lock held.
type Session struct {
	ID uuid.UUID

	mu           sync.Mutex
	state        State
	queue        *Queue
	estimator    *rate.Estimator
	cancel       context.CancelFunc
	startTime    time.Time
	progress     Progress
	result       *Result
	err          error
	timeProvider TimeProvider
	logger       *logrus.Entry

	progressCallback func(Progress)
	stateCallback    func(State)
	completeCallback func(*Result, error)
}

// NewSession creates an idle session around queue. A nil queue gets an
// unlimited one.
func NewSession(queue *Queue) *Session {
	if queue == nil {
		queue = NewQueue(0)
	}
	id := uuid.New()
	s := &Session{
		ID:           id,
		state:        StateIdle,
		queue:        queue,
		estimator:    rate.NewEstimator(),
		timeProvider: DefaultTimeProvider{},
		logger:       logrus.WithField("session_id", id.String()),
	}
	if queue.Len() > 0 {
		s.state = StateFilesQueued
	}
	return s
}

// SetTimeProvider sets a custom time provider for deterministic testing.
func (s *Session) SetTimeProvider(tp TimeProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeProvider = tp
}

// OnProgress sets the callback invoked with every progress snapshot.
func (s *Session) OnProgress(callback func(Progress)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progressCallback = callback
}

// OnStateChange sets the callback invoked after every transition.
func (s *Session) OnStateChange(callback func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateCallback = callback
}

// OnComplete sets the callback invoked when an upload finishes, with
// either a result or the error that ended it.
func (s *Session) OnComplete(callback func(*Result, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeCallback = callback
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error that moved the session to StateCancelled, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Result returns the server's answer once the session has completed.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// LastProgress returns the most recent progress snapshot.
func (s *Session) LastProgress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Files returns the queued files.
func (s *Session) Files() []File {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Files()
}

// TotalBytes returns the combined size of the queued files.
func (s *Session) TotalBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.TotalBytes()
}

// Queue adds files by path. It is allowed whenever no upload is running
// or finished; adding to a cancelled session prepares a fresh upload.
func (s *Session) Queue(paths ...string) error {
	return s.enqueue(func(q *Queue) error {
		for _, path := range paths {
			if _, err := q.Add(path); err != nil {
				return err
			}
		}
		return nil
	})
}

// QueueBytes adds in-memory content under name.
func (s *Session) QueueBytes(name string, data []byte) error {
	return s.enqueue(func(q *Queue) error {
		_, err := q.AddBytes(name, data)
		return err
	})
}

// QueueReader reads r to the end and queues its content under name, such
// as data piped on stdin.
func (s *Session) QueueReader(name string, r io.Reader) error {
	return s.enqueue(func(q *Queue) error {
		_, err := q.AddReader(name, -1, r)
		return err
	})
}

func (s *Session) enqueue(add func(*Queue) error) error {
	s.mu.Lock()
	switch s.state {
	case StateIdle, StateFilesQueued, StateCancelled:
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot queue files while %s", ErrInvalidTransition, state)
	}

	err := add(s.queue)
	var notify func()
	if s.queue.Len() > 0 {
		s.err = nil
		notify = s.setStateLocked(StateFilesQueued)
	}
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return err
}

// Remove drops the queued file at index i.
func (s *Session) Remove(i int) error {
	s.mu.Lock()
	if s.state != StateFilesQueued && s.state != StateCancelled {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot remove files while %s", ErrInvalidTransition, state)
	}
	if err := s.queue.Remove(i); err != nil {
		s.mu.Unlock()
		return err
	}
	var notify func()
	if s.queue.Len() == 0 {
		notify = s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

// Begin starts a transfer of the queued files. The returned context is
// cancelled by Cancel and released when the session completes or fails.
// LastProgress reports the queued file bytes as its total until the
// first Progress call supplies the transport's own total.
func (s *Session) Begin(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	if s.state != StateFilesQueued {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot start upload while %s", ErrInvalidTransition, state)
	}

	uploadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.estimator.Reset()
	s.result = nil
	s.err = nil
	s.startTime = s.timeProvider.Now()
	s.progress = Progress{Total: s.queue.TotalBytes()}
	notify := s.setStateLocked(StateUploading)

	s.logger.WithFields(logrus.Fields{
		"function":    "Begin",
		"files":       s.queue.Len(),
		"total_bytes": s.progress.Total,
	}).Info("Starting upload")
	s.mu.Unlock()

	notify()
	return uploadCtx, nil
}

// Progress records cumulative transfer progress and returns the refreshed
// snapshot. Reports arriving outside StateUploading are ignored and
// return false.
func (s *Session) Progress(sent, total int64) (Progress, bool) {
	s.mu.Lock()
	if s.state != StateUploading {
		s.mu.Unlock()
		return Progress{}, false
	}

	p := Progress{Sent: sent, Total: total}
	if r, ok := s.estimator.Record(sent, s.timeProvider.Now()); ok {
		if remaining, ok := rate.Remaining(total, sent, r); ok {
			p.HasRate = true
			p.Rate = r
			p.Remaining = remaining
		}
	}
	s.progress = p
	callback := s.progressCallback
	s.mu.Unlock()

	if callback != nil {
		callback(p)
	}
	return p, true
}

// Complete records the server's result and finishes the session.
func (s *Session) Complete(result *Result) error {
	if result == nil {
		return fmt.Errorf("%w: complete needs a result", ErrNilArgument)
	}
	s.mu.Lock()
	if s.state != StateUploading {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot complete while %s", ErrInvalidTransition, state)
	}

	s.releaseLocked()
	s.result = result
	notify := s.setStateLocked(StateCompleted)
	callback := s.completeCallback

	s.logger.WithFields(logrus.Fields{
		"function": "Complete",
		"redirect": result.Redirect,
		"elapsed":  s.timeProvider.Since(s.startTime),
	}).Info("Upload completed")
	s.mu.Unlock()

	notify()
	if callback != nil {
		callback(result, nil)
	}
	return nil
}

// Fail ends a running upload with err. Every failure, oversized requests
// included, follows the cancellation path: transient state is discarded
// and the queue is kept for a user-initiated retry.
func (s *Session) Fail(err error) error {
	if err == nil {
		return fmt.Errorf("%w: fail needs an error", ErrNilArgument)
	}
	s.mu.Lock()
	if s.state != StateUploading {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot fail while %s", ErrInvalidTransition, state)
	}

	s.releaseLocked()
	s.err = err
	s.discardTransientLocked()
	notify := s.setStateLocked(StateCancelled)
	callback := s.completeCallback

	entry := s.logger.WithFields(logrus.Fields{
		"function": "Fail",
		"error":    err.Error(),
	})
	if IsOversized(err) {
		entry.Warn("Upload rejected as too large, rolling back")
	} else {
		entry.Error("Upload failed")
	}
	s.mu.Unlock()

	notify()
	if callback != nil {
		callback(nil, err)
	}
	return nil
}

// Cancel aborts the running transfer, or abandons a queued one before it
// starts. The queue is kept.
func (s *Session) Cancel() error {
	s.mu.Lock()
	if s.state != StateUploading && s.state != StateFilesQueued {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: nothing to cancel while %s", ErrInvalidTransition, state)
	}

	wasUploading := s.state == StateUploading
	s.releaseLocked()
	s.err = ErrCancelled
	s.discardTransientLocked()
	notify := s.setStateLocked(StateCancelled)
	callback := s.completeCallback

	s.logger.WithFields(logrus.Fields{
		"function":      "Cancel",
		"was_uploading": wasUploading,
	}).Info("Upload cancelled")
	s.mu.Unlock()

	notify()
	if wasUploading && callback != nil {
		callback(nil, ErrCancelled)
	}
	return nil
}

// Retry returns a cancelled session to StateFilesQueued, or StateIdle
// when its queue is empty.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.state != StateCancelled {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot retry while %s", ErrInvalidTransition, state)
	}
	s.err = nil
	next := StateFilesQueued
	if s.queue.Len() == 0 {
		next = StateIdle
	}
	notify := s.setStateLocked(next)
	s.mu.Unlock()

	notify()
	return nil
}

// Reset empties the queue and returns to StateIdle. It is refused while a
// transfer is running.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.state == StateUploading {
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot reset while %s", ErrInvalidTransition, StateUploading)
	}
	s.queue.Clear()
	s.result = nil
	s.err = nil
	s.discardTransientLocked()
	notify := s.setStateLocked(StateIdle)
	s.mu.Unlock()

	notify()
	return nil
}

// releaseLocked cancels the transfer context.
func (s *Session) releaseLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) discardTransientLocked() {
	s.estimator.Reset()
	s.progress = Progress{}
}

// setStateLocked moves to next and returns the notification to run once
// the lock is released.
func (s *Session) setStateLocked(next State) func() {
	prev := s.state
	s.state = next
	callback := s.stateCallback

	s.logger.WithFields(logrus.Fields{
		"function": "setState",
		"from":     prev,
		"to":       next,
	}).Debug("Session state changed")

	return func() {
		if callback != nil && prev != next {
			callback(next)
		}
	}
}

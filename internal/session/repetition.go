// Package session records repetitions and reduces their angle series to
// session-level range of motion.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handrom/internal/landmark"
)

var (
	// ErrRepetitionClosed is returned when a recorder is used after Close.
	ErrRepetitionClosed = errors.New("repetition closed")
	// ErrRepetitionOpen is returned when a repetition is requested before
	// its recorder has been closed.
	ErrRepetitionOpen = errors.New("repetition still recording")
	// ErrEmptyAssessment is returned when an assessment has no repetitions.
	ErrEmptyAssessment = errors.New("assessment has no repetitions")
)

// Repetition is the closed, immutable frame sequence of one motion cycle.
type Repetition struct {
	id       uuid.UUID
	frames   []landmark.Frame
	started  time.Time
	finished time.Time
}

// NewRepetition wraps an already bounded frame sequence, such as one
// decoded from a file.
func NewRepetition(frames []landmark.Frame) Repetition {
	now := time.Now()
	return Repetition{
		id:       uuid.New(),
		frames:   append([]landmark.Frame(nil), frames...),
		started:  now,
		finished: now,
	}
}

// ID returns the repetition's identifier.
func (r Repetition) ID() uuid.UUID { return r.id }

// Len returns the number of frames.
func (r Repetition) Len() int { return len(r.frames) }

// Frames returns a copy of the frames in capture order.
func (r Repetition) Frames() []landmark.Frame {
	return append([]landmark.Frame(nil), r.frames...)
}

// Duration returns the wall time between the first Append and Close.
func (r Repetition) Duration() time.Duration {
	return r.finished.Sub(r.started)
}

// Recorder accumulates a live frame stream until Close. It is safe for
// concurrent use.
type Recorder struct {
	mu      sync.Mutex
	id      uuid.UUID
	frames  []landmark.Frame
	started time.Time
	closed  bool
	rep     Repetition
}

// NewRecorder starts a new repetition.
func NewRecorder() *Recorder {
	return &Recorder{id: uuid.New()}
}

// Append adds a frame to the open repetition.
func (r *Recorder) Append(f landmark.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRepetitionClosed
	}
	if len(r.frames) == 0 {
		r.started = time.Now()
	}
	r.frames = append(r.frames, f)
	return nil
}

// Len returns the number of frames recorded so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Close ends recording and returns the finished repetition. Closing twice
// returns ErrRepetitionClosed.
func (r *Recorder) Close() (Repetition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Repetition{}, ErrRepetitionClosed
	}
	r.closed = true

	finished := time.Now()
	started := r.started
	if started.IsZero() {
		started = finished
	}
	r.rep = Repetition{id: r.id, frames: r.frames, started: started, finished: finished}
	r.frames = nil
	return r.rep, nil
}

// Repetition returns the closed repetition, or ErrRepetitionOpen while the
// recorder is still accepting frames.
func (r *Recorder) Repetition() (Repetition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		return Repetition{}, ErrRepetitionOpen
	}
	return r.rep, nil
}

package app

import (
	"context"
	"time"

	"github.com/ayusman/handrom/internal/landmark"
	"github.com/ayusman/handrom/internal/session"
)

// DefaultIdleTimeout ends a live repetition when the tracker goes quiet.
const DefaultIdleTimeout = 2 * time.Second

// RecordOptions configures live recording.
type RecordOptions struct {
	// IdleTimeout closes the repetition when no frame arrives for this
	// long. Zero waits for the channel to close.
	IdleTimeout time.Duration
	// MaxFrames closes the repetition once it holds this many frames. Zero
	// means unbounded.
	MaxFrames int
}

// Record consumes a live frame stream into a repetition. The repetition is
// closed when frames is closed, the idle timeout passes or MaxFrames is
// reached. Cancelling ctx abandons the recording.
func (e *Engine) Record(ctx context.Context, frames <-chan landmark.Frame, opts RecordOptions) (session.Repetition, error) {
	rec := session.NewRecorder()

	var idle <-chan time.Time
	var timer *time.Timer
	if opts.IdleTimeout > 0 {
		timer = time.NewTimer(opts.IdleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			rec.Close()
			return session.Repetition{}, ctx.Err()

		case <-idle:
			e.log.Debug().Int("frames", rec.Len()).Msg("stream idle, closing repetition")
			return rec.Close()

		case f, ok := <-frames:
			if !ok {
				return rec.Close()
			}
			if err := rec.Append(f); err != nil {
				return session.Repetition{}, err
			}
			if opts.MaxFrames > 0 && rec.Len() >= opts.MaxFrames {
				return rec.Close()
			}
			if timer != nil {
				timer.Reset(opts.IdleTimeout)
			}
		}
	}
}

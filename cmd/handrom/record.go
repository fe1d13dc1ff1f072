package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/handrom/internal/app"
	"github.com/ayusman/handrom/internal/landmark"
	"github.com/ayusman/handrom/internal/session"
)

type recordOptions struct {
	assessmentFlags
	idle      time.Duration
	maxFrames int
	save      string
}

func newRecordCmd(c *cli) *cobra.Command {
	o := &recordOptions{}
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one live repetition from stdin and analyze it",
		Long: `Reads newline-delimited tracker frames from stdin until the stream ends,
goes idle or reaches --max-frames, then analyzes the repetition.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runRecord(cmd, o)
		},
	}
	o.register(cmd)
	f := cmd.Flags()
	f.DurationVar(&o.idle, "idle", app.DefaultIdleTimeout, "close the repetition after this long without a frame (0 waits for end of input)")
	f.IntVar(&o.maxFrames, "max-frames", 0, "close the repetition after this many frames (0 is unbounded)")
	f.StringVar(&o.save, "save", "", "also write the recorded frames to this file")
	return cmd
}

func (c *cli) runRecord(cmd *cobra.Command, o *recordOptions) error {
	a, err := o.assessment()
	if err != nil {
		return err
	}

	e, release, err := c.engine()
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	frames, decodeErr := decodeStream(ctx, cmd.InOrStdin())
	rep, err := e.Record(ctx, frames, app.RecordOptions{IdleTimeout: o.idle, MaxFrames: o.maxFrames})
	cancel()
	if err != nil {
		return fmt.Errorf("recording failed: %w", err)
	}
	select {
	case err := <-decodeErr:
		if err != nil {
			return err
		}
	default:
	}
	if rep.Len() == 0 {
		return errors.New("no frames received")
	}
	c.log.Info().Int("frames", rep.Len()).Dur("duration", rep.Duration()).Msg("recorded repetition")

	if o.save != "" {
		if err := saveFrames(o.save, rep); err != nil {
			return err
		}
	}

	report, err := e.Analyze(app.Job{
		Assessment:  a,
		Injury:      o.injury,
		Repetitions: []session.Repetition{rep},
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return writeJSON(cmd, report)
}

// decodeStream feeds frames decoded from r into the returned channel, which
// is closed at end of input or on the first decode error. The error, if
// any, is sent before the channel closes.
func decodeStream(ctx context.Context, r io.Reader) (<-chan landmark.Frame, <-chan error) {
	frames := make(chan landmark.Frame)
	errc := make(chan error, 1)

	go func() {
		defer close(frames)
		dec := landmark.NewDecoder(r)
		for {
			f, err := dec.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errc <- err
				return
			}
			select {
			case frames <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return frames, errc
}

func saveFrames(path string, rep session.Repetition) error {
	data, err := json.Marshal(rep.Frames())
	if err != nil {
		return fmt.Errorf("failed to marshal frames: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

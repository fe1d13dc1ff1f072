package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/handrom/internal/angle"
	"github.com/ayusman/handrom/internal/app"
	"github.com/ayusman/handrom/internal/clinical"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
	"github.com/ayusman/handrom/internal/session"
)

// assessmentFlags select what is measured and against which injury.
type assessmentFlags struct {
	kind   string
	finger string
	injury string
}

func (a *assessmentFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&a.kind, "assessment", "a", "", "assessment kind: finger_rom, wrist_flexion_extension, wrist_deviation, forearm_rotation or kapandji")
	f.StringVar(&a.finger, "finger", "index", "digit measured by finger_rom")
	f.StringVarP(&a.injury, "injury", "i", clinical.DefaultInjury, "injury profile used for interpretation")
}

func (a *assessmentFlags) assessment() (angle.Assessment, error) {
	kind, err := angle.ParseKind(a.kind)
	if err != nil {
		return angle.Assessment{}, err
	}
	out := angle.Assessment{Kind: kind}
	if kind == angle.KindFingerROM {
		out.Finger, err = landmark.ParseFinger(a.finger)
		if err != nil {
			return angle.Assessment{}, err
		}
	}
	return out, nil
}

type analyzeOptions struct {
	assessmentFlags
	reference string
	scores    []string
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	o := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [frames.json...]",
		Short: "Analyze recorded repetitions and print a clinical report",
		Long: `Each file holds one repetition as a JSON array of tracker frames.
The best attempt across repetitions is interpreted against the injury's
targets. Patient-reported scales are given with --score, e.g. --score dash=30.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, o, args)
		},
	}
	o.register(cmd)
	cmd.Flags().StringVar(&o.reference, "reference", "", "frames file whose first frame is the neutral reference for forearm rotation")
	cmd.Flags().StringArrayVar(&o.scores, "score", nil, "patient-reported score as scale=value (repeatable)")
	return cmd
}

func (c *cli) runAnalyze(cmd *cobra.Command, o *analyzeOptions, args []string) error {
	if len(args) == 0 && len(o.scores) == 0 {
		return errors.New("no frame files or scores given")
	}

	job := app.Job{Injury: o.injury}

	if len(args) > 0 {
		a, err := o.assessment()
		if err != nil {
			return err
		}
		job.Assessment = a
		for _, path := range args {
			frames, err := readFrames(path)
			if err != nil {
				return err
			}
			job.Repetitions = append(job.Repetitions, session.NewRepetition(frames))
		}
	}

	if o.reference != "" {
		frames, err := readFrames(o.reference)
		if err != nil {
			return err
		}
		if len(frames) == 0 {
			return fmt.Errorf("reference %s holds no frames", o.reference)
		}
		job.Reference = &frames[0]
	}

	scores, err := parseScores(o.scores)
	if err != nil {
		return err
	}
	job.Scores = scores

	e, release, err := c.engine()
	if err != nil {
		return err
	}
	defer release()

	report, err := e.Analyze(job)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	return writeJSON(cmd, report)
}

func readFrames(path string) ([]landmark.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames, err := landmark.DecodeFrames(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}

func parseScores(in []string) (map[joint.ID]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[joint.ID]float64, len(in))
	for _, s := range in {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid score %q: expected scale=value", s)
		}
		id, err := joint.Parse(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score %q: %w", s, err)
		}
		out[id] = v
	}
	return out, nil
}

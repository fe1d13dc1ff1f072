package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handrom/internal/angle"
	"github.com/ayusman/handrom/internal/clinical"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
	"github.com/ayusman/handrom/internal/session"
)

// ErrNotAScale is returned when a patient-reported score names a joint that
// is measured from landmarks.
var ErrNotAScale = errors.New("not a patient-reported scale")

// ErrInvalidScore is returned for a patient-reported score that is negative
// or not a finite number.
var ErrInvalidScore = errors.New("invalid score")

// Job is one assessment to analyze.
type Job struct {
	Assessment  angle.Assessment
	Injury      string
	Repetitions []session.Repetition
	// Reference is an optional neutral frame for forearm rotation.
	Reference *landmark.Frame
	// Scores holds patient-reported scale values such as DASH or pain.
	Scores map[joint.ID]float64
}

// Report is the analyzed result of a Job.
type Report struct {
	ID              uuid.UUID                 `json:"id"`
	Assessment      string                    `json:"assessment,omitempty"`
	Injury          string                    `json:"injury"`
	Repetitions     []session.Result          `json:"repetitions,omitempty"`
	Result          session.Result            `json:"result"`
	Interpretations []clinical.Interpretation `json:"interpretations"`
	// UsedDefaults is set when any interpretation fell back to default
	// targets.
	UsedDefaults bool      `json:"usedDefaults"`
	AnalyzedAt   time.Time `json:"analyzedAt"`
}

// Analyze runs one job through extraction, reduction and classification.
func (e *Engine) Analyze(job Job) (Report, error) {
	if len(job.Repetitions) == 0 && len(job.Scores) == 0 {
		return Report{}, session.ErrEmptyAssessment
	}

	report := Report{
		ID:         uuid.New(),
		Injury:     job.Injury,
		AnalyzedAt: time.Now(),
		Result:     session.Result{Joints: make(map[joint.ID]session.JointResult)},
	}
	log := e.log.With().Str("report", report.ID.String()).Str("injury", job.Injury).Logger()

	if len(job.Repetitions) > 0 {
		ext, err := angle.New(job.Assessment, angle.Options{Kapandji: e.config.Kapandji})
		if err != nil {
			log.Error().Err(err).Str("assessment", string(job.Assessment.Kind)).Msg("rejected assessment")
			return Report{}, err
		}
		report.Assessment = job.Assessment.String()

		opts := e.config.Session
		for _, rep := range job.Repetitions {
			res := session.Analyze(rep, ext, job.Reference, opts)
			log.Debug().
				Str("repetition", rep.ID().String()).
				Int("frames", rep.Len()).
				Float64("quality", float64(res.Quality.Score)).
				Msg("reduced repetition")
			report.Repetitions = append(report.Repetitions, res)
		}

		best, err := session.Best(report.Repetitions)
		if err != nil {
			return Report{}, err
		}
		report.Result = best
	}

	for id, v := range job.Scores {
		if joint.Describe(id).Unit != joint.Points {
			err := fmt.Errorf("%w: %s", ErrNotAScale, id)
			log.Error().Err(err).Msg("rejected score")
			return Report{}, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			err := fmt.Errorf("%w: %s = %g", ErrInvalidScore, id, v)
			log.Error().Err(err).Msg("rejected score")
			return Report{}, err
		}
		report.Result.Joints[id] = session.JointResult{
			Joint: id, HasData: true, Max: v, Min: v, Value: v, Samples: 1,
		}
	}

	classifier := e.Classifier()
	for _, id := range report.Result.SortedJoints() {
		jr := report.Result.Joints[id]
		if !jr.HasData {
			continue
		}
		interp := classifier.Classify(id, jr.Value, job.Injury)
		if interp.UsedDefaults {
			report.UsedDefaults = true
			log.Warn().Str("joint", string(id)).Msg("no injury target, using defaults")
		}
		report.Interpretations = append(report.Interpretations, interp)
	}

	log.Info().
		Str("assessment", report.Assessment).
		Int("repetitions", len(report.Repetitions)).
		Int("interpretations", len(report.Interpretations)).
		Msg("analyzed assessment")
	return report, nil
}

// BatchResult pairs a job's report with its error.
type BatchResult struct {
	Report Report
	Err    error
}

// AnalyzeBatch analyzes independent jobs concurrently and returns results in
// job order. Jobs not started before ctx is done report ctx's error.
func (e *Engine) AnalyzeBatch(ctx context.Context, jobs []Job) []BatchResult {
	results := make([]BatchResult, len(jobs))
	sem := make(chan struct{}, e.config.Workers)
	var wg sync.WaitGroup

	for i := range jobs {
		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Report, results[i].Err = e.Analyze(jobs[i])
		}(i)
	}

	wg.Wait()

	var failed []int
	for i, r := range results {
		if r.Err != nil {
			failed = append(failed, i)
		}
	}
	if len(failed) > 0 {
		e.log.Warn().Ints("jobs", failed).Int("total", len(jobs)).Msg("batch jobs failed")
	}
	return results
}

package session

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/ayusman/handrom/internal/angle"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
	"github.com/ayusman/handrom/internal/quality"
)

// Options configures reduction.
type Options struct {
	// MinConfidence is the lowest frame detection confidence whose samples
	// are kept. The comparison is inclusive.
	MinConfidence  float64
	KapandjiPolicy angle.Policy
	Quality        quality.Options
}

// DefaultOptions returns a 0.5 confidence threshold and monotonic Kapandji
// scoring.
func DefaultOptions() Options {
	return Options{
		MinConfidence:  0.5,
		KapandjiPolicy: angle.PolicyMonotonic,
		Quality:        quality.DefaultOptions(),
	}
}

// JointResult is the reduced value of one joint. When HasData is false no
// sample survived filtering and the numeric fields are meaningless.
type JointResult struct {
	Joint   joint.ID `json:"joint"`
	HasData bool     `json:"hasData"`
	Max     float64  `json:"max"`
	Min     float64  `json:"min"`
	// Range is Max minus Min.
	Range float64 `json:"rangeOfMotion"`
	// Value is the clinical figure: Range or Max depending on the joint's
	// reduction, or the policy level for Kapandji.
	Value   float64       `json:"value"`
	Samples int           `json:"samples"`
	Targets angle.Targets `json:"targets,omitempty"`
}

// Result is the reduced record of one repetition, or of a whole assessment
// when built by Best.
type Result struct {
	RepetitionID      uuid.UUID                `json:"repetitionId"`
	Joints            map[joint.ID]JointResult `json:"joints"`
	OppositionLevel   *int                     `json:"oppositionLevel,omitempty"`
	Quality           quality.Report           `json:"quality"`
	AverageConfidence float64                  `json:"averageConfidence"`
}

// Joint returns the result for id. A joint absent from the result reads as
// no data.
func (r Result) Joint(id joint.ID) JointResult {
	if jr, ok := r.Joints[id]; ok {
		return jr
	}
	return JointResult{Joint: id}
}

// SortedJoints returns the joint ids of the result in order.
func (r Result) SortedJoints() []joint.ID {
	ids := make([]joint.ID, 0, len(r.Joints))
	for id := range r.Joints {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Reduce collapses each joint's series to its session-level value.
func Reduce(series angle.Series, opts Options) map[joint.ID]JointResult {
	out := make(map[joint.ID]JointResult, len(series))
	for id, samples := range series {
		out[id] = reduceJoint(id, samples, opts)
	}
	return out
}

func reduceJoint(id joint.ID, samples []angle.Sample, opts Options) JointResult {
	jr := JointResult{Joint: id, Max: math.Inf(-1), Min: math.Inf(1)}
	var targets angle.Targets
	for _, s := range samples {
		if !s.Valid || s.Confidence < opts.MinConfidence {
			continue
		}
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			continue
		}
		jr.Samples++
		jr.Max = math.Max(jr.Max, s.Value)
		jr.Min = math.Min(jr.Min, s.Value)
		targets = targets.Union(s.Targets)
	}
	if jr.Samples == 0 {
		return JointResult{Joint: id}
	}

	jr.HasData = true
	jr.Range = jr.Max - jr.Min
	switch {
	case id == joint.Kapandji:
		policy := opts.KapandjiPolicy
		if policy == "" {
			policy = angle.PolicyMonotonic
		}
		jr.Targets = targets
		jr.Value = float64(targets.Level(policy))
	case joint.Describe(id).Reduction == joint.Peak:
		jr.Value = jr.Max
	default:
		jr.Value = jr.Range
	}
	return jr
}

// Analyze extracts and reduces one repetition.
func Analyze(rep Repetition, ext angle.Extractor, ref *landmark.Frame, opts Options) Result {
	series := angle.ExtractSeries(ext, rep.frames, ref)
	hand, pose := ext.Requires()

	res := Result{
		RepetitionID: rep.id,
		Joints:       Reduce(series, opts),
		Quality:      quality.Evaluate(rep.frames, quality.Requirement{Hand: hand, Pose: pose}, opts.Quality),
	}
	if len(rep.frames) > 0 {
		var sum float64
		for _, f := range rep.frames {
			sum += f.Confidence()
		}
		res.AverageConfidence = sum / float64(len(rep.frames))
	}
	if k, ok := res.Joints[joint.Kapandji]; ok && k.HasData {
		level := int(k.Value)
		res.OppositionLevel = &level
	}
	return res
}

// Best combines repetition results with best-attempt semantics: each joint
// takes the repetition with the greatest value. Quality and confidence are
// pooled over every repetition.
func Best(results []Result) (Result, error) {
	if len(results) == 0 {
		return Result{}, ErrEmptyAssessment
	}

	out := Result{Joints: make(map[joint.ID]JointResult)}
	reports := make([]quality.Report, 0, len(results))
	var confidence float64
	var frames int

	for _, r := range results {
		for id, jr := range r.Joints {
			cur, ok := out.Joints[id]
			if !ok || (jr.HasData && (!cur.HasData || jr.Value > cur.Value)) {
				out.Joints[id] = jr
			}
		}
		if r.OppositionLevel != nil && (out.OppositionLevel == nil || *r.OppositionLevel > *out.OppositionLevel) {
			level := *r.OppositionLevel
			out.OppositionLevel = &level
		}
		reports = append(reports, r.Quality)
		confidence += r.AverageConfidence * float64(r.Quality.Frames)
		frames += r.Quality.Frames
	}

	out.Quality = quality.Combine(reports...)
	if frames > 0 {
		out.AverageConfidence = confidence / float64(frames)
	}
	return out, nil
}

// Package quality rates how trustworthy a repetition's measurements are from
// frame completeness and detection confidence.
package quality

import (
	"github.com/ayusman/handrom/internal/landmark"
)

// Score is a 0-100 quality rating, or InsufficientData.
type Score float64

// InsufficientData is reported for an empty frame sequence.
const InsufficientData Score = -1

// Sufficient reports whether s is a real rating.
func (s Score) Sufficient() bool {
	return s >= 0
}

// Requirement names the landmark sets a frame must carry to be usable.
type Requirement struct {
	Hand bool
	Pose bool
}

// Options weights the two quality components.
type Options struct {
	CompletenessWeight float64
	ConfidenceWeight   float64
	// MinUsableFrames is the usable frame count below which the score is
	// scaled down proportionally.
	MinUsableFrames int
	// Floor is the lowest score a non-empty sequence can receive.
	Floor float64
}

// DefaultOptions returns an even weighting with a floor of 5.
func DefaultOptions() Options {
	return Options{
		CompletenessWeight: 0.5,
		ConfidenceWeight:   0.5,
		MinUsableFrames:    5,
		Floor:              5,
	}
}

// Report is the breakdown behind a Score.
type Report struct {
	Score          Score   `json:"score"`
	Frames         int     `json:"frames"`
	Usable         int     `json:"usable"`
	Completeness   float64 `json:"completeness"`
	MeanConfidence float64 `json:"meanConfidence"`
}

// Evaluate scores a frame sequence.
func Evaluate(frames []landmark.Frame, req Requirement, opts Options) Report {
	r := Report{Frames: len(frames), Score: InsufficientData}
	if len(frames) == 0 {
		return r
	}

	wc, wf := opts.CompletenessWeight, opts.ConfidenceWeight
	if wc < 0 || wf < 0 || wc+wf <= 0 {
		def := DefaultOptions()
		wc, wf = def.CompletenessWeight, def.ConfidenceWeight
	}

	var sum float64
	for _, f := range frames {
		if !f.Usable(req.Hand, req.Pose) {
			continue
		}
		r.Usable++
		sum += f.Confidence()
	}
	r.Completeness = float64(r.Usable) / float64(len(frames))
	if r.Usable > 0 {
		r.MeanConfidence = sum / float64(r.Usable)
	}

	score := (wc*r.Completeness + wf*r.MeanConfidence) / (wc + wf) * 100
	if opts.MinUsableFrames > 0 && r.Usable < opts.MinUsableFrames {
		score *= float64(r.Usable) / float64(opts.MinUsableFrames)
	}
	if score < opts.Floor {
		score = opts.Floor
	}
	if score > 100 {
		score = 100
	}
	r.Score = Score(score)
	return r
}

// Combine merges per-repetition reports into one, weighting each score by
// its frame count. Reports without a rating are ignored; if none remain the
// result is InsufficientData.
func Combine(reports ...Report) Report {
	out := Report{Score: InsufficientData}
	var weighted, confidence float64
	for _, r := range reports {
		if !r.Score.Sufficient() {
			continue
		}
		out.Frames += r.Frames
		out.Usable += r.Usable
		weighted += float64(r.Score) * float64(r.Frames)
		confidence += r.MeanConfidence * float64(r.Usable)
	}
	if out.Frames == 0 {
		return out
	}
	out.Score = Score(weighted / float64(out.Frames))
	out.Completeness = float64(out.Usable) / float64(out.Frames)
	if out.Usable > 0 {
		out.MeanConfidence = confidence / float64(out.Usable)
	}
	return out
}

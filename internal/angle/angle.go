// Package angle extracts per-frame joint measurements from landmark frames.
//
// Every extractor is a pure function of one frame and an optional
// reference frame. Missing or degenerate landmarks produce invalid samples;
// they are never reported as a zero angle.
package angle

import (
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
)

// Sample is one joint measurement on one frame.
type Sample struct {
	FrameIndex int      `json:"frameIndex"`
	Joint      joint.ID `json:"joint"`
	Value      float64  `json:"value"`
	Valid      bool     `json:"valid"`
	Confidence float64  `json:"confidence"`
	// Targets holds the opposition targets reached on this frame. Only
	// Kapandji samples set it.
	Targets Targets `json:"targets,omitempty"`
}

// Series maps each joint to its samples in frame order.
type Series map[joint.ID][]Sample

// Extractor produces joint samples for one assessment type.
type Extractor interface {
	// Joints lists every joint the extractor can report.
	Joints() []joint.ID
	// Requires reports which landmark sets a frame needs to be measurable.
	Requires() (hand, pose bool)
	// Extract measures one frame. ref is an optional reference frame and may
	// be nil.
	Extract(frame landmark.Frame, ref *landmark.Frame) []Sample
}

// ExtractSeries runs ext over a repetition's frames. Every joint of the
// extractor gets an entry, possibly empty.
func ExtractSeries(ext Extractor, frames []landmark.Frame, ref *landmark.Frame) Series {
	series := make(Series, len(ext.Joints()))
	for _, id := range ext.Joints() {
		series[id] = nil
	}

	for i, f := range frames {
		for _, s := range ext.Extract(f, ref) {
			s.FrameIndex = i
			s.Confidence = f.Confidence()
			series[s.Joint] = append(series[s.Joint], s)
		}
	}
	return series
}

func valid(id joint.ID, v float64) Sample {
	return Sample{Joint: id, Value: v, Valid: true}
}

func invalid(id joint.ID) Sample {
	return Sample{Joint: id}
}

// split reports a signed angle as a magnitude on exactly one of two joints.
// Non-negative angles go to positive.
func split(signed float64, positive, negative joint.ID) Sample {
	if signed >= 0 {
		return valid(positive, signed)
	}
	return valid(negative, -signed)
}

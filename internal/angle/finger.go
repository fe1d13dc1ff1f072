package angle

import (
	"github.com/ayusman/handrom/internal/geometry"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
)

// FingerExtractor measures the interior angle at each joint of one digit
// and their sum, the total active motion. A straight digit reads 180° at
// every joint.
type FingerExtractor struct {
	finger landmark.Finger
}

// NewFingerExtractor creates a FingerExtractor for the given digit.
func NewFingerExtractor(f landmark.Finger) *FingerExtractor {
	return &FingerExtractor{finger: f}
}

// Finger returns the measured digit.
func (e *FingerExtractor) Finger() landmark.Finger {
	return e.finger
}

func (e *FingerExtractor) Joints() []joint.ID {
	return append(append([]joint.ID(nil), joint.ForFinger(e.finger)...), joint.TAMFor(e.finger))
}

func (e *FingerExtractor) Requires() (hand, pose bool) {
	return true, false
}

func (e *FingerExtractor) Extract(frame landmark.Frame, _ *landmark.Frame) []Sample {
	points, present := frame.Chain(e.finger)
	ids := joint.ForFinger(e.finger)
	samples := make([]Sample, 0, len(ids)+1)

	total, complete := 0.0, true
	for j, id := range ids {
		// Joint j sits at chain index j+1 between its neighbours.
		if !present[j] || !present[j+1] || !present[j+2] {
			samples = append(samples, invalid(id))
			complete = false
			continue
		}
		v, ok := geometry.AngleBetween(points[j], points[j+1], points[j+2])
		if !ok {
			samples = append(samples, invalid(id))
			complete = false
			continue
		}
		v = geometry.Clamp(v, 0, 180)
		total += v
		samples = append(samples, valid(id, v))
	}

	tam := joint.TAMFor(e.finger)
	if complete {
		samples = append(samples, valid(tam, total))
	} else {
		samples = append(samples, invalid(tam))
	}
	return samples
}

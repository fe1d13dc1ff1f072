package angle

import (
	"github.com/ayusman/handrom/internal/geometry"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
)

// armAxes holds the vectors of the elbow, wrist and hand triangle.
type armAxes struct {
	forearm geometry.Vec // elbow to wrist
	hand    geometry.Vec // wrist to middle knuckle
	radial  geometry.Vec // little knuckle to index knuckle, orthogonal to hand
}

func axesOf(f landmark.Frame) (armAxes, bool) {
	elbow, ok := f.Elbow()
	if !ok {
		return armAxes{}, false
	}
	wrist, ok := f.Wrist()
	if !ok {
		return armAxes{}, false
	}
	middle, ok := f.MiddleMCP()
	if !ok {
		return armAxes{}, false
	}
	index, ok := f.IndexMCP()
	if !ok {
		return armAxes{}, false
	}
	pinky, ok := f.PinkyMCP()
	if !ok {
		return armAxes{}, false
	}

	a := armAxes{
		forearm: wrist.Sub(elbow),
		hand:    middle.Sub(wrist),
	}
	if _, ok := a.forearm.Unit(); !ok {
		return armAxes{}, false
	}
	radial, ok := index.Sub(pinky).Reject(a.hand)
	if !ok {
		return armAxes{}, false
	}
	if _, ok := radial.Unit(); !ok {
		return armAxes{}, false
	}
	a.radial = radial
	return a, true
}

// WristFlexionExtractor measures wrist bend in the plane orthogonal to the
// knuckle line. Bending toward the palm is flexion; away from it is
// extension. Each frame reports on exactly one of the two joints.
type WristFlexionExtractor struct{}

func (WristFlexionExtractor) Joints() []joint.ID {
	return []joint.ID{joint.WristFlexion, joint.WristExtension}
}

func (WristFlexionExtractor) Requires() (hand, pose bool) {
	return true, true
}

func (WristFlexionExtractor) Extract(frame landmark.Frame, _ *landmark.Frame) []Sample {
	a, ok := axesOf(frame)
	if !ok {
		return []Sample{invalid(joint.WristFlexion), invalid(joint.WristExtension)}
	}
	// Rotation from forearm to hand about the radial axis is positive when
	// the hand turns toward the palmar normal (radial × hand).
	signed, ok := geometry.SignedAngleInPlane(a.forearm, a.hand, a.radial)
	if !ok {
		return []Sample{invalid(joint.WristFlexion), invalid(joint.WristExtension)}
	}
	return []Sample{split(signed, joint.WristFlexion, joint.WristExtension)}
}

// WristDeviationExtractor measures side bending in the palm plane. Bending
// toward the thumb is radial deviation; toward the little finger is ulnar.
type WristDeviationExtractor struct{}

func (WristDeviationExtractor) Joints() []joint.ID {
	return []joint.ID{joint.RadialDeviation, joint.UlnarDeviation}
}

func (WristDeviationExtractor) Requires() (hand, pose bool) {
	return true, true
}

func (WristDeviationExtractor) Extract(frame landmark.Frame, _ *landmark.Frame) []Sample {
	a, ok := axesOf(frame)
	if !ok {
		return []Sample{invalid(joint.RadialDeviation), invalid(joint.UlnarDeviation)}
	}
	dorsal := a.hand.Cross(a.radial)
	signed, ok := geometry.SignedAngleInPlane(a.forearm, a.hand, dorsal)
	if !ok {
		return []Sample{invalid(joint.RadialDeviation), invalid(joint.UlnarDeviation)}
	}
	return []Sample{split(signed, joint.RadialDeviation, joint.UlnarDeviation)}
}

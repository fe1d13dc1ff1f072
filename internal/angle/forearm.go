package angle

import (
	"github.com/ayusman/handrom/internal/geometry"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
)

// ForearmRotationExtractor measures the rotation of the hand plane about
// the forearm axis. The zero position is the arm plane (shoulder, elbow,
// wrist), or the hand plane of a reference frame when one is given.
// Positive rotation about elbow→wrist is supination.
type ForearmRotationExtractor struct{}

func (ForearmRotationExtractor) Joints() []joint.ID {
	return []joint.ID{joint.Supination, joint.Pronation}
}

func (ForearmRotationExtractor) Requires() (hand, pose bool) {
	return true, true
}

func (ForearmRotationExtractor) Extract(frame landmark.Frame, ref *landmark.Frame) []Sample {
	fail := []Sample{invalid(joint.Supination), invalid(joint.Pronation)}

	elbow, ok := frame.Elbow()
	if !ok {
		return fail
	}
	wrist, ok := frame.Wrist()
	if !ok {
		return fail
	}
	forearm := wrist.Sub(elbow)

	var neutral geometry.Vec
	if ref != nil {
		if neutral, ok = palmNormal(*ref); !ok {
			return fail
		}
	} else {
		shoulder, ok := frame.Shoulder()
		if !ok {
			return fail
		}
		neutral = elbow.Sub(shoulder).Cross(forearm)
	}

	palm, ok := palmNormal(frame)
	if !ok {
		return fail
	}

	signed, ok := geometry.SignedAngleInPlane(neutral, palm, forearm)
	if !ok {
		return fail
	}
	return []Sample{split(signed, joint.Supination, joint.Pronation)}
}

// palmNormal returns the normal of the wrist, index knuckle, little knuckle
// plane, pointing out of the palm.
func palmNormal(f landmark.Frame) (geometry.Vec, bool) {
	wrist, ok := f.Wrist()
	if !ok {
		return geometry.Vec{}, false
	}
	index, ok := f.IndexMCP()
	if !ok {
		return geometry.Vec{}, false
	}
	pinky, ok := f.PinkyMCP()
	if !ok {
		return geometry.Vec{}, false
	}
	n := index.Sub(wrist).Cross(pinky.Sub(wrist))
	if _, ok := n.Unit(); !ok {
		return geometry.Vec{}, false
	}
	return n, true
}

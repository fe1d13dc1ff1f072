// Package landmark provides typed views over a single tracker detection:
// the 21-point hand set and the supporting pose set, with named anatomical
// accessors and handedness-aware mirroring.
package landmark

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/handrom/internal/geometry"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Pose landmark indices following the MediaPipe pose convention.
const (
	PoseLeftShoulder  = 11
	PoseRightShoulder = 12
	PoseLeftElbow     = 13
	PoseRightElbow    = 14
	PoseLeftWrist     = 15
	PoseRightWrist    = 16
	NumPoseLandmarks  = 33
)

var (
	// ErrHandLandmarkCount is returned when a hand set does not have exactly
	// NumLandmarks entries.
	ErrHandLandmarkCount = errors.New("hand landmark set must have 21 points")
	// ErrPoseLandmarkCount is returned when a pose set does not have exactly
	// NumPoseLandmarks entries.
	ErrPoseLandmarkCount = errors.New("pose landmark set must have 33 points")
	// ErrConfidenceRange is returned when detection confidence is outside [0,1].
	ErrConfidenceRange = errors.New("detection confidence must be within [0,1]")
)

// Handedness identifies which hand a frame was detected for.
type Handedness int

const (
	HandUnknown Handedness = iota
	HandLeft
	HandRight
)

// ParseHandedness converts the tracker's label to a Handedness.
// Unrecognized labels map to HandUnknown.
func ParseHandedness(s string) Handedness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left":
		return HandLeft
	case "right":
		return HandRight
	default:
		return HandUnknown
	}
}

func (h Handedness) String() string {
	switch h {
	case HandLeft:
		return "Left"
	case HandRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// Frame is one detection of hand and/or pose landmarks. Frames are
// immutable once built; left-hand frames are stored mirrored so that every
// geometric accessor sees right-hand geometry.
type Frame struct {
	hand       []geometry.Point
	pose       []geometry.Point
	handedness Handedness
	confidence float64
	timestamp  int64
}

// NewFrame validates the landmark sets and builds a Frame. Either set may be
// nil. A non-nil set with the wrong number of points is a contract violation.
func NewFrame(hand, pose []geometry.Point, handedness Handedness, confidence float64, timestamp int64) (Frame, error) {
	if hand != nil && len(hand) != NumLandmarks {
		return Frame{}, fmt.Errorf("%w: got %d", ErrHandLandmarkCount, len(hand))
	}
	if pose != nil && len(pose) != NumPoseLandmarks {
		return Frame{}, fmt.Errorf("%w: got %d", ErrPoseLandmarkCount, len(pose))
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return Frame{}, fmt.Errorf("%w: got %f", ErrConfidenceRange, confidence)
	}

	f := Frame{
		handedness: handedness,
		confidence: confidence,
		timestamp:  timestamp,
	}
	f.hand = canonical(hand, handedness)
	f.pose = canonical(pose, handedness)
	return f, nil
}

// canonical copies points, mirroring them for left hands.
func canonical(points []geometry.Point, handedness Handedness) []geometry.Point {
	if points == nil {
		return nil
	}
	out := make([]geometry.Point, len(points))
	for i, p := range points {
		if handedness == HandLeft {
			p = geometry.MirrorX(p)
		}
		out[i] = p
	}
	return out
}

// Handedness returns the hand the frame was detected for.
func (f Frame) Handedness() Handedness { return f.handedness }

// Confidence returns the tracker's detection confidence in [0,1].
func (f Frame) Confidence() float64 { return f.confidence }

// Timestamp returns the tracker timestamp.
func (f Frame) Timestamp() int64 { return f.timestamp }

// HasHand reports whether the hand landmark set is present.
func (f Frame) HasHand() bool { return f.hand != nil }

// HasPose reports whether the pose landmark set is present.
func (f Frame) HasPose() bool { return f.pose != nil }

// Hand returns the hand landmark at index i. The second result is false when
// the hand set is absent, the index is out of range, or the point is not
// finite.
func (f Frame) Hand(i int) (geometry.Point, bool) {
	return at(f.hand, i)
}

// Pose returns the pose landmark at index i.
func (f Frame) Pose(i int) (geometry.Point, bool) {
	return at(f.pose, i)
}

func at(points []geometry.Point, i int) (geometry.Point, bool) {
	if i < 0 || i >= len(points) {
		return geometry.Point{}, false
	}
	p := points[i]
	if !p.Finite() {
		return geometry.Point{}, false
	}
	return p, true
}

// Usable reports whether every point in the requested sets is present and
// finite.
func (f Frame) Usable(needHand, needPose bool) bool {
	if needHand && !allFinite(f.hand) {
		return false
	}
	if needPose && !allFinite(f.pose) {
		return false
	}
	return needHand || needPose
}

func allFinite(points []geometry.Point) bool {
	if points == nil {
		return false
	}
	for _, p := range points {
		if !p.Finite() {
			return false
		}
	}
	return true
}

// Wrist returns the hand wrist landmark, falling back to the pose wrist on
// the detected side when the hand set is absent.
func (f Frame) Wrist() (geometry.Point, bool) {
	if p, ok := f.Hand(Wrist); ok {
		return p, true
	}
	return f.PoseWrist()
}

// ThumbTip returns the thumb tip.
func (f Frame) ThumbTip() (geometry.Point, bool) { return f.Hand(ThumbTip) }

// IndexMCP returns the index finger knuckle.
func (f Frame) IndexMCP() (geometry.Point, bool) { return f.Hand(IndexMCP) }

// IndexPIP returns the index finger proximal interphalangeal joint.
func (f Frame) IndexPIP() (geometry.Point, bool) { return f.Hand(IndexPIP) }

// IndexDIP returns the index finger distal interphalangeal joint.
func (f Frame) IndexDIP() (geometry.Point, bool) { return f.Hand(IndexDIP) }

// IndexTip returns the index finger tip.
func (f Frame) IndexTip() (geometry.Point, bool) { return f.Hand(IndexTip) }

// MiddleMCP returns the middle finger knuckle.
func (f Frame) MiddleMCP() (geometry.Point, bool) { return f.Hand(MiddleMCP) }

// PinkyMCP returns the little finger knuckle.
func (f Frame) PinkyMCP() (geometry.Point, bool) { return f.Hand(PinkyMCP) }

// Shoulder returns the pose shoulder on the side of the detected hand.
func (f Frame) Shoulder() (geometry.Point, bool) {
	return f.poseSide(PoseLeftShoulder, PoseRightShoulder)
}

// Elbow returns the pose elbow on the side of the detected hand.
func (f Frame) Elbow() (geometry.Point, bool) {
	return f.poseSide(PoseLeftElbow, PoseRightElbow)
}

// PoseWrist returns the pose wrist on the side of the detected hand.
func (f Frame) PoseWrist() (geometry.Point, bool) {
	return f.poseSide(PoseLeftWrist, PoseRightWrist)
}

// poseSide picks the left or right pose index. Unknown handedness uses the
// right side.
func (f Frame) poseSide(left, right int) (geometry.Point, bool) {
	if f.handedness == HandLeft {
		return f.Pose(left)
	}
	return f.Pose(right)
}

// HandSpan returns the wrist to middle-knuckle distance, the scale used to
// normalize hand-relative distances.
func (f Frame) HandSpan() (float64, bool) {
	w, ok := f.Hand(Wrist)
	if !ok {
		return 0, false
	}
	m, ok := f.Hand(MiddleMCP)
	if !ok {
		return 0, false
	}
	span := geometry.Distance(w, m)
	if span < geometry.Epsilon {
		return 0, false
	}
	return span, true
}

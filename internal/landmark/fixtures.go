package landmark

import (
	"math"

	"github.com/ayusman/handrom/internal/geometry"
)

// handLayout places each hand landmark of an open palm in hand-local
// coordinates: distance along the finger axis, along the radial (thumb-side)
// axis and along the palmar normal, in units of normalized image space.
var handLayout = [NumLandmarks][3]float64{
	Wrist:     {0, 0, 0},
	ThumbCMC:  {0.05, 0.05, 0},
	ThumbMCP:  {0.10, 0.12, 0},
	ThumbIP:   {0.15, 0.18, 0},
	ThumbTip:  {0.20, 0.23, 0},
	IndexMCP:  {0.12, 0.05, 0},
	IndexPIP:  {0.25, 0.07, 0},
	IndexDIP:  {0.35, 0.08, 0},
	IndexTip:  {0.45, 0.08, 0},
	MiddleMCP: {0.14, 0, 0},
	MiddlePIP: {0.28, 0, 0},
	MiddleDIP: {0.40, 0, 0},
	MiddleTip: {0.52, 0, 0},
	RingMCP:   {0.12, -0.05, 0},
	RingPIP:   {0.25, -0.07, 0},
	RingDIP:   {0.35, -0.08, 0},
	RingTip:   {0.45, -0.08, 0},
	PinkyMCP:  {0.10, -0.10, 0},
	PinkyPIP:  {0.20, -0.13, 0},
	PinkyDIP:  {0.30, -0.15, 0},
	PinkyTip:  {0.38, -0.16, 0},
}

// Canonical arm placement used by the fixtures: forearm pointing up the
// image, upper arm running toward smaller x, palm facing the camera.
var (
	fixtureShoulder = geometry.Point{X: 0.2, Y: 0.9, Z: 0}
	fixtureElbow    = geometry.Point{X: 0.5, Y: 0.9, Z: 0}
	fixtureWrist    = geometry.Point{X: 0.5, Y: 0.6, Z: 0}

	axisFinger = geometry.Vec{Y: -1}
	axisRadial = geometry.Vec{X: 1}
	axisPalmar = geometry.Vec{Z: -1}
)

// ArmPose describes a wrist and forearm posture in degrees. Positive values
// are flexion, radial deviation and supination respectively.
type ArmPose struct {
	Flexion   float64
	Deviation float64
	Rotation  float64
}

// OpenPalmPoints returns the raw tracker points of an open right hand with
// the wrist at (0.5, 0.8), fingers pointing up the image.
func OpenPalmPoints() []geometry.Point {
	return layoutHand(geometry.Point{X: 0.5, Y: 0.8}, axisFinger, axisRadial, axisPalmar)
}

// OpenPalmFrame returns an open hand frame with no pose landmarks. Left
// frames carry the mirror image so that both sides describe the same hand.
func OpenPalmFrame(handedness Handedness, confidence float64) Frame {
	return mustFrame(raw(OpenPalmPoints(), handedness), nil, handedness, confidence)
}

// StraightIndexPoints returns an open hand whose index finger is a straight
// vertical line from the wrist: wrist (0.5,0.9), MCP (0.5,0.6), PIP
// (0.5,0.45), DIP (0.5,0.35), tip (0.5,0.25).
func StraightIndexPoints() []geometry.Point {
	points := layoutHand(geometry.Point{X: 0.5, Y: 0.9}, axisFinger, axisRadial, axisPalmar)
	points[IndexMCP] = geometry.Point{X: 0.5, Y: 0.6}
	points[IndexPIP] = geometry.Point{X: 0.5, Y: 0.45}
	points[IndexDIP] = geometry.Point{X: 0.5, Y: 0.35}
	points[IndexTip] = geometry.Point{X: 0.5, Y: 0.25}
	return points
}

// StraightIndexFrame returns a right hand frame built from StraightIndexPoints.
func StraightIndexFrame(confidence float64) Frame {
	return mustFrame(StraightIndexPoints(), nil, HandRight, confidence)
}

// FlexedFingerPoints returns an open hand with one digit bent toward the
// palm. bends are the flexion in degrees at each measured joint from
// proximal to distal (MCP, PIP, DIP; MCP, IP for the thumb). The interior
// angle reported at each joint is 180 minus its bend.
func FlexedFingerPoints(finger Finger, bends ...float64) []geometry.Point {
	points := OpenPalmPoints()
	idx := chains[finger]

	dir := points[idx[1]].Sub(points[idx[0]])
	t, _ := dir.Unit()
	p := axisPalmar

	var bend float64
	for j := 1; j+1 < len(idx); j++ {
		if j-1 < len(bends) {
			bend += bends[j-1]
		}
		length := segmentLength(idx[j], idx[j+1])
		rad := bend * math.Pi / 180
		seg := t.Scale(math.Cos(rad)).Add(p.Scale(math.Sin(rad)))
		points[idx[j+1]] = points[idx[j]].Add(seg.Scale(length))
	}
	return points
}

// FlexedFingerFrame returns a right hand frame built from FlexedFingerPoints.
func FlexedFingerFrame(confidence float64, finger Finger, bends ...float64) Frame {
	return mustFrame(FlexedFingerPoints(finger, bends...), nil, HandRight, confidence)
}

// ArmFrame returns a combined pose and hand frame for the given posture.
func ArmFrame(pose ArmPose, handedness Handedness, confidence float64) Frame {
	hand, body := ArmPoints(pose)
	if handedness == HandLeft {
		body = swapSides(body)
	}
	return mustFrame(raw(hand, handedness), raw(body, handedness), handedness, confidence)
}

// swapSides exchanges the left and right arm pose landmarks.
func swapSides(body []geometry.Point) []geometry.Point {
	out := append([]geometry.Point(nil), body...)
	pairs := [][2]int{
		{PoseLeftShoulder, PoseRightShoulder},
		{PoseLeftElbow, PoseRightElbow},
		{PoseLeftWrist, PoseRightWrist},
	}
	for _, pr := range pairs {
		out[pr[0]], out[pr[1]] = out[pr[1]], out[pr[0]]
	}
	return out
}

// ArmPoints returns the canonical right-side hand and pose points for the
// given posture.
func ArmPoints(pose ArmPose) (hand, body []geometry.Point) {
	u, r, p := axisFinger, axisRadial, axisPalmar

	// Deviation turns the finger axis toward the radial axis.
	b := pose.Deviation * math.Pi / 180
	u, r = u.Scale(math.Cos(b)).Add(r.Scale(math.Sin(b))), r.Scale(math.Cos(b)).Sub(u.Scale(math.Sin(b)))

	// Flexion turns the finger axis toward the palm.
	a := pose.Flexion * math.Pi / 180
	u, p = u.Scale(math.Cos(a)).Add(p.Scale(math.Sin(a))), p.Scale(math.Cos(a)).Sub(u.Scale(math.Sin(a)))

	// Rotation turns the whole hand about the forearm axis.
	axis := fixtureWrist.Sub(fixtureElbow)
	g := pose.Rotation * math.Pi / 180
	u, r, p = rotate(u, axis, g), rotate(r, axis, g), rotate(p, axis, g)

	hand = layoutHand(fixtureWrist, u, r, p)

	body = make([]geometry.Point, NumPoseLandmarks)
	for i := range body {
		body[i] = geometry.Point{X: 0.5, Y: 0.5}
	}
	body[PoseRightShoulder] = fixtureShoulder
	body[PoseRightElbow] = fixtureElbow
	body[PoseRightWrist] = fixtureWrist
	body[PoseLeftShoulder] = geometry.Point{X: 0.8, Y: 0.9}
	body[PoseLeftElbow] = geometry.Point{X: 0.9, Y: 0.95}
	body[PoseLeftWrist] = geometry.Point{X: 0.95, Y: 0.99}
	return hand, body
}

// MustFrame builds a frame from raw tracker points and panics on contract
// violations. Intended for tests.
func MustFrame(hand, pose []geometry.Point, handedness Handedness, confidence float64) Frame {
	return mustFrame(hand, pose, handedness, confidence)
}

func mustFrame(hand, pose []geometry.Point, handedness Handedness, confidence float64) Frame {
	f, err := NewFrame(hand, pose, handedness, confidence, 0)
	if err != nil {
		panic(err)
	}
	return f
}

// raw converts canonical points to what the tracker reports for the given
// hand.
func raw(points []geometry.Point, handedness Handedness) []geometry.Point {
	if handedness != HandLeft {
		return points
	}
	out := make([]geometry.Point, len(points))
	for i, p := range points {
		out[i] = geometry.MirrorX(p)
	}
	return out
}

func layoutHand(wrist geometry.Point, u, r, p geometry.Vec) []geometry.Point {
	points := make([]geometry.Point, NumLandmarks)
	for i, l := range handLayout {
		points[i] = wrist.Add(u.Scale(l[0])).Add(r.Scale(l[1])).Add(p.Scale(l[2]))
	}
	return points
}

func segmentLength(from, to int) float64 {
	a, b := handLayout[from], handLayout[to]
	return math.Sqrt((a[0]-b[0])*(a[0]-b[0]) + (a[1]-b[1])*(a[1]-b[1]) + (a[2]-b[2])*(a[2]-b[2]))
}

// rotate turns v about axis by angle radians (Rodrigues' formula).
func rotate(v, axis geometry.Vec, angle float64) geometry.Vec {
	k, ok := axis.Unit()
	if !ok {
		return v
	}
	cos, sin := math.Cos(angle), math.Sin(angle)
	return v.Scale(cos).
		Add(k.Cross(v).Scale(sin)).
		Add(k.Scale(k.Dot(v) * (1 - cos)))
}

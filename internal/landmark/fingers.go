package landmark

import (
	"fmt"
	"strings"

	"github.com/ayusman/handrom/internal/geometry"
)

// Finger identifies a digit.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

// Fingers lists all digits in anatomical order.
var Fingers = []Finger{Thumb, Index, Middle, Ring, Pinky}

var fingerNames = map[Finger]string{
	Thumb:  "thumb",
	Index:  "index",
	Middle: "middle",
	Ring:   "ring",
	Pinky:  "pinky",
}

func (f Finger) String() string {
	if name, ok := fingerNames[f]; ok {
		return name
	}
	return fmt.Sprintf("finger(%d)", int(f))
}

// ParseFinger converts a digit name to a Finger.
func ParseFinger(s string) (Finger, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range fingerNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown finger %q", s)
}

// chains holds the proximal-to-distal landmark indices of each digit,
// starting from the joint proximal to the first measured joint. For the
// long fingers that is the wrist; for the thumb the carpometacarpal joint,
// and the thumb has no DIP so its last entry is the tip.
var chains = map[Finger][]int{
	Thumb:  {ThumbCMC, ThumbMCP, ThumbIP, ThumbTip},
	Index:  {Wrist, IndexMCP, IndexPIP, IndexDIP, IndexTip},
	Middle: {Wrist, MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
	Ring:   {Wrist, RingMCP, RingPIP, RingDIP, RingTip},
	Pinky:  {Wrist, PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
}

// Chain returns the landmarks of a digit from proximal to distal. A missing
// landmark is reported through the per-point ok flags so callers can
// measure the joints that remain available.
func (f Frame) Chain(finger Finger) ([]geometry.Point, []bool) {
	idx := chains[finger]
	points := make([]geometry.Point, len(idx))
	ok := make([]bool, len(idx))
	for i, li := range idx {
		points[i], ok[i] = f.Hand(li)
	}
	return points, ok
}

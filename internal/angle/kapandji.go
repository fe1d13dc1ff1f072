package angle

import (
	"fmt"
	"math/bits"

	"github.com/ayusman/handrom/internal/geometry"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
)

// MaxKapandjiLevel is the top of the opposition scale.
const MaxKapandjiLevel = 10

// Policy decides how gaps in the reached targets affect the level.
type Policy string

const (
	// PolicyMonotonic reports the longest run of reached targets starting at
	// level 1. A missed target caps the level below it.
	PolicyMonotonic Policy = "monotonic"
	// PolicyHighest reports the highest reached target and ignores gaps.
	PolicyHighest Policy = "highest"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyMonotonic, PolicyHighest:
		return p, nil
	}
	return "", fmt.Errorf("unknown kapandji policy %q", s)
}

// Targets is a set of reached opposition levels; bit n-1 is level n.
type Targets uint16

// With returns t with level added.
func (t Targets) With(level int) Targets {
	if level < 1 || level > MaxKapandjiLevel {
		return t
	}
	return t | 1<<(level-1)
}

// Has reports whether level is in the set.
func (t Targets) Has(level int) bool {
	if level < 1 || level > MaxKapandjiLevel {
		return false
	}
	return t&(1<<(level-1)) != 0
}

// Union returns the targets reached in either set.
func (t Targets) Union(o Targets) Targets {
	return t | o
}

// Level scores the set under the given policy.
func (t Targets) Level(p Policy) int {
	if p == PolicyHighest {
		return bits.Len16(uint16(t))
	}
	return bits.TrailingZeros16(^uint16(t))
}

// kapandjiTargets locates the ten opposition targets in increasing order of
// difficulty.
var kapandjiTargets = [MaxKapandjiLevel]func(landmark.Frame) (geometry.Point, bool){
	// Radial side of the index proximal phalanx.
	midpoint(landmark.IndexMCP, landmark.IndexPIP, 0.5),
	// Index middle phalanx.
	midpoint(landmark.IndexPIP, landmark.IndexDIP, 0.5),
	point(landmark.IndexTip),
	point(landmark.MiddleTip),
	point(landmark.RingTip),
	point(landmark.PinkyTip),
	point(landmark.PinkyDIP),
	point(landmark.PinkyPIP),
	// Base of the little finger.
	point(landmark.PinkyMCP),
	// Distal palmar crease, halfway from the little knuckle to the wrist.
	midpoint(landmark.PinkyMCP, landmark.Wrist, 0.5),
}

func point(i int) func(landmark.Frame) (geometry.Point, bool) {
	return func(f landmark.Frame) (geometry.Point, bool) {
		return f.Hand(i)
	}
}

func midpoint(a, b int, t float64) func(landmark.Frame) (geometry.Point, bool) {
	return func(f landmark.Frame) (geometry.Point, bool) {
		pa, ok := f.Hand(a)
		if !ok {
			return geometry.Point{}, false
		}
		pb, ok := f.Hand(b)
		if !ok {
			return geometry.Point{}, false
		}
		return pa.Lerp(pb, t), true
	}
}

// KapandjiOptions configures opposition detection.
type KapandjiOptions struct {
	// Threshold is the thumb-to-target distance, as a fraction of hand span,
	// below which a target counts as reached.
	Threshold float64
	Policy    Policy
}

// DefaultKapandjiOptions returns the default opposition settings.
func DefaultKapandjiOptions() KapandjiOptions {
	return KapandjiOptions{Threshold: 0.3, Policy: PolicyMonotonic}
}

// KapandjiExtractor detects which opposition targets the thumb tip touches.
// Each sample carries the reached targets; its value is the highest target
// touched on that frame. The session level is scored from the union of all
// frames' targets under the configured policy.
type KapandjiExtractor struct {
	opts KapandjiOptions
}

// NewKapandjiExtractor creates a KapandjiExtractor. A non-positive threshold
// falls back to the default.
func NewKapandjiExtractor(opts KapandjiOptions) *KapandjiExtractor {
	def := DefaultKapandjiOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.Policy == "" {
		opts.Policy = def.Policy
	}
	return &KapandjiExtractor{opts: opts}
}

// Options returns the effective settings.
func (e *KapandjiExtractor) Options() KapandjiOptions {
	return e.opts
}

func (e *KapandjiExtractor) Joints() []joint.ID {
	return []joint.ID{joint.Kapandji}
}

func (e *KapandjiExtractor) Requires() (hand, pose bool) {
	return true, false
}

func (e *KapandjiExtractor) Extract(frame landmark.Frame, _ *landmark.Frame) []Sample {
	tip, ok := frame.ThumbTip()
	if !ok {
		return []Sample{invalid(joint.Kapandji)}
	}
	span, ok := frame.HandSpan()
	if !ok {
		return []Sample{invalid(joint.Kapandji)}
	}

	var reached Targets
	for i, locate := range kapandjiTargets {
		target, ok := locate(frame)
		if !ok {
			continue
		}
		if geometry.Distance(tip, target)/span < e.opts.Threshold {
			reached = reached.With(i + 1)
		}
	}

	s := valid(joint.Kapandji, float64(reached.Level(PolicyHighest)))
	s.Targets = reached
	return []Sample{s}
}

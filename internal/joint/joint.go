// Package joint defines the measurement identifiers shared by the angle
// extractors, the session reducer and the clinical classifier.
package joint

import (
	"fmt"
	"sort"

	"github.com/ayusman/handrom/internal/landmark"
)

// ID identifies a measured joint, motion or patient-reported scale.
type ID string

const (
	ThumbMCP  ID = "thumb_mcp"
	ThumbIP   ID = "thumb_ip"
	ThumbTAM  ID = "thumb_tam"
	IndexMCP  ID = "index_mcp"
	IndexPIP  ID = "index_pip"
	IndexDIP  ID = "index_dip"
	IndexTAM  ID = "index_tam"
	MiddleMCP ID = "middle_mcp"
	MiddlePIP ID = "middle_pip"
	MiddleDIP ID = "middle_dip"
	MiddleTAM ID = "middle_tam"
	RingMCP   ID = "ring_mcp"
	RingPIP   ID = "ring_pip"
	RingDIP   ID = "ring_dip"
	RingTAM   ID = "ring_tam"
	PinkyMCP  ID = "pinky_mcp"
	PinkyPIP  ID = "pinky_pip"
	PinkyDIP  ID = "pinky_dip"
	PinkyTAM  ID = "pinky_tam"

	WristFlexion    ID = "wrist_flexion"
	WristExtension  ID = "wrist_extension"
	RadialDeviation ID = "radial_deviation"
	UlnarDeviation  ID = "ulnar_deviation"
	Pronation       ID = "pronation"
	Supination      ID = "supination"

	Kapandji ID = "kapandji"

	DASH ID = "dash"
	PRWE ID = "prwe"
	Pain ID = "pain"
)

// Reduction selects how a session series collapses to one value.
type Reduction int

const (
	// Range reports max minus min over the session.
	Range Reduction = iota
	// Peak reports the greatest value over the session.
	Peak
)

// Direction states which way a measurement improves.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// Unit is the measure a value is expressed in.
type Unit string

const (
	Degrees Unit = "°"
	Level   Unit = "level"
	Points  Unit = "points"
)

// Info is the static description of a joint.
type Info struct {
	Name      string
	Unit      Unit
	Reduction Reduction
	Direction Direction
}

var registry = map[ID]Info{
	WristFlexion:    {Name: "Wrist flexion", Unit: Degrees, Reduction: Peak},
	WristExtension:  {Name: "Wrist extension", Unit: Degrees, Reduction: Peak},
	RadialDeviation: {Name: "Radial deviation", Unit: Degrees, Reduction: Peak},
	UlnarDeviation:  {Name: "Ulnar deviation", Unit: Degrees, Reduction: Peak},
	Pronation:       {Name: "Forearm pronation", Unit: Degrees, Reduction: Peak},
	Supination:      {Name: "Forearm supination", Unit: Degrees, Reduction: Peak},
	Kapandji:        {Name: "Thumb opposition (Kapandji)", Unit: Level, Reduction: Peak},
	DASH:            {Name: "DASH score", Unit: Points, Reduction: Peak, Direction: LowerIsBetter},
	PRWE:            {Name: "PRWE score", Unit: Points, Reduction: Peak, Direction: LowerIsBetter},
	Pain:            {Name: "Pain score", Unit: Points, Reduction: Peak, Direction: LowerIsBetter},
}

var fingerJoints = map[landmark.Finger][]ID{
	landmark.Thumb:  {ThumbMCP, ThumbIP},
	landmark.Index:  {IndexMCP, IndexPIP, IndexDIP},
	landmark.Middle: {MiddleMCP, MiddlePIP, MiddleDIP},
	landmark.Ring:   {RingMCP, RingPIP, RingDIP},
	landmark.Pinky:  {PinkyMCP, PinkyPIP, PinkyDIP},
}

var fingerTAM = map[landmark.Finger]ID{
	landmark.Thumb:  ThumbTAM,
	landmark.Index:  IndexTAM,
	landmark.Middle: MiddleTAM,
	landmark.Ring:   RingTAM,
	landmark.Pinky:  PinkyTAM,
}

func init() {
	labels := []string{"MCP", "PIP", "DIP"}
	for finger, ids := range fingerJoints {
		name := finger.String()
		for i, id := range ids {
			label := labels[i]
			if finger == landmark.Thumb && i == 1 {
				label = "IP"
			}
			registry[id] = Info{Name: fmt.Sprintf("%s %s", titleCase(name), label), Unit: Degrees, Reduction: Range}
		}
		registry[fingerTAM[finger]] = Info{Name: fmt.Sprintf("%s total active motion", titleCase(name)), Unit: Degrees, Reduction: Range}
	}
}

// Lookup returns the static description of id.
func Lookup(id ID) (Info, bool) {
	info, ok := registry[id]
	return info, ok
}

// Describe returns the description of id, or a generic degrees/range entry
// named after the id when it is not registered.
func Describe(id ID) Info {
	if info, ok := registry[id]; ok {
		return info
	}
	return Info{Name: string(id), Unit: Degrees, Reduction: Range}
}

// Parse validates a joint id string.
func Parse(s string) (ID, error) {
	id := ID(s)
	if _, ok := registry[id]; !ok {
		return "", fmt.Errorf("unknown joint %q", s)
	}
	return id, nil
}

// All returns every registered joint id in sorted order.
func All() []ID {
	ids := make([]ID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ForFinger returns the per-joint ids of a digit from proximal to distal.
func ForFinger(f landmark.Finger) []ID {
	return fingerJoints[f]
}

// TAMFor returns the total active motion id of a digit.
func TAMFor(f landmark.Finger) ID {
	return fingerTAM[f]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

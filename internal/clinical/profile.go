// Package clinical interprets reduced measurements against per-injury target
// tables.
package clinical

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/ayusman/handrom/internal/joint"
)

// DefaultInjury is the profile consulted when an injury type or joint has no
// entry of its own.
const DefaultInjury = "default"

// ErrInvalidProfile is returned for a profile table that fails validation.
var ErrInvalidProfile = errors.New("invalid injury profile")

// Target is the expected range and goal of one joint for one injury type.
type Target struct {
	NormalMin   float64 `toml:"normal_min" json:"normalMin"`
	NormalMax   float64 `toml:"normal_max" json:"normalMax"`
	TargetValue float64 `toml:"target" json:"targetValue"`
}

// Profile holds the targets of one injury type.
type Profile map[joint.ID]Target

// Table maps injury types to their profiles.
type Table map[string]Profile

//go:embed profiles.toml
var builtinTOML []byte

var builtin = sync.OnceValue(func() Table {
	t, err := ParseTable(builtinTOML)
	if err != nil {
		panic(fmt.Sprintf("clinical: built-in profiles: %v", err))
	}
	return t
})

// Builtin returns a copy of the built-in profile table.
func Builtin() Table {
	return builtin().Clone()
}

// ParseTable decodes a TOML profile table. Each top-level table names an
// injury type and each key within it a joint id.
func ParseTable(data []byte) (Table, error) {
	var raw map[string]map[string]Target
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	t := make(Table, len(raw))
	for injury, joints := range raw {
		p := make(Profile, len(joints))
		for name, target := range joints {
			id, err := joint.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidProfile, injury, err)
			}
			p[id] = target
		}
		t[injury] = p
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadTable reads a TOML profile table from path.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return ParseTable(data)
}

// Validate checks every target for finite, ordered values.
func (t Table) Validate() error {
	for injury, p := range t {
		if injury == "" {
			return fmt.Errorf("%w: empty injury type", ErrInvalidProfile)
		}
		for id, target := range p {
			if err := target.validate(); err != nil {
				return fmt.Errorf("%w: %s/%s: %v", ErrInvalidProfile, injury, id, err)
			}
		}
	}
	return nil
}

func (tg Target) validate() error {
	for _, v := range []float64{tg.NormalMin, tg.NormalMax, tg.TargetValue} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("non-finite value")
		}
	}
	if tg.NormalMin > tg.NormalMax {
		return fmt.Errorf("normal_min %g above normal_max %g", tg.NormalMin, tg.NormalMax)
	}
	if tg.TargetValue < 0 {
		return fmt.Errorf("negative target %g", tg.TargetValue)
	}
	return nil
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for injury, p := range t {
		out[injury] = p.clone()
	}
	return out
}

func (p Profile) clone() Profile {
	out := make(Profile, len(p))
	for id, target := range p {
		out[id] = target
	}
	return out
}

// Merge returns t overlaid with o. Joints present in both take o's target.
func (t Table) Merge(o Table) Table {
	out := t.Clone()
	for injury, p := range o {
		if out[injury] == nil {
			out[injury] = make(Profile, len(p))
		}
		for id, target := range p {
			out[injury][id] = target
		}
	}
	return out
}

// Injuries returns the injury types of t in order.
func (t Table) Injuries() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package clinical

import (
	"math"

	"github.com/ayusman/handrom/internal/joint"
)

// Status is a severity band.
type Status string

const (
	Normal   Status = "normal"
	Moderate Status = "moderate"
	Limited  Status = "limited"

	// Bands for lower-is-better scales.
	MinimalDisability  Status = "minimal_disability"
	ModerateDisability Status = "moderate_disability"
	SevereDisability   Status = "severe_disability"
)

// Band cutoffs in percent of normal.
const (
	normalCutoff   = 100
	moderateCutoff = 60

	minimalDisabilityCutoff  = 80
	moderateDisabilityCutoff = 50

	maxPercent = 200
)

const targetEpsilon = 1e-9

// Interpretation is the clinical reading of one reduced value.
type Interpretation struct {
	Joint           joint.ID `json:"joint"`
	Injury          string   `json:"injury"`
	Value           float64  `json:"value"`
	Target          Target   `json:"target"`
	Status          Status   `json:"status"`
	PercentOfNormal float64  `json:"percentOfNormal"`
	Narrative       string   `json:"narrative"`
	// UsedDefaults is set when the injury type had no target for the joint.
	UsedDefaults bool `json:"usedDefaults"`
}

// Classifier maps reduced values to interpretations. It is safe for
// concurrent use; the table is never modified.
type Classifier struct {
	table Table
}

// NewClassifier creates a Classifier over t. A nil table uses the built-in
// profiles. A table without a default profile borrows the built-in one.
func NewClassifier(t Table) *Classifier {
	if t == nil {
		t = Builtin()
	} else {
		t = t.Clone()
	}
	if _, ok := t[DefaultInjury]; !ok {
		t[DefaultInjury] = builtin()[DefaultInjury].clone()
	}
	return &Classifier{table: t}
}

// Table returns a copy of the classifier's profiles.
func (c *Classifier) Table() Table {
	return c.table.Clone()
}

// Lookup returns the target for a joint under an injury type and whether the
// default profile had to be used.
func (c *Classifier) Lookup(id joint.ID, injury string) (Target, bool) {
	if p, ok := c.table[injury]; ok {
		if target, ok := p[id]; ok {
			return target, false
		}
	}
	if target, ok := c.table[DefaultInjury][id]; ok {
		return target, true
	}
	if target, ok := builtin()[DefaultInjury][id]; ok {
		return target, true
	}
	return Target{}, true
}

// Classify interprets a reduced value. It never fails: unknown injuries and
// joints fall back to default targets and set UsedDefaults.
func (c *Classifier) Classify(id joint.ID, value float64, injury string) Interpretation {
	target, defaulted := c.Lookup(id, injury)
	info := joint.Describe(id)

	pct := PercentOfNormal(value, target.TargetValue, info.Direction)
	status := band(pct, info.Direction)

	return Interpretation{
		Joint:           id,
		Injury:          injury,
		Value:           value,
		Target:          target,
		Status:          status,
		PercentOfNormal: pct,
		Narrative:       narrate(status, info, value, target.TargetValue, pct),
		UsedDefaults:    defaulted,
	}
}

// PercentOfNormal expresses value as a percentage of target, clamped to
// [0, 200]. For lower-is-better scales the distance below target is used,
// so a smaller value gives a larger percentage.
func PercentOfNormal(value, target float64, dir joint.Direction) float64 {
	if math.IsNaN(value) {
		return 0
	}
	var pct float64
	switch {
	case math.Abs(target) < targetEpsilon:
		// A zero target has no scale to measure against.
		pct = 100
		if dir == joint.LowerIsBetter && value > targetEpsilon {
			pct = 0
		}
	case dir == joint.LowerIsBetter:
		pct = (target - value) * 100 / target
	default:
		pct = value * 100 / target
	}
	return math.Max(0, math.Min(maxPercent, pct))
}

func band(pct float64, dir joint.Direction) Status {
	if dir == joint.LowerIsBetter {
		switch {
		case pct >= minimalDisabilityCutoff:
			return MinimalDisability
		case pct >= moderateDisabilityCutoff:
			return ModerateDisability
		default:
			return SevereDisability
		}
	}
	switch {
	case pct >= normalCutoff:
		return Normal
	case pct >= moderateCutoff:
		return Moderate
	default:
		return Limited
	}
}

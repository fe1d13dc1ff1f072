package angle

import (
	"errors"
	"fmt"

	"github.com/ayusman/handrom/internal/landmark"
)

// ErrUnknownAssessment is returned for an assessment kind with no extractor.
var ErrUnknownAssessment = errors.New("unknown assessment")

// Kind names an assessment type.
type Kind string

const (
	KindFingerROM             Kind = "finger_rom"
	KindWristFlexionExtension Kind = "wrist_flexion_extension"
	KindWristDeviation        Kind = "wrist_deviation"
	KindForearmRotation       Kind = "forearm_rotation"
	KindKapandji              Kind = "kapandji"
)

// Assessment selects an extractor. Finger is used by KindFingerROM only.
type Assessment struct {
	Kind   Kind            `json:"kind"`
	Finger landmark.Finger `json:"finger"`
}

func (a Assessment) String() string {
	if a.Kind == KindFingerROM {
		return fmt.Sprintf("%s/%s", a.Kind, a.Finger)
	}
	return string(a.Kind)
}

// Options configures extractor construction.
type Options struct {
	Kapandji KapandjiOptions
}

var dispatch = map[Kind]func(Assessment, Options) Extractor{
	KindFingerROM: func(a Assessment, _ Options) Extractor {
		return NewFingerExtractor(a.Finger)
	},
	KindWristFlexionExtension: func(Assessment, Options) Extractor {
		return WristFlexionExtractor{}
	},
	KindWristDeviation: func(Assessment, Options) Extractor {
		return WristDeviationExtractor{}
	},
	KindForearmRotation: func(Assessment, Options) Extractor {
		return ForearmRotationExtractor{}
	},
	KindKapandji: func(_ Assessment, o Options) Extractor {
		return NewKapandjiExtractor(o.Kapandji)
	},
}

// ParseKind matches an assessment name exactly.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := dispatch[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAssessment, s)
	}
	return k, nil
}

// New returns the extractor for an assessment.
func New(a Assessment, opts Options) (Extractor, error) {
	build, ok := dispatch[a.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAssessment, a.Kind)
	}
	if a.Kind == KindFingerROM {
		if _, err := landmark.ParseFinger(a.Finger.String()); err != nil {
			return nil, fmt.Errorf("%w: finger %d", ErrUnknownAssessment, int(a.Finger))
		}
	}
	return build(a, opts), nil
}

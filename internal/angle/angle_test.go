package angle

import (
	"errors"
	"math"
	"testing"

	"github.com/ayusman/handrom/internal/geometry"
	"github.com/ayusman/handrom/internal/joint"
	"github.com/ayusman/handrom/internal/landmark"
)

const tolerance = 1e-4

func byJoint(samples []Sample) map[joint.ID]Sample {
	m := make(map[joint.ID]Sample, len(samples))
	for _, s := range samples {
		m[s.Joint] = s
	}
	return m
}

func expectValue(t *testing.T, samples map[joint.ID]Sample, id joint.ID, want float64) {
	t.Helper()
	s, ok := samples[id]
	if !ok {
		t.Fatalf("expected a %s sample", id)
	}
	if !s.Valid {
		t.Fatalf("expected %s sample to be valid", id)
	}
	if math.Abs(s.Value-want) > tolerance {
		t.Errorf("expected %s = %f, got %f", id, want, s.Value)
	}
}

// expectSigned checks a split pair against a signed angle. Near zero either
// side may carry the sample.
func expectSigned(t *testing.T, samples []Sample, positive, negative joint.ID, want float64) {
	t.Helper()
	if len(samples) != 1 || !samples[0].Valid {
		t.Fatalf("expected one valid sample, got %+v", samples)
	}
	got := samples[0].Value
	switch samples[0].Joint {
	case positive:
	case negative:
		got = -got
	default:
		t.Fatalf("unexpected joint %s", samples[0].Joint)
	}
	if math.Abs(got-want) > tolerance {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func expectInvalid(t *testing.T, samples map[joint.ID]Sample, id joint.ID) {
	t.Helper()
	s, ok := samples[id]
	if !ok {
		t.Fatalf("expected a %s sample", id)
	}
	if s.Valid {
		t.Errorf("expected %s sample to be invalid, got %f", id, s.Value)
	}
}

func expectAbsent(t *testing.T, samples map[joint.ID]Sample, id joint.ID) {
	t.Helper()
	if s, ok := samples[id]; ok {
		t.Errorf("expected no %s sample, got %+v", id, s)
	}
}

func TestFingerExtractor(t *testing.T) {
	t.Run("straight index finger reads full extension", func(t *testing.T) {
		ext := NewFingerExtractor(landmark.Index)
		got := byJoint(ext.Extract(landmark.StraightIndexFrame(0.9), nil))

		expectValue(t, got, joint.IndexMCP, 180)
		expectValue(t, got, joint.IndexPIP, 180)
		expectValue(t, got, joint.IndexDIP, 180)
		expectValue(t, got, joint.IndexTAM, 540)
	})

	t.Run("flexed finger reads interior angles", func(t *testing.T) {
		ext := NewFingerExtractor(landmark.Index)
		got := byJoint(ext.Extract(landmark.FlexedFingerFrame(0.9, landmark.Index, 60, 45, 20), nil))

		expectValue(t, got, joint.IndexMCP, 120)
		expectValue(t, got, joint.IndexPIP, 135)
		expectValue(t, got, joint.IndexDIP, 160)
		expectValue(t, got, joint.IndexTAM, 415)
	})

	t.Run("thumb has MCP and IP", func(t *testing.T) {
		ext := NewFingerExtractor(landmark.Thumb)
		samples := ext.Extract(landmark.FlexedFingerFrame(0.9, landmark.Thumb, 30, 40), nil)
		if len(samples) != 3 {
			t.Fatalf("expected 3 thumb samples, got %d", len(samples))
		}
		got := byJoint(samples)
		expectValue(t, got, joint.ThumbMCP, 150)
		expectValue(t, got, joint.ThumbIP, 140)
		expectValue(t, got, joint.ThumbTAM, 290)
	})

	t.Run("missing landmark invalidates only dependent joints", func(t *testing.T) {
		points := landmark.StraightIndexPoints()
		points[landmark.IndexDIP] = geometry.Point{X: math.NaN(), Y: 0.35}
		frame := landmark.MustFrame(points, nil, landmark.HandRight, 0.9)

		got := byJoint(NewFingerExtractor(landmark.Index).Extract(frame, nil))
		expectValue(t, got, joint.IndexMCP, 180)
		expectInvalid(t, got, joint.IndexPIP)
		expectInvalid(t, got, joint.IndexDIP)
		expectInvalid(t, got, joint.IndexTAM)

		// Other digits on the same frame are unaffected.
		middle := byJoint(NewFingerExtractor(landmark.Middle).Extract(frame, nil))
		expectValue(t, middle, joint.MiddlePIP, 180)
	})

	t.Run("degenerate geometry is invalid, not zero", func(t *testing.T) {
		points := landmark.StraightIndexPoints()
		points[landmark.IndexPIP] = points[landmark.IndexMCP]
		frame := landmark.MustFrame(points, nil, landmark.HandRight, 0.9)

		got := byJoint(NewFingerExtractor(landmark.Index).Extract(frame, nil))
		expectInvalid(t, got, joint.IndexMCP)
		expectInvalid(t, got, joint.IndexPIP)
	})

	t.Run("hand-less frame yields only invalid samples", func(t *testing.T) {
		_, body := landmark.ArmPoints(landmark.ArmPose{})
		frame := landmark.MustFrame(nil, body, landmark.HandRight, 0.9)
		for _, s := range NewFingerExtractor(landmark.Ring).Extract(frame, nil) {
			if s.Valid {
				t.Errorf("expected %s to be invalid", s.Joint)
			}
		}
	})
}

func TestWristFlexionExtractor(t *testing.T) {
	ext := WristFlexionExtractor{}

	t.Run("flexion", func(t *testing.T) {
		got := byJoint(ext.Extract(landmark.ArmFrame(landmark.ArmPose{Flexion: 30}, landmark.HandRight, 0.9), nil))
		expectValue(t, got, joint.WristFlexion, 30)
		expectAbsent(t, got, joint.WristExtension)
	})

	t.Run("extension", func(t *testing.T) {
		got := byJoint(ext.Extract(landmark.ArmFrame(landmark.ArmPose{Flexion: -25}, landmark.HandRight, 0.9), nil))
		expectValue(t, got, joint.WristExtension, 25)
		expectAbsent(t, got, joint.WristFlexion)
	})

	t.Run("left hand matches right hand", func(t *testing.T) {
		for _, deg := range []float64{-50, -10, 15, 70} {
			pose := landmark.ArmPose{Flexion: deg}
			right := ext.Extract(landmark.ArmFrame(pose, landmark.HandRight, 0.9), nil)
			left := ext.Extract(landmark.ArmFrame(pose, landmark.HandLeft, 0.9), nil)
			if len(right) != 1 || len(left) != 1 {
				t.Fatalf("expected one sample per side, got %d and %d", len(right), len(left))
			}
			if right[0].Joint != left[0].Joint || math.Abs(right[0].Value-left[0].Value) > tolerance {
				t.Errorf("flexion %f: right %+v, left %+v", deg, right[0], left[0])
			}
		}
	})

	t.Run("deviation does not register as flexion", func(t *testing.T) {
		samples := ext.Extract(landmark.ArmFrame(landmark.ArmPose{Deviation: 20}, landmark.HandRight, 0.9), nil)
		expectSigned(t, samples, joint.WristFlexion, joint.WristExtension, 0)
	})

	t.Run("missing pose is invalid", func(t *testing.T) {
		got := byJoint(ext.Extract(landmark.OpenPalmFrame(landmark.HandRight, 0.9), nil))
		expectInvalid(t, got, joint.WristFlexion)
		expectInvalid(t, got, joint.WristExtension)
	})
}

func TestWristDeviationExtractor(t *testing.T) {
	ext := WristDeviationExtractor{}

	t.Run("radial", func(t *testing.T) {
		got := byJoint(ext.Extract(landmark.ArmFrame(landmark.ArmPose{Deviation: 15}, landmark.HandRight, 0.9), nil))
		expectValue(t, got, joint.RadialDeviation, 15)
		expectAbsent(t, got, joint.UlnarDeviation)
	})

	t.Run("ulnar", func(t *testing.T) {
		got := byJoint(ext.Extract(landmark.ArmFrame(landmark.ArmPose{Deviation: -20}, landmark.HandLeft, 0.9), nil))
		expectValue(t, got, joint.UlnarDeviation, 20)
		expectAbsent(t, got, joint.RadialDeviation)
	})

	t.Run("flexion does not register as deviation", func(t *testing.T) {
		samples := ext.Extract(landmark.ArmFrame(landmark.ArmPose{Flexion: 40}, landmark.HandRight, 0.9), nil)
		expectSigned(t, samples, joint.RadialDeviation, joint.UlnarDeviation, 0)
	})

	t.Run("never both directions on one frame", func(t *testing.T) {
		for deg := -30.0; deg <= 30; deg += 7.5 {
			samples := ext.Extract(landmark.ArmFrame(landmark.ArmPose{Deviation: deg}, landmark.HandRight, 0.9), nil)
			if len(samples) != 1 {
				t.Errorf("deviation %f: expected exactly one sample, got %d", deg, len(samples))
			}
		}
	})
}

func TestForearmRotationExtractor(t *testing.T) {
	ext := ForearmRotationExtractor{}

	t.Run("neutral", func(t *testing.T) {
		samples := ext.Extract(landmark.ArmFrame(landmark.ArmPose{}, landmark.HandRight, 0.9), nil)
		expectSigned(t, samples, joint.Supination, joint.Pronation, 0)
	})

	t.Run("combined posture keeps rotation", func(t *testing.T) {
		pose := landmark.ArmPose{Flexion: 20, Rotation: -35}
		for _, h := range []landmark.Handedness{landmark.HandRight, landmark.HandLeft} {
			samples := ext.Extract(landmark.ArmFrame(pose, h, 0.9), nil)
			expectSigned(t, samples, joint.Supination, joint.Pronation, -35)
		}
	})

	t.Run("supination", func(t *testing.T) {
		got := byJoint(ext.Extract(landmark.ArmFrame(landmark.ArmPose{Rotation: 40}, landmark.HandRight, 0.9), nil))
		expectValue(t, got, joint.Supination, 40)
		expectAbsent(t, got, joint.Pronation)
	})

	t.Run("pronation", func(t *testing.T) {
		got := byJoint(ext.Extract(landmark.ArmFrame(landmark.ArmPose{Rotation: -60}, landmark.HandLeft, 0.9), nil))
		expectValue(t, got, joint.Pronation, 60)
		expectAbsent(t, got, joint.Supination)
	})

	t.Run("reference frame sets the zero position", func(t *testing.T) {
		ref := landmark.ArmFrame(landmark.ArmPose{Rotation: 20}, landmark.HandRight, 0.9)
		frame := landmark.ArmFrame(landmark.ArmPose{Rotation: 50}, landmark.HandRight, 0.9)
		got := byJoint(ext.Extract(frame, &ref))
		expectValue(t, got, joint.Supination, 30)
	})

	t.Run("hand-less reference is invalid", func(t *testing.T) {
		_, body := landmark.ArmPoints(landmark.ArmPose{})
		ref := landmark.MustFrame(nil, body, landmark.HandRight, 0.9)
		frame := landmark.ArmFrame(landmark.ArmPose{Rotation: 50}, landmark.HandRight, 0.9)
		got := byJoint(ext.Extract(frame, &ref))
		expectInvalid(t, got, joint.Supination)
	})
}

// opposition returns an open hand with the thumb tip placed on a target.
func opposition(t *testing.T, level int) landmark.Frame {
	t.Helper()
	points := landmark.OpenPalmPoints()
	base := landmark.MustFrame(points, nil, landmark.HandRight, 0.9)
	target, ok := kapandjiTargets[level-1](base)
	if !ok {
		t.Fatalf("target %d not locatable", level)
	}
	points[landmark.ThumbTip] = target
	return landmark.MustFrame(points, nil, landmark.HandRight, 0.9)
}

func TestKapandjiExtractor(t *testing.T) {
	ext := NewKapandjiExtractor(DefaultKapandjiOptions())

	t.Run("each target is detected in isolation", func(t *testing.T) {
		for level := 1; level <= MaxKapandjiLevel; level++ {
			samples := ext.Extract(opposition(t, level), nil)
			if len(samples) != 1 || !samples[0].Valid {
				t.Fatalf("level %d: expected one valid sample, got %+v", level, samples)
			}
			if samples[0].Targets != Targets(0).With(level) {
				t.Errorf("level %d: expected only target %d reached, got %010b", level, level, samples[0].Targets)
			}
			if samples[0].Value != float64(level) {
				t.Errorf("level %d: expected value %d, got %f", level, level, samples[0].Value)
			}
		}
	})

	t.Run("open hand reaches nothing", func(t *testing.T) {
		samples := ext.Extract(landmark.OpenPalmFrame(landmark.HandRight, 0.9), nil)
		if !samples[0].Valid || samples[0].Targets != 0 || samples[0].Value != 0 {
			t.Errorf("expected valid zero sample, got %+v", samples[0])
		}
	})

	t.Run("missing thumb tip is invalid", func(t *testing.T) {
		points := landmark.OpenPalmPoints()
		points[landmark.ThumbTip] = geometry.Point{X: math.Inf(1)}
		samples := ext.Extract(landmark.MustFrame(points, nil, landmark.HandRight, 0.9), nil)
		if samples[0].Valid {
			t.Error("expected invalid sample")
		}
	})

	t.Run("defaults fill zero options", func(t *testing.T) {
		opts := NewKapandjiExtractor(KapandjiOptions{}).Options()
		if opts != DefaultKapandjiOptions() {
			t.Errorf("expected defaults, got %+v", opts)
		}
	})
}

func TestTargets_Level(t *testing.T) {
	var gap Targets
	for _, level := range []int{1, 2, 4, 5} {
		gap = gap.With(level)
	}

	t.Run("monotonic caps at the first miss", func(t *testing.T) {
		if got := gap.Level(PolicyMonotonic); got != 2 {
			t.Errorf("expected 2, got %d", got)
		}
	})

	t.Run("highest ignores gaps", func(t *testing.T) {
		if got := gap.Level(PolicyHighest); got != 5 {
			t.Errorf("expected 5, got %d", got)
		}
	})

	t.Run("full scale", func(t *testing.T) {
		var all Targets
		for level := 1; level <= MaxKapandjiLevel; level++ {
			all = all.With(level)
		}
		if all.Level(PolicyMonotonic) != 10 || all.Level(PolicyHighest) != 10 {
			t.Errorf("expected 10, got %d and %d", all.Level(PolicyMonotonic), all.Level(PolicyHighest))
		}
	})

	t.Run("out of range levels are ignored", func(t *testing.T) {
		if Targets(0).With(0).With(11) != 0 || Targets(0).Has(11) {
			t.Error("expected out of range levels to be ignored")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if Targets(0).Level(PolicyMonotonic) != 0 || Targets(0).Level(PolicyHighest) != 0 {
			t.Error("expected level 0 for no targets")
		}
	})

	t.Run("parse policy", func(t *testing.T) {
		if _, err := ParsePolicy("monotonic"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := ParsePolicy("max"); err == nil {
			t.Error("expected error for unknown policy")
		}
	})
}

func TestDispatch(t *testing.T) {
	t.Run("every kind has an extractor", func(t *testing.T) {
		for _, k := range []Kind{KindFingerROM, KindWristFlexionExtension, KindWristDeviation, KindForearmRotation, KindKapandji} {
			parsed, err := ParseKind(string(k))
			if err != nil {
				t.Fatalf("parse %s: %v", k, err)
			}
			ext, err := New(Assessment{Kind: parsed, Finger: landmark.Middle}, Options{})
			if err != nil {
				t.Fatalf("new %s: %v", k, err)
			}
			if len(ext.Joints()) == 0 {
				t.Errorf("%s: expected joints", k)
			}
		}
	})

	t.Run("no fuzzy matching", func(t *testing.T) {
		for _, name := range []string{"wrist", "Kapandji", "finger rom", ""} {
			if _, err := ParseKind(name); !errors.Is(err, ErrUnknownAssessment) {
				t.Errorf("%q: expected ErrUnknownAssessment, got %v", name, err)
			}
		}
	})

	t.Run("finger must be valid", func(t *testing.T) {
		_, err := New(Assessment{Kind: KindFingerROM, Finger: landmark.Finger(9)}, Options{})
		if !errors.Is(err, ErrUnknownAssessment) {
			t.Errorf("expected ErrUnknownAssessment, got %v", err)
		}
	})

	t.Run("finger assessment measures the chosen digit", func(t *testing.T) {
		ext, _ := New(Assessment{Kind: KindFingerROM, Finger: landmark.Pinky}, Options{})
		if ext.Joints()[0] != joint.PinkyMCP {
			t.Errorf("expected pinky joints, got %v", ext.Joints())
		}
	})
}

func TestExtractSeries(t *testing.T) {
	frames := []landmark.Frame{
		landmark.ArmFrame(landmark.ArmPose{Flexion: 10}, landmark.HandRight, 0.9),
		landmark.ArmFrame(landmark.ArmPose{Flexion: 40}, landmark.HandRight, 0.6),
		landmark.ArmFrame(landmark.ArmPose{Flexion: 70}, landmark.HandRight, 0.8),
	}
	series := ExtractSeries(WristFlexionExtractor{}, frames, nil)

	if _, ok := series[joint.WristExtension]; !ok {
		t.Error("expected an entry for extension even with no samples")
	}
	flex := series[joint.WristFlexion]
	if len(flex) != 3 {
		t.Fatalf("expected 3 flexion samples, got %d", len(flex))
	}
	for i, s := range flex {
		if s.FrameIndex != i {
			t.Errorf("expected frame index %d, got %d", i, s.FrameIndex)
		}
		if s.Confidence != frames[i].Confidence() {
			t.Errorf("expected confidence %f, got %f", frames[i].Confidence(), s.Confidence)
		}
	}
}

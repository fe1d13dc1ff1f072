package landmark

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/ayusman/handrom/internal/geometry"
)

const epsilon = 1e-9

func TestNewFrame(t *testing.T) {
	t.Run("accepts hand-only frame", func(t *testing.T) {
		f, err := NewFrame(OpenPalmPoints(), nil, HandRight, 0.9, 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.HasHand() || f.HasPose() {
			t.Errorf("expected hand only, got hand=%v pose=%v", f.HasHand(), f.HasPose())
		}
		if f.Timestamp() != 42 || f.Confidence() != 0.9 {
			t.Errorf("unexpected metadata: ts=%d conf=%f", f.Timestamp(), f.Confidence())
		}
	})

	t.Run("rejects partial hand set", func(t *testing.T) {
		_, err := NewFrame(OpenPalmPoints()[:20], nil, HandRight, 0.9, 0)
		if !errors.Is(err, ErrHandLandmarkCount) {
			t.Errorf("expected ErrHandLandmarkCount, got %v", err)
		}
	})

	t.Run("rejects partial pose set", func(t *testing.T) {
		_, err := NewFrame(nil, make([]geometry.Point, 12), HandRight, 0.9, 0)
		if !errors.Is(err, ErrPoseLandmarkCount) {
			t.Errorf("expected ErrPoseLandmarkCount, got %v", err)
		}
	})

	t.Run("rejects confidence outside unit range", func(t *testing.T) {
		for _, c := range []float64{1.5, -0.1, math.NaN(), math.Inf(1)} {
			_, err := NewFrame(OpenPalmPoints(), nil, HandRight, c, 0)
			if !errors.Is(err, ErrConfidenceRange) {
				t.Errorf("confidence %v: expected ErrConfidenceRange, got %v", c, err)
			}
		}
	})

	t.Run("copies input points", func(t *testing.T) {
		points := OpenPalmPoints()
		f, _ := NewFrame(points, nil, HandRight, 0.9, 0)
		points[Wrist] = geometry.Point{X: 0.99}
		w, _ := f.Wrist()
		if w.X == 0.99 {
			t.Error("frame should not alias caller's slice")
		}
	})
}

func TestFrame_Accessors(t *testing.T) {
	t.Run("absent hand set returns not ok", func(t *testing.T) {
		f, _ := NewFrame(nil, nil, HandRight, 0.5, 0)
		if _, ok := f.IndexTip(); ok {
			t.Error("expected no index tip without hand landmarks")
		}
		if _, ok := f.Elbow(); ok {
			t.Error("expected no elbow without pose landmarks")
		}
		if _, ok := f.Wrist(); ok {
			t.Error("expected no wrist without any landmarks")
		}
	})

	t.Run("non-finite point reads as missing", func(t *testing.T) {
		points := OpenPalmPoints()
		points[IndexPIP] = geometry.Point{X: math.NaN()}
		f := MustFrame(points, nil, HandRight, 0.9)
		if _, ok := f.IndexPIP(); ok {
			t.Error("expected NaN landmark to be reported missing")
		}
		if _, ok := f.IndexMCP(); !ok {
			t.Error("expected other landmarks to be unaffected")
		}
		if f.Usable(true, false) {
			t.Error("frame with NaN landmark should not be usable")
		}
	})

	t.Run("wrist falls back to pose wrist", func(t *testing.T) {
		_, body := ArmPoints(ArmPose{})
		f := MustFrame(nil, body, HandRight, 0.9)
		w, ok := f.Wrist()
		if !ok {
			t.Fatal("expected pose wrist")
		}
		if w != body[PoseRightWrist] {
			t.Errorf("expected %v, got %v", body[PoseRightWrist], w)
		}
	})

	t.Run("pose side follows handedness", func(t *testing.T) {
		_, body := ArmPoints(ArmPose{})
		right := MustFrame(nil, body, HandRight, 0.9)
		left := MustFrame(nil, body, HandLeft, 0.9)
		re, _ := right.Elbow()
		le, _ := left.Elbow()
		if re != body[PoseRightElbow] {
			t.Errorf("expected right elbow %v, got %v", body[PoseRightElbow], re)
		}
		if le != geometry.MirrorX(body[PoseLeftElbow]) {
			t.Errorf("expected mirrored left elbow, got %v", le)
		}
	})
}

func TestFrame_Mirroring(t *testing.T) {
	right := OpenPalmFrame(HandRight, 0.9)
	left := OpenPalmFrame(HandLeft, 0.9)

	for i := 0; i < NumLandmarks; i++ {
		rp, _ := right.Hand(i)
		lp, _ := left.Hand(i)
		if math.Abs(rp.X-lp.X) > epsilon || math.Abs(rp.Y-lp.Y) > epsilon || math.Abs(rp.Z-lp.Z) > epsilon {
			t.Errorf("landmark %d: expected left hand to canonicalize to %v, got %v", i, rp, lp)
		}
	}

	unknown := MustFrame(OpenPalmPoints(), nil, HandUnknown, 0.9)
	up, _ := unknown.IndexMCP()
	rp, _ := right.IndexMCP()
	if up != rp {
		t.Errorf("unknown handedness should not mirror: %v vs %v", up, rp)
	}
}

func TestFrame_HandSpan(t *testing.T) {
	f := OpenPalmFrame(HandRight, 0.9)
	span, ok := f.HandSpan()
	if !ok {
		t.Fatal("expected hand span")
	}
	if math.Abs(span-0.14) > 1e-9 {
		t.Errorf("expected span 0.14, got %f", span)
	}

	points := OpenPalmPoints()
	points[MiddleMCP] = points[Wrist]
	if _, ok := MustFrame(points, nil, HandRight, 0.9).HandSpan(); ok {
		t.Error("expected degenerate span to be invalid")
	}
}

func TestFrame_Chain(t *testing.T) {
	f := OpenPalmFrame(HandRight, 0.9)

	points, ok := f.Chain(Index)
	if len(points) != 5 {
		t.Fatalf("expected 5 index chain points, got %d", len(points))
	}
	for i, v := range ok {
		if !v {
			t.Errorf("expected chain point %d to be present", i)
		}
	}

	thumb, _ := f.Chain(Thumb)
	if len(thumb) != 4 {
		t.Errorf("expected 4 thumb chain points, got %d", len(thumb))
	}
}

func TestParse(t *testing.T) {
	if ParseHandedness(" LEFT ") != HandLeft || ParseHandedness("Right") != HandRight || ParseHandedness("x") != HandUnknown {
		t.Error("unexpected handedness parse")
	}
	f, err := ParseFinger("Ring")
	if err != nil || f != Ring {
		t.Errorf("expected Ring, got %v (%v)", f, err)
	}
	if _, err := ParseFinger("toe"); err == nil {
		t.Error("expected error for unknown finger")
	}
}

func TestDecodeFrames(t *testing.T) {
	t.Run("round trips through wire format", func(t *testing.T) {
		frames := []Frame{
			OpenPalmFrame(HandLeft, 0.8),
			ArmFrame(ArmPose{Flexion: 30}, HandRight, 0.7),
		}
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(frames); err != nil {
			t.Fatalf("encode: %v", err)
		}

		decoded, err := DecodeFrames(&buf)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(decoded) != 2 {
			t.Fatalf("expected 2 frames, got %d", len(decoded))
		}
		if decoded[0].Handedness() != HandLeft || decoded[0].HasPose() {
			t.Errorf("unexpected first frame: %v pose=%v", decoded[0].Handedness(), decoded[0].HasPose())
		}
		a, _ := frames[0].IndexTip()
		b, _ := decoded[0].IndexTip()
		if math.Abs(a.X-b.X) > epsilon || math.Abs(a.Y-b.Y) > epsilon {
			t.Errorf("expected %v after round trip, got %v", a, b)
		}
		if !decoded[1].HasPose() {
			t.Error("expected pose landmarks on second frame")
		}
	})

	t.Run("rejects wrong landmark count", func(t *testing.T) {
		input := `[{"hand":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Right","score":0.9}]`
		_, err := DecodeFrames(strings.NewReader(input))
		if !errors.Is(err, ErrHandLandmarkCount) {
			t.Errorf("expected ErrHandLandmarkCount, got %v", err)
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		if _, err := DecodeFrames(strings.NewReader(`{`)); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestDecoder(t *testing.T) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, f := range []Frame{OpenPalmFrame(HandRight, 0.9), OpenPalmFrame(HandLeft, 0.7)} {
		if err := enc.Encode(f); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	buf.WriteString(`{"hand":[{"x":0.1}],"score":0.5}` + "\n")

	dec := NewDecoder(&buf)
	for i := 0; i < 2; i++ {
		if _, err := dec.Next(); err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}
	}
	if _, err := dec.Next(); !errors.Is(err, ErrHandLandmarkCount) {
		t.Errorf("expected ErrHandLandmarkCount, got %v", err)
	}
	if _, err := dec.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

package landmark

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ayusman/handrom/internal/geometry"
)

// jsonFrame represents one detection as emitted by the keypoint tracker.
type jsonFrame struct {
	Hand       []jsonPoint `json:"hand"`
	Pose       []jsonPoint `json:"pose"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
	Timestamp  int64       `json:"timestamp"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (f jsonFrame) toFrame() (Frame, error) {
	return NewFrame(toPoints(f.Hand), toPoints(f.Pose), ParseHandedness(f.Handedness), f.Score, f.Timestamp)
}

// toPoints converts wire points. An empty or missing list means the set is
// absent.
func toPoints(in []jsonPoint) []geometry.Point {
	if len(in) == 0 {
		return nil
	}
	out := make([]geometry.Point, len(in))
	for i, p := range in {
		out[i] = geometry.Point{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

// DecodeFrames reads a JSON array of tracker frames in time order. Any frame
// that violates the landmark count contract fails the whole decode.
func DecodeFrames(r io.Reader) ([]Frame, error) {
	var raw []jsonFrame
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse frames: %w", err)
	}

	frames := make([]Frame, 0, len(raw))
	for i, jf := range raw {
		f, err := jf.toFrame()
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// Decoder reads newline-delimited tracker frames from a live stream.
type Decoder struct {
	dec *json.Decoder
	n   int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next returns the next frame, or io.EOF when the stream ends.
func (d *Decoder) Next() (Frame, error) {
	var jf jsonFrame
	if err := d.dec.Decode(&jf); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("frame %d: parse: %w", d.n, err)
	}
	i := d.n
	d.n++
	f, err := jf.toFrame()
	if err != nil {
		return Frame{}, fmt.Errorf("frame %d: %w", i, err)
	}
	return f, nil
}

// MarshalJSON encodes the frame in the tracker wire format. Left-hand frames
// are mirrored back so that encoding then decoding yields the same frame.
func (f Frame) MarshalJSON() ([]byte, error) {
	jf := jsonFrame{
		Hand:       fromPoints(f.hand, f.handedness),
		Pose:       fromPoints(f.pose, f.handedness),
		Handedness: f.handedness.String(),
		Score:      f.confidence,
		Timestamp:  f.timestamp,
	}
	return json.Marshal(jf)
}

func fromPoints(points []geometry.Point, handedness Handedness) []jsonPoint {
	if points == nil {
		return nil
	}
	out := make([]jsonPoint, len(points))
	for i, p := range points {
		if handedness == HandLeft {
			p = geometry.MirrorX(p)
		}
		out[i] = jsonPoint{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

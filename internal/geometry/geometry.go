// Package geometry provides the vector and trigonometry primitives used to
// turn landmark coordinates into joint angles.
package geometry

import "math"

// Epsilon is the minimum vector length treated as non-degenerate.
const Epsilon = 1e-6

// Point represents a point in normalized image space with an optional
// depth-like z coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec is a displacement between two points.
type Vec struct {
	X, Y, Z float64
}

// Finite reports whether all coordinates are finite numbers.
func (p Point) Finite() bool {
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vec {
	return Vec{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Add returns p translated by v.
func (p Point) Add(v Vec) Point {
	return Point{X: p.X + v.X, Y: p.Y + v.Y, Z: p.Z + v.Z}
}

// Lerp returns the point a fraction t of the way from p to q.
func (p Point) Lerp(q Point, t float64) Point {
	return p.Add(q.Sub(p).Scale(t))
}

// Dot returns the dot product of v and w.
func (v Vec) Dot(w Vec) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the cross product v × w.
func (v Vec) Cross(w Vec) Vec {
	return Vec{
		X: v.Y*w.Z - v.Z*w.Y,
		Y: v.Z*w.X - v.X*w.Z,
		Z: v.X*w.Y - v.Y*w.X,
	}
}

// Scale multiplies v by s.
func (v Vec) Scale(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns v + w.
func (v Vec) Add(w Vec) Vec {
	return Vec{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec {
	return Vec{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z}
}

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Finite reports whether all components are finite numbers.
func (v Vec) Finite() bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// Unit returns v scaled to length 1. The second result is false when v is
// degenerate or not finite.
func (v Vec) Unit() (Vec, bool) {
	if !v.Finite() {
		return Vec{}, false
	}
	n := v.Norm()
	if n < Epsilon {
		return Vec{}, false
	}
	return v.Scale(1 / n), true
}

// Reject returns the component of v orthogonal to axis. The second result
// is false when axis is degenerate.
func (v Vec) Reject(axis Vec) (Vec, bool) {
	u, ok := axis.Unit()
	if !ok {
		return Vec{}, false
	}
	return v.Sub(u.Scale(v.Dot(u))), true
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return a.Sub(b).Norm()
}

// MirrorX reflects p across the vertical image axis.
func MirrorX(p Point) Point {
	return Point{X: 1 - p.X, Y: p.Y, Z: p.Z}
}

// AngleBetween returns the angle in degrees at vertex subtended by the rays
// to a and c. The result lies in [0, 180]. The second result is false when
// either ray is shorter than Epsilon or any input is not finite.
func AngleBetween(a, vertex, c Point) (float64, bool) {
	if !a.Finite() || !vertex.Finite() || !c.Finite() {
		return 0, false
	}
	return AngleBetweenVecs(a.Sub(vertex), c.Sub(vertex))
}

// AngleBetweenVecs returns the unsigned angle in degrees between v and w.
func AngleBetweenVecs(v, w Vec) (float64, bool) {
	u1, ok := v.Unit()
	if !ok {
		return 0, false
	}
	u2, ok := w.Unit()
	if !ok {
		return 0, false
	}
	return degrees(math.Acos(clamp(u1.Dot(u2), -1, 1))), true
}

// SignedAngle returns the angle in degrees from v1 to v2 in [-180, 180]. Its
// magnitude is the unsigned angle between the vectors; its sign is the sign
// of (v1 × v2) projected onto normal. The second result is false when any of
// the three vectors is degenerate.
func SignedAngle(v1, v2, normal Vec) (float64, bool) {
	n, ok := normal.Unit()
	if !ok {
		return 0, false
	}
	angle, ok := AngleBetweenVecs(v1, v2)
	if !ok {
		return 0, false
	}
	if v1.Cross(v2).Dot(n) < 0 {
		angle = -angle
	}
	return angle, true
}

// SignedAngleInPlane projects v1 and v2 onto the plane orthogonal to normal
// and returns the signed angle between the projections.
func SignedAngleInPlane(v1, v2, normal Vec) (float64, bool) {
	p1, ok := v1.Reject(normal)
	if !ok {
		return 0, false
	}
	p2, ok := v2.Reject(normal)
	if !ok {
		return 0, false
	}
	return SignedAngle(p1, p2, normal)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

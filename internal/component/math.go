package component

import "math"

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X float32
	Y float32
}

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float32) Vec2   { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float32     { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float32   { return v.X*o.Y - v.Y*o.X }
func (v Vec2) Length() float32        { return float32(math.Hypot(float64(v.X), float64(v.Y))) }
func (v Vec2) IsZero() bool           { return v.X == 0 && v.Y == 0 }
func (v Vec2) Equal(o Vec2, eps float32) bool {
	return abs32(v.X-o.X) <= eps && abs32(v.Y-o.Y) <= eps
}

// Rotate rotates v by degrees counter-clockwise.
func (v Vec2) Rotate(degrees float32) Vec2 {
	s, c := math.Sincos(float64(degrees) * math.Pi / 180)
	return Vec2{
		X: float32(float64(v.X)*c - float64(v.Y)*s),
		Y: float32(float64(v.X)*s + float64(v.Y)*c),
	}
}

// FromDegrees returns a unit vector pointing at degrees.
func FromDegrees(degrees float32) Vec2 {
	s, c := math.Sincos(float64(degrees) * math.Pi / 180)
	return Vec2{X: float32(c), Y: float32(s)}
}

// WithLength rescales v; a zero vector stays zero.
func (v Vec2) WithLength(l float32) Vec2 {
	n := v.Length()
	if n == 0 {
		return v
	}
	return v.Scale(l / n)
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// Transform is a position plus a rotation in degrees.
type Transform struct {
	Pos      Vec2
	Rotation float32
}

// Then composes t with a local offset expressed in t's frame.
func (t Transform) Then(offset Transform) Transform {
	return Transform{
		Pos:      t.Pos.Add(offset.Pos.Rotate(t.Rotation)),
		Rotation: t.Rotation + offset.Rotation,
	}
}

// Plus adds offsets component-wise, used to accumulate attachment offsets.
func (t Transform) Plus(o Transform) Transform {
	return Transform{Pos: t.Pos.Add(o.Pos), Rotation: t.Rotation + o.Rotation}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min Vec2
	Max Vec2
}

func (a AABB) Overlaps(b AABB) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y
}

func (a AABB) Size() Vec2 { return a.Max.Sub(a.Min) }

// BoxAABB returns the bounds of a box of size centred at t.
func BoxAABB(t Transform, size Vec2) AABB {
	h := size.Scale(0.5)
	corners := [4]Vec2{{-h.X, -h.Y}, {h.X, -h.Y}, {h.X, h.Y}, {-h.X, h.Y}}
	out := AABB{Min: Vec2{math.MaxFloat32, math.MaxFloat32}, Max: Vec2{-math.MaxFloat32, -math.MaxFloat32}}
	for _, c := range corners {
		p := t.Pos.Add(c.Rotate(t.Rotation))
		out.Min.X = min(out.Min.X, p.X)
		out.Min.Y = min(out.Min.Y, p.Y)
		out.Max.X = max(out.Max.X, p.X)
		out.Max.Y = max(out.Max.Y, p.Y)
	}
	return out
}

// Union returns the smallest box containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: Vec2{min(a.Min.X, b.Min.X), min(a.Min.Y, b.Min.Y)},
		Max: Vec2{max(a.Max.X, b.Max.X), max(a.Max.Y, b.Max.Y)},
	}
}

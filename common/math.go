package common

import "math"

func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// Vec3 is a world position. Y is unused by the formation but kept so grid
// offsets line up with the scene the grid was authored in.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func Distance(a, b Vec3) float64 {
	return b.Sub(a).Len()
}

// MoveTowards steps current toward target by at most maxDelta without
// overshooting.
func MoveTowards(current, target Vec3, maxDelta float64) Vec3 {
	d := target.Sub(current)
	dist := d.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return current.Add(d.Scale(maxDelta / dist))
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package main

import "github.com/milk9111/swarm/common"

type Rect struct {
	X, Y          float32
	Width, Height float32
}

func (r *Rect) Intersects(other *Rect) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// view maps the X/Z field plane onto the screen. Z grows up the screen.
type view struct {
	scale   float32
	originX float32
	originY float32
	screen  Rect
}

// fieldView fits a field of the given half width and depth range into the
// base resolution.
func fieldView(halfWidth, minZ, maxZ float64) view {
	sx := float32(baseWidth) / float32(2*halfWidth)
	sz := float32(baseHeight) / float32(maxZ-minZ)
	scale := min(sx, sz)
	return view{
		scale:   scale,
		originX: baseWidth / 2,
		originY: float32(baseHeight) + float32(minZ)*scale,
		screen:  Rect{Width: baseWidth, Height: baseHeight},
	}
}

func (v view) point(p common.Vec3) (float32, float32) {
	return v.originX + float32(p.X)*v.scale, v.originY - float32(p.Z)*v.scale
}

// box returns the screen rect of a square of the given radius centered on p.
func (v view) box(p common.Vec3, radius float64) Rect {
	x, y := v.point(p)
	r := float32(radius) * v.scale
	return Rect{X: x - r, Y: y - r, Width: 2 * r, Height: 2 * r}
}

func (v view) visible(r *Rect) bool {
	return v.screen.Intersects(r)
}

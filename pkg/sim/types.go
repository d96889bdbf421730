// Package sim simulates a differential drive robot in a walled arena.
package sim

import "math"

// Size2D defines the rectangular size in 2D.
type Size2D struct {
	CX, CY float64
}

// Pos2D defines the position in 2D.
type Pos2D struct {
	X, Y float64
}

// Rect defines an axis aligned rectangle in 2D, Pos2D is the corner
// with the smallest coordinates.
type Rect struct {
	Pos2D
	Size2D
}

// Pose2D defines the pose in 2D.
type Pose2D struct {
	Pos2D
	Orientation Angle
}

// Add is a helper to add Pos2D.
func (p Pos2D) Add(p1 Pos2D) Pos2D {
	return Pos2D{X: p.X + p1.X, Y: p.Y + p1.Y}
}

// OffsetBy performs Add in-place.
func (p *Pos2D) OffsetBy(p1 Pos2D) *Pos2D {
	p.X += p1.X
	p.Y += p1.Y
	return p
}

// Max returns the corner with the largest coordinates.
func (r Rect) Max() Pos2D {
	return Pos2D{X: r.X + r.CX, Y: r.Y + r.CY}
}

// Contains checks p is inside or on the border.
func (r Rect) Contains(p Pos2D) bool {
	max := r.Max()
	return p.X >= r.X && p.X <= max.X && p.Y >= r.Y && p.Y <= max.Y
}

// Clamp moves p to the nearest point inside r.
func (r Rect) Clamp(p Pos2D) Pos2D {
	max := r.Max()
	return Pos2D{X: math.Min(math.Max(p.X, r.X), max.X), Y: math.Min(math.Max(p.Y, r.Y), max.Y)}
}

// Inset shrinks r by d on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{
		Pos2D:  Pos2D{X: r.X + d, Y: r.Y + d},
		Size2D: Size2D{CX: math.Max(r.CX-2*d, 0), CY: math.Max(r.CY-2*d, 0)},
	}
}

// RayExit returns the distance from p, which must be inside r, along
// dir to the border of r.
func (r Rect) RayExit(p Pos2D, dir Angle) float64 {
	max := r.Max()
	dx, dy := dir.Cos(), dir.Sin()
	d := math.Inf(1)
	if dx > 0 {
		d = math.Min(d, (max.X-p.X)/dx)
	} else if dx < 0 {
		d = math.Min(d, (r.X-p.X)/dx)
	}
	if dy > 0 {
		d = math.Min(d, (max.Y-p.Y)/dy)
	} else if dy < 0 {
		d = math.Min(d, (r.Y-p.Y)/dy)
	}
	return math.Max(d, 0)
}

// RayHit returns the distance from p along dir to where the ray enters
// r. It returns false when the ray misses r or starts inside it.
func (r Rect) RayHit(p Pos2D, dir Angle) (float64, bool) {
	if r.Contains(p) {
		return 0, false
	}
	max := r.Max()
	near, far := math.Inf(-1), math.Inf(1)
	for _, slab := range [][4]float64{
		{p.X, dir.Cos(), r.X, max.X},
		{p.Y, dir.Sin(), r.Y, max.Y},
	} {
		o, d, lo, hi := slab[0], slab[1], slab[2], slab[3]
		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t0, t1 := (lo-o)/d, (hi-o)/d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		near, far = math.Max(near, t0), math.Min(far, t1)
	}
	if near > far || near < 0 {
		return 0, false
	}
	return near, true
}

// Package picking provides ray casting and intersection utilities.
package picking

import (
	gomath "math"

	"github.com/Faultbox/viewmap/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// NewRay creates a ray from origin towards dir, normalizing dir.
func NewRay(origin, dir math.Vec3) Ray {
	return Ray{Origin: origin, Direction: dir.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// NewAABB creates an AABB from two corners, handling swapped coordinates.
func NewAABB(a, b math.Vec3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

// Size returns the box extent on each axis.
func (b AABB) Size() math.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the box center.
func (b AABB) Center() math.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(other AABB) AABB {
	return AABB{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Expand returns the box grown by pad on every side.
func (b AABB) Expand(pad float64) AABB {
	d := math.Vec3{X: pad, Y: pad, Z: pad}
	return AABB{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Contains reports whether p lies inside the box (boundary included).
func (b AABB) Contains(p math.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Overlaps reports whether the two boxes intersect.
func (b AABB) Overlaps(other AABB) bool {
	return b.Min.X <= other.Max.X && b.Max.X >= other.Min.X &&
		b.Min.Y <= other.Max.Y && b.Max.Y >= other.Min.Y &&
		b.Min.Z <= other.Max.Z && b.Max.Z >= other.Min.Z
}

// Slab returns the parametric interval [tmin, tmax] over which the ray is
// inside the box. hit is false when the ray misses the box entirely.
func (r Ray) Slab(box AABB) (tmin, tmax float64, hit bool) {
	tmin = gomath.Inf(-1)
	tmax = gomath.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := r.Origin.Component(axis)
		d := r.Direction.Component(axis)
		lo := box.Min.Component(axis)
		hi := box.Max.Component(axis)
		if d != 0 {
			t1 := (lo - o) / d
			t2 := (hi - o) / d
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if o < lo || o > hi {
			return 0, 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, 0, false
	}
	return tmin, tmax, true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float64, hit bool) {
	tmin, tmax, hit := r.Slab(box)
	if !hit {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle intersects the ray with triangle (a, b, c) using the
// Möller–Trumbore test. It returns the distance along the ray; hits with
// t <= eps are rejected so that a ray leaving a surface does not hit it.
func (r Ray) IntersectTriangle(a, b, c math.Vec3, eps float64) (t float64, hit bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Direction.Cross(e2)
	det := e1.Dot(p)
	if gomath.Abs(det) < 1e-12 {
		return 0, false // Ray parallel to the triangle plane
	}
	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = e2.Dot(q) * inv
	if t <= eps {
		return 0, false
	}
	return t, true
}

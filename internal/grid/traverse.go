package grid

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/pkg/math"
)

// Visitor receives each occluder met by a ray once, together with the ray
// (unit direction) being cast. Returning false stops the traversal.
type Visitor func(o *Occluder, ray picking.Ray) bool

// CastRay visits the occluders of every cell crossed by the segment from
// origin to end, in order along the segment.
func (g *Grid) CastRay(origin, end math.Vec3, visit Visitor) {
	d := end.Sub(origin)
	length := d.Length()
	if length == 0 {
		return
	}
	g.traverse(picking.Ray{Origin: origin, Direction: d.Scale(1 / length)}, length, visit)
}

// CastInfiniteRay visits the occluders of every cell crossed by the ray
// from origin along dir until it leaves the grid.
func (g *Grid) CastInfiniteRay(origin, dir math.Vec3, visit Visitor) {
	if dir.Length() == 0 {
		return
	}
	g.traverse(picking.NewRay(origin, dir), gomath.Inf(1), visit)
}

// traverse steps through the cells pierced by ray for t in [0, limit]
// with a 3D DDA.
func (g *Grid) traverse(ray picking.Ray, limit float64, visit Visitor) {
	g.timestamp++
	stamp := g.timestamp

	if !g.box.Contains(ray.Origin) {
		g.log.Warn("ray origin outside grid bounds",
			zap.Float64("x", ray.Origin.X),
			zap.Float64("y", ray.Origin.Y),
			zap.Float64("z", ray.Origin.Z))
	}

	tmin, tmax, hit := ray.Slab(g.box)
	if !hit {
		return
	}
	t0 := gomath.Max(tmin, 0)
	t1 := gomath.Min(tmax, limit)
	if t0 > t1 {
		return
	}

	cell := g.cellOf(ray.At(t0))
	var step [3]int
	var next, delta [3]float64
	for axis := 0; axis < 3; axis++ {
		d := ray.Direction.Component(axis)
		size := g.cellSize.Component(axis)
		lo := g.box.Min.Component(axis) + float64(cell[axis])*size
		o := ray.Origin.Component(axis)
		switch {
		case d > 0:
			step[axis] = 1
			next[axis] = (lo + size - o) / d
			delta[axis] = size / d
		case d < 0:
			step[axis] = -1
			next[axis] = (lo - o) / d
			delta[axis] = -size / d
		default:
			next[axis] = gomath.Inf(1)
			delta[axis] = gomath.Inf(1)
		}
	}

	for {
		for _, o := range g.cells[g.index(cell)] {
			if o.stamp == stamp {
				continue
			}
			o.stamp = stamp
			if !visit(o, ray) {
				return
			}
		}

		axis := 0
		if next[1] < next[axis] {
			axis = 1
		}
		if next[2] < next[axis] {
			axis = 2
		}
		if next[axis] > t1 {
			return
		}
		cell[axis] += step[axis]
		if cell[axis] < 0 || cell[axis] >= g.dims[axis] {
			return
		}
		next[axis] += delta[axis]
	}
}

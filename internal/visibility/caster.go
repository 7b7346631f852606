// Package visibility estimates the quantitative invisibility of every
// ViewEdge by casting rays through the occluder grid, and marks cusps along
// smooth silhouettes.
package visibility

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/engine/camera"
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/internal/grid"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/internal/progress"
	"github.com/Faultbox/viewmap/internal/viewmap"
)

// ErrNoGrid is returned when ray casting is requested without a populated
// grid.
var ErrNoGrid = errors.New("visibility requires a populated occluder grid")

// Options configures the caster.
type Options struct {
	Algorithm Algorithm

	// Epsilon keeps ray hits away from the ray ends.
	Epsilon float64
}

// DefaultOptions returns the caster defaults.
func DefaultOptions() Options {
	return Options{Algorithm: Exhaustive, Epsilon: 1e-6}
}

// Caster computes visibility for one projection and grid.
type Caster struct {
	opts Options
	proj *camera.Projection
	grid *grid.Grid
	log  *zap.Logger
}

// NewCaster creates a caster. g may be nil, in which case Compute fails
// with ErrNoGrid.
func NewCaster(opts Options, proj *camera.Projection, g *grid.Grid) *Caster {
	return &Caster{opts: opts, proj: proj, grid: g, log: logger.Named("visibility")}
}

// result is the outcome of the rays cast from one FEdge.
type result struct {
	qi        int
	occluders []*mesh.Shape
	occludee  *mesh.Face
}

// Compute sets QI, occluders and occludee on every ViewEdge of vm. It
// returns false when st was canceled; edges not reached keep an unknown QI.
func (c *Caster) Compute(vm *viewmap.ViewMap, st *progress.Stage) (bool, error) {
	if c.grid == nil || c.grid.Len() == 0 {
		return false, ErrNoGrid
	}
	for _, ve := range vm.ViewEdges {
		c.computeEdge(vm, ve)
		if !st.Step() {
			return false, nil
		}
	}
	c.log.Info("visibility computed",
		zap.Int("view_edges", len(vm.ViewEdges)),
		zap.Stringer("algorithm", c.opts.Algorithm))
	return true, nil
}

func (c *Caster) computeEdge(vm *viewmap.ViewMap, ve *viewmap.ViewEdge) {
	fes := ve.FEdges()
	if len(fes) == 0 {
		return
	}
	indices, threshold := c.opts.Algorithm.samples(len(fes))

	counts := make(map[int]int)
	shapes := make(map[*mesh.Shape]bool)
	var order []*mesh.Shape
	occludees := make(map[*mesh.Shape]int)
	faces := make(map[*mesh.Shape]*mesh.Face)
	taken := 0

	for _, i := range indices {
		s := c.sample(fes[i])
		taken++
		counts[s.qi]++
		for _, o := range s.occluders {
			if !shapes[o] {
				shapes[o] = true
				order = append(order, o)
			}
		}
		if s.occludee != nil {
			occludees[s.occludee.Shape]++
			faces[s.occludee.Shape] = s.occludee
		}
		if counts[s.qi] > threshold {
			break
		}
	}

	best, bestCount := 0, -1
	for qi, n := range counts {
		if n > bestCount || (n == bestCount && qi < best) {
			best, bestCount = qi, n
		}
	}
	ve.QI = best

	ve.Occluders = ve.Occluders[:0]
	for _, s := range order {
		ve.Occluders = append(ve.Occluders, vm.AddShape(s))
	}

	ve.Occludee, ve.OccludeeFace = nil, nil
	var top *mesh.Shape
	topCount := 0
	for s, n := range occludees {
		if n > topCount || (n == topCount && top != nil && s.ID < top.ID) {
			top, topCount = s, n
		}
	}
	if top != nil && 2*topCount >= taken {
		ve.Occludee = vm.AddShape(top)
		ve.OccludeeFace = faces[top]
	}

	c.log.Debug("view edge visibility",
		zap.Int("view_edge", ve.ID),
		zap.Int("qi", ve.QI),
		zap.Int("samples", taken),
		zap.Int("occluders", len(ve.Occluders)))
}

// sample casts the rays of one FEdge: towards the viewer for its QI and
// occluders, away from it for its occludee.
func (c *Caster) sample(fe *viewmap.FEdge) result {
	p := fe.Center3D()
	target := c.proj.RayTarget(p)
	dist := target.Sub(p).Length()
	skip := excluded(fe)
	eps := c.opts.Epsilon

	var s result
	seen := make(map[*mesh.Shape]bool)
	c.grid.CastRay(p, target, func(o *grid.Occluder, ray picking.Ray) bool {
		if skip[o.Face] {
			return true
		}
		t, hit := intersect(ray, o.Face, eps)
		if !hit || t >= dist-eps {
			return true
		}
		s.qi++
		if sh := o.Face.Shape; !seen[sh] {
			seen[sh] = true
			s.occluders = append(s.occluders, sh)
		}
		return true
	})

	nearest := -1.0
	c.grid.CastInfiniteRay(p, p.Sub(target), func(o *grid.Occluder, ray picking.Ray) bool {
		if skip[o.Face] {
			return true
		}
		t, hit := intersect(ray, o.Face, eps)
		if hit && (nearest < 0 || t < nearest) {
			nearest = t
			s.occludee = o.Face
		}
		return true
	})
	return s
}

// intersect returns the distance along ray to the face, rejecting hits
// closer than eps.
func intersect(ray picking.Ray, f *mesh.Face, eps float64) (float64, bool) {
	a := f.Vertex(0).Point
	for i := 1; i+1 < f.NumVertices(); i++ {
		if t, ok := ray.IntersectTriangle(a, f.Vertex(i).Point, f.Vertex(i+1).Point, eps); ok {
			return t, true
		}
	}
	return 0, false
}

// excluded returns the faces an FEdge must not be occluded by: the faces
// it lies on, the faces around the non-border ends of a sharp silhouette,
// and the faces around the face crossed by a smooth edge.
func excluded(fe *viewmap.FEdge) map[*mesh.Face]bool {
	skip := make(map[*mesh.Face]bool)
	for _, f := range fe.Faces() {
		skip[f] = true
	}
	switch {
	case fe.Smooth != nil:
		for _, h := range fe.Smooth.Face.HalfEdges {
			for _, f := range h.A.Faces() {
				skip[f] = true
			}
		}
	case fe.Nature.Has(nature.Silhouette) && fe.Sharp.Edge != nil:
		e := fe.Sharp.Edge
		for _, v := range []*mesh.Vertex{e.VertexA(), e.VertexB()} {
			if v.Border {
				continue
			}
			for _, f := range v.Faces() {
				skip[f] = true
			}
		}
	}
	return skip
}

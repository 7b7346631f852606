// Package sweep finds the image-space crossings between feature edges with
// a plane sweep and turns each crossing into a TVertex.
package sweep

import (
	"container/heap"
	gomath "math"
	"sort"

	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/engine/camera"
	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/internal/progress"
	"github.com/Faultbox/viewmap/internal/viewmap"
	"github.com/Faultbox/viewmap/pkg/math"
)

// Options configures the sweep.
type Options struct {
	// Epsilon is the tolerance on image coordinates and segment
	// parameters.
	Epsilon float64
}

// DefaultOptions returns the sweep defaults.
func DefaultOptions() Options {
	return Options{Epsilon: 1e-6}
}

// Intersection is a crossing between two FEdges in the image.
type Intersection struct {
	A, B   *viewmap.FEdge
	TA, TB float64
	Point  math.Vec2
}

type segment struct {
	fe     *viewmap.FEdge
	a, b   math.Vec2
	active bool
	hits   int
}

// Intersector runs the sweep for one projection.
type Intersector struct {
	opts Options
	proj *camera.Projection
	log  *zap.Logger
}

// New creates an intersector.
func New(opts Options, proj *camera.Projection) *Intersector {
	return &Intersector{opts: opts, proj: proj, log: logger.Named("sweep")}
}

// Find returns the crossings between the given FEdges. It reports false
// when st was canceled before the sweep completed.
func (x *Intersector) Find(fedges []*viewmap.FEdge, st *progress.Stage) ([]Intersection, bool) {
	eps := x.opts.Epsilon
	q := &queue{eps: eps}
	for _, fe := range fedges {
		s := &segment{fe: fe, a: fe.A.Point2D.XY(), b: fe.B.Point2D.XY()}
		lo, hi := s.a, s.b
		switch compare(lo, hi, eps) {
		case 0:
			// Seen end-on: nothing to cross.
			continue
		case 1:
			lo, hi = hi, lo
		}
		q.items = append(q.items, endpoint{p: lo, seg: s, start: true}, endpoint{p: hi, seg: s})
	}
	heap.Init(q)

	var (
		active   []*segment
		finished []*segment
		hits     []Intersection
	)
	for q.Len() > 0 {
		first := heap.Pop(q).(endpoint)
		group := []endpoint{first}
		for q.Len() > 0 && compare(q.items[0].p, first.p, eps) == 0 {
			group = append(group, heap.Pop(q).(endpoint))
		}

		for _, ep := range group {
			if ep.start || !ep.seg.active {
				continue
			}
			ep.seg.active = false
			active = remove(active, ep.seg)
			if ep.seg.hits > 0 {
				finished = append(finished, ep.seg)
			}
		}
		for _, ep := range group {
			if !ep.start {
				continue
			}
			s := ep.seg
			for _, o := range active {
				if h, ok := x.test(s, o); ok {
					s.hits++
					o.hits++
					hits = append(hits, h)
				}
			}
			s.active = true
			active = append(active, s)
		}

		for range group {
			if !st.Step() {
				return nil, false
			}
		}
	}

	x.log.Debug("sweep done",
		zap.Int("segments", len(fedges)),
		zap.Int("intersected", len(finished)),
		zap.Int("intersections", len(hits)))
	return hits, true
}

func remove(list []*segment, s *segment) []*segment {
	for i, o := range list {
		if o == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// test intersects two segments. Pairs sharing an SVertex, pairs where
// neither edge is a silhouette or border, and contacts at an endpoint of
// either segment are not crossings.
func (x *Intersector) test(s, o *segment) (Intersection, bool) {
	a, b := s.fe, o.fe
	if a.A == b.A || a.A == b.B || a.B == b.A || a.B == b.B {
		return Intersection{}, false
	}
	if !a.Nature.Visible() && !b.Nature.Visible() {
		return Intersection{}, false
	}
	eps := x.opts.Epsilon
	ta, tb, ok := picking.SegmentIntersection(s.a, s.b, o.a, o.b, eps)
	if !ok {
		return Intersection{}, false
	}
	if ta <= eps || ta >= 1-eps || tb <= eps || tb >= 1-eps {
		return Intersection{}, false
	}
	return Intersection{A: a, B: b, TA: ta, TB: tb, Point: s.a.Lerp(s.b, ta)}, true
}

// Apply promotes every crossing to a TVertex: both FEdges are split at
// their crossing points, farthest first, and the ViewEdges through the new
// SVertices are split at the TVertex. It returns the number of TVertices.
func (x *Intersector) Apply(vm *viewmap.ViewMap, hits []Intersection) int {
	type split struct {
		t  float64
		sv *viewmap.SVertex
	}
	splits := make(map[*viewmap.FEdge][]split)
	var order []*viewmap.FEdge
	add := func(fe *viewmap.FEdge, t float64, sv *viewmap.SVertex) {
		if _, ok := splits[fe]; !ok {
			order = append(order, fe)
		}
		splits[fe] = append(splits[fe], split{t: t, sv: sv})
	}

	type crossing struct{ front, back *viewmap.SVertex }
	crossings := make([]crossing, 0, len(hits))
	for _, h := range hits {
		sa := x.crossingSVertex(vm, h.A, h.TA, h.Point)
		sb := x.crossingSVertex(vm, h.B, h.TB, h.Point)
		add(h.A, h.TA, sa)
		add(h.B, h.TB, sb)
		if sa.Point2D.Z <= sb.Point2D.Z {
			crossings = append(crossings, crossing{front: sa, back: sb})
		} else {
			crossings = append(crossings, crossing{front: sb, back: sa})
		}
	}

	for _, fe := range order {
		ss := splits[fe]
		sort.Slice(ss, func(i, j int) bool { return ss[i].t > ss[j].t })
		for _, s := range ss {
			vm.SplitFEdge(fe, s.sv)
		}
	}

	for _, c := range crossings {
		tv := vm.NewTVertex(c.front, c.back)
		vm.InsertViewVertex(c.front, tv)
		vm.InsertViewVertex(c.back, tv)
	}
	return len(crossings)
}

// crossingSVertex creates the SVertex on fe at image parameter t.
func (x *Intersector) crossingSVertex(vm *viewmap.ViewMap, fe *viewmap.FEdge, t float64, p math.Vec2) *viewmap.SVertex {
	a, b := fe.A.Point3D, fe.B.Point3D
	t3 := x.proj.ImageToWorldParameter(a, b, t)
	if eps := x.opts.Epsilon; t3 < -eps || t3 > 1+eps {
		x.log.Warn("intersection parameter out of range",
			zap.Int("fedge", fe.ID), zap.Float64("t2d", t), zap.Float64("t3d", t3))
	}
	t3 = gomath.Max(0, gomath.Min(1, t3))
	p3 := a.Lerp(b, t3)
	p2 := math.Vec3{X: p.X, Y: p.Y, Z: x.proj.Project(p3).Z}
	return vm.NewSVertex(fe.A.Shape, nil, p3, p2)
}

// ComputeIntersections runs Find over every FEdge of vm and applies the
// result. It returns the number of TVertices created and false if the
// sweep was canceled, in which case vm is left untouched.
func (x *Intersector) ComputeIntersections(vm *viewmap.ViewMap, st *progress.Stage) (int, bool) {
	fedges := append([]*viewmap.FEdge(nil), vm.FEdges...)
	hits, ok := x.Find(fedges, st)
	if !ok {
		return 0, false
	}
	n := x.Apply(vm, hits)
	x.log.Info("image intersections computed", zap.Int("t_vertices", n))
	return n, true
}

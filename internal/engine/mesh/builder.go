package mesh

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/pkg/math"
)

// ErrNoFaces is returned when an input yields no usable face.
var ErrNoFaces = errors.New("mesh has no valid faces")

// degenerateArea is the area below which a triangle is dropped.
const degenerateArea = 1e-12

// FaceInput describes one input triangle.
type FaceInput struct {
	Indices [3]int

	// Normals optionally gives the shading normal at each corner.
	Normals []math.Vec3

	Material int
	Mark     bool

	// EdgeMarks[i] flags the edge Indices[i] -> Indices[(i+1)%3].
	EdgeMarks [3]bool
}

// Input is an indexed triangle mesh produced by the host's import step.
type Input struct {
	Name      string
	Points    []math.Vec3
	Faces     []FaceInput
	Materials []Material

	// SmoothNormals computes area-weighted vertex normals for faces that
	// carry no explicit normals. Otherwise such faces are flat shaded.
	SmoothNormals bool
}

type edgeKey struct {
	lo, hi int
}

func keyOf(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// BuildShape builds the half-edge representation of an input mesh.
// Degenerate triangles and out-of-range indices are skipped, duplicate or
// inconsistently oriented edges are coalesced and their vertices flagged as
// border; each anomaly is logged and processing continues.
func BuildShape(id int, in Input) (*Shape, error) {
	log := logger.Named("mesh").With(zap.String("shape", in.Name))

	s := &Shape{
		ID:        id,
		Name:      in.Name,
		Materials: in.Materials,
		Vertices:  make([]*Vertex, len(in.Points)),
	}
	for i, p := range in.Points {
		s.Vertices[i] = &Vertex{ID: i, Point: p, Shape: s}
	}

	edges := make(map[edgeKey]*Edge)
	var flat []*Face

	for fi, fin := range in.Faces {
		idx := fin.Indices
		if !validIndices(idx, len(in.Points)) {
			log.Warn("skipping face with invalid indices", zap.Int("face", fi), zap.Ints("indices", idx[:]))
			continue
		}
		a, b, c := in.Points[idx[0]], in.Points[idx[1]], in.Points[idx[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Length()/2 < degenerateArea {
			log.Warn("skipping degenerate triangle", zap.Int("face", fi))
			continue
		}

		f := &Face{
			ID:       len(s.Faces),
			Normal:   n.Normalize(),
			Material: fin.Material,
			Mark:     fin.Mark,
			Shape:    s,
		}
		f.HalfEdges = make([]*HalfEdge, 3)
		for i := 0; i < 3; i++ {
			va := s.Vertices[idx[i]]
			vb := s.Vertices[idx[(i+1)%3]]
			h := &HalfEdge{A: va, B: vb, Face: f}
			f.HalfEdges[i] = h
			s.attach(edges, h, idx[i], idx[(i+1)%3], log)
			if fin.EdgeMarks[i] {
				h.Edge.Marked = true
			}
		}
		for i, h := range f.HalfEdges {
			h.Next = f.HalfEdges[(i+1)%3]
			h.Prev = f.HalfEdges[(i+2)%3]
		}

		switch {
		case len(fin.Normals) == 3:
			f.VertexNormals = make([]math.Vec3, 3)
			for i, vn := range fin.Normals {
				f.VertexNormals[i] = vn.Normalize()
			}
		case in.SmoothNormals:
			flat = append(flat, f)
		default:
			f.VertexNormals = []math.Vec3{f.Normal, f.Normal, f.Normal}
		}
		s.Faces = append(s.Faces, f)
	}

	if len(s.Faces) == 0 {
		return nil, fmt.Errorf("building shape %q: %w", in.Name, ErrNoFaces)
	}

	if len(flat) > 0 {
		smoothVertexNormals(s, flat)
	}

	s.finish(log)
	return s, nil
}

func validIndices(idx [3]int, n int) bool {
	for _, i := range idx {
		if i < 0 || i >= n {
			return false
		}
	}
	return idx[0] != idx[1] && idx[1] != idx[2] && idx[0] != idx[2]
}

// attach connects h to the edge between vertex indices ia and ib, creating
// the edge on first use.
func (s *Shape) attach(edges map[edgeKey]*Edge, h *HalfEdge, ia, ib int, log *zap.Logger) {
	k := keyOf(ia, ib)
	e, ok := edges[k]
	if !ok {
		e = &Edge{ID: len(s.Edges), HalfA: h}
		h.Edge = e
		edges[k] = e
		s.Edges = append(s.Edges, e)
		h.A.Edges = append(h.A.Edges, e)
		h.B.Edges = append(h.B.Edges, e)
		return
	}

	h.Edge = e
	switch {
	case e.HalfB == nil && e.HalfA.A == h.B:
		e.HalfB = h
		e.HalfA.Twin = h
		h.Twin = e.HalfA
	case e.HalfB == nil:
		// Same orientation twice: the neighbouring faces disagree on winding.
		e.HalfB = h
		e.NonManifold = true
		h.A.Border = true
		h.B.Border = true
		log.Warn("coalesced duplicate oriented edge", zap.Int("edge", e.ID),
			zap.Int("a", h.A.ID), zap.Int("b", h.B.ID))
	default:
		e.Extra = append(e.Extra, h)
		e.NonManifold = true
		h.A.Border = true
		h.B.Border = true
		log.Warn("coalesced non-manifold edge", zap.Int("edge", e.ID),
			zap.Int("faces", 2+len(e.Extra)))
	}
}

// smoothVertexNormals assigns area-weighted averaged normals to the given
// faces.
func smoothVertexNormals(s *Shape, faces []*Face) {
	acc := make([]math.Vec3, len(s.Vertices))
	for _, f := range s.Faces {
		w := f.Area()
		for _, h := range f.HalfEdges {
			acc[h.A.ID] = acc[h.A.ID].Add(f.Normal.Scale(w))
		}
	}
	for _, f := range faces {
		f.VertexNormals = make([]math.Vec3, len(f.HalfEdges))
		for i, h := range f.HalfEdges {
			n := acc[h.A.ID].Normalize()
			if n == (math.Vec3{}) {
				n = f.Normal
			}
			f.VertexNormals[i] = n
		}
	}
}

// finish flags border vertices and computes the bounding box and mean edge
// size.
func (s *Shape) finish(log *zap.Logger) {
	for _, e := range s.Edges {
		if e.HalfB == nil {
			e.HalfA.A.Border = true
			e.HalfA.B.Border = true
		}
	}

	lo := math.Vec3{X: gomath.Inf(1), Y: gomath.Inf(1), Z: gomath.Inf(1)}
	hi := math.Vec3{X: gomath.Inf(-1), Y: gomath.Inf(-1), Z: gomath.Inf(-1)}
	isolated := 0
	for _, v := range s.Vertices {
		if len(v.Edges) == 0 {
			isolated++
			continue
		}
		lo = lo.Min(v.Point)
		hi = hi.Max(v.Point)
	}
	if isolated > 0 {
		log.Warn("ignoring vertices with empty edge list", zap.Int("count", isolated))
	}
	s.Bounds = picking.NewAABB(lo, hi)

	var total float64
	for _, e := range s.Edges {
		total += e.Length()
	}
	s.MeanEdgeSize = total / float64(len(s.Edges))
}

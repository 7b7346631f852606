// Package mesh provides the half-edge mesh the view map is extracted from.
//
// A Shape owns its vertices, edges and faces; every cross reference between
// them is a non-owning pointer into those arenas and stays valid for as long
// as the Shape is alive.
package mesh

import (
	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/pkg/math"
)

// Vertex is a mesh vertex.
type Vertex struct {
	ID    int
	Point math.Vec3
	Edges []*Edge

	// Border is set for vertices on an open boundary or on a
	// non-manifold edge. Curvature is never estimated at such vertices.
	Border bool

	// Curvature is filled by the feature detector; nil when the vertex
	// was skipped.
	Curvature *CurvatureInfo

	Shape *Shape
}

// FeatureDegree returns the number of incident edges carrying any nature.
func (v *Vertex) FeatureDegree() int {
	n := 0
	for _, e := range v.Edges {
		if e.Nature != nature.NoFeature {
			n++
		}
	}
	return n
}

// Faces returns the distinct faces incident to the vertex.
func (v *Vertex) Faces() []*Face {
	var faces []*Face
	seen := make(map[*Face]bool)
	for _, e := range v.Edges {
		for _, h := range e.Halves() {
			if h.Face != nil && !seen[h.Face] {
				seen[h.Face] = true
				faces = append(faces, h.Face)
			}
		}
	}
	return faces
}

// HalfEdge is one oriented side of an Edge, running from A to B inside Face.
type HalfEdge struct {
	A, B *Vertex
	Face *Face
	Edge *Edge

	// Twin is the opposite half-edge, nil on a border.
	Twin *HalfEdge

	// Next and Prev walk the loop of Face.
	Next, Prev *HalfEdge
}

// Vector returns B - A.
func (h *HalfEdge) Vector() math.Vec3 {
	return h.B.Point.Sub(h.A.Point)
}

// PointAt returns the point at parameter t along the half-edge.
func (h *HalfEdge) PointAt(t float64) math.Vec3 {
	return h.A.Point.Lerp(h.B.Point, t)
}

// Edge is an undirected mesh edge made of one or two half-edges.
type Edge struct {
	ID int

	// HalfA is never nil. HalfB is nil for a border edge.
	HalfA, HalfB *HalfEdge

	// Extra holds half-edges of further faces coalesced onto this edge.
	Extra []*HalfEdge

	// NonManifold is set when a duplicate or inconsistently oriented
	// half-edge was coalesced onto the edge.
	NonManifold bool

	// Marked is the explicit input edge mark.
	Marked bool

	Nature nature.Edge
}

// VertexA returns the origin of the first half-edge.
func (e *Edge) VertexA() *Vertex { return e.HalfA.A }

// VertexB returns the destination of the first half-edge.
func (e *Edge) VertexB() *Vertex { return e.HalfA.B }

// FaceA returns the face on the first side.
func (e *Edge) FaceA() *Face { return e.HalfA.Face }

// FaceB returns the face on the second side, nil on a border.
func (e *Edge) FaceB() *Face {
	if e.HalfB == nil {
		return nil
	}
	return e.HalfB.Face
}

// FaceCount returns the number of faces owning the edge (1 or 2).
func (e *Edge) FaceCount() int {
	if e.HalfB == nil {
		return 1
	}
	return 2
}

// Halves returns every half-edge attached to the edge.
func (e *Edge) Halves() []*HalfEdge {
	hs := []*HalfEdge{e.HalfA}
	if e.HalfB != nil {
		hs = append(hs, e.HalfB)
	}
	return append(hs, e.Extra...)
}

// Other returns the endpoint opposite to v.
func (e *Edge) Other(v *Vertex) *Vertex {
	if e.HalfA.A == v {
		return e.HalfA.B
	}
	return e.HalfA.A
}

// Length returns the 3D length.
func (e *Edge) Length() float64 {
	return e.HalfA.Vector().Length()
}

// Face is a closed polygon of half-edges. Faces built by BuildShape are
// always triangles.
type Face struct {
	ID        int
	HalfEdges []*HalfEdge
	Normal    math.Vec3

	// VertexNormals is parallel to HalfEdges: entry i is the shading
	// normal at HalfEdges[i].A.
	VertexNormals []math.Vec3

	Material int
	Mark     bool
	Shape    *Shape

	// Front, DotP and Dist are view dependent and refreshed by the
	// feature detector for every camera configuration.
	Front bool
	DotP  float64
	Dist  float64

	Layers []*FaceLayer
}

// NumVertices returns the polygon size.
func (f *Face) NumVertices() int {
	return len(f.HalfEdges)
}

// Vertex returns the i-th vertex of the loop.
func (f *Face) Vertex(i int) *Vertex {
	return f.HalfEdges[i].A
}

// VertexIndex returns the loop index of v, or -1.
func (f *Face) VertexIndex(v *Vertex) int {
	for i, h := range f.HalfEdges {
		if h.A == v {
			return i
		}
	}
	return -1
}

// VertexNormal returns the shading normal of the face at v.
func (f *Face) VertexNormal(v *Vertex) (math.Vec3, bool) {
	i := f.VertexIndex(v)
	if i < 0 {
		return math.Vec3{}, false
	}
	return f.VertexNormals[i], true
}

// HasVertex reports whether v is a corner of the face.
func (f *Face) HasVertex(v *Vertex) bool {
	return f.VertexIndex(v) >= 0
}

// Center returns the centroid.
func (f *Face) Center() math.Vec3 {
	var c math.Vec3
	for _, h := range f.HalfEdges {
		c = c.Add(h.A.Point)
	}
	return c.Scale(1 / float64(len(f.HalfEdges)))
}

// Area returns the polygon area.
func (f *Face) Area() float64 {
	var n math.Vec3
	p0 := f.HalfEdges[0].A.Point
	for i := 1; i+1 < len(f.HalfEdges); i++ {
		a := f.HalfEdges[i].A.Point.Sub(p0)
		b := f.HalfEdges[i+1].A.Point.Sub(p0)
		n = n.Add(a.Cross(b))
	}
	return n.Length() / 2
}

// Smooth reports whether any vertex normal differs from the face normal,
// i.e. the face is smooth shaded.
func (f *Face) Smooth() bool {
	for _, n := range f.VertexNormals {
		if !n.ApproxEqual(f.Normal, 1e-9) {
			return true
		}
	}
	return false
}

// Layer returns the face layer carrying the given nature, or nil.
func (f *Face) Layer(n nature.Edge) *FaceLayer {
	for _, l := range f.Layers {
		if l.Nature == n {
			return l
		}
	}
	return nil
}

// Material describes a surface material of a shape.
type Material struct {
	Name    string
	Diffuse [4]float64
}

// Shape owns the mesh of one connected input object.
type Shape struct {
	ID        int
	Name      string
	Vertices  []*Vertex
	Edges     []*Edge
	Faces     []*Face
	Materials []Material

	Bounds       picking.AABB
	MeanEdgeSize float64
}

// ResetFeatures clears every view-dependent annotation so the shape can be
// classified again for a new camera configuration. View-independent
// curvature (K1, K2 and directions) is kept.
func (s *Shape) ResetFeatures() {
	for _, e := range s.Edges {
		e.Nature = nature.NoFeature
	}
	for _, f := range s.Faces {
		f.Layers = nil
		f.Front = false
		f.DotP = 0
		f.Dist = 0
	}
}

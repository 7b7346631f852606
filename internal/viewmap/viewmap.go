// Package viewmap holds the feature graph extracted from a scene: SVertex
// and FEdge atoms chained into ViewEdges between ViewVertices, grouped by
// ViewShape.
//
// Entities reference each other through non-owning pointers; the ViewMap
// owns every entity it hands out and assigns ids from its own counters, so
// independent ViewMaps never share state.
package viewmap

import (
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/pkg/math"
)

// SVertex is a point of the feature graph with its world position and its
// image position (x, y in pixels, z the normalized depth).
type SVertex struct {
	ID      int
	Point3D math.Vec3
	Point2D math.Vec3
	FEdges  []*FEdge

	// ViewVertex is set when a graph node anchors the SVertex.
	ViewVertex ViewVertex

	// Vertex is the source mesh vertex, nil for points inside faces or
	// edges.
	Vertex *mesh.Vertex

	Shape *ViewShape
}

func (sv *SVertex) addFEdge(fe *FEdge) {
	sv.FEdges = append(sv.FEdges, fe)
}

func (sv *SVertex) replaceFEdge(old, fe *FEdge) {
	for i, e := range sv.FEdges {
		if e == old {
			sv.FEdges[i] = fe
			return
		}
	}
	sv.FEdges = append(sv.FEdges, fe)
}

// SharpData describes an FEdge lying on a mesh edge. FaceB is nil on a
// border.
type SharpData struct {
	Edge             *mesh.Edge
	FaceA, FaceB     *mesh.Face
	NormalA, NormalB math.Vec3
	MaterialA        int
	MaterialB        int
}

// SmoothData describes an FEdge crossing the interior of a face.
type SmoothData struct {
	Face     *mesh.Face
	Layer    *mesh.FaceLayer
	Normal   math.Vec3
	Material int
}

// FEdge is a directed segment between two SVertices. Exactly one of Sharp
// and Smooth is set.
type FEdge struct {
	ID     int
	A, B   *SVertex
	Nature nature.Edge

	// Next and Prev link FEdges of the same ViewEdge; a closed ViewEdge
	// links its last FEdge back to its first.
	Next, Prev *FEdge

	ViewEdge *ViewEdge

	Sharp  *SharpData
	Smooth *SmoothData
}

// IsSmooth reports whether the edge crosses a face interior.
func (fe *FEdge) IsSmooth() bool {
	return fe.Smooth != nil
}

// Center3D returns the world-space midpoint.
func (fe *FEdge) Center3D() math.Vec3 {
	return fe.A.Point3D.Lerp(fe.B.Point3D, 0.5)
}

// Length2D returns the image-space length.
func (fe *FEdge) Length2D() float64 {
	return fe.A.Point2D.XY().Distance(fe.B.Point2D.XY())
}

// Faces returns the mesh faces the edge belongs to.
func (fe *FEdge) Faces() []*mesh.Face {
	if fe.Smooth != nil {
		return []*mesh.Face{fe.Smooth.Face}
	}
	if fe.Sharp.FaceB == nil {
		return []*mesh.Face{fe.Sharp.FaceA}
	}
	return []*mesh.Face{fe.Sharp.FaceA, fe.Sharp.FaceB}
}

// Normal returns the surface normal the edge lies on; for a sharp edge the
// normal of its first face.
func (fe *FEdge) Normal() math.Vec3 {
	if fe.Smooth != nil {
		return fe.Smooth.Normal
	}
	return fe.Sharp.NormalA
}

// ViewShape is the feature-graph counterpart of one mesh shape.
type ViewShape struct {
	ID           int
	Name         string
	Shape        *mesh.Shape
	SVertices    []*SVertex
	FEdges       []*FEdge
	ViewEdges    []*ViewEdge
	ViewVertices []ViewVertex

	byVertex map[*mesh.Vertex]*SVertex
}

// SVertexFor returns the SVertex created for a mesh vertex, or nil.
func (vs *ViewShape) SVertexFor(v *mesh.Vertex) *SVertex {
	return vs.byVertex[v]
}

// ViewMap is the finished feature graph of one camera configuration.
type ViewMap struct {
	Shapes       []*ViewShape
	ViewEdges    []*ViewEdge
	ViewVertices []ViewVertex
	FEdges       []*FEdge
	SVertices    []*SVertex

	nextSVertex    int
	nextFEdge      int
	nextViewEdge   int
	nextViewVertex int

	byShape map[*mesh.Shape]*ViewShape
}

// New creates an empty view map.
func New() *ViewMap {
	return &ViewMap{byShape: make(map[*mesh.Shape]*ViewShape)}
}

// AddShape returns the ViewShape of a mesh shape, creating it on first use.
func (vm *ViewMap) AddShape(s *mesh.Shape) *ViewShape {
	if vs, ok := vm.byShape[s]; ok {
		return vs
	}
	vs := &ViewShape{
		ID:       len(vm.Shapes),
		Name:     s.Name,
		Shape:    s,
		byVertex: make(map[*mesh.Vertex]*SVertex),
	}
	vm.byShape[s] = vs
	vm.Shapes = append(vm.Shapes, vs)
	return vs
}

// ShapeFor returns the ViewShape of a mesh shape, or nil.
func (vm *ViewMap) ShapeFor(s *mesh.Shape) *ViewShape {
	return vm.byShape[s]
}

// NewSVertex creates an SVertex of vs. A non-nil mesh vertex registers the
// SVertex for reuse through SVertexFor.
func (vm *ViewMap) NewSVertex(vs *ViewShape, v *mesh.Vertex, p3, p2 math.Vec3) *SVertex {
	sv := &SVertex{
		ID:      vm.nextSVertex,
		Point3D: p3,
		Point2D: p2,
		Vertex:  v,
		Shape:   vs,
	}
	vm.nextSVertex++
	vm.SVertices = append(vm.SVertices, sv)
	vs.SVertices = append(vs.SVertices, sv)
	if v != nil {
		vs.byVertex[v] = sv
	}
	return sv
}

// NewFEdge creates a directed FEdge from a to b. The caller sets either the
// sharp or the smooth data.
func (vm *ViewMap) NewFEdge(a, b *SVertex, n nature.Edge) *FEdge {
	fe := &FEdge{ID: vm.nextFEdge, A: a, B: b, Nature: n}
	vm.nextFEdge++
	a.addFEdge(fe)
	b.addFEdge(fe)
	vm.FEdges = append(vm.FEdges, fe)
	a.Shape.FEdges = append(a.Shape.FEdges, fe)
	return fe
}

// SplitFEdge splits fe at sv, which must lie on it. fe keeps the part from
// its origin to sv and the returned FEdge covers sv to the old end; chain
// links, SVertex incidence and the owning ViewEdge are updated.
func (vm *ViewMap) SplitFEdge(fe *FEdge, sv *SVertex) *FEdge {
	ne := &FEdge{
		ID:       vm.nextFEdge,
		A:        sv,
		B:        fe.B,
		Nature:   fe.Nature,
		ViewEdge: fe.ViewEdge,
		Sharp:    fe.Sharp,
		Smooth:   fe.Smooth,
	}
	vm.nextFEdge++
	vm.FEdges = append(vm.FEdges, ne)
	sv.Shape.FEdges = append(sv.Shape.FEdges, ne)

	fe.B.replaceFEdge(fe, ne)
	fe.B = sv
	sv.addFEdge(fe)
	sv.addFEdge(ne)

	ne.Next = fe.Next
	if ne.Next != nil {
		ne.Next.Prev = ne
	}
	fe.Next = ne
	ne.Prev = fe

	if ve := fe.ViewEdge; ve != nil && ve.FEdgeB == fe {
		ve.FEdgeB = ne
	}
	return ne
}

// Stats counts the entities of a view map.
type Stats struct {
	Shapes       int `yaml:"shapes"`
	ViewEdges    int `yaml:"view_edges"`
	ViewVertices int `yaml:"view_vertices"`
	TVertices    int `yaml:"t_vertices"`
	Cusps        int `yaml:"cusps"`
	FEdges       int `yaml:"fedges"`
	SVertices    int `yaml:"svertices"`
}

// Stats returns entity counts.
func (vm *ViewMap) Stats() Stats {
	st := Stats{
		Shapes:       len(vm.Shapes),
		ViewEdges:    len(vm.ViewEdges),
		ViewVertices: len(vm.ViewVertices),
		FEdges:       len(vm.FEdges),
		SVertices:    len(vm.SVertices),
	}
	for _, vv := range vm.ViewVertices {
		if vv.Nature().Has(nature.TVertex) {
			st.TVertices++
		}
		if vv.Nature().Has(nature.Cusp) {
			st.Cusps++
		}
	}
	return st
}

package viewmap

import (
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/nature"
)

// QIUnknown is the quantitative invisibility of an edge whose visibility
// was not computed.
const QIUnknown = -1

// ViewEdge is a maximal chain of same-nature FEdges between two
// ViewVertices. A closed ViewEdge has no end vertices.
type ViewEdge struct {
	ID     int
	A, B   ViewVertex
	FEdgeA *FEdge
	FEdgeB *FEdge
	Nature nature.Edge
	Shape  *ViewShape

	// QI is the number of occluders between the edge and the viewer.
	QI        int
	Occluders []*ViewShape

	// Occludee is the surface right behind the edge, nil when nothing
	// is hidden by it.
	Occludee     *ViewShape
	OccludeeFace *mesh.Face
}

// Closed reports whether the edge is a loop without end vertices.
func (ve *ViewEdge) Closed() bool {
	return ve.A == nil && ve.B == nil
}

// FEdges returns the FEdges of the chain in order.
func (ve *ViewEdge) FEdges() []*FEdge {
	var out []*FEdge
	for fe := ve.FEdgeA; fe != nil; fe = fe.Next {
		out = append(out, fe)
		if fe == ve.FEdgeB {
			break
		}
	}
	return out
}

// Length2D returns the image-space length of the chain.
func (ve *ViewEdge) Length2D() float64 {
	var l float64
	for _, fe := range ve.FEdges() {
		l += fe.Length2D()
	}
	return l
}

// HasOccluder reports whether vs occludes the edge.
func (ve *ViewEdge) HasOccluder(vs *ViewShape) bool {
	for _, o := range ve.Occluders {
		if o == vs {
			return true
		}
	}
	return false
}

// NewViewEdge creates a ViewEdge over the linked FEdges from first to
// last. Closed chains must already link last back to first.
func (vm *ViewMap) NewViewEdge(vs *ViewShape, first, last *FEdge) *ViewEdge {
	ve := &ViewEdge{
		ID:     vm.nextViewEdge,
		FEdgeA: first,
		FEdgeB: last,
		Nature: first.Nature,
		Shape:  vs,
		QI:     QIUnknown,
	}
	vm.nextViewEdge++
	for _, fe := range ve.FEdges() {
		fe.ViewEdge = ve
	}
	vm.ViewEdges = append(vm.ViewEdges, ve)
	vs.ViewEdges = append(vs.ViewEdges, ve)
	return ve
}

// Connect attaches the end vertices of an open ViewEdge.
func (ve *ViewEdge) Connect(a, b ViewVertex) {
	ve.A = a
	ve.B = b
	a.addEdge(ve, false)
	b.addEdge(ve, true)
}

// SplitViewEdge splits ve at sv, an SVertex joining two of its FEdges, and
// anchors vv there. An open edge keeps the part up to sv and the returned
// edge covers the rest. A closed edge is re-rooted at vv and returned
// unchanged in identity. Splitting at an existing end of ve does nothing
// and returns nil.
func (vm *ViewMap) SplitViewEdge(ve *ViewEdge, sv *SVertex, vv ViewVertex) *ViewEdge {
	if !ve.Closed() && (ve.FEdgeA.A == sv || ve.FEdgeB.B == sv) {
		return nil
	}

	var in *FEdge
	for _, fe := range ve.FEdges() {
		if fe.B == sv {
			in = fe
			break
		}
	}
	if in == nil || in.Next == nil {
		return nil
	}
	out := in.Next
	in.Next = nil
	out.Prev = nil

	if ve.Closed() {
		ve.FEdgeA = out
		ve.FEdgeB = in
		ve.A = vv
		ve.B = vv
		vv.addEdge(ve, false)
		vv.addEdge(ve, true)
		return ve
	}

	ne := &ViewEdge{
		ID:       vm.nextViewEdge,
		A:        vv,
		B:        ve.B,
		FEdgeA:   out,
		FEdgeB:   ve.FEdgeB,
		Nature:   ve.Nature,
		Shape:    ve.Shape,
		QI:       ve.QI,
		Occludee: ve.Occludee,
	}
	ne.Occluders = append(ne.Occluders, ve.Occluders...)
	ne.OccludeeFace = ve.OccludeeFace
	vm.nextViewEdge++
	for _, fe := range ne.FEdges() {
		fe.ViewEdge = ne
	}
	if ve.B != nil {
		ve.B.replaceEdge(ve, ne, true)
	}
	ve.FEdgeB = in
	ve.B = vv
	vv.addEdge(ve, true)
	vv.addEdge(ne, false)

	vm.ViewEdges = append(vm.ViewEdges, ne)
	ve.Shape.ViewEdges = append(ve.Shape.ViewEdges, ne)
	return ne
}

// InsertViewVertex anchors vv at sv, splitting the ViewEdge running
// through sv. It returns the edge created by the split, if any.
func (vm *ViewMap) InsertViewVertex(sv *SVertex, vv ViewVertex) *ViewEdge {
	in, _ := inOut(sv)
	if in == nil || in.ViewEdge == nil {
		return nil
	}
	return vm.SplitViewEdge(in.ViewEdge, sv, vv)
}

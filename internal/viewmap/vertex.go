package viewmap

import (
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/pkg/math"
)

// DirectedEdge is a ViewEdge seen from one of its end vertices.
type DirectedEdge struct {
	Edge *ViewEdge
	// Incoming is true when the edge ends at the vertex.
	Incoming bool
}

// ViewVertex is a node of the feature graph: either a *NonTVertex or a
// *TVertex.
type ViewVertex interface {
	ID() int
	Nature() nature.Vertex
	Point3D() math.Vec3
	Point2D() math.Vec3
	Edges() []DirectedEdge

	addEdge(ve *ViewEdge, incoming bool)
	replaceEdge(old, ve *ViewEdge, incoming bool)
}

type edgeList struct {
	edges []DirectedEdge
}

func (l *edgeList) Edges() []DirectedEdge {
	return l.edges
}

func (l *edgeList) addEdge(ve *ViewEdge, incoming bool) {
	l.edges = append(l.edges, DirectedEdge{Edge: ve, Incoming: incoming})
}

func (l *edgeList) replaceEdge(old, ve *ViewEdge, incoming bool) {
	for i, de := range l.edges {
		if de.Edge == old && de.Incoming == incoming {
			l.edges[i].Edge = ve
			return
		}
	}
	l.addEdge(ve, incoming)
}

// NonTVertex anchors chain ends at a single SVertex.
type NonTVertex struct {
	edgeList
	id      int
	nature  nature.Vertex
	SVertex *SVertex
}

func (v *NonTVertex) ID() int               { return v.id }
func (v *NonTVertex) Nature() nature.Vertex { return v.nature }
func (v *NonTVertex) Point3D() math.Vec3    { return v.SVertex.Point3D }
func (v *NonTVertex) Point2D() math.Vec3    { return v.SVertex.Point2D }

// TVertex is a crossing, in the image, of two FEdges lying at different
// depths. Front is the point on the nearer edge.
type TVertex struct {
	edgeList
	id int

	Front, Back *SVertex

	// FrontIn/FrontOut are the halves of the nearer FEdge ending at and
	// leaving Front; BackIn/BackOut likewise for Back.
	FrontIn, FrontOut *FEdge
	BackIn, BackOut   *FEdge
}

func (v *TVertex) ID() int { return v.id }

func (v *TVertex) Nature() nature.Vertex {
	return nature.ViewVertex | nature.TVertex
}

func (v *TVertex) Point3D() math.Vec3 { return v.Front.Point3D }
func (v *TVertex) Point2D() math.Vec3 { return v.Front.Point2D }

// NonTVertexAt returns the ViewVertex anchored at sv, creating a
// NonTVertex when sv has none yet.
func (vm *ViewMap) NonTVertexAt(sv *SVertex) ViewVertex {
	if sv.ViewVertex != nil {
		return sv.ViewVertex
	}
	return vm.NewNonTVertex(sv, 0)
}

// NewNonTVertex anchors a new NonTVertex at sv with extra nature bits.
func (vm *ViewMap) NewNonTVertex(sv *SVertex, extra nature.Vertex) *NonTVertex {
	v := &NonTVertex{
		id:      vm.nextViewVertex,
		nature:  nature.ViewVertex | nature.NonTVertex | extra,
		SVertex: sv,
	}
	vm.nextViewVertex++
	sv.ViewVertex = v
	vm.ViewVertices = append(vm.ViewVertices, v)
	sv.Shape.ViewVertices = append(sv.Shape.ViewVertices, v)
	return v
}

// NewTVertex creates the crossing between front and back, which must
// already split their FEdges.
func (vm *ViewMap) NewTVertex(front, back *SVertex) *TVertex {
	v := &TVertex{id: vm.nextViewVertex, Front: front, Back: back}
	vm.nextViewVertex++
	v.FrontIn, v.FrontOut = inOut(front)
	v.BackIn, v.BackOut = inOut(back)
	front.ViewVertex = v
	back.ViewVertex = v
	vm.ViewVertices = append(vm.ViewVertices, v)
	front.Shape.ViewVertices = append(front.Shape.ViewVertices, v)
	if back.Shape != front.Shape {
		back.Shape.ViewVertices = append(back.Shape.ViewVertices, v)
	}
	return v
}

func inOut(sv *SVertex) (in, out *FEdge) {
	for _, fe := range sv.FEdges {
		switch sv {
		case fe.B:
			in = fe
		case fe.A:
			out = fe
		}
	}
	return in, out
}

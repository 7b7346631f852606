package viewmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/pkg/math"
)

// polyline builds an open ViewEdge through the given image points.
func polyline(vm *ViewMap, vs *ViewShape, n nature.Edge, pts ...math.Vec3) *ViewEdge {
	svs := make([]*SVertex, len(pts))
	for i, p := range pts {
		svs[i] = vm.NewSVertex(vs, nil, p, p)
	}
	var first, prev *FEdge
	for i := 0; i+1 < len(svs); i++ {
		fe := vm.NewFEdge(svs[i], svs[i+1], n)
		fe.Sharp = &SharpData{}
		if prev != nil {
			prev.Next = fe
			fe.Prev = prev
		} else {
			first = fe
		}
		prev = fe
	}
	ve := vm.NewViewEdge(vs, first, prev)
	ve.Connect(vm.NonTVertexAt(svs[0]), vm.NonTVertexAt(svs[len(svs)-1]))
	return ve
}

func assertClosure(t *testing.T, ve *ViewEdge) {
	t.Helper()
	steps := 0
	var sum float64
	fe := ve.FEdgeA
	for fe != ve.FEdgeB {
		sum += fe.Length2D()
		require.NotNil(t, fe.Next)
		assert.Same(t, fe, fe.Next.Prev)
		assert.Same(t, fe.B, fe.Next.A)
		assert.Same(t, ve, fe.ViewEdge)
		fe = fe.Next
		steps++
	}
	sum += fe.Length2D()
	assert.Equal(t, len(ve.FEdges())-1, steps)
	assert.InDelta(t, sum, ve.Length2D(), 1e-9)
}

func TestViewEdgeChain(t *testing.T) {
	vm := New()
	vs := vm.AddShape(&mesh.Shape{Name: "line"})
	ve := polyline(vm, vs, nature.Border,
		math.Vec3{}, math.Vec3{X: 3}, math.Vec3{X: 3, Y: 4}, math.Vec3{X: 6, Y: 4})

	assert.Same(t, vs, vm.AddShape(vs.Shape), "shapes are created once")
	assert.Len(t, ve.FEdges(), 3)
	assert.InDelta(t, 10, ve.Length2D(), 1e-12)
	assert.Equal(t, QIUnknown, ve.QI)
	assert.False(t, ve.Closed())
	assertClosure(t, ve)

	a := ve.A.(*NonTVertex)
	assert.Equal(t, []DirectedEdge{{Edge: ve, Incoming: false}}, a.Edges())
	assert.Equal(t, nature.ViewVertex|nature.NonTVertex, a.Nature())
	assert.Same(t, a, vm.NonTVertexAt(a.SVertex), "anchors are reused")
}

func TestSplitFEdge(t *testing.T) {
	vm := New()
	vs := vm.AddShape(&mesh.Shape{})
	ve := polyline(vm, vs, nature.Border, math.Vec3{}, math.Vec3{X: 2}, math.Vec3{X: 4})
	fes := ve.FEdges()
	end := fes[1].B

	mid := vm.NewSVertex(vs, nil, math.Vec3{X: 3}, math.Vec3{X: 3})
	ne := vm.SplitFEdge(fes[1], mid)

	assert.Same(t, mid, fes[1].B)
	assert.Same(t, mid, ne.A)
	assert.Same(t, end, ne.B)
	assert.Same(t, ne, ve.FEdgeB)
	assert.Same(t, ve, ne.ViewEdge)
	assert.Contains(t, end.FEdges, ne)
	assert.NotContains(t, end.FEdges, fes[1])
	assert.ElementsMatch(t, []*FEdge{fes[1], ne}, mid.FEdges)
	assert.Len(t, ve.FEdges(), 3)
	assertClosure(t, ve)
	assert.NotEqual(t, fes[1].ID, ne.ID)
}

func TestSplitViewEdge(t *testing.T) {
	vm := New()
	vs := vm.AddShape(&mesh.Shape{})
	ve := polyline(vm, vs, nature.Crease,
		math.Vec3{}, math.Vec3{X: 1}, math.Vec3{X: 2}, math.Vec3{X: 3})
	end := ve.B
	sv := ve.FEdges()[1].A

	vv := vm.NewNonTVertex(sv, nature.Cusp)
	ne := vm.SplitViewEdge(ve, sv, vv)
	require.NotNil(t, ne)

	assert.Len(t, vm.ViewEdges, 2)
	assert.Same(t, vv, ve.B)
	assert.Same(t, vv, ne.A)
	assert.Same(t, end, ne.B)
	assert.Len(t, ve.FEdges(), 1)
	assert.Len(t, ne.FEdges(), 2)
	assert.Nil(t, ve.FEdgeB.Next)
	assert.Nil(t, ne.FEdgeA.Prev)
	assertClosure(t, ve)
	assertClosure(t, ne)
	assert.Equal(t, nature.Crease, ne.Nature)

	assert.Equal(t, []DirectedEdge{{Edge: ne, Incoming: true}}, end.Edges())
	assert.ElementsMatch(t, []DirectedEdge{{Edge: ve, Incoming: true}, {Edge: ne, Incoming: false}}, vv.Edges())

	// Splitting again at an existing end is a no-op.
	assert.Nil(t, vm.SplitViewEdge(ne, sv, vv))
	assert.Nil(t, vm.InsertViewVertex(sv, vv))
	assert.Len(t, vm.ViewEdges, 2)
	assert.Equal(t, 1, vm.Stats().Cusps)
}

func TestSplitClosedViewEdge(t *testing.T) {
	vm := New()
	vs := vm.AddShape(&mesh.Shape{})
	pts := []math.Vec3{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}
	svs := make([]*SVertex, len(pts))
	for i, p := range pts {
		svs[i] = vm.NewSVertex(vs, nil, p, p)
	}
	fes := make([]*FEdge, len(svs))
	for i := range svs {
		fes[i] = vm.NewFEdge(svs[i], svs[(i+1)%len(svs)], nature.Silhouette)
		fes[i].Smooth = &SmoothData{}
	}
	for i, fe := range fes {
		fe.Next = fes[(i+1)%len(fes)]
		fe.Prev = fes[(i+len(fes)-1)%len(fes)]
	}
	ve := vm.NewViewEdge(vs, fes[0], fes[3])
	require.True(t, ve.Closed())
	assert.Len(t, ve.FEdges(), 4)
	assert.InDelta(t, 4, ve.Length2D(), 1e-12)

	vv := vm.NewNonTVertex(svs[2], nature.Cusp)
	got := vm.InsertViewVertex(svs[2], vv)
	assert.Same(t, ve, got, "a loop is re-rooted, not split")
	assert.Len(t, vm.ViewEdges, 1)
	assert.False(t, ve.Closed())
	assert.Same(t, fes[2], ve.FEdgeA)
	assert.Same(t, fes[1], ve.FEdgeB)
	assert.Same(t, vv, ve.A)
	assert.Same(t, vv, ve.B)
	assertClosure(t, ve)

	ne := vm.InsertViewVertex(svs[0], vm.NewNonTVertex(svs[0], nature.Cusp))
	require.NotNil(t, ne)
	assert.Len(t, vm.ViewEdges, 2)
	assert.Len(t, ve.FEdges(), 2)
	assert.Len(t, ne.FEdges(), 2)
}

func TestTVertexSplitsBothEdges(t *testing.T) {
	vm := New()
	near := vm.AddShape(&mesh.Shape{Name: "near"})
	far := vm.AddShape(&mesh.Shape{Name: "far"})
	h := polyline(vm, near, nature.Border, math.Vec3{X: -1}, math.Vec3{X: 1})
	v := polyline(vm, far, nature.Silhouette, math.Vec3{Y: -1, Z: 1}, math.Vec3{Y: 1, Z: 1})

	front := vm.NewSVertex(near, nil, math.Vec3{}, math.Vec3{})
	back := vm.NewSVertex(far, nil, math.Vec3{Z: 1}, math.Vec3{Z: 1})
	vm.SplitFEdge(h.FEdgeA, front)
	vm.SplitFEdge(v.FEdgeA, back)

	tv := vm.NewTVertex(front, back)
	require.NotNil(t, vm.InsertViewVertex(front, tv))
	require.NotNil(t, vm.InsertViewVertex(back, tv))

	assert.Same(t, front, tv.FrontIn.B)
	assert.Same(t, front, tv.FrontOut.A)
	assert.Same(t, back, tv.BackIn.B)
	assert.Same(t, back, tv.BackOut.A)
	assert.Len(t, tv.Edges(), 4)
	assert.Same(t, tv, front.ViewVertex)
	assert.Same(t, tv, back.ViewVertex)

	st := vm.Stats()
	assert.Equal(t, 4, st.ViewEdges)
	assert.Equal(t, 1, st.TVertices)
	assert.Equal(t, 5, st.ViewVertices)
	assert.Equal(t, 4, st.FEdges)
	assert.Equal(t, 2, len(near.ViewEdges))
	assert.Equal(t, 2, len(far.ViewEdges))
	assert.Contains(t, far.ViewVertices, ViewVertex(tv))
}

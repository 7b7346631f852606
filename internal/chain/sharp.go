package chain

import (
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/internal/viewmap"
)

// step is one mesh edge traversed from one vertex to the other.
type step struct {
	edge     *mesh.Edge
	from, to *mesh.Vertex
}

func (b *Builder) sharpChain(start *mesh.Edge) {
	b.edges[start] = true
	steps := []step{{edge: start, from: start.VertexA(), to: start.VertexB()}}

	closed := false
	for {
		last := steps[len(steps)-1]
		next := b.nextSharp(last.edge, last.to)
		if next == nil {
			break
		}
		if next == start {
			closed = true
			break
		}
		if b.edges[next] {
			break
		}
		b.edges[next] = true
		steps = append(steps, step{edge: next, from: last.to, to: next.Other(last.to)})
	}

	if !closed {
		var back []step
		for {
			first := steps[0]
			if len(back) > 0 {
				first = back[len(back)-1]
			}
			prev := b.nextSharp(first.edge, first.from)
			if prev == nil || b.edges[prev] {
				break
			}
			b.edges[prev] = true
			back = append(back, step{edge: prev, from: prev.Other(first.from), to: first.from})
		}
		for i, j := 0, len(back)-1; i < j; i, j = i+1, j-1 {
			back[i], back[j] = back[j], back[i]
		}
		steps = append(back, steps...)
	}

	fes := make([]*viewmap.FEdge, len(steps))
	for i, st := range steps {
		fes[i] = b.sharpFEdge(st)
	}
	b.finish(fes, closed)
}

// nextSharp returns the edge continuing e through v, or nil when the chain
// must stop at v.
func (b *Builder) nextSharp(e *mesh.Edge, v *mesh.Vertex) *mesh.Edge {
	if v.FeatureDegree() != 2 {
		return nil
	}
	var other *mesh.Edge
	for _, o := range v.Edges {
		if o != e && o.Nature != nature.NoFeature {
			other = o
		}
	}
	if other == nil || other.Nature != e.Nature || markPattern(other) != markPattern(e) {
		return nil
	}
	if b.isCorner(v, e, other) {
		return nil
	}
	return other
}

// isCorner reports whether the chain turns at v by more than the corner
// angle.
func (b *Builder) isCorner(v *mesh.Vertex, in, out *mesh.Edge) bool {
	if b.opts.CornerAngle <= 0 {
		return false
	}
	d1 := v.Point.Sub(in.Other(v).Point).Normalize()
	d2 := out.Other(v).Point.Sub(v.Point).Normalize()
	return d1.Dot(d2) < b.cornerCos
}

// markPattern summarizes the face marks on both sides of e, independent of
// the side order: 0 unmarked, 1 marked, 2 no face.
func markPattern(e *mesh.Edge) [2]int {
	mark := func(f *mesh.Face) int {
		switch {
		case f == nil:
			return 2
		case f.Mark:
			return 1
		}
		return 0
	}
	a, c := mark(e.FaceA()), mark(e.FaceB())
	if a > c {
		a, c = c, a
	}
	return [2]int{a, c}
}

func (b *Builder) sharpFEdge(st step) *viewmap.FEdge {
	fe := b.vm.NewFEdge(b.meshSVertex(st.from), b.meshSVertex(st.to), st.edge.Nature)

	h := st.edge.HalfA
	if h.A != st.from && st.edge.HalfB != nil {
		h = st.edge.HalfB
	}
	data := &viewmap.SharpData{
		Edge:      st.edge,
		FaceA:     h.Face,
		NormalA:   h.Face.Normal,
		MaterialA: h.Face.Material,
	}
	other := st.edge.FaceB()
	if h != st.edge.HalfA {
		other = st.edge.FaceA()
	}
	if other != nil {
		data.FaceB = other
		data.NormalB = other.Normal
		data.MaterialB = other.Material
	}
	fe.Sharp = data
	return fe
}

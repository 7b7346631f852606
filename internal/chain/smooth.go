package chain

import (
	gomath "math"

	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/viewmap"
)

func (b *Builder) smoothChain(start *mesh.FaceLayer) {
	b.layers[start] = true
	chain := []*mesh.FaceLayer{start}

	closed := false
	for {
		next := b.nextSmooth(chain[len(chain)-1])
		if next == nil {
			break
		}
		if next == start {
			closed = true
			break
		}
		if b.layers[next] {
			break
		}
		b.layers[next] = true
		chain = append(chain, next)
	}

	if !closed {
		var back []*mesh.FaceLayer
		cur := start
		for {
			prev := b.prevSmooth(cur)
			if prev == nil || b.layers[prev] {
				break
			}
			b.layers[prev] = true
			back = append(back, prev)
			cur = prev
		}
		for i, j := 0, len(back)-1; i < j; i, j = i+1, j-1 {
			back[i], back[j] = back[j], back[i]
		}
		chain = append(back, chain...)
	}

	fes := make([]*viewmap.FEdge, len(chain))
	var prevB *viewmap.SVertex
	for i, l := range chain {
		a := prevB
		if a == nil {
			a = b.smoothSVertex(l.Smooth.A)
		}
		var bv *viewmap.SVertex
		if closed && i == len(chain)-1 {
			bv = fes[0].A
		} else {
			bv = b.smoothSVertex(l.Smooth.B)
		}
		fe := b.vm.NewFEdge(a, bv, l.Nature)
		fe.Smooth = &viewmap.SmoothData{
			Face:     l.Face,
			Layer:    l,
			Normal:   l.Face.Normal,
			Material: l.Face.Material,
		}
		fes[i] = fe
		prevB = bv
	}
	b.finish(fes, closed)
}

// nextSmooth returns the layer whose zero crossing enters where l's
// leaves, or nil when there is none or the choice is ambiguous.
func (b *Builder) nextSmooth(l *mesh.FaceLayer) *mesh.FaceLayer {
	exit := l.Smooth.B
	if v := exit.Vertex(); v != nil {
		return uniqueAround(v, l, func(o *mesh.FaceLayer) bool {
			return o.Smooth.A.Vertex() == v
		})
	}
	twin := exit.Half.Twin
	if twin == nil {
		return nil
	}
	o := twin.Face.Layer(l.Nature)
	if o == nil || o.Smooth == nil || o.Smooth.A.Half != twin {
		return nil
	}
	return o
}

// prevSmooth mirrors nextSmooth at the entry point of l.
func (b *Builder) prevSmooth(l *mesh.FaceLayer) *mesh.FaceLayer {
	entry := l.Smooth.A
	if v := entry.Vertex(); v != nil {
		return uniqueAround(v, l, func(o *mesh.FaceLayer) bool {
			return o.Smooth.B.Vertex() == v
		})
	}
	twin := entry.Half.Twin
	if twin == nil {
		return nil
	}
	o := twin.Face.Layer(l.Nature)
	if o == nil || o.Smooth == nil || o.Smooth.B.Half != twin {
		return nil
	}
	return o
}

// uniqueAround returns the single layer of l's nature on a face around v,
// other than l's face, accepted by match.
func uniqueAround(v *mesh.Vertex, l *mesh.FaceLayer, match func(*mesh.FaceLayer) bool) *mesh.FaceLayer {
	var found *mesh.FaceLayer
	for _, f := range v.Faces() {
		if f == l.Face {
			continue
		}
		o := f.Layer(l.Nature)
		if o == nil || o.Smooth == nil || !match(o) {
			continue
		}
		if found != nil {
			return nil
		}
		found = o
	}
	return found
}

// smoothSVertex returns the SVertex at a smooth point, shared with every
// chain touching the same mesh vertex or edge location.
func (b *Builder) smoothSVertex(p mesh.SmoothPoint) *viewmap.SVertex {
	if v := p.Vertex(); v != nil {
		return b.meshSVertex(v)
	}
	e := p.Half.Edge
	t := p.T
	if p.Half.A != e.VertexA() {
		t = 1 - t
	}
	key := pointKey{edge: e, t: int64(gomath.Round(t * paramScale))}
	if sv, ok := b.points[key]; ok {
		return sv
	}
	pt := p.Point()
	sv := b.vm.NewSVertex(b.vs, nil, pt, b.proj.Project(pt))
	b.points[key] = sv
	return sv
}

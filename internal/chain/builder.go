// Package chain turns classified mesh edges and smooth face layers into
// the ViewEdges of a view map.
package chain

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/engine/camera"
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/internal/viewmap"
)

// paramScale quantizes edge parameters when sharing SVertices between
// smooth chains.
const paramScale = 1e9

// Options configures chaining.
type Options struct {
	// CornerAngle in degrees. A sharp chain stops at a vertex where its
	// two feature edges turn by more than this; zero or less disables
	// the check.
	CornerAngle float64
}

// DefaultOptions returns the chaining defaults.
func DefaultOptions() Options {
	return Options{CornerAngle: 45}
}

// Builder walks one shape at a time. Its processed marks live for a single
// Build call.
type Builder struct {
	opts      Options
	proj      *camera.Projection
	cornerCos float64
	log       *zap.Logger

	vm     *viewmap.ViewMap
	vs     *viewmap.ViewShape
	edges  map[*mesh.Edge]bool
	layers map[*mesh.FaceLayer]bool
	points map[pointKey]*viewmap.SVertex
}

type pointKey struct {
	edge *mesh.Edge
	t    int64
}

// NewBuilder creates a chain builder projecting through proj.
func NewBuilder(opts Options, proj *camera.Projection) *Builder {
	b := &Builder{
		opts: opts,
		proj: proj,
		log:  logger.Named("chain"),
	}
	if opts.CornerAngle > 0 {
		b.cornerCos = gomath.Cos(opts.CornerAngle * gomath.Pi / 180)
	}
	return b
}

// Build adds the chains of s to vm and returns the number of ViewEdges
// created.
func (b *Builder) Build(vm *viewmap.ViewMap, s *mesh.Shape) int {
	b.vm = vm
	b.vs = vm.AddShape(s)
	b.edges = make(map[*mesh.Edge]bool)
	b.layers = make(map[*mesh.FaceLayer]bool)
	b.points = make(map[pointKey]*viewmap.SVertex)
	defer func() {
		b.edges, b.layers, b.points = nil, nil, nil
	}()

	count := 0
	for _, e := range s.Edges {
		if e.Nature == nature.NoFeature || b.edges[e] {
			continue
		}
		b.sharpChain(e)
		count++
	}
	for _, f := range s.Faces {
		for _, l := range f.Layers {
			if l.Smooth == nil || b.layers[l] {
				continue
			}
			b.smoothChain(l)
			count++
		}
	}

	b.log.Debug("shape chained", zap.String("shape", s.Name), zap.Int("view_edges", count))
	return count
}

func (b *Builder) meshSVertex(v *mesh.Vertex) *viewmap.SVertex {
	if sv := b.vs.SVertexFor(v); sv != nil {
		return sv
	}
	return b.vm.NewSVertex(b.vs, v, v.Point, b.proj.Project(v.Point))
}

// finish links the FEdges, wraps them in a ViewEdge and anchors its ends.
func (b *Builder) finish(fes []*viewmap.FEdge, closed bool) *viewmap.ViewEdge {
	for i := 0; i+1 < len(fes); i++ {
		fes[i].Next = fes[i+1]
		fes[i+1].Prev = fes[i]
	}
	first, last := fes[0], fes[len(fes)-1]
	if closed {
		last.Next = first
		first.Prev = last
	}
	ve := b.vm.NewViewEdge(b.vs, first, last)
	if !closed {
		ve.Connect(b.vm.NonTVertexAt(first.A), b.vm.NonTVertexAt(last.B))
	}
	return ve
}

package visibility

import (
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/viewmap/internal/chain"
	"github.com/Faultbox/viewmap/internal/engine/camera"
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/feature"
	"github.com/Faultbox/viewmap/internal/grid"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/internal/progress"
	"github.com/Faultbox/viewmap/internal/scene"
	"github.com/Faultbox/viewmap/internal/viewmap"
	"github.com/Faultbox/viewmap/pkg/math"
)

var eye = math.Vec3{X: 0.1, Y: 0.2, Z: 5}

func perspective() *camera.Projection {
	view := math.LookAt(eye, math.Vec3{}, math.Vec3{Y: 1})
	return camera.NewPerspective(view, gomath.Pi/4, 800, 600, 0.1, 100)
}

// quadAt is a unit quad facing +Z at depth z.
func quadAt(size, z float64) mesh.Input {
	return scene.Transform(scene.Quad(size), math.Translate(0, 0, z))
}

// compute runs classification, chaining and ray casting over the inputs
// and returns the ViewShape built for each.
func compute(t *testing.T, algo Algorithm, inputs ...mesh.Input) []*viewmap.ViewShape {
	t.Helper()
	proj := perspective()
	vm := viewmap.New()
	var shapes []*mesh.Shape
	for i, in := range inputs {
		s, err := mesh.BuildShape(i, in)
		require.NoError(t, err)
		feature.NewDetector(feature.DefaultOptions(), proj).Process(s)
		chain.NewBuilder(chain.DefaultOptions(), proj).Build(vm, s)
		shapes = append(shapes, s)
	}
	g, err := grid.Build(shapes, grid.DefaultCells)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Algorithm = algo
	ok, err := NewCaster(opts, proj, g).Compute(vm, nil)
	require.NoError(t, err)
	require.True(t, ok)

	out := make([]*viewmap.ViewShape, len(shapes))
	for i, s := range shapes {
		out[i] = vm.ShapeFor(s)
	}
	return out
}

func TestHiddenQuad(t *testing.T) {
	for _, algo := range []Algorithm{Exhaustive, Fast, VeryFast} {
		t.Run(algo.String(), func(t *testing.T) {
			vs := compute(t, algo, quadAt(1, 0), quadAt(1, -1))
			near, far := vs[0], vs[1]

			require.Len(t, near.ViewEdges, 4)
			for _, ve := range near.ViewEdges {
				assert.Equal(t, 0, ve.QI)
				assert.Empty(t, ve.Occluders)
			}
			require.Len(t, far.ViewEdges, 4)
			for _, ve := range far.ViewEdges {
				assert.Equal(t, 1, ve.QI)
				require.Len(t, ve.Occluders, 1)
				assert.Same(t, near, ve.Occluders[0])
				assert.True(t, ve.HasOccluder(near))
			}
		})
	}
}

func TestQIGrowsWithOccluders(t *testing.T) {
	two := compute(t, Exhaustive, quadAt(1, 0), quadAt(1, -2))
	three := compute(t, Exhaustive, quadAt(1, 0), quadAt(1, -2), quadAt(1, -1))

	for i, ve := range two[1].ViewEdges {
		assert.Equal(t, 1, ve.QI)
		assert.Equal(t, ve.QI+1, three[1].ViewEdges[i].QI)
		assert.Len(t, three[1].ViewEdges[i].Occluders, 2)
	}
	for _, ve := range three[2].ViewEdges {
		assert.Equal(t, 1, ve.QI)
	}
}

func TestOccludee(t *testing.T) {
	vs := compute(t, Exhaustive, quadAt(1, 0), quadAt(4, -1))
	near, back := vs[0], vs[1]
	for _, ve := range near.ViewEdges {
		assert.Equal(t, 0, ve.QI)
		assert.Same(t, back, ve.Occludee)
		require.NotNil(t, ve.OccludeeFace)
		assert.Same(t, back.Shape, ve.OccludeeFace.Shape)
	}
	for _, ve := range back.ViewEdges {
		assert.Equal(t, 0, ve.QI)
		assert.Nil(t, ve.Occludee)
	}
}

func TestComputeWithoutGrid(t *testing.T) {
	_, err := NewCaster(DefaultOptions(), perspective(), nil).Compute(viewmap.New(), nil)
	assert.ErrorIs(t, err, ErrNoGrid)
}

func TestComputeCanceled(t *testing.T) {
	proj := perspective()
	s, err := mesh.BuildShape(0, quadAt(1, 0))
	require.NoError(t, err)
	feature.NewDetector(feature.DefaultOptions(), proj).Process(s)
	vm := viewmap.New()
	chain.NewBuilder(chain.DefaultOptions(), proj).Build(vm, s)
	g, err := grid.Build([]*mesh.Shape{s}, grid.DefaultCells)
	require.NoError(t, err)

	st := progress.Begin(nil, func() bool { return true }, "visibility", len(vm.ViewEdges))
	ok, err := NewCaster(DefaultOptions(), proj, g).Compute(vm, st)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, st.Canceled())
	assert.Equal(t, viewmap.QIUnknown, vm.ViewEdges[len(vm.ViewEdges)-1].QI)
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{in: "exhaustive", want: Exhaustive},
		{in: "fast", want: Fast},
		{in: " Very_Fast ", want: VeryFast},
		{in: "cumulative", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want, must(ParseAlgorithm(got.String())))
	}
}

func must(a Algorithm, err error) Algorithm {
	if err != nil {
		panic(err)
	}
	return a
}

func TestSamplePolicies(t *testing.T) {
	idx, th := Exhaustive.samples(5)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, idx)
	assert.Equal(t, 2, th)

	idx, th = Fast.samples(5)
	assert.Equal(t, []int{0, 2, 4}, idx)
	assert.Equal(t, 1, th)

	idx, th = VeryFast.samples(5)
	assert.Equal(t, []int{0}, idx)
	assert.Equal(t, 0, th)
}

// silhouette adds an open smooth silhouette along the X axis whose FEdges
// lie on surfaces with the given normals.
func silhouette(vm *viewmap.ViewMap, proj *camera.Projection, normals ...math.Vec3) *viewmap.ViewEdge {
	vs := vm.AddShape(&mesh.Shape{})
	svs := make([]*viewmap.SVertex, len(normals)+1)
	for i := range svs {
		p := math.Vec3{X: float64(i) * 0.2}
		svs[i] = vm.NewSVertex(vs, nil, p, proj.Project(p))
	}
	var first, prev *viewmap.FEdge
	for i, n := range normals {
		fe := vm.NewFEdge(svs[i], svs[i+1], nature.Silhouette)
		fe.Smooth = &viewmap.SmoothData{Normal: n.Normalize()}
		if prev == nil {
			first = fe
		} else {
			prev.Next = fe
			fe.Prev = prev
		}
		prev = fe
	}
	ve := vm.NewViewEdge(vs, first, prev)
	ve.Connect(vm.NonTVertexAt(svs[0]), vm.NonTVertexAt(svs[len(svs)-1]))
	return ve
}

func TestComputeCusps(t *testing.T) {
	view := math.LookAt(math.Vec3{Z: 5}, math.Vec3{}, math.Vec3{Y: 1})
	proj := camera.NewOrthographic(view, 4, 800, 800, 0.1, 100)

	up := math.Vec3{Y: 1}
	down := math.Vec3{Y: -1}
	wobble := math.Vec3{Y: -0.05, Z: 1}

	vm := viewmap.New()
	silhouette(vm, proj, up, wobble, up, down, down, up)

	n := ComputeCusps(vm, proj)
	assert.Equal(t, 2, n)
	st := vm.Stats()
	assert.Equal(t, 2, st.Cusps)
	assert.Equal(t, 3, st.ViewEdges)
	assert.Equal(t, 4, st.ViewVertices)

	// Cusps sit where the surface side flips.
	var xs []float64
	for _, vv := range vm.ViewVertices {
		if vv.Nature().Has(nature.Cusp) {
			xs = append(xs, vv.Point3D().X)
		}
	}
	assert.ElementsMatch(t, []float64{0.6, 1.0}, roundAll(xs))

	// The FEdges meeting at each cusp carry the edge bit too.
	var marked []float64
	for _, fe := range vm.FEdges {
		if fe.Nature.Has(nature.CuspEdge) {
			assert.True(t, fe.Nature.Has(nature.Silhouette))
			marked = append(marked, fe.A.Point3D.X)
		}
	}
	assert.ElementsMatch(t, []float64{0.4, 0.6, 0.8, 1.0}, roundAll(marked))

	// A second pass finds the cusps already anchored.
	assert.Zero(t, ComputeCusps(vm, proj))
}

func TestCuspsIgnoreSharpEdges(t *testing.T) {
	view := math.LookAt(math.Vec3{Z: 5}, math.Vec3{}, math.Vec3{Y: 1})
	proj := camera.NewOrthographic(view, 4, 800, 800, 0.1, 100)
	vm := viewmap.New()
	ve := silhouette(vm, proj, math.Vec3{Y: 1}, math.Vec3{Y: -1})
	for _, fe := range ve.FEdges() {
		fe.Sharp, fe.Smooth = &viewmap.SharpData{NormalA: fe.Smooth.Normal}, nil
	}
	assert.Zero(t, ComputeCusps(vm, proj))
}

func roundAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = gomath.Round(x*1e6) / 1e6
	}
	return out
}

package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/internal/scene"
	"github.com/Faultbox/viewmap/pkg/math"
)

func quadAt(t *testing.T, id int, size float64, at math.Vec3) *mesh.Shape {
	t.Helper()
	in := scene.Transform(scene.Quad(size), math.Translate(at.X, at.Y, at.Z))
	s, err := mesh.BuildShape(id, in)
	require.NoError(t, err)
	return s
}

func TestNewResolution(t *testing.T) {
	g := New(picking.NewAABB(math.Vec3{}, math.Vec3{X: 10, Y: 10, Z: 10}), 1000)
	d := g.Dims()
	total := d[0] * d[1] * d[2]
	assert.GreaterOrEqual(t, total, 500)
	assert.LessOrEqual(t, total, 2000)
	assert.InDelta(t, d[0], d[2], 1)

	flat := New(picking.NewAABB(math.Vec3{}, math.Vec3{X: 10, Y: 10}), 1000)
	for _, n := range flat.Dims() {
		assert.GreaterOrEqual(t, n, 1)
	}
	assert.Greater(t, flat.Bounds().Size().Z, 0.0)
}

func TestBuildWithoutFaces(t *testing.T) {
	_, err := Build(nil, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoOccluders))
}

func TestCastRayOrderAndDedup(t *testing.T) {
	shapes := []*mesh.Shape{
		quadAt(t, 0, 0.5, math.Vec3{Z: 3}),
		quadAt(t, 1, 0.5, math.Vec3{Z: 0}),
		quadAt(t, 2, 0.5, math.Vec3{Z: -3}),
		quadAt(t, 3, 0.5, math.Vec3{X: 4, Y: 4}),
		quadAt(t, 4, 20, math.Vec3{Z: -8}),
	}
	g, err := Build(shapes, 1000)
	require.NoError(t, err)
	assert.Equal(t, 10, g.Len())

	seen := make(map[*Occluder]int)
	var order []int
	g.CastRay(math.Vec3{X: 0.01, Y: 0.02, Z: 3.5}, math.Vec3{X: 0.01, Y: 0.02, Z: -3.5}, func(o *Occluder, ray picking.Ray) bool {
		seen[o]++
		id := o.Face.Shape.ID
		if len(order) == 0 || order[len(order)-1] != id {
			order = append(order, id)
		}
		assert.InDelta(t, 1, ray.Direction.Length(), 1e-12)
		return true
	})
	for o, n := range seen {
		assert.Equal(t, 1, n, "face %d of shape %d reported twice", o.Face.ID, o.Face.Shape.ID)
	}
	assert.Equal(t, []int{0, 1, 2}, order)

	// The infinite ray reaches the large quad behind.
	reached := false
	g.CastInfiniteRay(math.Vec3{X: 0.01, Y: 0.02, Z: -3.5}, math.Vec3{Z: -1}, func(o *Occluder, _ picking.Ray) bool {
		if o.Face.Shape.ID == 4 {
			reached = true
		}
		return true
	})
	assert.True(t, reached)
}

func TestCastRayEarlyStopAndMiss(t *testing.T) {
	g, err := Build([]*mesh.Shape{
		quadAt(t, 0, 1, math.Vec3{}),
		quadAt(t, 1, 1, math.Vec3{Z: -1}),
	}, 1000)
	require.NoError(t, err)

	calls := 0
	g.CastRay(math.Vec3{Z: 1}, math.Vec3{Z: -2}, func(*Occluder, picking.Ray) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)

	calls = 0
	g.CastRay(math.Vec3{X: 10, Z: 1}, math.Vec3{X: 10, Z: -2}, func(*Occluder, picking.Ray) bool {
		calls++
		return true
	})
	assert.Zero(t, calls, "a ray outside the grid meets nothing")

	calls = 0
	g.CastRay(math.Vec3{Z: 0.5}, math.Vec3{Z: 0.5}, func(*Occluder, picking.Ray) bool {
		calls++
		return true
	})
	assert.Zero(t, calls)
}

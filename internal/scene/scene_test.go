package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/pkg/math"
)

func TestPrimitives(t *testing.T) {
	tests := []struct {
		name   string
		in     mesh.Input
		points int
		faces  int
		closed bool
	}{
		{name: "quad", in: Quad(1), points: 4, faces: 2},
		{name: "cube", in: Cube(1), points: 8, faces: 12, closed: true},
		{name: "disk", in: Disk(1, 6), points: 7, faces: 6},
		{name: "grid", in: Grid(2, 3), points: 16, faces: 18},
		{name: "sphere", in: Sphere(1, 4, 8, false), points: 26, faces: 48, closed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.in.Points, tt.points)
			assert.Len(t, tt.in.Faces, tt.faces)

			s, err := mesh.BuildShape(0, tt.in)
			require.NoError(t, err)
			borders := 0
			for _, e := range s.Edges {
				if e.FaceCount() == 1 {
					borders++
				}
			}
			if tt.closed {
				assert.Zero(t, borders)
				for _, f := range s.Faces {
					assert.Positive(t, f.Normal.Dot(f.Center()), "face %d faces inward", f.ID)
				}
			} else {
				assert.Positive(t, borders)
			}
		})
	}
}

func TestSmoothSphereNormals(t *testing.T) {
	in := Sphere(2, 6, 12, true)
	for _, f := range in.Faces {
		require.Len(t, f.Normals, 3)
		for k, idx := range f.Indices {
			assert.InDelta(t, 1, f.Normals[k].Length(), 1e-12)
			assert.True(t, f.Normals[k].ApproxEqual(in.Points[idx].Scale(0.5), 1e-12))
		}
	}
}

func TestTransform(t *testing.T) {
	in := Transform(Sphere(1, 4, 8, true), math.Translate(0, 3, 0).Mul(math.Scale(2, 2, 2)))
	s, err := mesh.BuildShape(0, in)
	require.NoError(t, err)
	assert.InDelta(t, 1, s.Bounds.Min.Y, 1e-9)
	assert.InDelta(t, 5, s.Bounds.Max.Y, 1e-9)
	for _, f := range in.Faces {
		for _, n := range f.Normals {
			assert.InDelta(t, 1, n.Length(), 1e-12)
		}
	}
}

const twoShapes = `
camera:
  eye: [0, 0, 8]
  width: 640
  height: 480
shapes:
  - name: floor
    primitive: grid
    size: 4
    divisions: 2
    rotate: [-90, 0, 0]
    translate: [0, -1, 0]
  - name: tri
    vertices: [[0, 0, 0], [1, 0, 0], [0, 1, 0]]
    faces: [[0, 1, 2]]
    material: 2
    marked_edges: [[0, 1]]
`

func TestParseAndBuild(t *testing.T) {
	sc, err := Parse([]byte(twoShapes))
	require.NoError(t, err)
	assert.Equal(t, "perspective", sc.Camera.Projection)
	assert.Equal(t, 640, sc.Camera.Width)

	shapes, proj, err := sc.Build()
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.False(t, proj.Orthographic())
	assert.True(t, proj.Viewpoint().ApproxEqual(math.Vec3{Z: 8}, 1e-9))
	assert.Equal(t, [4]int{0, 0, 640, 480}, proj.Viewport)

	floor := shapes[0]
	assert.Equal(t, "floor", floor.Name)
	assert.InDelta(t, -1, floor.Bounds.Min.Y, 1e-9)
	assert.InDelta(t, -1, floor.Bounds.Max.Y, 1e-9)
	assert.InDelta(t, 4, floor.Bounds.Size().Z, 1e-9)
	for _, f := range floor.Faces {
		assert.InDelta(t, 1, f.Normal.Y, 1e-9, "rotated grid faces up")
	}

	tri := shapes[1]
	assert.Equal(t, 1, tri.ID)
	require.Len(t, tri.Faces, 1)
	assert.Equal(t, 2, tri.Faces[0].Material)
	marked := 0
	for _, e := range tri.Edges {
		if e.Marked {
			marked++
		}
	}
	assert.Equal(t, 1, marked)
}

func TestOrbitCamera(t *testing.T) {
	sc, err := Parse([]byte(`
camera:
  projection: orthographic
  size: 3
  orbit:
    distance: 10
shapes:
  - primitive: quad
`))
	require.NoError(t, err)
	_, proj, err := sc.Build()
	require.NoError(t, err)
	assert.True(t, proj.Orthographic())
	assert.True(t, proj.Viewpoint().ApproxEqual(math.Vec3{Z: 10}, 1e-9), "%v", proj.Viewpoint())

	sc.Camera.Orbit.Fit = true
	sc.Camera.Orbit.Center = Vector{5, 5, 5}
	_, proj, err = sc.Build()
	require.NoError(t, err)
	vp := proj.Viewpoint()
	assert.InDelta(t, 0, vp.X, 1e-9, "fitted orbits center on the scene")
	assert.InDelta(t, 0, vp.Y, 1e-9)
	assert.Less(t, vp.Z, 10.0)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	_, err := Parse([]byte(`
camera:
  fov: 200
shapes:
  - name: a
    primitive: teapot
  - name: b
    vertices: [[0, 0]]
    faces: [[0, 1]]
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPrimitive)
	assert.Len(t, multierr.Errors(err), 3)
}

func TestShapeNeedsGeometry(t *testing.T) {
	_, err := ShapeSpec{Name: "empty"}.Input()
	assert.Error(t, err)

	_, err = ShapeSpec{Primitive: "quad", Vertices: []Vector{{0, 0, 0}}}.Input()
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoShapes), 0644))
	sc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, sc.Shapes, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildProjection(t *testing.T) {
	c := Default().Camera
	c.Projection = "ortho"
	c.Eye = Vector{0, 3, 0}
	c.Up = Vector{0, 0, -1}
	proj, err := c.BuildProjection(picking.AABB{})
	require.NoError(t, err)
	assert.True(t, proj.Orthographic())
	assert.True(t, proj.Viewpoint().ApproxEqual(math.Vec3{Y: 3}, 1e-9), "%v", proj.Viewpoint())

	c.Projection = "fisheye"
	_, err = c.BuildProjection(picking.AABB{})
	assert.Error(t, err)
}

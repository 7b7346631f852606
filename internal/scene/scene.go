// Package scene loads YAML scene descriptions: a camera and a list of
// shapes given either as explicit triangles or as transformed primitives.
package scene

import (
	"errors"
	"fmt"
	gomath "math"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/viewmap/internal/engine/camera"
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/pkg/math"
)

// ErrUnknownPrimitive is returned for a shape naming a primitive that does
// not exist.
var ErrUnknownPrimitive = errors.New("unknown primitive")

// Scene is a parsed scene description.
type Scene struct {
	Camera CameraSpec  `yaml:"camera"`
	Shapes []ShapeSpec `yaml:"shapes"`
}

// Vector is a 3-component YAML sequence.
type Vector []float64

// Vec3 converts v, or returns def when v is empty.
func (v Vector) Vec3(def math.Vec3) (math.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return math.Vec3{X: v[0], Y: v[1], Z: v[2]}, nil
	default:
		return def, fmt.Errorf("vector %v: want 3 components, got %d", []float64(v), len(v))
	}
}

// CameraSpec places the camera either at Eye looking at Target or on an
// orbit around the scene.
type CameraSpec struct {
	Projection string  `yaml:"projection"` // perspective or orthographic
	FOV        float64 `yaml:"fov"`        // vertical, degrees
	Size       float64 `yaml:"size"`       // orthographic window height
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Near       float64 `yaml:"near"`
	Far        float64 `yaml:"far"`

	Eye    Vector `yaml:"eye,omitempty"`
	Target Vector `yaml:"target,omitempty"`
	Up     Vector `yaml:"up,omitempty"`

	Orbit *OrbitSpec `yaml:"orbit,omitempty"`
}

// OrbitSpec configures an orbit camera. Angles are in degrees. With Fit
// the orbit centers on the scene bounds and backs off until they fit.
type OrbitSpec struct {
	Center   Vector  `yaml:"center,omitempty"`
	Distance float64 `yaml:"distance"`
	Pitch    float64 `yaml:"pitch"`
	Yaw      float64 `yaml:"yaw"`
	Fit      bool    `yaml:"fit"`
}

// ShapeSpec describes one shape. Exactly one of Primitive and Vertices is
// set.
type ShapeSpec struct {
	Name string `yaml:"name"`

	Primitive string  `yaml:"primitive,omitempty"` // quad, cube, disk, grid, sphere
	Size      float64 `yaml:"size,omitempty"`
	Radius    float64 `yaml:"radius,omitempty"`
	Segments  int     `yaml:"segments,omitempty"`
	Rings     int     `yaml:"rings,omitempty"`
	Divisions int     `yaml:"divisions,omitempty"`
	Smooth    bool    `yaml:"smooth,omitempty"`

	Vertices []Vector `yaml:"vertices,omitempty"`
	Faces    [][]int  `yaml:"faces,omitempty"`

	Translate Vector `yaml:"translate,omitempty"`
	Rotate    Vector `yaml:"rotate,omitempty"` // degrees about X, Y then Z
	Scale     Vector `yaml:"scale,omitempty"`

	Material int  `yaml:"material,omitempty"`
	Mark     bool `yaml:"mark,omitempty"`

	// MarkedEdges lists vertex index pairs whose edges are marked.
	MarkedEdges [][]int `yaml:"marked_edges,omitempty"`
}

// Default returns an empty scene with a perspective camera at (0, 0, 5)
// looking at the origin.
func Default() *Scene {
	return &Scene{
		Camera: CameraSpec{
			Projection: "perspective",
			FOV:        45,
			Size:       4,
			Width:      800,
			Height:     600,
			Near:       0.1,
			Far:        100,
			Eye:        Vector{0, 0, 5},
		},
	}
}

// Parse decodes a scene over the defaults and validates it.
func Parse(data []byte) (*Scene, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads and parses the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading scene from %s: %w", path, err)
	}
	return s, nil
}

// Validate reports every problem of the scene at once.
func (s *Scene) Validate() error {
	var err error
	c := s.Camera
	switch strings.ToLower(c.Projection) {
	case "perspective":
		if c.FOV <= 0 || c.FOV >= 180 {
			err = multierr.Append(err, fmt.Errorf("camera: fov %v out of range (0, 180)", c.FOV))
		}
	case "orthographic", "ortho":
		if c.Size <= 0 {
			err = multierr.Append(err, errors.New("camera: orthographic size must be positive"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("camera: unknown projection %q", c.Projection))
	}
	if c.Width <= 0 || c.Height <= 0 {
		err = multierr.Append(err, fmt.Errorf("camera: viewport %dx%d must be positive", c.Width, c.Height))
	}
	if c.Near <= 0 || c.Far <= c.Near {
		err = multierr.Append(err, fmt.Errorf("camera: need 0 < near < far, got %v, %v", c.Near, c.Far))
	}
	for _, v := range []Vector{c.Eye, c.Target, c.Up} {
		if _, e := v.Vec3(math.Vec3{}); e != nil {
			err = multierr.Append(err, fmt.Errorf("camera: %w", e))
		}
	}

	for i, sh := range s.Shapes {
		if e := sh.validate(); e != nil {
			err = multierr.Append(err, fmt.Errorf("shape %d (%s): %w", i, sh.Name, e))
		}
	}
	return err
}

func (sh ShapeSpec) validate() error {
	var err error
	switch {
	case sh.Primitive != "" && len(sh.Vertices) > 0:
		err = multierr.Append(err, errors.New("primitive and vertices are exclusive"))
	case sh.Primitive == "" && len(sh.Vertices) == 0:
		err = multierr.Append(err, errors.New("neither primitive nor vertices given"))
	case sh.Primitive != "":
		if _, ok := primitives[strings.ToLower(sh.Primitive)]; !ok {
			err = multierr.Append(err, fmt.Errorf("%w %q", ErrUnknownPrimitive, sh.Primitive))
		}
	}
	for _, v := range sh.Vertices {
		if _, e := v.Vec3(math.Vec3{}); e != nil {
			err = multierr.Append(err, e)
		}
	}
	for _, f := range sh.Faces {
		if len(f) != 3 {
			err = multierr.Append(err, fmt.Errorf("face %v is not a triangle", f))
		}
	}
	for _, e := range sh.MarkedEdges {
		if len(e) != 2 {
			err = multierr.Append(err, fmt.Errorf("marked edge %v needs two vertex indices", e))
		}
	}
	for _, v := range []Vector{sh.Translate, sh.Rotate, sh.Scale} {
		if _, e := v.Vec3(math.Vec3{}); e != nil {
			err = multierr.Append(err, e)
		}
	}
	return err
}

var primitives = map[string]func(sh ShapeSpec) mesh.Input{
	"quad": func(sh ShapeSpec) mesh.Input {
		return Quad(orDefault(sh.Size, 1))
	},
	"cube": func(sh ShapeSpec) mesh.Input {
		return Cube(orDefault(sh.Size, 1))
	},
	"disk": func(sh ShapeSpec) mesh.Input {
		return Disk(orDefault(sh.Radius, 0.5), orDefaultInt(sh.Segments, 32))
	},
	"grid": func(sh ShapeSpec) mesh.Input {
		return Grid(orDefault(sh.Size, 1), orDefaultInt(sh.Divisions, 4))
	},
	"sphere": func(sh ShapeSpec) mesh.Input {
		return Sphere(orDefault(sh.Radius, 0.5), orDefaultInt(sh.Rings, 16), orDefaultInt(sh.Segments, 32), sh.Smooth)
	},
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Input returns the mesh described by sh, transformed and marked.
func (sh ShapeSpec) Input() (mesh.Input, error) {
	if err := sh.validate(); err != nil {
		return mesh.Input{}, err
	}

	var in mesh.Input
	if sh.Primitive != "" {
		in = primitives[strings.ToLower(sh.Primitive)](sh)
	} else {
		in = mesh.Input{Points: make([]math.Vec3, len(sh.Vertices)), SmoothNormals: sh.Smooth}
		for i, v := range sh.Vertices {
			in.Points[i], _ = v.Vec3(math.Vec3{})
		}
		for _, f := range sh.Faces {
			in.Faces = append(in.Faces, mesh.FaceInput{Indices: [3]int{f[0], f[1], f[2]}})
		}
	}
	if sh.Name != "" {
		in.Name = sh.Name
	}

	for i := range in.Faces {
		f := &in.Faces[i]
		f.Material = sh.Material
		f.Mark = sh.Mark
		for _, e := range sh.MarkedEdges {
			for k := 0; k < 3; k++ {
				a, b := f.Indices[k], f.Indices[(k+1)%3]
				if (a == e[0] && b == e[1]) || (a == e[1] && b == e[0]) {
					f.EdgeMarks[k] = true
				}
			}
		}
	}

	m := sh.transform()
	if m != math.Identity() {
		in = Transform(in, m)
	}
	return in, nil
}

// transform composes scale, then rotation about X, Y and Z, then
// translation.
func (sh ShapeSpec) transform() math.Mat4 {
	t, _ := sh.Translate.Vec3(math.Vec3{})
	r, _ := sh.Rotate.Vec3(math.Vec3{})
	s, _ := sh.Scale.Vec3(math.Vec3{X: 1, Y: 1, Z: 1})
	rad := gomath.Pi / 180
	return math.Translate(t.X, t.Y, t.Z).
		Mul(math.RotateZ(r.Z * rad)).
		Mul(math.RotateY(r.Y * rad)).
		Mul(math.RotateX(r.X * rad)).
		Mul(math.Scale(s.X, s.Y, s.Z))
}

// Build returns the shapes of the scene and the camera looking at them.
func (s *Scene) Build() ([]*mesh.Shape, *camera.Projection, error) {
	var shapes []*mesh.Shape
	for i, sh := range s.Shapes {
		in, err := sh.Input()
		if err != nil {
			return nil, nil, fmt.Errorf("shape %d (%s): %w", i, sh.Name, err)
		}
		shape, err := mesh.BuildShape(i, in)
		if err != nil {
			return nil, nil, fmt.Errorf("shape %d (%s): %w", i, sh.Name, err)
		}
		shapes = append(shapes, shape)
	}

	var bounds picking.AABB
	for i, shape := range shapes {
		if i == 0 {
			bounds = shape.Bounds
		} else {
			bounds = bounds.Union(shape.Bounds)
		}
	}
	proj, err := s.Camera.BuildProjection(bounds)
	if err != nil {
		return nil, nil, err
	}
	return shapes, proj, nil
}

// BuildProjection builds the camera. bounds is used by fitted orbits.
func (c CameraSpec) BuildProjection(bounds picking.AABB) (*camera.Projection, error) {
	fov := c.FOV * gomath.Pi / 180

	var view math.Mat4
	if c.Orbit != nil {
		orbit := camera.NewOrbitCamera()
		center, err := c.Orbit.Center.Vec3(math.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("camera orbit: %w", err)
		}
		orbit.Center = center
		if c.Orbit.Distance > 0 {
			orbit.Distance = c.Orbit.Distance
		}
		if c.Orbit.Fit {
			orbit.FitToBounds(bounds, fov)
		}
		orbit.Pitch = c.Orbit.Pitch * gomath.Pi / 180
		orbit.Yaw = c.Orbit.Yaw * gomath.Pi / 180
		view = orbit.ViewMatrix()
	} else {
		eye, err := c.Eye.Vec3(math.Vec3{Z: 5})
		if err != nil {
			return nil, fmt.Errorf("camera eye: %w", err)
		}
		target, err := c.Target.Vec3(math.Vec3{})
		if err != nil {
			return nil, fmt.Errorf("camera target: %w", err)
		}
		up, err := c.Up.Vec3(math.Vec3{Y: 1})
		if err != nil {
			return nil, fmt.Errorf("camera up: %w", err)
		}
		view = math.LookAt(eye, target, up)
	}

	switch strings.ToLower(c.Projection) {
	case "orthographic", "ortho":
		return camera.NewOrthographic(view, c.Size, c.Width, c.Height, c.Near, c.Far), nil
	case "perspective", "":
		return camera.NewPerspective(view, fov, c.Width, c.Height, c.Near, c.Far), nil
	default:
		return nil, fmt.Errorf("camera: unknown projection %q", c.Projection)
	}
}

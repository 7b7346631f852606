// Package camera provides the camera model and the world to image
// projection used to build view maps.
package camera

import (
	gomath "math"

	"github.com/Faultbox/viewmap/internal/engine/picking"
	"github.com/Faultbox/viewmap/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance float64 // Distance from center
	Pitch    float64 // Vertical angle, radians
	Yaw      float64 // Horizontal angle, radians

	// Constraints
	MinDistance float64
	MaxDistance float64
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:    10.0,
		Pitch:       0.5,
		Yaw:         0.0,
		MinDistance: 0.01,
		MaxDistance: 1e6,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	d := c.clampedDistance()
	x := d * gomath.Cos(c.Pitch) * gomath.Sin(c.Yaw)
	y := d * gomath.Sin(c.Pitch)
	z := d * gomath.Cos(c.Pitch) * gomath.Cos(c.Yaw)

	return c.Center.Add(math.Vec3{X: x, Y: y, Z: z})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	// Looking straight down the Y axis needs another up vector.
	if gomath.Abs(gomath.Cos(c.Pitch)) < 1e-9 {
		up = math.Vec3{X: 0, Y: 0, Z: -1}
	}
	return math.LookAt(c.Position(), c.Center, up)
}

func (c *OrbitCamera) clampedDistance() float64 {
	d := c.Distance
	if d < c.MinDistance {
		d = c.MinDistance
	}
	if c.MaxDistance > 0 && d > c.MaxDistance {
		d = c.MaxDistance
	}
	return d
}

// FitToBounds centers the camera on box and moves it back far enough for
// the bounding sphere to fit a vertical field of view of fovY radians.
func (c *OrbitCamera) FitToBounds(box picking.AABB, fovY float64) {
	c.Center = box.Center()
	radius := box.Size().Length() / 2
	if radius == 0 {
		radius = 1
	}
	c.Distance = radius / gomath.Sin(fovY/2) * 1.1
}

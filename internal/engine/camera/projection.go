package camera

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/pkg/math"
)

const (
	// bisectionMaxIterations caps the fallback search in ImageToWorldParameter.
	bisectionMaxIterations = 100
	// bisectionTolerance is the image-space distance (pixels) at which the
	// fallback search stops.
	bisectionTolerance = 1e-6
	// degenerateExtent is the image-space extent under which a projected
	// segment axis is considered degenerate.
	degenerateExtent = 1e-9
)

// Projection maps world-space points to image space for one camera
// configuration: model-view and projection matrices, an integer viewport
// [x, y, w, h], the focal length and the clipping planes.
type Projection struct {
	ModelView  math.Mat4
	Projection math.Mat4
	Viewport   [4]int
	Focal      float64
	Near, Far  float64

	mvp       math.Mat4
	viewpoint math.Vec3
	viewDir   math.Vec3
	ortho     bool
	log       *zap.Logger
}

// NewProjection creates a projection from explicit camera parameters as
// supplied by the host's render setup.
func NewProjection(modelView, projection math.Mat4, viewport [4]int, focal, near, far float64) *Projection {
	p := &Projection{
		ModelView:  modelView,
		Projection: projection,
		Viewport:   viewport,
		Focal:      focal,
		Near:       near,
		Far:        far,
		log:        logger.Named("camera"),
	}
	p.mvp = projection.Mul(modelView)
	p.viewpoint = modelView.Inverse().TransformPoint(math.Vec3{})
	// The camera looks down -Z, so its +Z axis points back at the viewer.
	p.viewDir = modelView.Row(2).Normalize()
	p.ortho = projection[11] == 0 && projection[15] == 1
	return p
}

// NewPerspective builds a symmetric perspective projection for a
// width x height viewport. fovY is in radians.
func NewPerspective(modelView math.Mat4, fovY float64, width, height int, near, far float64) *Projection {
	aspect := float64(width) / float64(height)
	focal := float64(height) / 2 / gomath.Tan(fovY/2)
	return NewProjection(modelView, math.Perspective(fovY, aspect, near, far),
		[4]int{0, 0, width, height}, focal, near, far)
}

// NewOrthographic builds an orthographic projection showing a world-space
// window of the given height centered on the view axis.
func NewOrthographic(modelView math.Mat4, size float64, width, height int, near, far float64) *Projection {
	half := size / 2
	aspect := float64(width) / float64(height)
	proj := math.Ortho(-half*aspect, half*aspect, -half, half, near, far)
	return NewProjection(modelView, proj, [4]int{0, 0, width, height}, 0, near, far)
}

// Orthographic reports whether the projection is orthographic.
func (p *Projection) Orthographic() bool {
	return p.ortho
}

// Viewpoint returns the camera position in world space.
func (p *Projection) Viewpoint() math.Vec3 {
	return p.viewpoint
}

// ViewVector returns the unit vector from w towards the viewer: towards the
// viewpoint for perspective cameras, the constant back axis otherwise.
func (p *Projection) ViewVector(w math.Vec3) math.Vec3 {
	if p.ortho {
		return p.viewDir
	}
	return p.viewpoint.Sub(w).Normalize()
}

// RayTarget returns the point a visibility ray cast from w must reach:
// the viewpoint, or for orthographic cameras the foot of w on the plane
// through the viewpoint orthogonal to the view axis.
func (p *Projection) RayTarget(w math.Vec3) math.Vec3 {
	if p.ortho {
		return w.Add(p.viewDir.Scale(p.viewpoint.Sub(w).Dot(p.viewDir)))
	}
	return p.viewpoint
}

func (p *Projection) clip(w math.Vec3) math.Vec4 {
	return p.mvp.MulVec4(math.Point(w))
}

// ndcToImage maps normalized device coordinates to the viewport, with
// depth remapped from [-1, 1] to [0, 1].
func (p *Projection) ndcToImage(x, y, z float64) math.Vec3 {
	return math.Vec3{
		X: float64(p.Viewport[0]) + (x+1)/2*float64(p.Viewport[2]),
		Y: float64(p.Viewport[1]) + (y+1)/2*float64(p.Viewport[3]),
		Z: (z + 1) / 2,
	}
}

// Project maps a world point to image space. X and Y are pixels, Z is the
// depth normalized to [0, 1] between the near and far planes.
func (p *Projection) Project(w math.Vec3) math.Vec3 {
	c := p.clip(w)
	if c[3] != 0 {
		c[0] /= c[3]
		c[1] /= c[3]
		c[2] /= c[3]
	}
	return p.ndcToImage(c[0], c[1], c[2])
}

// imageToNDC inverts the viewport transform on one axis.
func (p *Projection) imageToNDC(v float64, axis int) float64 {
	return 2*(v-float64(p.Viewport[axis]))/float64(p.Viewport[axis+2]) - 1
}

// ImageToWorldParameter converts a parameter t along the projection of the
// 3D segment ab into the parameter along ab whose projection is the same
// image point. Orthographic projections preserve parameters.
func (p *Projection) ImageToWorldParameter(a, b math.Vec3, t float64) float64 {
	if p.ortho {
		return t
	}

	ia := p.Project(a)
	ib := p.Project(b)
	target := ia.XY().Lerp(ib.XY(), t)

	dx := gomath.Abs(ib.X - ia.X)
	dy := gomath.Abs(ib.Y - ia.Y)
	if dx < degenerateExtent && dy < degenerateExtent {
		return p.bisect(a, b, ia.XY(), ib.XY(), target, t)
	}

	axis := 0
	if dy > dx {
		axis = 1
	}
	tgt := p.imageToNDC(target.X, 0)
	if axis == 1 {
		tgt = p.imageToNDC(target.Y, 1)
	}

	// Clip coordinates are affine in the 3D parameter T; solve
	// clip[axis](T) = tgt * clip[w](T).
	ca := p.clip(a)
	cb := p.clip(b)
	num := tgt*ca[3] - ca[axis]
	den := (cb[axis] - ca[axis]) - tgt*(cb[3]-ca[3])
	if gomath.Abs(den) < 1e-12 {
		return p.bisect(a, b, ia.XY(), ib.XY(), target, t)
	}
	return num / den
}

// bisect searches the 3D parameter whose projection reaches target. It
// returns the best estimate even when the iteration cap is hit.
func (p *Projection) bisect(a, b math.Vec3, ia, ib, target math.Vec2, t float64) float64 {
	seg := ib.Sub(ia)
	segLen2 := seg.Dot(seg)

	lo, hi := 0.0, 1.0
	mid := t
	for i := 0; i < bisectionMaxIterations; i++ {
		mid = (lo + hi) / 2
		img := p.Project(a.Lerp(b, mid)).XY()
		if img.Distance(target) < bisectionTolerance {
			return mid
		}
		s := 0.0
		if segLen2 > 0 {
			s = img.Sub(ia).Dot(seg) / segLen2
		}
		if s < t {
			lo = mid
		} else {
			hi = mid
		}
	}
	p.log.Warn("image to world parameter search did not converge",
		zap.Float64("t", t), zap.Float64("estimate", mid),
		zap.Int("iterations", bisectionMaxIterations))
	return mid
}

// Package feature classifies mesh edges and faces for one camera
// configuration: it caches which faces look towards the viewer, labels
// sharp feature edges and builds the smooth face layers from which
// intra-face feature lines are reconstructed.
package feature

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/engine/camera"
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/pkg/math"
)

// normalTolerance is used to decide whether two faces share a shading
// normal at a vertex.
const normalTolerance = 1e-6

// Options configures the classifier.
type Options struct {
	// CreaseAngle in degrees. An edge is a crease when the dot product of
	// its face normals is at most cos(180° - CreaseAngle).
	CreaseAngle float64

	// SphereRadiusRatio is the curvature ball radius as a multiple of the
	// mean edge length. Zero or less uses the one-ring.
	SphereRadiusRatio float64

	RidgesAndValleys   bool
	SuggestiveContours bool

	// KrDerivativeEpsilon is the minimum radial curvature derivative at
	// both ends of a suggestive contour segment.
	KrDerivativeEpsilon float64
}

// DefaultOptions returns the classifier defaults.
func DefaultOptions() Options {
	return Options{
		CreaseAngle:       134.43,
		SphereRadiusRatio: 1.0,
	}
}

// Detector labels the features of shapes seen through one projection.
type Detector struct {
	opts      Options
	proj      *camera.Projection
	creaseCos float64
	log       *zap.Logger
}

// NewDetector creates a detector for the given projection.
func NewDetector(opts Options, proj *camera.Projection) *Detector {
	return &Detector{
		opts:      opts,
		proj:      proj,
		creaseCos: gomath.Cos((180 - opts.CreaseAngle) * gomath.Pi / 180),
		log:       logger.Named("feature"),
	}
}

// Process classifies every face and edge of s, replacing the annotations
// of any previous camera configuration.
func (d *Detector) Process(s *mesh.Shape) {
	s.ResetFeatures()
	d.computeFaces(s)

	if d.opts.RidgesAndValleys || d.opts.SuggestiveContours {
		if !hasCurvature(s) {
			d.ComputeCurvature(s)
		}
		if d.opts.SuggestiveContours {
			d.computeRadialCurvature(s)
		}
	}

	counts := make(map[nature.Edge]int)
	for _, e := range s.Edges {
		e.Nature = d.classifyEdge(e)
		for _, bit := range []nature.Edge{nature.Silhouette, nature.Border, nature.Crease, nature.MaterialBoundary, nature.EdgeMark} {
			if e.Nature.Has(bit) {
				counts[bit]++
			}
		}
	}

	layers := d.buildLayers(s)

	d.log.Debug("shape classified",
		zap.String("shape", s.Name),
		zap.Int("silhouettes", counts[nature.Silhouette]),
		zap.Int("borders", counts[nature.Border]),
		zap.Int("creases", counts[nature.Crease]),
		zap.Int("material_boundaries", counts[nature.MaterialBoundary]),
		zap.Int("marked", counts[nature.EdgeMark]),
		zap.Int("smooth_edges", layers))
}

func (d *Detector) computeFaces(s *mesh.Shape) {
	vp := d.proj.Viewpoint()
	for _, f := range s.Faces {
		c := f.Center()
		f.DotP = f.Normal.Dot(d.proj.ViewVector(c))
		f.Front = f.DotP > 0
		f.Dist = f.Normal.Dot(vp.Sub(c))
	}
}

func (d *Detector) classifyEdge(e *mesh.Edge) nature.Edge {
	n := nature.NoFeature
	if e.Marked {
		n |= nature.EdgeMark
	}

	fa, fb := e.FaceA(), e.FaceB()
	if fb == nil {
		return n | nature.Border
	}

	if fa.Front != fb.Front && !sharedShading(e, fa, fb) {
		n |= nature.Silhouette
	}
	if fa.Normal.Dot(fb.Normal) <= d.creaseCos {
		n |= nature.Crease
	}
	if fa.Material != fb.Material {
		n |= nature.MaterialBoundary
	}
	return n
}

// sharedShading reports whether both faces use the same shading normal at
// both endpoints of e. The silhouette is then traced through the smooth
// silhouette layers instead.
func sharedShading(e *mesh.Edge, fa, fb *mesh.Face) bool {
	for _, v := range []*mesh.Vertex{e.VertexA(), e.VertexB()} {
		na, okA := fa.VertexNormal(v)
		nb, okB := fb.VertexNormal(v)
		if !okA || !okB || !na.ApproxEqual(nb, normalTolerance) {
			return false
		}
	}
	return true
}

// vertexNormal is the area weighted mean of the incident face normals.
func vertexNormal(v *mesh.Vertex) math.Vec3 {
	var n math.Vec3
	for _, f := range v.Faces() {
		n = n.Add(f.Normal.Scale(f.Area()))
	}
	return n.Normalize()
}

func hasCurvature(s *mesh.Shape) bool {
	for _, v := range s.Vertices {
		if v.Curvature != nil {
			return true
		}
	}
	return false
}

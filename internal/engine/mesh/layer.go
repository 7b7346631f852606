package mesh

import (
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/pkg/math"
)

// CurvatureInfo holds the discrete curvature estimate at a vertex.
// K1 >= K2; convex regions have positive curvature.
type CurvatureInfo struct {
	K1, K2 float64
	E1, E2 math.Vec3

	// Kr is the radial curvature in direction Er (the view vector
	// projected onto the tangent plane), DKr its derivative along Er.
	// Both depend on the viewpoint.
	Kr  float64
	Er  math.Vec3
	DKr float64

	// Radial is false when the view vector is parallel to the normal
	// and Er is undefined.
	Radial bool
}

// SmoothPoint is a location on the boundary of a face, given as a
// parameter along one of its half-edges.
type SmoothPoint struct {
	Half *HalfEdge
	T    float64
}

// Point returns the 3D location.
func (p SmoothPoint) Point() math.Vec3 {
	return p.Half.PointAt(p.T)
}

// Vertex returns the mesh vertex the point sits on, or nil when the point
// is strictly inside the half-edge.
func (p SmoothPoint) Vertex() *Vertex {
	switch p.T {
	case 0:
		return p.Half.A
	case 1:
		return p.Half.B
	}
	return nil
}

// SmoothEdge is the segment where a face layer's scalar field crosses zero.
// The field is positive on the left of A→B seen from the face normal.
type SmoothEdge struct {
	A, B SmoothPoint
}

// FaceLayer holds one scalar field sampled at the vertices of a face.
type FaceLayer struct {
	Face   *Face
	Nature nature.Edge

	// Values is parallel to Face.HalfEdges.
	Values []float64

	// Smooth is nil when the field does not change sign across the face.
	Smooth *SmoothEdge

	// Interp holds per-vertex auxiliary values interpolated along the
	// smooth edge (the radial curvature derivative for suggestive
	// contours).
	Interp []float64
}

// InterpAt interpolates the auxiliary field at a smooth point.
func (l *FaceLayer) InterpAt(p SmoothPoint) float64 {
	if l.Interp == nil {
		return 0
	}
	i := l.Face.VertexIndex(p.Half.A)
	j := l.Face.VertexIndex(p.Half.B)
	if i < 0 || j < 0 {
		return 0
	}
	return l.Interp[i] + p.T*(l.Interp[j]-l.Interp[i])
}

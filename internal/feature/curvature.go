package feature

import (
	gomath "math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/pkg/math"
)

// radialEpsilon is the tangent length below which the view vector is
// considered parallel to the normal.
const radialEpsilon = 1e-9

// ComputeCurvature estimates the principal curvatures of every interior
// vertex of s from the normal cycle curvature tensor. Border and
// non-manifold vertices are skipped and keep a nil Curvature.
func (d *Detector) ComputeCurvature(s *mesh.Shape) {
	radius := d.opts.SphereRadiusRatio * s.MeanEdgeSize
	skipped := 0
	for _, v := range s.Vertices {
		v.Curvature = nil
		if v.Border || len(v.Edges) == 0 {
			skipped++
			continue
		}
		var t math.Mat3
		var area float64
		if radius > 0 {
			t, area = sphereTensor(v, radius)
		} else {
			t, area = oneRingTensor(v)
		}
		if area <= 0 {
			skipped++
			continue
		}
		v.Curvature = principalCurvatures(t.MulScalar(1/area), vertexNormal(v))
		if v.Curvature == nil {
			skipped++
		}
	}
	if skipped > 0 {
		d.log.Debug("curvature skipped at vertices", zap.String("shape", s.Name), zap.Int("count", skipped))
	}
}

// dihedral returns the signed angle between the normals of the two faces
// of e, positive where the surface is convex, and the unit direction of
// the first half-edge.
func dihedral(e *mesh.Edge) (float64, math.Vec3, bool) {
	if e.HalfB == nil || e.NonManifold {
		return 0, math.Vec3{}, false
	}
	n1 := e.FaceA().Normal
	n2 := e.FaceB().Normal
	dir := e.HalfA.Vector().Normalize()
	return gomath.Atan2(n1.Cross(n2).Dot(dir), n1.Dot(n2)), dir, true
}

// oneRingTensor integrates half of every spoke edge over the barycentric
// area of the vertex.
func oneRingTensor(v *mesh.Vertex) (math.Mat3, float64) {
	var t math.Mat3
	for _, e := range v.Edges {
		beta, dir, ok := dihedral(e)
		if !ok {
			continue
		}
		t.AddOuter(dir, beta*e.Length()/2)
	}
	var area float64
	for _, f := range v.Faces() {
		area += f.Area() / 3
	}
	return t, area
}

// sphereTensor integrates the part of every edge lying inside the ball of
// the given radius around v, gathering edges by a walk from v. The tensor
// is normalized by the area of the ball's great disk.
func sphereTensor(v *mesh.Vertex, radius float64) (math.Mat3, float64) {
	var t math.Mat3
	center := v.Point
	inside := func(u *mesh.Vertex) bool {
		return u.Point.Distance(center) <= radius
	}

	visited := map[*mesh.Vertex]bool{v: true}
	seenEdge := make(map[*mesh.Edge]bool)
	queue := []*mesh.Vertex{v}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, e := range u.Edges {
			if seenEdge[e] {
				continue
			}
			seenEdge[e] = true

			if beta, dir, ok := dihedral(e); ok {
				if l := clippedLength(e.VertexA().Point, e.VertexB().Point, center, radius); l > 0 {
					t.AddOuter(dir, beta*l)
				}
			}
			w := e.Other(u)
			if !visited[w] && inside(w) {
				visited[w] = true
				queue = append(queue, w)
			}
		}
	}
	return t, gomath.Pi * radius * radius
}

// clippedLength returns the length of segment ab inside the ball.
func clippedLength(a, b, center math.Vec3, radius float64) float64 {
	d := b.Sub(a)
	f := a.Sub(center)
	qa := d.Dot(d)
	if qa == 0 {
		return 0
	}
	qb := 2 * f.Dot(d)
	qc := f.Dot(f) - radius*radius
	disc := qb*qb - 4*qa*qc
	if disc <= 0 {
		return 0
	}
	sq := gomath.Sqrt(disc)
	t0 := gomath.Max((-qb-sq)/(2*qa), 0)
	t1 := gomath.Min((-qb+sq)/(2*qa), 1)
	if t1 <= t0 {
		return 0
	}
	return (t1 - t0) * gomath.Sqrt(qa)
}

// principalCurvatures extracts K1 >= K2 and their directions from a
// curvature tensor. The eigenvector closest to the normal is dropped; each
// remaining eigenvalue measures the curvature across its eigenvector, so
// the directions are swapped. It returns nil when the decomposition fails.
func principalCurvatures(t math.Mat3, normal math.Vec3) *mesh.CurvatureInfo {
	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(3, t[:]), true); !ok {
		return nil
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)
	column := func(j int) math.Vec3 {
		return math.Vec3{X: vectors.At(0, j), Y: vectors.At(1, j), Z: vectors.At(2, j)}.Normalize()
	}

	drop := 0
	best := -1.0
	for j := range values {
		if a := gomath.Abs(column(j).Dot(normal)); a > best {
			best = a
			drop = j
		}
	}
	var tangent []int
	for j := range values {
		if j != drop {
			tangent = append(tangent, j)
		}
	}
	a, b := tangent[0], tangent[1]
	// Curvature values[a] is measured along column(b) and vice versa.
	info := &mesh.CurvatureInfo{K1: values[a], E1: column(b), K2: values[b], E2: column(a)}
	if info.K2 > info.K1 {
		info.K1, info.K2 = info.K2, info.K1
		info.E1, info.E2 = info.E2, info.E1
	}
	return info
}

// computeRadialCurvature fills Kr, Er and DKr for the current viewpoint.
func (d *Detector) computeRadialCurvature(s *mesh.Shape) {
	normals := make(map[*mesh.Vertex]math.Vec3)
	for _, v := range s.Vertices {
		c := v.Curvature
		if c == nil {
			continue
		}
		n := vertexNormal(v)
		normals[v] = n
		view := d.proj.ViewVector(v.Point)
		er := view.Sub(n.Scale(view.Dot(n)))
		c.DKr = 0
		if er.Length() < radialEpsilon {
			c.Radial = false
			c.Er = math.Vec3{}
			c.Kr = 0
			continue
		}
		c.Radial = true
		c.Er = er.Normalize()
		cos := c.Er.Dot(c.E1)
		sin := c.Er.Dot(c.E2)
		c.Kr = c.K1*cos*cos + c.K2*sin*sin
	}

	for _, v := range s.Vertices {
		c := v.Curvature
		if c == nil || !c.Radial {
			continue
		}
		c.DKr = radialDerivative(v, normals[v])
	}
}

// radialDerivative intersects the radial plane of v with the edges
// opposite to v in its incident faces and differentiates Kr towards the
// first intersection found on the +Er side.
func radialDerivative(v *mesh.Vertex, n math.Vec3) float64 {
	c := v.Curvature
	p := v.Point
	m := n.Cross(c.Er)
	for _, f := range v.Faces() {
		for _, h := range f.HalfEdges {
			if h.A == v || h.B == v {
				continue
			}
			ca, cb := h.A.Curvature, h.B.Curvature
			if ca == nil || cb == nil {
				continue
			}
			da := m.Dot(h.A.Point.Sub(p))
			db := m.Dot(h.B.Point.Sub(p))
			if da*db > 0 || da == db {
				continue
			}
			t := da / (da - db)
			q := h.PointAt(t)
			if q.Sub(p).Dot(c.Er) <= 0 {
				continue
			}
			dist := q.Distance(p)
			if dist == 0 {
				continue
			}
			kr := ca.Kr + t*(cb.Kr-ca.Kr)
			return (kr - c.Kr) / dist
		}
	}
	return 0
}

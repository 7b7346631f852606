package picking

import (
	gomath "math"

	"github.com/Faultbox/viewmap/pkg/math"
)

// SegmentIntersection intersects the 2D segments a0a1 and b0b1 and returns
// the parameters of the crossing point along each segment. Parallel and
// collinear segments never intersect. The parameters are not clamped; ok is
// true when both lie in [-eps, 1+eps].
func SegmentIntersection(a0, a1, b0, b1 math.Vec2, eps float64) (t, u float64, ok bool) {
	da := a1.Sub(a0)
	db := b1.Sub(b0)
	denom := da.Cross(db)
	if gomath.Abs(denom) <= 1e-12*da.Length()*db.Length() || denom == 0 {
		return 0, 0, false
	}
	w := b0.Sub(a0)
	t = w.Cross(db) / denom
	u = w.Cross(da) / denom
	if t < -eps || t > 1+eps || u < -eps || u > 1+eps {
		return t, u, false
	}
	return t, u, true
}

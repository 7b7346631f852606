package visibility

import (
	"go.uber.org/zap"

	"github.com/Faultbox/viewmap/internal/engine/camera"
	"github.com/Faultbox/viewmap/internal/logger"
	"github.com/Faultbox/viewmap/internal/nature"
	"github.com/Faultbox/viewmap/internal/viewmap"
)

// cuspHysteresis is how far the side indicator must cross zero before a
// flip counts.
const cuspHysteresis = 0.1

// ComputeCusps inserts a cusp ViewVertex wherever a smooth silhouette turns
// back on itself in the image. It returns the number of cusps created.
func ComputeCusps(vm *viewmap.ViewMap, proj *camera.Projection) int {
	var silhouettes []*viewmap.ViewEdge
	for _, ve := range vm.ViewEdges {
		if ve.Nature.Has(nature.Silhouette) && ve.FEdgeA != nil && ve.FEdgeA.IsSmooth() {
			silhouettes = append(silhouettes, ve)
		}
	}

	cusps := 0
	for _, ve := range silhouettes {
		fes := ve.FEdges()
		positive := true
		for i, fe := range fes {
			s := side(fe, proj)
			if i == 0 {
				positive = s > 0
				continue
			}
			flipped := (positive && s < -cuspHysteresis) || (!positive && s > cuspHysteresis)
			if !flipped {
				continue
			}
			positive = !positive
			if fe.A.ViewVertex != nil {
				continue
			}
			vv := vm.NewNonTVertex(fe.A, nature.Cusp)
			vm.InsertViewVertex(fe.A, vv)
			fes[i-1].Nature |= nature.CuspEdge
			fe.Nature |= nature.CuspEdge
			cusps++
		}
	}
	logger.Named("visibility").Debug("cusps computed", zap.Int("cusps", cusps))
	return cusps
}

// side tells on which side of the viewer the surface lies along fe.
func side(fe *viewmap.FEdge, proj *camera.Projection) float64 {
	ab := fe.B.Point3D.Sub(fe.A.Point3D)
	t := ab.Cross(fe.Normal()).Normalize()
	v := proj.ViewVector(fe.A.Point3D).Normalize()
	return t.Dot(v)
}

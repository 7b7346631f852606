package feature

import (
	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/internal/nature"
)

// RidgeValley is the layer nature of the maximum curvature field.
const RidgeValley = nature.Ridge | nature.Valley

// buildLayers attaches the smooth face layers of s and returns how many of
// them carry a smooth edge.
func (d *Detector) buildLayers(s *mesh.Shape) int {
	count := 0
	add := func(l *mesh.FaceLayer) {
		l.Face.Layers = append(l.Face.Layers, l)
		if l.Smooth != nil {
			count++
		}
	}

	for _, f := range s.Faces {
		if f.NumVertices() != 3 {
			continue
		}
		if f.Smooth() {
			add(d.silhouetteLayer(f))
		}
		if d.opts.RidgesAndValleys {
			if l := ridgeLayer(f); l != nil {
				add(l)
			}
		}
		if d.opts.SuggestiveContours {
			if l := d.suggestiveLayer(f); l != nil {
				add(l)
			}
		}
	}
	return count
}

// silhouetteLayer samples n·v with the shading normals of f.
func (d *Detector) silhouetteLayer(f *mesh.Face) *mesh.FaceLayer {
	values := make([]float64, f.NumVertices())
	for i, h := range f.HalfEdges {
		values[i] = f.VertexNormals[i].Dot(d.proj.ViewVector(h.A.Point))
	}
	return &mesh.FaceLayer{
		Face:   f,
		Nature: nature.Silhouette,
		Values: values,
		Smooth: zeroCrossing(f, values),
	}
}

func ridgeLayer(f *mesh.Face) *mesh.FaceLayer {
	values := make([]float64, f.NumVertices())
	for i, h := range f.HalfEdges {
		c := h.A.Curvature
		if c == nil {
			return nil
		}
		values[i] = c.K1
	}
	return &mesh.FaceLayer{
		Face:   f,
		Nature: RidgeValley,
		Values: values,
		Smooth: zeroCrossing(f, values),
	}
}

// suggestiveLayer samples Kr. The zero crossing is kept only where Kr
// increases towards the viewer fast enough at both ends.
func (d *Detector) suggestiveLayer(f *mesh.Face) *mesh.FaceLayer {
	values := make([]float64, f.NumVertices())
	derivs := make([]float64, f.NumVertices())
	for i, h := range f.HalfEdges {
		c := h.A.Curvature
		if c == nil || !c.Radial {
			return nil
		}
		values[i] = c.Kr
		derivs[i] = c.DKr
	}
	l := &mesh.FaceLayer{
		Face:   f,
		Nature: nature.SuggestiveContour,
		Values: values,
		Interp: derivs,
	}
	if se := zeroCrossing(f, values); se != nil {
		eps := d.opts.KrDerivativeEpsilon
		if l.InterpAt(se.A) > eps && l.InterpAt(se.B) > eps {
			l.Smooth = se
		}
	}
	return l
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// zeroCrossing reconstructs the segment where a field sampled at the
// corners of a triangle vanishes. The field is positive on the left of the
// returned A→B, so the exit point of one face is the entry point of the
// next. It returns nil when the field keeps its sign, vanishes everywhere
// or the configuration is ambiguous.
func zeroCrossing(f *mesh.Face, values []float64) *mesh.SmoothEdge {
	var s [3]int
	zeros := 0
	for i := 0; i < 3; i++ {
		s[i] = sign(values[i])
		if s[i] == 0 {
			zeros++
		}
	}
	halves := f.HalfEdges

	switch zeros {
	case 0:
		var out, in *mesh.SmoothPoint
		crossings := 0
		for i := 0; i < 3; i++ {
			j := (i + 1) % 3
			if s[i] == s[j] {
				continue
			}
			crossings++
			p := &mesh.SmoothPoint{Half: halves[i], T: values[i] / (values[i] - values[j])}
			if s[i] > 0 {
				out = p
			} else {
				in = p
			}
		}
		if crossings != 2 || out == nil || in == nil {
			return nil
		}
		return &mesh.SmoothEdge{A: *out, B: *in}

	case 1:
		z := 0
		for s[z] != 0 {
			z++
		}
		i, j := (z+1)%3, (z+2)%3
		if s[i] == s[j] {
			return nil
		}
		vertex := mesh.SmoothPoint{Half: halves[z], T: 0}
		cross := mesh.SmoothPoint{Half: halves[i], T: values[i] / (values[i] - values[j])}
		if s[i] > 0 {
			return &mesh.SmoothEdge{A: cross, B: vertex}
		}
		return &mesh.SmoothEdge{A: vertex, B: cross}

	case 2:
		k := 0
		for s[k] == 0 {
			k++
		}
		if s[k] < 0 {
			return nil
		}
		// The half-edge joining the two zeros is the one leaving k's successor.
		h := halves[(k+1)%3]
		return &mesh.SmoothEdge{A: mesh.SmoothPoint{Half: h, T: 0}, B: mesh.SmoothPoint{Half: h, T: 1}}
	}
	return nil
}

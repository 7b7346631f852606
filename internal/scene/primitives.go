package scene

import (
	gomath "math"

	"github.com/Faultbox/viewmap/internal/engine/mesh"
	"github.com/Faultbox/viewmap/pkg/math"
)

// Quad returns a square of the given size in the XY plane, centered on the
// origin and facing +Z, split along its 0-2 diagonal.
func Quad(size float64) mesh.Input {
	h := size / 2
	return mesh.Input{
		Name: "quad",
		Points: []math.Vec3{
			{X: -h, Y: -h}, {X: h, Y: -h}, {X: h, Y: h}, {X: -h, Y: h},
		},
		Faces: []mesh.FaceInput{
			{Indices: [3]int{0, 1, 2}},
			{Indices: [3]int{0, 2, 3}},
		},
	}
}

// Cube returns an axis aligned, flat shaded cube of the given size centered
// on the origin.
func Cube(size float64) mesh.Input {
	h := size / 2
	points := make([]math.Vec3, 8)
	for i := range points {
		points[i] = math.Vec3{
			X: pick(i&1 != 0, h),
			Y: pick(i&2 != 0, h),
			Z: pick(i&4 != 0, h),
		}
	}
	quads := [][4]int{
		{0, 2, 3, 1}, // -Z
		{4, 5, 7, 6}, // +Z
		{0, 1, 5, 4}, // -Y
		{2, 6, 7, 3}, // +Y
		{0, 4, 6, 2}, // -X
		{1, 3, 7, 5}, // +X
	}
	var faces []mesh.FaceInput
	for _, q := range quads {
		faces = append(faces,
			mesh.FaceInput{Indices: [3]int{q[0], q[1], q[2]}},
			mesh.FaceInput{Indices: [3]int{q[0], q[2], q[3]}},
		)
	}
	in := mesh.Input{Name: "cube", Points: points, Faces: faces}
	orientOutward(&in, math.Vec3{})
	return in
}

func pick(pos bool, h float64) float64 {
	if pos {
		return h
	}
	return -h
}

// Disk returns a triangle fan in the XY plane facing +Z.
func Disk(radius float64, segments int) mesh.Input {
	if segments < 3 {
		segments = 3
	}
	points := []math.Vec3{{}}
	for i := 0; i < segments; i++ {
		a := 2 * gomath.Pi * float64(i) / float64(segments)
		points = append(points, math.Vec3{X: radius * gomath.Cos(a), Y: radius * gomath.Sin(a)})
	}
	var faces []mesh.FaceInput
	for i := 0; i < segments; i++ {
		faces = append(faces, mesh.FaceInput{Indices: [3]int{0, 1 + i, 1 + (i+1)%segments}})
	}
	return mesh.Input{Name: "disk", Points: points, Faces: faces}
}

// Grid returns a square plane in the XY plane facing +Z, subdivided into
// divisions x divisions quads.
func Grid(size float64, divisions int) mesh.Input {
	if divisions < 1 {
		divisions = 1
	}
	n := divisions + 1
	step := size / float64(divisions)
	var points []math.Vec3
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			points = append(points, math.Vec3{
				X: -size/2 + float64(i)*step,
				Y: -size/2 + float64(j)*step,
			})
		}
	}
	var faces []mesh.FaceInput
	for j := 0; j < divisions; j++ {
		for i := 0; i < divisions; i++ {
			a := j*n + i
			b, c, d := a+1, a+n+1, a+n
			faces = append(faces,
				mesh.FaceInput{Indices: [3]int{a, b, c}},
				mesh.FaceInput{Indices: [3]int{a, c, d}},
			)
		}
	}
	return mesh.Input{Name: "grid", Points: points, Faces: faces}
}

// Sphere returns a UV sphere centered on the origin with the poles on the Y
// axis. Smooth spheres carry the analytic normals as shading normals.
func Sphere(radius float64, rings, segments int, smooth bool) mesh.Input {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}
	points := []math.Vec3{{Y: radius}}
	for r := 1; r < rings; r++ {
		theta := gomath.Pi * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			phi := 2 * gomath.Pi * float64(s) / float64(segments)
			points = append(points, math.Vec3{
				X: radius * gomath.Sin(theta) * gomath.Cos(phi),
				Y: radius * gomath.Cos(theta),
				Z: radius * gomath.Sin(theta) * gomath.Sin(phi),
			})
		}
	}
	south := len(points)
	points = append(points, math.Vec3{Y: -radius})

	ring := func(r, s int) int { return 1 + (r-1)*segments + s%segments }
	var faces []mesh.FaceInput
	for s := 0; s < segments; s++ {
		faces = append(faces, mesh.FaceInput{Indices: [3]int{0, ring(1, s), ring(1, s+1)}})
		faces = append(faces, mesh.FaceInput{Indices: [3]int{south, ring(rings-1, s+1), ring(rings-1, s)}})
	}
	for r := 1; r < rings-1; r++ {
		for s := 0; s < segments; s++ {
			a, b := ring(r, s), ring(r, s+1)
			c, d := ring(r+1, s+1), ring(r+1, s)
			faces = append(faces,
				mesh.FaceInput{Indices: [3]int{a, d, c}},
				mesh.FaceInput{Indices: [3]int{a, c, b}},
			)
		}
	}

	in := mesh.Input{Name: "sphere", Points: points, Faces: faces}
	orientOutward(&in, math.Vec3{})
	if smooth {
		for i := range in.Faces {
			f := &in.Faces[i]
			f.Normals = make([]math.Vec3, 3)
			for k, idx := range f.Indices {
				f.Normals[k] = points[idx].Normalize()
			}
		}
	}
	return in
}

// orientOutward flips every triangle whose normal points towards center.
// Only valid for star shaped meshes around center.
func orientOutward(in *mesh.Input, center math.Vec3) {
	for i := range in.Faces {
		idx := &in.Faces[i].Indices
		a, b, c := in.Points[idx[0]], in.Points[idx[1]], in.Points[idx[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c).Scale(1.0 / 3)
		if n.Dot(centroid.Sub(center)) < 0 {
			idx[1], idx[2] = idx[2], idx[1]
		}
	}
}

// Transform applies m to the points and shading normals of in and returns
// the result. m is expected to be a similarity transform.
func Transform(in mesh.Input, m math.Mat4) mesh.Input {
	out := in
	out.Points = make([]math.Vec3, len(in.Points))
	for i, p := range in.Points {
		out.Points[i] = m.TransformPoint(p)
	}
	out.Faces = make([]mesh.FaceInput, len(in.Faces))
	for i, f := range in.Faces {
		out.Faces[i] = f
		if f.Normals != nil {
			out.Faces[i].Normals = make([]math.Vec3, len(f.Normals))
			for k, n := range f.Normals {
				out.Faces[i].Normals[k] = m.TransformDirection(n).Normalize()
			}
		}
	}
	return out
}

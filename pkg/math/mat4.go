package math

import "github.com/go-gl/mathgl/mgl64"

// Mat4 is a 4x4 matrix in column-major order (OpenGL compatible), laid out
// like mgl64.Mat4.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float64

func (v Vec3) gl() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4(mgl64.Ident4())
}

// Perspective returns a perspective projection matrix.
// fovY is in radians, aspect is width/height.
func Perspective(fovY, aspect, near, far float64) Mat4 {
	return Mat4(mgl64.Perspective(fovY, aspect, near, far))
}

// Frustum returns a perspective projection matrix for an off-axis frustum
// given its near-plane rectangle.
func Frustum(left, right, bottom, top, near, far float64) Mat4 {
	return Mat4(mgl64.Frustum(left, right, bottom, top, near, far))
}

// Ortho returns an orthographic projection matrix.
// left, right, bottom, top define the view frustum boundaries.
// near and far define the depth range.
func Ortho(left, right, bottom, top, near, far float64) Mat4 {
	return Mat4(mgl64.Ortho(left, right, bottom, top, near, far))
}

// LookAt returns a view matrix looking from eye to center with up direction.
func LookAt(eye, center, up Vec3) Mat4 {
	return Mat4(mgl64.LookAtV(eye.gl(), center.gl(), up.gl()))
}

// Translate returns a translation matrix.
func Translate(x, y, z float64) Mat4 {
	return Mat4(mgl64.Translate3D(x, y, z))
}

// Scale returns a scale matrix.
func Scale(x, y, z float64) Mat4 {
	return Mat4(mgl64.Scale3D(x, y, z))
}

// RotateX returns a rotation matrix around the X axis.
// angle is in radians.
func RotateX(angle float64) Mat4 {
	return Mat4(mgl64.HomogRotate3DX(angle))
}

// RotateY returns a rotation matrix around the Y axis.
func RotateY(angle float64) Mat4 {
	return Mat4(mgl64.HomogRotate3DY(angle))
}

// RotateZ returns a rotation matrix around the Z axis.
func RotateZ(angle float64) Mat4 {
	return Mat4(mgl64.HomogRotate3DZ(angle))
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	return Mat4(mgl64.Mat4(m).Mul4(mgl64.Mat4(other)))
}

// TransformPoint transforms a 3D point by this matrix (assumes w=1).
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	x := m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12]
	y := m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13]
	z := m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14]
	w := m[3]*p.X + m[7]*p.Y + m[11]*p.Z + m[15]
	if w != 0 && w != 1 {
		return Vec3{x / w, y / w, z / w}
	}
	return Vec3{x, y, z}
}

// TransformDirection transforms a direction vector (ignores translation).
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// Row returns the first three entries of row i.
func (m Mat4) Row(i int) Vec3 {
	return Vec3{m[i], m[4+i], m[8+i]}
}

// Vec4 is a 4-component vector.
type Vec4 [4]float64

// Point returns the homogeneous point (p, 1).
func Point(p Vec3) Vec4 {
	return Vec4{p.X, p.Y, p.Z, 1}
}

// Lerp returns v + t*(other-v).
func (v Vec4) Lerp(other Vec4, t float64) Vec4 {
	return Vec4{
		v[0] + t*(other[0]-v[0]),
		v[1] + t*(other[1]-v[1]),
		v[2] + t*(other[2]-v[2]),
		v[3] + t*(other[3]-v[3]),
	}
}

// MulVec4 multiplies the matrix by a Vec4.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4(mgl64.Mat4(m).Mul4x1(mgl64.Vec4(v)))
}

// Inverse returns the inverse of the matrix.
// Returns identity if the matrix is singular.
func (m Mat4) Inverse() Mat4 {
	gm := mgl64.Mat4(m)
	if gm.Det() == 0 {
		return Identity()
	}
	return Mat4(gm.Inv())
}

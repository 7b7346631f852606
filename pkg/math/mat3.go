package math

// Mat3 is a 3x3 matrix in row-major order.
type Mat3 [9]float64

// At returns the element at row i, column j.
func (m Mat3) At(i, j int) float64 {
	return m[i*3+j]
}

// AddOuter adds s * (v ⊗ v) to the matrix in place.
func (m *Mat3) AddOuter(v Vec3, s float64) {
	c := [3]float64{v.X, v.Y, v.Z}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i*3+j] += s * c[i] * c[j]
		}
	}
}

// MulScalar returns m * s.
func (m Mat3) MulScalar(s float64) Mat3 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// MulVec3 returns m * v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

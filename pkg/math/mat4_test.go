package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	// Diagonal should be 1
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	// Off-diagonal should be 0
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	id := Identity()
	result := m.Mul(id)

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)

	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint(Vec3{1, 2, 3})

	expected := Vec3{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	result := m.TransformPoint(Vec3{1, 2, 3})

	expected := Vec3{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(math.Pi / 2)
	result := m.TransformPoint(Vec3{1, 0, 0})

	// After 90 degree Y rotation, (1,0,0) should become approximately (0,0,-1)
	if !result.ApproxEqual(Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("RotateY 90: got %v, want (0, 0, -1)", result)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math.Pi/4, 1.0, 0.1, 100.0)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestFrustumMatchesPerspective(t *testing.T) {
	near, far := 0.5, 50.0
	top := near * math.Tan(math.Pi/8)
	f := Frustum(-top, top, -top, top, near, far)
	p := Perspective(math.Pi/4, 1, near, far)

	for i := range f {
		if math.Abs(f[i]-p[i]) > 1e-9 {
			t.Errorf("element %d: frustum %f, perspective %f", i, f[i], p[i])
		}
	}
}

func TestLookAt(t *testing.T) {
	eye := Vec3{0, 0, 5}
	m := LookAt(eye, Vec3{0, 0, 0}, Vec3{0, 1, 0})

	if m[15] != 1 {
		t.Errorf("LookAt [15] should be 1, got %f", m[15])
	}
	// The eye maps to the camera-space origin.
	if got := m.TransformPoint(eye); !got.ApproxEqual(Vec3{}, 1e-9) {
		t.Errorf("LookAt eye: got %v, want origin", got)
	}
	// The target lies on the negative camera Z axis.
	if got := m.TransformPoint(Vec3{}); !got.ApproxEqual(Vec3{0, 0, -5}, 1e-9) {
		t.Errorf("LookAt center: got %v, want (0, 0, -5)", got)
	}
}

func TestInverse(t *testing.T) {
	m := Translate(1, 2, 3).Mul(RotateX(0.3)).Mul(Scale(2, 3, 4))
	got := m.Mul(m.Inverse())
	id := Identity()
	for i := range got {
		if math.Abs(got[i]-id[i]) > 1e-9 {
			t.Fatalf("M * M^-1 element %d: got %f, want %f", i, got[i], id[i])
		}
	}
}

func TestMat3AddOuter(t *testing.T) {
	var m Mat3
	m.AddOuter(Vec3{1, 0, 0}, 3)
	m.AddOuter(Vec3{0, 1, 1}.Normalize(), 2)

	if m.At(0, 0) != 3 || math.Abs(m.At(1, 2)-1) > 1e-9 || m.At(1, 2) != m.At(2, 1) {
		t.Fatalf("AddOuter: got %v", m)
	}
	v := Vec3{0, 1, 1}.Normalize()
	if got := m.MulScalar(0.5).MulVec3(v); !got.ApproxEqual(v, 1e-9) {
		t.Errorf("0.5 * M * v: got %v, want %v", got, v)
	}
}

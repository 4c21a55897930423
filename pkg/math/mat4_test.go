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

func TestMulPointTranslate(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.MulPoint(Vec3{1, 2, 3})

	expected := Vec3{11, 22, 33}
	if result != expected {
		t.Errorf("MulPoint: got %v, want %v", result, expected)
	}
}

func TestMulPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	result := m.MulPoint(Vec3{1, 2, 3})

	expected := Vec3{2, 4, 6}
	if result != expected {
		t.Errorf("MulPoint with scale: got %v, want %v", result, expected)
	}
}

func TestRotateXMinus90(t *testing.T) {
	// The up-axis correction: -90 degrees about X maps +Z to +Y.
	m := RotateX(float32(-math.Pi / 2))
	result := m.MulPoint(Vec3{0, 0, 1})

	if abs(result.X) > 0.001 || abs(result.Y-1) > 0.001 || abs(result.Z) > 0.001 {
		t.Errorf("RotateX -90: got %v, want (0, 1, 0)", result)
	}
}

func TestRotateY90(t *testing.T) {
	m := RotateY(float32(math.Pi / 2)) // 90 degrees
	result := m.MulPoint(Vec3{1, 0, 0})

	// After 90 degree Y rotation, (1,0,0) should become approximately (0,0,-1)
	if abs(result.X) > 0.001 || abs(result.Y) > 0.001 || abs(result.Z+1) > 0.001 {
		t.Errorf("RotateY 90: got %v, want (0, 0, -1)", result)
	}
}

func TestPerspective(t *testing.T) {
	fov := float32(math.Pi / 4) // 45 degrees
	aspect := float32(1.0)
	near := float32(0.1)
	far := float32(100.0)

	m := Perspective(fov, aspect, near, far)

	// Should be a valid projection matrix (not identity)
	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	// Element [15] should be 0 for perspective projection
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	// Element [11] should be -1 for perspective projection
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAt(t *testing.T) {
	eye := Vec3{0, 0, 5}
	center := Vec3{0, 0, 0}
	up := Vec3{0, 1, 0}

	m := LookAt(eye, center, up)

	if m[15] != 1 {
		t.Errorf("LookAt [15] should be 1, got %f", m[15])
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Translate(3, -1, 2).Mul(RotateY(0.7)).Mul(Scale(2, 2, 2))
	inv := m.Inverse()

	p := Vec3{0.5, -1.25, 4}
	back := inv.MulPoint(m.MulPoint(p))

	if abs(back.X-p.X) > 0.001 || abs(back.Y-p.Y) > 0.001 || abs(back.Z-p.Z) > 0.001 {
		t.Errorf("Inverse round trip: got %v, want %v", back, p)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

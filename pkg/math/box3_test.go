package math

import (
	gomath "math"
	"testing"
)

func TestEmptyBox3(t *testing.T) {
	b := EmptyBox3()
	if !b.IsEmpty() {
		t.Error("EmptyBox3 should be empty")
	}
	if b.Center() != (Vec3{}) {
		t.Errorf("empty box center should be zero, got %v", b.Center())
	}
	if b.MaxExtent() != 0 {
		t.Errorf("empty box extent should be 0, got %f", b.MaxExtent())
	}
}

func TestBox3ExpandByPoint(t *testing.T) {
	b := EmptyBox3()
	b = b.ExpandByPoint(Vec3{1, 2, 3})

	if b.IsEmpty() {
		t.Fatal("box with one point should not be empty")
	}
	if b.Min != (Vec3{1, 2, 3}) || b.Max != (Vec3{1, 2, 3}) {
		t.Errorf("single-point box: min %v max %v", b.Min, b.Max)
	}

	b = b.ExpandByPoint(Vec3{-1, 4, 0})
	if b.Min != (Vec3{-1, 2, 0}) {
		t.Errorf("min after expand: got %v, want (-1, 2, 0)", b.Min)
	}
	if b.Max != (Vec3{1, 4, 3}) {
		t.Errorf("max after expand: got %v, want (1, 4, 3)", b.Max)
	}
}

func TestBox3CenterSize(t *testing.T) {
	b := Box3{Min: Vec3{-2, 0, 1}, Max: Vec3{4, 2, 3}}

	if b.Center() != (Vec3{1, 1, 2}) {
		t.Errorf("Center: got %v, want (1, 1, 2)", b.Center())
	}
	if b.Size() != (Vec3{6, 2, 2}) {
		t.Errorf("Size: got %v, want (6, 2, 2)", b.Size())
	}
	if b.MaxExtent() != 6 {
		t.Errorf("MaxExtent: got %f, want 6", b.MaxExtent())
	}
}

func TestBox3Union(t *testing.T) {
	a := Box3{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	b := Box3{Min: Vec3{2, -1, 0}, Max: Vec3{3, 0, 2}}

	u := a.Union(b)
	if u.Min != (Vec3{0, -1, 0}) || u.Max != (Vec3{3, 1, 2}) {
		t.Errorf("Union: got min %v max %v", u.Min, u.Max)
	}

	if got := a.Union(EmptyBox3()); got != a {
		t.Errorf("union with empty should be unchanged, got %v", got)
	}
}

func TestBox3Transform(t *testing.T) {
	b := Box3{Min: Vec3{-1, -1, -1}, Max: Vec3{1, 1, 1}}

	moved := b.Transform(Translate(5, 0, 0))
	if moved.Min != (Vec3{4, -1, -1}) || moved.Max != (Vec3{6, 1, 1}) {
		t.Errorf("translated box: min %v max %v", moved.Min, moved.Max)
	}

	// Rotating the unit cube 45 degrees about Y widens X and Z to 2*sqrt(2).
	rot := b.Transform(RotateY(float32(gomath.Pi / 4)))
	want := float32(2 * gomath.Sqrt2)
	if abs(rot.Size().X-want) > 0.001 || abs(rot.Size().Z-want) > 0.001 {
		t.Errorf("rotated box size: got %v, want X/Z ~%f", rot.Size(), want)
	}
}

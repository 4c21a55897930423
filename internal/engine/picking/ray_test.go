package picking

import (
	"testing"

	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/internal/scene"
	"github.com/forma3d/formaview/pkg/math"
)

// quadNode builds a unit square in the source XY plane at the given source
// z, as two triangles.
func quadNode(name string, z float32, layerIndex int) decoder.RawNode {
	return decoder.RawNode{
		Name: name,
		Positions: []float32{
			-1, -1, z,
			1, -1, z,
			1, 1, z,
			-1, 1, z,
		},
		Indices:    []uint32{0, 1, 2, 0, 2, 3},
		Attributes: map[string]any{"layerIndex": layerIndex},
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := math.Vec3{X: -1, Y: -1, Z: 0}
	b := math.Vec3{X: 1, Y: -1, Z: 0}
	c := math.Vec3{X: 0, Y: 1, Z: 0}

	ray := Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}
	d, hit := ray.IntersectTriangle(a, b, c)
	if !hit {
		t.Fatal("expected hit through triangle center")
	}
	if d < 4.99 || d > 5.01 {
		t.Errorf("distance = %f, want 5", d)
	}

	// Back face still hits.
	back := Ray{Origin: math.Vec3{Z: -5}, Direction: math.Vec3{Z: 1}}
	if _, hit := back.IntersectTriangle(a, b, c); !hit {
		t.Error("back face should hit")
	}

	// Miss outside the triangle.
	miss := Ray{Origin: math.Vec3{X: 5, Y: 5, Z: 5}, Direction: math.Vec3{Z: -1}}
	if _, hit := miss.IntersectTriangle(a, b, c); hit {
		t.Error("ray far outside the triangle should miss")
	}

	// Triangle behind the origin misses.
	behind := Ray{Origin: math.Vec3{Z: -5}, Direction: math.Vec3{Z: -1}}
	if _, hit := behind.IntersectTriangle(a, b, c); hit {
		t.Error("triangle behind the ray should miss")
	}
}

func TestIntersectBox(t *testing.T) {
	box := math.Box3{
		Min: math.Vec3{X: -1, Y: -1, Z: -1},
		Max: math.Vec3{X: 1, Y: 1, Z: 1},
	}

	ray := Ray{Origin: math.Vec3{Z: 5}, Direction: math.Vec3{Z: -1}}
	d, hit := ray.IntersectBox(box)
	if !hit || d < 3.99 || d > 4.01 {
		t.Errorf("hit=%v d=%f, want hit at 4", hit, d)
	}

	inside := Ray{Origin: math.Vec3{}, Direction: math.Vec3{Z: -1}}
	if _, hit := inside.IntersectBox(box); !hit {
		t.Error("ray starting inside the box should hit")
	}

	miss := Ray{Origin: math.Vec3{X: 5, Z: 5}, Direction: math.Vec3{Z: -1}}
	if _, hit := miss.IntersectBox(box); hit {
		t.Error("ray beside the box should miss")
	}
}

func TestPickModelNearestVisible(t *testing.T) {
	// Two parallel squares; after up-axis correction they become horizontal
	// planes at y=-0.5 and y=+0.5.
	model := scene.Normalize(&decoder.RawScene{
		Nodes: []decoder.RawNode{
			quadNode("lower", 0, 0),
			quadNode("upper", 1, 1),
		},
	})
	defer model.Dispose()

	down := Ray{Origin: math.Vec3{Y: 5}, Direction: math.Vec3{Y: -1}}

	hit, ok := PickModel(down, model)
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Object.Name != "upper" {
		t.Errorf("hit %q, want the nearer face", hit.Object.Name)
	}
	if hit.Point.Y < 0.49 || hit.Point.Y > 0.51 {
		t.Errorf("hit point %v, want y near 0.5", hit.Point)
	}

	// Hiding the nearer face exposes the one behind it.
	model.SetLayerVisible(1, false)
	hit, ok = PickModel(down, model)
	if !ok {
		t.Fatal("expected a hit on the lower face")
	}
	if hit.Object.Name != "lower" {
		t.Errorf("hit %q, want the lower face", hit.Object.Name)
	}

	// Nothing visible, nothing picked.
	model.SetLayerVisible(0, false)
	if _, ok := PickModel(down, model); ok {
		t.Error("fully hidden model should not pick")
	}
}

func TestPickModelNilModel(t *testing.T) {
	ray := Ray{Origin: math.Vec3{Y: 5}, Direction: math.Vec3{Y: -1}}
	if _, ok := PickModel(ray, nil); ok {
		t.Error("nil model should not pick")
	}
}

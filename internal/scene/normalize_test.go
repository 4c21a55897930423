package scene

import (
	"testing"

	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/pkg/math"
)

// boxNode builds a cuboid node spanning [min, max] with optional attributes.
func boxNode(name string, min, max math.Vec3, attrs map[string]any) decoder.RawNode {
	positions := []float32{
		min.X, min.Y, min.Z,
		max.X, min.Y, min.Z,
		max.X, max.Y, min.Z,
		min.X, max.Y, max.Z,
		max.X, max.Y, max.Z,
		min.X, min.Y, max.Z,
	}
	return decoder.RawNode{
		Name:       name,
		Positions:  positions,
		Indices:    []uint32{0, 1, 2, 3, 4, 5},
		Attributes: attrs,
	}
}

func TestNormalizeCentersAndScales(t *testing.T) {
	// A 10x4x6 box centered at (105, 2, 3): source units are arbitrary.
	raw := &decoder.RawScene{
		Nodes: []decoder.RawNode{
			boxNode("shell", math.Vec3{X: 100, Y: 0, Z: 0}, math.Vec3{X: 110, Y: 4, Z: 6}, nil),
		},
	}

	m := Normalize(raw)

	center := m.Bounds().Center()
	if abs(center.X) > 1e-4 || abs(center.Y) > 1e-4 || abs(center.Z) > 1e-4 {
		t.Errorf("normalized center = %v, want origin", center)
	}

	if extent := m.Bounds().MaxExtent(); abs(extent-CanonicalSize) > 1e-4 {
		t.Errorf("max extent = %f, want %f", extent, float32(CanonicalSize))
	}

	p := m.Placement()
	if p.Translation != (math.Vec3{X: 105, Y: 2, Z: 3}) {
		t.Errorf("translation = %v, want source center", p.Translation)
	}
	if abs(p.Scale-0.2) > 1e-6 {
		t.Errorf("scale = %f, want 0.2", p.Scale)
	}
}

func TestNormalizeUpAxisCorrection(t *testing.T) {
	// A source-space point on +Z must end up on +Y after the fixed rotation.
	raw := &decoder.RawScene{
		Nodes: []decoder.RawNode{
			boxNode("tall", math.Vec3{X: -1, Y: -1, Z: -1}, math.Vec3{X: 1, Y: 1, Z: 1}, nil),
		},
	}
	m := Normalize(raw)

	top := m.Matrix().MulPoint(math.Vec3{X: 0, Y: 0, Z: 1})
	if abs(top.Y-1) > 1e-4 || abs(top.Z) > 1e-4 {
		t.Errorf("source +Z mapped to %v, want (0, 1, 0)", top)
	}
}

func TestNormalizeDegenerateModel(t *testing.T) {
	// All vertices at one point: zero extent, scaling skipped.
	raw := &decoder.RawScene{
		Nodes: []decoder.RawNode{
			{
				Name:      "point",
				Positions: []float32{5, 5, 5, 5, 5, 5, 5, 5, 5},
				Indices:   []uint32{0, 1, 2},
			},
		},
	}
	m := Normalize(raw)

	if m.Placement().Scale != 1 {
		t.Errorf("degenerate scale = %f, want 1", m.Placement().Scale)
	}
	center := m.Bounds().Center()
	if abs(center.X) > 1e-4 || abs(center.Y) > 1e-4 || abs(center.Z) > 1e-4 {
		t.Errorf("degenerate center = %v, want origin", center)
	}
}

func TestNormalizeEmptyScene(t *testing.T) {
	m := Normalize(&decoder.RawScene{})
	if len(m.Objects()) != 0 {
		t.Errorf("expected no objects, got %d", len(m.Objects()))
	}
	if m.Placement().Scale != 1 {
		t.Errorf("empty scale = %f, want 1", m.Placement().Scale)
	}
}

func TestNormalizeLayerPartition(t *testing.T) {
	unit := math.Vec3{X: 1, Y: 1, Z: 1}
	raw := &decoder.RawScene{
		UserData: map[string]any{
			"layers": []any{
				map[string]any{"name": "Walls"},
				map[string]any{"name": "Roof", "visible": false},
			},
		},
		Nodes: []decoder.RawNode{
			boxNode("wall-a", math.Vec3{}, unit, map[string]any{"layerIndex": 0}),
			boxNode("wall-b", math.Vec3{}, unit, map[string]any{"layerIndex": 0}),
			boxNode("roof", math.Vec3{}, unit, map[string]any{"layerIndex": 1}),
			boxNode("loose", math.Vec3{}, unit, nil),
			boxNode("bad-idx", math.Vec3{}, unit, map[string]any{"layerIndex": "x"}),
		},
	}

	m := Normalize(raw)

	if got := len(m.LayerObjects(0)); got != 2 {
		t.Errorf("layer 0 bucket size = %d, want 2", got)
	}
	if got := len(m.LayerObjects(1)); got != 1 {
		t.Errorf("layer 1 bucket size = %d, want 1", got)
	}

	list := m.Layers()
	if len(list) != 2 {
		t.Fatalf("descriptor count = %d, want 2", len(list))
	}
	if list[0].Name != "Walls" || !list[0].Visible {
		t.Errorf("layer 0 descriptor = %+v", list[0])
	}
	if list[1].Name != "Roof" || list[1].Visible {
		t.Errorf("layer 1 descriptor = %+v", list[1])
	}

	// The decoder-hidden layer starts invisible; unlayered objects do not.
	for _, o := range m.LayerObjects(1) {
		if o.Visible {
			t.Error("objects in a decoder-hidden layer should start invisible")
		}
	}
	for _, o := range m.Objects() {
		if o.LayerIndex == NoLayer && !o.Visible {
			t.Errorf("unlayered object %q must be visible", o.Name)
		}
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	positions := []float32{0, 0, 0, 10, 0, 0, 10, 10, 0}
	raw := &decoder.RawScene{
		Nodes: []decoder.RawNode{{Name: "tri", Positions: positions, Indices: []uint32{0, 1, 2}}},
	}

	Normalize(raw)

	want := []float32{0, 0, 0, 10, 0, 0, 10, 10, 0}
	for i, v := range positions {
		if v != want[i] {
			t.Fatalf("input position %d mutated: got %f, want %f", i, v, want[i])
		}
	}
}

func TestPlacementStableAcrossInteraction(t *testing.T) {
	raw := &decoder.RawScene{
		Nodes: []decoder.RawNode{
			boxNode("a", math.Vec3{}, math.Vec3{X: 4, Y: 4, Z: 4}, map[string]any{"layerIndex": 0}),
		},
	}
	m := Normalize(raw)
	before := m.Matrix()

	m.SetLayerVisible(0, false)
	m.SetLayerVisible(0, true)
	m.SetLayerVisible(7, false)

	if m.Matrix() != before {
		t.Error("layer toggles must not retrigger normalization")
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

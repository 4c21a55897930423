package scene

import (
	"testing"

	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/pkg/math"
)

type countingReleaser struct {
	releases int
}

func (c *countingReleaser) Release() { c.releases++ }

func layeredModel(t *testing.T) *Model {
	t.Helper()
	unit := math.Vec3{X: 1, Y: 1, Z: 1}
	raw := &decoder.RawScene{
		Nodes: []decoder.RawNode{
			boxNode("a0", math.Vec3{}, unit, map[string]any{"layerIndex": 0}),
			boxNode("a1", math.Vec3{}, unit, map[string]any{"layerIndex": 0}),
			boxNode("b0", math.Vec3{}, unit, map[string]any{"layerIndex": 1}),
			boxNode("free", math.Vec3{}, unit, nil),
		},
	}
	return Normalize(raw)
}

func visibilitySnapshot(m *Model) map[string]bool {
	snap := make(map[string]bool)
	for _, o := range m.Objects() {
		snap[o.Name] = o.Visible
	}
	return snap
}

func TestSetLayerVisibleTogglesExactlyBucket(t *testing.T) {
	m := layeredModel(t)
	before := visibilitySnapshot(m)

	m.SetLayerVisible(0, false)

	for _, o := range m.Objects() {
		switch o.LayerIndex {
		case 0:
			if o.Visible {
				t.Errorf("object %q in layer 0 should be hidden", o.Name)
			}
		default:
			if o.Visible != before[o.Name] {
				t.Errorf("object %q outside layer 0 changed visibility", o.Name)
			}
		}
	}

	// Round trip restores exactly the prior state.
	m.SetLayerVisible(0, true)
	if got := visibilitySnapshot(m); len(got) != len(before) {
		t.Fatal("object set changed")
	} else {
		for name, vis := range before {
			if got[name] != vis {
				t.Errorf("object %q: visibility %v after round trip, want %v", name, got[name], vis)
			}
		}
	}
}

func TestUnlayeredObjectsImmuneToToggles(t *testing.T) {
	m := layeredModel(t)

	m.SetLayerVisible(0, false)
	m.SetLayerVisible(1, false)
	m.SetLayerVisible(0, true)
	m.SetLayerVisible(1, false)

	for _, o := range m.Objects() {
		if o.LayerIndex == NoLayer && !o.Visible {
			t.Errorf("unlayered object %q became invisible", o.Name)
		}
	}
}

func TestSetLayerVisibleUnknownIndex(t *testing.T) {
	m := layeredModel(t)
	before := visibilitySnapshot(m)

	m.SetLayerVisible(42, false)

	for name, vis := range visibilitySnapshot(m) {
		if vis != before[name] {
			t.Errorf("object %q changed on unknown-layer toggle", name)
		}
	}
}

func TestVisibilityMapTracksToggles(t *testing.T) {
	m := layeredModel(t)

	m.SetLayerVisible(1, false)

	vm := m.VisibilityMap()
	if !vm[0] || vm[1] {
		t.Errorf("VisibilityMap = %v, want {0:true 1:false}", vm)
	}
}

func TestDisposeReleasesOnce(t *testing.T) {
	m := layeredModel(t)

	var releasers []*countingReleaser
	for _, o := range m.Objects() {
		geom := &countingReleaser{}
		mat := &countingReleaser{}
		o.AttachResources(geom, mat)
		releasers = append(releasers, geom, mat)
	}

	m.Dispose()
	m.Dispose() // double dispose is a defect if it releases again

	if !m.Disposed() {
		t.Error("model should report disposed")
	}
	for i, r := range releasers {
		if r.releases != 1 {
			t.Errorf("releaser %d released %d times, want 1", i, r.releases)
		}
	}
}

func TestDisposeNilModel(t *testing.T) {
	var m *Model
	m.Dispose() // must not panic
	if !m.Disposed() {
		t.Error("nil model counts as disposed")
	}
}

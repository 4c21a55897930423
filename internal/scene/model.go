package scene

import (
	"github.com/forma3d/formaview/internal/layers"
	"github.com/forma3d/formaview/pkg/math"
)

// Model is the normalized scene for one load. It exclusively owns its
// objects, their GPU resources, and the layer registry; all three are
// discarded together when the model is disposed.
type Model struct {
	// ID is the persisted model identifier, empty for local drag-in files
	// (which have no identity to anchor annotations to).
	ID string
	// Name is the display name of the source file.
	Name string

	objects   []*Object
	buckets   map[int][]*Object
	registry  *layers.Registry
	placement Placement
	matrix    math.Mat4
	bounds    math.Box3
	disposed  bool
}

// Objects returns all mesh-bearing sub-objects.
func (m *Model) Objects() []*Object {
	return m.objects
}

// Matrix returns the canonical placement matrix, applied exactly once per
// load. It never changes after normalization.
func (m *Model) Matrix() math.Mat4 {
	return m.matrix
}

// Placement returns the computed canonical placement.
func (m *Model) Placement() Placement {
	return m.placement
}

// Bounds returns the model bounding box under the canonical placement.
func (m *Model) Bounds() math.Box3 {
	return m.bounds
}

// Layers returns the layer descriptors, ordered by index ascending.
func (m *Model) Layers() []layers.Descriptor {
	return m.registry.List()
}

// VisibilityMap returns the current layer visibility mapping.
func (m *Model) VisibilityMap() map[int]bool {
	return m.registry.VisibilityMap()
}

// SetLayerVisible toggles exactly the sub-objects in the given layer's
// membership bucket. Geometry, transforms, and other layers are untouched;
// nothing reloads or renormalizes. Unknown indices are a no-op.
func (m *Model) SetLayerVisible(index int, visible bool) {
	if !m.registry.SetVisible(index, visible) {
		return
	}
	for _, o := range m.buckets[index] {
		o.Visible = visible
	}
}

// LayerObjects returns the membership bucket for a layer index.
func (m *Model) LayerObjects(index int) []*Object {
	return m.buckets[index]
}

// Disposed reports whether the model's resources have been released.
func (m *Model) Disposed() bool {
	return m == nil || m.disposed
}

// Dispose releases every object's resources. It runs at most once; repeat
// calls are no-ops. After disposal the model must not be rendered.
func (m *Model) Dispose() {
	if m == nil || m.disposed {
		return
	}
	m.disposed = true
	for _, o := range m.objects {
		o.release()
	}
}

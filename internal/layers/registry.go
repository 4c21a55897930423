// Package layers holds the per-model layer registry: display metadata and
// visibility state for every named sub-group of the loaded model. A registry
// belongs to exactly one load and is rebuilt from scratch on the next one.
package layers

import (
	"fmt"
	"sort"

	"github.com/forma3d/formaview/internal/decoder"
)

// Descriptor is the display metadata for one layer.
type Descriptor struct {
	// Index is the decoder-assigned layer index, unique and stable for one
	// loaded model.
	Index int
	// Name is never empty: it falls back to "Layer N" (1-based) when the
	// decoder metadata carries no usable name.
	Name    string
	Visible bool
}

// SynthesizeName returns the deterministic fallback name for a layer index.
func SynthesizeName(index int) string {
	return fmt.Sprintf("Layer %d", index+1)
}

// Registry maps layer indices to descriptors, ordered by index ascending.
type Registry struct {
	byIndex map[int]*Descriptor
	ordered []*Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byIndex: make(map[int]*Descriptor)}
}

// Register adds a descriptor for the given index, deriving name and default
// visibility from the decoder metadata. The first registration of an index
// wins; later ones are ignored.
func (r *Registry) Register(index int, meta decoder.LayerMeta) {
	if _, exists := r.byIndex[index]; exists {
		return
	}

	name := meta.DisplayName()
	if name == "" {
		name = SynthesizeName(index)
	}

	d := &Descriptor{Index: index, Name: name, Visible: !meta.Hidden}
	r.byIndex[index] = d

	// Insert keeping ascending index order; layer counts are small.
	pos := sort.Search(len(r.ordered), func(i int) bool {
		return r.ordered[i].Index > index
	})
	r.ordered = append(r.ordered, nil)
	copy(r.ordered[pos+1:], r.ordered[pos:])
	r.ordered[pos] = d
}

// Get returns the descriptor for an index.
func (r *Registry) Get(index int) (Descriptor, bool) {
	d, ok := r.byIndex[index]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// SetVisible flips the stored visibility flag. Unknown indices are a no-op.
// Returns true when the index exists.
func (r *Registry) SetVisible(index int, visible bool) bool {
	d, ok := r.byIndex[index]
	if !ok {
		return false
	}
	d.Visible = visible
	return true
}

// List returns the descriptors ordered by index ascending.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.ordered))
	for i, d := range r.ordered {
		out[i] = *d
	}
	return out
}

// VisibilityMap returns the current index-to-visibility mapping.
func (r *Registry) VisibilityMap() map[int]bool {
	m := make(map[int]bool, len(r.byIndex))
	for idx, d := range r.byIndex {
		m[idx] = d.Visible
	}
	return m
}

// Len returns the number of registered layers.
func (r *Registry) Len() int {
	return len(r.ordered)
}

package layers

import (
	"testing"

	"github.com/forma3d/formaview/internal/decoder"
)

func TestRegisterOrdering(t *testing.T) {
	r := NewRegistry()
	r.Register(4, decoder.LayerMeta{Name: "Roof"})
	r.Register(0, decoder.LayerMeta{Name: "Walls"})
	r.Register(2, decoder.LayerMeta{Name: "Floors"})

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(list))
	}
	for i, want := range []int{0, 2, 4} {
		if list[i].Index != want {
			t.Errorf("list[%d].Index = %d, want %d", i, list[i].Index, want)
		}
	}
}

func TestRegisterFirstOccurrenceWins(t *testing.T) {
	r := NewRegistry()
	r.Register(1, decoder.LayerMeta{Name: "First"})
	r.Register(1, decoder.LayerMeta{Name: "Second", Hidden: true})

	d, ok := r.Get(1)
	if !ok {
		t.Fatal("layer 1 missing")
	}
	if d.Name != "First" {
		t.Errorf("Name = %q, want First", d.Name)
	}
	if !d.Visible {
		t.Error("later registration must not change visibility default")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestNameSynthesis(t *testing.T) {
	tests := []struct {
		name string
		meta decoder.LayerMeta
		idx  int
		want string
	}{
		{"real name", decoder.LayerMeta{Name: "Walls"}, 0, "Walls"},
		{"full path fallback", decoder.LayerMeta{FullPath: "Site::Trees"}, 1, "Site::Trees"},
		{"empty synthesizes", decoder.LayerMeta{}, 2, "Layer 3"},
		{"whitespace synthesizes", decoder.LayerMeta{Name: "  \t"}, 0, "Layer 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			r.Register(tt.idx, tt.meta)
			d, _ := r.Get(tt.idx)
			if d.Name != tt.want {
				t.Errorf("Name = %q, want %q", d.Name, tt.want)
			}
		})
	}
}

func TestDefaultVisibility(t *testing.T) {
	r := NewRegistry()
	r.Register(0, decoder.LayerMeta{Name: "Shown"})
	r.Register(1, decoder.LayerMeta{Name: "Hidden", Hidden: true})

	if d, _ := r.Get(0); !d.Visible {
		t.Error("layer 0 should default visible")
	}
	if d, _ := r.Get(1); d.Visible {
		t.Error("layer 1 should honor decoder hidden flag")
	}
}

func TestSetVisible(t *testing.T) {
	r := NewRegistry()
	r.Register(0, decoder.LayerMeta{Name: "Walls"})

	if !r.SetVisible(0, false) {
		t.Error("SetVisible on known index should return true")
	}
	if d, _ := r.Get(0); d.Visible {
		t.Error("visibility should be off")
	}

	// Unknown index is a no-op, not an error.
	if r.SetVisible(99, true) {
		t.Error("SetVisible on unknown index should return false")
	}

	m := r.VisibilityMap()
	if len(m) != 1 || m[0] {
		t.Errorf("VisibilityMap = %v", m)
	}
}

package decoder

import (
	"encoding/json"
	"strings"
)

// LayerMeta is the validated display metadata for one layer entry from the
// scene root's "layers" list. Zero value means "no usable metadata".
type LayerMeta struct {
	Name     string
	FullPath string
	// Hidden is true only when the decoder explicitly marked the layer
	// invisible. Absent or malformed visibility defaults to visible.
	Hidden bool
}

// DisplayName returns the best human-readable name, preferring Name over
// FullPath. Whitespace-only values count as absent.
func (m LayerMeta) DisplayName() string {
	if name := strings.TrimSpace(m.Name); name != "" {
		return name
	}
	return strings.TrimSpace(m.FullPath)
}

// LayerIndex extracts the layer index from a node attribute bag. The decoder
// may deliver the index as any numeric type (or as a json.Number when the
// metadata passed through JSON). Negative values and non-numerics are
// rejected.
func LayerIndex(attrs map[string]any) (int, bool) {
	if attrs == nil {
		return 0, false
	}
	raw, ok := attrs["layerIndex"]
	if !ok {
		return 0, false
	}

	var idx int
	switch v := raw.(type) {
	case int:
		idx = v
	case int32:
		idx = int(v)
	case int64:
		idx = int(v)
	case uint32:
		idx = int(v)
	case float32:
		if v != float32(int(v)) {
			return 0, false
		}
		idx = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		idx = int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		idx = int(n)
	default:
		return 0, false
	}

	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// LayerMetas coerces the scene root's "layers" entry into typed metadata,
// indexed by layer index. Missing, short, or malformed entries come back as
// zero values rather than failing the load.
func LayerMetas(userData map[string]any) []LayerMeta {
	if userData == nil {
		return nil
	}
	raw, ok := userData["layers"].([]any)
	if !ok {
		return nil
	}

	metas := make([]LayerMeta, len(raw))
	for i, entry := range raw {
		bag, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if name, ok := bag["name"].(string); ok {
			metas[i].Name = name
		}
		if path, ok := bag["fullPath"].(string); ok {
			metas[i].FullPath = path
		}
		if visible, ok := bag["visible"].(bool); ok {
			metas[i].Hidden = !visible
		}
	}
	return metas
}

// MetaAt returns the metadata for the given layer index, or a zero value when
// the list is shorter than the index (objects can reference layers the root
// metadata never describes).
func MetaAt(metas []LayerMeta, index int) LayerMeta {
	if index < 0 || index >= len(metas) {
		return LayerMeta{}
	}
	return metas[index]
}

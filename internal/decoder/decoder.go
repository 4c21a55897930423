// Package decoder defines the contract with the external binary CAD decoder
// and coerces its untyped metadata into values the rest of the viewer can
// trust. Parsing itself lives in the decoder implementation, not here.
package decoder

import (
	"context"
	"errors"
	"fmt"
)

// ErrDecode marks a malformed or unsupported file. Implementations wrap it so
// callers can classify failures with errors.Is.
var ErrDecode = errors.New("decode failed")

// DecodeErrorf builds a decode failure wrapping ErrDecode.
func DecodeErrorf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrDecode)...)
}

// Decoder turns raw file bytes into a scene graph. Implementations are
// external; the viewer only relies on this contract.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*RawScene, error)
}

// Func adapts a plain function to the Decoder interface.
type Func func(ctx context.Context, data []byte) (*RawScene, error)

// Decode implements Decoder.
func (f Func) Decode(ctx context.Context, data []byte) (*RawScene, error) {
	return f(ctx, data)
}

// RawScene is the decoder's output: a flat list of mesh-bearing nodes plus
// the untyped metadata bag attached to the scene root.
type RawScene struct {
	// UserData carries decoder metadata of unknown shape. The "layers" key,
	// when present, holds the per-layer display metadata.
	UserData map[string]any

	Nodes []RawNode
}

// RawNode is one mesh-bearing object from the decoder.
type RawNode struct {
	Name string

	// Positions holds the vertex positions, three floats per vertex, already
	// in the node's local space.
	Positions []float32

	// Indices holds triangle indices into Positions. Empty means the
	// positions form an unindexed triangle list.
	Indices []uint32

	// Normals holds per-vertex normals, three floats per vertex. May be
	// empty; the renderer derives flat normals in that case.
	Normals []float32

	// Attributes carries per-object decoder metadata of unknown shape,
	// including the optional "layerIndex" key.
	Attributes map[string]any
}

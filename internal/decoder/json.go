package decoder

import (
	"bytes"
	"context"
	"encoding/json"
)

// jsonScene mirrors the scene interchange format emitted by the
// conversion pipeline: the object hierarchy already flattened to
// mesh-bearing nodes, with layer metadata preserved on the root.
type jsonScene struct {
	UserData map[string]any `json:"userData"`
	Nodes    []jsonNode     `json:"nodes"`
}

type jsonNode struct {
	Name       string         `json:"name"`
	Positions  []float32      `json:"positions"`
	Indices    []uint32       `json:"indices"`
	Normals    []float32      `json:"normals"`
	Attributes map[string]any `json:"attributes"`
}

// JSON returns a Decoder for the JSON scene interchange format. Numbers
// in the metadata bags stay json.Number so the coercion helpers can
// classify them.
func JSON() Decoder {
	return Func(func(_ context.Context, data []byte) (*RawScene, error) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		var s jsonScene
		if err := dec.Decode(&s); err != nil {
			return nil, DecodeErrorf("parse scene json: %v", err)
		}
		if len(s.Nodes) == 0 {
			return nil, DecodeErrorf("scene has no mesh nodes")
		}

		raw := &RawScene{
			UserData: s.UserData,
			Nodes:    make([]RawNode, 0, len(s.Nodes)),
		}
		for _, n := range s.Nodes {
			raw.Nodes = append(raw.Nodes, RawNode{
				Name:       n.Name,
				Positions:  n.Positions,
				Indices:    n.Indices,
				Normals:    n.Normals,
				Attributes: n.Attributes,
			})
		}
		return raw, nil
	})
}

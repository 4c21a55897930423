// Package scene owns the normalized model for the current load: canonical
// placement, layer partitioning, visibility control, and resource teardown.
package scene

import (
	"github.com/forma3d/formaview/pkg/math"
)

// NoLayer marks an object the decoder assigned no layer index. Such objects
// stay outside visibility control and are always drawn.
const NoLayer = -1

// Releaser frees a renderer-owned resource (GPU buffers, textures).
type Releaser interface {
	Release()
}

// Object is one mesh-bearing sub-object of the loaded model. Geometry is
// read-only after construction; only the visibility flag mutates.
type Object struct {
	Name string

	// Positions are vertex positions in the model's source space, three
	// floats per vertex. Normalization never rewrites them; the canonical
	// placement lives in the model matrix.
	Positions []float32
	Indices   []uint32
	Normals   []float32

	// LayerIndex is the decoder-assigned layer, or NoLayer.
	LayerIndex int

	Visible bool

	bounds      math.Box3
	worldBounds math.Box3

	geometry Releaser
	material Releaser
	released bool
}

// NewObject builds an object from decoder geometry and computes its local
// bounding box.
func NewObject(name string, positions []float32, indices []uint32, normals []float32, layerIndex int) *Object {
	o := &Object{
		Name:       name,
		Positions:  positions,
		Indices:    indices,
		Normals:    normals,
		LayerIndex: layerIndex,
		Visible:    true,
		bounds:     math.EmptyBox3(),
	}
	for i := 0; i+2 < len(positions); i += 3 {
		o.bounds = o.bounds.ExpandByPoint(math.Vec3{
			X: positions[i], Y: positions[i+1], Z: positions[i+2],
		})
	}
	o.worldBounds = o.bounds
	return o
}

// Bounds returns the local-space bounding box.
func (o *Object) Bounds() math.Box3 {
	return o.bounds
}

// WorldBounds returns the bounding box under the model's normalized placement.
func (o *Object) WorldBounds() math.Box3 {
	return o.worldBounds
}

// TriangleCount returns the number of triangles in the mesh.
func (o *Object) TriangleCount() int {
	if len(o.Indices) > 0 {
		return len(o.Indices) / 3
	}
	return len(o.Positions) / 9
}

// AttachResources hands renderer-owned resources to the object. They are
// released exactly once when the owning model is disposed.
func (o *Object) AttachResources(geometry, material Releaser) {
	o.geometry = geometry
	o.material = material
}

func (o *Object) release() {
	if o.released {
		return
	}
	o.released = true
	if o.geometry != nil {
		o.geometry.Release()
	}
	if o.material != nil {
		o.material.Release()
	}
}

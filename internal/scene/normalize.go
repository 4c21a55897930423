package scene

import (
	gomath "math"

	"github.com/forma3d/formaview/internal/decoder"
	"github.com/forma3d/formaview/internal/layers"
	"github.com/forma3d/formaview/pkg/math"
)

// CanonicalSize is the target extent of a normalized model: the largest
// bounding-box axis maps to this many scene units, so models authored in
// millimeters, meters, or feet frame identically under the fixed camera.
const CanonicalSize = 2.0

// Placement is the canonical transform computed once per load.
type Placement struct {
	// Translation moves the source bounding-box center to the origin.
	Translation math.Vec3
	// Scale maps the largest extent to CanonicalSize. 1 for degenerate
	// (zero-extent) models.
	Scale float32
	// UpCorrection is the fixed -90 degree rotation about X that converts
	// the source format's Z-up convention to the scene's Y-up.
	UpCorrection float32
}

// Matrix returns the composed placement matrix (translate, then scale, then
// rotate).
func (p Placement) Matrix() math.Mat4 {
	t := math.Translate(-p.Translation.X, -p.Translation.Y, -p.Translation.Z)
	s := math.Scale(p.Scale, p.Scale, p.Scale)
	r := math.RotateX(p.UpCorrection)
	return r.Mul(s).Mul(t)
}

// Normalize consumes a decoded scene and produces the session-owned model:
// canonical placement plus sub-objects partitioned by layer. The input
// geometry is referenced, not copied, and its topology is never mutated.
func Normalize(raw *decoder.RawScene) *Model {
	objects := make([]*Object, 0, len(raw.Nodes))
	for i := range raw.Nodes {
		node := &raw.Nodes[i]
		if len(node.Positions) < 3 {
			continue
		}
		idx, ok := decoder.LayerIndex(node.Attributes)
		if !ok {
			idx = NoLayer
		}
		objects = append(objects, NewObject(node.Name, node.Positions, node.Indices, node.Normals, idx))
	}

	// Bounding box over all renderable sub-objects, in source space.
	bounds := math.EmptyBox3()
	for _, o := range objects {
		bounds = bounds.Union(o.Bounds())
	}

	placement := Placement{
		Scale:        1,
		UpCorrection: float32(-gomath.Pi / 2),
	}
	if !bounds.IsEmpty() {
		placement.Translation = bounds.Center()
		if extent := bounds.MaxExtent(); extent > 0 {
			placement.Scale = CanonicalSize / extent
		}
	}

	m := &Model{
		objects:   objects,
		buckets:   make(map[int][]*Object),
		registry:  layers.NewRegistry(),
		placement: placement,
		matrix:    placement.Matrix(),
		bounds:    math.EmptyBox3(),
	}

	// Recompute world placement once, then bucket by layer in a single pass.
	metas := decoder.LayerMetas(raw.UserData)
	for _, o := range objects {
		o.worldBounds = o.bounds.Transform(m.matrix)
		m.bounds = m.bounds.Union(o.worldBounds)

		if o.LayerIndex == NoLayer {
			continue
		}
		m.buckets[o.LayerIndex] = append(m.buckets[o.LayerIndex], o)
		m.registry.Register(o.LayerIndex, decoder.MetaAt(metas, o.LayerIndex))
	}

	// Seed object visibility from the registry defaults (a decoder may mark
	// a layer hidden on load).
	for idx, bucket := range m.buckets {
		d, _ := m.registry.Get(idx)
		for _, o := range bucket {
			o.Visible = d.Visible
		}
	}

	return m
}

// Package picking casts screen rays against the loaded model's meshes.
package picking

import (
	gomath "math"

	"github.com/forma3d/formaview/internal/scene"
	"github.com/forma3d/formaview/pkg/math"
)

// Ray is a world-space ray with a normalized direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// ScreenToRay converts pixel coordinates to a world-space ray.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	// Normalized device coords, Y flipped
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH

	nearPoint := math.Vec4{ndcX, ndcY, -1.0, 1.0}
	farPoint := math.Vec4{ndcX, ndcY, 1.0, 1.0}

	nearWorld := invViewProj.MulVec4(nearPoint)
	farWorld := invViewProj.MulVec4(farPoint)

	// Perspective divide
	if nearWorld[3] != 0 {
		nearWorld[0] /= nearWorld[3]
		nearWorld[1] /= nearWorld[3]
		nearWorld[2] /= nearWorld[3]
	}
	if farWorld[3] != 0 {
		farWorld[0] /= farWorld[3]
		farWorld[1] /= farWorld[3]
		farWorld[2] /= farWorld[3]
	}

	origin := math.Vec3{X: nearWorld[0], Y: nearWorld[1], Z: nearWorld[2]}
	dir := math.Vec3{
		X: farWorld[0] - nearWorld[0],
		Y: farWorld[1] - nearWorld[1],
		Z: farWorld[2] - nearWorld[2],
	}
	if dir.Length() > 0 {
		dir = dir.Normalize()
	}

	return Ray{Origin: origin, Direction: dir}
}

// IntersectBox tests the ray against an axis-aligned box with the slab
// method. Returns the entry distance, or the exit distance when the ray
// starts inside.
func (r Ray) IntersectBox(box math.Box3) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origins := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dirs := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	mins := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	maxs := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}

	for axis := 0; axis < 3; axis++ {
		if dirs[axis] != 0 {
			t1 := (mins[axis] - origins[axis]) / dirs[axis]
			t2 := (maxs[axis] - origins[axis]) / dirs[axis]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > tmin {
				tmin = t1
			}
			if t2 < tmax {
				tmax = t2
			}
		} else if origins[axis] < mins[axis] || origins[axis] > maxs[axis] {
			return 0, false
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle runs the Moller-Trumbore test against one triangle.
// Back faces count as hits; CAD surfaces are viewed from both sides.
func (r Ray) IntersectTriangle(a, b, c math.Vec3) (t float32, hit bool) {
	const epsilon = 1e-7

	edge1 := b.Sub(a)
	edge2 := c.Sub(a)

	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)
	if det > -epsilon && det < epsilon {
		return 0, false // Parallel to the triangle plane
	}
	invDet := 1 / det

	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t = edge2.Dot(q) * invDet
	if t < epsilon {
		return 0, false
	}
	return t, true
}

// Hit is the nearest surface point found by PickModel.
type Hit struct {
	Object *scene.Object
	// Point is in the normalized world frame, the same frame annotation
	// positions are stored in.
	Point    math.Vec3
	Distance float32
}

// PickModel intersects the ray with every visible object's triangles and
// returns the nearest hit. Hidden layers never pick; per-object bounds
// reject most objects before any triangle test.
func PickModel(r Ray, model *scene.Model) (Hit, bool) {
	if model == nil {
		return Hit{}, false
	}

	matrix := model.Matrix()
	best := Hit{Distance: float32(gomath.MaxFloat32)}
	found := false

	for _, obj := range model.Objects() {
		if !obj.Visible {
			continue
		}
		if boxT, ok := r.IntersectBox(obj.WorldBounds()); !ok || boxT > best.Distance {
			continue
		}

		for tri := 0; tri < obj.TriangleCount(); tri++ {
			a, b, c := triangleWorld(obj, tri, matrix)
			if t, ok := r.IntersectTriangle(a, b, c); ok && t < best.Distance {
				best = Hit{Object: obj, Point: r.At(t), Distance: t}
				found = true
			}
		}
	}
	return best, found
}

func triangleWorld(obj *scene.Object, tri int, matrix math.Mat4) (a, b, c math.Vec3) {
	var i0, i1, i2 int
	if len(obj.Indices) > 0 {
		i0 = int(obj.Indices[tri*3])
		i1 = int(obj.Indices[tri*3+1])
		i2 = int(obj.Indices[tri*3+2])
	} else {
		i0, i1, i2 = tri*3, tri*3+1, tri*3+2
	}
	return matrix.MulPoint(vertex(obj.Positions, i0)),
		matrix.MulPoint(vertex(obj.Positions, i1)),
		matrix.MulPoint(vertex(obj.Positions, i2))
}

func vertex(positions []float32, i int) math.Vec3 {
	return math.Vec3{X: positions[i*3], Y: positions[i*3+1], Z: positions[i*3+2]}
}

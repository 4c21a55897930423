// Package camera provides the orbit camera used to inspect a model.
package camera

import (
	gomath "math"

	"github.com/forma3d/formaview/pkg/math"
)

// OrbitCamera orbits around a center point. Because every loaded model is
// normalized to the same canonical size at the origin, the defaults frame
// any model without a per-model fit.
type OrbitCamera struct {
	Center math.Vec3

	// Spherical coordinates
	Distance float32 // Distance from center
	Pitch    float32 // Vertical angle, radians
	Yaw      float32 // Horizontal angle, radians

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
	PanSensitivity  float32
}

// NewOrbitCamera creates an orbit camera framing the canonical model box.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        5.0,
		Pitch:           0.5,
		Yaw:             0.0,
		MinDistance:     0.5,
		MaxDistance:     50.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		PanSensitivity:  0.002,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.Pitch))*gomath.Sin(float64(c.Yaw)))
	y := c.Distance * float32(gomath.Sin(float64(c.Pitch)))
	z := c.Distance * float32(gomath.Cos(float64(c.Pitch))*gomath.Cos(float64(c.Yaw)))

	return math.Vec3{
		X: c.Center.X + x,
		Y: c.Center.Y + y,
		Z: c.Center.Z + z,
	}
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position(), c.Center, up)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.DragSensitivity
	c.Pitch += deltaY * c.DragSensitivity

	// Clamp pitch
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// HandlePan moves the center in the camera plane, so the model appears to
// follow the pointer. Speed scales with distance for a consistent feel.
func (c *OrbitCamera) HandlePan(deltaX, deltaY float32) {
	forward := c.Center.Sub(c.Position()).Normalize()
	worldUp := math.Vec3{X: 0, Y: 1, Z: 0}
	right := forward.Cross(worldUp).Normalize()
	up := right.Cross(forward)

	speed := c.Distance * c.PanSensitivity
	c.Center = c.Center.
		Add(right.Scale(-deltaX * speed)).
		Add(up.Scale(deltaY * speed))
}

// Reset returns the camera to the default framing of a freshly loaded
// model. Loading never calls this implicitly; the pose survives a reload.
func (c *OrbitCamera) Reset() {
	def := NewOrbitCamera()
	c.Center = def.Center
	c.Distance = def.Distance
	c.Pitch = def.Pitch
	c.Yaw = def.Yaw
}

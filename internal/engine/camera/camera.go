// Package camera provides camera implementations for 3D rendering.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// FlyCamera is a free-flying first-person camera. It can carry a culling
// matrix override that replaces its projection*view for culling only.
type FlyCamera struct {
	Pos mgl32.Vec3

	// Yaw rotates around +Y, 0 looks down -Z. Pitch is up/down. Radians.
	Yaw   float32
	Pitch float32

	FOV    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32

	// Constraints
	MinPitch float32
	MaxPitch float32

	// Sensitivity
	LookSensitivity float32
	MoveSpeed       float32

	culling    mgl32.Mat4
	overridden bool
}

// NewFlyCamera creates a fly camera with default settings.
func NewFlyCamera(fov, aspect, near, far float32) *FlyCamera {
	return &FlyCamera{
		FOV:             fov,
		Aspect:          aspect,
		Near:            near,
		Far:             far,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		LookSensitivity: 0.003,
		MoveSpeed:       60,
	}
}

func (c *FlyCamera) Position() mgl32.Vec3 { return c.Pos }
func (c *FlyCamera) FieldOfView() float32 { return c.FOV }
func (c *FlyCamera) AspectRatio() float32 { return c.Aspect }
func (c *FlyCamera) NearClip() float32    { return c.Near }
func (c *FlyCamera) FarClip() float32     { return c.Far }

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() mgl32.Vec3 {
	cp := float32(gomath.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		-float32(gomath.Sin(float64(c.Yaw))) * cp,
		float32(gomath.Sin(float64(c.Pitch))),
		-float32(gomath.Cos(float64(c.Yaw))) * cp,
	}
}

// Right returns the unit right vector on the horizontal plane.
func (c *FlyCamera) Right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(gomath.Cos(float64(c.Yaw))),
		0,
		-float32(gomath.Sin(float64(c.Yaw))),
	}
}

// ViewMatrix returns the world-to-camera matrix.
func (c *FlyCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Pos, c.Pos.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix returns the perspective projection.
func (c *FlyCamera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *FlyCamera) ViewProjection() mgl32.Mat4 {
	return c.ProjectionMatrix().Mul4(c.ViewMatrix())
}

// CullingMatrix returns the override if one is set, else ViewProjection.
func (c *FlyCamera) CullingMatrix() mgl32.Mat4 {
	if c.overridden {
		return c.culling
	}
	return c.ViewProjection()
}

// SetCullingMatrix overrides the culling matrix until ResetCullingMatrix.
func (c *FlyCamera) SetCullingMatrix(m mgl32.Mat4) {
	c.culling = m
	c.overridden = true
}

func (c *FlyCamera) ResetCullingMatrix() {
	c.overridden = false
}

// HasCullingOverride reports whether SetCullingMatrix is in effect.
func (c *FlyCamera) HasCullingOverride() bool {
	return c.overridden
}

// HandleLook updates yaw and pitch from a mouse delta in pixels.
func (c *FlyCamera) HandleLook(deltaX, deltaY float32) {
	c.Yaw -= deltaX * c.LookSensitivity
	c.Pitch -= deltaY * c.LookSensitivity

	// Clamp pitch
	if c.Pitch < c.MinPitch {
		c.Pitch = c.MinPitch
	}
	if c.Pitch > c.MaxPitch {
		c.Pitch = c.MaxPitch
	}
}

// HandleMovement moves the camera. forward and right follow the view
// direction, up is world up. dt is in seconds.
func (c *FlyCamera) HandleMovement(forward, right, up, dt float32) {
	step := c.MoveSpeed * dt
	move := c.Forward().Mul(forward).
		Add(c.Right().Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
	c.Pos = c.Pos.Add(move.Mul(step))
}

// SetAspect updates the aspect ratio after a resize.
func (c *FlyCamera) SetAspect(width, height int) {
	if height > 0 {
		c.Aspect = float32(width) / float32(height)
	}
}

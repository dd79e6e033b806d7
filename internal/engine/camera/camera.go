// Package camera provides the free-flying camera the scene is viewed through.
package camera

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/pkg/math"
)

// Camera is a left-handed fly camera: yaw around +Y, pitch around the local X axis.
type Camera struct {
	position mgl32.Vec3
	yaw      float32 // radians
	pitch    float32 // radians

	fov    float32 // vertical, radians
	near   float32
	far    float32
	aspect float32

	// Sensitivity
	MoveSpeed float32 // world units per second
	LookSpeed float32 // radians per 100 pixels of drag

	MaxPitch float32

	view       mgl32.Mat4
	projection mgl32.Mat4
}

// New creates a camera at position looking down +Z.
func New(position mgl32.Vec3, aspect float32) *Camera {
	c := &Camera{
		position:  position,
		fov:       mgl32.DegToRad(45),
		near:      0.01,
		far:       1000,
		aspect:    aspect,
		MoveSpeed: 3,
		LookSpeed: 1,
		MaxPitch:  gomath.Pi/2 - 0.01,
	}
	c.updateView()
	c.UpdateProjection(aspect)
	return c
}

// SetFieldOfView sets the vertical field of view in degrees.
func (c *Camera) SetFieldOfView(degrees float32) {
	c.fov = mgl32.DegToRad(degrees)
	c.UpdateProjection(c.aspect)
}

// UpdateProjection rebuilds the projection for a new aspect ratio.
func (c *Camera) UpdateProjection(aspect float32) {
	if aspect <= 0 {
		aspect = 1
	}
	c.aspect = aspect
	c.projection = math.PerspectiveLH(c.fov, c.aspect, c.near, c.far)
}

func (c *Camera) Aspect() float32 { return c.aspect }

func (c *Camera) Position() mgl32.Vec3 { return c.position }

func (c *Camera) View() mgl32.Mat4 { return c.view }

func (c *Camera) Projection() mgl32.Mat4 { return c.projection }

func (c *Camera) Yaw() float32 { return c.yaw }

func (c *Camera) Pitch() float32 { return c.pitch }

// SetPosition moves the camera.
func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.position = p
	c.updateView()
}

// Forward returns the unit view direction.
func (c *Camera) Forward() mgl32.Vec3 {
	return math.ForwardFromPitchYaw(c.pitch, c.yaw)
}

// Right returns the unit right vector on the view plane.
func (c *Camera) Right() mgl32.Vec3 {
	return mgl32.Vec3{0, 1, 0}.Cross(c.Forward()).Normalize()
}

// HandleDrag rotates the camera by a mouse drag delta in pixels.
func (c *Camera) HandleDrag(deltaX, deltaY float32) {
	c.yaw += deltaX * c.LookSpeed * 0.01
	c.pitch += deltaY * c.LookSpeed * 0.01

	// Clamp pitch
	if c.pitch > c.MaxPitch {
		c.pitch = c.MaxPitch
	}
	if c.pitch < -c.MaxPitch {
		c.pitch = -c.MaxPitch
	}
	c.updateView()
}

// HandleMovement moves the camera along its own axes; each input is in [-1, 1].
// up moves along world +Y.
func (c *Camera) HandleMovement(forward, right, up, dt float32) {
	step := c.MoveSpeed * dt
	move := c.Forward().Mul(forward).
		Add(c.Right().Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
	c.position = c.position.Add(move.Mul(step))
	c.updateView()
}

func (c *Camera) updateView() {
	c.view = math.LookToLH(c.position, c.Forward(), mgl32.Vec3{0, 1, 0})
}

// Package input turns held controls into fly camera motion, independent of
// the window system that reports them.
package input

import "github.com/Faultbox/prism/internal/engine/camera"

// Action is a held control.
type Action int

const (
	MoveForward Action = iota
	MoveBack
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
	Fast
	Slow
)

// Source reports the controls held during the current frame.
type Source interface {
	Held(a Action) bool
	// LookDelta is the mouse-look drag since the previous frame, in pixels.
	LookDelta() (dx, dy float32)
}

// Controls turns held actions into fly camera motion.
type Controls struct {
	FastFactor float32
	SlowFactor float32
}

// DefaultControls speeds up five times with Fast and slows to a tenth with Slow.
var DefaultControls = Controls{FastFactor: 5, SlowFactor: 0.1}

// Axes returns the forward, right and up inputs in [-1, 1] scaled by the speed modifiers.
func (c Controls) Axes(src Source) (forward, right, up float32) {
	axis := func(pos, neg Action) float32 {
		var v float32
		if src.Held(pos) {
			v++
		}
		if src.Held(neg) {
			v--
		}
		return v
	}
	forward = axis(MoveForward, MoveBack)
	right = axis(MoveRight, MoveLeft)
	up = axis(MoveUp, MoveDown)

	scale := float32(1)
	if src.Held(Fast) {
		scale *= c.FastFactor
	}
	if src.Held(Slow) {
		scale *= c.SlowFactor
	}
	return forward * scale, right * scale, up * scale
}

// Apply moves and turns cam for one frame.
func (c Controls) Apply(src Source, cam *camera.Camera, dt float32) {
	if dx, dy := src.LookDelta(); dx != 0 || dy != 0 {
		cam.HandleDrag(dx, dy)
	}
	forward, right, up := c.Axes(src)
	if forward != 0 || right != 0 || up != 0 {
		cam.HandleMovement(forward, right, up, dt)
	}
}

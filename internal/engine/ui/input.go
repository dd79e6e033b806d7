package ui

import (
	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/prism/internal/engine/input"
)

// Keys maps camera actions to the ImGui keys that hold them.
var Keys = map[input.Action][]imgui.Key{
	input.MoveForward: {imgui.KeyW},
	input.MoveBack:    {imgui.KeyS},
	input.MoveLeft:    {imgui.KeyA},
	input.MoveRight:   {imgui.KeyD},
	input.MoveUp:      {imgui.KeySpace, imgui.KeyE},
	input.MoveDown:    {imgui.KeyX, imgui.KeyQ},
	input.Fast:        {imgui.KeyLeftShift, imgui.KeyRightShift},
	input.Slow:        {imgui.KeyLeftCtrl, imgui.KeyRightCtrl},
}

// Source reads held keys from ImGui and mouse-look from a left-button drag
// that no ImGui window claims. Keys are ignored while a text field has focus.
type Source struct {
	dx, dy float32
}

var _ input.Source = (*Source)(nil)

func (s *Source) Held(a input.Action) bool {
	if imgui.CurrentIO().WantTextInput() {
		return false
	}
	for _, k := range Keys[a] {
		if imgui.IsKeyDown(k) {
			return true
		}
	}
	return false
}

// LookDelta returns the drag recorded by TrackDrag and clears it.
func (s *Source) LookDelta() (dx, dy float32) {
	dx, dy = s.dx, s.dy
	s.dx, s.dy = 0, 0
	return dx, dy
}

// TrackDrag records this frame's drag. Call it once per frame.
func (s *Source) TrackDrag() {
	io := imgui.CurrentIO()
	if io.WantCaptureMouse() || !imgui.IsMouseDragging(imgui.MouseButtonLeft) {
		return
	}
	d := io.MouseDelta()
	s.dx += d.X
	s.dy += d.Y
}

// Package studio is the interactive front end: the rendered scene fills the
// window and ImGui panels inspect and edit lights, entities, materials, render
// targets, motion blur, terrain and particle emitters.
package studio

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/app"
	"github.com/Faultbox/prism/internal/engine/debug"
	"github.com/Faultbox/prism/internal/engine/renderer"
	"github.com/Faultbox/prism/internal/engine/ui"
	"github.com/Faultbox/prism/internal/logger"
)

const (
	// maxFrameTime caps dt so a stalled frame does not fling the camera.
	maxFrameTime   = 0.25
	noticeDuration = 3 * time.Second
	windowTitle    = "Prism Studio"
)

// Studio drives an app.App from the ImGui host and draws its panels as the
// renderer overlay.
type Studio struct {
	app  *app.App
	host *ui.Host
	log  *zap.Logger

	input      ui.Source
	fps        debug.FPSCounter
	last       time.Time
	showPanels bool

	// Set by native dialogs, consumed on the main thread.
	picks chan pick

	notice   string
	noticeAt time.Time

	blurSamples int32
	blurMax     int32
}

// New wires the studio into a's renderer as its overlay.
func New(a *app.App, host *ui.Host) *Studio {
	r := a.Renderer()
	s := &Studio{
		app:         a,
		host:        host,
		log:         logger.Named("studio"),
		last:        time.Now(),
		showPanels:  a.Config().Graphics.DebugUI,
		picks:       make(chan pick, 4),
		blurSamples: int32(r.MotionBlurSamples()),
		blurMax:     int32(r.MotionBlurMax()),
	}
	r.SetOverlay(s)
	return s
}

// Frame advances and renders one frame. It is the host's loop body.
func (s *Studio) Frame() {
	now := time.Now()
	dt := min(float32(now.Sub(s.last).Seconds()), maxFrameTime)
	s.last = now
	if s.fps.Add(dt) {
		s.host.SetWindowTitle(fmt.Sprintf("%s - %.0f FPS", windowTitle, s.fps.FPS()))
	}

	s.handlePicks()
	s.handleKeys()

	vp := imgui.MainViewport()
	size := vp.WorkSize()
	sx, sy := ui.FramebufferScale()
	if err := s.app.Resize(int(size.X*sx), int(size.Y*sy)); err != nil {
		s.log.Error("resize failed", zap.Error(err))
	}

	if err := s.app.Frame(dt, &s.input); err != nil {
		s.log.Error("frame failed", zap.Error(err))
	}
}

func (s *Studio) handleKeys() {
	if imgui.CurrentIO().WantTextInput() {
		return
	}
	switch {
	case ui.IsKeyPressed(imgui.KeyEscape):
		s.host.Quit()
	case ui.IsKeyPressed(imgui.KeyTab):
		s.app.RegenerateLights()
	case ui.IsKeyPressed(imgui.KeyF12):
		s.screenshot()
	case ui.IsKeyPressed(imgui.KeyF1):
		s.showPanels = !s.showPanels
	case imgui.IsKeyChordPressed(imgui.KeyChord(imgui.ModCtrl) | imgui.KeyChord(imgui.KeyO)):
		s.openOBJDialog()
	}
}

func (s *Studio) screenshot() {
	path, err := s.app.Screenshot()
	if err != nil {
		s.log.Error("screenshot failed", zap.Error(err))
		s.notify("Screenshot failed: " + err.Error())
		return
	}
	s.notify("Saved " + path)
}

func (s *Studio) notify(msg string) {
	s.notice = msg
	s.noticeAt = time.Now()
}

// Draw implements renderer.Overlay.
func (s *Studio) Draw(frame renderer.FrameInfo) {
	s.input.TrackDrag()
	s.drawMenuBar()

	vp := imgui.MainViewport()
	pos, size := vp.WorkPos(), vp.WorkSize()
	if id, ok := ui.TextureID(s.app.Device().BackBuffer()); ok {
		ui.DrawSceneTexture(pos.X, pos.Y, size.X, size.Y, id)
	}

	if s.showPanels {
		s.drawInfo(frame, pos)
	}
	s.drawNotice(pos, size)
}

func (s *Studio) drawMenuBar() {
	if !imgui.BeginMainMenuBar() {
		return
	}
	if imgui.BeginMenu("File") {
		if imgui.MenuItemBoolV("Import OBJ...", "Ctrl+O", false, true) {
			s.openOBJDialog()
		}
		if imgui.MenuItemBoolV("Screenshot", "F12", false, true) {
			s.screenshot()
		}
		if imgui.MenuItemBool("Screenshot folder...") {
			s.openScreenshotDirDialog()
		}
		imgui.Separator()
		if imgui.MenuItemBoolV("Exit", "Esc", false, true) {
			s.host.Quit()
		}
		imgui.EndMenu()
	}
	if imgui.BeginMenu("View") {
		if imgui.MenuItemBoolV("Panels", "F1", s.showPanels, true) {
			s.showPanels = !s.showPanels
		}
		if imgui.MenuItemBoolV("Regenerate lights", "Tab", false, true) {
			s.app.RegenerateLights()
		}
		imgui.EndMenu()
	}
	imgui.EndMainMenuBar()
}

func (s *Studio) drawNotice(pos, size imgui.Vec2) {
	if s.notice == "" {
		return
	}
	if time.Since(s.noticeAt) > noticeDuration {
		s.notice = ""
		return
	}

	msgWidth := float32(420)
	imgui.SetNextWindowPos(imgui.NewVec2(pos.X+(size.X-msgWidth)/2, pos.Y+size.Y-60))
	imgui.SetNextWindowSize(imgui.NewVec2(msgWidth, 0))
	imgui.SetNextWindowBgAlpha(0.8)
	flags := imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoResize |
		imgui.WindowFlagsNoMove | imgui.WindowFlagsNoInputs |
		imgui.WindowFlagsAlwaysAutoResize
	if imgui.BeginV("##Notice", nil, flags) {
		imgui.TextColored(imgui.NewVec4(0.2, 1.0, 0.2, 1.0), s.notice)
	}
	imgui.End()
}

// Package ui hosts the engine inside a Dear ImGui window.
package ui

import (
	"fmt"
	"os"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/logger"
)

// glyphRanges covers Latin text plus general punctuation and arrows.
var glyphRanges = []imgui.Wchar{
	0x0020, 0x00FF, // Basic Latin + Latin Supplement
	0x2000, 0x206F, // General Punctuation
	0x2190, 0x21FF, // Arrows
	0,
}

// DefaultFontPaths are tried in order; the first that exists is loaded.
var DefaultFontPaths = []string{
	"/System/Library/Fonts/SFNS.ttf",
	"/Library/Fonts/Arial Unicode.ttf",
	"C:\\Windows\\Fonts\\segoeui.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
}

// FontSize is the pixel size of the loaded UI font.
const FontSize = 16

// Host owns the ImGui window and its OpenGL context.
type Host struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	log     *zap.Logger
}

// NewHost creates the window. The OpenGL context is current on return, so
// a gpu device can be created right after.
func NewHost(title string, width, height int, fontPaths []string) (*Host, error) {
	h := &Host{log: logger.Named("ui")}

	var err error
	h.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	h.backend.SetAfterCreateContextHook(func() {
		h.loadFont(fontPaths)
	})
	h.backend.SetBgColor(imgui.NewVec4(0.1, 0.1, 0.12, 1.0))
	h.backend.CreateWindow(title, width, height)
	return h, nil
}

// loadFont loads the first font file that exists, keeping the ImGui default otherwise.
func (h *Host) loadFont(paths []string) {
	var fontPath string
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			fontPath = path
			break
		}
	}
	if fontPath == "" {
		h.log.Debug("no UI font found, using the built-in font")
		return
	}

	fontCfg := imgui.NewFontConfig()
	defer fontCfg.Destroy()

	imgui.CurrentIO().Fonts().AddFontFromFileTTFV(fontPath, FontSize, fontCfg, &glyphRanges[0])
	h.log.Debug("UI font loaded", zap.String("path", fontPath))
}

// Run calls frame once per displayed frame until the window closes.
func (h *Host) Run(frame func()) {
	h.backend.Run(frame)
}

// Quit closes the window after the current frame.
func (h *Host) Quit() {
	h.backend.SetShouldClose(true)
}

// SetWindowTitle updates the window title.
func (h *Host) SetWindowTitle(title string) {
	h.backend.SetWindowTitle(title)
}

// FramebufferScale is the ratio of framebuffer pixels to window points.
func FramebufferScale() (x, y float32) {
	s := imgui.CurrentIO().DisplayFramebufferScale()
	if s.X <= 0 || s.Y <= 0 {
		return 1, 1
	}
	return s.X, s.Y
}

// IsKeyPressed checks if a key was pressed this frame.
func IsKeyPressed(key imgui.Key) bool {
	return imgui.IsKeyChordPressed(imgui.KeyChord(key))
}

// IsKeyDown checks if a key is currently held down.
func IsKeyDown(key imgui.Key) bool {
	return imgui.IsKeyDown(key)
}

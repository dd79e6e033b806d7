// Package main runs the renderer in a plain SDL window without the studio UI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/app"
	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/engine/debug"
	"github.com/Faultbox/prism/internal/engine/gpu/opengl"
	"github.com/Faultbox/prism/internal/engine/window"
	"github.com/Faultbox/prism/internal/logger"
)

const (
	title        = "Prism"
	maxFrameTime = 0.25
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Prism ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg); err != nil {
		logger.Error("prism failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("closed normally")
}

func run(cfg *config.Config) error {
	win, err := window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	width, height := win.DrawableSize()
	dev, err := opengl.New(opengl.Options{Width: width, Height: height, Swap: win.SwapBuffers})
	if err != nil {
		return err
	}
	defer dev.Close()

	a, err := app.New(cfg, dev)
	if err != nil {
		return err
	}
	defer a.Close()

	return loop(win, a)
}

func loop(win *window.Window, a *app.App) error {
	in := window.NewInput()
	var fps debug.FPSCounter
	last := time.Now()

	for {
		now := time.Now()
		dt := min(float32(now.Sub(last).Seconds()), maxFrameTime)
		last = now

		if in.Update() || in.IsKeyPressed(sdl.SCANCODE_ESCAPE) {
			return nil
		}

		for _, e := range in.Events() {
			if e.Type == window.EventWindowResize {
				if err := a.Resize(win.DrawableSize()); err != nil {
					return fmt.Errorf("resize: %w", err)
				}
			}
		}
		if in.IsKeyPressed(sdl.SCANCODE_TAB) {
			a.RegenerateLights()
		}
		if in.IsKeyPressed(sdl.SCANCODE_F12) {
			if path, err := a.Screenshot(); err != nil {
				logger.Warn("screenshot failed", zap.Error(err))
			} else {
				logger.Info("screenshot saved", zap.String("path", path))
			}
		}

		if err := a.Frame(dt, in); err != nil {
			return fmt.Errorf("frame: %w", err)
		}

		if fps.Add(dt) {
			win.SetTitle(fmt.Sprintf("%s - %.0f FPS", title, fps.FPS()))
		}
	}
}

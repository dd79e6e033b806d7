// Package main runs the renderer inside the ImGui studio, with panels for
// lights, entities, materials, render targets, motion blur and terrain.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/app"
	"github.com/Faultbox/prism/internal/config"
	"github.com/Faultbox/prism/internal/engine/gpu/opengl"
	"github.com/Faultbox/prism/internal/engine/ui"
	"github.com/Faultbox/prism/internal/logger"
	"github.com/Faultbox/prism/internal/studio"
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

	logger.Info("=== Prism Studio ===")

	if err := run(cfg); err != nil {
		logger.Error("studio failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("closed normally")
}

func run(cfg *config.Config) error {
	host, err := ui.NewHost("Prism Studio", cfg.Graphics.Width, cfg.Graphics.Height, ui.DefaultFontPaths)
	if err != nil {
		return err
	}

	// The host presents the frame, so the device leaves its back buffer offscreen.
	dev, err := opengl.New(opengl.Options{Width: cfg.Graphics.Width, Height: cfg.Graphics.Height})
	if err != nil {
		return err
	}
	defer dev.Close()

	a, err := app.New(cfg, dev)
	if err != nil {
		return err
	}
	defer a.Close()

	s := studio.New(a, host)
	host.Run(s.Frame)
	return nil
}

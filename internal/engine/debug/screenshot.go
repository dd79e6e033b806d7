// Package debug provides capture utilities for inspecting frames.
package debug

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/logger"
)

// ScreenshotCapture writes device textures to timestamped PNG files.
type ScreenshotCapture struct {
	outputDir string
	prefix    string
	now       func() time.Time
}

// NewScreenshotCapture creates a new screenshot capture handler.
func NewScreenshotCapture(outputDir, prefix string) *ScreenshotCapture {
	return &ScreenshotCapture{
		outputDir: outputDir,
		prefix:    prefix,
		now:       time.Now,
	}
}

// SetOutputDir sets the output directory for screenshots.
func (sc *ScreenshotCapture) SetOutputDir(dir string) {
	sc.outputDir = dir
}

func (sc *ScreenshotCapture) OutputDir() string { return sc.outputDir }

// Capture reads t back from dev and saves it. label is appended to the file
// name when not empty.
func (sc *ScreenshotCapture) Capture(dev gpu.Device, t gpu.Texture, label string) (string, error) {
	if t == nil {
		return "", fmt.Errorf("capture %q: no texture", label)
	}
	pixels, err := dev.ReadPixels(t)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", t.Label(), err)
	}
	img, err := FlipRGBA(pixels, t.Width(), t.Height())
	if err != nil {
		return "", err
	}
	path, err := sc.save(img, label)
	if err != nil {
		return "", err
	}
	logger.Named("debug").Info("screenshot saved", zap.String("path", path), zap.String("texture", t.Label()))
	return path, nil
}

// FlipRGBA builds an image from bottom-row-first RGBA pixels.
func FlipRGBA(pixels []byte, width, height int) (*image.RGBA, error) {
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		srcOffset := (height - 1 - y) * rowSize
		dstOffset := y * img.Stride
		copy(img.Pix[dstOffset:dstOffset+rowSize], pixels[srcOffset:srcOffset+rowSize])
	}
	return img, nil
}

func (sc *ScreenshotCapture) save(img image.Image, label string) (string, error) {
	if sc.outputDir != "" {
		if err := os.MkdirAll(sc.outputDir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	filename := sc.GenerateFilename(label)
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return filename, nil
}

// GenerateFilename returns the path the next capture would be written to.
func (sc *ScreenshotCapture) GenerateFilename(label string) string {
	timestamp := sc.now().Format("2006-01-02_15-04-05.000")
	name := sc.prefix + "_" + timestamp
	if label != "" {
		name += "_" + label
	}
	return filepath.Join(sc.outputDir, name+".png")
}

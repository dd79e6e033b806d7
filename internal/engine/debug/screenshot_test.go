package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
)

func TestFlipRGBA(t *testing.T) {
	// Two rows, bottom row first: red then blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	img, err := FlipRGBA(pixels, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, uint8(255), img.RGBAAt(0, 0).B, "top row is the last row read")
	assert.Equal(t, uint8(255), img.RGBAAt(0, 1).R)

	_, err = FlipRGBA(pixels, 2, 2)
	assert.Error(t, err)
}

func TestCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "prism")
	sc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	dev := gputest.NewDevice(4, 3)
	path, err := sc.Capture(dev, dev.BackBuffer(), "frame")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "prism_2024-05-01_12-30-00.000_frame.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())

	require.Len(t, dev.Filter("ReadPixels"), 1)
	assert.Equal(t, "BackBuffer", dev.Filter("ReadPixels")[0].Name)

	_, err = sc.Capture(dev, nil, "missing")
	assert.Error(t, err)
}

package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
)

func tgaHeader(imageType byte, width, height, bpp int, descriptor byte) []byte {
	h := make([]byte, tgaHeaderSize)
	h[2] = imageType
	h[12], h[13] = byte(width), byte(width>>8)
	h[14], h[15] = byte(height), byte(height>>8)
	h[16] = byte(bpp)
	h[17] = descriptor
	return h
}

func TestDecodeTGAUncompressedBottomUp(t *testing.T) {
	data := tgaHeader(tgaTrueColor, 2, 2, 24, 0)
	data = append(data,
		0, 0, 255, 0, 255, 0, // bottom row: red, green
		255, 0, 0, 255, 255, 255, // top row: blue, white
	)

	img, err := decodeTGA(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0, 0, 255, 255, 255, 255, 255, 255,
		255, 0, 0, 255, 0, 255, 0, 255,
	}, img.Pix)
}

func TestDecodeTGARLETopDown(t *testing.T) {
	data := tgaHeader(tgaTrueColorRLE, 3, 1, 32, tgaTopToBottom)
	data = append(data,
		0x81, 0, 0, 255, 128, // two red pixels at half alpha
		0x00, 255, 0, 0, 255, // one blue pixel
	)

	img, err := decodeTGA(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{
		255, 0, 0, 128, 255, 0, 0, 128, 0, 0, 255, 255,
	}, img.Pix)
}

func TestDecodeTGAErrors(t *testing.T) {
	colorMapped := tgaHeader(tgaTrueColor, 1, 1, 24, 0)
	colorMapped[1] = 1

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"short header", []byte{0, 0, 2}, "header too short"},
		{"color mapped", colorMapped, "color-mapped"},
		{"grayscale", tgaHeader(3, 1, 1, 8, 0), "unsupported image type 3"},
		{"16 bit", tgaHeader(tgaTrueColor, 1, 1, 16, 0), "unsupported bit depth 16"},
		{"truncated raw", append(tgaHeader(tgaTrueColor, 2, 1, 24, 0), 1, 2, 3), "truncated"},
		{"truncated rle", append(tgaHeader(tgaTrueColorRLE, 2, 1, 24, 0), 0x80), "truncated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeTGA(tt.data)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadTextureTGA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rough_albedo.tga")
	data := append(tgaHeader(tgaTrueColor, 1, 1, 24, 0), 10, 20, 30)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	m := NewManager(gputest.NewDevice(16, 16))
	defer m.Close()
	tex, err := m.LoadTexture(path)
	require.NoError(t, err)
	assert.Same(t, tex, m.Texture("rough_albedo"))
	assert.Equal(t, []byte{30, 20, 10, 255}, tex.(*gputest.Texture).Slices[0])
}

package sky

import (
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Cube faces in slice order.
const (
	FacePositiveX = iota
	FaceNegativeX
	FacePositiveY
	FaceNegativeY
	FacePositiveZ
	FaceNegativeZ
)

// FaceNames are the conventional file names of the six faces, in slice order.
var FaceNames = [6]string{"right", "left", "up", "down", "front", "back"}

// FaceDirection returns the unnormalized direction through (sc, tc) of a
// face, each in [-1, 1] with tc = -1 at the top row.
func FaceDirection(face int, sc, tc float32) mgl32.Vec3 {
	switch face {
	case FacePositiveX:
		return mgl32.Vec3{1, -tc, -sc}
	case FaceNegativeX:
		return mgl32.Vec3{-1, -tc, sc}
	case FacePositiveY:
		return mgl32.Vec3{sc, 1, tc}
	case FaceNegativeY:
		return mgl32.Vec3{sc, -1, -tc}
	case FacePositiveZ:
		return mgl32.Vec3{sc, -tc, 1}
	default:
		return mgl32.Vec3{-sc, -tc, -1}
	}
}

func cubeDescriptor(label string, size int) gpu.TextureDescriptor {
	return gpu.TextureDescriptor{
		Label:  label,
		Kind:   gpu.TextureCube,
		Format: gpu.FormatRGBA8,
		Width:  size,
		Height: size,
		Usage:  gpu.UsageSampled,
	}
}

// NewCubemapFromFaces copies six square 2D textures of equal size into the
// slices of a new cubemap.
func NewCubemapFromFaces(dev gpu.Device, faces [6]gpu.Texture) (gpu.Texture, error) {
	for i, f := range faces {
		if f == nil {
			return nil, fmt.Errorf("cubemap: face %s missing", FaceNames[i])
		}
	}
	size := faces[0].Width()
	for i, f := range faces {
		if f.Width() != size || f.Height() != size {
			return nil, fmt.Errorf("cubemap: face %s is %dx%d, want %dx%d", FaceNames[i], f.Width(), f.Height(), size, size)
		}
	}

	cube, err := dev.CreateTexture(cubeDescriptor("Sky", size))
	if err != nil {
		return nil, fmt.Errorf("cubemap: %w", err)
	}
	for i, f := range faces {
		dev.CopyTextureSlice(cube, i, f)
	}
	return cube, nil
}

// NewCubemapFromImages uploads six square images of equal size as a cubemap.
func NewCubemapFromImages(dev gpu.Device, faces [6]image.Image) (gpu.Texture, error) {
	size := faces[0].Bounds().Dx()
	slices := make([][]byte, 6)
	for i, img := range faces {
		b := img.Bounds()
		if b.Dx() != size || b.Dy() != size {
			return nil, fmt.Errorf("cubemap: face %s is %dx%d, want %dx%d", FaceNames[i], b.Dx(), b.Dy(), size, size)
		}
		slices[i] = rgba(img, b).Pix
	}

	cube, err := dev.CreateTexture(cubeDescriptor("Sky", size), slices...)
	if err != nil {
		return nil, fmt.Errorf("cubemap: %w", err)
	}
	return cube, nil
}

// NewCubemapFromStrip splits a 6x1 or 1x6 strip of faces in slice order
// into a cubemap.
func NewCubemapFromStrip(dev gpu.Device, strip image.Image) (gpu.Texture, error) {
	b := strip.Bounds()
	var size int
	var step image.Point
	switch {
	case b.Dx() == 6*b.Dy():
		size = b.Dy()
		step = image.Pt(size, 0)
	case b.Dy() == 6*b.Dx():
		size = b.Dx()
		step = image.Pt(0, size)
	default:
		return nil, fmt.Errorf("cubemap: strip of %dx%d is not 6x1 or 1x6 faces", b.Dx(), b.Dy())
	}
	if size == 0 {
		return nil, fmt.Errorf("cubemap: empty strip")
	}

	var faces [6]image.Image
	for i := range faces {
		origin := b.Min.Add(step.Mul(i))
		faces[i] = rgba(strip, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(size, size))})
	}
	return NewCubemapFromImages(dev, faces)
}

// rgba copies the r region of img into a new tightly packed RGBA image.
func rgba(img image.Image, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// NewGradientCubemap builds a size x size cubemap blending from nadir
// through horizon to zenith by the vertical component of each texel's
// direction. It stands in when no sky images are available.
func NewGradientCubemap(dev gpu.Device, size int, zenith, horizon, nadir mgl32.Vec3) (gpu.Texture, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cubemap: invalid size %d", size)
	}

	slices := make([][]byte, 6)
	for face := range slices {
		pix := make([]byte, size*size*4)
		for y := 0; y < size; y++ {
			tc := 2*(float32(y)+0.5)/float32(size) - 1
			for x := 0; x < size; x++ {
				sc := 2*(float32(x)+0.5)/float32(size) - 1
				up := FaceDirection(face, sc, tc).Normalize()[1]

				var c mgl32.Vec3
				if up >= 0 {
					c = horizon.Add(zenith.Sub(horizon).Mul(up))
				} else {
					c = horizon.Add(nadir.Sub(horizon).Mul(-up))
				}

				o := (y*size + x) * 4
				pix[o+0] = unorm(c[0])
				pix[o+1] = unorm(c[1])
				pix[o+2] = unorm(c[2])
				pix[o+3] = 255
			}
		}
		slices[face] = pix
	}

	cube, err := dev.CreateTexture(cubeDescriptor("Sky", size), slices...)
	if err != nil {
		return nil, fmt.Errorf("cubemap: %w", err)
	}
	return cube, nil
}

func unorm(v float32) byte {
	return byte(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}

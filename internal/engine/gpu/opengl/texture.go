package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// GL_TEXTURE_MAX_ANISOTROPY_EXT; core from 4.6 and missing from the 4.3 bindings.
const textureMaxAnisotropy = 0x84FE

type formatInfo struct {
	internal uint32
	format   uint32
	xtype    uint32
}

func glFormat(f gpu.Format) (formatInfo, error) {
	switch f {
	case gpu.FormatRGBA8:
		return formatInfo{gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE}, nil
	case gpu.FormatRG16F:
		return formatInfo{gl.RG16F, gl.RG, gl.HALF_FLOAT}, nil
	case gpu.FormatRG16:
		return formatInfo{gl.RG16, gl.RG, gl.UNSIGNED_SHORT}, nil
	case gpu.FormatR32F:
		return formatInfo{gl.R32F, gl.RED, gl.FLOAT}, nil
	case gpu.FormatDepth24Stencil8:
		return formatInfo{gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8}, nil
	default:
		return formatInfo{}, fmt.Errorf("unsupported texture format %v", f)
	}
}

// Texture is an OpenGL texture object.
type Texture struct {
	id     uint32
	target uint32
	desc   gpu.TextureDescriptor
}

var _ gpu.Texture = (*Texture)(nil)

// ID returns the GL texture name, for hosts that draw textures themselves.
func (t *Texture) ID() uint32                        { return t.id }
func (t *Texture) Label() string                     { return t.desc.Label }
func (t *Texture) Descriptor() gpu.TextureDescriptor { return t.desc }
func (t *Texture) Width() int                        { return t.desc.Width }
func (t *Texture) Height() int                       { return t.desc.Height }

func (t *Texture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func (d *Device) CreateTexture(desc gpu.TextureDescriptor, slices ...[]byte) (gpu.Texture, error) {
	tex, err := d.createTexture(desc, slices)
	if err != nil {
		return nil, err
	}
	return tex, nil
}

func (d *Device) createTexture(desc gpu.TextureDescriptor, slices [][]byte) (*Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("texture %q: invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	if len(slices) > desc.Faces() {
		return nil, fmt.Errorf("texture %q: %d slices for %d faces", desc.Label, len(slices), desc.Faces())
	}
	info, err := glFormat(desc.Format)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", desc.Label, err)
	}

	sliceSize := desc.Width * desc.Height * desc.Format.BytesPerTexel()
	for i, s := range slices {
		if s != nil && len(s) != sliceSize {
			return nil, fmt.Errorf("texture %q: slice %d has %d bytes, want %d", desc.Label, i, len(s), sliceSize)
		}
	}

	tex := &Texture{target: gl.TEXTURE_2D, desc: desc}
	if desc.Kind == gpu.TextureCube {
		tex.target = gl.TEXTURE_CUBE_MAP
	}

	gl.GenTextures(1, &tex.id)
	gl.BindTexture(tex.target, tex.id)
	gl.TexStorage2D(tex.target, int32(desc.Mips()), info.internal, int32(desc.Width), int32(desc.Height))

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for i, s := range slices {
		if s == nil {
			continue
		}
		target := tex.target
		if desc.Kind == gpu.TextureCube {
			target = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(i)
		}
		gl.TexSubImage2D(target, 0, 0, 0, int32(desc.Width), int32(desc.Height), info.format, info.xtype, gl.Ptr(s))
	}

	minFilter := int32(gl.LINEAR)
	if desc.Mips() > 1 {
		minFilter = gl.LINEAR_MIPMAP_LINEAR
	}
	gl.TexParameteri(tex.target, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(tex.target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(tex.target, gl.TEXTURE_MAX_LEVEL, int32(desc.Mips()-1))
	if desc.Kind == gpu.TextureCube {
		gl.TexParameteri(tex.target, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(tex.target, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(tex.target, gl.TEXTURE_WRAP_R, gl.CLAMP_TO_EDGE)
	}
	gl.BindTexture(tex.target, 0)
	objectLabel(gl.TEXTURE, tex.id, desc.Label)

	if err := glError("create texture " + desc.Label); err != nil {
		tex.Release()
		return nil, err
	}
	return tex, nil
}

// CopyTextureSlice copies mip 0 of src into one face of a cubemap.
func (d *Device) CopyTextureSlice(dst gpu.Texture, face int, src gpu.Texture) {
	s, t := src.(*Texture), dst.(*Texture)
	w := min(s.Width(), t.Width())
	h := min(s.Height(), t.Height())
	gl.CopyImageSubData(s.id, s.target, 0, 0, 0, 0, t.id, t.target, 0, 0, 0, int32(face), int32(w), int32(h), 1)
}

// Sampler is an OpenGL sampler object.
type Sampler struct {
	id   uint32
	desc gpu.SamplerDescriptor
}

var _ gpu.Sampler = (*Sampler)(nil)

func (s *Sampler) Label() string                     { return s.desc.Label }
func (s *Sampler) Descriptor() gpu.SamplerDescriptor { return s.desc }

func (s *Sampler) Release() {
	if s.id != 0 {
		gl.DeleteSamplers(1, &s.id)
		s.id = 0
	}
}

func (d *Device) CreateSampler(desc gpu.SamplerDescriptor) (gpu.Sampler, error) {
	s := &Sampler{desc: desc}
	gl.GenSamplers(1, &s.id)

	wrap := int32(gl.REPEAT)
	if desc.Address == gpu.AddressClamp {
		wrap = gl.CLAMP_TO_EDGE
	}
	gl.SamplerParameteri(s.id, gl.TEXTURE_WRAP_S, wrap)
	gl.SamplerParameteri(s.id, gl.TEXTURE_WRAP_T, wrap)
	gl.SamplerParameteri(s.id, gl.TEXTURE_WRAP_R, wrap)

	switch desc.Filter {
	case gpu.FilterNearest:
		gl.SamplerParameteri(s.id, gl.TEXTURE_MIN_FILTER, gl.NEAREST_MIPMAP_NEAREST)
		gl.SamplerParameteri(s.id, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	default:
		gl.SamplerParameteri(s.id, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.SamplerParameteri(s.id, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	}
	if desc.Filter == gpu.FilterAnisotropic && desc.MaxAnisotropy > 1 {
		gl.SamplerParameterf(s.id, textureMaxAnisotropy, desc.MaxAnisotropy)
	}
	objectLabel(gl.SAMPLER, s.id, desc.Label)

	if err := glError("create sampler " + desc.Label); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

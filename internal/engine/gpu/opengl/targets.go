package opengl

import (
	"github.com/go-gl/gl/v4.3-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

const maxColorAttachments = 8

// SetRenderTargets records the targets for the next draw or clear.
func (d *Device) SetRenderTargets(depth gpu.Texture, colors ...gpu.RenderTarget) {
	if len(colors) > maxColorAttachments {
		d.log.Warn("too many render targets", zap.Int("count", len(colors)))
		colors = colors[:maxColorAttachments]
	}
	d.boundDepth = depth
	d.boundColors = append(d.boundColors[:0], colors...)
	d.targetsDirty = true
}

func (d *Device) RenderTargets() (gpu.Texture, []gpu.RenderTarget) {
	colors := make([]gpu.RenderTarget, len(d.boundColors))
	copy(colors, d.boundColors)
	return d.boundDepth, colors
}

// attachTarget attaches one color face and mip to the bound framebuffer.
func attachTarget(target uint32, attachment uint32, rt gpu.RenderTarget) {
	tex := rt.Texture.(*Texture)
	texTarget := uint32(gl.TEXTURE_2D)
	if tex.desc.Kind == gpu.TextureCube {
		texTarget = gl.TEXTURE_CUBE_MAP_POSITIVE_X + uint32(rt.Face)
	}
	gl.FramebufferTexture2D(target, attachment, texTarget, tex.id, int32(rt.Mip))
}

// flushTargets attaches the recorded targets to the render framebuffer.
func (d *Device) flushTargets() {
	if !d.targetsDirty {
		return
	}
	d.targetsDirty = false

	gl.BindFramebuffer(gl.FRAMEBUFFER, d.renderFBO)

	buffers := make([]uint32, len(d.boundColors))
	for i, rt := range d.boundColors {
		attachment := uint32(gl.COLOR_ATTACHMENT0 + i)
		attachTarget(gl.FRAMEBUFFER, attachment, rt)
		buffers[i] = attachment
	}
	for i := len(d.boundColors); i < d.attached; i++ {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, uint32(gl.COLOR_ATTACHMENT0+i), gl.TEXTURE_2D, 0, 0)
	}
	d.attached = len(d.boundColors)

	var depthID uint32
	if d.boundDepth != nil {
		depthID = d.boundDepth.(*Texture).id
	}
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.TEXTURE_2D, depthID, 0)

	if len(buffers) == 0 {
		gl.DrawBuffer(gl.NONE)
	} else {
		gl.DrawBuffers(int32(len(buffers)), &buffers[0])
	}

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		d.log.Warn("framebuffer incomplete", zap.Uint32("status", status), zap.Int("colors", len(buffers)))
	}
}

// ClearRenderTarget clears one color target through the scratch framebuffer.
func (d *Device) ClearRenderTarget(rt gpu.RenderTarget, color [4]float32) {
	if rt.Texture == nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.scratchFBO)
	attachTarget(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, rt)
	gl.DrawBuffer(gl.COLOR_ATTACHMENT0)

	// Clears honor the scissor and color mask, not the viewport.
	gl.ColorMask(true, true, true, true)
	gl.ClearBufferfv(gl.COLOR, 0, &color[0])

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, 0, 0)
	d.targetsDirty = true
}

// ClearDepth clears a depth-stencil texture to depth and a zero stencil.
func (d *Device) ClearDepth(t gpu.Texture, depth float32) {
	if t == nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.scratchFBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.TEXTURE_2D, t.(*Texture).id, 0)
	gl.DrawBuffer(gl.NONE)

	gl.DepthMask(true)
	gl.ClearBufferfi(gl.DEPTH_STENCIL, 0, depth, 0)
	gl.DepthMask(d.depth.Write)

	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_STENCIL_ATTACHMENT, gl.TEXTURE_2D, 0, 0)
	d.targetsDirty = true
}

// ReadPixels reads mip 0 of a color texture as RGBA8.
func (d *Device) ReadPixels(t gpu.Texture) ([]byte, error) {
	tex := t.(*Texture)
	w, h := tex.Width(), tex.Height()
	pixels := make([]byte, w*h*4)

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, d.scratchFBO)
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex.id, 0)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, 0, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	d.targetsDirty = true

	if err := glError("read pixels"); err != nil {
		return nil, err
	}
	return pixels, nil
}

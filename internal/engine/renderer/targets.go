package renderer

import (
	"fmt"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Target indexes the offscreen render targets.
type Target int

const (
	Albedo Target = iota
	Normals
	Depths
	Velocity
	NeighborhoodMax
	TargetCount
)

var targetNames = [TargetCount]string{"Albedo", "Normals", "Depths", "Velocity", "NeighborhoodMax"}

func (t Target) String() string {
	if t < 0 || t >= TargetCount {
		return "unknown"
	}
	return targetNames[t]
}

// Format returns the texel format of the target.
func (t Target) Format() gpu.Format {
	if t == Velocity || t == NeighborhoodMax {
		return gpu.FormatRG16F
	}
	return gpu.FormatRGBA8
}

// createTargets allocates every offscreen target at the current size.
func (r *Renderer) createTargets() error {
	for i := Target(0); i < TargetCount; i++ {
		tex, err := r.dev.CreateTexture(gpu.TextureDescriptor{
			Label:  i.String(),
			Format: i.Format(),
			Width:  r.width,
			Height: r.height,
			Usage:  gpu.UsageRenderTarget | gpu.UsageSampled,
		})
		if err != nil {
			r.releaseTargets()
			return fmt.Errorf("render target %s: %w", i, err)
		}
		r.targets[i] = tex
	}
	return nil
}

func (r *Renderer) releaseTargets() {
	for i, t := range r.targets {
		if t != nil {
			t.Release()
			r.targets[i] = nil
		}
	}
}

// renderTargets returns every offscreen target for MRT binding.
func (r *Renderer) renderTargets() []gpu.RenderTarget {
	rts := make([]gpu.RenderTarget, TargetCount)
	for i, t := range r.targets {
		rts[i] = gpu.RenderTarget{Texture: t}
	}
	return rts
}

// Targets returns the offscreen targets in Target order.
func (r *Renderer) Targets() []gpu.Texture {
	return append([]gpu.Texture(nil), r.targets[:]...)
}

// TargetTexture returns one offscreen target.
func (r *Renderer) TargetTexture(t Target) gpu.Texture {
	return r.targets[t]
}

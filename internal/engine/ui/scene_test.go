package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/gpu/gputest"
	"github.com/Faultbox/prism/internal/engine/input"
)

type glTexture struct{ id uint32 }

func (t glTexture) ID() uint32 { return t.id }

func TestTextureID(t *testing.T) {
	id, ok := TextureID(glTexture{id: 7})
	assert.True(t, ok)
	assert.Equal(t, uint32(7), id)

	_, ok = TextureID(glTexture{})
	assert.False(t, ok, "released textures have no name")

	var tex gpu.Texture = gputest.NewDevice(4, 4).BackBuffer()
	_, ok = TextureID(tex)
	assert.False(t, ok)

	_, ok = TextureID(nil)
	assert.False(t, ok)
}

func TestKeysCoverEveryAction(t *testing.T) {
	for _, a := range []input.Action{
		input.MoveForward, input.MoveBack, input.MoveLeft, input.MoveRight,
		input.MoveUp, input.MoveDown, input.Fast, input.Slow,
	} {
		assert.NotEmpty(t, Keys[a], a)
	}
}

func TestLookDeltaClears(t *testing.T) {
	s := &Source{dx: 3, dy: -2}
	dx, dy := s.LookDelta()
	assert.Equal(t, float32(3), dx)
	assert.Equal(t, float32(-2), dy)
	dx, dy = s.LookDelta()
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

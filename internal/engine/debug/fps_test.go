package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFPSCounter(t *testing.T) {
	var c FPSCounter
	for range 3 {
		assert.False(t, c.Add(0.25))
	}
	assert.Zero(t, c.FPS())

	assert.True(t, c.Add(0.25))
	assert.InDelta(t, 4, c.FPS(), 1e-6)

	assert.False(t, c.Add(0.5))
	assert.True(t, c.Add(0.5))
	assert.InDelta(t, 2, c.FPS(), 1e-6)
}

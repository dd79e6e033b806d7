package debug

// FPSCounter averages the frame rate over roughly one second of frames.
type FPSCounter struct {
	frames  int
	elapsed float32
	fps     float32
}

// Add records one frame that took dt seconds. It reports whether the
// average was refreshed.
func (c *FPSCounter) Add(dt float32) bool {
	c.frames++
	c.elapsed += dt
	if c.elapsed < 1 {
		return false
	}
	c.fps = float32(c.frames) / c.elapsed
	c.frames, c.elapsed = 0, 0
	return true
}

// FPS is the last averaged rate, zero until the first second has passed.
func (c *FPSCounter) FPS() float32 { return c.fps }

package gpu

import "unsafe"

// SaveTargets captures the bound render targets and viewport.
// Returns a restore function that rebinds them.
func SaveTargets(dev Device) func() {
	depth, colors := dev.RenderTargets()
	colors = append([]RenderTarget(nil), colors...)
	vp := dev.Viewport()

	return func() {
		dev.SetRenderTargets(depth, colors...)
		dev.SetViewport(vp)
	}
}

// DispatchByThreads dispatches enough thread groups of cs to cover x*y*z threads.
func DispatchByThreads(dev Device, cs Shader, x, y, z int) {
	size := cs.ThreadGroupSize()
	dev.Dispatch(
		groups(x, size[0]),
		groups(y, size[1]),
		groups(z, size[2]),
	)
}

func groups(threads, size int) int {
	if size < 1 {
		size = 1
	}
	return max((threads+size-1)/size, 1)
}

// Bytes reinterprets a slice of plain values as bytes for upload.
// T must not contain pointers.
func Bytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

// SizeOf returns the size in bytes of one T.
func SizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// FullViewport covers the whole of t at mip.
func FullViewport(t Texture, mip int) Viewport {
	return Viewport{Width: max(t.Width()>>mip, 1), Height: max(t.Height()>>mip, 1)}
}

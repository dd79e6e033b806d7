package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Buffer is an OpenGL buffer object.
type Buffer struct {
	id   uint32
	desc gpu.BufferDescriptor
	dev  *Device
}

var _ gpu.Buffer = (*Buffer)(nil)

func (b *Buffer) Label() string                    { return b.desc.Label }
func (b *Buffer) Descriptor() gpu.BufferDescriptor { return b.desc }
func (b *Buffer) Size() int                        { return b.desc.Size }

func (b *Buffer) Release() {
	if b.id == 0 {
		return
	}
	if vao, ok := b.dev.vaos[b.id]; ok {
		gl.DeleteVertexArrays(1, &vao)
		delete(b.dev.vaos, b.id)
	}
	gl.DeleteBuffers(1, &b.id)
	b.id = 0
}

func bufferUsage(u gpu.BufferUsage) uint32 {
	switch u {
	case gpu.UsageDefault:
		return gl.DYNAMIC_COPY
	case gpu.UsageDynamic:
		return gl.STREAM_DRAW
	default:
		return gl.STATIC_DRAW
	}
}

func (d *Device) CreateBuffer(desc gpu.BufferDescriptor, data []byte) (gpu.Buffer, error) {
	if desc.Size <= 0 {
		return nil, fmt.Errorf("buffer %q: invalid size %d", desc.Label, desc.Size)
	}
	if data != nil && len(data) > desc.Size {
		return nil, fmt.Errorf("buffer %q: %d bytes of data for size %d", desc.Label, len(data), desc.Size)
	}

	b := &Buffer{desc: desc, dev: d}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, b.id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, desc.Size, nil, bufferUsage(desc.Usage))
	if len(data) > 0 {
		gl.BufferSubData(gl.COPY_WRITE_BUFFER, 0, len(data), gl.Ptr(data))
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
	objectLabel(gl.BUFFER, b.id, desc.Label)

	if err := glError("create buffer " + desc.Label); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// WriteBuffer orphans the buffer storage and uploads data.
func (d *Device) WriteBuffer(b gpu.Buffer, data []byte) {
	buf := b.(*Buffer)
	n := min(len(data), buf.desc.Size)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, buf.id)
	gl.BufferData(gl.COPY_WRITE_BUFFER, buf.desc.Size, nil, bufferUsage(buf.desc.Usage))
	if n > 0 {
		gl.BufferSubData(gl.COPY_WRITE_BUFFER, 0, n, gl.Ptr(data))
	}
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
}

func (d *Device) CopyBuffer(dst, src gpu.Buffer) {
	s, t := src.(*Buffer), dst.(*Buffer)
	gl.BindBuffer(gl.COPY_READ_BUFFER, s.id)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, t.id)
	gl.CopyBufferSubData(gl.COPY_READ_BUFFER, gl.COPY_WRITE_BUFFER, 0, 0, min(s.desc.Size, t.desc.Size))
	gl.BindBuffer(gl.COPY_READ_BUFFER, 0)
	gl.BindBuffer(gl.COPY_WRITE_BUFFER, 0)
}

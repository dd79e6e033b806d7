package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// ErrEmpty is returned for geometry with no triangles.
var ErrEmpty = errors.New("mesh has no triangles")

// Mesh owns immutable vertex and index buffers for one piece of geometry.
// Hair strands, when created, are owned by the mesh as well.
type Mesh struct {
	name string

	vertices []Vertex
	indices  []uint32

	vertexBuffer gpu.Buffer
	indexBuffer  gpu.Buffer

	hair *hair
}

// New computes tangents for the given geometry and uploads it.
// The slices are copied; the caller keeps ownership of its arrays.
func New(dev gpu.Device, name string, vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) < 3 {
		return nil, fmt.Errorf("mesh %q: %w", name, ErrEmpty)
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("mesh %q: index %d at %d out of range (%d vertices)", name, idx, i, len(vertices))
		}
	}

	m := &Mesh{
		name:     name,
		vertices: append([]Vertex(nil), vertices...),
		indices:  append([]uint32(nil), indices[:len(indices)/3*3]...),
	}
	ComputeTangents(m.vertices, m.indices)

	var err error
	m.vertexBuffer, err = dev.CreateBuffer(gpu.BufferDescriptor{
		Label: name + " vertices",
		Kind:  gpu.VertexBuffer,
		Usage: gpu.UsageImmutable,
		Size:  len(m.vertices) * VertexSize,
	}, gpu.Bytes(m.vertices))
	if err != nil {
		return nil, fmt.Errorf("creating vertex buffer for %q: %w", name, err)
	}

	m.indexBuffer, err = dev.CreateBuffer(gpu.BufferDescriptor{
		Label: name + " indices",
		Kind:  gpu.IndexBuffer,
		Usage: gpu.UsageImmutable,
		Size:  len(m.indices) * 4,
	}, gpu.Bytes(m.indices))
	if err != nil {
		m.vertexBuffer.Release()
		return nil, fmt.Errorf("creating index buffer for %q: %w", name, err)
	}

	return m, nil
}

func (m *Mesh) Name() string { return m.name }

// Vertices returns the vertex data as uploaded, tangents included.
func (m *Mesh) Vertices() []Vertex { return m.vertices }

func (m *Mesh) Indices() []uint32 { return m.indices }

func (m *Mesh) VertexCount() int { return len(m.vertices) }

func (m *Mesh) IndexCount() int { return len(m.indices) }

func (m *Mesh) VertexBuffer() gpu.Buffer { return m.vertexBuffer }

func (m *Mesh) IndexBuffer() gpu.Buffer { return m.indexBuffer }

// Draw binds the mesh buffers and issues one indexed draw.
func (m *Mesh) Draw(dev gpu.Device) {
	dev.SetVertexBuffer(m.vertexBuffer, Layout)
	dev.SetIndexBuffer(m.indexBuffer)
	dev.DrawIndexed(len(m.indices))
}

// Release frees the GPU buffers, hair included.
func (m *Mesh) Release() {
	m.releaseHair()
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}

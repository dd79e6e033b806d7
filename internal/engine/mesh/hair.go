package mesh

import (
	"fmt"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// HairParams shapes generated strands.
type HairParams struct {
	Length float32
	Width  float32
}

// DefaultHairParams matches the demo fur.
var DefaultHairParams = HairParams{Length: 0.5, Width: 0.01}

type hair struct {
	strands gpu.Buffer // read-only copy bound to the hair vertex shader
	indices gpu.Buffer
	count   int
}

// HasHair reports whether CreateHair has produced strands.
func (m *Mesh) HasHair() bool { return m.hair != nil }

// HairStrands returns the read-only strand buffer, or nil.
func (m *Mesh) HairStrands() gpu.Buffer {
	if m.hair == nil {
		return nil
	}
	return m.hair.strands
}

// CreateHair runs cs once over the mesh vertices, producing one strand per
// vertex, and keeps a read-only copy for drawing. Calling it again replaces
// the previous strands.
//
// cs reads the "vertexData" buffer and writes the "hairData" buffer.
func (m *Mesh) CreateHair(dev gpu.Device, cs gpu.Shader, params HairParams) error {
	if cs == nil || !cs.IsValid() {
		return fmt.Errorf("mesh %q: hair compute shader unavailable", m.name)
	}
	m.releaseHair()

	n := len(m.vertices)
	source := make([]shaderVertex, n)
	for i, v := range m.vertices {
		source[i] = shaderVertex{Position: v.Position, Normal: v.Normal, Tangent: v.Tangent, UV: v.UV}
	}

	vertexData, err := dev.CreateBuffer(gpu.BufferDescriptor{
		Label:  m.name + " hair source",
		Kind:   gpu.StructuredBuffer,
		Usage:  gpu.UsageImmutable,
		Size:   n * gpu.SizeOf[shaderVertex](),
		Stride: gpu.SizeOf[shaderVertex](),
	}, gpu.Bytes(source))
	if err != nil {
		return fmt.Errorf("creating hair source buffer: %w", err)
	}
	defer vertexData.Release()

	hairData, err := dev.CreateBuffer(gpu.BufferDescriptor{
		Label:  m.name + " hair output",
		Kind:   gpu.StorageBuffer,
		Usage:  gpu.UsageDefault,
		Size:   n * HairStrandSize,
		Stride: HairStrandSize,
	}, nil)
	if err != nil {
		return fmt.Errorf("creating hair output buffer: %w", err)
	}
	defer hairData.Release()

	cs.Bind()
	cs.SetBuffer("vertexData", vertexData)
	cs.SetStorageBuffer("hairData", hairData)
	cs.SetInt("vertexCount", int32(n))
	cs.SetFloat("hairLength", params.Length)
	cs.SetFloat("hairWidth", params.Width)
	cs.CopyAllBufferData()
	gpu.DispatchByThreads(dev, cs, n, 1, 1)
	cs.SetStorageBuffer("hairData", nil)
	cs.SetBuffer("vertexData", nil)

	strands, err := dev.CreateBuffer(gpu.BufferDescriptor{
		Label:  m.name + " hair strands",
		Kind:   gpu.StructuredBuffer,
		Usage:  gpu.UsageDefault,
		Size:   n * HairStrandSize,
		Stride: HairStrandSize,
	}, nil)
	if err != nil {
		return fmt.Errorf("creating hair strand buffer: %w", err)
	}
	dev.CopyBuffer(strands, hairData)

	// Three vertices per strand, pulled by index in the hair vertex shader.
	indices := make([]uint32, n*3)
	for i := range indices {
		indices[i] = uint32(i)
	}
	indexBuffer, err := dev.CreateBuffer(gpu.BufferDescriptor{
		Label: m.name + " hair indices",
		Kind:  gpu.IndexBuffer,
		Usage: gpu.UsageImmutable,
		Size:  len(indices) * 4,
	}, gpu.Bytes(indices))
	if err != nil {
		strands.Release()
		return fmt.Errorf("creating hair index buffer: %w", err)
	}

	m.hair = &hair{strands: strands, indices: indexBuffer, count: len(indices)}
	return nil
}

// DrawHair draws the strands through vs, which must already be bound.
func (m *Mesh) DrawHair(dev gpu.Device, vs gpu.Shader) {
	if m.hair == nil {
		return
	}
	vs.SetBuffer("HairData", m.hair.strands)
	dev.SetVertexBuffer(nil, gpu.VertexLayout{})
	dev.SetIndexBuffer(m.hair.indices)
	dev.DrawIndexed(m.hair.count)
}

func (m *Mesh) releaseHair() {
	if m.hair == nil {
		return
	}
	m.hair.strands.Release()
	m.hair.indices.Release()
	m.hair = nil
}

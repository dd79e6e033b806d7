// Package mesh owns static geometry: vertex and index buffers, tangent
// generation, OBJ import and the optional compute-generated hair strands.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/prism/internal/engine/gpu"
)

// Vertex is the interleaved vertex format of every mesh.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3 // derived by ComputeTangents
	UV       mgl32.Vec2
}

// VertexSize is the byte stride of Vertex.
const VertexSize = 44

// Layout describes Vertex for the input assembler.
var Layout = gpu.VertexLayout{
	Stride: VertexSize,
	Attributes: []gpu.VertexAttribute{
		{Location: 0, Components: 3, Offset: 0},
		{Location: 1, Components: 3, Offset: 12},
		{Location: 2, Components: 3, Offset: 24},
		{Location: 3, Components: 2, Offset: 36},
	},
}

// shaderVertex is Vertex padded to 16-byte multiples for compute shaders.
type shaderVertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3
	UV       mgl32.Vec2
	_        float32
}

// HairStrand is one compute-generated strand. Strand is the root-to-tip offset.
type HairStrand struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Strand   mgl32.Vec3
	UV       mgl32.Vec2
	Width    float32
}

// HairStrandSize is the byte stride of HairStrand.
const HairStrandSize = 48

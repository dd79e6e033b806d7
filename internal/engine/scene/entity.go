// Package scene holds the renderable entities of a frame.
package scene

import (
	"github.com/google/uuid"

	"github.com/Faultbox/prism/internal/engine/camera"
	"github.com/Faultbox/prism/internal/engine/gpu"
	"github.com/Faultbox/prism/internal/engine/material"
	"github.com/Faultbox/prism/internal/engine/mesh"
)

// Renderable is anything the renderer can draw with a material.
type Renderable interface {
	ID() uuid.UUID
	Name() string
	Mesh() *mesh.Mesh
	Material() *material.Material
	Transform() *Transform
	// Draw prepares the material and issues the draw.
	Draw(dev gpu.Device, cam *camera.Camera)
}

// Entity is a mesh drawn with a material at a transform. Meshes and
// materials are shared between entities; the transform is not.
type Entity struct {
	id        uuid.UUID
	name      string
	mesh      *mesh.Mesh
	material  *material.Material
	transform *Transform
}

var _ Renderable = (*Entity)(nil)

// NewEntity creates an entity with an identity transform.
func NewEntity(name string, m *mesh.Mesh, mat *material.Material) *Entity {
	return &Entity{
		id:        uuid.New(),
		name:      name,
		mesh:      m,
		material:  mat,
		transform: NewTransform(),
	}
}

func (e *Entity) ID() uuid.UUID                { return e.id }
func (e *Entity) Name() string                 { return e.name }
func (e *Entity) Mesh() *mesh.Mesh             { return e.mesh }
func (e *Entity) Material() *material.Material { return e.material }
func (e *Entity) Transform() *Transform        { return e.transform }

// SetMaterial swaps the material used by this entity only.
func (e *Entity) SetMaterial(mat *material.Material) {
	e.material = mat
}

func (e *Entity) Draw(dev gpu.Device, cam *camera.Camera) {
	e.material.Prepare(e.transform, cam)
	e.mesh.Draw(dev)
}

// IsRefractive reports whether r is drawn in the forward refraction pass.
func IsRefractive(r Renderable) bool {
	mat := r.Material()
	return mat != nil && mat.Refractive()
}

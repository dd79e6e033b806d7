package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Primitive geometry is generated in the engine's left-handed space with
// clockwise front faces, so cross(b-a, c-a) of every triangle points outward.

type cubeFace struct {
	normal, right, up mgl32.Vec3
}

var cubeFaces = [6]cubeFace{
	{normal: mgl32.Vec3{1, 0, 0}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{-1, 0, 0}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 1, 0}, up: mgl32.Vec3{0, 0, 1}},
	{normal: mgl32.Vec3{0, -1, 0}, up: mgl32.Vec3{0, 0, -1}},
	{normal: mgl32.Vec3{0, 0, 1}, up: mgl32.Vec3{0, 1, 0}},
	{normal: mgl32.Vec3{0, 0, -1}, up: mgl32.Vec3{0, 1, 0}},
}

// Cube returns a unit cube centered at the origin with per-face normals.
func Cube() Geometry {
	var g Geometry
	for _, f := range cubeFaces {
		right := f.normal.Cross(f.up)
		base := uint32(len(g.Vertices))
		for _, c := range [4][2]float32{{-1, -1}, {-1, 1}, {1, 1}, {1, -1}} {
			p := f.normal.Mul(0.5).Add(right.Mul(c[0] * 0.5)).Add(f.up.Mul(c[1] * 0.5))
			g.Vertices = append(g.Vertices, Vertex{
				Position: p,
				Normal:   f.normal,
				UV:       mgl32.Vec2{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// Sphere returns a UV sphere of radius 0.5.
func Sphere(slices, stacks int) Geometry {
	slices, stacks = max(slices, 3), max(stacks, 2)

	var g Geometry
	for i := 0; i <= stacks; i++ {
		phi := math.Pi * float64(i) / float64(stacks)
		for j := 0; j <= slices; j++ {
			theta := 2 * math.Pi * float64(j) / float64(slices)
			n := mgl32.Vec3{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			g.Vertices = append(g.Vertices, Vertex{
				Position: n.Mul(0.5),
				Normal:   n,
				UV:       mgl32.Vec2{float32(j) / float32(slices), float32(i) / float32(stacks)},
			})
		}
	}

	row := uint32(slices + 1)
	for i := uint32(0); i < uint32(stacks); i++ {
		for j := uint32(0); j < uint32(slices); j++ {
			a := i*row + j
			b := a + 1
			c := b + row
			d := a + row
			if i > 0 {
				g.Indices = append(g.Indices, a, b, c)
			}
			if i < uint32(stacks)-1 {
				g.Indices = append(g.Indices, a, c, d)
			}
		}
	}
	return g
}

// Grid returns a flat resolution x resolution quad grid on the XZ plane,
// spanning [-0.5, 0.5] and facing +Y.
func Grid(resolution int) Geometry {
	resolution = max(resolution, 1)
	step := 1 / float32(resolution)

	var g Geometry
	for z := 0; z <= resolution; z++ {
		for x := 0; x <= resolution; x++ {
			u, v := float32(x)*step, float32(z)*step
			g.Vertices = append(g.Vertices, Vertex{
				Position: mgl32.Vec3{u - 0.5, 0, v - 0.5},
				Normal:   mgl32.Vec3{0, 1, 0},
				UV:       mgl32.Vec2{u, 1 - v},
			})
		}
	}

	row := uint32(resolution + 1)
	for z := uint32(0); z < uint32(resolution); z++ {
		for x := uint32(0); x < uint32(resolution); x++ {
			a := z*row + x
			b := a + row
			c := b + 1
			d := a + 1
			g.Indices = append(g.Indices, a, b, c, a, c, d)
		}
	}
	return g
}

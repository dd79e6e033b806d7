package mesh

import "github.com/go-gl/mathgl/mgl32"

// uvEpsilon is the smallest UV-space triangle area that contributes a tangent.
const uvEpsilon = 1e-8

// ComputeTangents fills Vertex.Tangent from UV gradients.
//
// Each triangle's tangent is accumulated into its three vertices, then every
// vertex tangent is made orthogonal to its normal (Gram-Schmidt) and
// normalized. Triangles with a near-zero UV determinant are skipped, and a
// vertex left without a usable tangent gets an arbitrary one perpendicular to
// its normal.
func ComputeTangents(vertices []Vertex, indices []uint32) {
	for i := range vertices {
		vertices[i].Tangent = mgl32.Vec3{}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		if int(i0) >= len(vertices) || int(i1) >= len(vertices) || int(i2) >= len(vertices) {
			continue
		}
		v0, v1, v2 := vertices[i0], vertices[i1], vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)

		s1, t1 := v1.UV[0]-v0.UV[0], v1.UV[1]-v0.UV[1]
		s2, t2 := v2.UV[0]-v0.UV[0], v2.UV[1]-v0.UV[1]

		det := s1*t2 - s2*t1
		if det > -uvEpsilon && det < uvEpsilon {
			continue
		}
		r := 1 / det

		t := e1.Mul(t2 * r).Sub(e2.Mul(t1 * r))

		vertices[i0].Tangent = vertices[i0].Tangent.Add(t)
		vertices[i1].Tangent = vertices[i1].Tangent.Add(t)
		vertices[i2].Tangent = vertices[i2].Tangent.Add(t)
	}

	for i := range vertices {
		n := vertices[i].Normal
		if n.LenSqr() > 0 {
			n = n.Normalize()
		}
		t := vertices[i].Tangent

		t = t.Sub(n.Mul(n.Dot(t)))
		if t.LenSqr() < uvEpsilon {
			t = perpendicular(n)
		}
		vertices[i].Tangent = t.Normalize()
	}
}

// perpendicular returns some vector orthogonal to n.
func perpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if abs(n[0]) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	t := axis.Sub(n.Mul(n.Dot(axis)))
	if t.LenSqr() < uvEpsilon {
		return axis
	}
	return t
}

func abs(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

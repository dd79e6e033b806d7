// Package math provides left-handed matrix helpers on top of mgl32.
//
// The engine authors content in a left-handed space (+X right, +Y up, +Z into
// the screen) and renders through OpenGL, whose clip space keeps z in [-1, 1].
// mgl32 only ships right-handed projection and look-at builders, so the
// left-handed variants live here.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveLH returns a left-handed perspective projection.
// fovY is in radians, aspect is width/height. View-space z between near and
// far maps to clip z in [-1, 1].
func PerspectiveLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1.0 / math.Tan(float64(fovY)/2.0))
	fn := 1.0 / (far - near)

	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * fn, 1,
		0, 0, -2 * far * near * fn, 0,
	}
}

// LookToLH returns a left-handed view matrix for an eye looking along dir.
func LookToLH(eye, dir, up mgl32.Vec3) mgl32.Mat4 {
	z := dir.Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)

	return mgl32.Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// LookAtLH returns a left-handed view matrix looking from eye to target.
func LookAtLH(eye, target, up mgl32.Vec3) mgl32.Mat4 {
	return LookToLH(eye, target.Sub(eye), up)
}

// RotationPitchYawRoll returns the rotation that applies roll (Z), then
// pitch (X), then yaw (Y). Angles are in radians.
func RotationPitchYawRoll(pitch, yaw, roll float32) mgl32.Mat4 {
	return mgl32.HomogRotate3DY(yaw).
		Mul4(mgl32.HomogRotate3DX(pitch)).
		Mul4(mgl32.HomogRotate3DZ(roll))
}

// World composes scale, rotation and translation into a world matrix.
func World(position, pitchYawRoll, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(position[0], position[1], position[2])
	r := RotationPitchYawRoll(pitchYawRoll[0], pitchYawRoll[1], pitchYawRoll[2])
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(r).Mul4(s)
}

// InverseTranspose returns the matrix used to transform normals.
// A singular input yields the identity.
func InverseTranspose(m mgl32.Mat4) mgl32.Mat4 {
	if m.Det() == 0 {
		return mgl32.Ident4()
	}
	return m.Inv().Transpose()
}

// ForwardFromPitchYaw returns the unit forward vector for a camera with the
// given pitch and yaw (radians).
func ForwardFromPitchYaw(pitch, yaw float32) mgl32.Vec3 {
	return RotationPitchYawRoll(pitch, yaw, 0).Mul4x1(mgl32.Vec4{0, 0, 1, 0}).Vec3().Normalize()
}

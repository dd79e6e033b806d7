package math

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestPerspectiveLHDepthRange(t *testing.T) {
	m := PerspectiveLH(float32(math.Pi/4), 16.0/9.0, 0.1, 100)

	tests := []struct {
		name string
		z    float32
		want float32
	}{
		{"near plane", 0.1, -1},
		{"far plane", 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clip := m.Mul4x1(mgl32.Vec4{0, 0, tt.z, 1})
			if got := clip[2] / clip[3]; !near(got, tt.want) {
				t.Errorf("ndc z = %f, want %f", got, tt.want)
			}
		})
	}

	if m[11] != 1 {
		t.Errorf("PerspectiveLH [11] should be 1, got %f", m[11])
	}
}

func TestLookAtLH(t *testing.T) {
	eye := mgl32.Vec3{0, 0, -5}
	view := LookAtLH(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})

	p := view.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	if !near(p[0], 0) || !near(p[1], 0) || !near(p[2], 5) {
		t.Errorf("origin in view space = %v, want (0, 0, 5)", p.Vec3())
	}

	right := view.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !near(right[0], 1) {
		t.Errorf("+X should stay to the right in view space, got %v", right.Vec3())
	}
}

func TestForwardFromPitchYaw(t *testing.T) {
	tests := []struct {
		name       string
		pitch, yaw float32
		want       mgl32.Vec3
	}{
		{"identity", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"yaw right", 0, math.Pi / 2, mgl32.Vec3{1, 0, 0}},
		{"pitch down", math.Pi / 2, 0, mgl32.Vec3{0, -1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ForwardFromPitchYaw(tt.pitch, tt.yaw)
			for i := range 3 {
				if !near(got[i], tt.want[i]) {
					t.Fatalf("ForwardFromPitchYaw() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestWorldComposition(t *testing.T) {
	w := World(mgl32.Vec3{0, -5, 0}, mgl32.Vec3{}, mgl32.Vec3{10, 1, 10})
	p := w.Mul4x1(mgl32.Vec4{1, 1, 1, 1})

	want := mgl32.Vec3{10, -4, 10}
	if !p.Vec3().ApproxEqual(want) {
		t.Errorf("World() * (1,1,1) = %v, want %v", p.Vec3(), want)
	}
}

func TestInverseTransposeSingular(t *testing.T) {
	got := InverseTranspose(mgl32.Scale3D(0, 1, 1))
	if got != mgl32.Ident4() {
		t.Errorf("InverseTranspose(singular) = %v, want identity", got)
	}
}

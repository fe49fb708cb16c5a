package frustum

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func perspectiveFrustum() Frustum {
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	return FromMatrix(proj.Mul4(view))
}

func TestIntersectsAABB(t *testing.T) {
	f := perspectiveFrustum()

	tests := []struct {
		name     string
		min, max mgl32.Vec3
		want     bool
	}{
		{"ahead", mgl32.Vec3{-1, -1, -11}, mgl32.Vec3{1, 1, -9}, true},
		{"behind", mgl32.Vec3{-1, -1, 9}, mgl32.Vec3{1, 1, 11}, false},
		{"beyond far", mgl32.Vec3{-1, -1, -300}, mgl32.Vec3{1, 1, -200}, false},
		{"far left", mgl32.Vec3{-100, -1, -11}, mgl32.Vec3{-90, 1, -9}, false},
		{"straddles left edge", mgl32.Vec3{-10, -1, -11}, mgl32.Vec3{-5, 1, -9}, true},
		{"encloses camera", mgl32.Vec3{-50, -50, -50}, mgl32.Vec3{50, 50, 50}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.IntersectsAABB(tt.min, tt.max); got != tt.want {
				t.Errorf("IntersectsAABB(%v, %v) = %v, want %v", tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestOrthographicBox(t *testing.T) {
	f := FromMatrix(mgl32.Ortho(-10, 10, -5, 5, 1, 50))

	if !f.ContainsPoint(mgl32.Vec3{9, 4, -49}) {
		t.Error("corner point should be inside")
	}
	if f.ContainsPoint(mgl32.Vec3{11, 0, -10}) {
		t.Error("point past the right plane should be outside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, -0.5}) {
		t.Error("point before the near plane should be outside")
	}
}

func TestPlanesNormalized(t *testing.T) {
	f := perspectiveFrustum()
	for i, p := range f {
		l := mgl32.Vec3{p.A, p.B, p.C}.Len()
		if l < 0.999 || l > 1.001 {
			t.Errorf("plane %d normal length %v", i, l)
		}
	}
}

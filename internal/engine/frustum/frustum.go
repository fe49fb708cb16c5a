// Package frustum extracts view frustum planes from a clip matrix and tests
// boxes against them.
package frustum

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Plane is a*x + b*y + c*z + d = 0 with the normal pointing inside.
type Plane struct {
	A, B, C, D float32
}

// Distance is the signed distance of p from the plane.
func (pl Plane) Distance(p mgl32.Vec3) float32 {
	return pl.A*p.X() + pl.B*p.Y() + pl.C*p.Z() + pl.D
}

func (pl Plane) normalize() Plane {
	l := float32(math.Sqrt(float64(pl.A*pl.A + pl.B*pl.B + pl.C*pl.C)))
	if l == 0 {
		return pl
	}
	return Plane{pl.A / l, pl.B / l, pl.C / l, pl.D / l}
}

// Frustum holds six planes in the order left, right, bottom, top, near, far.
type Frustum [6]Plane

// FromMatrix builds the frustum of a combined projection*view matrix.
func FromMatrix(clip mgl32.Mat4) Frustum {
	// mgl32 is column-major.
	m00, m01, m02, m03 := clip[0], clip[4], clip[8], clip[12]
	m10, m11, m12, m13 := clip[1], clip[5], clip[9], clip[13]
	m20, m21, m22, m23 := clip[2], clip[6], clip[10], clip[14]
	m30, m31, m32, m33 := clip[3], clip[7], clip[11], clip[15]

	return Frustum{
		Plane{m30 + m00, m31 + m01, m32 + m02, m33 + m03}.normalize(),
		Plane{m30 - m00, m31 - m01, m32 - m02, m33 - m03}.normalize(),
		Plane{m30 + m10, m31 + m11, m32 + m12, m33 + m13}.normalize(),
		Plane{m30 - m10, m31 - m11, m32 - m12, m33 - m13}.normalize(),
		Plane{m30 + m20, m31 + m21, m32 + m22, m33 + m23}.normalize(),
		Plane{m30 - m20, m31 - m21, m32 - m22, m33 - m23}.normalize(),
	}
}

// IntersectsAABB reports whether the box min..max is at least partly inside.
func (f *Frustum) IntersectsAABB(min, max mgl32.Vec3) bool {
	for _, p := range f {
		// Positive vertex along the plane normal.
		px := max.X()
		if p.A < 0 {
			px = min.X()
		}
		py := max.Y()
		if p.B < 0 {
			py = min.Y()
		}
		pz := max.Z()
		if p.C < 0 {
			pz = min.Z()
		}
		if p.A*px+p.B*py+p.C*pz+p.D < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p is inside every plane.
func (f *Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for _, pl := range f {
		if pl.Distance(p) < 0 {
			return false
		}
	}
	return true
}

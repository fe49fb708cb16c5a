package gpu

import "github.com/go-gl/mathgl/mgl32"

// Bounds is an axis-aligned box in world space.
type Bounds struct {
	Center mgl32.Vec3
	Size   mgl32.Vec3
}

// NewBoundsMinMax builds a box from its corners.
func NewBoundsMinMax(min, max mgl32.Vec3) Bounds {
	return Bounds{
		Center: min.Add(max).Mul(0.5),
		Size:   max.Sub(min),
	}
}

func (b Bounds) Extents() mgl32.Vec3 {
	return b.Size.Mul(0.5)
}

func (b Bounds) Min() mgl32.Vec3 {
	return b.Center.Sub(b.Extents())
}

func (b Bounds) Max() mgl32.Vec3 {
	return b.Center.Add(b.Extents())
}

// Corners returns the eight corners of the box.
func (b Bounds) Corners() [8]mgl32.Vec3 {
	lo, hi := b.Min(), b.Max()
	return [8]mgl32.Vec3{
		{lo.X(), lo.Y(), lo.Z()},
		{hi.X(), lo.Y(), lo.Z()},
		{lo.X(), hi.Y(), lo.Z()},
		{hi.X(), hi.Y(), lo.Z()},
		{lo.X(), lo.Y(), hi.Z()},
		{hi.X(), lo.Y(), hi.Z()},
		{lo.X(), hi.Y(), hi.Z()},
		{hi.X(), hi.Y(), hi.Z()},
	}
}

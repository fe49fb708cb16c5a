// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
)

// WireframeVertexCount is the number of vertices for a box wireframe (12 edges × 2).
const WireframeVertexCount = 24

// DefaultBoundsPadding keeps chunk outlines off the cloud planes they enclose.
const DefaultBoundsPadding = 0.5

// BoxWireframe creates line vertices for the box spanning lo to hi.
// Format: [x, y, z] per vertex, two vertices per edge.
func BoxWireframe(lo, hi mgl32.Vec3) []float32 {
	return appendBox(make([]float32, 0, WireframeVertexCount*3), lo, hi)
}

// BoundsWireframe creates wireframe vertices for b expanded by padding on
// every side.
func BoundsWireframe(b gpu.Bounds, padding float32) []float32 {
	return AppendBoundsWireframes(nil, []gpu.Bounds{b}, padding)
}

// AppendBoundsWireframes appends one wireframe per bounds to dst.
func AppendBoundsWireframes(dst []float32, bounds []gpu.Bounds, padding float32) []float32 {
	pad := mgl32.Vec3{padding, padding, padding}
	for _, b := range bounds {
		lo, hi := b.Min().Sub(pad), b.Max().Add(pad)
		dst = appendBox(dst, lo, hi)
	}
	return dst
}

func appendBox(dst []float32, lo, hi mgl32.Vec3) []float32 {
	minX, minY, minZ := lo.Elem()
	maxX, maxY, maxZ := hi.Elem()
	return append(dst,
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	)
}

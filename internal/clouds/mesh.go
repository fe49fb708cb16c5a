package clouds

import "github.com/go-gl/mathgl/mgl32"

// BaseMesh is the flat grid every chunk expands into cloud planes. It is
// shared read-only between chunks.
type BaseMesh struct {
	Vertices []mgl32.Vec3
	Indices  []uint32

	VertsPerSide int
	Size         float32
}

// BuildBaseMesh generates a vertsPerSide x vertsPerSide grid at height 0
// spanning [-size/2, size/2] on X and Z. Each cell is split into the
// triangles (a, b, c) and (c, b, d), where a is the cell's low corner,
// b is a+Z, c is a+X and d is the opposite corner.
func BuildBaseMesh(vertsPerSide int, size float32) *BaseMesh {
	if vertsPerSide < 2 {
		vertsPerSide = 2
	}
	n := vertsPerSide
	cells := n - 1
	half := size / 2

	verts := make([]mgl32.Vec3, n*n)
	indices := make([]uint32, 0, cells*cells*6)

	for x := 0; x < n; x++ {
		for z := 0; z < n; z++ {
			px := float32(x) / float32(cells)
			pz := float32(z) / float32(cells)
			verts[x*n+z] = mgl32.Vec3{px*size - half, 0, pz*size - half}

			if x < cells && z < cells {
				a := uint32(x*n + z)
				b := a + 1
				c := uint32((x+1)*n + z)
				d := c + 1
				indices = append(indices, a, b, c, c, b, d)
			}
		}
	}

	return &BaseMesh{
		Vertices:     verts,
		Indices:      indices,
		VertsPerSide: n,
		Size:         size,
	}
}

func (m *BaseMesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *BaseMesh) TriangleCount() int {
	return len(m.Indices) / 3
}

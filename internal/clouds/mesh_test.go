package clouds

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestBuildBaseMeshCounts(t *testing.T) {
	for _, v := range MeshSizes {
		m := BuildBaseMesh(v, 200)

		if m.VertexCount() != v*v {
			t.Errorf("V=%d: %d vertices, want %d", v, m.VertexCount(), v*v)
		}
		if want := (v - 1) * (v - 1) * 2; m.TriangleCount() != want {
			t.Errorf("V=%d: %d triangles, want %d", v, m.TriangleCount(), want)
		}
		if len(m.Indices)%3 != 0 {
			t.Errorf("V=%d: index count %d not a multiple of 3", v, len(m.Indices))
		}
		for _, idx := range m.Indices {
			if int(idx) >= m.VertexCount() {
				t.Fatalf("V=%d: index %d out of range", v, idx)
			}
		}
	}
}

func TestBuildBaseMeshExtent(t *testing.T) {
	m := BuildBaseMesh(8, 200)

	lo := mgl32.Vec3{1e9, 1e9, 1e9}
	hi := mgl32.Vec3{-1e9, -1e9, -1e9}
	for _, p := range m.Vertices {
		for i := 0; i < 3; i++ {
			if p[i] < lo[i] {
				lo[i] = p[i]
			}
			if p[i] > hi[i] {
				hi[i] = p[i]
			}
		}
	}

	if lo != (mgl32.Vec3{-100, 0, -100}) || hi != (mgl32.Vec3{100, 0, 100}) {
		t.Errorf("mesh spans %v..%v, want (-100,0,-100)..(100,0,100)", lo, hi)
	}
}

func TestBuildBaseMeshLayout(t *testing.T) {
	m := BuildBaseMesh(2, 10)

	want := []mgl32.Vec3{
		{-5, 0, -5},
		{-5, 0, 5},
		{5, 0, -5},
		{5, 0, 5},
	}
	for i, p := range want {
		if m.Vertices[i] != p {
			t.Errorf("vertex %d = %v, want %v", i, m.Vertices[i], p)
		}
	}

	wantIdx := []uint32{0, 1, 2, 2, 1, 3}
	for i, idx := range wantIdx {
		if m.Indices[i] != idx {
			t.Errorf("index %d = %d, want %d", i, m.Indices[i], idx)
		}
	}
}

func TestBuildBaseMeshWinding(t *testing.T) {
	m := BuildBaseMesh(4, 30)

	// Every triangle faces the same way.
	var sign float32
	for i := 0; i < len(m.Indices); i += 3 {
		a, b, c := m.Vertices[m.Indices[i]], m.Vertices[m.Indices[i+1]], m.Vertices[m.Indices[i+2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Y() == 0 {
			t.Fatalf("degenerate triangle %d", i/3)
		}
		if sign == 0 {
			sign = n.Y()
		} else if (n.Y() > 0) != (sign > 0) {
			t.Fatalf("triangle %d winds the other way", i/3)
		}
	}
}

package clouds

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/engine/gpu/gputest"
)

type chunkFixture struct {
	dev      *gputest.Device
	compute  *gputest.ComputeProgram
	material *gputest.Material
	settings *ChunkSettings
	mesh     *BaseMesh
	chunk    *Chunk
}

func newChunkFixture(t *testing.T, cfg ChunkConfig, groupSize uint32, cam gpu.Camera) *chunkFixture {
	t.Helper()

	s, err := NewChunkSettings(cfg)
	if err != nil {
		t.Fatal(err)
	}
	f := &chunkFixture{
		dev:      gputest.NewDevice(),
		compute:  gputest.NewComputeProgram(groupSize),
		material: gputest.NewMaterial(),
		settings: s,
		mesh:     BuildBaseMesh(s.VertsPerSide(), s.ChunkWorldSize()),
	}
	coord := Coord{2, -1}
	f.chunk = NewChunk(f.dev, f.mesh, s, f.compute, f.material, cam, coord.WorldPosition(s.ChunkWorldSize()), coord)
	return f
}

func TestNewChunkIsLazy(t *testing.T) {
	f := newChunkFixture(t, defaultChunkConfig(), 64, nil)

	if f.chunk.Initialized() {
		t.Error("new chunk should not be initialized")
	}
	if f.dev.NewBufferCalls() != 0 {
		t.Errorf("new chunk allocated %d buffers", f.dev.NewBufferCalls())
	}
	if f.chunk.Position() != (mgl32.Vec3{400, 0, -200}) {
		t.Errorf("unexpected position %v", f.chunk.Position())
	}
}

func TestChunkBounds(t *testing.T) {
	f := newChunkFixture(t, defaultChunkConfig(), 64, nil)
	b := f.chunk.Bounds()

	if b.Min().Y() != 250 || b.Max().Y() != 269 {
		t.Errorf("vertical extent [%v, %v], want [250, 269]", b.Min().Y(), b.Max().Y())
	}
	if b.Size.X() != 200 || b.Size.Z() != 200 {
		t.Errorf("footprint %vx%v, want 200x200", b.Size.X(), b.Size.Z())
	}
	if b.Center.X() != 400 || b.Center.Z() != -200 {
		t.Errorf("bounds centered at %v, want x=400 z=-200", b.Center)
	}
}

func TestChunkBoundsSinglePlane(t *testing.T) {
	cfg := defaultChunkConfig()
	cfg.InstancesPerChunk = 1
	f := newChunkFixture(t, cfg, 64, nil)
	b := f.chunk.Bounds()

	if b.Size.Y() != 0 || b.Center.Y() != 250 {
		t.Errorf("single plane bounds %v, want flat at 250", b)
	}
}

func TestChunkFirstDraw(t *testing.T) {
	cam := &gputest.Camera{Matrix: mgl32.Ident4()}
	f := newChunkFixture(t, defaultChunkConfig(), 64, cam)

	if err := f.chunk.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if !f.chunk.Initialized() {
		t.Fatal("chunk should be initialized after first draw")
	}

	// Four buffers sized from the mesh and the plane count.
	if len(f.dev.Buffers) != 4 {
		t.Fatalf("expected 4 buffers, got %d", len(f.dev.Buffers))
	}
	verts, tris, args, draw := f.dev.Buffers[0], f.dev.Buffers[1], f.dev.Buffers[2], f.dev.Buffers[3]
	if verts.Count() != 4 || verts.Stride() != gpu.VertexStride || verts.Type != gpu.Structured {
		t.Errorf("vertex buffer %d x %d %s", verts.Count(), verts.Stride(), verts.Type)
	}
	if tris.Count() != 6 || tris.Stride() != gpu.IndexStride {
		t.Errorf("index buffer %d x %d", tris.Count(), tris.Stride())
	}
	if args.Count() != 1 || args.Stride() != gpu.IndirectArgsStride || args.Type != gpu.IndirectArguments {
		t.Errorf("args buffer %d x %d %s", args.Count(), args.Stride(), args.Type)
	}
	if draw.Count() != 2*20 || draw.Stride() != gpu.DrawTriangleStride || draw.Type != gpu.Append {
		t.Errorf("draw buffer %d x %d %s", draw.Count(), draw.Stride(), draw.Type)
	}

	if !reflect.DeepEqual(verts.Data, f.mesh.Vertices) {
		t.Error("vertex buffer does not hold the base mesh")
	}
	if !reflect.DeepEqual(tris.Data, f.mesh.Indices) {
		t.Error("index buffer does not hold the base mesh")
	}

	c := f.compute
	if c.Ints[ParamNumSourceTriangles] != 2 {
		t.Errorf("%s = %d", ParamNumSourceTriangles, c.Ints[ParamNumSourceTriangles])
	}
	if c.Ints[ParamNumPlanes] != 20 {
		t.Errorf("%s = %d", ParamNumPlanes, c.Ints[ParamNumPlanes])
	}
	if c.Floats[ParamStartHeight] != 250 || c.Floats[ParamPlaneSpacing] != 1 {
		t.Errorf("height/spacing = %v/%v", c.Floats[ParamStartHeight], c.Floats[ParamPlaneSpacing])
	}
	if c.Vectors[ParamChunkCenter] != (mgl32.Vec4{400, 0, -200, 0}) {
		t.Errorf("%s = %v", ParamChunkCenter, c.Vectors[ParamChunkCenter])
	}
	for name, want := range map[string]*gputest.Buffer{
		BufSourceVerts:     verts,
		BufSourceTriangles: tris,
		BufDrawTriangles:   draw,
		BufIndirectArgs:    args,
	} {
		if c.Buffers[name] != gpu.Buffer(want) {
			t.Errorf("compute buffer %s not bound", name)
		}
	}
	if f.material.Buffers[BufDrawTriangles] != gpu.Buffer(draw) {
		t.Error("material does not read the draw buffer")
	}

	if len(c.Dispatches) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(c.Dispatches))
	}
	d := c.Dispatches[0]
	if d.Groups != [3]uint32{1, 1, 1} {
		t.Errorf("dispatch groups %v, want [1 1 1]", d.Groups)
	}
	if st := d.Buffers[BufDrawTriangles]; st.Counter != 0 {
		t.Errorf("append counter %d at dispatch, want 0", st.Counter)
	}
	if st := d.Buffers[BufIndirectArgs]; !reflect.DeepEqual(st.Data, []uint32{0, 1, 0, 0}) {
		t.Errorf("indirect args %v at dispatch, want [0 1 0 0]", st.Data)
	}

	if len(f.dev.Draws) != 1 {
		t.Fatalf("expected one draw, got %d", len(f.dev.Draws))
	}
	dr := f.dev.Draws[0]
	if dr.Args != gpu.Buffer(args) || dr.ArgsOffset != 0 || dr.Topology != gpu.Triangles {
		t.Errorf("unexpected draw %+v", dr)
	}
	if dr.Camera != gpu.Camera(cam) {
		t.Error("draw not bound to the chunk camera")
	}
	if dr.Bounds != f.chunk.Bounds() || dr.Material != gpu.Material(f.material) {
		t.Error("draw does not use the chunk bounds and material")
	}
}

func TestChunkDrawOnce(t *testing.T) {
	f := newChunkFixture(t, defaultChunkConfig(), 64, nil)

	for i := 0; i < 3; i++ {
		if err := f.chunk.Draw(); err != nil {
			t.Fatal(err)
		}
	}

	if f.dev.NewBufferCalls() != 4 {
		t.Errorf("expected 4 allocations over 3 draws, got %d", f.dev.NewBufferCalls())
	}
	if len(f.compute.Dispatches) != 1 {
		t.Errorf("expected 1 dispatch over 3 draws, got %d", len(f.compute.Dispatches))
	}
	if len(f.dev.Draws) != 3 {
		t.Errorf("expected 3 draws, got %d", len(f.dev.Draws))
	}
	if f.dev.Draws[0].Camera != nil {
		t.Error("expected unscoped draw without a camera")
	}
}

func TestChunkDispatchSizing(t *testing.T) {
	tests := []struct {
		res, instances int
		group          uint32
	}{
		{0, 20, 64},
		{3, 20, 64},
		{6, 50, 64},
		{6, 50, 256},
		{2, 7, 1},
		{4, 13, 100},
	}

	for _, tt := range tests {
		cfg := defaultChunkConfig()
		cfg.MeshResolution = tt.res
		cfg.InstancesPerChunk = tt.instances
		f := newChunkFixture(t, cfg, tt.group, nil)

		if err := f.chunk.Draw(); err != nil {
			t.Fatal(err)
		}

		v := MeshSizes[tt.res]
		work := (v - 1) * (v - 1) * 2 * tt.instances
		want := uint32((work + int(tt.group) - 1) / int(tt.group))
		if got := f.compute.Dispatches[0].Groups[0]; got != want {
			t.Errorf("res %d, P=%d, G=%d: %d groups, want %d", tt.res, tt.instances, tt.group, got, want)
		}
		if f.chunk.DispatchGroups() != want {
			t.Errorf("DispatchGroups() = %d, want %d", f.chunk.DispatchGroups(), want)
		}
	}
}

func TestChunkDispose(t *testing.T) {
	f := newChunkFixture(t, defaultChunkConfig(), 64, nil)

	// Disposing an uninitialized chunk does nothing.
	f.chunk.Dispose()
	if f.dev.NewBufferCalls() != 0 {
		t.Fatal("dispose allocated buffers")
	}

	if err := f.chunk.Draw(); err != nil {
		t.Fatal(err)
	}
	f.chunk.Dispose()
	f.chunk.Dispose()

	if f.chunk.Initialized() {
		t.Error("chunk still initialized after dispose")
	}
	for i, b := range f.dev.Buffers {
		if b.Releases != 1 {
			t.Errorf("buffer %d released %d times, want 1", i, b.Releases)
		}
	}
}

func TestChunkDisposeThenRedraw(t *testing.T) {
	f := newChunkFixture(t, defaultChunkConfig(), 64, nil)

	if err := f.chunk.Draw(); err != nil {
		t.Fatal(err)
	}
	first := append([]*gputest.Buffer(nil), f.dev.Buffers...)
	f.chunk.Dispose()

	if err := f.chunk.Draw(); err != nil {
		t.Fatal(err)
	}

	if len(f.dev.Buffers) != 8 {
		t.Fatalf("expected 4 fresh buffers, have %d total", len(f.dev.Buffers))
	}
	fresh := f.dev.Buffers[4:]
	for i, b := range fresh {
		if b.Released() {
			t.Errorf("fresh buffer %d already released", i)
		}
		if b == first[i] {
			t.Errorf("buffer %d reused after dispose", i)
		}
	}
	if len(f.compute.Dispatches) != 2 {
		t.Errorf("expected a second dispatch, got %d", len(f.compute.Dispatches))
	}
	if f.dev.Draws[1].Args != gpu.Buffer(fresh[2]) {
		t.Error("second draw reads released arguments")
	}
	if f.material.Buffers[BufDrawTriangles] != gpu.Buffer(fresh[3]) {
		t.Error("material still bound to released draw buffer")
	}
}

func TestChunkAllocationFailure(t *testing.T) {
	for failAt := 0; failAt < 4; failAt++ {
		f := newChunkFixture(t, defaultChunkConfig(), 64, nil)
		f.dev.FailAt = failAt

		err := f.chunk.Draw()
		if !errors.Is(err, gpu.ErrOutOfMemory) {
			t.Errorf("failAt %d: expected ErrOutOfMemory, got %v", failAt, err)
		}
		if f.chunk.Initialized() {
			t.Errorf("failAt %d: chunk initialized after failure", failAt)
		}
		if f.dev.LiveBuffers() != 0 {
			t.Errorf("failAt %d: %d buffers leaked", failAt, f.dev.LiveBuffers())
		}
		if len(f.compute.Dispatches) != 0 || len(f.dev.Draws) != 0 {
			t.Errorf("failAt %d: dispatched or drew after failure", failAt)
		}
	}
}

func TestChunkMissingKernel(t *testing.T) {
	f := newChunkFixture(t, defaultChunkConfig(), 64, nil)
	f.compute.Kernels = []string{"Other"}

	if err := f.chunk.Draw(); !errors.Is(err, gpu.ErrKernelNotFound) {
		t.Errorf("expected ErrKernelNotFound, got %v", err)
	}
	if f.dev.NewBufferCalls() != 0 {
		t.Error("buffers allocated without a kernel")
	}
}

func TestChunkDestroy(t *testing.T) {
	f := newChunkFixture(t, defaultChunkConfig(), 64, nil)
	if err := f.chunk.Draw(); err != nil {
		t.Fatal(err)
	}

	f.chunk.Destroy()

	if f.dev.LiveBuffers() != 0 {
		t.Errorf("%d buffers live after destroy", f.dev.LiveBuffers())
	}
	if f.compute.Releases != 1 || f.material.Releases != 1 {
		t.Errorf("program/material released %d/%d times, want 1/1", f.compute.Releases, f.material.Releases)
	}
}

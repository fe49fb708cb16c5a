package clouds

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/logger"
)

// Compute program contract.
const (
	KernelName = "CSMain"

	BufSourceVerts     = "SourceVerts"
	BufSourceTriangles = "SourceTriangles"
	BufDrawTriangles   = "DrawTriangles"
	BufIndirectArgs    = "IndirectArgsBuffer"

	ParamNumSourceTriangles = "_NumSourceTriangles"
	ParamChunkCenter        = "chunkCenter"
	ParamStartHeight        = "startHeight"
	ParamPlaneSpacing       = "distanceBetweenPlanes"
	ParamNumPlanes          = "numPlanesToGenerate"
)

// argsReset is the indirect draw header written before each expansion:
// zero vertices, one instance.
var argsReset = []uint32{0, 1, 0, 0}

// Coord identifies a chunk cell on the horizontal grid.
type Coord struct {
	X, Z int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

func (c Coord) Add(o Coord) Coord {
	return Coord{c.X + o.X, c.Z + o.Z}
}

// Within reports whether c lies in the square of the given radius around
// center. Both bounds are inclusive.
func (c Coord) Within(center Coord, radius int) bool {
	return c.X >= center.X-radius && c.X <= center.X+radius &&
		c.Z >= center.Z-radius && c.Z <= center.Z+radius
}

// CoordAt returns the cell containing a world position for the given chunk
// size. Halfway positions round to even.
func CoordAt(pos mgl32.Vec3, chunkSize float32) Coord {
	return Coord{
		X: int(math.RoundToEven(float64(pos.X()) / float64(chunkSize))),
		Z: int(math.RoundToEven(float64(pos.Z()) / float64(chunkSize))),
	}
}

// WorldPosition is the center of a cell on the ground plane.
func (c Coord) WorldPosition(chunkSize float32) mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X) * chunkSize, 0, float32(c.Z) * chunkSize}
}

// chunkBuffers is the GPU resource set of one initialized chunk.
type chunkBuffers struct {
	sourceVerts gpu.Buffer
	sourceTris  gpu.Buffer
	drawTris    gpu.Buffer
	args        gpu.Buffer
}

func allocChunkBuffers(dev gpu.Device, mesh *BaseMesh, instances int) (*chunkBuffers, error) {
	b := &chunkBuffers{}
	specs := []struct {
		name   string
		dst    *gpu.Buffer
		count  int
		stride int
		typ    gpu.BufferType
		mode   gpu.BufferMode
	}{
		{BufSourceVerts, &b.sourceVerts, mesh.VertexCount(), gpu.VertexStride, gpu.Structured, gpu.Immutable},
		{BufSourceTriangles, &b.sourceTris, len(mesh.Indices), gpu.IndexStride, gpu.Structured, gpu.Immutable},
		{BufIndirectArgs, &b.args, 1, gpu.IndirectArgsStride, gpu.IndirectArguments, gpu.Dynamic},
		{BufDrawTriangles, &b.drawTris, mesh.TriangleCount() * instances, gpu.DrawTriangleStride, gpu.Append, gpu.Dynamic},
	}

	for _, s := range specs {
		buf, err := dev.NewBuffer(s.count, s.stride, s.typ, s.mode)
		if err != nil {
			b.release()
			return nil, fmt.Errorf("allocating %s: %w", s.name, err)
		}
		*s.dst = buf
	}
	return b, nil
}

// release frees every allocated buffer. Unallocated slots are skipped.
func (b *chunkBuffers) release() {
	for _, buf := range []gpu.Buffer{b.sourceVerts, b.sourceTris, b.drawTris, b.args} {
		if buf != nil {
			buf.Release()
		}
	}
}

// Chunk is one cell of the streaming grid. GPU buffers are allocated and the
// expansion dispatched on the first Draw, and released by Dispose.
type Chunk struct {
	dev      gpu.Device
	mesh     *BaseMesh
	settings *ChunkSettings
	compute  gpu.ComputeProgram
	material gpu.Material
	camera   gpu.Camera

	position mgl32.Vec3
	coord    Coord
	bounds   gpu.Bounds

	initialized bool
	kernel      int
	groups      uint32
	bufs        *chunkBuffers
}

// NewChunk prepares a chunk without touching the GPU. The chunk takes
// ownership of compute and material. A nil camera draws for every camera.
func NewChunk(dev gpu.Device, mesh *BaseMesh, settings *ChunkSettings, compute gpu.ComputeProgram,
	material gpu.Material, camera gpu.Camera, position mgl32.Vec3, coord Coord) *Chunk {
	c := &Chunk{
		dev:      dev,
		mesh:     mesh,
		settings: settings,
		compute:  compute,
		material: material,
		camera:   camera,
		position: position,
		coord:    coord,
	}
	c.generateBounds()
	return c
}

func (c *Chunk) Coord() Coord           { return c.coord }
func (c *Chunk) Position() mgl32.Vec3   { return c.position }
func (c *Chunk) Bounds() gpu.Bounds     { return c.bounds }
func (c *Chunk) Initialized() bool      { return c.initialized }
func (c *Chunk) DispatchGroups() uint32 { return c.groups }

// Draw queues the chunk's indirect draw, initializing and expanding it first
// if needed. Errors are allocation or upload failures and are not retried.
func (c *Chunk) Draw() error {
	if !c.initialized {
		if err := c.initialize(); err != nil {
			return fmt.Errorf("chunk %s: %w", c.coord, err)
		}
		if err := c.dispatchExpansion(); err != nil {
			return fmt.Errorf("chunk %s: %w", c.coord, err)
		}
	}

	c.dev.DrawProceduralIndirect(c.material, c.bounds, gpu.Triangles, c.bufs.args, 0, c.camera)
	return nil
}

func (c *Chunk) initialize() error {
	if c.initialized {
		c.Dispose()
	}

	kernel, err := c.compute.FindKernel(KernelName)
	if err != nil {
		return err
	}

	instances := c.settings.InstancesPerChunk()
	bufs, err := allocChunkBuffers(c.dev, c.mesh, instances)
	if err != nil {
		return err
	}

	if err := bufs.sourceVerts.SetData(c.mesh.Vertices); err != nil {
		bufs.release()
		return fmt.Errorf("uploading %s: %w", BufSourceVerts, err)
	}
	if err := bufs.sourceTris.SetData(c.mesh.Indices); err != nil {
		bufs.release()
		return fmt.Errorf("uploading %s: %w", BufSourceTriangles, err)
	}

	c.material.SetBuffer(BufDrawTriangles, bufs.drawTris)

	tris := c.mesh.TriangleCount()
	c.compute.SetInt(ParamNumSourceTriangles, int32(tris))
	c.compute.SetVector(ParamChunkCenter, c.position.Vec4(0))
	c.compute.SetFloat(ParamStartHeight, c.settings.CloudHeight())
	c.compute.SetFloat(ParamPlaneSpacing, c.settings.PlaneSpacing())
	c.compute.SetInt(ParamNumPlanes, int32(instances))

	c.compute.SetBuffer(kernel, BufSourceVerts, bufs.sourceVerts)
	c.compute.SetBuffer(kernel, BufSourceTriangles, bufs.sourceTris)
	c.compute.SetBuffer(kernel, BufDrawTriangles, bufs.drawTris)
	c.compute.SetBuffer(kernel, BufIndirectArgs, bufs.args)

	groupSize, _, _ := c.compute.KernelThreadGroupSizes(kernel)

	c.kernel = kernel
	c.groups = gpu.DispatchGroups(uint32(tris*instances), groupSize)
	c.bufs = bufs
	c.initialized = true

	logger.Debug("chunk initialized",
		zap.Stringer("coord", c.coord),
		zap.Int("triangles", tris*instances),
		zap.Uint32("groups", c.groups))
	return nil
}

// dispatchExpansion resets the append counter and draw arguments, then runs
// the expansion kernel over every (source triangle, plane) pair.
func (c *Chunk) dispatchExpansion() error {
	c.bufs.drawTris.SetCounterValue(0)
	if err := c.bufs.args.SetData(argsReset); err != nil {
		return fmt.Errorf("resetting %s: %w", BufIndirectArgs, err)
	}
	c.compute.Dispatch(c.kernel, c.groups, 1, 1)
	return nil
}

// Dispose releases the chunk's GPU buffers. It is a no-op on a chunk that is
// not initialized. A later Draw initializes the chunk again.
func (c *Chunk) Dispose() {
	if !c.initialized {
		return
	}
	c.bufs.release()
	c.bufs = nil
	c.initialized = false

	logger.Debug("chunk disposed", zap.Stringer("coord", c.coord))
}

// Destroy disposes the chunk and releases its program and material copies.
// The chunk must not be used afterwards.
func (c *Chunk) Destroy() {
	c.Dispose()
	c.compute.Release()
	c.material.Release()
}

// generateBounds covers the chunk footprint and the whole plane stack.
func (c *Chunk) generateBounds() {
	half := c.settings.ChunkWorldSize() / 2
	bottom := c.settings.CloudHeight()
	top := bottom + c.settings.StackHeight()
	c.bounds = gpu.NewBoundsMinMax(
		mgl32.Vec3{c.position.X() - half, bottom, c.position.Z() - half},
		mgl32.Vec3{c.position.X() + half, top, c.position.Z() + half},
	)
}

// Package gpu defines the backend-neutral GPU resources the cloud renderer
// drives: structured and append buffers, compute programs, draw materials
// and the indirect procedural draw.
package gpu

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Element strides in bytes.
const (
	VertexStride       = 12 // vec3 position
	IndexStride        = 4  // uint32
	IndirectArgsStride = 16 // 4 x uint32: vertex count, instance count, first vertex, first instance
	DrawTriangleStride = 48 // 3 positions + face normal, vec3 each
)

var (
	// ErrOutOfMemory is returned when the device cannot allocate a resource.
	ErrOutOfMemory = errors.New("gpu: out of memory")
	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("gpu: resource released")
	// ErrKernelNotFound is returned by FindKernel for unknown entry points.
	ErrKernelNotFound = errors.New("gpu: kernel not found")
)

// BufferType selects how a buffer is bound.
type BufferType int

const (
	// Structured is a plain read/write array of fixed-stride elements.
	Structured BufferType = iota
	// Append is a structured buffer with a hidden element counter that
	// programs increment while writing.
	Append
	// IndirectArguments holds draw arguments read by the device.
	IndirectArguments
)

func (t BufferType) String() string {
	switch t {
	case Structured:
		return "structured"
	case Append:
		return "append"
	case IndirectArguments:
		return "indirect"
	default:
		return "unknown"
	}
}

// BufferMode is an update-frequency hint.
type BufferMode int

const (
	// Immutable buffers are written once after creation.
	Immutable BufferMode = iota
	// Dynamic buffers are rewritten often from the CPU.
	Dynamic
)

// Topology is the primitive type of a procedural draw.
type Topology int

const (
	Triangles Topology = iota
	Lines
)

// Buffer is a GPU-resident array.
type Buffer interface {
	Count() int
	Stride() int
	// SetData uploads a slice of elements. The byte size must not exceed
	// Count*Stride.
	SetData(data any) error
	// SetCounterValue sets the hidden counter of an Append buffer.
	SetCounterValue(v uint32)
	// Release frees the GPU memory. Releasing twice is a no-op.
	Release()
	Released() bool
}

// Texture is a sampled 2D image.
type Texture interface {
	Size() (w, h int)
	Release()
}

// Camera supplies the matrix used to cull procedural draws.
type Camera interface {
	CullingMatrix() mgl32.Mat4
}

// ComputeProgram is a compiled compute shader plus its parameter state.
type ComputeProgram interface {
	// Clone returns a program sharing the compiled code with independent
	// parameters and buffer bindings.
	Clone() ComputeProgram
	FindKernel(name string) (int, error)
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVector(name string, v mgl32.Vec4)
	SetBuffer(kernel int, name string, b Buffer)
	KernelThreadGroupSizes(kernel int) (x, y, z uint32)
	Dispatch(kernel int, groupsX, groupsY, groupsZ uint32)
	Release()
}

// Material is a draw program plus its parameter state.
type Material interface {
	Clone() Material
	SetBuffer(name string, b Buffer)
	SetColor(name string, c mgl32.Vec4)
	SetFloat(name string, v float32)
	SetVector(name string, v mgl32.Vec4)
	SetTexture(name string, t Texture)
	Release()
}

// Device allocates resources and submits draws.
type Device interface {
	NewBuffer(count, stride int, typ BufferType, mode BufferMode) (Buffer, error)
	NewTexture(img *image.RGBA) (Texture, error)
	// DrawProceduralIndirect queues an instance-less draw whose vertex count
	// is read from args at argsOffset bytes. A nil cam draws for every camera.
	DrawProceduralIndirect(mat Material, bounds Bounds, topo Topology, args Buffer, argsOffset int, cam Camera)
}

// DispatchGroups returns the number of thread groups needed to cover work
// items with groups of groupSize threads.
func DispatchGroups(work, groupSize uint32) uint32 {
	if work == 0 {
		return 0
	}
	if groupSize == 0 {
		groupSize = 1
	}
	return (work + groupSize - 1) / groupSize
}

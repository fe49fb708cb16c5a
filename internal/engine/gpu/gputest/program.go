package gputest

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
)

// BufferState is a bound buffer as seen at dispatch time.
type BufferState struct {
	Buffer  gpu.Buffer
	Counter uint32
	Data    any
}

// Dispatch is one recorded compute dispatch.
type Dispatch struct {
	Kernel  int
	Groups  [3]uint32
	Buffers map[string]BufferState
}

// ComputeProgram records parameters and dispatches.
type ComputeProgram struct {
	Kernels   []string
	GroupSize [3]uint32

	Ints       map[string]int32
	Floats     map[string]float32
	Vectors    map[string]mgl32.Vec4
	Buffers    map[string]gpu.Buffer
	Dispatches []Dispatch

	Parent   *ComputeProgram
	Clones   []*ComputeProgram
	Releases int
}

// NewComputeProgram returns a program exposing kernel "CSMain" with the
// given X thread-group size.
func NewComputeProgram(groupSize uint32) *ComputeProgram {
	return &ComputeProgram{
		Kernels:   []string{"CSMain"},
		GroupSize: [3]uint32{groupSize, 1, 1},
		Ints:      make(map[string]int32),
		Floats:    make(map[string]float32),
		Vectors:   make(map[string]mgl32.Vec4),
		Buffers:   make(map[string]gpu.Buffer),
	}
}

func (p *ComputeProgram) Clone() gpu.ComputeProgram {
	c := NewComputeProgram(p.GroupSize[0])
	c.Kernels = append([]string(nil), p.Kernels...)
	c.GroupSize = p.GroupSize
	for k, v := range p.Ints {
		c.Ints[k] = v
	}
	for k, v := range p.Floats {
		c.Floats[k] = v
	}
	for k, v := range p.Vectors {
		c.Vectors[k] = v
	}
	c.Parent = p
	p.Clones = append(p.Clones, c)
	return c
}

func (p *ComputeProgram) FindKernel(name string) (int, error) {
	for i, k := range p.Kernels {
		if k == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%q: %w", name, gpu.ErrKernelNotFound)
}

func (p *ComputeProgram) SetInt(name string, v int32)         { p.Ints[name] = v }
func (p *ComputeProgram) SetFloat(name string, v float32)     { p.Floats[name] = v }
func (p *ComputeProgram) SetVector(name string, v mgl32.Vec4) { p.Vectors[name] = v }

func (p *ComputeProgram) SetBuffer(kernel int, name string, b gpu.Buffer) {
	p.Buffers[name] = b
}

func (p *ComputeProgram) KernelThreadGroupSizes(kernel int) (uint32, uint32, uint32) {
	return p.GroupSize[0], p.GroupSize[1], p.GroupSize[2]
}

func (p *ComputeProgram) Dispatch(kernel int, x, y, z uint32) {
	d := Dispatch{
		Kernel:  kernel,
		Groups:  [3]uint32{x, y, z},
		Buffers: make(map[string]BufferState, len(p.Buffers)),
	}
	for name, b := range p.Buffers {
		st := BufferState{Buffer: b}
		if fb, ok := b.(*Buffer); ok {
			st.Counter = fb.Counter
			st.Data = fb.Data
		}
		d.Buffers[name] = st
	}
	p.Dispatches = append(p.Dispatches, d)
}

func (p *ComputeProgram) Release() { p.Releases++ }

// Material records parameters.
type Material struct {
	Buffers  map[string]gpu.Buffer
	Colors   map[string]mgl32.Vec4
	Floats   map[string]float32
	Vectors  map[string]mgl32.Vec4
	Textures map[string]gpu.Texture

	Parent   *Material
	Clones   []*Material
	Releases int
}

func NewMaterial() *Material {
	return &Material{
		Buffers:  make(map[string]gpu.Buffer),
		Colors:   make(map[string]mgl32.Vec4),
		Floats:   make(map[string]float32),
		Vectors:  make(map[string]mgl32.Vec4),
		Textures: make(map[string]gpu.Texture),
	}
}

func (m *Material) Clone() gpu.Material {
	c := NewMaterial()
	for k, v := range m.Buffers {
		c.Buffers[k] = v
	}
	for k, v := range m.Colors {
		c.Colors[k] = v
	}
	for k, v := range m.Floats {
		c.Floats[k] = v
	}
	for k, v := range m.Vectors {
		c.Vectors[k] = v
	}
	for k, v := range m.Textures {
		c.Textures[k] = v
	}
	c.Parent = m
	m.Clones = append(m.Clones, c)
	return c
}

func (m *Material) SetBuffer(name string, b gpu.Buffer)   { m.Buffers[name] = b }
func (m *Material) SetColor(name string, c mgl32.Vec4)    { m.Colors[name] = c }
func (m *Material) SetFloat(name string, v float32)       { m.Floats[name] = v }
func (m *Material) SetVector(name string, v mgl32.Vec4)   { m.Vectors[name] = v }
func (m *Material) SetTexture(name string, t gpu.Texture) { m.Textures[name] = t }
func (m *Material) Release()                              { m.Releases++ }

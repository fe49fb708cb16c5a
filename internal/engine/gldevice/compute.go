package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/engine/shader"
)

// ComputeProgram is a GLSL compute shader with one entry point, exposed
// under kernel name.
type ComputeProgram struct {
	prog     *program
	kernel   string
	params   params
	released bool
}

// NewComputeProgram compiles source and names its entry point kernel.
func (d *Device) NewComputeProgram(kernel, source string) (*ComputeProgram, error) {
	id, err := shader.CompileCompute(source)
	if err != nil {
		return nil, fmt.Errorf("compute program %s: %w", kernel, err)
	}
	p := d.newProgram(id, kernel)
	p.groupSize = shader.WorkGroupSize(id)

	d.log.Debug("compute program compiled",
		zap.String("kernel", kernel),
		zap.Uint32s("group_size", p.groupSize[:]),
	)
	return &ComputeProgram{prog: p, kernel: kernel, params: newParams()}, nil
}

// Clone shares the compiled program and copies the parameters.
func (c *ComputeProgram) Clone() gpu.ComputeProgram {
	c.prog.retain()
	return &ComputeProgram{prog: c.prog, kernel: c.kernel, params: c.params.clone()}
}

func (c *ComputeProgram) FindKernel(name string) (int, error) {
	if name != c.kernel {
		return -1, fmt.Errorf("%w: %q", gpu.ErrKernelNotFound, name)
	}
	return 0, nil
}

func (c *ComputeProgram) SetInt(name string, v int32)         { c.params.ints[name] = v }
func (c *ComputeProgram) SetFloat(name string, v float32)     { c.params.floats[name] = v }
func (c *ComputeProgram) SetVector(name string, v mgl32.Vec4) { c.params.vectors[name] = v }

func (c *ComputeProgram) SetBuffer(kernel int, name string, b gpu.Buffer) {
	buf, ok := b.(*Buffer)
	if !ok {
		c.prog.dev.log.Warn("ignoring foreign buffer", zap.String("name", name))
		return
	}
	c.params.buffers[name] = buf
}

func (c *ComputeProgram) KernelThreadGroupSizes(kernel int) (x, y, z uint32) {
	s := c.prog.groupSize
	return s[0], s[1], s[2]
}

// Dispatch runs the program and makes its writes visible to later storage
// reads, atomic counter reads and indirect draws.
func (c *ComputeProgram) Dispatch(kernel int, groupsX, groupsY, groupsZ uint32) {
	if c.released || kernel != 0 {
		return
	}
	if groupsX == 0 || groupsY == 0 || groupsZ == 0 {
		return
	}
	gl.UseProgram(c.prog.id)
	c.params.apply(c.prog)
	gl.DispatchCompute(groupsX, groupsY, groupsZ)
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.COMMAND_BARRIER_BIT | gl.ATOMIC_COUNTER_BARRIER_BIT)
	gl.UseProgram(0)
}

// Release drops this instance's reference to the shared program.
func (c *ComputeProgram) Release() {
	if c.released {
		return
	}
	c.released = true
	c.prog.release()
}

var _ gpu.ComputeProgram = (*ComputeProgram)(nil)

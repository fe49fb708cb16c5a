package gldevice

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/engine/shader"
)

// Uniforms the device sets on every material before drawing.
const (
	UniformViewProj  = "_ViewProj"
	UniformCameraPos = "_WorldSpaceCameraPos"
	UniformTime      = "_Time"
)

// Material is a vertex/fragment program plus its parameters.
type Material struct {
	prog     *program
	params   params
	released bool
}

// NewMaterial compiles a draw program.
func (d *Device) NewMaterial(name, vertexSrc, fragmentSrc string) (*Material, error) {
	id, err := shader.CompileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("material %s: %w", name, err)
	}
	d.log.Debug("material compiled", zap.String("name", name))
	return &Material{prog: d.newProgram(id, name), params: newParams()}, nil
}

// Clone shares the compiled program and copies the parameters.
func (m *Material) Clone() gpu.Material {
	m.prog.retain()
	return &Material{prog: m.prog, params: m.params.clone()}
}

func (m *Material) SetColor(name string, c mgl32.Vec4)  { m.params.vectors[name] = c }
func (m *Material) SetFloat(name string, v float32)     { m.params.floats[name] = v }
func (m *Material) SetVector(name string, v mgl32.Vec4) { m.params.vectors[name] = v }

func (m *Material) SetBuffer(name string, b gpu.Buffer) {
	buf, ok := b.(*Buffer)
	if !ok {
		m.prog.dev.log.Warn("ignoring foreign buffer", zap.String("name", name))
		return
	}
	m.params.buffers[name] = buf
}

func (m *Material) SetTexture(name string, t gpu.Texture) {
	tex, ok := t.(*Texture)
	if !ok {
		m.prog.dev.log.Warn("ignoring foreign texture", zap.String("name", name))
		return
	}
	m.params.textures[name] = tex
}

func (m *Material) apply(viewProj mgl32.Mat4, camPos mgl32.Vec3, time float32) {
	gl.UseProgram(m.prog.id)
	m.params.apply(m.prog)
	if loc := m.prog.uniform(UniformViewProj); loc >= 0 {
		gl.UniformMatrix4fv(loc, 1, false, &viewProj[0])
	}
	if loc := m.prog.uniform(UniformCameraPos); loc >= 0 {
		gl.Uniform4f(loc, camPos[0], camPos[1], camPos[2], 1)
	}
	if loc := m.prog.uniform(UniformTime); loc >= 0 {
		gl.Uniform1f(loc, time)
	}
}

// Release drops this instance's reference to the shared program.
func (m *Material) Release() {
	if m.released {
		return
	}
	m.released = true
	m.prog.release()
}

var _ gpu.Material = (*Material)(nil)

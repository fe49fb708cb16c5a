package debug

import (
	"fmt"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/engine/shader"
)

const overlayVertexShader = `#version 430 core
layout(location = 0) in vec3 aPosition;
uniform mat4 uViewProj;
void main() {
    gl_Position = uViewProj * vec4(aPosition, 1.0);
}
`

const overlayFragmentShader = `#version 430 core
uniform vec4 uColor;
out vec4 FragColor;
void main() {
    FragColor = uColor;
}
`

// BoundsOverlay draws bounds as colored line boxes on top of the scene.
type BoundsOverlay struct {
	program     uint32
	vao         uint32
	vbo         uint32
	locViewProj int32
	locColor    int32

	capacity int // floats the VBO can hold
	verts    []float32
}

// NewBoundsOverlay compiles the line program. Requires a current GL context.
func NewBoundsOverlay() (*BoundsOverlay, error) {
	program, err := shader.CompileProgram(overlayVertexShader, overlayFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("bounds overlay shader: %w", err)
	}

	o := &BoundsOverlay{
		program:     program,
		locViewProj: shader.GetUniform(program, "uViewProj"),
		locColor:    shader.GetUniform(program, "uColor"),
	}

	gl.GenVertexArrays(1, &o.vao)
	gl.GenBuffers(1, &o.vbo)
	gl.BindVertexArray(o.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, 12, 0)
	gl.BindVertexArray(0)

	return o, nil
}

// Draw outlines every bounds with color.
func (o *BoundsOverlay) Draw(viewProj mgl32.Mat4, bounds []gpu.Bounds, color mgl32.Vec4) {
	if len(bounds) == 0 {
		return
	}
	o.verts = AppendBoundsWireframes(o.verts[:0], bounds, DefaultBoundsPadding)

	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	if len(o.verts) > o.capacity {
		o.capacity = len(o.verts)
		gl.BufferData(gl.ARRAY_BUFFER, o.capacity*4, gl.Ptr(o.verts), gl.DYNAMIC_DRAW)
	} else {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(o.verts)*4, gl.Ptr(o.verts))
	}

	gl.UseProgram(o.program)
	gl.UniformMatrix4fv(o.locViewProj, 1, false, &viewProj[0])
	gl.Uniform4fv(o.locColor, 1, &color[0])

	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(o.vao)
	gl.DrawArrays(gl.LINES, 0, int32(len(o.verts)/3))
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
}

// Destroy releases GL resources.
func (o *BoundsOverlay) Destroy() {
	if o.vbo != 0 {
		gl.DeleteBuffers(1, &o.vbo)
		o.vbo = 0
	}
	if o.vao != 0 {
		gl.DeleteVertexArrays(1, &o.vao)
		o.vao = 0
	}
	if o.program != 0 {
		gl.DeleteProgram(o.program)
		o.program = 0
	}
}

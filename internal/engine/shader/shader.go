// Package shader provides OpenGL shader compilation utilities.
package shader

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
)

// CompileProgram compiles vertex and fragment shaders and links them into a program.
// Returns the program ID or an error if compilation/linking fails.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	return link(vertShader, fragShader)
}

// CompileCompute compiles and links a compute shader program.
func CompileCompute(computeSrc string) (uint32, error) {
	cs, err := compileShader(computeSrc, gl.COMPUTE_SHADER, "compute")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(cs)

	return link(cs)
}

func link(shaders ...uint32) (uint32, error) {
	program := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(program, s)
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen)
		gl.GetProgramInfoLog(program, logLen, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(string(log), "\x00"))
	}

	for _, s := range shaders {
		gl.DetachShader(program, s)
	}
	return program, nil
}

// compileShader compiles a single shader of the given type.
func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := make([]byte, logLen)
		gl.GetShaderInfoLog(shader, logLen, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%s shader: %s", name, strings.TrimRight(string(log), "\x00"))
	}

	return shader, nil
}

// GetUniform returns the uniform location for the given name, or -1 if the
// uniform is not found or inactive.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

// StorageBlockBinding returns the binding point of a shader storage block,
// or -1 if the program has no active block of that name.
func StorageBlockBinding(program uint32, name string) int32 {
	idx := gl.GetProgramResourceIndex(program, gl.SHADER_STORAGE_BLOCK, gl.Str(name+"\x00"))
	if idx == gl.INVALID_INDEX {
		return -1
	}
	props := []uint32{gl.BUFFER_BINDING}
	var binding int32
	gl.GetProgramResourceiv(program, gl.SHADER_STORAGE_BLOCK, idx, 1, &props[0], 1, nil, &binding)
	return binding
}

// AtomicCounterBinding returns the atomic counter buffer binding point of the
// atomic_uint uniform name, or -1 if it is not active.
func AtomicCounterBinding(program uint32, name string) int32 {
	idx := gl.GetProgramResourceIndex(program, gl.UNIFORM, gl.Str(name+"\x00"))
	if idx == gl.INVALID_INDEX {
		return -1
	}
	props := []uint32{gl.ATOMIC_COUNTER_BUFFER_INDEX}
	var bufIndex int32
	gl.GetProgramResourceiv(program, gl.UNIFORM, idx, 1, &props[0], 1, nil, &bufIndex)
	if bufIndex < 0 {
		return -1
	}
	var binding int32
	gl.GetActiveAtomicCounterBufferiv(program, uint32(bufIndex), gl.ATOMIC_COUNTER_BUFFER_BINDING, &binding)
	return binding
}

// WorkGroupSize returns the local size declared by a compute program.
func WorkGroupSize(program uint32) [3]uint32 {
	var size [3]int32
	gl.GetProgramiv(program, gl.COMPUTE_WORK_GROUP_SIZE, &size[0])
	return [3]uint32{uint32(size[0]), uint32(size[1]), uint32(size[2])}
}

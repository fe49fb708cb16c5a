package gldevice

import (
	"sort"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/engine/shader"
)

// program is a linked GL program shared by every clone of a compute
// program or material. Resource lookups are cached per name.
type program struct {
	dev       *Device
	id        uint32
	name      string
	refs      int
	groupSize [3]uint32

	uniforms map[string]int32
	blocks   map[string]int32
	counters map[string]int32
}

func (d *Device) newProgram(id uint32, name string) *program {
	p := &program{
		dev:      d,
		id:       id,
		name:     name,
		refs:     1,
		uniforms: make(map[string]int32),
		blocks:   make(map[string]int32),
		counters: make(map[string]int32),
	}
	d.programs[p] = struct{}{}
	return p
}

func (p *program) retain() { p.refs++ }

func (p *program) release() {
	p.refs--
	if p.refs <= 0 {
		p.delete()
	}
}

func (p *program) delete() {
	if p.id != 0 {
		gl.DeleteProgram(p.id)
		p.id = 0
	}
	delete(p.dev.programs, p)
}

func (p *program) uniform(name string) int32 {
	loc, ok := p.uniforms[name]
	if !ok {
		loc = shader.GetUniform(p.id, name)
		p.uniforms[name] = loc
	}
	return loc
}

func (p *program) storageBinding(name string) int32 {
	b, ok := p.blocks[name]
	if !ok {
		b = shader.StorageBlockBinding(p.id, name)
		p.blocks[name] = b
		if b < 0 {
			p.dev.log.Debug("storage block not active", zap.String("program", p.name), zap.String("block", name))
		}
	}
	return b
}

// counterBinding resolves the atomic counter paired with the append buffer
// block name. Programs declare it as "<name>Counter".
func (p *program) counterBinding(name string) int32 {
	b, ok := p.counters[name]
	if !ok {
		b = shader.AtomicCounterBinding(p.id, name+"Counter")
		p.counters[name] = b
	}
	return b
}

// params is the per-instance state applied to a shared program.
type params struct {
	ints     map[string]int32
	floats   map[string]float32
	vectors  map[string]mgl32.Vec4
	buffers  map[string]*Buffer
	textures map[string]*Texture
}

func newParams() params {
	return params{
		ints:     make(map[string]int32),
		floats:   make(map[string]float32),
		vectors:  make(map[string]mgl32.Vec4),
		buffers:  make(map[string]*Buffer),
		textures: make(map[string]*Texture),
	}
}

func (ps params) clone() params {
	c := newParams()
	for k, v := range ps.ints {
		c.ints[k] = v
	}
	for k, v := range ps.floats {
		c.floats[k] = v
	}
	for k, v := range ps.vectors {
		c.vectors[k] = v
	}
	for k, v := range ps.buffers {
		c.buffers[k] = v
	}
	for k, v := range ps.textures {
		c.textures[k] = v
	}
	return c
}

// apply uploads uniforms and binds buffers and textures. The program must
// be in use.
func (ps params) apply(p *program) {
	for name, v := range ps.ints {
		if loc := p.uniform(name); loc >= 0 {
			gl.Uniform1i(loc, v)
		}
	}
	for name, v := range ps.floats {
		if loc := p.uniform(name); loc >= 0 {
			gl.Uniform1f(loc, v)
		}
	}
	for name, v := range ps.vectors {
		if loc := p.uniform(name); loc >= 0 {
			gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
		}
	}

	for name, b := range ps.buffers {
		if b.released {
			continue
		}
		if binding := p.storageBinding(name); binding >= 0 {
			gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(binding), b.id)
		}
		if b.counter != 0 {
			if binding := p.counterBinding(name); binding >= 0 {
				gl.BindBufferBase(gl.ATOMIC_COUNTER_BUFFER, uint32(binding), b.counter)
			}
		}
	}

	// Texture units follow name order so they are stable between frames.
	names := make([]string, 0, len(ps.textures))
	for name := range ps.textures {
		names = append(names, name)
	}
	sort.Strings(names)
	for unit, name := range names {
		t := ps.textures[name]
		loc := p.uniform(name)
		if loc < 0 || t.id == 0 {
			continue
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, t.id)
		gl.Uniform1i(loc, int32(unit))
	}
}

package gldevice

import (
	"fmt"
	"reflect"

	"github.com/go-gl/gl/v4.3-core/gl"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
)

// Buffer is a shader storage buffer. Append buffers carry a separate
// atomic counter buffer holding the element count.
type Buffer struct {
	dev      *Device
	id       uint32
	counter  uint32
	count    int
	stride   int
	typ      gpu.BufferType
	mode     gpu.BufferMode
	released bool
}

// NewBuffer allocates count elements of stride bytes.
func (d *Device) NewBuffer(count, stride int, typ gpu.BufferType, mode gpu.BufferMode) (gpu.Buffer, error) {
	if count <= 0 || stride <= 0 {
		return nil, fmt.Errorf("invalid %s buffer size %d x %d", typ, count, stride)
	}

	usage := uint32(gl.STATIC_DRAW)
	if mode == gpu.Dynamic || typ != gpu.Structured {
		usage = gl.DYNAMIC_DRAW
	}

	drainErrors()
	b := &Buffer{dev: d, count: count, stride: stride, typ: typ, mode: mode}
	gl.GenBuffers(1, &b.id)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.id)
	gl.BufferData(gl.SHADER_STORAGE_BUFFER, count*stride, nil, usage)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)

	if typ == gpu.Append {
		var zero uint32
		gl.GenBuffers(1, &b.counter)
		gl.BindBuffer(gl.ATOMIC_COUNTER_BUFFER, b.counter)
		gl.BufferData(gl.ATOMIC_COUNTER_BUFFER, 4, gl.Ptr(&zero), gl.DYNAMIC_DRAW)
		gl.BindBuffer(gl.ATOMIC_COUNTER_BUFFER, 0)
	}

	if err := glError(fmt.Sprintf("allocating %s buffer of %d bytes", typ, count*stride)); err != nil {
		b.free()
		return nil, err
	}
	d.buffers[b] = struct{}{}
	return b, nil
}

func (b *Buffer) Count() int     { return b.count }
func (b *Buffer) Stride() int    { return b.stride }
func (b *Buffer) Released() bool { return b.released }

// SetData uploads a slice starting at element zero.
func (b *Buffer) SetData(data any) error {
	if b.released {
		return gpu.ErrReleased
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("SetData: want a slice, got %T", data)
	}
	if v.Len() == 0 {
		return nil
	}
	size := v.Len() * int(v.Type().Elem().Size())
	if size > b.count*b.stride {
		return fmt.Errorf("SetData: %d bytes exceed buffer size %d", size, b.count*b.stride)
	}

	drainErrors()
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, b.id)
	gl.BufferSubData(gl.SHADER_STORAGE_BUFFER, 0, size, gl.Ptr(data))
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	return glError("SetData")
}

// SetCounterValue writes the append counter. Other buffer types have none.
func (b *Buffer) SetCounterValue(v uint32) {
	if b.released || b.counter == 0 {
		return
	}
	gl.BindBuffer(gl.ATOMIC_COUNTER_BUFFER, b.counter)
	gl.BufferSubData(gl.ATOMIC_COUNTER_BUFFER, 0, 4, gl.Ptr(&v))
	gl.BindBuffer(gl.ATOMIC_COUNTER_BUFFER, 0)
}

// Release frees the GL buffers.
func (b *Buffer) Release() {
	if b.released {
		return
	}
	b.free()
	delete(b.dev.buffers, b)
}

func (b *Buffer) free() {
	if b.id != 0 {
		gl.DeleteBuffers(1, &b.id)
		b.id = 0
	}
	if b.counter != 0 {
		gl.DeleteBuffers(1, &b.counter)
		b.counter = 0
	}
	b.released = true
}

// Texture is a 2D RGBA texture.
type Texture struct {
	dev           *Device
	id            uint32
	width, height int
}

func (t *Texture) Size() (w, h int) { return t.width, t.height }

// Release deletes the GL texture.
func (t *Texture) Release() {
	if t.id == 0 {
		return
	}
	gl.DeleteTextures(1, &t.id)
	t.id = 0
	delete(t.dev.textures, t)
}

var (
	_ gpu.Buffer  = (*Buffer)(nil)
	_ gpu.Texture = (*Texture)(nil)
)

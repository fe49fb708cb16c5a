// Package gputest provides recording fakes of the gpu interfaces so code
// that drives the GPU can be tested without a graphics context.
package gputest

import (
	"fmt"
	"image"
	"reflect"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
)

// Draw is one recorded DrawProceduralIndirect call.
type Draw struct {
	Material   gpu.Material
	Bounds     gpu.Bounds
	Topology   gpu.Topology
	Args       gpu.Buffer
	ArgsOffset int
	Camera     gpu.Camera
}

// Device records allocations and draws.
type Device struct {
	// FailAt makes the n-th NewBuffer call (0-based) fail with
	// gpu.ErrOutOfMemory. Negative disables failure injection.
	FailAt int

	Buffers  []*Buffer
	Textures []*Texture
	Draws    []Draw

	calls int
}

// NewDevice returns a Device with failure injection disabled.
func NewDevice() *Device {
	return &Device{FailAt: -1}
}

func (d *Device) NewBuffer(count, stride int, typ gpu.BufferType, mode gpu.BufferMode) (gpu.Buffer, error) {
	n := d.calls
	d.calls++
	if d.FailAt >= 0 && n == d.FailAt {
		return nil, fmt.Errorf("allocating %d x %d byte %s buffer: %w", count, stride, typ, gpu.ErrOutOfMemory)
	}
	b := &Buffer{count: count, stride: stride, Type: typ, Mode: mode}
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

func (d *Device) NewTexture(img *image.RGBA) (gpu.Texture, error) {
	t := &Texture{W: img.Bounds().Dx(), H: img.Bounds().Dy()}
	d.Textures = append(d.Textures, t)
	return t, nil
}

func (d *Device) DrawProceduralIndirect(mat gpu.Material, bounds gpu.Bounds, topo gpu.Topology, args gpu.Buffer, argsOffset int, cam gpu.Camera) {
	d.Draws = append(d.Draws, Draw{
		Material:   mat,
		Bounds:     bounds,
		Topology:   topo,
		Args:       args,
		ArgsOffset: argsOffset,
		Camera:     cam,
	})
}

// NewBufferCalls returns the number of NewBuffer calls, failed ones included.
func (d *Device) NewBufferCalls() int {
	return d.calls
}

// LiveBuffers returns the allocated buffers not yet released.
func (d *Device) LiveBuffers() int {
	n := 0
	for _, b := range d.Buffers {
		if !b.Released() {
			n++
		}
	}
	return n
}

// ResetDraws forgets recorded draws.
func (d *Device) ResetDraws() {
	d.Draws = d.Draws[:0]
}

// Buffer is a CPU-side stand-in for a GPU buffer.
type Buffer struct {
	Type gpu.BufferType
	Mode gpu.BufferMode

	// Data holds the last uploaded slice.
	Data any
	// Counter is the append counter; CounterSets counts writes to it.
	Counter     uint32
	CounterSets int
	// Releases counts Release calls, including redundant ones.
	Releases int

	count, stride int
}

func (b *Buffer) Count() int  { return b.count }
func (b *Buffer) Stride() int { return b.stride }

func (b *Buffer) SetData(data any) error {
	if b.Released() {
		return gpu.ErrReleased
	}
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return fmt.Errorf("gputest: SetData wants a slice, got %T", data)
	}
	if size := v.Len() * int(v.Type().Elem().Size()); size > b.count*b.stride {
		return fmt.Errorf("gputest: %d bytes overflow %d x %d byte buffer", size, b.count, b.stride)
	}
	cp := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(cp, v)
	b.Data = cp.Interface()
	return nil
}

func (b *Buffer) SetCounterValue(v uint32) {
	b.Counter = v
	b.CounterSets++
}

func (b *Buffer) Release()       { b.Releases++ }
func (b *Buffer) Released() bool { return b.Releases > 0 }

// Texture is a fake texture.
type Texture struct {
	W, H     int
	Releases int
}

func (t *Texture) Size() (int, int) { return t.W, t.H }
func (t *Texture) Release()         { t.Releases++ }

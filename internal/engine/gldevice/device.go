// Package gldevice implements the gpu contracts on OpenGL 4.3: shader
// storage buffers, atomic counters, compute dispatch and indirect draws.
package gldevice

import (
	"fmt"
	"image"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/engine/frustum"
	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/logger"
)

// View is a camera the device renders queued draws for.
type View interface {
	gpu.Camera
	Position() mgl32.Vec3
	ViewProjection() mgl32.Mat4
}

// Stats counts draw submissions for the current frame.
type Stats struct {
	Queued   int
	Drawn    int
	Culled   int
	Buffers  int // live buffers
	Textures int // live textures
}

type drawCommand struct {
	material   gpu.Material
	bounds     gpu.Bounds
	topology   gpu.Topology
	args       gpu.Buffer
	argsOffset int
	camera     gpu.Camera // nil draws for every camera
}

// Device is the OpenGL backend. All methods must be called on the thread
// owning the GL context.
type Device struct {
	log *zap.Logger

	emptyVAO uint32
	queue    []drawCommand
	stats    Stats
	time     float32

	buffers  map[*Buffer]struct{}
	textures map[*Texture]struct{}
	programs map[*program]struct{}
}

// New initializes GL function pointers for the current context and checks
// that compute shaders are available.
func New() (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	d := newDevice()

	version := gl.GoStr(gl.GetString(gl.VERSION))
	rendererName := gl.GoStr(gl.GetString(gl.RENDERER))
	d.log.Info("OpenGL initialized",
		zap.String("version", version),
		zap.String("renderer", rendererName),
	)

	var major, minor int32
	gl.GetIntegerv(gl.MAJOR_VERSION, &major)
	gl.GetIntegerv(gl.MINOR_VERSION, &minor)
	if major < 4 || (major == 4 && minor < 3) {
		return nil, fmt.Errorf("OpenGL 4.3 required for compute shaders, got %d.%d", major, minor)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(0.45, 0.62, 0.85, 1.0) // sky

	// Procedural draws fetch vertices from storage buffers, but core
	// profile still needs a bound VAO.
	gl.GenVertexArrays(1, &d.emptyVAO)

	return d, nil
}

func newDevice() *Device {
	return &Device{
		log:      logger.Named("gl"),
		buffers:  make(map[*Buffer]struct{}),
		textures: make(map[*Texture]struct{}),
		programs: make(map[*program]struct{}),
	}
}

// Close releases every resource still owned by the device.
func (d *Device) Close() error {
	var err error
	for b := range d.buffers {
		err = multierr.Append(err, fmt.Errorf("buffer %s leaked (%d x %d)", b.typ, b.count, b.stride))
		b.Release()
	}
	for t := range d.textures {
		t.Release()
	}
	for p := range d.programs {
		p.delete()
	}
	if d.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &d.emptyVAO)
		d.emptyVAO = 0
	}
	d.queue = nil
	return multierr.Append(err, glError("close"))
}

// Resize updates the viewport.
func (d *Device) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	d.log.Debug("viewport resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// BeginFrame clears the back buffer and sets the shader clock.
func (d *Device) BeginFrame(seconds float32) {
	d.time = seconds
	d.stats.Queued, d.stats.Drawn, d.stats.Culled = 0, 0, 0
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// DrawProceduralIndirect queues a draw. Draws execute in RenderCamera.
func (d *Device) DrawProceduralIndirect(mat gpu.Material, bounds gpu.Bounds, topo gpu.Topology, args gpu.Buffer, argsOffset int, cam gpu.Camera) {
	d.queue = append(d.queue, drawCommand{
		material:   mat,
		bounds:     bounds,
		topology:   topo,
		args:       args,
		argsOffset: argsOffset,
		camera:     cam,
	})
	d.stats.Queued++
}

// visible returns the queued draws targeting view whose bounds intersect
// the view's culling frustum.
func (d *Device) visible(view View) []drawCommand {
	f := frustum.FromMatrix(view.CullingMatrix())
	out := make([]drawCommand, 0, len(d.queue))
	for _, cmd := range d.queue {
		if cmd.camera != nil && cmd.camera != gpu.Camera(view) {
			continue
		}
		if !f.IntersectsAABB(cmd.bounds.Min(), cmd.bounds.Max()) {
			d.stats.Culled++
			continue
		}
		out = append(out, cmd)
	}
	return out
}

// RenderCamera culls the queue with the view's current culling matrix,
// runs the pre-render hooks, then draws what survived with the view's
// regular projection.
func (d *Device) RenderCamera(view View, preRender ...func()) {
	draws := d.visible(view)
	for _, hook := range preRender {
		hook()
	}

	viewProj := view.ViewProjection()
	camPos := view.Position()

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.CULL_FACE)
	gl.BindVertexArray(d.emptyVAO)

	for _, cmd := range draws {
		mat, ok := cmd.material.(*Material)
		if !ok || mat.released {
			d.log.Warn("skipping draw with unusable material", zap.String("type", fmt.Sprintf("%T", cmd.material)))
			continue
		}
		args, ok := cmd.args.(*Buffer)
		if !ok || args.released {
			continue
		}
		mat.apply(viewProj, camPos, d.time)
		gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, args.id)
		gl.DrawArraysIndirect(topologyMode(cmd.topology), gl.PtrOffset(cmd.argsOffset))
		d.stats.Drawn++
	}

	gl.BindBuffer(gl.DRAW_INDIRECT_BUFFER, 0)
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
}

// EndFrame drops the queued draws.
func (d *Device) EndFrame() {
	d.queue = d.queue[:0]
}

// Stats returns counters for the current frame.
func (d *Device) Stats() Stats {
	s := d.stats
	s.Buffers = len(d.buffers)
	s.Textures = len(d.textures)
	return s
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (d *Device) ReadPixels(width, height int) []byte {
	pixels := make([]byte, width*height*4)
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// NewTexture uploads img as a repeating, mipmapped RGBA texture.
func (d *Device) NewTexture(img *image.RGBA) (gpu.Texture, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("texture has zero size %dx%d", w, h)
	}

	drainErrors()
	t := &Texture{dev: d, width: w, height: h}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if err := glError("texture upload"); err != nil {
		gl.DeleteTextures(1, &t.id)
		return nil, err
	}
	d.textures[t] = struct{}{}
	return t, nil
}

func topologyMode(t gpu.Topology) uint32 {
	if t == gpu.Lines {
		return gl.LINES
	}
	return gl.TRIANGLES
}

// drainErrors clears the GL error queue so the next glError call reports
// only errors raised after it.
func drainErrors() {
	for i := 0; i < 16; i++ {
		if gl.GetError() == gl.NO_ERROR {
			return
		}
	}
}

// glError converts pending GL errors to a Go error. GL_OUT_OF_MEMORY maps to
// gpu.ErrOutOfMemory.
func glError(op string) error {
	var codes []string
	oom := false
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if code == gl.OUT_OF_MEMORY {
			oom = true
		}
		codes = append(codes, errorName(code))
		if len(codes) == 16 {
			break
		}
	}
	switch {
	case oom:
		return fmt.Errorf("%s: %w", op, gpu.ErrOutOfMemory)
	case len(codes) > 0:
		return fmt.Errorf("%s: %s", op, strings.Join(codes, ", "))
	}
	return nil
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	default:
		return fmt.Sprintf("GL error 0x%04x", code)
	}
}

var _ gpu.Device = (*Device)(nil)

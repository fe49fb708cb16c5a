package clouds

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/logger"
)

// ErrNotReady is returned by Update before Setup.
var ErrNotReady = errors.New("clouds: manager not set up")

// Viewer is the camera the grid follows. Its culling matrix is narrowed for
// the cloud draw pass and restored by PreRender.
type Viewer interface {
	gpu.Camera
	Position() mgl32.Vec3
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView() float32
	AspectRatio() float32
	NearClip() float32
	FarClip() float32
	ViewMatrix() mgl32.Mat4
	SetCullingMatrix(m mgl32.Mat4)
	ResetCullingMatrix()
}

// Assets resolves the default programs and textures.
type Assets interface {
	DefaultComputeProgram() (gpu.ComputeProgram, error)
	DefaultMaterial() (gpu.Material, error)
	// LoadTexture loads an image asset. The empty path is the built-in noise.
	LoadTexture(path string) (gpu.Texture, error)
}

// Deps are the collaborators of a Manager.
type Deps struct {
	Device gpu.Device
	Viewer Viewer
	Assets Assets

	// Compute and Material replace the asset defaults. They stay owned by the
	// caller.
	Compute  gpu.ComputeProgram
	Material gpu.Material
}

// Config is the session configuration of a Manager.
type Config struct {
	Chunk    ChunkConfig
	Material MaterialSettings
	// SingleCamera restricts chunk draws to the viewer.
	SingleCamera bool
}

// State is the manager lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "uninitialized"
}

// Stats is a snapshot of the grid.
type Stats struct {
	Coord       Coord
	Live        int
	Initialized int
	// Created and Disposed count chunks over the manager's lifetime.
	Created  uint64
	Disposed uint64
}

// Manager keeps one chunk per grid cell within ChunksPerSide of the viewer's
// cell, creating and destroying chunks as the viewer moves. It is driven
// from the render thread: Setup, then Update and PreRender every frame, then
// Teardown.
type Manager struct {
	deps Deps
	cfg  Config
	log  *zap.Logger

	state    State
	settings *ChunkSettings
	mesh     *BaseMesh

	compute     gpu.ComputeProgram
	material    gpu.Material
	ownCompute  bool
	ownMaterial bool
	noise       gpu.Texture

	renderCamera gpu.Camera
	ortho        mgl32.Mat4

	current Coord
	chunks  map[Coord]*Chunk
	order   []Coord

	created  uint64
	disposed uint64
}

// NewManager returns an uninitialized manager.
func NewManager(deps Deps, cfg Config) (*Manager, error) {
	if deps.Device == nil {
		return nil, errors.New("clouds: nil device")
	}
	if deps.Viewer == nil {
		return nil, errors.New("clouds: nil viewer")
	}
	if deps.Assets == nil && (deps.Compute == nil || deps.Material == nil) {
		return nil, errors.New("clouds: no assets to resolve default programs")
	}

	return &Manager{
		deps:   deps,
		cfg:    cfg,
		log:    logger.Named("clouds"),
		chunks: make(map[Coord]*Chunk),
	}, nil
}

func (m *Manager) State() State              { return m.state }
func (m *Manager) Config() Config            { return m.cfg }
func (m *Manager) Settings() *ChunkSettings  { return m.settings }
func (m *Manager) Mesh() *BaseMesh           { return m.mesh }
func (m *Manager) CurrentCoord() Coord       { return m.current }
func (m *Manager) CullingMatrix() mgl32.Mat4 { return m.ortho.Mul4(m.deps.Viewer.ViewMatrix()) }

// Chunk returns the live chunk at c.
func (m *Manager) Chunk(c Coord) (*Chunk, bool) {
	ch, ok := m.chunks[c]
	return ch, ok
}

// LiveCoords returns the coordinates of all live chunks, ordered by X then Z.
func (m *Manager) LiveCoords() []Coord {
	return slices.Clone(m.order)
}

func (m *Manager) Stats() Stats {
	s := Stats{
		Coord:    m.current,
		Live:     len(m.chunks),
		Created:  m.created,
		Disposed: m.disposed,
	}
	for _, ch := range m.chunks {
		if ch.Initialized() {
			s.Initialized++
		}
	}
	return s
}

// Setup builds the base mesh, binds the material and creates the full chunk
// square around the viewer. Calling Setup on a ready manager tears it down
// first.
func (m *Manager) Setup() error {
	if m.state == StateReady {
		m.Teardown()
	}

	settings, err := NewChunkSettings(m.cfg.Chunk)
	if err != nil {
		return fmt.Errorf("clouds setup: %w", err)
	}
	m.settings = settings

	m.setupViewer()

	if err := m.setupGraphics(); err != nil {
		m.releaseGraphics()
		return fmt.Errorf("clouds setup: %w", err)
	}

	m.mesh = BuildBaseMesh(settings.VertsPerSide(), settings.ChunkWorldSize())

	m.initializeChunks()
	m.state = StateReady

	m.log.Info("cloud grid ready",
		zap.Float32("chunkSize", settings.ChunkWorldSize()),
		zap.Int("vertsPerSide", settings.VertsPerSide()),
		zap.Int("chunks", len(m.chunks)),
		zap.Stringer("coord", m.current),
		zap.Bool("singleCamera", m.cfg.SingleCamera))
	return nil
}

// setupViewer derives the orthographic box that approximates the forward
// view for chunk culling.
func (m *Manager) setupViewer() {
	v := m.deps.Viewer
	far := v.FarClip()
	h := float32(math.Cos(float64(mgl32.DegToRad(v.FieldOfView())))) * far
	w := h * v.AspectRatio()
	m.ortho = mgl32.Ortho(-w, w, -h, h, v.NearClip(), far)
}

func (m *Manager) setupGraphics() error {
	m.compute, m.ownCompute = m.deps.Compute, false
	if m.compute == nil {
		p, err := m.deps.Assets.DefaultComputeProgram()
		if err != nil {
			return fmt.Errorf("default compute program: %w", err)
		}
		m.compute, m.ownCompute = p, true
	}

	m.material, m.ownMaterial = m.deps.Material, false
	if m.material == nil {
		mat, err := m.deps.Assets.DefaultMaterial()
		if err != nil {
			return fmt.Errorf("default material: %w", err)
		}
		m.material, m.ownMaterial = mat, true
	}

	if m.deps.Assets != nil {
		noise, err := m.loadNoise(m.cfg.Material.NoiseTexture)
		if err != nil {
			return err
		}
		m.noise = noise
	}

	m.cfg.Material.Bind(m.material, m.noise)
	bindStack(m.material, m.settings)

	m.renderCamera = nil
	if m.cfg.SingleCamera {
		m.renderCamera = m.deps.Viewer
	}
	return nil
}

func (m *Manager) loadNoise(path string) (gpu.Texture, error) {
	tex, err := m.deps.Assets.LoadTexture(path)
	if err == nil {
		return tex, nil
	}
	if path == "" {
		return nil, fmt.Errorf("default noise texture: %w", err)
	}

	m.log.Warn("noise texture unavailable, using default", zap.String("path", path), zap.Error(err))
	tex, err = m.deps.Assets.LoadTexture("")
	if err != nil {
		return nil, fmt.Errorf("default noise texture: %w", err)
	}
	return tex, nil
}

// releaseGraphics drops the prototypes and releases the ones fetched from
// assets. Textures stay owned by the asset cache.
func (m *Manager) releaseGraphics() {
	if m.ownCompute && m.compute != nil {
		m.compute.Release()
	}
	if m.ownMaterial && m.material != nil {
		m.material.Release()
	}
	m.compute, m.material, m.noise = nil, nil, nil
	m.ownCompute, m.ownMaterial = false, false
}

func (m *Manager) initializeChunks() {
	m.current = CoordAt(m.deps.Viewer.Position(), m.settings.ChunkWorldSize())
	m.deps.Viewer.SetCullingMatrix(m.CullingMatrix())

	r := m.settings.ChunksPerSide()
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			m.createChunk(m.current.Add(Coord{x, z}))
		}
	}
	m.rebuildOrder()
}

func (m *Manager) createChunk(c Coord) {
	pos := c.WorldPosition(m.settings.ChunkWorldSize())
	m.chunks[c] = NewChunk(m.deps.Device, m.mesh, m.settings,
		m.compute.Clone(), m.material.Clone(), m.renderCamera, pos, c)
	m.created++
}

func (m *Manager) destroyChunk(c Coord, ch *Chunk) {
	ch.Destroy()
	delete(m.chunks, c)
	m.disposed++
}

func (m *Manager) rebuildOrder() {
	m.order = m.order[:0]
	for c := range m.chunks {
		m.order = append(m.order, c)
	}
	slices.SortFunc(m.order, func(a, b Coord) int {
		if n := cmp.Compare(a.X, b.X); n != 0 {
			return n
		}
		return cmp.Compare(a.Z, b.Z)
	})
}

// Update reconciles the grid with the viewer position, narrows the viewer's
// culling matrix and queues a draw for every live chunk. A returned error is
// a GPU allocation failure.
func (m *Manager) Update() error {
	if m.state != StateReady {
		return ErrNotReady
	}

	m.reconcile()

	m.deps.Viewer.SetCullingMatrix(m.CullingMatrix())

	for _, c := range m.order {
		if err := m.chunks[c].Draw(); err != nil {
			return err
		}
	}
	return nil
}

// reconcile moves the chunk square to the viewer's cell. It reports whether
// the cell changed.
func (m *Manager) reconcile() bool {
	coord := CoordAt(m.deps.Viewer.Position(), m.settings.ChunkWorldSize())
	if coord == m.current {
		return false
	}
	m.current = coord

	r := m.settings.ChunksPerSide()
	disposed := 0
	for c, ch := range m.chunks {
		if !c.Within(coord, r) {
			m.destroyChunk(c, ch)
			disposed++
		}
	}

	created := 0
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			c := coord.Add(Coord{x, z})
			if _, ok := m.chunks[c]; !ok {
				m.createChunk(c)
				created++
			}
		}
	}
	m.rebuildOrder()

	m.log.Debug("grid moved",
		zap.Stringer("coord", coord),
		zap.Int("created", created),
		zap.Int("disposed", disposed))
	return true
}

// PreRender restores the viewer's default culling matrix once the cloud
// draws have been culled.
func (m *Manager) PreRender() {
	if m.state != StateReady {
		return
	}
	m.deps.Viewer.ResetCullingMatrix()
}

// Teardown destroys every chunk and releases the default programs. The
// manager can be set up again afterwards.
func (m *Manager) Teardown() {
	if m.state != StateReady {
		return
	}

	n := len(m.chunks)
	for c, ch := range m.chunks {
		m.destroyChunk(c, ch)
	}
	m.order = m.order[:0]

	m.releaseGraphics()
	m.deps.Viewer.ResetCullingMatrix()
	m.mesh = nil
	m.state = StateUninitialized

	m.log.Info("cloud grid torn down", zap.Int("chunks", n))
}

// Reconfigure replaces the configuration. A ready manager is rebuilt with
// the new settings.
func (m *Manager) Reconfigure(cfg Config) error {
	m.cfg = cfg
	if m.state != StateReady {
		return nil
	}
	return m.Setup()
}

package gputest

import (
	"errors"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
)

// Camera is a fixed culling matrix.
type Camera struct {
	Matrix mgl32.Mat4
}

func (c *Camera) CullingMatrix() mgl32.Mat4 { return c.Matrix }

// Viewer is a scriptable viewer camera that counts culling overrides.
type Viewer struct {
	Pos    mgl32.Vec3
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32
	View   mgl32.Mat4

	SetCount   int
	ResetCount int

	culling    mgl32.Mat4
	overridden bool
}

// NewViewer returns a viewer at the origin with a 60 degree field of view.
func NewViewer() *Viewer {
	return &Viewer{
		FOV:    60,
		Aspect: 16.0 / 9.0,
		Near:   0.3,
		Far:    1000,
		View:   mgl32.Ident4(),
	}
}

func (v *Viewer) Position() mgl32.Vec3   { return v.Pos }
func (v *Viewer) FieldOfView() float32   { return v.FOV }
func (v *Viewer) AspectRatio() float32   { return v.Aspect }
func (v *Viewer) NearClip() float32      { return v.Near }
func (v *Viewer) FarClip() float32       { return v.Far }
func (v *Viewer) ViewMatrix() mgl32.Mat4 { return v.View }
func (v *Viewer) Overridden() bool       { return v.overridden }

// DefaultCulling is the projection-view matrix used when no override is set.
func (v *Viewer) DefaultCulling() mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(v.FOV), v.Aspect, v.Near, v.Far)
	return proj.Mul4(v.View)
}

func (v *Viewer) SetCullingMatrix(m mgl32.Mat4) {
	v.culling = m
	v.overridden = true
	v.SetCount++
}

func (v *Viewer) ResetCullingMatrix() {
	v.overridden = false
	v.ResetCount++
}

func (v *Viewer) CullingMatrix() mgl32.Mat4 {
	if v.overridden {
		return v.culling
	}
	return v.DefaultCulling()
}

// Assets hands out fresh fake programs and materials on every call.
type Assets struct {
	GroupSize uint32

	// ComputeErr and MaterialErr make the default lookups fail.
	ComputeErr  error
	MaterialErr error

	Computes  []*ComputeProgram
	Materials []*Material
	Textures  map[string]*Texture
	Loaded    []string
}

// ErrNoTexture is returned by Assets.LoadTexture for unknown paths.
var ErrNoTexture = errors.New("gputest: texture not found")

func NewAssets(groupSize uint32) *Assets {
	return &Assets{GroupSize: groupSize, Textures: make(map[string]*Texture)}
}

func (a *Assets) DefaultComputeProgram() (gpu.ComputeProgram, error) {
	if a.ComputeErr != nil {
		return nil, a.ComputeErr
	}
	p := NewComputeProgram(a.GroupSize)
	a.Computes = append(a.Computes, p)
	return p, nil
}

func (a *Assets) DefaultMaterial() (gpu.Material, error) {
	if a.MaterialErr != nil {
		return nil, a.MaterialErr
	}
	m := NewMaterial()
	a.Materials = append(a.Materials, m)
	return m, nil
}

// LoadTexture returns a registered texture, or a 1x1 texture for the empty
// path.
func (a *Assets) LoadTexture(path string) (gpu.Texture, error) {
	a.Loaded = append(a.Loaded, path)
	if path == "" {
		t := &Texture{W: 1, H: 1}
		a.Textures[path] = t
		return t, nil
	}
	t, ok := a.Textures[path]
	if !ok {
		return nil, ErrNoTexture
	}
	return t, nil
}

// Image returns a solid w x h image.
func Image(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

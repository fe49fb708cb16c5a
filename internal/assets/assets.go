// Package assets resolves the cloud programs and textures: files under the
// configured asset directory override the built-in copies.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/clouds"
	"github.com/Faultbox/skyfield/internal/engine/gldevice"
	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/engine/texture"
	"github.com/Faultbox/skyfield/internal/logger"
)

//go:embed shaders
var builtin embed.FS

// Program sources, relative to the asset directory.
const (
	ComputeSource  = "shaders/clouds.comp"
	VertexSource   = "shaders/clouds.vert"
	FragmentSource = "shaders/clouds.frag"
)

// Built-in noise parameters.
const (
	NoiseSize    = 256
	NoiseOctaves = 5
	NoiseSeed    = 1337
)

// Origin tells where a source was found.
type Origin int

const (
	OriginBuiltin Origin = iota
	OriginDisk
)

func (o Origin) String() string {
	if o == OriginDisk {
		return "disk"
	}
	return "builtin"
}

// Backend compiles programs and uploads textures.
type Backend interface {
	NewTexture(img *image.RGBA) (gpu.Texture, error)
	CompileCompute(kernel, source string) (gpu.ComputeProgram, error)
	CompileMaterial(name, vertexSrc, fragmentSrc string) (gpu.Material, error)
}

// GL adapts the OpenGL device to Backend.
func GL(d *gldevice.Device) Backend {
	return glBackend{d}
}

type glBackend struct {
	*gldevice.Device
}

func (b glBackend) CompileCompute(kernel, source string) (gpu.ComputeProgram, error) {
	return b.NewComputeProgram(kernel, source)
}

func (b glBackend) CompileMaterial(name, vertexSrc, fragmentSrc string) (gpu.Material, error) {
	return b.NewMaterial(name, vertexSrc, fragmentSrc)
}

// Library loads and caches assets.
type Library struct {
	backend  Backend
	dir      string
	sources  *Cache[[]byte]
	textures *Cache[gpu.Texture]
	log      *zap.Logger
}

// NewLibrary creates a library that searches dir before the built-in
// assets. An empty dir uses the built-in assets only.
func NewLibrary(backend Backend, dir string) *Library {
	return &Library{
		backend:  backend,
		dir:      dir,
		sources:  NewCache[[]byte](),
		textures: NewCache[gpu.Texture](),
		log:      logger.Named("assets"),
	}
}

// Lookup reads an asset from the asset directory, falling back to the
// built-in copy.
func (l *Library) Lookup(name string) ([]byte, Origin, error) {
	if l.dir != "" {
		data, err := os.ReadFile(filepath.Join(l.dir, filepath.FromSlash(name)))
		if err == nil {
			return data, OriginDisk, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, OriginDisk, fmt.Errorf("reading %s: %w", name, err)
		}
	}

	if data, ok := l.sources.Get(name); ok {
		return data, OriginBuiltin, nil
	}
	data, err := builtin.ReadFile(name)
	if err != nil {
		return nil, OriginBuiltin, fmt.Errorf("asset %s: %w", name, err)
	}
	l.sources.Set(name, data)
	return data, OriginBuiltin, nil
}

// builtinSource reads an embedded asset, bypassing the directory.
func builtinSource(name string) string {
	data, err := builtin.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("embedded asset %s missing: %v", name, err))
	}
	return string(data)
}

// DefaultComputeProgram compiles the expansion program. An override on
// disk that fails to compile is reported and replaced by the built-in one.
func (l *Library) DefaultComputeProgram() (gpu.ComputeProgram, error) {
	src, origin, err := l.Lookup(ComputeSource)
	if err != nil {
		return nil, err
	}
	p, err := l.backend.CompileCompute(clouds.KernelName, string(src))
	if err == nil || origin == OriginBuiltin {
		return p, err
	}

	l.log.Warn("compute override failed, using built-in", zap.String("dir", l.dir), zap.Error(err))
	return l.backend.CompileCompute(clouds.KernelName, builtinSource(ComputeSource))
}

// DefaultMaterial compiles the cloud draw program, with the same override
// rules as DefaultComputeProgram.
func (l *Library) DefaultMaterial() (gpu.Material, error) {
	vert, vertOrigin, err := l.Lookup(VertexSource)
	if err != nil {
		return nil, err
	}
	frag, fragOrigin, err := l.Lookup(FragmentSource)
	if err != nil {
		return nil, err
	}
	mat, err := l.backend.CompileMaterial("clouds", string(vert), string(frag))
	if err == nil || (vertOrigin == OriginBuiltin && fragOrigin == OriginBuiltin) {
		return mat, err
	}

	l.log.Warn("material override failed, using built-in", zap.String("dir", l.dir), zap.Error(err))
	return l.backend.CompileMaterial("clouds", builtinSource(VertexSource), builtinSource(FragmentSource))
}

// LoadTexture loads and uploads an image once. Relative paths resolve
// against the asset directory. The empty path is the generated noise.
func (l *Library) LoadTexture(path string) (gpu.Texture, error) {
	if t, ok := l.textures.Get(path); ok {
		return t, nil
	}

	var img *image.RGBA
	if path == "" {
		img = texture.Noise(NoiseSize, NoiseOctaves, NoiseSeed)
	} else {
		full := path
		if !filepath.IsAbs(full) && l.dir != "" {
			full = filepath.Join(l.dir, path)
		}
		var err error
		if img, err = texture.Load(full); err != nil {
			return nil, fmt.Errorf("loading texture: %w", err)
		}
	}

	t, err := l.backend.NewTexture(img)
	if err != nil {
		return nil, fmt.Errorf("uploading texture %q: %w", path, err)
	}
	w, h := t.Size()
	l.log.Debug("texture loaded", zap.String("path", path), zap.Int("width", w), zap.Int("height", h))
	l.textures.Set(path, t)
	return t, nil
}

// Close releases every cached texture.
func (l *Library) Close() {
	l.textures.Each(func(_ string, t gpu.Texture) {
		t.Release()
	})
	l.textures.Clear()
	l.sources.Clear()
}

// Package clouds streams a grid of stacked-plane cloud chunks around a
// viewer. Each chunk expands a shared flat base mesh into its cloud layers
// with a compute program and draws the result indirectly.
package clouds

import (
	"fmt"
	"math"
)

// MeshSizes maps a mesh resolution index to vertices per chunk side.
var MeshSizes = [...]int{2, 4, 8, 16, 32, 64, 128}

// ChunkConfig is the raw chunk grid configuration.
type ChunkConfig struct {
	DrawDistance      float32
	ChunksPerSide     int
	MeshResolution    int
	InstancesPerChunk int
	PlaneSpacing      float32
	CloudHeight       float32
}

// ChunkSettings is a validated ChunkConfig with its derived values computed
// once at construction. It is never mutated.
type ChunkSettings struct {
	cfg ChunkConfig

	chunkWorldSize float32
	vertsPerSide   int
}

// NewChunkSettings validates cfg and derives the chunk world size and mesh
// density.
func NewChunkSettings(cfg ChunkConfig) (*ChunkSettings, error) {
	if cfg.ChunksPerSide < 1 {
		return nil, fmt.Errorf("chunks per side must be at least 1, got %d", cfg.ChunksPerSide)
	}
	if cfg.MeshResolution < 0 || cfg.MeshResolution >= len(MeshSizes) {
		return nil, fmt.Errorf("mesh resolution %d outside [0, %d]", cfg.MeshResolution, len(MeshSizes)-1)
	}
	if cfg.InstancesPerChunk < 1 {
		return nil, fmt.Errorf("instances per chunk must be at least 1, got %d", cfg.InstancesPerChunk)
	}
	for _, f := range []struct {
		name string
		v    float32
	}{
		{"draw distance", cfg.DrawDistance},
		{"plane spacing", cfg.PlaneSpacing},
		{"cloud height", cfg.CloudHeight},
	} {
		if math.IsNaN(float64(f.v)) || math.IsInf(float64(f.v), 0) {
			return nil, fmt.Errorf("%s must be finite, got %g", f.name, f.v)
		}
	}
	if cfg.DrawDistance < 0 {
		return nil, fmt.Errorf("negative draw distance %g", cfg.DrawDistance)
	}

	// Ties round to even. A zero size cannot index the grid, so sizes
	// below one chunk unit become one.
	size := float32(math.RoundToEven(float64(cfg.DrawDistance) / float64(cfg.ChunksPerSide)))
	if size < 1 {
		size = 1
	}

	return &ChunkSettings{
		cfg:            cfg,
		chunkWorldSize: size,
		vertsPerSide:   MeshSizes[cfg.MeshResolution],
	}, nil
}

func (s *ChunkSettings) Config() ChunkConfig     { return s.cfg }
func (s *ChunkSettings) DrawDistance() float32   { return s.cfg.DrawDistance }
func (s *ChunkSettings) ChunksPerSide() int      { return s.cfg.ChunksPerSide }
func (s *ChunkSettings) MeshResolution() int     { return s.cfg.MeshResolution }
func (s *ChunkSettings) InstancesPerChunk() int  { return s.cfg.InstancesPerChunk }
func (s *ChunkSettings) PlaneSpacing() float32   { return s.cfg.PlaneSpacing }
func (s *ChunkSettings) CloudHeight() float32    { return s.cfg.CloudHeight }
func (s *ChunkSettings) ChunkWorldSize() float32 { return s.chunkWorldSize }
func (s *ChunkSettings) VertsPerSide() int       { return s.vertsPerSide }

// StackHeight is the vertical distance from the lowest to the highest plane.
func (s *ChunkSettings) StackHeight() float32 {
	return float32(s.cfg.InstancesPerChunk-1) * s.cfg.PlaneSpacing
}

// GridWidth is the number of chunks along one side of the live square.
func (s *ChunkSettings) GridWidth() int {
	return 2*s.cfg.ChunksPerSide + 1
}

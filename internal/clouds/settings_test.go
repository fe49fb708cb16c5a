package clouds

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func defaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		DrawDistance:      1000,
		ChunksPerSide:     5,
		MeshResolution:    0,
		InstancesPerChunk: 20,
		PlaneSpacing:      1.0,
		CloudHeight:       250,
	}
}

func TestChunkWorldSize(t *testing.T) {
	tests := []struct {
		distance float32
		perSide  int
		want     float32
	}{
		{1000, 5, 200},
		{1000, 3, 333},
		{1000, 6, 167},
		{5, 2, 2}, // 2.5 rounds to even
		{7, 2, 4}, // 3.5 rounds to even
		{1000, 20, 50},
	}

	for _, tt := range tests {
		cfg := defaultChunkConfig()
		cfg.DrawDistance = tt.distance
		cfg.ChunksPerSide = tt.perSide

		s, err := NewChunkSettings(cfg)
		if err != nil {
			t.Fatalf("NewChunkSettings(%v, %d): %v", tt.distance, tt.perSide, err)
		}
		if got := s.ChunkWorldSize(); got != tt.want {
			t.Errorf("ChunkWorldSize(%v/%d) = %v, want %v", tt.distance, tt.perSide, got, tt.want)
		}
	}
}

// Sizes that round below one unit are raised to one so coordinates stay
// defined.
func TestChunkWorldSizeMinimum(t *testing.T) {
	tests := []struct {
		distance float32
		perSide  int
	}{
		{0, 1},
		{0, 5},
		{0, 20},
		{10, 20}, // 0.5 rounds to 0
		{1, 3},
	}

	for _, tt := range tests {
		cfg := defaultChunkConfig()
		cfg.DrawDistance = tt.distance
		cfg.ChunksPerSide = tt.perSide

		s, err := NewChunkSettings(cfg)
		if err != nil {
			t.Fatalf("NewChunkSettings(%v, %d): %v", tt.distance, tt.perSide, err)
		}
		if got := s.ChunkWorldSize(); got != 1 {
			t.Errorf("ChunkWorldSize(%v/%d) = %v, want 1", tt.distance, tt.perSide, got)
		}
		if c := CoordAt(mgl32.Vec3{3, 0, -2}, s.ChunkWorldSize()); c != (Coord{3, -2}) {
			t.Errorf("CoordAt with size %v = %v, want (3,-2)", s.ChunkWorldSize(), c)
		}
	}
}

func TestChunkSettingsStable(t *testing.T) {
	s, err := NewChunkSettings(defaultChunkConfig())
	if err != nil {
		t.Fatal(err)
	}

	first := s.ChunkWorldSize()
	verts := s.VertsPerSide()
	for i := 0; i < 10; i++ {
		if s.ChunkWorldSize() != first {
			t.Fatalf("chunk size changed between reads: %v then %v", first, s.ChunkWorldSize())
		}
		if s.VertsPerSide() != verts {
			t.Fatalf("verts per side changed between reads")
		}
	}

	// The settings keep their own copy of the config.
	cfg := s.Config()
	cfg.DrawDistance = 10
	if s.ChunkWorldSize() != first || s.DrawDistance() != 1000 {
		t.Error("settings changed through a config copy")
	}
}

func TestVertsPerSide(t *testing.T) {
	for res, want := range MeshSizes {
		cfg := defaultChunkConfig()
		cfg.MeshResolution = res

		s, err := NewChunkSettings(cfg)
		if err != nil {
			t.Fatalf("resolution %d: %v", res, err)
		}
		if s.VertsPerSide() != want {
			t.Errorf("resolution %d: verts per side %d, want %d", res, s.VertsPerSide(), want)
		}
	}
}

func TestNewChunkSettingsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ChunkConfig)
	}{
		{"zero chunks per side", func(c *ChunkConfig) { c.ChunksPerSide = 0 }},
		{"negative resolution", func(c *ChunkConfig) { c.MeshResolution = -1 }},
		{"resolution past table", func(c *ChunkConfig) { c.MeshResolution = len(MeshSizes) }},
		{"zero instances", func(c *ChunkConfig) { c.InstancesPerChunk = 0 }},
		{"negative distance", func(c *ChunkConfig) { c.DrawDistance = -1 }},
		{"NaN distance", func(c *ChunkConfig) { c.DrawDistance = float32(math.NaN()) }},
		{"infinite distance", func(c *ChunkConfig) { c.DrawDistance = float32(math.Inf(1)) }},
		{"NaN spacing", func(c *ChunkConfig) { c.PlaneSpacing = float32(math.NaN()) }},
		{"infinite height", func(c *ChunkConfig) { c.CloudHeight = float32(math.Inf(-1)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultChunkConfig()
			tt.modify(&cfg)
			if _, err := NewChunkSettings(cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestStackHeight(t *testing.T) {
	s, _ := NewChunkSettings(defaultChunkConfig())
	if s.StackHeight() != 19 {
		t.Errorf("expected stack height 19, got %v", s.StackHeight())
	}
	if s.GridWidth() != 11 {
		t.Errorf("expected grid width 11, got %d", s.GridWidth())
	}
}

func TestCoordAt(t *testing.T) {
	tests := []struct {
		pos  mgl32.Vec3
		size float32
		want Coord
	}{
		{mgl32.Vec3{0, 100, 0}, 200, Coord{0, 0}},
		{mgl32.Vec3{99, 0, -99}, 200, Coord{0, 0}},
		{mgl32.Vec3{101, 0, -101}, 200, Coord{1, -1}},
		{mgl32.Vec3{100, 0, 300}, 200, Coord{0, 2}}, // halves round to even
		{mgl32.Vec3{-1000, 0, 450}, 200, Coord{-5, 2}},
	}

	for _, tt := range tests {
		if got := CoordAt(tt.pos, tt.size); got != tt.want {
			t.Errorf("CoordAt(%v, %v) = %v, want %v", tt.pos, tt.size, got, tt.want)
		}
	}
}

func TestCoordWithin(t *testing.T) {
	center := Coord{1, 0}
	tests := []struct {
		c    Coord
		want bool
	}{
		{Coord{1, 0}, true},
		{Coord{0, -1}, true},
		{Coord{2, 1}, true},
		{Coord{-1, 0}, false},
		{Coord{3, 0}, false},
		{Coord{1, 2}, false},
	}

	for _, tt := range tests {
		if got := tt.c.Within(center, 1); got != tt.want {
			t.Errorf("%v.Within(%v, 1) = %v, want %v", tt.c, center, got, tt.want)
		}
	}
}

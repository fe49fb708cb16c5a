// Package config handles skyfield configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Clouds    CloudsConfig    `yaml:"clouds"`
	Material  MaterialConfig  `yaml:"material"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Assets    AssetsConfig    `yaml:"assets"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// CloudsConfig holds the chunk grid settings.
type CloudsConfig struct {
	DrawDistance      float32 `yaml:"draw_distance"`       // [0, 1000]
	ChunksPerSide     int     `yaml:"chunks_per_side"`     // [1, 20]
	MeshResolution    int     `yaml:"mesh_resolution"`     // [0, 6]
	InstancesPerChunk int     `yaml:"instances_per_chunk"` // [1, 50]
	PlaneSpacing      float32 `yaml:"plane_spacing"`       // [0.01, 5]
	CloudHeight       float32 `yaml:"cloud_height"`        // [0, 1000]

	// SingleCamera restricts cloud draws to the viewer camera.
	SingleCamera bool `yaml:"single_camera"`
}

// TextureLayerConfig configures one scrolling sample of the noise texture.
type TextureLayerConfig struct {
	ScaleOffset [4]float32 `yaml:"scale_offset"`
	Direction   [2]float32 `yaml:"direction"`
	Speed       float32    `yaml:"speed"`
}

// MaterialConfig holds cloud shading parameters.
type MaterialConfig struct {
	Color            [4]float32         `yaml:"color"`
	BrightnessBoost  float32            `yaml:"brightness_boost"`   // [0, 1]
	SunHighlightSize float32            `yaml:"sun_highlight_size"` // [0, 1]
	AlphaCutoff      float32            `yaml:"alpha_cutoff"`       // [0, 1]
	FadeDistance     float32            `yaml:"fade_distance"`
	ShadowAmount     float32            `yaml:"shadow_amount"` // [0, 1]
	ShadowValue      float32            `yaml:"shadow_value"`  // [0, 1]
	NoiseTexture     string             `yaml:"noise_texture"` // empty uses the generated default
	Layer1           TextureLayerConfig `yaml:"layer1"`
	Layer2           TextureLayerConfig `yaml:"layer2"`
	Bending          float32            `yaml:"bending"` // [1e-6, 1e-3]
	SunLongitude     float32            `yaml:"sun_longitude"`
	SunLatitude      float32            `yaml:"sun_latitude"`
}

// ViewerConfig holds the camera settings.
type ViewerConfig struct {
	FOV       float32    `yaml:"fov"` // vertical, degrees
	Near      float32    `yaml:"near"`
	Far       float32    `yaml:"far"`
	Position  [3]float32 `yaml:"position"`
	MoveSpeed float32    `yaml:"move_speed"`
}

// AssetsConfig holds asset lookup paths.
type AssetsConfig struct {
	// Dir is searched for shaders/clouds.{comp,vert,frag} before the built-in programs.
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// TelemetryConfig holds the optional grid statistics feed.
type TelemetryConfig struct {
	Addr string `yaml:"addr"` // empty disables the server
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Clouds: CloudsConfig{
			DrawDistance:      1000,
			ChunksPerSide:     5,
			MeshResolution:    0,
			InstancesPerChunk: 20,
			PlaneSpacing:      1.0,
			CloudHeight:       250,
			SingleCamera:      true,
		},
		Material: MaterialConfig{
			Color:            [4]float32{1, 1, 1, 1},
			BrightnessBoost:  0.6,
			SunHighlightSize: 0.7,
			AlphaCutoff:      0.2,
			FadeDistance:     900,
			ShadowAmount:     0.2,
			ShadowValue:      0.3,
			Layer1: TextureLayerConfig{
				ScaleOffset: [4]float32{0.002, 0.002, 0, 0},
				Direction:   [2]float32{1, 0},
				Speed:       0.01,
			},
			Layer2: TextureLayerConfig{
				ScaleOffset: [4]float32{0.005, 0.005, 0.3, 0.7},
				Direction:   [2]float32{0.7, 0.7},
				Speed:       0.02,
			},
			Bending:      0.00001,
			SunLongitude: 45,
			SunLatitude:  35,
		},
		Viewer: ViewerConfig{
			FOV:       60,
			Near:      0.3,
			Far:       2000,
			Position:  [3]float32{0, 120, 0},
			MoveSpeed: 60,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

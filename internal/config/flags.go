package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagChunks     = flag.Int("chunks", 0, "Chunks per side of the cloud grid")
	flagResolution = flag.Int("resolution", -1, "Cloud mesh resolution index (0-6)")
	flagAllCameras = flag.Bool("all-cameras", false, "Submit cloud draws to every camera")
	flagTelemetry  = flag.String("telemetry", "", "Address for the websocket grid statistics feed")
	flagAssetsDir  = flag.String("assets", "", "Directory searched for shader overrides")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagChunks > 0 {
		cfg.Clouds.ChunksPerSide = *flagChunks
	}
	if *flagResolution >= 0 {
		cfg.Clouds.MeshResolution = *flagResolution
	}
	if *flagAllCameras {
		cfg.Clouds.SingleCamera = false
	}
	if *flagTelemetry != "" {
		cfg.Telemetry.Addr = *flagTelemetry
	}
	if *flagAssetsDir != "" {
		cfg.Assets.Dir = *flagAssetsDir
	}
}

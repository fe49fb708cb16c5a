package app

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/clouds"
	"github.com/Faultbox/skyfield/internal/config"
	"github.com/Faultbox/skyfield/internal/engine/lighting"
	"github.com/Faultbox/skyfield/internal/engine/window"
)

// savedConfig is cfg with the viewer moved to pos, so a saved session
// resumes where the camera was.
func savedConfig(cfg *config.Config, pos mgl32.Vec3) *config.Config {
	out := *cfg
	out.Viewer.Position = [3]float32(pos)
	return &out
}

// cloudsConfig maps the file configuration onto the cloud manager's.
func cloudsConfig(cfg *config.Config) clouds.Config {
	c, m := cfg.Clouds, cfg.Material
	return clouds.Config{
		Chunk: clouds.ChunkConfig{
			DrawDistance:      c.DrawDistance,
			ChunksPerSide:     c.ChunksPerSide,
			MeshResolution:    c.MeshResolution,
			InstancesPerChunk: c.InstancesPerChunk,
			PlaneSpacing:      c.PlaneSpacing,
			CloudHeight:       c.CloudHeight,
		},
		Material: clouds.MaterialSettings{
			Color:            mgl32.Vec4(m.Color),
			BrightnessBoost:  m.BrightnessBoost,
			SunHighlightSize: m.SunHighlightSize,
			AlphaCutoff:      m.AlphaCutoff,
			FadeDistance:     m.FadeDistance,
			ShadowAmount:     m.ShadowAmount,
			ShadowValue:      m.ShadowValue,
			NoiseTexture:     m.NoiseTexture,
			Layer1:           textureLayer(m.Layer1),
			Layer2:           textureLayer(m.Layer2),
			Bending:          m.Bending,
			SunDirection:     lighting.LightDirection(m.SunLongitude, m.SunLatitude),
		},
		SingleCamera: c.SingleCamera,
	}
}

func textureLayer(l config.TextureLayerConfig) clouds.TextureLayer {
	return clouds.TextureLayer{
		ScaleOffset: mgl32.Vec4(l.ScaleOffset),
		Direction:   mgl32.Vec2(l.Direction),
		Speed:       l.Speed,
	}
}

func windowConfig(cfg *config.Config) window.Config {
	return window.Config{
		Title:      "Skyfield",
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	}
}

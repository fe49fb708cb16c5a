package clouds

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
)

// Draw material uniforms.
const (
	UniformColor        = "_Color"
	UniformNoiseTex     = "_NoiseTex"
	UniformNoiseST1     = "_NoiseTexST1"
	UniformNoiseST2     = "_NoiseTexST2"
	UniformNoiseDir1    = "_NoiseDir1"
	UniformNoiseDir2    = "_NoiseDir2"
	UniformNoiseSpeed1  = "_NoiseSpeed1"
	UniformNoiseSpeed2  = "_NoiseSpeed2"
	UniformShadowAmount = "_CloudShadowAmount"
	UniformShadowValue  = "_CloudShadowValue"
	UniformBrightness   = "_CloudColorLB"
	UniformAlphaThresh  = "_AlphaThresh"
	UniformSubSurface   = "_SubSurfaceSize"
	UniformBending      = "_WorldBendingAmount"
	UniformFadeMin      = "_FadeMin"
	UniformSunDir       = "_SunDir"

	// Plane stack extent, for per-layer shading.
	UniformCloudHeight    = "_CloudHeight"
	UniformCloudThickness = "_CloudThickness"
)

// TextureLayer is one scrolling sample of the noise texture.
type TextureLayer struct {
	ScaleOffset mgl32.Vec4 // xy scale, zw offset
	Direction   mgl32.Vec2
	Speed       float32
}

// MaterialSettings are the shading parameters shared by every chunk.
type MaterialSettings struct {
	Color            mgl32.Vec4
	BrightnessBoost  float32
	SunHighlightSize float32
	AlphaCutoff      float32
	FadeDistance     float32
	ShadowAmount     float32
	ShadowValue      float32

	// NoiseTexture is an asset path. Empty selects the built-in noise.
	NoiseTexture string
	Layer1       TextureLayer
	Layer2       TextureLayer

	Bending float32
	// SunDirection points from the sun towards the scene.
	SunDirection mgl32.Vec3
}

func DefaultMaterialSettings() MaterialSettings {
	return MaterialSettings{
		Color:            mgl32.Vec4{1, 1, 1, 1},
		BrightnessBoost:  0.6,
		SunHighlightSize: 0.7,
		AlphaCutoff:      0.2,
		FadeDistance:     900,
		ShadowAmount:     0.2,
		ShadowValue:      0.3,
		Layer1: TextureLayer{
			ScaleOffset: mgl32.Vec4{0.002, 0.002, 0, 0},
			Direction:   mgl32.Vec2{1, 0},
			Speed:       0.01,
		},
		Layer2: TextureLayer{
			ScaleOffset: mgl32.Vec4{0.005, 0.005, 0.3, 0.7},
			Direction:   mgl32.Vec2{0.7, 0.7},
			Speed:       0.02,
		},
		Bending:      0.00001,
		SunDirection: mgl32.Vec3{-0.5, -0.7, -0.5}.Normalize(),
	}
}

// Bind pushes the settings into mat. A nil noise texture leaves the
// texture slot untouched.
func (s MaterialSettings) Bind(mat gpu.Material, noise gpu.Texture) {
	mat.SetColor(UniformColor, s.Color)
	if noise != nil {
		mat.SetTexture(UniformNoiseTex, noise)
	}
	mat.SetVector(UniformNoiseST1, s.Layer1.ScaleOffset)
	mat.SetVector(UniformNoiseST2, s.Layer2.ScaleOffset)
	mat.SetVector(UniformNoiseDir1, s.Layer1.Direction.Vec4(0, 0))
	mat.SetVector(UniformNoiseDir2, s.Layer2.Direction.Vec4(0, 0))
	mat.SetFloat(UniformNoiseSpeed1, s.Layer1.Speed)
	mat.SetFloat(UniformNoiseSpeed2, s.Layer2.Speed)
	mat.SetFloat(UniformShadowAmount, s.ShadowAmount)
	mat.SetFloat(UniformShadowValue, s.ShadowValue)
	mat.SetFloat(UniformBrightness, s.BrightnessBoost)
	mat.SetFloat(UniformAlphaThresh, s.AlphaCutoff)
	mat.SetFloat(UniformSubSurface, s.SunHighlightSize)
	mat.SetFloat(UniformBending, s.Bending)
	mat.SetFloat(UniformFadeMin, s.FadeDistance)
	mat.SetVector(UniformSunDir, s.SunDirection.Vec4(0))
}

// bindStack tells the material where the plane stack starts and how tall
// it is.
func bindStack(mat gpu.Material, s *ChunkSettings) {
	mat.SetFloat(UniformCloudHeight, s.CloudHeight())
	mat.SetFloat(UniformCloudThickness, s.StackHeight())
}

package config

import (
	"fmt"
	"math"
)

// Ranges accepted at the configuration boundary. Values outside are clamped,
// never rejected. NaN and infinities become the lower bound.
const (
	MinDrawDistance      = 0
	MaxDrawDistance      = 1000
	MinChunksPerSide     = 1
	MaxChunksPerSide     = 20
	MinMeshResolution    = 0
	MaxMeshResolution    = 6
	MinInstancesPerChunk = 1
	MaxInstancesPerChunk = 50
	MinPlaneSpacing      = 0.01
	MaxPlaneSpacing      = 5.0
	MinCloudHeight       = 0
	MaxCloudHeight       = 1000
	MinBending           = 0.000001
	MaxBending           = 0.001
)

// Adjustment records one clamped field.
type Adjustment struct {
	Field string
	From  string
	To    string
}

func (a Adjustment) String() string {
	return fmt.Sprintf("%s: %s -> %s", a.Field, a.From, a.To)
}

type clamper struct {
	changes []Adjustment
}

func isFinite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (c *clamper) float(field string, v *float32, lo, hi float32) {
	orig := *v
	if !isFinite(*v) || *v < lo {
		*v = lo
	} else if *v > hi {
		*v = hi
	}
	if *v != orig {
		c.record(field, orig, *v)
	}
}

// finite resets an unranged field to def when it is NaN or infinite.
func (c *clamper) finite(field string, v *float32, def float32) {
	if isFinite(*v) {
		return
	}
	orig := *v
	*v = def
	c.record(field, orig, def)
}

func (c *clamper) record(field string, from, to any) {
	c.changes = append(c.changes, Adjustment{Field: field, From: fmt.Sprint(from), To: fmt.Sprint(to)})
}

func (c *clamper) int(field string, v *int, lo, hi int) {
	orig := *v
	if *v < lo {
		*v = lo
	} else if *v > hi {
		*v = hi
	}
	if *v != orig {
		c.record(field, orig, *v)
	}
}

func (c *clamper) unit(field string, v *float32) {
	c.float(field, v, 0, 1)
}

// Clamp forces every ranged field into its valid range and returns the
// fields that changed.
func (c *Config) Clamp() []Adjustment {
	var cl clamper
	def := Default()

	cc := &c.Clouds
	cl.float("clouds.draw_distance", &cc.DrawDistance, MinDrawDistance, MaxDrawDistance)
	cl.int("clouds.chunks_per_side", &cc.ChunksPerSide, MinChunksPerSide, MaxChunksPerSide)
	cl.int("clouds.mesh_resolution", &cc.MeshResolution, MinMeshResolution, MaxMeshResolution)
	cl.int("clouds.instances_per_chunk", &cc.InstancesPerChunk, MinInstancesPerChunk, MaxInstancesPerChunk)
	cl.float("clouds.plane_spacing", &cc.PlaneSpacing, MinPlaneSpacing, MaxPlaneSpacing)
	cl.float("clouds.cloud_height", &cc.CloudHeight, MinCloudHeight, MaxCloudHeight)

	mc := &c.Material
	for i := range mc.Color {
		cl.unit(fmt.Sprintf("material.color[%d]", i), &mc.Color[i])
	}
	cl.unit("material.brightness_boost", &mc.BrightnessBoost)
	cl.unit("material.sun_highlight_size", &mc.SunHighlightSize)
	cl.unit("material.alpha_cutoff", &mc.AlphaCutoff)
	cl.unit("material.shadow_amount", &mc.ShadowAmount)
	cl.unit("material.shadow_value", &mc.ShadowValue)
	cl.float("material.bending", &mc.Bending, MinBending, MaxBending)
	cl.finite("material.fade_distance", &mc.FadeDistance, def.Material.FadeDistance)
	cl.finite("material.sun_longitude", &mc.SunLongitude, def.Material.SunLongitude)
	cl.finite("material.sun_latitude", &mc.SunLatitude, def.Material.SunLatitude)
	layers := [2]*TextureLayerConfig{&mc.Layer1, &mc.Layer2}
	refs := [2]TextureLayerConfig{def.Material.Layer1, def.Material.Layer2}
	for i, layer := range layers {
		ref := refs[i]
		prefix := fmt.Sprintf("material.layer%d", i+1)
		for j := range layer.ScaleOffset {
			cl.finite(fmt.Sprintf("%s.scale_offset[%d]", prefix, j), &layer.ScaleOffset[j], ref.ScaleOffset[j])
		}
		for j := range layer.Direction {
			cl.finite(fmt.Sprintf("%s.direction[%d]", prefix, j), &layer.Direction[j], ref.Direction[j])
		}
		cl.finite(prefix+".speed", &layer.Speed, ref.Speed)
	}

	vc := &c.Viewer
	cl.float("viewer.fov", &vc.FOV, 1, 179)
	if !(vc.Near >= 0.01) || !isFinite(vc.Near) {
		cl.float("viewer.near", &vc.Near, 0.01, 0.01)
	}
	if !(vc.Far > vc.Near) || !isFinite(vc.Far) {
		cl.float("viewer.far", &vc.Far, vc.Near+1, vc.Near+1)
	}
	for i := range vc.Position {
		cl.finite(fmt.Sprintf("viewer.position[%d]", i), &vc.Position[i], def.Viewer.Position[i])
	}
	cl.finite("viewer.move_speed", &vc.MoveSpeed, def.Viewer.MoveSpeed)

	return cl.changes
}

package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float32
		want     mgl32.Vec3
	}{
		{"zenith", 0, 90, mgl32.Vec3{0, 1, 0}},
		{"north horizon", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"east horizon", 90, 0, mgl32.Vec3{1, 0, 0}},
		{"diagonal", 45, 0, mgl32.Vec3{0.70710677, 0, 0.70710677}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.lon, tt.lat)
			if !got.ApproxEqualThreshold(tt.want, 1e-5) {
				t.Errorf("SunDirection(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}

func TestSunDirectionNormalized(t *testing.T) {
	for lon := float32(0); lon < 360; lon += 37 {
		for lat := float32(0); lat <= 90; lat += 15 {
			if l := SunDirection(lon, lat).Len(); l < 0.9999 || l > 1.0001 {
				t.Fatalf("length at %v,%v = %v", lon, lat, l)
			}
		}
	}
}

func TestLightDirection(t *testing.T) {
	sun := SunDirection(45, 35)
	light := LightDirection(45, 35)
	if !sun.Add(light).ApproxEqualThreshold(mgl32.Vec3{}, 1e-6) {
		t.Errorf("light %v is not opposite sun %v", light, sun)
	}
	if light.Y() >= 0 {
		t.Errorf("light above the horizon should point down, got %v", light)
	}
}

package texture

import (
	"image"
	"math"
)

// noiseBasePeriod is the lattice period of the first octave.
const noiseBasePeriod = 4

// Noise generates a tileable fractal value-noise texture of size x size
// pixels. The noise is written to R, G and B with opaque alpha. Equal
// arguments give equal images.
func Noise(size, octaves int, seed uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	if size <= 0 {
		return img
	}
	if octaves < 1 {
		octaves = 1
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := fbm(float32(x), float32(y), size, octaves, seed)
			c := uint8(v*255 + 0.5)
			i := img.PixOffset(x, y)
			img.Pix[i] = c
			img.Pix[i+1] = c
			img.Pix[i+2] = c
			img.Pix[i+3] = 255
		}
	}
	return img
}

// fbm sums octaves of value noise at pixel (x, y), normalized to [0, 1].
func fbm(x, y float32, size, octaves int, seed uint32) float32 {
	var sum, total float32
	amp := float32(0.5)
	for o := 0; o < octaves; o++ {
		period := noiseBasePeriod << o
		scale := float32(period) / float32(size)
		sum += amp * valueNoise(x*scale, y*scale, period, seed+uint32(o))
		total += amp
		amp *= 0.5
	}
	return sum / total
}

// valueNoise interpolates lattice values that repeat every period cells.
func valueNoise(x, y float32, period int, seed uint32) float32 {
	fx := float32(math.Floor(float64(x)))
	fy := float32(math.Floor(float64(y)))
	x0, y0 := int(fx), int(fy)
	tx, ty := smoothstep(x-fx), smoothstep(y-fy)

	v00 := lattice(wrap(x0, period), wrap(y0, period), seed)
	v10 := lattice(wrap(x0+1, period), wrap(y0, period), seed)
	v01 := lattice(wrap(x0, period), wrap(y0+1, period), seed)
	v11 := lattice(wrap(x0+1, period), wrap(y0+1, period), seed)

	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*ty
}

func smoothstep(t float32) float32 {
	return t * t * (3 - 2*t)
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// lattice hashes a cell to [0, 1).
func lattice(x, y int, seed uint32) float32 {
	h := uint32(x)*0x8da6b343 ^ uint32(y)*0xd8163841 ^ seed*0xcb1ab31f
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return float32(h&0xffffff) / float32(1<<24)
}

package debug

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/engine/gpu"
)

func TestBoxWireframe(t *testing.T) {
	v := BoxWireframe(mgl32.Vec3{-1, 0, -2}, mgl32.Vec3{1, 3, 2})
	if len(v) != WireframeVertexCount*3 {
		t.Fatalf("got %d floats, want %d", len(v), WireframeVertexCount*3)
	}
	for i := 0; i < len(v); i += 3 {
		x, y, z := v[i], v[i+1], v[i+2]
		if (x != -1 && x != 1) || (y != 0 && y != 3) || (z != -2 && z != 2) {
			t.Errorf("vertex %d = (%v, %v, %v) is not a box corner", i/3, x, y, z)
		}
	}
}

func TestBoundsWireframePadding(t *testing.T) {
	b := gpu.NewBoundsMinMax(mgl32.Vec3{0, 250, 0}, mgl32.Vec3{100, 269, 100})
	v := BoundsWireframe(b, 1)

	lo, hi := mgl32.Vec3{1e9, 1e9, 1e9}, mgl32.Vec3{-1e9, -1e9, -1e9}
	for i := 0; i < len(v); i += 3 {
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], v[i+a])
			hi[a] = max(hi[a], v[i+a])
		}
	}
	if lo != (mgl32.Vec3{-1, 249, -1}) || hi != (mgl32.Vec3{101, 270, 101}) {
		t.Errorf("padded extent = %v..%v", lo, hi)
	}
}

func TestAppendBoundsWireframes(t *testing.T) {
	bounds := []gpu.Bounds{
		{Size: mgl32.Vec3{1, 1, 1}},
		{Center: mgl32.Vec3{5, 0, 0}, Size: mgl32.Vec3{1, 1, 1}},
	}
	dst := make([]float32, 0, 8)
	dst = AppendBoundsWireframes(dst, bounds, 0)
	if len(dst) != 2*WireframeVertexCount*3 {
		t.Errorf("got %d floats for two boxes", len(dst))
	}
	if dst[WireframeVertexCount*3] != 4.5 {
		t.Errorf("second box starts at x=%v, want 4.5", dst[WireframeVertexCount*3])
	}
}

func TestScreenshotFilename(t *testing.T) {
	s := NewScreenshots("shots", "skyfield")
	s.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	want := filepath.Join("shots", "skyfield_2026-03-04_05-06-07.000.png")
	if got := s.Filename(); got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}

func TestSaveFramebufferFlips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewScreenshots(dir, "frame")

	// 1x2: bottom row red, top row blue in GL order.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := s.SaveFramebuffer(pixels, 1, 2)
	if err != nil {
		t.Fatalf("SaveFramebuffer: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "frame_") {
		t.Errorf("unexpected file name %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("top pixel = %v, want blue", got)
	}
	if got := color.RGBAModel.Convert(img.At(0, 1)).(color.RGBA); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom pixel = %v, want red", got)
	}
}

func TestSaveFramebufferSizeMismatch(t *testing.T) {
	s := NewScreenshots(t.TempDir(), "frame")
	if _, err := s.SaveFramebuffer(make([]byte, 7), 1, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestSave(t *testing.T) {
	s := NewScreenshots(t.TempDir(), "img")
	path, err := s.Save(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("screenshot not written: %v", err)
	}
}

package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func key(typ uint32, code sdl.Scancode, repeat uint8) *sdl.KeyboardEvent {
	return &sdl.KeyboardEvent{Type: typ, Repeat: repeat, Keysym: sdl.Keysym{Scancode: code}}
}

func TestKeyHeldAcrossFrames(t *testing.T) {
	in := New()

	in.begin()
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_W, 0))
	if !in.IsKeyPressed(sdl.SCANCODE_W) {
		t.Error("W should be pressed on the frame it went down")
	}

	in.begin()
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_W, 1))
	if in.IsKeyPressed(sdl.SCANCODE_W) {
		t.Error("key repeat should not count as a press")
	}
	if !in.IsKeyHeld(sdl.SCANCODE_W) {
		t.Error("W should still be held")
	}

	in.begin()
	in.handle(key(sdl.KEYUP, sdl.SCANCODE_W, 0))
	if in.IsKeyHeld(sdl.SCANCODE_W) {
		t.Error("W should be released")
	}
}

func TestAxis(t *testing.T) {
	tests := []struct {
		name string
		down []sdl.Scancode
		want float32
	}{
		{"none", nil, 0},
		{"pos", []sdl.Scancode{sdl.SCANCODE_D}, 1},
		{"neg", []sdl.Scancode{sdl.SCANCODE_A}, -1},
		{"both", []sdl.Scancode{sdl.SCANCODE_A, sdl.SCANCODE_D}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New()
			for _, c := range tt.down {
				in.handle(key(sdl.KEYDOWN, c, 0))
			}
			if got := in.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D); got != tt.want {
				t.Errorf("Axis = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMouseDelta(t *testing.T) {
	in := New()
	in.begin()
	in.handle(&sdl.MouseMotionEvent{XRel: 3, YRel: -2})
	in.handle(&sdl.MouseMotionEvent{XRel: 1, YRel: 5})

	if dx, dy := in.MouseDelta(); dx != 4 || dy != 3 {
		t.Errorf("MouseDelta = %v,%v, want 4,3", dx, dy)
	}

	in.begin()
	if dx, dy := in.MouseDelta(); dx != 0 || dy != 0 {
		t.Errorf("delta not cleared: %v,%v", dx, dy)
	}
}

func TestQuitAndResize(t *testing.T) {
	in := New()
	in.begin()
	in.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 800, Data2: 600})
	in.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_RESIZED, Data1: 1024, Data2: 768})

	if w, h, ok := in.Resized(); !ok || w != 1024 || h != 768 {
		t.Errorf("Resized = %d,%d,%v", w, h, ok)
	}
	if in.quit {
		t.Error("quit before QuitEvent")
	}

	in.handle(&sdl.QuitEvent{})
	if !in.quit {
		t.Error("QuitEvent should request quit")
	}
}

func TestFocusLostReleasesKeys(t *testing.T) {
	in := New()
	in.handle(key(sdl.KEYDOWN, sdl.SCANCODE_SPACE, 0))
	in.handle(&sdl.WindowEvent{Event: sdl.WINDOWEVENT_FOCUS_LOST})
	if in.IsKeyHeld(sdl.SCANCODE_SPACE) {
		t.Error("held keys should clear on focus loss")
	}
}

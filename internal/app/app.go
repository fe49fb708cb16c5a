// Package app drives the cloud demo: window, GL device, fly camera and the
// cloud grid, one frame at a time on the main thread.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/skyfield/internal/assets"
	"github.com/Faultbox/skyfield/internal/clouds"
	"github.com/Faultbox/skyfield/internal/config"
	"github.com/Faultbox/skyfield/internal/engine/camera"
	"github.com/Faultbox/skyfield/internal/engine/debug"
	"github.com/Faultbox/skyfield/internal/engine/gldevice"
	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/engine/input"
	"github.com/Faultbox/skyfield/internal/engine/window"
	"github.com/Faultbox/skyfield/internal/logger"
	"github.com/Faultbox/skyfield/internal/telemetry"
)

// Movement speed multiplier while shift is held.
const boostFactor = 4

var boundsColor = mgl32.Vec4{1, 0.8, 0.2, 1}

// App owns every subsystem of the demo.
type App struct {
	cfg *config.Config
	log *zap.Logger

	window    *window.Window
	device    *gldevice.Device
	library   *assets.Library
	camera    *camera.FlyCamera
	manager   *clouds.Manager
	input     *input.Input
	overlay   *debug.BoundsOverlay
	shots     *debug.Screenshots
	telemetry *telemetry.Server

	running    bool
	showBounds bool
	captured   bool
	frame      uint64
	bounds     []gpu.Bounds
}

// New creates the window and GL context, then sets up the cloud grid.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:   cfg,
		log:   logger.Named("app"),
		input: input.New(),
		shots: debug.NewScreenshots("screenshots", "skyfield"),
	}

	var err error
	a.window, err = window.New(windowConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Device AFTER window, since the GL context must exist.
	a.device, err = gldevice.New()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	w, h := a.window.Size()
	a.device.Resize(w, h)

	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}

	a.log.Info("app initialized")
	return a, nil
}

func (a *App) init() error {
	v := a.cfg.Viewer
	a.camera = camera.NewFlyCamera(v.FOV, a.window.AspectRatio(), v.Near, v.Far)
	a.camera.Pos = mgl32.Vec3(v.Position)
	a.camera.MoveSpeed = v.MoveSpeed

	a.library = assets.NewLibrary(assets.GL(a.device), a.cfg.Assets.Dir)

	var err error
	a.manager, err = clouds.NewManager(clouds.Deps{
		Device: a.device,
		Viewer: a.camera,
		Assets: a.library,
	}, cloudsConfig(a.cfg))
	if err != nil {
		return err
	}
	if err := a.manager.Setup(); err != nil {
		return err
	}

	a.overlay, err = debug.NewBoundsOverlay()
	if err != nil {
		return err
	}

	if addr := a.cfg.Telemetry.Addr; addr != "" {
		a.telemetry = telemetry.NewServer()
		if err := a.telemetry.Start(addr); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	return nil
}

// Run runs the frame loop until the window closes or Escape is pressed.
// Cloud allocation failures end the loop with an error.
func (a *App) Run() error {
	a.running = true

	start := time.Now()
	lastTime := start
	frameCount := 0
	fpsTimer := start

	a.log.Info("starting frame loop")

	for a.running {
		now := time.Now()
		dt := float32(now.Sub(lastTime).Seconds())
		lastTime = now

		if a.input.Update() {
			a.running = false
			break
		}
		a.handleEvents()
		a.moveCamera(dt)

		a.device.BeginFrame(float32(now.Sub(start).Seconds()))
		if err := a.manager.Update(); err != nil {
			return fmt.Errorf("cloud update: %w", err)
		}
		a.device.RenderCamera(a.camera, a.manager.PreRender)
		if a.showBounds {
			a.drawBounds()
		}
		a.publish()
		a.device.EndFrame()

		a.window.SwapBuffers()
		a.frame++

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.window.SetTitle(fmt.Sprintf("Skyfield - %d fps", frameCount))
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Float32("dt_ms", dt*1000))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

func (a *App) handleEvents() {
	if w, h, ok := a.input.Resized(); ok {
		a.device.Resize(w, h)
		a.camera.SetAspect(w, h)
	}

	for _, e := range a.input.Events() {
		if e.Type == input.EventMouseDown && !a.captured {
			a.setCaptured(true)
		}
		if e.Type != input.EventKeyDown {
			continue
		}
		switch e.Key {
		case sdl.SCANCODE_ESCAPE:
			if a.captured {
				a.setCaptured(false)
			} else {
				a.running = false
			}
		case sdl.SCANCODE_R:
			a.reload()
		case sdl.SCANCODE_F5:
			a.saveSettings()
		case sdl.SCANCODE_F3:
			a.showBounds = !a.showBounds
		case sdl.SCANCODE_F12:
			a.screenshot()
		}
	}
}

func (a *App) setCaptured(captured bool) {
	a.captured = captured
	a.window.SetMouseCaptured(captured)
}

func (a *App) moveCamera(dt float32) {
	if a.captured {
		dx, dy := a.input.MouseDelta()
		a.camera.HandleLook(dx, dy)
	}

	forward := a.input.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W)
	right := a.input.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D)
	up := a.input.Axis(sdl.SCANCODE_LCTRL, sdl.SCANCODE_SPACE)
	if a.input.IsKeyHeld(sdl.SCANCODE_LSHIFT) {
		dt *= boostFactor
	}
	a.camera.HandleMovement(forward, right, up, dt)
}

// reload re-reads the configuration and rebuilds the grid with it.
func (a *App) reload() {
	cfg, adjustments, err := config.Load()
	if err != nil {
		a.log.Warn("config reload failed", zap.Error(err))
		return
	}
	for _, adj := range adjustments {
		a.log.Warn("config value clamped", zap.Stringer("adjustment", adj))
	}

	if err := a.manager.Reconfigure(cloudsConfig(cfg)); err != nil {
		a.log.Warn("cloud rebuild failed, restoring previous settings", zap.Error(err))
		if err := a.manager.Reconfigure(cloudsConfig(a.cfg)); err != nil {
			a.log.Error("restoring cloud settings failed", zap.Error(err))
		}
		return
	}
	a.cfg = cfg
	a.camera.MoveSpeed = cfg.Viewer.MoveSpeed
	a.log.Info("config reloaded", zap.Stringer("coord", a.manager.CurrentCoord()))
}

// saveSettings writes the running configuration, including the current
// camera position.
func (a *App) saveSettings() {
	cfg := savedConfig(a.cfg, a.camera.Pos)
	if err := cfg.Save(); err != nil {
		a.log.Warn("saving settings failed", zap.Error(err))
		return
	}
	a.log.Info("settings saved", zap.String("path", config.SavePath()))
}

func (a *App) drawBounds() {
	a.bounds = a.bounds[:0]
	for _, c := range a.manager.LiveCoords() {
		if ch, ok := a.manager.Chunk(c); ok {
			a.bounds = append(a.bounds, ch.Bounds())
		}
	}
	a.overlay.Draw(a.camera.ViewProjection(), a.bounds, boundsColor)
}

func (a *App) screenshot() {
	w, h := a.window.Size()
	path, err := a.shots.SaveFramebuffer(a.device.ReadPixels(w, h), w, h)
	if err != nil {
		a.log.Warn("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

func (a *App) publish() {
	if a.telemetry == nil {
		return
	}
	a.telemetry.Publish(snapshot(a.frame, a.manager.Stats(), a.device.Stats()))
}

func snapshot(frame uint64, grid clouds.Stats, dev gldevice.Stats) telemetry.Snapshot {
	return telemetry.Snapshot{
		Frame:             frame,
		ViewerCoord:       [2]int{grid.Coord.X, grid.Coord.Z},
		LiveChunks:        grid.Live,
		InitializedChunks: grid.Initialized,
		Created:           grid.Created,
		Disposed:          grid.Disposed,
		Draws:             dev.Drawn,
		Culled:            dev.Culled,
	}
}

// Close tears down the grid and releases every subsystem.
func (a *App) Close() error {
	a.log.Info("closing app")

	var err error
	if a.telemetry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = multierr.Append(err, a.telemetry.Close(ctx))
		cancel()
	}
	if a.manager != nil {
		a.manager.Teardown()
	}
	if a.overlay != nil {
		a.overlay.Destroy()
	}
	if a.library != nil {
		a.library.Close()
	}
	if a.device != nil {
		err = multierr.Append(err, a.device.Close())
	}
	if a.window != nil {
		a.window.Close()
	}
	return err
}

package gldevice

import (
	"errors"
	"testing"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/skyfield/internal/engine/camera"
	"github.com/Faultbox/skyfield/internal/engine/gpu"
	"github.com/Faultbox/skyfield/internal/engine/gpu/gputest"
)

func box(x, y, z float32) gpu.Bounds {
	return gpu.Bounds{Center: mgl32.Vec3{x, y, z}, Size: mgl32.Vec3{10, 10, 10}}
}

func TestVisibleCullsAgainstCamera(t *testing.T) {
	d := newDevice()
	cam := camera.NewFlyCamera(60, 1, 0.3, 1000)
	mat := gputest.NewMaterial()

	d.DrawProceduralIndirect(mat, box(0, 0, -50), gpu.Triangles, nil, 0, cam)
	d.DrawProceduralIndirect(mat, box(0, 0, 50), gpu.Triangles, nil, 0, cam)
	d.DrawProceduralIndirect(mat, box(0, 0, -2000), gpu.Triangles, nil, 0, nil)

	got := d.visible(cam)
	if len(got) != 1 || got[0].bounds.Center.Z() != -50 {
		t.Fatalf("visible = %+v, want only the box in front", got)
	}
	if s := d.Stats(); s.Queued != 3 || s.Culled != 2 {
		t.Errorf("stats = %+v, want 3 queued 2 culled", s)
	}
}

func TestVisibleCameraFilter(t *testing.T) {
	d := newDevice()
	viewer := camera.NewFlyCamera(60, 1, 0.3, 1000)
	other := camera.NewFlyCamera(60, 1, 0.3, 1000)
	mat := gputest.NewMaterial()

	d.DrawProceduralIndirect(mat, box(0, 0, -50), gpu.Triangles, nil, 0, other)
	d.DrawProceduralIndirect(mat, box(0, 0, -60), gpu.Triangles, nil, 0, nil)

	got := d.visible(viewer)
	if len(got) != 1 || got[0].camera != nil {
		t.Errorf("viewer camera should only see the all-camera draw, got %d", len(got))
	}
	if got := d.visible(other); len(got) != 2 {
		t.Errorf("other camera should see both draws, got %d", len(got))
	}
}

func TestVisibleUsesCullingOverride(t *testing.T) {
	d := newDevice()
	cam := camera.NewFlyCamera(60, 1, 0.3, 1000)
	mat := gputest.NewMaterial()
	d.DrawProceduralIndirect(mat, box(0, 0, -50), gpu.Triangles, nil, 0, cam)

	// An ortho volume far to the side sees nothing at the origin.
	cam.SetCullingMatrix(mgl32.Ortho(1000, 1100, -10, 10, 0.3, 1000).Mul4(cam.ViewMatrix()))
	if got := d.visible(cam); len(got) != 0 {
		t.Errorf("override should cull the box, got %d visible", len(got))
	}

	cam.ResetCullingMatrix()
	if got := d.visible(cam); len(got) != 1 {
		t.Errorf("default culling should keep the box, got %d visible", len(got))
	}
}

func TestEndFrameClearsQueue(t *testing.T) {
	d := newDevice()
	d.DrawProceduralIndirect(gputest.NewMaterial(), box(0, 0, 0), gpu.Triangles, nil, 0, nil)
	d.EndFrame()
	if len(d.queue) != 0 {
		t.Errorf("queue has %d draws after EndFrame", len(d.queue))
	}
}

func TestTopologyMode(t *testing.T) {
	if topologyMode(gpu.Triangles) != gl.TRIANGLES {
		t.Error("triangles")
	}
	if topologyMode(gpu.Lines) != gl.LINES {
		t.Error("lines")
	}
}

func TestErrorName(t *testing.T) {
	if got := errorName(gl.OUT_OF_MEMORY); got != "GL_OUT_OF_MEMORY" {
		t.Errorf("errorName = %q", got)
	}
	if got := errorName(0x1234); got != "GL error 0x1234" {
		t.Errorf("errorName = %q", got)
	}
}

func TestParamsClone(t *testing.T) {
	p := newParams()
	p.ints["a"] = 1
	p.vectors["v"] = mgl32.Vec4{1, 2, 3, 4}

	c := p.clone()
	c.ints["a"] = 2
	c.floats["f"] = 3

	if p.ints["a"] != 1 {
		t.Error("clone shares int map with original")
	}
	if _, ok := p.floats["f"]; ok {
		t.Error("clone shares float map with original")
	}
	if c.vectors["v"] != (mgl32.Vec4{1, 2, 3, 4}) {
		t.Error("clone lost vector parameter")
	}
}

func TestFindKernel(t *testing.T) {
	c := &ComputeProgram{kernel: "CSMain", params: newParams()}
	if k, err := c.FindKernel("CSMain"); err != nil || k != 0 {
		t.Errorf("FindKernel(CSMain) = %d, %v", k, err)
	}
	if _, err := c.FindKernel("Other"); !errors.Is(err, gpu.ErrKernelNotFound) {
		t.Errorf("FindKernel(Other) err = %v, want ErrKernelNotFound", err)
	}
}

func TestProgramRefCount(t *testing.T) {
	d := newDevice()
	p := &program{dev: d, refs: 1}
	d.programs[p] = struct{}{}

	c := &ComputeProgram{prog: p, kernel: "CSMain", params: newParams()}
	clone := c.Clone()
	if p.refs != 2 {
		t.Fatalf("refs after clone = %d", p.refs)
	}

	c.Release()
	c.Release()
	if p.refs != 1 {
		t.Errorf("double release changed refs to %d", p.refs)
	}
	clone.Release()
	if _, ok := d.programs[p]; ok {
		t.Error("program should be deleted when the last clone is released")
	}
}

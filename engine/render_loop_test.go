package engine

import (
	"testing"
	"time"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/render"
	"github.com/lixenwraith/spinweave/trail"
)

func newTestLoop(renderer *stubRenderer) (*RenderLoop, *ManualScheduler) {
	scheduler := NewManualScheduler()
	loop := NewRenderLoop(scheduler, renderer, trail.NewCapturer(), NewVisibilityState(), NewMonotonicTimeProvider(), nil)
	return loop, scheduler
}

// staticProvider fills params the same way every tick
func staticProvider(isPlaying bool, trailSettings core.TrailSettings) render.FrameParamsProvider {
	return func(dst *render.FrameParams) bool {
		dst.IsPlaying = isPlaying
		dst.Trail = trailSettings
		dst.Visibility = render.AllVisible()
		dst.CanvasSize = render.Size{Width: 950, Height: 950}
		dst.SetProp(core.PropBlue, core.PropState{Angle: 1, Length: 100})
		return true
	}
}

func inactiveTrails() core.TrailSettings {
	s := core.DefaultTrailSettings()
	s.Enabled = false
	return s
}

func TestRenderLoopDrawsOnceThenIdles(t *testing.T) {
	renderer := newStubRenderer(true)
	loop, scheduler := newTestLoop(renderer)

	loop.Start(staticProvider(false, inactiveTrails()))
	if loop.Idle() {
		t.Fatal("trigger must schedule a tick")
	}

	// First tick draws the requested frame and schedules a follow-up
	if !scheduler.Fire(time.Now()) {
		t.Fatal("no callback queued")
	}
	if renderer.renders() != 1 {
		t.Fatalf("renders = %d, want 1", renderer.renders())
	}
	if loop.Idle() {
		t.Fatal("loop must reschedule after a drawn frame")
	}

	// Second tick has nothing to do: not playing, trails off, no render request
	if !scheduler.Fire(time.Now()) {
		t.Fatal("follow-up callback missing")
	}
	if renderer.renders() != 1 {
		t.Fatalf("idle tick drew a frame, renders = %d", renderer.renders())
	}
	if !loop.Idle() {
		t.Fatal("loop must go idle with nothing to do")
	}
	if scheduler.Pending() {
		t.Fatal("idle loop must not hold a queued callback")
	}
}

func TestRenderLoopStaysLiveWhilePlaying(t *testing.T) {
	renderer := newStubRenderer(true)
	loop, scheduler := newTestLoop(renderer)

	loop.Start(staticProvider(true, inactiveTrails()))
	for i := 0; i < 5; i++ {
		if !scheduler.Fire(time.Now()) {
			t.Fatalf("loop went idle during playback at tick %d", i)
		}
	}
	if renderer.renders() != 5 {
		t.Fatalf("renders = %d, want 5", renderer.renders())
	}
}

func TestRenderLoopContinuesForActiveTrails(t *testing.T) {
	renderer := newStubRenderer(true)
	loop, scheduler := newTestLoop(renderer)

	// Paused but with active trails the loop keeps ticking to capture points
	loop.Start(staticProvider(false, core.DefaultTrailSettings()))
	for i := 0; i < 3; i++ {
		if !scheduler.Fire(time.Now()) {
			t.Fatalf("loop went idle with active trails at tick %d", i)
		}
	}
	if loop.Idle() {
		t.Fatal("active trails must keep the loop scheduled")
	}
}

func TestRenderLoopTriggerWakesFromIdle(t *testing.T) {
	renderer := newStubRenderer(true)
	loop, scheduler := newTestLoop(renderer)

	loop.Start(staticProvider(false, inactiveTrails()))
	scheduler.Fire(time.Now())
	scheduler.Fire(time.Now())
	if !loop.Idle() {
		t.Fatal("setup: loop should be idle")
	}

	loop.TriggerRender(nil)
	if loop.Idle() {
		t.Fatal("trigger must wake the idle loop")
	}
	scheduler.Fire(time.Now())
	if renderer.renders() != 2 {
		t.Fatalf("renders = %d, want 2", renderer.renders())
	}
}

// retriggerRenderer requests a redraw from inside its first RenderScene call,
// the way an async texture swap completing mid-tick does
type retriggerRenderer struct {
	*stubRenderer
	loop      *RenderLoop
	triggered bool
}

func (r *retriggerRenderer) RenderScene(scene *render.SceneDescriptor) error {
	err := r.stubRenderer.RenderScene(scene)
	if !r.triggered {
		r.triggered = true
		r.loop.TriggerRender(nil)
	}
	return err
}

func TestRenderLoopMidTickTriggerSurvives(t *testing.T) {
	scheduler := NewManualScheduler()
	renderer := newStubRenderer(true)
	wrapped := &retriggerRenderer{stubRenderer: renderer}
	loop := NewRenderLoop(scheduler, wrapped, trail.NewCapturer(), NewVisibilityState(), NewMonotonicTimeProvider(), nil)
	wrapped.loop = loop

	// Paused, trails off: only the explicit request keeps the loop drawing
	loop.Start(staticProvider(false, inactiveTrails()))
	scheduler.Fire(time.Now())
	if renderer.renders() != 1 {
		t.Fatalf("renders = %d, want 1", renderer.renders())
	}

	// The trigger issued during the first draw must produce a second one
	scheduler.Fire(time.Now())
	if renderer.renders() != 2 {
		t.Fatalf("renders = %d, want 2: trigger issued during a tick was lost", renderer.renders())
	}

	// Then nothing is pending and the loop idles
	scheduler.Fire(time.Now())
	if renderer.renders() != 2 {
		t.Fatalf("idle tick drew a frame, renders = %d", renderer.renders())
	}
	if !loop.Idle() {
		t.Fatal("loop must go idle once the request is served")
	}
}

func TestRenderLoopProviderLastWriterWins(t *testing.T) {
	renderer := newStubRenderer(true)
	loop, scheduler := newTestLoop(renderer)

	var firstUsed, secondUsed bool
	first := func(dst *render.FrameParams) bool {
		firstUsed = true
		return true
	}
	second := func(dst *render.FrameParams) bool {
		secondUsed = true
		dst.Visibility = render.AllVisible()
		return true
	}

	loop.TriggerRender(first)
	loop.TriggerRender(second)
	scheduler.Fire(time.Now())

	if firstUsed {
		t.Fatal("superseded provider ran")
	}
	if !secondUsed {
		t.Fatal("latest provider did not run")
	}
}

func TestRenderLoopDisposalSafety(t *testing.T) {
	renderer := newStubRenderer(true)
	loop, scheduler := newTestLoop(renderer)

	loop.Start(staticProvider(true, core.DefaultTrailSettings()))
	if !scheduler.Pending() {
		t.Fatal("setup: callback must be queued")
	}

	// Dispose after the callback was queued; firing it must be a no-op
	loop.Dispose()
	scheduler.Fire(time.Now())

	if renderer.renders() != 0 {
		t.Fatalf("disposed loop drew %d frames", renderer.renders())
	}
	if !loop.Disposed() {
		t.Fatal("disposed flag not set")
	}

	// Triggers after disposal stay inert
	loop.TriggerRender(nil)
	if scheduler.Pending() {
		t.Fatal("disposed loop scheduled a callback")
	}
}

func TestRenderLoopProviderVetoSkipsFrame(t *testing.T) {
	renderer := newStubRenderer(true)
	loop, scheduler := newTestLoop(renderer)

	loop.TriggerRender(func(dst *render.FrameParams) bool { return false })
	scheduler.Fire(time.Now())

	if renderer.renders() != 0 {
		t.Fatal("vetoed frame was drawn")
	}
	if !loop.Idle() {
		t.Fatal("vetoed tick must not reschedule")
	}
}

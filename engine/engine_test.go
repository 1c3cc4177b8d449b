package engine

import (
	"context"
	"testing"
	"time"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/event"
	"github.com/lixenwraith/spinweave/glyph"
	"github.com/lixenwraith/spinweave/motion"
	"github.com/lixenwraith/spinweave/render"
	"github.com/lixenwraith/spinweave/status"
	"github.com/lixenwraith/spinweave/trail"
)

type engineFixture struct {
	engine     *Engine
	renderer   *stubRenderer
	scheduler  *ManualScheduler
	signals    *event.Queue
	visibility *VisibilityState
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	renderer := newStubRenderer(false)
	scheduler := NewManualScheduler()
	signals := event.NewQueue()
	visibility := NewVisibilityState()

	eng := NewEngine(Deps{
		LoadRenderer: func(context.Context) (render.Renderer, error) {
			return renderer, nil
		},
		Calculator: motion.NewCalculator(),
		Capturer:   trail.NewCapturer(),
		Textures:   glyph.NewGenerator(),
		Visibility: visibility,
		Scheduler:  scheduler,
		Clock:      NewMonotonicTimeProvider(),
		Signals:    signals,
		Metrics:    status.NewRegistry(),
	})
	if err := eng.Initialize(context.Background(), render.Size{Width: 950, Height: 950}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(eng.Dispose)

	return &engineFixture{engine: eng, renderer: renderer, scheduler: scheduler, signals: signals, visibility: visibility}
}

func playingProps(seq *core.Sequence, beat float64) UpdateProps {
	return UpdateProps{
		Sequence:       seq,
		CurrentBeat:    beat,
		BeatIndex:      int(beat),
		IsPlaying:      true,
		BeatDurationMs: 500,
		SettingsLoaded: true,
		Trail:          core.DefaultTrailSettings(),
		GridVisible:    true,
		BluePropType:   core.PropTypeStaff,
		RedPropType:    core.PropTypeStaff,
		Visibility:     render.AllVisible(),
		CanvasSize:     render.Size{Width: 950, Height: 950},
	}
}

func TestEngineInitializeValidatesDeps(t *testing.T) {
	eng := NewEngine(Deps{})
	if err := eng.Initialize(context.Background(), render.Size{Width: 10, Height: 10}); err == nil {
		t.Fatal("empty deps must fail initialization")
	}
}

func TestEngineInitializeIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	if err := f.engine.Initialize(context.Background(), render.Size{Width: 10, Height: 10}); err != nil {
		t.Fatalf("repeat initialize errored: %v", err)
	}
	if !f.engine.State().IsInitialized {
		t.Fatal("engine not initialized")
	}
}

func TestEngineUpdateDrawsFrame(t *testing.T) {
	f := newEngineFixture(t)
	seq := motion.DemoSequence("ABC", 3)

	f.engine.Update(playingProps(seq, 0.5))
	if !f.scheduler.Fire(time.Now()) {
		t.Fatal("update did not schedule a render tick")
	}
	if f.renderer.renders() == 0 {
		t.Fatal("no frame drawn")
	}

	// Playback computed the primary poses even though the UI sent none
	scene := func() render.SceneDescriptor {
		f.renderer.mu.Lock()
		defer f.renderer.mu.Unlock()
		return f.renderer.lastScene
	}()
	if scene.Props[core.PropBlue] == nil || scene.Props[core.PropRed] == nil {
		t.Fatal("primary poses missing from scene")
	}
}

func TestEngineBuildsPathCacheOnPlayback(t *testing.T) {
	f := newEngineFixture(t)
	seq := motion.DemoSequence("ABC", 3)

	f.engine.Update(playingProps(seq, 0))

	state := f.engine.State()
	if state.Precompute.PathCacheData == nil {
		t.Fatal("playback with cached trails must build the path cache")
	}
	if state.Precompute.PathCacheData.TotalBeats != 3 {
		t.Fatalf("cached %d beats, want 3", state.Precompute.PathCacheData.TotalBeats)
	}
}

func TestEngineSequenceSwitchRebuildsCache(t *testing.T) {
	f := newEngineFixture(t)

	f.engine.Update(playingProps(motion.DemoSequence("ABC", 3), 0))
	if f.engine.State().Precompute.PathCacheData.TotalBeats != 3 {
		t.Fatal("setup failed")
	}

	// Switching identity clears the stale cache and rebuilds for the new extent
	f.engine.Update(playingProps(motion.DemoSequence("XYZ", 5), 0))

	state := f.engine.State()
	if state.Precompute.PathCacheData == nil {
		t.Fatal("cache missing after sequence switch")
	}
	if state.Precompute.PathCacheData.TotalBeats != 5 {
		t.Fatalf("cached %d beats, want 5", state.Precompute.PathCacheData.TotalBeats)
	}

	var cleared int
	for _, s := range f.signals.Consume() {
		if s.Type == event.SignalCacheCleared {
			cleared++
		}
		event.ReleaseErrorPayload(s.Payload)
	}
	if cleared != 1 {
		t.Fatalf("cache-cleared signals = %d, want 1", cleared)
	}
}

func TestEngineCacheDisabledShortCircuit(t *testing.T) {
	f := newEngineFixture(t)

	props := playingProps(motion.DemoSequence("ABC", 3), 0)
	props.Trail.UsePathCache = false
	f.engine.Update(props)

	if f.engine.State().Precompute.PathCacheData != nil {
		t.Fatal("disabled cache must stay empty")
	}
}

func TestEngineGlyphFollowsBeat(t *testing.T) {
	f := newEngineFixture(t)
	seq := motion.DemoSequence("ABC", 3)

	f.engine.Update(playingProps(seq, 0))
	if got := f.engine.State().Glyph.Displayed.Letter; got != "A" {
		t.Fatalf("letter = %q, want A", got)
	}

	f.engine.Update(playingProps(seq, 1.2))
	s := f.engine.State().Glyph
	if s.Displayed.Letter != "B" {
		t.Fatalf("letter = %q, want B", s.Displayed.Letter)
	}
	if !s.IsFading || s.FadingOut.Letter != "A" {
		t.Fatalf("expected cross-fade from A, got %+v", s)
	}
}

func TestEngineLetterOverride(t *testing.T) {
	f := newEngineFixture(t)
	props := playingProps(motion.DemoSequence("ABC", 3), 0)
	props.Letter = "Z"

	f.engine.Update(props)
	if got := f.engine.State().Glyph.Displayed.Letter; got != "Z" {
		t.Fatalf("letter = %q, want override Z", got)
	}
}

func TestEngineLightsOffReachesRenderer(t *testing.T) {
	f := newEngineFixture(t)

	f.visibility.Update(func(s *VisibilitySnapshot) { s.LightsOff = true })
	if !f.renderer.ledMode() {
		t.Fatal("lights-off not forwarded to the renderer")
	}
	if !f.scheduler.Pending() {
		t.Fatal("lights-off change must request a redraw")
	}

	f.visibility.Update(func(s *VisibilitySnapshot) { s.LightsOff = false })
	if f.renderer.ledMode() {
		t.Fatal("lights-on not forwarded to the renderer")
	}
}

func TestEngineUpdateBeforeInitializeIsNoOp(t *testing.T) {
	renderer := newStubRenderer(false)
	scheduler := NewManualScheduler()
	eng := NewEngine(Deps{
		LoadRenderer: func(context.Context) (render.Renderer, error) { return renderer, nil },
		Calculator:   motion.NewCalculator(),
		Capturer:     trail.NewCapturer(),
		Visibility:   NewVisibilityState(),
		Scheduler:    scheduler,
		Clock:        NewMonotonicTimeProvider(),
	})

	eng.Update(playingProps(motion.DemoSequence("A", 1), 0))
	if scheduler.Pending() {
		t.Fatal("update before initialize must not schedule")
	}
}

func TestEngineDispose(t *testing.T) {
	f := newEngineFixture(t)
	seq := motion.DemoSequence("ABC", 3)
	f.engine.Update(playingProps(seq, 0))

	f.engine.Dispose()
	f.engine.Dispose() // double disposal is a guarded no-op

	if f.engine.State().IsInitialized {
		t.Fatal("disposed engine still initialized")
	}

	// A callback queued before disposal must not draw
	before := f.renderer.renders()
	f.scheduler.Fire(time.Now())
	if f.renderer.renders() != before {
		t.Fatal("queued callback drew after disposal")
	}

	// Updates after disposal are inert
	f.engine.Update(playingProps(seq, 1))
	if f.scheduler.Pending() {
		t.Fatal("disposed engine scheduled a render")
	}
}

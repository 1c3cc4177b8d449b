package engine

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
	"github.com/lixenwraith/spinweave/render"
	"github.com/lixenwraith/spinweave/status"
	"github.com/lixenwraith/spinweave/trail"
)

// RenderLoop is the single real-time scheduler. States: idle (no queued
// tick), scheduled (one tick queued), disposed (terminal). At most one
// callback is outstanding at any time.
//
// The disposed flag is checked at the start of every tick callback, including
// callbacks queued before disposal: a callback already handed to the platform
// scheduler cannot be cancelled, so the flag check is mandatory.
type RenderLoop struct {
	scheduler FrameScheduler
	renderer  render.Renderer
	capturer  *trail.Capturer
	clock     TimeProvider

	visibility *VisibilityState

	mu          sync.Mutex
	provider    render.FrameParamsProvider
	needsRender bool
	scheduled   bool

	disposed atomic.Bool

	epoch time.Time

	// Reusable per-tick buffers. Exclusively owned by the loop, refilled every
	// tick, and never escape the synchronous extent of one render call.
	params    render.FrameParams
	scene     render.SceneDescriptor
	blueTrail []core.TrailPoint
	redTrail  []core.TrailPoint
	sBlue     []core.TrailPoint
	sRed      []core.TrailPoint

	statFrames *atomic.Int64
	statPoints *atomic.Int64
}

// NewRenderLoop wires the loop to its collaborators. metrics may be nil.
func NewRenderLoop(scheduler FrameScheduler, renderer render.Renderer, capturer *trail.Capturer, visibility *VisibilityState, clock TimeProvider, metrics *status.Registry) *RenderLoop {
	l := &RenderLoop{
		scheduler:  scheduler,
		renderer:   renderer,
		capturer:   capturer,
		visibility: visibility,
		clock:      clock,
		epoch:      clock.Now(),
		blueTrail:  make([]core.TrailPoint, 0, parameter.TrailCapacity),
		redTrail:   make([]core.TrailPoint, 0, parameter.TrailCapacity),
		sBlue:      make([]core.TrailPoint, 0, parameter.TrailCapacity),
		sRed:       make([]core.TrailPoint, 0, parameter.TrailCapacity),
	}
	if metrics != nil {
		l.statFrames = metrics.Ints.Get(status.KeyFramesRendered)
		l.statPoints = metrics.Ints.Get(status.KeyTrailPoints)
	}
	return l
}

// TriggerRender queues a tick that will draw at least once. The provider is
// stored last-writer-wins: each call represents the most current way to get
// this frame's data.
func (l *RenderLoop) TriggerRender(provider render.FrameParamsProvider) {
	if l.disposed.Load() {
		return
	}
	l.mu.Lock()
	if provider != nil {
		l.provider = provider
	}
	l.needsRender = true
	l.ensureScheduledLocked()
	l.mu.Unlock()
}

// Start begins the loop with the given provider; playback or trail state in
// the provided frames keeps it alive from there
func (l *RenderLoop) Start(provider render.FrameParamsProvider) {
	l.TriggerRender(provider)
}

// Idle reports whether no tick is currently queued
func (l *RenderLoop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.scheduled
}

// Disposed reports terminal state
func (l *RenderLoop) Disposed() bool {
	return l.disposed.Load()
}

// Dispose moves the loop to its terminal state. Already-queued callbacks
// become no-ops; no renderer call executes after this returns.
func (l *RenderLoop) Dispose() {
	l.disposed.Store(true)
	l.mu.Lock()
	l.provider = nil
	l.scheduled = false
	l.mu.Unlock()
}

// ensureScheduledLocked queues the tick callback unless one is outstanding
func (l *RenderLoop) ensureScheduledLocked() {
	if l.scheduled || l.disposed.Load() {
		return
	}
	l.scheduled = true
	l.scheduler.Schedule(l.tick)
}

// tick is the per-frame callback
func (l *RenderLoop) tick(now time.Time) {
	// Disposal guard must run before anything else; this callback may have
	// been queued before Dispose
	if l.disposed.Load() {
		return
	}

	l.mu.Lock()
	l.scheduled = false
	provider := l.provider
	needsRender := l.needsRender
	// The request is consumed here, not after the render: a TriggerRender
	// arriving while this tick runs sets the flag again and must survive to
	// the next tick
	l.needsRender = false
	l.mu.Unlock()

	if provider == nil {
		return
	}

	l.params.Reset()
	if !provider(&l.params) {
		return
	}

	// Capture is a side effect of the tick, independent of whether a visual
	// render happens
	trailsContinuous := l.params.Trail.Active()
	if trailsContinuous {
		nowMs := float64(now.Sub(l.epoch)) / float64(time.Millisecond)
		l.capturer.CaptureFrame(l.params.Props, l.params.CurrentBeat, nowMs)
	}

	if !needsRender && !trailsContinuous && !l.params.IsPlaying {
		// Nothing to do: transition to idle, no tick queued
		return
	}

	l.renderFrame()

	l.mu.Lock()
	if !l.disposed.Load() {
		l.ensureScheduledLocked()
	}
	l.mu.Unlock()

	if l.statFrames != nil {
		l.statFrames.Add(1)
	}
}

// renderFrame builds the scene from the current params and hands it to the
// renderer. No state mutation beyond the loop-owned reusable buffers.
func (l *RenderLoop) renderFrame() {
	p := &l.params
	vis := l.visibility.Snapshot()

	scale := float64(p.CanvasSize.Square()) / parameter.ReferenceSize

	l.scene.Reset()
	l.scene.Trail = p.Trail
	l.scene.GridVisible = p.GridVisible
	l.scene.GridMode = p.GridMode
	l.scene.Letter = p.Letter
	l.scene.FadingLetter = p.FadingLetter
	l.scene.Turns = p.Turns
	l.scene.BeatNumber = p.BeatIndex
	l.scene.BlueDims = p.BlueDims
	l.scene.RedDims = p.RedDims
	l.scene.CanvasSize = p.CanvasSize
	l.scene.Scale = scale

	// Effective visibility: conjunction of caller flags and the process state
	l.scene.ShowGrid = p.Visibility.Grid && vis.Grid && p.GridVisible
	l.scene.ShowBeatNumbers = p.Visibility.BeatNumbers && vis.BeatNumbers
	l.scene.ShowProps = p.Visibility.Props && vis.Props
	l.scene.ShowTrails = p.Visibility.Trails && vis.Trails && p.Trail.Active()
	l.scene.ShowGlyph = p.Visibility.Glyph && vis.Glyph
	l.scene.ShowTurnNumbers = p.Visibility.TurnNumbers && vis.TurnNumbers
	l.scene.LightsOff = p.Visibility.LightsOff || vis.LightsOff
	l.scene.PropGlow = p.Visibility.PropGlow || vis.PropGlow

	// A prop's motion shows only if its color flag is set AND the prop itself
	// is non-nil; upstream may already have filtered entries
	if p.Visibility.BlueMotion && vis.BlueMotion {
		l.scene.Props[core.PropBlue] = p.Props[core.PropBlue]
		l.scene.Props[core.PropSecondaryBlue] = p.Props[core.PropSecondaryBlue]
	}
	if p.Visibility.RedMotion && vis.RedMotion {
		l.scene.Props[core.PropRed] = p.Props[core.PropRed]
		l.scene.Props[core.PropSecondaryRed] = p.Props[core.PropSecondaryRed]
	}

	if l.scene.ShowTrails {
		l.capturer.FillTrailPointArrays(&l.blueTrail, &l.redTrail, &l.sBlue, &l.sRed)
		scalePoints(l.blueTrail, scale)
		scalePoints(l.redTrail, scale)
		scalePoints(l.sBlue, scale)
		scalePoints(l.sRed, scale)
		l.scene.BlueTrail = l.blueTrail
		l.scene.RedTrail = l.redTrail
		l.scene.SecondaryBlueTrail = l.sBlue
		l.scene.SecondaryRedTrail = l.sRed
		if l.statPoints != nil {
			l.statPoints.Store(int64(len(l.blueTrail) + len(l.redTrail) + len(l.sBlue) + len(l.sRed)))
		}
	}

	if err := l.renderer.RenderScene(&l.scene); err != nil {
		log.Printf("render scene failed: %v", err)
	}
}

// scalePoints converts reference-space points to canvas units in place
func scalePoints(points []core.TrailPoint, scale float64) {
	for i := range points {
		points[i].X *= scale
		points[i].Y *= scale
	}
}

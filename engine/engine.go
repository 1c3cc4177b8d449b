package engine

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/spinweave/audio"
	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/event"
	"github.com/lixenwraith/spinweave/motion"
	"github.com/lixenwraith/spinweave/render"
	"github.com/lixenwraith/spinweave/status"
	"github.com/lixenwraith/spinweave/trail"
)

// Deps carries the engine's injected collaborators. Everything is passed in
// explicitly; the engine performs no ambient lookup.
type Deps struct {
	// LoadRenderer defers the heavy renderer construction to initialization
	// time; load failure disables playback but leaves the UI usable
	LoadRenderer func(ctx context.Context) (render.Renderer, error)

	Calculator *motion.Calculator
	Capturer   *trail.Capturer
	Textures   render.TextureGenerator
	Visibility *VisibilityState
	Scheduler  FrameScheduler
	Clock      TimeProvider

	// Optional: lifecycle signals, metrics, beat audio
	Signals   *event.Queue
	Metrics   *status.Registry
	Metronome *audio.Metronome
}

// Engine is the top-level orchestrator. It receives a props object once per
// UI frame, performs change detection in a fixed branch order, and drives the
// render loop with exactly one trigger per update.
type Engine struct {
	deps Deps

	initializing atomic.Bool
	initialized  atomic.Bool
	disposed     atomic.Bool

	renderer    render.Renderer
	precomputer *Precomputer
	renderLoop  *RenderLoop
	tracker     *SequenceTracker
	glyph       *GlyphTransition

	mu sync.Mutex

	// Change-detection memory
	settingsReady  bool
	lastBlueType   core.PropType
	lastRedType    core.PropType
	propTypesKnown bool
	lastGridMode   string
	lastIsPlaying  bool
	seenClearCount uint64
	seenPreClears  uint64

	// Engine-owned trail settings; external authority overwrites them
	trailSettings core.TrailSettings

	// Loaded texture dimensions
	blueDims core.PropDimensions
	redDims  core.PropDimensions

	// Pending glyph request (letter waiting for texture generation)
	pendingGlyph string
	loadedGlyph  string

	errorMsg string

	visSnapshot VisibilitySnapshot

	// Per-frame snapshot feeding the render loop's params provider. Reused
	// every tick; poses are copied into engine-owned storage so no caller
	// memory is retained and no allocation happens per frame.
	frame       UpdateProps
	poses       [core.PropChannelCount]core.PropState
	posePresent [core.PropChannelCount]bool
	haveFrame   bool

	// In-flight guards for async texture swaps
	swappingProps atomic.Bool
	swappingGrid  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewEngine creates an engine from its dependencies; Initialize must run
// before Update has any effect
func NewEngine(deps Deps) *Engine {
	e := &Engine{
		deps:          deps,
		trailSettings: core.DefaultTrailSettings(),
	}
	return e
}

// Initialize runs the multi-step async startup: load the renderer module,
// initialize it with the canvas size, load textures, start support services.
// Guarded against concurrent re-entry and repeat execution.
func (e *Engine) Initialize(ctx context.Context, size render.Size) error {
	if e.initialized.Load() {
		return nil
	}
	if !e.initializing.CompareAndSwap(false, true) {
		return fmt.Errorf("initialization already in progress")
	}
	defer e.initializing.Store(false)

	if err := e.validateDeps(); err != nil {
		e.setError(err.Error())
		return err
	}

	e.ctx, e.cancel = context.WithCancel(ctx)

	renderer, err := e.deps.LoadRenderer(e.ctx)
	if err != nil {
		err = fmt.Errorf("renderer load: %w", err)
		e.setError(err.Error())
		return err
	}
	e.renderer = renderer

	if err := renderer.Initialize(e.ctx, size, 1.0); err != nil {
		err = fmt.Errorf("renderer init: %w", err)
		e.setError(err.Error())
		return err
	}

	// Texture loads fail soft: previous (or absent) textures stay in place
	blueDims, redDims, err := renderer.LoadPerColorPropTextures(e.ctx, core.PropTypeStaff, core.PropTypeStaff)
	if err != nil {
		log.Printf("initial prop texture load failed: %v", err)
	} else {
		e.mu.Lock()
		e.blueDims, e.redDims = blueDims, redDims
		e.lastBlueType, e.lastRedType = core.PropTypeStaff, core.PropTypeStaff
		e.propTypesKnown = true
		e.mu.Unlock()
	}

	e.precomputer = NewPrecomputer(renderer, e.deps.Calculator, e.deps.Clock, e.deps.Signals)
	e.tracker = NewSequenceTracker(e.deps.Signals)
	e.glyph = NewGlyphTransition()
	e.renderLoop = NewRenderLoop(e.deps.Scheduler, renderer, e.deps.Capturer, e.deps.Visibility, e.deps.Clock, e.deps.Metrics)

	// Trail capture falls back to live points until this cache turns valid
	e.deps.Capturer.SetAnimationCacheService(e.precomputer.Cache())

	e.deps.Visibility.Subscribe(func(s VisibilitySnapshot) {
		e.mu.Lock()
		lightsChanged := s.LightsOff != e.visSnapshot.LightsOff
		e.visSnapshot = s
		e.mu.Unlock()

		// Lights-off is the one visibility flag the renderer itself tracks,
		// so pre-rendered frames pick up the dark presentation too
		if lightsChanged {
			renderer.SetLedMode(s.LightsOff)
			e.renderLoop.TriggerRender(nil)
		}
	})

	if e.deps.Metronome != nil {
		if err := e.deps.Metronome.Start(); err != nil {
			log.Printf("metronome start failed: %v (continuing without audio)", err)
		}
	}

	e.initialized.Store(true)
	return nil
}

// validateDeps checks the required collaborators are present
func (e *Engine) validateDeps() error {
	switch {
	case e.deps.LoadRenderer == nil:
		return fmt.Errorf("missing renderer loader")
	case e.deps.Calculator == nil:
		return fmt.Errorf("missing motion calculator")
	case e.deps.Capturer == nil:
		return fmt.Errorf("missing trail capturer")
	case e.deps.Visibility == nil:
		return fmt.Errorf("missing visibility state")
	case e.deps.Scheduler == nil:
		return fmt.Errorf("missing frame scheduler")
	case e.deps.Clock == nil:
		return fmt.Errorf("missing time provider")
	}
	return nil
}

// Update processes one UI frame. Change-detection branches run in a fixed
// order; each branch's effects are visible to later branches within the same
// call. Exactly one render trigger happens per invocation.
func (e *Engine) Update(props UpdateProps) {
	if !e.initialized.Load() || e.disposed.Load() {
		return
	}

	// 1. Settings-loaded transition: lazily configure the trail capturer
	e.syncSettingsLoaded(props)

	// 2. Prop-type change: hot-swap textures without reinitialization
	e.syncPropTypes(props)

	// 3. Trail settings: apply exactly one authority side this tick
	e.syncTrailSettings(props)

	// 4. Sequence identity and playback transitions feed the tracker; its
	// clear signals tear down the precomputer and trail capturer
	e.syncSequence(props)

	// 5. Grid-mode change: asynchronous texture reload, then one re-render
	e.syncGridMode(props)

	// 6. Glyph transition target recomputed every tick so this tick's UI read
	// sees fresh values
	e.syncGlyph(props)

	// 7. Beat audio
	if e.deps.Metronome != nil && props.IsPlaying {
		e.deps.Metronome.OnBeat(props.CurrentBeat)
	}

	// 8. Store the frame snapshot and trigger exactly one render
	e.storeFrame(props)
	e.renderLoop.TriggerRender(e.provideFrame)
}

// syncSettingsLoaded initializes trail capture once persisted settings arrive
func (e *Engine) syncSettingsLoaded(props UpdateProps) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !props.SettingsLoaded || e.settingsReady {
		return
	}
	e.settingsReady = true
	e.deps.Capturer.UpdateConfig(props.BeatDurationMs, 0)
	e.deps.Capturer.UpdateSettings(props.Trail)
	e.trailSettings = props.Trail
}

// syncPropTypes hot-swaps prop textures when the requested types change.
// The render loop keeps drawing with the old textures until the swap
// completes, then one explicit re-render is issued.
func (e *Engine) syncPropTypes(props UpdateProps) {
	e.mu.Lock()
	changed := !e.propTypesKnown || props.BluePropType != e.lastBlueType || props.RedPropType != e.lastRedType
	e.mu.Unlock()

	if !changed || !e.swappingProps.CompareAndSwap(false, true) {
		return
	}

	blue, red := props.BluePropType, props.RedPropType
	core.Go(func() {
		defer e.swappingProps.Store(false)

		blueDims, redDims, err := e.renderer.LoadPerColorPropTextures(e.ctx, blue, red)
		if err != nil {
			log.Printf("prop texture swap (%s/%s) failed: %v", blue, red, err)
			return
		}
		e.mu.Lock()
		e.blueDims, e.redDims = blueDims, redDims
		e.lastBlueType, e.lastRedType = blue, red
		e.propTypesKnown = true
		e.mu.Unlock()
		e.renderLoop.TriggerRender(nil)
	})
}

// syncTrailSettings applies one trail-settings authority per tick.
// External authority copies the UI's settings in; otherwise the engine's own
// settings stand. Never both, to avoid feedback loops.
func (e *Engine) syncTrailSettings(props UpdateProps) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if props.ExternalTrailAuthority {
		if e.trailSettings != props.Trail {
			e.trailSettings = props.Trail
			e.deps.Capturer.UpdateSettings(props.Trail)
		}
		return
	}
	// Internal authority: push engine-owned settings to the capturer only
	e.deps.Capturer.UpdateSettings(e.trailSettings)
}

// syncSequence forwards sequence/playback changes to the tracker and reacts
// to its clear signals
func (e *Engine) syncSequence(props UpdateProps) {
	e.tracker.HandleSequenceChange(props.Sequence)

	if n := e.tracker.ClearCount(); n != e.seenClearCount {
		e.seenClearCount = n
		e.precomputer.ClearCaches()
		e.deps.Capturer.ClearTrails()
		e.tracker.SetPreRenderedFrames(false)
	}

	e.mu.Lock()
	playingChanged := props.IsPlaying != e.lastIsPlaying
	e.lastIsPlaying = props.IsPlaying
	trailSettings := e.trailSettings
	e.mu.Unlock()

	if playingChanged {
		e.tracker.HandlePlaybackChange(props.IsPlaying)
	}
	if n := e.tracker.PreRenderClearCount(); n != e.seenPreClears {
		e.seenPreClears = n
		e.precomputer.ClearPreRenderedFrames()
	}

	// First trail-enabled, cache-enabled playback builds the path cache
	if props.IsPlaying && trailSettings.Active() && trailSettings.UsePathCache &&
		!e.precomputer.Cache().IsValid() && props.Sequence != nil {
		e.precomputer.PrecomputeAnimationPaths(props.Sequence, trailSettings, props.BeatDurationMs)
	}
}

// syncGridMode reloads the grid texture asynchronously on mode change
func (e *Engine) syncGridMode(props UpdateProps) {
	e.mu.Lock()
	changed := props.GridMode != e.lastGridMode
	e.mu.Unlock()

	if !changed || !e.swappingGrid.CompareAndSwap(false, true) {
		return
	}

	mode := props.GridMode
	core.Go(func() {
		defer e.swappingGrid.Store(false)

		if err := e.renderer.LoadGridTexture(e.ctx, mode); err != nil {
			log.Printf("grid texture load (%s) failed: %v", mode, err)
			return
		}
		e.mu.Lock()
		e.lastGridMode = mode
		e.mu.Unlock()
		e.renderLoop.TriggerRender(nil)
	})
}

// syncGlyph recomputes the transition target and requests a texture for a
// newly displayed letter
func (e *Engine) syncGlyph(props UpdateProps) {
	letter := props.Letter
	if letter == "" && props.Sequence != nil {
		letter = props.Sequence.LetterAt(props.BeatIndex)
	}
	turns := core.TurnsTuple{}
	if props.Sequence != nil {
		turns = props.Sequence.TurnsAt(props.BeatIndex)
	}

	e.glyph.UpdateTarget(letter, turns, props.BeatIndex)

	e.mu.Lock()
	needTexture := letter != "" && letter != e.loadedGlyph && letter != e.pendingGlyph
	if needTexture {
		e.pendingGlyph = letter
	}
	e.mu.Unlock()

	if needTexture {
		e.ProcessPendingGlyph()
	}
}

// ProcessPendingGlyph generates and installs the texture for the pending
// letter, then issues one re-render. Failures leave the previous glyph.
func (e *Engine) ProcessPendingGlyph() {
	e.mu.Lock()
	letter := e.pendingGlyph
	e.mu.Unlock()

	if letter == "" || e.deps.Textures == nil {
		return
	}

	core.Go(func() {
		img, err := e.deps.Textures.GenerateGlyphTexture(e.ctx, letter, 64, 64)
		if err != nil {
			log.Printf("glyph texture generation (%q) failed: %v", letter, err)
			return
		}
		e.HandleGlyphReady(letter, img, 64, 64)
	})
}

// HandleGlyphReady installs externally produced glyph artwork
func (e *Engine) HandleGlyphReady(letter string, img image.Image, w, h int) {
	if e.disposed.Load() || e.renderer == nil {
		return
	}
	if err := e.renderer.LoadGlyphTexture(e.ctx, img, w, h); err != nil {
		log.Printf("glyph texture install (%q) failed: %v", letter, err)
		return
	}

	e.mu.Lock()
	e.loadedGlyph = letter
	if e.pendingGlyph == letter {
		e.pendingGlyph = ""
	}
	e.mu.Unlock()

	if e.deps.Signals != nil {
		e.deps.Signals.Push(event.Signal{Type: event.SignalGlyphChanged})
	}
	e.renderLoop.TriggerRender(nil)
}

// PreRenderSequenceFrames launches a background pre-render run for the
// current sequence
func (e *Engine) PreRenderSequenceFrames(seq *core.Sequence, opts PreRenderOptions) {
	if !e.initialized.Load() || e.disposed.Load() {
		return
	}
	core.Go(func() {
		e.precomputer.PreRenderSequenceFrames(e.ctx, seq, opts)
		if e.precomputer.State().PreRenderedFramesReady {
			e.tracker.SetPreRenderedFrames(true)
		}
	})
}

// Resize adapts the renderer to a new canvas and redraws once
func (e *Engine) Resize(size render.Size) {
	if !e.initialized.Load() || e.disposed.Load() {
		return
	}
	e.renderer.Resize(size)
	e.renderLoop.TriggerRender(nil)
}

// storeFrame copies the per-frame props into the engine-owned snapshot and
// resolves primary poses from the motion calculator when the UI sent none
func (e *Engine) storeFrame(props UpdateProps) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.frame = props
	e.frame.Trail = e.trailSettings
	e.frame.Props = [core.PropChannelCount]*core.PropState{}

	for i, p := range props.Props {
		if p != nil {
			e.poses[i] = *p
			e.posePresent[i] = true
		} else {
			e.posePresent[i] = false
		}
	}

	// Primary poses come from the motion calculator when the UI sent none
	if (!e.posePresent[core.PropBlue] || !e.posePresent[core.PropRed]) && e.deps.Calculator.Initialized() {
		blue, red := e.deps.Calculator.StateAt(props.CurrentBeat)
		if !e.posePresent[core.PropBlue] {
			e.poses[core.PropBlue] = blue
			e.posePresent[core.PropBlue] = true
		}
		if !e.posePresent[core.PropRed] {
			e.poses[core.PropRed] = red
			e.posePresent[core.PropRed] = true
		}
	}
	e.haveFrame = true
}

// provideFrame fills the render loop's params struct from the stored snapshot
func (e *Engine) provideFrame(dst *render.FrameParams) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.haveFrame {
		return false
	}

	glyphState := e.glyph.Snapshot()

	dst.Sequence = e.frame.Sequence
	dst.BeatIndex = e.frame.BeatIndex
	dst.CurrentBeat = e.frame.CurrentBeat
	dst.IsPlaying = e.frame.IsPlaying
	dst.Trail = e.frame.Trail
	dst.GridVisible = e.frame.GridVisible
	dst.GridMode = e.frame.GridMode
	dst.Letter = glyphState.Displayed.Letter
	if glyphState.IsFading {
		dst.FadingLetter = glyphState.FadingOut.Letter
	}
	dst.Turns = glyphState.Displayed.Turns
	for i := range e.poses {
		if e.posePresent[i] {
			dst.SetProp(core.PropIndex(i), e.poses[i])
		}
	}
	dst.BlueDims = e.blueDims
	dst.RedDims = e.redDims
	dst.Visibility = e.frame.Visibility
	dst.CanvasSize = e.frame.CanvasSize
	return true
}

// State returns the read-only snapshot exposed to the UI
func (e *Engine) State() EngineState {
	e.mu.Lock()
	errMsg := e.errorMsg
	trailSettings := e.trailSettings
	blueDims, redDims := e.blueDims, e.redDims
	vis := e.visSnapshot
	e.mu.Unlock()

	s := EngineState{
		IsInitialized: e.initialized.Load(),
		IsLoading:     e.initializing.Load(),
		Error:         errMsg,
		Visibility:    vis,
		Trail:         trailSettings,
		BlueDims:      blueDims,
		RedDims:       redDims,
	}
	if e.precomputer != nil {
		s.Precompute = e.precomputer.State()
	}
	if e.glyph != nil {
		s.Glyph = e.glyph.Snapshot()
	}
	return s
}

// setError records a degradable failure in the exposed state
func (e *Engine) setError(msg string) {
	e.mu.Lock()
	e.errorMsg = msg
	e.mu.Unlock()

	if e.deps.Signals != nil {
		e.deps.Signals.Push(event.Signal{
			Type:    event.SignalEngineError,
			Payload: event.AcquireErrorPayload("engine", msg),
		})
	}
}

// Dispose tears the engine down. Double disposal is a guarded no-op; queued
// render callbacks become no-ops via the loop's disposed flag.
func (e *Engine) Dispose() {
	if !e.disposed.CompareAndSwap(false, true) {
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	if e.renderLoop != nil {
		e.renderLoop.Dispose()
	}
	if e.deps.Scheduler != nil {
		e.deps.Scheduler.Stop()
	}
	if e.glyph != nil {
		e.glyph.Reset()
	}
	if e.precomputer != nil {
		e.precomputer.ClearCaches()
	}
	if e.deps.Metronome != nil {
		e.deps.Metronome.Stop()
	}
	if e.renderer != nil {
		e.renderer.Destroy()
	}
	e.initialized.Store(false)
}

package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/event"
	"github.com/lixenwraith/spinweave/motion"
	"github.com/lixenwraith/spinweave/parameter"
	"github.com/lixenwraith/spinweave/render"
)

// PrecomputeState is the single lifecycle surface unifying path caching and
// frame pre-rendering. Read through Precomputer.State(); callers never observe
// a half-cleared variant.
type PrecomputeState struct {
	PathCacheData          *PathCacheData
	IsCachePrecomputing    bool
	IsPreRendering         bool
	PreRenderProgress      *PreRenderProgress
	PreRenderedFramesReady bool
}

// Precomputer composes the path cache and the frame pre-renderer.
// All computation failures are caught, logged, and leave state "not ready";
// precomputation is best-effort and never aborts a playing sequence.
type Precomputer struct {
	mu    sync.Mutex
	state PrecomputeState

	cache       *PathCache
	preRenderer *FramePreRenderer
	calc        *motion.Calculator
	renderer    render.Renderer
	clock       TimeProvider

	signals *event.Queue
}

// NewPrecomputer wires the precomputer to its collaborators.
// signals may be nil when no consumer wants lifecycle notifications.
func NewPrecomputer(renderer render.Renderer, calc *motion.Calculator, clock TimeProvider, signals *event.Queue) *Precomputer {
	return &Precomputer{
		cache:       NewPathCache(),
		preRenderer: NewFramePreRenderer(renderer, calc),
		calc:        calc,
		renderer:    renderer,
		clock:       clock,
		signals:     signals,
	}
}

// Cache exposes the path cache so the trail capturer can read from it
func (p *Precomputer) Cache() *PathCache {
	return p.cache
}

// State returns a copy of the lifecycle state
func (p *Precomputer) State() PrecomputeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	if s.PreRenderProgress != nil {
		progress := *s.PreRenderProgress
		s.PreRenderProgress = &progress
	}
	return s
}

// PrecomputeAnimationPaths builds the path cache for a sequence.
// Deliberately a no-op (clearing any stale cache pointer) when the settings
// disable the cache or dependencies are absent; the motion calculator is not
// touched in that case.
func (p *Precomputer) PrecomputeAnimationPaths(seq *core.Sequence, trail core.TrailSettings, beatDurationMs float64) {
	if !trail.UsePathCache || seq == nil || len(seq.Beats) == 0 || p.calc == nil {
		p.cache.Clear()
		p.mu.Lock()
		p.state.PathCacheData = nil
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	p.state.IsCachePrecomputing = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.state.IsCachePrecomputing = false
		p.mu.Unlock()
	}()

	if !p.calc.InitializeWithDomainData(seq) {
		log.Printf("path precompute skipped: calculator rejected sequence %q", seq.IdentityKey())
		p.cache.Clear()
		p.mu.Lock()
		p.state.PathCacheData = nil
		p.mu.Unlock()
		return
	}

	data, err := p.cache.PrecomputePaths(p.calc.StateAt, len(seq.Beats), beatDurationMs)
	if err != nil {
		log.Printf("path precompute failed for %q: %v", seq.IdentityKey(), err)
		p.cache.Clear()
		p.mu.Lock()
		p.state.PathCacheData = nil
		p.mu.Unlock()
		p.pushError("precompute-paths", err.Error())
		return
	}

	p.mu.Lock()
	p.state.PathCacheData = data
	p.mu.Unlock()
}

// PreRenderSequenceFrames waits for renderer readiness (bounded), then drives
// the pre-renderer. Timing out is a reported failure, not a crash: the run is
// skipped and playback continues on real-time frames.
func (p *Precomputer) PreRenderSequenceFrames(ctx context.Context, seq *core.Sequence, opts PreRenderOptions) {
	p.mu.Lock()
	if p.state.IsPreRendering {
		p.mu.Unlock()
		return
	}
	p.state.IsPreRendering = true
	p.state.PreRenderedFramesReady = false
	p.state.PreRenderProgress = nil
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.state.IsPreRendering = false
		p.state.PreRenderProgress = nil
		p.mu.Unlock()
	}()

	if !p.waitForRenderer(ctx) {
		log.Printf("pre-render skipped: renderer not ready within %v", parameter.RendererReadyTimeout)
		p.pushError("prerender-wait", "renderer initialization timeout")
		return
	}

	// Rebind unconditionally: the calculator may still hold a previous
	// sequence, and every frame of this run must come from the requested one
	if seq == nil || !p.calc.InitializeWithDomainData(seq) {
		log.Printf("pre-render skipped: calculator rejected sequence")
		return
	}

	err := p.preRenderer.PreRenderSequence(ctx, seq, opts, func(progress PreRenderProgress) {
		p.mu.Lock()
		p.state.PreRenderProgress = &progress
		p.mu.Unlock()
		if p.signals != nil {
			p.signals.Push(event.Signal{
				Type: event.SignalPreRenderProgress,
				A:    int64(progress.Current),
				B:    int64(progress.Total),
			})
		}
	})
	if err != nil {
		log.Printf("pre-render failed: %v", err)
		p.preRenderer.Clear()
		p.pushError("prerender", err.Error())
		return
	}

	p.mu.Lock()
	p.state.PreRenderedFramesReady = true
	p.mu.Unlock()
}

// waitForRenderer polls readiness at the configured interval up to the cap
func (p *Precomputer) waitForRenderer(ctx context.Context) bool {
	deadline := p.clock.Now().Add(parameter.RendererReadyTimeout)
	for {
		if p.renderer.Ready() {
			return true
		}
		if !p.clock.Now().Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(parameter.RendererReadyPollInterval):
		}
	}
}

// ClearPreRenderedFrames releases warmed frames only, keeping the path cache
func (p *Precomputer) ClearPreRenderedFrames() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.preRenderer.Clear()
	p.state.PreRenderedFramesReady = false
	p.state.PreRenderProgress = nil
}

// ClearCaches tears down both caches and resets state atomically
func (p *Precomputer) ClearCaches() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cache.Clear()
	p.preRenderer.Clear()
	p.state = PrecomputeState{}
}

// pushError queues a degradable-failure signal when a consumer is attached
func (p *Precomputer) pushError(op, msg string) {
	if p.signals == nil {
		return
	}
	p.signals.Push(event.Signal{
		Type:    event.SignalEngineError,
		Payload: event.AcquireErrorPayload(op, msg),
	})
}

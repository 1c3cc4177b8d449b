package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/motion"
	"github.com/lixenwraith/spinweave/parameter"
	"github.com/lixenwraith/spinweave/render"
)

// PreRenderOptions configures one pre-render run
type PreRenderOptions struct {
	FPS            int
	BeatDurationMs float64
	CanvasSize     render.Size
	NonBlocking    bool
	FramesPerChunk int
	Trail          core.TrailSettings
}

// normalized fills defaults for zero-value fields
func (o PreRenderOptions) normalized() PreRenderOptions {
	if o.FPS <= 0 {
		o.FPS = parameter.DefaultPreRenderFPS
	}
	if o.BeatDurationMs <= 0 {
		o.BeatDurationMs = 500
	}
	if o.FramesPerChunk <= 0 {
		o.FramesPerChunk = parameter.PreRenderFramesPerChunk
	}
	if o.CanvasSize.Width <= 0 || o.CanvasSize.Height <= 0 {
		o.CanvasSize = render.Size{Width: int(parameter.ReferenceSize), Height: int(parameter.ReferenceSize)}
	}
	return o
}

// PreRenderProgress reports a run's advancement; Current is monotonically
// non-decreasing within one run and equals Total on the final callback
type PreRenderProgress struct {
	Current int
	Total   int
	Percent float64
}

// FramePreRenderer drives the renderer through every frame of a sequence once,
// in fixed-size chunks, so constrained devices can play back without per-frame
// computation. The calling goroutine is never occupied for more than one
// chunk's worth of frames between yield points.
type FramePreRenderer struct {
	renderer render.Renderer
	calc     *motion.Calculator

	mu       sync.Mutex
	inFlight bool

	// scene and poses are reused across all frames of a run
	scene render.SceneDescriptor
	blue  core.PropState
	red   core.PropState
}

// NewFramePreRenderer creates a pre-renderer bound to a renderer and calculator
func NewFramePreRenderer(renderer render.Renderer, calc *motion.Calculator) *FramePreRenderer {
	return &FramePreRenderer{
		renderer: renderer,
		calc:     calc,
	}
}

// PreRenderSequence computes and hands off every frame of the sequence.
// Precondition: the renderer is initialized; the precomputer is responsible
// for the bounded readiness wait before calling this. onProgress fires after
// each chunk with non-decreasing Current.
func (p *FramePreRenderer) PreRenderSequence(ctx context.Context, seq *core.Sequence, opts PreRenderOptions, onProgress func(PreRenderProgress)) error {
	if seq == nil || len(seq.Beats) == 0 {
		return fmt.Errorf("pre-render requires a non-empty sequence")
	}
	if !p.renderer.Ready() {
		return fmt.Errorf("renderer not initialized")
	}

	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return fmt.Errorf("pre-render already in flight")
	}
	p.inFlight = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight = false
		p.mu.Unlock()
	}()

	opts = opts.normalized()

	framesPerBeat := float64(opts.FPS) * opts.BeatDurationMs / 1000.0
	totalFrames := int(math.Ceil(framesPerBeat * float64(len(seq.Beats))))
	if totalFrames < 1 {
		totalFrames = 1
	}
	scale := float64(opts.CanvasSize.Square()) / parameter.ReferenceSize

	for frame := 0; frame < totalFrames; {
		chunkEnd := frame + opts.FramesPerChunk
		if chunkEnd > totalFrames {
			chunkEnd = totalFrames
		}

		for ; frame < chunkEnd; frame++ {
			beatTime := float64(frame) / framesPerBeat
			p.blue, p.red = p.calc.StateAt(beatTime)

			p.scene.Reset()
			p.scene.Props[core.PropBlue] = &p.blue
			p.scene.Props[core.PropRed] = &p.red
			p.scene.Trail = opts.Trail
			p.scene.ShowProps = true
			p.scene.ShowTrails = opts.Trail.Active()
			p.scene.CanvasSize = opts.CanvasSize
			p.scene.Scale = scale
			p.scene.PreRender = true
			p.scene.FrameIndex = frame

			if err := p.renderer.RenderScene(&p.scene); err != nil {
				return fmt.Errorf("pre-render frame %d: %w", frame, err)
			}
		}

		if onProgress != nil {
			onProgress(PreRenderProgress{
				Current: frame,
				Total:   totalFrames,
				Percent: float64(frame) / float64(totalFrames) * 100,
			})
		}

		if frame < totalFrames {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if opts.NonBlocking {
				time.Sleep(parameter.PreRenderChunkYield)
			}
		}
	}
	return nil
}

// InFlight reports whether a run is active
func (p *FramePreRenderer) InFlight() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Clear releases pre-rendered frames; they are memory-heavy and must not
// outlive active playback
func (p *FramePreRenderer) Clear() {
	if dropper, ok := p.renderer.(render.FrameDropper); ok {
		dropper.DropPreRendered()
	}
}

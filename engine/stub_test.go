package engine

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/render"
)

// stubRenderer counts calls; Ready is settable so readiness waits can be driven
type stubRenderer struct {
	mu sync.Mutex

	ready atomic.Bool

	renderCalls    int
	preRenderCalls int
	dropCalls      int
	ledCalls       int
	led            bool

	lastScene render.SceneDescriptor
}

func newStubRenderer(ready bool) *stubRenderer {
	r := &stubRenderer{}
	r.ready.Store(ready)
	return r
}

func (r *stubRenderer) Initialize(_ context.Context, _ render.Size, _ float64) error {
	r.ready.Store(true)
	return nil
}

func (r *stubRenderer) Ready() bool { return r.ready.Load() }

func (r *stubRenderer) Resize(render.Size) {}

func (r *stubRenderer) LoadGridTexture(context.Context, string) error { return nil }

func (r *stubRenderer) LoadPerColorPropTextures(context.Context, core.PropType, core.PropType) (core.PropDimensions, core.PropDimensions, error) {
	d := core.PropDimensions{Width: 100, Height: 10}
	return d, d, nil
}

func (r *stubRenderer) LoadGlyphTexture(context.Context, image.Image, int, int) error { return nil }

func (r *stubRenderer) SetLedMode(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.led = on
	r.ledCalls++
}

func (r *stubRenderer) RenderScene(scene *render.SceneDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderCalls++
	if scene.PreRender {
		r.preRenderCalls++
	}
	r.lastScene = *scene
	return nil
}

func (r *stubRenderer) Canvas() *image.RGBA { return nil }

func (r *stubRenderer) Destroy() { r.ready.Store(false) }

func (r *stubRenderer) DropPreRendered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropCalls++
}

func (r *stubRenderer) renders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.renderCalls
}

func (r *stubRenderer) drops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropCalls
}

func (r *stubRenderer) ledMode() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.led
}

// stepClock advances a fixed step on every Now call
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: time.Unix(0, 0), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

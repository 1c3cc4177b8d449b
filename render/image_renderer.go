package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
)

// ImageRenderer draws scenes into an off-screen RGBA canvas.
// Used by sequence pre-rendering, frame export, and tests; it keeps one frame
// per pre-rendered index so playback can blit instead of recompute.
type ImageRenderer struct {
	mu sync.Mutex

	canvas  *image.RGBA
	size    Size
	bgAlpha float64
	ready   bool
	ledMode bool

	gridMode string
	glyphTex *image.RGBA

	blueType core.PropType
	redType  core.PropType

	// preRendered holds warmed frames keyed by frame index
	preRendered map[int]*image.NRGBA

	framesDrawn uint64
}

// NewImageRenderer creates an uninitialized software renderer
func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{
		preRendered: make(map[int]*image.NRGBA),
	}
}

// Initialize allocates the canvas
func (r *ImageRenderer) Initialize(_ context.Context, size Size, backgroundAlpha float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if size.Width < 1 || size.Height < 1 {
		return fmt.Errorf("invalid canvas size %dx%d", size.Width, size.Height)
	}
	r.canvas = image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	r.size = size
	r.bgAlpha = backgroundAlpha
	r.ready = true
	return nil
}

// Ready reports initialization state
func (r *ImageRenderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Resize reallocates the canvas; pre-rendered frames keep their original size
func (r *ImageRenderer) Resize(size Size) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if size.Width < 1 || size.Height < 1 {
		return
	}
	r.canvas = image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	r.size = size
}

// LoadGridTexture selects the procedural grid style
func (r *ImageRenderer) LoadGridTexture(_ context.Context, mode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gridMode = mode
	return nil
}

// LoadPerColorPropTextures records prop families and reports their dimensions
func (r *ImageRenderer) LoadPerColorPropTextures(_ context.Context, blue, red core.PropType) (core.PropDimensions, core.PropDimensions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.blueType = blue
	r.redType = red
	dims := core.PropDimensions{Width: parameter.PropLength * 2, Height: parameter.DefaultTrailWidth * 2}
	return dims, dims, nil
}

// LoadGlyphTexture scales and installs the letter badge artwork
func (r *ImageRenderer) LoadGlyphTexture(_ context.Context, img image.Image, w, h int) error {
	if img == nil || w < 1 || h < 1 {
		return fmt.Errorf("invalid glyph texture %dx%d", w, h)
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Over, nil)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.glyphTex = scaled
	return nil
}

// SetLedMode toggles lights-off presentation
func (r *ImageRenderer) SetLedMode(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledMode = on
}

// RenderScene draws one frame into the canvas
func (r *ImageRenderer) RenderScene(scene *SceneDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		return fmt.Errorf("renderer not initialized")
	}

	r.fillBackground(scene.LightsOff || r.ledMode)

	if scene.ShowGrid {
		r.drawGrid(scene.Scale)
	}
	if scene.ShowTrails {
		r.drawTrail(scene.BlueTrail, scene.Trail)
		r.drawTrail(scene.RedTrail, scene.Trail)
		r.drawTrail(scene.SecondaryBlueTrail, scene.Trail)
		r.drawTrail(scene.SecondaryRedTrail, scene.Trail)
	}
	if scene.ShowProps {
		for i, p := range scene.Props {
			if p == nil {
				continue
			}
			r.drawProp(p, core.PropIndex(i), scene.Scale, scene.PropGlow)
		}
	}
	if scene.ShowGlyph && r.glyphTex != nil {
		b := r.glyphTex.Bounds()
		xdraw.Copy(r.canvas, image.Pt(8, 8), r.glyphTex, b, xdraw.Over, nil)
	}

	r.framesDrawn++

	if scene.PreRender {
		// Warm the frame buffer: keep a copy keyed by frame index
		r.preRendered[scene.FrameIndex] = imaging.Clone(r.canvas)
	}
	return nil
}

// Canvas returns the live drawing surface
func (r *ImageRenderer) Canvas() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canvas
}

// GrabFrame returns a copy of the last drawn frame
func (r *ImageRenderer) GrabFrame() *image.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.canvas == nil {
		return nil
	}
	return imaging.Clone(r.canvas)
}

// PreRenderedFrame returns the warmed frame for an index, nil when absent
func (r *ImageRenderer) PreRenderedFrame(index int) *image.NRGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preRendered[index]
}

// PreRenderedCount returns how many warmed frames are held
func (r *ImageRenderer) PreRenderedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.preRendered)
}

// DropPreRendered releases all warmed frames (memory-heavy, must not outlive playback)
func (r *ImageRenderer) DropPreRendered() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.preRendered = make(map[int]*image.NRGBA)
}

// FramesDrawn returns the total scene count drawn since initialization
func (r *ImageRenderer) FramesDrawn() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.framesDrawn
}

// Destroy releases the canvas and warmed frames
func (r *ImageRenderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canvas = nil
	r.preRendered = make(map[int]*image.NRGBA)
	r.ready = false
}

// fillBackground paints the base color, dark in lights-off mode
func (r *ImageRenderer) fillBackground(dark bool) {
	bg := color.RGBA{245, 245, 245, uint8(r.bgAlpha*255 + 0.5)}
	if dark {
		bg = color.RGBA{8, 8, 16, 255}
	}
	for i := 0; i < len(r.canvas.Pix); i += 4 {
		r.canvas.Pix[i] = bg.R
		r.canvas.Pix[i+1] = bg.G
		r.canvas.Pix[i+2] = bg.B
		r.canvas.Pix[i+3] = bg.A
	}
}

// drawGrid paints reference grid dots scaled to the canvas
func (r *ImageRenderer) drawGrid(scale float64) {
	if scale <= 0 {
		scale = float64(r.size.Square()) / parameter.ReferenceSize
	}
	dot := color.RGBA{128, 128, 128, 255}
	step := parameter.ReferenceSize / 10
	for gy := 0.0; gy <= parameter.ReferenceSize; gy += step {
		for gx := 0.0; gx <= parameter.ReferenceSize; gx += step {
			r.setPixelBlock(int(gx*scale), int(gy*scale), 1, dot)
		}
	}
}

// drawTrail paints captured points with an age-based color ramp
func (r *ImageRenderer) drawTrail(points []core.TrailPoint, settings core.TrailSettings) {
	n := len(points)
	if n == 0 {
		return
	}
	radius := int(settings.Width/2 + 0.5)
	if radius < 1 {
		radius = 1
	}
	for i, pt := range points {
		base := settings.BlueColor
		if pt.PropIndex == core.PropRed || pt.PropIndex == core.PropSecondaryRed {
			base = settings.RedColor
		}
		t := float64(i+1) / float64(n)
		c := core.TrailRamp(base, t, settings.OpacityMin, settings.OpacityMax)
		r.setPixelBlock(int(pt.X), int(pt.Y), radius, color.RGBA{c.R, c.G, c.B, 255})
	}
}

// drawProp paints the prop as a thick line from tail to head
func (r *ImageRenderer) drawProp(p *core.PropState, idx core.PropIndex, scale float64, glow bool) {
	if scale <= 0 {
		scale = float64(r.size.Square()) / parameter.ReferenceSize
	}
	c := color.RGBA{64, 128, 255, 255}
	if idx == core.PropRed || idx == core.PropSecondaryRed {
		c = color.RGBA{255, 80, 64, 255}
	}
	thickness := 2
	if glow {
		thickness = 4
	}

	head := p.Head()
	tail := p.Tail()
	seg := head.Sub(tail)
	steps := int(seg.Magnitude()*scale) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pt := tail.Add(seg.Scale(t))
		r.setPixelBlock(int(pt.X*scale), int(pt.Y*scale), thickness, c)
	}
	// Grip marker
	r.setPixelBlock(int(p.Center.X*scale), int(p.Center.Y*scale), thickness+1, color.RGBA{255, 255, 255, 255})
}

// setPixelBlock fills a small square centered on (x, y), clipped to the canvas
func (r *ImageRenderer) setPixelBlock(x, y, radius int, c color.RGBA) {
	b := r.canvas.Bounds()
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			px, py := x+dx, y+dy
			if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
				continue
			}
			r.canvas.SetRGBA(px, py, c)
		}
	}
}

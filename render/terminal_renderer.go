package render

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
)

// TerminalRenderer draws scenes onto a tcell screen for the preview player.
// Cell aspect is ~1:2, so the X axis gets double density.
type TerminalRenderer struct {
	mu sync.Mutex

	screen tcell.Screen
	size   Size
	ready  bool

	ledMode  bool
	gridMode string

	glyphLetter string

	blueType core.PropType
	redType  core.PropType
}

// NewTerminalRenderer wraps an initialized tcell screen
func NewTerminalRenderer(screen tcell.Screen) *TerminalRenderer {
	return &TerminalRenderer{screen: screen}
}

// Initialize records the drawing extent; the screen itself is owned by the caller
func (r *TerminalRenderer) Initialize(_ context.Context, size Size, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.screen == nil {
		return fmt.Errorf("terminal renderer requires a screen")
	}
	if size.Width < 1 || size.Height < 1 {
		return fmt.Errorf("invalid canvas size %dx%d", size.Width, size.Height)
	}
	r.size = size
	r.ready = true
	return nil
}

// Ready reports initialization state
func (r *TerminalRenderer) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

// Resize adapts to a new terminal extent
func (r *TerminalRenderer) Resize(size Size) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if size.Width > 0 && size.Height > 0 {
		r.size = size
	}
	r.screen.Sync()
}

// LoadGridTexture selects the grid style; terminal grids are procedural
func (r *TerminalRenderer) LoadGridTexture(_ context.Context, mode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gridMode = mode
	return nil
}

// LoadPerColorPropTextures records the prop families for glyph styling
func (r *TerminalRenderer) LoadPerColorPropTextures(_ context.Context, blue, red core.PropType) (core.PropDimensions, core.PropDimensions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blueType = blue
	r.redType = red
	dims := core.PropDimensions{Width: parameter.PropLength * 2, Height: 2}
	return dims, dims, nil
}

// LoadGlyphTexture is texture-free on terminals; the badge renders as text
func (r *TerminalRenderer) LoadGlyphTexture(_ context.Context, _ image.Image, _, _ int) error {
	return nil
}

// SetLedMode toggles lights-off presentation
func (r *TerminalRenderer) SetLedMode(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledMode = on
}

// RenderScene draws one frame and shows it
func (r *TerminalRenderer) RenderScene(scene *SceneDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		return fmt.Errorf("renderer not initialized")
	}
	// Pre-render warming has no frame buffer on terminals; skip the draw
	if scene.PreRender {
		return nil
	}

	bg := tcell.NewRGBColor(250, 250, 245)
	if scene.LightsOff || r.ledMode {
		bg = tcell.NewRGBColor(8, 8, 16)
	}
	defaultStyle := tcell.StyleDefault.Background(bg)
	r.screen.Fill(' ', defaultStyle)

	if scene.ShowGrid {
		r.drawGrid(defaultStyle)
	}
	if scene.ShowTrails {
		r.drawTrail(scene.BlueTrail, scene.Trail, defaultStyle)
		r.drawTrail(scene.RedTrail, scene.Trail, defaultStyle)
		r.drawTrail(scene.SecondaryBlueTrail, scene.Trail, defaultStyle)
		r.drawTrail(scene.SecondaryRedTrail, scene.Trail, defaultStyle)
	}
	if scene.ShowProps {
		for i, p := range scene.Props {
			if p == nil {
				continue
			}
			r.drawProp(p, core.PropIndex(i), scene.PropGlow, defaultStyle)
		}
	}
	if scene.ShowGlyph && scene.Letter != "" {
		r.drawBadge(scene, defaultStyle)
	}

	r.screen.Show()
	return nil
}

// Canvas returns nil: terminal output has no backing image
func (r *TerminalRenderer) Canvas() *image.RGBA {
	return nil
}

// Destroy invalidates the renderer; screen teardown belongs to the caller
func (r *TerminalRenderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = false
}

// cellAt maps reference-space coordinates to screen cells
func (r *TerminalRenderer) cellAt(x, y float64) (int, int) {
	cx := int(x / parameter.ReferenceSize * float64(r.size.Width))
	cy := int(y / parameter.ReferenceSize * float64(r.size.Height))
	return cx, cy
}

// drawGrid paints sparse reference dots
func (r *TerminalRenderer) drawGrid(style tcell.Style) {
	dotStyle := style.Foreground(tcell.NewRGBColor(100, 100, 100))
	step := parameter.ReferenceSize / 10
	for gy := 0.0; gy <= parameter.ReferenceSize; gy += step {
		for gx := 0.0; gx <= parameter.ReferenceSize; gx += step {
			cx, cy := r.cellAt(gx, gy)
			r.setCell(cx, cy, '·', dotStyle)
		}
	}
}

// drawTrail paints captured points, newest brightest
func (r *TerminalRenderer) drawTrail(points []core.TrailPoint, settings core.TrailSettings, style tcell.Style) {
	n := len(points)
	for i, pt := range points {
		base := settings.BlueColor
		if pt.PropIndex == core.PropRed || pt.PropIndex == core.PropSecondaryRed {
			base = settings.RedColor
		}
		c := core.TrailRamp(base, float64(i+1)/float64(n), settings.OpacityMin, settings.OpacityMax)
		// Trail points arrive canvas-scaled; map canvas units straight to cells
		r.setCell(int(pt.X), int(pt.Y), '•', style.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))))
	}
}

// drawProp paints the prop line cell by cell
func (r *TerminalRenderer) drawProp(p *core.PropState, idx core.PropIndex, glow bool, style tcell.Style) {
	fg := tcell.NewRGBColor(64, 128, 255)
	if idx == core.PropRed || idx == core.PropSecondaryRed {
		fg = tcell.NewRGBColor(255, 80, 64)
	}
	propStyle := style.Foreground(fg)
	if glow {
		propStyle = propStyle.Bold(true)
	}

	head := p.Head()
	tail := p.Tail()
	seg := head.Sub(tail)
	steps := r.size.Width
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		pt := tail.Add(seg.Scale(t))
		cx, cy := r.cellAt(pt.X, pt.Y)
		r.setCell(cx, cy, '█', propStyle)
	}
	hx, hy := r.cellAt(head.X, head.Y)
	r.setCell(hx, hy, '●', propStyle)
}

// drawBadge prints the letter/turns/beat badge in the top-left corner
func (r *TerminalRenderer) drawBadge(scene *SceneDescriptor, style tcell.Style) {
	text := scene.Letter
	if scene.FadingLetter != "" {
		text = scene.FadingLetter + "→" + scene.Letter
	}
	if scene.ShowTurnNumbers {
		text += fmt.Sprintf(" %d/%d", scene.Turns.Blue, scene.Turns.Red)
	}
	if scene.ShowBeatNumbers {
		text += fmt.Sprintf(" #%d", scene.BeatNumber)
	}
	badgeStyle := style.Foreground(tcell.NewRGBColor(255, 255, 0)).Bold(true)
	for i, ch := range text {
		r.setCell(1+i, 0, ch, badgeStyle)
	}
}

// setCell writes one cell, clipped to the screen
func (r *TerminalRenderer) setCell(x, y int, ch rune, style tcell.Style) {
	if x < 0 || x >= r.size.Width || y < 0 || y >= r.size.Height {
		return
	}
	r.screen.SetContent(x, y, ch, nil, style)
}

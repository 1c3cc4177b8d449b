package glyph

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
)

// Generator rasterizes letter badge and prop artwork.
// Rendered glyphs are content-keyed and cached: the badge redraws every letter
// change and regenerating identical bitmaps is pure waste.
type Generator struct {
	mu    sync.Mutex
	cache map[glyphKey]*image.RGBA

	hits   uint64
	misses uint64
}

type glyphKey struct {
	letter string
	w, h   int
}

// NewGenerator creates a generator with an empty cache
func NewGenerator() *Generator {
	return &Generator{
		cache: make(map[glyphKey]*image.RGBA),
	}
}

// GenerateGlyphTexture rasterizes a letter at the requested size
func (g *Generator) GenerateGlyphTexture(ctx context.Context, letter string, w, h int) (image.Image, error) {
	if letter == "" || w < 1 || h < 1 {
		return nil, fmt.Errorf("invalid glyph request %q %dx%d", letter, w, h)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := glyphKey{letter: letter, w: w, h: h}

	g.mu.Lock()
	if img, ok := g.cache[key]; ok {
		g.hits++
		g.mu.Unlock()
		return img, nil
	}
	g.misses++
	g.mu.Unlock()

	img := rasterize(letter, w, h)

	g.mu.Lock()
	g.cache[key] = img
	g.mu.Unlock()
	return img, nil
}

// GenerateBluePropTexture reports artwork dimensions for the blue prop family
func (g *Generator) GenerateBluePropTexture(ctx context.Context, t core.PropType) (core.PropDimensions, error) {
	return propDims(ctx, t)
}

// GenerateRedPropTexture reports artwork dimensions for the red prop family
func (g *Generator) GenerateRedPropTexture(ctx context.Context, t core.PropType) (core.PropDimensions, error) {
	return propDims(ctx, t)
}

// Stats returns cache hit/miss counters
func (g *Generator) Stats() (hits, misses uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hits, g.misses
}

// Clear drops all cached glyph bitmaps
func (g *Generator) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache = make(map[glyphKey]*image.RGBA)
}

// propDims maps a prop family to its reference-space artwork extent
func propDims(ctx context.Context, t core.PropType) (core.PropDimensions, error) {
	if err := ctx.Err(); err != nil {
		return core.PropDimensions{}, err
	}
	switch t {
	case core.PropTypeStaff:
		return core.PropDimensions{Width: parameter.PropLength * 2, Height: 12}, nil
	case core.PropTypePoi:
		return core.PropDimensions{Width: parameter.PropLength, Height: 48}, nil
	case core.PropTypeClub:
		return core.PropDimensions{Width: parameter.PropLength * 1.5, Height: 36}, nil
	case core.PropTypeFan:
		return core.PropDimensions{Width: parameter.PropLength, Height: parameter.PropLength}, nil
	}
	return core.PropDimensions{}, fmt.Errorf("unknown prop type %d", t)
}

// rasterize draws the letter with the builtin face, then scales to target size
func rasterize(letter string, w, h int) *image.RGBA {
	face := basicfont.Face7x13
	small := image.NewRGBA(image.Rect(0, 0, face.Advance*len(letter)+4, face.Height+4))

	d := font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: face,
		Dot:  fixed.P(2, face.Ascent+2),
	}
	d.DrawString(letter)

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), xdraw.Over, nil)
	return out
}

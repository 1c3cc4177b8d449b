package render

import (
	"context"
	"image"

	"github.com/lixenwraith/spinweave/core"
)

// Size is a canvas extent in device units
type Size struct {
	Width, Height int
}

// Square returns the smaller dimension, used to fit the square reference space
func (s Size) Square() int {
	if s.Width < s.Height {
		return s.Width
	}
	return s.Height
}

// Renderer is the narrow boundary to the actual scene renderer.
// All load/init calls may fail; the engine catches and degrades, never panics.
type Renderer interface {
	// Initialize prepares the drawing surface. Idempotent-unsafe: call once.
	Initialize(ctx context.Context, size Size, backgroundAlpha float64) error

	// Ready reports whether Initialize has completed successfully
	Ready() bool

	// Resize adapts the surface to a new canvas size
	Resize(size Size)

	// LoadGridTexture swaps the background grid artwork for the given mode
	LoadGridTexture(ctx context.Context, mode string) error

	// LoadPerColorPropTextures loads prop artwork for both colors and returns
	// the resulting texture dimensions
	LoadPerColorPropTextures(ctx context.Context, blue, red core.PropType) (blueDims, redDims core.PropDimensions, err error)

	// LoadGlyphTexture installs the letter badge artwork
	LoadGlyphTexture(ctx context.Context, img image.Image, w, h int) error

	// SetLedMode toggles lights-off presentation (dark background, glowing props)
	SetLedMode(on bool)

	// RenderScene draws one frame. The scene's slices are borrowed buffers and
	// must not be retained past the call.
	RenderScene(scene *SceneDescriptor) error

	// Canvas returns the backing image when the renderer draws off-screen, nil otherwise
	Canvas() *image.RGBA

	// Destroy releases the surface; no calls are valid afterward
	Destroy()
}

// FrameGrabber is optionally implemented by renderers that can hand out a copy
// of the last drawn frame (used by sequence pre-rendering and frame export)
type FrameGrabber interface {
	GrabFrame() *image.NRGBA
}

// FrameDropper is optionally implemented by renderers that buffer pre-rendered
// frames internally and can release them on demand
type FrameDropper interface {
	DropPreRendered()
}

// TextureGenerator produces prop and glyph artwork asynchronously.
// Implemented outside the engine core (SVG/texture generation boundary).
type TextureGenerator interface {
	GenerateBluePropTexture(ctx context.Context, t core.PropType) (core.PropDimensions, error)
	GenerateRedPropTexture(ctx context.Context, t core.PropType) (core.PropDimensions, error)
	GenerateGlyphTexture(ctx context.Context, letter string, w, h int) (image.Image, error)
}

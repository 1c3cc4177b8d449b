package render

import "github.com/lixenwraith/spinweave/core"

// SceneDescriptor is the complete draw order for one frame.
// Trail slices are borrowed from the render loop's reusable buffers; a renderer
// wanting to keep a frame's data must copy it before returning.
type SceneDescriptor struct {
	// Props holds the four channel poses; nil entries are not drawn
	Props [core.PropChannelCount]*core.PropState

	BlueDims core.PropDimensions
	RedDims  core.PropDimensions

	// Trails per channel, already scaled to the target canvas
	BlueTrail          []core.TrailPoint
	RedTrail           []core.TrailPoint
	SecondaryBlueTrail []core.TrailPoint
	SecondaryRedTrail  []core.TrailPoint

	Trail core.TrailSettings

	GridVisible bool
	GridMode    string

	// Glyph badge state (current + outgoing cross-fade value)
	Letter       string
	FadingLetter string
	Turns        core.TurnsTuple
	BeatNumber   int

	// Effective visibility after masking against the process visibility state
	ShowGrid        bool
	ShowBeatNumbers bool
	ShowProps       bool
	ShowTrails      bool
	ShowGlyph       bool
	ShowTurnNumbers bool
	LightsOff       bool
	PropGlow        bool

	CanvasSize Size

	// Scale converts reference-space units to canvas units
	Scale float64

	// PreRender marks frames drawn ahead of playback to warm the frame buffer
	PreRender  bool
	FrameIndex int
}

// Reset clears the descriptor for reuse; trail slices are borrowed and simply dropped
func (s *SceneDescriptor) Reset() {
	*s = SceneDescriptor{}
}

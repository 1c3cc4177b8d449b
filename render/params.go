package render

import "github.com/lixenwraith/spinweave/core"

// VisibilitySettings is the caller-supplied per-frame visibility request.
// The render loop conjoins it with the process visibility state before drawing.
type VisibilitySettings struct {
	Grid        bool
	BeatNumbers bool
	Props       bool
	Trails      bool
	Glyph       bool
	TurnNumbers bool
	BlueMotion  bool
	RedMotion   bool
	LightsOff   bool
	PropGlow    bool
}

// AllVisible returns settings with every layer requested
func AllVisible() VisibilitySettings {
	return VisibilitySettings{
		Grid:        true,
		BeatNumbers: true,
		Props:       true,
		Trails:      true,
		Glyph:       true,
		TurnNumbers: true,
		BlueMotion:  true,
		RedMotion:   true,
	}
}

// FrameParams is the single struct threaded through one render tick.
// It is owned by the render loop, refilled in place every tick, and must never
// be retained by a provider or renderer past the synchronous extent of one call.
type FrameParams struct {
	Sequence    *core.Sequence
	BeatIndex   int
	CurrentBeat float64
	IsPlaying   bool

	Trail core.TrailSettings

	GridVisible bool
	GridMode    string

	Letter string
	// FadingLetter is the outgoing badge letter during a cross-fade, empty otherwise
	FadingLetter string
	Turns        core.TurnsTuple

	// Props holds up to four channel poses; nil entries were filtered upstream.
	// Entries set through SetProp point into the struct's own pose storage, so
	// a provider can fill params without leaking its memory across goroutines.
	Props    [core.PropChannelCount]*core.PropState
	BlueDims core.PropDimensions
	RedDims  core.PropDimensions

	Visibility VisibilitySettings

	CanvasSize Size

	poses [core.PropChannelCount]core.PropState
}

// SetProp stores a pose by value and exposes it through Props[i]
func (p *FrameParams) SetProp(i core.PropIndex, pose core.PropState) {
	p.poses[i] = pose
	p.Props[i] = &p.poses[i]
}

// Reset clears the params for the next fill
func (p *FrameParams) Reset() {
	*p = FrameParams{}
}

// FrameParamsProvider fills the loop-owned params struct for the current tick.
// Returns false when no frame can be produced (engine not ready).
type FrameParamsProvider func(dst *FrameParams) bool

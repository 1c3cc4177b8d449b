package engine

import (
	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/render"
)

// UpdateProps is the per-frame UI-to-engine contract. The UI builds one of
// these every frame and hands it to Engine.Update; the engine copies what it
// needs and never retains the caller's struct.
type UpdateProps struct {
	Sequence *core.Sequence

	// CurrentBeat is the fractional playback position; BeatIndex its floor
	CurrentBeat float64
	BeatIndex   int
	IsPlaying   bool

	// BeatDurationMs is the tempo; it parameterizes cache sampling and trails
	BeatDurationMs float64

	// SettingsLoaded flips true once persisted settings finished loading;
	// the engine lazily initializes the trail capturer on that transition
	SettingsLoaded bool

	// Trail settings plus who owns them this tick. With external authority the
	// engine applies the UI's settings; otherwise the engine's own copy wins.
	// Never both in the same tick.
	Trail                  core.TrailSettings
	ExternalTrailAuthority bool

	GridVisible bool
	GridMode    string

	// Letter overrides the sequence letter when non-empty (editor preview)
	Letter string

	BluePropType core.PropType
	RedPropType  core.PropType

	// Props carries UI-supplied poses (editor scrubbing). Nil primary entries
	// are computed from the motion calculator at CurrentBeat during playback.
	Props [core.PropChannelCount]*core.PropState

	Visibility render.VisibilitySettings

	CanvasSize render.Size
}

// EngineState is the read-only reactive snapshot the engine exposes upward
type EngineState struct {
	IsInitialized bool
	IsLoading     bool

	// Error holds the latest degradable failure; playback may be disabled but
	// the UI stays usable
	Error string

	Visibility VisibilitySnapshot
	Precompute PrecomputeState
	Glyph      GlyphSnapshot
	Trail      core.TrailSettings

	BlueDims core.PropDimensions
	RedDims  core.PropDimensions
}

package core

import "github.com/lixenwraith/spinweave/parameter"

// TrailMode selects how trails are drawn
type TrailMode uint8

const (
	// TrailModeOff is the sentinel: trails configured but not drawn
	TrailModeOff TrailMode = iota
	TrailModeFade
	TrailModeSolid
	TrailModeDots
)

// String returns the settings-facing name of a trail mode
func (m TrailMode) String() string {
	switch m {
	case TrailModeOff:
		return "off"
	case TrailModeFade:
		return "fade"
	case TrailModeSolid:
		return "solid"
	case TrailModeDots:
		return "dots"
	}
	return "unknown"
}

// TrailPoint is one recorded motion sample of a prop end.
// Immutable value; produced either live (capture) or from the path cache.
type TrailPoint struct {
	X, Y      float64
	Timestamp float64 // milliseconds from sequence start
	PropIndex PropIndex
	End       EndType
}

// TrailSettings is the per-frame trail configuration bag.
// Owned by the UI and passed by value; the engine never mutates the caller's copy.
type TrailSettings struct {
	Enabled      bool
	Mode         TrailMode
	Width        float64
	Glow         float64
	BlueColor    RGB
	RedColor     RGB
	OpacityMin   float64
	OpacityMax   float64
	UsePathCache bool
	PreviewMode  bool
}

// DefaultTrailSettings returns the baseline trail configuration
func DefaultTrailSettings() TrailSettings {
	return TrailSettings{
		Enabled:      true,
		Mode:         TrailModeFade,
		Width:        parameter.DefaultTrailWidth,
		Glow:         0,
		BlueColor:    RGB{64, 128, 255},
		RedColor:     RGB{255, 80, 64},
		OpacityMin:   parameter.DefaultTrailOpacityMin,
		OpacityMax:   parameter.DefaultTrailOpacityMax,
		UsePathCache: true,
	}
}

// Active reports whether trails should be drawn at all this frame
func (s TrailSettings) Active() bool {
	return s.Enabled && s.Mode != TrailModeOff
}

package event

// SignalType identifies an engine lifecycle signal
type SignalType uint8

const (
	SignalNone SignalType = iota

	// SignalCacheCleared fires when sequence identity changed and caches were dropped
	SignalCacheCleared

	// SignalPreRenderCleared fires when pre-rendered frames were released on playback stop
	SignalPreRenderCleared

	// SignalPreRenderProgress fires after each pre-render chunk (A=current, B=total)
	SignalPreRenderProgress

	// SignalGlyphChanged fires when the displayed letter changed
	SignalGlyphChanged

	// SignalEngineError fires when a degradable failure was recorded (payload attached)
	SignalEngineError
)

// String returns the signal name for logs and status lines
func (t SignalType) String() string {
	switch t {
	case SignalCacheCleared:
		return "cache-cleared"
	case SignalPreRenderCleared:
		return "prerender-cleared"
	case SignalPreRenderProgress:
		return "prerender-progress"
	case SignalGlyphChanged:
		return "glyph-changed"
	case SignalEngineError:
		return "engine-error"
	}
	return "none"
}

// Signal is one queued engine notification.
// A and B are signal-specific scalars; Payload is pooled and must be released
// by the consumer when non-nil.
type Signal struct {
	Type    SignalType
	A, B    int64
	Payload *ErrorPayload
}

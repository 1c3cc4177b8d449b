package parameter

import "time"

// Playback & Precomputation Timing
const (
	// PathSampleRate is the fixed trajectory sampling rate for the path cache (Hz)
	// Independent of display refresh so trails stay gap-free under irregular frame pacing
	PathSampleRate = 120

	// FrameUpdateInterval is the real-time render tick interval (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond

	// RendererReadyTimeout caps the wait for renderer initialization before pre-rendering
	RendererReadyTimeout = 5000 * time.Millisecond

	// RendererReadyPollInterval is the poll spacing while waiting for renderer readiness
	RendererReadyPollInterval = 100 * time.Millisecond

	// PreRenderFramesPerChunk is the default chunk size for sequence pre-rendering
	// One chunk is the longest the calling goroutine is occupied without yielding
	PreRenderFramesPerChunk = 12

	// PreRenderChunkYield is the pause between pre-render chunks in non-blocking mode
	PreRenderChunkYield = 1 * time.Millisecond

	// DefaultPreRenderFPS is the frame rate pre-rendered sequences are sampled at
	DefaultPreRenderFPS = 60
)

// Signal Queue Limits
const (
	// SignalQueueSize is the fixed capacity of the engine signal ring buffer
	SignalQueueSize = 256

	// SignalBufferMask is the bitmask for fast modulo operations (256 - 1)
	SignalBufferMask = 255
)

// Glyph Transition
const (
	// GlyphFadeDuration is how long the outgoing glyph remains visible during a cross-fade
	GlyphFadeDuration = 200 * time.Millisecond

	// GlyphNewLetterFlagDuration is how long the new-letter flag stays raised after a change
	GlyphNewLetterFlagDuration = 300 * time.Millisecond
)

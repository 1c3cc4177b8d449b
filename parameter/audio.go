package parameter

import "time"

// Metronome
const (
	// MetronomeSampleRate is the beep speaker sample rate
	MetronomeSampleRate = 44100

	// MetronomeTickDuration is the length of one beat tick tone
	MetronomeTickDuration = 40 * time.Millisecond

	// MetronomeTickFreq is the tick tone frequency for ordinary beats (Hz)
	MetronomeTickFreq = 880.0

	// MetronomeDownbeatFreq is the tick tone frequency for beat zero (Hz)
	MetronomeDownbeatFreq = 1320.0
)

package audio

import (
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/spinweave/parameter"
)

// Metronome plays short tick tones on beat boundaries during playback.
// Speaker failures put it in silent mode; playback never depends on audio.
type Metronome struct {
	running  atomic.Bool
	muted    atomic.Bool
	silent   atomic.Bool
	lastBeat atomic.Int64
}

// NewMetronome creates a stopped metronome
func NewMetronome() *Metronome {
	m := &Metronome{}
	m.lastBeat.Store(-1)
	return m
}

// Start initializes the speaker. Failure switches to silent mode, not an error
func (m *Metronome) Start() error {
	if m.running.Load() {
		return nil
	}
	sr := beep.SampleRate(parameter.MetronomeSampleRate)
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		m.silent.Store(true)
	}
	m.running.Store(true)
	return nil
}

// Stop silences future ticks; the speaker stays initialized (process-wide)
func (m *Metronome) Stop() {
	m.running.Store(false)
	m.lastBeat.Store(-1)
}

// SetMuted toggles tick output without tearing down the speaker
func (m *Metronome) SetMuted(muted bool) {
	m.muted.Store(muted)
}

// Silent reports whether speaker initialization failed
func (m *Metronome) Silent() bool {
	return m.silent.Load()
}

// OnBeat plays a tick when the integer beat advanced since the last call.
// Beat zero gets the downbeat tone.
func (m *Metronome) OnBeat(currentBeat float64) {
	if !m.running.Load() || m.muted.Load() || m.silent.Load() {
		return
	}
	beatIdx := int64(currentBeat)
	if beatIdx == m.lastBeat.Load() {
		return
	}
	m.lastBeat.Store(beatIdx)

	freq := parameter.MetronomeTickFreq
	if beatIdx == 0 {
		freq = parameter.MetronomeDownbeatFreq
	}
	m.play(freq)
}

// play queues one tone on the speaker
func (m *Metronome) play(freq float64) {
	sr := beep.SampleRate(parameter.MetronomeSampleRate)
	sine, err := generators.SineTone(sr, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sr.N(parameter.MetronomeTickDuration), sine))
}

package engine

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/event"
)

// SequenceTracker detects sequence identity changes and playback-stop events
// and emits clear signals for the precomputer and trail capturer. Signals are
// monotonically incrementing counters, not booleans, so repeated clears within
// one tick are all observable.
type SequenceTracker struct {
	mu             sync.Mutex
	identity       string
	hasPreRendered bool

	clearCount          atomic.Uint64
	preRenderClearCount atomic.Uint64

	signals *event.Queue
}

// NewSequenceTracker creates a tracker with no prior identity.
// signals may be nil.
func NewSequenceTracker(signals *event.Queue) *SequenceTracker {
	return &SequenceTracker{signals: signals}
}

// HandleSequenceChange computes the identity key for seq, emits a clear signal
// when a different prior identity existed, and always stores the new identity.
// Returns the stored identity.
func (t *SequenceTracker) HandleSequenceChange(seq *core.Sequence) string {
	identity := ""
	if seq != nil {
		identity = seq.IdentityKey()
	}

	t.mu.Lock()
	prior := t.identity
	t.identity = identity
	t.mu.Unlock()

	if prior != "" && prior != identity {
		n := t.clearCount.Add(1)
		if t.signals != nil {
			t.signals.Push(event.Signal{Type: event.SignalCacheCleared, A: int64(n)})
		}
	}
	return identity
}

// HandlePlaybackChange emits a pre-render clear when playback stops while
// pre-rendered frames exist. Exists purely to bound peak memory: frame buffers
// are not kept once nobody is consuming them.
func (t *SequenceTracker) HandlePlaybackChange(isPlaying bool) {
	if isPlaying {
		return
	}

	t.mu.Lock()
	had := t.hasPreRendered
	t.hasPreRendered = false
	t.mu.Unlock()

	if had {
		n := t.preRenderClearCount.Add(1)
		if t.signals != nil {
			t.signals.Push(event.Signal{Type: event.SignalPreRenderCleared, A: int64(n)})
		}
	}
}

// SetPreRenderedFrames records whether warmed frames currently exist
func (t *SequenceTracker) SetPreRenderedFrames(has bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasPreRendered = has
}

// Identity returns the last stored identity key
func (t *SequenceTracker) Identity() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.identity
}

// ClearCount returns the monotonic cache-clear counter
func (t *SequenceTracker) ClearCount() uint64 {
	return t.clearCount.Load()
}

// PreRenderClearCount returns the monotonic pre-render-clear counter
func (t *SequenceTracker) PreRenderClearCount() uint64 {
	return t.preRenderClearCount.Load()
}

package engine

import "sync"

// VisibilitySnapshot is a flat read-only copy of the process visibility state
type VisibilitySnapshot struct {
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

// VisibilityState is the explicitly constructed, explicitly injected process
// visibility store. Observers are called synchronously on every mutation with
// the new snapshot; no implicit dependency tracking, no ambient lookup.
type VisibilityState struct {
	mu        sync.Mutex
	state     VisibilitySnapshot
	observers []func(VisibilitySnapshot)
}

// NewVisibilityState creates the store with everything visible except
// lights-off and glow
func NewVisibilityState() *VisibilityState {
	return &VisibilityState{
		state: VisibilitySnapshot{
			Grid:        true,
			BeatNumbers: true,
			Props:       true,
			Trails:      true,
			Glyph:       true,
			TurnNumbers: true,
			BlueMotion:  true,
			RedMotion:   true,
		},
	}
}

// Subscribe registers an observer and immediately delivers the current snapshot
func (v *VisibilityState) Subscribe(fn func(VisibilitySnapshot)) {
	v.mu.Lock()
	v.observers = append(v.observers, fn)
	snapshot := v.state
	v.mu.Unlock()
	fn(snapshot)
}

// Snapshot returns the current state by value
func (v *VisibilityState) Snapshot() VisibilitySnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Update applies a mutation and notifies observers synchronously
func (v *VisibilityState) Update(mutate func(*VisibilitySnapshot)) {
	v.mu.Lock()
	mutate(&v.state)
	snapshot := v.state
	observers := v.observers
	v.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

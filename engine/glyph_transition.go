package engine

import (
	"sync"
	"time"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
)

// GlyphDisplay is one displayed letter/turns/beat-number triple
type GlyphDisplay struct {
	Letter     string
	Turns      core.TurnsTuple
	BeatNumber int
}

// GlyphSnapshot is the transition state handed to the render path
type GlyphSnapshot struct {
	Displayed   GlyphDisplay
	FadingOut   GlyphDisplay
	IsFading    bool
	IsNewLetter bool
}

// GlyphTransition cross-fades the letter/turns/beat-number badge.
// Fade policy: only a letter change triggers a fade; turns- or beat-only
// changes apply silently. One parameterized fade duration replaces the
// inconsistent per-call-site durations of earlier revisions.
//
// Two timers run per transition (fade-clear and new-letter-flag reset); both
// are cancelled and re-armed on every letter change so a stale callback can
// never fire after a subsequent change.
type GlyphTransition struct {
	mu sync.Mutex

	displayed   GlyphDisplay
	fadingOut   GlyphDisplay
	isFading    bool
	isNewLetter bool

	fadeDuration time.Duration
	flagDuration time.Duration

	fadeTimer *time.Timer
	flagTimer *time.Timer
}

// NewGlyphTransition creates a controller with the standard durations
func NewGlyphTransition() *GlyphTransition {
	return &GlyphTransition{
		fadeDuration: parameter.GlyphFadeDuration,
		flagDuration: parameter.GlyphNewLetterFlagDuration,
	}
}

// SetFadeDuration overrides the cross-fade duration (0 disables the hold)
func (g *GlyphTransition) SetFadeDuration(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fadeDuration = d
}

// UpdateTarget applies a new badge triple. No-op when all three fields are
// unchanged. A letter change copies the current triple into fading-out and
// arms both timers; other changes apply without a fade.
func (g *GlyphTransition) UpdateTarget(letter string, turns core.TurnsTuple, beatNumber int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	next := GlyphDisplay{Letter: letter, Turns: turns, BeatNumber: beatNumber}
	if g.displayed == next {
		return
	}

	if letter == g.displayed.Letter {
		// Silent update: turns/beat changed but the glyph itself did not
		g.displayed = next
		return
	}

	g.fadingOut = g.displayed
	g.isFading = g.fadingOut.Letter != ""
	g.displayed = next
	g.isNewLetter = true

	g.stopTimersLocked()

	if g.isFading && g.fadeDuration > 0 {
		g.fadeTimer = time.AfterFunc(g.fadeDuration, g.clearFade)
	} else {
		g.isFading = false
		g.fadingOut = GlyphDisplay{}
	}
	g.flagTimer = time.AfterFunc(g.flagDuration, g.clearNewLetterFlag)
}

// clearFade drops the fading-out triple once the cross-fade elapsed
func (g *GlyphTransition) clearFade() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fadingOut = GlyphDisplay{}
	g.isFading = false
}

// clearNewLetterFlag lowers the new-letter flag
func (g *GlyphTransition) clearNewLetterFlag() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.isNewLetter = false
}

// stopTimersLocked cancels both timers; must hold g.mu
func (g *GlyphTransition) stopTimersLocked() {
	if g.fadeTimer != nil {
		g.fadeTimer.Stop()
		g.fadeTimer = nil
	}
	if g.flagTimer != nil {
		g.flagTimer.Stop()
		g.flagTimer = nil
	}
}

// Snapshot returns the current transition state by value
func (g *GlyphTransition) Snapshot() GlyphSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GlyphSnapshot{
		Displayed:   g.displayed,
		FadingOut:   g.fadingOut,
		IsFading:    g.isFading,
		IsNewLetter: g.isNewLetter,
	}
}

// Reset returns the controller to idle and cancels pending timers
func (g *GlyphTransition) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimersLocked()
	g.displayed = GlyphDisplay{}
	g.fadingOut = GlyphDisplay{}
	g.isFading = false
	g.isNewLetter = false
}

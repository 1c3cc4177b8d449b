package core

import "fmt"

// TurnsTuple is the per-beat turn count display value for both props
type TurnsTuple struct {
	Blue, Red int
}

// BeatMotion describes one prop's motion across a single beat.
// Angles are radians in screen convention; interpolation happens at sample time.
type BeatMotion struct {
	// HandStart/HandEnd are hand path angles around the grid center
	HandStart, HandEnd float64

	// PropStart is the prop orientation entering the beat
	PropStart float64

	// PropTurns is the number of full prop rotations across the beat (signed)
	PropTurns float64
}

// Beat is one unit of a sequence
type Beat struct {
	Number int
	Letter string
	Turns  TurnsTuple
	Blue   BeatMotion
	Red    BeatMotion
}

// Sequence is the authored artifact the engine plays back
type Sequence struct {
	// Word is the letter-word a sequence spells; empty for unnamed sequences
	Word string

	// Name is the fallback label when Word is empty
	Name string

	Beats []Beat
}

// Label returns the word if present, otherwise the name
func (s *Sequence) Label() string {
	if s.Word != "" {
		return s.Word
	}
	return s.Name
}

// IdentityKey derives the cache identity for a sequence.
// Purely a cache key, not a domain identifier.
func (s *Sequence) IdentityKey() string {
	return fmt.Sprintf("%s-%d", s.Label(), len(s.Beats))
}

// LetterAt returns the glyph letter for a beat index, empty when out of range
func (s *Sequence) LetterAt(beat int) string {
	if beat < 0 || beat >= len(s.Beats) {
		return ""
	}
	return s.Beats[beat].Letter
}

// TurnsAt returns the turns tuple for a beat index
func (s *Sequence) TurnsAt(beat int) TurnsTuple {
	if beat < 0 || beat >= len(s.Beats) {
		return TurnsTuple{}
	}
	return s.Beats[beat].Turns
}

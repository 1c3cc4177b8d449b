package motion

import (
	"math"
	"sync"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
	"github.com/lixenwraith/spinweave/vmath"
)

// Calculator derives prop poses from a sequence at an arbitrary beat time.
// It must be initialized with the sequence before any state query; pose math is
// pure so repeated evaluation at the same beat time yields identical results.
type Calculator struct {
	mu          sync.Mutex
	seq         *core.Sequence
	initialized bool

	blue core.PropState
	red  core.PropState
}

// NewCalculator creates an uninitialized calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// InitializeWithDomainData binds the calculator to a sequence.
// Returns false for a nil or empty sequence; callers must treat that as
// "no precomputation possible" and fall back to whatever they were doing.
func (c *Calculator) InitializeWithDomainData(seq *core.Sequence) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq == nil || len(seq.Beats) == 0 {
		c.seq = nil
		c.initialized = false
		return false
	}
	c.seq = seq
	c.initialized = true
	c.blue = core.PropState{}
	c.red = core.PropState{}
	return true
}

// Initialized reports whether a sequence is bound
func (c *Calculator) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized
}

// CalculateState computes both prop poses at the given beat time.
// Beat time is clamped to the sequence extent.
func (c *Calculator) CalculateState(beatTime float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}

	total := float64(len(c.seq.Beats))
	if beatTime < 0 {
		beatTime = 0
	} else if beatTime > total {
		beatTime = total
	}

	idx := int(beatTime)
	if idx >= len(c.seq.Beats) {
		idx = len(c.seq.Beats) - 1
	}
	frac := beatTime - float64(idx)

	beat := &c.seq.Beats[idx]
	c.blue = poseAt(beat.Blue, frac)
	c.red = poseAt(beat.Red, frac)
}

// poseAt evaluates one prop's motion at a fractional position within a beat
func poseAt(m core.BeatMotion, frac float64) core.PropState {
	handAngle := m.HandStart + vmath.AngleDelta(m.HandStart, m.HandEnd)*frac
	propAngle := m.PropStart + m.PropTurns*vmath.TwoPi*frac

	center := vmath.Vec2{X: parameter.ReferenceCenter, Y: parameter.ReferenceCenter}
	return core.PropState{
		Center: vmath.OnCircle(center, parameter.HandPathRadius, handAngle),
		Angle:  vmath.WrapAngle(propAngle),
		Length: parameter.PropLength,
	}
}

// BluePropState returns the last computed blue pose
func (c *Calculator) BluePropState() core.PropState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blue
}

// RedPropState returns the last computed red pose
func (c *Calculator) RedPropState() core.PropState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.red
}

// StateAt is a convenience for callers that want both poses in one call
// without observing the stored state (used by precomputation sampling)
func (c *Calculator) StateAt(beatTime float64) (blue, red core.PropState) {
	c.CalculateState(beatTime)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blue, c.red
}

// DemoSequence builds a spinnable sequence for previews and tests.
// Each beat alternates spin direction and walks the hand a quarter turn.
func DemoSequence(word string, beatCount int) *core.Sequence {
	seq := &core.Sequence{Word: word, Beats: make([]core.Beat, 0, beatCount)}
	letters := []rune(word)

	for i := 0; i < beatCount; i++ {
		dir := 1.0
		if i%2 == 1 {
			dir = -1
		}
		letter := ""
		if len(letters) > 0 {
			letter = string(letters[i%len(letters)])
		}
		handStart := float64(i) * math.Pi / 2
		seq.Beats = append(seq.Beats, core.Beat{
			Number: i,
			Letter: letter,
			Turns:  core.TurnsTuple{Blue: i % 3, Red: (i + 1) % 3},
			Blue: core.BeatMotion{
				HandStart: handStart,
				HandEnd:   handStart + math.Pi/2,
				PropStart: 0,
				PropTurns: dir,
			},
			Red: core.BeatMotion{
				HandStart: handStart + math.Pi,
				HandEnd:   handStart + math.Pi + math.Pi/2,
				PropStart: math.Pi,
				PropTurns: -dir,
			},
		})
	}
	return seq
}

package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
)

// PathSample is one dense trajectory sample of both primary props
type PathSample struct {
	BeatTime    float64
	TimestampMs float64
	Blue        core.PropState
	Red         core.PropState
}

// PathCacheData is the precomputed artifact: a dense fixed-rate sampling of
// prop states and trail points spanning [0, totalBeats], in the 950-unit
// reference space. Once built for a (sequence, totalBeats, beatDurationMs)
// tuple it stays valid until explicitly cleared.
type PathCacheData struct {
	TotalBeats     int
	BeatDurationMs float64
	SampleRate     int

	Samples []PathSample

	// points is ordered by timestamp per prop end; secondary channels stay empty
	points [core.PropChannelCount][core.EndCount][]core.TrailPoint
}

// PointCount returns the stored trail point count for one prop end
func (d *PathCacheData) PointCount(prop core.PropIndex, end core.EndType) int {
	return len(d.points[prop][end])
}

// PathCache precomputes prop trajectories at a fixed high sample rate so trail
// rendering never shows gaps under irregular playback frame pacing.
type PathCache struct {
	mu    sync.Mutex
	data  *PathCacheData
	valid bool
}

// NewPathCache creates an empty, invalid cache
func NewPathCache() *PathCache {
	return &PathCache{}
}

// PrecomputePaths samples stateFn at the fixed rate across the whole sequence.
// stateFn(beatTime) must return both primary prop poses; it is the motion
// calculator bound to the sequence being cached. The result is deterministic:
// identical inputs produce bit-identical data.
func (c *PathCache) PrecomputePaths(stateFn func(beatTime float64) (blue, red core.PropState), totalBeats int, beatDurationMs float64) (*PathCacheData, error) {
	if stateFn == nil {
		return nil, fmt.Errorf("path cache requires a state function")
	}
	if totalBeats <= 0 || beatDurationMs <= 0 {
		return nil, fmt.Errorf("invalid cache extent: %d beats at %.1fms", totalBeats, beatDurationMs)
	}

	stepMs := 1000.0 / float64(parameter.PathSampleRate)
	totalMs := float64(totalBeats) * beatDurationMs
	sampleCount := int(totalMs/stepMs) + 1

	data := &PathCacheData{
		TotalBeats:     totalBeats,
		BeatDurationMs: beatDurationMs,
		SampleRate:     parameter.PathSampleRate,
		Samples:        make([]PathSample, 0, sampleCount),
	}
	for _, prop := range []core.PropIndex{core.PropBlue, core.PropRed} {
		for end := 0; end < core.EndCount; end++ {
			data.points[prop][end] = make([]core.TrailPoint, 0, sampleCount)
		}
	}

	for i := 0; i < sampleCount; i++ {
		tMs := float64(i) * stepMs
		beatTime := tMs / beatDurationMs
		blue, red := stateFn(beatTime)

		data.Samples = append(data.Samples, PathSample{
			BeatTime:    beatTime,
			TimestampMs: tMs,
			Blue:        blue,
			Red:         red,
		})

		appendEnds(data, core.PropBlue, blue, tMs)
		appendEnds(data, core.PropRed, red, tMs)
	}

	c.mu.Lock()
	c.data = data
	c.valid = true
	c.mu.Unlock()
	return data, nil
}

// appendEnds records both end positions of one pose as trail points
func appendEnds(d *PathCacheData, prop core.PropIndex, p core.PropState, tMs float64) {
	head := p.Head()
	d.points[prop][core.EndHead] = append(d.points[prop][core.EndHead], core.TrailPoint{
		X: head.X, Y: head.Y, Timestamp: tMs, PropIndex: prop, End: core.EndHead,
	})
	tail := p.Tail()
	d.points[prop][core.EndTail] = append(d.points[prop][core.EndTail], core.TrailPoint{
		X: tail.X, Y: tail.Y, Timestamp: tMs, PropIndex: prop, End: core.EndTail,
	})
}

// TrailPoints appends the ordered points for one prop end from the start of
// beat segment up to currentBeat onto dst and returns it. Pure function of
// cache contents and arguments: calling again with a later currentBeat yields
// a prefix-extension of the earlier result, so lookups are restartable.
func (c *PathCache) TrailPoints(prop core.PropIndex, end core.EndType, segment int, currentBeat float64, dst []core.TrailPoint) []core.TrailPoint {
	c.mu.Lock()
	data := c.data
	valid := c.valid
	c.mu.Unlock()

	if !valid || data == nil {
		return dst
	}
	if int(prop) >= core.PropChannelCount || int(end) >= core.EndCount {
		return dst
	}

	points := data.points[prop][end]
	if len(points) == 0 {
		return dst
	}

	startMs := float64(segment) * data.BeatDurationMs
	if startMs < 0 {
		startMs = 0
	}
	endMs := currentBeat * data.BeatDurationMs

	lo := sort.Search(len(points), func(i int) bool { return points[i].Timestamp >= startMs })
	hi := sort.Search(len(points), func(i int) bool { return points[i].Timestamp > endMs })

	return append(dst, points[lo:hi]...)
}

// IsValid reports whether a completed cache exists.
// Explicit boolean, never inferred from staleness timers.
func (c *PathCache) IsValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// Data returns the current artifact, nil when invalid
func (c *PathCache) Data() *PathCacheData {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return nil
	}
	return c.data
}

// Clear invalidates and releases the cache
func (c *PathCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.valid = false
}

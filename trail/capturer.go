package trail

import (
	"sync"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
)

// CacheService is the path-cache surface the capturer can substitute for live
// capture. Implemented by the engine's path cache; declared here so the
// capturer stays a leaf package.
type CacheService interface {
	IsValid() bool
	TrailPoints(prop core.PropIndex, end core.EndType, segment int, currentBeat float64, dst []core.TrailPoint) []core.TrailPoint
}

// ring is a fixed-capacity overwrite-oldest point buffer for one prop channel
type ring struct {
	points [parameter.TrailCapacity]core.TrailPoint
	start  int
	count  int
}

// push appends a point, evicting the oldest when full
func (r *ring) push(p core.TrailPoint) {
	if r.count < len(r.points) {
		r.points[(r.start+r.count)%len(r.points)] = p
		r.count++
		return
	}
	r.points[r.start] = p
	r.start = (r.start + 1) % len(r.points)
}

// appendTo copies the ring oldest-first into dst
func (r *ring) appendTo(dst []core.TrailPoint, minTimestamp float64) []core.TrailPoint {
	for i := 0; i < r.count; i++ {
		p := r.points[(r.start+i)%len(r.points)]
		if p.Timestamp < minTimestamp {
			continue
		}
		dst = append(dst, p)
	}
	return dst
}

// clear drops all points
func (r *ring) clear() {
	r.start = 0
	r.count = 0
}

// Capturer records prop end positions every frame for live trail rendering.
// All buffers are long-lived and refilled in place; FillTrailPointArrays never
// allocates once the caller's slices have grown to steady state.
type Capturer struct {
	mu sync.Mutex

	rings [core.PropChannelCount]ring

	settings       core.TrailSettings
	beatDurationMs float64
	windowBeats    float64

	// Playback position as of the last captured frame
	lastBeat      float64
	lastTimestamp float64

	cache CacheService
}

// NewCapturer creates a capturer with default trail configuration
func NewCapturer() *Capturer {
	return &Capturer{
		settings:       core.DefaultTrailSettings(),
		beatDurationMs: 500,
		windowBeats:    parameter.TrailWindowBeats,
	}
}

// UpdateConfig sets the timing parameters that bound the visible trail window
func (c *Capturer) UpdateConfig(beatDurationMs, windowBeats float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if beatDurationMs > 0 {
		c.beatDurationMs = beatDurationMs
	}
	if windowBeats > 0 {
		c.windowBeats = windowBeats
	}
}

// UpdateSettings replaces the trail settings snapshot
func (c *Capturer) UpdateSettings(s core.TrailSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
}

// SetAnimationCacheService installs the path cache used instead of live points
// whenever it is valid and the settings ask for it
func (c *Capturer) SetAnimationCacheService(cache CacheService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = cache
}

// CaptureFrame records both ends of every non-nil prop channel.
// Capture is a side effect of the render tick and happens whether or not the
// tick ends up drawing.
func (c *Capturer) CaptureFrame(props [core.PropChannelCount]*core.PropState, beatNumber, timestampMs float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.settings.Active() {
		return
	}
	c.lastBeat = beatNumber
	c.lastTimestamp = timestampMs

	for i, p := range props {
		if p == nil {
			continue
		}
		idx := core.PropIndex(i)
		head := p.Head()
		c.rings[i].push(core.TrailPoint{
			X: head.X, Y: head.Y,
			Timestamp: timestampMs,
			PropIndex: idx,
			End:       core.EndHead,
		})
		// Dots mode tracks heads only
		if c.settings.Mode != core.TrailModeDots {
			tail := p.Tail()
			c.rings[i].push(core.TrailPoint{
				X: tail.X, Y: tail.Y,
				Timestamp: timestampMs,
				PropIndex: idx,
				End:       core.EndTail,
			})
		}
	}
}

// FillTrailPointArrays clears and refills the caller-owned slices in place,
// oldest point first. Points come from the path cache when one is installed,
// valid, and enabled; otherwise from live capture.
func (c *Capturer) FillTrailPointArrays(blueOut, redOut, secondaryBlueOut, secondaryRedOut *[]core.TrailPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	*blueOut = (*blueOut)[:0]
	*redOut = (*redOut)[:0]
	*secondaryBlueOut = (*secondaryBlueOut)[:0]
	*secondaryRedOut = (*secondaryRedOut)[:0]

	if c.settings.UsePathCache && c.cache != nil && c.cache.IsValid() {
		segment := int(c.lastBeat - c.windowBeats)
		if segment < 0 {
			segment = 0
		}
		*blueOut = c.fillFromCache(*blueOut, core.PropBlue, segment)
		*redOut = c.fillFromCache(*redOut, core.PropRed, segment)
		*secondaryBlueOut = c.fillFromCache(*secondaryBlueOut, core.PropSecondaryBlue, segment)
		*secondaryRedOut = c.fillFromCache(*secondaryRedOut, core.PropSecondaryRed, segment)
		return
	}

	minTimestamp := c.lastTimestamp - c.windowBeats*c.beatDurationMs
	*blueOut = c.rings[core.PropBlue].appendTo(*blueOut, minTimestamp)
	*redOut = c.rings[core.PropRed].appendTo(*redOut, minTimestamp)
	*secondaryBlueOut = c.rings[core.PropSecondaryBlue].appendTo(*secondaryBlueOut, minTimestamp)
	*secondaryRedOut = c.rings[core.PropSecondaryRed].appendTo(*secondaryRedOut, minTimestamp)
}

// fillFromCache gathers both prop ends from the path cache
func (c *Capturer) fillFromCache(dst []core.TrailPoint, prop core.PropIndex, segment int) []core.TrailPoint {
	dst = c.cache.TrailPoints(prop, core.EndHead, segment, c.lastBeat, dst)
	if c.settings.Mode != core.TrailModeDots {
		dst = c.cache.TrailPoints(prop, core.EndTail, segment, c.lastBeat, dst)
	}
	return dst
}

// ClearTrails drops all captured points, keeping configuration
func (c *Capturer) ClearTrails() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.rings {
		c.rings[i].clear()
	}
	c.lastBeat = 0
	c.lastTimestamp = 0
}

// PointCount returns the captured point count for one channel (test support)
func (c *Capturer) PointCount(prop core.PropIndex) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rings[prop].count
}

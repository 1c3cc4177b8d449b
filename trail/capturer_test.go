package trail

import (
	"testing"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
)

func activeSettings(mode core.TrailMode) core.TrailSettings {
	s := core.DefaultTrailSettings()
	s.Mode = mode
	s.UsePathCache = false
	return s
}

func TestCaptureFrameBothEnds(t *testing.T) {
	c := NewCapturer()
	c.UpdateSettings(activeSettings(core.TrailModeFade))

	blue := &core.PropState{Angle: 0, Length: 100}
	var props [core.PropChannelCount]*core.PropState
	props[core.PropBlue] = blue

	c.CaptureFrame(props, 0, 10)

	// Fade mode records head and tail
	if got := c.PointCount(core.PropBlue); got != 2 {
		t.Fatalf("points = %d, want 2", got)
	}
	if got := c.PointCount(core.PropRed); got != 0 {
		t.Fatalf("nil channel captured %d points", got)
	}
}

func TestCaptureFrameDotsHeadOnly(t *testing.T) {
	c := NewCapturer()
	c.UpdateSettings(activeSettings(core.TrailModeDots))

	var props [core.PropChannelCount]*core.PropState
	props[core.PropBlue] = &core.PropState{Length: 100}
	c.CaptureFrame(props, 0, 10)

	if got := c.PointCount(core.PropBlue); got != 1 {
		t.Fatalf("dots mode captured %d points, want head only", got)
	}
}

func TestCaptureFrameInactiveSettings(t *testing.T) {
	c := NewCapturer()
	s := activeSettings(core.TrailModeFade)
	s.Enabled = false
	c.UpdateSettings(s)

	var props [core.PropChannelCount]*core.PropState
	props[core.PropBlue] = &core.PropState{Length: 100}
	c.CaptureFrame(props, 0, 10)

	if got := c.PointCount(core.PropBlue); got != 0 {
		t.Fatalf("inactive settings captured %d points", got)
	}
}

func TestRingEviction(t *testing.T) {
	c := NewCapturer()
	c.UpdateSettings(activeSettings(core.TrailModeDots))

	var props [core.PropChannelCount]*core.PropState
	props[core.PropBlue] = &core.PropState{Length: 100}

	for i := 0; i < parameter.TrailCapacity+50; i++ {
		c.CaptureFrame(props, 0, float64(i))
	}

	if got := c.PointCount(core.PropBlue); got != parameter.TrailCapacity {
		t.Fatalf("ring holds %d points, capacity %d", got, parameter.TrailCapacity)
	}

	// Oldest-first order must survive wraparound
	c.UpdateConfig(1, 1e9) // window large enough to keep everything
	var out, r1, r2, r3 []core.TrailPoint
	c.FillTrailPointArrays(&out, &r1, &r2, &r3)
	for i := 1; i < len(out); i++ {
		if out[i-1].Timestamp > out[i].Timestamp {
			t.Fatalf("points out of order at %d", i)
		}
	}
	if out[0].Timestamp != 50 {
		t.Fatalf("oldest surviving timestamp = %.0f, want 50", out[0].Timestamp)
	}
}

func TestFillTrailPointArraysWindow(t *testing.T) {
	c := NewCapturer()
	c.UpdateSettings(activeSettings(core.TrailModeDots))
	c.UpdateConfig(100, 1) // 1 beat of 100ms visible

	var props [core.PropChannelCount]*core.PropState
	props[core.PropBlue] = &core.PropState{Length: 100}

	for i := 0; i <= 30; i++ {
		c.CaptureFrame(props, float64(i)/10, float64(i*10))
	}

	var blue, red, sb, sr []core.TrailPoint
	c.FillTrailPointArrays(&blue, &red, &sb, &sr)

	// Last capture at 300ms; only points >= 200ms are in the window
	if len(blue) == 0 {
		t.Fatal("no points in window")
	}
	for _, p := range blue {
		if p.Timestamp < 200 {
			t.Fatalf("stale point at %.0fms leaked into window", p.Timestamp)
		}
	}
}

func TestFillTrailPointArraysReusesBuffers(t *testing.T) {
	c := NewCapturer()
	c.UpdateSettings(activeSettings(core.TrailModeDots))

	var props [core.PropChannelCount]*core.PropState
	props[core.PropBlue] = &core.PropState{Length: 100}
	c.CaptureFrame(props, 0, 10)

	blue := make([]core.TrailPoint, 0, parameter.TrailCapacity)
	red := make([]core.TrailPoint, 0, parameter.TrailCapacity)
	sb := make([]core.TrailPoint, 0, parameter.TrailCapacity)
	sr := make([]core.TrailPoint, 0, parameter.TrailCapacity)

	ptr := &blue[:1][0]
	c.FillTrailPointArrays(&blue, &red, &sb, &sr)

	if len(blue) != 1 {
		t.Fatalf("blue = %d points, want 1", len(blue))
	}
	if &blue[0] != ptr {
		t.Fatal("fill reallocated a pre-sized buffer")
	}
}

// stubCache is a CacheService returning one fixed point per call
type stubCache struct {
	valid bool
	calls int
}

func (s *stubCache) IsValid() bool { return s.valid }

func (s *stubCache) TrailPoints(prop core.PropIndex, end core.EndType, segment int, currentBeat float64, dst []core.TrailPoint) []core.TrailPoint {
	s.calls++
	return append(dst, core.TrailPoint{X: 1, Y: 2, PropIndex: prop, End: end})
}

func TestFillFromCacheWhenValid(t *testing.T) {
	c := NewCapturer()
	s := activeSettings(core.TrailModeFade)
	s.UsePathCache = true
	c.UpdateSettings(s)

	cache := &stubCache{valid: true}
	c.SetAnimationCacheService(cache)

	var blue, red, sb, sr []core.TrailPoint
	c.FillTrailPointArrays(&blue, &red, &sb, &sr)

	if cache.calls == 0 {
		t.Fatal("valid cache was not consulted")
	}
	// Fade mode pulls both ends for each of the four channels
	if len(blue) != 2 || len(red) != 2 {
		t.Fatalf("blue=%d red=%d points, want 2 each", len(blue), len(red))
	}
}

func TestFillFallsBackToLiveWhenCacheInvalid(t *testing.T) {
	c := NewCapturer()
	s := activeSettings(core.TrailModeDots)
	s.UsePathCache = true
	c.UpdateSettings(s)

	cache := &stubCache{valid: false}
	c.SetAnimationCacheService(cache)

	var props [core.PropChannelCount]*core.PropState
	props[core.PropBlue] = &core.PropState{Length: 100}
	c.CaptureFrame(props, 0, 10)

	var blue, red, sb, sr []core.TrailPoint
	c.FillTrailPointArrays(&blue, &red, &sb, &sr)

	if cache.calls != 0 {
		t.Fatal("invalid cache was consulted")
	}
	if len(blue) != 1 {
		t.Fatalf("live fallback returned %d points, want 1", len(blue))
	}
}

func TestClearTrails(t *testing.T) {
	c := NewCapturer()
	c.UpdateSettings(activeSettings(core.TrailModeFade))

	var props [core.PropChannelCount]*core.PropState
	props[core.PropBlue] = &core.PropState{Length: 100}
	c.CaptureFrame(props, 0, 10)
	c.ClearTrails()

	if got := c.PointCount(core.PropBlue); got != 0 {
		t.Fatalf("%d points survived clear", got)
	}
}

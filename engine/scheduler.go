package engine

import (
	"sync"
	"time"

	"github.com/lixenwraith/spinweave/core"
	"github.com/lixenwraith/spinweave/parameter"
)

// FrameScheduler delivers next-paint callbacks to the render loop.
// The loop keeps at most one callback outstanding; a scheduler only has to
// run whatever was most recently handed to Schedule.
//
// There is no way to cancel a callback already queued with the platform, so
// consumers must guard callback entry with their own disposed flag.
type FrameScheduler interface {
	// Schedule queues fn for the next frame boundary. Last writer wins.
	Schedule(fn func(now time.Time))

	// Stop halts callback delivery; queued callbacks may still fire once
	Stop()
}

// TickerScheduler delivers callbacks at a fixed frame interval on its own
// goroutine. This is the production scheduler for the preview player.
type TickerScheduler struct {
	clock    TimeProvider
	interval time.Duration

	mu      sync.Mutex
	pending func(now time.Time)

	started  sync.Once
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewTickerScheduler creates a scheduler at the standard frame interval
func NewTickerScheduler(clock TimeProvider) *TickerScheduler {
	return &TickerScheduler{
		clock:    clock,
		interval: parameter.FrameUpdateInterval,
		stopChan: make(chan struct{}),
	}
}

// Schedule queues fn for the next tick, starting the goroutine on first use
func (s *TickerScheduler) Schedule(fn func(now time.Time)) {
	s.mu.Lock()
	s.pending = fn
	s.mu.Unlock()

	s.started.Do(func() {
		s.wg.Add(1)
		core.Go(s.loop)
	})
}

// Stop halts the delivery goroutine
func (s *TickerScheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}

// loop fires the pending callback once per interval
func (s *TickerScheduler) loop() {
	defer s.wg.Done()

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-timer.C:
		}

		s.mu.Lock()
		fn := s.pending
		s.pending = nil
		s.mu.Unlock()

		if fn != nil {
			fn(s.clock.Now())
		}
		timer.Reset(s.interval)
	}
}

// ManualScheduler fires callbacks only when told to. Test support: lets a test
// simulate frame boundaries, including callbacks queued before disposal.
type ManualScheduler struct {
	mu      sync.Mutex
	pending func(now time.Time)
}

// NewManualScheduler creates an inert scheduler
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule stores fn; nothing runs until Fire
func (s *ManualScheduler) Schedule(fn func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = fn
}

// Stop drops any pending callback
func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Pending reports whether a callback is queued
func (s *ManualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Fire runs and clears the queued callback, returning whether one ran
func (s *ManualScheduler) Fire(now time.Time) bool {
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(now)
	return true
}

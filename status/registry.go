package status

import "sync/atomic"

// Registry is the central metrics facade
// Components cache pointers during init; tick loops write directly to atomics
type Registry struct {
	Bools  *MetricMap[atomic.Bool]
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]
}

// Well-known engine metric keys
const (
	KeyFramesRendered   = "engine.frames_rendered"
	KeyTicksSkipped     = "engine.ticks_skipped"
	KeyCacheHits        = "engine.cache_hits"
	KeyCacheBuilds      = "engine.cache_builds"
	KeyCacheClears      = "engine.cache_clears"
	KeyPreRenderChunks  = "engine.prerender_chunks"
	KeyPreRenderPercent = "engine.prerender_percent"
	KeyTrailPoints      = "engine.trail_points"
)

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:  NewMetricMap[atomic.Bool](),
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count()
}

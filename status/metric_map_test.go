package status

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestMetricMapGetStablePointer(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	a := m.Get("frames")
	b := m.Get("frames")
	if a != b {
		t.Fatal("same key must return the same pointer")
	}
	a.Add(3)
	if b.Load() != 3 {
		t.Fatal("writes through one pointer invisible through the other")
	}
	if m.Count() != 1 {
		t.Fatalf("count = %d, want 1", m.Count())
	}
}

func TestMetricMapRangeSorted(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	for _, k := range []string{"c", "a", "b"} {
		m.Get(k)
	}

	var keys []string
	m.Range(func(key string, _ *atomic.Int64) {
		keys = append(keys, key)
	})
	want := []string{"a", "b", "c"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestMetricMapConcurrentGet(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Get("shared").Add(1)
		}()
	}
	wg.Wait()
	if got := m.Get("shared").Load(); got != 16 {
		t.Fatalf("shared counter = %d, want 16", got)
	}
}

func TestAtomicFloat(t *testing.T) {
	var f AtomicFloat
	f.Store(1.5)
	if f.Load() != 1.5 {
		t.Fatalf("load = %f", f.Load())
	}
	f.Add(2.5)
	if f.Load() != 4.0 {
		t.Fatalf("after add = %f", f.Load())
	}
}

func TestRegistryTotalCount(t *testing.T) {
	r := NewRegistry()
	r.Bools.Get("a")
	r.Ints.Get(KeyFramesRendered)
	r.Ints.Get(KeyTrailPoints)
	r.Floats.Get(KeyPreRenderPercent)
	if got := r.TotalCount(); got != 4 {
		t.Fatalf("total = %d, want 4", got)
	}
}

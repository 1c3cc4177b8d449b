package event

import (
	"sync/atomic"

	"github.com/lixenwraith/spinweave/parameter"
)

// Queue carries lifecycle signals from the engine's worker goroutines
// (precompute, texture swaps, glyph generation) to the one consumer that
// drains them per UI tick. Push is lock-free and never blocks a producer;
// when producers outrun the consumer the oldest signals are overwritten,
// which is acceptable here because a stale progress or cache-cleared signal
// has no value once a newer one exists.
//
// Each slot is published in two steps, payload write then flag store, so the
// consumer never observes a half-written Signal.
type Queue struct {
	slots     [parameter.SignalQueueSize]Signal
	published [parameter.SignalQueueSize]atomic.Bool
	head      atomic.Uint64 // next unread slot
	tail      atomic.Uint64 // next write slot
}

// NewQueue returns an empty signal queue
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a signal; safe from any goroutine
func (q *Queue) Push(s Signal) {
	for {
		tail := q.tail.Load()
		if !q.tail.CompareAndSwap(tail, tail+1) {
			continue
		}
		idx := tail & parameter.SignalBufferMask
		q.slots[idx] = s
		q.published[idx].Store(true) // MUST follow the slot write

		// Ring wrapped over unread slots: drop the oldest signals
		head := q.head.Load()
		if tail+1-head > parameter.SignalQueueSize {
			q.head.CompareAndSwap(head, tail+1-parameter.SignalQueueSize)
		}
		return
	}
}

// Consume drains all pending signals in FIFO order, allocating the result.
// Single-consumer only; returns nil when nothing is pending.
func (q *Queue) Consume() []Signal {
	out := q.ConsumeInto(nil)
	if len(out) == 0 {
		return nil
	}
	return out
}

// ConsumeInto drains into dst's backing array, growing it only when the
// pending count exceeds its capacity. The player's per-tick drain passes the
// same scratch slice every time so steady state allocates nothing.
// Single-consumer only.
func (q *Queue) ConsumeInto(dst []Signal) []Signal {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		if tail == head {
			return dst[:0]
		}

		pending := tail - head
		if pending > parameter.SignalQueueSize {
			pending = parameter.SignalQueueSize
			head = tail - parameter.SignalQueueSize
		}

		out := dst[:0]
		for i := uint64(0); i < pending; i++ {
			idx := (head + i) & parameter.SignalBufferMask
			if !q.published[idx].Load() {
				break // producer mid-write, stop at the gap
			}
			out = append(out, q.slots[idx])
			q.published[idx].Store(false)
		}

		if q.head.CompareAndSwap(head, head+uint64(len(out))) {
			return out
		}
	}
}

// Len reports the pending signal count; approximate while producers are active
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	if n := tail - head; n < parameter.SignalQueueSize {
		return int(n)
	}
	return parameter.SignalQueueSize
}

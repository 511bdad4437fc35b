package destination

import "sync/atomic"

// DefaultQueueSize is the capacity of every destination queue unless
// configured otherwise.
const DefaultQueueSize = 100

// Queue is a bounded FIFO whose producer side never blocks. When the
// queue is full the offered value is discarded (drop newest).
type Queue[T any] struct {
	ch    chan T
	stats *Stats
	// pending counts accepted values not yet fully handled
	pending atomic.Int64
}

// NewQueue creates a queue with the given capacity. A size <= 0 selects
// DefaultQueueSize. stats may be nil.
func NewQueue[T any](size int, stats *Stats) *Queue[T] {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue[T]{
		ch:    make(chan T, size),
		stats: stats,
	}
}

// Offer enqueues v without blocking. It reports false when v was dropped.
func (q *Queue[T]) Offer(v T) bool {
	q.pending.Add(1)
	select {
	case q.ch <- v:
		return true
	default:
		q.pending.Add(-1)
		if q.stats != nil {
			q.stats.IncrementDropped()
		}
		return false
	}
}

// Len returns the number of pending items
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}

// TryTake removes and returns the oldest pending value without blocking.
// It is meant for draining after the pump has exited.
func (q *Queue[T]) TryTake() (T, bool) {
	select {
	case v := <-q.ch:
		q.pending.Add(-1)
		return v, true
	default:
		var zero T
		return zero, false
	}
}

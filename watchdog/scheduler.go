package watchdog

import (
	"context"
	"sync"
)

// Scheduler runs tasks on the goroutine being monitored
type Scheduler interface {
	// Schedule queues fn without blocking. It reports false when fn
	// was not accepted.
	Schedule(fn func()) bool
}

// SchedulerFunc adapts a function to the Scheduler interface
type SchedulerFunc func(fn func()) bool

// Schedule calls f(fn)
func (f SchedulerFunc) Schedule(fn func()) bool {
	return f(fn)
}

// DefaultLoopSize is the task capacity of a LoopScheduler
const DefaultLoopSize = 64

// LoopScheduler is a single-goroutine task loop. The goroutine that calls
// Run executes every scheduled task in order, which makes it a natural
// target for a WatchDog.
type LoopScheduler struct {
	tasks    chan func()
	quit     chan struct{}
	stopOnce sync.Once
}

// NewLoopScheduler creates a loop that holds up to size pending tasks
func NewLoopScheduler(size int) *LoopScheduler {
	if size <= 0 {
		size = DefaultLoopSize
	}
	return &LoopScheduler{
		tasks: make(chan func(), size),
		quit:  make(chan struct{}),
	}
}

// Schedule queues fn. It drops fn when the loop is full or stopped.
func (l *LoopScheduler) Schedule(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	default:
		return false
	}
}

// ScheduleWait queues fn, waiting for room. It reports false when the
// loop stopped or ctx was done first.
func (l *LoopScheduler) ScheduleWait(ctx context.Context, fn func()) bool {
	select {
	case <-l.quit:
		return false
	case <-ctx.Done():
		return false
	case l.tasks <- fn:
		return true
	}
}

// Run executes tasks on the calling goroutine until Stop is called
func (l *LoopScheduler) Run() {
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Stop makes Run return after the current task
func (l *LoopScheduler) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
}

package destination

import (
	"context"
	"time"
)

// Pump is the single worker goroutine that drains a Queue. Values are
// handled strictly in order. The pump exits when Stop is called or when
// handle returns false. Items still queued at that point are abandoned.
type Pump[T any] struct {
	queue  *Queue[T]
	handle func(ctx context.Context, v T) bool
	idle   func()
	ctx    context.Context
	cancel context.CancelFunc
	exited chan struct{}
}

// StartPump starts draining q. handle receives a context that is
// cancelled by Stop so that in-flight I/O can be abandoned. idle, when not
// nil, runs each time the queue has been drained.
func StartPump[T any](q *Queue[T], handle func(ctx context.Context, v T) bool, idle func()) *Pump[T] {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pump[T]{
		queue:  q,
		handle: handle,
		idle:   idle,
		ctx:    ctx,
		cancel: cancel,
		exited: make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Pump[T]) run() {
	defer close(p.exited)
	defer p.cancel()

	for {
		select {
		case <-p.ctx.Done():
			return
		case v := <-p.queue.ch:
			if p.ctx.Err() != nil {
				return
			}
			ok := p.handle(p.ctx, v)
			if ok && p.idle != nil && len(p.queue.ch) == 0 {
				p.idle()
			}
			p.queue.pending.Add(-1)
			if !ok {
				return
			}
		}
	}
}

// Alive reports whether the worker is still accepting work
func (p *Pump[T]) Alive() bool {
	return p.ctx.Err() == nil
}

// Stop asks the worker to exit. It does not wait.
func (p *Pump[T]) Stop() {
	p.cancel()
}

// Wait blocks until the worker goroutine has exited
func (p *Pump[T]) Wait() {
	<-p.exited
}

// Done is closed once the worker goroutine has exited
func (p *Pump[T]) Done() <-chan struct{} {
	return p.exited
}

// drainPoll is how often Drain checks for an idle worker
const drainPoll = 5 * time.Millisecond

// Drain waits until the queue is empty and no value is being handled,
// the worker has exited, or ctx is done.
func (p *Pump[T]) Drain(ctx context.Context) error {
	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()
	for {
		if p.queue.pending.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.exited:
			return nil
		case <-ticker.C:
		}
	}
}

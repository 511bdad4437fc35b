package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/core"
)

// DefaultSubscriptionBuffer is used when Subscribe is given a buffer < 1
const DefaultSubscriptionBuffer = 64

// Subscription streams formatted log lines to one consumer. It is
// registered as a destination until Cancel is called or the dispatcher
// is closed; the channel is closed in both cases.
type Subscription struct {
	d       *Dispatcher
	ch      chan string
	mu      sync.Mutex // protects closed and sends on ch
	closed  bool
	dropped atomic.Uint64
}

// Subscribe registers a subscriber. The first value on the channel is the
// retained history, when any destination offers it; live lines follow.
// A slow subscriber loses lines rather than stalling the dispatcher.
func (d *Dispatcher) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = DefaultSubscriptionBuffer
	}
	s := &Subscription{
		d:  d,
		ch: make(chan string, buffer),
	}
	if history, ok := d.RetrieveLog(); ok {
		s.ch <- history
	}
	d.Add(s)
	return s
}

// C returns the line channel
func (s *Subscription) C() <-chan string {
	return s.ch
}

// Dropped returns the number of lines the subscriber was too slow for
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Send formats ev and offers it to the channel without blocking
func (s *Subscription) Send(ev core.Event) {
	line, err := s.d.formatter.Format(&ev)
	if err != nil {
		s.d.logger.Debug("subscription format failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- string(line):
	default:
		s.dropped.Add(1)
	}
}

// Cancel unregisters the subscription and closes the channel
func (s *Subscription) Cancel() {
	s.d.Remove(s)
	s.Close()
}

// Close closes the channel. It is called by Dispatcher.Close.
func (s *Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

package netdest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
)

// Config holds configuration for a network destination
type Config struct {
	// Target performs serialization and transport (required)
	Target Target
	// QueueSize is the capacity of the pending message queue (default: 100)
	QueueSize int
	// OnFailure is called once, from the worker, when delivery fails
	OnFailure func(m Message, err error)
	// Reporter receives a notice when delivery fails (optional)
	Reporter destination.Reporter
	// Logger receives diagnostics (default: no-op)
	Logger *zap.Logger
	// MeterProvider for the destination counters (default: global provider)
	MeterProvider metric.MeterProvider
}

// NetworkDestination delivers events to a remote Target from a single
// worker. The first failed delivery stops the worker for good: the
// destination then ignores further events until the host replaces it.
type NetworkDestination struct {
	target    Target
	queue     *destination.Queue[Message]
	pump      *destination.Pump[Message]
	failed    atomic.Bool
	onFailure func(Message, error)
	reporter  destination.Reporter
	stats     *destination.Stats
	logger    *zap.Logger
	closeOnce sync.Once
	closeErr  error
}

// New starts a network destination for cfg.Target
func New(cfg Config) (*NetworkDestination, error) {
	if cfg.Target == nil {
		return nil, fmt.Errorf("netdest: target is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	d := &NetworkDestination{
		target:    cfg.Target,
		onFailure: cfg.OnFailure,
		reporter:  cfg.Reporter,
		stats:     destination.NewStats(cfg.Target.Name(), cfg.MeterProvider),
		logger:    cfg.Logger.With(zap.String("destination", cfg.Target.Name())),
	}
	d.queue = destination.NewQueue[Message](cfg.QueueSize, d.stats)
	d.pump = destination.StartPump(d.queue, d.handle, nil)
	return d, nil
}

// Send encodes ev and queues it. Events that cannot be encoded are
// dropped; so is everything once the destination has failed or closed.
func (d *NetworkDestination) Send(ev core.Event) {
	if !d.Alive() {
		return
	}
	m, err := d.target.Encode(ev)
	if err != nil {
		d.logger.Debug("dropping unencodable message", zap.Error(err))
		return
	}
	d.queue.Offer(m)
}

func (d *NetworkDestination) handle(ctx context.Context, m Message) bool {
	err := d.target.Transmit(ctx, m)
	if err == nil {
		d.stats.IncrementProcessed()
		return true
	}
	if ctx.Err() != nil {
		// Closing, not a delivery failure.
		return false
	}

	d.failed.Store(true)
	d.stats.IncrementFailed()
	d.logger.Warn("log delivery failed, destination disabled", zap.Error(err))
	if d.reporter != nil {
		d.reporter.Emit(core.Warning, "Send %s log failed", d.target.Name())
	}
	if d.onFailure != nil {
		d.onFailure(m, err)
	}
	return false
}

// Alive reports whether the destination still delivers
func (d *NetworkDestination) Alive() bool {
	return d.pump.Alive() && !d.failed.Load()
}

// Failed reports whether a delivery failure disabled the destination
func (d *NetworkDestination) Failed() bool {
	return d.failed.Load()
}

// Name returns the target name
func (d *NetworkDestination) Name() string {
	return d.target.Name()
}

// Stats returns a snapshot of the current statistics
func (d *NetworkDestination) Stats() destination.Snapshot {
	return d.stats.GetSnapshot()
}

// Drain waits until every queued message has been transmitted, or the
// destination has stopped.
func (d *NetworkDestination) Drain(ctx context.Context) error {
	if err := d.pump.Drain(ctx); err != nil {
		return err
	}
	if dr, ok := d.target.(destination.Drainer); ok && d.Alive() {
		return dr.Drain(ctx)
	}
	return nil
}

// Close abandons queued and in-flight deliveries and closes the target.
func (d *NetworkDestination) Close() error {
	d.closeOnce.Do(func() {
		d.pump.Stop()
		// Closing the target unblocks a transmit that ignores ctx.
		err := d.target.Close()
		d.pump.Wait()
		if err != nil && !errors.Is(err, destination.ErrClosed) {
			d.closeErr = err
		}
	})
	return d.closeErr
}

package destination

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/philipp01105/fanlog/destination"

// Stats tracks destination statistics. Every counter is mirrored into an
// OpenTelemetry counter carrying a "destination" attribute.
type Stats struct {
	dropped   atomic.Uint64
	processed atomic.Uint64
	failed    atomic.Uint64

	droppedCounter   metric.Int64Counter
	deliveredCounter metric.Int64Counter
	failureCounter   metric.Int64Counter
	attrs            metric.MeasurementOption
}

// NewStats creates a Stats instance reporting through mp. A nil mp uses
// the global provider from otel.GetMeterProvider.
func NewStats(name string, mp metric.MeterProvider) *Stats {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	s := &Stats{
		attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("destination", name))),
	}
	s.droppedCounter = counter(meter, "fanlog.destination.dropped", "Messages dropped because the queue was full")
	s.deliveredCounter = counter(meter, "fanlog.destination.delivered", "Messages written or transmitted")
	s.failureCounter = counter(meter, "fanlog.destination.failures", "Failed writes or transmissions")
	return s
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name,
		metric.WithUnit("{message}"),
		metric.WithDescription(desc),
	)
	if err != nil || c == nil {
		return noop.Int64Counter{}
	}
	return c
}

// IncrementDropped counts a message rejected by a full queue
func (s *Stats) IncrementDropped() {
	s.dropped.Add(1)
	s.droppedCounter.Add(context.Background(), 1, s.attrs)
}

// IncrementProcessed counts a delivered message
func (s *Stats) IncrementProcessed() {
	s.processed.Add(1)
	s.deliveredCounter.Add(context.Background(), 1, s.attrs)
}

// IncrementFailed counts a failed write or transmission
func (s *Stats) IncrementFailed() {
	s.failed.Add(1)
	s.failureCounter.Add(context.Background(), 1, s.attrs)
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	Dropped   uint64
	Processed uint64
	Failed    uint64
}

// GetSnapshot returns a snapshot of current statistics
func (s *Stats) GetSnapshot() Snapshot {
	return Snapshot{
		Dropped:   s.dropped.Load(),
		Processed: s.processed.Load(),
		Failed:    s.failed.Load(),
	}
}

package destination

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) (int64, attribute.Set) {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) == 0 {
				t.Fatalf("Metric %s has unexpected data %T", name, m.Data)
			}
			return sum.DataPoints[0].Value, sum.DataPoints[0].Attributes
		}
	}
	return 0, attribute.Set{}
}

func TestStats_Telemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	stats := NewStats("file", mp)
	stats.IncrementDropped()
	stats.IncrementDropped()
	stats.IncrementProcessed()
	stats.IncrementFailed()

	snap := stats.GetSnapshot()
	if snap.Dropped != 2 || snap.Processed != 1 || snap.Failed != 1 {
		t.Errorf("Unexpected snapshot %+v", snap)
	}

	dropped, attrs := collectSum(t, reader, "fanlog.destination.dropped")
	if dropped != 2 {
		t.Errorf("Expected dropped counter 2, got %d", dropped)
	}
	if v, ok := attrs.Value("destination"); !ok || v.AsString() != "file" {
		t.Errorf("Expected destination=file attribute, got %v", attrs)
	}
	if failed, _ := collectSum(t, reader, "fanlog.destination.failures"); failed != 1 {
		t.Errorf("Expected failure counter 1, got %d", failed)
	}
}

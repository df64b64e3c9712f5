package flight

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "flightsync/internal/flight"

type metrics struct {
	resolveFailures metric.Int64Counter
	importBatches   metric.Int64Counter
	importRecords   metric.Int64Counter
}

// newMetrics registers the flight counters on the global meter provider,
// falling back to no-op instruments if registration fails.
func newMetrics() *metrics {
	meter := otel.Meter(meterName)
	fallback := noop.NewMeterProvider().Meter(meterName)

	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}

	return &metrics{
		resolveFailures: counter("flightsync.entity.resolve.failures",
			"Airline/airport resolutions that degraded to a null reference"),
		importBatches: counter("flightsync.import.batches",
			"Import batches by outcome"),
		importRecords: counter("flightsync.import.records",
			"Flight records fetched for import"),
	}
}

func (m *metrics) resolveFailed(ctx context.Context, kind entityKind) {
	m.resolveFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}

func (m *metrics) batchFinished(ctx context.Context, committed bool, records int) {
	outcome := "rolled_back"
	if committed {
		outcome = "committed"
	}
	m.importBatches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.importRecords.Add(ctx, int64(records))
}

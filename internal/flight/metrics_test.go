package flight

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// withManualReader installs a collecting meter provider for the duration of t.
func withManualReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() {
		otel.SetMeterProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return reader
}

// counterValue sums the data points of the named counter whose attributes
// contain attr. An empty attr key matches every point.
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string, attr attribute.KeyValue) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				if attr.Key != "" {
					if v, ok := dp.Attributes.Value(attr.Key); !ok || v.Emit() != attr.Value.Emit() {
						continue
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_ImportBatches(t *testing.T) {
	reader := withManualReader(t)

	store := new(MockFlightStore)
	store.On("ImportBatch", mock.Anything, int64(1), mock.Anything).Return(ImportStats{Flights: 2}, nil).Once()
	store.On("ImportBatch", mock.Anything, int64(2), mock.Anything).Return(ImportStats{}, errors.New("boom")).Once()
	source := &staticSource{batches: [][]Record{{fullRecord(), fullRecord()}, {fullRecord()}}}
	log, _ := newTestLogger()
	svc := NewService(source, store, nil, 1, &sequenceIDs{}, log)

	svc.ImportFlights(context.Background())
	svc.ImportFlights(context.Background())
	svc.ImportFlights(context.Background())

	assert.Equal(t, int64(1), counterValue(t, reader, "flightsync.import.batches", attribute.String("outcome", "committed")))
	assert.Equal(t, int64(1), counterValue(t, reader, "flightsync.import.batches", attribute.String("outcome", "rolled_back")))
	assert.Equal(t, int64(3), counterValue(t, reader, "flightsync.import.records", attribute.KeyValue{}))
}

func TestMetrics_ResolveFailures(t *testing.T) {
	reader := withManualReader(t)

	client := newSQLiteWithTrigger(t, `CREATE TRIGGER reject_airline BEFORE INSERT ON airlines
		BEGIN SELECT RAISE(ABORT, 'airline rejected'); END`)
	log, _ := newTestLogger()
	r := NewResolver(log)

	err := client.WithTransaction(context.Background(), sql.LevelDefault, func(ctx context.Context, tx *sql.Tx) error {
		assert.Nil(t, r.ResolveAirline(ctx, tx, &AirlineData{IATA: "AA"}))
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), counterValue(t, reader, "flightsync.entity.resolve.failures", attribute.String("kind", "airline")))
	assert.Equal(t, int64(0), counterValue(t, reader, "flightsync.entity.resolve.failures", attribute.String("kind", "airport")))
}

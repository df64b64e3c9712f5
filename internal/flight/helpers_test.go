package flight

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"flightsync/pkg/db"
	"flightsync/pkg/db/dbtest"
	"flightsync/pkg/logger"

	"github.com/stretchr/testify/require"
)

type staticSource struct {
	mu      sync.Mutex
	batches [][]Record
	calls   int
}

// Fetch hands out the configured batches in order, then empty batches.
func (s *staticSource) Fetch(ctx context.Context) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.batches) == 0 {
		return []Record{}
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next
}

type sequenceIDs struct {
	mu   sync.Mutex
	next int64
}

func (g *sequenceIDs) GenerateID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.next++
	return g.next
}

func newTestLogger() (*logger.ZeroLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logger.NewWithWriter("development", buf), buf
}

func newTestStore(t *testing.T) (*Store, *db.SQLClient, *bytes.Buffer) {
	t.Helper()

	client := dbtest.NewSQLite(t)
	log, buf := newTestLogger()
	return NewStore(client, NewResolver(log), log), client, buf
}

// newSQLiteWithTrigger returns a migrated database with one extra trigger,
// used to force statement failures.
func newSQLiteWithTrigger(t *testing.T, trigger string) *db.SQLClient {
	t.Helper()

	client := dbtest.NewSQLite(t)
	execSQL(t, client, trigger)
	return client
}

func intPtr(v int) *int {
	return &v
}

func fullRecord() Record {
	return Record{
		FlightDate:   "2024-05-01",
		FlightStatus: "active",
		Airline:      &AirlineData{Name: "American Airlines", IATA: "AA", ICAO: "AAL"},
		Departure: &Endpoint{
			Airport:   "San Francisco International",
			Timezone:  "America/Los_Angeles",
			IATA:      "SFO",
			ICAO:      "KSFO",
			Terminal:  "2",
			Gate:      "D11",
			Delay:     intPtr(13),
			Scheduled: "2024-05-01T04:20:00+00:00",
			Estimated: "2024-05-01T04:25:00+00:00",
			Actual:    "2024-05-01T04:33:00+00:00",
		},
		Arrival: &Endpoint{
			Airport:   "Dallas/Fort Worth International",
			Timezone:  "America/Chicago",
			IATA:      "DFW",
			ICAO:      "KDFW",
			Terminal:  "A",
			Gate:      "A22",
			Baggage:   "A17",
			Scheduled: "2024-05-01T09:45:00+00:00",
			Estimated: "2024-05-01T09:45:00+00:00",
		},
		Flight: FlightData{
			Number: "1004",
			IATA:   "AA1004",
			ICAO:   "AAL1004",
			Codeshared: &CodeshareData{
				AirlineName:  "British Airways",
				AirlineIATA:  "BA",
				AirlineICAO:  "BAW",
				FlightNumber: "1505",
				FlightIATA:   "BA1505",
				FlightICAO:   "BAW1505",
			},
		},
	}
}

func execSQL(t *testing.T, client *db.SQLClient, query string) {
	t.Helper()

	_, err := client.ExecContext(t.Context(), query)
	require.NoError(t, err)
}

func queryInt64(t *testing.T, client *db.SQLClient, query string, args ...any) *int64 {
	t.Helper()

	var v *int64
	require.NoError(t, client.QueryRowContext(t.Context(), query, args...).Scan(&v))
	return v
}

package flight

import (
	"context"
	"database/sql"
	"testing"

	"flightsync/pkg/db/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_ResolveAirline(t *testing.T) {
	t.Run("nil airline resolves to nil without touching the database", func(t *testing.T) {
		log, _ := newTestLogger()
		r := NewResolver(log)

		// A nil querier would panic if it were used.
		assert.Nil(t, r.ResolveAirline(context.Background(), nil, nil))
		assert.Nil(t, r.ResolveAirport(context.Background(), nil, nil))
	})

	t.Run("second resolution in the same transaction reuses the first row", func(t *testing.T) {
		// Arrange
		client := dbtest.NewSQLite(t)
		log, _ := newTestLogger()
		r := NewResolver(log)

		var first, second *int64

		// Act
		err := client.WithTransaction(context.Background(), sql.LevelDefault, func(ctx context.Context, tx *sql.Tx) error {
			first = r.ResolveAirline(ctx, tx, &AirlineData{Name: "American Airlines", IATA: "AA", ICAO: "AAL"})
			second = r.ResolveAirline(ctx, tx, &AirlineData{Name: "American", IATA: "AA"})
			return nil
		})

		// Assert
		require.NoError(t, err)
		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.Equal(t, *first, *second)
		assert.Equal(t, 1, dbtest.CountRows(t, client, "airlines"))
	})

	t.Run("existing committed row is reused", func(t *testing.T) {
		// Arrange
		client := dbtest.NewSQLite(t)
		log, _ := newTestLogger()
		r := NewResolver(log)
		ctx := context.Background()

		var ids []int64
		for i := 0; i < 3; i++ {
			// Act
			err := client.WithTransaction(ctx, sql.LevelDefault, func(ctx context.Context, tx *sql.Tx) error {
				id := r.ResolveAirline(ctx, tx, &AirlineData{IATA: "LH"})
				require.NotNil(t, id)
				ids = append(ids, *id)
				return nil
			})
			require.NoError(t, err)
		}

		// Assert
		assert.Equal(t, []int64{ids[0], ids[0], ids[0]}, ids)
		assert.Equal(t, 1, dbtest.CountRows(t, client, "airlines"))
	})

	t.Run("missing fields are stored with defaults", func(t *testing.T) {
		// Arrange
		client := dbtest.NewSQLite(t)
		log, _ := newTestLogger()
		r := NewResolver(log)
		ctx := context.Background()

		// Act
		err := client.WithTransaction(ctx, sql.LevelDefault, func(ctx context.Context, tx *sql.Tx) error {
			assert.NotNil(t, r.ResolveAirline(ctx, tx, &AirlineData{}))
			return nil
		})

		// Assert
		require.NoError(t, err)
		var name, iata, icao string
		require.NoError(t, client.QueryRowContext(ctx, `SELECT name, iata, icao FROM airlines`).Scan(&name, &iata, &icao))
		assert.Equal(t, DefaultAirlineName, name)
		assert.Equal(t, DefaultAirlineIATA, iata)
		assert.Equal(t, DefaultAirlineICAO, icao)
	})
}

func TestResolver_ResolveAirport(t *testing.T) {
	t.Run("failure is logged and leaves the transaction usable", func(t *testing.T) {
		// Arrange
		client := dbtest.NewSQLite(t)
		execSQL(t, client, `CREATE TRIGGER reject_airport BEFORE INSERT ON airports
			WHEN NEW.iata = 'ERR'
			BEGIN SELECT RAISE(ABORT, 'airport rejected'); END`)
		log, logs := newTestLogger()
		r := NewResolver(log)
		ctx := context.Background()

		var failed, ok *int64

		// Act
		err := client.WithTransaction(ctx, sql.LevelDefault, func(ctx context.Context, tx *sql.Tx) error {
			failed = r.ResolveAirport(ctx, tx, &AirportData{IATA: "ERR"})
			ok = r.ResolveAirport(ctx, tx, &AirportData{Name: "Heathrow", IATA: "LHR", ICAO: "EGLL", Timezone: "Europe/London"})
			return nil
		})

		// Assert
		require.NoError(t, err)
		assert.Nil(t, failed)
		assert.NotNil(t, ok)
		assert.Equal(t, 1, dbtest.CountRows(t, client, "airports"))
		assert.Contains(t, logs.String(), `"kind":"airport"`)
		assert.Contains(t, logs.String(), "airport rejected")
	})
}

package flight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flightsync/pkg/db"
	"flightsync/pkg/logger"
)

type entityKind string

const (
	kindAirline entityKind = "airline"
	kindAirport entityKind = "airport"
)

const (
	insertAirlineQuery = `INSERT INTO airlines (name, iata, icao)
		VALUES ($1, $2, $3)
		ON CONFLICT (iata) DO NOTHING
		RETURNING id`
	selectAirlineQuery = `SELECT id FROM airlines WHERE iata = $1`

	insertAirportQuery = `INSERT INTO airports (name, iata, icao, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (iata) DO NOTHING
		RETURNING id`
	selectAirportQuery = `SELECT id FROM airports WHERE iata = $1`

	savepointName = "resolve_entity"
)

// Resolver maps airline and airport sub-records to row ids, inserting a row
// only when none exists for the IATA code.
//
// Every resolution runs inside its own savepoint, so a failed insert or
// lookup leaves the caller's transaction usable. Failures are logged and
// reported as a nil id; they never abort the batch.
type Resolver struct {
	logger  logger.Client
	metrics *metrics
}

func NewResolver(logger logger.Client) *Resolver {
	return &Resolver{
		logger:  logger,
		metrics: newMetrics(),
	}
}

func (r *Resolver) ResolveAirline(ctx context.Context, q db.Querier, airline *AirlineData) *int64 {
	if airline == nil {
		return nil
	}
	a := airline.withDefaults()
	return r.resolve(ctx, q, kindAirline, a.IATA,
		insertAirlineQuery, []any{a.Name, a.IATA, a.ICAO}, selectAirlineQuery)
}

func (r *Resolver) ResolveAirport(ctx context.Context, q db.Querier, airport *AirportData) *int64 {
	if airport == nil {
		return nil
	}
	a := airport.withDefaults()
	return r.resolve(ctx, q, kindAirport, a.IATA,
		insertAirportQuery, []any{a.Name, a.IATA, a.ICAO, a.Timezone}, selectAirportQuery)
}

func (r *Resolver) resolve(ctx context.Context, q db.Querier, kind entityKind, iata string,
	insertQuery string, insertArgs []any, lookupQuery string) *int64 {
	if _, err := q.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		r.fail(ctx, kind, iata, fmt.Errorf("savepoint: %w", err))
		return nil
	}

	id, err := insertOrLookup(ctx, q, insertQuery, insertArgs, lookupQuery, iata)
	if err != nil {
		if _, rbErr := q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepointName); rbErr != nil {
			err = fmt.Errorf("%w (rollback to savepoint: %v)", err, rbErr)
		}
		_, _ = q.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName)
		r.fail(ctx, kind, iata, err)
		return nil
	}

	if _, err := q.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName); err != nil {
		r.fail(ctx, kind, iata, fmt.Errorf("release savepoint: %w", err))
		return nil
	}
	return &id
}

func insertOrLookup(ctx context.Context, q db.Querier, insertQuery string, insertArgs []any,
	lookupQuery string, iata string) (int64, error) {
	var id int64

	err := q.QueryRowContext(ctx, insertQuery, insertArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("insert: %w", err)
	}

	// The insert hit the unique constraint on iata.
	if err := q.QueryRowContext(ctx, lookupQuery, iata).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup: %w", err)
	}
	return id, nil
}

func (r *Resolver) fail(ctx context.Context, kind entityKind, iata string, err error) {
	r.logger.Error("entity resolution failed, using null reference",
		logger.Field{Key: "kind", Value: string(kind)},
		logger.Field{Key: "iata", Value: iata},
		logger.Field{Key: "err", Value: err},
	)
	r.metrics.resolveFailed(ctx, kind)
}

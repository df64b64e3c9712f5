package flight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"flightsync/pkg/db"
	"flightsync/pkg/logger"
)

// RecentFlightsLimit caps the recent-flights listing.
const RecentFlightsLimit = 100

const (
	insertFlightQuery = `INSERT INTO flights (flight_date, flight_status, airline_id, flight_number, iata_code, icao_code)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	insertDepartureQuery = `INSERT INTO departures (flight_id, airport_id, terminal, gate, delay, scheduled, estimated, actual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertArrivalQuery = `INSERT INTO arrivals (flight_id, airport_id, terminal, gate, baggage, delay, scheduled, estimated, actual)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	insertCodeshareQuery = `INSERT INTO codeshares (flight_id, airline_id, flight_number, iata_code, icao_code)
		VALUES ($1, $2, $3, $4, $5)`

	recentFlightsQuery = `SELECT
			f.id,
			CAST(f.flight_date AS TEXT) AS flight_date,
			f.flight_status,
			f.flight_number,
			f.iata_code,
			f.icao_code,
			a.name AS airline_name,
			a.iata AS airline_iata
		FROM flights f
		LEFT JOIN airlines a ON f.airline_id = a.id
		ORDER BY f.flight_date DESC NULLS LAST, f.id DESC
		LIMIT $1`
)

// Store persists imported flights and serves the read side.
type Store struct {
	client   db.SQLExecutor
	resolver *Resolver
	logger   logger.Client
}

func NewStore(client db.SQLExecutor, resolver *Resolver, logger logger.Client) *Store {
	return &Store{
		client:   client,
		resolver: resolver,
		logger:   logger,
	}
}

// ImportBatch writes every record in one transaction. Any error other than
// an entity-resolution failure rolls back the whole batch.
func (s *Store) ImportBatch(ctx context.Context, batchID int64, records []Record) (ImportStats, error) {
	var stats ImportStats

	// LevelDefault is READ COMMITTED on postgres.
	err := s.client.WithTransaction(ctx, sql.LevelDefault, func(ctx context.Context, tx *sql.Tx) error {
		stats = ImportStats{}
		for i := range records {
			if err := s.importRecord(ctx, tx, batchID, &records[i], &stats); err != nil {
				return fmt.Errorf("record %d (flight %q): %w", i, records[i].Flight.IATA, err)
			}
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

func (s *Store) importRecord(ctx context.Context, tx *sql.Tx, batchID int64, rec *Record, stats *ImportStats) error {
	airlineID := s.resolver.ResolveAirline(ctx, tx, rec.Airline)
	departureAirportID := s.resolver.ResolveAirport(ctx, tx, rec.Departure.AirportData())
	arrivalAirportID := s.resolver.ResolveAirport(ctx, tx, rec.Arrival.AirportData())

	var flightID int64
	err := tx.QueryRowContext(ctx, insertFlightQuery,
		nullIfEmpty(rec.FlightDate),
		nullIfEmpty(rec.FlightStatus),
		nullableID(airlineID),
		orDefault(rec.Flight.Number, DefaultFlightNumber),
		orDefault(rec.Flight.IATA, DefaultFlightIATA),
		orDefault(rec.Flight.ICAO, DefaultFlightICAO),
	).Scan(&flightID)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("flight insert returned no id, skipping detail rows",
			logger.Field{Key: "batch_id", Value: batchID},
			logger.Field{Key: "flight_iata", Value: rec.Flight.IATA},
		)
		stats.Skipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert flight: %w", err)
	}
	stats.Flights++

	dep := endpointOrEmpty(rec.Departure)
	if _, err := tx.ExecContext(ctx, insertDepartureQuery,
		flightID,
		nullableID(departureAirportID),
		orDefault(dep.Terminal, DefaultTerminal),
		nullIfEmpty(dep.Gate),
		delayOrDefault(dep.Delay),
		nullIfEmpty(dep.Scheduled),
		nullIfEmpty(dep.Estimated),
		nullIfEmpty(dep.Actual),
	); err != nil {
		return fmt.Errorf("insert departure: %w", err)
	}
	stats.Departures++

	arr := endpointOrEmpty(rec.Arrival)
	if _, err := tx.ExecContext(ctx, insertArrivalQuery,
		flightID,
		nullableID(arrivalAirportID),
		orDefault(arr.Terminal, DefaultTerminal),
		nullIfEmpty(arr.Gate),
		nullIfEmpty(arr.Baggage),
		delayOrDefault(arr.Delay),
		nullIfEmpty(arr.Scheduled),
		nullIfEmpty(arr.Estimated),
		nullIfEmpty(arr.Actual),
	); err != nil {
		return fmt.Errorf("insert arrival: %w", err)
	}
	stats.Arrivals++

	cs := rec.Flight.Codeshared
	if cs == nil {
		return nil
	}

	codeshareAirlineID := s.resolver.ResolveAirline(ctx, tx, cs.airline())
	if _, err := tx.ExecContext(ctx, insertCodeshareQuery,
		flightID,
		nullableID(codeshareAirlineID),
		orDefault(cs.FlightNumber, DefaultFlightNumber),
		orDefault(cs.FlightIATA, DefaultFlightIATA),
		orDefault(cs.FlightICAO, DefaultFlightICAO),
	); err != nil {
		return fmt.Errorf("insert codeshare: %w", err)
	}
	stats.Codeshares++

	return nil
}

// ListRecentFlights returns up to RecentFlightsLimit flights, newest flight
// date first, on a single pooled connection.
func (s *Store) ListRecentFlights(ctx context.Context) ([]FlightSummary, error) {
	flights := make([]FlightSummary, 0, RecentFlightsLimit)

	err := s.client.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, recentFlightsQuery, RecentFlightsLimit)
		if err != nil {
			return fmt.Errorf("query recent flights: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var f FlightSummary
			if err := rows.Scan(
				&f.ID,
				&f.FlightDate,
				&f.FlightStatus,
				&f.FlightNumber,
				&f.IATACode,
				&f.ICAOCode,
				&f.AirlineName,
				&f.AirlineIATA,
			); err != nil {
				return fmt.Errorf("scan flight: %w", err)
			}
			flights = append(flights, f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return flights, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.PingContext(ctx)
}

func endpointOrEmpty(e *Endpoint) *Endpoint {
	if e == nil {
		return &Endpoint{}
	}
	return e
}

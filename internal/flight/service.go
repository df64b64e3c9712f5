package flight

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"flightsync/pkg/cache"
	"flightsync/pkg/idgen"
	"flightsync/pkg/logger"
)

const recentFlightsCacheKey = "flights:recent"

// FlightSource fetches one batch of upstream flight records. An empty
// result means "nothing to import right now", whatever the cause.
type FlightSource interface {
	Fetch(ctx context.Context) []Record
}

type FlightStore interface {
	ImportBatch(ctx context.Context, batchID int64, records []Record) (ImportStats, error)
	ListRecentFlights(ctx context.Context) ([]FlightSummary, error)
	Ping(ctx context.Context) error
}

type Service struct {
	source  FlightSource
	store   FlightStore
	cache   cache.Cache
	ttl     time.Duration
	ids     idgen.Generator
	logger  logger.Client
	metrics *metrics

	// cacheMu orders listing writes against invalidations. cacheGen is
	// bumped on every invalidation; a listing read under an older
	// generation is not written back.
	cacheMu  sync.Mutex
	cacheGen uint64
}

// NewService wires the import and query paths. cache may be nil, which
// disables caching of the recent-flights listing.
func NewService(source FlightSource, store FlightStore, cache cache.Cache, ttlMinutes int,
	ids idgen.Generator, logger logger.Client) *Service {
	return &Service{
		source:  source,
		store:   store,
		cache:   cache,
		ttl:     time.Duration(ttlMinutes) * time.Minute,
		ids:     ids,
		logger:  logger,
		metrics: newMetrics(),
	}
}

// ImportFlights fetches one batch and writes it in a single transaction.
// A failed transaction is logged and reported in the result; it is not
// returned as an error.
func (s *Service) ImportFlights(ctx context.Context) ImportResult {
	records := s.source.Fetch(ctx)
	if len(records) == 0 {
		s.logger.Info("no flight data returned by source")
		return ImportResult{}
	}

	batchID := s.ids.GenerateID()
	batchLog := s.logger.With(
		logger.Field{Key: "batch_id", Value: batchID},
		logger.Field{Key: "batch_time", Value: idgen.Timestamp(batchID)},
		logger.Field{Key: "batch_node", Value: idgen.Node(batchID)},
	)
	start := time.Now()
	result := ImportResult{BatchID: batchID, Fetched: len(records)}

	stats, err := s.store.ImportBatch(ctx, batchID, records)
	s.metrics.batchFinished(ctx, err == nil, len(records))
	if err != nil {
		batchLog.Error("flight batch rolled back",
			logger.Field{Key: "records", Value: len(records)},
			logger.Field{Key: "duration", Value: time.Since(start)},
			logger.Field{Key: "err", Value: err},
		)
		result.Err = err
		return result
	}

	batchLog.Info("flight batch imported",
		logger.Field{Key: "records", Value: len(records)},
		logger.Field{Key: "flights", Value: stats.Flights},
		logger.Field{Key: "codeshares", Value: stats.Codeshares},
		logger.Field{Key: "skipped", Value: stats.Skipped},
		logger.Field{Key: "duration", Value: time.Since(start)},
	)
	result.Committed = true
	result.Stats = stats

	s.invalidateRecentFlights(ctx)
	return result
}

// ListFlights returns the recent-flights listing, served from cache when
// one is configured and warm.
func (s *Service) ListFlights(ctx context.Context) ([]FlightSummary, error) {
	if cached, ok := s.cachedRecentFlights(ctx); ok {
		return cached, nil
	}
	gen := s.cacheGeneration()

	flights, err := s.store.ListRecentFlights(ctx)
	if err != nil {
		s.logger.Error("failed to list flights", logger.Field{Key: "err", Value: err})
		return nil, newInternalError("Failed to fetch flights", err)
	}

	s.cacheRecentFlights(ctx, gen, flights)
	return flights, nil
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return &AppError{
			Status:  http.StatusServiceUnavailable,
			Code:    ErrorCodeUnavailable,
			Message: "Database unavailable",
			Err:     err,
		}
	}
	return nil
}

func (s *Service) cachedRecentFlights(ctx context.Context) ([]FlightSummary, bool) {
	if s.cache == nil {
		return nil, false
	}

	flights, err := cache.GetJSON[[]FlightSummary](ctx, s.cache, recentFlightsCacheKey)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("recent flights cache read failed", logger.Field{Key: "err", Value: err})
		}
		return nil, false
	}
	if flights == nil {
		flights = []FlightSummary{}
	}
	return flights, true
}

func (s *Service) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

func (s *Service) cacheRecentFlights(ctx context.Context, gen uint64, flights []FlightSummary) {
	if s.cache == nil {
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if gen != s.cacheGen {
		s.logger.Debug("recent flights changed during read, not caching")
		return
	}
	if err := cache.SetJSON(ctx, s.cache, recentFlightsCacheKey, flights, s.ttl); err != nil {
		s.logger.Warn("recent flights cache write failed", logger.Field{Key: "err", Value: err})
	}
}

func (s *Service) invalidateRecentFlights(ctx context.Context) {
	if s.cache == nil {
		return
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheGen++
	if err := s.cache.Del(ctx, recentFlightsCacheKey); err != nil {
		s.logger.Warn("recent flights cache invalidation failed", logger.Field{Key: "err", Value: err})
	}
}

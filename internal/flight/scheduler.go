package flight

import (
	"context"
	"time"

	"flightsync/pkg/logger"
)

type importer interface {
	ImportFlights(ctx context.Context) ImportResult
}

// Scheduler re-runs the import on a fixed interval. Runs never overlap:
// ticks that fire during a run are dropped.
type Scheduler struct {
	importer importer
	interval time.Duration
	logger   logger.Client
}

func NewScheduler(importer importer, interval time.Duration, logger logger.Client) *Scheduler {
	return &Scheduler{
		importer: importer,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. A run in progress when ctx is
// cancelled finishes its batch before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("import scheduler started", logger.Field{Key: "interval", Value: s.interval})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("import scheduler stopped")
			return
		case <-ticker.C:
			result := s.importer.ImportFlights(context.WithoutCancel(ctx))
			fields := []logger.Field{
				{Key: "batch_id", Value: result.BatchID},
				{Key: "fetched", Value: result.Fetched},
				{Key: "committed", Value: result.Committed},
			}
			if result.Err != nil {
				fields = append(fields, logger.Field{Key: "err", Value: result.Err})
			}
			s.logger.Debug("scheduled import finished", fields...)
		}
	}
}

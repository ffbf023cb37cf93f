// Package scheduler runs periodic ingestion for a configured set of cities.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler periodically ingests weather data for configured city names.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ingest    ingestFunc
	cities    []string
	interval  time.Duration
	log       *zap.Logger
}

type ingestFunc func(ctx context.Context, cityName string) error

// New creates a Scheduler around the given ingestion call.
func New(cities []string, interval time.Duration, ingest func(ctx context.Context, cityName string) error, log *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		ingest:    ingest,
		cities:    cities,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic job. With no configured cities it is a no-op,
// keeping the default deployment free of background work.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.log.Info("scheduler disabled: no cities configured")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		for _, city := range s.cities {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.ingest(ctx, city); err != nil {
				s.log.Warn("scheduled ingestion failed",
					zap.String("city", city),
					zap.Error(err),
				)
			}
			cancel()
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started",
		zap.Strings("cities", s.cities),
		zap.Duration("interval", interval),
	)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

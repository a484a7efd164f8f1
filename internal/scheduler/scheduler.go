package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-cache-proxy/internal/weather"
)

// Scheduler keeps configured cities warm in the cache so their TTL expiry
// does not turn into a burst of upstream fetches at request time. Each run
// re-populates only entries that have already expired.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	cities    []string
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a Scheduler warming the given cities every interval.
func New(cities []string, interval time.Duration, service *weather.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cities:    cities,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic warm job. A Scheduler with no cities is a
// no-op.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.logger.Info("no warm cities configured; scheduler idle")
		return nil
	}

	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 300
	}

	_, err := s.scheduler.Every(seconds).Seconds().Do(s.warmAll)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) warmAll() {
	var wg sync.WaitGroup
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := s.service.Warm(ctx, city); err != nil {
				s.logger.Warn("warm fetch failed", zap.String("city", city), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

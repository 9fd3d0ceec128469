package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CleanupStream carries orphan-sweep tasks from the scheduler to the
// cleaner.
const CleanupStream = "images:cleanup"

// Scheduler enqueues periodic orphan sweeps. Unlinked images keep their
// bytes until the retention window passes; the sweep is what finally
// erases them.
type Scheduler struct {
	cron  *cron.Cron
	queue *redis.Client
	log   zerolog.Logger
}

func NewScheduler(queue *redis.Client, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		queue: queue,
		log:   log,
	}
}

func (s *Scheduler) Start(schedule string) error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, s.enqueueSweep); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueSweep() {
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: CleanupStream,
		Values: map[string]any{"type": "orphan_sweep"},
	}).Result()
	if err != nil {
		s.log.Error().Err(err).Msg("enqueue orphan sweep failed")
	}
}

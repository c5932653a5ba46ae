package scheduler

import (
	"fmt"
	"time"

	"agency_portal_backend/platform/config"
	"agency_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic registers the recurring sweep tasks with the asynq scheduler.
// Intervals come from configuration: daily for the stale sweep, every five
// minutes for the event-queue drain by default.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
	})

	if _, err := scheduler.Register(
		everySpec(cfg.GetStaleSweepInterval(), 24*time.Hour),
		NewStaleSweepTask(),
		asynq.Queue(queue),
	); err != nil {
		return nil, fmt.Errorf("register stale sweep: %w", err)
	}

	if _, err := scheduler.Register(
		everySpec(cfg.GetEventQueueSweepInterval(), 5*time.Minute),
		NewEventQueueTask(),
		asynq.Queue(queue),
	); err != nil {
		return nil, fmt.Errorf("register event queue sweep: %w", err)
	}

	return &Periodic{scheduler: scheduler, log: log}, nil
}

// Run blocks until the scheduler stops.
func (p *Periodic) Run() {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Run(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
	}
}

// Shutdown stops the scheduler gracefully.
func (p *Periodic) Shutdown() {
	if p == nil || p.scheduler == nil {
		return
	}
	p.scheduler.Shutdown()
}

func everySpec(interval, fallback time.Duration) string {
	if interval <= 0 {
		interval = fallback
	}
	return "@every " + interval.String()
}

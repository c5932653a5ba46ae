package scheduler

import (
	"context"
	"fmt"

	"agency_portal_backend/internal/pipeline/scoring"
	"agency_portal_backend/platform/config"
	"agency_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	batch  *scoring.Batch
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, batch *scoring.Batch, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		batch:  batch,
		log:    log,
	}

	mux.HandleFunc(TaskPipelineStaleSweep, w.handleStaleSweep)
	mux.HandleFunc(TaskPipelineEventQueue, w.handleEventQueueSweep)

	return w, nil
}

func (w *Worker) handleStaleSweep(ctx context.Context, _ *asynq.Task) error {
	// The batch writes its own audit row and logs the counters.
	if _, err := w.batch.RecalculateStaleScores(ctx); err != nil {
		return fmt.Errorf("stale sweep: %w", err)
	}
	return nil
}

func (w *Worker) handleEventQueueSweep(ctx context.Context, _ *asynq.Task) error {
	if _, err := w.batch.ProcessEventQueue(ctx); err != nil {
		return fmt.Errorf("event queue sweep: %w", err)
	}
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// Package scheduler provides the asynq task definitions, enqueue client and
// worker for the pipeline sweeps.
package scheduler

import "github.com/hibiken/asynq"

const TaskPipelineStaleSweep = "pipeline.stale_sweep"

const TaskPipelineEventQueue = "pipeline.event_queue"

// Sweep tasks carry no payload. asynq keys uniqueness on task type plus
// payload bytes, so the body must be static for Unique to dedupe
// overlapping schedules.
func NewStaleSweepTask() *asynq.Task {
	return asynq.NewTask(TaskPipelineStaleSweep, nil)
}

func NewEventQueueTask() *asynq.Task {
	return asynq.NewTask(TaskPipelineEventQueue, nil)
}

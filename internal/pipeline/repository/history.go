package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AppendScoreHistory writes one audit row for a recalculation. History rows
// are append-only; they are never updated or deleted.
func (r *Repository) AppendScoreHistory(ctx context.Context, recommendationID uuid.UUID, confidenceScore int, triggerSource string, breakdown []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO score_history (recommendation_id, confidence_score, trigger_source, breakdown)
		VALUES ($1, $2, $3, $4)
	`, recommendationID, confidenceScore, triggerSource, breakdown)
	return err
}

// ListScoreHistory returns the most recent history rows for a deal,
// newest first.
func (r *Repository) ListScoreHistory(ctx context.Context, recommendationID uuid.UUID, limit int) ([]ScoreHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recommendation_id, confidence_score, trigger_source, breakdown, created_at
		FROM score_history
		WHERE recommendation_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, recommendationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]ScoreHistory, 0)
	for rows.Next() {
		var h ScoreHistory
		if err := rows.Scan(&h.ID, &h.RecommendationID, &h.ConfidenceScore, &h.TriggerSource, &h.Breakdown, &h.CreatedAt); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// EnqueueScoreEvent records a pending recalculation request from an
// immediate trigger.
func (r *Repository) EnqueueScoreEvent(ctx context.Context, recommendationID uuid.UUID, triggerSource string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO score_events (recommendation_id, trigger_source)
		VALUES ($1, $2)
		RETURNING id
	`, recommendationID, triggerSource).Scan(&id)
	return id, err
}

// MarkScoreEventProcessed stamps a queued event as handled.
func (r *Repository) MarkScoreEventProcessed(ctx context.Context, eventID int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE score_events
		SET processed_at = now()
		WHERE id = $1 AND processed_at IS NULL
	`, eventID)
	return err
}

// ListPendingScoreEvents returns queued events whose immediate processing
// never completed, oldest first. The queuedBefore cutoff keeps the sweep
// from racing in-flight fire-and-forget work.
func (r *Repository) ListPendingScoreEvents(ctx context.Context, queuedBefore time.Time, limit int) ([]ScoreEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recommendation_id, trigger_source, queued_at, processed_at
		FROM score_events
		WHERE processed_at IS NULL AND queued_at < $1
		ORDER BY queued_at ASC
		LIMIT $2
	`, queuedBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]ScoreEvent, 0)
	for rows.Next() {
		var ev ScoreEvent
		if err := rows.Scan(&ev.ID, &ev.RecommendationID, &ev.TriggerSource, &ev.QueuedAt, &ev.ProcessedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// RecordScoringRun writes the audit row for a batch sweep.
func (r *Repository) RecordScoringRun(ctx context.Context, run ScoringRun) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scoring_runs (run_type, processed, succeeded, failed, skipped, duration_ms, errors, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.RunType, run.Processed, run.Succeeded, run.Failed, run.Skipped,
		run.DurationMs, run.Errors, run.StartedAt)
	return err
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("recommendation not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recommendationColumns = `
	id, tenant_id, client_name, status, sent_at, revived_at, archived_at,
	predicted_monthly, predicted_onetime,
	confidence_score, confidence_percent, weighted_monthly, weighted_onetime,
	last_scored_at, snoozed_until, snooze_reason, created_at, updated_at`

func scanRecommendation(row pgx.Row) (Recommendation, error) {
	var rec Recommendation
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.ClientName, &rec.Status,
		&rec.SentAt, &rec.RevivedAt, &rec.ArchivedAt,
		&rec.PredictedMonthly, &rec.PredictedOnetime,
		&rec.ConfidenceScore, &rec.ConfidencePercent, &rec.WeightedMonthly, &rec.WeightedOnetime,
		&rec.LastScoredAt, &rec.SnoozedUntil, &rec.SnoozeReason,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Recommendation{}, ErrNotFound
	}
	return rec, err
}

func (r *Repository) GetRecommendation(ctx context.Context, id uuid.UUID) (Recommendation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recommendationColumns+`
		FROM recommendations
		WHERE id = $1
	`, id)
	return scanRecommendation(row)
}

// UpdateScore writes the derived score fields. Zero rows affected means the
// caller holds a stale or deleted id, which is a bug, so it fails loudly
// rather than silently skipping.
func (r *Repository) UpdateScore(ctx context.Context, id uuid.UUID, update ScoreUpdate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE recommendations
		SET confidence_score = $2,
		    confidence_percent = $3,
		    weighted_monthly = $4,
		    weighted_onetime = $5,
		    last_scored_at = $6,
		    updated_at = now()
		WHERE id = $1
	`, id, update.ConfidenceScore, update.ConfidencePercent,
		update.WeightedMonthly, update.WeightedOnetime, update.ScoredAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("score update affected no rows for recommendation %s", id)
	}
	return nil
}

// ListStaleRecommendationIDs returns open deals whose score has never been
// computed or is older than the cutoff, oldest-stale first.
func (r *Repository) ListStaleRecommendationIDs(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM recommendations
		WHERE status IN ($1, $2)
		  AND archived_at IS NULL
		  AND (last_scored_at IS NULL OR last_scored_at < $3)
		ORDER BY last_scored_at ASC NULLS FIRST
		LIMIT $4
	`, StatusSent, StatusDeclined, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListOpenDeals returns every non-archived, non-terminal deal with the
// fields the revenue summary buckets on.
func (r *Repository) ListOpenDeals(ctx context.Context) ([]PipelineDeal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_name, status, confidence_score,
		       predicted_monthly, weighted_monthly,
		       sent_at, revived_at, snoozed_until, last_scored_at
		FROM recommendations
		WHERE status IN ($1, $2)
		  AND archived_at IS NULL
		ORDER BY weighted_monthly DESC
	`, StatusSent, StatusDeclined)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := make([]PipelineDeal, 0)
	for rows.Next() {
		var d PipelineDeal
		if err := rows.Scan(
			&d.ID, &d.ClientName, &d.Status, &d.ConfidenceScore,
			&d.PredictedMonthly, &d.WeightedMonthly,
			&d.SentAt, &d.RevivedAt, &d.SnoozedUntil, &d.LastScoredAt,
		); err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// ArchiveRecommendation stamps archived_at. Archived deals drop out of the
// pipeline summary and the scorer skips them.
func (r *Repository) ArchiveRecommendation(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE recommendations
		SET archived_at = $2, updated_at = now()
		WHERE id = $1 AND archived_at IS NULL
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReviveRecommendation clears archive/snooze state and stamps revived_at,
// which becomes the new reference point for age-based scoring.
func (r *Repository) ReviveRecommendation(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE recommendations
		SET revived_at = $2,
		    archived_at = NULL,
		    snoozed_until = NULL,
		    snooze_reason = NULL,
		    updated_at = now()
		WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SnoozeRecommendation pauses the deal's bucket assignment until the given time.
func (r *Repository) SnoozeRecommendation(ctx context.Context, id uuid.UUID, until time.Time, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE recommendations
		SET snoozed_until = $2, snooze_reason = $3, updated_at = now()
		WHERE id = $1
	`, id, until, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

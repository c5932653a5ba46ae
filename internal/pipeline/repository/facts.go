package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetCallScore returns the rep's call assessment for a recommendation,
// or nil when none has been entered yet (standard row-not-found semantics).
func (r *Repository) GetCallScore(ctx context.Context, recommendationID uuid.UUID) (*CallScore, error) {
	var score CallScore
	err := r.pool.QueryRow(ctx, `
		SELECT recommendation_id, budget_clarity, competition, engagement, plan_fit,
		       updated_by, created_at, updated_at
		FROM call_scores
		WHERE recommendation_id = $1
	`, recommendationID).Scan(
		&score.RecommendationID, &score.BudgetClarity, &score.Competition,
		&score.Engagement, &score.PlanFit, &score.UpdatedBy,
		&score.CreatedAt, &score.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}

// UpsertCallScore creates or replaces the rep's assessment. Call scores are
// entered by reps only, never auto-generated.
func (r *Repository) UpsertCallScore(ctx context.Context, score CallScore) (CallScore, error) {
	var saved CallScore
	err := r.pool.QueryRow(ctx, `
		INSERT INTO call_scores (recommendation_id, budget_clarity, competition, engagement, plan_fit, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (recommendation_id) DO UPDATE
		SET budget_clarity = EXCLUDED.budget_clarity,
		    competition = EXCLUDED.competition,
		    engagement = EXCLUDED.engagement,
		    plan_fit = EXCLUDED.plan_fit,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = now()
		RETURNING recommendation_id, budget_clarity, competition, engagement, plan_fit,
		          updated_by, created_at, updated_at
	`, score.RecommendationID, score.BudgetClarity, score.Competition,
		score.Engagement, score.PlanFit, score.UpdatedBy).Scan(
		&saved.RecommendationID, &saved.BudgetClarity, &saved.Competition,
		&saved.Engagement, &saved.PlanFit, &saved.UpdatedBy,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	return saved, err
}

// ListInvites returns all invites for a recommendation.
func (r *Repository) ListInvites(ctx context.Context, recommendationID uuid.UUID) ([]Invite, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recommendation_id, email, token,
		       email_opened_at, viewed_at, account_created_at, created_at
		FROM invites
		WHERE recommendation_id = $1
		ORDER BY created_at ASC
	`, recommendationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invites := make([]Invite, 0)
	for rows.Next() {
		var inv Invite
		if err := rows.Scan(
			&inv.ID, &inv.RecommendationID, &inv.Email, &inv.Token,
			&inv.EmailOpenedAt, &inv.ViewedAt, &inv.AccountCreatedAt, &inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// StampInviteOpened records the first email open for the invite with the
// given token. First write wins; later opens are no-ops. Returns the
// recommendation the invite belongs to, or ErrNotFound for unknown tokens.
func (r *Repository) StampInviteOpened(ctx context.Context, token string, at time.Time) (uuid.UUID, error) {
	return r.stampInvite(ctx, token, "email_opened_at", at)
}

// StampInviteViewed records the first proposal view for the invite.
func (r *Repository) StampInviteViewed(ctx context.Context, token string, at time.Time) (uuid.UUID, error) {
	return r.stampInvite(ctx, token, "viewed_at", at)
}

// StampInviteRegistered records account creation through the invite.
func (r *Repository) StampInviteRegistered(ctx context.Context, token string, at time.Time) (uuid.UUID, error) {
	return r.stampInvite(ctx, token, "account_created_at", at)
}

func (r *Repository) stampInvite(ctx context.Context, token, column string, at time.Time) (uuid.UUID, error) {
	// column comes from the three callers above, never from user input.
	var recommendationID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		UPDATE invites
		SET `+column+` = COALESCE(`+column+`, $2)
		WHERE token = $1
		RETURNING recommendation_id
	`, token, at).Scan(&recommendationID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrNotFound
	}
	return recommendationID, err
}

// AddCommunication logs a contact with the prospect.
func (r *Repository) AddCommunication(ctx context.Context, comm Communication) (Communication, error) {
	var saved Communication
	err := r.pool.QueryRow(ctx, `
		INSERT INTO communications (recommendation_id, direction, channel, note, contact_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, recommendation_id, direction, channel, note, contact_at, created_at
	`, comm.RecommendationID, comm.Direction, comm.Channel, comm.Note, comm.ContactAt).Scan(
		&saved.ID, &saved.RecommendationID, &saved.Direction,
		&saved.Channel, &saved.Note, &saved.ContactAt, &saved.CreatedAt,
	)
	return saved, err
}

// LatestInboundContactAt returns the most recent inbound contact time,
// used as the silence-penalty anchor. Nil when the prospect has never
// written back.
func (r *Repository) LatestInboundContactAt(ctx context.Context, recommendationID uuid.UUID) (*time.Time, error) {
	var contactAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT contact_at
		FROM communications
		WHERE recommendation_id = $1 AND direction = 'inbound'
		ORDER BY contact_at DESC
		LIMIT 1
	`, recommendationID).Scan(&contactAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contactAt, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals a missing client row.
var ErrNotFound = errors.New("client not found")

// Repository is the pgx-backed performance store.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `
	id, tenant_id, name, plan_type, growth_stage, start_date,
	improvements_total, performance_score, score_updated_at,
	created_at, updated_at`

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Name, &c.PlanType, &c.GrowthStage, &c.StartDate,
		&c.ImprovementsTotal, &c.PerformanceScore, &c.ScoreUpdatedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client, err := scanClient(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrNotFound
	}
	if err != nil {
		return Client{}, fmt.Errorf("get client: %w", err)
	}
	return client, nil
}

// ListOnboardedClients returns every client past the prospect stage, for the
// performance dashboard.
func (r *Repository) ListOnboardedClients(ctx context.Context) ([]Client, error) {
	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE growth_stage <> $1
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query, StageProspect)
	if err != nil {
		return nil, fmt.Errorf("list onboarded clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// ListMetricPairs returns the latest current/previous snapshot per metric.
func (r *Repository) ListMetricPairs(ctx context.Context, clientID uuid.UUID) ([]MetricPair, error) {
	query := `SELECT client_id, metric, current_value, previous_value, lower_is_better, captured_at
		FROM client_metrics
		WHERE client_id = $1
		ORDER BY metric ASC`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list metric pairs: %w", err)
	}
	defer rows.Close()

	var pairs []MetricPair
	for rows.Next() {
		var p MetricPair
		if err := rows.Scan(&p.ClientID, &p.Metric, &p.Current, &p.Previous, &p.LowerIsBetter, &p.CapturedAt); err != nil {
			return nil, fmt.Errorf("scan metric pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (r *Repository) ListAlerts(ctx context.Context, clientID uuid.UUID) ([]Alert, error) {
	query := `SELECT client_id, type, count, created_at
		FROM client_alerts
		WHERE client_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ClientID, &a.Type, &a.Count, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// UpdateScoreCache writes the computed score and stage back onto the client.
// Callers decide whether the stage may change; an empty stage leaves the
// stored value untouched.
func (r *Repository) UpdateScoreCache(ctx context.Context, clientID uuid.UUID, cache ScoreCache) error {
	query := `UPDATE clients
		SET performance_score = $2,
		    score_updated_at = $3,
		    growth_stage = COALESCE(NULLIF($4, ''), growth_stage),
		    updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, clientID, cache.PerformanceScore, cache.ScoredAt, cache.GrowthStage)
	if err != nil {
		return fmt.Errorf("update score cache: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("score cache update affected no rows for client %s", clientID)
	}
	return nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
)

// GetScoringConfig loads the scoring configuration row. Returns nil when no
// row exists, in which case the scorer falls back to its hardcoded defaults.
// The config is intentionally not cached so admin edits apply on the next
// scoring run.
func (r *Repository) GetScoringConfig(ctx context.Context) (*ScoringConfig, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT config
		FROM scoring_config
		WHERE id = 1
	`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg ScoringConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UpsertScoringConfig replaces the scoring configuration.
func (r *Repository) UpsertScoringConfig(ctx context.Context, cfg ScoringConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO scoring_config (id, config)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE
		SET config = EXCLUDED.config, updated_at = now()
	`, raw)
	return err
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// FactReader provides read-only access to the facts the scorer consumes.
// The scoring engine never mutates the facts it scores.
type FactReader interface {
	GetRecommendation(ctx context.Context, id uuid.UUID) (Recommendation, error)
	GetCallScore(ctx context.Context, recommendationID uuid.UUID) (*CallScore, error)
	ListInvites(ctx context.Context, recommendationID uuid.UUID) ([]Invite, error)
	LatestInboundContactAt(ctx context.Context, recommendationID uuid.UUID) (*time.Time, error)
}

// ScoreWriter persists derived score fields and the audit trail.
type ScoreWriter interface {
	UpdateScore(ctx context.Context, id uuid.UUID, update ScoreUpdate) error
	AppendScoreHistory(ctx context.Context, recommendationID uuid.UUID, confidenceScore int, triggerSource string, breakdown []byte) error
}

// ConfigReader loads the scoring configuration. A nil config means no row
// exists and the caller falls back to hardcoded defaults.
type ConfigReader interface {
	GetScoringConfig(ctx context.Context) (*ScoringConfig, error)
}

// ConfigWriter lets admins edit the scoring configuration.
type ConfigWriter interface {
	UpsertScoringConfig(ctx context.Context, cfg ScoringConfig) error
}

// StaleDealLister selects deals due for the daily sweep.
type StaleDealLister interface {
	ListStaleRecommendationIDs(ctx context.Context, olderThan time.Time, limit int) ([]uuid.UUID, error)
}

// EventQueue stores queued recalculation requests from immediate triggers.
type EventQueue interface {
	EnqueueScoreEvent(ctx context.Context, recommendationID uuid.UUID, triggerSource string) (int64, error)
	MarkScoreEventProcessed(ctx context.Context, eventID int64) error
	ListPendingScoreEvents(ctx context.Context, queuedBefore time.Time, limit int) ([]ScoreEvent, error)
}

// RunLogger records batch sweep audit rows.
type RunLogger interface {
	RecordScoringRun(ctx context.Context, run ScoringRun) error
}

// HistoryReader reads the append-only score history for a deal.
type HistoryReader interface {
	ListScoreHistory(ctx context.Context, recommendationID uuid.UUID, limit int) ([]ScoreHistory, error)
}

// DealLifecycle covers rep-facing mutations outside the scoring engine.
type DealLifecycle interface {
	UpsertCallScore(ctx context.Context, score CallScore) (CallScore, error)
	ArchiveRecommendation(ctx context.Context, id uuid.UUID, at time.Time) error
	ReviveRecommendation(ctx context.Context, id uuid.UUID, at time.Time) error
	SnoozeRecommendation(ctx context.Context, id uuid.UUID, until time.Time, reason string) error
	AddCommunication(ctx context.Context, comm Communication) (Communication, error)
}

// PipelineReader provides the projection the revenue summary aggregates.
type PipelineReader interface {
	ListOpenDeals(ctx context.Context) ([]PipelineDeal, error)
}

// ScoringStore is everything the recalculation service needs.
type ScoringStore interface {
	FactReader
	ScoreWriter
	ConfigReader
}

// BatchStore is everything the batch sweeps need.
type BatchStore interface {
	StaleDealLister
	EventQueue
	RunLogger
}

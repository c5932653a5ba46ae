package repository

import (
	"context"

	"github.com/google/uuid"
)

// ClientReader loads clients for scoring and dashboards.
type ClientReader interface {
	GetClient(ctx context.Context, id uuid.UUID) (Client, error)
	ListOnboardedClients(ctx context.Context) ([]Client, error)
}

// MetricReader loads the fact rows the performance scorer consumes. The
// scorer never mutates them.
type MetricReader interface {
	ListMetricPairs(ctx context.Context, clientID uuid.UUID) ([]MetricPair, error)
	ListAlerts(ctx context.Context, clientID uuid.UUID) ([]Alert, error)
}

// CacheWriter persists the computed score back onto the client row.
type CacheWriter interface {
	UpdateScoreCache(ctx context.Context, clientID uuid.UUID, cache ScoreCache) error
}

// Store is everything the performance service needs.
type Store interface {
	ClientReader
	MetricReader
	CacheWriter
}

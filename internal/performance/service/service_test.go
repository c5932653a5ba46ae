package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agency_portal_backend/internal/performance/repository"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	clients map[uuid.UUID]repository.Client
	metrics map[uuid.UUID][]repository.MetricPair
	alerts  map[uuid.UUID][]repository.Alert

	cacheWrites map[uuid.UUID]repository.ScoreCache
	metricsErr  error
	cacheErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:     make(map[uuid.UUID]repository.Client),
		metrics:     make(map[uuid.UUID][]repository.MetricPair),
		alerts:      make(map[uuid.UUID][]repository.Alert),
		cacheWrites: make(map[uuid.UUID]repository.ScoreCache),
	}
}

func (f *fakeStore) GetClient(_ context.Context, id uuid.UUID) (repository.Client, error) {
	client, ok := f.clients[id]
	if !ok {
		return repository.Client{}, repository.ErrNotFound
	}
	return client, nil
}

func (f *fakeStore) ListOnboardedClients(context.Context) ([]repository.Client, error) {
	var out []repository.Client
	for _, client := range f.clients {
		if client.GrowthStage != repository.StageProspect {
			out = append(out, client)
		}
	}
	return out, nil
}

func (f *fakeStore) ListMetricPairs(_ context.Context, id uuid.UUID) ([]repository.MetricPair, error) {
	if f.metricsErr != nil {
		return nil, f.metricsErr
	}
	return f.metrics[id], nil
}

func (f *fakeStore) ListAlerts(_ context.Context, id uuid.UUID) ([]repository.Alert, error) {
	return f.alerts[id], nil
}

func (f *fakeStore) UpdateScoreCache(_ context.Context, id uuid.UUID, cache repository.ScoreCache) error {
	if f.cacheErr != nil {
		return f.cacheErr
	}
	f.cacheWrites[id] = cache
	return nil
}

func intPtr(v int) *int              { return &v }
func timePtr(t time.Time) *time.Time { return &t }

func seedClient(store *fakeStore, stage string, ageDays int, now time.Time) uuid.UUID {
	id := uuid.New()
	start := now.Add(-time.Duration(ageDays) * 24 * time.Hour)
	store.clients[id] = repository.Client{
		ID:          id,
		Name:        "Acme Dental",
		PlanType:    "full_service",
		GrowthStage: stage,
		StartDate:   &start,
	}
	store.metrics[id] = []repository.MetricPair{
		{ClientID: id, Metric: repository.MetricLeads, Current: 20, Previous: 10},
	}
	return id
}

func newTestService(store *fakeStore, now time.Time) *Service {
	svc := NewService(store, logger.New("test"))
	svc.now = func() time.Time { return now }
	return svc
}

func TestGetServesFreshCacheWithoutRecompute(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedClient(store, repository.StageBlooming, 200, now)

	client := store.clients[id]
	client.PerformanceScore = intPtr(72)
	client.ScoreUpdatedAt = timePtr(now.Add(-30 * time.Minute))
	store.clients[id] = client

	// A metrics failure would surface if the service recomputed.
	store.metricsErr = errors.New("must not be called")

	svc := newTestService(store, now)
	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.FromCache {
		t.Fatal("expected the cached score to be served")
	}
	if got.Score != 72 {
		t.Fatalf("expected cached score 72, got %d", got.Score)
	}
	if got.Label != "Strong Performer" {
		t.Fatalf("expected blooming label rebuilt from cache, got %q", got.Label)
	}
	if len(store.cacheWrites) != 0 {
		t.Fatal("cache hit must not write the cache")
	}
}

func TestGetRecomputesStaleCache(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedClient(store, repository.StageBlooming, 200, now)

	client := store.clients[id]
	client.PerformanceScore = intPtr(72)
	client.ScoreUpdatedAt = timePtr(now.Add(-2 * time.Hour))
	client.ImprovementsTotal = 7
	store.clients[id] = client

	svc := newTestService(store, now)
	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FromCache {
		t.Fatal("stale cache must be recomputed")
	}
	// Leads doubled, sole metric: base 100, on-pace modifier 1.0.
	if got.Score != 100 {
		t.Fatalf("expected recomputed score 100, got %d", got.Score)
	}

	cache, ok := store.cacheWrites[id]
	if !ok {
		t.Fatal("recompute must refresh the cache")
	}
	if cache.PerformanceScore != 100 || cache.GrowthStage != repository.StageBlooming {
		t.Fatalf("unexpected cache write: %+v", cache)
	}
	if !cache.ScoredAt.Equal(now) {
		t.Fatalf("expected scored_at %v, got %v", now, cache.ScoredAt)
	}
}

func TestGetMissingClient(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(newFakeStore(), now)

	got, err := svc.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("missing client must not be an error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing client, got %+v", got)
	}
}

func TestGetProspectKeepsStage(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedClient(store, repository.StageProspect, 200, now)

	svc := newTestService(store, now)
	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.GrowthStage != repository.StageProspect {
		t.Fatalf("prospect stage must survive scoring, got %q", got.GrowthStage)
	}

	// The cache write must not flip the stored stage either.
	cache := store.cacheWrites[id]
	if cache.GrowthStage != "" {
		t.Fatalf("prospect cache write must leave growth_stage alone, got %q", cache.GrowthStage)
	}
}

func TestGetServesResultWhenCacheWriteFails(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedClient(store, repository.StageSeedling, 30, now)
	store.cacheErr = errors.New("connection reset")

	svc := newTestService(store, now)
	got, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("cache write failure must not fail the read: %v", err)
	}
	if got == nil || got.Score == 0 {
		t.Fatalf("expected a computed result, got %+v", got)
	}
}

func TestDashboardSkipsBrokenClients(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()

	// One client with a fresh cache survives even though metric loads fail.
	cached := seedClient(store, repository.StageBlooming, 200, now)
	client := store.clients[cached]
	client.PerformanceScore = intPtr(64)
	client.ScoreUpdatedAt = timePtr(now.Add(-10 * time.Minute))
	store.clients[cached] = client

	seedClient(store, repository.StageSeedling, 30, now)
	store.metricsErr = errors.New("connection reset")

	svc := newTestService(store, now)
	got, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the cached client to survive, got %d", len(got))
	}
	if !got[0].FromCache || got[0].Score != 64 {
		t.Fatalf("unexpected dashboard entry: %+v", got[0])
	}
}

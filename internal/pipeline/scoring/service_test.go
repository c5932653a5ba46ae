package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeStore is an in-memory Store/BatchStore for service and batch tests.
type fakeStore struct {
	mu sync.Mutex

	recommendations map[uuid.UUID]repository.Recommendation
	callScores      map[uuid.UUID]*repository.CallScore
	invites         map[uuid.UUID][]repository.Invite
	lastInbound     map[uuid.UUID]*time.Time
	config          *repository.ScoringConfig

	updates   map[uuid.UUID]repository.ScoreUpdate
	history   []repository.ScoreHistory
	events    []repository.ScoreEvent
	runs      []repository.ScoringRun
	staleIDs  []uuid.UUID
	nextEvent int64

	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		recommendations: make(map[uuid.UUID]repository.Recommendation),
		callScores:      make(map[uuid.UUID]*repository.CallScore),
		invites:         make(map[uuid.UUID][]repository.Invite),
		lastInbound:     make(map[uuid.UUID]*time.Time),
		updates:         make(map[uuid.UUID]repository.ScoreUpdate),
	}
}

func (f *fakeStore) GetRecommendation(_ context.Context, id uuid.UUID) (repository.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recommendations[id]
	if !ok {
		return repository.Recommendation{}, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) GetCallScore(_ context.Context, id uuid.UUID) (*repository.CallScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callScores[id], nil
}

func (f *fakeStore) ListInvites(_ context.Context, id uuid.UUID) ([]repository.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.invites[id], nil
}

func (f *fakeStore) LatestInboundContactAt(_ context.Context, id uuid.UUID) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastInbound[id], nil
}

func (f *fakeStore) UpdateScore(_ context.Context, id uuid.UUID, update repository.ScoreUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates[id] = update
	return nil
}

func (f *fakeStore) AppendScoreHistory(_ context.Context, id uuid.UUID, score int, trigger string, breakdown []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, repository.ScoreHistory{
		ID:               int64(len(f.history) + 1),
		RecommendationID: id,
		ConfidenceScore:  score,
		TriggerSource:    trigger,
		Breakdown:        breakdown,
	})
	return nil
}

func (f *fakeStore) GetScoringConfig(_ context.Context) (*repository.ScoringConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config, nil
}

func (f *fakeStore) EnqueueScoreEvent(_ context.Context, id uuid.UUID, trigger string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextEvent++
	f.events = append(f.events, repository.ScoreEvent{
		ID:               f.nextEvent,
		RecommendationID: id,
		TriggerSource:    trigger,
	})
	return f.nextEvent, nil
}

func (f *fakeStore) MarkScoreEventProcessed(_ context.Context, eventID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ID == eventID {
			now := time.Now()
			f.events[i].ProcessedAt = &now
			return nil
		}
	}
	return errors.New("event not found")
}

func (f *fakeStore) ListPendingScoreEvents(_ context.Context, _ time.Time, limit int) ([]repository.ScoreEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pending []repository.ScoreEvent
	for _, ev := range f.events {
		if ev.ProcessedAt == nil && len(pending) < limit {
			pending = append(pending, ev)
		}
	}
	return pending, nil
}

func (f *fakeStore) ListStaleRecommendationIDs(_ context.Context, _ time.Time, limit int) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.staleIDs) > limit {
		return f.staleIDs[:limit], nil
	}
	return f.staleIDs, nil
}

func (f *fakeStore) RecordScoringRun(_ context.Context, run repository.ScoringRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) historyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}

func (f *fakeStore) pendingEventCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, ev := range f.events {
		if ev.ProcessedAt == nil {
			count++
		}
	}
	return count
}

func testLogger() *logger.Logger {
	return logger.New("test")
}

func seedDeal(store *fakeStore, status string, sentAgo time.Duration, now time.Time) uuid.UUID {
	id := uuid.New()
	sent := now.Add(-sentAgo)
	store.recommendations[id] = repository.Recommendation{
		ID:               id,
		ClientName:       "Acme Dental",
		Status:           status,
		SentAt:           &sent,
		PredictedMonthly: 1200,
	}
	return id
}

func TestRecalculateScorePersistsScoreAndHistory(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedDeal(store, repository.StatusSent, time.Hour, now)
	store.callScores[id] = &repository.CallScore{
		RecommendationID: id,
		BudgetClarity:    "clear",
		Competition:      "none",
		Engagement:       "high",
		PlanFit:          "strong",
	}

	svc := NewService(store, nil, testLogger())
	svc.now = func() time.Time { return now }

	result, err := svc.RecalculateScore(context.Background(), id, TriggerManualRefresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result, got skip")
	}
	if result.ConfidenceScore != 100 {
		t.Fatalf("expected score 100, got %d", result.ConfidenceScore)
	}

	update, ok := store.updates[id]
	if !ok {
		t.Fatal("expected a persisted score update")
	}
	if update.ConfidenceScore != 100 || update.WeightedMonthly != 1200 {
		t.Fatalf("unexpected persisted update: %+v", update)
	}
	if !update.ScoredAt.Equal(now) {
		t.Fatalf("expected scored_at %v, got %v", now, update.ScoredAt)
	}

	if len(store.history) != 1 {
		t.Fatalf("expected one history row, got %d", len(store.history))
	}
	row := store.history[0]
	if row.TriggerSource != "manual_refresh" {
		t.Fatalf("expected trigger manual_refresh, got %q", row.TriggerSource)
	}

	var breakdown map[string]any
	if err := json.Unmarshal(row.Breakdown, &breakdown); err != nil {
		t.Fatalf("breakdown is not valid JSON: %v", err)
	}
	for _, key := range []string{"confidence_score", "base_score", "total_penalties", "penalty_breakdown"} {
		if _, ok := breakdown[key]; !ok {
			t.Errorf("breakdown missing key %q", key)
		}
	}
}

func TestRecalculateScoreSkipsUnscorableDeals(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		seed func(store *fakeStore) uuid.UUID
	}{
		{"missing", func(store *fakeStore) uuid.UUID {
			return uuid.New()
		}},
		{"accepted", func(store *fakeStore) uuid.UUID {
			return seedDeal(store, repository.StatusAccepted, time.Hour, now)
		}},
		{"closed lost", func(store *fakeStore) uuid.UUID {
			return seedDeal(store, repository.StatusClosedLost, time.Hour, now)
		}},
		{"archived", func(store *fakeStore) uuid.UUID {
			id := seedDeal(store, repository.StatusSent, time.Hour, now)
			rec := store.recommendations[id]
			archived := now.Add(-time.Minute)
			rec.ArchivedAt = &archived
			store.recommendations[id] = rec
			return id
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeStore()
			id := tc.seed(store)

			svc := NewService(store, nil, testLogger())
			svc.now = func() time.Time { return now }

			result, err := svc.RecalculateScore(context.Background(), id, TriggerDailyCron)
			if err != nil {
				t.Fatalf("skip must not be an error, got %v", err)
			}
			if result != nil {
				t.Fatalf("expected skip, got result %+v", result)
			}
			if len(store.updates) != 0 {
				t.Fatal("skip must not write a score update")
			}
			if store.historyCount() != 0 {
				t.Fatal("skip must not write a history row")
			}
		})
	}
}

func TestRecalculateScorePropagatesPersistFailure(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedDeal(store, repository.StatusSent, time.Hour, now)
	store.updateErr = errors.New("connection reset")

	svc := NewService(store, nil, testLogger())
	svc.now = func() time.Time { return now }

	result, err := svc.RecalculateScore(context.Background(), id, TriggerDailyCron)
	if err == nil {
		t.Fatal("expected persistence failure to propagate")
	}
	if result != nil {
		t.Fatalf("expected nil result on failure, got %+v", result)
	}
	if store.historyCount() != 0 {
		t.Fatal("failed update must not leave a history row")
	}
}

func TestRecalculateScoreUsesStoredConfig(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedDeal(store, repository.StatusSent, time.Hour, now)
	store.config = &repository.ScoringConfig{DefaultBaseScore: 30}

	svc := NewService(store, nil, testLogger())
	svc.now = func() time.Time { return now }

	result, err := svc.RecalculateScore(context.Background(), id, TriggerDailyCron)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ConfidenceScore != 30 {
		t.Fatalf("expected stored default base 30, got %d", result.ConfidenceScore)
	}
}

func TestRecalculateScoreNormalizesUnknownTrigger(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedDeal(store, repository.StatusSent, time.Hour, now)

	svc := NewService(store, nil, testLogger())
	svc.now = func() time.Time { return now }

	if _, err := svc.RecalculateScore(context.Background(), id, "mystery_source"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.history[0].TriggerSource != "unknown" {
		t.Fatalf("expected normalized trigger unknown, got %q", store.history[0].TriggerSource)
	}
}

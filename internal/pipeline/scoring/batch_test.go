package scoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"agency_portal_backend/internal/pipeline/repository"
)

type recordingAlerter struct {
	mu       sync.Mutex
	subjects []string
}

func (a *recordingAlerter) Alert(_ context.Context, subject, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subjects = append(a.subjects, subject)
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subjects)
}

func newTestBatch(store *fakeStore) *Batch {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	svc := NewService(store, nil, testLogger())
	svc.now = func() time.Time { return now }
	return NewBatch(svc, store, nil, testLogger())
}

func TestRecalculateStaleScoresCountsAddUp(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()

	// 3 scorable, 2 terminal (skips), 1 unknown id (skip).
	for range 3 {
		store.staleIDs = append(store.staleIDs, seedDeal(store, repository.StatusSent, 48*time.Hour, now))
	}
	for range 2 {
		store.staleIDs = append(store.staleIDs, seedDeal(store, repository.StatusAccepted, 48*time.Hour, now))
	}
	store.staleIDs = append(store.staleIDs, seedDeal(store, repository.StatusSent, 48*time.Hour, now))
	missing := store.staleIDs[5]
	delete(store.recommendations, missing)

	batch := newTestBatch(store)
	result, err := batch.RecalculateStaleScores(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RunType != RunTypeDailyCron {
		t.Fatalf("expected run type %q, got %q", RunTypeDailyCron, result.RunType)
	}
	if result.Processed != 6 {
		t.Fatalf("expected 6 processed, got %d", result.Processed)
	}
	if result.Succeeded != 3 || result.Skipped != 3 || result.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Processed != result.Succeeded+result.Failed+result.Skipped {
		t.Fatalf("counts do not add up: %+v", result)
	}

	if len(store.runs) != 1 {
		t.Fatalf("expected one audit row, got %d", len(store.runs))
	}
	if store.runs[0].RunType != RunTypeDailyCron || store.runs[0].Processed != 6 {
		t.Fatalf("unexpected audit row: %+v", store.runs[0])
	}
}

func TestRecalculateStaleScoresEmptySweep(t *testing.T) {
	store := newFakeStore()
	batch := newTestBatch(store)

	result, err := batch.RecalculateStaleScores(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 0 {
		t.Fatalf("expected empty sweep, got %+v", result)
	}
	if result.ErrorRate() != 0 {
		t.Fatalf("error rate of empty sweep must be 0, got %v", result.ErrorRate())
	}
}

func TestBatchFailuresAreCapturedNotFatal(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	for range 4 {
		store.staleIDs = append(store.staleIDs, seedDeal(store, repository.StatusSent, 48*time.Hour, now))
	}
	store.updateErr = errTestPersist

	batch := newTestBatch(store)
	result, err := batch.RecalculateStaleScores(context.Background())
	if err != nil {
		t.Fatalf("item failures must not fail the sweep: %v", err)
	}

	if result.Failed != 4 || result.Succeeded != 0 {
		t.Fatalf("expected all items failed: %+v", result)
	}
	if len(result.Errors) != 4 {
		t.Fatalf("expected 4 captured errors, got %d", len(result.Errors))
	}
	for _, itemErr := range result.Errors {
		if itemErr.Message == "" {
			t.Fatal("captured error has no message")
		}
	}
	if len(store.runs) != 1 || len(store.runs[0].Errors) == 0 {
		t.Fatal("expected audit row with serialized errors")
	}
}

var errTestPersist = errInjected("persist failed")

type errInjected string

func (e errInjected) Error() string { return string(e) }

func TestBatchAlertsWhenFailureRateExceedsThreshold(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	for range 3 {
		store.staleIDs = append(store.staleIDs, seedDeal(store, repository.StatusSent, 48*time.Hour, now))
	}
	store.updateErr = errTestPersist

	alerter := &recordingAlerter{}
	svc := NewService(store, nil, testLogger())
	svc.now = func() time.Time { return now }
	batch := NewBatch(svc, store, alerter, testLogger())

	if _, err := batch.RecalculateStaleScores(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if alerter.count() != 1 {
		t.Fatalf("expected one alert at 100%% failure rate, got %d", alerter.count())
	}
}

func TestBatchNoAlertAtHalfFailureRate(t *testing.T) {
	// Exactly 50% failed must not alert: the threshold is strictly above.
	result := BatchResult{Processed: 4, Succeeded: 2, Failed: 2}
	if result.ErrorRate() > alertFailureRate {
		t.Fatalf("50%% failure rate must not cross the threshold, got %v", result.ErrorRate())
	}
}

func TestProcessEventQueueAcksSuccessAndSkip(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()

	scorable := seedDeal(store, repository.StatusSent, 48*time.Hour, now)
	terminal := seedDeal(store, repository.StatusAccepted, 48*time.Hour, now)

	ctx := context.Background()
	if _, err := store.EnqueueScoreEvent(ctx, scorable, "email_opened"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := store.EnqueueScoreEvent(ctx, terminal, "proposal_viewed"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	batch := newTestBatch(store)
	result, err := batch.ProcessEventQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.RunType != RunTypeEventQueue {
		t.Fatalf("expected run type %q, got %q", RunTypeEventQueue, result.RunType)
	}
	if result.Succeeded != 1 || result.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	// A skipped terminal deal still settles its queued event.
	if store.pendingEventCount() != 0 {
		t.Fatalf("expected queue drained, %d events still pending", store.pendingEventCount())
	}

	if store.history[0].TriggerSource != "email_opened" {
		t.Fatalf("expected event trigger carried through, got %q", store.history[0].TriggerSource)
	}
}

func TestProcessEventQueueLeavesFailedEventsPending(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	id := seedDeal(store, repository.StatusSent, 48*time.Hour, now)

	ctx := context.Background()
	if _, err := store.EnqueueScoreEvent(ctx, id, "email_opened"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	store.updateErr = errTestPersist

	batch := newTestBatch(store)
	result, err := batch.ProcessEventQueue(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("expected one failure, got %+v", result)
	}
	if store.pendingEventCount() != 1 {
		t.Fatal("failed event must stay pending for the next sweep")
	}
}

package scoring

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// RunTypeDailyCron tags the stale-score sweep in the scoring-run log.
	RunTypeDailyCron = "daily_cron"
	// RunTypeEventQueue tags the queued-event sweep.
	RunTypeEventQueue = "event_queue"

	// batchSize bounds concurrent load on the store within one chunk.
	batchSize = 25
	// interBatchDelay is a throttling device between chunks, not a
	// correctness requirement: every item is independent and idempotent.
	interBatchDelay = 200 * time.Millisecond

	// staleAfter selects deals not scored within this window. Slightly
	// under 24h so a daily sweep never skips a deal scored by yesterday's
	// run a few minutes earlier.
	staleAfter = 23 * time.Hour

	// maxCapturedErrors caps the error list persisted per run.
	maxCapturedErrors = 50

	// eventSettleDelay keeps the queue sweep from racing fire-and-forget
	// work that is still in flight.
	eventSettleDelay = 2 * time.Minute

	// alertFailureRate is the failed/processed ratio above which a sweep
	// raises an operational alert.
	alertFailureRate = 0.5
)

// ItemError records one failed recalculation within a batch.
type ItemError struct {
	RecommendationID uuid.UUID `json:"recommendation_id"`
	Message          string    `json:"message"`
}

// BatchResult summarizes one sweep. processed = succeeded + failed + skipped
// always holds.
type BatchResult struct {
	RunType    string      `json:"run_type"`
	Processed  int         `json:"processed"`
	Succeeded  int         `json:"succeeded"`
	Failed     int         `json:"failed"`
	Skipped    int         `json:"skipped"`
	DurationMs int64       `json:"duration_ms"`
	Errors     []ItemError `json:"errors,omitempty"`
}

// ErrorRate returns failed/processed, with zero processed treated as 0.
func (r BatchResult) ErrorRate() float64 {
	if r.Processed == 0 {
		return 0
	}
	return float64(r.Failed) / float64(r.Processed)
}

// Alerter raises operational alerts. Implementations must be best effort.
type Alerter interface {
	Alert(ctx context.Context, subject, body string)
}

// Batch runs the scheduled sweeps over the scoring service.
type Batch struct {
	scorer  *Service
	store   repository.BatchStore
	alerter Alerter
	log     *logger.Logger
	now     func() time.Time
}

// NewBatch creates the batch runner. alerter may be nil.
func NewBatch(scorer *Service, store repository.BatchStore, alerter Alerter, log *logger.Logger) *Batch {
	return &Batch{
		scorer:  scorer,
		store:   store,
		alerter: alerter,
		log:     log,
		now:     time.Now,
	}
}

// RecalculateStaleScores sweeps every open deal whose score is missing or
// older than the staleness window, oldest-stale first.
func (b *Batch) RecalculateStaleScores(ctx context.Context) (BatchResult, error) {
	started := b.now()
	cutoff := started.Add(-staleAfter)

	ids, err := b.store.ListStaleRecommendationIDs(ctx, cutoff, 10000)
	if err != nil {
		return BatchResult{RunType: RunTypeDailyCron}, err
	}

	items := make([]sweepItem, len(ids))
	for i, id := range ids {
		items[i] = sweepItem{recommendationID: id, trigger: TriggerDailyCron}
	}

	result := b.run(ctx, RunTypeDailyCron, started, items)
	b.finishRun(ctx, started, result)
	return result, nil
}

// ProcessEventQueue drains queued recalculation requests whose immediate
// fire-and-forget processing never completed.
func (b *Batch) ProcessEventQueue(ctx context.Context) (BatchResult, error) {
	started := b.now()
	settledBefore := started.Add(-eventSettleDelay)

	events, err := b.store.ListPendingScoreEvents(ctx, settledBefore, 10000)
	if err != nil {
		return BatchResult{RunType: RunTypeEventQueue}, err
	}

	items := make([]sweepItem, len(events))
	for i, ev := range events {
		items[i] = sweepItem{
			recommendationID: ev.RecommendationID,
			trigger:          Trigger(ev.TriggerSource).Normalize(),
			eventID:          ev.ID,
		}
	}

	result := b.run(ctx, RunTypeEventQueue, started, items)
	b.finishRun(ctx, started, result)
	return result, nil
}

type sweepItem struct {
	recommendationID uuid.UUID
	trigger          Trigger
	eventID          int64 // zero for the stale sweep
}

// run processes items in fixed-size chunks. Items within a chunk run
// concurrently; chunks are separated by a short pause.
func (b *Batch) run(ctx context.Context, runType string, started time.Time, items []sweepItem) BatchResult {
	result := BatchResult{RunType: runType}

	var mu sync.Mutex
	for offset := 0; offset < len(items); offset += batchSize {
		end := offset + batchSize
		if end > len(items) {
			end = len(items)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, item := range items[offset:end] {
			group.Go(func() error {
				outcome, itemErr := b.processItem(groupCtx, item)

				mu.Lock()
				defer mu.Unlock()
				result.Processed++
				switch outcome {
				case outcomeSucceeded:
					result.Succeeded++
				case outcomeSkipped:
					result.Skipped++
				case outcomeFailed:
					result.Failed++
					if len(result.Errors) < maxCapturedErrors {
						result.Errors = append(result.Errors, ItemError{
							RecommendationID: item.recommendationID,
							Message:          itemErr.Error(),
						})
					}
				}
				// Item failures never abort the batch.
				return nil
			})
		}
		_ = group.Wait()

		if end < len(items) {
			select {
			case <-ctx.Done():
				result.DurationMs = time.Since(started).Milliseconds()
				return result
			case <-time.After(interBatchDelay):
			}
		}
	}

	result.DurationMs = time.Since(started).Milliseconds()
	return result
}

type itemOutcome int

const (
	outcomeSucceeded itemOutcome = iota
	outcomeSkipped
	outcomeFailed
)

func (b *Batch) processItem(ctx context.Context, item sweepItem) (itemOutcome, error) {
	res, err := b.scorer.RecalculateScore(ctx, item.recommendationID, item.trigger)
	if err != nil {
		return outcomeFailed, err
	}

	if item.eventID != 0 {
		// A skip still settles the queued event: the deal is terminal or
		// gone and will never score.
		if ackErr := b.store.MarkScoreEventProcessed(ctx, item.eventID); ackErr != nil {
			b.log.Error("score event ack failed", "error", ackErr, "eventId", item.eventID)
		}
	}

	if res == nil {
		return outcomeSkipped, nil
	}
	return outcomeSucceeded, nil
}

// finishRun writes the audit row, logs the outcome, and raises an alert when
// the failure rate crosses the threshold. All best effort.
func (b *Batch) finishRun(ctx context.Context, started time.Time, result BatchResult) {
	b.log.ScoringRun(result.RunType, result.Processed, result.Succeeded,
		result.Failed, result.Skipped, result.DurationMs)

	var errorsJSON []byte
	if len(result.Errors) > 0 {
		if raw, err := json.Marshal(result.Errors); err == nil {
			errorsJSON = raw
		}
	}

	run := repository.ScoringRun{
		RunType:    result.RunType,
		Processed:  result.Processed,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		Skipped:    result.Skipped,
		DurationMs: result.DurationMs,
		Errors:     errorsJSON,
		StartedAt:  started,
	}
	if err := b.store.RecordScoringRun(ctx, run); err != nil {
		b.log.Error("scoring run audit write failed", "error", err, "runType", result.RunType)
	}

	if result.ErrorRate() > alertFailureRate && b.alerter != nil {
		b.alerter.Alert(ctx,
			"pipeline scoring sweep failure rate above threshold",
			sweepAlertBody(result))
	}
}

func sweepAlertBody(result BatchResult) string {
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result.RunType
	}
	return string(raw)
}

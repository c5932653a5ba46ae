package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/platform/apperr"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the recalculation service depends on.
type Store interface {
	repository.ScoringStore
	repository.EventQueue
}

// Result is the outcome of one successful recalculation.
type Result struct {
	RecommendationID string    `json:"recommendation_id"`
	Trigger          Trigger   `json:"trigger"`
	ScoredAt         time.Time `json:"scored_at"`
	Breakdown
}

// Service recalculates deal confidence scores. Scoring reads facts, computes
// a new score, writes the derived fields back and appends one history row.
// It never mutates the facts it scores.
type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
	now   func() time.Time

	// asyncTimeout bounds fire-and-forget recalculations so a webhook's
	// cancelled request context cannot kill in-flight scoring.
	asyncTimeout time.Duration
}

// NewService creates a scoring service. bus may be nil in tests.
func NewService(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		store:        store,
		bus:          bus,
		log:          log,
		now:          time.Now,
		asyncTimeout: 30 * time.Second,
	}
}

// RecalculateScore recomputes and persists the confidence score for one deal.
//
// It returns (nil, nil) — an intentional skip, not a failure — when the
// recommendation does not exist, sits in a terminal status (accepted,
// closed_lost), or has been archived. Persistence failures are returned to
// the caller; history logging is best effort.
func (s *Service) RecalculateScore(ctx context.Context, recommendationID uuid.UUID, trigger Trigger) (*Result, error) {
	trigger = trigger.Normalize()

	rec, err := s.store.GetRecommendation(ctx, recommendationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load recommendation", err).WithOp("scoring.RecalculateScore")
	}

	if rec.Status == repository.StatusAccepted || rec.Status == repository.StatusClosedLost {
		return nil, nil
	}
	if rec.ArchivedAt != nil {
		return nil, nil
	}

	// Loaded fresh per calculation so admin edits apply on the next run.
	stored, err := s.store.GetScoringConfig(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load scoring config", err).WithOp("scoring.RecalculateScore")
	}
	cfg := mergeConfig(stored)

	facts, err := s.loadFacts(ctx, rec)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	breakdown := Compute(cfg, facts, now)

	update := repository.ScoreUpdate{
		ConfidenceScore:   breakdown.ConfidenceScore,
		ConfidencePercent: breakdown.ConfidencePercent,
		WeightedMonthly:   breakdown.WeightedMonthly,
		WeightedOnetime:   breakdown.WeightedOnetime,
		ScoredAt:          now,
	}
	if err := s.store.UpdateScore(ctx, recommendationID, update); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "persist score", err).WithOp("scoring.RecalculateScore")
	}

	s.appendHistory(ctx, recommendationID, trigger, breakdown)

	if s.bus != nil {
		s.bus.Publish(ctx, events.DealScored{
			BaseEvent:        events.NewBaseEvent(),
			RecommendationID: recommendationID,
			ConfidenceScore:  breakdown.ConfidenceScore,
			TriggerSource:    trigger.String(),
		})
	}

	return &Result{
		RecommendationID: recommendationID.String(),
		Trigger:          trigger,
		ScoredAt:         now,
		Breakdown:        breakdown,
	}, nil
}

func (s *Service) loadFacts(ctx context.Context, rec repository.Recommendation) (Facts, error) {
	callScore, err := s.store.GetCallScore(ctx, rec.ID)
	if err != nil {
		return Facts{}, apperr.Wrap(apperr.KindInternal, "load call score", err).WithOp("scoring.loadFacts")
	}

	invites, err := s.store.ListInvites(ctx, rec.ID)
	if err != nil {
		return Facts{}, apperr.Wrap(apperr.KindInternal, "load invites", err).WithOp("scoring.loadFacts")
	}

	lastInbound, err := s.store.LatestInboundContactAt(ctx, rec.ID)
	if err != nil {
		return Facts{}, apperr.Wrap(apperr.KindInternal, "load communications", err).WithOp("scoring.loadFacts")
	}

	return Facts{
		CallScore:          callScore,
		Invites:            invites,
		LastInboundContact: lastInbound,
		SentAt:             rec.SentAt,
		RevivedAt:          rec.RevivedAt,
		PredictedMonthly:   rec.PredictedMonthly,
		PredictedOnetime:   rec.PredictedOnetime,
	}, nil
}

// appendHistory is best effort: a failed audit write must not undo or fail
// the score update that already happened.
func (s *Service) appendHistory(ctx context.Context, recommendationID uuid.UUID, trigger Trigger, breakdown Breakdown) {
	raw, err := json.Marshal(breakdown)
	if err != nil {
		s.log.Error("score breakdown marshal failed", "error", err, "recommendationId", recommendationID)
		return
	}
	if err := s.store.AppendScoreHistory(ctx, recommendationID, breakdown.ConfidenceScore, trigger.String(), raw); err != nil {
		s.log.Error("score history write failed", "error", err, "recommendationId", recommendationID)
	}
}

// TriggerRecalculation runs RecalculateScore in the background. It records a
// queue row first so the event-queue sweep can pick up work that never
// completed, and it never propagates failures to the caller — webhook
// handlers must not fail their own request because scoring did.
func (s *Service) TriggerRecalculation(recommendationID uuid.UUID, trigger Trigger) {
	trigger = trigger.Normalize()

	queueCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	eventID, err := s.store.EnqueueScoreEvent(queueCtx, recommendationID, trigger.String())
	cancel()
	if err != nil {
		s.log.Error("score event enqueue failed", "error", err, "recommendationId", recommendationID, "trigger", trigger)
		eventID = 0
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.asyncTimeout)
		defer cancel()

		if _, err := s.RecalculateScore(ctx, recommendationID, trigger); err != nil {
			// Left unprocessed in the queue for the sweep to retry.
			s.log.Error("background recalculation failed",
				"error", err, "recommendationId", recommendationID, "trigger", trigger)
			return
		}

		if eventID != 0 {
			if err := s.store.MarkScoreEventProcessed(ctx, eventID); err != nil {
				s.log.Error("score event ack failed", "error", err, "eventId", eventID)
			}
		}
	}()
}

// RecalculateWithRetry recalculates once and, on failure, retries a single
// time after the given delay. Used by the revive flow, where a scoring
// failure is non-fatal and must not fail the revive itself; a still-failing
// deal is left for the daily sweep.
func (s *Service) RecalculateWithRetry(ctx context.Context, recommendationID uuid.UUID, trigger Trigger, retryDelay time.Duration) {
	_, err := s.RecalculateScore(ctx, recommendationID, trigger)
	if err == nil {
		return
	}
	s.log.Warn("recalculation failed, retrying once",
		"error", err, "recommendationId", recommendationID, "trigger", trigger)

	select {
	case <-ctx.Done():
		return
	case <-time.After(retryDelay):
	}

	if _, err := s.RecalculateScore(ctx, recommendationID, trigger); err != nil {
		s.log.Error("recalculation retry failed, leaving for daily sweep",
			"error", err, "recommendationId", recommendationID, "trigger", trigger)
	}
}

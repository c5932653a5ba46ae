package deals

import (
	"context"
	"errors"
	"time"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/internal/pipeline/scoring"
	"agency_portal_backend/platform/apperr"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// reviveRetryDelay spaces the single scoring retry during a revive.
const reviveRetryDelay = 5 * time.Second

// Store is the persistence surface for rep-facing deal operations.
type Store interface {
	repository.FactReader
	repository.DealLifecycle
	repository.HistoryReader
	repository.ConfigReader
	repository.ConfigWriter
}

// Scorer is the slice of the scoring service the lifecycle flows use.
type Scorer interface {
	RecalculateScore(ctx context.Context, recommendationID uuid.UUID, trigger scoring.Trigger) (*scoring.Result, error)
	TriggerRecalculation(recommendationID uuid.UUID, trigger scoring.Trigger)
	RecalculateWithRetry(ctx context.Context, recommendationID uuid.UUID, trigger scoring.Trigger, retryDelay time.Duration)
}

// Service implements the rep-facing deal operations: call-score entry,
// lifecycle transitions, communication logging and score history reads.
// Every fact mutation nudges the scoring engine, fire-and-forget.
type Service struct {
	store  Store
	scorer Scorer
	bus    events.Bus
	log    *logger.Logger
	now    func() time.Time
}

// NewService creates the deals service. bus may be nil in tests.
func NewService(store Store, scorer Scorer, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, scorer: scorer, bus: bus, log: log, now: time.Now}
}

// GetCallScore returns the rep assessment for a deal, nil if none exists yet.
func (s *Service) GetCallScore(ctx context.Context, recommendationID uuid.UUID) (*repository.CallScore, error) {
	if _, err := s.requireRecommendation(ctx, recommendationID); err != nil {
		return nil, err
	}
	score, err := s.store.GetCallScore(ctx, recommendationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load call score", err).WithOp("deals.GetCallScore")
	}
	return score, nil
}

// UpsertCallScore saves the rep assessment and triggers a recalculation.
func (s *Service) UpsertCallScore(ctx context.Context, score repository.CallScore) (repository.CallScore, error) {
	if _, err := s.requireRecommendation(ctx, score.RecommendationID); err != nil {
		return repository.CallScore{}, err
	}

	saved, err := s.store.UpsertCallScore(ctx, score)
	if err != nil {
		return repository.CallScore{}, apperr.Wrap(apperr.KindInternal, "save call score", err).WithOp("deals.UpsertCallScore")
	}

	s.scorer.TriggerRecalculation(score.RecommendationID, scoring.TriggerCallScoreUpdated)
	return saved, nil
}

// Recalculate runs a synchronous manual refresh. Unlike the webhook paths it
// surfaces scoring errors to the caller, and reports a skip explicitly.
func (s *Service) Recalculate(ctx context.Context, recommendationID uuid.UUID) (*scoring.Result, error) {
	result, err := s.scorer.RecalculateScore(ctx, recommendationID, scoring.TriggerManualRefresh)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, apperr.New(apperr.KindNotFound, "recommendation not scorable: missing, archived or terminal")
	}
	return result, nil
}

// Archive parks a deal and fires a final recalculation so the stored score
// reflects the state at archive time.
func (s *Service) Archive(ctx context.Context, recommendationID uuid.UUID) error {
	if err := s.store.ArchiveRecommendation(ctx, recommendationID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "recommendation not found")
		}
		return apperr.Wrap(apperr.KindInternal, "archive recommendation", err).WithOp("deals.Archive")
	}

	s.scorer.TriggerRecalculation(recommendationID, scoring.TriggerDealArchived)
	if s.bus != nil {
		s.bus.Publish(ctx, events.DealArchived{
			BaseEvent:        events.NewBaseEvent(),
			RecommendationID: recommendationID,
		})
	}
	return nil
}

// Revive returns an archived deal to the pipeline: clears archived_at and any
// snooze, stamps revived_at, then rescores with one bounded retry. A scoring
// failure never fails the revive; the daily sweep will catch up.
func (s *Service) Revive(ctx context.Context, recommendationID uuid.UUID) error {
	if err := s.store.ReviveRecommendation(ctx, recommendationID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "recommendation not found")
		}
		return apperr.Wrap(apperr.KindInternal, "revive recommendation", err).WithOp("deals.Revive")
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		s.scorer.RecalculateWithRetry(ctx, recommendationID, scoring.TriggerDealRevived, reviveRetryDelay)
	}()
	if s.bus != nil {
		s.bus.Publish(ctx, events.DealRevived{
			BaseEvent:        events.NewBaseEvent(),
			RecommendationID: recommendationID,
		})
	}
	return nil
}

// Snooze puts a deal on hold until the given time.
func (s *Service) Snooze(ctx context.Context, recommendationID uuid.UUID, until time.Time, reason string) error {
	if !until.After(s.now()) {
		return apperr.New(apperr.KindValidation, "snooze time must be in the future")
	}
	if err := s.store.SnoozeRecommendation(ctx, recommendationID, until, reason); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "recommendation not found")
		}
		return apperr.Wrap(apperr.KindInternal, "snooze recommendation", err).WithOp("deals.Snooze")
	}
	return nil
}

// LogCommunication records a contact entry and triggers a recalculation; an
// inbound entry resets the silence anchor on the next run.
func (s *Service) LogCommunication(ctx context.Context, comm repository.Communication) (repository.Communication, error) {
	if _, err := s.requireRecommendation(ctx, comm.RecommendationID); err != nil {
		return repository.Communication{}, err
	}
	if comm.ContactAt.IsZero() {
		comm.ContactAt = s.now().UTC()
	}

	saved, err := s.store.AddCommunication(ctx, comm)
	if err != nil {
		return repository.Communication{}, apperr.Wrap(apperr.KindInternal, "save communication", err).WithOp("deals.LogCommunication")
	}

	s.scorer.TriggerRecalculation(comm.RecommendationID, scoring.TriggerCommunicationLogged)
	return saved, nil
}

// ScoreHistory returns the most recent history rows, newest first.
func (s *Service) ScoreHistory(ctx context.Context, recommendationID uuid.UUID, limit int) ([]repository.ScoreHistory, error) {
	if _, err := s.requireRecommendation(ctx, recommendationID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.store.ListScoreHistory(ctx, recommendationID, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load score history", err).WithOp("deals.ScoreHistory")
	}
	return rows, nil
}

// ScoringConfig returns the effective config: stored values overlaid on the
// hardcoded defaults, so admins always see the full parameter set.
func (s *Service) ScoringConfig(ctx context.Context) (repository.ScoringConfig, error) {
	stored, err := s.store.GetScoringConfig(ctx)
	if err != nil {
		return repository.ScoringConfig{}, apperr.Wrap(apperr.KindInternal, "load scoring config", err).WithOp("deals.ScoringConfig")
	}
	return scoring.Merged(stored), nil
}

// UpdateScoringConfig stores an admin edit. It takes effect on the next
// recalculation; running sweeps keep the config they loaded.
func (s *Service) UpdateScoringConfig(ctx context.Context, cfg repository.ScoringConfig) error {
	if err := scoring.ValidateConfig(cfg); err != nil {
		return err
	}
	if err := s.store.UpsertScoringConfig(ctx, cfg); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save scoring config", err).WithOp("deals.UpdateScoringConfig")
	}
	return nil
}

func (s *Service) requireRecommendation(ctx context.Context, id uuid.UUID) (repository.Recommendation, error) {
	rec, err := s.store.GetRecommendation(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Recommendation{}, apperr.New(apperr.KindNotFound, "recommendation not found")
	}
	if err != nil {
		return repository.Recommendation{}, apperr.Wrap(apperr.KindInternal, "load recommendation", err).WithOp("deals.requireRecommendation")
	}
	return rec, nil
}

package service

import (
	"context"
	"errors"
	"time"

	"agency_portal_backend/internal/performance/repository"
	"agency_portal_backend/internal/performance/scoring"
	"agency_portal_backend/platform/apperr"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// scoreCacheTTL is how long a computed score is served without recomputing.
// The cache is advisory: a concurrent duplicate recompute is tolerated, not
// locked out.
const scoreCacheTTL = time.Hour

// Performance is one client's evaluation as served to the API.
type Performance struct {
	ClientID    string    `json:"client_id"`
	ClientName  string    `json:"client_name"`
	PlanType    string    `json:"plan_type"`
	FromCache   bool      `json:"from_cache"`
	ComputedAt  time.Time `json:"computed_at"`
	scoring.Result
}

// Service orchestrates performance scoring with the one-hour read-through
// cache on the client row.
type Service struct {
	store repository.Store
	log   *logger.Logger
	now   func() time.Time
}

func NewService(store repository.Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Get returns the client's performance, serving the cached score when it is
// fresh and recomputing otherwise. Returns (nil, nil) when the client does
// not exist.
func (s *Service) Get(ctx context.Context, clientID uuid.UUID) (*Performance, error) {
	client, err := s.store.GetClient(ctx, clientID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load client", err).WithOp("performance.Get")
	}

	now := s.now().UTC()
	if cached := s.fromCache(client, now); cached != nil {
		return cached, nil
	}
	return s.compute(ctx, client, now)
}

// Dashboard returns every onboarded client's performance. Fresh cached
// scores are served as-is; stale ones are recomputed inline.
func (s *Service) Dashboard(ctx context.Context) ([]Performance, error) {
	clients, err := s.store.ListOnboardedClients(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list clients", err).WithOp("performance.Dashboard")
	}

	now := s.now().UTC()
	results := make([]Performance, 0, len(clients))
	for _, client := range clients {
		if cached := s.fromCache(client, now); cached != nil {
			results = append(results, *cached)
			continue
		}
		perf, err := s.compute(ctx, client, now)
		if err != nil {
			// One broken client must not blank the whole dashboard.
			s.log.Error("performance compute failed", "error", err, "clientId", client.ID)
			continue
		}
		results = append(results, *perf)
	}
	return results, nil
}

// fromCache rebuilds the evaluation from the cached score when it is still
// within the TTL. The derived classifications are pure functions of the
// score and stage, so they need no storage of their own.
func (s *Service) fromCache(client repository.Client, now time.Time) *Performance {
	if client.PerformanceScore == nil || client.ScoreUpdatedAt == nil {
		return nil
	}
	if now.Sub(*client.ScoreUpdatedAt) >= scoreCacheTTL {
		return nil
	}

	score := *client.PerformanceScore
	stage := client.GrowthStage
	return &Performance{
		ClientID:   client.ID.String(),
		ClientName: client.Name,
		PlanType:   client.PlanType,
		FromCache:  true,
		ComputedAt: *client.ScoreUpdatedAt,
		Result: scoring.Result{
			Score:       score,
			GrowthStage: stage,
			Status:      scoring.StatusForScore(score),
			Label:       scoring.EvaluationLabel(stage, score),
			Flags:       scoring.Flags(stage, score),
		},
	}
}

func (s *Service) compute(ctx context.Context, client repository.Client, now time.Time) (*Performance, error) {
	metrics, err := s.store.ListMetricPairs(ctx, client.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load metrics", err).WithOp("performance.compute")
	}
	alerts, err := s.store.ListAlerts(ctx, client.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load alerts", err).WithOp("performance.compute")
	}

	result := scoring.Compute(scoring.Inputs{Client: client, Metrics: metrics, Alerts: alerts}, now)

	cache := repository.ScoreCache{
		PerformanceScore: result.Score,
		GrowthStage:      result.GrowthStage,
		ScoredAt:         now,
	}
	// Prospects keep their prospect stage until onboarding flips it; the
	// tenure-derived stage must never overwrite it.
	if client.GrowthStage == repository.StageProspect {
		cache.GrowthStage = ""
		result.GrowthStage = repository.StageProspect
		result.Label = scoring.EvaluationLabel(repository.StageProspect, result.Score)
		result.Flags = scoring.Flags(repository.StageProspect, result.Score)
	}

	if err := s.store.UpdateScoreCache(ctx, client.ID, cache); err != nil {
		// Serve the computed result anyway; the next read recomputes.
		s.log.Error("score cache write failed", "error", err, "clientId", client.ID)
	}

	return &Performance{
		ClientID:   client.ID.String(),
		ClientName: client.Name,
		PlanType:   client.PlanType,
		ComputedAt: now,
		Result:     result,
	}, nil
}

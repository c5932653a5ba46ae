// Package pipeline provides the deal confidence bounded context module.
package pipeline

import (
	"agency_portal_backend/internal/events"
	apphttp "agency_portal_backend/internal/http"
	"agency_portal_backend/internal/pipeline/deals"
	"agency_portal_backend/internal/pipeline/handler"
	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/internal/pipeline/scoring"
	"agency_portal_backend/internal/pipeline/summary"
	"agency_portal_backend/platform/logger"
	"agency_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipeline bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	scorer   *scoring.Service
	batch    *scoring.Batch
	deals    *deals.Service
	repo     *repository.Repository
	listener *activityListener
}

// NewModule creates and initializes the pipeline module. alerter may be nil
// when operational alerting is not configured.
func NewModule(pool *pgxpool.Pool, bus events.Bus, alerter scoring.Alerter, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)

	scorer := scoring.NewService(repo, bus, log)
	batch := scoring.NewBatch(scorer, repo, alerter, log)
	dealsSvc := deals.NewService(repo, scorer, bus, log)
	summarySvc := summary.NewService(repo, log)
	h := handler.New(dealsSvc, summarySvc, val)

	return &Module{
		handler:  h,
		scorer:   scorer,
		batch:    batch,
		deals:    dealsSvc,
		repo:     repo,
		listener: &activityListener{log: log},
	}
}

// RegisterHandlers subscribes the module's listener to the domain events it
// consumes. Call this once per bus, after construction.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.DealScored{}.EventName(), m.listener)
	bus.Subscribe(events.DealArchived{}.EventName(), m.listener)
	bus.Subscribe(events.DealRevived{}.EventName(), m.listener)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "pipeline"
}

// Scorer exposes the recalculation service for the webhook module.
func (m *Module) Scorer() *scoring.Service {
	return m.scorer
}

// Batch exposes the sweep entry points for the scheduler worker.
func (m *Module) Batch() *scoring.Batch {
	return m.batch
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts pipeline routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	recs := ctx.Protected.Group("/recommendations")
	recs.GET("/:id/call-score", m.handler.GetCallScore)
	recs.PUT("/:id/call-score", m.handler.UpsertCallScore)
	recs.POST("/:id/recalculate", m.handler.Recalculate)
	recs.POST("/:id/archive", m.handler.Archive)
	recs.POST("/:id/revive", m.handler.Revive)
	recs.POST("/:id/snooze", m.handler.Snooze)
	recs.POST("/:id/communications", m.handler.LogCommunication)
	recs.GET("/:id/score-history", m.handler.ScoreHistory)

	ctx.Protected.GET("/pipeline/summary", m.handler.PipelineSummary)

	ctx.Admin.GET("/scoring-config", m.handler.GetScoringConfig)
	ctx.Admin.PUT("/scoring-config", m.handler.UpdateScoringConfig)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

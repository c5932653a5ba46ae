package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agency_portal_backend/internal/pipeline/deals"
	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/internal/pipeline/summary"
	"agency_portal_backend/internal/pipeline/transport"
	"agency_portal_backend/platform/httpkit"
	"agency_portal_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid recommendation id"
)

// Handler handles HTTP requests for the deal pipeline.
type Handler struct {
	svc     *deals.Service
	summary *summary.Service
	val     *validator.Validator
}

// New creates a new pipeline handler.
func New(svc *deals.Service, summarySvc *summary.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, summary: summarySvc, val: val}
}

// GetCallScore retrieves the rep assessment for a deal.
// GET /api/v1/recommendations/:id/call-score
func (h *Handler) GetCallScore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	score, err := h.svc.GetCallScore(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if score == nil {
		httpkit.OK(c, gin.H{"recommendationId": id.String(), "assessed": false})
		return
	}
	httpkit.OK(c, callScoreResponse(*score))
}

// UpsertCallScore saves the rep assessment and triggers a recalculation.
// PUT /api/v1/recommendations/:id/call-score
func (h *Handler) UpsertCallScore(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.UpsertCallScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	score := repository.CallScore{
		RecommendationID: id,
		BudgetClarity:    req.BudgetClarity,
		Competition:      req.Competition,
		Engagement:       req.Engagement,
		PlanFit:          req.PlanFit,
	}
	identity := httpkit.GetIdentity(c)
	if identity.IsAuthenticated() {
		userID := identity.UserID()
		score.UpdatedBy = &userID
	}

	saved, err := h.svc.UpsertCallScore(c.Request.Context(), score)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, callScoreResponse(saved))
}

// Recalculate forces a synchronous manual refresh of a deal's score.
// POST /api/v1/recommendations/:id/recalculate
func (h *Handler) Recalculate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.svc.Recalculate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Archive parks a deal.
// POST /api/v1/recommendations/:id/archive
func (h *Handler) Archive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Archive(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "archived"})
}

// Revive returns an archived deal to the pipeline.
// POST /api/v1/recommendations/:id/revive
func (h *Handler) Revive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Revive(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "revived"})
}

// Snooze puts a deal on hold until the given time.
// POST /api/v1/recommendations/:id/snooze
func (h *Handler) Snooze(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.Snooze(c.Request.Context(), id, req.Until, req.Reason)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "snoozed", "until": req.Until})
}

// LogCommunication records a contact entry.
// POST /api/v1/recommendations/:id/communications
func (h *Handler) LogCommunication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req transport.LogCommunicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	comm := repository.Communication{
		RecommendationID: id,
		Direction:        req.Direction,
		Channel:          req.Channel,
		Note:             req.Note,
	}
	if req.ContactAt != nil {
		comm.ContactAt = *req.ContactAt
	}

	saved, err := h.svc.LogCommunication(c.Request.Context(), comm)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.CommunicationResponse{
		ID:               saved.ID.String(),
		RecommendationID: saved.RecommendationID.String(),
		Direction:        saved.Direction,
		Channel:          saved.Channel,
		Note:             saved.Note,
		ContactAt:        saved.ContactAt,
	})
}

// ScoreHistory lists the most recent score audit rows, newest first.
// GET /api/v1/recommendations/:id/score-history
func (h *Handler) ScoreHistory(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var q transport.ScoreHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	rows, err := h.svc.ScoreHistory(c.Request.Context(), id, q.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	entries := make([]transport.ScoreHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry := transport.ScoreHistoryEntry{
			ID:              row.ID,
			ConfidenceScore: row.ConfidenceScore,
			TriggerSource:   row.TriggerSource,
			CreatedAt:       row.CreatedAt,
		}
		if len(row.Breakdown) > 0 {
			var breakdown map[string]any
			if err := json.Unmarshal(row.Breakdown, &breakdown); err == nil {
				entry.Breakdown = breakdown
			}
		}
		entries = append(entries, entry)
	}
	httpkit.OK(c, gin.H{"items": entries})
}

// PipelineSummary returns the bucketed revenue forecast.
// GET /api/v1/pipeline/summary
func (h *Handler) PipelineSummary(c *gin.Context) {
	var q transport.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.summary.Summarize(c.Request.Context(), q.CurrentMRR, q.ActiveClients)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetScoringConfig returns the effective scoring configuration.
// GET /api/v1/admin/scoring-config
func (h *Handler) GetScoringConfig(c *gin.Context) {
	cfg, err := h.svc.ScoringConfig(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, cfg)
}

// UpdateScoringConfig stores an admin edit of the scoring parameters.
// PUT /api/v1/admin/scoring-config
func (h *Handler) UpdateScoringConfig(c *gin.Context) {
	var cfg repository.ScoringConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.UpdateScoringConfig(c.Request.Context(), cfg)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "updated"})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func callScoreResponse(score repository.CallScore) transport.CallScoreResponse {
	return transport.CallScoreResponse{
		RecommendationID: score.RecommendationID.String(),
		BudgetClarity:    score.BudgetClarity,
		Competition:      score.Competition,
		Engagement:       score.Engagement,
		PlanFit:          score.PlanFit,
		UpdatedAt:        score.UpdatedAt.Format(time.RFC3339),
	}
}

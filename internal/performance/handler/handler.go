package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agency_portal_backend/internal/performance/service"
	"agency_portal_backend/internal/performance/transport"
	"agency_portal_backend/platform/httpkit"
)

const msgInvalidID = "invalid client id"

// Handler handles HTTP requests for client performance.
type Handler struct {
	svc *service.Service
}

// New creates a new performance handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// GetPerformance returns one client's evaluation.
// GET /api/v1/clients/:id/performance
func (h *Handler) GetPerformance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	perf, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if perf == nil {
		httpkit.Error(c, http.StatusNotFound, "client not found", nil)
		return
	}
	httpkit.OK(c, perf)
}

// Dashboard returns every onboarded client's evaluation.
// GET /api/v1/performance/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	clients, err := h.svc.Dashboard(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DashboardResponse{Clients: clients, Total: len(clients)})
}

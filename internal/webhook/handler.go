package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agency_portal_backend/platform/httpkit"
	"agency_portal_backend/platform/validator"
)

// EmailEventRequest is the delivery provider's open/click notification.
type EmailEventRequest struct {
	Token string `json:"token" validate:"required,min=8,max=128"`
	Event string `json:"event" validate:"required,oneof=open click"`
}

// RegistrationRequest is the portal's account-created notification.
type RegistrationRequest struct {
	Token string `json:"token" validate:"required,min=8,max=128"`
}

// Handler handles public webhook intake requests.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// HandleEmailEvent processes an email open/click event.
// POST /api/v1/webhook/email-events
func (h *Handler) HandleEmailEvent(c *gin.Context) {
	var req EmailEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.HandleEmailEvent(c.Request.Context(), req.Token, req.Event)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "accepted"})
}

// HandleRegistration processes an account-created event.
// POST /api/v1/webhook/registrations
func (h *Handler) HandleRegistration(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.HandleRegistration(c.Request.Context(), req.Token)) {
		return
	}
	httpkit.OK(c, gin.H{"status": "accepted"})
}

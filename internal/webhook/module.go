package webhook

import (
	apphttp "agency_portal_backend/internal/http"
	"agency_portal_backend/platform/config"
	"agency_portal_backend/platform/httpkit"
	"agency_portal_backend/platform/logger"
	"agency_portal_backend/platform/validator"
)

// Module is the webhook bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	cfg     config.WebhookConfig
	limiter *httpkit.WebhookRateLimiter
}

// NewModule creates and initializes the webhook module.
func NewModule(stamper InviteStamper, scorer Scorer, cfg config.WebhookConfig, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(stamper, scorer, log)
	return &Module{
		handler: NewHandler(svc, val),
		cfg:     cfg,
		limiter: httpkit.NewWebhookRateLimiter(log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the public webhook routes (signature auth, no JWT).
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/webhook")
	group.Use(m.limiter.RateLimit())
	group.Use(SignatureAuthMiddleware(m.cfg))
	group.POST("/email-events", m.handler.HandleEmailEvent)
	group.POST("/registrations", m.handler.HandleRegistration)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

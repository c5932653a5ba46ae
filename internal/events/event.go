// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"agency_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// DealScored is published after every persisted recalculation, so dashboards
// and future listeners can react without polling.
type DealScored struct {
	BaseEvent
	RecommendationID uuid.UUID `json:"recommendationId"`
	ConfidenceScore  int       `json:"confidenceScore"`
	TriggerSource    string    `json:"triggerSource"`
}

func (e DealScored) EventName() string { return "pipeline.deal.scored" }

// DealArchived is published when a rep archives a deal.
type DealArchived struct {
	BaseEvent
	RecommendationID uuid.UUID `json:"recommendationId"`
}

func (e DealArchived) EventName() string { return "pipeline.deal.archived" }

// DealRevived is published when an archived deal returns to the pipeline.
type DealRevived struct {
	BaseEvent
	RecommendationID uuid.UUID `json:"recommendationId"`
}

func (e DealRevived) EventName() string { return "pipeline.deal.revived" }

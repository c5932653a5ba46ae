package transport

import "time"

// Call scores

type UpsertCallScoreRequest struct {
	BudgetClarity string `json:"budgetClarity" validate:"omitempty,oneof=clear vague none no_budget"`
	Competition   string `json:"competition" validate:"omitempty,oneof=none some many"`
	Engagement    string `json:"engagement" validate:"omitempty,oneof=high medium low"`
	PlanFit       string `json:"planFit" validate:"omitempty,oneof=strong medium weak poor"`
}

type CallScoreResponse struct {
	RecommendationID string `json:"recommendationId"`
	BudgetClarity    string `json:"budgetClarity,omitempty"`
	Competition      string `json:"competition,omitempty"`
	Engagement       string `json:"engagement,omitempty"`
	PlanFit          string `json:"planFit,omitempty"`
	UpdatedAt        string `json:"updatedAt"`
}

// Lifecycle

type SnoozeRequest struct {
	Until  time.Time `json:"until" validate:"required"`
	Reason string    `json:"reason" validate:"max=500"`
}

type LogCommunicationRequest struct {
	Direction string     `json:"direction" validate:"required,oneof=inbound outbound"`
	Channel   string     `json:"channel" validate:"required,oneof=email phone sms meeting other"`
	Note      string     `json:"note" validate:"max=2000"`
	ContactAt *time.Time `json:"contactAt,omitempty"`
}

type CommunicationResponse struct {
	ID               string    `json:"id"`
	RecommendationID string    `json:"recommendationId"`
	Direction        string    `json:"direction"`
	Channel          string    `json:"channel"`
	Note             string    `json:"note,omitempty"`
	ContactAt        time.Time `json:"contactAt"`
}

// Score history

type ScoreHistoryQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
}

type ScoreHistoryEntry struct {
	ID              int64           `json:"id"`
	ConfidenceScore int             `json:"confidenceScore"`
	TriggerSource   string          `json:"triggerSource"`
	Breakdown       map[string]any  `json:"breakdown,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Pipeline summary

type SummaryQuery struct {
	CurrentMRR    float64 `form:"current_mrr" validate:"min=0"`
	ActiveClients int     `form:"active_clients" validate:"min=0"`
}

package repository

import (
	"time"

	"github.com/google/uuid"
)

// Growth stages. Prospect is the pre-onboarding state; the lifecycle stages
// derive from tenure once a client is onboarded.
const (
	StageProspect   = "prospect"
	StageSeedling   = "seedling"
	StageSprouting  = "sprouting"
	StageBlooming   = "blooming"
	StageHarvesting = "harvesting"
)

// Metric names tracked per client. These key the plan weight tables.
const (
	MetricKeywords     = "keywords"
	MetricVisitors     = "visitors"
	MetricLeads        = "leads"
	MetricAIVisibility = "ai_visibility"
	MetricConversions  = "conversions"
	MetricAlerts       = "alerts"
)

// Client is an onboarded (or prospective) agency client on the performance
// side. performance_score and score_updated_at form a one-hour read-through
// cache of the last computed result.
type Client struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Name              string
	PlanType          string
	GrowthStage       string
	StartDate         *time.Time
	ImprovementsTotal int
	PerformanceScore  *int
	ScoreUpdatedAt    *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AgeDays returns whole days since onboarding, 0 when start_date is unset.
func (c Client) AgeDays(now time.Time) int {
	if c.StartDate == nil {
		return 0
	}
	days := int(now.Sub(*c.StartDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// MonthsActive approximates tenure in months for the velocity ratio.
func (c Client) MonthsActive(now time.Time) float64 {
	if c.StartDate == nil {
		return 0
	}
	months := now.Sub(*c.StartDate).Hours() / 24 / 30
	if months < 0 {
		return 0
	}
	return months
}

// MetricPair is one metric's current/previous snapshot. A metric with no
// pair row has no data and is excluded from scoring entirely.
type MetricPair struct {
	ClientID      uuid.UUID
	Metric        string
	Current       float64
	Previous      float64
	LowerIsBetter bool
	CapturedAt    time.Time
}

// Alert is an aggregated positive-signal alert count per type, e.g. three
// lead_increase alerts this period.
type Alert struct {
	ClientID  uuid.UUID
	Type      string
	Count     int
	CreatedAt time.Time
}

// ScoreCache carries the cache fields written back after a computation.
type ScoreCache struct {
	PerformanceScore int
	GrowthStage      string
	ScoredAt         time.Time
}

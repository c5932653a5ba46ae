package repository

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation statuses. A recommendation is a sales proposal sent to a
// prospective or upsell client, tracked through the pipeline.
const (
	StatusDraft      = "draft"
	StatusSent       = "sent"
	StatusDeclined   = "declined"
	StatusAccepted   = "accepted"
	StatusClosedLost = "closed_lost"
)

// Recommendation is a sales proposal with its derived confidence fields.
// Confidence fields are written only by the scoring engine, never by hand.
type Recommendation struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	ClientName        string
	Status            string
	SentAt            *time.Time
	RevivedAt         *time.Time
	ArchivedAt        *time.Time
	PredictedMonthly  float64
	PredictedOnetime  float64
	ConfidenceScore   int
	ConfidencePercent float64
	WeightedMonthly   float64
	WeightedOnetime   float64
	LastScoredAt      *time.Time
	SnoozedUntil      *time.Time
	SnoozeReason      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ScoringAge returns the reference time age is measured from: revived_at
// when the deal has been revived, otherwise sent_at. Nil for drafts that
// were never sent.
func (r Recommendation) ScoringAge() *time.Time {
	if r.RevivedAt != nil {
		return r.RevivedAt
	}
	return r.SentAt
}

// CallScore is a rep's subjective post-call assessment, one-to-one with a
// recommendation. Empty fields mean the dimension was not assessed.
type CallScore struct {
	RecommendationID uuid.UUID
	BudgetClarity    string // clear, vague, none, no_budget
	Competition      string // none, some, many
	Engagement       string // high, medium, low
	PlanFit          string // strong, medium, weak, poor
	UpdatedBy        *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Invite is an emailed link giving a named recipient access to the proposal.
// The engagement timestamps are first-write-wins.
type Invite struct {
	ID               uuid.UUID
	RecommendationID uuid.UUID
	Email            string
	Token            string
	EmailOpenedAt    *time.Time
	ViewedAt         *time.Time
	AccountCreatedAt *time.Time
	CreatedAt        time.Time
}

// Communication is a log entry of inbound/outbound contact with a prospect.
type Communication struct {
	ID               uuid.UUID
	RecommendationID uuid.UUID
	Direction        string // inbound, outbound
	Channel          string
	Note             string
	ContactAt        time.Time
	CreatedAt        time.Time
}

// PenaltyParams configures one time-decay penalty.
type PenaltyParams struct {
	GraceHours   float64 `json:"grace_hours"`
	PointsPerDay float64 `json:"points_per_day"`
	Cap          float64 `json:"cap"`
}

// ScoringConfig is the process-wide scoring configuration, loaded fresh per
// calculation so that admin edits take effect on the next run.
type ScoringConfig struct {
	// Weights per call-score dimension, summing to 100.
	Weights map[string]float64 `json:"weights"`
	// FactorMaps maps each call-score dimension's values to a factor in [0,1].
	FactorMaps map[string]map[string]float64 `json:"factor_maps"`
	// Penalties keyed by penalty name (email_not_opened, proposal_not_viewed, silence).
	Penalties map[string]PenaltyParams `json:"penalties"`
	// DefaultBaseScore applies when no call score row exists.
	DefaultBaseScore float64 `json:"default_base_score"`
	// MultiInviteBonusPerInvite is points per invite beyond the first.
	// Zero disables the bonus; the breakdown field is kept for forward
	// compatibility.
	MultiInviteBonusPerInvite float64 `json:"multi_invite_bonus_per_invite"`
	// MultiInviteBonusCap bounds the multi-invite bonus.
	MultiInviteBonusCap float64 `json:"multi_invite_bonus_cap"`
}

// ScoreUpdate carries the derived score fields written back to a
// recommendation after a recalculation.
type ScoreUpdate struct {
	ConfidenceScore   int
	ConfidencePercent float64
	WeightedMonthly   float64
	WeightedOnetime   float64
	ScoredAt          time.Time
}

// ScoreHistory is one append-only audit row per recalculation.
type ScoreHistory struct {
	ID               int64
	RecommendationID uuid.UUID
	ConfidenceScore  int
	TriggerSource    string
	Breakdown        []byte // JSON snapshot of the full score breakdown
	CreatedAt        time.Time
}

// ScoreEvent is a queued recalculation request produced by an immediate
// trigger. The event-queue sweep picks up rows whose processing never
// completed.
type ScoreEvent struct {
	ID               int64
	RecommendationID uuid.UUID
	TriggerSource    string
	QueuedAt         time.Time
	ProcessedAt      *time.Time
}

// ScoringRun is the audit row for one batch sweep.
type ScoringRun struct {
	ID         int64
	RunType    string // daily_cron or event_queue
	Processed  int
	Succeeded  int
	Failed     int
	Skipped    int
	DurationMs int64
	Errors     []byte // JSON array of {recommendation_id, message}
	StartedAt  time.Time
}

// PipelineDeal is the projection used by the revenue summary: every
// non-archived, non-terminal deal with its confidence/age/snooze fields.
type PipelineDeal struct {
	ID               uuid.UUID
	ClientName       string
	Status           string
	ConfidenceScore  int
	PredictedMonthly float64
	WeightedMonthly  float64
	SentAt           *time.Time
	RevivedAt        *time.Time
	SnoozedUntil     *time.Time
	LastScoredAt     *time.Time
}

// AgeReference returns revived_at if set, else sent_at.
func (d PipelineDeal) AgeReference() *time.Time {
	if d.RevivedAt != nil {
		return d.RevivedAt
	}
	return d.SentAt
}

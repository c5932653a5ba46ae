package scoring

import (
	"math"
	"time"

	"agency_portal_backend/internal/pipeline/repository"
)

// Facts is everything the pure scoring function consumes: a snapshot of the
// stored facts about one deal. The computation itself does no I/O.
type Facts struct {
	CallScore          *repository.CallScore
	Invites            []repository.Invite
	LastInboundContact *time.Time
	SentAt             *time.Time
	RevivedAt          *time.Time
	PredictedMonthly   float64
	PredictedOnetime   float64
}

// PenaltyBreakdown itemizes the decay penalties. The multi_invite_bonus
// field lives here for schema compatibility even though it is a bonus.
type PenaltyBreakdown struct {
	EmailNotOpened    float64 `json:"email_not_opened"`
	ProposalNotViewed float64 `json:"proposal_not_viewed"`
	Silence           float64 `json:"silence"`
	MultiInviteBonus  float64 `json:"multi_invite_bonus"`
}

// Breakdown is the full score snapshot persisted with every history row.
type Breakdown struct {
	ConfidenceScore   int              `json:"confidence_score"`
	ConfidencePercent float64          `json:"confidence_percent"`
	WeightedMonthly   float64          `json:"weighted_monthly"`
	WeightedOnetime   float64          `json:"weighted_onetime"`
	BaseScore         float64          `json:"base_score"`
	TotalPenalties    float64          `json:"total_penalties"`
	TotalBonus        float64          `json:"total_bonus"`
	PenaltyBreakdown  PenaltyBreakdown `json:"penalty_breakdown"`
}

// Compute derives the confidence score for one deal at the given instant.
// final = round(clamp(base - penalties + bonuses, 0, 100)).
func Compute(cfg repository.ScoringConfig, facts Facts, now time.Time) Breakdown {
	base := baseScore(cfg, facts.CallScore)

	penalties := PenaltyBreakdown{
		EmailNotOpened:    emailNotOpenedPenalty(cfg, facts, now),
		ProposalNotViewed: proposalNotViewedPenalty(cfg, facts, now),
		Silence:           silencePenalty(cfg, facts, now),
		MultiInviteBonus:  multiInviteBonus(cfg, facts),
	}

	totalPenalties := penalties.EmailNotOpened + penalties.ProposalNotViewed + penalties.Silence
	totalBonus := penalties.MultiInviteBonus

	final := int(math.Round(clamp(base-totalPenalties+totalBonus, 0, 100)))
	percent := float64(final) / 100

	return Breakdown{
		ConfidenceScore:   final,
		ConfidencePercent: percent,
		WeightedMonthly:   round2(facts.PredictedMonthly * percent),
		WeightedOnetime:   round2(facts.PredictedOnetime * percent),
		BaseScore:         base,
		TotalPenalties:    totalPenalties,
		TotalBonus:        totalBonus,
		PenaltyBreakdown:  penalties,
	}
}

// baseScore is the weighted sum of the call-score factors. An unset or
// unrecognized dimension value contributes nothing (factor 0). No call score
// at all means the config default.
func baseScore(cfg repository.ScoringConfig, score *repository.CallScore) float64 {
	if score == nil {
		return cfg.DefaultBaseScore
	}

	total := 0.0
	total += factorContribution(cfg, DimensionBudgetClarity, score.BudgetClarity)
	total += factorContribution(cfg, DimensionCompetition, score.Competition)
	total += factorContribution(cfg, DimensionEngagement, score.Engagement)
	total += factorContribution(cfg, DimensionPlanFit, score.PlanFit)
	return total
}

func factorContribution(cfg repository.ScoringConfig, dimension, value string) float64 {
	if value == "" {
		return 0
	}
	mapping, ok := cfg.FactorMaps[dimension]
	if !ok {
		return 0
	}
	factor, ok := mapping[value]
	if !ok {
		return 0
	}
	return factor * cfg.Weights[dimension]
}

// emailNotOpenedPenalty decays from sent_at while no invite has been opened.
func emailNotOpenedPenalty(cfg repository.ScoringConfig, facts Facts, now time.Time) float64 {
	if facts.SentAt == nil {
		return 0
	}
	for _, inv := range facts.Invites {
		if inv.EmailOpenedAt != nil {
			return 0
		}
	}
	return decayPenalty(cfg.Penalties[PenaltyEmailNotOpened], *facts.SentAt, now)
}

// proposalNotViewedPenalty decays from the first sign of engagement (email
// open or account creation) while no invite has actually viewed the proposal.
func proposalNotViewedPenalty(cfg repository.ScoringConfig, facts Facts, now time.Time) float64 {
	var anchor *time.Time
	for _, inv := range facts.Invites {
		if inv.ViewedAt != nil {
			return 0
		}
		anchor = earlier(anchor, inv.EmailOpenedAt)
		anchor = earlier(anchor, inv.AccountCreatedAt)
	}
	if anchor == nil {
		return 0
	}
	return decayPenalty(cfg.Penalties[PenaltyProposalNotViewed], *anchor, now)
}

// silencePenalty decays from the prospect's most recent inbound contact,
// falling back to revival/send time when they have never written back.
func silencePenalty(cfg repository.ScoringConfig, facts Facts, now time.Time) float64 {
	anchor := facts.LastInboundContact
	if anchor == nil {
		if facts.RevivedAt != nil {
			anchor = facts.RevivedAt
		} else {
			anchor = facts.SentAt
		}
	}
	if anchor == nil {
		return 0
	}
	return decayPenalty(cfg.Penalties[PenaltySilence], *anchor, now)
}

func multiInviteBonus(cfg repository.ScoringConfig, facts Facts) float64 {
	if cfg.MultiInviteBonusPerInvite <= 0 || len(facts.Invites) <= 1 {
		return 0
	}
	bonus := float64(len(facts.Invites)-1) * cfg.MultiInviteBonusPerInvite
	if cfg.MultiInviteBonusCap > 0 {
		bonus = math.Min(bonus, cfg.MultiInviteBonusCap)
	}
	return bonus
}

// decayPenalty computes min((elapsed - grace) * rate, cap) with day-fraction
// math so the penalty grows continuously rather than in daily steps.
func decayPenalty(params repository.PenaltyParams, anchor, now time.Time) float64 {
	elapsedHours := now.Sub(anchor).Hours()
	overdueHours := elapsedHours - params.GraceHours
	if overdueHours <= 0 {
		return 0
	}
	penalty := overdueHours / 24 * params.PointsPerDay
	return math.Min(penalty, params.Cap)
}

func earlier(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Before(*a) {
		return b
	}
	return a
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

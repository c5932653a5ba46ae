package scoring

import (
	"fmt"
	"math"

	"agency_portal_backend/internal/pipeline/repository"

	"agency_portal_backend/platform/apperr"
)

// Call-score dimensions and penalty names. These key the config maps and the
// breakdown JSON, so the literals must stay stable.
const (
	DimensionBudgetClarity = "budget_clarity"
	DimensionCompetition   = "competition"
	DimensionEngagement    = "engagement"
	DimensionPlanFit       = "plan_fit"

	PenaltyEmailNotOpened    = "email_not_opened"
	PenaltyProposalNotViewed = "proposal_not_viewed"
	PenaltySilence           = "silence"
)

// DefaultConfig returns the hardcoded scoring defaults used when no config
// row exists. Weights sum to 100 and every factor lies in [0,1], so the
// best possible call produces a base score of exactly 100.
func DefaultConfig() repository.ScoringConfig {
	return repository.ScoringConfig{
		Weights: map[string]float64{
			DimensionBudgetClarity: 25,
			DimensionCompetition:   20,
			DimensionEngagement:    25,
			DimensionPlanFit:       30,
		},
		FactorMaps: map[string]map[string]float64{
			DimensionBudgetClarity: {
				"clear":     1.0,
				"vague":     0.6,
				"none":      0.3,
				"no_budget": 0.1,
			},
			DimensionCompetition: {
				"none": 1.0,
				"some": 0.6,
				"many": 0.3,
			},
			DimensionEngagement: {
				"high":   1.0,
				"medium": 0.6,
				"low":    0.2,
			},
			DimensionPlanFit: {
				"strong": 1.0,
				"medium": 0.7,
				"weak":   0.4,
				"poor":   0.1,
			},
		},
		Penalties: map[string]repository.PenaltyParams{
			PenaltyEmailNotOpened: {
				GraceHours:   24,
				PointsPerDay: 2.5,
				Cap:          35,
			},
			PenaltyProposalNotViewed: {
				GraceHours:   48,
				PointsPerDay: 2,
				Cap:          25,
			},
			PenaltySilence: {
				GraceHours:   5 * 24,
				PointsPerDay: 3,
				Cap:          80,
			},
		},
		DefaultBaseScore: 50,
		// Multi-invite bonus is reserved in the breakdown schema but
		// disabled until config enables it.
		MultiInviteBonusPerInvite: 0,
		MultiInviteBonusCap:       0,
	}
}

// mergeConfig overlays a stored config onto the defaults so that partial
// admin edits never strip a dimension or penalty of its parameters.
func mergeConfig(stored *repository.ScoringConfig) repository.ScoringConfig {
	cfg := DefaultConfig()
	if stored == nil {
		return cfg
	}

	if len(stored.Weights) > 0 {
		cfg.Weights = stored.Weights
	}
	if len(stored.FactorMaps) > 0 {
		cfg.FactorMaps = stored.FactorMaps
	}
	if len(stored.Penalties) > 0 {
		cfg.Penalties = stored.Penalties
	}
	if stored.DefaultBaseScore > 0 {
		cfg.DefaultBaseScore = stored.DefaultBaseScore
	}
	if stored.MultiInviteBonusPerInvite > 0 {
		cfg.MultiInviteBonusPerInvite = stored.MultiInviteBonusPerInvite
		cfg.MultiInviteBonusCap = stored.MultiInviteBonusCap
	}
	return cfg
}

// Merged exposes the default-overlay merge for admin reads, so the config
// endpoint always shows the full effective parameter set.
func Merged(stored *repository.ScoringConfig) repository.ScoringConfig {
	return mergeConfig(stored)
}

// ValidateConfig rejects admin edits that would corrupt the scoring math:
// weights must sum to 100 and every factor must lie in [0,1].
func ValidateConfig(cfg repository.ScoringConfig) error {
	if len(cfg.Weights) > 0 {
		sum := 0.0
		for dimension, weight := range cfg.Weights {
			if weight < 0 {
				return apperr.New(apperr.KindValidation, fmt.Sprintf("weight for %s must not be negative", dimension))
			}
			sum += weight
		}
		if math.Abs(sum-100) > 0.01 {
			return apperr.New(apperr.KindValidation, fmt.Sprintf("weights must sum to 100, got %.2f", sum))
		}
	}
	for dimension, mapping := range cfg.FactorMaps {
		for value, factor := range mapping {
			if factor < 0 || factor > 1 {
				return apperr.New(apperr.KindValidation, fmt.Sprintf("factor %s.%s must be in [0,1]", dimension, value))
			}
		}
	}
	for name, params := range cfg.Penalties {
		if params.GraceHours < 0 || params.PointsPerDay < 0 || params.Cap < 0 {
			return apperr.New(apperr.KindValidation, fmt.Sprintf("penalty %s parameters must not be negative", name))
		}
	}
	if cfg.DefaultBaseScore < 0 || cfg.DefaultBaseScore > 100 {
		return apperr.New(apperr.KindValidation, "default base score must be in [0,100]")
	}
	return nil
}

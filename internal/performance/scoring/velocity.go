package scoring

import (
	"time"

	"agency_portal_backend/internal/performance/repository"
)

// Ramp windows per plan type: the initial period where the velocity modifier
// is held neutral regardless of actual pace, since campaigns need time to
// produce measurable movement.
var rampWindows = map[string]time.Duration{
	PlanSEO:            90 * 24 * time.Hour,
	PlanPaidMedia:      30 * 24 * time.Hour,
	PlanAIOptimization: 60 * 24 * time.Hour,
	PlanFullService:    60 * 24 * time.Hour,
}

// expectedVelocities is the improvements-per-month pace expected of a client
// at each growth stage. Young clients have more low-hanging fruit, so the
// expected pace tapers with maturity.
var expectedVelocities = map[string]float64{
	repository.StageSeedling:   2.0,
	repository.StageSprouting:  1.5,
	repository.StageBlooming:   1.0,
	repository.StageHarvesting: 0.5,
}

// Velocity modifier tiers by actual/expected ratio.
const (
	modifierAhead   = 1.15
	modifierOnPace  = 1.0
	modifierBehind  = 0.85
	modifierStalled = 0.70
	ratioAheadMin   = 1.5
	ratioOnPaceMin  = 1.0
	ratioBehindMin  = 0.5
)

// Velocity is the client's improvement rate in improvements per month.
func Velocity(improvementsTotal int, monthsActive float64) float64 {
	if monthsActive <= 0 {
		return 0
	}
	return float64(improvementsTotal) / monthsActive
}

// ExpectedVelocity returns the stage-expected pace, 0 for unknown stages.
func ExpectedVelocity(growthStage string) float64 {
	return expectedVelocities[growthStage]
}

// IsInRampPeriod reports whether the client is still inside its plan's
// initial ramp window.
func IsInRampPeriod(startDate *time.Time, planType string, now time.Time) bool {
	if startDate == nil {
		return true
	}
	window, ok := rampWindows[NormalizePlanType(planType)]
	if !ok {
		window = rampWindows[PlanFullService]
	}
	return now.Sub(*startDate) < window
}

// VelocityModifier maps pace to a score multiplier. During ramp it is flat
// 1.0 no matter the ratio; a zero expected velocity also short-circuits to
// neutral so the ratio never divides by zero.
func VelocityModifier(velocity, expectedVelocity float64, inRamp bool) float64 {
	if inRamp {
		return modifierOnPace
	}
	if expectedVelocity == 0 {
		return modifierOnPace
	}

	ratio := velocity / expectedVelocity
	switch {
	case ratio >= ratioAheadMin:
		return modifierAhead
	case ratio >= ratioOnPaceMin:
		return modifierOnPace
	case ratio >= ratioBehindMin:
		return modifierBehind
	default:
		return modifierStalled
	}
}

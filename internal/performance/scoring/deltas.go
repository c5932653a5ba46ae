package scoring

import (
	"math"

	"agency_portal_backend/internal/performance/repository"
)

// Named alert-type weights; anything unrecognized scores the default.
const (
	alertWeightDefault        = 5
	alertWeightLeadIncrease   = 15
	alertWeightKeywordRanking = 10
)

var alertTypeWeights = map[string]float64{
	"lead_increase":   alertWeightLeadIncrease,
	"keyword_ranking": alertWeightKeywordRanking,
}

// CalculateDelta returns the percent change from previous to current. A zero
// previous value cannot produce a true percentage, so it maps to a fixed +25
// ("some improvement from nothing") when current is positive and 0 otherwise.
// lowerIsBetter flips the sign for metrics like search-rank position.
func CalculateDelta(current, previous float64, lowerIsBetter bool) float64 {
	var delta float64
	if previous == 0 {
		if current > 0 {
			delta = 25
		}
	} else {
		delta = (current - previous) / previous * 100
	}
	if lowerIsBetter {
		delta = -delta
	}
	return delta
}

// DeltaToPoints maps a percent-change delta onto a 0-100 point scale centered
// at 50 for no change. Non-finite deltas score neutral.
func DeltaToPoints(delta float64) int {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return 50
	}
	points := math.Round(50 + delta)
	if points < 0 {
		return 0
	}
	if points > 100 {
		return 100
	}
	return int(points)
}

// AlertsScore scores the positive-signal alerts: weighted count sum, doubled,
// clamped to [0,100]. No alerts means no signal, not a neutral score.
func AlertsScore(alerts []repository.Alert) float64 {
	if len(alerts) == 0 {
		return 0
	}
	total := 0.0
	for _, alert := range alerts {
		weight, ok := alertTypeWeights[alert.Type]
		if !ok {
			weight = alertWeightDefault
		}
		total += weight * float64(alert.Count)
	}
	score := total * 2
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

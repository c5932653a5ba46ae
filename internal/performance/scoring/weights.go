package scoring

import (
	"strings"

	"agency_portal_backend/internal/performance/repository"
)

// Plan types with dedicated weight tables. Anything else scores as
// full_service.
const (
	PlanSEO            = "seo"
	PlanPaidMedia      = "paid_media"
	PlanAIOptimization = "ai_optimization"
	PlanFullService    = "full_service"
)

// planWeights maps each plan type to its metric weight table. Every table
// sums to 100.
var planWeights = map[string]map[string]float64{
	PlanSEO: {
		repository.MetricKeywords:     35,
		repository.MetricVisitors:     20,
		repository.MetricLeads:        20,
		repository.MetricAIVisibility: 5,
		repository.MetricConversions:  10,
		repository.MetricAlerts:       10,
	},
	PlanPaidMedia: {
		repository.MetricKeywords:     5,
		repository.MetricVisitors:     25,
		repository.MetricLeads:        30,
		repository.MetricAIVisibility: 5,
		repository.MetricConversions:  25,
		repository.MetricAlerts:       10,
	},
	PlanAIOptimization: {
		repository.MetricKeywords:     15,
		repository.MetricVisitors:     15,
		repository.MetricLeads:        15,
		repository.MetricAIVisibility: 35,
		repository.MetricConversions:  10,
		repository.MetricAlerts:       10,
	},
	PlanFullService: {
		repository.MetricKeywords:     20,
		repository.MetricVisitors:     20,
		repository.MetricLeads:        20,
		repository.MetricAIVisibility: 15,
		repository.MetricConversions:  15,
		repository.MetricAlerts:       10,
	},
}

// NormalizePlanType lowercases and collapses separator variants so
// "Paid Media", "paid-media" and "paid_media" all hit the same table.
func NormalizePlanType(planType string) string {
	normalized := strings.ToLower(strings.TrimSpace(planType))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	if _, ok := planWeights[normalized]; !ok {
		return PlanFullService
	}
	return normalized
}

// WeightsForPlan returns a copy of the plan's weight table, safe to mutate.
func WeightsForPlan(planType string) map[string]float64 {
	table := planWeights[NormalizePlanType(planType)]
	weights := make(map[string]float64, len(table))
	for metric, weight := range table {
		weights[metric] = weight
	}
	return weights
}

// RedistributeWeights drops the excluded metrics (features the client has not
// purchased) and rescales the rest proportionally so they still sum to 100.
// Excluding everything yields an empty map.
func RedistributeWeights(weights map[string]float64, excluded map[string]bool) map[string]float64 {
	remaining := make(map[string]float64, len(weights))
	sum := 0.0
	for metric, weight := range weights {
		if excluded[metric] {
			continue
		}
		remaining[metric] = weight
		sum += weight
	}
	if sum == 0 {
		return map[string]float64{}
	}

	scale := 100 / sum
	for metric := range remaining {
		remaining[metric] *= scale
	}
	return remaining
}

package scoring

import (
	"math"
	"testing"

	"agency_portal_backend/internal/performance/repository"
)

func TestPlanWeightTablesSumTo100(t *testing.T) {
	for plan, table := range planWeights {
		sum := 0.0
		for _, weight := range table {
			sum += weight
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Errorf("plan %s weights sum to %v, expected 100", plan, sum)
		}
	}
}

func TestNormalizePlanType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"seo", PlanSEO},
		{"SEO", PlanSEO},
		{"Paid Media", PlanPaidMedia},
		{"paid-media", PlanPaidMedia},
		{"  ai_optimization  ", PlanAIOptimization},
		{"full_service", PlanFullService},
		{"enterprise", PlanFullService},
		{"", PlanFullService},
	}
	for _, tc := range cases {
		if got := NormalizePlanType(tc.in); got != tc.want {
			t.Errorf("NormalizePlanType(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestWeightsForPlanReturnsCopy(t *testing.T) {
	first := WeightsForPlan(PlanSEO)
	first[repository.MetricKeywords] = 0

	second := WeightsForPlan(PlanSEO)
	if second[repository.MetricKeywords] != 35 {
		t.Fatalf("mutating a returned table leaked into the source: %v", second)
	}
}

func TestRedistributeWeightsKeepsSum100(t *testing.T) {
	weights := WeightsForPlan(PlanSEO)
	excluded := map[string]bool{
		repository.MetricAIVisibility: true,
		repository.MetricConversions:  true,
	}

	got := RedistributeWeights(weights, excluded)

	if len(got) != 4 {
		t.Fatalf("expected 4 surviving metrics, got %d", len(got))
	}
	sum := 0.0
	for metric, weight := range got {
		if excluded[metric] {
			t.Fatalf("excluded metric %s survived redistribution", metric)
		}
		sum += weight
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("redistributed weights sum to %v, expected 100", sum)
	}

	// Proportions are preserved: keywords was 35 of 85 remaining.
	want := 35.0 * 100 / 85
	if math.Abs(got[repository.MetricKeywords]-want) > 1e-9 {
		t.Fatalf("expected keywords weight %v, got %v", want, got[repository.MetricKeywords])
	}
}

func TestRedistributeWeightsAllExcluded(t *testing.T) {
	weights := WeightsForPlan(PlanFullService)
	excluded := make(map[string]bool, len(weights))
	for metric := range weights {
		excluded[metric] = true
	}

	got := RedistributeWeights(weights, excluded)
	if len(got) != 0 {
		t.Fatalf("expected empty map when everything is excluded, got %v", got)
	}
}

func TestRedistributeWeightsNothingExcluded(t *testing.T) {
	weights := WeightsForPlan(PlanPaidMedia)
	got := RedistributeWeights(weights, nil)

	for metric, weight := range weights {
		if math.Abs(got[metric]-weight) > 1e-9 {
			t.Fatalf("weight for %s changed with nothing excluded: %v != %v", metric, got[metric], weight)
		}
	}
}

package scoring

import (
	"testing"
	"time"

	"agency_portal_backend/internal/performance/repository"
)

func TestVelocity(t *testing.T) {
	cases := []struct {
		name         string
		improvements int
		months       float64
		want         float64
	}{
		{"steady pace", 6, 3, 2},
		{"zero months", 6, 0, 0},
		{"negative months", 6, -1, 0},
		{"no improvements", 0, 5, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Velocity(tc.improvements, tc.months); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestExpectedVelocityTapersWithMaturity(t *testing.T) {
	stages := []string{
		repository.StageSeedling,
		repository.StageSprouting,
		repository.StageBlooming,
		repository.StageHarvesting,
	}
	previous := ExpectedVelocity(stages[0])
	if previous != 2.0 {
		t.Fatalf("expected seedling pace 2.0, got %v", previous)
	}
	for _, stage := range stages[1:] {
		current := ExpectedVelocity(stage)
		if current >= previous {
			t.Fatalf("expected pace to taper at %s: %v >= %v", stage, current, previous)
		}
		previous = current
	}

	if got := ExpectedVelocity("prospect"); got != 0 {
		t.Fatalf("unknown stage must expect 0, got %v", got)
	}
}

func TestIsInRampPeriod(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	daysAgo := func(d int) *time.Time {
		ts := now.Add(-time.Duration(d) * 24 * time.Hour)
		return &ts
	}

	cases := []struct {
		name      string
		startDate *time.Time
		planType  string
		want      bool
	}{
		{"no start date always ramping", nil, PlanSEO, true},
		{"seo inside 90d window", daysAgo(89), PlanSEO, true},
		{"seo at window edge", daysAgo(90), PlanSEO, false},
		{"paid media ramps fastest", daysAgo(31), PlanPaidMedia, false},
		{"unknown plan uses full service window", daysAgo(59), "enterprise", true},
		{"unknown plan past window", daysAgo(61), "enterprise", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsInRampPeriod(tc.startDate, tc.planType, now); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestVelocityModifier(t *testing.T) {
	cases := []struct {
		name     string
		velocity float64
		expected float64
		inRamp   bool
		want     float64
	}{
		{"ramp is always neutral", 0, 2.0, true, 1.0},
		{"ramp overrides ahead pace", 10, 2.0, true, 1.0},
		{"zero expected is neutral", 3, 0, false, 1.0},
		{"ahead", 4.0, 2.0, false, 1.15},
		{"exactly at ahead ratio", 3.0, 2.0, false, 1.15},
		{"on pace", 2.0, 2.0, false, 1.0},
		{"slightly behind", 1.5, 2.0, false, 0.85},
		{"exactly at behind ratio", 1.0, 2.0, false, 0.85},
		{"stalled", 0.5, 2.0, false, 0.70},
		{"dead stop", 0, 2.0, false, 0.70},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := VelocityModifier(tc.velocity, tc.expected, tc.inRamp)
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

package scoring

import (
	"math"
	"testing"

	"agency_portal_backend/internal/performance/repository"
)

func TestCalculateDelta(t *testing.T) {
	cases := []struct {
		name          string
		current       float64
		previous      float64
		lowerIsBetter bool
		want          float64
	}{
		{"no change", 100, 100, false, 0},
		{"doubled", 200, 100, false, 100},
		{"halved", 50, 100, false, -50},
		{"growth from nothing", 5, 0, false, 25},
		{"still nothing", 0, 0, false, 0},
		{"rank improved", 3, 10, true, 70},
		{"rank worsened", 15, 10, true, -50},
		{"rank from nothing", 4, 0, true, -25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateDelta(tc.current, tc.previous, tc.lowerIsBetter)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("CalculateDelta(%v, %v, %v): expected %v, got %v",
					tc.current, tc.previous, tc.lowerIsBetter, tc.want, got)
			}
		})
	}
}

func TestDeltaToPoints(t *testing.T) {
	cases := []struct {
		name  string
		delta float64
		want  int
	}{
		{"no change is neutral", 0, 50},
		{"moderate gain", 20, 70},
		{"moderate loss", -20, 30},
		{"clamped high", 500, 100},
		{"clamped low", -500, 0},
		{"exactly at ceiling", 50, 100},
		{"exactly at floor", -50, 0},
		{"rounds half up", 0.5, 51},
		{"nan is neutral", math.NaN(), 50},
		{"positive infinity is neutral", math.Inf(1), 50},
		{"negative infinity is neutral", math.Inf(-1), 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeltaToPoints(tc.delta); got != tc.want {
				t.Errorf("DeltaToPoints(%v): expected %d, got %d", tc.delta, tc.want, got)
			}
		})
	}
}

func TestDeltaToPointsAlwaysInRange(t *testing.T) {
	for delta := -1000.0; delta <= 1000.0; delta += 7.3 {
		got := DeltaToPoints(delta)
		if got < 0 || got > 100 {
			t.Fatalf("DeltaToPoints(%v) = %d, outside [0,100]", delta, got)
		}
	}
}

func TestAlertsScore(t *testing.T) {
	cases := []struct {
		name   string
		alerts []repository.Alert
		want   float64
	}{
		{"no alerts no signal", nil, 0},
		{"lead increase", []repository.Alert{{Type: "lead_increase", Count: 1}}, 30},
		{"keyword ranking", []repository.Alert{{Type: "keyword_ranking", Count: 2}}, 40},
		{"unknown type uses default", []repository.Alert{{Type: "traffic_spike", Count: 1}}, 10},
		{
			"mixed types",
			[]repository.Alert{
				{Type: "lead_increase", Count: 1},
				{Type: "keyword_ranking", Count: 1},
			},
			50,
		},
		{"clamped at 100", []repository.Alert{{Type: "lead_increase", Count: 10}}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AlertsScore(tc.alerts); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

package scoring

import (
	"math"
	"time"

	"agency_portal_backend/internal/performance/repository"
)

// Inputs is the fact snapshot the pure performance computation consumes.
type Inputs struct {
	Client  repository.Client
	Metrics []repository.MetricPair
	Alerts  []repository.Alert
}

// MetricScore is one metric's contribution, kept for the detail view.
type MetricScore struct {
	Metric string  `json:"metric"`
	Delta  float64 `json:"delta"`
	Points int     `json:"points"`
	Weight float64 `json:"weight"`
}

// Result is the full performance evaluation for one client.
type Result struct {
	Score            int           `json:"score"`
	BaseScore        float64       `json:"base_score"`
	VelocityModifier float64       `json:"velocity_modifier"`
	Velocity         float64       `json:"velocity"`
	ExpectedVelocity float64       `json:"expected_velocity"`
	InRampPeriod     bool          `json:"in_ramp_period"`
	GrowthStage      string        `json:"growth_stage"`
	Status           StatusBand    `json:"status"`
	Label            string        `json:"label"`
	Flags            []string      `json:"flags"`
	MetricScores     []MetricScore `json:"metric_scores"`
}

// Compute evaluates one client's marketing performance at the given instant.
// final = round(clamp(base × velocityModifier, 0, 100)).
func Compute(in Inputs, now time.Time) Result {
	ageDays := in.Client.AgeDays(now)
	stage := GrowthStageForAge(ageDays)

	weights := WeightsForPlan(in.Client.PlanType)
	metricScores := scoreMetrics(in, weights)
	base := weightedAverage(metricScores)

	inRamp := IsInRampPeriod(in.Client.StartDate, in.Client.PlanType, now)
	velocity := Velocity(in.Client.ImprovementsTotal, in.Client.MonthsActive(now))
	expected := ExpectedVelocity(stage)
	modifier := VelocityModifier(velocity, expected, inRamp)

	final := int(math.Round(clamp(base*modifier, 0, 100)))

	return Result{
		Score:            final,
		BaseScore:        base,
		VelocityModifier: modifier,
		Velocity:         velocity,
		ExpectedVelocity: expected,
		InRampPeriod:     inRamp,
		GrowthStage:      stage,
		Status:           StatusForScore(final),
		Label:            EvaluationLabel(stage, final),
		Flags:            Flags(stage, final),
		MetricScores:     metricScores,
	}
}

// scoreMetrics scores every metric that has data. Metrics without a snapshot
// are excluded and their weight redistributed, not scored as zero. Alerts
// count as having data only when at least one alert row exists.
func scoreMetrics(in Inputs, weights map[string]float64) []MetricScore {
	excluded := make(map[string]bool, len(weights))
	for metric := range weights {
		excluded[metric] = true
	}

	pairs := make(map[string]repository.MetricPair, len(in.Metrics))
	for _, pair := range in.Metrics {
		if _, ok := weights[pair.Metric]; !ok {
			continue
		}
		pairs[pair.Metric] = pair
		excluded[pair.Metric] = false
	}
	if len(in.Alerts) > 0 {
		excluded[repository.MetricAlerts] = false
	}

	effective := RedistributeWeights(weights, excluded)

	scores := make([]MetricScore, 0, len(effective))
	for metric, weight := range effective {
		if metric == repository.MetricAlerts {
			points := int(math.Round(AlertsScore(in.Alerts)))
			scores = append(scores, MetricScore{Metric: metric, Points: points, Weight: weight})
			continue
		}
		pair := pairs[metric]
		delta := CalculateDelta(pair.Current, pair.Previous, pair.LowerIsBetter)
		scores = append(scores, MetricScore{
			Metric: metric,
			Delta:  delta,
			Points: DeltaToPoints(delta),
			Weight: weight,
		})
	}
	return scores
}

func weightedAverage(scores []MetricScore) float64 {
	totalWeight := 0.0
	weighted := 0.0
	for _, s := range scores {
		weighted += float64(s.Points) * s.Weight
		totalWeight += s.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
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

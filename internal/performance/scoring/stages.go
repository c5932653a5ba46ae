package scoring

import "agency_portal_backend/internal/performance/repository"

// Growth-stage boundaries in days. Intervals are half-open: day 90 is
// sprouting, day 365 is harvesting.
const (
	sproutingFromDays  = 90
	bloomingFromDays   = 180
	harvestingFromDays = 365
)

// GrowthStageForAge derives the lifecycle stage from tenure alone; the score
// never moves a client between stages.
func GrowthStageForAge(ageDays int) string {
	switch {
	case ageDays >= harvestingFromDays:
		return repository.StageHarvesting
	case ageDays >= bloomingFromDays:
		return repository.StageBlooming
	case ageDays >= sproutingFromDays:
		return repository.StageSprouting
	default:
		return repository.StageSeedling
	}
}

// StatusBand is a stage-independent health classification with a fixed
// display color.
type StatusBand struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var statusBands = []struct {
	minScore int
	band     StatusBand
}{
	{80, StatusBand{Name: "Thriving", Color: "#22c55e"}},
	{60, StatusBand{Name: "Healthy", Color: "#84cc16"}},
	{40, StatusBand{Name: "Needs Attention", Color: "#eab308"}},
	{20, StatusBand{Name: "At Risk", Color: "#f97316"}},
	{0, StatusBand{Name: "Critical", Color: "#ef4444"}},
}

// StatusForScore maps a 0-100 score onto its band.
func StatusForScore(score int) StatusBand {
	for _, entry := range statusBands {
		if score >= entry.minScore {
			return entry.band
		}
	}
	return statusBands[len(statusBands)-1].band
}

// evaluationLabels is the stage × score-band label table: five bands per
// stage, worded for where the client is in its lifecycle. Harvesting bands
// use retention language since those clients are the book of business.
var evaluationLabels = map[string][]string{
	repository.StageSeedling: {
		"Exceptional Start",
		"Strong Foundation",
		"Finding Footing",
		"Slow Start",
		"Stalled Launch",
	},
	repository.StageSprouting: {
		"Breakout Growth",
		"Gaining Momentum",
		"Steady Progress",
		"Losing Steam",
		"Growth Stalled",
	},
	repository.StageBlooming: {
		"Peak Performance",
		"Strong Performer",
		"Holding Steady",
		"Underperforming",
		"Needs Intervention",
	},
	repository.StageHarvesting: {
		"Cornerstone Client",
		"Reliable Partner",
		"Maintenance Mode",
		"Retention Risk",
		"Churn Imminent",
	},
}

// EvaluationLabel picks the stage-appropriate wording for a score band.
// Unknown stages read as seedling, the most neutral framing.
func EvaluationLabel(growthStage string, score int) string {
	labels, ok := evaluationLabels[growthStage]
	if !ok {
		labels = evaluationLabels[repository.StageSeedling]
	}
	switch {
	case score >= 80:
		return labels[0]
	case score >= 60:
		return labels[1]
	case score >= 40:
		return labels[2]
	case score >= 20:
		return labels[3]
	default:
		return labels[4]
	}
}

// Flags are independent boolean rules on (score, stage); zero, one or several
// may apply to the same client.
func Flags(growthStage string, score int) []string {
	var flags []string
	if score < 20 {
		flags = append(flags, "Critical")
	}
	if score < 40 && growthStage == repository.StageHarvesting {
		flags = append(flags, "Churn Risk")
	}
	if score >= 80 && growthStage == repository.StageHarvesting {
		flags = append(flags, "Premium Candidate")
	}
	if score >= 80 && growthStage == repository.StageSprouting {
		flags = append(flags, "Fast Tracker")
	}
	if score < 40 && growthStage == repository.StageBlooming {
		flags = append(flags, "Problem Account")
	}
	return flags
}

package pipeline

import (
	"context"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/platform/logger"
)

// atRiskConfidence matches the summary's at-risk bucket threshold.
const atRiskConfidence = 30

// activityListener is the in-process consumer for the pipeline domain
// events. Scoring and lifecycle flows publish fire-and-forget; the listener
// turns those events into the structured activity log, warning when a score
// lands in the at-risk range.
type activityListener struct {
	log *logger.Logger
}

func (l *activityListener) Handle(_ context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.DealScored:
		l.log.Info("deal scored",
			"recommendationId", e.RecommendationID,
			"confidenceScore", e.ConfidenceScore,
			"trigger", e.TriggerSource,
		)
		if e.ConfidenceScore < atRiskConfidence {
			l.log.Warn("deal confidence at risk",
				"recommendationId", e.RecommendationID,
				"confidenceScore", e.ConfidenceScore,
			)
		}
	case events.DealArchived:
		l.log.Info("deal archived", "recommendationId", e.RecommendationID)
	case events.DealRevived:
		l.log.Info("deal revived", "recommendationId", e.RecommendationID)
	}
	return nil
}

// Compile-time check that the listener implements events.Handler
var _ events.Handler = (*activityListener)(nil)

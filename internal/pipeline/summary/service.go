package summary

import (
	"context"
	"math"
	"time"

	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/platform/apperr"
	"agency_portal_backend/platform/logger"
)

// Bucket thresholds. A deal closes soon only when it is both confident and
// mature; a fresh deal with a high score still sits in the pipeline.
const (
	closingSoonMinConfidence = 70
	closingSoonMinAgeDays    = 14
	atRiskBelowConfidence    = 30

	// closingSoonListLimit truncates the member list in the response. The
	// bucket's count and totals stay unbounded.
	closingSoonListLimit = 10
)

// Bucket names as exposed in the summary payload.
const (
	BucketOnHold      = "on_hold"
	BucketClosingSoon = "closing_soon"
	BucketInPipeline  = "in_pipeline"
	BucketAtRisk      = "at_risk"
)

// BucketSummary aggregates the deals assigned to one bucket.
type BucketSummary struct {
	DealCount     int     `json:"deal_count"`
	WeightedMRR   float64 `json:"weighted_mrr"`
	RawMRR        float64 `json:"raw_mrr"`
	AvgConfidence int     `json:"avg_confidence"`
}

// DealSummary is the per-deal projection returned in the closing-soon list.
type DealSummary struct {
	ID              string  `json:"id"`
	ClientName      string  `json:"client_name"`
	Status          string  `json:"status"`
	ConfidenceScore int     `json:"confidence_score"`
	WeightedMonthly float64 `json:"weighted_monthly"`
	AgeDays         int     `json:"age_days"`
}

// RevenueSummary is the full pipeline forecast for one tenant dashboard.
type RevenueSummary struct {
	CurrentMRR       float64       `json:"current_mrr"`
	ActiveClients    int           `json:"active_clients"`
	ProjectedMRR     float64       `json:"projected_mrr"`
	PotentialGrowth  float64       `json:"potential_growth"`
	OnHold           BucketSummary `json:"on_hold"`
	ClosingSoon      BucketSummary `json:"closing_soon"`
	InPipeline       BucketSummary `json:"in_pipeline"`
	AtRisk           BucketSummary `json:"at_risk"`
	ClosingSoonDeals []DealSummary `json:"closing_soon_deals"`
	LastUpdated      *time.Time    `json:"last_updated"`
}

// Service aggregates open deals into the pipeline revenue summary.
type Service struct {
	store repository.PipelineReader
	log   *logger.Logger
	now   func() time.Time
}

func NewService(store repository.PipelineReader, log *logger.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

// Summarize buckets every open deal and derives the MRR forecast. The
// forecast deliberately counts only closing-soon and in-pipeline revenue;
// at-risk and snoozed deals contribute nothing to projected MRR.
func (s *Service) Summarize(ctx context.Context, currentMRR float64, activeClients int) (RevenueSummary, error) {
	deals, err := s.store.ListOpenDeals(ctx)
	if err != nil {
		return RevenueSummary{}, apperr.Wrap(apperr.KindInternal, "load open deals", err).WithOp("summary.Summarize")
	}

	now := s.now().UTC()

	var (
		acc         = map[string]*bucketAccumulator{}
		closingSoon []DealSummary
		lastUpdated *time.Time
	)
	for _, name := range []string{BucketOnHold, BucketClosingSoon, BucketInPipeline, BucketAtRisk} {
		acc[name] = &bucketAccumulator{}
	}

	for _, deal := range deals {
		age := ageDays(deal, now)
		bucket := classify(deal, age, now)
		acc[bucket].add(deal)

		if bucket == BucketClosingSoon && len(closingSoon) < closingSoonListLimit {
			closingSoon = append(closingSoon, DealSummary{
				ID:              deal.ID.String(),
				ClientName:      deal.ClientName,
				Status:          deal.Status,
				ConfidenceScore: deal.ConfidenceScore,
				WeightedMonthly: deal.WeightedMonthly,
				AgeDays:         age,
			})
		}

		if deal.LastScoredAt != nil && (lastUpdated == nil || deal.LastScoredAt.After(*lastUpdated)) {
			lastUpdated = deal.LastScoredAt
		}
	}

	result := RevenueSummary{
		CurrentMRR:       currentMRR,
		ActiveClients:    activeClients,
		OnHold:           acc[BucketOnHold].summary(),
		ClosingSoon:      acc[BucketClosingSoon].summary(),
		InPipeline:       acc[BucketInPipeline].summary(),
		AtRisk:           acc[BucketAtRisk].summary(),
		ClosingSoonDeals: closingSoon,
		LastUpdated:      lastUpdated,
	}
	result.ProjectedMRR = round2(currentMRR + result.ClosingSoon.WeightedMRR + result.InPipeline.WeightedMRR)
	result.PotentialGrowth = round2(result.ProjectedMRR - currentMRR)
	return result, nil
}

// classify assigns a deal to its bucket, first match wins. A snoozed deal is
// on hold no matter how confident or old it is.
func classify(deal repository.PipelineDeal, age int, now time.Time) string {
	if deal.SnoozedUntil != nil && deal.SnoozedUntil.After(now) {
		return BucketOnHold
	}
	if deal.ConfidenceScore >= closingSoonMinConfidence && age >= closingSoonMinAgeDays {
		return BucketClosingSoon
	}
	if deal.ConfidenceScore < atRiskBelowConfidence {
		return BucketAtRisk
	}
	// Covers [30,69] and high-confidence deals still inside the age window.
	return BucketInPipeline
}

func ageDays(deal repository.PipelineDeal, now time.Time) int {
	ref := deal.AgeReference()
	if ref == nil {
		return 0
	}
	return int(now.Sub(*ref).Hours() / 24)
}

type bucketAccumulator struct {
	count           int
	weightedMRR     float64
	rawMRR          float64
	confidenceTotal int
}

func (a *bucketAccumulator) add(deal repository.PipelineDeal) {
	a.count++
	a.weightedMRR += deal.WeightedMonthly
	a.rawMRR += deal.PredictedMonthly
	a.confidenceTotal += deal.ConfidenceScore
}

func (a *bucketAccumulator) summary() BucketSummary {
	s := BucketSummary{
		DealCount:   a.count,
		WeightedMRR: round2(a.weightedMRR),
		RawMRR:      round2(a.rawMRR),
	}
	if a.count > 0 {
		s.AvgConfidence = int(math.Round(float64(a.confidenceTotal) / float64(a.count)))
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Package webhook provides the public intake endpoints that turn email and
// registration events into invite stamps and score recalculations.
package webhook

import (
	"context"
	"errors"
	"time"

	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/internal/pipeline/scoring"
	"agency_portal_backend/platform/apperr"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Email event types accepted from the delivery provider.
const (
	EventOpen  = "open"
	EventClick = "click"
)

// InviteStamper writes the first-write-wins engagement timestamps and
// resolves the invite token to its recommendation. The timestamp is supplied
// by the caller so the service owns the clock.
type InviteStamper interface {
	StampInviteOpened(ctx context.Context, token string, at time.Time) (uuid.UUID, error)
	StampInviteViewed(ctx context.Context, token string, at time.Time) (uuid.UUID, error)
	StampInviteRegistered(ctx context.Context, token string, at time.Time) (uuid.UUID, error)
}

// Scorer is the fire-and-forget recalculation trigger.
type Scorer interface {
	TriggerRecalculation(recommendationID uuid.UUID, trigger scoring.Trigger)
}

// Service applies webhook events to the fact store. The scoring nudge is
// fire-and-forget: the webhook response never depends on scoring succeeding.
type Service struct {
	stamper InviteStamper
	scorer  Scorer
	log     *logger.Logger
	now     func() time.Time
}

func NewService(stamper InviteStamper, scorer Scorer, log *logger.Logger) *Service {
	return &Service{stamper: stamper, scorer: scorer, log: log, now: time.Now}
}

// HandleEmailEvent stamps the invite for an open or click event. The stamps
// are first-write-wins, so replayed provider events are harmless.
func (s *Service) HandleEmailEvent(ctx context.Context, token, event string) error {
	var (
		recommendationID uuid.UUID
		err              error
		trigger          scoring.Trigger
	)

	at := s.now().UTC()
	switch event {
	case EventOpen:
		recommendationID, err = s.stamper.StampInviteOpened(ctx, token, at)
		trigger = scoring.TriggerEmailOpened
	case EventClick:
		// A click on the proposal link means the proposal was viewed.
		recommendationID, err = s.stamper.StampInviteViewed(ctx, token, at)
		trigger = scoring.TriggerProposalViewed
	default:
		return apperr.New(apperr.KindValidation, "unsupported event type")
	}

	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "unknown invite token")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "stamp invite", err).WithOp("webhook.HandleEmailEvent")
	}

	s.scorer.TriggerRecalculation(recommendationID, trigger)
	return nil
}

// HandleRegistration stamps account creation on the invite.
func (s *Service) HandleRegistration(ctx context.Context, token string) error {
	recommendationID, err := s.stamper.StampInviteRegistered(ctx, token, s.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.New(apperr.KindNotFound, "unknown invite token")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "stamp invite", err).WithOp("webhook.HandleRegistration")
	}

	s.scorer.TriggerRecalculation(recommendationID, scoring.TriggerAccountCreated)
	return nil
}

// Compile-time check that the pipeline repository satisfies InviteStamper.
var _ InviteStamper = (*repository.Repository)(nil)

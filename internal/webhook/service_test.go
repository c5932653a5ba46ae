package webhook

import (
	"context"
	"testing"
	"time"

	"agency_portal_backend/internal/pipeline/repository"
	"agency_portal_backend/internal/pipeline/scoring"
	"agency_portal_backend/platform/apperr"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStamper struct {
	recommendationID uuid.UUID
	opened           []string
	viewed           []string
	registered       []string
	stampedAt        []time.Time
	err              error
}

func (f *fakeStamper) StampInviteOpened(_ context.Context, token string, at time.Time) (uuid.UUID, error) {
	f.opened = append(f.opened, token)
	f.stampedAt = append(f.stampedAt, at)
	return f.recommendationID, f.err
}

func (f *fakeStamper) StampInviteViewed(_ context.Context, token string, at time.Time) (uuid.UUID, error) {
	f.viewed = append(f.viewed, token)
	f.stampedAt = append(f.stampedAt, at)
	return f.recommendationID, f.err
}

func (f *fakeStamper) StampInviteRegistered(_ context.Context, token string, at time.Time) (uuid.UUID, error) {
	f.registered = append(f.registered, token)
	f.stampedAt = append(f.stampedAt, at)
	return f.recommendationID, f.err
}

type fakeScorer struct {
	triggered []scoring.Trigger
	ids       []uuid.UUID
}

func (f *fakeScorer) TriggerRecalculation(id uuid.UUID, trigger scoring.Trigger) {
	f.ids = append(f.ids, id)
	f.triggered = append(f.triggered, trigger)
}

func TestHandleEmailEventOpen(t *testing.T) {
	stamper := &fakeStamper{recommendationID: uuid.New()}
	scorer := &fakeScorer{}
	svc := NewService(stamper, scorer, logger.New("test"))
	fixed := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if err := svc.HandleEmailEvent(context.Background(), "tok-123", EventOpen); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stamper.opened) != 1 || stamper.opened[0] != "tok-123" {
		t.Fatalf("expected open stamp for tok-123, got %v", stamper.opened)
	}
	if len(stamper.viewed) != 0 {
		t.Fatal("open event must not stamp viewed")
	}
	if len(stamper.stampedAt) != 1 || !stamper.stampedAt[0].Equal(fixed) {
		t.Fatalf("expected service clock %v on the stamp, got %v", fixed, stamper.stampedAt)
	}
	if len(scorer.triggered) != 1 || scorer.triggered[0] != scoring.TriggerEmailOpened {
		t.Fatalf("expected email_opened trigger, got %v", scorer.triggered)
	}
	if scorer.ids[0] != stamper.recommendationID {
		t.Fatal("trigger must target the invite's recommendation")
	}
}

func TestHandleEmailEventClickStampsViewed(t *testing.T) {
	stamper := &fakeStamper{recommendationID: uuid.New()}
	scorer := &fakeScorer{}
	svc := NewService(stamper, scorer, logger.New("test"))

	if err := svc.HandleEmailEvent(context.Background(), "tok-123", EventClick); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stamper.viewed) != 1 {
		t.Fatalf("expected viewed stamp, got %v", stamper.viewed)
	}
	if len(scorer.triggered) != 1 || scorer.triggered[0] != scoring.TriggerProposalViewed {
		t.Fatalf("expected proposal_viewed trigger, got %v", scorer.triggered)
	}
}

func TestHandleEmailEventUnknownType(t *testing.T) {
	stamper := &fakeStamper{}
	scorer := &fakeScorer{}
	svc := NewService(stamper, scorer, logger.New("test"))

	err := svc.HandleEmailEvent(context.Background(), "tok-123", "bounce")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(stamper.opened)+len(stamper.viewed) != 0 {
		t.Fatal("unknown event must not stamp anything")
	}
	if len(scorer.triggered) != 0 {
		t.Fatal("unknown event must not trigger scoring")
	}
}

func TestHandleEmailEventUnknownToken(t *testing.T) {
	stamper := &fakeStamper{err: repository.ErrNotFound}
	scorer := &fakeScorer{}
	svc := NewService(stamper, scorer, logger.New("test"))

	err := svc.HandleEmailEvent(context.Background(), "bogus", EventOpen)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if len(scorer.triggered) != 0 {
		t.Fatal("unknown token must not trigger scoring")
	}
}

func TestHandleRegistration(t *testing.T) {
	stamper := &fakeStamper{recommendationID: uuid.New()}
	scorer := &fakeScorer{}
	svc := NewService(stamper, scorer, logger.New("test"))

	if err := svc.HandleRegistration(context.Background(), "tok-456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stamper.registered) != 1 || stamper.registered[0] != "tok-456" {
		t.Fatalf("expected registration stamp, got %v", stamper.registered)
	}
	if len(scorer.triggered) != 1 || scorer.triggered[0] != scoring.TriggerAccountCreated {
		t.Fatalf("expected account_created trigger, got %v", scorer.triggered)
	}
}

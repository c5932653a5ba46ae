package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"agency_portal_backend/internal/events"
	"agency_portal_backend/platform/logger"

	"github.com/google/uuid"
)

func capturingLogger(buf *bytes.Buffer) *logger.Logger {
	return &logger.Logger{Logger: slog.New(slog.NewTextHandler(buf, nil))}
}

func TestActivityListenerLogsScoredDeals(t *testing.T) {
	var buf bytes.Buffer
	listener := &activityListener{log: capturingLogger(&buf)}
	id := uuid.New()

	err := listener.Handle(context.Background(), events.DealScored{
		RecommendationID: id,
		ConfidenceScore:  85,
		TriggerSource:    "call_score_updated",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "deal scored") {
		t.Fatalf("expected scored entry, got %q", out)
	}
	if !strings.Contains(out, id.String()) || !strings.Contains(out, "confidenceScore=85") {
		t.Fatalf("expected event fields in entry, got %q", out)
	}
	if strings.Contains(out, "at risk") {
		t.Fatalf("healthy score must not warn, got %q", out)
	}
}

func TestActivityListenerWarnsOnAtRiskScore(t *testing.T) {
	var buf bytes.Buffer
	listener := &activityListener{log: capturingLogger(&buf)}

	err := listener.Handle(context.Background(), events.DealScored{
		RecommendationID: uuid.New(),
		ConfidenceScore:  25,
		TriggerSource:    "stale_score",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "deal confidence at risk") {
		t.Fatalf("expected at-risk warning, got %q", out)
	}
}

func TestRegisterHandlersReceivesLifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	log := capturingLogger(&buf)
	bus := events.NewInMemoryBus(log)
	m := &Module{listener: &activityListener{log: log}}
	m.RegisterHandlers(bus)

	ctx := context.Background()
	id := uuid.New()
	if err := bus.PublishSync(ctx, events.DealArchived{RecommendationID: id}); err != nil {
		t.Fatalf("publish archived: %v", err)
	}
	if err := bus.PublishSync(ctx, events.DealRevived{RecommendationID: id}); err != nil {
		t.Fatalf("publish revived: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "deal archived") {
		t.Fatalf("expected archived entry, got %q", out)
	}
	if !strings.Contains(out, "deal revived") {
		t.Fatalf("expected revived entry, got %q", out)
	}
}

package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

func TestFlushOutboxRoutesByClass(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	f.registerJuror(t, "j1", 150)
	f.openDispute(t, "alice", "bob", "open-flush")

	sent, err := f.svc.FlushOutbox(context.Background())
	if err != nil {
		t.Fatalf("flush outbox: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 records flushed, got %d", sent)
	}
	domainEvents := f.domainPub.Events()
	if len(domainEvents) != 1 || domainEvents[0].EventType != domain.EventDisputeOpened {
		t.Fatalf("expected one dispute.opened domain event, got %+v", domainEvents)
	}
	if domainEvents[0].PartitionKey != "1" || domainEvents[0].PartitionKeyPath != "data.dispute_id" {
		t.Fatalf("unexpected partitioning: %+v", domainEvents[0])
	}
	analyticsEvents := f.analyticsPub.Events()
	if len(analyticsEvents) != 1 || analyticsEvents[0].EventType != domain.EventJurorRegistered {
		t.Fatalf("expected one juror.registered analytics event, got %+v", analyticsEvents)
	}
	if analyticsEvents[0].PartitionKey != "j1" {
		t.Fatalf("expected juror-keyed analytics event, got %s", analyticsEvents[0].PartitionKey)
	}

	// Sent records never flush twice.
	sent, err = f.svc.FlushOutbox(context.Background())
	if err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected idle flush, got %d", sent)
	}
}

func TestFlushOutboxDeadLettersFailedDomainPublish(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	f.svc = f.withFailingDomainPublisher(t)
	f.openDispute(t, "alice", "bob", "open-dlq")

	sent, err := f.svc.FlushOutbox(context.Background())
	if err != nil {
		t.Fatalf("flush outbox: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected record consumed via dlq, got %d", sent)
	}
	records := f.dlqPub.Records()
	if len(records) != 1 || records[0].OriginalEvent.EventType != domain.EventDisputeOpened {
		t.Fatalf("expected dead-lettered dispute.opened, got %+v", records)
	}
}

func TestHandleCanonicalEventRejectsUnknownAndMalformed(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	event := contracts.EventEnvelope{
		EventID:          "evt-1",
		EventType:        "campaign.launched",
		EventClass:       domain.CanonicalEventClassDomain,
		OccurredAt:       time.Now().UTC(),
		PartitionKeyPath: "data.campaign_id",
		PartitionKey:     "cmp-1",
		SourceService:    "M08-Campaign-Service",
		TraceID:          "trace-1",
		SchemaVersion:    "v1",
		Data:             []byte(`{"campaign_id":"cmp-1"}`),
	}
	if err := f.svc.HandleCanonicalEvent(context.Background(), event); !errors.Is(err, domain.ErrUnsupportedEventType) {
		t.Fatalf("expected ErrUnsupportedEventType, got %v", err)
	}

	malformed := event
	malformed.EventID = ""
	if err := f.svc.HandleCanonicalEvent(context.Background(), malformed); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

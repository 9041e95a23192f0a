package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/ports"
)

func validateEnvelope(event contracts.EventEnvelope) error {
	if event.EventID == "" || event.EventType == "" || event.PartitionKey == "" {
		return domain.ErrInvalidEnvelope
	}
	if event.OccurredAt.IsZero() {
		return domain.ErrInvalidEnvelope
	}
	wantPath := domain.CanonicalPartitionKeyPath(event.EventType)
	if wantPath != "" && event.PartitionKeyPath != wantPath {
		return fmt.Errorf("%w: partition key path %q, want %q", domain.ErrInvalidEnvelope, event.PartitionKeyPath, wantPath)
	}
	return nil
}

// HandleCanonicalEvent is the consumer entry point. The tribunal subscribes
// to no upstream canonical events today, so anything that arrives is either
// malformed or misrouted.
func (s *Service) HandleCanonicalEvent(ctx context.Context, event contracts.EventEnvelope) error {
	if err := validateEnvelope(event); err != nil {
		return err
	}
	if !domain.IsCanonicalInputEvent(event.EventType) {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedEventType, event.EventType)
	}
	return domain.ErrUnsupportedEventType
}

// FlushOutbox drains pending outbox records to the publishers. Domain events
// are deduplicated by event id and dead-lettered on publish failure;
// analytics events are best effort. Returns the number of records marked
// sent.
func (s *Service) FlushOutbox(ctx context.Context) (int, error) {
	if s.outbox == nil {
		return 0, nil
	}
	pending, err := s.outbox.ListPending(ctx, s.cfg.OutboxFlushBatchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, record := range pending {
		switch record.EventClass {
		case domain.CanonicalEventClassDomain:
			if err := s.publishDomainRecord(ctx, record); err != nil {
				return sent, err
			}
		case domain.CanonicalEventClassAnalyticsOnly:
			if s.analytics != nil {
				// Analytics loss is tolerable; the record is not retried.
				_ = s.analytics.PublishAnalytics(ctx, record.Envelope)
			}
		default:
			return sent, fmt.Errorf("%w: %s", domain.ErrUnsupportedEventClass, record.EventClass)
		}
		if err := s.outbox.MarkSent(ctx, record.RecordID, s.nowFn()); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (s *Service) publishDomainRecord(ctx context.Context, record ports.OutboxRecord) error {
	now := s.nowFn()
	if s.eventDedup != nil {
		dup, err := s.eventDedup.IsDuplicate(ctx, record.Envelope.EventID, now)
		if err != nil {
			return err
		}
		if dup {
			return nil
		}
	}
	if err := s.domainEvents.PublishDomain(ctx, record.Envelope); err != nil {
		if s.dlq == nil {
			return err
		}
		dlqErr := s.dlq.PublishDLQ(ctx, contracts.DLQRecord{
			OriginalEvent: record.Envelope,
			ErrorSummary:  err.Error(),
			RetryCount:    1,
			FirstSeenAt:   now,
			LastErrorAt:   now,
			TraceID:       record.Envelope.TraceID,
		})
		if dlqErr != nil {
			return fmt.Errorf("publish failed (%v) and dlq failed: %w", err, dlqErr)
		}
	}
	if s.eventDedup != nil {
		if err := s.eventDedup.MarkProcessed(ctx, record.Envelope.EventID, record.Envelope.EventType, now.Add(s.cfg.EventDedupTTL)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey, traceID string, payload any) error {
	if s.outbox == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	now := s.nowFn()
	envelope := contracts.EventEnvelope{
		EventID:          uuid.NewString(),
		EventType:        eventType,
		EventClass:       domain.CanonicalEventClass(eventType),
		OccurredAt:       now,
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType),
		PartitionKey:     partitionKey,
		SourceService:    s.cfg.ServiceName,
		TraceID:          traceID,
		SchemaVersion:    "v1",
		Data:             data,
	}
	return s.outbox.Enqueue(ctx, ports.OutboxRecord{
		RecordID:   uuid.NewString(),
		EventClass: envelope.EventClass,
		Envelope:   envelope,
		CreatedAt:  now,
	})
}

func disputeKey(disputeID uint64) string {
	return strconv.FormatUint(disputeID, 10)
}

func (s *Service) enqueueDisputeOpened(ctx context.Context, dispute domain.Dispute, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventDisputeOpened, disputeKey(dispute.DisputeID), traceID, contracts.DisputeOpenedPayload{
		DisputeID:    dispute.DisputeID,
		ContentRef:   dispute.ContentRef,
		ChallengerID: dispute.ChallengerID,
		RespondentID: dispute.RespondentID,
		Stake:        dispute.ChallengerStake,
		OpenedAt:     dispute.CreatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueDisputeDefended(ctx context.Context, dispute domain.Dispute, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventDisputeDefended, disputeKey(dispute.DisputeID), traceID, contracts.DisputeDefendedPayload{
		DisputeID:    dispute.DisputeID,
		RespondentID: dispute.RespondentID,
		Stake:        dispute.RespondentStake,
		DefendedAt:   dispute.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueDisputeResolved(ctx context.Context, dispute domain.Dispute, settlement domain.Settlement, traceID string) error {
	resolvedAt := dispute.UpdatedAt
	if dispute.ResolvedAt != nil {
		resolvedAt = *dispute.ResolvedAt
	}
	return s.enqueueEvent(ctx, domain.EventDisputeResolved, disputeKey(dispute.DisputeID), traceID, contracts.DisputeResolvedPayload{
		DisputeID:        dispute.DisputeID,
		Winner:           string(dispute.Winner),
		AmountToWinner:   settlement.WinnerPayout,
		AmountToTreasury: settlement.TreasuryFee,
		ResolvedAt:       resolvedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueDisputeCancelled(ctx context.Context, dispute domain.Dispute, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventDisputeCancelled, disputeKey(dispute.DisputeID), traceID, contracts.DisputeCancelledPayload{
		DisputeID:   dispute.DisputeID,
		Refund:      dispute.ChallengerStake,
		CancelledAt: dispute.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueJuryAssigned(ctx context.Context, jury domain.Jury, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventJuryAssigned, disputeKey(jury.DisputeID), traceID, contracts.JuryAssignedPayload{
		DisputeID:  jury.DisputeID,
		JurorIDs:   jury.Members,
		AssignedAt: jury.AssignedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueVoteSubmitted(ctx context.Context, jury domain.Jury, jurorID string, vote domain.Party, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventVoteSubmitted, disputeKey(jury.DisputeID), traceID, contracts.VoteSubmittedPayload{
		DisputeID:   jury.DisputeID,
		JurorID:     jurorID,
		Vote:        string(vote),
		SubmittedAt: jury.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueJuryDecided(ctx context.Context, jury domain.Jury, verdict domain.Party, traceID string) error {
	decidedAt := jury.UpdatedAt
	if jury.DecidedAt != nil {
		decidedAt = *jury.DecidedAt
	}
	return s.enqueueEvent(ctx, domain.EventJuryDecided, disputeKey(jury.DisputeID), traceID, contracts.JuryDecidedPayload{
		DisputeID:       jury.DisputeID,
		Winner:          string(verdict),
		VotesChallenger: jury.TallyChallenger,
		VotesRespondent: jury.TallyRespondent,
		DecidedAt:       decidedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueJurorRegistered(ctx context.Context, record domain.JurorRecord, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventJurorRegistered, record.JurorID, traceID, contracts.JurorRegisteredPayload{
		JurorID:      record.JurorID,
		Reputation:   record.Reputation,
		RegisteredAt: record.RegisteredAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueJurorReputationUpdated(ctx context.Context, record domain.JurorRecord, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventJurorReputationUpdated, record.JurorID, traceID, contracts.JurorReputationUpdatedPayload{
		JurorID:       record.JurorID,
		NewReputation: record.Reputation,
		UpdatedAt:     record.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueJurorRewarded(ctx context.Context, jurorID string, disputeID uint64, amount int64, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventJurorRewarded, jurorID, traceID, contracts.JurorIncentivePayload{
		JurorID:   jurorID,
		DisputeID: disputeID,
		Amount:    amount,
		AppliedAt: s.nowFn().Format(time.RFC3339Nano),
	})
}

func (s *Service) enqueueJurorSlashed(ctx context.Context, jurorID string, disputeID uint64, amount int64, reason, traceID string) error {
	return s.enqueueEvent(ctx, domain.EventJurorSlashed, jurorID, traceID, contracts.JurorIncentivePayload{
		JurorID:   jurorID,
		DisputeID: disputeID,
		Amount:    amount,
		Reason:    reason,
		AppliedAt: s.nowFn().Format(time.RFC3339Nano),
	})
}

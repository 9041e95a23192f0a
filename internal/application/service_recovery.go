package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

// RetryPendingSettlements re-drives settlement for disputes whose jury is
// decided but whose payout never landed. Safe to run on a timer: a dispute
// already resolved is skipped, and a transfer that fails again simply stays
// pending for the next pass. Returns the number of disputes settled.
func (s *Service) RetryPendingSettlements(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decided, err := s.juries.ListDecided(ctx, s.cfg.SettlementRetryBatchSize)
	if err != nil {
		return 0, err
	}
	settled := 0
	var errs []error
	for _, jury := range decided {
		dispute, err := s.disputes.GetByID(ctx, jury.DisputeID)
		if err != nil {
			errs = append(errs, fmt.Errorf("dispute %d: %w", jury.DisputeID, err))
			continue
		}
		if dispute.Status != domain.DisputeStatusReadyForResolution {
			continue
		}
		verdict, err := jury.Verdict()
		if err != nil {
			errs = append(errs, fmt.Errorf("dispute %d: %w", jury.DisputeID, err))
			continue
		}
		if _, _, err := s.settleLocked(ctx, dispute, verdict, ""); err != nil {
			errs = append(errs, fmt.Errorf("dispute %d: %w", jury.DisputeID, err))
			continue
		}
		settled++
	}
	return settled, errors.Join(errs...)
}

// RetrySettlement is the targeted, authority-driven variant for a single
// dispute stuck behind a decided jury.
func (s *Service) RetrySettlement(ctx context.Context, actor Actor, disputeID uint64) (domain.Dispute, domain.Settlement, error) {
	if err := s.requireActor(actor); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	if _, err := s.requireAuthority(ctx, actor); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jury, err := s.juries.GetByDisputeID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	if jury.Status != domain.JuryStatusDecided {
		return domain.Dispute{}, domain.Settlement{}, domain.ErrInvalidState
	}
	verdict, err := jury.Verdict()
	if err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	return s.settleLocked(ctx, dispute, verdict, actor.RequestID)
}

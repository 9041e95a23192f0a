package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

// OpenDispute locks the challenger stake in escrow and creates the dispute
// in awaiting_defense. The stake is pulled before any record exists: a
// refused transfer leaves no trace of the dispute.
func (s *Service) OpenDispute(ctx context.Context, actor Actor, input OpenDisputeInput) (domain.Dispute, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.Dispute{}, err
	}
	input.ContentRef = strings.TrimSpace(input.ContentRef)
	input.RespondentID = strings.TrimSpace(input.RespondentID)
	if input.ContentRef == "" || input.RespondentID == "" {
		return domain.Dispute{}, domain.ErrInvalidInput
	}
	if s.registry != nil {
		known, err := s.registry.Exists(ctx, input.ContentRef)
		if err != nil {
			return domain.Dispute{}, err
		}
		if !known {
			return domain.Dispute{}, fmt.Errorf("%w: unknown content ref %s", domain.ErrInvalidInput, input.ContentRef)
		}
	}
	requestHash := hashJSON(input)
	var cached domain.Dispute
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Dispute{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Dispute{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	params, err := s.params.Get(ctx)
	if err != nil {
		return domain.Dispute{}, err
	}
	ok, err := s.ledger.TransferFrom(ctx, actor.SubjectID, s.cfg.EscrowAccountID, params.ChallengerStake)
	if err != nil {
		return domain.Dispute{}, err
	}
	if !ok {
		return domain.Dispute{}, fmt.Errorf("%w: challenger stake %d", domain.ErrLedgerTransferFailed, params.ChallengerStake)
	}

	now := s.nowFn()
	dispute := domain.Dispute{
		ContentRef:      input.ContentRef,
		ChallengerID:    actor.SubjectID,
		RespondentID:    input.RespondentID,
		ChallengerStake: params.ChallengerStake,
		Status:          domain.DisputeStatusAwaitingDefense,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	id, err := s.disputes.Create(ctx, dispute)
	if err != nil {
		return domain.Dispute{}, err
	}
	dispute.DisputeID = id
	if err := s.enqueueDisputeOpened(ctx, dispute, actor.RequestID); err != nil {
		return domain.Dispute{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 201, dispute)
	return dispute, nil
}

// DefendDispute locks the respondent stake and moves the dispute to
// ready_for_resolution. Only the named respondent may defend.
func (s *Service) DefendDispute(ctx context.Context, actor Actor, disputeID uint64) (domain.Dispute, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.Dispute{}, err
	}
	requestHash := hashJSON(disputeID)
	var cached domain.Dispute
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Dispute{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Dispute{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, err
	}
	if actor.SubjectID != dispute.RespondentID {
		return domain.Dispute{}, domain.ErrForbidden
	}
	if dispute.RespondentStake != 0 {
		return domain.Dispute{}, domain.ErrAlreadyDefended
	}
	if dispute.Status != domain.DisputeStatusAwaitingDefense {
		return domain.Dispute{}, domain.ErrInvalidState
	}
	params, err := s.params.Get(ctx)
	if err != nil {
		return domain.Dispute{}, err
	}
	ok, err := s.ledger.TransferFrom(ctx, actor.SubjectID, s.cfg.EscrowAccountID, params.RespondentStake)
	if err != nil {
		return domain.Dispute{}, err
	}
	if !ok {
		return domain.Dispute{}, fmt.Errorf("%w: respondent stake %d", domain.ErrLedgerTransferFailed, params.RespondentStake)
	}

	if err := domain.ValidateStatusTransition(dispute.Status, domain.DisputeStatusReadyForResolution); err != nil {
		return domain.Dispute{}, err
	}
	dispute.RespondentStake = params.RespondentStake
	dispute.Status = domain.DisputeStatusReadyForResolution
	dispute.UpdatedAt = s.nowFn()
	if err := s.disputes.Update(ctx, dispute); err != nil {
		return domain.Dispute{}, err
	}
	if err := s.enqueueDisputeDefended(ctx, dispute, actor.RequestID); err != nil {
		return domain.Dispute{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, dispute)
	return dispute, nil
}

// ResolveDispute settles a defended dispute directly by authority decree,
// without a jury.
func (s *Service) ResolveDispute(ctx context.Context, actor Actor, disputeID uint64, input ResolveDisputeInput) (domain.Dispute, domain.Settlement, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	winner := domain.NormalizeParty(input.Winner)
	if winner == domain.PartyNone {
		return domain.Dispute{}, domain.Settlement{}, domain.ErrInvalidInput
	}
	if _, err := s.requireAuthority(ctx, actor); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	requestHash := hashJSON(struct {
		DisputeID uint64       `json:"dispute_id"`
		Winner    domain.Party `json:"winner"`
	}{disputeID, winner})
	var cached resolveResult
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	} else if ok {
		return cached.Dispute, cached.Settlement, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	dispute, settlement, err := s.settleLocked(ctx, dispute, winner, actor.RequestID)
	if err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, resolveResult{Dispute: dispute, Settlement: settlement})
	return dispute, settlement, nil
}

type resolveResult struct {
	Dispute    domain.Dispute    `json:"dispute"`
	Settlement domain.Settlement `json:"settlement"`
}

// settleLocked executes the payout split and marks the dispute resolved.
// Callers hold s.mu and have already authorized the operation. The winner
// leg is recorded on the dispute before the treasury leg runs, so a failed
// fee transfer leaves the dispute in ready_for_resolution with its payout
// progress persisted and a retry resumes at the fee leg instead of paying
// the winner again.
func (s *Service) settleLocked(ctx context.Context, dispute domain.Dispute, winner domain.Party, requestID string) (domain.Dispute, domain.Settlement, error) {
	if dispute.Status != domain.DisputeStatusReadyForResolution {
		return domain.Dispute{}, domain.Settlement{}, domain.ErrInvalidState
	}
	params, err := s.params.Get(ctx)
	if err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	settlement, err := domain.ComputeSettlement(dispute.ChallengerStake, dispute.RespondentStake, params.FeeRateBps, winner)
	if err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	winnerID := dispute.ChallengerID
	if winner == domain.PartyRespondent {
		winnerID = dispute.RespondentID
	}
	if dispute.PaidWinner != domain.PartyNone {
		// A payout already left escrow on an earlier attempt; the verdict is
		// committed to that party and the remainder of the stake is owed to
		// the treasury, whatever the fee rate says today.
		if dispute.PaidWinner != winner {
			return domain.Dispute{}, domain.Settlement{}, fmt.Errorf("%w: payout already sent to %s", domain.ErrInvalidState, dispute.PaidWinner)
		}
		total := dispute.ChallengerStake + dispute.RespondentStake
		settlement = domain.Settlement{Winner: winner, WinnerPayout: dispute.PaidAmount, TreasuryFee: total - dispute.PaidAmount}
	} else {
		ok, err := s.ledger.Transfer(ctx, winnerID, settlement.WinnerPayout)
		if err != nil {
			return domain.Dispute{}, domain.Settlement{}, err
		}
		if !ok {
			return domain.Dispute{}, domain.Settlement{}, fmt.Errorf("%w: winner payout %d", domain.ErrLedgerTransferFailed, settlement.WinnerPayout)
		}
		dispute.PaidWinner = winner
		dispute.PaidAmount = settlement.WinnerPayout
		dispute.UpdatedAt = s.nowFn()
		if err := s.disputes.Update(ctx, dispute); err != nil {
			return domain.Dispute{}, domain.Settlement{}, err
		}
	}
	if settlement.TreasuryFee > 0 {
		ok, err := s.ledger.Transfer(ctx, params.Treasury, settlement.TreasuryFee)
		if err != nil {
			return domain.Dispute{}, domain.Settlement{}, err
		}
		if !ok {
			return domain.Dispute{}, domain.Settlement{}, fmt.Errorf("%w: treasury fee %d", domain.ErrLedgerTransferFailed, settlement.TreasuryFee)
		}
	}

	if err := domain.ValidateStatusTransition(dispute.Status, domain.DisputeStatusResolved); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	now := s.nowFn()
	dispute.Status = domain.DisputeStatusResolved
	dispute.Winner = winner
	dispute.UpdatedAt = now
	dispute.ResolvedAt = &now
	if err := s.disputes.Update(ctx, dispute); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	if err := s.enqueueDisputeResolved(ctx, dispute, settlement, requestID); err != nil {
		return domain.Dispute{}, domain.Settlement{}, err
	}
	return dispute, settlement, nil
}

// CancelDispute refunds the challenger and closes an undefended dispute.
// Once a defense is recorded the dispute can only be resolved.
func (s *Service) CancelDispute(ctx context.Context, actor Actor, disputeID uint64) (domain.Dispute, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.Dispute{}, err
	}
	if _, err := s.requireAuthority(ctx, actor); err != nil {
		return domain.Dispute{}, err
	}
	requestHash := hashJSON(disputeID)
	var cached domain.Dispute
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Dispute{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Dispute{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, err
	}
	if dispute.Status != domain.DisputeStatusAwaitingDefense {
		return domain.Dispute{}, domain.ErrInvalidState
	}
	if dispute.ChallengerStake > 0 {
		ok, err := s.ledger.Transfer(ctx, dispute.ChallengerID, dispute.ChallengerStake)
		if err != nil {
			return domain.Dispute{}, err
		}
		if !ok {
			return domain.Dispute{}, fmt.Errorf("%w: challenger refund %d", domain.ErrLedgerTransferFailed, dispute.ChallengerStake)
		}
	}
	if err := domain.ValidateStatusTransition(dispute.Status, domain.DisputeStatusCancelled); err != nil {
		return domain.Dispute{}, err
	}
	dispute.Status = domain.DisputeStatusCancelled
	dispute.UpdatedAt = s.nowFn()
	if err := s.disputes.Update(ctx, dispute); err != nil {
		return domain.Dispute{}, err
	}
	if err := s.enqueueDisputeCancelled(ctx, dispute, actor.RequestID); err != nil {
		return domain.Dispute{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, dispute)
	return dispute, nil
}

func (s *Service) GetDispute(ctx context.Context, actor Actor, disputeID uint64) (domain.Dispute, error) {
	if err := s.requireActor(actor); err != nil {
		return domain.Dispute{}, err
	}
	return s.disputes.GetByID(ctx, disputeID)
}

func (s *Service) ListDisputes(ctx context.Context, actor Actor, limit int) ([]domain.Dispute, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.disputes.List(ctx, limit)
}

package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

// RegisterJuror creates or refreshes a juror record. Registration applies no
// eligibility threshold; thresholds gate assignment, not entry. An existing
// record keeps its in-flight assignment count so finalize decrements still
// balance earlier increments.
func (s *Service) RegisterJuror(ctx context.Context, actor Actor, input RegisterJurorInput) (domain.JurorRecord, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.JurorRecord{}, err
	}
	input.JurorID = strings.TrimSpace(input.JurorID)
	if input.JurorID == "" || input.Reputation < 0 {
		return domain.JurorRecord{}, domain.ErrInvalidInput
	}
	if _, err := s.requireAuthority(ctx, actor); err != nil {
		return domain.JurorRecord{}, err
	}
	requestHash := hashJSON(input)
	var cached domain.JurorRecord
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.JurorRecord{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.JurorRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFn()
	record := domain.JurorRecord{
		JurorID:      input.JurorID,
		Registered:   true,
		Reputation:   input.Reputation,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if existing, err := s.jurors.GetByID(ctx, input.JurorID); err == nil {
		record.ActiveAssignments = existing.ActiveAssignments
		record.RegisteredAt = existing.RegisteredAt
	}
	if err := s.jurors.Upsert(ctx, record); err != nil {
		return domain.JurorRecord{}, err
	}
	if err := s.enqueueJurorRegistered(ctx, record, actor.RequestID); err != nil {
		return domain.JurorRecord{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 201, record)
	return record, nil
}

// UpdateJurorReputation is the administrative reputation override.
func (s *Service) UpdateJurorReputation(ctx context.Context, actor Actor, jurorID string, input UpdateReputationInput) (domain.JurorRecord, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.JurorRecord{}, err
	}
	jurorID = strings.TrimSpace(jurorID)
	if jurorID == "" || input.Reputation < 0 {
		return domain.JurorRecord{}, domain.ErrInvalidInput
	}
	if _, err := s.requireAuthority(ctx, actor); err != nil {
		return domain.JurorRecord{}, err
	}
	requestHash := hashJSON(struct {
		JurorID    string `json:"juror_id"`
		Reputation int64  `json:"reputation"`
	}{jurorID, input.Reputation})
	var cached domain.JurorRecord
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.JurorRecord{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.JurorRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.jurors.GetByID(ctx, jurorID)
	if err != nil {
		return domain.JurorRecord{}, err
	}
	record.Reputation = input.Reputation
	record.UpdatedAt = s.nowFn()
	if err := s.jurors.Update(ctx, record); err != nil {
		return domain.JurorRecord{}, err
	}
	if err := s.enqueueJurorReputationUpdated(ctx, record, actor.RequestID); err != nil {
		return domain.JurorRecord{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, record)
	return record, nil
}

func (s *Service) GetJuror(ctx context.Context, actor Actor, jurorID string) (domain.JurorRecord, error) {
	if err := s.requireActor(actor); err != nil {
		return domain.JurorRecord{}, err
	}
	return s.jurors.GetByID(ctx, strings.TrimSpace(jurorID))
}

// AssignJury binds a fixed-size panel to a dispute. Eligibility is checked
// for the whole list before any juror is touched: one ineligible candidate
// rejects the call with no active-assignment counts incremented. The dispute
// only has to exist; whether it is defended yet is the authority's
// sequencing concern.
func (s *Service) AssignJury(ctx context.Context, actor Actor, disputeID uint64, input AssignJuryInput) (domain.Jury, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.Jury{}, err
	}
	params, err := s.requireAuthority(ctx, actor)
	if err != nil {
		return domain.Jury{}, err
	}
	if len(input.JurorIDs) != params.JurySize {
		return domain.Jury{}, fmt.Errorf("%w: got %d, want %d", domain.ErrJurySizeMismatch, len(input.JurorIDs), params.JurySize)
	}
	seen := make(map[string]bool, len(input.JurorIDs))
	for _, jurorID := range input.JurorIDs {
		jurorID = strings.TrimSpace(jurorID)
		if jurorID == "" || seen[jurorID] {
			return domain.Jury{}, domain.ErrInvalidInput
		}
		seen[jurorID] = true
	}
	requestHash := hashJSON(struct {
		DisputeID uint64   `json:"dispute_id"`
		JurorIDs  []string `json:"juror_ids"`
	}{disputeID, input.JurorIDs})
	var cached domain.Jury
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Jury{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Jury{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.disputes.GetByID(ctx, disputeID); err != nil {
		return domain.Jury{}, err
	}
	if _, err := s.juries.GetByDisputeID(ctx, disputeID); err == nil {
		return domain.Jury{}, domain.ErrInvalidState
	} else if err != domain.ErrNotFound {
		return domain.Jury{}, err
	}

	records := make([]domain.JurorRecord, 0, len(input.JurorIDs))
	for _, jurorID := range input.JurorIDs {
		record, err := s.jurors.GetByID(ctx, strings.TrimSpace(jurorID))
		if err == domain.ErrNotFound {
			return domain.Jury{}, fmt.Errorf("%w: juror %s is not registered", domain.ErrJurorIneligible, jurorID)
		}
		if err != nil {
			return domain.Jury{}, err
		}
		if err := record.EligibilityCheck(params.MinJurorReputation, params.MaxActiveAssignments); err != nil {
			return domain.Jury{}, err
		}
		records = append(records, record)
	}

	now := s.nowFn()
	for _, record := range records {
		record.ActiveAssignments++
		record.UpdatedAt = now
		if err := s.jurors.Update(ctx, record); err != nil {
			return domain.Jury{}, err
		}
	}
	members := make([]string, len(input.JurorIDs))
	for i, jurorID := range input.JurorIDs {
		members[i] = strings.TrimSpace(jurorID)
	}
	jury := domain.Jury{
		DisputeID:  disputeID,
		Status:     domain.JuryStatusVoting,
		Members:    members,
		Ballots:    map[string]domain.Party{},
		AssignedAt: now,
		UpdatedAt:  now,
	}
	if err := s.juries.Create(ctx, jury); err != nil {
		return domain.Jury{}, err
	}
	if err := s.enqueueJuryAssigned(ctx, jury, actor.RequestID); err != nil {
		return domain.Jury{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 201, jury)
	return jury, nil
}

// SubmitVote records one juror's ballot. Membership is a scan of the fixed
// panel list; each member votes at most once.
func (s *Service) SubmitVote(ctx context.Context, actor Actor, disputeID uint64, input SubmitVoteInput) (domain.Jury, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.Jury{}, err
	}
	vote := domain.NormalizeParty(input.Vote)
	if vote == domain.PartyNone {
		return domain.Jury{}, domain.ErrInvalidInput
	}
	requestHash := hashJSON(struct {
		DisputeID uint64       `json:"dispute_id"`
		Vote      domain.Party `json:"vote"`
	}{disputeID, vote})
	var cached domain.Jury
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Jury{}, err
	} else if ok {
		return cached, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Jury{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jury, err := s.juries.GetByDisputeID(ctx, disputeID)
	if err != nil {
		return domain.Jury{}, err
	}
	if jury.Status != domain.JuryStatusVoting {
		return domain.Jury{}, domain.ErrInvalidState
	}
	if !jury.IsMember(actor.SubjectID) {
		return domain.Jury{}, domain.ErrNotJuryMember
	}
	if jury.HasVoted(actor.SubjectID) {
		return domain.Jury{}, domain.ErrAlreadyVoted
	}
	jury.Ballots[actor.SubjectID] = vote
	if vote == domain.PartyChallenger {
		jury.TallyChallenger++
	} else {
		jury.TallyRespondent++
	}
	jury.UpdatedAt = s.nowFn()
	if err := s.juries.Update(ctx, jury); err != nil {
		return domain.Jury{}, err
	}
	if err := s.enqueueVoteSubmitted(ctx, jury, actor.SubjectID, vote, actor.RequestID); err != nil {
		return domain.Jury{}, err
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, jury)
	return jury, nil
}

func (s *Service) GetJury(ctx context.Context, actor Actor, disputeID uint64) (domain.Jury, error) {
	if err := s.requireActor(actor); err != nil {
		return domain.Jury{}, err
	}
	return s.juries.GetByDisputeID(ctx, disputeID)
}

// FinalizeDecision tallies the jury, applies juror incentives and chains
// into settlement. A tie rejects the call and leaves the jury voting. The
// decided transition and all juror updates commit before settlement runs;
// if settlement then fails the jury stays decided with incentives applied
// and the error surfaces as ErrSettlementPending, to be retried through the
// recovery path.
func (s *Service) FinalizeDecision(ctx context.Context, actor Actor, disputeID uint64) (domain.Dispute, domain.Jury, error) {
	if err := s.requireMutatingActor(actor); err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	}
	params, err := s.requireAuthority(ctx, actor)
	if err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	}
	requestHash := hashJSON(struct {
		DisputeID uint64 `json:"dispute_id"`
		Op        string `json:"op"`
	}{disputeID, "finalize"})
	var cached finalizeResult
	if ok, err := s.replayIdempotent(ctx, actor.IdempotencyKey, requestHash, &cached); err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	} else if ok {
		return cached.Dispute, cached.Jury, nil
	}
	if err := s.reserveIdempotency(ctx, actor.IdempotencyKey, requestHash); err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jury, err := s.juries.GetByDisputeID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	}
	if jury.Status != domain.JuryStatusVoting {
		return domain.Dispute{}, domain.Jury{}, domain.ErrInvalidState
	}
	verdict, err := jury.Verdict()
	if err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	}

	// Point of no return: the decided transition and every juror update
	// below are committed even if the chained settlement fails.
	now := s.nowFn()
	jury.Status = domain.JuryStatusDecided
	jury.UpdatedAt = now
	jury.DecidedAt = &now
	if err := s.juries.Update(ctx, jury); err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	}
	if err := s.applyIncentivesLocked(ctx, jury, verdict, params, actor.RequestID); err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	}
	if err := s.enqueueJuryDecided(ctx, jury, verdict, actor.RequestID); err != nil {
		return domain.Dispute{}, domain.Jury{}, err
	}

	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return domain.Dispute{}, jury, fmt.Errorf("%w: %w", domain.ErrSettlementPending, err)
	}
	dispute, _, err = s.settleLocked(ctx, dispute, verdict, actor.RequestID)
	if err != nil {
		return domain.Dispute{}, jury, fmt.Errorf("%w: %w", domain.ErrSettlementPending, err)
	}
	_ = s.completeIdempotencyJSON(ctx, actor.IdempotencyKey, 200, finalizeResult{Dispute: dispute, Jury: jury})
	return dispute, jury, nil
}

type finalizeResult struct {
	Dispute domain.Dispute `json:"dispute"`
	Jury    domain.Jury    `json:"jury"`
}

// applyIncentivesLocked settles each juror exactly once: the assignment slot
// is released and reputation moves by outcome class. Zero amounts are
// no-ops and emit nothing.
func (s *Service) applyIncentivesLocked(ctx context.Context, jury domain.Jury, verdict domain.Party, params domain.Params, requestID string) error {
	now := s.nowFn()
	for _, jurorID := range jury.Members {
		record, err := s.jurors.GetByID(ctx, jurorID)
		if err != nil {
			return err
		}
		if record.ActiveAssignments > 0 {
			record.ActiveAssignments--
		}
		vote, voted := jury.Ballots[jurorID]
		var rewarded, slashed int64
		var reason string
		switch {
		case !voted:
			slashed = min64(params.NoVoteSlash, record.Reputation)
			record.Reputation = domain.SaturatingSlash(record.Reputation, params.NoVoteSlash)
			reason = domain.SlashReasonNoVote
		case vote == verdict:
			rewarded = params.MajorityReward
			record.Reputation += params.MajorityReward
		default:
			slashed = min64(params.MinoritySlash, record.Reputation)
			record.Reputation = domain.SaturatingSlash(record.Reputation, params.MinoritySlash)
			reason = domain.SlashReasonMinorityVote
		}
		record.UpdatedAt = now
		if err := s.jurors.Update(ctx, record); err != nil {
			return err
		}
		if rewarded > 0 {
			if err := s.enqueueJurorRewarded(ctx, jurorID, jury.DisputeID, rewarded, requestID); err != nil {
				return err
			}
		}
		if slashed > 0 {
			if err := s.enqueueJurorSlashed(ctx, jurorID, jury.DisputeID, slashed, reason, requestID); err != nil {
				return err
			}
		}
	}
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

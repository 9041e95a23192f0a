package domain

import (
	"strings"
	"time"
)

const (
	DisputeStatusAwaitingDefense    = "awaiting_defense"
	DisputeStatusReadyForResolution = "ready_for_resolution"
	DisputeStatusResolved           = "resolved"
	DisputeStatusCancelled          = "cancelled"
)

// Party identifies one side of a dispute. PartyNone is only valid as the
// winner of an unresolved dispute.
type Party string

const (
	PartyNone       Party = ""
	PartyChallenger Party = "challenger"
	PartyRespondent Party = "respondent"
)

func NormalizeParty(raw string) Party {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(PartyChallenger):
		return PartyChallenger
	case string(PartyRespondent):
		return PartyRespondent
	default:
		return PartyNone
	}
}

type Dispute struct {
	DisputeID       uint64     `json:"dispute_id"`
	ContentRef      string     `json:"content_ref"`
	ChallengerID    string     `json:"challenger_id"`
	RespondentID    string     `json:"respondent_id"`
	ChallengerStake int64      `json:"challenger_stake"`
	RespondentStake int64      `json:"respondent_stake"`
	Status          string     `json:"status"`
	Winner          Party      `json:"winner,omitempty"`
	// Settlement progress. The winner-payout leg is persisted the moment it
	// lands, so a retry after a failed treasury leg never pays the winner a
	// second time.
	PaidWinner Party `json:"paid_winner,omitempty"`
	PaidAmount int64 `json:"paid_amount,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

// ValidateStatusTransition enforces the dispute lifecycle: defenses only from
// awaiting_defense, settlement only from ready_for_resolution, and both
// resolved and cancelled terminal.
func ValidateStatusTransition(from, to string) error {
	allowed := map[string]map[string]bool{
		DisputeStatusAwaitingDefense:    {DisputeStatusReadyForResolution: true, DisputeStatusCancelled: true},
		DisputeStatusReadyForResolution: {DisputeStatusResolved: true},
	}
	if next, ok := allowed[from]; ok && next[to] {
		return nil
	}
	return ErrInvalidState
}

type Settlement struct {
	Winner       Party `json:"winner"`
	WinnerPayout int64 `json:"winner_payout"`
	TreasuryFee  int64 `json:"treasury_fee"`
}

// ComputeSettlement splits the combined stake between the winner and the
// treasury. The fee is floor(loserStake * feeRateBps / 10000); the rounding
// remainder stays with the winner, so WinnerPayout + TreasuryFee always
// equals the combined stake.
func ComputeSettlement(challengerStake, respondentStake, feeRateBps int64, winner Party) (Settlement, error) {
	if winner != PartyChallenger && winner != PartyRespondent {
		return Settlement{}, ErrInvalidInput
	}
	if challengerStake < 0 || respondentStake < 0 {
		return Settlement{}, ErrInvalidInput
	}
	if feeRateBps < 0 || feeRateBps > 10000 {
		return Settlement{}, ErrInvalidInput
	}
	loserStake := challengerStake
	if winner == PartyChallenger {
		loserStake = respondentStake
	}
	fee := floorBps(loserStake, feeRateBps)
	total := challengerStake + respondentStake
	return Settlement{Winner: winner, WinnerPayout: total - fee, TreasuryFee: fee}, nil
}

// floorBps is floor(amount*bps/10000) without the intermediate product, so it
// cannot overflow for any representable amount when bps <= 10000.
func floorBps(amount, bps int64) int64 {
	return (amount/10000)*bps + (amount%10000)*bps/10000
}

package domain

import "strings"

// Params is the owner-mutable protocol configuration read by every
// operation. Authority is the identity allowed to resolve, cancel, assign
// juries and change these values; Treasury receives settlement fees.
type Params struct {
	Authority            string `json:"authority"`
	Treasury             string `json:"treasury"`
	ChallengerStake      int64  `json:"challenger_stake"`
	RespondentStake      int64  `json:"respondent_stake"`
	FeeRateBps           int64  `json:"fee_rate_bps"`
	MinJurorReputation   int64  `json:"min_juror_reputation"`
	MaxActiveAssignments int    `json:"max_active_assignments"`
	JurySize             int    `json:"jury_size"`
	MajorityReward       int64  `json:"majority_reward"`
	MinoritySlash        int64  `json:"minority_slash"`
	NoVoteSlash          int64  `json:"no_vote_slash"`
}

func (p Params) Validate() error {
	if strings.TrimSpace(p.Authority) == "" || strings.TrimSpace(p.Treasury) == "" {
		return ErrInvalidInput
	}
	if p.ChallengerStake <= 0 || p.RespondentStake <= 0 {
		return ErrInvalidInput
	}
	if p.FeeRateBps < 0 || p.FeeRateBps > 10000 {
		return ErrInvalidInput
	}
	if p.MinJurorReputation < 0 {
		return ErrInvalidInput
	}
	if p.MaxActiveAssignments <= 0 || p.JurySize <= 0 {
		return ErrInvalidInput
	}
	// Zero incentives are permitted; they make reward/slash a no-op.
	if p.MajorityReward < 0 || p.MinoritySlash < 0 || p.NoVoteSlash < 0 {
		return ErrInvalidInput
	}
	return nil
}

package contracts

import "time"

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type OpenDisputeRequest struct {
	ContentRef   string `json:"content_ref"`
	RespondentID string `json:"respondent_id"`
}

type ResolveDisputeRequest struct {
	Winner string `json:"winner"`
}

type AssignJuryRequest struct {
	JurorIDs []string `json:"juror_ids"`
}

type SubmitVoteRequest struct {
	Vote string `json:"vote"`
}

type RegisterJurorRequest struct {
	JurorID    string `json:"juror_id"`
	Reputation int64  `json:"reputation"`
}

type UpdateReputationRequest struct {
	Reputation int64 `json:"reputation"`
}

type UpdateStakesRequest struct {
	ChallengerStake int64 `json:"challenger_stake"`
	RespondentStake int64 `json:"respondent_stake"`
}

type UpdateFeeRateRequest struct {
	FeeRateBps int64 `json:"fee_rate_bps"`
}

type UpdateTreasuryRequest struct {
	Treasury string `json:"treasury"`
}

type UpdateJuryParametersRequest struct {
	MinJurorReputation   int64 `json:"min_juror_reputation"`
	MaxActiveAssignments int   `json:"max_active_assignments"`
	JurySize             int   `json:"jury_size"`
}

type UpdateIncentivesRequest struct {
	MajorityReward int64 `json:"majority_reward"`
	MinoritySlash  int64 `json:"minority_slash"`
	NoVoteSlash    int64 `json:"no_vote_slash"`
}

type TransferAuthorityRequest struct {
	Authority string `json:"authority"`
}

type DisputeResponse struct {
	DisputeID       uint64     `json:"dispute_id"`
	ContentRef      string     `json:"content_ref"`
	ChallengerID    string     `json:"challenger_id"`
	RespondentID    string     `json:"respondent_id"`
	ChallengerStake int64      `json:"challenger_stake"`
	RespondentStake int64      `json:"respondent_stake"`
	Status          string     `json:"status"`
	Winner          string     `json:"winner,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

type JuryResponse struct {
	DisputeID       uint64     `json:"dispute_id"`
	Status          string     `json:"status"`
	Members         []string   `json:"members"`
	VotesCast       int        `json:"votes_cast"`
	VotesChallenger int        `json:"votes_challenger"`
	VotesRespondent int        `json:"votes_respondent"`
	AssignedAt      time.Time  `json:"assigned_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

type JurorResponse struct {
	JurorID           string `json:"juror_id"`
	Registered        bool   `json:"registered"`
	Reputation        int64  `json:"reputation"`
	ActiveAssignments int    `json:"active_assignments"`
}

type SettlementResponse struct {
	DisputeID        uint64 `json:"dispute_id"`
	Winner           string `json:"winner"`
	AmountToWinner   int64  `json:"amount_to_winner"`
	AmountToTreasury int64  `json:"amount_to_treasury"`
}

type ParamsResponse struct {
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

package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type DisputeOpenedPayload struct {
	DisputeID    uint64 `json:"dispute_id"`
	ContentRef   string `json:"content_ref"`
	ChallengerID string `json:"challenger_id"`
	RespondentID string `json:"respondent_id"`
	Stake        int64  `json:"stake"`
	OpenedAt     string `json:"opened_at"`
}

type DisputeDefendedPayload struct {
	DisputeID    uint64 `json:"dispute_id"`
	RespondentID string `json:"respondent_id"`
	Stake        int64  `json:"stake"`
	DefendedAt   string `json:"defended_at"`
}

type DisputeResolvedPayload struct {
	DisputeID        uint64 `json:"dispute_id"`
	Winner           string `json:"winner"`
	AmountToWinner   int64  `json:"amount_to_winner"`
	AmountToTreasury int64  `json:"amount_to_treasury"`
	ResolvedAt       string `json:"resolved_at"`
}

type DisputeCancelledPayload struct {
	DisputeID   uint64 `json:"dispute_id"`
	Refund      int64  `json:"refund"`
	CancelledAt string `json:"cancelled_at"`
}

type JuryAssignedPayload struct {
	DisputeID  uint64   `json:"dispute_id"`
	JurorIDs   []string `json:"juror_ids"`
	AssignedAt string   `json:"assigned_at"`
}

type VoteSubmittedPayload struct {
	DisputeID   uint64 `json:"dispute_id"`
	JurorID     string `json:"juror_id"`
	Vote        string `json:"vote"`
	SubmittedAt string `json:"submitted_at"`
}

type JuryDecidedPayload struct {
	DisputeID       uint64 `json:"dispute_id"`
	Winner          string `json:"winner"`
	VotesChallenger int    `json:"votes_challenger"`
	VotesRespondent int    `json:"votes_respondent"`
	DecidedAt       string `json:"decided_at"`
}

type JurorRegisteredPayload struct {
	JurorID      string `json:"juror_id"`
	Reputation   int64  `json:"reputation"`
	RegisteredAt string `json:"registered_at"`
}

type JurorReputationUpdatedPayload struct {
	JurorID       string `json:"juror_id"`
	NewReputation int64  `json:"new_reputation"`
	UpdatedAt     string `json:"updated_at"`
}

// JurorIncentivePayload is shared by juror.rewarded and juror.slashed;
// Reason is only set on slashes.
type JurorIncentivePayload struct {
	JurorID   string `json:"juror_id"`
	DisputeID uint64 `json:"dispute_id"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason,omitempty"`
	AppliedAt string `json:"applied_at"`
}

type DLQRecord struct {
	OriginalEvent EventEnvelope `json:"original_event"`
	ErrorSummary  string        `json:"error_summary"`
	RetryCount    int           `json:"retry_count"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastErrorAt   time.Time     `json:"last_error_at"`
	SourceTopic   string        `json:"source_topic,omitempty"`
	DLQTopic      string        `json:"dlq_topic,omitempty"`
	TraceID       string        `json:"trace_id,omitempty"`
}

package application

import (
	"sync"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/ports"
)

type Config struct {
	ServiceName              string
	EscrowAccountID          string
	IdempotencyTTL           time.Duration
	EventDedupTTL            time.Duration
	OutboxFlushBatchSize     int
	SettlementRetryBatchSize int
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

type OpenDisputeInput struct {
	ContentRef   string
	RespondentID string
}

type ResolveDisputeInput struct {
	Winner string
}

type AssignJuryInput struct {
	JurorIDs []string
}

type SubmitVoteInput struct {
	Vote string
}

type RegisterJurorInput struct {
	JurorID    string
	Reputation int64
}

type UpdateReputationInput struct {
	Reputation int64
}

type UpdateStakesInput struct {
	ChallengerStake int64
	RespondentStake int64
}

type UpdateFeeRateInput struct {
	FeeRateBps int64
}

type UpdateTreasuryInput struct {
	Treasury string
}

type UpdateJuryParametersInput struct {
	MinJurorReputation   int64
	MaxActiveAssignments int
	JurySize             int
}

type UpdateIncentivesInput struct {
	MajorityReward int64
	MinoritySlash  int64
	NoVoteSlash    int64
}

type TransferAuthorityInput struct {
	Authority string
}

type Service struct {
	cfg Config

	// mu serializes every state-changing operation. The source semantics
	// assume a single sequential execution context; one lock across
	// dispute, jury and juror records reproduces that without lock
	// ordering concerns (finalize touches one dispute plus N jurors).
	mu sync.Mutex

	disputes    ports.DisputeRepository
	juries      ports.JuryRepository
	jurors      ports.JurorRepository
	params      ports.ParamsRepository
	idempotency ports.IdempotencyRepository
	eventDedup  ports.EventDedupRepository
	outbox      ports.OutboxRepository

	ledger   ports.AssetLedger
	registry ports.ContentRegistry

	domainEvents ports.DomainPublisher
	analytics    ports.AnalyticsPublisher
	dlq          ports.DLQPublisher

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config

	Disputes    ports.DisputeRepository
	Juries      ports.JuryRepository
	Jurors      ports.JurorRepository
	Params      ports.ParamsRepository
	Idempotency ports.IdempotencyRepository
	EventDedup  ports.EventDedupRepository
	Outbox      ports.OutboxRepository

	Ledger   ports.AssetLedger
	Registry ports.ContentRegistry

	DomainEvents ports.DomainPublisher
	Analytics    ports.AnalyticsPublisher
	DLQ          ports.DLQPublisher
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M49-Dispute-Tribunal-Service"
	}
	if cfg.EscrowAccountID == "" {
		cfg.EscrowAccountID = "escrow:dispute-tribunal"
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	if cfg.OutboxFlushBatchSize <= 0 {
		cfg.OutboxFlushBatchSize = 100
	}
	if cfg.SettlementRetryBatchSize <= 0 {
		cfg.SettlementRetryBatchSize = 50
	}
	return &Service{
		cfg:          cfg,
		disputes:     deps.Disputes,
		juries:       deps.Juries,
		jurors:       deps.Jurors,
		params:       deps.Params,
		idempotency:  deps.Idempotency,
		eventDedup:   deps.EventDedup,
		outbox:       deps.Outbox,
		ledger:       deps.Ledger,
		registry:     deps.Registry,
		domainEvents: deps.DomainEvents,
		analytics:    deps.Analytics,
		dlq:          deps.DLQ,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

// DisputeRepository is an arena keyed by sequential dispute id; Create
// allocates and returns the next id.
type DisputeRepository interface {
	Create(ctx context.Context, row domain.Dispute) (uint64, error)
	GetByID(ctx context.Context, disputeID uint64) (domain.Dispute, error)
	Update(ctx context.Context, row domain.Dispute) error
	List(ctx context.Context, limit int) ([]domain.Dispute, error)
}

type JuryRepository interface {
	Create(ctx context.Context, row domain.Jury) error
	GetByDisputeID(ctx context.Context, disputeID uint64) (domain.Jury, error)
	Update(ctx context.Context, row domain.Jury) error
	ListDecided(ctx context.Context, limit int) ([]domain.Jury, error)
}

type JurorRepository interface {
	Upsert(ctx context.Context, row domain.JurorRecord) error
	GetByID(ctx context.Context, jurorID string) (domain.JurorRecord, error)
	Update(ctx context.Context, row domain.JurorRecord) error
}

type ParamsRepository interface {
	Get(ctx context.Context) (domain.Params, error)
	Put(ctx context.Context, params domain.Params) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, record OutboxRecord) error
	ListPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, recordID string, at time.Time) error
}

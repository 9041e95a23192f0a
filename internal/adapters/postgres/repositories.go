package postgres

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/ports"
)

type Repositories struct {
	Disputes    *DisputeRepository
	Juries      *JuryRepository
	Jurors      *JurorRepository
	Params      *ParamsRepository
	Idempotency *IdempotencyRepository
	EventDedup  *EventDedupRepository
	Outbox      *OutboxRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Disputes:    &DisputeRepository{records: map[uint64]domain.Dispute{}, nextID: 1},
		Juries:      &JuryRepository{records: map[uint64]domain.Jury{}},
		Jurors:      &JurorRepository{records: map[string]domain.JurorRecord{}},
		Params:      &ParamsRepository{},
		Idempotency: &IdempotencyRepository{records: map[string]ports.IdempotencyRecord{}},
		EventDedup:  &EventDedupRepository{records: map[string]dedupRecord{}},
		Outbox:      &OutboxRepository{records: map[string]ports.OutboxRecord{}},
	}
}

// DisputeRepository allocates sequential ids on Create; ids are never
// reused, so a dispute's id doubles as its creation order.
type DisputeRepository struct {
	mu      sync.RWMutex
	records map[uint64]domain.Dispute
	nextID  uint64
}

func (r *DisputeRepository) Create(_ context.Context, row domain.Dispute) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	row.DisputeID = id
	r.records[id] = row
	return id, nil
}

func (r *DisputeRepository) GetByID(_ context.Context, disputeID uint64) (domain.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[disputeID]
	if !ok {
		return domain.Dispute{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *DisputeRepository) Update(_ context.Context, row domain.Dispute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[row.DisputeID]; !ok {
		return domain.ErrNotFound
	}
	r.records[row.DisputeID] = row
	return nil
}

func (r *DisputeRepository) List(_ context.Context, limit int) ([]domain.Dispute, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]domain.Dispute, 0, limit)
	for id := r.nextID - 1; id >= 1 && len(out) < limit; id-- {
		if row, ok := r.records[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

type JuryRepository struct {
	mu      sync.RWMutex
	records map[uint64]domain.Jury
}

func (r *JuryRepository) Create(_ context.Context, row domain.Jury) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[row.DisputeID]; ok {
		return domain.ErrConflict
	}
	r.records[row.DisputeID] = row.Clone()
	return nil
}

func (r *JuryRepository) GetByDisputeID(_ context.Context, disputeID uint64) (domain.Jury, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[disputeID]
	if !ok {
		return domain.Jury{}, domain.ErrNotFound
	}
	return row.Clone(), nil
}

func (r *JuryRepository) Update(_ context.Context, row domain.Jury) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[row.DisputeID]; !ok {
		return domain.ErrNotFound
	}
	r.records[row.DisputeID] = row.Clone()
	return nil
}

func (r *JuryRepository) ListDecided(_ context.Context, limit int) ([]domain.Jury, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	ids := make([]uint64, 0, len(r.records))
	for id, row := range r.records {
		if row.Status == domain.JuryStatusDecided {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.Jury, 0, limit)
	for _, id := range ids {
		out = append(out, r.records[id].Clone())
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type JurorRepository struct {
	mu      sync.RWMutex
	records map[string]domain.JurorRecord
}

func (r *JurorRepository) Upsert(_ context.Context, row domain.JurorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[row.JurorID] = row
	return nil
}

func (r *JurorRepository) GetByID(_ context.Context, jurorID string) (domain.JurorRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.records[jurorID]
	if !ok {
		return domain.JurorRecord{}, domain.ErrNotFound
	}
	return row, nil
}

func (r *JurorRepository) Update(_ context.Context, row domain.JurorRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[row.JurorID]; !ok {
		return domain.ErrNotFound
	}
	r.records[row.JurorID] = row
	return nil
}

// ParamsRepository holds the single protocol parameter set. Get before the
// first Put reports ErrNotFound; bootstrap seeds the initial set.
type ParamsRepository struct {
	mu     sync.RWMutex
	params domain.Params
	seeded bool
}

func (r *ParamsRepository) Get(_ context.Context) (domain.Params, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.seeded {
		return domain.Params{}, domain.ErrNotFound
	}
	return r.params, nil
}

func (r *ParamsRepository) Put(_ context.Context, params domain.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.params = params
	r.seeded = true
	return nil
}

type IdempotencyRepository struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, nil
	}
	if now.After(rec.ExpiresAt) {
		delete(r.records, key)
		return nil, nil
	}
	clone := rec
	return &clone, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.records[key]; ok && time.Now().UTC().Before(existing.ExpiresAt) {
		if existing.RequestHash != requestHash {
			return domain.ErrConflict
		}
		return nil
	}
	r.records[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.ResponseCode = responseCode
	rec.ResponseBody = slices.Clone(responseBody)
	if at.After(rec.ExpiresAt) {
		rec.ExpiresAt = at.Add(7 * 24 * time.Hour)
	}
	r.records[key] = rec
	return nil
}

type dedupRecord struct {
	EventType string
	ExpiresAt time.Time
}

type EventDedupRepository struct {
	mu      sync.Mutex
	records map[string]dedupRecord
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[eventID]
	if !ok {
		return false, nil
	}
	if now.After(rec.ExpiresAt) {
		delete(r.records, eventID)
		return false, nil
	}
	return true, nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, eventType string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[eventID] = dedupRecord{EventType: eventType, ExpiresAt: expiresAt}
	return nil
}

type OutboxRepository struct {
	mu      sync.Mutex
	records map[string]ports.OutboxRecord
	order   []string
}

func (r *OutboxRepository) Enqueue(_ context.Context, row ports.OutboxRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[row.RecordID] = row
	r.order = append(r.order, row.RecordID)
	return nil
}

func (r *OutboxRepository) ListPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]ports.OutboxRecord, 0, limit)
	for _, id := range r.order {
		row, ok := r.records[id]
		if !ok || row.SentAt != nil {
			continue
		}
		out = append(out, row)
		if len(out) >= limit {
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *OutboxRepository) MarkSent(_ context.Context, recordID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.records[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	row.SentAt = &at
	r.records[recordID] = row
	return nil
}

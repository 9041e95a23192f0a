package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/ports"
)

func TestDisputeRepositorySequentialIDs(t *testing.T) {
	t.Parallel()
	repo := NewRepositories().Disputes
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		id, err := repo.Create(context.Background(), domain.Dispute{
			ContentRef: "content:xyz", ChallengerID: "alice", RespondentID: "bob",
			Status: domain.DisputeStatusAwaitingDefense, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if id != uint64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, id)
		}
	}
	rows, err := repo.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].DisputeID != 3 || rows[1].DisputeID != 2 {
		t.Fatalf("expected newest-first page [3 2], got %+v", rows)
	}
	if _, err := repo.GetByID(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(context.Background(), domain.Dispute{DisputeID: 99}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestJuryRepositoryConflictAndClone(t *testing.T) {
	t.Parallel()
	repo := NewRepositories().Juries
	jury := domain.Jury{
		DisputeID: 1, Status: domain.JuryStatusVoting,
		Members: []string{"j1", "j2", "j3"}, Ballots: map[string]domain.Party{},
	}
	if err := repo.Create(context.Background(), jury); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(context.Background(), jury); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for second jury, got %v", err)
	}

	// Mutating a returned row must not leak into the stored one.
	got, err := repo.GetByDisputeID(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.Ballots["j1"] = domain.PartyChallenger
	got.Members[0] = "intruder"
	stored, _ := repo.GetByDisputeID(context.Background(), 1)
	if len(stored.Ballots) != 0 || stored.Members[0] != "j1" {
		t.Fatalf("repository rows must be isolated, got %+v", stored)
	}
}

func TestJuryRepositoryListDecided(t *testing.T) {
	t.Parallel()
	repo := NewRepositories().Juries
	for id := uint64(1); id <= 4; id++ {
		status := domain.JuryStatusVoting
		if id%2 == 0 {
			status = domain.JuryStatusDecided
		}
		jury := domain.Jury{DisputeID: id, Status: status, Ballots: map[string]domain.Party{}}
		if err := repo.Create(context.Background(), jury); err != nil {
			t.Fatalf("create %d: %v", id, err)
		}
	}
	decided, err := repo.ListDecided(context.Background(), 10)
	if err != nil {
		t.Fatalf("list decided: %v", err)
	}
	if len(decided) != 2 || decided[0].DisputeID != 2 || decided[1].DisputeID != 4 {
		t.Fatalf("expected decided juries [2 4], got %+v", decided)
	}
}

func TestParamsRepositoryUnseeded(t *testing.T) {
	t.Parallel()
	repo := NewRepositories().Params
	if _, err := repo.Get(context.Background()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before seed, got %v", err)
	}
	if err := repo.Put(context.Background(), domain.Params{Authority: "authority-1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	params, err := repo.Get(context.Background())
	if err != nil || params.Authority != "authority-1" {
		t.Fatalf("expected seeded params, got %+v err=%v", params, err)
	}
}

func TestIdempotencyRepositoryReserveAndComplete(t *testing.T) {
	t.Parallel()
	repo := NewRepositories().Idempotency
	now := time.Now().UTC()
	expires := now.Add(time.Hour)

	if err := repo.Reserve(context.Background(), "key-1", "hash-a", expires); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	// Same key, same hash: a retry of the same request.
	if err := repo.Reserve(context.Background(), "key-1", "hash-a", expires); err != nil {
		t.Fatalf("idempotent re-reserve: %v", err)
	}
	// Same key, different payload: refused.
	if err := repo.Reserve(context.Background(), "key-1", "hash-b", expires); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on hash mismatch, got %v", err)
	}

	if err := repo.Complete(context.Background(), "key-1", 201, []byte(`{"dispute_id":1}`), now); err != nil {
		t.Fatalf("complete: %v", err)
	}
	rec, err := repo.Get(context.Background(), "key-1", now)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec == nil || rec.ResponseCode != 201 || string(rec.ResponseBody) != `{"dispute_id":1}` {
		t.Fatalf("unexpected record: %+v", rec)
	}

	// Expired reservations vanish.
	rec, err = repo.Get(context.Background(), "key-1", expires.Add(time.Minute))
	if err != nil || rec != nil {
		t.Fatalf("expected expired record gone, got %+v err=%v", rec, err)
	}
	if err := repo.Complete(context.Background(), "missing", 200, nil, now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound completing unknown key, got %v", err)
	}
}

func TestEventDedupRepositoryExpiry(t *testing.T) {
	t.Parallel()
	repo := NewRepositories().EventDedup
	now := time.Now().UTC()
	dup, err := repo.IsDuplicate(context.Background(), "evt-1", now)
	if err != nil || dup {
		t.Fatalf("fresh event must not be duplicate, got dup=%v err=%v", dup, err)
	}
	if err := repo.MarkProcessed(context.Background(), "evt-1", "dispute.opened", now.Add(time.Hour)); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	if dup, _ := repo.IsDuplicate(context.Background(), "evt-1", now); !dup {
		t.Fatal("expected duplicate within ttl")
	}
	if dup, _ := repo.IsDuplicate(context.Background(), "evt-1", now.Add(2*time.Hour)); dup {
		t.Fatal("expected dedup entry expired")
	}
}

func TestOutboxRepositoryPendingOrderAndMarkSent(t *testing.T) {
	t.Parallel()
	repo := NewRepositories().Outbox
	base := time.Now().UTC()
	for i, id := range []string{"rec-1", "rec-2", "rec-3"} {
		err := repo.Enqueue(context.Background(), ports.OutboxRecord{
			RecordID:   id,
			EventClass: domain.CanonicalEventClassDomain,
			Envelope:   contracts.EventEnvelope{EventID: id, EventType: domain.EventDisputeOpened},
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	if err := repo.MarkSent(context.Background(), "rec-2", base.Add(time.Minute)); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	pending, err := repo.ListPending(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 || pending[0].RecordID != "rec-1" || pending[1].RecordID != "rec-3" {
		t.Fatalf("expected pending [rec-1 rec-3] oldest-first, got %+v", pending)
	}
	if err := repo.MarkSent(context.Background(), "missing", base); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

func (f *fixture) registerJuror(t *testing.T, jurorID string, reputation int64) {
	t.Helper()
	_, err := f.svc.RegisterJuror(context.Background(), f.authority("reg-"+jurorID), application.RegisterJurorInput{
		JurorID: jurorID, Reputation: reputation,
	})
	if err != nil {
		t.Fatalf("register juror %s: %v", jurorID, err)
	}
}

func (f *fixture) panel(t *testing.T, reputation int64) []string {
	t.Helper()
	ids := make([]string, f.params.JurySize)
	for i := range ids {
		ids[i] = fmt.Sprintf("juror-%d", i+1)
		f.registerJuror(t, ids[i], reputation)
	}
	return ids
}

func (f *fixture) readyDispute(t *testing.T, tag string) domain.Dispute {
	t.Helper()
	dispute := f.openDispute(t, "alice-"+tag, "bob-"+tag, "open-"+tag)
	return f.defendDispute(t, "bob-"+tag, dispute.DisputeID, "def-"+tag)
}

func (f *fixture) vote(t *testing.T, disputeID uint64, jurorID string, vote string) {
	t.Helper()
	_, err := f.svc.SubmitVote(context.Background(), actor(jurorID, fmt.Sprintf("vote-%d-%s", disputeID, jurorID)), disputeID, application.SubmitVoteInput{Vote: vote})
	if err != nil {
		t.Fatalf("vote %s on dispute %d: %v", jurorID, disputeID, err)
	}
}

func (f *fixture) jurorRecord(t *testing.T, jurorID string) domain.JurorRecord {
	t.Helper()
	record, err := f.repos.Jurors.GetByID(context.Background(), jurorID)
	if err != nil {
		t.Fatalf("get juror %s: %v", jurorID, err)
	}
	return record
}

func TestRegisterJurorPreservesActiveAssignments(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	f.registerJuror(t, "j1", 150)
	dispute := f.readyDispute(t, "reg")
	ids := []string{"j1"}
	for i := 2; i <= f.params.JurySize; i++ {
		id := fmt.Sprintf("j%d", i)
		f.registerJuror(t, id, 150)
		ids = append(ids, id)
	}
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-reg"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids}); err != nil {
		t.Fatalf("assign jury: %v", err)
	}
	// Re-registering adjusts reputation but keeps the in-flight assignment.
	record, err := f.svc.RegisterJuror(context.Background(), f.authority("rereg-j1"), application.RegisterJurorInput{JurorID: "j1", Reputation: 300})
	if err != nil {
		t.Fatalf("re-register juror: %v", err)
	}
	if record.Reputation != 300 || record.ActiveAssignments != 1 {
		t.Fatalf("expected reputation 300 with 1 active assignment, got %+v", record)
	}
}

func TestAssignJurySizeMismatch(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	dispute := f.readyDispute(t, "size")
	f.registerJuror(t, "j1", 150)
	_, err := f.svc.AssignJury(context.Background(), f.authority("assign-size"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: []string{"j1"}})
	if !errors.Is(err, domain.ErrJurySizeMismatch) {
		t.Fatalf("expected ErrJurySizeMismatch, got %v", err)
	}
}

func TestAssignJuryIneligibleIsAllOrNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	dispute := f.readyDispute(t, "inel")
	ids := f.panel(t, 150)
	// One juror below the reputation threshold rejects the whole panel.
	f.registerJuror(t, "weak", 50)
	ids[len(ids)-1] = "weak"
	_, err := f.svc.AssignJury(context.Background(), f.authority("assign-inel"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids})
	if !errors.Is(err, domain.ErrJurorIneligible) {
		t.Fatalf("expected ErrJurorIneligible, got %v", err)
	}
	if record := f.jurorRecord(t, "juror-1"); record.ActiveAssignments != 0 {
		t.Fatalf("expected no assignment charged to eligible juror, got %d", record.ActiveAssignments)
	}
	if _, err := f.repos.Juries.GetByDisputeID(context.Background(), dispute.DisputeID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no jury created, got %v", err)
	}
}

func TestAssignJuryAtCapacityIsAllOrNothing(t *testing.T) {
	t.Parallel()
	params := defaultParams()
	params.MaxActiveAssignments = 1
	f := newFixture(t, params)

	first := f.readyDispute(t, "cap1")
	ids := f.panel(t, 150)
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-cap1"), first.DisputeID, application.AssignJuryInput{JurorIDs: ids}); err != nil {
		t.Fatalf("assign first jury: %v", err)
	}

	// A second panel reusing one busy juror is rejected whole.
	second := f.readyDispute(t, "cap2")
	fresh := make([]string, 0, f.params.JurySize)
	for i := 1; i < f.params.JurySize; i++ {
		id := fmt.Sprintf("fresh-%d", i)
		f.registerJuror(t, id, 150)
		fresh = append(fresh, id)
	}
	busy := ids[0]
	_, err := f.svc.AssignJury(context.Background(), f.authority("assign-cap2"), second.DisputeID, application.AssignJuryInput{JurorIDs: append(fresh, busy)})
	if !errors.Is(err, domain.ErrJurorIneligible) {
		t.Fatalf("expected ErrJurorIneligible for juror at capacity, got %v", err)
	}
	for _, id := range fresh {
		if record := f.jurorRecord(t, id); record.ActiveAssignments != 0 {
			t.Fatalf("expected no assignment charged to fresh juror %s, got %d", id, record.ActiveAssignments)
		}
	}
	if record := f.jurorRecord(t, busy); record.ActiveAssignments != 1 {
		t.Fatalf("expected busy juror unchanged at 1 assignment, got %d", record.ActiveAssignments)
	}
	if _, err := f.repos.Juries.GetByDisputeID(context.Background(), second.DisputeID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no second jury created, got %v", err)
	}
}

func TestAssignJuryRejectsDuplicatesAndReassignment(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	dispute := f.readyDispute(t, "dup")
	ids := f.panel(t, 150)

	dupIDs := append([]string(nil), ids...)
	dupIDs[1] = dupIDs[0]
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-dup"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: dupIDs}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate jurors, got %v", err)
	}

	jury, err := f.svc.AssignJury(context.Background(), f.authority("assign-ok"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids})
	if err != nil {
		t.Fatalf("assign jury: %v", err)
	}
	if jury.Status != domain.JuryStatusVoting || len(jury.Members) != f.params.JurySize {
		t.Fatalf("unexpected jury: %+v", jury)
	}
	for _, id := range ids {
		if record := f.jurorRecord(t, id); record.ActiveAssignments != 1 {
			t.Fatalf("expected juror %s charged one assignment, got %d", id, record.ActiveAssignments)
		}
	}

	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-again"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for second jury, got %v", err)
	}
}

func TestAssignJuryUnknownDispute(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	ids := f.panel(t, 150)
	_, err := f.svc.AssignJury(context.Background(), f.authority("assign-miss"), 42, application.AssignJuryInput{JurorIDs: ids})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitVoteMembershipAndDoubleVote(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	dispute := f.readyDispute(t, "vote")
	ids := f.panel(t, 150)
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-vote"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids}); err != nil {
		t.Fatalf("assign jury: %v", err)
	}

	if _, err := f.svc.SubmitVote(context.Background(), actor("outsider", "vote-out"), dispute.DisputeID, application.SubmitVoteInput{Vote: "challenger"}); !errors.Is(err, domain.ErrNotJuryMember) {
		t.Fatalf("expected ErrNotJuryMember, got %v", err)
	}

	f.vote(t, dispute.DisputeID, ids[0], "challenger")
	if _, err := f.svc.SubmitVote(context.Background(), actor(ids[0], "vote-again"), dispute.DisputeID, application.SubmitVoteInput{Vote: "respondent"}); !errors.Is(err, domain.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	jury, err := f.svc.GetJury(context.Background(), actor("alice-vote", ""), dispute.DisputeID)
	if err != nil {
		t.Fatalf("get jury: %v", err)
	}
	if jury.TallyChallenger != 1 || jury.TallyRespondent != 0 {
		t.Fatalf("unexpected tallies: %+v", jury)
	}
}

func TestFinalizeTieThenMajority(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	dispute := f.readyDispute(t, "tie")
	ids := f.panel(t, 150)
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-tie"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids}); err != nil {
		t.Fatalf("assign jury: %v", err)
	}
	f.vote(t, dispute.DisputeID, ids[0], "challenger")
	f.vote(t, dispute.DisputeID, ids[1], "challenger")
	f.vote(t, dispute.DisputeID, ids[2], "respondent")
	f.vote(t, dispute.DisputeID, ids[3], "respondent")

	_, _, err := f.svc.FinalizeDecision(context.Background(), f.authority("fin-tie"), dispute.DisputeID)
	if !errors.Is(err, domain.ErrNoMajority) {
		t.Fatalf("expected ErrNoMajority, got %v", err)
	}
	jury, err := f.repos.Juries.GetByDisputeID(context.Background(), dispute.DisputeID)
	if err != nil {
		t.Fatalf("get jury: %v", err)
	}
	if jury.Status != domain.JuryStatusVoting {
		t.Fatalf("tie must leave jury voting, got %s", jury.Status)
	}
	if record := f.jurorRecord(t, ids[0]); record.Reputation != 150 || record.ActiveAssignments != 1 {
		t.Fatalf("tie must not touch jurors, got %+v", record)
	}

	// The tie-breaking fifth vote; the failed finalize burned its key.
	f.vote(t, dispute.DisputeID, ids[4], "challenger")
	resolved, decided, err := f.svc.FinalizeDecision(context.Background(), f.authority("fin-maj"), dispute.DisputeID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if resolved.Status != domain.DisputeStatusResolved || resolved.Winner != domain.PartyChallenger {
		t.Fatalf("expected challenger win, got %+v", resolved)
	}
	if decided.Status != domain.JuryStatusDecided || decided.DecidedAt == nil {
		t.Fatalf("expected decided jury, got %+v", decided)
	}
	if got := f.ledger.Balance("alice-tie"); got != 3900 {
		t.Fatalf("expected winner payout 3900, got %d", got)
	}
}

func TestFinalizeAppliesIncentives(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	dispute := f.readyDispute(t, "inc")
	ids := f.panel(t, 150)
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-inc"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids}); err != nil {
		t.Fatalf("assign jury: %v", err)
	}
	f.vote(t, dispute.DisputeID, ids[0], "challenger")
	f.vote(t, dispute.DisputeID, ids[1], "challenger")
	f.vote(t, dispute.DisputeID, ids[2], "challenger")
	f.vote(t, dispute.DisputeID, ids[3], "respondent")
	// ids[4] never votes.

	if _, _, err := f.svc.FinalizeDecision(context.Background(), f.authority("fin-inc"), dispute.DisputeID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	for _, id := range ids[:3] {
		record := f.jurorRecord(t, id)
		if record.Reputation != 160 {
			t.Fatalf("majority juror %s expected reputation 160, got %d", id, record.Reputation)
		}
	}
	if record := f.jurorRecord(t, ids[3]); record.Reputation != 140 {
		t.Fatalf("minority juror expected reputation 140, got %d", record.Reputation)
	}
	if record := f.jurorRecord(t, ids[4]); record.Reputation != 130 {
		t.Fatalf("absent juror expected reputation 130, got %d", record.Reputation)
	}
	for _, id := range ids {
		if record := f.jurorRecord(t, id); record.ActiveAssignments != 0 {
			t.Fatalf("juror %s assignment slot not released: %d", id, record.ActiveAssignments)
		}
	}

	if _, _, err := f.svc.FinalizeDecision(context.Background(), f.authority("fin-inc-2"), dispute.DisputeID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second finalize, got %v", err)
	}
}

func TestFinalizeSlashSaturatesAtZero(t *testing.T) {
	t.Parallel()
	params := defaultParams()
	params.MinJurorReputation = 0
	params.NoVoteSlash = 500
	f := newFixture(t, params)
	dispute := f.readyDispute(t, "sat")
	ids := f.panel(t, 150)
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-sat"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids}); err != nil {
		t.Fatalf("assign jury: %v", err)
	}
	for _, id := range ids[:3] {
		f.vote(t, dispute.DisputeID, id, "respondent")
	}
	if _, _, err := f.svc.FinalizeDecision(context.Background(), f.authority("fin-sat"), dispute.DisputeID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if record := f.jurorRecord(t, ids[4]); record.Reputation != 0 {
		t.Fatalf("expected reputation floored at zero, got %d", record.Reputation)
	}
}

func TestFinalizeSettlementFailureThenRetry(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	dispute := f.readyDispute(t, "pend")
	ids := f.panel(t, 150)
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-pend"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids}); err != nil {
		t.Fatalf("assign jury: %v", err)
	}
	for _, id := range ids[:3] {
		f.vote(t, dispute.DisputeID, id, "challenger")
	}

	f.ledger.setRefuseTransfers(true)
	_, _, err := f.svc.FinalizeDecision(context.Background(), f.authority("fin-pend"), dispute.DisputeID)
	if !errors.Is(err, domain.ErrSettlementPending) {
		t.Fatalf("expected ErrSettlementPending, got %v", err)
	}
	jury, err := f.repos.Juries.GetByDisputeID(context.Background(), dispute.DisputeID)
	if err != nil {
		t.Fatalf("get jury: %v", err)
	}
	if jury.Status != domain.JuryStatusDecided {
		t.Fatalf("decision must stand despite failed settlement, got %s", jury.Status)
	}
	if record := f.jurorRecord(t, ids[0]); record.Reputation != 160 {
		t.Fatalf("incentives must stand despite failed settlement, got %d", record.Reputation)
	}
	pending, err := f.repos.Disputes.GetByID(context.Background(), dispute.DisputeID)
	if err != nil {
		t.Fatalf("get dispute: %v", err)
	}
	if pending.Status != domain.DisputeStatusReadyForResolution {
		t.Fatalf("dispute must stay unsettled, got %s", pending.Status)
	}

	// First retry pass still fails, second succeeds once the ledger recovers.
	if settled, err := f.svc.RetryPendingSettlements(context.Background()); settled != 0 || err == nil {
		t.Fatalf("expected failing retry pass, got settled=%d err=%v", settled, err)
	}
	f.ledger.setRefuseTransfers(false)
	settled, err := f.svc.RetryPendingSettlements(context.Background())
	if err != nil {
		t.Fatalf("retry pending settlements: %v", err)
	}
	if settled != 1 {
		t.Fatalf("expected one settled dispute, got %d", settled)
	}
	recovered, err := f.repos.Disputes.GetByID(context.Background(), dispute.DisputeID)
	if err != nil {
		t.Fatalf("get dispute: %v", err)
	}
	if recovered.Status != domain.DisputeStatusResolved || recovered.Winner != domain.PartyChallenger {
		t.Fatalf("expected resolved after retry, got %+v", recovered)
	}
	if got := f.ledger.Balance(escrowAccount); got != 0 {
		t.Fatalf("expected escrow drained after retry, got %d", got)
	}

	// Idle passes settle nothing.
	if settled, err := f.svc.RetryPendingSettlements(context.Background()); settled != 0 || err != nil {
		t.Fatalf("expected idle retry pass, got settled=%d err=%v", settled, err)
	}
}

func TestRetrySettlementRequiresDecidedJury(t *testing.T) {
	t.Parallel()
	f := newFixture(t, defaultParams())
	dispute := f.readyDispute(t, "retry")
	ids := f.panel(t, 150)
	if _, err := f.svc.AssignJury(context.Background(), f.authority("assign-retry"), dispute.DisputeID, application.AssignJuryInput{JurorIDs: ids}); err != nil {
		t.Fatalf("assign jury: %v", err)
	}
	_, _, err := f.svc.RetrySettlement(context.Background(), f.authority("ret-1"), dispute.DisputeID)
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for voting jury, got %v", err)
	}
}

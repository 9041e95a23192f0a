package domain

import "time"

const (
	JuryStatusVoting  = "voting"
	JuryStatusDecided = "decided"
)

// Jury is the panel bound to a single dispute. At most one jury exists per
// dispute; the member list is fixed at assignment time.
type Jury struct {
	DisputeID       uint64           `json:"dispute_id"`
	Status          string           `json:"status"`
	Members         []string         `json:"members"`
	Ballots         map[string]Party `json:"ballots"`
	TallyChallenger int              `json:"tally_challenger"`
	TallyRespondent int              `json:"tally_respondent"`
	AssignedAt      time.Time        `json:"assigned_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DecidedAt       *time.Time       `json:"decided_at,omitempty"`
}

func (j Jury) IsMember(jurorID string) bool {
	for _, member := range j.Members {
		if member == jurorID {
			return true
		}
	}
	return false
}

func (j Jury) HasVoted(jurorID string) bool {
	_, ok := j.Ballots[jurorID]
	return ok
}

// Verdict returns the strict majority of cast votes. A tie, including the
// zero-vote case, fails with ErrNoMajority and leaves the jury undecided.
func (j Jury) Verdict() (Party, error) {
	switch {
	case j.TallyChallenger > j.TallyRespondent:
		return PartyChallenger, nil
	case j.TallyRespondent > j.TallyChallenger:
		return PartyRespondent, nil
	default:
		return PartyNone, ErrNoMajority
	}
}

// Clone deep-copies the jury so repository snapshots cannot alias the member
// list or ballot map of a live record.
func (j Jury) Clone() Jury {
	out := j
	out.Members = append([]string(nil), j.Members...)
	out.Ballots = make(map[string]Party, len(j.Ballots))
	for juror, vote := range j.Ballots {
		out.Ballots[juror] = vote
	}
	if j.DecidedAt != nil {
		at := *j.DecidedAt
		out.DecidedAt = &at
	}
	return out
}

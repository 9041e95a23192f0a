package domain

import (
	"fmt"
	"time"
)

const (
	SlashReasonMinorityVote = "minority_vote"
	SlashReasonNoVote       = "no_vote"
)

type JurorRecord struct {
	JurorID           string    `json:"juror_id"`
	Registered        bool      `json:"registered"`
	Reputation        int64     `json:"reputation"`
	ActiveAssignments int       `json:"active_assignments"`
	RegisteredAt      time.Time `json:"registered_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// EligibilityCheck reports whether the juror can take a new assignment.
// Failures wrap ErrJurorIneligible so assignment can reject the whole list
// with one error kind.
func (r JurorRecord) EligibilityCheck(minReputation int64, maxActiveAssignments int) error {
	if !r.Registered {
		return fmt.Errorf("%w: juror %s is not registered", ErrJurorIneligible, r.JurorID)
	}
	if r.Reputation < minReputation {
		return fmt.Errorf("%w: juror %s reputation %d below threshold %d", ErrJurorIneligible, r.JurorID, r.Reputation, minReputation)
	}
	if r.ActiveAssignments >= maxActiveAssignments {
		return fmt.Errorf("%w: juror %s at assignment capacity %d", ErrJurorIneligible, r.JurorID, maxActiveAssignments)
	}
	return nil
}

// SaturatingSlash decreases reputation, flooring at zero.
func SaturatingSlash(reputation, amount int64) int64 {
	if amount >= reputation {
		return 0
	}
	return reputation - amount
}

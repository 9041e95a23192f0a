package domain

import (
	"errors"
	"testing"
)

func TestEligibilityCheck(t *testing.T) {
	t.Parallel()
	record := JurorRecord{JurorID: "j1", Registered: true, Reputation: 150, ActiveAssignments: 1}
	if err := record.EligibilityCheck(100, 3); err != nil {
		t.Fatalf("expected eligible: %v", err)
	}

	unregistered := JurorRecord{JurorID: "j2", Reputation: 500}
	if err := unregistered.EligibilityCheck(100, 3); !errors.Is(err, ErrJurorIneligible) {
		t.Fatalf("expected ErrJurorIneligible for unregistered, got %v", err)
	}

	lowRep := JurorRecord{JurorID: "j3", Registered: true, Reputation: 99}
	if err := lowRep.EligibilityCheck(100, 3); !errors.Is(err, ErrJurorIneligible) {
		t.Fatalf("expected ErrJurorIneligible for low reputation, got %v", err)
	}

	saturated := JurorRecord{JurorID: "j4", Registered: true, Reputation: 500, ActiveAssignments: 3}
	if err := saturated.EligibilityCheck(100, 3); !errors.Is(err, ErrJurorIneligible) {
		t.Fatalf("expected ErrJurorIneligible at capacity, got %v", err)
	}
}

func TestSaturatingSlash(t *testing.T) {
	t.Parallel()
	if got := SaturatingSlash(100, 30); got != 70 {
		t.Fatalf("expected 70, got %d", got)
	}
	if got := SaturatingSlash(10, 30); got != 0 {
		t.Fatalf("expected floor at zero, got %d", got)
	}
	if got := SaturatingSlash(30, 30); got != 0 {
		t.Fatalf("expected exact drain to zero, got %d", got)
	}
}

package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrInvalidState          = errors.New("invalid lifecycle state")
	ErrAlreadyDefended       = errors.New("dispute already defended")
	ErrAlreadyVoted          = errors.New("juror already voted")
	ErrNotJuryMember         = errors.New("caller is not a jury member")
	ErrJurorIneligible       = errors.New("juror ineligible")
	ErrJurySizeMismatch      = errors.New("juror list does not match configured jury size")
	ErrNoMajority            = errors.New("no majority verdict")
	ErrLedgerTransferFailed  = errors.New("ledger transfer failed")
	ErrSettlementPending     = errors.New("jury decided but settlement pending")
	ErrIdempotencyRequired   = errors.New("idempotency key required")
	ErrIdempotencyConflict   = errors.New("idempotency key reused with different payload")
	ErrUnsupportedEventType  = errors.New("unsupported event type")
	ErrUnsupportedEventClass = errors.New("unsupported event class")
	ErrInvalidEnvelope       = errors.New("invalid envelope")
)

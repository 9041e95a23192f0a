package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, contracts.SuccessResponse{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string) {
	writeJSON(w, status, contracts.ErrorResponse{Status: "error", Error: contracts.ErrorPayload{Code: code, Message: message, RequestID: requestID}})
}

func mapDomainError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.Is(err, domain.ErrSettlementPending):
		return http.StatusBadGateway, "settlement_pending"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotJuryMember):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrIdempotencyRequired):
		return http.StatusBadRequest, "idempotency_key_required"
	case errors.Is(err, domain.ErrJurySizeMismatch):
		return http.StatusBadRequest, "jury_size_mismatch"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrUnsupportedEventType), errors.Is(err, domain.ErrUnsupportedEventClass), errors.Is(err, domain.ErrInvalidEnvelope):
		return http.StatusBadRequest, "invalid_event_envelope"
	case errors.Is(err, domain.ErrAlreadyDefended):
		return http.StatusConflict, "already_defended"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return http.StatusConflict, "already_voted"
	case errors.Is(err, domain.ErrNoMajority):
		return http.StatusConflict, "no_majority"
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrJurorIneligible):
		return http.StatusUnprocessableEntity, "juror_ineligible"
	case errors.Is(err, domain.ErrLedgerTransferFailed):
		return http.StatusUnprocessableEntity, "ledger_transfer_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

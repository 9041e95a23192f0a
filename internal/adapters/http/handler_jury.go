package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
)

func (h *Handler) submitVote(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	var req contracts.SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	jury, err := h.service.SubmitVote(r.Context(), actor, id, application.SubmitVoteInput{Vote: strings.TrimSpace(req.Vote)})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "vote recorded", toJuryResponse(jury))
}

func (h *Handler) getJury(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	jury, err := h.service.GetJury(r.Context(), actor, id)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", toJuryResponse(jury))
}

func (h *Handler) getJuror(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	record, err := h.service.GetJuror(r.Context(), actor, chi.URLParam(r, "juror_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", toJurorResponse(record))
}

package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
)

func (h *Handler) resolveDispute(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	var req contracts.ResolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	dispute, settlement, err := h.service.ResolveDispute(r.Context(), actor, id, application.ResolveDisputeInput{Winner: strings.TrimSpace(req.Winner)})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "dispute resolved", map[string]any{
		"dispute":    toDisputeResponse(dispute),
		"settlement": toSettlementResponse(dispute.DisputeID, settlement),
	})
}

func (h *Handler) cancelDispute(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	dispute, err := h.service.CancelDispute(r.Context(), actor, id)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "dispute cancelled", toDisputeResponse(dispute))
}

func (h *Handler) assignJury(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	var req contracts.AssignJuryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	jury, err := h.service.AssignJury(r.Context(), actor, id, application.AssignJuryInput{JurorIDs: req.JurorIDs})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "jury assigned", toJuryResponse(jury))
}

func (h *Handler) finalizeDecision(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	dispute, jury, err := h.service.FinalizeDecision(r.Context(), actor, id)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "decision finalized", map[string]any{
		"dispute": toDisputeResponse(dispute),
		"jury":    toJuryResponse(jury),
	})
}

func (h *Handler) retrySettlement(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	dispute, settlement, err := h.service.RetrySettlement(r.Context(), actor, id)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "settlement completed", map[string]any{
		"dispute":    toDisputeResponse(dispute),
		"settlement": toSettlementResponse(dispute.DisputeID, settlement),
	})
}

func (h *Handler) registerJuror(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.RegisterJurorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	record, err := h.service.RegisterJuror(r.Context(), actor, application.RegisterJurorInput{
		JurorID:    strings.TrimSpace(req.JurorID),
		Reputation: req.Reputation,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "juror registered", toJurorResponse(record))
}

func (h *Handler) updateJurorReputation(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.UpdateReputationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	record, err := h.service.UpdateJurorReputation(r.Context(), actor, chi.URLParam(r, "juror_id"), application.UpdateReputationInput{Reputation: req.Reputation})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "reputation updated", toJurorResponse(record))
}

func (h *Handler) getParams(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	params, err := h.service.GetParams(r.Context(), actor)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", toParamsResponse(params))
}

func (h *Handler) updateStakes(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.UpdateStakesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	params, err := h.service.UpdateStakes(r.Context(), actor, application.UpdateStakesInput{
		ChallengerStake: req.ChallengerStake,
		RespondentStake: req.RespondentStake,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "stakes updated", toParamsResponse(params))
}

func (h *Handler) updateFeeRate(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.UpdateFeeRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	params, err := h.service.UpdateFeeRate(r.Context(), actor, application.UpdateFeeRateInput{FeeRateBps: req.FeeRateBps})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "fee rate updated", toParamsResponse(params))
}

func (h *Handler) updateTreasury(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.UpdateTreasuryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	params, err := h.service.UpdateTreasury(r.Context(), actor, application.UpdateTreasuryInput{Treasury: strings.TrimSpace(req.Treasury)})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "treasury updated", toParamsResponse(params))
}

func (h *Handler) updateJuryParameters(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.UpdateJuryParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	params, err := h.service.UpdateJuryParameters(r.Context(), actor, application.UpdateJuryParametersInput{
		MinJurorReputation:   req.MinJurorReputation,
		MaxActiveAssignments: req.MaxActiveAssignments,
		JurySize:             req.JurySize,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "jury parameters updated", toParamsResponse(params))
}

func (h *Handler) updateIncentives(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.UpdateIncentivesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	params, err := h.service.UpdateIncentives(r.Context(), actor, application.UpdateIncentivesInput{
		MajorityReward: req.MajorityReward,
		MinoritySlash:  req.MinoritySlash,
		NoVoteSlash:    req.NoVoteSlash,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "incentives updated", toParamsResponse(params))
}

func (h *Handler) transferAuthority(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.TransferAuthorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	params, err := h.service.TransferAuthority(r.Context(), actor, application.TransferAuthorityInput{Authority: strings.TrimSpace(req.Authority)})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "authority transferred", toParamsResponse(params))
}

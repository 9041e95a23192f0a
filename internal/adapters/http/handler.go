package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

func disputeIDParam(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "dispute_id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) openDispute(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	var req contracts.OpenDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	dispute, err := h.service.OpenDispute(r.Context(), actor, application.OpenDisputeInput{
		ContentRef:   strings.TrimSpace(req.ContentRef),
		RespondentID: strings.TrimSpace(req.RespondentID),
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusCreated, "dispute opened", toDisputeResponse(dispute))
}

func (h *Handler) getDispute(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	dispute, err := h.service.GetDispute(r.Context(), actor, id)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", toDisputeResponse(dispute))
}

func (h *Handler) listDisputes(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	disputes, err := h.service.ListDisputes(r.Context(), actor, limit)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	out := make([]contracts.DisputeResponse, 0, len(disputes))
	for _, dispute := range disputes {
		out = append(out, toDisputeResponse(dispute))
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"disputes": out})
}

func (h *Handler) defendDispute(w http.ResponseWriter, r *http.Request) {
	actor := actorFromContext(r.Context())
	id, ok := disputeIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid dispute id", requestIDFromContext(r.Context()))
		return
	}
	dispute, err := h.service.DefendDispute(r.Context(), actor, id)
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "dispute defended", toDisputeResponse(dispute))
}

func toDisputeResponse(dispute domain.Dispute) contracts.DisputeResponse {
	return contracts.DisputeResponse{
		DisputeID:       dispute.DisputeID,
		ContentRef:      dispute.ContentRef,
		ChallengerID:    dispute.ChallengerID,
		RespondentID:    dispute.RespondentID,
		ChallengerStake: dispute.ChallengerStake,
		RespondentStake: dispute.RespondentStake,
		Status:          dispute.Status,
		Winner:          string(dispute.Winner),
		CreatedAt:       dispute.CreatedAt,
		UpdatedAt:       dispute.UpdatedAt,
		ResolvedAt:      dispute.ResolvedAt,
	}
}

func toJuryResponse(jury domain.Jury) contracts.JuryResponse {
	return contracts.JuryResponse{
		DisputeID:       jury.DisputeID,
		Status:          jury.Status,
		Members:         jury.Members,
		VotesCast:       len(jury.Ballots),
		VotesChallenger: jury.TallyChallenger,
		VotesRespondent: jury.TallyRespondent,
		AssignedAt:      jury.AssignedAt,
		DecidedAt:       jury.DecidedAt,
	}
}

func toJurorResponse(record domain.JurorRecord) contracts.JurorResponse {
	return contracts.JurorResponse{
		JurorID:           record.JurorID,
		Registered:        record.Registered,
		Reputation:        record.Reputation,
		ActiveAssignments: record.ActiveAssignments,
	}
}

func toSettlementResponse(disputeID uint64, settlement domain.Settlement) contracts.SettlementResponse {
	return contracts.SettlementResponse{
		DisputeID:        disputeID,
		Winner:           string(settlement.Winner),
		AmountToWinner:   settlement.WinnerPayout,
		AmountToTreasury: settlement.TreasuryFee,
	}
}

func toParamsResponse(params domain.Params) contracts.ParamsResponse {
	return contracts.ParamsResponse{
		Authority:            params.Authority,
		Treasury:             params.Treasury,
		ChallengerStake:      params.ChallengerStake,
		RespondentStake:      params.RespondentStake,
		FeeRateBps:           params.FeeRateBps,
		MinJurorReputation:   params.MinJurorReputation,
		MaxActiveAssignments: params.MaxActiveAssignments,
		JurySize:             params.JurySize,
		MajorityReward:       params.MajorityReward,
		MinoritySlash:        params.MinoritySlash,
		NoVoteSlash:          params.NoVoteSlash,
	}
}

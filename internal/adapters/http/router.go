package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/security"
)

func NewRouter(handler *Handler, verifier *security.BearerVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(verifier))

			r.Post("/disputes", handler.openDispute)
			r.Get("/disputes", handler.listDisputes)
			r.Get("/disputes/{dispute_id}", handler.getDispute)
			r.Post("/disputes/{dispute_id}/defend", handler.defendDispute)
			r.Post("/disputes/{dispute_id}/votes", handler.submitVote)
			r.Get("/disputes/{dispute_id}/jury", handler.getJury)
			r.Get("/jurors/{juror_id}", handler.getJuror)

			r.Post("/admin/disputes/{dispute_id}/resolve", handler.resolveDispute)
			r.Post("/admin/disputes/{dispute_id}/cancel", handler.cancelDispute)
			r.Post("/admin/disputes/{dispute_id}/jury", handler.assignJury)
			r.Post("/admin/disputes/{dispute_id}/finalize", handler.finalizeDecision)
			r.Post("/admin/disputes/{dispute_id}/settlement/retry", handler.retrySettlement)
			r.Post("/admin/jurors", handler.registerJuror)
			r.Put("/admin/jurors/{juror_id}/reputation", handler.updateJurorReputation)
			r.Get("/admin/params", handler.getParams)
			r.Put("/admin/params/stakes", handler.updateStakes)
			r.Put("/admin/params/fee", handler.updateFeeRate)
			r.Put("/admin/params/treasury", handler.updateTreasury)
			r.Put("/admin/params/jury", handler.updateJuryParameters)
			r.Put("/admin/params/incentives", handler.updateIncentives)
			r.Post("/admin/authority/transfer", handler.transferAuthority)
		})
	})
	return r
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	eventsadapter "github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/events"
	httpadapter "github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/http"
	ledgeradapter "github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/ledger"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/contracts"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
)

const escrowAccount = "escrow:dispute-tribunal"

func newTestRouter(t *testing.T) (http.Handler, *ledgeradapter.MemoryLedger) {
	t.Helper()
	repos := postgres.NewRepositories()
	params := domain.Params{
		Authority: "authority-1", Treasury: "treasury-1",
		ChallengerStake: 2000, RespondentStake: 2000, FeeRateBps: 500,
		MinJurorReputation: 100, MaxActiveAssignments: 3, JurySize: 5,
		MajorityReward: 10, MinoritySlash: 10, NoVoteSlash: 20,
	}
	if err := repos.Params.Put(context.Background(), params); err != nil {
		t.Fatalf("seed params: %v", err)
	}
	memLedger := ledgeradapter.NewMemoryLedger(escrowAccount)
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:     "M49-Dispute-Tribunal-Service",
			EscrowAccountID: escrowAccount,
			IdempotencyTTL:  7 * 24 * time.Hour,
			EventDedupTTL:   7 * 24 * time.Hour,
		},
		Disputes: repos.Disputes, Juries: repos.Juries, Jurors: repos.Jurors, Params: repos.Params,
		Idempotency: repos.Idempotency, EventDedup: repos.EventDedup, Outbox: repos.Outbox,
		Ledger:       memLedger,
		DomainEvents: eventsadapter.NewMemoryDomainPublisher(),
		Analytics:    eventsadapter.NewMemoryAnalyticsPublisher(),
		DLQ:          eventsadapter.NewMemoryDLQPublisher(),
	})
	handler := httpadapter.NewHandler(svc)
	// Empty secret: bearer tokens are opaque subject ids.
	return httpadapter.NewRouter(handler, security.NewBearerVerifier("")), memLedger
}

func doJSON(t *testing.T, router http.Handler, method, path, subject, idemKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	if subject != "" {
		req.Header.Set("Authorization", "Bearer "+subject)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("expected success envelope, got %s", rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, router, http.MethodGet, path, "", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
	}
}

func TestOpenDisputeEndpoint(t *testing.T) {
	t.Parallel()
	router, memLedger := newTestRouter(t)
	memLedger.Credit("alice", 2000)
	memLedger.Approve("alice", escrowAccount, 2000)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/disputes", "alice", "open-1", contracts.OpenDisputeRequest{
		ContentRef: "content:xyz", RespondentID: "bob",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var dispute contracts.DisputeResponse
	decodeSuccess(t, rec, &dispute)
	if dispute.DisputeID != 1 || dispute.Status != domain.DisputeStatusAwaitingDefense {
		t.Fatalf("unexpected dispute: %+v", dispute)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/disputes/1", "alice", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestOpenDisputeRequiresAuth(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/disputes", "", "open-noauth", contracts.OpenDisputeRequest{
		ContentRef: "content:xyz", RespondentID: "bob",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestOpenDisputeRequiresIdempotencyKey(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/disputes", "alice", "", contracts.OpenDisputeRequest{
		ContentRef: "content:xyz", RespondentID: "bob",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetDisputeNotFound(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/v1/disputes/99", "alice", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/v1/disputes/not-a-number", "alice", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
}

func TestAdminEndpointsEnforceAuthority(t *testing.T) {
	t.Parallel()
	router, memLedger := newTestRouter(t)
	memLedger.Credit("alice", 2000)
	memLedger.Approve("alice", escrowAccount, 2000)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/disputes", "alice", "open-adm", contracts.OpenDisputeRequest{
		ContentRef: "content:xyz", RespondentID: "bob",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("open dispute: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/admin/disputes/1/cancel", "mallory", "can-adm", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-authority, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/api/v1/admin/disputes/1/cancel", "authority-1", "can-adm2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for authority cancel, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestParamsEndpoints(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/v1/admin/params", "anyone", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get params: %d", rec.Code)
	}
	var params contracts.ParamsResponse
	decodeSuccess(t, rec, &params)
	if params.Authority != "authority-1" || params.JurySize != 5 {
		t.Fatalf("unexpected params: %+v", params)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/v1/admin/params/fee", "authority-1", "fee-http", contracts.UpdateFeeRateRequest{FeeRateBps: 12000})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid fee, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPut, "/api/v1/admin/params/fee", "authority-1", "fee-http2", contracts.UpdateFeeRateRequest{FeeRateBps: 250})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterJurorEndpoint(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/api/v1/admin/jurors", "authority-1", "reg-http", contracts.RegisterJurorRequest{JurorID: "j1", Reputation: 150})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register juror: %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, "/api/v1/jurors/j1", "anyone", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get juror: %d", rec.Code)
	}
	var juror contracts.JurorResponse
	decodeSuccess(t, rec, &juror)
	if juror.JurorID != "j1" || juror.Reputation != 150 || !juror.Registered {
		t.Fatalf("unexpected juror: %+v", juror)
	}
}

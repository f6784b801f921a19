package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

type stubOrgLoader struct {
	org *domain.Organisation
	err error
}

func (s *stubOrgLoader) GetByID(context.Context, string) (*domain.Organisation, error) {
	return s.org, s.err
}

func expiredOrg(end time.Time) *domain.Organisation {
	start := end.AddDate(0, 0, -14)
	return &domain.Organisation{
		ID:         "org-1",
		Plan:       domain.PlanStarter,
		TrialStart: &start,
		TrialEnd:   &end,
	}
}

func gateRequest(t *testing.T, loader OrgLoader, path, orgID string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	handler := TrialGate(loader, time.Second, zerolog.Nop())(next)

	req := httptest.NewRequest("GET", path, nil)
	if orgID != "" {
		req = req.WithContext(ContextWithSession(req.Context(), "user-1", orgID, false))
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, called
}

func TestTrialGateBypassesBillingPathsWhenExpired(t *testing.T) {
	end := time.Now().AddDate(0, 0, -2)
	loader := &stubOrgLoader{org: expiredOrg(end)}

	for _, path := range []string{"/v1/billing/seats", "/v1/auth/login", "/v1/webhooks/stripe", "/v1/healthz"} {
		rr, called := gateRequest(t, loader, path, "org-1")
		if !called || rr.Code != http.StatusOK {
			t.Fatalf("%s: expired org must bypass the gate, got status %d (next called: %v)", path, rr.Code, called)
		}
	}
}

func TestTrialGateRejectsExpiredAPIPath(t *testing.T) {
	end := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	loader := &stubOrgLoader{org: expiredOrg(end)}

	rr, called := gateRequest(t, loader, "/v1/tickets", "org-1")
	if called {
		t.Fatalf("next handler must not run for an expired org on an API path")
	}
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusPaymentRequired)
	}

	var body struct {
		Error      string    `json:"error"`
		Message    string    `json:"message"`
		TrialEnd   time.Time `json:"trialEnd"`
		RedirectTo string    `json:"redirectTo"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode rejection body: %v", err)
	}
	if body.Error != "trial_expired" {
		t.Fatalf("error = %q, want trial_expired", body.Error)
	}
	if !body.TrialEnd.Equal(end) {
		t.Fatalf("trialEnd = %v, want the original %v", body.TrialEnd, end)
	}
	if body.RedirectTo != "/billing" {
		t.Fatalf("redirectTo = %q, want /billing", body.RedirectTo)
	}
	if body.Message == "" {
		t.Fatalf("rejection must carry a user-facing message")
	}
}

func TestTrialGatePageNavigationNeverBlocked(t *testing.T) {
	loader := &stubOrgLoader{org: expiredOrg(time.Now().AddDate(0, 0, -1))}
	rr, called := gateRequest(t, loader, "/app/tickets", "org-1")
	if !called || rr.Code != http.StatusOK {
		t.Fatalf("page path must proceed for an expired org, got %d (next called: %v)", rr.Code, called)
	}
}

func TestTrialGateAllowsTrialingOrg(t *testing.T) {
	end := time.Now().AddDate(0, 0, 5)
	loader := &stubOrgLoader{org: expiredOrg(end)}
	rr, called := gateRequest(t, loader, "/v1/tickets", "org-1")
	if !called || rr.Code != http.StatusOK {
		t.Fatalf("trialing org must proceed, got %d (next called: %v)", rr.Code, called)
	}
}

func TestTrialGateFailsOpenOnLoadError(t *testing.T) {
	loader := &stubOrgLoader{err: errors.New("connection refused")}
	rr, called := gateRequest(t, loader, "/v1/tickets", "org-1")
	if !called || rr.Code != http.StatusOK {
		t.Fatalf("store failure must not block the request, got %d (next called: %v)", rr.Code, called)
	}
}

func TestTrialGateNoOrgContextProceeds(t *testing.T) {
	loader := &stubOrgLoader{err: errors.New("must not be called")}
	rr, called := gateRequest(t, loader, "/v1/tickets", "")
	if !called || rr.Code != http.StatusOK {
		t.Fatalf("request without org context must pass through, got %d (next called: %v)", rr.Code, called)
	}
}

func TestTrialGateAttachesStatusForDownstream(t *testing.T) {
	end := time.Now().AddDate(0, 0, 5)
	loader := &stubOrgLoader{org: expiredOrg(end)}

	var got domain.BillingStatus
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = BillingStatusFromContext(r.Context())
	})
	handler := TrialGate(loader, time.Second, zerolog.Nop())(next)
	req := httptest.NewRequest("GET", "/v1/tickets", nil)
	req = req.WithContext(ContextWithSession(req.Context(), "user-1", "org-1", false))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !ok {
		t.Fatalf("gate must attach the billing status to the request context")
	}
	if got.State != domain.BillingTrialing {
		t.Fatalf("attached state = %q, want trialing", got.State)
	}
}

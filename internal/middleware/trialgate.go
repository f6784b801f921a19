package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/i18n"
)

// OrgLoader fetches the organisation snapshot the gate evaluates.
type OrgLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Organisation, error)
}

type billingStatusKey struct{}

// Paths that must stay reachable so a user can add payment and escalate out of
// an expired trial. The gate never blocks these.
var gateBypassPrefixes = []string{
	"/v1/auth",
	"/v1/billing",
	"/v1/webhooks",
	"/v1/healthz",
}

const apiPrefix = "/v1/"

type trialExpiredResponse struct {
	Error      string    `json:"error"`
	Message    string    `json:"message"`
	TrialEnd   time.Time `json:"trialEnd"`
	RedirectTo string    `json:"redirectTo"`
}

// TrialGate evaluates the org's billing status on every tenant-scoped request
// and rejects expired-trial API calls with 402. Requests without an org context
// pass through (rejecting unauthenticated traffic is another middleware's job),
// and any failure loading the snapshot fails open: a billing check must not
// become a site-wide outage trigger.
func TrialGate(loader OrgLoader, loadTimeout time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID := OrgIDFromContext(r.Context())
			if orgID == "" {
				next.ServeHTTP(w, r)
				return
			}
			if gateBypassed(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			loadCtx, cancel := context.WithTimeout(r.Context(), loadTimeout)
			org, err := loader.GetByID(loadCtx, orgID)
			cancel()
			if err != nil {
				logger.Warn().Err(err).Str("org_id", orgID).Msg("trial gate: snapshot load failed, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			status := domain.EvaluateBilling(*org, time.Now())
			if status.State == domain.BillingNoSubscription {
				logger.Warn().Str("org_id", orgID).Msg("trial gate: org has neither trial nor subscription")
			}
			r = r.WithContext(context.WithValue(r.Context(), billingStatusKey{}, status))

			if status.IsExpired() && strings.HasPrefix(r.URL.Path, apiPrefix) {
				locale := LocaleFromContext(r.Context())
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusPaymentRequired)
				_ = json.NewEncoder(w).Encode(trialExpiredResponse{
					Error:      "trial_expired",
					Message:    i18n.StatusMessage(locale, status),
					TrialEnd:   *status.TrialEnd,
					RedirectTo: "/billing",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func gateBypassed(path string) bool {
	for _, prefix := range gateBypassPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// BillingStatusFromContext returns the status the gate attached, if any.
func BillingStatusFromContext(ctx context.Context) (domain.BillingStatus, bool) {
	v, ok := ctx.Value(billingStatusKey{}).(domain.BillingStatus)
	return v, ok
}

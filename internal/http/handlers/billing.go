package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/i18n"
	"server/internal/middleware"
)

type billingStatusResponse struct {
	Status          string     `json:"status"`
	HasSubscription bool       `json:"hasSubscription"`
	IsTrialing      bool       `json:"isTrialing"`
	IsExpired       bool       `json:"isExpired"`
	TrialStart      *time.Time `json:"trialStart"`
	TrialEnd        *time.Time `json:"trialEnd"`
	DaysRemaining   int        `json:"daysRemaining"`
	TotalTrialDays  int        `json:"totalTrialDays"`
	Plan            string     `json:"plan"`
	IncludedSeats   int        `json:"includedSeats"`
	Message         string     `json:"message"`
}

// BillingStatus exposes the evaluator's output for the frontend trial banner.
// The snapshot is read fresh; the gate's cached context value may predate a
// webhook that landed mid-request.
func (a *App) BillingStatus(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.OrgIDFromContext(r.Context())
	if orgID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing organisation context")
		return
	}
	org, err := a.Orgs.GetByID(r.Context(), orgID)
	if err != nil {
		a.error(w, http.StatusNotFound, "not_found", "organisation not found")
		return
	}
	status := domain.EvaluateBilling(*org, time.Now())
	a.json(w, http.StatusOK, billingStatusResponse{
		Status:          string(status.State),
		HasSubscription: status.HasSubscription(),
		IsTrialing:      status.IsTrialing(),
		IsExpired:       status.IsExpired(),
		TrialStart:      status.TrialStart,
		TrialEnd:        status.TrialEnd,
		DaysRemaining:   status.DaysRemaining,
		TotalTrialDays:  status.TotalTrialDays,
		Plan:            string(status.Plan),
		IncludedSeats:   status.IncludedSeats,
		Message:         i18n.StatusMessage(middleware.LocaleFromContext(r.Context()), status),
	})
}

type seatChangeRequest struct {
	Delta int `json:"delta"`
}

type seatChangeResponse struct {
	AdditionalSeats   int   `json:"additional_seats"`
	TotalSeats        int   `json:"total_seats"`
	AddOnCents        int64 `json:"add_on_cents"`
	MonthlyTotalCents int64 `json:"monthly_total_cents"`
	StripeSynced      bool  `json:"stripe_synced"`
}

// SeatsUpdate applies a seat delta. The local write happens under a per-org row
// lock; the Stripe quantity push is the second phase. When the push fails the
// local change stands and the mismatch is reported, to be reconciled on the
// next subscription webhook.
func (a *App) SeatsUpdate(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.OrgIDFromContext(r.Context())
	if orgID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing organisation context")
		return
	}
	var req seatChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	org, change, err := a.Orgs.AdjustSeats(r.Context(), orgID, req.Delta)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeatsInUse):
			a.error(w, http.StatusConflict, "seats_in_use", err.Error())
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "organisation not found")
		default:
			a.Logger.Error().Err(err).Str("org_id", orgID).Msg("seat adjustment failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to update seats")
		}
		return
	}

	synced := true
	if err := a.Seats.UpdateSeatQuantity(r.Context(), org.StripeSeatItemID, int64(change.AdditionalSeats)); err != nil {
		synced = false
		a.Logger.Error().Err(err).Str("org_id", orgID).Msg("stripe seat quantity update failed, awaiting webhook reconciliation")
	}

	a.json(w, http.StatusOK, seatChangeResponse{
		AdditionalSeats:   change.AdditionalSeats,
		TotalSeats:        change.TotalSeats,
		AddOnCents:        change.AddOnCents,
		MonthlyTotalCents: change.MonthlyTotalCents,
		StripeSynced:      synced,
	})
}

type cancelRequest struct {
	Reason  string `json:"reason"`
	Comment string `json:"comment"`
}

// BillingCancel records a tenant-initiated cancellation. The org record is
// retained for historical identity.
func (a *App) BillingCancel(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.OrgIDFromContext(r.Context())
	if orgID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing organisation context")
		return
	}
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Reason == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "reason required")
		return
	}
	if err := a.Orgs.Cancel(r.Context(), orgID, req.Reason, req.Comment); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusConflict, "conflict", "organisation already cancelled or unknown")
			return
		}
		a.Logger.Error().Err(err).Str("org_id", orgID).Msg("cancel organisation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to cancel")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

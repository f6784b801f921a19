package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/sqlinline"
)

type createOrgRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}

type orgDTO struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Plan            string     `json:"plan"`
	TrialStart      *time.Time `json:"trial_start,omitempty"`
	TrialEnd        *time.Time `json:"trial_end,omitempty"`
	IncludedSeats   int        `json:"included_seats"`
	AdditionalSeats int        `json:"additional_seats"`
	TotalSeats      int        `json:"total_seats"`
	SeatOverage     int        `json:"seat_overage"`
	ActiveMembers   int        `json:"active_members,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func orgToDTO(o *domain.Organisation) orgDTO {
	return orgDTO{
		ID:              o.ID,
		Name:            o.Name,
		Plan:            string(o.Plan),
		TrialStart:      o.TrialStart,
		TrialEnd:        o.TrialEnd,
		IncludedSeats:   o.IncludedSeats,
		AdditionalSeats: o.AdditionalSeats,
		TotalSeats:      o.TotalSeats(),
		SeatOverage:     o.SeatOverageCached,
		CancelledAt:     o.CancelledAt,
		CreatedAt:       o.CreatedAt,
	}
}

// OrgCreate provisions a new organisation with its trial window and makes the
// caller its owner.
func (a *App) OrgCreate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req createOrgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Name == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "name required")
		return
	}
	plan := domain.Plan(req.Plan)
	switch plan {
	case domain.PlanStarter, domain.PlanPro, domain.PlanEnterprise:
	case "":
		plan = domain.PlanStarter
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "unknown plan")
		return
	}

	now := time.Now()
	trialEnd := now.AddDate(0, 0, a.TrialDays)
	org := &domain.Organisation{
		Name:          req.Name,
		Plan:          plan,
		TrialStart:    &now,
		TrialEnd:      &trialEnd,
		IncludedSeats: domain.PricingFor(plan).IncludedSeats,
	}
	created, err := a.Orgs.CreateWithOwner(r.Context(), org, userID)
	if err != nil {
		a.Logger.Error().Err(err).Msg("create organisation failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create organisation")
		return
	}
	a.json(w, http.StatusCreated, orgToDTO(created))
}

// OrgCurrent returns the caller's organisation snapshot with the live
// active-member count, so the seat management screen can show usage against
// the allotment.
func (a *App) OrgCurrent(w http.ResponseWriter, r *http.Request) {
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
	dto := orgToDTO(org)
	if err := a.SQL.QueryRow(r.Context(), sqlinline.QCountActiveMembers, orgID).Scan(&dto.ActiveMembers); err != nil {
		a.Logger.Error().Err(err).Str("org_id", orgID).Msg("count active members failed")
	}
	a.json(w, http.StatusOK, dto)
}

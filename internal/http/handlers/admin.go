package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/sqlinline"
)

// deleteConfirmation is the sentinel a hard-delete request must carry verbatim.
const deleteConfirmation = "DELETE PERMANENTLY"

func (a *App) requireMasterAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !middleware.IsMasterAdmin(r.Context()) {
		a.error(w, http.StatusForbidden, "forbidden", "master admin privilege required")
		return false
	}
	return true
}

type adminUserDTO struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	IsMasterAdmin    bool       `json:"is_master_admin"`
	IsSuspended      bool       `json:"is_suspended"`
	AdminNotes       string     `json:"admin_notes"`
	LastLogin        *time.Time `json:"last_login"`
	LastLoginCountry string     `json:"last_login_country"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (a *App) setSuspended(w http.ResponseWriter, r *http.Request, suspended bool) {
	if !a.requireMasterAdmin(w, r) {
		return
	}
	userID := chi.URLParam(r, "id")
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSetUserSuspended, userID, suspended)
	var u adminUserDTO
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsMasterAdmin, &u.IsSuspended, &u.AdminNotes,
		&u.LastLogin, &u.LastLoginCountry, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("set suspended failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to update user")
		return
	}
	a.json(w, http.StatusOK, u)
}

// AdminSuspendUser sets is_suspended. Suspending an already-suspended user is a
// no-op success. Session invalidation happens on the user's next
// authentication check.
func (a *App) AdminSuspendUser(w http.ResponseWriter, r *http.Request) {
	a.setSuspended(w, r, true)
}

func (a *App) AdminUnsuspendUser(w http.ResponseWriter, r *http.Request) {
	a.setSuspended(w, r, false)
}

type hardDeleteRequest struct {
	Confirmation string `json:"confirmation"`
}

// deleteUser removes the user in a single statement; memberships go with it
// through the foreign key cascade, so there is no partial state to clean up
// when the delete fails.
func (a *App) deleteUser(r *http.Request, userID string) error {
	tag, err := a.SQL.Exec(r.Context(), sqlinline.QHardDeleteUser, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AdminHardDeleteUser irreversibly removes a user and their memberships. The
// confirmation phrase must match the sentinel exactly.
func (a *App) AdminHardDeleteUser(w http.ResponseWriter, r *http.Request) {
	if !a.requireMasterAdmin(w, r) {
		return
	}
	var req hardDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Confirmation != deleteConfirmation {
		a.error(w, http.StatusBadRequest, "confirmation_required",
			"confirmation must be the exact phrase "+strconv.Quote(deleteConfirmation))
		return
	}
	userID := chi.URLParam(r, "id")
	if err := a.deleteUser(r, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("hard delete failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to delete user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs          []string `json:"ids"`
	Confirmation string   `json:"confirmation"`
}

type bulkDeleteFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type bulkDeleteResponse struct {
	SuccessCount int                 `json:"successCount"`
	FailCount    int                 `json:"failCount"`
	Failures     []bulkDeleteFailure `json:"failures,omitempty"`
}

// AdminBulkDeleteUsers attempts each deletion independently; one failure never
// aborts the rest, and the caller gets a per-id tally.
func (a *App) AdminBulkDeleteUsers(w http.ResponseWriter, r *http.Request) {
	if !a.requireMasterAdmin(w, r) {
		return
	}
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Confirmation != deleteConfirmation {
		a.error(w, http.StatusBadRequest, "confirmation_required",
			"confirmation must be the exact phrase "+strconv.Quote(deleteConfirmation))
		return
	}
	if len(req.IDs) == 0 {
		a.error(w, http.StatusBadRequest, "bad_request", "ids required")
		return
	}

	resp := bulkDeleteResponse{}
	for _, id := range req.IDs {
		if err := a.deleteUser(r, id); err != nil {
			resp.FailCount++
			resp.Failures = append(resp.Failures, bulkDeleteFailure{ID: id, Error: err.Error()})
			continue
		}
		resp.SuccessCount++
	}
	a.json(w, http.StatusOK, resp)
}

// AdminSearchUsers is a read-only projection filtered by email or name.
func (a *App) AdminSearchUsers(w http.ResponseWriter, r *http.Request) {
	if !a.requireMasterAdmin(w, r) {
		return
	}
	q := r.URL.Query().Get("q")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	rows, err := a.SQL.Query(r.Context(), sqlinline.QSearchUsers, q, limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("search users failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to search users")
		return
	}
	defer rows.Close()

	items := []adminUserDTO{}
	for rows.Next() {
		var u adminUserDTO
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.IsMasterAdmin, &u.IsSuspended, &u.AdminNotes,
			&u.LastLogin, &u.LastLoginCountry, &u.CreatedAt, &u.UpdatedAt); err != nil {
			continue
		}
		items = append(items, u)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// AdminExportUsers streams the user roster as CSV, including the geoip-derived
// last-login country.
func (a *App) AdminExportUsers(w http.ResponseWriter, r *http.Request) {
	if !a.requireMasterAdmin(w, r) {
		return
	}
	rows, err := a.SQL.Query(r.Context(), sqlinline.QExportUsers)
	if err != nil {
		a.Logger.Error().Err(err).Msg("export users failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to export users")
		return
	}
	defer rows.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "email", "name", "is_master_admin", "is_suspended", "last_login", "last_login_country", "created_at"})
	for rows.Next() {
		var id, email, name, country string
		var isMasterAdmin, isSuspended bool
		var lastLogin *time.Time
		var createdAt time.Time
		if err := rows.Scan(&id, &email, &name, &isMasterAdmin, &isSuspended, &lastLogin, &country, &createdAt); err != nil {
			continue
		}
		lastLoginStr := ""
		if lastLogin != nil {
			lastLoginStr = lastLogin.Format(time.RFC3339)
		}
		_ = cw.Write([]string{
			id, email, name,
			strconv.FormatBool(isMasterAdmin),
			strconv.FormatBool(isSuspended),
			lastLoginStr, country,
			createdAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
}

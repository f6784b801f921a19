package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/sqlinline"
)

const sessionTTL = 24 * time.Hour

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type userDTO struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	IsMasterAdmin bool       `json:"is_master_admin"`
	IsSuspended   bool       `json:"is_suspended"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		a.error(w, http.StatusBadRequest, "bad_request", "valid email required")
		return
	}
	if len(req.Password) < 8 {
		a.error(w, http.StatusBadRequest, "bad_request", "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		a.Logger.Error().Err(err).Msg("hash password failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QInsertUser, req.Email, req.Name, string(hash))
	var u userDTO
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsMasterAdmin, &u.IsSuspended, &u.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			a.error(w, http.StatusConflict, "conflict", "email already registered")
			return
		}
		a.Logger.Error().Err(err).Msg("insert user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to register")
		return
	}

	token, err := middleware.SignSession(a.JWTSecret, u.ID, "", false, middleware.LocaleFromContext(r.Context()), sessionTTL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign session failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusCreated, sessionResponse{Token: token, User: u})
}

// Login authenticates by email and password. Suspended users are rejected here,
// which is also what invalidates an existing session after an admin suspension:
// the flag is checked on every authentication.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectUserByEmail, req.Email)
	var u userDTO
	var passwordHash, adminNotes, lastCountry string
	var updatedAt time.Time
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &passwordHash, &u.IsMasterAdmin, &u.IsSuspended,
		&adminNotes, &u.LastLogin, &lastCountry, &u.CreatedAt, &updatedAt); err != nil {
		if infra.IsNoRows(err) {
			a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}
		a.Logger.Error().Err(err).Msg("load user failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign in")
		return
	}
	if u.IsSuspended {
		a.error(w, http.StatusForbidden, "suspended", "this account has been suspended")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
		return
	}

	orgID := ""
	if err := a.SQL.QueryRow(r.Context(), sqlinline.QSelectPrimaryOrg, u.ID).Scan(&orgID); err != nil && !infra.IsNoRows(err) {
		a.Logger.Error().Err(err).Str("user_id", u.ID).Msg("load primary org failed")
	}

	country := a.loginCountry(r)
	if _, err := a.SQL.Exec(r.Context(), sqlinline.QRecordLogin, u.ID, country); err != nil {
		a.Logger.Error().Err(err).Str("user_id", u.ID).Msg("record login failed")
	}

	token, err := middleware.SignSession(a.JWTSecret, u.ID, orgID, u.IsMasterAdmin, middleware.LocaleFromContext(r.Context()), sessionTTL)
	if err != nil {
		a.Logger.Error().Err(err).Msg("sign session failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}
	a.json(w, http.StatusOK, sessionResponse{Token: token, User: u})
}

func (a *App) loginCountry(r *http.Request) string {
	if a.GeoIP == nil {
		return ""
	}
	ip := middleware.ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := a.GeoIP.CountryCode(ip)
	if err != nil {
		return ""
	}
	return country
}

// Me returns the authenticated user's profile.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	row := a.SQL.QueryRow(r.Context(), sqlinline.QSelectUserByID, userID)
	var u userDTO
	var passwordHash, adminNotes, lastCountry string
	var updatedAt time.Time
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &passwordHash, &u.IsMasterAdmin, &u.IsSuspended,
		&adminNotes, &u.LastLogin, &lastCountry, &u.CreatedAt, &updatedAt); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "user not found")
		return
	}
	a.json(w, http.StatusOK, u)
}

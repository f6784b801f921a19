package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/billing"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/infra/geoip"
)

// App is the handler container. Simple lookups go through SQL; the org paths
// that need row-locked transactions go through the repository.
type App struct {
	SQL           infra.SQLExecutor
	Orgs          domain.OrganisationRepository
	Seats         billing.SeatQuantityUpdater
	GeoIP         geoip.CountryResolver
	Logger        zerolog.Logger
	JWTSecret     string
	WebhookSecret string
	TrialDays     int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, map[string]string{"error": errCode, "message": msg})
}

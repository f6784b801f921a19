package httpapi

import (
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

// NewRouter wires the full middleware chain and route tree. The trial gate runs
// after auth (it needs the org context) and before every tenant-scoped route;
// its bypass list keeps auth, billing, webhooks and health reachable for
// expired orgs.
func NewRouter(app *handlers.App, gate middleware.OrgLoader, cfg *infra.Config) stdhttp.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(app.Logger),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		cors.Handler(cors.Options{
			AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Locale"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.AuthJWT(cfg.JWTSecret),
		middleware.I18N("en"),
		middleware.TrialGate(gate, cfg.OrgLoadTimeout, app.Logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/register", app.Register)
		r.Post("/login", app.Login)
		r.Get("/me", app.Me)
	})

	r.Route("/v1/orgs", func(r chi.Router) {
		r.Post("/", app.OrgCreate)
		r.Get("/current", app.OrgCurrent)
	})

	r.Route("/v1/billing", func(r chi.Router) {
		r.Get("/status", app.BillingStatus)
		r.Post("/seats", app.SeatsUpdate)
		r.Post("/cancel", app.BillingCancel)
	})

	r.Post("/v1/webhooks/stripe", app.StripeWebhook)

	r.Route("/v1/admin/users", func(r chi.Router) {
		r.Get("/", app.AdminSearchUsers)
		r.Get("/export", app.AdminExportUsers)
		r.Post("/bulk-delete", app.AdminBulkDeleteUsers)
		r.Post("/{id}/suspend", app.AdminSuspendUser)
		r.Post("/{id}/unsuspend", app.AdminUnsuspendUser)
		r.Delete("/{id}", app.AdminHardDeleteUser)
	})

	return r
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/billing"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	geoResolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}

	var seatUpdater billing.SeatQuantityUpdater = billing.NoopSeatUpdater{}
	if cfg.StripeAPIKey != "" {
		seatUpdater = billing.NewStripeSeatUpdater(cfg.StripeAPIKey)
	} else {
		logger.Warn().Msg("STRIPE_API_KEY missing, seat quantity pushes disabled")
	}

	orgs := repo.NewOrganisationRepository(dbpool)
	app := &handlers.App{
		SQL:           infra.NewSQLRunner(dbpool, logger),
		Orgs:          orgs,
		Seats:         seatUpdater,
		GeoIP:         geoResolver,
		Logger:        logger,
		JWTSecret:     cfg.JWTSecret,
		WebhookSecret: cfg.StripeWebhookSecret,
		TrialDays:     cfg.TrialDays,
	}

	router := httpapi.NewRouter(app, orgs, cfg)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

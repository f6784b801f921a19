package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/notify"
	"server/internal/sqlinline"
)

var errNoNotification = errors.New("no notification available")

type billingWorker struct {
	ctx          context.Context
	runner       infra.SQLExecutor
	logger       infra.Logger
	dispatcher   *notify.Dispatcher
	reminderDays int
	pollInterval time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	worker := &billingWorker{
		ctx:          ctx,
		runner:       infra.NewSQLRunner(pool, logger),
		logger:       logger,
		dispatcher:   &notify.Dispatcher{Sender: notify.LogSender{Logger: logger}},
		reminderDays: cfg.TrialReminderDays,
		pollInterval: cfg.WorkerPollInterval,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *billingWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		w.sweep()
		w.drain()

		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-time.After(w.pollInterval):
		}
	}
}

// sweep enqueues due notifications and refreshes the cached seat overage.
// Every statement is idempotent, so overlapping workers or restarts are safe.
func (w *billingWorker) sweep() {
	if _, err := w.runner.Exec(w.ctx, sqlinline.QEnqueueTrialReminders, w.reminderDays); err != nil {
		w.logger.Error().Err(err).Msg("worker: trial reminder sweep failed")
	}
	if _, err := w.runner.Exec(w.ctx, sqlinline.QEnqueueTrialExpired); err != nil {
		w.logger.Error().Err(err).Msg("worker: trial expiry sweep failed")
	}
	w.sweepSeatOverages()
}

func (w *billingWorker) sweepSeatOverages() {
	rows, err := w.runner.Query(w.ctx, sqlinline.QSweepSeatOverages)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: seat overage sweep failed")
		return
	}
	defer rows.Close()
	for rows.Next() {
		var orgID string
		var overage int
		if err := rows.Scan(&orgID, &overage); err != nil {
			w.logger.Error().Err(err).Msg("worker: seat overage scan failed")
			continue
		}
		if overage <= 0 {
			continue
		}
		if _, err := w.runner.Exec(w.ctx, sqlinline.QEnqueueSeatOverage, orgID, overage); err != nil {
			w.logger.Error().Err(err).Str("org_id", orgID).Msg("worker: enqueue overage notification failed")
		}
	}
}

func (w *billingWorker) drain() {
	for {
		n, err := w.claim()
		if err != nil {
			if !errors.Is(err, errNoNotification) {
				w.logger.Error().Err(err).Msg("worker: failed to claim notification")
			}
			return
		}
		w.handle(n)
	}
}

func (w *billingWorker) claim() (notify.Notification, error) {
	row := w.runner.QueryRow(w.ctx, sqlinline.QClaimNotification)
	var n notify.Notification
	var kind string
	var createdAt time.Time
	if err := row.Scan(&n.ID, &n.OrganisationID, &kind, &n.Payload, &createdAt); err != nil {
		if infra.IsNoRows(err) {
			return notify.Notification{}, errNoNotification
		}
		return notify.Notification{}, err
	}
	n.Kind = domain.NotificationKind(kind)
	n.Payload = append(json.RawMessage(nil), n.Payload...)

	contact := w.runner.QueryRow(w.ctx, sqlinline.QNotificationOrgContact, n.OrganisationID)
	if err := contact.Scan(&n.OrgName, &n.OwnerEmail); err != nil && !infra.IsNoRows(err) {
		return notify.Notification{}, err
	}
	return n, nil
}

// handle delivers a claimed notification. Only a completed delivery (or a
// deliberate drop) records sent_at; a dispatch failure leaves the claim in
// place, and the row is retried once the claim lease lapses.
func (w *billingWorker) handle(n notify.Notification) {
	w.logger.Info().Str("notification_id", n.ID).Str("kind", string(n.Kind)).Msg("worker: picked notification")
	if n.OwnerEmail == "" {
		w.logger.Warn().Str("org_id", n.OrganisationID).Msg("worker: org has no owner contact, dropping notification")
		w.markSent(n.ID)
		return
	}
	if err := w.dispatcher.Dispatch(w.ctx, n); err != nil {
		w.logger.Error().Err(err).Str("notification_id", n.ID).Msg("worker: dispatch failed, retrying after the claim lease lapses")
		return
	}
	w.markSent(n.ID)
}

func (w *billingWorker) markSent(id string) {
	if _, err := w.runner.Exec(w.ctx, sqlinline.QMarkNotificationSent, id); err != nil {
		w.logger.Error().Err(err).Str("notification_id", id).Msg("worker: mark sent failed")
	}
}

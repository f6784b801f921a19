package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	stripelib "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

// checkoutSession is a minimal view of a checkout.session.completed event.
type checkoutSession struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// stripeSubscription is a minimal view of a customer.subscription.* event.
type stripeSubscription struct {
	ID       string            `json:"id"`
	Customer string            `json:"customer"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
	Items    struct {
		Data []struct {
			ID       string `json:"id"`
			Quantity int64  `json:"quantity"`
			Price    struct {
				ID       string            `json:"id"`
				Metadata map[string]string `json:"metadata"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// StripeWebhook verifies the signature and applies the subscription state the
// processor reports. Delivery is at-least-once: every branch is an idempotent
// conditional update, so replays and reordering converge.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(a.WebhookSecret) == "" {
		a.error(w, http.StatusServiceUnavailable, "unconfigured", "webhook secret not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read request body")
		return
	}
	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "missing Stripe signature")
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, a.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid Stripe signature")
		return
	}

	if err := a.handleStripeEvent(r, &event); err != nil {
		a.Logger.Error().Err(err).
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Msg("stripe webhook processing failed")
		a.error(w, http.StatusInternalServerError, "internal", "processing failed")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"received": true})
}

func (a *App) handleStripeEvent(r *http.Request, event *stripelib.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session checkoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("decode checkout.session: %w", err)
		}
		orgID := session.Metadata["organisation_id"]
		if orgID == "" {
			a.Logger.Warn().Str("event_id", event.ID).Msg("checkout session without organisation_id metadata")
			return nil
		}
		return a.Orgs.ApplySubscription(r.Context(), orgID, session.Customer, session.Subscription, "")

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripeSubscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return a.applySubscriptionState(r, sub)

	case "customer.subscription.deleted":
		var sub stripeSubscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return a.Orgs.ClearSubscription(r.Context(), sub.ID, "subscription_deleted")

	default:
		a.Logger.Debug().
			Str("type", string(event.Type)).
			Str("event_id", event.ID).
			Msg("stripe webhook ignored (unhandled type)")
		return nil
	}
}

func (a *App) applySubscriptionState(r *http.Request, sub stripeSubscription) error {
	seatItemID := ""
	var seatQuantity int64 = -1
	for _, item := range sub.Items.Data {
		if item.Price.Metadata["kind"] == "additional_seat" {
			seatItemID = item.ID
			seatQuantity = item.Quantity
			break
		}
	}

	if orgID := sub.Metadata["organisation_id"]; orgID != "" {
		if err := a.Orgs.ApplySubscription(r.Context(), orgID, sub.Customer, sub.ID, seatItemID); err != nil {
			return err
		}
	}
	// The processor's billed quantity is authoritative after a failed local
	// push; adopting it here closes the two-phase gap.
	if seatQuantity >= 0 {
		return a.Orgs.SyncSeatQuantity(r.Context(), sub.ID, int(seatQuantity))
	}
	return nil
}

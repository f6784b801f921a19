// Package billing wraps the payment-processor client surface the API depends
// on. The seat quantity push is the second phase of every seat change; a failure
// here is surfaced to the caller and reconciled on the next webhook receipt.
package billing

import (
	"context"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/subscriptionitem"
)

// SeatQuantityUpdater pushes the billed additional-seat quantity to the payment
// processor.
type SeatQuantityUpdater interface {
	UpdateSeatQuantity(ctx context.Context, seatItemID string, quantity int64) error
}

// StripeSeatUpdater implements SeatQuantityUpdater against the Stripe API.
type StripeSeatUpdater struct{}

// NewStripeSeatUpdater configures the global Stripe key and returns the updater.
func NewStripeSeatUpdater(apiKey string) *StripeSeatUpdater {
	stripe.Key = apiKey
	return &StripeSeatUpdater{}
}

// UpdateSeatQuantity sets the quantity on the subscription item that bills
// additional seats. Orgs still on trial have no seat item yet; that is a no-op,
// not an error.
func (s *StripeSeatUpdater) UpdateSeatQuantity(ctx context.Context, seatItemID string, quantity int64) error {
	if seatItemID == "" {
		return nil
	}
	params := &stripe.SubscriptionItemParams{
		Quantity: stripe.Int64(quantity),
	}
	params.Context = ctx
	_, err := subscriptionitem.Update(seatItemID, params)
	return err
}

// NoopSeatUpdater is used when no Stripe key is configured (development).
type NoopSeatUpdater struct{}

func (NoopSeatUpdater) UpdateSeatQuantity(context.Context, string, int64) error { return nil }

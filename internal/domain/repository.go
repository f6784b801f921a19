package domain

import "context"

// OrganisationRepository defines persistence for organisations. Every writer
// mutates only the columns it owns, under a row lock or a single conditional
// statement keyed on the org id, so concurrent webhook and seat-change writes
// cannot clobber each other.
type OrganisationRepository interface {
	GetByID(ctx context.Context, id string) (*Organisation, error)
	CreateWithOwner(ctx context.Context, org *Organisation, ownerID string) (*Organisation, error)
	// AdjustSeats runs the read-reconcile-write sequence for additional seats
	// inside a per-org row-locked transaction, validating against the live
	// active-member count.
	AdjustSeats(ctx context.Context, orgID string, delta int) (*Organisation, SeatChange, error)
	ApplySubscription(ctx context.Context, orgID, customerID, subscriptionID, seatItemID string) error
	// SyncSeatQuantity adopts the processor's billed quantity when a webhook
	// reports a different additional-seat count than the local record.
	SyncSeatQuantity(ctx context.Context, subscriptionID string, quantity int) error
	ClearSubscription(ctx context.Context, subscriptionID, reason string) error
	Cancel(ctx context.Context, orgID, reason, comment string) error
}

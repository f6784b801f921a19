package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/domain"
)

// OrganisationRepositoryPG implements domain.OrganisationRepository backed by PostgreSQL.
type OrganisationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewOrganisationRepository creates a new OrganisationRepositoryPG.
func NewOrganisationRepository(pool *pgxpool.Pool) *OrganisationRepositoryPG {
	return &OrganisationRepositoryPG{pool: pool}
}

const orgColumns = `id, name, plan, trial_start, trial_end,
coalesce(stripe_customer_id, ''), coalesce(stripe_subscription_id, ''), coalesce(stripe_seat_item_id, ''),
included_seats, additional_seats, seat_overage_cached,
cancelled_at, coalesce(cancellation_reason, ''), coalesce(cancellation_comment, ''),
created_at, updated_at`

// GetByID fetches an organisation snapshot by UUID.
func (r *OrganisationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Organisation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orgColumns+` FROM organisations WHERE id = $1`, id)
	return scanOrganisation(row)
}

// CreateWithOwner inserts a new organisation with its trial window and the owner
// membership in one transaction.
func (r *OrganisationRepositoryPG) CreateWithOwner(ctx context.Context, org *domain.Organisation, ownerID string) (*domain.Organisation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
INSERT INTO organisations (id, name, plan, trial_start, trial_end, included_seats)
VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
RETURNING `+orgColumns+`;
`, org.Name, org.Plan, org.TrialStart, org.TrialEnd, org.IncludedSeats)

	created, err := scanOrganisation(row)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO memberships (user_id, organisation_id, role)
VALUES ($1, $2, $3);
`, ownerID, created.ID, domain.RoleOwner); err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// AdjustSeats applies a seat delta under a row lock on the organisation, so two
// concurrent "+1" requests both land instead of one clobbering the other's base
// read. The live active-member count guards the decrease path.
func (r *OrganisationRepositoryPG) AdjustSeats(ctx context.Context, orgID string, delta int) (*domain.Organisation, domain.SeatChange, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, domain.SeatChange{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+orgColumns+` FROM organisations WHERE id = $1 FOR UPDATE`, orgID)
	org, err := scanOrganisation(row)
	if err != nil {
		return nil, domain.SeatChange{}, err
	}

	var active int
	if err := tx.QueryRow(ctx, `
SELECT COUNT(*)
FROM memberships m
JOIN users u ON u.id = m.user_id
WHERE m.organisation_id = $1
  AND NOT u.is_suspended;
`, orgID).Scan(&active); err != nil {
		return nil, domain.SeatChange{}, fmt.Errorf("count active members: %w", err)
	}

	change, err := domain.ReconcileSeats(domain.PricingFor(org.Plan), org.IncludedSeats, org.AdditionalSeats, delta, active)
	if err != nil {
		return nil, domain.SeatChange{}, err
	}

	row = tx.QueryRow(ctx, `
UPDATE organisations
SET additional_seats = $2,
    seat_overage_cached = $3,
    updated_at = NOW()
WHERE id = $1
RETURNING `+orgColumns+`;
`, orgID, change.AdditionalSeats, domain.SeatOverage(org.IncludedSeats, active))
	updated, err := scanOrganisation(row)
	if err != nil {
		return nil, domain.SeatChange{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.SeatChange{}, fmt.Errorf("commit: %w", err)
	}
	return updated, change, nil
}

// ApplySubscription records the payment processor's confirmation. It touches only
// the subscription columns and is safe to replay on duplicate webhook delivery.
func (r *OrganisationRepositoryPG) ApplySubscription(ctx context.Context, orgID, customerID, subscriptionID, seatItemID string) error {
	_, err := r.pool.Exec(ctx, `
UPDATE organisations
SET stripe_customer_id = $2,
    stripe_subscription_id = $3,
    stripe_seat_item_id = NULLIF($4, ''),
    cancelled_at = NULL,
    cancellation_reason = NULL,
    cancellation_comment = NULL,
    updated_at = NOW()
WHERE id = $1;
`, orgID, customerID, subscriptionID, seatItemID)
	return err
}

// SyncSeatQuantity adopts the processor-reported additional-seat quantity. A
// single conditional statement keyed on the subscription id, so webhook replays
// and races with seat changes both converge.
func (r *OrganisationRepositoryPG) SyncSeatQuantity(ctx context.Context, subscriptionID string, quantity int) error {
	_, err := r.pool.Exec(ctx, `
UPDATE organisations
SET additional_seats = $2,
    updated_at = NOW()
WHERE stripe_subscription_id = $1
  AND additional_seats <> $2;
`, subscriptionID, quantity)
	return err
}

// ClearSubscription handles a processor-side cancellation, keyed on the
// subscription id the webhook carries. Replays match zero rows and are no-ops.
func (r *OrganisationRepositoryPG) ClearSubscription(ctx context.Context, subscriptionID, reason string) error {
	_, err := r.pool.Exec(ctx, `
UPDATE organisations
SET stripe_subscription_id = NULL,
    stripe_seat_item_id = NULL,
    cancelled_at = NOW(),
    cancellation_reason = $2,
    updated_at = NOW()
WHERE stripe_subscription_id = $1;
`, subscriptionID, reason)
	return err
}

// Cancel records a tenant-initiated cancellation without deleting the record.
func (r *OrganisationRepositoryPG) Cancel(ctx context.Context, orgID, reason, comment string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE organisations
SET cancelled_at = NOW(),
    cancellation_reason = $2,
    cancellation_comment = NULLIF($3, ''),
    updated_at = NOW()
WHERE id = $1
  AND cancelled_at IS NULL;
`, orgID, reason, comment)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanOrganisation(row pgx.Row) (*domain.Organisation, error) {
	var o domain.Organisation
	if err := row.Scan(
		&o.ID, &o.Name, &o.Plan, &o.TrialStart, &o.TrialEnd,
		&o.StripeCustomerID, &o.StripeSubscriptionID, &o.StripeSeatItemID,
		&o.IncludedSeats, &o.AdditionalSeats, &o.SeatOverageCached,
		&o.CancelledAt, &o.CancellationReason, &o.CancellationComment,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

var _ domain.OrganisationRepository = (*OrganisationRepositoryPG)(nil)

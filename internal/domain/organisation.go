package domain

import "time"

// Plan enumerates billing plans.
type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// PlanPricing is the monthly pricing policy for a plan, in cents.
type PlanPricing struct {
	BaseCents     int64
	PerSeatCents  int64
	IncludedSeats int
}

var planPricing = map[Plan]PlanPricing{
	PlanStarter:    {BaseCents: 2900, PerSeatCents: 900, IncludedSeats: 3},
	PlanPro:        {BaseCents: 7900, PerSeatCents: 900, IncludedSeats: 10},
	PlanEnterprise: {BaseCents: 19900, PerSeatCents: 700, IncludedSeats: 25},
}

// PricingFor returns the pricing policy for a plan. Unknown plans fall back to starter.
func PricingFor(plan Plan) PlanPricing {
	if p, ok := planPricing[plan]; ok {
		return p
	}
	return planPricing[PlanStarter]
}

// Organisation represents a billable tenant.
type Organisation struct {
	ID                   string
	Name                 string
	Plan                 Plan
	TrialStart           *time.Time
	TrialEnd             *time.Time
	StripeCustomerID     string
	StripeSubscriptionID string
	StripeSeatItemID     string
	IncludedSeats        int
	AdditionalSeats      int
	SeatOverageCached    int
	CancelledAt          *time.Time
	CancellationReason   string
	CancellationComment  string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// HasSubscription reports whether the payment processor has confirmed a subscription.
func (o Organisation) HasSubscription() bool {
	return o.StripeSubscriptionID != ""
}

// HasTrialWindow reports whether the trial window is provisioned.
func (o Organisation) HasTrialWindow() bool {
	return o.TrialEnd != nil
}

// TotalSeats is the number of billable user slots on the org.
func (o Organisation) TotalSeats() int {
	return o.IncludedSeats + o.AdditionalSeats
}

package domain

import "fmt"

// SeatChange is the outcome of a seat reconciliation. Callers persist it together
// with the external subscription-quantity update; nothing is written here.
type SeatChange struct {
	AdditionalSeats   int
	TotalSeats        int
	AddOnCents        int64
	MonthlyTotalCents int64
}

// ReconcileSeats applies a requested delta to the purchased additional seats and
// computes the resulting monthly cost. The new additional count is floored at zero.
// The change is rejected when the resulting total could not cover the currently
// active (non-suspended) members, regardless of the delta's sign.
func ReconcileSeats(pricing PlanPricing, included, additional, delta, activeMembers int) (SeatChange, error) {
	next := additional + delta
	if next < 0 {
		next = 0
	}
	if included+next < activeMembers {
		return SeatChange{}, fmt.Errorf("%w: %d active members need more than %d seats",
			ErrSeatsInUse, activeMembers, included+next)
	}
	addOn := int64(next) * pricing.PerSeatCents
	return SeatChange{
		AdditionalSeats:   next,
		TotalSeats:        included + next,
		AddOnCents:        addOn,
		MonthlyTotalCents: pricing.BaseCents + addOn,
	}, nil
}

// SeatOverage is the number of active members beyond the included allotment.
func SeatOverage(included, activeMembers int) int {
	if activeMembers <= included {
		return 0
	}
	return activeMembers - included
}

package domain

import (
	"errors"
	"testing"
)

func TestReconcileSeatsIncrease(t *testing.T) {
	pricing := PlanPricing{BaseCents: 0, PerSeatCents: 9}
	got, err := ReconcileSeats(pricing, 5, 2, +1, 0)
	if err != nil {
		t.Fatalf("ReconcileSeats() unexpected error: %v", err)
	}
	if got.AdditionalSeats != 3 {
		t.Fatalf("additional = %d, want 3", got.AdditionalSeats)
	}
	if got.TotalSeats != 8 {
		t.Fatalf("totalSeats = %d, want 8", got.TotalSeats)
	}
	if got.AddOnCents != 27 {
		t.Fatalf("addOnCost = %d, want 27", got.AddOnCents)
	}
}

func TestReconcileSeatsDecreaseFloorsAtZero(t *testing.T) {
	got, err := ReconcileSeats(PlanPricing{PerSeatCents: 900}, 5, 1, -5, 0)
	if err != nil {
		t.Fatalf("ReconcileSeats() unexpected error: %v", err)
	}
	if got.AdditionalSeats != 0 {
		t.Fatalf("additional = %d, want 0 (never negative)", got.AdditionalSeats)
	}
	if got.AddOnCents != 0 {
		t.Fatalf("addOnCost = %d, want 0", got.AddOnCents)
	}
}

func TestReconcileSeatsRejectsWhenMembersExceedSeats(t *testing.T) {
	cases := []struct {
		name                        string
		included, additional, delta int
		activeMembers               int
	}{
		{"decrease below members", 5, 2, -2, 6},
		{"zero delta with overage", 5, 0, 0, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReconcileSeats(PlanPricing{PerSeatCents: 900}, tc.included, tc.additional, tc.delta, tc.activeMembers)
			if !errors.Is(err, ErrSeatsInUse) {
				t.Fatalf("ReconcileSeats() error = %v, want ErrSeatsInUse", err)
			}
		})
	}
}

func TestReconcileSeatsMonthlyTotal(t *testing.T) {
	pricing := PricingFor(PlanPro)
	got, err := ReconcileSeats(pricing, pricing.IncludedSeats, 0, 2, 0)
	if err != nil {
		t.Fatalf("ReconcileSeats() unexpected error: %v", err)
	}
	want := pricing.BaseCents + 2*pricing.PerSeatCents
	if got.MonthlyTotalCents != want {
		t.Fatalf("monthlyTotal = %d, want %d", got.MonthlyTotalCents, want)
	}
}

func TestSeatOverage(t *testing.T) {
	if got := SeatOverage(5, 8); got != 3 {
		t.Fatalf("SeatOverage(5, 8) = %d, want 3", got)
	}
	if got := SeatOverage(5, 3); got != 0 {
		t.Fatalf("SeatOverage(5, 3) = %d, want 0", got)
	}
}

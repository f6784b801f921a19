package domain

import "time"

// BillingState is the derived billing state of an organisation.
type BillingState string

const (
	BillingActive         BillingState = "active"
	BillingTrialing       BillingState = "trialing"
	BillingTrialExpired   BillingState = "trial_expired"
	BillingNoSubscription BillingState = "no_subscription"
)

// BillingStatus is the evaluator's output. It is derived, never stored.
type BillingStatus struct {
	State          BillingState
	Plan           Plan
	IncludedSeats  int
	TrialStart     *time.Time
	TrialEnd       *time.Time
	DaysRemaining  int
	TotalTrialDays int
}

// IsTrialing reports whether the org is inside its trial window.
func (s BillingStatus) IsTrialing() bool { return s.State == BillingTrialing }

// IsExpired reports whether the trial has lapsed without a subscription.
func (s BillingStatus) IsExpired() bool { return s.State == BillingTrialExpired }

// HasSubscription reports whether a paid subscription backs the org.
func (s BillingStatus) HasSubscription() bool { return s.State == BillingActive }

const day = 24 * time.Hour

// EvaluateBilling maps an Organisation snapshot and a reference time to a billing
// status. A confirmed subscription always wins over trial dates; the instant equal
// to trial_end is still trialing. The function performs no I/O and is defined for
// every input combination.
func EvaluateBilling(org Organisation, now time.Time) BillingStatus {
	status := BillingStatus{
		Plan:          org.Plan,
		IncludedSeats: org.IncludedSeats,
		TrialStart:    org.TrialStart,
		TrialEnd:      org.TrialEnd,
	}
	if org.TrialStart != nil && org.TrialEnd != nil {
		status.TotalTrialDays = ceilDays(org.TrialEnd.Sub(*org.TrialStart))
	}

	if org.HasSubscription() {
		status.State = BillingActive
		return status
	}
	if !org.HasTrialWindow() {
		status.State = BillingNoSubscription
		return status
	}
	if now.After(*org.TrialEnd) {
		status.State = BillingTrialExpired
		return status
	}
	status.State = BillingTrialing
	status.DaysRemaining = ceilDays(org.TrialEnd.Sub(now))
	return status
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

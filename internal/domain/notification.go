package domain

// NotificationKind is the closed set of billing notification kinds the worker
// dispatches over. The values match the kind column of the queue table.
type NotificationKind string

const (
	NotificationTrialExpiringSoon NotificationKind = "TRIAL_EXPIRING_SOON"
	NotificationTrialExpired      NotificationKind = "TRIAL_EXPIRED"
	NotificationSeatOverage       NotificationKind = "SEAT_OVERAGE"
)

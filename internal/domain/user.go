package domain

import "time"

// User represents an individual account on the platform. Org roles live on the
// Membership join entity; IsMasterAdmin is a platform-operator privilege and is
// only ever set by direct administrative provisioning, never by tenant-facing
// code paths.
type User struct {
	ID               string
	Email            string
	Name             string
	PasswordHash     string
	IsMasterAdmin    bool
	IsSuspended      bool
	AdminNotes       string
	LastLogin        *time.Time
	LastLoginCountry string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MembershipRole enumerates per-organisation roles.
type MembershipRole string

const (
	RoleOwner  MembershipRole = "owner"
	RoleAdmin  MembershipRole = "admin"
	RoleMember MembershipRole = "member"
)

// Membership joins a User to an Organisation with a role.
type Membership struct {
	UserID         string
	OrganisationID string
	Role           MembershipRole
	CreatedAt      time.Time
}

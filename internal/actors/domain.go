// Package actors manages user profiles: roles, approval state, scope
// assignments and the per-actor last-selected location triple.
package actors

import "time"

// Role is the closed set of actor roles.
type Role string

const (
	// RoleSuperAdmin has universal scope; assignment sets are ignored.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleAdmin manages actors and permissions within assigned scope.
	RoleAdmin Role = "ADMIN"
	// RoleMonitor is a read-oriented back-office role.
	RoleMonitor Role = "MONITOR"
	// RoleStandardUser is the default back-office role.
	RoleStandardUser Role = "STANDARD_USER"
	// RoleCollector works field routes through a separate channel and never
	// uses the web application.
	RoleCollector Role = "COLLECTOR"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleMonitor, RoleStandardUser, RoleCollector}
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleMonitor, RoleStandardUser, RoleCollector:
		return true
	}
	return false
}

// ApprovalStatus tracks administrative account approval.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Valid reports whether the status belongs to the closed set.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Actor is an authenticated user of the system.
type Actor struct {
	ID             int64
	Email          string
	Name           string
	PasswordHash   string
	Role           Role
	ApprovalStatus ApprovalStatus
	IsActive       bool

	AssignedHierarchyIDs []int64
	AssignedCompanyIDs   []int64
	AssignedRouteIDs     []int64

	LastHierarchyID *int64
	LastCompanyID   *int64
	LastRouteID     *int64

	AccessCode          *string
	AccessCodeConfirmed bool
	AccessCodeIssuedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Approved reports whether the actor may use scoped operations at all.
func (a Actor) Approved() bool {
	return a.ApprovalStatus == ApprovalApproved
}

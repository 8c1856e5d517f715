// Package tenancy implements the tenant access filter. Every read of an
// operational table is narrowed by a Predicate resolved from the caller's
// role and assigned tenants; single-record operations use VerifyAccess so an
// out-of-scope target surfaces as an authorization failure rather than a
// not-found.
package tenancy

import (
	"github.com/google/uuid"
)

// Role describes the tenant visibility class of a caller.
type Role string

const (
	// RoleAdmin sees all tenants. Platform administrators only.
	RoleAdmin Role = "admin"
	// RoleMultiTenant sees an explicit assigned set of tenants.
	RoleMultiTenant Role = "multi_tenant"
	// RoleSingleTenant sees exactly one tenant.
	RoleSingleTenant Role = "single_tenant"
)

// IsValid reports whether the role is one of the three known classes.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMultiTenant, RoleSingleTenant:
		return true
	}
	return false
}

// Caller is the identity the engine receives on every request. The engine
// never resolves identity itself; the auth layer builds this from verified
// claims.
type Caller struct {
	Subject   string
	Role      Role
	TenantIDs []uuid.UUID
}

// Package auth validates JWT caller identity. The engine never resolves
// identity itself; tokens are issued by the platform identity service and
// verified here against its JWKS endpoints. Verified claims become a
// tenancy.Caller for the access filter.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// Claims is the JWT claims structure issued by the identity service. It
// embeds RegisteredClaims for standard fields (sub, iss, exp) and adds the
// tenant-scope claims the access filter consumes.
type Claims struct {
	jwt.RegisteredClaims
	// Role is the caller's tenant visibility class: "admin",
	// "multi_tenant", or "single_tenant".
	Role string `json:"role,omitempty"`
	// TenantIDs is the caller's assigned tenant set. Empty for admins.
	TenantIDs []string `json:"tids,omitempty"`
	// Email is the caller's address, for audit logging only.
	Email string `json:"email,omitempty"`
}

// Caller converts verified claims into the access-filter caller identity.
// Malformed tenant ids are a token defect and fail the whole conversion.
func (c *Claims) Caller() (tenancy.Caller, error) {
	role := tenancy.Role(c.Role)
	if !role.IsValid() {
		return tenancy.Caller{}, fmt.Errorf("invalid role claim %q", c.Role)
	}

	ids := make([]uuid.UUID, 0, len(c.TenantIDs))
	for _, raw := range c.TenantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return tenancy.Caller{}, fmt.Errorf("invalid tenant id claim %q: %w", raw, err)
		}
		ids = append(ids, id)
	}

	return tenancy.Caller{
		Subject:   c.Subject,
		Role:      role,
		TenantIDs: ids,
	}, nil
}

package tenancy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
)

// Predicate restricts a query to the caller's permitted tenants. It renders
// as an AND-composable SQL fragment; there is deliberately no way to widen a
// query with it.
type Predicate struct {
	allowAll  bool
	tenantIDs []uuid.UUID
}

// ResolveFilter produces the predicate for a caller. Admin callers get an
// unrestricted predicate; multi-tenant callers get their assigned set;
// single-tenant callers get exactly one tenant.
func ResolveFilter(caller Caller) (*Predicate, error) {
	switch caller.Role {
	case RoleAdmin:
		return &Predicate{allowAll: true}, nil
	case RoleMultiTenant:
		if len(caller.TenantIDs) == 0 {
			return nil, apperrors.ErrNoTenantAssigned
		}
		ids := make([]uuid.UUID, len(caller.TenantIDs))
		copy(ids, caller.TenantIDs)
		return &Predicate{tenantIDs: ids}, nil
	case RoleSingleTenant:
		if len(caller.TenantIDs) != 1 {
			return nil, fmt.Errorf("%w: single-tenant caller must have exactly one tenant, got %d",
				apperrors.ErrInvalidRole, len(caller.TenantIDs))
		}
		return &Predicate{tenantIDs: []uuid.UUID{caller.TenantIDs[0]}}, nil
	}
	return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, caller.Role)
}

// VerifyAccess authorizes a single-record operation against a target tenant.
// It returns ErrForbidden (never ErrNotFound) when the target is outside the
// caller's assigned set, so callers can distinguish "doesn't exist" from
// "not permitted".
func VerifyAccess(caller Caller, targetTenantID uuid.UUID) error {
	if !caller.Role.IsValid() {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, caller.Role)
	}
	if caller.Role == RoleAdmin {
		return nil
	}
	for _, id := range caller.TenantIDs {
		if id == targetTenantID {
			return nil
		}
	}
	return fmt.Errorf("%w: tenant %s", apperrors.ErrForbidden, targetTenantID)
}

// Allows reports whether the predicate permits rows of the given tenant.
// Used for in-memory checks on rows already fetched through a join.
func (p *Predicate) Allows(tenantID uuid.UUID) bool {
	if p.allowAll {
		return true
	}
	for _, id := range p.tenantIDs {
		if id == tenantID {
			return true
		}
	}
	return false
}

// Unrestricted reports whether the predicate is the admin allow-all.
func (p *Predicate) Unrestricted() bool { return p.allowAll }

// TenantIDs returns a copy of the permitted tenant set. Empty for the
// unrestricted predicate.
func (p *Predicate) TenantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.tenantIDs))
	copy(ids, p.tenantIDs)
	return ids
}

// Clause renders the predicate as a SQL fragment for the given tenant-id
// column, numbering its bind parameter from argIndex. The unrestricted
// predicate renders as TRUE so it stays a pure narrowing under AND.
func (p *Predicate) Clause(column string, argIndex int) (string, []any) {
	if p.allowAll {
		return "TRUE", nil
	}
	return fmt.Sprintf("%s = ANY($%d)", column, argIndex), []any{p.tenantIDs}
}

// CatalogClause renders the predicate for tables with shared-catalog rows,
// where a NULL tenant id means "visible to every tenant". This is the one
// explicit widening the model permits; it never exposes another tenant's
// rows.
func (p *Predicate) CatalogClause(column string, argIndex int) (string, []any) {
	if p.allowAll {
		return "TRUE", nil
	}
	return fmt.Sprintf("(%s = ANY($%d) OR %s IS NULL)", column, argIndex, column), []any{p.tenantIDs}
}

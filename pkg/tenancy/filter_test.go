package tenancy

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
)

func TestResolveFilter(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()

	t.Run("admin is unrestricted", func(t *testing.T) {
		pred, err := ResolveFilter(Caller{Role: RoleAdmin})
		require.NoError(t, err)
		assert.True(t, pred.Unrestricted())
		assert.True(t, pred.Allows(tenantA))
		assert.True(t, pred.Allows(tenantB))

		clause, args := pred.Clause("tenant_id", 1)
		assert.Equal(t, "TRUE", clause)
		assert.Nil(t, args)
	})

	t.Run("multi-tenant sees assigned set only", func(t *testing.T) {
		pred, err := ResolveFilter(Caller{Role: RoleMultiTenant, TenantIDs: []uuid.UUID{tenantA, tenantB}})
		require.NoError(t, err)
		assert.False(t, pred.Unrestricted())
		assert.True(t, pred.Allows(tenantA))
		assert.True(t, pred.Allows(tenantB))
		assert.False(t, pred.Allows(uuid.New()))
	})

	t.Run("multi-tenant with empty set is rejected", func(t *testing.T) {
		_, err := ResolveFilter(Caller{Role: RoleMultiTenant})
		assert.ErrorIs(t, err, apperrors.ErrNoTenantAssigned)
	})

	t.Run("single-tenant sees exactly one tenant", func(t *testing.T) {
		pred, err := ResolveFilter(Caller{Role: RoleSingleTenant, TenantIDs: []uuid.UUID{tenantA}})
		require.NoError(t, err)
		assert.True(t, pred.Allows(tenantA))
		assert.False(t, pred.Allows(tenantB))
	})

	t.Run("single-tenant with multiple tenants is rejected", func(t *testing.T) {
		_, err := ResolveFilter(Caller{Role: RoleSingleTenant, TenantIDs: []uuid.UUID{tenantA, tenantB}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		_, err := ResolveFilter(Caller{Role: Role("operator")})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
	})
}

func TestPredicateClause(t *testing.T) {
	tenantA := uuid.New()
	pred, err := ResolveFilter(Caller{Role: RoleSingleTenant, TenantIDs: []uuid.UUID{tenantA}})
	require.NoError(t, err)

	clause, args := pred.Clause("e.tenant_id", 3)
	assert.Equal(t, "e.tenant_id = ANY($3)", clause)
	require.Len(t, args, 1)
	assert.Equal(t, []uuid.UUID{tenantA}, args[0])
}

func TestPredicateCatalogClause(t *testing.T) {
	tenantA := uuid.New()

	t.Run("scoped caller includes shared rows", func(t *testing.T) {
		pred, err := ResolveFilter(Caller{Role: RoleSingleTenant, TenantIDs: []uuid.UUID{tenantA}})
		require.NoError(t, err)

		clause, args := pred.CatalogClause("p.tenant_id", 2)
		assert.Equal(t, "(p.tenant_id = ANY($2) OR p.tenant_id IS NULL)", clause)
		require.Len(t, args, 1)
	})

	t.Run("admin stays unrestricted", func(t *testing.T) {
		pred, err := ResolveFilter(Caller{Role: RoleAdmin})
		require.NoError(t, err)

		clause, args := pred.CatalogClause("p.tenant_id", 1)
		assert.Equal(t, "TRUE", clause)
		assert.Nil(t, args)
	})
}

func TestVerifyAccess(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()

	t.Run("admin may target any tenant", func(t *testing.T) {
		assert.NoError(t, VerifyAccess(Caller{Role: RoleAdmin}, tenantA))
	})

	t.Run("assigned tenant is permitted", func(t *testing.T) {
		caller := Caller{Role: RoleMultiTenant, TenantIDs: []uuid.UUID{tenantA, tenantB}}
		assert.NoError(t, VerifyAccess(caller, tenantB))
	})

	t.Run("out-of-scope tenant is forbidden, not not-found", func(t *testing.T) {
		caller := Caller{Role: RoleSingleTenant, TenantIDs: []uuid.UUID{tenantA}}
		err := VerifyAccess(caller, tenantB)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("invalid role is rejected", func(t *testing.T) {
		err := VerifyAccess(Caller{Role: Role("viewer")}, tenantA)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
	})
}

// Tenant isolation: a predicate resolved for one caller never admits rows
// from a tenant outside that caller's set, whatever the other caller's set
// looks like.
func TestTenantIsolation(t *testing.T) {
	setA := []uuid.UUID{uuid.New(), uuid.New()}
	setB := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	predA, err := ResolveFilter(Caller{Role: RoleMultiTenant, TenantIDs: setA})
	require.NoError(t, err)

	for _, b := range setB {
		assert.False(t, predA.Allows(b), "predicate for caller A admitted tenant %s of caller B", b)
	}
	for _, a := range setA {
		assert.True(t, predA.Allows(a))
	}
}

package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

func TestClaimsCaller(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()

	t.Run("multi-tenant claims", func(t *testing.T) {
		claims := &Claims{
			Role:      "multi_tenant",
			TenantIDs: []string{tenantA.String(), tenantB.String()},
		}
		caller, err := claims.Caller()
		require.NoError(t, err)
		assert.Equal(t, tenancy.RoleMultiTenant, caller.Role)
		assert.Equal(t, []uuid.UUID{tenantA, tenantB}, caller.TenantIDs)
	})

	t.Run("admin with no tenants", func(t *testing.T) {
		claims := &Claims{Role: "admin"}
		caller, err := claims.Caller()
		require.NoError(t, err)
		assert.Equal(t, tenancy.RoleAdmin, caller.Role)
		assert.Empty(t, caller.TenantIDs)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		claims := &Claims{Role: "superuser", TenantIDs: []string{tenantA.String()}}
		_, err := claims.Caller()
		assert.Error(t, err)
	})

	t.Run("malformed tenant id is rejected", func(t *testing.T) {
		claims := &Claims{Role: "single_tenant", TenantIDs: []string{"not-a-uuid"}}
		_, err := claims.Caller()
		assert.Error(t, err)
	})
}

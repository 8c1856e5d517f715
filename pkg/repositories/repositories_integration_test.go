package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/database"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/testhelpers"
)

// integrationFixture provisions a migrated database and the base records
// (tenant, product, shift) most repository tests need.
type integrationFixture struct {
	db       *database.DB
	tenantID uuid.UUID
	product  *models.Product
	shift    *models.Shift
}

func newIntegrationFixture(t *testing.T) *integrationFixture {
	t.Helper()

	testDB := testhelpers.GetTestDB(t, "../../migrations")
	testDB.TruncateAll(t)
	db := &database.DB{Pool: testDB.Pool}

	ctx := context.Background()
	tenant := &models.Tenant{Name: "Plant North"}
	require.NoError(t, NewTenantRepository(db).Create(ctx, tenant))

	product := &models.Product{
		Owner:  models.OwnedBy(tenant.ID),
		Code:   "WIDGET-A",
		Name:   "Widget A",
		Family: "assembly",
	}
	require.NoError(t, NewProductRepository(db).Create(ctx, product))

	shift := &models.Shift{
		TenantID:       tenant.ID,
		Name:           "Day",
		ScheduledHours: decimal.NewFromFloat(7.5),
	}
	require.NoError(t, NewShiftRepository(db).Create(ctx, shift))

	return &integrationFixture{db: db, tenantID: tenant.ID, product: product, shift: shift}
}

func singleTenantPredicate(t *testing.T, tenantID uuid.UUID) *tenancy.Predicate {
	t.Helper()
	pred, err := tenancy.ResolveFilter(tenancy.Caller{
		Subject:   "integration-test",
		Role:      tenancy.RoleSingleTenant,
		TenantIDs: []uuid.UUID{tenantID},
	})
	require.NoError(t, err)
	return pred
}

func (f *integrationFixture) newEntry(date time.Time, units int64, runHours float64) *models.ProductionEntry {
	return &models.ProductionEntry{
		TenantID:       f.tenantID,
		ProductID:      f.product.ID,
		ShiftID:        f.shift.ID,
		Date:           date,
		UnitsProduced:  units,
		RunTimeHours:   decimal.NewFromFloat(runHours),
		ScheduledHours: decimal.NewFromFloat(7.5),
	}
}

func TestProductionEntryRoundTrip(t *testing.T) {
	f := newIntegrationFixture(t)
	repo := NewProductionEntryRepository(f.db, zap.NewNop())
	ctx := context.Background()

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	entry := f.newEntry(date, 250, 7)
	entry.EmployeesAssigned = 3
	entry.EfficiencyPct = decimal.NewFromFloat(111.11)
	entry.PerformancePct = decimal.NewFromFloat(119.05)
	require.NoError(t, repo.Create(ctx, entry))
	require.NotEqual(t, uuid.Nil, entry.ID)

	got, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.UnitsProduced)
	assert.True(t, got.EfficiencyPct.Equal(decimal.NewFromFloat(111.11)))

	listed, err := repo.ListRange(ctx, singleTenantPredicate(t, f.tenantID), date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, entry.ID, listed[0].ID)

	// A different tenant's predicate must not see the row.
	listed, err = repo.ListRange(ctx, singleTenantPredicate(t, uuid.New()), date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestListRangeExcludesCrossTenantShiftRows(t *testing.T) {
	f := newIntegrationFixture(t)
	repo := NewProductionEntryRepository(f.db, zap.NewNop())
	ctx := context.Background()

	// A second tenant whose entry points at the first tenant's shift. The
	// schema cannot express the cross-table invariant, so the read path
	// has to drop the row.
	other := &models.Tenant{Name: "Plant South"}
	require.NoError(t, NewTenantRepository(f.db).Create(ctx, other))

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	bad := f.newEntry(date, 100, 4)
	bad.TenantID = other.ID
	require.NoError(t, repo.Create(ctx, bad))

	good := f.newEntry(date, 250, 7)
	require.NoError(t, repo.Create(ctx, good))

	adminPred, err := tenancy.ResolveFilter(tenancy.Caller{Subject: "admin", Role: tenancy.RoleAdmin})
	require.NoError(t, err)

	listed, err := repo.ListRange(ctx, adminPred, date.AddDate(0, 0, -1), date.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, good.ID, listed[0].ID)
}

func TestAttendanceUpsertReplacesSameEmployeeDate(t *testing.T) {
	f := newIntegrationFixture(t)
	repo := NewAttendanceRepository(f.db)
	ctx := context.Background()

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	employeeID := uuid.New()
	first := &models.AttendanceEntry{
		TenantID:       f.tenantID,
		EmployeeID:     employeeID,
		ShiftID:        f.shift.ID,
		Date:           date,
		ScheduledHours: decimal.NewFromFloat(8),
		AbsenceHours:   decimal.NewFromFloat(8),
		Present:        false,
	}
	require.NoError(t, repo.Create(ctx, first))

	corrected := &models.AttendanceEntry{
		TenantID:       f.tenantID,
		EmployeeID:     employeeID,
		ShiftID:        f.shift.ID,
		Date:           date,
		ScheduledHours: decimal.NewFromFloat(8),
		AbsenceHours:   decimal.Zero,
		Present:        true,
	}
	require.NoError(t, repo.Create(ctx, corrected))

	listed, err := repo.ListRange(ctx, singleTenantPredicate(t, f.tenantID), date, date)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Present)
	assert.True(t, listed[0].AbsenceHours.IsZero())
}

func TestWorkOrderDuplicateCodeConflicts(t *testing.T) {
	f := newIntegrationFixture(t)
	repo := NewWorkOrderRepository(f.db)
	ctx := context.Background()

	order := &models.WorkOrder{
		TenantID:   f.tenantID,
		ProductID:  f.product.ID,
		ShiftID:    f.shift.ID,
		Code:       "WO-1001",
		QtyOrdered: 500,
		Status:     models.OrderStatusOpen,
		StartDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, order))

	dup := &models.WorkOrder{
		TenantID:   f.tenantID,
		ProductID:  f.product.ID,
		ShiftID:    f.shift.ID,
		Code:       "WO-1001",
		QtyOrdered: 200,
		Status:     models.OrderStatusOpen,
		StartDate:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	require.ErrorIs(t, repo.Create(ctx, dup), apperrors.ErrConflict)
}

func TestTrailingCycleTimeAvgExcludesCurrentEntry(t *testing.T) {
	f := newIntegrationFixture(t)
	entries := NewProductionEntryRepository(f.db, zap.NewNop())
	history := NewHistoryRepository(f.db)
	ctx := context.Background()

	// Two prior entries at 0.02 h/unit and 0.04 h/unit, plus the entry
	// being recomputed at an outlier rate that must not contaminate its
	// own average.
	prior1 := f.newEntry(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 100, 2)
	require.NoError(t, entries.Create(ctx, prior1))
	prior2 := f.newEntry(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 100, 4)
	require.NoError(t, entries.Create(ctx, prior2))
	current := f.newEntry(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), 10, 7)
	require.NoError(t, entries.Create(ctx, current))

	avg, n, err := history.TrailingCycleTimeAvg(ctx, f.tenantID, f.product.ID, current.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, avg.Equal(decimal.NewFromFloat(0.03)), "got %s", avg)
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/kpi"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/services"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// Configurable service mocks mirroring the service interfaces.

type mockEntryService struct {
	createProductionFn func(ctx context.Context, entry *models.ProductionEntry) error
	getProductionFn    func(ctx context.Context, id uuid.UUID) (*models.ProductionEntry, error)
}

func (m *mockEntryService) CreateProductionEntry(ctx context.Context, entry *models.ProductionEntry) error {
	if m.createProductionFn != nil {
		return m.createProductionFn(ctx, entry)
	}
	entry.ID = uuid.New()
	return nil
}

func (m *mockEntryService) UpdateProductionEntry(ctx context.Context, entry *models.ProductionEntry) error {
	return nil
}

func (m *mockEntryService) GetProductionEntry(ctx context.Context, id uuid.UUID) (*models.ProductionEntry, error) {
	if m.getProductionFn != nil {
		return m.getProductionFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntryService) DeleteProductionEntry(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *mockEntryService) CreateDowntimeEntry(ctx context.Context, entry *models.DowntimeEntry) error {
	return nil
}

func (m *mockEntryService) CreateAttendanceEntry(ctx context.Context, entry *models.AttendanceEntry) error {
	return nil
}

func (m *mockEntryService) CreateQualityEntry(ctx context.Context, entry *models.QualityEntry) error {
	return nil
}

type mockImportService struct {
	importFn func(ctx context.Context, rows []*models.ProductionEntry) (*services.ImportSummary, error)
}

func (m *mockImportService) ImportProductionEntries(ctx context.Context, rows []*models.ProductionEntry) (*services.ImportSummary, error) {
	if m.importFn != nil {
		return m.importFn(ctx, rows)
	}
	return &services.ImportSummary{Total: len(rows), Imported: len(rows)}, nil
}

type mockDashboardService struct {
	snapshotFn  func(ctx context.Context, from, to time.Time) (*services.Snapshot, error)
	seriesFn    func(ctx context.Context, metric kpi.Metric, from, to time.Time) ([]kpi.SeriesPoint, error)
	breakdownFn func(ctx context.Context, dimension string, from, to time.Time) ([]services.GroupSummary, error)
}

func (m *mockDashboardService) Snapshot(ctx context.Context, from, to time.Time) (*services.Snapshot, error) {
	if m.snapshotFn != nil {
		return m.snapshotFn(ctx, from, to)
	}
	return &services.Snapshot{From: from, To: to}, nil
}

func (m *mockDashboardService) Series(ctx context.Context, metric kpi.Metric, from, to time.Time) ([]kpi.SeriesPoint, error) {
	if m.seriesFn != nil {
		return m.seriesFn(ctx, metric, from, to)
	}
	return nil, nil
}

func (m *mockDashboardService) Breakdown(ctx context.Context, dimension string, from, to time.Time) ([]services.GroupSummary, error) {
	if m.breakdownFn != nil {
		return m.breakdownFn(ctx, dimension, from, to)
	}
	return nil, nil
}

type mockWorkOrderService struct {
	createFn  func(ctx context.Context, order *models.WorkOrder) error
	holdFn    func(ctx context.Context, id uuid.UUID, reason string) error
	resumeFn  func(ctx context.Context, id uuid.UUID) error
	deliverFn func(ctx context.Context, id uuid.UUID, deliveredAt time.Time, qtyShipped int64) error
	wipAgesFn func(ctx context.Context) ([]services.WorkOrderAge, error)
}

func (m *mockWorkOrderService) Create(ctx context.Context, order *models.WorkOrder) error {
	if m.createFn != nil {
		return m.createFn(ctx, order)
	}
	order.ID = uuid.New()
	return nil
}

func (m *mockWorkOrderService) Update(ctx context.Context, order *models.WorkOrder) error {
	return nil
}

func (m *mockWorkOrderService) Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	return &models.WorkOrder{ID: id, Code: "WO-1", Status: models.OrderStatusOpen}, nil
}

func (m *mockWorkOrderService) List(ctx context.Context) ([]*models.WorkOrder, error) {
	return nil, nil
}

func (m *mockWorkOrderService) Hold(ctx context.Context, id uuid.UUID, reason string) error {
	if m.holdFn != nil {
		return m.holdFn(ctx, id, reason)
	}
	return nil
}

func (m *mockWorkOrderService) Resume(ctx context.Context, id uuid.UUID) error {
	if m.resumeFn != nil {
		return m.resumeFn(ctx, id)
	}
	return nil
}

func (m *mockWorkOrderService) Deliver(ctx context.Context, id uuid.UUID, deliveredAt time.Time, qtyShipped int64) error {
	if m.deliverFn != nil {
		return m.deliverFn(ctx, id, deliveredAt, qtyShipped)
	}
	return nil
}

func (m *mockWorkOrderService) WIPAges(ctx context.Context) ([]services.WorkOrderAge, error) {
	if m.wipAgesFn != nil {
		return m.wipAgesFn(ctx)
	}
	return nil, nil
}

type mockTenantService struct {
	provisionFn  func(ctx context.Context, tenant *models.Tenant) error
	deactivateFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTenantService) Provision(ctx context.Context, tenant *models.Tenant) error {
	if m.provisionFn != nil {
		return m.provisionFn(ctx, tenant)
	}
	tenant.ID = uuid.New()
	return nil
}

func (m *mockTenantService) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return &models.Tenant{ID: id, Name: "tenant", Active: true}, nil
}

func (m *mockTenantService) List(ctx context.Context) ([]*models.Tenant, error) {
	return nil, nil
}

func (m *mockTenantService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, id)
	}
	return nil
}

// withCaller injects an authenticated caller the way the auth middleware
// does, letting handler methods be exercised directly.
func withCaller(r *http.Request, role tenancy.Role, tenantIDs ...uuid.UUID) *http.Request {
	ctx := tenancy.SetCaller(r.Context(), tenancy.Caller{
		Subject:   "test-user",
		Role:      role,
		TenantIDs: tenantIDs,
	})
	return r.WithContext(ctx)
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// Configurable repository mocks. Each method delegates to a function field
// when set and falls back to an empty success otherwise.

type mockTenantRepo struct {
	createFn     func(ctx context.Context, tenant *models.Tenant) error
	getFn        func(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	listFn       func(ctx context.Context, pred *tenancy.Predicate) ([]*models.Tenant, error)
	deactivateFn func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	if m.createFn != nil {
		return m.createFn(ctx, tenant)
	}
	return nil
}

func (m *mockTenantRepo) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &models.Tenant{ID: id, Name: "tenant", Active: true}, nil
}

func (m *mockTenantRepo) List(ctx context.Context, pred *tenancy.Predicate) ([]*models.Tenant, error) {
	if m.listFn != nil {
		return m.listFn(ctx, pred)
	}
	return nil, nil
}

func (m *mockTenantRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	if m.deactivateFn != nil {
		return m.deactivateFn(ctx, id)
	}
	return nil
}

type mockProductRepo struct {
	getFn  func(ctx context.Context, id uuid.UUID) (*models.Product, error)
	listFn func(ctx context.Context, pred *tenancy.Predicate) ([]*models.Product, error)
}

func (m *mockProductRepo) Create(ctx context.Context, product *models.Product) error { return nil }

func (m *mockProductRepo) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProductRepo) List(ctx context.Context, pred *tenancy.Predicate) ([]*models.Product, error) {
	if m.listFn != nil {
		return m.listFn(ctx, pred)
	}
	return nil, nil
}

type mockShiftRepo struct {
	getFn      func(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	standardFn func(ctx context.Context, shiftID, productID uuid.UUID) (*decimal.Decimal, error)
}

func (m *mockShiftRepo) Create(ctx context.Context, shift *models.Shift) error { return nil }

func (m *mockShiftRepo) Get(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockShiftRepo) Standard(ctx context.Context, shiftID, productID uuid.UUID) (*decimal.Decimal, error) {
	if m.standardFn != nil {
		return m.standardFn(ctx, shiftID, productID)
	}
	return nil, nil
}

func (m *mockShiftRepo) SetStandard(ctx context.Context, std *models.ShiftStandard) error {
	return nil
}

type mockEntryRepo struct {
	created   []*models.ProductionEntry
	updated   []*models.ProductionEntry
	getFn     func(ctx context.Context, id uuid.UUID) (*models.ProductionEntry, error)
	listFn    func(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.ProductionEntry, error)
	createErr error
	deleted   []uuid.UUID
}

func (m *mockEntryRepo) Create(ctx context.Context, entry *models.ProductionEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	m.created = append(m.created, entry)
	return nil
}

func (m *mockEntryRepo) Update(ctx context.Context, entry *models.ProductionEntry) error {
	m.updated = append(m.updated, entry)
	return nil
}

func (m *mockEntryRepo) Get(ctx context.Context, id uuid.UUID) (*models.ProductionEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockEntryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEntryRepo) ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.ProductionEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, pred, from, to)
	}
	return nil, nil
}

type mockDowntimeRepo struct {
	created []*models.DowntimeEntry
	listFn  func(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.DowntimeEntry, error)
}

func (m *mockDowntimeRepo) Create(ctx context.Context, entry *models.DowntimeEntry) error {
	m.created = append(m.created, entry)
	return nil
}

func (m *mockDowntimeRepo) Get(ctx context.Context, id uuid.UUID) (*models.DowntimeEntry, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockDowntimeRepo) ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.DowntimeEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, pred, from, to)
	}
	return nil, nil
}

type mockAttendanceRepo struct {
	created        []*models.AttendanceEntry
	listFn         func(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.AttendanceEntry, error)
	absenceDatesFn func(ctx context.Context, tenantID, employeeID uuid.UUID, from, to time.Time) ([]time.Time, error)
}

func (m *mockAttendanceRepo) Create(ctx context.Context, entry *models.AttendanceEntry) error {
	m.created = append(m.created, entry)
	return nil
}

func (m *mockAttendanceRepo) Get(ctx context.Context, id uuid.UUID) (*models.AttendanceEntry, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockAttendanceRepo) ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.AttendanceEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, pred, from, to)
	}
	return nil, nil
}

func (m *mockAttendanceRepo) AbsenceDates(ctx context.Context, tenantID, employeeID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	if m.absenceDatesFn != nil {
		return m.absenceDatesFn(ctx, tenantID, employeeID, from, to)
	}
	return nil, nil
}

type mockQualityRepo struct {
	created []*models.QualityEntry
	listFn  func(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.QualityEntry, error)
}

func (m *mockQualityRepo) Create(ctx context.Context, entry *models.QualityEntry) error {
	m.created = append(m.created, entry)
	return nil
}

func (m *mockQualityRepo) Get(ctx context.Context, id uuid.UUID) (*models.QualityEntry, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockQualityRepo) ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.QualityEntry, error) {
	if m.listFn != nil {
		return m.listFn(ctx, pred, from, to)
	}
	return nil, nil
}

func (m *mockQualityRepo) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]*models.QualityEntry, error) {
	return nil, nil
}

type mockWorkOrderRepo struct {
	orders      map[uuid.UUID]*models.WorkOrder
	holds       map[uuid.UUID][]models.HoldEntry
	updated     []*models.WorkOrder
	deliveredFn func(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.WorkOrder, error)
	openFn      func(ctx context.Context, pred *tenancy.Predicate) ([]*models.WorkOrder, error)
}

func newMockWorkOrderRepo() *mockWorkOrderRepo {
	return &mockWorkOrderRepo{
		orders: make(map[uuid.UUID]*models.WorkOrder),
		holds:  make(map[uuid.UUID][]models.HoldEntry),
	}
}

func (m *mockWorkOrderRepo) Create(ctx context.Context, order *models.WorkOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	m.orders[order.ID] = order
	return nil
}

func (m *mockWorkOrderRepo) Update(ctx context.Context, order *models.WorkOrder) error {
	if _, ok := m.orders[order.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.orders[order.ID] = order
	m.updated = append(m.updated, order)
	return nil
}

func (m *mockWorkOrderRepo) Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *order
	return &copied, nil
}

func (m *mockWorkOrderRepo) List(ctx context.Context, pred *tenancy.Predicate) ([]*models.WorkOrder, error) {
	var out []*models.WorkOrder
	for _, o := range m.orders {
		if pred.Allows(o.TenantID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockWorkOrderRepo) ListDeliveredRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.WorkOrder, error) {
	if m.deliveredFn != nil {
		return m.deliveredFn(ctx, pred, from, to)
	}
	return nil, nil
}

func (m *mockWorkOrderRepo) ListOpen(ctx context.Context, pred *tenancy.Predicate) ([]*models.WorkOrder, error) {
	if m.openFn != nil {
		return m.openFn(ctx, pred)
	}
	var out []*models.WorkOrder
	for _, o := range m.orders {
		if models.IsTerminalOrderStatus(o.Status) || o.Status == models.OrderStatusCancelled {
			continue
		}
		if pred.Allows(o.TenantID) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockWorkOrderRepo) AddHold(ctx context.Context, hold *models.HoldEntry) error {
	if hold.ID == uuid.Nil {
		hold.ID = uuid.New()
	}
	m.holds[hold.WorkOrderID] = append(m.holds[hold.WorkOrderID], *hold)
	return nil
}

func (m *mockWorkOrderRepo) ResumeHold(ctx context.Context, workOrderID uuid.UUID, resumedAt time.Time) error {
	holds := m.holds[workOrderID]
	for i := range holds {
		if holds[i].ResumedAt == nil {
			t := resumedAt
			holds[i].ResumedAt = &t
			m.holds[workOrderID] = holds
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockWorkOrderRepo) ListHolds(ctx context.Context, workOrderID uuid.UUID) ([]models.HoldEntry, error) {
	return m.holds[workOrderID], nil
}

// mockHistory fulfils the inference history store with fixed answers.
type mockHistory struct {
	trailingCT  decimal.Decimal
	trailingCTN int
	globalCT    decimal.Decimal
	globalCTN   int
	trailingEmp decimal.Decimal
	trailingN   int
	present     int
}

func (m *mockHistory) TrailingCycleTimeAvg(ctx context.Context, tenantID, productID, excludeEntryID uuid.UUID, n int) (decimal.Decimal, int, error) {
	return m.trailingCT, m.trailingCTN, nil
}

func (m *mockHistory) GlobalCycleTimeAvg(ctx context.Context, family string) (decimal.Decimal, int, error) {
	return m.globalCT, m.globalCTN, nil
}

func (m *mockHistory) TrailingEmployeeAvg(ctx context.Context, tenantID, productID, excludeEntryID uuid.UUID, n int) (decimal.Decimal, int, error) {
	return m.trailingEmp, m.trailingN, nil
}

func (m *mockHistory) PresentCount(ctx context.Context, tenantID, shiftID uuid.UUID, date time.Time) (int, error) {
	return m.present, nil
}

// ctxWithCaller builds a request context carrying an authenticated caller.
func ctxWithCaller(role tenancy.Role, tenantIDs ...uuid.UUID) context.Context {
	return tenancy.SetCaller(context.Background(), tenancy.Caller{
		Subject:   "test-user",
		Role:      role,
		TenantIDs: tenantIDs,
	})
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/inference"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/kpi"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/repositories"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// EntryService manages operational data entries. Every write validates at
// the boundary, resolves missing inputs through the inference chains, and
// recomputes the entry's derived KPI fields synchronously before persisting.
type EntryService interface {
	CreateProductionEntry(ctx context.Context, entry *models.ProductionEntry) error
	UpdateProductionEntry(ctx context.Context, entry *models.ProductionEntry) error
	GetProductionEntry(ctx context.Context, id uuid.UUID) (*models.ProductionEntry, error)
	DeleteProductionEntry(ctx context.Context, id uuid.UUID) error
	CreateDowntimeEntry(ctx context.Context, entry *models.DowntimeEntry) error
	CreateAttendanceEntry(ctx context.Context, entry *models.AttendanceEntry) error
	CreateQualityEntry(ctx context.Context, entry *models.QualityEntry) error
}

type entryService struct {
	entries    repositories.ProductionEntryRepository
	downtime   repositories.DowntimeRepository
	attendance repositories.AttendanceRepository
	quality    repositories.QualityRepository
	products   repositories.ProductRepository
	shifts     repositories.ShiftRepository
	tenants    repositories.TenantRepository
	resolver   *inference.Resolver
	logger     *zap.Logger
}

// NewEntryService creates an entry service.
func NewEntryService(
	entries repositories.ProductionEntryRepository,
	downtime repositories.DowntimeRepository,
	attendance repositories.AttendanceRepository,
	quality repositories.QualityRepository,
	products repositories.ProductRepository,
	shifts repositories.ShiftRepository,
	tenants repositories.TenantRepository,
	resolver *inference.Resolver,
	logger *zap.Logger,
) EntryService {
	return &entryService{
		entries:    entries,
		downtime:   downtime,
		attendance: attendance,
		quality:    quality,
		products:   products,
		shifts:     shifts,
		tenants:    tenants,
		resolver:   resolver,
		logger:     logger,
	}
}

// authorizeWrite checks the caller may write into the target tenant and
// that the tenant is still active.
func (s *entryService) authorizeWrite(ctx context.Context, tenantID uuid.UUID) error {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := tenancy.VerifyAccess(caller, tenantID); err != nil {
		return err
	}
	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant: %w", err)
	}
	if !tenant.Active {
		return fmt.Errorf("%w: %s", apperrors.ErrTenantDeactivated, tenantID)
	}
	return nil
}

func (s *entryService) CreateProductionEntry(ctx context.Context, entry *models.ProductionEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, entry.TenantID); err != nil {
		return err
	}
	if err := s.recompute(ctx, entry); err != nil {
		return err
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return err
	}
	s.logger.Info("production entry created",
		zap.String("entry_id", entry.ID.String()),
		zap.String("tenant_id", entry.TenantID.String()),
		zap.Bool("was_inferred", entry.WasInferred()))
	return nil
}

// UpdateProductionEntry rewrites an entry, re-running inference and the
// derived-field recompute against the updated inputs.
func (s *entryService) UpdateProductionEntry(ctx context.Context, entry *models.ProductionEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	existing, err := s.entries.Get(ctx, entry.ID)
	if err != nil {
		return err
	}
	caller, err := callerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := tenancy.VerifyAccess(caller, existing.TenantID); err != nil {
		return err
	}
	if entry.TenantID != existing.TenantID {
		return fmt.Errorf("%w: entry tenant cannot change", apperrors.ErrValidation)
	}
	if err := s.recompute(ctx, entry); err != nil {
		return err
	}
	return s.entries.Update(ctx, entry)
}

func (s *entryService) GetProductionEntry(ctx context.Context, id uuid.UUID) (*models.ProductionEntry, error) {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := tenancy.VerifyAccess(caller, entry.TenantID); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *entryService) DeleteProductionEntry(ctx context.Context, id uuid.UUID) error {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, entry.TenantID); err != nil {
		return err
	}
	return s.entries.Delete(ctx, id)
}

// recompute resolves missing inputs and refreshes the derived KPI fields.
// Called on every create and update so persisted percentages never drift
// from their inputs.
func (s *entryService) recompute(ctx context.Context, entry *models.ProductionEntry) error {
	product, err := s.products.Get(ctx, entry.ProductID)
	if err != nil {
		return fmt.Errorf("failed to load product: %w", err)
	}
	if owner, owned := product.Owner.TenantID(); owned && owner != entry.TenantID {
		return fmt.Errorf("%w: product %s belongs to another tenant", apperrors.ErrTenantMismatch, product.ID)
	}

	shift, err := s.shifts.Get(ctx, entry.ShiftID)
	if err != nil {
		return fmt.Errorf("failed to load shift: %w", err)
	}
	if shift.TenantID != entry.TenantID {
		return fmt.Errorf("%w: shift %s belongs to another tenant", apperrors.ErrTenantMismatch, shift.ID)
	}

	standard, err := s.shifts.Standard(ctx, entry.ShiftID, entry.ProductID)
	if err != nil {
		return fmt.Errorf("failed to load shift standard: %w", err)
	}

	cycleTime, err := s.resolver.InferCycleTime(ctx, inference.CycleTimeInput{
		TenantID:          entry.TenantID,
		ProductID:         entry.ProductID,
		ProductFamily:     product.Family,
		DeclaredCycleTime: product.IdealCycleTimeHours,
		ShiftStandard:     standard,
		ExcludeEntryID:    entry.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve cycle time: %w", err)
	}

	var assigned *int
	if entry.EmployeesAssigned > 0 {
		assigned = &entry.EmployeesAssigned
	}
	employees, err := s.resolver.InferEmployeeCount(ctx, inference.EmployeeCountInput{
		TenantID:       entry.TenantID,
		ProductID:      entry.ProductID,
		ShiftID:        entry.ShiftID,
		Date:           entry.Date,
		Assigned:       assigned,
		ExcludeEntryID: entry.ID,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve employee count: %w", err)
	}

	entry.EfficiencyPct = kpi.Efficiency(entry.UnitsProduced, cycleTime.Value, employees.Value, entry.ScheduledHours)
	entry.PerformancePct = kpi.Performance(entry.UnitsProduced, cycleTime.Value, entry.RunTimeHours)

	entry.CycleTimeInferred = cycleTime.WasInferred()
	entry.EmployeesInferred = employees.WasInferred()
	entry.ConfidenceScore = mergeEntryConfidence(cycleTime, employees)
	return nil
}

// mergeEntryConfidence takes the lowest confidence among inferred inputs,
// nil when everything was explicit.
func mergeEntryConfidence(results ...models.InferenceResult) *float64 {
	var merged *float64
	for _, r := range results {
		if !r.WasInferred() {
			continue
		}
		if merged == nil || r.Confidence < *merged {
			c := r.Confidence
			merged = &c
		}
	}
	return merged
}

func (s *entryService) CreateDowntimeEntry(ctx context.Context, entry *models.DowntimeEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, entry.TenantID); err != nil {
		return err
	}
	shift, err := s.shifts.Get(ctx, entry.ShiftID)
	if err != nil {
		return fmt.Errorf("failed to load shift: %w", err)
	}
	if shift.TenantID != entry.TenantID {
		return fmt.Errorf("%w: shift %s belongs to another tenant", apperrors.ErrTenantMismatch, shift.ID)
	}
	if entry.PlannedHours.IsZero() {
		entry.PlannedHours = shift.ScheduledHours
	}
	if entry.DowntimeMinutes > 0 {
		downtime := decimal.NewFromInt(int64(entry.DowntimeMinutes)).Div(decimal.NewFromInt(60))
		if downtime.GreaterThan(entry.PlannedHours) {
			s.logger.Warn("downtime exceeds planned hours",
				zap.String("tenant_id", entry.TenantID.String()),
				zap.Int("downtime_minutes", entry.DowntimeMinutes))
		}
	}
	return s.downtime.Create(ctx, entry)
}

func (s *entryService) CreateAttendanceEntry(ctx context.Context, entry *models.AttendanceEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, entry.TenantID); err != nil {
		return err
	}
	return s.attendance.Create(ctx, entry)
}

func (s *entryService) CreateQualityEntry(ctx context.Context, entry *models.QualityEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if err := s.authorizeWrite(ctx, entry.TenantID); err != nil {
		return err
	}
	return s.quality.Create(ctx, entry)
}

var _ EntryService = (*entryService)(nil)

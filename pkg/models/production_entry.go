package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
)

// ProductionEntry is a shift-level production record submitted by an
// operator or a bulk import. EfficiencyPct and PerformancePct are derived
// fields persisted to avoid recompute on every dashboard read; they are
// recomputed synchronously whenever an underlying field changes.
type ProductionEntry struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	ProductID     uuid.UUID `json:"product_id"`
	ShiftID       uuid.UUID `json:"shift_id"`
	Date          time.Time `json:"date"`
	UnitsProduced int64     `json:"units_produced"`
	// RunTimeHours is actual production run time; ScheduledHours is the
	// shift-scheduled time. Performance uses the former, Efficiency the
	// latter.
	RunTimeHours      decimal.Decimal `json:"run_time_hours"`
	ScheduledHours    decimal.Decimal `json:"scheduled_hours"`
	EmployeesAssigned int             `json:"employees_assigned"`
	DefectCount       int64           `json:"defect_count"`
	ScrapCount        int64           `json:"scrap_count"`

	// Derived fields.
	EfficiencyPct     decimal.Decimal `json:"efficiency_percentage"`
	PerformancePct    decimal.Decimal `json:"performance_percentage"`
	CycleTimeInferred bool            `json:"cycle_time_inferred"`
	EmployeesInferred bool            `json:"employees_inferred"`
	// ConfidenceScore is set whenever either inference flag is set.
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WasInferred reports whether any input to this entry's derived KPI fields
// came from the inference chain.
func (e *ProductionEntry) WasInferred() bool {
	return e.CycleTimeInferred || e.EmployeesInferred
}

// Validate enforces the entry-boundary numeric constraints. Calculators
// assume validated inputs, so violations never reach them.
func (e *ProductionEntry) Validate() error {
	if e.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation)
	}
	if e.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product_id is required", apperrors.ErrValidation)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}
	if e.UnitsProduced < 0 {
		return fmt.Errorf("%w: units_produced must be non-negative", apperrors.ErrValidation)
	}
	if e.RunTimeHours.IsNegative() {
		return fmt.Errorf("%w: run_time_hours must be non-negative", apperrors.ErrValidation)
	}
	if e.ScheduledHours.IsNegative() {
		return fmt.Errorf("%w: scheduled_hours must be non-negative", apperrors.ErrValidation)
	}
	if e.EmployeesAssigned < 0 {
		return fmt.Errorf("%w: employees_assigned must be non-negative", apperrors.ErrValidation)
	}
	if e.DefectCount < 0 {
		return fmt.Errorf("%w: defect_count must be non-negative", apperrors.ErrValidation)
	}
	if e.ScrapCount < 0 {
		return fmt.Errorf("%w: scrap_count must be non-negative", apperrors.ErrValidation)
	}
	if e.DefectCount+e.ScrapCount > e.UnitsProduced {
		return fmt.Errorf("%w: defects plus scrap exceed units produced", apperrors.ErrValidation)
	}
	return nil
}

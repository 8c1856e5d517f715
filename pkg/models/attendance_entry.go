package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
)

// AttendanceEntry records one employee's attendance for one date. Absence
// entries feed the Absenteeism and Bradford Factor calculators; present
// counts feed employee-count inference.
type AttendanceEntry struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	EmployeeID     uuid.UUID       `json:"employee_id"`
	ShiftID        uuid.UUID       `json:"shift_id"`
	Date           time.Time       `json:"date"`
	ScheduledHours decimal.Decimal `json:"scheduled_hours"`
	AbsenceHours   decimal.Decimal `json:"absence_hours"`
	Present        bool            `json:"present"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Validate enforces entry-boundary constraints.
func (a *AttendanceEntry) Validate() error {
	if a.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation)
	}
	if a.EmployeeID == uuid.Nil {
		return fmt.Errorf("%w: employee_id is required", apperrors.ErrValidation)
	}
	if a.Date.IsZero() {
		return fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}
	if a.ScheduledHours.IsNegative() {
		return fmt.Errorf("%w: scheduled_hours must be non-negative", apperrors.ErrValidation)
	}
	if a.AbsenceHours.IsNegative() {
		return fmt.Errorf("%w: absence_hours must be non-negative", apperrors.ErrValidation)
	}
	if a.AbsenceHours.GreaterThan(a.ScheduledHours) {
		return fmt.Errorf("%w: absence_hours exceed scheduled_hours", apperrors.ErrValidation)
	}
	return nil
}

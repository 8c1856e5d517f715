package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
)

// DowntimeEntry records unplanned downtime against a shift on a given date.
// It feeds the Availability calculator.
type DowntimeEntry struct {
	ID              uuid.UUID       `json:"id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	ShiftID         uuid.UUID       `json:"shift_id"`
	Date            time.Time       `json:"date"`
	DowntimeMinutes int             `json:"downtime_minutes"`
	PlannedHours    decimal.Decimal `json:"planned_hours"`
	Reason          string          `json:"reason"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DowntimeHours converts the recorded minutes to hours.
func (d *DowntimeEntry) DowntimeHours() decimal.Decimal {
	return decimal.NewFromInt(int64(d.DowntimeMinutes)).Div(decimal.NewFromInt(60))
}

// Validate enforces entry-boundary constraints.
func (d *DowntimeEntry) Validate() error {
	if d.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation)
	}
	if d.Date.IsZero() {
		return fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}
	if d.DowntimeMinutes < 0 {
		return fmt.Errorf("%w: downtime_minutes must be non-negative", apperrors.ErrValidation)
	}
	if d.PlannedHours.IsNegative() {
		return fmt.Errorf("%w: planned_hours must be non-negative", apperrors.ErrValidation)
	}
	return nil
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
)

// QualityEntry records an inspection result for a production stage.
// UnitsFirstPass is the count that passed without rework or repair; FPY
// requires this explicit tracking and cannot be derived from defect counts.
type QualityEntry struct {
	ID             uuid.UUID `json:"id"`
	TenantID       uuid.UUID `json:"tenant_id"`
	ProductID      uuid.UUID `json:"product_id"`
	WorkOrderID    uuid.UUID `json:"work_order_id"`
	Stage          string    `json:"stage"`
	StageSequence  int       `json:"stage_sequence"`
	Date           time.Time `json:"date"`
	UnitsInspected int64     `json:"units_inspected"`
	UnitsDefective int64     `json:"units_defective"`
	UnitsReworked  int64     `json:"units_reworked"`
	UnitsFirstPass int64     `json:"units_first_pass"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate enforces entry-boundary constraints.
func (q *QualityEntry) Validate() error {
	if q.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation)
	}
	if q.Date.IsZero() {
		return fmt.Errorf("%w: date is required", apperrors.ErrValidation)
	}
	if q.UnitsInspected < 0 || q.UnitsDefective < 0 || q.UnitsReworked < 0 || q.UnitsFirstPass < 0 {
		return fmt.Errorf("%w: inspection counts must be non-negative", apperrors.ErrValidation)
	}
	if q.UnitsDefective > q.UnitsInspected {
		return fmt.Errorf("%w: units_defective exceed units_inspected", apperrors.ErrValidation)
	}
	if q.UnitsFirstPass > q.UnitsInspected {
		return fmt.Errorf("%w: units_first_pass exceed units_inspected", apperrors.ErrValidation)
	}
	return nil
}

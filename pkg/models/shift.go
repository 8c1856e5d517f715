package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shift represents a production shift (or line) within a tenant.
type Shift struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	Name           string          `json:"name"`
	// ScheduledHours is the shift's planned working hours per day. It is
	// also the shift capacity used by delivery-date inference when a
	// promised date must be computed.
	ScheduledHours decimal.Decimal `json:"scheduled_hours"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ShiftStandard is a shift/line-level configured standard cycle time for a
// product. It feeds inference level 2 when the product has no declared ideal
// cycle time.
type ShiftStandard struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	ShiftID        uuid.UUID       `json:"shift_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	CycleTimeHours decimal.Decimal `json:"cycle_time_hours"`
	CreatedAt      time.Time       `json:"created_at"`
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
)

// Work order lifecycle states. PartiallyShipped is not a terminal state:
// true OTD excludes such orders from its denominator.
const (
	OrderStatusOpen             = "open"
	OrderStatusInProgress       = "in_progress"
	OrderStatusOnHold           = "on_hold"
	OrderStatusCompleted        = "completed"
	OrderStatusShipped          = "shipped"
	OrderStatusPartiallyShipped = "partially_shipped"
	OrderStatusCancelled        = "cancelled"
)

// IsTerminalOrderStatus reports whether an order has reached a terminal
// completed state for true-OTD purposes.
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusShipped
}

// WorkOrder is a customer order moving through production. Delivery KPIs
// (OTD) and WIP aging are computed from it.
type WorkOrder struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	ProductID    uuid.UUID `json:"product_id"`
	ShiftID      uuid.UUID `json:"shift_id"`
	Code         string    `json:"code"`
	QtyOrdered   int64     `json:"qty_ordered"`
	QtyCompleted int64     `json:"qty_completed"`
	QtyShipped   int64     `json:"qty_shipped"`
	Status       string    `json:"status"`
	StartDate    time.Time `json:"start_date"`
	// Date sources for the promised-date inference chain, in priority order.
	PlannedShipDate      *time.Time `json:"planned_ship_date,omitempty"`
	ContractRequiredDate *time.Time `json:"contract_required_date,omitempty"`
	DeliveredAt          *time.Time `json:"delivered_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Validate enforces entry-boundary constraints.
func (w *WorkOrder) Validate() error {
	if w.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation)
	}
	if w.ProductID == uuid.Nil {
		return fmt.Errorf("%w: product_id is required", apperrors.ErrValidation)
	}
	if w.QtyOrdered <= 0 {
		return fmt.Errorf("%w: qty_ordered must be positive", apperrors.ErrValidation)
	}
	if w.QtyCompleted < 0 || w.QtyShipped < 0 {
		return fmt.Errorf("%w: quantities must be non-negative", apperrors.ErrValidation)
	}
	if w.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date is required", apperrors.ErrValidation)
	}
	switch w.Status {
	case OrderStatusOpen, OrderStatusInProgress, OrderStatusOnHold,
		OrderStatusCompleted, OrderStatusShipped, OrderStatusPartiallyShipped,
		OrderStatusCancelled:
	default:
		return fmt.Errorf("%w: unknown order status %q", apperrors.ErrValidation, w.Status)
	}
	return nil
}

// HoldEntry records one hold interval on a work order. ResumedAt is nil
// while the hold is still open; WIP aging is frozen for the interval.
type HoldEntry struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    uuid.UUID  `json:"tenant_id"`
	WorkOrderID uuid.UUID  `json:"work_order_id"`
	HeldAt      time.Time  `json:"held_at"`
	ResumedAt   *time.Time `json:"resumed_at,omitempty"`
	Reason      string     `json:"reason"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate enforces entry-boundary constraints.
func (h *HoldEntry) Validate() error {
	if h.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant_id is required", apperrors.ErrValidation)
	}
	if h.WorkOrderID == uuid.Nil {
		return fmt.Errorf("%w: work_order_id is required", apperrors.ErrValidation)
	}
	if h.HeldAt.IsZero() {
		return fmt.Errorf("%w: held_at is required", apperrors.ErrValidation)
	}
	if h.ResumedAt != nil && h.ResumedAt.Before(h.HeldAt) {
		return fmt.Errorf("%w: resumed_at precedes held_at", apperrors.ErrValidation)
	}
	return nil
}

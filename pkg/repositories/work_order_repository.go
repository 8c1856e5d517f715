package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/database"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// WorkOrderRepository defines data access for work orders and their hold
// intervals.
type WorkOrderRepository interface {
	Create(ctx context.Context, order *models.WorkOrder) error
	Update(ctx context.Context, order *models.WorkOrder) error
	Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	List(ctx context.Context, pred *tenancy.Predicate) ([]*models.WorkOrder, error)
	// ListDeliveredRange returns orders delivered in [from, to] for OTD.
	ListDeliveredRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.WorkOrder, error)
	// ListOpen returns non-terminal, non-cancelled orders for WIP aging and
	// for counting overdue undelivered orders against OTD.
	ListOpen(ctx context.Context, pred *tenancy.Predicate) ([]*models.WorkOrder, error)
	AddHold(ctx context.Context, hold *models.HoldEntry) error
	// ResumeHold closes the open hold on an order. Returns ErrNotFound when
	// no open hold exists.
	ResumeHold(ctx context.Context, workOrderID uuid.UUID, resumedAt time.Time) error
	ListHolds(ctx context.Context, workOrderID uuid.UUID) ([]models.HoldEntry, error)
}

type workOrderRepository struct {
	db *database.DB
}

// NewWorkOrderRepository creates a work order repository.
func NewWorkOrderRepository(db *database.DB) WorkOrderRepository {
	return &workOrderRepository{db: db}
}

const workOrderColumns = `
	id, tenant_id, product_id, shift_id, code, qty_ordered, qty_completed, qty_shipped,
	status, start_date, planned_ship_date, contract_required_date, delivered_at,
	created_at, updated_at`

func (r *workOrderRepository) Create(ctx context.Context, order *models.WorkOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if order.Status == "" {
		order.Status = models.OrderStatusOpen
	}

	query := `
		INSERT INTO work_orders (` + workOrderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (tenant_id, code) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		order.ID, order.TenantID, order.ProductID, order.ShiftID, order.Code,
		order.QtyOrdered, order.QtyCompleted, order.QtyShipped,
		order.Status, order.StartDate, order.PlannedShipDate, order.ContractRequiredDate, order.DeliveredAt,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create work order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	return nil
}

func (r *workOrderRepository) Update(ctx context.Context, order *models.WorkOrder) error {
	order.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE work_orders
		SET qty_completed = $2, qty_shipped = $3, status = $4,
		    planned_ship_date = $5, contract_required_date = $6, delivered_at = $7,
		    updated_at = $8
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		order.ID, order.QtyCompleted, order.QtyShipped, order.Status,
		order.PlannedShipDate, order.ContractRequiredDate, order.DeliveredAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update work order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Get retrieves a work order by id, unscoped.
func (r *workOrderRepository) Get(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE id = $1`

	o, err := scanWorkOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}
	return o, nil
}

func (r *workOrderRepository) List(ctx context.Context, pred *tenancy.Predicate) ([]*models.WorkOrder, error) {
	clause, args := pred.Clause("tenant_id", 1)
	query := fmt.Sprintf(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE %s
		ORDER BY start_date, code`, clause)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list work orders: %w", err)
	}
	defer rows.Close()
	return collectWorkOrders(rows)
}

func (r *workOrderRepository) ListDeliveredRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.WorkOrder, error) {
	clause, args := pred.Clause("tenant_id", 3)
	query := fmt.Sprintf(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE delivered_at IS NOT NULL AND delivered_at >= $1 AND delivered_at <= $2 AND %s
		ORDER BY delivered_at`, clause)

	rows, err := r.db.Query(ctx, query, append([]any{from, to}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivered work orders: %w", err)
	}
	defer rows.Close()
	return collectWorkOrders(rows)
}

func (r *workOrderRepository) ListOpen(ctx context.Context, pred *tenancy.Predicate) ([]*models.WorkOrder, error) {
	clause, args := pred.Clause("tenant_id", 1)
	query := fmt.Sprintf(`
		SELECT `+workOrderColumns+`
		FROM work_orders
		WHERE status IN ('open', 'in_progress', 'on_hold', 'partially_shipped') AND %s
		ORDER BY start_date`, clause)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list open work orders: %w", err)
	}
	defer rows.Close()
	return collectWorkOrders(rows)
}

func (r *workOrderRepository) AddHold(ctx context.Context, hold *models.HoldEntry) error {
	if hold.ID == uuid.Nil {
		hold.ID = uuid.New()
	}
	hold.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO hold_entries (id, tenant_id, work_order_id, held_at, resumed_at, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		hold.ID, hold.TenantID, hold.WorkOrderID, hold.HeldAt, hold.ResumedAt, hold.Reason, hold.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create hold entry: %w", err)
	}
	return nil
}

func (r *workOrderRepository) ResumeHold(ctx context.Context, workOrderID uuid.UUID, resumedAt time.Time) error {
	query := `
		UPDATE hold_entries
		SET resumed_at = $2
		WHERE work_order_id = $1 AND resumed_at IS NULL`

	tag, err := r.db.Exec(ctx, query, workOrderID, resumedAt)
	if err != nil {
		return fmt.Errorf("failed to resume hold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *workOrderRepository) ListHolds(ctx context.Context, workOrderID uuid.UUID) ([]models.HoldEntry, error) {
	query := `
		SELECT id, tenant_id, work_order_id, held_at, resumed_at, reason, created_at
		FROM hold_entries
		WHERE work_order_id = $1
		ORDER BY held_at`

	rows, err := r.db.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	defer rows.Close()

	var holds []models.HoldEntry
	for rows.Next() {
		var h models.HoldEntry
		err := rows.Scan(&h.ID, &h.TenantID, &h.WorkOrderID, &h.HeldAt, &h.ResumedAt, &h.Reason, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hold entry: %w", err)
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

func collectWorkOrders(rows pgx.Rows) ([]*models.WorkOrder, error) {
	var orders []*models.WorkOrder
	for rows.Next() {
		o, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanWorkOrder(row pgx.Row) (*models.WorkOrder, error) {
	var o models.WorkOrder
	err := row.Scan(
		&o.ID, &o.TenantID, &o.ProductID, &o.ShiftID, &o.Code,
		&o.QtyOrdered, &o.QtyCompleted, &o.QtyShipped,
		&o.Status, &o.StartDate, &o.PlannedShipDate, &o.ContractRequiredDate, &o.DeliveredAt,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

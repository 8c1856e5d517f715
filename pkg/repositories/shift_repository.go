package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/database"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
)

// ShiftRepository defines data access for shifts and their per-product
// standard cycle times.
type ShiftRepository interface {
	Create(ctx context.Context, shift *models.Shift) error
	Get(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	// Standard returns the configured standard cycle time for a product on
	// a shift, or nil when none is configured.
	Standard(ctx context.Context, shiftID, productID uuid.UUID) (*decimal.Decimal, error)
	SetStandard(ctx context.Context, std *models.ShiftStandard) error
}

type shiftRepository struct {
	db *database.DB
}

// NewShiftRepository creates a shift repository.
func NewShiftRepository(db *database.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

func (r *shiftRepository) Create(ctx context.Context, shift *models.Shift) error {
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	now := time.Now().UTC()
	shift.CreatedAt = now
	shift.UpdatedAt = now

	query := `
		INSERT INTO shifts (id, tenant_id, name, scheduled_hours, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query, shift.ID, shift.TenantID, shift.Name, shift.ScheduledHours, shift.CreatedAt, shift.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create shift: %w", err)
	}
	return nil
}

// Get retrieves a shift by id. Unscoped: callers authorize against the
// returned tenant id.
func (r *shiftRepository) Get(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	query := `
		SELECT id, tenant_id, name, scheduled_hours, created_at, updated_at
		FROM shifts
		WHERE id = $1`

	var s models.Shift
	err := r.db.QueryRow(ctx, query, id).Scan(&s.ID, &s.TenantID, &s.Name, &s.ScheduledHours, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shift: %w", err)
	}
	return &s, nil
}

func (r *shiftRepository) Standard(ctx context.Context, shiftID, productID uuid.UUID) (*decimal.Decimal, error) {
	query := `
		SELECT cycle_time_hours
		FROM shift_standards
		WHERE shift_id = $1 AND product_id = $2`

	var ct decimal.Decimal
	err := r.db.QueryRow(ctx, query, shiftID, productID).Scan(&ct)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shift standard: %w", err)
	}
	return &ct, nil
}

func (r *shiftRepository) SetStandard(ctx context.Context, std *models.ShiftStandard) error {
	if std.ID == uuid.Nil {
		std.ID = uuid.New()
	}
	std.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO shift_standards (id, tenant_id, shift_id, product_id, cycle_time_hours, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (shift_id, product_id) DO UPDATE
		SET cycle_time_hours = EXCLUDED.cycle_time_hours`

	_, err := r.db.Exec(ctx, query, std.ID, std.TenantID, std.ShiftID, std.ProductID, std.CycleTimeHours, std.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to set shift standard: %w", err)
	}
	return nil
}

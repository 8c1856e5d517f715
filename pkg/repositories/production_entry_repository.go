package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/apperrors"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/database"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/models"
	"github.com/ccmanuelf/kpi-operations-sub001/pkg/tenancy"
)

// ProductionEntryRepository defines data access for production entries.
type ProductionEntryRepository interface {
	Create(ctx context.Context, entry *models.ProductionEntry) error
	Update(ctx context.Context, entry *models.ProductionEntry) error
	Get(ctx context.Context, id uuid.UUID) (*models.ProductionEntry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ListRange returns entries in [from, to] for the permitted tenants,
	// excluding rows whose tenant id disagrees with their shift's tenant id
	// (a data-integrity defect, logged and skipped).
	ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.ProductionEntry, error)
}

type productionEntryRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewProductionEntryRepository creates a production entry repository.
func NewProductionEntryRepository(db *database.DB, logger *zap.Logger) ProductionEntryRepository {
	return &productionEntryRepository{db: db, logger: logger}
}

const productionEntryColumns = `
	id, tenant_id, product_id, shift_id, date, units_produced,
	run_time_hours, scheduled_hours, employees_assigned, defect_count, scrap_count,
	efficiency_percentage, performance_percentage,
	cycle_time_inferred, employees_inferred, confidence_score,
	created_at, updated_at`

// Create inserts an entry with its recomputed derived fields.
func (r *productionEntryRepository) Create(ctx context.Context, entry *models.ProductionEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
		INSERT INTO production_entries (` + productionEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.TenantID, entry.ProductID, entry.ShiftID, entry.Date, entry.UnitsProduced,
		entry.RunTimeHours, entry.ScheduledHours, entry.EmployeesAssigned, entry.DefectCount, entry.ScrapCount,
		entry.EfficiencyPct, entry.PerformancePct,
		entry.CycleTimeInferred, entry.EmployeesInferred, entry.ConfidenceScore,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create production entry: %w", err)
	}
	return nil
}

// Update rewrites an entry's fields and derived values. The write is scoped
// to the single row; nothing else recomputes.
func (r *productionEntryRepository) Update(ctx context.Context, entry *models.ProductionEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE production_entries
		SET product_id = $2, shift_id = $3, date = $4, units_produced = $5,
		    run_time_hours = $6, scheduled_hours = $7, employees_assigned = $8,
		    defect_count = $9, scrap_count = $10,
		    efficiency_percentage = $11, performance_percentage = $12,
		    cycle_time_inferred = $13, employees_inferred = $14, confidence_score = $15,
		    updated_at = $16
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		entry.ID, entry.ProductID, entry.ShiftID, entry.Date, entry.UnitsProduced,
		entry.RunTimeHours, entry.ScheduledHours, entry.EmployeesAssigned,
		entry.DefectCount, entry.ScrapCount,
		entry.EfficiencyPct, entry.PerformancePct,
		entry.CycleTimeInferred, entry.EmployeesInferred, entry.ConfidenceScore,
		entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update production entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Get retrieves an entry by id. Unscoped: callers authorize against the
// returned tenant id before acting on it.
func (r *productionEntryRepository) Get(ctx context.Context, id uuid.UUID) (*models.ProductionEntry, error) {
	query := `SELECT ` + productionEntryColumns + ` FROM production_entries WHERE id = $1`

	e, err := scanProductionEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get production entry: %w", err)
	}
	return e, nil
}

func (r *productionEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM production_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete production entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *productionEntryRepository) ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.ProductionEntry, error) {
	clause, args := pred.Clause("e.tenant_id", 3)
	query := fmt.Sprintf(`
		SELECT e.id, e.tenant_id, e.product_id, e.shift_id, e.date, e.units_produced,
		       e.run_time_hours, e.scheduled_hours, e.employees_assigned, e.defect_count, e.scrap_count,
		       e.efficiency_percentage, e.performance_percentage,
		       e.cycle_time_inferred, e.employees_inferred, e.confidence_score,
		       e.created_at, e.updated_at,
		       s.tenant_id
		FROM production_entries e
		JOIN shifts s ON s.id = e.shift_id
		WHERE e.date >= $1 AND e.date <= $2 AND %s
		ORDER BY e.date, e.created_at`, clause)

	queryArgs := append([]any{from, to}, args...)
	rows, err := r.db.Query(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to list production entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.ProductionEntry
	for rows.Next() {
		var (
			e             models.ProductionEntry
			shiftTenantID uuid.UUID
		)
		err := rows.Scan(
			&e.ID, &e.TenantID, &e.ProductID, &e.ShiftID, &e.Date, &e.UnitsProduced,
			&e.RunTimeHours, &e.ScheduledHours, &e.EmployeesAssigned, &e.DefectCount, &e.ScrapCount,
			&e.EfficiencyPct, &e.PerformancePct,
			&e.CycleTimeInferred, &e.EmployeesInferred, &e.ConfidenceScore,
			&e.CreatedAt, &e.UpdatedAt,
			&shiftTenantID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan production entry: %w", err)
		}
		if shiftTenantID != e.TenantID {
			// Integrity defect: the entry points at another tenant's shift.
			// Excluded from aggregation, never fatal to the request.
			r.logger.Warn("excluding production entry with tenant mismatch",
				zap.String("entry_id", e.ID.String()),
				zap.String("entry_tenant_id", e.TenantID.String()),
				zap.String("shift_tenant_id", shiftTenantID.String()))
			continue
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func scanProductionEntry(row pgx.Row) (*models.ProductionEntry, error) {
	var e models.ProductionEntry
	err := row.Scan(
		&e.ID, &e.TenantID, &e.ProductID, &e.ShiftID, &e.Date, &e.UnitsProduced,
		&e.RunTimeHours, &e.ScheduledHours, &e.EmployeesAssigned, &e.DefectCount, &e.ScrapCount,
		&e.EfficiencyPct, &e.PerformancePct,
		&e.CycleTimeInferred, &e.EmployeesInferred, &e.ConfidenceScore,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

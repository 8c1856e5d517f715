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

// QualityRepository defines data access for quality inspection entries.
type QualityRepository interface {
	Create(ctx context.Context, entry *models.QualityEntry) error
	Get(ctx context.Context, id uuid.UUID) (*models.QualityEntry, error)
	ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.QualityEntry, error)
	// ListByWorkOrder returns an order's inspection entries ordered by stage
	// sequence, the order RTY multiplies stage yields in.
	ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]*models.QualityEntry, error)
}

type qualityRepository struct {
	db *database.DB
}

// NewQualityRepository creates a quality repository.
func NewQualityRepository(db *database.DB) QualityRepository {
	return &qualityRepository{db: db}
}

const qualityColumns = `
	id, tenant_id, product_id, work_order_id, stage, stage_sequence, date,
	units_inspected, units_defective, units_reworked, units_first_pass, created_at`

func (r *qualityRepository) Create(ctx context.Context, entry *models.QualityEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO quality_entries (` + qualityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	// Inspections outside a work order store NULL, not the zero UUID.
	var workOrderID *uuid.UUID
	if entry.WorkOrderID != uuid.Nil {
		workOrderID = &entry.WorkOrderID
	}

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.TenantID, entry.ProductID, workOrderID,
		entry.Stage, entry.StageSequence, entry.Date,
		entry.UnitsInspected, entry.UnitsDefective, entry.UnitsReworked, entry.UnitsFirstPass,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create quality entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by id, unscoped.
func (r *qualityRepository) Get(ctx context.Context, id uuid.UUID) (*models.QualityEntry, error) {
	query := `SELECT ` + qualityColumns + ` FROM quality_entries WHERE id = $1`

	e, err := scanQualityEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quality entry: %w", err)
	}
	return e, nil
}

func (r *qualityRepository) ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.QualityEntry, error) {
	clause, args := pred.Clause("tenant_id", 3)
	query := fmt.Sprintf(`
		SELECT `+qualityColumns+`
		FROM quality_entries
		WHERE date >= $1 AND date <= $2 AND %s
		ORDER BY date, stage_sequence`, clause)

	rows, err := r.db.Query(ctx, query, append([]any{from, to}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality entries: %w", err)
	}
	defer rows.Close()
	return collectQualityEntries(rows)
}

func (r *qualityRepository) ListByWorkOrder(ctx context.Context, workOrderID uuid.UUID) ([]*models.QualityEntry, error) {
	query := `
		SELECT ` + qualityColumns + `
		FROM quality_entries
		WHERE work_order_id = $1
		ORDER BY stage_sequence, date`

	rows, err := r.db.Query(ctx, query, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quality entries for work order: %w", err)
	}
	defer rows.Close()
	return collectQualityEntries(rows)
}

func collectQualityEntries(rows pgx.Rows) ([]*models.QualityEntry, error) {
	var entries []*models.QualityEntry
	for rows.Next() {
		e, err := scanQualityEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quality entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanQualityEntry(row pgx.Row) (*models.QualityEntry, error) {
	var e models.QualityEntry
	var workOrderID *uuid.UUID
	err := row.Scan(
		&e.ID, &e.TenantID, &e.ProductID, &workOrderID,
		&e.Stage, &e.StageSequence, &e.Date,
		&e.UnitsInspected, &e.UnitsDefective, &e.UnitsReworked, &e.UnitsFirstPass,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if workOrderID != nil {
		e.WorkOrderID = *workOrderID
	}
	return &e, nil
}

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

// DowntimeRepository defines data access for downtime entries.
type DowntimeRepository interface {
	Create(ctx context.Context, entry *models.DowntimeEntry) error
	Get(ctx context.Context, id uuid.UUID) (*models.DowntimeEntry, error)
	ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.DowntimeEntry, error)
}

type downtimeRepository struct {
	db *database.DB
}

// NewDowntimeRepository creates a downtime repository.
func NewDowntimeRepository(db *database.DB) DowntimeRepository {
	return &downtimeRepository{db: db}
}

func (r *downtimeRepository) Create(ctx context.Context, entry *models.DowntimeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO downtime_entries (id, tenant_id, shift_id, date, downtime_minutes, planned_hours, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.TenantID, entry.ShiftID, entry.Date,
		entry.DowntimeMinutes, entry.PlannedHours, entry.Reason, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create downtime entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by id, unscoped.
func (r *downtimeRepository) Get(ctx context.Context, id uuid.UUID) (*models.DowntimeEntry, error) {
	query := `
		SELECT id, tenant_id, shift_id, date, downtime_minutes, planned_hours, reason, created_at
		FROM downtime_entries WHERE id = $1`

	var e models.DowntimeEntry
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.TenantID, &e.ShiftID, &e.Date,
		&e.DowntimeMinutes, &e.PlannedHours, &e.Reason, &e.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get downtime entry: %w", err)
	}
	return &e, nil
}

func (r *downtimeRepository) ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.DowntimeEntry, error) {
	clause, args := pred.Clause("tenant_id", 3)
	query := fmt.Sprintf(`
		SELECT id, tenant_id, shift_id, date, downtime_minutes, planned_hours, reason, created_at
		FROM downtime_entries
		WHERE date >= $1 AND date <= $2 AND %s
		ORDER BY date, created_at`, clause)

	rows, err := r.db.Query(ctx, query, append([]any{from, to}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list downtime entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.DowntimeEntry
	for rows.Next() {
		var e models.DowntimeEntry
		err := rows.Scan(
			&e.ID, &e.TenantID, &e.ShiftID, &e.Date,
			&e.DowntimeMinutes, &e.PlannedHours, &e.Reason, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan downtime entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

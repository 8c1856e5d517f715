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

// AttendanceRepository defines data access for attendance entries.
type AttendanceRepository interface {
	Create(ctx context.Context, entry *models.AttendanceEntry) error
	Get(ctx context.Context, id uuid.UUID) (*models.AttendanceEntry, error)
	ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.AttendanceEntry, error)
	// AbsenceDates returns the distinct absence dates for one employee in
	// [from, to], ordered ascending. Bradford spell counting runs on these.
	AbsenceDates(ctx context.Context, tenantID, employeeID uuid.UUID, from, to time.Time) ([]time.Time, error)
}

type attendanceRepository struct {
	db *database.DB
}

// NewAttendanceRepository creates an attendance repository.
func NewAttendanceRepository(db *database.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Create inserts an attendance record. One record per employee per date; a
// re-submission replaces the earlier one.
func (r *attendanceRepository) Create(ctx context.Context, entry *models.AttendanceEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO attendance_entries (id, tenant_id, employee_id, shift_id, date, scheduled_hours, absence_hours, present, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, employee_id, date) DO UPDATE SET
			shift_id = EXCLUDED.shift_id,
			scheduled_hours = EXCLUDED.scheduled_hours,
			absence_hours = EXCLUDED.absence_hours,
			present = EXCLUDED.present`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.TenantID, entry.EmployeeID, entry.ShiftID, entry.Date,
		entry.ScheduledHours, entry.AbsenceHours, entry.Present, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendance entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by id, unscoped.
func (r *attendanceRepository) Get(ctx context.Context, id uuid.UUID) (*models.AttendanceEntry, error) {
	query := `
		SELECT id, tenant_id, employee_id, shift_id, date, scheduled_hours, absence_hours, present, created_at
		FROM attendance_entries WHERE id = $1`

	var e models.AttendanceEntry
	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.TenantID, &e.EmployeeID, &e.ShiftID, &e.Date,
		&e.ScheduledHours, &e.AbsenceHours, &e.Present, &e.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attendance entry: %w", err)
	}
	return &e, nil
}

func (r *attendanceRepository) ListRange(ctx context.Context, pred *tenancy.Predicate, from, to time.Time) ([]*models.AttendanceEntry, error) {
	clause, args := pred.Clause("tenant_id", 3)
	query := fmt.Sprintf(`
		SELECT id, tenant_id, employee_id, shift_id, date, scheduled_hours, absence_hours, present, created_at
		FROM attendance_entries
		WHERE date >= $1 AND date <= $2 AND %s
		ORDER BY date, employee_id`, clause)

	rows, err := r.db.Query(ctx, query, append([]any{from, to}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AttendanceEntry
	for rows.Next() {
		var e models.AttendanceEntry
		err := rows.Scan(
			&e.ID, &e.TenantID, &e.EmployeeID, &e.ShiftID, &e.Date,
			&e.ScheduledHours, &e.AbsenceHours, &e.Present, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *attendanceRepository) AbsenceDates(ctx context.Context, tenantID, employeeID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT date
		FROM attendance_entries
		WHERE tenant_id = $1 AND employee_id = $2
		  AND date >= $3 AND date <= $4
		  AND NOT present
		ORDER BY date`

	rows, err := r.db.Query(ctx, query, tenantID, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list absence dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan absence date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

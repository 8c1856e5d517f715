package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ccmanuelf/kpi-operations-sub001/pkg/database"
)

// historyRepository backs the inference chains with historical scans over
// production and attendance data. Self-exclusion happens in the SQL predicate
// (id <> exclude), not by filtering scanned rows.
type historyRepository struct {
	db *database.DB
}

// NewHistoryRepository creates the history store used by inference.
func NewHistoryRepository(db *database.DB) *historyRepository {
	return &historyRepository{db: db}
}

// TrailingCycleTimeAvg averages effective cycle time (run hours per unit)
// over the most recent n entries for the tenant and product. Zero-unit rows
// cannot yield a cycle time and are excluded.
func (r *historyRepository) TrailingCycleTimeAvg(ctx context.Context, tenantID, productID, excludeEntryID uuid.UUID, n int) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(AVG(cycle_time), 0), COUNT(*)
		FROM (
			SELECT run_time_hours / units_produced AS cycle_time
			FROM production_entries
			WHERE tenant_id = $1 AND product_id = $2 AND id <> $3
			  AND units_produced > 0 AND run_time_hours > 0
			ORDER BY date DESC, created_at DESC
			LIMIT $4
		) trailing`

	var avg decimal.Decimal
	var count int
	err := r.db.QueryRow(ctx, query, tenantID, productID, excludeEntryID, n).Scan(&avg, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to scan trailing cycle time: %w", err)
	}
	return avg, count, nil
}

// GlobalCycleTimeAvg averages effective cycle time across all tenants for a
// product family. Only the aggregate leaves this query; no per-tenant rows
// are exposed.
func (r *historyRepository) GlobalCycleTimeAvg(ctx context.Context, family string) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(AVG(e.run_time_hours / e.units_produced), 0), COUNT(*)
		FROM production_entries e
		JOIN products p ON p.id = e.product_id
		WHERE p.family = $1
		  AND e.units_produced > 0 AND e.run_time_hours > 0`

	var avg decimal.Decimal
	var count int
	err := r.db.QueryRow(ctx, query, family).Scan(&avg, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to scan global cycle time: %w", err)
	}
	return avg, count, nil
}

// TrailingEmployeeAvg averages assigned headcount over the most recent n
// entries for the tenant and product.
func (r *historyRepository) TrailingEmployeeAvg(ctx context.Context, tenantID, productID, excludeEntryID uuid.UUID, n int) (decimal.Decimal, int, error) {
	query := `
		SELECT COALESCE(AVG(employees_assigned), 0), COUNT(*)
		FROM (
			SELECT employees_assigned
			FROM production_entries
			WHERE tenant_id = $1 AND product_id = $2 AND id <> $3
			  AND employees_assigned > 0
			ORDER BY date DESC, created_at DESC
			LIMIT $4
		) trailing`

	var avg decimal.Decimal
	var count int
	err := r.db.QueryRow(ctx, query, tenantID, productID, excludeEntryID, n).Scan(&avg, &count)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("failed to scan trailing employee average: %w", err)
	}
	return avg, count, nil
}

// PresentCount counts employees recorded present for a shift on a date.
func (r *historyRepository) PresentCount(ctx context.Context, tenantID, shiftID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM attendance_entries
		WHERE tenant_id = $1 AND shift_id = $2 AND date = $3 AND present`

	var count int
	err := r.db.QueryRow(ctx, query, tenantID, shiftID, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count present employees: %w", err)
	}
	return count, nil
}

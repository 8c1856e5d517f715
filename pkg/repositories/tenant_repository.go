// Package repositories implements PostgreSQL data access. Every read of an
// operational table composes the caller's tenancy predicate into its WHERE
// clause; single-record fetches used by update/delete return the row's
// tenant id so services can run VerifyAccess and surface authorization
// failures instead of not-found.
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

// TenantRepository defines data access for tenants.
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context, pred *tenancy.Predicate) ([]*models.Tenant, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type tenantRepository struct {
	db *database.DB
}

// NewTenantRepository creates a tenant repository.
func NewTenantRepository(db *database.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// Create inserts a tenant. Idempotent on id for safe provisioning retries.
func (r *tenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	now := time.Now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	tenant.Active = true

	query := `
		INSERT INTO tenants (id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Active, tenant.CreatedAt, tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// Get retrieves a tenant by id. Unscoped: callers authorize against the
// returned tenant id.
func (r *tenantRepository) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	query := `
		SELECT id, name, active, created_at, updated_at
		FROM tenants
		WHERE id = $1`

	var t models.Tenant
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &t, nil
}

// List returns the tenants visible to the caller.
func (r *tenantRepository) List(ctx context.Context, pred *tenancy.Predicate) ([]*models.Tenant, error) {
	clause, args := pred.Clause("id", 1)
	query := fmt.Sprintf(`
		SELECT id, name, active, created_at, updated_at
		FROM tenants
		WHERE %s
		ORDER BY name`, clause)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

// Deactivate flags a tenant inactive. Tenants are never deleted.
func (r *tenantRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tenants SET active = false, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to deactivate tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

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

// ProductRepository defines data access for products. Product reads use the
// catalog clause: shared-catalog rows (NULL tenant id) are visible to every
// caller alongside the caller's own tenants' products.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, pred *tenancy.Predicate) ([]*models.Product, error)
}

type productRepository struct {
	db *database.DB
}

// NewProductRepository creates a product repository.
func NewProductRepository(db *database.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a product.
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	query := `
		INSERT INTO products (id, tenant_id, code, name, family, ideal_cycle_time_hours, opportunities_per_unit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		product.ID,
		product.Owner.Column(),
		product.Code,
		product.Name,
		product.Family,
		product.IdealCycleTimeHours,
		product.OpportunitiesPerUnit,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Get retrieves a product by id. Unscoped: callers authorize against the
// returned owner.
func (r *productRepository) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	query := `
		SELECT id, tenant_id, code, name, family, ideal_cycle_time_hours, opportunities_per_unit, created_at, updated_at
		FROM products
		WHERE id = $1`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// List returns the products visible to the caller, shared catalog included.
func (r *productRepository) List(ctx context.Context, pred *tenancy.Predicate) ([]*models.Product, error) {
	clause, args := pred.CatalogClause("tenant_id", 1)
	query := fmt.Sprintf(`
		SELECT id, tenant_id, code, name, family, ideal_cycle_time_hours, opportunities_per_unit, created_at, updated_at
		FROM products
		WHERE %s
		ORDER BY code`, clause)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// scanProduct reads a product row, mapping the nullable tenant_id column
// into the owner variant.
func scanProduct(row pgx.Row) (*models.Product, error) {
	var (
		p        models.Product
		tenantID *uuid.UUID
	)
	err := row.Scan(
		&p.ID,
		&tenantID,
		&p.Code,
		&p.Name,
		&p.Family,
		&p.IdealCycleTimeHours,
		&p.OpportunitiesPerUnit,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Owner = models.OwnerFromColumn(tenantID)
	return &p, nil
}

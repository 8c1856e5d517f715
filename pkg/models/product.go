package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductOwner identifies who owns a product definition. A product is either
// part of the shared catalog (visible to every tenant) or owned by exactly
// one tenant. Modeling this as a tagged variant gives the access filter an
// explicit case to handle instead of null-checks scattered through queries.
type ProductOwner struct {
	tenantID uuid.UUID
	shared   bool
}

// SharedCatalog returns the owner value for a shared-catalog product.
func SharedCatalog() ProductOwner {
	return ProductOwner{shared: true}
}

// OwnedBy returns the owner value for a tenant-owned product.
func OwnedBy(tenantID uuid.UUID) ProductOwner {
	return ProductOwner{tenantID: tenantID}
}

// IsShared reports whether the product belongs to the shared catalog.
func (o ProductOwner) IsShared() bool { return o.shared }

// TenantID returns the owning tenant and true, or uuid.Nil and false for
// shared-catalog products.
func (o ProductOwner) TenantID() (uuid.UUID, bool) {
	if o.shared {
		return uuid.Nil, false
	}
	return o.tenantID, true
}

// OwnerFromColumn builds a ProductOwner from a nullable tenant_id column.
func OwnerFromColumn(tenantID *uuid.UUID) ProductOwner {
	if tenantID == nil {
		return SharedCatalog()
	}
	return OwnedBy(*tenantID)
}

// Column returns the nullable tenant_id column value for persistence.
func (o ProductOwner) Column() *uuid.UUID {
	if o.shared {
		return nil
	}
	id := o.tenantID
	return &id
}

// Product is a read-only input to KPI calculation and inference.
// IdealCycleTimeHours is the declared per-unit cycle time; when nil the
// inference chain estimates it.
type Product struct {
	ID                  uuid.UUID        `json:"id"`
	Owner               ProductOwner     `json:"-"`
	Code                string           `json:"code"`
	Name                string           `json:"name"`
	Family              string           `json:"family"`
	IdealCycleTimeHours *decimal.Decimal `json:"ideal_cycle_time_hours,omitempty"`
	// OpportunitiesPerUnit is the defect-opportunity count used by DPMO.
	// Zero means undeclared; DPMO then treats it as 1.
	OpportunitiesPerUnit int       `json:"opportunities_per_unit"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Package models contains domain types for the KPI operations engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated client or business unit. Every operational
// record carries a tenant id; rows from one tenant must never be visible to
// another. Tenants are provisioned administratively and are deactivated
// rather than deleted.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

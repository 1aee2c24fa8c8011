// AngelaMos | 2026
// entity.go

package tenant

import (
	"time"
)

// Tenant is one school instance, the unit of isolation and billing.
// IDs are opaque and never recycled.
type Tenant struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Board     string    `db:"board"`
	Contact   string    `db:"contact"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Class is one entry in a tenant's class catalog. The catalog is seeded
// at onboarding and edited by school staff afterwards.
type Class struct {
	ID       string `db:"id"`
	TenantID string `db:"tenant_id"`
	Name     string `db:"name"`
}

// DefaultClassNames is the catalog every new school starts with.
var DefaultClassNames = []string{
	"Nursery", "LKG", "UKG",
	"1", "2", "3", "4", "5", "6",
	"7", "8", "9", "10", "11", "12",
}

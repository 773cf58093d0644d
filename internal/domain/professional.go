package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleTenantAdmin = "tenant_admin"
	RoleAnalyst     = "analyst"
)

type Professional struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	FullName  string    `json:"full_name" db:"full_name"`
	Role      string    `json:"role" db:"role"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ConnectionStatusActive  = "active"
	ConnectionStatusRevoked = "revoked"
	ConnectionStatusError   = "error"
)

// Connection links a property to an external cloud directory tenant.
// A connection only becomes active after its tenant credentials have been
// validated by a successful token exchange.
type Connection struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	PropertyID    uuid.UUID  `json:"property_id" db:"property_id"`
	Provider      string     `json:"provider" db:"provider"`
	TenantID      string     `json:"tenant_id" db:"tenant_id"`
	TenantName    string     `json:"tenant_name" db:"tenant_name"`
	ClientID      string     `json:"client_id" db:"client_id"`
	SecretRef     string     `json:"-" db:"secret_ref"`
	Status        string     `json:"status" db:"status"`
	LastScannedAt *time.Time `json:"last_scanned_at" db:"last_scanned_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

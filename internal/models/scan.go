package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanCounts summarizes one scan's app set.
type ScanCounts struct {
	Total      int `json:"total"`
	High       int `json:"high"`
	Medium     int `json:"medium"`
	Low        int `json:"low"`
	FirstParty int `json:"first_party"`
	ThirdParty int `json:"third_party"`
}

// Scan is one append-only audit-trail record of a scan attempt. Rows
// expire after a bounded retention window enforced by a cleanup job.
type Scan struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	ConnectionID uuid.UUID  `json:"connection_id" db:"connection_id"`
	ScannedAt    time.Time  `json:"scanned_at" db:"scanned_at"`
	Counts       ScanCounts `json:"counts" db:"counts"`
	Error        string     `json:"error,omitempty" db:"error"`
	ExpiresAt    time.Time  `json:"expires_at" db:"expires_at"`
}

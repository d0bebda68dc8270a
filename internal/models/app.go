package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel classifies how much damage an app could do with the
// permissions it holds.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

var riskRanks = map[RiskLevel]int{
	RiskHigh:   0,
	RiskMedium: 1,
	RiskLow:    2,
}

// Rank orders risk levels for sorting, highest risk first.
func (r RiskLevel) Rank() int {
	if rank, ok := riskRanks[r]; ok {
		return rank
	}
	return len(riskRanks)
}

// Valid reports whether r is one of the three known levels.
func (r RiskLevel) Valid() bool {
	_, ok := riskRanks[r]
	return ok
}

type ConsentType string

const (
	ConsentNone  ConsentType = "none"
	ConsentUser  ConsentType = "user_consent"
	ConsentAdmin ConsentType = "admin_consent"
)

type FactorSeverity string

const (
	SeverityHigh   FactorSeverity = "high"
	SeverityMedium FactorSeverity = "medium"
	SeverityInfo   FactorSeverity = "info"
)

// RiskFactor is one human-readable reason contributing to an app's risk
// assessment. Factors are ordered by evaluation order and the ordering is
// part of the API contract.
type RiskFactor struct {
	Type        string         `json:"type"`
	Severity    FactorSeverity `json:"severity"`
	Description string         `json:"description"`
}

// App is an OAuth application (service principal) discovered in a
// connection's directory. The app set for a connection is replaced
// wholesale on every scan; AppID is the provider's stable object id.
type App struct {
	ConnectionID         uuid.UUID    `json:"connection_id" db:"connection_id"`
	AppID                string       `json:"app_id" db:"app_id"`
	ClientID             string       `json:"client_id" db:"client_id"`
	DisplayName          string       `json:"display_name" db:"display_name"`
	Publisher            string       `json:"publisher" db:"publisher"`
	Homepage             string       `json:"homepage" db:"homepage"`
	IsFirstParty         bool         `json:"is_first_party" db:"is_first_party"`
	Enabled              bool         `json:"enabled" db:"enabled"`
	AppCreatedAt         *time.Time   `json:"app_created_at" db:"app_created_at"`
	DelegatedPermissions []string     `json:"delegated_permissions" db:"delegated_permissions"`
	ConsentType          ConsentType  `json:"consent_type" db:"consent_type"`
	UserCount            int          `json:"user_count" db:"user_count"`
	RiskLevel            RiskLevel    `json:"risk_level" db:"risk_level"`
	RiskFactors          []RiskFactor `json:"risk_factors" db:"risk_factors"`
	DiscoveredAt         time.Time    `json:"discovered_at" db:"discovered_at"`
}

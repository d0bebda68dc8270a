package msgraph

import (
	"appaudit/internal/models"
)

// highRiskScopes grant tenant-wide write or impersonation capability.
var highRiskScopes = map[string]bool{
	"Mail.ReadWrite":                    true,
	"Mail.ReadWrite.All":                true,
	"Mail.Send":                         true,
	"Files.ReadWrite.All":               true,
	"Directory.ReadWrite.All":           true,
	"User.ReadWrite.All":                true,
	"Application.ReadWrite.All":         true,
	"RoleManagement.ReadWrite.Directory": true,
	"Sites.ReadWrite.All":               true,
	"Group.ReadWrite.All":               true,
}

// mediumRiskScopes grant broad read access or write access limited to the
// consenting user's own data.
var mediumRiskScopes = map[string]bool{
	"Mail.Read":          true,
	"Mail.Read.All":      true,
	"Files.Read.All":     true,
	"Calendars.ReadWrite": true,
	"Contacts.ReadWrite": true,
	"Directory.Read.All": true,
	"User.Read.All":      true,
	"Sites.Read.All":     true,
	"Group.Read.All":     true,
}

// AppMetadata is the non-scope input to risk classification.
type AppMetadata struct {
	IsFirstParty bool
	Publisher    string
	Enabled      bool
}

// Classify maps a set of granted permission scopes plus app metadata to a
// risk level and an ordered list of risk factors. It is a pure function:
// identical input always produces an identical factor list, which test
// suites and API consumers rely on.
//
// Level precedence: any high-tier scope wins, then any medium-tier scope,
// else low. Factors accumulate independently of the level in a fixed
// evaluation order.
func Classify(scopes []string, meta AppMetadata) (models.RiskLevel, []models.RiskFactor) {
	scopeSet := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		scopeSet[s] = true
	}

	level := models.RiskLow
	switch {
	case meta.IsFirstParty && len(scopeSet) == 0:
		level = models.RiskLow
	case anyIn(scopeSet, highRiskScopes):
		level = models.RiskHigh
	case anyIn(scopeSet, mediumRiskScopes):
		level = models.RiskMedium
	}

	var factors []models.RiskFactor

	if scopeSet["Mail.Send"] {
		factors = append(factors, models.RiskFactor{
			Type:        "mail_send",
			Severity:    models.SeverityHigh,
			Description: "can send email as users",
		})
	}
	if scopeSet["Mail.ReadWrite"] || scopeSet["Mail.ReadWrite.All"] {
		factors = append(factors, models.RiskFactor{
			Type:        "mail_readwrite",
			Severity:    models.SeverityHigh,
			Description: "can read and modify email",
		})
	}
	if scopeSet["Files.ReadWrite.All"] {
		factors = append(factors, models.RiskFactor{
			Type:        "files_all",
			Severity:    models.SeverityHigh,
			Description: "can access all files",
		})
	}
	if scopeSet["Directory.ReadWrite.All"] {
		factors = append(factors, models.RiskFactor{
			Type:        "directory_write",
			Severity:    models.SeverityHigh,
			Description: "can modify directory objects",
		})
	}
	if meta.Publisher == "" && !meta.IsFirstParty {
		factors = append(factors, models.RiskFactor{
			Type:        "unknown_publisher",
			Severity:    models.SeverityMedium,
			Description: "publisher is not verified",
		})
	}
	if !meta.Enabled {
		factors = append(factors, models.RiskFactor{
			Type:        "app_disabled",
			Severity:    models.SeverityInfo,
			Description: "app is disabled",
		})
	}

	return level, factors
}

func anyIn(scopes map[string]bool, tier map[string]bool) bool {
	for s := range scopes {
		if tier[s] {
			return true
		}
	}
	return false
}

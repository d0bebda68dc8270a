package msgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"appaudit/internal/models"
)

func enabledThirdParty() AppMetadata {
	return AppMetadata{IsFirstParty: false, Publisher: "Contoso Ltd", Enabled: true}
}

func TestClassify_HighDominatesMedium(t *testing.T) {
	level, _ := Classify([]string{"User.Read.All", "Mail.Send", "Directory.Read.All"}, enabledThirdParty())
	assert.Equal(t, models.RiskHigh, level)
}

func TestClassify_HighScopes(t *testing.T) {
	for scope := range highRiskScopes {
		level, _ := Classify([]string{scope}, enabledThirdParty())
		assert.Equal(t, models.RiskHigh, level, "scope %s", scope)
	}
}

func TestClassify_MediumWithoutHigh(t *testing.T) {
	for scope := range mediumRiskScopes {
		level, _ := Classify([]string{scope}, enabledThirdParty())
		assert.Equal(t, models.RiskMedium, level, "scope %s", scope)
	}
}

func TestClassify_UnknownScopesAreLow(t *testing.T) {
	level, _ := Classify([]string{"openid", "profile", "offline_access"}, enabledThirdParty())
	assert.Equal(t, models.RiskLow, level)
}

func TestClassify_EmptyScopeSetIsLow(t *testing.T) {
	level, factors := Classify(nil, AppMetadata{IsFirstParty: true, Publisher: "Microsoft", Enabled: true})
	assert.Equal(t, models.RiskLow, level)
	assert.Empty(t, factors)

	level, _ = Classify(nil, enabledThirdParty())
	assert.Equal(t, models.RiskLow, level)
}

func TestClassify_FactorOrderIsStable(t *testing.T) {
	scopes := []string{"Directory.ReadWrite.All", "Files.ReadWrite.All", "Mail.ReadWrite", "Mail.Send"}
	meta := AppMetadata{IsFirstParty: false, Publisher: "", Enabled: false}

	_, first := Classify(scopes, meta)
	types := make([]string, len(first))
	for i, f := range first {
		types[i] = f.Type
	}
	assert.Equal(t, []string{
		"mail_send",
		"mail_readwrite",
		"files_all",
		"directory_write",
		"unknown_publisher",
		"app_disabled",
	}, types)

	// Pure function: repeated calls with identical input yield an
	// identical ordered factor list.
	for i := 0; i < 10; i++ {
		_, again := Classify(scopes, meta)
		assert.Equal(t, first, again)
	}
}

func TestClassify_MailSendFactor(t *testing.T) {
	level, factors := Classify([]string{"Mail.Send"}, enabledThirdParty())
	assert.Equal(t, models.RiskHigh, level)
	assert.Len(t, factors, 1)
	assert.Equal(t, "mail_send", factors[0].Type)
	assert.Equal(t, models.SeverityHigh, factors[0].Severity)
	assert.Equal(t, "can send email as users", factors[0].Description)
}

func TestClassify_UnknownPublisherOnlyForThirdParty(t *testing.T) {
	_, factors := Classify([]string{"User.Read.All"}, AppMetadata{IsFirstParty: false, Publisher: "", Enabled: true})
	assert.Len(t, factors, 1)
	assert.Equal(t, "unknown_publisher", factors[0].Type)
	assert.Equal(t, models.SeverityMedium, factors[0].Severity)

	_, factors = Classify([]string{"User.Read.All"}, AppMetadata{IsFirstParty: true, Publisher: "", Enabled: true})
	assert.Empty(t, factors)
}

func TestClassify_DisabledAppFactor(t *testing.T) {
	_, factors := Classify(nil, AppMetadata{IsFirstParty: false, Publisher: "Contoso Ltd", Enabled: false})
	assert.Len(t, factors, 1)
	assert.Equal(t, "app_disabled", factors[0].Type)
	assert.Equal(t, models.SeverityInfo, factors[0].Severity)
}

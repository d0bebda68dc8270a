package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"appaudit/internal/models"
)

const (
	servicePrincipalsEndpoint = "servicePrincipals?$select=id,appId,displayName,publisherName,homepage,servicePrincipalType,accountEnabled,createdDateTime,appOwnerOrganizationId&$top=100"
	permissionGrantsEndpoint  = "oauth2PermissionGrants?$top=100"

	consentAllPrincipals = "AllPrincipals"
)

// microsoftOrgIDs are the owning-organization ids of first-party platform
// apps. The provider exposes no dedicated first-party flag; ownership by
// one of these directories is the reliable signal.
var microsoftOrgIDs = map[string]bool{
	"f8cdef31-a31e-4b4a-93e4-5f571e91255a": true,
	"72f988bf-86f1-41af-91ab-2d7cd011db47": true,
}

type servicePrincipal struct {
	ID                     string `json:"id"`
	AppID                  string `json:"appId"`
	DisplayName            string `json:"displayName"`
	PublisherName          string `json:"publisherName"`
	Homepage               string `json:"homepage"`
	ServicePrincipalType   string `json:"servicePrincipalType"`
	AccountEnabled         *bool  `json:"accountEnabled"`
	CreatedDateTime        string `json:"createdDateTime"`
	AppOwnerOrganizationID string `json:"appOwnerOrganizationId"`
}

type permissionGrant struct {
	ClientID    string `json:"clientId"`
	ConsentType string `json:"consentType"`
	PrincipalID string `json:"principalId"`
	Scope       string `json:"scope"`
}

// ScanResult is the transient in-memory outcome of one full-tenant scan.
// Nothing is persisted until the whole result is assembled.
type ScanResult struct {
	Apps      []models.App
	Summary   models.ScanCounts
	ScannedAt time.Time
}

// Scanner discovers every OAuth application registered in a connection's
// directory, joins registrations with delegated permission grants, and
// classifies each app's risk.
type Scanner struct {
	tokens *TokenManager
	graph  *Client
	now    func() time.Time
}

func NewScanner(tokens *TokenManager, graph *Client) *Scanner {
	return &Scanner{tokens: tokens, graph: graph, now: time.Now}
}

// Scan runs a full audit of the connection's tenant. All enumeration must
// complete before any result is returned; a failure in token acquisition
// or either traversal aborts the whole scan.
func (s *Scanner) Scan(ctx context.Context, conn *models.Connection) (*ScanResult, error) {
	tok, err := s.tokens.GetToken(ctx, conn.TenantID, conn.ClientID, conn.SecretRef)
	if err != nil {
		return nil, fmt.Errorf("token acquisition: %w", err)
	}

	var principals []servicePrincipal
	var grants []permissionGrant

	// The two traversals are independent sequences and run concurrently;
	// pages within each one are fetched strictly in order because every
	// continuation link comes from the prior response.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.graph.ListAll(gctx, tok.AccessToken, servicePrincipalsEndpoint)
		if err != nil {
			return fmt.Errorf("enumerating service principals: %w", err)
		}
		principals = decodePrincipals(items)
		return nil
	})
	g.Go(func() error {
		items, err := s.graph.ListAll(gctx, tok.AccessToken, permissionGrantsEndpoint)
		if err != nil {
			return fmt.Errorf("enumerating permission grants: %w", err)
		}
		grants = decodeGrants(items)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	apps := buildApps(conn, principals, grants, s.now())

	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].RiskLevel.Rank() != apps[j].RiskLevel.Rank() {
			return apps[i].RiskLevel.Rank() < apps[j].RiskLevel.Rank()
		}
		return apps[i].DisplayName < apps[j].DisplayName
	})

	return &ScanResult{
		Apps:      apps,
		Summary:   summarize(apps),
		ScannedAt: s.now(),
	}, nil
}

func decodePrincipals(items []json.RawMessage) []servicePrincipal {
	principals := make([]servicePrincipal, 0, len(items))
	for _, raw := range items {
		var sp servicePrincipal
		if err := json.Unmarshal(raw, &sp); err != nil || sp.ID == "" {
			// Malformed records are skipped rather than crashing the scan.
			log.Printf("WARN: skipping malformed service principal record: %v", err)
			continue
		}
		principals = append(principals, sp)
	}
	return principals
}

func decodeGrants(items []json.RawMessage) []permissionGrant {
	grants := make([]permissionGrant, 0, len(items))
	for _, raw := range items {
		var gr permissionGrant
		if err := json.Unmarshal(raw, &gr); err != nil || gr.ClientID == "" {
			log.Printf("WARN: skipping malformed permission grant record: %v", err)
			continue
		}
		grants = append(grants, gr)
	}
	return grants
}

func buildApps(conn *models.Connection, principals []servicePrincipal, grants []permissionGrant, now time.Time) []models.App {
	grantsByClient := make(map[string][]permissionGrant)
	for _, gr := range grants {
		grantsByClient[gr.ClientID] = append(grantsByClient[gr.ClientID], gr)
	}

	apps := make([]models.App, 0, len(principals))
	for _, sp := range principals {
		if !strings.EqualFold(sp.ServicePrincipalType, "Application") {
			continue
		}

		spGrants := grantsByClient[sp.ID]
		firstParty := microsoftOrgIDs[sp.AppOwnerOrganizationID]

		// First-party platform apps without a single grant carry no
		// incremental risk and are excluded from the audit set. Anything
		// actually granted scopes is always included.
		if firstParty && len(spGrants) == 0 {
			continue
		}

		scopes := scopeUnion(spGrants)
		enabled := sp.AccountEnabled == nil || *sp.AccountEnabled

		level, factors := Classify(scopes, AppMetadata{
			IsFirstParty: firstParty,
			Publisher:    sp.PublisherName,
			Enabled:      enabled,
		})

		apps = append(apps, models.App{
			ConnectionID:         conn.ID,
			AppID:                sp.ID,
			ClientID:             sp.AppID,
			DisplayName:          sp.DisplayName,
			Publisher:            sp.PublisherName,
			Homepage:             sp.Homepage,
			IsFirstParty:         firstParty,
			Enabled:              enabled,
			AppCreatedAt:         parseProviderTime(sp.CreatedDateTime),
			DelegatedPermissions: scopes,
			ConsentType:          consentTypeOf(spGrants),
			UserCount:            distinctPrincipals(spGrants),
			RiskLevel:            level,
			RiskFactors:          factors,
			DiscoveredAt:         now,
		})
	}
	return apps
}

// scopeUnion tokenizes each grant's space-delimited scope field and
// returns the deduplicated, sorted union.
func scopeUnion(grants []permissionGrant) []string {
	set := make(map[string]bool)
	for _, gr := range grants {
		for _, s := range strings.Fields(gr.Scope) {
			set[s] = true
		}
	}
	scopes := make([]string, 0, len(set))
	for s := range set {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

func consentTypeOf(grants []permissionGrant) models.ConsentType {
	if len(grants) == 0 {
		return models.ConsentNone
	}
	for _, gr := range grants {
		if gr.ConsentType == consentAllPrincipals {
			return models.ConsentAdmin
		}
	}
	return models.ConsentUser
}

func distinctPrincipals(grants []permissionGrant) int {
	seen := make(map[string]bool)
	for _, gr := range grants {
		if gr.PrincipalID != "" {
			seen[gr.PrincipalID] = true
		}
	}
	return len(seen)
}

func summarize(apps []models.App) models.ScanCounts {
	counts := models.ScanCounts{Total: len(apps)}
	for _, app := range apps {
		switch app.RiskLevel {
		case models.RiskHigh:
			counts.High++
		case models.RiskMedium:
			counts.Medium++
		default:
			counts.Low++
		}
		if app.IsFirstParty {
			counts.FirstParty++
		} else {
			counts.ThirdParty++
		}
	}
	return counts
}

func parseProviderTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}

package msgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTokenURL is the identity provider's token endpoint; the %s is
	// the external directory tenant id.
	DefaultTokenURL = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

	// DefaultScope requests the provider's default application scope for
	// app-only access.
	DefaultScope = "https://graph.microsoft.com/.default"

	// tokenExpiryBuffer is how long before expiry a cached token stops
	// being served, so in-flight requests never carry a token that expires
	// mid-call.
	tokenExpiryBuffer = 60 * time.Second
)

// Token is an app-only access token for one directory tenant.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenManager exchanges tenant credentials for app-only access tokens and
// caches them per tenant. Concurrent requests for the same tenant share a
// single exchange. The clock is injectable so expiry behavior is testable.
type TokenManager struct {
	resolver   SecretResolver
	httpClient *http.Client
	tokenURL   string
	scope      string
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]Token
	group singleflight.Group
}

// TokenManagerOption customizes a TokenManager.
type TokenManagerOption func(*TokenManager)

func WithTokenURL(urlTemplate string) TokenManagerOption {
	return func(m *TokenManager) { m.tokenURL = urlTemplate }
}

func WithScope(scope string) TokenManagerOption {
	return func(m *TokenManager) { m.scope = scope }
}

func WithHTTPClient(client *http.Client) TokenManagerOption {
	return func(m *TokenManager) { m.httpClient = client }
}

func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) { m.now = now }
}

func NewTokenManager(resolver SecretResolver, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		resolver:   resolver,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokenURL:   DefaultTokenURL,
		scope:      DefaultScope,
		now:        time.Now,
		cache:      make(map[string]Token),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetToken returns a valid access token for the tenant, reusing the cached
// one while it has more than the expiry buffer left. Failed exchanges are
// never cached; the caller decides retry policy.
func (m *TokenManager) GetToken(ctx context.Context, tenantID, clientID, secretRef string) (Token, error) {
	if tok, ok := m.cached(tenantID); ok {
		return tok, nil
	}

	v, err, _ := m.group.Do(tenantID, func() (interface{}, error) {
		// A racing request may have refreshed the token while this one
		// waited on the flight group.
		if tok, ok := m.cached(tenantID); ok {
			return tok, nil
		}

		secret, err := m.resolver.Resolve(ctx, secretRef)
		if err != nil {
			return Token{}, err
		}

		tok, err := m.exchange(ctx, tenantID, clientID, secret)
		if err != nil {
			return Token{}, err
		}

		m.mu.Lock()
		m.cache[tenantID] = tok
		m.mu.Unlock()
		return tok, nil
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// Invalidate drops the cached token for a tenant, forcing the next call to
// exchange again.
func (m *TokenManager) Invalidate(tenantID string) {
	m.mu.Lock()
	delete(m.cache, tenantID)
	m.mu.Unlock()
}

func (m *TokenManager) cached(tenantID string) (Token, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.cache[tenantID]
	if !ok {
		return Token{}, false
	}
	if tok.ExpiresAt.Sub(m.now()) <= tokenExpiryBuffer {
		return Token{}, false
	}
	return tok, true
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (m *TokenManager) exchange(ctx context.Context, tenantID, clientID, secret string) (Token, error) {
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {secret},
		"scope":         {m.scope},
		"grant_type":    {"client_credentials"},
	}

	endpoint := fmt.Sprintf(m.tokenURL, url.PathEscape(tenantID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Token{}, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "request rejected"
		var te tokenErrorResponse
		if json.Unmarshal(body, &te) == nil && te.Error != "" {
			msg = te.Error
			if te.ErrorDescription != "" {
				msg = te.Error + ": " + te.ErrorDescription
			}
		}
		return Token{}, &TokenExchangeError{StatusCode: resp.StatusCode, ProviderMessage: msg}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, &TokenExchangeError{StatusCode: resp.StatusCode, ProviderMessage: "response carried no access token"}
	}

	return Token{
		AccessToken: tr.AccessToken,
		ExpiresAt:   m.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

package msgraph

import (
	"errors"
	"fmt"
	"time"
)

// ErrSecretUnavailable marks a secret reference that could not be resolved.
// It is always fatal to the calling operation; a missing secret will not
// resolve itself within a single scan window, so callers must not retry.
var ErrSecretUnavailable = errors.New("secret unavailable")

// ErrMalformedProviderData marks a provider record that could not be
// decoded. Scans treat such records defensively instead of aborting.
var ErrMalformedProviderData = errors.New("malformed provider data")

// TokenExchangeError is returned when the identity provider rejects a
// client-credentials exchange. The message never contains token or secret
// material.
type TokenExchangeError struct {
	StatusCode      int
	ProviderMessage string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed with status %d: %s", e.StatusCode, e.ProviderMessage)
}

// GraphAPIError is a non-2xx response from the directory Graph API.
// RetryAfter carries the server-requested throttle delay when a 429
// response included a parseable Retry-After header, zero otherwise.
type GraphAPIError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *GraphAPIError) Error() string {
	return fmt.Sprintf("graph api error %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the failure is transient. Throttling and
// server-side errors are retried with backoff; auth and permission errors
// never are.
func (e *GraphAPIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

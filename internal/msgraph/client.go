package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the read-only directory Graph API surface.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// Client is a minimal authenticated HTTP client for the directory Graph
// API with cursor-based pagination. Throttling (429) and server errors are
// retried with bounded exponential backoff; other failures surface as
// GraphAPIError.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	backoffBase time.Duration
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

func WithClientHTTP(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

func WithBackoffBase(d time.Duration) ClientOption {
	return func(c *Client) { c.backoffBase = d }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		// Timeout applies per HTTP call, not per scan, so one slow page
		// cannot hang the process.
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     DefaultBaseURL,
		maxRetries:  3,
		backoffBase: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request performs one authenticated call and returns the raw JSON body.
// endpoint may be a path relative to the base URL or an absolute URL
// (continuation links arrive absolute and are used exactly as given).
func (c *Client) Request(ctx context.Context, accessToken, method, endpoint string, body interface{}) (json.RawMessage, error) {
	target := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.backoff(attempt, lastErr)); err != nil {
				return nil, err
			}
		}

		data, err := c.do(ctx, accessToken, method, target, payload)
		if err == nil {
			return data, nil
		}

		var apiErr *GraphAPIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, accessToken, method, target string, payload []byte) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &GraphAPIError{StatusCode: resp.StatusCode, Body: truncate(string(data), 512)}
		if resp.StatusCode == 429 {
			if secs, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && secs > 0 {
				apiErr.RetryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, apiErr
	}
	return data, nil
}

// backoff returns the delay before retry attempt n. A throttled response
// that asked for a longer Retry-After than the exponential schedule wins.
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	d := c.backoffBase * time.Duration(1<<(attempt-1))
	var apiErr *GraphAPIError
	if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > d {
		return apiErr.RetryAfter
	}
	return d
}

type listPage struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

// PageIterator walks a paginated collection. Each page fetch depends on
// the provider-supplied continuation link from the previous response, so
// the sequence is finite and not restartable.
type PageIterator struct {
	client      *Client
	accessToken string
	next        string
	done        bool
}

// Paginate starts a lazy traversal at firstEndpoint.
func (c *Client) Paginate(accessToken, firstEndpoint string) *PageIterator {
	return &PageIterator{client: c, accessToken: accessToken, next: firstEndpoint}
}

// Next fetches the next page of items. ok is false once the traversal is
// exhausted; a page with no items but a continuation link still reports
// ok=true so callers keep following the sequence.
func (it *PageIterator) Next(ctx context.Context) (items []json.RawMessage, ok bool, err error) {
	if it.done {
		return nil, false, nil
	}

	data, err := it.client.Request(ctx, it.accessToken, http.MethodGet, it.next, nil)
	if err != nil {
		it.done = true
		return nil, false, err
	}

	var page listPage
	if err := json.Unmarshal(data, &page); err != nil {
		it.done = true
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedProviderData, err)
	}

	if page.NextLink == "" {
		it.done = true
	} else {
		it.next = page.NextLink
	}
	return page.Value, true, nil
}

// ListAll exhausts a paginated collection and concatenates every page.
// Acceptable for directory sizes in the low thousands; larger datasets
// should consume the iterator page by page.
func (c *Client) ListAll(ctx context.Context, accessToken, firstEndpoint string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	it := c.Paginate(accessToken, firstEndpoint)
	for {
		items, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return all, nil
		}
		all = append(all, items...)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

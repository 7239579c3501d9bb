package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/j-veylop/claude-watch/internal/logger"
	"github.com/j-veylop/claude-watch/internal/models"
	"github.com/j-veylop/claude-watch/internal/retry"
	"github.com/j-veylop/claude-watch/internal/version"
)

const (
	defaultUsageURL = "https://api.anthropic.com/api/oauth/usage"
	betaHeader      = "oauth-2025-04-20"
	defaultTimeout  = 10 * time.Second
)

// TokenProvider supplies the OAuth access token. Credential acquisition is
// external to this package.
type TokenProvider interface {
	Token() (string, error)
}

// Client fetches usage snapshots with retry on transient failures.
type Client struct {
	httpClient *http.Client
	tokens     TokenProvider
	baseURL    string
	retryOpts  retry.Options
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the usage endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryOptions overrides the retry policy.
func WithRetryOptions(opts retry.Options) Option {
	return func(c *Client) { c.retryOpts = opts }
}

// NewClient creates a usage API client.
func NewClient(tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		baseURL:    defaultUsageURL,
		retryOpts: retry.Options{
			OnRetry: func(attempt int, err error, delay time.Duration) {
				logger.Warn("retrying usage fetch", "attempt", attempt, "delay", delay, "error", err)
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchUsage fetches the current usage snapshot. Transient failures are
// retried with backoff; auth failures surface immediately as *AuthError.
func (c *Client) FetchUsage(ctx context.Context) (*models.UsageSnapshot, error) {
	token, err := c.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}
	return retry.Do(ctx, func(ctx context.Context) (*models.UsageSnapshot, error) {
		return c.fetchOnce(ctx, token)
	}, c.retryOpts)
}

func (c *Client) fetchOnce(ctx context.Context, token string) (*models.UsageSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("anthropic-beta", betaHeader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usage request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read usage response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Code: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, &HTTPError{Code: resp.StatusCode, Body: truncate(string(body), 200)}
	}

	var snapshot models.UsageSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse usage response: %w", err)
	}
	return &snapshot, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Package resolver implements ports.Resolver against the configured
// HTTP resolver endpoint, with retry on transient upstream failures.
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mediadrop/internal/core/domain"
	"mediadrop/internal/core/ports"
)

const maxAttempts = 3

// maxResponseBytes bounds how much of the resolver response is read.
const maxResponseBytes = 4 << 20

// Client calls the resolver service. The request binding (GET with a
// query parameter or POST with a JSON body) is fixed per deployment.
type Client struct {
	endpoint   string
	method     string
	client     *http.Client
	timeout    time.Duration
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewClient creates a resolver client. httpClient is shared with other
// adapters and must not carry its own global timeout; the per-attempt
// bound is enforced here.
func NewClient(httpClient *http.Client, endpoint, method string, timeout time.Duration, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		method:     method,
		client:     httpClient,
		timeout:    timeout,
		retryDelay: 2 * time.Second,
		logger:     logger,
	}
}

// Resolve performs up to maxAttempts upstream calls. Only transient
// failures (502/503/504, timeouts, transient I/O errors) are retried;
// a terminal failure aborts immediately. The inter-attempt delay is
// fixed and is never observed after a terminal failure or the final
// attempt.
func (c *Client) Resolve(ctx context.Context, sourceURL string, onRetry ports.RetryNotifier) (*ports.ResolveResult, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, transient, err := c.attempt(ctx, sourceURL)
		if err == nil {
			return &ports.ResolveResult{Raw: raw}, nil
		}
		if !transient {
			return nil, err
		}
		lastErr = err
		c.logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Err(err).
			Msg("transient resolver failure")
		if attempt == maxAttempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt + 1)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", domain.ErrResolverExhausted, maxAttempts, lastErr)
}

// attempt runs one upstream call. The bool reports whether the failure
// is transient and worth retrying.
func (c *Client) attempt(ctx context.Context, sourceURL string) ([]byte, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(attemptCtx, sourceURL)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, isTransientNetError(err), fmt.Errorf("resolver call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, isTransientNetError(err), fmt.Errorf("resolver body read failed: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if !json.Valid(raw) {
			return nil, false, fmt.Errorf("%w: malformed response body", domain.ErrResolverRejected)
		}
		return raw, false, nil
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("upstream status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: upstream status %d", domain.ErrResolverRejected, resp.StatusCode)
	}
}

func (c *Client) buildRequest(ctx context.Context, sourceURL string) (*http.Request, error) {
	if c.method == http.MethodPost {
		body, _ := json.Marshal(map[string]string{"url": sourceURL})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+sep+"url="+url.QueryEscape(sourceURL), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

func isTransientNetError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"temporary failure",
		"unexpected eof",
		"no such host",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

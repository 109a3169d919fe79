// Package fetcher implements ports.MediaFetcher using standard HTTP.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"mediadrop/internal/core/domain"
	"mediadrop/internal/core/ports"
)

// HTTPFetcher retrieves media bytes from a direct link.
type HTTPFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewHTTPFetcher creates a fetcher. timeout bounds one whole fetch.
func NewHTTPFetcher(httpClient *http.Client, timeout time.Duration) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HTTPFetcher{client: httpClient, timeout: timeout}
}

// Fetch downloads the media behind mediaURL into memory, reading at
// most maxBytes.
func (f *HTTPFetcher) Fetch(ctx context.Context, mediaURL string, maxBytes int64) (*ports.FetchedMedia, error) {
	if maxBytes <= 0 {
		maxBytes = 50 << 20
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", domain.ErrDownloadFailed, resp.StatusCode)
	}

	if resp.ContentLength > maxBytes {
		return nil, fmt.Errorf("%w: content length %d exceeds %d bytes", domain.ErrMediaTooLarge, resp.ContentLength, maxBytes)
	}

	// Read one byte past the cap so an unbounded body is detected
	// without buffering it whole.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownloadFailed, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrMediaTooLarge, maxBytes)
	}

	return &ports.FetchedMedia{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

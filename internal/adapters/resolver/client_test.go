package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediadrop/internal/core/domain"
)

func newTestClient(t *testing.T, endpoint, method string) *Client {
	t.Helper()
	c := NewClient(&http.Client{}, endpoint, method, 5*time.Second, zerolog.Nop())
	c.retryDelay = time.Millisecond
	return c
}

func TestResolveSuccessFirstAttempt(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "https://site/v/1", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"success": true, "data": {}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, http.MethodGet)
	res, err := c.Resolve(context.Background(), "https://site/v/1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success": true, "data": {}}`, string(res.Raw))
	assert.Equal(t, 1, attempts)
}

func TestResolvePostBinding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "https://site/v/1", payload["url"])
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, http.MethodPost)
	_, err := c.Resolve(context.Background(), "https://site/v/1", nil)
	require.NoError(t, err)
}

func TestResolveRetriesTransientThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	var notified []int
	c := newTestClient(t, srv.URL, http.MethodGet)
	res, err := c.Resolve(context.Background(), "https://site/v/1", func(attempt int) {
		notified = append(notified, attempt)
	})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{2, 3}, notified)
}

func TestResolveExhaustedAfterThreeAttempts(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, http.MethodGet)
	_, err := c.Resolve(context.Background(), "https://site/v/1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolverExhausted)
	assert.Equal(t, 3, attempts)
}

func TestResolveTerminalStatusAbortsImmediately(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, http.MethodGet)
	start := time.Now()
	_, err := c.Resolve(context.Background(), "https://site/v/1", func(int) {
		t.Fatal("retry notifier must not fire on terminal failures")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolverRejected)
	assert.NotErrorIs(t, err, domain.ErrResolverExhausted)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResolveInternalServerErrorIsTerminal(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, http.MethodGet)
	_, err := c.Resolve(context.Background(), "https://site/v/1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolverRejected)
	assert.Equal(t, 1, attempts)
}

func TestResolveMalformedBodyIsTerminal(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		_, _ = w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, http.MethodGet)
	_, err := c.Resolve(context.Background(), "https://site/v/1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolverRejected)
	assert.Equal(t, 1, attempts)
}

func TestResolveTimeoutIsTransient(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(&http.Client{}, srv.URL, http.MethodGet, 20*time.Millisecond, zerolog.Nop())
	c.retryDelay = time.Millisecond
	_, err := c.Resolve(context.Background(), "https://site/v/1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrResolverExhausted)
	assert.Equal(t, 3, attempts)
}

func TestResolveCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := newTestClient(t, srv.URL, http.MethodGet)
	c.retryDelay = time.Second
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Resolve(ctx, "https://site/v/1", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

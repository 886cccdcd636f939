package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rohmanhakim/status-digest/internal/fetch"
	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/pkg/retry"
	"github.com/rohmanhakim/status-digest/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchRetryParam(maxAttempts int) retry.RetryParam {
	return retry.NewRetryParam(
		time.Millisecond,
		0,
		1,
		maxAttempts,
		timeutil.NewBackoffParam(time.Millisecond, 2.0, 5*time.Millisecond),
	)
}

func fetchRunContext(t *testing.T) runctx.RunContext {
	t.Helper()
	return runctx.New(t.TempDir(), false, &metadata.NoopSink{})
}

func TestFetch_ReturnsHTMLBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	fetcher := fetch.NewHTMLFetcher(nil)
	param := fetch.NewFetchParam(server.URL, "status-digest/1.0", "dom_scrape")

	result, err := fetcher.Fetch(context.Background(), fetchRunContext(t), param, fetchRetryParam(2))

	require.Nil(t, err)
	assert.Equal(t, http.StatusOK, result.Code())
	assert.Contains(t, result.Source(), "ok")
	assert.Equal(t, server.URL, result.URL())
}

func TestFetch_RetriesTransientServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>recovered</body></html>"))
	}))
	defer server.Close()

	fetcher := fetch.NewHTMLFetcher(nil)
	param := fetch.NewFetchParam(server.URL, "status-digest/1.0", "dom_scrape")

	result, err := fetcher.Fetch(context.Background(), fetchRunContext(t), param, fetchRetryParam(3))

	require.Nil(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, result.Source(), "recovered")
}

func TestFetch_ForbiddenIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	fetcher := fetch.NewHTMLFetcher(nil)
	param := fetch.NewFetchParam(server.URL, "status-digest/1.0", "dom_scrape")

	_, err := fetcher.Fetch(context.Background(), fetchRunContext(t), param, fetchRetryParam(3))

	require.NotNil(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var fetchErr *fetch.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.False(t, fetchErr.IsRetryable())
}

func TestFetch_NonHTMLContentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	fetcher := fetch.NewHTMLFetcher(nil)
	param := fetch.NewFetchParam(server.URL, "status-digest/1.0", "dom_scrape")

	_, err := fetcher.Fetch(context.Background(), fetchRunContext(t), param, fetchRetryParam(1))

	require.NotNil(t, err)
	var fetchErr *fetch.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, fetch.FetchErrorCause(fetch.ErrCauseContentTypeInvalid), fetchErr.Cause)
}

func TestFetch_MissingContentTypeIsAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("<html><body>bare</body></html>"))
	}))
	defer server.Close()

	fetcher := fetch.NewHTMLFetcher(nil)
	param := fetch.NewFetchParam(server.URL, "status-digest/1.0", "dom_scrape")

	result, err := fetcher.Fetch(context.Background(), fetchRunContext(t), param, fetchRetryParam(1))

	require.Nil(t, err)
	assert.Contains(t, result.Source(), "bare")
}

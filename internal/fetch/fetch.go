package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/pkg/failure"
	"github.com/rohmanhakim/status-digest/pkg/retry"
)

/*
Responsibilities

- Perform HTTP requests against vendor status pages
- Apply browser-like headers and timeouts
- Classify responses

Fetch Semantics

- Only successful HTML responses are processed
- Non-HTML content is discarded
- All requests are recorded through the metadata sink

The fetcher never parses content; it only returns bytes and metadata.
*/

type PageFetcher interface {
	Fetch(
		ctx context.Context,
		rc runctx.RunContext,
		fetchParam FetchParam,
		retryParam retry.RetryParam,
	) (PageResult, failure.ClassifiedError)
}

type HTMLFetcher struct {
	client *resty.Client
}

func NewHTMLFetcher(client *resty.Client) HTMLFetcher {
	if client == nil {
		client = resty.New().SetTimeout(25 * time.Second)
	}
	return HTMLFetcher{client: client}
}

func (h HTMLFetcher) Fetch(
	ctx context.Context,
	rc runctx.RunContext,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) (PageResult, failure.ClassifiedError) {
	callerMethod := "HTMLFetcher.Fetch"
	startTime := time.Now()

	result, err := h.fetchWithRetry(ctx, fetchParam, retryParam)

	duration := time.Since(startTime)

	var statusCode int
	var contentType string
	var retryCount int
	if err != nil {
		var retryErr *retry.RetryError
		if errors.As(err, &retryErr) {
			retryCount = retryParam.MaxAttempts
		}
	} else {
		statusCode = result.Code()
		contentType = result.ContentType()
	}

	rc.Sink.RecordFetch(
		fetchParam.pageUrl,
		statusCode,
		duration,
		contentType,
		retryCount,
		fetchParam.strategy,
	)

	if err != nil {
		h.recordError(rc, callerMethod, fetchParam.pageUrl, err)
		return PageResult{}, err
	}
	return result, nil
}

func (h HTMLFetcher) recordError(rc runctx.RunContext, callerMethod string, pageUrl string, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown
	var fetchError *FetchError
	var retryError *retry.RetryError
	switch {
	case errors.As(err, &fetchError):
		cause = mapFetchErrorToMetadataCause(fetchError)
	case errors.As(err, &retryError):
		cause = metadata.CauseNetworkFailure
	}

	rc.Sink.RecordError(
		time.Now(),
		"fetch",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rc.Vendor),
			metadata.NewAttr(metadata.AttrURL, pageUrl),
		},
	)
}

func (h HTMLFetcher) fetchWithRetry(ctx context.Context, fetchParam FetchParam, retryParam retry.RetryParam) (PageResult, failure.ClassifiedError) {
	fetchTask := func() (PageResult, failure.ClassifiedError) {
		return h.performFetch(ctx, fetchParam)
	}

	result, retryErr := retry.Retry(retryParam, fetchTask)
	if retryErr != nil {
		// A FetchError surfaced by the task is returned directly; only
		// exhaustion wraps into a RetryError.
		var fetchErr *FetchError
		if errors.As(retryErr, &fetchErr) {
			return PageResult{}, fetchErr
		}
		return PageResult{}, retryErr
	}
	return result, nil
}

func (h HTMLFetcher) performFetch(ctx context.Context, fetchParam FetchParam) (PageResult, failure.ClassifiedError) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeaders(requestHeaders(fetchParam.userAgent)).
		Get(fetchParam.pageUrl)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return PageResult{}, &FetchError{
				Message:   fmt.Sprintf("request timed out: %v", err),
				Retryable: true,
				Cause:     ErrCauseTimeout,
			}
		}
		return PageResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	code := resp.StatusCode()
	switch {
	case code >= 500:
		return PageResult{}, &FetchError{
			Message:   fmt.Sprintf("server error: %d", code),
			Retryable: true,
			Cause:     ErrCauseRequest5xx,
		}
	case code == 429:
		return PageResult{}, &FetchError{
			Message:   "rate limited (429)",
			Retryable: true,
			Cause:     ErrCauseRequestTooMany,
		}
	case code == 403:
		return PageResult{}, &FetchError{
			Message:   "access forbidden (403)",
			Retryable: false,
			Cause:     ErrCauseRequestPageForbidden,
		}
	case code >= 400:
		return PageResult{}, &FetchError{
			Message:   fmt.Sprintf("client error: %d", code),
			Retryable: false,
			Cause:     ErrCauseRequestPageForbidden,
		}
	}

	contentType := resp.Header().Get("Content-Type")
	if !isHTMLContent(contentType) {
		return PageResult{}, &FetchError{
			Message:   fmt.Sprintf("non-HTML content type: %s", contentType),
			Retryable: false,
			Cause:     ErrCauseContentTypeInvalid,
		}
	}

	return PageResult{
		url:  fetchParam.pageUrl,
		body: resp.Body(),
		meta: responseMeta{
			statusCode:  code,
			contentType: contentType,
		},
	}, nil
}

func isHTMLContent(contentType string) bool {
	// Some portals omit the header entirely; give those the benefit
	// of the doubt and let the extractor decide.
	if contentType == "" {
		return true
	}
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"DNT":             "1",
		"Connection":      "keep-alive",
	}
}

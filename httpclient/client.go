// Package httpclient implements the HTTP client component (spec §4.1):
// HEAD/GET with a bounded retry budget and exponential back-off, wrapping
// github.com/hashicorp/go-retryablehttp so the retry/back-off contract
// doesn't have to be hand-rolled.
package httpclient

import (
	"context"
	"io"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	pipelineerrors "github.com/cdnmirror/mirrorctl/internal/errors"
)

// Response is the subset of an HTTP response the pipeline needs: the
// status code, advertised length, and headers (from which the md5 digest
// is later extracted by the checksum package).
type Response struct {
	StatusCode    int
	ContentLength int64
	Header        http.Header
}

// Client issues HEAD/GET requests with bounded retries and exponential
// back-off. The zero value is not usable; construct with New.
type Client struct {
	inner *retryablehttp.Client
}

// Options configures retry behaviour. RetryBudget is R in spec.md: the
// number of retries allowed after the first attempt. BackoffBase is the
// starting back-off delay (500ms per spec.md).
type Options struct {
	RetryBudget int
	BackoffBase time.Duration
}

// New constructs a Client with the given retry budget and back-off base.
// A RetryBudget of zero means "never retry beyond the first attempt".
func New(opts Options) *Client {
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}
	inner := retryablehttp.NewClient()
	inner.RetryMax = opts.RetryBudget
	inner.RetryWaitMin = opts.BackoffBase
	inner.RetryWaitMax = opts.BackoffBase << maxBackoffShift(opts.RetryBudget)
	inner.Logger = nil // the pipeline's own logging package handles diagnostics
	inner.CheckRetry = checkRetry
	return &Client{inner: inner}
}

// Head issues a HEAD request, discarding the body and returning only
// headers. 4xx responses are returned without error, as with Get, whose
// manifest-fetch caller treats 404 as "absent" rather than fatal.
func (c *Client) Head(ctx context.Context, url string) (Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Response{}, err
	}
	resp, err := c.inner.Do(req)
	if err != nil {
		return Response{}, &pipelineerrors.NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()
	return Response{StatusCode: resp.StatusCode, ContentLength: resp.ContentLength, Header: resp.Header}, nil
}

// Get issues a GET request and returns the full body in memory, along with
// response metadata. The body is buffered because the scheduler's resource
// model (spec §5) already bounds memory to P x max(blob size).
func (c *Client) Get(ctx context.Context, url string) (Response, []byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{}, nil, err
	}
	resp, err := c.inner.Do(req)
	if err != nil {
		return Response{}, nil, &pipelineerrors.NetworkError{URL: url, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, nil, &pipelineerrors.NetworkError{URL: url, Cause: err}
	}
	return Response{StatusCode: resp.StatusCode, ContentLength: resp.ContentLength, Header: resp.Header}, body, nil
}

// checkRetry treats transport errors, 429, and 5xx as retryable, and any
// other 4xx as terminal (spec §4.1: "4xx responses are treated as
// non-retryable").
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	if resp.StatusCode == 0 {
		return true, nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	if resp.StatusCode >= 500 {
		return true, nil
	}
	if resp.StatusCode >= 400 {
		return false, nil
	}
	return false, nil
}

// maxBackoffShift bounds how far RetryWaitMax can grow relative to
// RetryWaitMin for a given retry budget, so exhausting a large budget
// doesn't wait for an unreasonably long final backoff.
func maxBackoffShift(retryBudget int) uint {
	const cap = 5
	if retryBudget < 0 {
		return 0
	}
	if retryBudget > cap {
		return cap
	}
	return uint(retryBudget)
}


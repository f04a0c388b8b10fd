package httpx

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/vantorre/brace"
)

// drainLimit bounds how much of an unwanted response body is read before
// closing, enough to let the transport reuse the connection.
const drainLimit = 4 << 10

// ErrorClass tells the resilience layer how to treat an HTTP
// status code.
type ErrorClass int

const (
	// Success means the request succeeded (e.g. 2xx).
	Success ErrorClass = iota
	// Transient means the error is retriable (e.g. 429, 503).
	Transient
	// Permanent means the error is non-retriable (e.g. 400).
	Permanent
)

// Classifier maps an HTTP status code to an ErrorClass.
//
// Pattern: Strategy — caller injects classification logic
// without modifying the adapter.
type Classifier func(statusCode int) ErrorClass

// DefaultClassifier treats anything below 400 as success, request timeouts
// (408), rate limiting (429) and all 5xx codes as transient, and the
// remaining 4xx codes as permanent.
func DefaultClassifier(statusCode int) ErrorClass {
	switch {
	case statusCode < http.StatusBadRequest:
		return Success
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusTooManyRequests,
		statusCode >= http.StatusInternalServerError:
		return Transient
	default:
		return Permanent
	}
}

// StatusError is returned when the Classifier marks a status code as
// Transient or Permanent. For permanent errors the original response stays
// attached with its body open for inspection; for transient errors the body
// has been drained and closed so the connection can be reused by the retry.
type StatusError struct {
	// Response is the original HTTP response that triggered the error.
	Response   *http.Response
	StatusCode int
}

// Error returns a human-readable description of the status
// error.
func (e *StatusError) Error() string {
	return "http status " + strconv.Itoa(e.StatusCode)
}

// Client wraps an http.Client with a fault tolerance and HTTP status code
// classification.
//
// Pattern: Adapter — bridges net/http and the resilience layer by
// translating HTTP status codes into error classification.
type Client struct {
	hc *http.Client
	ft *brace.FaultTolerance[*http.Response]
	cl Classifier
}

// NewClient creates a Client that executes HTTP requests through a fault
// tolerance built from opts. The classifier determines how HTTP status
// codes map to transient or permanent errors for retry decisions.
//
// A nil hc falls back to http.DefaultClient, a nil cl to
// [DefaultClassifier].
func NewClient(
	name string,
	hc *http.Client,
	cl Classifier,
	opts ...any,
) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}

	if cl == nil {
		cl = DefaultClassifier
	}

	return &Client{
		hc: hc,
		ft: brace.NewFaultTolerance[*http.Response](name, opts...),
		cl: cl,
	}
}

// Tolerance returns the fault tolerance the client executes through, for
// wiring into health reporting or sharing its circuit breaker.
func (c *Client) Tolerance() *brace.FaultTolerance[*http.Response] {
	return c.ft
}

// Do sends the request through the fault tolerance. Each attempt clones the
// request and, when req.GetBody is set (as http.NewRequest does for common
// body types), obtains a fresh body, so retried requests resend the full
// payload.
//
// Responses classified Transient or Permanent surface as *StatusError with
// the matching classification; the retry stage repeats transients and stops
// on permanents.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.ft.Do(req.Context(), func(ctx context.Context) (*http.Response, error) {
		attempt := req.Clone(ctx)

		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, brace.Permanent(err)
			}

			attempt.Body = body
		}

		resp, err := c.hc.Do(attempt)
		if err != nil {
			return nil, err //nolint:wrapcheck // transport errors pass through for classification
		}

		switch c.cl(resp.StatusCode) {
		case Success:
			return resp, nil

		case Transient:
			drain(resp)

			return nil, brace.Transient(&StatusError{
				Response:   resp,
				StatusCode: resp.StatusCode,
			})

		default:
			return nil, brace.Permanent(&StatusError{
				Response:   resp,
				StatusCode: resp.StatusCode,
			})
		}
	})
}

// Get issues a GET request to url through the fault tolerance.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err //nolint:wrapcheck // request construction error, not a call failure
	}

	return c.Do(req)
}

// drain consumes up to drainLimit bytes of the body and closes it.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
	_ = resp.Body.Close()
}

package github

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

const (
	// MaxRetries is the throttling retry budget per request
	MaxRetries = 5

	// maxBackoff caps a single wait, including server-sent Retry-After
	maxBackoff = time.Hour

	// maxErrorBody bounds how much of a failed response body is kept
	maxErrorBody = 64 << 10
)

// rateLimitHeaders are stripped from successful responses so go-github never
// caches a quota and short-circuits later calls before they reach the backoff
var rateLimitHeaders = []string{
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"X-RateLimit-Used",
	"X-RateLimit-Reset",
	"X-RateLimit-Resource",
}

// throttledError is one 429/403 response; it drives the retry loop
type throttledError struct {
	status     int
	retryAfter string
}

func (e *throttledError) Error() string {
	return fmt.Sprintf("upstream throttled (%d)", e.status)
}

func isThrottled(err error) bool {
	var te *throttledError
	return stderrors.As(err, &te)
}

// BackoffTransport retries throttled requests (429/403) with exponential
// backoff and jitter, honoring Retry-After. Any other status >= 400 is
// turned into an UpstreamError and never retried.
type BackoffTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	Timer      retry.Timer    // backoff clock, real time when nil
	Jitter     func() float64 // factor in [0.75, 1.25)
	Logger     *slog.Logger
}

// NewBackoffTransport wraps base (http.DefaultTransport when nil)
func NewBackoffTransport(base http.RoundTripper) *BackoffTransport {
	return &BackoffTransport{
		Base:       base,
		MaxRetries: MaxRetries,
		Logger:     slog.Default().With("component", "github_transport"),
	}
}

// RoundTrip implements http.RoundTripper
func (t *BackoffTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var (
		resp    *http.Response
		attempt int
	)

	opts := []retry.Option{
		retry.Context(req.Context()),
		retry.Attempts(uint(t.maxRetries() + 1)),
		retry.RetryIf(isThrottled),
		retry.DelayType(func(_ uint, err error, _ *retry.Config) time.Duration {
			var te *throttledError
			status, retryAfter := 0, ""
			if stderrors.As(err, &te) {
				status, retryAfter = te.status, te.retryAfter
			}
			delay := BackoffDelay(retryAfter, attempt, t.jitter())
			t.logger().Debug("upstream throttled, backing off",
				"status", status,
				"attempt", attempt,
				"delay", delay,
				"path", req.URL.Path,
			)
			return delay
		}),
		retry.MaxDelay(maxBackoff),
		retry.LastErrorOnly(true),
	}
	if t.Timer != nil {
		opts = append(opts, retry.WithTimer(t.Timer))
	}

	err := retry.Do(func() error {
		attemptReq, err := t.replayable(req, attempt)
		if err != nil {
			return err
		}
		attempt++

		r, err := t.base().RoundTrip(attemptReq)
		if err != nil {
			return err
		}

		if r.StatusCode == http.StatusTooManyRequests || r.StatusCode == http.StatusForbidden {
			drain(r.Body)
			return &throttledError{status: r.StatusCode, retryAfter: r.Header.Get("Retry-After")}
		}

		if r.StatusCode >= http.StatusBadRequest {
			body, _ := io.ReadAll(io.LimitReader(r.Body, maxErrorBody))
			r.Body.Close()
			return errors.UpstreamError(r.StatusCode, strings.TrimSpace(string(body))).
				WithContext("url", req.URL.Redacted())
		}

		for _, h := range rateLimitHeaders {
			r.Header.Del(h)
		}
		resp = r
		return nil
	}, opts...)

	if err != nil {
		var te *throttledError
		if stderrors.As(err, &te) {
			return nil, errors.RateLimitedError(te.status, t.maxRetries()).
				WithContext("url", req.URL.Redacted())
		}
		return nil, err
	}
	return resp, nil
}

// BackoffDelay computes the wait before retry number attempt (1-based):
// Retry-After seconds when present and positive, else 2^attempt seconds,
// scaled by jitter.
func BackoffDelay(retryAfter string, attempt int, jitter float64) time.Duration {
	seconds := math.Pow(2, float64(attempt))
	if v, err := strconv.ParseFloat(strings.TrimSpace(retryAfter), 64); err == nil && v > 0 && !math.IsInf(v, 0) {
		seconds = v
	}
	return time.Duration(seconds * jitter * float64(time.Second))
}

// replayable returns the request to send for the given attempt. Retries get
// a fresh body from GetBody so POST envelopes can be sent again.
func (t *BackoffTransport) replayable(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 || req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("cannot replay %s %s: request body is not rewindable", req.Method, req.URL.Redacted())
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func (t *BackoffTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *BackoffTransport) maxRetries() int {
	if t.MaxRetries > 0 {
		return t.MaxRetries
	}
	return MaxRetries
}

func (t *BackoffTransport) jitter() float64 {
	if t.Jitter != nil {
		return t.Jitter()
	}
	return 0.75 + rand.Float64()*0.5
}

func (t *BackoffTransport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

func drain(body io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(body, maxErrorBody))
	body.Close()
}

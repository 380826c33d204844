package github

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// PageSize is the page size used for every listing call
const PageSize = 100

// Options configures a Client
type Options struct {
	Token     string            // optional bearer credential
	BaseURL   string            // REST API root, defaults to https://api.github.com/
	RateLimit float64           // proactive requests per second, 0 disables pacing
	Transport http.RoundTripper // underlying transport, defaults to http.DefaultTransport
	Timer     retry.Timer       // backoff clock override (tests)
	Jitter    func() float64    // backoff jitter override (tests)
	Timeout   time.Duration     // per-request timeout, 0 for none
}

// Client wraps the GitHub API client with throttling backoff and optional pacing.
// It is safe for concurrent use; the only shared state is the read-only credential.
type Client struct {
	client      *github.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a REST client authenticated with opts.Token when set
func NewClient(opts Options) (*Client, error) {
	httpClient := NewHTTPClient(opts)

	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		base, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, errors.ConfigErrorf("invalid GitHub base URL %q: %v", opts.BaseURL, err)
		}
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		client.BaseURL = base
	}

	return &Client{
		client:      client,
		rateLimiter: newLimiter(opts.RateLimit),
		logger:      slog.Default().With("component", "github"),
	}, nil
}

// NewHTTPClient builds the shared HTTP stack: bearer auth over backoff over base transport
func NewHTTPClient(opts Options) *http.Client {
	backoff := NewBackoffTransport(opts.Transport)
	backoff.Timer = opts.Timer
	backoff.Jitter = opts.Jitter

	var rt http.RoundTripper = backoff
	if opts.Token != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   backoff,
		}
	}

	return &http.Client{Transport: rt, Timeout: opts.Timeout}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Get issues an authenticated GET for path (relative to the API root) and
// decodes the JSON body into v.
func (c *Client) Get(ctx context.Context, path string, v any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req, err := c.client.NewRequest(http.MethodGet, strings.TrimPrefix(path, "/"), nil)
	if err != nil {
		return errors.InputErrorf("invalid request path %q: %v", path, err)
	}

	var raw json.RawMessage
	if _, err := c.client.Do(ctx, req, &raw); err != nil {
		return normalizeError(err)
	}
	if v == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.UpstreamErrorWrap(err, fmt.Sprintf("decode response for %s", path))
	}
	return nil
}

// wait blocks until the pacing limiter admits another request
func (c *Client) wait(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// normalizeError maps transport and go-github errors onto the error taxonomy.
// Errors already typed by the backoff transport are returned as-is.
func normalizeError(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := errors.As(err); ok {
		return e
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var rateErr *github.RateLimitError
	if stderrors.As(err, &rateErr) {
		return errors.RateLimitedError(statusOf(rateErr.Response), 0)
	}
	var abuseErr *github.AbuseRateLimitError
	if stderrors.As(err, &abuseErr) {
		return errors.RateLimitedError(statusOf(abuseErr.Response), 0)
	}
	var respErr *github.ErrorResponse
	if stderrors.As(err, &respErr) {
		return errors.UpstreamError(statusOf(respErr.Response), respErr.Message)
	}

	return errors.UpstreamErrorWrap(err, "upstream request failed")
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

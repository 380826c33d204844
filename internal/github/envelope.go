package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// DefaultEnvelopeURL is the tool endpoint used when none is configured
const DefaultEnvelopeURL = "https://api.githubcopilot.com/mcp"

// Envelope tool names
const (
	toolListPullRequests      = "list_pull_requests"
	toolGetPullRequest        = "get_pull_request"
	toolGetPullRequestFiles   = "get_pull_request_files"
	toolGetPullRequestReviews = "get_pull_request_reviews"
	toolListCommits           = "list_commits"
	toolGetCommit             = "get_commit"
	envelopeJSONRPCVersion    = "2.0"
	envelopeContentTypeJSON   = "application/json"
	envelopeToolPathComponent = "tools"
)

// EnvelopeSource implements Source over a method-plus-parameters tool
// endpoint. Each call POSTs a JSON-RPC style envelope to <base>/tools/<method>
// and unwraps the payload from "result" or "data".
type EnvelopeSource struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewEnvelopeSource creates an envelope Source sharing the client option set
// (token, backoff, pacing) with the REST transport.
func NewEnvelopeSource(baseURL string, opts Options) *EnvelopeSource {
	if baseURL == "" {
		baseURL = DefaultEnvelopeURL
	}
	return &EnvelopeSource{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  NewHTTPClient(opts),
		rateLimiter: newLimiter(opts.RateLimit),
		logger:      slog.Default().With("component", "github_envelope"),
	}
}

var _ Source = (*EnvelopeSource)(nil)

type envelopeRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type envelopeResponse struct {
	Result json.RawMessage `json:"result"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type pageParams struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Page    int    `json:"page,omitempty"`
	PerPage int    `json:"perPage,omitempty"`
	State   string `json:"state,omitempty"`
}

type pullParams struct {
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	PullNumber int    `json:"pullNumber"`
	Page       int    `json:"page,omitempty"`
	PerPage    int    `json:"perPage,omitempty"`
}

type commitListParams struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Author  string `json:"author"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
	Since   string `json:"since,omitempty"`
	Until   string `json:"until,omitempty"`
}

type commitParams struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	SHA   string `json:"sha"`
}

func (s *EnvelopeSource) ListPullRequests(ctx context.Context, owner, repo string, page int) ([]*github.PullRequest, error) {
	var prs []*github.PullRequest
	err := s.call(ctx, toolListPullRequests, pageParams{Owner: owner, Repo: repo, Page: page, PerPage: PageSize, State: "all"}, &prs)
	return prs, err
}

func (s *EnvelopeSource) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	var pr github.PullRequest
	if err := s.call(ctx, toolGetPullRequest, pullParams{Owner: owner, Repo: repo, PullNumber: number}, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

func (s *EnvelopeSource) ListPullRequestFiles(ctx context.Context, owner, repo string, number, page int) ([]*github.CommitFile, error) {
	var files []*github.CommitFile
	err := s.call(ctx, toolGetPullRequestFiles, pullParams{Owner: owner, Repo: repo, PullNumber: number, Page: page, PerPage: PageSize}, &files)
	return files, err
}

func (s *EnvelopeSource) ListPullRequestReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	var reviews []*github.PullRequestReview
	err := s.call(ctx, toolGetPullRequestReviews, pullParams{Owner: owner, Repo: repo, PullNumber: number, PerPage: PageSize}, &reviews)
	return reviews, err
}

func (s *EnvelopeSource) ListCommits(ctx context.Context, owner, repo, author string, since, until time.Time, page int) ([]*github.RepositoryCommit, error) {
	params := commitListParams{Owner: owner, Repo: repo, Author: author, Page: page, PerPage: PageSize}
	if !since.IsZero() {
		params.Since = since.UTC().Format(time.RFC3339)
	}
	if !until.IsZero() {
		params.Until = until.UTC().Format(time.RFC3339)
	}
	var commits []*github.RepositoryCommit
	err := s.call(ctx, toolListCommits, params, &commits)
	return commits, err
}

func (s *EnvelopeSource) GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, error) {
	var commit github.RepositoryCommit
	if err := s.call(ctx, toolGetCommit, commitParams{Owner: owner, Repo: repo, SHA: sha}, &commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

// call posts one envelope and decodes the unwrapped payload into v
func (s *EnvelopeSource) call(ctx context.Context, tool string, params any, v any) error {
	if err := s.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(envelopeRequest{
		JSONRPC: envelopeJSONRPCVersion,
		ID:      uuid.NewString(),
		Method:  tool,
		Params:  params,
	})
	if err != nil {
		return errors.InternalErrorf("encode %s envelope: %v", tool, err)
	}

	endpoint := fmt.Sprintf("%s/%s/%s", s.baseURL, envelopeToolPathComponent, tool)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.ConfigErrorf("invalid envelope endpoint %q: %v", endpoint, err)
	}
	req.Header.Set("Content-Type", envelopeContentTypeJSON)
	req.Header.Set("Accept", envelopeContentTypeJSON)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return normalizeError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.UpstreamErrorWrap(err, fmt.Sprintf("read %s response", tool))
	}

	payload, err := unwrapEnvelope(raw, resp.StatusCode)
	if err != nil {
		return err
	}

	s.logger.Debug("envelope call", "tool", tool, "status", resp.StatusCode, "bytes", len(raw))

	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.UpstreamErrorWrap(err, fmt.Sprintf("decode %s payload", tool))
	}
	return nil
}

// unwrapEnvelope returns the "result" member, else the "data" member, else
// the body itself. A JSON-RPC error member with no payload is an upstream error.
func unwrapEnvelope(raw []byte, status int) (json.RawMessage, error) {
	var env envelopeResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		// arrays and scalars are bare payloads
		return raw, nil
	}
	switch {
	case env.Result != nil:
		return env.Result, nil
	case env.Data != nil:
		return env.Data, nil
	case env.Error != nil:
		return nil, errors.UpstreamError(status, env.Error.Message).WithContext("rpc_code", env.Error.Code)
	}
	return raw, nil
}

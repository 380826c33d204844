package github

import (
	"context"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/rohankatakam/sprintbrief/internal/config"
	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// Source is the six-operation upstream capability the evidence collector is
// written against. Both the REST and the envelope transports implement it and
// return go-github payload types.
type Source interface {
	// ListPullRequests returns one page (state=all, 100 per page) of the repository's pull requests
	ListPullRequests(ctx context.Context, owner, repo string, page int) ([]*github.PullRequest, error)

	// GetPullRequest returns the full pull request detail, including size fields and labels
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error)

	// ListPullRequestFiles returns one page of files touched by a pull request
	ListPullRequestFiles(ctx context.Context, owner, repo string, number, page int) ([]*github.CommitFile, error)

	// ListPullRequestReviews returns the reviews left on a pull request
	ListPullRequestReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error)

	// ListCommits returns one page of commits filtered by author and time window
	ListCommits(ctx context.Context, owner, repo, author string, since, until time.Time, page int) ([]*github.RepositoryCommit, error)

	// GetCommit returns a commit with stats and changed files
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, error)
}

// NewSourceFromConfig builds the Source selected by cfg.Transport
func NewSourceFromConfig(cfg config.GitHubConfig) (Source, error) {
	opts := Options{
		Token:     cfg.Token,
		BaseURL:   cfg.BaseURL,
		RateLimit: cfg.RateLimit,
		Timeout:   cfg.Timeout,
	}

	switch strings.ToLower(cfg.Transport) {
	case "", config.TransportREST:
		client, err := NewClient(opts)
		if err != nil {
			return nil, err
		}
		return NewRESTSource(client), nil
	case config.TransportEnvelope:
		return NewEnvelopeSource(cfg.EnvelopeURL, opts), nil
	default:
		return nil, errors.ConfigErrorf("unknown GitHub transport %q (want %s or %s)",
			cfg.Transport, config.TransportREST, config.TransportEnvelope)
	}
}

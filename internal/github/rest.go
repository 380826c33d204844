package github

import (
	"context"
	"time"

	"github.com/google/go-github/v57/github"
)

// RESTSource implements Source over the GitHub REST API
type RESTSource struct {
	client *Client
}

// NewRESTSource creates a Source backed by go-github services
func NewRESTSource(client *Client) *RESTSource {
	return &RESTSource{client: client}
}

var _ Source = (*RESTSource)(nil)

func (s *RESTSource) ListPullRequests(ctx context.Context, owner, repo string, page int) ([]*github.PullRequest, error) {
	if err := s.client.wait(ctx); err != nil {
		return nil, err
	}
	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{Page: page, PerPage: PageSize},
	}
	prs, _, err := s.client.client.PullRequests.List(ctx, owner, repo, opts)
	return prs, normalizeError(err)
}

func (s *RESTSource) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, error) {
	if err := s.client.wait(ctx); err != nil {
		return nil, err
	}
	pr, _, err := s.client.client.PullRequests.Get(ctx, owner, repo, number)
	return pr, normalizeError(err)
}

func (s *RESTSource) ListPullRequestFiles(ctx context.Context, owner, repo string, number, page int) ([]*github.CommitFile, error) {
	if err := s.client.wait(ctx); err != nil {
		return nil, err
	}
	opts := &github.ListOptions{Page: page, PerPage: PageSize}
	files, _, err := s.client.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
	return files, normalizeError(err)
}

func (s *RESTSource) ListPullRequestReviews(ctx context.Context, owner, repo string, number int) ([]*github.PullRequestReview, error) {
	if err := s.client.wait(ctx); err != nil {
		return nil, err
	}
	opts := &github.ListOptions{PerPage: PageSize}
	reviews, _, err := s.client.client.PullRequests.ListReviews(ctx, owner, repo, number, opts)
	return reviews, normalizeError(err)
}

func (s *RESTSource) ListCommits(ctx context.Context, owner, repo, author string, since, until time.Time, page int) ([]*github.RepositoryCommit, error) {
	if err := s.client.wait(ctx); err != nil {
		return nil, err
	}
	opts := &github.CommitsListOptions{
		Author:      author,
		Since:       since,
		Until:       until,
		ListOptions: github.ListOptions{Page: page, PerPage: PageSize},
	}
	commits, _, err := s.client.client.Repositories.ListCommits(ctx, owner, repo, opts)
	return commits, normalizeError(err)
}

func (s *RESTSource) GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, error) {
	if err := s.client.wait(ctx); err != nil {
		return nil, err
	}
	commit, _, err := s.client.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	return commit, normalizeError(err)
}

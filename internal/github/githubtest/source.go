// Package githubtest provides an in-memory github.Source for tests
package githubtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	gh "github.com/google/go-github/v57/github"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

const pageSize = 100

// Source serves a fixed repository snapshot. Err, when set, fails every call.
type Source struct {
	PRs     []*gh.PullRequest
	Files   map[int][]string
	Reviews map[int][]*gh.PullRequestReview
	Commits []*gh.RepositoryCommit
	Err     error

	mu    sync.Mutex
	calls int
}

// New returns an empty snapshot
func New() *Source {
	return &Source{
		Files:   map[int][]string{},
		Reviews: map[int][]*gh.PullRequestReview{},
	}
}

// AddPullRequest appends a pull request authored by login
func (s *Source) AddPullRequest(number int, login, title string, created time.Time, files ...string) *gh.PullRequest {
	pr := &gh.PullRequest{
		Number:       gh.Int(number),
		Title:        gh.String(title),
		HTMLURL:      gh.String(fmt.Sprintf("https://github.com/acme/widgets/pull/%d", number)),
		CreatedAt:    &gh.Timestamp{Time: created},
		UpdatedAt:    &gh.Timestamp{Time: created.Add(time.Hour)},
		User:         &gh.User{Login: gh.String(login)},
		Additions:    gh.Int(10 * number),
		Deletions:    gh.Int(number),
		ChangedFiles: gh.Int(len(files)),
	}
	s.PRs = append(s.PRs, pr)
	s.Files[number] = files
	return pr
}

// AddReview records a review on a pull request
func (s *Source) AddReview(number int, login, state, body string, submitted time.Time) {
	s.Reviews[number] = append(s.Reviews[number], &gh.PullRequestReview{
		User:        &gh.User{Login: gh.String(login)},
		State:       gh.String(state),
		Body:        gh.String(body),
		SubmittedAt: &gh.Timestamp{Time: submitted},
	})
}

// AddCommit appends a commit with stats
func (s *Source) AddCommit(sha, message string, date time.Time, additions, deletions int) {
	s.Commits = append(s.Commits, &gh.RepositoryCommit{
		SHA:     gh.String(sha),
		HTMLURL: gh.String("https://github.com/acme/widgets/commit/" + sha),
		Commit: &gh.Commit{
			Message: gh.String(message),
			Author:  &gh.CommitAuthor{Date: &gh.Timestamp{Time: date}},
		},
		Stats: &gh.CommitStats{Additions: gh.Int(additions), Deletions: gh.Int(deletions)},
	})
}

// Calls reports how many upstream operations were served
func (s *Source) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Source) hit() error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.Err
}

func paginate[T any](items []T, page int) []T {
	start := (page - 1) * pageSize
	if start < 0 || start >= len(items) {
		return nil
	}
	return items[start:min(start+pageSize, len(items))]
}

func (s *Source) ListPullRequests(_ context.Context, _, _ string, page int) ([]*gh.PullRequest, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return paginate(s.PRs, page), nil
}

func (s *Source) GetPullRequest(_ context.Context, _, _ string, number int) (*gh.PullRequest, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	for _, pr := range s.PRs {
		if pr.GetNumber() == number {
			return pr, nil
		}
	}
	return nil, errors.UpstreamError(404, "Not Found")
}

func (s *Source) ListPullRequestFiles(_ context.Context, _, _ string, number, page int) ([]*gh.CommitFile, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	var files []*gh.CommitFile
	for _, name := range s.Files[number] {
		files = append(files, &gh.CommitFile{Filename: gh.String(name), Status: gh.String("modified")})
	}
	return paginate(files, page), nil
}

func (s *Source) ListPullRequestReviews(_ context.Context, _, _ string, number int) ([]*gh.PullRequestReview, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return s.Reviews[number], nil
}

func (s *Source) ListCommits(_ context.Context, _, _, _ string, _, _ time.Time, page int) ([]*gh.RepositoryCommit, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	return paginate(s.Commits, page), nil
}

func (s *Source) GetCommit(_ context.Context, _, _, sha string) (*gh.RepositoryCommit, error) {
	if err := s.hit(); err != nil {
		return nil, err
	}
	for _, c := range s.Commits {
		if c.GetSHA() == sha {
			return c, nil
		}
	}
	return nil, errors.UpstreamError(404, "No commit found for SHA: "+sha)
}

// Package collector gathers a contributor's pull requests, commits and
// reviews for a window and assembles them into validated Evidence.
package collector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/google/uuid"

	"github.com/rohankatakam/sprintbrief/internal/github"
	"github.com/rohankatakam/sprintbrief/internal/models"
	"github.com/rohankatakam/sprintbrief/internal/selector"
)

const (
	// candidateBound stops PR listing once this many author matches are held
	candidateBound = models.MaxPullRequests * 3

	// maxPullRequestFiles caps the file paths kept per pull request
	maxPullRequestFiles = 500

	// maxCommitDetail caps commits enriched with full detail
	maxCommitDetail = 10

	// maxCommitPages caps commit listing pages
	maxCommitPages = 10

	unknownAuthor = "unknown"
)

// Request identifies whose activity to collect
type Request struct {
	Owner string
	Repo  string
	Login string
	Since string // optional ISO-8601
	Until string // optional ISO-8601
}

// Collector builds Evidence from an upstream Source.
// It holds no per-request state and may be shared across goroutines.
type Collector struct {
	source github.Source
	now    func() time.Time
	logger *slog.Logger
}

// New creates a collector over source
func New(source github.Source) *Collector {
	return &Collector{
		source: source,
		now:    time.Now,
		logger: slog.Default().With("component", "collector"),
	}
}

// CollectEvidence resolves the window, collects pull requests and then
// commits, and validates the result. Any error aborts the whole collection.
func (c *Collector) CollectEvidence(ctx context.Context, req Request) (*models.Evidence, error) {
	window, err := ResolveWindow(req.Since, req.Until, c.now())
	if err != nil {
		return nil, err
	}

	log := c.logger.With(
		"run_id", uuid.NewString(),
		"repo", req.Owner+"/"+req.Repo,
		"login", req.Login,
	)
	log.Info("collecting evidence", "since", window.Since, "until", window.Until)

	prs, reviewsGiven, err := c.collectPullRequests(ctx, log, req, window)
	if err != nil {
		return nil, err
	}

	commits, err := c.collectCommits(ctx, log, req, window)
	if err != nil {
		return nil, err
	}

	ev := &models.Evidence{
		Repo:         req.Owner + "/" + req.Repo,
		Login:        req.Login,
		Window:       window,
		PRs:          prs,
		Commits:      commits,
		ReviewsGiven: reviewsGiven,
	}
	if err := ev.Validate(); err != nil {
		log.Warn("collected evidence failed validation", "error", err)
		return nil, err
	}

	log.Info("evidence collected",
		"prs", len(ev.PRs),
		"commits", len(ev.Commits),
		"reviews_given", len(ev.ReviewsGiven),
	)
	return ev, nil
}

func (c *Collector) collectPullRequests(ctx context.Context, log *slog.Logger, req Request, window models.Window) ([]models.PullRequest, []models.ReviewGiven, error) {
	var candidates []models.PullRequestCandidate
	seen := make(map[int]bool)
	login := strings.ToLower(req.Login)
	pages := 0

	for page := 1; len(candidates) < candidateBound; page++ {
		items, err := c.source.ListPullRequests(ctx, req.Owner, req.Repo, page)
		if err != nil {
			return nil, nil, err
		}
		pages++
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if item == nil || strings.ToLower(item.GetUser().GetLogin()) != login {
				continue
			}
			if created := item.GetCreatedAt(); !created.IsZero() && !inWindow(created.Time, window) {
				continue
			}
			// listings shift when PRs open mid-traversal
			if seen[item.GetNumber()] {
				continue
			}
			seen[item.GetNumber()] = true

			candidate, err := c.enrichPullRequest(ctx, req, item)
			if err != nil {
				return nil, nil, err
			}
			candidates = append(candidates, candidate)
		}

		if len(items) < github.PageSize {
			break
		}
	}

	selected := selector.SelectPullRequests(candidates, models.MaxPullRequests)
	prs := make([]models.PullRequest, len(selected))
	for i, s := range selected {
		prs[i] = s.PullRequest
	}

	log.Debug("pull requests collected",
		"pages", pages,
		"candidates", len(candidates),
		"selected", len(prs),
	)
	return prs, reviewsGivenBy(candidates, login), nil
}

// enrichPullRequest fetches detail, files and reviews for one listed pull request
func (c *Collector) enrichPullRequest(ctx context.Context, req Request, item *gh.PullRequest) (models.PullRequestCandidate, error) {
	number := item.GetNumber()

	detail, err := c.source.GetPullRequest(ctx, req.Owner, req.Repo, number)
	if err != nil {
		return models.PullRequestCandidate{}, err
	}
	if detail == nil {
		detail = &gh.PullRequest{}
	}

	files, err := c.collectPullRequestFiles(ctx, req, number)
	if err != nil {
		return models.PullRequestCandidate{}, err
	}

	reviews, err := c.source.ListPullRequestReviews(ctx, req.Owner, req.Repo, number)
	if err != nil {
		return models.PullRequestCandidate{}, err
	}

	candidate := models.PullRequestCandidate{
		PullRequest: models.PullRequest{
			Number:    number,
			URL:       firstNonEmpty(detail.GetHTMLURL(), item.GetHTMLURL()),
			Title:     firstNonEmpty(detail.GetTitle(), item.GetTitle()),
			CreatedAt: firstTime(detail.GetCreatedAt(), item.GetCreatedAt()),
			Labels:    labelNames(detail.Labels),
			Files:     files,
			Reviews:   make([]models.Review, 0, len(reviews)),
		},
		Additions:    detail.GetAdditions(),
		Deletions:    detail.GetDeletions(),
		ChangedFiles: detail.GetChangedFiles(),
	}
	if merged := detail.GetMergedAt(); !merged.IsZero() {
		t := merged.Time
		candidate.MergedAt = &t
	}

	for _, r := range reviews {
		if r == nil {
			continue
		}
		author := r.GetUser().GetLogin()
		if author == "" {
			author = unknownAuthor
		}
		candidate.Reviews = append(candidate.Reviews, models.Review{
			Author:      author,
			State:       r.GetState(),
			Body:        r.GetBody(),
			SubmittedAt: firstTime(r.GetSubmittedAt(), detail.GetUpdatedAt()),
		})
	}

	return candidate, nil
}

func (c *Collector) collectPullRequestFiles(ctx context.Context, req Request, number int) ([]string, error) {
	var files []string
	for page := 1; len(files) < maxPullRequestFiles; page++ {
		items, err := c.source.ListPullRequestFiles(ctx, req.Owner, req.Repo, number, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		for _, f := range items {
			if name := f.GetFilename(); name != "" {
				files = append(files, name)
			}
		}
		if len(items) < github.PageSize {
			break
		}
	}
	return files, nil
}

// reviewsGivenBy returns the first reviews authored by login across all
// candidates, in collection order
func reviewsGivenBy(candidates []models.PullRequestCandidate, login string) []models.ReviewGiven {
	given := []models.ReviewGiven{}
	for _, pr := range candidates {
		for _, r := range pr.Reviews {
			if strings.ToLower(r.Author) != login {
				continue
			}
			given = append(given, models.ReviewGiven{
				PRNumber:    pr.Number,
				URL:         pr.URL,
				State:       r.State,
				Body:        r.Body,
				SubmittedAt: r.SubmittedAt,
			})
			if len(given) == models.MaxReviewsGiven {
				return given
			}
		}
	}
	return given
}

func (c *Collector) collectCommits(ctx context.Context, log *slog.Logger, req Request, window models.Window) ([]models.Commit, error) {
	var commits []models.Commit
	seen := make(map[string]bool)
	pages := 0

	for page := 1; len(commits) < maxCommitDetail && page <= maxCommitPages; page++ {
		items, err := c.source.ListCommits(ctx, req.Owner, req.Repo, req.Login, window.Since, window.Until, page)
		if err != nil {
			return nil, err
		}
		pages++
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			if item == nil || item.GetSHA() == "" || seen[item.GetSHA()] {
				continue
			}
			seen[item.GetSHA()] = true

			detail, err := c.source.GetCommit(ctx, req.Owner, req.Repo, item.GetSHA())
			if err != nil {
				return nil, err
			}
			commits = append(commits, toCommit(item, detail, window))

			if len(commits) >= maxCommitDetail {
				break
			}
		}

		if len(items) < github.PageSize {
			break
		}
	}

	selected := selector.SelectCommits(commits, models.MaxCommits)
	log.Debug("commits collected",
		"pages", pages,
		"enriched", len(commits),
		"selected", len(selected),
	)
	return selected, nil
}

func toCommit(item, detail *gh.RepositoryCommit, window models.Window) models.Commit {
	if detail == nil {
		detail = &gh.RepositoryCommit{}
	}

	committed := window.Until
	for _, ts := range []gh.Timestamp{
		item.GetCommit().GetAuthor().GetDate(),
		item.GetCommit().GetCommitter().GetDate(),
		detail.GetCommit().GetAuthor().GetDate(),
		detail.GetCommit().GetCommitter().GetDate(),
	} {
		if !ts.IsZero() {
			committed = ts.Time
			break
		}
	}

	commit := models.Commit{
		SHA:           item.GetSHA(),
		URL:           firstNonEmpty(item.GetHTMLURL(), detail.GetHTMLURL()),
		Message:       firstNonEmpty(item.GetCommit().GetMessage(), detail.GetCommit().GetMessage()),
		CommittedDate: committed.UTC(),
	}
	if stats := detail.GetStats(); stats != nil {
		commit.Additions = stats.Additions
		commit.Deletions = stats.Deletions
	}
	for _, f := range detail.Files {
		if f == nil {
			continue
		}
		commit.Files = append(commit.Files, models.CommitFile{
			Filename:         f.GetFilename(),
			Status:           f.GetStatus(),
			PreviousFilename: f.GetPreviousFilename(),
		})
	}
	return commit
}

func inWindow(t time.Time, w models.Window) bool {
	return !t.Before(w.Since) && !t.After(w.Until)
}

func labelNames(labels []*gh.Label) []string {
	var names []string
	for _, l := range labels {
		if name := l.GetName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstTime(values ...gh.Timestamp) time.Time {
	for _, v := range values {
		if !v.IsZero() {
			return v.Time.UTC()
		}
	}
	return time.Time{}
}

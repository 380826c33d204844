package models

import (
	"net/url"
	"strings"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// Validate checks the evidence contract: caps, absolute URLs, newest-first
// ordering and unique identity keys. Violations are ValidationErrors.
func (e *Evidence) Validate() error {
	if e == nil {
		return errors.ValidationError("evidence is nil")
	}

	owner, name, ok := strings.Cut(e.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return errors.ValidationErrorf("repo %q is not in owner/name form", e.Repo)
	}
	if strings.TrimSpace(e.Login) == "" {
		return errors.ValidationError("login is empty")
	}
	if e.Window.Since.After(e.Window.Until) {
		return errors.ValidationErrorf("window since %s is after until %s",
			e.Window.Since.Format(timeLayout), e.Window.Until.Format(timeLayout))
	}

	if len(e.PRs) > MaxPullRequests {
		return errors.ValidationErrorf("prs has %d entries, cap is %d", len(e.PRs), MaxPullRequests)
	}
	if len(e.Commits) > MaxCommits {
		return errors.ValidationErrorf("commits has %d entries, cap is %d", len(e.Commits), MaxCommits)
	}
	if len(e.ReviewsGiven) > MaxReviewsGiven {
		return errors.ValidationErrorf("reviewsGiven has %d entries, cap is %d", len(e.ReviewsGiven), MaxReviewsGiven)
	}

	seenPRs := make(map[int]bool, len(e.PRs))
	for i, pr := range e.PRs {
		if !isAbsoluteURL(pr.URL) {
			return errors.ValidationErrorf("prs[%d] url %q is not absolute", i, pr.URL)
		}
		if seenPRs[pr.Number] {
			return errors.ValidationErrorf("prs[%d] duplicates PR #%d", i, pr.Number)
		}
		seenPRs[pr.Number] = true
		if i > 0 && pr.CreatedAt.After(e.PRs[i-1].CreatedAt) {
			return errors.ValidationErrorf("prs[%d] is newer than prs[%d]", i, i-1)
		}
	}

	seenCommits := make(map[string]bool, len(e.Commits))
	for i, c := range e.Commits {
		if c.SHA == "" {
			return errors.ValidationErrorf("commits[%d] has no sha", i)
		}
		if !isAbsoluteURL(c.URL) {
			return errors.ValidationErrorf("commits[%d] url %q is not absolute", i, c.URL)
		}
		if seenCommits[c.SHA] {
			return errors.ValidationErrorf("commits[%d] duplicates sha %s", i, c.SHA)
		}
		seenCommits[c.SHA] = true
		if i > 0 && c.CommittedDate.After(e.Commits[i-1].CommittedDate) {
			return errors.ValidationErrorf("commits[%d] is newer than commits[%d]", i, i-1)
		}
	}

	for i, r := range e.ReviewsGiven {
		if !isAbsoluteURL(r.URL) {
			return errors.ValidationErrorf("reviewsGiven[%d] url %q is not absolute", i, r.URL)
		}
	}

	return nil
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && u.Host != ""
}

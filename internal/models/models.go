package models

import (
	"time"
)

// Caps on the evidence bundle
const (
	MaxPullRequests = 7
	MaxCommits      = 7
	MaxReviewsGiven = 5
)

// Window bounds the activity considered for a contributor
type Window struct {
	Since time.Time `json:"since" yaml:"since"`
	Until time.Time `json:"until" yaml:"until"`
}

// Review is a review left on a collected pull request
type Review struct {
	Author      string    `json:"author" yaml:"author"`
	State       string    `json:"state" yaml:"state"`
	Body        string    `json:"body,omitempty" yaml:"body,omitempty"`
	SubmittedAt time.Time `json:"submittedAt" yaml:"submitted_at"`
}

// PullRequest is a pull request as it appears in Evidence
type PullRequest struct {
	Number    int        `json:"number" yaml:"number"`
	URL       string     `json:"url" yaml:"url"`
	Title     string     `json:"title" yaml:"title"`
	CreatedAt time.Time  `json:"createdAt" yaml:"created_at"`
	MergedAt  *time.Time `json:"mergedAt" yaml:"merged_at"`
	Labels    []string   `json:"labels,omitempty" yaml:"labels,omitempty"`
	Files     []string   `json:"files,omitempty" yaml:"files,omitempty"`
	Reviews   []Review   `json:"reviews,omitempty" yaml:"reviews,omitempty"`
}

// PullRequestCandidate is a pull request before notable-item trimming.
// The size fields only feed the selector weighting.
type PullRequestCandidate struct {
	PullRequest
	Additions    int `json:"-" yaml:"-"`
	Deletions    int `json:"-" yaml:"-"`
	ChangedFiles int `json:"-" yaml:"-"`
}

// ReviewGiven is a review authored by the analyzed contributor
type ReviewGiven struct {
	PRNumber    int       `json:"prNumber" yaml:"pr_number"`
	URL         string    `json:"url" yaml:"url"`
	State       string    `json:"state" yaml:"state"`
	Body        string    `json:"body,omitempty" yaml:"body,omitempty"`
	SubmittedAt time.Time `json:"submittedAt" yaml:"submitted_at"`
}

// CommitFile is a file touched by a commit
type CommitFile struct {
	Filename         string `json:"filename" yaml:"filename"`
	Status           string `json:"status" yaml:"status"`
	PreviousFilename string `json:"previous_filename,omitempty" yaml:"previous_filename,omitempty"`
}

// Renamed reports whether the file was moved
func (f CommitFile) Renamed() bool {
	return f.Status == "renamed" || f.PreviousFilename != ""
}

// Commit is a commit as it appears in Evidence
type Commit struct {
	SHA           string       `json:"sha" yaml:"sha"`
	URL           string       `json:"url" yaml:"url"`
	Message       string       `json:"message" yaml:"message"`
	CommittedDate time.Time    `json:"committedDate" yaml:"committed_date"`
	Additions     *int         `json:"additions,omitempty" yaml:"additions,omitempty"`
	Deletions     *int         `json:"deletions,omitempty" yaml:"deletions,omitempty"`
	Files         []CommitFile `json:"files,omitempty" yaml:"files,omitempty"`
}

// HasRename reports whether any touched file was renamed or carries a previous filename
func (c Commit) HasRename() bool {
	for _, f := range c.Files {
		if f.Renamed() {
			return true
		}
	}
	return false
}

// AdditionsOrZero returns the addition count, 0 when unknown
func (c Commit) AdditionsOrZero() int {
	if c.Additions == nil {
		return 0
	}
	return *c.Additions
}

// DeletionsOrZero returns the deletion count, 0 when unknown
func (c Commit) DeletionsOrZero() int {
	if c.Deletions == nil {
		return 0
	}
	return *c.Deletions
}

// Evidence is the bounded snapshot of a contributor's activity inside a window.
// Built fresh per request and never mutated after Validate succeeds.
type Evidence struct {
	Repo         string        `json:"repo" yaml:"repo"`
	Login        string        `json:"login" yaml:"login"`
	Window       Window        `json:"window" yaml:"window"`
	PRs          []PullRequest `json:"prs" yaml:"prs"`
	Commits      []Commit      `json:"commits" yaml:"commits"`
	ReviewsGiven []ReviewGiven `json:"reviewsGiven" yaml:"reviews_given"`
}

// Brief is the composed narrative with its citations
type Brief struct {
	Summary   string   `json:"summary" yaml:"summary"`
	Citations []string `json:"citations" yaml:"citations"`
}

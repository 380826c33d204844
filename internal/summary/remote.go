package summary

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rohankatakam/sprintbrief/internal/errors"
	"github.com/rohankatakam/sprintbrief/internal/llm/prompts"
	"github.com/rohankatakam/sprintbrief/internal/models"
)

const (
	digestMaxFiles = 20
	digestMaxBody  = 280
)

// Completer is a single system+user chat completion.
// *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// enabler is implemented by completers that can be switched off
type enabler interface {
	IsEnabled() bool
}

// RemoteStage asks a narrative model for the brief
type RemoteStage struct {
	completer Completer
	timeout   time.Duration
}

// NewRemoteStage creates a remote stage. A zero timeout leaves the caller's deadline alone.
func NewRemoteStage(completer Completer, timeout time.Duration) *RemoteStage {
	return &RemoteStage{completer: completer, timeout: timeout}
}

// Run sends the evidence digest to the model. Every failure is an LLMError.
func (s *RemoteStage) Run(ctx context.Context, evidence *models.Evidence) (string, error) {
	if s.completer == nil {
		return "", errors.LLMError(nil, "no narrative model configured")
	}
	if e, ok := s.completer.(enabler); ok && !e.IsEnabled() {
		return "", errors.LLMError(nil, "narrative model disabled")
	}

	digest, err := json.MarshalIndent(newDigest(evidence), "", "  ")
	if err != nil {
		return "", errors.LLMError(err, "failed to encode evidence digest")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	user := prompts.BriefUser(
		evidence.Repo,
		evidence.Login,
		evidence.Window.Since.Format(time.RFC3339),
		evidence.Window.Until.Format(time.RFC3339),
		string(digest),
	)

	text, err := s.completer.Complete(ctx, prompts.BriefSystem, user)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeLLM) {
			return "", err
		}
		return "", errors.LLMError(err, "narrative completion failed")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.LLMError(nil, "narrative model returned an empty brief")
	}
	return text, nil
}

// digest is the compact evidence view sent to the model
type digest struct {
	Repo         string         `json:"repo"`
	Login        string         `json:"login"`
	PRs          []digestPR     `json:"prs"`
	Commits      []digestCommit `json:"commits"`
	ReviewsGiven []digestReview `json:"reviewsGiven"`
}

type digestPR struct {
	Number    int            `json:"number"`
	Title     string         `json:"title"`
	URL       string         `json:"url"`
	Created   string         `json:"createdAt"`
	Merged    bool           `json:"merged"`
	Labels    []string       `json:"labels,omitempty"`
	Files     []string       `json:"files,omitempty"`
	MoreFiles int            `json:"moreFiles,omitempty"`
	Reviews   []digestReview `json:"reviews,omitempty"`
}

type digestCommit struct {
	SHA       string `json:"sha"`
	Headline  string `json:"headline"`
	URL       string `json:"url"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Renames   int    `json:"renames,omitempty"`
	Date      string `json:"committedDate"`
}

type digestReview struct {
	PRNumber int    `json:"prNumber,omitempty"`
	Author   string `json:"author,omitempty"`
	State    string `json:"state"`
	Body     string `json:"body,omitempty"`
}

func newDigest(ev *models.Evidence) digest {
	d := digest{
		Repo:         ev.Repo,
		Login:        ev.Login,
		PRs:          make([]digestPR, 0, len(ev.PRs)),
		Commits:      make([]digestCommit, 0, len(ev.Commits)),
		ReviewsGiven: make([]digestReview, 0, len(ev.ReviewsGiven)),
	}

	for _, pr := range ev.PRs {
		p := digestPR{
			Number:  pr.Number,
			Title:   pr.Title,
			URL:     pr.URL,
			Merged:  pr.MergedAt != nil,
			Labels:  pr.Labels,
			Files:   pr.Files,
			Created: pr.CreatedAt.Format(time.RFC3339),
		}
		if len(p.Files) > digestMaxFiles {
			p.MoreFiles = len(p.Files) - digestMaxFiles
			p.Files = p.Files[:digestMaxFiles]
		}
		for _, r := range pr.Reviews {
			p.Reviews = append(p.Reviews, digestReview{
				Author: r.Author,
				State:  r.State,
				Body:   truncateRunes(r.Body, digestMaxBody),
			})
		}
		d.PRs = append(d.PRs, p)
	}

	for _, c := range ev.Commits {
		renames := 0
		for _, f := range c.Files {
			if f.Renamed() {
				renames++
			}
		}
		d.Commits = append(d.Commits, digestCommit{
			SHA:       shortSHA(c.SHA),
			Headline:  firstLine(c.Message),
			URL:       c.URL,
			Additions: c.AdditionsOrZero(),
			Deletions: c.DeletionsOrZero(),
			Renames:   renames,
			Date:      c.CommittedDate.Format(time.RFC3339),
		})
	}

	for _, r := range ev.ReviewsGiven {
		d.ReviewsGiven = append(d.ReviewsGiven, digestReview{
			PRNumber: r.PRNumber,
			State:    r.State,
			Body:     truncateRunes(r.Body, digestMaxBody),
		})
	}
	return d
}

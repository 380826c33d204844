// Package brief runs one contributor analysis end to end: input checks,
// evidence collection and brief composition.
package brief

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rohankatakam/sprintbrief/internal/collector"
	"github.com/rohankatakam/sprintbrief/internal/errors"
	"github.com/rohankatakam/sprintbrief/internal/github"
	"github.com/rohankatakam/sprintbrief/internal/models"
	"github.com/rohankatakam/sprintbrief/internal/summary"
)

// Request is an analysis request as received from a boundary
type Request struct {
	RepoURL string `json:"repoUrl"`
	Login   string `json:"login"`
	Since   string `json:"since,omitempty"`
	Until   string `json:"until,omitempty"`
}

// Result is the validated evidence and the brief composed from it
type Result struct {
	Evidence *models.Evidence
	Brief    models.Brief
}

// Service wires a collector and a composer. It holds only read-only clients
// and may serve concurrent requests.
type Service struct {
	collector *collector.Collector
	composer  *summary.Composer
	logger    *slog.Logger
}

// NewService creates a service collecting from source and narrating with completer.
// completer may be nil, in which case every brief is deterministic.
func NewService(source github.Source, completer summary.Completer, narrativeTimeout time.Duration) *Service {
	return &Service{
		collector: collector.New(source),
		composer:  summary.NewComposer(completer, narrativeTimeout),
		logger:    slog.Default().With("component", "brief"),
	}
}

// Analyze validates req, collects evidence and composes the brief.
// Narrative failures never surface here; collection failures abort.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	repoURL := strings.TrimSpace(req.RepoURL)
	if repoURL == "" {
		return nil, errors.InputError("repoUrl is required")
	}
	login := strings.TrimSpace(req.Login)
	if login == "" {
		return nil, errors.InputError("login is required")
	}

	owner, repo, err := github.NormalizeRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	evidence, err := s.collector.CollectEvidence(ctx, collector.Request{
		Owner: owner,
		Repo:  repo,
		Login: login,
		Since: strings.TrimSpace(req.Since),
		Until: strings.TrimSpace(req.Until),
	})
	if err != nil {
		return nil, err
	}

	b := s.composer.Summarize(ctx, evidence)
	s.logger.Info("brief composed",
		"repo", evidence.Repo,
		"login", evidence.Login,
		"citations", len(b.Citations),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Result{Evidence: evidence, Brief: b}, nil
}

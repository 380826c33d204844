package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/sprintbrief/internal/brief"
	"github.com/rohankatakam/sprintbrief/internal/config"
	"github.com/rohankatakam/sprintbrief/internal/github"
	"github.com/rohankatakam/sprintbrief/internal/llm"
)

// newService builds the shared read-only clients for one process
func newService(ctx context.Context, vctx config.ValidationContext) (*brief.Service, error) {
	result := cfg.Validate(vctx)
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	if err := result.Enforce(config.DetectMode()); err != nil {
		return nil, err
	}

	source, err := github.NewSourceFromConfig(cfg.GitHub)
	if err != nil {
		return nil, err
	}
	logger.WithField("transport", cfg.GitHub.Transport).Debug("GitHub source ready")

	llmClient, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if llmClient.IsEnabled() {
		logger.WithFields(logrus.Fields{
			"provider": llmClient.GetProvider(),
			"model":    llmClient.Model(),
		}).Debug("Narrative model enabled")
	} else {
		logger.Debug("No narrative model configured, briefs are deterministic")
	}

	return brief.NewService(source, llmClient, cfg.LLM.Timeout), nil
}

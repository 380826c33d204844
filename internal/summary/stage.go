package summary

import (
	"context"
	"log/slog"

	"github.com/rohankatakam/sprintbrief/internal/models"
)

// Stage turns evidence into brief markdown
type Stage interface {
	Run(ctx context.Context, evidence *models.Evidence) (string, error)
}

// StageFunc adapts a function to Stage
type StageFunc func(ctx context.Context, evidence *models.Evidence) (string, error)

// Run calls f
func (f StageFunc) Run(ctx context.Context, evidence *models.Evidence) (string, error) {
	return f(ctx, evidence)
}

// WithFallback runs primary and, on any error, logs it at warn and runs fallback instead.
// Neither stage is retried.
func WithFallback(primary, fallback Stage) Stage {
	logger := slog.Default().With("component", "summary")
	return StageFunc(func(ctx context.Context, evidence *models.Evidence) (string, error) {
		text, err := primary.Run(ctx, evidence)
		if err == nil {
			return text, nil
		}
		logger.Warn("narrative stage failed, using deterministic brief",
			"repo", evidence.Repo,
			"login", evidence.Login,
			"error", err,
		)
		return fallback.Run(ctx, evidence)
	})
}

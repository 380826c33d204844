// Package summary composes the contributor brief from validated evidence:
// a narrative model first, deterministic rules when the model is unavailable.
package summary

import (
	"context"
	"log/slog"
	"time"

	"github.com/rohankatakam/sprintbrief/internal/models"
)

// Composer turns evidence into a Brief. It never fails; narrative errors are
// absorbed by the deterministic fallback.
type Composer struct {
	stage  Stage
	logger *slog.Logger
}

// NewComposer builds the remote-first pipeline. A nil completer goes straight to the fallback.
func NewComposer(completer Completer, timeout time.Duration) *Composer {
	return NewComposerWithStage(WithFallback(NewRemoteStage(completer, timeout), Deterministic()))
}

// NewComposerWithStage uses a custom stage pipeline
func NewComposerWithStage(stage Stage) *Composer {
	return &Composer{
		stage:  stage,
		logger: slog.Default().With("component", "summary"),
	}
}

// Summarize renders the brief and its citations
func (c *Composer) Summarize(ctx context.Context, evidence *models.Evidence) models.Brief {
	text, err := c.stage.Run(ctx, evidence)
	if err != nil {
		c.logger.Warn("brief pipeline failed, rendering deterministic brief", "error", err)
		text = render(evidence)
	}
	return models.Brief{
		Summary:   text,
		Citations: Citations(evidence),
	}
}

package mcp

import (
	"context"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rohankatakam/sprintbrief/internal/brief"
	"github.com/rohankatakam/sprintbrief/internal/errors"
	"github.com/rohankatakam/sprintbrief/internal/models"
	"github.com/rohankatakam/sprintbrief/internal/output"
)

// AnalyzeInput is the tool's argument schema
type AnalyzeInput struct {
	RepoURL string `json:"repoUrl" jsonschema:"GitHub repository URL or owner/name shorthand"`
	Login   string `json:"login" jsonschema:"GitHub login of the contributor"`
	Since   string `json:"since,omitempty" jsonschema:"window start, ISO-8601 (default: 30 days before until)"`
	Until   string `json:"until,omitempty" jsonschema:"window end, ISO-8601 (default: now)"`
}

// analyzeResult is attached as structured content
type analyzeResult struct {
	Summary   string           `json:"summary"`
	Citations []string         `json:"citations"`
	Evidence  *models.Evidence `json:"evidence"`
}

type analyzeTool struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// handle runs the analysis. Analysis failures are reported as tool errors,
// not protocol errors, so the calling model can read them.
func (t *analyzeTool) handle(ctx context.Context, _ *mcpsdk.CallToolRequest, in AnalyzeInput) (*mcpsdk.CallToolResult, any, error) {
	res, err := t.analyzer.Analyze(ctx, brief.Request{
		RepoURL: in.RepoURL,
		Login:   in.Login,
		Since:   in.Since,
		Until:   in.Until,
	})
	if err != nil {
		t.logger.Warn("analysis failed", "repo_url", in.RepoURL, "login", in.Login, "error", err)
		return toolError(err), nil, nil
	}

	var md strings.Builder
	if err := (&output.MarkdownFormatter{}).Format(&output.Report{Evidence: res.Evidence, Brief: res.Brief}, &md); err != nil {
		return toolError(err), nil, nil
	}

	citations := res.Brief.Citations
	if citations == nil {
		citations = []string{}
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: md.String()}},
		StructuredContent: analyzeResult{
			Summary:   res.Brief.Summary,
			Citations: citations,
			Evidence:  res.Evidence,
		},
	}, nil, nil
}

func toolError(err error) *mcpsdk.CallToolResult {
	msg := err.Error()
	if e, ok := errors.As(err); ok {
		msg = e.Type.String() + ": " + e.Message
	}
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
	}
}

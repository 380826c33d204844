// Package mcp serves the contributor brief as a Model Context Protocol tool
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rohankatakam/sprintbrief/internal/brief"
)

// ToolName is the name the analysis tool is registered under
const ToolName = "analyze_contributor"

// Analyzer runs one analysis; *brief.Service satisfies it
type Analyzer interface {
	Analyze(ctx context.Context, req brief.Request) (*brief.Result, error)
}

// NewServer creates an MCP server exposing the analysis tool
func NewServer(analyzer Analyzer, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "sprintbrief",
		Version: version,
	}, nil)

	tool := &analyzeTool{
		analyzer: analyzer,
		logger:   slog.Default().With("component", "mcp"),
	}
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name: ToolName,
		Description: "Summarize a GitHub contributor's pull requests, commits and reviews in a time window " +
			"as a six-section sprint brief with citations.",
	}, tool.handle)

	return server
}

// RunStdio serves over stdin/stdout until the client disconnects or ctx ends
func RunStdio(ctx context.Context, server *mcpsdk.Server) error {
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

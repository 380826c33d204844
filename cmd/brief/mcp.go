package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/sprintbrief/internal/config"
	"github.com/rohankatakam/sprintbrief/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analyze_contributor tool over MCP stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout so assistants can request
contributor briefs. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := newService(ctx, config.ValidationContextAnalyze)
		if err != nil {
			return err
		}

		logger.WithField("tool", mcp.ToolName).Info("MCP server ready on stdio")
		return mcp.RunStdio(ctx, mcp.NewServer(svc, Version))
	},
}

package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/sprintbrief/internal/config"
	"github.com/rohankatakam/sprintbrief/internal/logging"
	"github.com/rohankatakam/sprintbrief/internal/server"
)

var (
	serveAddr            string
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /api/analyze over HTTP",
	Long: `Start the HTTP endpoint.

POST /api/analyze with {"repoUrl", "login", "since"?, "until"?} returns
{"ok": true, "summary", "citations", "evidence"} or {"ok": false, "error"}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		if !verbose {
			if err := logging.Initialize(serverLogConfig()); err != nil {
				return err
			}
		}

		svc, err := newService(ctx, config.ValidationContextServe)
		if err != nil {
			return err
		}

		logger.WithField("addr", cfg.Server.Addr).Info("Starting HTTP server")
		return server.New(svc, cfg.Server.RequestTimeout).Listen(ctx, cfg.Server.Addr, serveShutdownTimeout)
	},
}

// serverLogConfig writes JSON logs to a rotated file next to the console sink
func serverLogConfig() logging.Config {
	file := cfg.Log.File
	if file == "" {
		file = filepath.Join(config.HomeDir(), "logs", "serve.log")
	}
	logCfg := logging.ProductionConfig(file)
	if cfg.Log.Level != "" {
		logCfg.Level = logging.ParseLevel(cfg.Log.Level)
	}
	return logCfg
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr or BRIEF_ADDR, :8080)")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
}

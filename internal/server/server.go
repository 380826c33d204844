// Package server exposes the contributor brief over HTTP
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/rohankatakam/sprintbrief/internal/brief"
)

// Analyzer runs one analysis; *brief.Service satisfies it
type Analyzer interface {
	Analyze(ctx context.Context, req brief.Request) (*brief.Result, error)
}

// Server is the HTTP boundary
type Server struct {
	app            *fiber.App
	analyzer       Analyzer
	requestTimeout time.Duration
	logger         *slog.Logger
}

// New builds the fiber app with recovery, request ids and request logging.
// A zero requestTimeout lets analyses run until the client goes away.
func New(analyzer Analyzer, requestTimeout time.Duration) *Server {
	s := &Server{
		analyzer:       analyzer,
		requestTimeout: requestTimeout,
		logger:         slog.Default().With("component", "server"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "sprintbrief",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger(s.logger))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/api/analyze", s.handleAnalyze)

	s.app = app
	return s
}

// App exposes the fiber app (tests drive it with app.Test)
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Listen(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		s.logger.Warn("server shutdown incomplete", "timeout", shutdownTimeout, "error", err)
		return err
	}
	return nil
}

// requestLogger logs HTTP requests with method, path, status and duration
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		reqID, _ := c.Locals("requestid").(string)
		if reqID == "" {
			reqID = c.Get(fiber.HeaderXRequestID)
		}
		logger.Info("http",
			"method", c.Method(),
			"path", c.OriginalURL(),
			"status", c.Response().StatusCode(),
			"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
			"request_id", reqID,
		)
		return err
	}
}

package server

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/rohankatakam/sprintbrief/internal/brief"
	"github.com/rohankatakam/sprintbrief/internal/errors"
	"github.com/rohankatakam/sprintbrief/internal/models"
)

type analyzeResponse struct {
	OK        bool             `json:"ok"`
	Summary   string           `json:"summary"`
	Citations []string         `json:"citations"`
	Evidence  *models.Evidence `json:"evidence"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	var body brief.Request
	if err := c.BodyParser(&body); err != nil {
		return writeError(c, errors.InputError("invalid request body"))
	}

	ctx := c.UserContext()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	res, err := s.analyzer.Analyze(ctx, body)
	if err != nil {
		s.logger.Warn("analysis failed",
			"repo_url", body.RepoURL,
			"login", body.Login,
			"error_type", errors.GetType(err).String(),
			"error", err,
		)
		return writeError(c, err)
	}

	citations := res.Brief.Citations
	if citations == nil {
		citations = []string{}
	}
	return c.Status(http.StatusOK).JSON(analyzeResponse{
		OK:        true,
		Summary:   res.Brief.Summary,
		Citations: citations,
		Evidence:  res.Evidence,
	})
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch errors.GetType(err) {
	case errors.ErrorTypeInput:
		return http.StatusBadRequest
	case errors.ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrorTypeUpstream, errors.ErrorTypeValidation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if e, ok := errors.As(err); ok {
		msg = e.Message
	}
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.Status(status).JSON(errorResponse{OK: false, Error: msg})
}

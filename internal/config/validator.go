package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// ValidationContext specifies what configuration is required
type ValidationContext string

const (
	// ValidationContextAnalyze - one-shot CLI analysis
	ValidationContextAnalyze ValidationContext = "analyze"
	// ValidationContextServe - HTTP and MCP servers also need a listen address
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextAll - validate all configuration
	ValidationContextAll ValidationContext = "all"
)

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result
func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result
func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any errors
func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

// Error returns a formatted error message
func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}

	if len(vr.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, warn := range vr.Warnings {
			sb.WriteString(fmt.Sprintf("  - %s\n", warn))
		}
	}

	return sb.String()
}

// Err returns the result as a ConfigError, or nil when valid
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}
	return errors.ConfigError(vr.Error())
}

// Enforce is Err, except that modes requiring strict validation also fail
// on warnings
func (vr *ValidationResult) Enforce(mode DeploymentMode) error {
	if err := vr.Err(); err != nil {
		return err
	}
	if mode.RequiresStrictValidation() && len(vr.Warnings) > 0 {
		return errors.ConfigErrorf("%s requires a warning-free configuration:\n  - %s",
			mode.Description(), strings.Join(vr.Warnings, "\n  - "))
	}
	return nil
}

// Validate validates configuration for the given context
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	switch ctx {
	case ValidationContextAnalyze:
		c.validateGitHub(result)
		c.validateLLM(result)
	case ValidationContextServe:
		c.validateGitHub(result)
		c.validateLLM(result)
		c.validateServer(result)
	case ValidationContextAll:
		c.validateGitHub(result)
		c.validateLLM(result)
		c.validateServer(result)
		c.validateLog(result)
	}

	return result
}

func (c *Config) validateGitHub(result *ValidationResult) {
	if c.GitHub.Token == "" {
		result.AddWarning("GITHUB_TOKEN is not set. Only public repositories are reachable and rate limits are low.")
	}

	switch c.GitHub.Transport {
	case TransportREST, "":
		validateURL(result, "GITHUB_API_URL", c.GitHub.BaseURL, false)
	case TransportEnvelope:
		validateURL(result, "GITHUB_MCP_URL", c.GitHub.EnvelopeURL, true)
	default:
		result.AddError("GITHUB_TRANSPORT must be %q or %q, got %q", TransportREST, TransportEnvelope, c.GitHub.Transport)
	}

	if c.GitHub.RateLimit < 0 {
		result.AddError("GITHUB_RATE_LIMIT must not be negative, got %v", c.GitHub.RateLimit)
	}
}

func (c *Config) validateLLM(result *ValidationResult) {
	switch strings.ToLower(c.LLM.Provider) {
	case "", "none":
	case "openai":
		if c.LLM.OpenAIKey == "" {
			result.AddWarning("LLM_PROVIDER is openai but OPENAI_API_KEY is not set; briefs use the deterministic composer")
		}
	case "gemini":
		if c.LLM.GeminiKey == "" {
			result.AddWarning("LLM_PROVIDER is gemini but GEMINI_API_KEY is not set; briefs use the deterministic composer")
		}
	default:
		result.AddError("LLM_PROVIDER must be openai, gemini or none, got %q", c.LLM.Provider)
	}

	if c.LLM.OpenAIBaseURL != "" {
		validateURL(result, "OPENAI_BASE_URL", c.LLM.OpenAIBaseURL, true)
	}
}

func (c *Config) validateServer(result *ValidationResult) {
	if c.Server.Addr == "" {
		result.AddError("server address is required (BRIEF_ADDR)")
	}
	if c.Server.RequestTimeout <= 0 {
		result.AddWarning("server request timeout is not set; requests run until the client disconnects")
	}
}

func (c *Config) validateLog(result *ValidationResult) {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		result.AddWarning("LOG_LEVEL %q is unknown, will use info", c.Log.Level)
	}
}

func validateURL(result *ValidationResult, name, raw string, required bool) {
	if raw == "" {
		if required {
			result.AddError("%s is required but not set", name)
		}
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		result.AddError("%s is invalid: %v", name, err)
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		result.AddError("%s must be an http(s) URL, got %q", name, raw)
	}
}

package llm

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/rohankatakam/sprintbrief/internal/config"
	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// Provider represents the LLM provider
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderNone   Provider = "none"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.0-flash"

	temperature = 0.2
	maxTokens   = 1200
)

// chatCompleter is the slice of the go-openai client the narrative call needs
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client provides a single chat-style completion over OpenAI or Gemini.
// A client without a usable provider is valid but disabled; every call then
// fails with an LLMError so callers can fall back.
type Client struct {
	provider     Provider
	openaiClient chatCompleter
	geminiClient *GeminiClient
	model        string
	logger       *slog.Logger
}

// NewClient creates a client from configuration.
// Provider priority: explicit LLM provider > OpenAI key present > Gemini key present > disabled.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	return newClient(ctx, cfg.LLM, nil)
}

// NewClientWithHTTP is NewClient with a caller-supplied HTTP client for the OpenAI provider
func NewClientWithHTTP(ctx context.Context, cfg *config.Config, httpClient *http.Client) (*Client, error) {
	return newClient(ctx, cfg.LLM, httpClient)
}

func newClient(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (*Client, error) {
	logger := slog.Default().With("component", "llm")

	switch resolveProvider(cfg) {
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			logger.Warn("openai provider selected but no OPENAI_API_KEY configured")
			return disabled(logger), nil
		}
		return newOpenAIClient(cfg, httpClient, logger), nil
	case ProviderGemini:
		if cfg.GeminiKey == "" {
			logger.Warn("gemini provider selected but no GEMINI_API_KEY configured")
			return disabled(logger), nil
		}
		return newGeminiProvider(ctx, cfg, logger)
	default:
		logger.Info("no narrative model configured, using deterministic briefs")
		return disabled(logger), nil
	}
}

func resolveProvider(cfg config.LLMConfig) Provider {
	switch Provider(strings.ToLower(cfg.Provider)) {
	case ProviderOpenAI:
		return ProviderOpenAI
	case ProviderGemini:
		return ProviderGemini
	case ProviderNone:
		return ProviderNone
	}
	switch {
	case cfg.OpenAIKey != "":
		return ProviderOpenAI
	case cfg.GeminiKey != "":
		return ProviderGemini
	}
	return ProviderNone
}

func disabled(logger *slog.Logger) *Client {
	return &Client{provider: ProviderNone, logger: logger}
}

func newOpenAIClient(cfg config.LLMConfig, httpClient *http.Client, logger *slog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.OpenAIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	model := cfg.OpenAIModel
	if model == "" {
		model = defaultOpenAIModel
	}

	logger.Info("openai client initialized", "model", model, "key_source", keySource(cfg))
	return &Client{
		provider:     ProviderOpenAI,
		openaiClient: openai.NewClientWithConfig(clientConfig),
		model:        model,
		logger:       logger,
	}
}

func newGeminiProvider(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	model := cfg.GeminiModel
	if model == "" {
		model = defaultGeminiModel
	}

	geminiClient, err := NewGeminiClient(ctx, cfg.GeminiKey, model)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh, "failed to create gemini client")
	}

	return &Client{
		provider:     ProviderGemini,
		geminiClient: geminiClient,
		model:        model,
		logger:       logger,
	}, nil
}

// keySource reports where the OpenAI key came from
func keySource(cfg config.LLMConfig) string {
	if cfg.UseKeychain {
		return "keychain"
	}
	return "environment_or_config"
}

// IsEnabled returns true if an LLM provider is configured and ready
func (c *Client) IsEnabled() bool {
	return c.provider != ProviderNone
}

// GetProvider returns the active LLM provider
func (c *Client) GetProvider() Provider {
	return c.provider
}

// Model returns the model used for completions
func (c *Client) Model() string {
	return c.model
}

// Complete sends one system+user exchange and returns the completion text.
// Every failure, including a blank completion, is an LLMError.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var (
		text string
		err  error
	)
	switch c.provider {
	case ProviderOpenAI:
		text, err = c.completeOpenAI(ctx, systemPrompt, userPrompt)
	case ProviderGemini:
		text, err = c.geminiClient.Complete(ctx, systemPrompt, userPrompt)
	default:
		return "", errors.LLMError(nil, "llm client not enabled (no provider or API key configured)")
	}
	if err != nil {
		if _, ok := errors.As(err); ok {
			return "", err
		}
		return "", errors.LLMError(err, string(c.provider)+" completion failed")
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.LLMError(nil, string(c.provider)+" returned an empty completion")
	}
	return text, nil
}

func (c *Client) completeOpenAI(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.openaiClient.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", errors.LLMError(err, "openai completion failed").WithContext("status", openAIStatus(err))
	}

	if len(resp.Choices) == 0 {
		return "", errors.LLMError(nil, "openai returned no choices")
	}

	text := resp.Choices[0].Message.Content
	c.logger.Debug("openai completion",
		"model", c.model,
		"prompt_length", len(userPrompt),
		"response_length", len(text),
		"tokens_used", resp.Usage.TotalTokens,
	)
	return text, nil
}

// openAIStatus extracts the HTTP status from a go-openai error, 0 when unknown
func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

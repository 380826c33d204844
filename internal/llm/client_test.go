package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/sprintbrief/internal/config"
	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// openAIServer fakes the chat completions endpoint
func openAIServer(t *testing.T, status int, content string, captured *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func openAIConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.LLM.OpenAIKey = "sk-test"
	cfg.LLM.OpenAIBaseURL = baseURL
	return cfg
}

func TestNewClient_ProviderSelection(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	client, err := NewClient(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.Equal(t, ProviderNone, client.GetProvider())

	cfg.LLM.OpenAIKey = "sk-test"
	client, err = NewClient(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, client.GetProvider())
	assert.Equal(t, "gpt-4o-mini", client.Model())

	cfg.LLM.Provider = "none"
	client, err = NewClient(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())

	cfg = config.Default()
	cfg.LLM.Provider = "gemini"
	client, err = NewClient(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, client.IsEnabled(), "gemini without a key stays disabled")
}

func TestComplete_Disabled(t *testing.T) {
	client, err := NewClient(context.Background(), config.Default())
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeLLM))
}

func TestComplete_OpenAI(t *testing.T) {
	var captured openai.ChatCompletionRequest
	srv := openAIServer(t, http.StatusOK, "## Headline\nocto shipped things", &captured)

	client, err := NewClientWithHTTP(context.Background(), openAIConfig(srv.URL), srv.Client())
	require.NoError(t, err)

	text, err := client.Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "## Headline\nocto shipped things", text)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, captured.Messages[0].Role)
	assert.Equal(t, "system prompt", captured.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, captured.Messages[1].Role)
	assert.Equal(t, "user prompt", captured.Messages[1].Content)
}

func TestComplete_OpenAIFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{name: "non-2xx", status: http.StatusInternalServerError},
		{name: "blank completion", status: http.StatusOK, content: "   \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := openAIServer(t, tt.status, tt.content, nil)
			client, err := NewClientWithHTTP(context.Background(), openAIConfig(srv.URL), srv.Client())
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), "sys", "user")
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeLLM))
		})
	}
}

type stubCompleter struct {
	resp openai.ChatCompletionResponse
	err  error
}

func (s stubCompleter) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return s.resp, s.err
}

func TestComplete_NoChoices(t *testing.T) {
	client := &Client{
		provider:     ProviderOpenAI,
		openaiClient: stubCompleter{},
		model:        "gpt-4o-mini",
		logger:       slog.Default(),
	}

	_, err := client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeLLM))
	assert.Contains(t, err.Error(), "no choices")
}

func TestComplete_StatusContext(t *testing.T) {
	client := &Client{
		provider:     ProviderOpenAI,
		openaiClient: stubCompleter{err: &openai.APIError{HTTPStatusCode: 503, Message: "overloaded"}},
		model:        "gpt-4o-mini",
		logger:       slog.Default(),
	}

	_, err := client.Complete(context.Background(), "sys", "user")
	require.Error(t, err)
	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeLLM, e.Type)
	assert.Equal(t, 503, e.Context["status"])
}

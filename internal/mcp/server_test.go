package mcp

import (
	"context"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/sprintbrief/internal/brief"
	"github.com/rohankatakam/sprintbrief/internal/errors"
	"github.com/rohankatakam/sprintbrief/internal/github/githubtest"
)

type analyzerFunc func(ctx context.Context, req brief.Request) (*brief.Result, error)

func (f analyzerFunc) Analyze(ctx context.Context, req brief.Request) (*brief.Result, error) {
	return f(ctx, req)
}

// connect wires a client session to the server over in-memory transports
func connect(t *testing.T, analyzer Analyzer) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := NewServer(analyzer, "test").Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func TestListTools(t *testing.T) {
	session := connect(t, analyzerFunc(func(context.Context, brief.Request) (*brief.Result, error) {
		return nil, nil
	}))

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, 1)
	assert.Equal(t, ToolName, res.Tools[0].Name)
	assert.NotNil(t, res.Tools[0].InputSchema)
}

func TestAnalyzeContributor(t *testing.T) {
	day := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	src := githubtest.New()
	src.AddPullRequest(3, "octo", "Migrate settings store", day, "store/settings.go")

	session := connect(t, brief.NewService(src, nil, 0))
	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name: ToolName,
		Arguments: map[string]any{
			"repoUrl": "acme/widgets",
			"login":   "octo",
			"since":   "2024-05-01",
			"until":   "2024-05-31",
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*mcpsdk.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "octo led migration work: Migrate settings store")
	assert.Contains(t, text.Text, "1. https://github.com/acme/widgets/pull/3")

	structured, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"https://github.com/acme/widgets/pull/3"}, structured["citations"])
}

func TestAnalyzeContributor_ToolError(t *testing.T) {
	session := connect(t, analyzerFunc(func(context.Context, brief.Request) (*brief.Result, error) {
		return nil, errors.RateLimitedError(429, 5)
	}))

	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{
		Name:      ToolName,
		Arguments: map[string]any{"repoUrl": "acme/widgets", "login": "octo"},
	})
	require.NoError(t, err, "analysis failures are tool errors, not protocol errors")
	assert.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	assert.Equal(t, "UPSTREAM_RATE_LIMITED: upstream rate limit reached after 5 retries", res.Content[0].(*mcpsdk.TextContent).Text)
}

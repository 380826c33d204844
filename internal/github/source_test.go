package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/sprintbrief/internal/config"
	"github.com/rohankatakam/sprintbrief/internal/errors"
)

func TestNewSourceFromConfig(t *testing.T) {
	cfg := config.Default().GitHub

	src, err := NewSourceFromConfig(cfg)
	require.NoError(t, err)
	assert.IsType(t, &RESTSource{}, src)

	cfg.Transport = config.TransportEnvelope
	cfg.EnvelopeURL = "https://mcp.example.com/"
	src, err = NewSourceFromConfig(cfg)
	require.NoError(t, err)
	require.IsType(t, &EnvelopeSource{}, src)
	assert.Equal(t, "https://mcp.example.com", src.(*EnvelopeSource).baseURL)

	cfg.Transport = "smoke-signals"
	_, err = NewSourceFromConfig(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

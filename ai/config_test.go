package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "none", cfg.APIToken)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithEmbeddingHost("https://api.openai.com"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithAPIToken("sk-test"),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost, "Normalize appends /v1")
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "sk-test", cfg.APIToken)
}

func TestNormalize(t *testing.T) {
	cfg := &Config{EmbeddingHost: "http://localhost:11434/", EmbeddingModel: "m"}
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "none", cfg.APIToken, "empty token defaults to none")

	already := &Config{EmbeddingHost: "http://localhost:11434/v1", EmbeddingModel: "m", APIToken: "x"}
	already.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", already.EmbeddingHost)
}

func TestValidate(t *testing.T) {
	missingHost := &Config{EmbeddingModel: "m"}
	assert.Error(t, missingHost.Validate())

	missingModel := &Config{EmbeddingHost: "http://localhost:11434/v1"}
	assert.Error(t, missingModel.Validate())
}

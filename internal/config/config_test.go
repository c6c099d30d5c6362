package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	require.NoError(t, LoadConfig())
	require.NotNil(t, AppConfig)

	assert.Equal(t, "8000", AppConfig.Server.Port)
	assert.Equal(t, "gpt-4o-mini", AppConfig.AI.ChatModel)
	assert.Equal(t, "text-embedding-3-small", AppConfig.AI.EmbeddingModel)
	assert.Equal(t, 1000, AppConfig.Knowledge.ChunkSize)
	assert.Equal(t, 200, AppConfig.Knowledge.ChunkOverlap)
	assert.Equal(t, 5, AppConfig.Knowledge.TopK)
	assert.Equal(t, 30, AppConfig.Knowledge.FetchTimeoutSeconds)
	assert.Equal(t, 45, AppConfig.Knowledge.ChatTimeoutSeconds)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("OPENAI_CHAT_MODEL", "gpt-4o")

	require.NoError(t, LoadConfig())
	assert.Equal(t, "9100", AppConfig.Server.Port)
	assert.Equal(t, "gpt-4o", AppConfig.AI.ChatModel)
}

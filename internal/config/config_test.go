package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, 384, cfg.VectorStore.VectorSize)
	assert.Equal(t, "research-assistant", cfg.VectorStore.Collection)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, 50, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, 0.1, cfg.LLM.Temperature)
}

func TestLoadMissingLLMKeyFails(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "9001")
	t.Setenv("INGEST_CHUNK_SIZE", "800")
	t.Setenv("VECTORSTORE_PROVIDER", "qdrant")
	t.Setenv("VECTORSTORE_QDRANT_HOST", "qdrant.internal")
	t.Setenv("LLM_MAX_TOKENS", "2048")
	t.Setenv("EMBEDDINGS_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 800, cfg.Ingest.ChunkSize)
	assert.Equal(t, "qdrant", cfg.VectorStore.Provider)
	assert.Equal(t, "qdrant.internal", cfg.VectorStore.Qdrant.Host)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 5*time.Second, cfg.Embeddings.Timeout)
}

func TestLoadYAMLFile(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("server:\n  port: 8123\nrag:\n  top_k: 3\nchat:\n  path: /tmp/chats.db\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, "/tmp/chats.db", cfg.Chat.Path)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestValidateRejectsOverlapNotSmallerThanSize(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("INGEST_CHUNK_SIZE", "100")
	t.Setenv("INGEST_CHUNK_OVERLAP", "100")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("VECTORSTORE_PROVIDER", "pinecone")

	_, err := Load("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("super-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "super-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := json.Marshal(struct {
		Key Secret `json:"key"`
	}{Key: s})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "super-secret")

	assert.False(t, Secret("").IsSet())
	assert.Equal(t, "", Secret("").String())
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "server.port", envTransform("SERVER_PORT"))
	assert.Equal(t, "llm.api_key", envTransform("LLM_API_KEY"))
	assert.Equal(t, "vectorstore.qdrant.api_key", envTransform("VECTORSTORE_QDRANT_API_KEY"))
	assert.Equal(t, "vectorstore.chromem.path", envTransform("VECTORSTORE_CHROMEM_PATH"))
	assert.Equal(t, "", envTransform("PATH"))
	assert.Equal(t, "", envTransform("HOME_DIR"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, "pgvector", cfg.Store)
	assert.Equal(t, 1536, cfg.EmbeddingDimension)
	assert.Equal(t, 2000, cfg.ChunkSize)
	assert.Equal(t, 20, cfg.ChunkOverlap)
	assert.Equal(t, 10.0, cfg.FrameInterval)
	assert.Equal(t, 8000, cfg.Port)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store":"memory","port":9100,"chat_model":"gpt-4o"}`), 0644))

	t.Setenv("STORE", "milvus")
	t.Setenv("FRAME_INTERVAL_SEC", "5")
	t.Setenv("EMBEDDING_DIMENSION", "768")
	t.Setenv("CHUNK_SIZE", "1000")
	t.Setenv("CHUNK_OVERLAP", "50")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "gpt-4o", cfg.ChatModel)
	// Environment wins over the file.
	assert.Equal(t, "milvus", cfg.Store)
	assert.Equal(t, 5.0, cfg.FrameInterval)
	assert.Equal(t, 768, cfg.EmbeddingDimension)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.APIKey = "sk-test"
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.APIKey = ""
	assert.ErrorContains(t, (&bad).Validate(), "api_key")

	bad = *cfg
	bad.Store = "redis"
	assert.ErrorContains(t, (&bad).Validate(), "store")

	bad = *cfg
	bad.ChunkOverlap = bad.ChunkSize
	assert.ErrorContains(t, (&bad).Validate(), "chunk_overlap")

	bad = *cfg
	bad.FrameInterval = 0
	assert.ErrorContains(t, (&bad).Validate(), "frame_interval")
}

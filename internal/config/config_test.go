package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
embed_llm:
  provider: ollama
  base_url: http://localhost:11434
  model: nomic-embed-text
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.EmbedLLM.Provider)
	assert.Equal(t, DefaultChunkSize, cfg.RAG.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, cfg.RAG.ChunkOverlap)
	assert.Equal(t, DefaultSentenceLookback, cfg.RAG.SentenceLookback)
	assert.Equal(t, DefaultBatchSize, cfg.RAG.BatchSize)
	assert.Equal(t, DefaultTopK, cfg.RAG.TopK)
	assert.Equal(t, DefaultMaxContextChars, cfg.RAG.MaxContextChars)
	assert.Equal(t, DefaultHighConfidence, cfg.RAG.HighConfidence)
	assert.Equal(t, DefaultMediumConfidence, cfg.RAG.MediumConfidence)
	assert.Equal(t, "memory", cfg.Store.Backend)
}

func TestLoadConfig_ExplicitValuesKept(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_size: 500
  chunk_overlap: 50
  top_k: 3
store:
  backend: chromem
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 50, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, "chromem", cfg.Store.Backend)
}

func TestLoadConfig_RejectsOverlapNotSmallerThanSize(t *testing.T) {
	path := writeConfig(t, `
rag:
  chunk_size: 200
  chunk_overlap: 200
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_ExpandsEnvReferences(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-secret")
	path := writeConfig(t, `
embed_llm:
  key: ${TEST_API_KEY}
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", cfg.EmbedLLM.Key)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

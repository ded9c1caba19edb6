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

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
rag:
  chunk_size: 500
  chunk_overlap: 100
embed_llm:
  provider: "ollama"
  base_url: "http://localhost:11434"
  model: "nomic-embed-text"
llm:
  base_url: "https://openrouter.ai/api/v1"
  key: "test-key"
  model: "test-model"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, "test-model", cfg.LLM.Model)

	// defaults filled in for omitted keys
	assert.Equal(t, 50, cfg.RAG.MinChunkChars)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.Equal(t, "./uploads", cfg.Server.UploadDir)
	assert.Equal(t, "./chromemdb", cfg.Vector.Path)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 0.001)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	var cases = []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "missing llm model", mutate: func(c *Config) { c.LLM.Model = "" }, wantErr: "llm.model"},
		{name: "missing embed model", mutate: func(c *Config) { c.EmbedLLM.Model = "" }, wantErr: "embed_llm.model"},
		{name: "overlap too large", mutate: func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }, wantErr: "chunk_overlap"},
		{name: "database without dsn", mutate: func(c *Config) { c.Database.Enabled = true }, wantErr: "database.dsn"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := &Config{
				EmbedLLM: LLMConfig{Model: "embed"},
				LLM:      LLMConfig{Model: "chat"},
			}
			cfg.ApplyDefaults()
			c.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.wantErr)
		})
	}
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	RAG      RAGConfig      `yaml:"rag"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	LLM      LLMConfig      `yaml:"llm"`
	Vector   VectorConfig   `yaml:"vector"`
	Database DatabaseConfig `yaml:"database"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	UploadDir     string `yaml:"upload_dir"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

type RAGConfig struct {
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	MinChunkChars int    `yaml:"min_chunk_chars"`
	TopK          int    `yaml:"top_k"`
	HistoryTurns  int    `yaml:"history_turns"`
	EncryptionKey string `yaml:"encryption_key"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

type VectorConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Key     string `yaml:"key"`
	Debug   bool   `yaml:"debug"`
}

const (
	defaultAddr          = ":8080"
	defaultUploadDir     = "./uploads"
	defaultMaxUploadSize = 32 << 20
	defaultChunkSize     = 1000
	defaultChunkOverlap  = 200
	defaultMinChunkChars = 50
	defaultTopK          = 5
	defaultHistoryTurns  = 5
	defaultVectorPath    = "./chromemdb"
	defaultTemperature   = 0.3
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values with working defaults
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = defaultUploadDir
	}
	if c.Server.MaxUploadSize == 0 {
		c.Server.MaxUploadSize = defaultMaxUploadSize
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.MinChunkChars == 0 {
		c.RAG.MinChunkChars = defaultMinChunkChars
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.HistoryTurns == 0 {
		c.RAG.HistoryTurns = defaultHistoryTurns
	}
	if c.Vector.Path == "" {
		c.Vector.Path = defaultVectorPath
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = defaultTemperature
	}
}

func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.EmbedLLM.Model == "" {
		return fmt.Errorf("embed_llm.model is required")
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when database.enabled is true")
	}
	return nil
}

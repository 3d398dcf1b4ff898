package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig configures one LLM endpoint (embedding or inference).
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

// RAGConfig holds the chunking and retrieval tunables.
type RAGConfig struct {
	ChunkSize        int     `yaml:"chunk_size"`
	ChunkOverlap     int     `yaml:"chunk_overlap"`
	SentenceLookback int     `yaml:"sentence_lookback"`
	BatchSize        int     `yaml:"batch_size"`
	TopK             int     `yaml:"top_k"`
	MaxContextChars  int     `yaml:"max_context_chars"`
	HighConfidence   float64 `yaml:"high_confidence"`
	MediumConfidence float64 `yaml:"medium_confidence"`
	EncryptionKey    string  `yaml:"encryption_key"`
}

// DatabaseConfig configures the optional pgvector backend.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// StoreConfig configures where named vector stores are persisted.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "memory", "pgvector" or "chromem"
	Dir     string `yaml:"dir"`
}

type Config struct {
	EmbedLLM     LLMConfig      `yaml:"embed_llm"`
	InferenceLLM LLMConfig      `yaml:"inference_llm"`
	RAG          RAGConfig      `yaml:"rag"`
	Database     DatabaseConfig `yaml:"database"`
	Store        StoreConfig    `yaml:"store"`
}

const (
	DefaultChunkSize        = 1000
	DefaultChunkOverlap     = 200
	DefaultSentenceLookback = 100
	DefaultBatchSize        = 100
	DefaultTopK             = 5
	DefaultMaxContextChars  = 4000
	DefaultHighConfidence   = 0.8
	DefaultMediumConfidence = 0.5
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// allow ${VAR} references for secrets
	data = []byte(os.ExpandEnv(string(data)))
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	ApplyDefaults(&cfg)
	if cfg.RAG.ChunkOverlap >= cfg.RAG.ChunkSize {
		return nil, fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			cfg.RAG.ChunkOverlap, cfg.RAG.ChunkSize)
	}
	return &cfg, nil
}

// ApplyDefaults fills zero-valued tunables with their documented defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = DefaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.RAG.SentenceLookback == 0 {
		cfg.RAG.SentenceLookback = DefaultSentenceLookback
	}
	if cfg.RAG.BatchSize == 0 {
		cfg.RAG.BatchSize = DefaultBatchSize
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = DefaultTopK
	}
	if cfg.RAG.MaxContextChars == 0 {
		cfg.RAG.MaxContextChars = DefaultMaxContextChars
	}
	if cfg.RAG.HighConfidence == 0 {
		cfg.RAG.HighConfidence = DefaultHighConfidence
	}
	if cfg.RAG.MediumConfidence == 0 {
		cfg.RAG.MediumConfidence = DefaultMediumConfidence
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "memory"
	}
	if cfg.Store.Dir == "" {
		cfg.Store.Dir = "./stores"
	}
}

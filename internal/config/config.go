// ABOUTME: Centralized configuration for the document research service
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the research service.
type Config struct {
	// Server settings
	ListenAddr string
	DBPath     string

	// OpenAI settings
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Indexing settings
	ChunkSize    int
	ChunkOverlap int

	// Research settings
	MaxIterations int
	TopK          int

	// Fusion settings. RRF contributions from each retriever are scaled by
	// these weights before merging; the ratio is deliberately configurable.
	FusionK             int
	FusionDenseWeight   float64
	FusionLexicalWeight float64
}

// DefaultDataDir returns the default data directory following the XDG spec.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".local/share/docresearch"
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataHome, "docresearch")
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:          getEnv("DOCRESEARCH_ADDR", ":8080"),
		DBPath:              getEnv("DOCRESEARCH_DB", filepath.Join(DefaultDataDir(), "chunks.db")),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		ChatModel:           getEnv("DOCRESEARCH_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:      getEnv("DOCRESEARCH_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:             getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:          getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		ChunkSize:           getEnvInt("DOCRESEARCH_CHUNK_SIZE", 2000),
		ChunkOverlap:        getEnvInt("DOCRESEARCH_CHUNK_OVERLAP", 200),
		MaxIterations:       getEnvInt("RESEARCH_MAX_ITERATIONS", 3),
		TopK:                getEnvInt("RETRIEVAL_TOP_K", 8),
		FusionK:             getEnvInt("FUSION_RRF_K", 60),
		FusionDenseWeight:   getEnvFloat("FUSION_DENSE_WEIGHT", 1.0),
		FusionLexicalWeight: getEnvFloat("FUSION_LEXICAL_WEIGHT", 1.0),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("DOCRESEARCH_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("DOCRESEARCH_CHUNK_OVERLAP must be in [0, chunk size), got %d", c.ChunkOverlap)
	}
	if c.MaxIterations < 1 || c.MaxIterations > 10 {
		return fmt.Errorf("RESEARCH_MAX_ITERATIONS must be 1-10, got %d", c.MaxIterations)
	}
	if c.TopK < 1 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.TopK)
	}
	if c.FusionK < 1 {
		return fmt.Errorf("FUSION_RRF_K must be positive, got %d", c.FusionK)
	}
	if c.FusionDenseWeight < 0 || c.FusionLexicalWeight < 0 {
		return fmt.Errorf("fusion weights must be non-negative, got dense=%f lexical=%f",
			c.FusionDenseWeight, c.FusionLexicalWeight)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

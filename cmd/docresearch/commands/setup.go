// ABOUTME: Shared wiring for commands that need a running system
// ABOUTME: Loads config, opens storage, builds the OpenAI client and core system
package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/config"
	"github.com/harper/docresearch/internal/core"
	"github.com/harper/docresearch/internal/llm"
	"github.com/harper/docresearch/internal/storage"
)

// newLogger builds the process logger honoring the global flags. MCP mode
// must log to stderr because stdout carries the protocol.
func newLogger(toStderr bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}

	out := os.Stdout
	if toStderr {
		out = os.Stderr
	}
	writer := zerolog.ConsoleWriter{Out: out}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// buildSystem loads configuration and assembles the core system. The
// returned cleanup closes the underlying storage.
func buildSystem(log zerolog.Logger) (*core.System, *config.Config, func(), error) {
	// A missing .env file is fine; environment variables take over.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading configuration: %w", err)
	}
	if cfg.OpenAIKey == "" {
		return nil, nil, nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	client, err := llm.NewOpenAIClient(&llm.ClientConfig{
		APIKey:         cfg.OpenAIKey,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		Timeout:        cfg.Timeout,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
	})
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}

	sys := core.New(cfg, store, client, client, log)
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}
	return sys, cfg, cleanup, nil
}

// ABOUTME: Serve command runs the HTTP API server
// ABOUTME: Shuts down gracefully on SIGINT/SIGTERM
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/docresearch/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Serves document upload, indexing status, the streaming chat endpoint,
file listing, the knowledge graph, and memory clearing under /api.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
		Example: `  # Serve on the default address (:8080)
  docresearch serve

  # Serve on a specific port
  docresearch serve --addr :9000`,
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides DOCRESEARCH_ADDR)")
	return cmd
}

func runServe(addr string) error {
	log := newLogger(false)

	sys, cfg, cleanup, err := buildSystem(log)
	if err != nil {
		return err
	}
	defer cleanup()

	if addr == "" {
		addr = cfg.ListenAddr
	}
	srv := server.New(addr, sys, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info().Msg("shutdown complete")
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

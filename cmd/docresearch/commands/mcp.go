// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to research documents via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/docresearch/internal/mcp"
)

// NewMCPCmd creates the MCP command.
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents.

Runs docresearch as an MCP (Model Context Protocol) server over stdio,
exposing document upload, indexing status, research queries, and memory
management as agent tools.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically launched by the agent host)
  docresearch mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "docresearch": {
  #       "command": "docresearch",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}
	return cmd
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol; all logging goes to stderr.
	log := newLogger(true)

	sys, _, cleanup, err := buildSystem(log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := mcpserver.NewMCPServer("Document Research", "0.1.0")
	mcp.RegisterTools(srv, sys, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("mcp server starting on stdio")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(srv)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
		return nil
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

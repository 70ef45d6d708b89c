// ABOUTME: MCP tool definitions and registration for the document research server
// ABOUTME: Exposes research, upload, status, listing, and clear as agent tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/core"
)

// RegisterTools registers all document research tools with the server.
func RegisterTools(server *mcpserver.MCPServer, sys *core.System, log zerolog.Logger) *Handlers {
	handlers := &Handlers{
		sys: sys,
		log: log.With().Str("component", "mcp").Logger(),
	}

	server.AddTool(mcp.Tool{
		Name:        "research_query",
		Description: "Answer a question by iteratively searching the uploaded documents. Returns the answer together with the research loop's thinking steps.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Question to research across the uploaded documents",
				},
				"doc_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Optional doc_ids to restrict the search to (default: all documents)",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.ResearchQuery)

	server.AddTool(mcp.Tool{
		Name:        "add_document",
		Description: "Add a text document to the research corpus. Indexing runs in the background; poll indexing_status for progress.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Plain text content of the document",
				},
				"filename": map[string]interface{}{
					"type":        "string",
					"description": "Display name for the document (default: document.txt)",
				},
			},
			Required: []string{"content"},
		},
	}, handlers.AddDocument)

	server.AddTool(mcp.Tool{
		Name:        "indexing_status",
		Description: "Report the indexing progress of a document by its doc_id.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"doc_id": map[string]interface{}{
					"type":        "string",
					"description": "Document id returned by add_document",
				},
			},
			Required: []string{"doc_id"},
		},
	}, handlers.IndexingStatus)

	server.AddTool(mcp.Tool{
		Name:        "list_documents",
		Description: "List all documents in the research corpus with their chunk counts.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ListDocuments)

	server.AddTool(mcp.Tool{
		Name:        "clear_memory",
		Description: "Delete all documents, chunks, indices, and the knowledge graph. This cannot be undone.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.ClearMemory)

	return handlers
}

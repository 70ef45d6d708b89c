// ABOUTME: MCP tool handler implementations for the document research server
// ABOUTME: Tool errors are returned as results so agents can read them
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/harper/docresearch/internal/core"
	"github.com/harper/docresearch/internal/models"
	"github.com/harper/docresearch/internal/stream"
)

// Handlers implements the MCP tools over a core.System.
type Handlers struct {
	sys *core.System
	log zerolog.Logger
}

// researchResponse is the research_query tool's JSON result.
type researchResponse struct {
	Answer               string                `json:"answer"`
	ThinkingSteps        []models.ThinkingStep `json:"thinking_steps"`
	RetrievedChunksCount int                   `json:"retrieved_chunks_count"`
}

// ResearchQuery handles the research_query tool. MCP is request/response,
// so the run's thinking steps are collected and returned with the answer
// instead of streamed.
func (h *Handlers) ResearchQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	scope := request.GetStringSlice("doc_ids", nil)

	events, err := h.sys.Research(ctx, query, scope)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("research failed to start: %v", err)), nil
	}

	response := researchResponse{ThinkingSteps: []models.ThinkingStep{}}
	for event := range events.Events() {
		switch event.Type {
		case stream.EventThinking:
			response.ThinkingSteps = append(response.ThinkingSteps, *event.Thinking)
		case stream.EventAnswer:
			response.Answer = event.Answer.Answer
			response.RetrievedChunksCount = event.Answer.RetrievedChunksCount
		case stream.EventError:
			return mcp.NewToolResultError(event.Message), nil
		}
	}

	return jsonResult(response)
}

// AddDocument handles the add_document tool.
func (h *Handlers) AddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("content argument is required and must be a string"), nil
	}
	filename := request.GetString("filename", "document.txt")

	result, err := h.sys.Upload(ctx, filename, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("upload failed: %v", err)), nil
	}
	return jsonResult(result)
}

// IndexingStatus handles the indexing_status tool.
func (h *Handlers) IndexingStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, err := request.RequireString("doc_id")
	if err != nil {
		return mcp.NewToolResultError("doc_id argument is required and must be a string"), nil
	}

	job, ok := h.sys.Status(docID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no indexing job for doc_id %q", docID)), nil
	}
	return jsonResult(job)
}

// ListDocuments handles the list_documents tool.
func (h *Handlers) ListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := h.sys.ListFiles()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing documents failed: %v", err)), nil
	}
	if files == nil {
		files = []models.DocumentInfo{}
	}
	return jsonResult(map[string]any{"files": files})
}

// ClearMemory handles the clear_memory tool.
func (h *Handlers) ClearMemory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.sys.Clear(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
	}
	h.log.Info().Msg("memory cleared via mcp")
	return mcp.NewToolResultText("All documents and indices cleared."), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// ABOUTME: Knowledge graph node and edge types for visualization payloads
// ABOUTME: Built per memory session from documents, chunks, and entities
package models

// NodeType classifies a knowledge graph node.
type NodeType string

const (
	NodeDocument NodeType = "document"
	NodeChunk    NodeType = "chunk"
	NodeEntity   NodeType = "entity"
)

// Edge labels used in the knowledge graph.
const (
	EdgeContains = "contains"
	EdgeMentions = "mentions"
	EdgeNext     = "next"
)

// GraphNode is one node in the knowledge graph.
type GraphNode struct {
	ID    string   `json:"id"`
	Type  NodeType `json:"type"`
	Label string   `json:"label"`
	Size  int      `json:"size"`
	Color string   `json:"color"`
}

// GraphEdge is one directed edge in the knowledge graph.
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// GraphStats summarizes a graph snapshot.
type GraphStats struct {
	TotalDocuments int `json:"total_documents"`
	TotalChunks    int `json:"total_chunks"`
	TotalEntities  int `json:"total_entities"`
}

// GraphData is a consistent snapshot of the knowledge graph.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

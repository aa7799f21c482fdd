package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// chunkDocumentTool returns the tool definition for chunk_document
func chunkDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_document",
		Description: "Split document text into retrieval-ready chunks without persisting them",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Document text to chunk",
				},
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier used to derive chunk ids",
				},
				"chunk_size": map[string]interface{}{
					"type":        "integer",
					"description": "Target chunk size in tokens",
					"default":     512,
					"minimum":     1,
				},
				"chunk_overlap": map[string]interface{}{
					"type":        "integer",
					"description": "Overlap between fixed windows, in tokens",
					"default":     50,
					"minimum":     0,
				},
				"max_chunks": map[string]interface{}{
					"type":        "integer",
					"description": "Cap on chunks per document; excess chunks are dropped",
					"default":     100,
					"minimum":     1,
				},
			},
			Required: []string{"text", "document_id"},
		},
	}
}

// ingestPathTool returns the tool definition for ingest_path
func ingestPathTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_path",
		Description: "Chunk, embed, and store every document (.txt, .md, .json) under a path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a document file or directory",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-ingest documents even when content hashes are unchanged",
					"default":     false,
				},
				"skip_embed": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, store chunks without generating embeddings",
					"default":     false,
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Number of concurrent workers (default: number of CPUs)",
					"minimum":     1,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getDocumentTool returns the tool definition for get_document
func getDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_document",
		Description: "Fetch a stored document and its chunk records",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "Document identifier",
				},
				"include_text": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include full chunk text in the response",
					"default":     true,
				},
			},
			Required: []string{"document_id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query store statistics and embedding provider configuration",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

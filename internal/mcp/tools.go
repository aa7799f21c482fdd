package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ragkit/docchunk/internal/chunker"
	"github.com/ragkit/docchunk/internal/pipeline"
	"github.com/ragkit/docchunk/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams     = -32602 // Invalid method parameters
	ErrorCodeInternalError     = -32603 // Internal JSON-RPC error
	ErrorCodeDocumentNotFound  = -32001 // Requested document is not stored
	ErrorCodeIngestInProgress  = -32002 // Another ingestion run is already executing
	ErrorCodeEmptyText         = -32004 // Text parameter is empty
)

// handleChunkDocument handles the chunk_document tool invocation
func (s *Server) handleChunkDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return nil, newMCPError(ErrorCodeEmptyText, "text parameter is required and cannot be empty", map[string]interface{}{
			"param":  "text",
			"reason": "missing or empty",
		})
	}

	documentID, ok := args["document_id"].(string)
	if !ok || documentID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", map[string]interface{}{
			"param":  "document_id",
			"reason": "missing or empty",
		})
	}

	cfg := chunker.Config{
		ChunkSize:       getIntDefault(args, "chunk_size", chunker.DefaultChunkSize),
		ChunkOverlap:    getIntDefault(args, "chunk_overlap", chunker.DefaultChunkOverlap),
		MaxChunksPerDoc: getIntDefault(args, "max_chunks", chunker.DefaultMaxChunksPerDoc),
	}
	if cfg.ChunkSize < 1 || cfg.ChunkOverlap < 0 || cfg.MaxChunksPerDoc < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk parameters must be positive", map[string]interface{}{
			"chunk_size":    cfg.ChunkSize,
			"chunk_overlap": cfg.ChunkOverlap,
			"max_chunks":    cfg.MaxChunksPerDoc,
		})
	}

	ch := chunker.New(cfg, s.logger)
	records := ch.CreateChunks(documentID, text, nil)

	chunks := make([]map[string]interface{}, len(records))
	for i, record := range records {
		chunks[i] = map[string]interface{}{
			"chunk_id":     record.ChunkID,
			"chunk_index":  record.Index,
			"total_chunks": record.TotalChunks,
			"tokens":       record.Tokens,
			"density":      record.Density,
			"chunk_type":   record.ChunkType,
			"position":     string(record.Position),
			"text":         record.Text,
		}
	}

	response := map[string]interface{}{
		"document_id":  documentID,
		"total_chunks": len(chunks),
		"chunks":       chunks,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIngestPath handles the ingest_path tool invocation
func (s *Server) handleIngestPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	config := &pipeline.Config{
		Workers:      getIntDefault(args, "workers", 0),
		ForceReindex: getBoolDefault(args, "force_reindex", false),
		SkipEmbed:    getBoolDefault(args, "skip_embed", false),
	}

	stats, err := s.pipeline.IngestPath(ctx, path, config)
	if err != nil {
		if strings.Contains(err.Error(), "already in progress") {
			return nil, newMCPError(ErrorCodeIngestInProgress, "ingestion already in progress", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "ingestion failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"run_id":             stats.RunID,
		"documents_ingested": stats.DocumentsIngested,
		"documents_skipped":  stats.DocumentsSkipped,
		"documents_failed":   stats.DocumentsFailed,
		"chunks_created":     stats.ChunksCreated,
		"embeddings_created": stats.EmbeddingsCreated,
		"duration_ms":        stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetDocument handles the get_document tool invocation
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documentID, ok := args["document_id"].(string)
	if !ok || documentID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_id parameter is required", map[string]interface{}{
			"param":  "document_id",
			"reason": "missing or empty",
		})
	}
	includeText := getBoolDefault(args, "include_text", true)

	doc, err := s.storage.GetDocument(ctx, documentID)
	if err == storage.ErrNotFound {
		return nil, newMCPError(ErrorCodeDocumentNotFound, "document not found", map[string]interface{}{
			"document_id": documentID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	records, err := s.storage.ListChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list chunks", map[string]interface{}{
			"error": err.Error(),
		})
	}

	chunks := make([]map[string]interface{}, len(records))
	for i, record := range records {
		chunk := record.ToTypesChunk()
		entry := map[string]interface{}{
			"chunk_id":     chunk.ChunkID,
			"chunk_index":  chunk.Index,
			"total_chunks": chunk.TotalChunks,
			"tokens":       chunk.Tokens,
			"density":      chunk.Density,
			"chunk_type":   chunk.ChunkType,
			"position":     string(chunk.Position),
		}
		if includeText {
			entry["text"] = chunk.Text
		}
		chunks[i] = entry
	}

	response := map[string]interface{}{
		"document_id":  doc.ID,
		"source_path":  doc.SourcePath,
		"total_chunks": doc.TotalChunks,
		"ingested_at":  doc.IngestedAt.Format("2006-01-02T15:04:05Z07:00"),
		"chunks":       chunks,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"statistics": map[string]interface{}{
			"documents_count":  status.DocumentsCount,
			"chunks_count":     status.ChunksCount,
			"embeddings_count": status.EmbeddingsCount,
			"db_size_mb":       fmt.Sprintf("%.2f", float64(status.DBSizeBytes)/(1024*1024)),
		},
		"embedding": map[string]interface{}{
			"provider":  s.embedder.Provider(),
			"model":     s.embedder.Model(),
			"dimension": s.embedder.Dimension(),
		},
		"build_mode": storage.BuildMode,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and holds ingestable documents
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		if isDocumentFile(path) {
			return nil
		}
		return ErrNoDocuments
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	hasDocs := false
	_ = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() && isDocumentFile(p) {
			hasDocs = true
		}
		return nil
	})

	if !hasDocs {
		return ErrNoDocuments
	}

	return nil
}

func isDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".json":
		return true
	}
	return false
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNoDocuments     = errors.New("path contains no .txt, .md, or .json documents")
)

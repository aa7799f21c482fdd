// Package mcp implements the Model Context Protocol (MCP) server for the
// document chunking service.
//
// The MCP server exposes four tools to AI assistants:
//   - chunk_document: Split text into retrieval-ready chunks (no persistence)
//   - ingest_path: Chunk, embed, and store documents under a path
//   - get_document: Fetch a stored document and its chunk records
//   - get_status: Check store statistics and embedding configuration
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	docchunk serve
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout.
//
// # Tool: chunk_document
//
//	Request:
//	{
//	  "name": "chunk_document",
//	  "arguments": {
//	    "text": "# Overview\nThe plan pays commission quarterly...",
//	    "document_id": "comp-plan-2024",
//	    "chunk_size": 512
//	  }
//	}
//
//	Response:
//	{
//	  "document_id": "comp-plan-2024",
//	  "total_chunks": 2,
//	  "chunks": [
//	    {"chunk_id": "comp-plan-2024_chunk_1", "chunk_index": 0, ...},
//	    {"chunk_id": "comp-plan-2024_chunk_2", "chunk_index": 1, ...}
//	  ]
//	}
//
// # Tool: ingest_path
//
//	Request:
//	{
//	  "name": "ingest_path",
//	  "arguments": {
//	    "path": "/data/plans",
//	    "force_reindex": false
//	  }
//	}
//
//	Response:
//	{
//	  "run_id": "8f14e45f-...",
//	  "documents_ingested": 12,
//	  "documents_skipped": 3,
//	  "chunks_created": 84,
//	  "embeddings_created": 84,
//	  "duration_ms": 412
//	}
//
// # Error Handling
//
// Tool failures return MCPError values with JSON-RPC style codes:
//
//	-32602  invalid parameters
//	-32603  internal error
//	-32001  document not found
//	-32002  ingestion already in progress
//	-32004  empty text
package mcp

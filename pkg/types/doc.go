// Package types defines the shared data types for docchunk.
//
// The central type is Chunk, the unit of text handed to the embedding stage.
// A chunk carries its position within the source document, an estimated token
// count, and an information-density score alongside any caller-supplied
// document metadata.
//
// # Chunk Identity
//
// Chunks are identified by "{document_id}_chunk_{n}" where n is 1-based.
// For a document producing N chunks, Index values are exactly 0..N-1 in
// source order and TotalChunks equals N on every record.
//
// # Metadata View
//
// Downstream stages consume a flat metadata map rather than the struct:
//
//	meta := chunk.Metadata()
//	// meta["chunk_id"], meta["density"], plus caller fields from Extra
//
// Chunk-specific keys win over caller-supplied keys on collision.
package types

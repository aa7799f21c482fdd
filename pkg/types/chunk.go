package types

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// Position marks where a chunk sits within its document.
type Position string

const (
	PositionStart  Position = "start"
	PositionMiddle Position = "middle"
	PositionEnd    Position = "end"
)

// ChunkTypeSemantic is the chunk type produced by the semantic chunker.
const ChunkTypeSemantic = "semantic"

// Metadata key names used in the merged metadata view.
const (
	MetaDocumentID  = "document_id"
	MetaChunkID     = "chunk_id"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaTokens      = "tokens"
	MetaDensity     = "density"
	MetaChunkType   = "chunk_type"
	MetaPosition    = "position"
)

// Chunk represents a bounded, semantically coherent slice of a document
// prepared for embedding and retrieval.
type Chunk struct {
	// Content
	Text string

	// Identity within the source document
	DocumentID  string
	ChunkID     string // "{document_id}_chunk_{1-based index}"
	Index       int    // 0-based position among the document's chunks
	TotalChunks int

	// Scoring
	Tokens  int     // estimated token count (chars/4)
	Density float64 // information-density score in [0, 1]

	// Classification
	ChunkType string
	Position  Position

	// Extra carries caller-supplied document-level metadata.
	Extra map[string]any
}

// Metadata returns the merged metadata view consumed by the embedding and
// storage stages. Chunk-specific fields take precedence over Extra on key
// collision.
func (c *Chunk) Metadata() map[string]any {
	meta := make(map[string]any, len(c.Extra)+8)
	for k, v := range c.Extra {
		meta[k] = v
	}
	meta[MetaDocumentID] = c.DocumentID
	meta[MetaChunkID] = c.ChunkID
	meta[MetaChunkIndex] = c.Index
	meta[MetaTotalChunks] = c.TotalChunks
	meta[MetaTokens] = c.Tokens
	meta[MetaDensity] = c.Density
	meta[MetaChunkType] = c.ChunkType
	meta[MetaPosition] = string(c.Position)
	return meta
}

// ContentHash computes the SHA-256 hash of the chunk text. Used by the
// embedding cache and for incremental ingestion.
func (c *Chunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.Text))
}

// Validate performs comprehensive validation of the chunk record.
func (c *Chunk) Validate() error {
	if c.Text == "" {
		return errors.New("chunk text cannot be empty")
	}

	if c.DocumentID == "" {
		return errors.New("document id is required")
	}

	if c.Index < 0 {
		return errors.New("chunk index must be non-negative")
	}

	if c.TotalChunks <= c.Index {
		return errors.New("total chunks must exceed chunk index")
	}

	if want := fmt.Sprintf("%s_chunk_%d", c.DocumentID, c.Index+1); c.ChunkID != want {
		return fmt.Errorf("chunk id %q does not match expected %q", c.ChunkID, want)
	}

	if c.Density < 0 || c.Density > 1 {
		return fmt.Errorf("density %f out of range [0, 1]", c.Density)
	}

	switch c.Position {
	case PositionStart, PositionMiddle, PositionEnd:
	default:
		return fmt.Errorf("invalid position %q", c.Position)
	}

	return nil
}

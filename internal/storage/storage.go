package storage

import (
	"context"
	"time"

	"github.com/ragkit/docchunk/pkg/types"
)

// Storage defines the interface for persisting chunked documents and their
// embeddings. It deliberately exposes no retrieval or similarity queries;
// that belongs to an external retrieval engine.
type Storage interface {
	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID string) (*Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID string) ([]*Chunk, error)
	DeleteChunksByDocument(ctx context.Context, documentID string) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, embedding *Embedding) error
	GetEmbedding(ctx context.Context, chunkRowID int64) (*Embedding, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Document represents an ingested source document
type Document struct {
	ID          string // caller-supplied or derived from the file name
	SourcePath  string
	ContentHash [32]byte
	Metadata    map[string]any
	TotalChunks int
	IngestedAt  time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk represents a persisted chunk record
type Chunk struct {
	RowID       int64
	ChunkID     string // "{document_id}_chunk_{n}"
	DocumentID  string
	ChunkIndex  int
	TotalChunks int
	Content     string
	Tokens      int
	Density     float64
	ChunkType   string
	Position    string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Embedding represents a cached vector embedding for a chunk
type Embedding struct {
	ID         int64
	ChunkRowID int64
	Vector     []byte // serialized float32 array
	Dimension  int
	Provider   string
	Model      string
	CreatedAt  time.Time
}

// Status contains statistics about the store
type Status struct {
	DocumentsCount  int
	ChunksCount     int
	EmbeddingsCount int
	DBSizeBytes     int64
}

// FromTypesChunk converts a chunker output record to its storage shape.
func FromTypesChunk(c *types.Chunk) *Chunk {
	return &Chunk{
		ChunkID:     c.ChunkID,
		DocumentID:  c.DocumentID,
		ChunkIndex:  c.Index,
		TotalChunks: c.TotalChunks,
		Content:     c.Text,
		Tokens:      c.Tokens,
		Density:     c.Density,
		ChunkType:   c.ChunkType,
		Position:    string(c.Position),
		Metadata:    c.Extra,
	}
}

// ToTypesChunk converts a storage chunk back to the shared record shape.
func (c *Chunk) ToTypesChunk() *types.Chunk {
	return &types.Chunk{
		Text:        c.Content,
		DocumentID:  c.DocumentID,
		ChunkID:     c.ChunkID,
		Index:       c.ChunkIndex,
		TotalChunks: c.TotalChunks,
		Tokens:      c.Tokens,
		Density:     c.Density,
		ChunkType:   c.ChunkType,
		Position:    types.Position(c.Position),
		Extra:       c.Metadata,
	}
}

package storage

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragkit/docchunk/pkg/types"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestDocumentLifecycle(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := &Document{
		ID:          "comp-plan-2024",
		SourcePath:  "plans/comp-plan-2024.md",
		ContentHash: sha256.Sum256([]byte("body")),
		Metadata:    map[string]any{"region": "EMEA"},
		TotalChunks: 3,
	}
	require.NoError(t, store.UpsertDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "comp-plan-2024")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, doc.SourcePath, got.SourcePath)
	assert.Equal(t, doc.ContentHash, got.ContentHash)
	assert.Equal(t, "EMEA", got.Metadata["region"])
	assert.Equal(t, 3, got.TotalChunks)

	// Upsert replaces in place.
	doc.TotalChunks = 5
	require.NoError(t, store.UpsertDocument(ctx, doc))
	got, err = store.GetDocument(ctx, "comp-plan-2024")
	require.NoError(t, err)
	assert.Equal(t, 5, got.TotalChunks)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	require.NoError(t, store.DeleteDocument(ctx, "comp-plan-2024"))
	_, err = store.GetDocument(ctx, "comp-plan-2024")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetDocument_NotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDocument_NotFound(t *testing.T) {
	store := newTestStorage(t)

	err := store.DeleteDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func insertTestDocument(t *testing.T, store *SQLiteStorage, id string) {
	t.Helper()
	require.NoError(t, store.UpsertDocument(context.Background(), &Document{ID: id}))
}

func TestChunkLifecycle(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	insertTestDocument(t, store, "doc1")

	chunk := &Chunk{
		ChunkID:     "doc1_chunk_1",
		DocumentID:  "doc1",
		ChunkIndex:  0,
		TotalChunks: 2,
		Content:     "Quota attainment pays 10% commission.",
		Tokens:      9,
		Density:     0.42,
		ChunkType:   "semantic",
		Position:    "start",
		Metadata:    map[string]any{"filename": "doc1.txt"},
	}
	require.NoError(t, store.InsertChunk(ctx, chunk))
	assert.Greater(t, chunk.RowID, int64(0), "insert populates the row id")

	got, err := store.GetChunk(ctx, "doc1_chunk_1")
	require.NoError(t, err)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, chunk.Density, got.Density)
	assert.Equal(t, "start", got.Position)
	assert.Equal(t, "doc1.txt", got.Metadata["filename"])

	second := &Chunk{
		ChunkID:     "doc1_chunk_2",
		DocumentID:  "doc1",
		ChunkIndex:  1,
		TotalChunks: 2,
		Content:     "Second chunk body.",
		ChunkType:   "semantic",
		Position:    "end",
	}
	require.NoError(t, store.InsertChunk(ctx, second))

	chunks, err := store.ListChunksByDocument(ctx, "doc1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex, "chunks list in index order")
	assert.Equal(t, 1, chunks[1].ChunkIndex)

	require.NoError(t, store.DeleteChunksByDocument(ctx, "doc1"))
	chunks, err = store.ListChunksByDocument(ctx, "doc1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestInsertChunk_DuplicateIndexRejected(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	insertTestDocument(t, store, "doc1")

	first := &Chunk{ChunkID: "doc1_chunk_1", DocumentID: "doc1", ChunkIndex: 0, Content: "a", ChunkType: "semantic", Position: "start"}
	require.NoError(t, store.InsertChunk(ctx, first))

	dup := &Chunk{ChunkID: "doc1_chunk_1b", DocumentID: "doc1", ChunkIndex: 0, Content: "b", ChunkType: "semantic", Position: "start"}
	assert.Error(t, store.InsertChunk(ctx, dup))
}

func TestDeleteDocument_CascadesToChunks(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	insertTestDocument(t, store, "doc1")

	chunk := &Chunk{ChunkID: "doc1_chunk_1", DocumentID: "doc1", ChunkIndex: 0, Content: "body", ChunkType: "semantic", Position: "start"}
	require.NoError(t, store.InsertChunk(ctx, chunk))

	require.NoError(t, store.DeleteDocument(ctx, "doc1"))

	_, err := store.GetChunk(ctx, "doc1_chunk_1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEmbeddingRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	insertTestDocument(t, store, "doc1")

	chunk := &Chunk{ChunkID: "doc1_chunk_1", DocumentID: "doc1", ChunkIndex: 0, Content: "body", ChunkType: "semantic", Position: "start"}
	require.NoError(t, store.InsertChunk(ctx, chunk))

	vector := []float32{0.1, -0.5, 2.25}
	emb := &Embedding{
		ChunkRowID: chunk.RowID,
		Vector:     SerializeVector(vector),
		Dimension:  3,
		Provider:   "local",
		Model:      "local-deterministic",
	}
	require.NoError(t, store.UpsertEmbedding(ctx, emb))

	got, err := store.GetEmbedding(ctx, chunk.RowID)
	require.NoError(t, err)
	assert.Equal(t, vector, DeserializeVector(got.Vector))
	assert.Equal(t, 3, got.Dimension)
	assert.Equal(t, "local", got.Provider)

	// Upsert replaces the vector for the same chunk.
	emb.Vector = SerializeVector([]float32{1, 1, 1})
	require.NoError(t, store.UpsertEmbedding(ctx, emb))
	got, err = store.GetEmbedding(ctx, chunk.RowID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1}, DeserializeVector(got.Vector))
}

func TestGetStatus(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	insertTestDocument(t, store, "doc1")

	chunk := &Chunk{ChunkID: "doc1_chunk_1", DocumentID: "doc1", ChunkIndex: 0, Content: "body", ChunkType: "semantic", Position: "start"}
	require.NoError(t, store.InsertChunk(ctx, chunk))

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.DocumentsCount)
	assert.Equal(t, 1, status.ChunksCount)
	assert.Equal(t, 0, status.EmbeddingsCount)
	assert.Greater(t, status.DBSizeBytes, int64(0))
}

func TestTransactionCommitAndRollback(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertDocument(ctx, &Document{ID: "committed"}))
	require.NoError(t, tx.Commit())

	_, err = store.GetDocument(ctx, "committed")
	assert.NoError(t, err)

	tx, err = store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertDocument(ctx, &Document{ID: "discarded"}))
	require.NoError(t, tx.Rollback())

	_, err = store.GetDocument(ctx, "discarded")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChunkConversionRoundTrip(t *testing.T) {
	original := &types.Chunk{
		Text:        "Quota attainment pays 10% commission.",
		DocumentID:  "doc1",
		ChunkID:     "doc1_chunk_1",
		Index:       0,
		TotalChunks: 1,
		Tokens:      9,
		Density:     0.42,
		ChunkType:   "semantic",
		Position:    types.PositionStart,
		Extra:       map[string]any{"filename": "doc1.txt"},
	}

	got := FromTypesChunk(original).ToTypesChunk()
	assert.Equal(t, original, got)
	assert.NoError(t, got.Validate())
}

func TestNilMetadataStoresAsNull(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDocument(ctx, &Document{ID: "bare"}))
	got, err := store.GetDocument(ctx, "bare")
	require.NoError(t, err)
	assert.Nil(t, got.Metadata)
}

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragkit/docchunk/internal/chunker"
	"github.com/ragkit/docchunk/internal/pipeline"
	"github.com/ragkit/docchunk/internal/storage"
)

const planFixture = `# Overview
This commission plan covers all quota-carrying sales representatives
for fiscal year 2024. Payouts accrue monthly and settle quarterly.

# Eligibility
Representatives must be employed on the last day of the quarter to
receive a payout for that quarter. Draws and guarantees are handled
under a separate policy document.

# Commission Structure
| Tier | Attainment | Rate |
| ---- | ---------- | ---- |
| 1 | 0-80% | 4% |
| 2 | 80-100% | 6% |
| 3 | 100%+ | 9% |
`

func setup(t *testing.T) (*pipeline.Pipeline, *storage.SQLiteStorage, *MockEmbedder) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "integration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mock := NewMockEmbedder(64)
	ch := chunker.New(chunker.DefaultConfig(), nil)
	return pipeline.New(ch, mock, store, nil), store, mock
}

func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	docs := map[string]string{
		"comp-plan.md": planFixture,
		"notes.txt":    "Informal notes about the rollout schedule and training sessions.",
		"record.json":  `{"content": "Payout dispute resolution takes ten business days.", "author": "ops"}`,
	}
	for name, body := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
}

func TestEndToEndIngestion(t *testing.T) {
	p, store, _ := setup(t)
	dir := t.TempDir()
	writeFixtures(t, dir)
	ctx := context.Background()

	stats, err := p.IngestPath(ctx, dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.DocumentsIngested)
	assert.Equal(t, 0, stats.DocumentsFailed)
	assert.Empty(t, stats.ErrorMessages)
	assert.Equal(t, stats.ChunksCreated, stats.EmbeddingsCreated)

	// The structured plan splits at its headings.
	doc, err := store.GetDocument(ctx, "comp-plan")
	require.NoError(t, err)
	assert.Greater(t, doc.TotalChunks, 1, "heading-structured document yields multiple chunks")

	chunks, err := store.ListChunksByDocument(ctx, "comp-plan")
	require.NoError(t, err)
	require.Len(t, chunks, doc.TotalChunks)

	for i, chunk := range chunks {
		assert.Equal(t, fmt.Sprintf("comp-plan_chunk_%d", i+1), chunk.ChunkID)
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, doc.TotalChunks, chunk.TotalChunks)
		assert.Equal(t, "semantic", chunk.ChunkType)

		emb, err := store.GetEmbedding(ctx, chunk.RowID)
		require.NoError(t, err)
		assert.Equal(t, "mock", emb.Provider)
		assert.Len(t, storage.DeserializeVector(emb.Vector), 64)
	}
	assert.Equal(t, "start", chunks[0].Position)
	assert.Equal(t, "end", chunks[len(chunks)-1].Position)

	// JSON content extraction stores the content value, not the envelope.
	jsonChunks, err := store.ListChunksByDocument(ctx, "record")
	require.NoError(t, err)
	require.Len(t, jsonChunks, 1)
	assert.Equal(t, "Payout dispute resolution takes ten business days.", jsonChunks[0].Content)
	assert.Equal(t, "ops", jsonChunks[0].Metadata["author"])

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, status.DocumentsCount)
	assert.Equal(t, stats.ChunksCreated, status.ChunksCount)
	assert.Equal(t, stats.EmbeddingsCreated, status.EmbeddingsCount)
}

func TestReingestionSkipsUnchanged(t *testing.T) {
	p, _, mock := setup(t)
	dir := t.TempDir()
	writeFixtures(t, dir)
	ctx := context.Background()

	_, err := p.IngestPath(ctx, dir, nil)
	require.NoError(t, err)
	callsAfterFirst := mock.Calls.Load()

	stats, err := p.IngestPath(ctx, dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.DocumentsIngested)
	assert.Equal(t, 3, stats.DocumentsSkipped)
	assert.Equal(t, callsAfterFirst, mock.Calls.Load(), "unchanged documents must not re-embed")
}

func TestIngestionSurvivesBadDocument(t *testing.T) {
	p, store, _ := setup(t)
	dir := t.TempDir()
	writeFixtures(t, dir)
	// Malformed JSON degrades to raw-text chunking rather than failing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"content": "trunc`), 0644))
	ctx := context.Background()

	stats, err := p.IngestPath(ctx, dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.DocumentsIngested)
	assert.Equal(t, 0, stats.DocumentsFailed)

	chunks, err := store.ListChunksByDocument(ctx, "broken")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, `{"content": "trunc`, chunks[0].Content)
}

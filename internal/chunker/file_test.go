package chunker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkFile_PlainText(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "policy.txt")
	require.NoError(t, os.WriteFile(path, []byte("A plain text document body."), 0644))

	c := New(DefaultConfig(), nil)
	chunks, err := c.ChunkFile(path, "")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "policy", chunks[0].DocumentID, "document id derives from the file name")

	meta := chunks[0].Metadata()
	assert.Equal(t, "policy.txt", meta["filename"])
	assert.Equal(t, path, meta["path"])
	assert.Equal(t, ".txt", meta["suffix"])
	assert.Equal(t, 27, meta["size_bytes"])
}

func TestChunkFile_ExplicitDocumentID(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "raw.md")
	require.NoError(t, os.WriteFile(path, []byte("Some markdown content."), 0644))

	c := New(DefaultConfig(), nil)
	chunks, err := c.ChunkFile(path, "plan-2024")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "plan-2024", chunks[0].DocumentID)
	assert.Equal(t, "plan-2024_chunk_1", chunks[0].ChunkID)
}

func TestChunkFile_JSONContent(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "doc.json")
	payload := `{"content": "The actual document text.", "title": "Comp Plan", "year": 2024}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	c := New(DefaultConfig(), nil)
	chunks, err := c.ChunkFile(path, "")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "The actual document text.", chunks[0].Text)

	meta := chunks[0].Metadata()
	assert.Equal(t, "Comp Plan", meta["title"])
	assert.Equal(t, float64(2024), meta["year"])
	assert.NotContains(t, meta, "content", "content key must not leak into metadata")
}

func TestChunkFile_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.json")
	raw := `{"content": "unterminated`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	c := New(DefaultConfig(), nil)
	chunks, err := c.ChunkFile(path, "")

	// Malformed JSON degrades to plain text, never an error.
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, raw, chunks[0].Text)
}

func TestChunkFile_JSONWithoutContentKey(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nokey.json")
	raw := `{"title": "Just metadata, no body text here"}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	c := New(DefaultConfig(), nil)
	chunks, err := c.ChunkFile(path, "")

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, raw, chunks[0].Text, "raw JSON is chunked when no content key exists")
}

func TestChunkFile_EmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "empty.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	c := New(DefaultConfig(), nil)
	chunks, err := c.ChunkFile(path, "")

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkFile_NotFound(t *testing.T) {
	c := New(DefaultConfig(), nil)

	chunks, err := c.ChunkFile("/nonexistent/path/doc.txt", "")

	assert.Error(t, err)
	assert.Nil(t, chunks)
	assert.Contains(t, err.Error(), "read document")
}

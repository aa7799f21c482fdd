package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validChunk() *Chunk {
	return &Chunk{
		Text:        "Commission rates increase with attainment.",
		DocumentID:  "comp-plan",
		ChunkID:     "comp-plan_chunk_1",
		Index:       0,
		TotalChunks: 2,
		Tokens:      10,
		Density:     0.3,
		ChunkType:   ChunkTypeSemantic,
		Position:    PositionStart,
	}
}

func TestChunk_Validate(t *testing.T) {
	assert.NoError(t, validChunk().Validate())

	tests := []struct {
		name   string
		mutate func(*Chunk)
	}{
		{"empty text", func(c *Chunk) { c.Text = "" }},
		{"missing document id", func(c *Chunk) { c.DocumentID = "" }},
		{"negative index", func(c *Chunk) { c.Index = -1 }},
		{"total not exceeding index", func(c *Chunk) { c.TotalChunks = 0 }},
		{"wrong chunk id suffix", func(c *Chunk) { c.ChunkID = "comp-plan_chunk_0" }},
		{"chunk id for other document", func(c *Chunk) { c.ChunkID = "other_chunk_1" }},
		{"density below range", func(c *Chunk) { c.Density = -0.1 }},
		{"density above range", func(c *Chunk) { c.Density = 1.1 }},
		{"invalid position", func(c *Chunk) { c.Position = "first" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChunk()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestChunk_Metadata(t *testing.T) {
	c := validChunk()
	c.Extra = map[string]any{"filename": "plan.md", "tokens": "should lose"}

	meta := c.Metadata()

	assert.Equal(t, "comp-plan", meta[MetaDocumentID])
	assert.Equal(t, "comp-plan_chunk_1", meta[MetaChunkID])
	assert.Equal(t, 0, meta[MetaChunkIndex])
	assert.Equal(t, 2, meta[MetaTotalChunks])
	assert.Equal(t, "semantic", meta[MetaChunkType])
	assert.Equal(t, "start", meta[MetaPosition])
	assert.Equal(t, "plan.md", meta["filename"])
	assert.Equal(t, 10, meta[MetaTokens], "chunk fields win key collisions with Extra")
}

func TestChunk_MetadataDoesNotAliasExtra(t *testing.T) {
	c := validChunk()
	c.Extra = map[string]any{"region": "EMEA"}

	meta := c.Metadata()
	meta["region"] = "APAC"

	assert.Equal(t, "EMEA", c.Extra["region"])
}

func TestChunk_ContentHash(t *testing.T) {
	a := validChunk()
	b := validChunk()
	require.Equal(t, a.ContentHash(), b.ContentHash())

	b.Text = "different"
	assert.NotEqual(t, a.ContentHash(), b.ContentHash())
}

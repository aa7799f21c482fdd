package chunker

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragkit/docchunk/pkg/types"
)

// testLogger returns a logger whose output can be inspected by tests.
func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

// proseWords builds unpunctuated prose of roughly n characters, cycling a
// fixed vocabulary so the text has no structural cues at all.
func proseWords(n int) string {
	words := []string{
		"alpha", "beta", "gamma", "delta", "epsilon", "zeta",
		"eta", "theta", "iota", "kappa", "lambda", "omicron",
	}
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		b.WriteString(words[i%len(words)])
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil)
	require.NotNil(t, c)
	assert.Equal(t, DefaultChunkSize, c.cfg.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.cfg.ChunkOverlap)
	assert.Equal(t, DefaultMaxChunksPerDoc, c.cfg.MaxChunksPerDoc)
	assert.Equal(t, DefaultDensityWeights(), c.cfg.Weights)
}

func TestCreateChunks_EmptyInput(t *testing.T) {
	c := New(DefaultConfig(), nil)

	assert.Empty(t, c.CreateChunks("doc", "", map[string]any{}))
	assert.Empty(t, c.CreateChunks("doc", "   \n\n  ", map[string]any{}))
}

func TestCreateChunks_SingleParagraph(t *testing.T) {
	c := New(DefaultConfig(), nil)

	chunks := c.CreateChunks("doc", "Just a short single paragraph.", nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, "doc_chunk_1", chunks[0].ChunkID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].TotalChunks)
	assert.Equal(t, types.PositionStart, chunks[0].Position)
	assert.Equal(t, types.ChunkTypeSemantic, chunks[0].ChunkType)
}

func TestCreateChunks_HeadingDelimited(t *testing.T) {
	c := New(DefaultConfig(), nil)

	text := "# Overview\nShort intro.\n\n# Eligibility\nMust be employed."
	chunks := c.CreateChunks("plan", text, nil)

	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0].Text, "# Overview"))
	assert.True(t, strings.HasPrefix(chunks[1].Text, "# Eligibility"))
	assert.Equal(t, types.PositionStart, chunks[0].Position)
	assert.Equal(t, types.PositionEnd, chunks[1].Position)
	for _, chunk := range chunks {
		assert.Equal(t, 2, chunk.TotalChunks)
	}
}

func TestCreateChunks_PositionLabels(t *testing.T) {
	c := New(DefaultConfig(), nil)

	text := strings.Join([]string{
		"# Purpose\nWhy the plan exists.",
		"# Eligibility\nWho participates.",
		"# Compensation\nWhat is paid.",
		"# Summary\nClosing notes.",
	}, "\n\n")

	chunks := c.CreateChunks("doc", text, nil)
	require.GreaterOrEqual(t, len(chunks), 3)

	assert.Equal(t, types.PositionStart, chunks[0].Position)
	assert.Equal(t, types.PositionEnd, chunks[len(chunks)-1].Position)
	for _, chunk := range chunks[1 : len(chunks)-1] {
		assert.Equal(t, types.PositionMiddle, chunk.Position)
	}
}

func TestCreateChunks_OrderingAndCoverage(t *testing.T) {
	c := New(DefaultConfig(), nil)

	var sections []string
	for i := 0; i < 8; i++ {
		sections = append(sections, fmt.Sprintf("# Heading Number %c\nBody text for section %c.", 'A'+i, 'A'+i))
	}
	text := strings.Join(sections, "\n\n")

	chunks := c.CreateChunks("doc", text, nil)
	require.NotEmpty(t, chunks)

	// Index values are exactly 0..N-1 in order.
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, len(chunks), chunk.TotalChunks)
		assert.Equal(t, fmt.Sprintf("doc_chunk_%d", i+1), chunk.ChunkID)
		assert.NoError(t, chunk.Validate())
	}

	// Chunk prefixes occur at strictly increasing source offsets.
	last := -1
	for _, chunk := range chunks {
		prefix := chunk.Text
		if len(prefix) > 16 {
			prefix = prefix[:16]
		}
		pos := strings.Index(text[last+1:], prefix)
		require.GreaterOrEqual(t, pos, 0, "chunk prefix %q not found after offset %d", prefix, last)
		last += 1 + pos
	}
}

func TestCreateChunks_CapEnforcement(t *testing.T) {
	logger, buf := testLogger()
	c := New(Config{MaxChunksPerDoc: 4}, logger)

	var sections []string
	for i := 0; i < 10; i++ {
		sections = append(sections, fmt.Sprintf("# Topic %c\nDetail line.", 'A'+i))
	}
	chunks := c.CreateChunks("bigdoc", strings.Join(sections, "\n\n"), nil)

	require.Len(t, chunks, 4)
	assert.Equal(t, 4, chunks[0].TotalChunks)
	assert.Equal(t, types.PositionEnd, chunks[3].Position)

	logged := buf.String()
	assert.Contains(t, logged, "chunk cap exceeded")
	assert.Contains(t, logged, "bigdoc")
	assert.Contains(t, logged, "produced=10")
	assert.Contains(t, logged, "kept=4")
}

func TestCreateChunks_DenseParagraphIsolation(t *testing.T) {
	c := New(DefaultConfig(), nil)

	prose1 := "The plan description applies to all employees in the northern region and explains how awards are computed over the course of the year"
	dense := strings.TrimSpace(strings.Repeat("$1,500 12% $2,200 15% $3,800 18% ", 20))
	prose2 := "Any questions about the document should be directed to the plan administrator during normal business hours"

	chunks := c.CreateChunks("doc", prose1+"\n\n"+dense+"\n\n"+prose2, nil)

	require.Len(t, chunks, 3)
	assert.Equal(t, dense, chunks[1].Text)
	assert.Greater(t, chunks[1].Density, DefaultDensityWeights().HighDensityThreshold)
	assert.Greater(t, chunks[1].Tokens, standaloneMinTokens)
	assert.Less(t, chunks[0].Density, DefaultDensityWeights().HighDensityThreshold)
}

func TestCreateChunks_NoStructureFixedWindow(t *testing.T) {
	c := New(Config{ChunkSize: 50, ChunkOverlap: 10}, nil)
	window := 50 * CharsPerToken

	text := proseWords(5 * window)
	chunks := c.CreateChunks("doc", text, nil)

	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Text), window)
	}

	// Consecutive chunks overlap: the head of each chunk re-covers the tail
	// of the previous one.
	for i := 0; i < len(chunks)-1; i++ {
		head := chunks[i+1].Text
		if len(head) > 30 {
			head = head[:30]
		}
		assert.Contains(t, chunks[i].Text, strings.TrimSpace(head))
	}
}

func TestCreateChunks_MultiByteTextStaysValidUTF8(t *testing.T) {
	c := New(Config{ChunkSize: 50, ChunkOverlap: 10}, nil)

	// A long unbroken run of CJK prose takes the fixed-window fallback; its
	// byte windows must never cut a rune in half.
	text := strings.Repeat("酬金计划按季度结算并与配额挂钩", 60)
	chunks := c.CreateChunks("doc", text, nil)

	require.Greater(t, len(chunks), 1)
	var rebuilt strings.Builder
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Text), "chunk %s is not valid UTF-8", chunk.ChunkID)
		rebuilt.WriteString(chunk.Text)
	}
	assert.True(t, utf8.ValidString(rebuilt.String()))
}

func TestCreateChunks_SizeBound(t *testing.T) {
	c := New(DefaultConfig(), nil)
	limit := c.oversizeLimit()

	text := strings.Join([]string{
		"# Overview\n" + proseWords(1200) + ".",
		proseWords(3000) + ".",
		"# Compensation\nBase salary plus variable pay.",
	}, "\n\n")

	chunks := c.CreateChunks("doc", text, nil)
	require.NotEmpty(t, chunks)

	for _, chunk := range chunks {
		if chunk.Density > c.cfg.Weights.HighDensityThreshold {
			// The standalone high-density path is the intentional exception
			// to the size bound.
			continue
		}
		assert.LessOrEqual(t, chunk.Tokens, limit, "chunk %s exceeds size bound", chunk.ChunkID)
	}
}

func TestCreateChunks_MetadataMerge(t *testing.T) {
	c := New(DefaultConfig(), nil)

	meta := map[string]any{
		"source":   "upload",
		"chunk_id": "caller-supplied-should-lose",
	}
	chunks := c.CreateChunks("doc", "A short document body.", meta)

	require.Len(t, chunks, 1)
	view := chunks[0].Metadata()
	assert.Equal(t, "upload", view["source"])
	assert.Equal(t, "doc_chunk_1", view["chunk_id"], "chunk fields win on collision")
	assert.Equal(t, "doc", view["document_id"])
	assert.Equal(t, 0, view["chunk_index"])
	assert.Equal(t, 1, view["total_chunks"])
	assert.Equal(t, "semantic", view["chunk_type"])
	assert.Equal(t, "start", view["position"])
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("four"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("a", 100)))
}

package chunker

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ragkit/docchunk/pkg/types"
)

const (
	// CharsPerToken is the heuristic for estimating tokens (chars/4).
	// A deliberate approximation: it keeps the critical path free of a
	// tokenizer dependency.
	CharsPerToken = 4

	// DefaultChunkSize is the default target token count per chunk.
	DefaultChunkSize = 512

	// DefaultChunkOverlap is the default token overlap used by the
	// fixed-size window fallback.
	DefaultChunkOverlap = 50

	// DefaultMaxChunksPerDoc caps how many chunks one document may produce.
	DefaultMaxChunksPerDoc = 100

	// oversizeFactor bounds chunk size: candidates above
	// ChunkSize*oversizeFactor are pushed down the fallback chain.
	oversizeFactor = 1.5

	// minBreakEvidence is the number of break-rule matches the text must
	// exceed before break-based slicing is trusted over density guidance.
	minBreakEvidence = 3

	// standaloneMinTokens is the token floor for isolating a high-density
	// paragraph during large-chunk splitting.
	standaloneMinTokens = 100

	// minWindowAdvance guarantees forward progress in the window fallback.
	minWindowAdvance = 100
)

// Config holds chunker configuration. Zero values fall back to defaults.
type Config struct {
	ChunkSize       int // target tokens per chunk
	ChunkOverlap    int // token overlap, fixed-size fallback only
	MaxChunksPerDoc int
	Weights         DensityWeights
}

// DefaultConfig returns the default chunker configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:       DefaultChunkSize,
		ChunkOverlap:    DefaultChunkOverlap,
		MaxChunksPerDoc: DefaultMaxChunksPerDoc,
		Weights:         DefaultDensityWeights(),
	}
}

// Chunker segments document text into size-bounded, semantically coherent
// chunks. It is stateless across calls and safe for concurrent use.
type Chunker struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Chunker. Zero config fields take defaults; a nil logger
// falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Chunker {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.MaxChunksPerDoc <= 0 {
		cfg.MaxChunksPerDoc = DefaultMaxChunksPerDoc
	}
	if cfg.Weights == (DensityWeights{}) {
		cfg.Weights = DefaultDensityWeights()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chunker{cfg: cfg, logger: logger}
}

// EstimateTokens estimates the number of language-model tokens in text.
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// CreateChunks converts a document's raw text plus metadata into an ordered
// sequence of chunk records. Empty or whitespace-only content yields nil
// without error. The call is pure: no state is retained between invocations.
func (c *Chunker) CreateChunks(documentID, content string, meta map[string]any) []*types.Chunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	texts := c.splitText(content)

	// Later content is silently dropped from indexing when the cap hits;
	// surface the loss to the caller rather than hiding it.
	if len(texts) > c.cfg.MaxChunksPerDoc {
		c.logger.Warn("chunk cap exceeded, truncating document",
			"document_id", documentID,
			"produced", len(texts),
			"kept", c.cfg.MaxChunksPerDoc)
		texts = texts[:c.cfg.MaxChunksPerDoc]
	}

	chunks := make([]*types.Chunk, 0, len(texts))
	for i, text := range texts {
		position := types.PositionMiddle
		switch {
		case i == 0:
			position = types.PositionStart
		case i == len(texts)-1:
			position = types.PositionEnd
		}

		// Density is recomputed on the final chunk text: intermediate
		// scores were taken on pre-split paragraphs.
		chunks = append(chunks, &types.Chunk{
			Text:        text,
			DocumentID:  documentID,
			ChunkID:     fmt.Sprintf("%s_chunk_%d", documentID, i+1),
			Index:       i,
			TotalChunks: len(texts),
			Tokens:      EstimateTokens(text),
			Density:     c.cfg.Weights.Score(text),
			ChunkType:   types.ChunkTypeSemantic,
			Position:    position,
			Extra:       meta,
		})
	}
	return chunks
}

// oversizeLimit is the token count above which a candidate chunk must be
// split further.
func (c *Chunker) oversizeLimit() int {
	return int(float64(c.cfg.ChunkSize) * oversizeFactor)
}

// adjustedTarget shrinks the accumulation target for dense content so that
// embeddings of dense passages are not diluted.
func (c *Chunker) adjustedTarget(density float64) int {
	return int(float64(c.cfg.ChunkSize) * (1 - density*c.cfg.Weights.SizeSensitivity))
}

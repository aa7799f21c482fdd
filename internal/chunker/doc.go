// Package chunker segments raw document text into semantically coherent,
// size-bounded chunks for embedding and retrieval.
//
// # Basic Usage
//
//	c := chunker.New(chunker.DefaultConfig(), logger)
//	chunks := c.CreateChunks("comp-plan-2024", text, map[string]any{"source": "upload"})
//
//	for _, chunk := range chunks {
//	    fmt.Printf("%s: %d tokens, density %.2f\n",
//	        chunk.ChunkID, chunk.Tokens, chunk.Density)
//	}
//
// # Strategy Chain
//
// Chunking falls through an ordered chain of strategies:
//
//  1. Semantic breaks: a rule table of structural cues (headings, section
//     markers, bullets, table rows, compensation formulas) marks candidate
//     boundaries; with enough evidence the text is sliced at them.
//  2. Density-guided accumulation: paragraphs merge into a running chunk
//     whose target size shrinks as information density rises; high-density
//     paragraphs are isolated into standalone chunks.
//  3. Large-chunk splitting: oversized candidates split at paragraph
//     boundaries, then sentence boundaries, then fixed-size character
//     windows with overlap.
//
// # Density
//
// Density scores how numerically and structurally rich a passage is
// (digits, currency, table rows, business keywords). Rate tables and payout
// schedules score high and are kept apart from prose so their embeddings
// stay sharp. The weights are exposed in DensityWeights for tuning.
//
// # Error Model
//
// CreateChunks never fails: empty input yields zero chunks, and exceeding
// the per-document chunk cap truncates with a logged warning. The chunker
// sits in a batch pipeline where one bad document must not halt the rest.
//
// Token counts are estimated at chars/4, not tokenized.
package chunker

package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// splitFunc is one stage of the fallback chain. It returns the split and
// true when the stage could produce a satisfactory result, or false to fall
// through to the next stage.
type splitFunc func(text string) ([]string, bool)

// splitText chooses the top-level strategy: slice at semantic breaks when
// the text shows enough structural evidence, otherwise accumulate
// paragraphs under density guidance.
func (c *Chunker) splitText(text string) []string {
	positions, evidence := findBreaks(text)
	if evidence > minBreakEvidence {
		return c.splitAtBreaks(text, positions)
	}
	return c.accumulateParagraphs(text)
}

// splitAtBreaks slices text at consecutive break positions. Oversized
// candidates are reduced through the fallback chain and their sub-chunks
// substituted in place.
func (c *Chunker) splitAtBreaks(text string, positions []int) []string {
	var chunks []string
	for i, pos := range positions {
		end := len(text)
		if i+1 < len(positions) {
			end = positions[i+1]
		}
		piece := strings.TrimSpace(text[pos:end])
		if piece == "" {
			continue
		}
		if EstimateTokens(piece) > c.oversizeLimit() {
			chunks = append(chunks, c.splitLarge(piece)...)
			continue
		}
		chunks = append(chunks, piece)
	}
	return chunks
}

// accumulateParagraphs walks blank-line-delimited paragraphs in order,
// merging them into a running chunk whose target size shrinks with density.
// High-density paragraphs are emitted standalone regardless of size so that
// rate tables and payout schedules are never diluted by surrounding prose.
func (c *Chunker) accumulateParagraphs(text string) []string {
	paragraphs := splitParagraphBlocks(text)

	var chunks []string
	var pending []string
	pendingTokens := 0

	flush := func() {
		if len(pending) > 0 {
			chunks = append(chunks, strings.Join(pending, "\n\n"))
			pending = nil
			pendingTokens = 0
		}
	}

	for _, para := range paragraphs {
		density := c.cfg.Weights.Score(para)

		if density > c.cfg.Weights.HighDensityThreshold {
			flush()
			chunks = append(chunks, para)
			continue
		}

		tokens := EstimateTokens(para)
		if tokens > c.oversizeLimit() {
			flush()
			chunks = append(chunks, c.splitLarge(para)...)
			continue
		}

		if pendingTokens > 0 && pendingTokens+tokens > c.adjustedTarget(density) {
			flush()
		}
		pending = append(pending, para)
		pendingTokens += tokens
	}
	flush()

	if len(chunks) == 0 {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// splitLarge reduces an oversized chunk through the fallback chain:
// paragraph boundaries, then sentence boundaries, then fixed-size windows.
func (c *Chunker) splitLarge(text string) []string {
	for _, split := range []splitFunc{c.splitOnParagraphs, c.splitOnSentences} {
		if parts, ok := split(text); ok {
			return parts
		}
	}
	return c.splitFixedWindow(text)
}

// splitOnParagraphs splits at blank-line boundaries. High-density paragraphs
// above the standalone token floor get their own chunk; the rest accumulate
// up to the density-adjusted target. Fails when no paragraph boundary exists.
func (c *Chunker) splitOnParagraphs(text string) ([]string, bool) {
	paragraphs := splitParagraphBlocks(text)
	if len(paragraphs) < 2 {
		return nil, false
	}

	var chunks []string
	var pending []string
	pendingTokens := 0

	flush := func() {
		if len(pending) > 0 {
			chunks = append(chunks, strings.Join(pending, "\n\n"))
			pending = nil
			pendingTokens = 0
		}
	}

	for _, para := range paragraphs {
		density := c.cfg.Weights.Score(para)
		tokens := EstimateTokens(para)

		if density > c.cfg.Weights.HighDensityThreshold && tokens > standaloneMinTokens {
			flush()
			chunks = append(chunks, para)
			continue
		}

		// A single paragraph with no internal boundary still has to respect
		// the size bound; push it down the chain.
		if tokens > c.oversizeLimit() {
			flush()
			chunks = append(chunks, c.splitLarge(para)...)
			continue
		}

		if pendingTokens > 0 && pendingTokens+tokens > c.adjustedTarget(density) {
			flush()
		}
		pending = append(pending, para)
		pendingTokens += tokens
	}
	flush()

	return chunks, len(chunks) > 0
}

// sentenceBoundary matches sentence-ending punctuation followed by
// whitespace and a capital letter.
var sentenceBoundary = regexp.MustCompile(`[.!?][ \t\r\n]+[A-Z]`)

// splitOnSentences splits at sentence boundaries and accumulates sentences
// up to the plain target size. Fails when no boundary exists or when a
// produced chunk still exceeds the oversize limit.
func (c *Chunker) splitOnSentences(text string) ([]string, bool) {
	locs := sentenceBoundary.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil, false
	}

	var sentences []string
	start := 0
	for _, loc := range locs {
		// Keep the punctuation with the sentence it ends; the capital
		// letter belongs to the next one.
		sentences = append(sentences, strings.TrimSpace(text[start:loc[0]+1]))
		start = loc[1] - 1
	}
	sentences = append(sentences, strings.TrimSpace(text[start:]))

	var chunks []string
	var pending []string
	pendingTokens := 0
	for _, sentence := range sentences {
		if sentence == "" {
			continue
		}
		tokens := EstimateTokens(sentence)
		if pendingTokens > 0 && pendingTokens+tokens > c.cfg.ChunkSize {
			chunks = append(chunks, strings.Join(pending, " "))
			pending = nil
			pendingTokens = 0
		}
		pending = append(pending, sentence)
		pendingTokens += tokens
	}
	if len(pending) > 0 {
		chunks = append(chunks, strings.Join(pending, " "))
	}

	if len(chunks) == 0 {
		return nil, false
	}
	for _, chunk := range chunks {
		if EstimateTokens(chunk) > c.oversizeLimit() {
			return nil, false
		}
	}
	return chunks, true
}

// splitFixedWindow is the last-resort strategy: slide a fixed-size character
// window over the text, preferring to end each window at a sentence period
// in its second half, else at the last space after its first third. The
// window start advances by at least minWindowAdvance characters per step,
// which bounds the iteration count by len(text)/minWindowAdvance.
func (c *Chunker) splitFixedWindow(text string) []string {
	window := c.cfg.ChunkSize * CharsPerToken
	overlap := c.cfg.ChunkOverlap * CharsPerToken

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + window
		if end >= len(text) {
			end = len(text)
		} else {
			end = snapRuneStart(text, end)
			slice := text[start:end]
			half := len(slice) / 2
			if idx := strings.LastIndex(slice[half:], ". "); idx != -1 {
				end = start + half + idx + 1
			} else if idx := strings.LastIndexByte(slice, ' '); idx > len(slice)/3 {
				end = start + idx
			}
		}

		if piece := strings.TrimSpace(text[start:end]); piece != "" {
			chunks = append(chunks, piece)
		}

		if end >= len(text) {
			break
		}
		next := end - overlap
		if next < start+minWindowAdvance {
			next = start + minWindowAdvance
		}
		start = snapRuneStart(text, next)
	}
	return chunks
}

// snapRuneStart walks i back to the start of the rune it lands inside, so
// window slices never cut a multi-byte UTF-8 sequence. A rune is at most
// four bytes, so the walk shifts a boundary by at most three, well under
// minWindowAdvance.
func snapRuneStart(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

var paragraphSeparator = regexp.MustCompile(`\n[ \t]*\n`)

// splitParagraphBlocks splits text on blank-line runs, trimming each block
// and dropping empties.
func splitParagraphBlocks(text string) []string {
	raw := paragraphSeparator.Split(text, -1)
	blocks := make([]string, 0, len(raw))
	for _, block := range raw {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			blocks = append(blocks, trimmed)
		}
	}
	return blocks
}

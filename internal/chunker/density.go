package chunker

import (
	"math"
	"regexp"
	"strings"
)

// DensityWeights holds the tunable constants of the information-density
// heuristic. The defaults were tuned on compensation-plan documents; they
// are configuration, not contracts.
type DensityWeights struct {
	BulletWeight   float64 // per bullet-marker line
	HeadingWeight  float64 // per heading-like line
	TableRowWeight float64 // per table-row-like line
	TermWeight     float64 // per business-keyword occurrence

	// HighDensityThreshold is the score above which a paragraph is isolated
	// into its own chunk instead of being merged with surrounding prose.
	HighDensityThreshold float64

	// SizeSensitivity scales how strongly density shrinks the target chunk
	// size: target = ChunkSize * (1 - density*SizeSensitivity).
	SizeSensitivity float64
}

// DefaultDensityWeights returns the tuned default weights.
func DefaultDensityWeights() DensityWeights {
	return DensityWeights{
		BulletWeight:         0.01,
		HeadingWeight:        0.05,
		TableRowWeight:       0.05,
		TermWeight:           0.01,
		HighDensityThreshold: 0.4,
		SizeSensitivity:      0.5,
	}
}

// numericChars are the characters counted toward numeric/punctuation density.
const numericChars = "0123456789$%.,;:()[]{}"

// densityTerms are business keywords whose presence marks a passage as
// compensation/sales content worth isolating.
var densityTerms = []string{
	"quota", "bonus", "commission", "revenue", "sales",
	"target", "goal", "payout", "incentive",
}

var (
	bulletLine  = regexp.MustCompile(`^[-*•][ \t]+`)
	headingLine = regexp.MustCompile(`^#{1,6}[ \t]+\S|^[A-Z][A-Z0-9 \t&/,-]{3,}$`)
	symbolLine  = regexp.MustCompile(`^[0-9$%.,;:()\[\]{}|+\t -]+$`)
)

// Score estimates how numerically and structurally information-rich a text
// segment is, on a [0, 1] scale. Dense passages (rate tables, payout
// schedules) should not be diluted by merging with loose prose.
func (w DensityWeights) Score(text string) float64 {
	if len(text) == 0 {
		return 0
	}

	// Fraction of characters that are digits or numeric punctuation.
	numeric := 0
	for i := 0; i < len(text); i++ {
		if strings.IndexByte(numericChars, text[i]) >= 0 {
			numeric++
		}
	}
	score := float64(numeric) / float64(len(text))

	// Structural cues: bullets, headings, table-like rows.
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case bulletLine.MatchString(trimmed):
			score += w.BulletWeight
		case headingLine.MatchString(trimmed):
			score += w.HeadingWeight
		case isTableRowLine(trimmed):
			score += w.TableRowWeight
		}
	}

	// Business-keyword occurrences.
	lower := strings.ToLower(text)
	for _, term := range densityTerms {
		score += float64(strings.Count(lower, term)) * w.TermWeight
	}

	return math.Min(1.0, score)
}

// isTableRowLine reports whether a line looks like a row of tabular data:
// a markdown table row, or a line of nothing but numbers and symbols.
func isTableRowLine(line string) bool {
	if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
		return true
	}
	return symbolLine.MatchString(line) && strings.ContainsAny(line, "0123456789")
}

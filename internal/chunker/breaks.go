package chunker

import (
	"regexp"
	"sort"
)

// breakRule pairs a structural cue with the regular expression that detects
// it. Rules are data: adding or tuning a pattern never touches control flow.
type breakRule struct {
	name string
	re   *regexp.Regexp
}

// breakRules is the library of structural cues treated as semantic breaks.
// Match start offsets become candidate chunk boundaries.
var breakRules = []breakRule{
	{"markdown_heading", regexp.MustCompile(`(?m)^#{1,6}[ \t]+\S`)},
	{"caps_header", regexp.MustCompile(`(?m)^[A-Z][A-Z0-9 \t&/,-]{3,}$`)},
	{"numbered_section", regexp.MustCompile(`(?m)^[ \t]*\d+(?:\.\d+)*[.)][ \t]+`)},
	{"lettered_section", regexp.MustCompile(`(?m)^[ \t]*\(?[a-zA-Z][.)][ \t]+`)},
	{"roman_section", regexp.MustCompile(`(?m)^[ \t]*(?:IX|IV|V?I{1,3}|X{1,3})[.)][ \t]+`)},
	{"bullet", regexp.MustCompile(`(?m)^[ \t]*[-*•][ \t]+`)},
	{"legal_section", regexp.MustCompile(`(?mi)^[ \t]*(?:article|section)[ \t]+\d+`)},
	{"section_label", regexp.MustCompile(`(?mi)^#{0,6}[ \t]*(?:purpose|overview|introduction|background|summary|conclusion|eligibility|compensation|commission)\b`)},
	{"markdown_table_row", regexp.MustCompile(`(?m)^[ \t]*\|.+\|[ \t]*$`)},
	{"ascii_table_border", regexp.MustCompile(`(?m)^[ \t]*[+=_-]{4,}[ \t]*$`)},
	{"repeated_percent", regexp.MustCompile(`(?:\d+(?:\.\d+)?%[ \t,;]*){2,}`)},
	{"repeated_dollar", regexp.MustCompile(`(?:\$\d[\d,]*(?:\.\d+)?[ \t,;]*){2,}`)},
	{"formula_phrase", regexp.MustCompile(`(?i)(?:percentage[ \t]+of|\$[ \t]*per\b|per[ \t]+dollar|quota[ \t]+attainment|target[ \t]+bonus|bonus[ \t]+calculation|commission[ \t]+rate)`)},
}

// findBreaks scans text with every break rule. It returns the sorted,
// deduplicated start offsets of all matches (offset 0 always included) and
// the total number of matches observed. The caller gates on the match count:
// several rules confirming the same offset is stronger evidence of structure
// than a single pattern firing once.
func findBreaks(text string) (positions []int, evidence int) {
	seen := map[int]struct{}{0: {}}
	for _, rule := range breakRules {
		for _, loc := range rule.re.FindAllStringIndex(text, -1) {
			seen[loc[0]] = struct{}{}
			evidence++
		}
	}

	positions = make([]int, 0, len(seen))
	for p := range seen {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	return positions, evidence
}

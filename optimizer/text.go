package optimizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+(?:\s+|$)`)
	slugStripRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// collapseSpaces normalizes all runs of whitespace to single spaces.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// splitSentences breaks visible text into trimmed sentences without their
// terminating punctuation. Empty fragments are dropped.
func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(collapseSpaces(text), -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// firstWords returns at most n leading words of s.
func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// titleCase upper-cases the first rune of every word. Unlike strings.Title
// it leaves the remaining runes alone, so acronyms survive.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// slugify turns free text into a URL path segment.
func slugify(s string) string {
	s = slugStripRe.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(s, "-")
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// keywordDensity computes (occurrences x keyword word count) / total word
// count x 100. Occurrences are matched case-insensitively on word
// boundaries, so "go" does not count inside "gopher".
func keywordDensity(text, keyword string) float64 {
	keyword = collapseSpaces(keyword)
	if keyword == "" {
		return 0
	}
	text = collapseSpaces(text)
	total := len(strings.Fields(text))
	if total == 0 {
		return 0
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
	occurrences := len(re.FindAllStringIndex(text, -1))
	kwWords := len(strings.Fields(keyword))
	return float64(occurrences*kwWords) / float64(total) * 100
}

// fitToWindow pads s with filler until it reaches min runes, then clips it
// to max. The result is always within [min, max]; input already inside the
// window comes back unchanged.
func fitToWindow(s string, min, max int, filler string) string {
	s = collapseSpaces(s)
	for runeLen(s) < min {
		s = strings.TrimRight(s, " ") + filler
	}
	if runeLen(s) > max {
		r := []rune(s)
		s = strings.TrimRight(string(r[:max]), " |,;:-–—")
		// trimming separators can undershoot; pad back deterministically
		for runeLen(s) < min {
			s += "."
		}
	}
	return s
}

package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitSentences splits text on sentence boundaries: a run of
// terminators (. ! ?) followed by whitespace and an upper-case letter.
// Go's RE2 has no lookaround, so the boundary scan is done by hand.
// The heuristic is deliberately simple; abbreviations like "e.g." can
// produce short fragments, which the accumulator absorbs harmlessly.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}

		// Consume the full terminator run ("...", "?!").
		end := i + 1
		for end < len(text) && isTerminator(text[end]) {
			end++
		}

		// Boundary requires whitespace then an upper-case letter.
		j := end
		for j < len(text) && isSpace(text[j]) {
			j++
		}
		if j == end || j >= len(text) {
			i = end - 1
			continue
		}
		r, _ := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsUpper(r) {
			i = end - 1
			continue
		}

		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = j
		i = j - 1
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

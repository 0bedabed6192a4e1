package chunk

import (
	"regexp"
	"sort"
	"strings"
)

// Canonical names for recognized scientific-paper sections.
var sectionNormalization = map[string]string{
	"abstract":                "Abstract",
	"introduction":            "Introduction",
	"background":              "Introduction",
	"method":                  "Methods",
	"methods":                 "Methods",
	"material":                "Methods",
	"materials":               "Methods",
	"materials and methods":   "Methods",
	"result":                  "Results",
	"results":                 "Results",
	"results and discussion":  "Results and Discussion",
	"discussion":              "Discussion",
	"conclusion":              "Conclusion",
	"conclusions":             "Conclusion",
	"reference":               "References",
	"references":              "References",
	"acknowledgement":         "Acknowledgements",
	"acknowledgements":        "Acknowledgements",
	"supplementary":           "Supplementary",
	"appendix":                "Appendix",
}

var sectionHeadingRe = regexp.MustCompile(
	`(?im)^[ \t]*(?:\d+\.?[ \t]*)?(abstract|introduction|background|methods?|materials?(?:[ \t]+and[ \t]+methods?)?|results?(?:[ \t]+and[ \t]+discussion)?|discussion|conclusions?|references?|acknowledgements?|supplementary|appendix)[ \t]*$`)

// ExtractSections detects common scientific-paper section headings and
// returns the sections in document order. Returns nil when no headings
// are found, in which case callers chunk the document as a whole.
func ExtractSections(text string) []Section {
	matches := sectionHeadingRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	type heading struct {
		start, end int
		name       string
	}

	var headings []heading
	for _, m := range matches {
		raw := strings.ToLower(strings.TrimSpace(text[m[2]:m[3]]))
		raw = strings.Join(strings.Fields(raw), " ")
		name, ok := sectionNormalization[raw]
		if !ok {
			continue
		}
		headings = append(headings, heading{start: m[0], end: m[1], name: name})
	}
	if len(headings) == 0 {
		return nil
	}

	sort.Slice(headings, func(i, j int) bool { return headings[i].start < headings[j].start })

	sections := make([]Section, 0, len(headings))
	for i, h := range headings {
		contentStart := h.end
		contentEnd := len(text)
		if i+1 < len(headings) {
			contentEnd = headings[i+1].start
		}
		content := strings.TrimSpace(text[contentStart:contentEnd])
		if content == "" {
			continue
		}
		sections = append(sections, Section{
			Name:     h.name,
			Content:  content,
			StartPos: contentStart,
			EndPos:   contentEnd,
		})
	}

	return sections
}

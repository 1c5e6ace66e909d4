package ui

import (
	"html/template"
	"sort"
	"strings"
)

// Highlight escapes text and wraps every case-insensitive occurrence of
// the given terms in <mark class="highlighted">. Longer terms win where
// matches overlap.
func Highlight(text string, terms []string) template.HTML {
	lower := strings.ToLower(text)
	if len(lower) != len(text) || len(terms) == 0 {
		return template.HTML(template.HTMLEscapeString(text))
	}

	sorted := make([]string, 0, len(terms))
	for _, term := range terms {
		trimmed := strings.TrimSpace(term)
		if lowered := strings.ToLower(trimmed); lowered != "" && len(lowered) == len(trimmed) {
			sorted = append(sorted, lowered)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	var b strings.Builder
	rest := 0
	for rest < len(text) {
		start, end := -1, -1
		for _, term := range sorted {
			idx := strings.Index(lower[rest:], term)
			if idx < 0 {
				continue
			}
			if start < 0 || rest+idx < start {
				start, end = rest+idx, rest+idx+len(term)
			}
		}
		if start < 0 {
			break
		}
		b.WriteString(template.HTMLEscapeString(text[rest:start]))
		b.WriteString(`<mark class="highlighted">`)
		b.WriteString(template.HTMLEscapeString(text[start:end]))
		b.WriteString(`</mark>`)
		rest = end
	}
	b.WriteString(template.HTMLEscapeString(text[rest:]))
	return template.HTML(b.String())
}

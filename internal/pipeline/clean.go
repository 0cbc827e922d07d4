// internal/pipeline/clean.go
package pipeline

import (
	"regexp"
	"strings"
)

var (
	spacesRE  = regexp.MustCompile(`\s+`)
	htmlTagRE = regexp.MustCompile(`<[^>]*>`)
)

// CleanText trims and collapses internal whitespace runs to single
// spaces. Applied to every scalar field the extractors produce.
func CleanText(s string) string {
	return strings.TrimSpace(spacesRE.ReplaceAllString(s, " "))
}

// StripHTML removes markup tags from a string, then cleans whitespace.
// Used on description blobs that arrive with inline formatting.
func StripHTML(s string) string {
	return CleanText(htmlTagRE.ReplaceAllString(s, " "))
}

// SplitList splits a delimited string into cleaned, deduplicated
// entries, preserving first-seen order.
func SplitList(s, sep string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(s, sep) {
		part = CleanText(part)
		if part == "" {
			continue
		}
		key := strings.ToLower(part)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, part)
	}
	return out
}

// Dedup removes duplicate strings, preserving first-seen order. The
// comparison is exact; callers normalize beforehand when needed.
func Dedup(in []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

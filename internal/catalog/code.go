// Package catalog encodes the target site's conventions: content code
// formats, performer listing URLs, and CDN path shapes.
package catalog

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Content codes follow PREFIX-NUMBER: 2-5 letters, digits zero-padded
// to at least 3. Patterns are ordered by reliability; first match wins.
// The concatenated form requires at least 3 digits so short noise like
// "mp4" or "top10" is not misread as a code.
//
// The digits must be followed by a non-alphanumeric or the end of the
// string. \b is not enough there: underscore is a word character, so
// \b never fires between the digits and a trailing "_" as in
// "hrd_38_sample" or "cawd00136_mhb_w.mp4".
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b([a-z]{2,5})[-_.](\d{1,6})(?:[^0-9a-z]|$)`),
	regexp.MustCompile(`(?i)\b([a-z]{2,5})(\d{3,6})(?:[^0-9a-z]|$)`),
	regexp.MustCompile(`(?i)\b([a-z]{2,5})\s+(\d{1,6})(?:[^0-9a-z]|$)`),
}

// Anchored variants of codePatterns used to check whether a title
// already begins with its content code.
var leadingCodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*\[?([a-z]{2,5})[-_.](\d{1,6})(?:[^0-9a-z]|$)`),
	regexp.MustCompile(`(?i)^\s*\[?([a-z]{2,5})(\d{3,6})(?:[^0-9a-z]|$)`),
	regexp.MustCompile(`(?i)^\s*\[?([a-z]{2,5})\s+(\d{1,6})(?:[^0-9a-z]|$)`),
}

var nonAlphanumRE = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Normalize derives the canonical PREFIX-NUMBER content code from free
// text. The numeric portion is zero-padded to a minimum width of 3.
func Normalize(text string) (string, bool) {
	for _, re := range codePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return formatCode(m[1], m[2]), true
	}
	return "", false
}

// FromPage resolves a content code from a title and/or page URL. When
// neither carries a recognizable code, the last URL path segment is
// used with non-alphanumerics stripped; when even that is empty the
// code is UNKNOWN-<unix_timestamp> so the record stays addressable.
func FromPage(title, rawURL string) string {
	if code, ok := Normalize(title); ok {
		return code
	}
	if code, ok := Normalize(rawURL); ok {
		return code
	}
	if seg := LastPathSegment(rawURL); seg != "" {
		if stripped := nonAlphanumRE.ReplaceAllString(seg, ""); stripped != "" {
			return strings.ToUpper(stripped)
		}
	}
	return fmt.Sprintf("UNKNOWN-%d", time.Now().Unix())
}

// Canonical strips zero padding from the numeric part so duplicate
// detection is stable across padding variants: HRD-00038 == HRD-38.
func Canonical(code string) string {
	prefix, num, ok := strings.Cut(code, "-")
	if !ok {
		return strings.ToUpper(code)
	}
	trimmed := strings.TrimLeft(num, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return strings.ToUpper(prefix) + "-" + trimmed
}

// TitleHasCode reports whether the title already begins with the given
// content code, comparing case- and zero-pad-insensitively. Used to
// avoid writing duplicate-code filenames.
func TitleHasCode(title, code string) bool {
	for _, re := range leadingCodePatterns {
		m := re.FindStringSubmatch(title)
		if m == nil {
			continue
		}
		return Canonical(formatCode(m[1], m[2])) == Canonical(code)
	}
	return false
}

// IsUnknown reports whether the code is a timestamp fallback rather
// than a resolved content code.
func IsUnknown(code string) bool {
	return strings.HasPrefix(code, "UNKNOWN-")
}

func formatCode(prefix, digits string) string {
	for len(digits) < 3 {
		digits = "0" + digits
	}
	return strings.ToUpper(prefix) + "-" + digits
}

// LastPathSegment returns the final path segment of a URL, or "" when
// the URL has no usable path.
func LastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	segs := strings.Split(path, "/")
	return segs[len(segs)-1]
}

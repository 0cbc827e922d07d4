// internal/catalog/code_test.go
package catalog

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"hyphenated", "CAWD-136 Trailer", "CAWD-136", true},
		{"hyphenated lowercase", "cawd-136", "CAWD-136", true},
		{"underscore separator", "hrd_38_sample", "HRD-038", true},
		{"concatenated", "cawd136", "CAWD-136", true},
		{"digits before underscore", "cawd00136_mhb_w.mp4", "CAWD-00136", true},
		{"space separated", "ABC 7", "ABC-007", true},
		{"zero padding preserved", "HRD-00038", "HRD-00038", true},
		{"short number padded", "ssis 1", "SSIS-001", true},
		{"embedded in title", "Watch STARS-804 Full Trailer", "STARS-804", true},
		{"no code", "just a plain title", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("Normalize(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizePriorityOrder(t *testing.T) {
	// Hyphenated form outranks the later patterns when both appear.
	got, ok := Normalize("MIDE-882 aka mide882")
	if !ok || got != "MIDE-882" {
		t.Fatalf("got %q, %v", got, ok)
	}
}

func TestFromPageFallbacks(t *testing.T) {
	if got := FromPage("CAWD-136 trailer", "https://example.com/video/x"); got != "CAWD-136" {
		t.Fatalf("title code: got %q", got)
	}
	if got := FromPage("no code here", "https://javtrailers.com/video/cawd00136"); got != "CAWD-00136" {
		t.Fatalf("url code: got %q", got)
	}
	// Last path segment stripped of non-alphanumerics.
	if got := FromPage("plain", "https://javtrailers.com/video/a1!b2"); got != "A1B2" {
		t.Fatalf("segment fallback: got %q", got)
	}
	// Nothing at all: timestamped UNKNOWN code.
	got := FromPage("", "")
	if !strings.HasPrefix(got, "UNKNOWN-") {
		t.Fatalf("timestamp fallback: got %q", got)
	}
	if !IsUnknown(got) {
		t.Fatalf("IsUnknown(%q) = false", got)
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct{ in, want string }{
		{"HRD-00038", "HRD-38"},
		{"HRD-38", "HRD-38"},
		{"hrd-038", "HRD-38"},
		{"ABC-000", "ABC-0"},
		{"NOCODE", "NOCODE"},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitleHasCode(t *testing.T) {
	tests := []struct {
		title string
		code  string
		want  bool
	}{
		{"HRD-00038 Something", "HRD-38", true},
		{"hrd-38 something", "HRD-038", true},
		{"[CAWD-136] Trailer", "CAWD-136", true},
		{"CAWD136 Trailer", "CAWD-136", true},
		{"hrd_38_sample", "HRD-38", true},
		{"Something HRD-38", "HRD-38", false},
		{"Different DASD-100", "HRD-38", false},
		{"", "HRD-38", false},
	}
	for _, tt := range tests {
		if got := TitleHasCode(tt.title, tt.code); got != tt.want {
			t.Errorf("TitleHasCode(%q, %q) = %v, want %v", tt.title, tt.code, got, tt.want)
		}
	}
}

func TestDisplayNameFromSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"yua-mikami", "Yua Mikami"},
		{"single", "Single"},
		{"two_words", "Two Words"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DisplayNameFromSlug(tt.in); got != tt.want {
			t.Errorf("DisplayNameFromSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct{ base, href, want string }{
		{BaseURL, "/video/cawd-136", "https://javtrailers.com/video/cawd-136"},
		{BaseURL, "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{BaseURL, "//pics.dmm.co.jp/a.jpg", "https://pics.dmm.co.jp/a.jpg"},
		{BaseURL, "", ""},
	}
	for _, tt := range tests {
		if got := AbsoluteURL(tt.base, tt.href); got != tt.want {
			t.Errorf("AbsoluteURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestCastURLs(t *testing.T) {
	if got := CastPageURL("", "yua-mikami", 1); got != "https://javtrailers.com/casts/yua-mikami" {
		t.Errorf("CastPageURL page 1 = %q", got)
	}
	if got := CastPageURL("", "yua-mikami", 3); got != "https://javtrailers.com/casts/yua-mikami?page=3" {
		t.Errorf("CastPageURL page 3 = %q", got)
	}
	got := CastSearchURL("", "yua mikami", 2)
	if !strings.Contains(got, "keyword=yua+mikami") || !strings.Contains(got, "page=2") {
		t.Errorf("CastSearchURL = %q", got)
	}
}

func TestNewCastListing(t *testing.T) {
	l := NewCastListing("https://javtrailers.com/casts/yua-mikami")
	if l.Name != "Yua Mikami" {
		t.Errorf("Name = %q", l.Name)
	}
}

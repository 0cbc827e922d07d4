// internal/scraper/state_test.go
package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse test HTML: %v", err)
	}
	return doc
}

func TestExtractStateStrictJSON(t *testing.T) {
	html := `<html><head><script>window.__NUXT__={"data":[{"video":{"title":"CAWD-136 Trailer","image":"https://pics.example.com/c.jpg"}}]};</script></head><body></body></html>`
	doc := docFromString(t, html)

	state, ok := ExtractState(doc)
	if !ok {
		t.Fatal("expected state to parse")
	}
	rec, ok := state.CurrentVideo()
	if !ok {
		t.Fatal("expected current video record")
	}
	if title, _ := rec.Str("title"); title != "CAWD-136 Trailer" {
		t.Errorf("title = %q", title)
	}
}

func TestExtractStateTrailingScriptText(t *testing.T) {
	// The assignment expression carries trailing script text the JSON
	// decoder rejects; the bounded trim loop must recover.
	html := `<script>window.__NUXT__={"data":[{"video":{"title":"OK"}}]};(function(){window.x=1})()</script>`
	doc := docFromString(t, html)

	state, ok := ExtractState(doc)
	if !ok {
		t.Fatal("expected state to parse after right-trimming")
	}
	rec, ok := state.CurrentVideo()
	if !ok {
		t.Fatal("expected current video record")
	}
	if title, _ := rec.Str("title"); title != "OK" {
		t.Errorf("title = %q", title)
	}
}

func TestExtractStateMalformedNeverErrors(t *testing.T) {
	for _, html := range []string{
		`<script>window.__NUXT__=function(a,b){return {}}(1,2)</script>`,
		`<script>window.__NUXT__=</script>`,
		`<script>var other = 1;</script>`,
		`<body>no scripts at all</body>`,
	} {
		doc := docFromString(t, html)
		if state, ok := ExtractState(doc); ok {
			// A parse may legitimately succeed on a fragment, but a
			// nil state claiming success would be a contract break.
			if state == nil {
				t.Errorf("ok with nil state for %q", html)
			}
		}
	}
}

func TestExtractStateNilDoc(t *testing.T) {
	if _, ok := ExtractState(nil); ok {
		t.Error("nil document must not yield state")
	}
}

func TestStateLookup(t *testing.T) {
	state := State{
		"state": map[string]interface{}{
			"videos": map[string]interface{}{
				"42": map[string]interface{}{"title": "By ID"},
			},
		},
	}

	rec, ok := state.VideoByID("42")
	if !ok {
		t.Fatal("expected record by id")
	}
	if title, _ := rec.Str("title"); title != "By ID" {
		t.Errorf("title = %q", title)
	}

	if _, ok := state.VideoByID("99"); ok {
		t.Error("missing id must not resolve")
	}
	if _, ok := state.Lookup("state", "missing", "deep"); ok {
		t.Error("missing path must not resolve")
	}
}

func TestRecordStrList(t *testing.T) {
	rec := Record{
		"categories": []interface{}{
			map[string]interface{}{"name": "Drama"},
			"Romance",
			map[string]interface{}{"name": "Drama"},
		},
	}
	got := rec.StrList("categories")
	if len(got) != 3 {
		t.Fatalf("StrList = %v", got)
	}
	if got[0] != "Drama" || got[1] != "Romance" {
		t.Errorf("StrList order = %v", got)
	}
}

func TestRecordNestedStr(t *testing.T) {
	rec := Record{"studio": map[string]interface{}{"name": "Ideapocket"}}
	if s, ok := rec.NestedStr("studio"); !ok || s != "Ideapocket" {
		t.Errorf("NestedStr = %q, %v", s, ok)
	}

	rec = Record{"studio": "Plain"}
	if s, ok := rec.NestedStr("studio"); !ok || s != "Plain" {
		t.Errorf("NestedStr plain = %q, %v", s, ok)
	}

	if _, ok := rec.NestedStr("missing"); ok {
		t.Error("missing key must not resolve")
	}
}

func TestTrimToTerminator(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a":1};window.x`, `{"a":1}`},
		{`{"a":1}abc`, `{"a":1}`},
		{`[1,2,3]   `, `[1,2,3]`},
		{`"str"foo`, `"str"`},
		{`12ab`, `12`},
	}
	for _, tt := range tests {
		if got := trimToTerminator(tt.in); got != tt.want {
			t.Errorf("trimToTerminator(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

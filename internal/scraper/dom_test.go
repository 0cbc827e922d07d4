// internal/scraper/dom_test.go
package scraper

import (
	"fmt"
	"strings"
	"testing"
)

const testBase = "https://javtrailers.com"

func TestDOMTitleCascade(t *testing.T) {
	// og:title outranks <title> and h1.
	html := `<html><head>
		<meta property="og:title" content="CAWD-136 From OG">
		<title>From Title Tag | JAV Trailers</title>
	</head><body><h1>From H1</h1></body></html>`
	e := NewDOMExtractor(docFromString(t, html), testBase)

	if got, ok := e.Title(); !ok || got != "CAWD-136 From OG" {
		t.Errorf("Title = %q, %v", got, ok)
	}

	// Without og:title, the page title wins with the site suffix cut.
	html = `<html><head><title>From Title Tag | JAV Trailers</title></head><body></body></html>`
	e = NewDOMExtractor(docFromString(t, html), testBase)
	if got, ok := e.Title(); !ok || got != "From Title Tag" {
		t.Errorf("Title fallback = %q, %v", got, ok)
	}
}

func TestDOMThumbnailLargestImage(t *testing.T) {
	html := `<html><body>
		<img src="/small.jpg" width="100" height="50">
		<img src="/big.jpg" width="800" height="450">
		<img src="/logo.png" width="2000" height="2000">
		<img src="/nodims.jpg">
	</body></html>`
	e := NewDOMExtractor(docFromString(t, html), testBase)

	got, ok := e.Thumbnail()
	if !ok || got != testBase+"/big.jpg" {
		t.Errorf("Thumbnail = %q, %v (logo must be excluded, largest area wins)", got, ok)
	}
}

func TestDOMThumbnailTiesKeepFirst(t *testing.T) {
	html := `<html><body>
		<img src="/first.jpg">
		<img src="/second.jpg">
	</body></html>`
	e := NewDOMExtractor(docFromString(t, html), testBase)

	got, ok := e.Thumbnail()
	if !ok || got != testBase+"/first.jpg" {
		t.Errorf("Thumbnail = %q, %v", got, ok)
	}
}

func TestDOMTrailerFromSource(t *testing.T) {
	html := `<html><body><video><source src="/media/t.mp4" type="video/mp4"></video></body></html>`
	e := NewDOMExtractor(docFromString(t, html), testBase)

	got, ok := e.TrailerURL()
	if !ok || got != testBase+"/media/t.mp4" {
		t.Errorf("TrailerURL = %q, %v", got, ok)
	}
}

func TestDOMStudioFromBodyText(t *testing.T) {
	html := `<html><body><div class="info">Studio: Ideapocket | Release Date: 2024-03-15</div></body></html>`
	e := NewDOMExtractor(docFromString(t, html), testBase)

	if got, ok := e.Studio(); !ok || got != "Ideapocket" {
		t.Errorf("Studio = %q, %v", got, ok)
	}
	if got, ok := e.ReleaseDate(); !ok || got != "2024-03-15" {
		t.Errorf("ReleaseDate = %q, %v", got, ok)
	}
}

func TestDOMJSONLD(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
		{"@type":"VideoObject","name":"LD Name","description":"LD Desc",
		 "thumbnailUrl":"https://pics.example.com/ld.jpg",
		 "contentUrl":"https://cdn.example.com/ld.mp4",
		 "uploadDate":"2024-01-02","actor":{"name":"Yua Mikami"}}
	</script></head><body></body></html>`
	e := NewDOMExtractor(docFromString(t, html), testBase)

	if got, _ := e.Title(); got != "LD Name" {
		t.Errorf("Title = %q", got)
	}
	if got, _ := e.Thumbnail(); got != "https://pics.example.com/ld.jpg" {
		t.Errorf("Thumbnail = %q", got)
	}
	if got, _ := e.TrailerURL(); got != "https://cdn.example.com/ld.mp4" {
		t.Errorf("TrailerURL = %q", got)
	}
	if got, _ := e.ReleaseDate(); got != "2024-01-02" {
		t.Errorf("ReleaseDate = %q", got)
	}
	if got, _ := e.Actress(); got != "Yua Mikami" {
		t.Errorf("Actress = %q", got)
	}
}

func TestDOMScreenshots(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><div class="screenshots">`)
	for i := 1; i <= 14; i++ {
		fmt.Fprintf(&b, `<img src="/shots/s%d.jpg">`, i)
	}
	// Duplicate and chrome entries must be dropped.
	b.WriteString(`<img src="/shots/s1.jpg"><img src="/img/logo.png"><img src="/img/icon-play.svg">`)
	b.WriteString(`</div></body></html>`)

	e := NewDOMExtractor(docFromString(t, b.String()), testBase)
	shots := e.Screenshots()

	if len(shots) != maxScreenshots {
		t.Fatalf("got %d screenshots, want %d", len(shots), maxScreenshots)
	}
	seen := make(map[string]struct{})
	for _, s := range shots {
		if strings.Contains(s, "logo") || strings.Contains(s, "icon") {
			t.Errorf("chrome image leaked: %s", s)
		}
		if _, dup := seen[s]; dup {
			t.Errorf("duplicate screenshot: %s", s)
		}
		seen[s] = struct{}{}
		if !strings.HasPrefix(s, "https://") {
			t.Errorf("screenshot not absolute: %s", s)
		}
	}
}

func TestDOMTagsFromKeywords(t *testing.T) {
	html := `<html><head><meta name="keywords" content="Drama, Romance, Drama"></head><body></body></html>`
	e := NewDOMExtractor(docFromString(t, html), testBase)

	tags := e.Tags()
	if len(tags) != 2 || tags[0] != "Drama" || tags[1] != "Romance" {
		t.Errorf("Tags = %v", tags)
	}
}

func TestDOMLazyImageAttributes(t *testing.T) {
	html := `<html><body><div class="gallery">
		<img data-src="/lazy.jpg" src="data:image/gif;base64,xyz">
	</div></body></html>`
	e := NewDOMExtractor(docFromString(t, html), testBase)

	shots := e.Screenshots()
	if len(shots) != 1 || shots[0] != testBase+"/lazy.jpg" {
		t.Errorf("Screenshots = %v", shots)
	}
}

func TestDOMMissingEverything(t *testing.T) {
	e := NewDOMExtractor(docFromString(t, `<html><body><p>nothing here</p></body></html>`), testBase)

	if _, ok := e.Title(); ok {
		// <title> absent, h1 absent: the cascade must miss, not error.
		t.Error("expected title miss")
	}
	if _, ok := e.Thumbnail(); ok {
		t.Error("expected thumbnail miss")
	}
	if _, ok := e.TrailerURL(); ok {
		t.Error("expected trailer miss")
	}
	if tags := e.Tags(); tags != nil {
		t.Errorf("expected no tags, got %v", tags)
	}
	if shots := e.Screenshots(); shots != nil {
		t.Errorf("expected no screenshots, got %v", shots)
	}
}

// internal/scraper/resolver_test.go
package scraper

import (
	"strings"
	"testing"

	"github.com/valpere/TrailerScrapexter/internal/utils"
)

func newTestResolver() *Resolver {
	return NewResolver(nil, testBase, utils.NopLogger{})
}

// A page fully described by structured data must resolve without a
// single call into the heuristic DOM layer.
func TestResolveStructuredDataOnly(t *testing.T) {
	html := `<html><head><script>window.__NUXT__={"data":[{"video":{
		"title":"CAWD-136 Newcomer Debut",
		"description":"Short.",
		"dvdId":"CAWD-136",
		"image":"https://pics.dmm.co.jp/cawd136/cover.jpg",
		"trailer":"https://cc3001.dmm.co.jp/litevideo/freepv/c/caw/cawd00136/cawd00136_mhb_w.mp4",
		"casts":[{"name":"Remu Suzumori"}],
		"studio":{"name":"kawaii"},
		"releaseDate":"2021-02-25",
		"categories":[{"name":"Debut"},{"name":"Solowork"}],
		"screenshots":["https://pics.dmm.co.jp/cawd136/s1.jpg","https://pics.dmm.co.jp/cawd136/s2.jpg"]
	}}]};</script></head><body></body></html>`

	r := newTestResolver()
	domCalls := 0
	r.OnDOMFallback = func(string) { domCalls++ }

	md := r.ResolveDocument(testBase+"/video/cawd00136", docFromString(t, html))

	if domCalls != 0 {
		t.Fatalf("structured-data page touched the DOM layer %d times", domCalls)
	}
	if md.Title != "CAWD-136 Newcomer Debut" {
		t.Errorf("Title = %q", md.Title)
	}
	if md.VideoCode != "CAWD-136" {
		t.Errorf("VideoCode = %q", md.VideoCode)
	}
	if md.ThumbnailURL != "https://pics.dmm.co.jp/cawd136/cover.jpg" {
		t.Errorf("ThumbnailURL = %q", md.ThumbnailURL)
	}
	if !strings.HasSuffix(md.TrailerURL, "cawd00136_mhb_w.mp4") {
		t.Errorf("TrailerURL = %q", md.TrailerURL)
	}
	if md.Actress != "Remu Suzumori" {
		t.Errorf("Actress = %q", md.Actress)
	}
	if md.Studio != "kawaii" {
		t.Errorf("Studio = %q", md.Studio)
	}
	if md.ReleaseDate != "2021-02-25" {
		t.Errorf("ReleaseDate = %q", md.ReleaseDate)
	}
	if len(md.Tags) != 2 {
		t.Errorf("Tags = %v", md.Tags)
	}
	if len(md.Screenshots) != 2 {
		t.Errorf("Screenshots = %v", md.Screenshots)
	}
	if md.ScrapedAt.IsZero() {
		t.Error("ScrapedAt not set")
	}
}

func TestResolveDOMFallback(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="STARS-804 Trailer">
		<meta property="og:image" content="/covers/stars804.jpg">
	</head><body></body></html>`

	r := newTestResolver()
	var fields []string
	r.OnDOMFallback = func(f string) { fields = append(fields, f) }

	md := r.ResolveDocument(testBase+"/video/stars00804", docFromString(t, html))

	if len(fields) == 0 {
		t.Fatal("expected DOM fallbacks on a state-less page")
	}
	if md.Title != "STARS-804 Trailer" {
		t.Errorf("Title = %q", md.Title)
	}
	if md.ThumbnailURL != testBase+"/covers/stars804.jpg" {
		t.Errorf("ThumbnailURL = %q", md.ThumbnailURL)
	}
	if md.VideoCode != "STARS-804" {
		t.Errorf("VideoCode = %q", md.VideoCode)
	}
}

// The thumbnail must never end up empty: when every layer misses, the
// placeholder is substituted.
func TestResolvePlaceholderThumbnail(t *testing.T) {
	r := newTestResolver()
	md := r.ResolveDocument(testBase+"/video/xyz", docFromString(t, `<html><body></body></html>`))

	if md.ThumbnailURL == "" {
		t.Fatal("ThumbnailURL empty after all layers missed")
	}
	if !md.HasPlaceholderThumbnail() {
		t.Errorf("expected placeholder, got %q", md.ThumbnailURL)
	}
}

func TestReconcileTitleDescriptionWins(t *testing.T) {
	r := newTestResolver()

	// Description mentions the code: replaces even a longer title.
	md := &VideoMetadata{
		Title:       "A fairly long original listing title",
		Description: "CAWD-136 debut special",
		VideoCode:   "CAWD-136",
	}
	r.reconcileTitle(md)
	if md.Title != "CAWD-136 debut special" {
		t.Errorf("Title = %q", md.Title)
	}
	if md.OriginalTitle != "A fairly long original listing title" {
		t.Errorf("OriginalTitle = %q", md.OriginalTitle)
	}

	// Longer description replaces a shorter title.
	md = &VideoMetadata{
		Title:       "Short",
		Description: "A considerably more descriptive synopsis of the video",
		VideoCode:   "ABC-001",
	}
	r.reconcileTitle(md)
	if md.Title != "A considerably more descriptive synopsis of the video" {
		t.Errorf("Title = %q", md.Title)
	}

	// Shorter, code-less description leaves the title alone.
	md = &VideoMetadata{
		Title:       "The real resolved title of the video",
		Description: "Short.",
		VideoCode:   "ABC-001",
	}
	r.reconcileTitle(md)
	if md.Title != "The real resolved title of the video" {
		t.Errorf("Title = %q", md.Title)
	}
}

func TestReconcileTitleBoilerplate(t *testing.T) {
	r := newTestResolver()

	// Boilerplate description never replaces the title...
	md := &VideoMetadata{
		Title:       "Real",
		Description: genericDescription,
		VideoCode:   "ABC-001",
	}
	r.reconcileTitle(md)
	if md.Title != "Real" {
		t.Errorf("Title = %q", md.Title)
	}

	// ...but a boilerplate title is replaced unconditionally when any
	// description exists.
	md = &VideoMetadata{
		Title:       genericDescription,
		Description: "Tiny",
		VideoCode:   "ABC-001",
	}
	r.reconcileTitle(md)
	if md.Title != "Tiny" {
		t.Errorf("Title = %q", md.Title)
	}
}

func TestResolveScreenshotInvariants(t *testing.T) {
	shots := make([]string, 0, 16)
	for i := 0; i < 14; i++ {
		shots = append(shots, "/s/"+strings.Repeat("x", i+1)+".jpg")
	}
	shots = append(shots, shots[0], "/img/logo.png")

	var quoted []string
	for _, s := range shots {
		quoted = append(quoted, `"`+s+`"`)
	}
	html := `<html><head><script>window.__NUXT__={"data":[{"video":{
		"title":"ABC-001","screenshots":[` + strings.Join(quoted, ",") + `]}}]};</script></head><body></body></html>`

	r := newTestResolver()
	md := r.ResolveDocument(testBase+"/video/abc001", docFromString(t, html))

	if len(md.Screenshots) > 10 {
		t.Fatalf("screenshot cap exceeded: %d", len(md.Screenshots))
	}
	seen := make(map[string]struct{})
	for _, s := range md.Screenshots {
		if strings.Contains(s, "logo") {
			t.Errorf("icon/logo leaked: %s", s)
		}
		if _, dup := seen[s]; dup {
			t.Errorf("duplicate: %s", s)
		}
		seen[s] = struct{}{}
	}
}

func TestListingsFromDOM(t *testing.T) {
	html := `<html><body>
		<div class="video-card"><a href="/video/cawd00136" title="CAWD-136 Debut">
			<img src="/thumbs/cawd136.jpg" alt="CAWD-136 Debut"></a></div>
		<div class="video-card"><a href="/video/stars00804">
			<img src="/thumbs/stars804.jpg" alt="STARS-804 Trailer"></a></div>
		<div class="video-card"><a href="/video/cawd00136" title="duplicate"></a></div>
	</body></html>`

	r := newTestResolver()
	listings := r.ParseListings(docFromString(t, html))

	if len(listings) != 2 {
		t.Fatalf("listings = %d, want 2 (deduplicated)", len(listings))
	}
	if listings[0].URL != testBase+"/video/cawd00136" {
		t.Errorf("URL = %q", listings[0].URL)
	}
	if listings[0].Title != "CAWD-136 Debut" {
		t.Errorf("Title = %q", listings[0].Title)
	}
	if listings[1].Title != "STARS-804 Trailer" {
		t.Errorf("alt-derived Title = %q", listings[1].Title)
	}
	if listings[0].Thumbnail != testBase+"/thumbs/cawd136.jpg" {
		t.Errorf("Thumbnail = %q", listings[0].Thumbnail)
	}
}

func TestListingsFromState(t *testing.T) {
	html := `<html><head><script>window.__NUXT__={"state":{"videos":{
		"1":{"title":"First","slug":"first00001","image":"/t/1.jpg"},
		"2":{"title":"Second","url":"/video/second00002","image":"/t/2.jpg"}
	}}};</script></head><body></body></html>`

	r := newTestResolver()
	listings := r.ParseListings(docFromString(t, html))

	if len(listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(listings))
	}
	for _, l := range listings {
		if !strings.HasPrefix(l.URL, testBase+"/video/") {
			t.Errorf("URL not absolutized: %q", l.URL)
		}
	}
}

package media

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/TrailerScrapexter/internal/catalog"
	"github.com/valpere/TrailerScrapexter/internal/scraper"
	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// Origin identifies which strategy produced a source.
type Origin string

const (
	OriginDirect  Origin = "direct"
	OriginInPage  Origin = "in-page"
	OriginBrowser Origin = "browser"
)

// Source is a located, retrievable video URL.
type Source struct {
	URL    string
	Origin Origin
}

// RenderedExtractor loads a page in a real browser and reports the
// media URLs its player opens. browser.Session satisfies it; a nil
// extractor disables the rendered stage.
type RenderedExtractor interface {
	ExtractMediaURLs(ctx context.Context, pageURL string) ([]string, error)
}

// Locator resolves a video page to a downloadable media URL, trying
// the cheapest strategy first.
type Locator struct {
	client     *scraper.Client
	browser    RenderedExtractor
	cdnDomains []string
	log        utils.Logger
}

// NewLocator builds a Locator. browser may be nil.
func NewLocator(client *scraper.Client, browser RenderedExtractor, cdnDomains []string, log utils.Logger) *Locator {
	if log == nil {
		log = utils.NopLogger{}
	}
	return &Locator{
		client:     client,
		browser:    browser,
		cdnDomains: cdnDomains,
		log:        log,
	}
}

// Locate works through the strategies in order and returns the first
// accepted source. The page is only fetched, and the browser only
// started, when the cheaper stages miss.
func (l *Locator) Locate(ctx context.Context, code, pageURL string) (Source, error) {
	log := l.log.WithField("code", code)

	if src, ok := l.locateDirect(ctx, code); ok {
		log.WithField("url", src.URL).Info("media source constructed directly")
		return src, nil
	}

	if src, ok := l.locateInPage(ctx, pageURL); ok {
		log.WithField("url", src.URL).Info("media source found in page markup")
		return src, nil
	}

	if l.browser != nil {
		src, ok, err := l.locateRendered(ctx, pageURL)
		if err != nil {
			log.WithField("error", err.Error()).Warn("rendered extraction failed")
		}
		if ok {
			log.WithField("url", src.URL).Info("media source captured from rendered page")
			return src, nil
		}
	}

	return Source{}, utils.NewError(utils.ErrCodeSourceUnreachable,
		fmt.Sprintf("no retrievable media source for %s", code)).
		WithContext("page_url", pageURL)
}

// locateDirect probes CDN paths constructed from the identifier.
func (l *Locator) locateDirect(ctx context.Context, code string) (Source, bool) {
	for _, candidate := range DirectCandidates(code, l.cdnDomains) {
		if ctx.Err() != nil {
			return Source{}, false
		}
		res := l.client.Probe(ctx, candidate)
		if !res.Exists {
			continue
		}
		if IsVideoContentType(res.ContentType) || HasVideoPattern(candidate) {
			return Source{URL: candidate, Origin: OriginDirect}, true
		}
	}
	return Source{}, false
}

// locateInPage fetches the page markup and scans scripts, media
// elements, and one level of same-origin iframes for literal URLs.
func (l *Locator) locateInPage(ctx context.Context, pageURL string) (Source, bool) {
	doc, err := l.client.Document(ctx, pageURL)
	if err != nil {
		l.log.WithField("error", err.Error()).Debug("page fetch for in-page extraction failed")
		return Source{}, false
	}

	candidates := ExtractPageSources(doc)

	doc.Find("iframe[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		frameURL := catalog.AbsoluteURL(pageURL, src)
		if !sameOrigin(pageURL, frameURL) {
			return true
		}
		frameDoc, err := l.client.Document(ctx, frameURL)
		if err != nil {
			return true
		}
		candidates = append(candidates, ExtractPageSources(frameDoc)...)
		return false // one level, one frame
	})

	prober := &clientProber{ctx: ctx, client: l.client}
	for _, u := range RankSources(candidates) {
		u = catalog.AbsoluteURL(pageURL, u)
		if AcceptVideoURL(u, prober) {
			return Source{URL: u, Origin: OriginInPage}, true
		}
	}
	return Source{}, false
}

func (l *Locator) locateRendered(ctx context.Context, pageURL string) (Source, bool, error) {
	urls, err := l.browser.ExtractMediaURLs(ctx, pageURL)
	if err != nil {
		return Source{}, false, err
	}
	prober := &clientProber{ctx: ctx, client: l.client}
	for _, u := range urls {
		if AcceptVideoURL(u, prober) {
			return Source{URL: u, Origin: OriginBrowser}, true, nil
		}
	}
	return Source{}, false, nil
}

// scriptMediaRE pulls literal media URLs out of inline script text.
var scriptMediaRE = regexp.MustCompile(`https?://[^\s"'<>\\]+\.(?:mp4|m3u8|webm)[^\s"'<>\\]*`)

// ExtractPageSources scans a parsed document for media URLs in video
// and source elements and in embedded script text.
func ExtractPageSources(doc *goquery.Document) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || strings.HasPrefix(u, "blob:") || strings.HasPrefix(u, "data:") {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}

	doc.Find("video[src], video source[src], source[src]").Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("src"); ok {
			add(src)
		}
	})
	doc.Find("video[data-src], [data-video-url]").Each(func(_ int, sel *goquery.Selection) {
		for _, attr := range []string{"data-src", "data-video-url"} {
			if v, ok := sel.Attr(attr); ok {
				add(v)
			}
		}
	})
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		for _, m := range scriptMediaRE.FindAllString(sel.Text(), -1) {
			add(m)
		}
	})

	return out
}

// DirectCandidates builds probe-ready CDN URLs for an identifier,
// combining domains, the lite and HLS preview path templates, and the
// identifier segment variants used by the delivery network. The HLS
// manifests come first so a positive probe prefers the stream.
func DirectCandidates(code string, domains []string) []string {
	prefix, number, ok := splitCode(code)
	if !ok {
		return nil
	}

	ids := contentIDs(prefix, number)
	first := prefix[:1]
	sub := prefix
	if len(sub) > 3 {
		sub = sub[:3]
	}

	var manifests, files []string
	for _, domain := range domains {
		domain = strings.TrimPrefix(strings.TrimPrefix(domain, "https://"), "http://")
		domain = strings.TrimSuffix(domain, "/")
		for _, id := range ids {
			manifests = append(manifests,
				fmt.Sprintf("https://%s/hlsvideo/freepv/%s/%s/%s/playlist.m3u8", domain, first, sub, id))
			for _, size := range []string{"mhb_w", "dmb_w", "sm_w"} {
				files = append(files,
					fmt.Sprintf("https://%s/litevideo/freepv/%s/%s/%s/%s_%s.mp4", domain, first, sub, id, id, size))
			}
		}
	}
	return append(manifests, files...)
}

// contentIDs lists identifier spellings worth probing: the zero-padded
// delivery form, the unpadded run-together form, and the hyphenated
// form.
func contentIDs(prefix, number string) []string {
	trimmed := strings.TrimLeft(number, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	padded := trimmed
	for len(padded) < 5 {
		padded = "0" + padded
	}

	ids := []string{prefix + padded}
	for _, alt := range []string{prefix + trimmed, prefix + "-" + trimmed} {
		if alt != ids[0] {
			ids = append(ids, alt)
		}
	}
	return ids
}

// splitCode breaks a normalized identifier into its lowercase prefix
// and numeric part.
func splitCode(code string) (prefix, number string, ok bool) {
	prefix, number, found := strings.Cut(strings.ToLower(code), "-")
	if !found || prefix == "" || number == "" {
		return "", "", false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return "", "", false
		}
	}
	return prefix, number, true
}

func sameOrigin(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return ua.Scheme == ub.Scheme && ua.Host == ub.Host
}

// clientProber adapts the HTTP client to the Prober interface.
type clientProber struct {
	ctx    context.Context
	client *scraper.Client
}

func (p *clientProber) ProbeContentType(rawURL string) (string, bool) {
	res := p.client.Probe(p.ctx, rawURL)
	return res.ContentType, res.Exists
}

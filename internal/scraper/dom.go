// internal/scraper/dom.go
//
// Heuristic DOM extraction. Each field has its own ordered cascade of
// CSS-selector attempts, from most specific to most generic, executed
// only when the structured-data layer yielded nothing for that field.
// Individual selector failures are swallowed; the next attempt runs.
package scraper

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/TrailerScrapexter/internal/catalog"
	"github.com/valpere/TrailerScrapexter/internal/pipeline"
)

// iconPatternRE matches image URLs that are site chrome rather than
// content: icons, logos, sprites, placeholders.
var iconPatternRE = regexp.MustCompile(`(?i)(icon|logo|sprite|avatar|favicon|banner|no-image|placeholder|loading)`)

var (
	studioTextRE  = regexp.MustCompile(`(?i)(?:Studio|Maker|Label)\s*[:：]\s*([^\n<|]{1,80})`)
	actressTextRE = regexp.MustCompile(`(?i)(?:Actress|Cast|Starring)\s*[:：]\s*([^\n<|]{1,80})`)
	releaseTextRE = regexp.MustCompile(`(?i)(?:Release\s*Date|Released)\s*[:：]\s*([0-9]{4}[-/.][0-9]{1,2}[-/.][0-9]{1,2})`)
	dateRE        = regexp.MustCompile(`[0-9]{4}[-/.][0-9]{1,2}[-/.][0-9]{1,2}`)
)

// maxScreenshots caps the screenshot list per video.
const maxScreenshots = 10

// DOMExtractor runs selector cascades against one parsed page.
type DOMExtractor struct {
	doc     *goquery.Document
	baseURL string
	jsonLD  Record // parsed lazily, nil until first use
	ldTried bool
}

// NewDOMExtractor creates an extractor for a parsed document. baseURL
// is used to absolutize relative asset URLs.
func NewDOMExtractor(doc *goquery.Document, baseURL string) *DOMExtractor {
	return &DOMExtractor{doc: doc, baseURL: baseURL}
}

// Title cascade: og:title meta, JSON-LD name, page <title>, first h1.
func (e *DOMExtractor) Title() (string, bool) {
	return pipeline.FirstNonEmpty(
		e.metaAttempt(`meta[property="og:title"]`),
		e.jsonLDAttempt("name"),
		func() (string, bool) {
			t := e.doc.Find("title").First().Text()
			// Strip the site suffix listing pages append.
			t, _, _ = strings.Cut(t, " | ")
			return t, t != ""
		},
		e.textAttempt("h1"),
	)
}

// Description cascade: og:description, meta description, JSON-LD.
func (e *DOMExtractor) Description() (string, bool) {
	return pipeline.FirstNonEmpty(
		e.metaAttempt(`meta[property="og:description"]`),
		e.metaAttempt(`meta[name="description"]`),
		e.jsonLDAttempt("description"),
	)
}

// Thumbnail cascade: og:image, JSON-LD thumbnail, link image_src, then
// the largest plausible content image on the page.
func (e *DOMExtractor) Thumbnail() (string, bool) {
	url, ok := pipeline.FirstNonEmpty(
		e.metaAttempt(`meta[property="og:image"]`),
		e.jsonLDAttempt("thumbnailUrl"),
		e.attrAttempt(`link[rel="image_src"]`, "href"),
		func() (string, bool) { return e.largestImage("img") },
	)
	if !ok {
		return "", false
	}
	return catalog.AbsoluteURL(e.baseURL, url), true
}

// TrailerURL cascade: og:video metas, JSON-LD contentUrl, video and
// source element attributes.
func (e *DOMExtractor) TrailerURL() (string, bool) {
	url, ok := pipeline.FirstNonEmpty(
		e.metaAttempt(`meta[property="og:video"]`),
		e.metaAttempt(`meta[property="og:video:url"]`),
		e.metaAttempt(`meta[property="og:video:secure_url"]`),
		e.jsonLDAttempt("contentUrl"),
		e.attrAttempt("video[src]", "src"),
		e.attrAttempt("video source[src]", "src"),
		e.attrAttempt("source[src]", "src"),
	)
	if !ok {
		return "", false
	}
	return catalog.AbsoluteURL(e.baseURL, url), true
}

// Tags cascade: keyword metas, then tag/category link lists.
func (e *DOMExtractor) Tags() []string {
	if kw, ok := e.metaAttempt(`meta[name="keywords"]`)(); ok {
		if tags := pipeline.SplitList(kw, ","); len(tags) > 0 {
			return tags
		}
	}
	for _, sel := range []string{
		`a[href*="/categories/"]`,
		`a[href*="/tags/"]`,
		".tags a",
		".genre a",
	} {
		var tags []string
		e.doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if t := pipeline.CleanText(s.Text()); t != "" {
				tags = append(tags, t)
			}
		})
		if len(tags) > 0 {
			return pipeline.Dedup(tags)
		}
	}
	return nil
}

// Actress cascade: cast links, JSON-LD actor, labeled body text.
func (e *DOMExtractor) Actress() (string, bool) {
	return pipeline.FirstNonEmpty(
		e.textAttempt(`a[href*="/casts/"]`),
		e.textAttempt(".cast a"),
		func() (string, bool) {
			if actor, ok := e.jsonLDRecord().Lookup("actor"); ok {
				if rec, ok := asRecord(actor); ok {
					return rec.Str("name")
				}
				if s, ok := actor.(string); ok {
					return s, s != ""
				}
			}
			return "", false
		},
		e.bodyTextAttempt(actressTextRE),
	)
}

// Studio cascade: studio links, then labeled body text such as
// "Studio: X".
func (e *DOMExtractor) Studio() (string, bool) {
	return pipeline.FirstNonEmpty(
		e.textAttempt(`a[href*="/studios/"]`),
		e.textAttempt(".studio a"),
		e.bodyTextAttempt(studioTextRE),
	)
}

// ReleaseDate cascade: JSON-LD uploadDate, time elements, labeled body
// text, any date-shaped string in the info block.
func (e *DOMExtractor) ReleaseDate() (string, bool) {
	return pipeline.FirstNonEmpty(
		e.jsonLDAttempt("uploadDate"),
		e.attrAttempt("time[datetime]", "datetime"),
		e.textAttempt("time"),
		e.bodyTextAttempt(releaseTextRE),
		func() (string, bool) {
			m := dateRE.FindString(e.doc.Find(".video-info, .detail, .meta").Text())
			return m, m != ""
		},
	)
}

// Screenshots collects gallery image URLs: absolute, deduplicated,
// capped at maxScreenshots, icon/logo matches excluded.
func (e *DOMExtractor) Screenshots() []string {
	selectors := []string{
		".screenshots img",
		".gallery img",
		".preview img",
		`img[src*="screenshot"]`,
		`img[src*="sample"]`,
		`a[href$=".jpg"] img`,
	}

	var urls []string
	seen := make(map[string]struct{})
	for _, sel := range selectors {
		e.doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			src := imageSource(s)
			if src == "" {
				return
			}
			abs := catalog.AbsoluteURL(e.baseURL, src)
			if iconPatternRE.MatchString(abs) {
				return
			}
			if _, dup := seen[abs]; dup {
				return
			}
			seen[abs] = struct{}{}
			urls = append(urls, abs)
		})
		if len(urls) >= maxScreenshots {
			break
		}
	}

	if len(urls) > maxScreenshots {
		urls = urls[:maxScreenshots]
	}
	return urls
}

// --- attempt builders -------------------------------------------------

func (e *DOMExtractor) metaAttempt(selector string) pipeline.Attempt[string] {
	return func() (string, bool) {
		v, ok := e.doc.Find(selector).First().Attr("content")
		return v, ok && v != ""
	}
}

func (e *DOMExtractor) attrAttempt(selector, attr string) pipeline.Attempt[string] {
	return func() (string, bool) {
		v, ok := e.doc.Find(selector).First().Attr(attr)
		return v, ok && v != ""
	}
}

func (e *DOMExtractor) textAttempt(selector string) pipeline.Attempt[string] {
	return func() (string, bool) {
		t := pipeline.CleanText(e.doc.Find(selector).First().Text())
		return t, t != ""
	}
}

func (e *DOMExtractor) bodyTextAttempt(re *regexp.Regexp) pipeline.Attempt[string] {
	return func() (string, bool) {
		m := re.FindStringSubmatch(e.doc.Find("body").Text())
		if m == nil {
			return "", false
		}
		return pipeline.CleanText(m[1]), true
	}
}

func (e *DOMExtractor) jsonLDAttempt(key string) pipeline.Attempt[string] {
	return func() (string, bool) {
		return e.jsonLDRecord().Str(key)
	}
}

// jsonLDRecord parses the first JSON-LD block once and caches it.
// Malformed blocks yield an empty record, never an error.
func (e *DOMExtractor) jsonLDRecord() Record {
	if e.ldTried {
		return e.jsonLD
	}
	e.ldTried = true
	e.jsonLD = Record{}

	e.doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(s.Text()), &m); err != nil {
			return true
		}
		e.jsonLD = Record(m)
		return false
	})
	return e.jsonLD
}

// Lookup exposes nested JSON-LD values to cascades.
func (r Record) Lookup(key string) (interface{}, bool) {
	v, ok := r[key]
	return v, ok
}

// largestImage picks the candidate with the largest declared
// width*height; ties or missing dimensions keep the first candidate.
func (e *DOMExtractor) largestImage(selector string) (string, bool) {
	bestSrc := ""
	bestArea := -1

	e.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		src := imageSource(s)
		if src == "" || iconPatternRE.MatchString(src) {
			return
		}
		area := 0
		if w, ok := s.Attr("width"); ok {
			if h, ok := s.Attr("height"); ok {
				wi, errW := strconv.Atoi(strings.TrimSuffix(w, "px"))
				hi, errH := strconv.Atoi(strings.TrimSuffix(h, "px"))
				if errW == nil && errH == nil {
					area = wi * hi
				}
			}
		}
		if area > bestArea {
			bestArea = area
			bestSrc = src
		}
	})

	return bestSrc, bestSrc != ""
}

// imageSource reads an image URL from src or the common lazy-loading
// attributes.
func imageSource(s *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v, ok := s.Attr(attr); ok {
			v = strings.TrimSpace(v)
			if v != "" && !strings.HasPrefix(v, "data:") {
				return v
			}
		}
	}
	return ""
}

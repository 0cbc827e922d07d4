// internal/scraper/resolver.go
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/TrailerScrapexter/internal/catalog"
	"github.com/valpere/TrailerScrapexter/internal/pipeline"
	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// genericDescription is the site's boilerplate description, emitted on
// pages where no real synopsis exists. It must never win the
// title/description reconciliation.
const genericDescription = "Watch JAV trailers and download free previews of the newest Japanese adult videos."

// placeholderThumbnailPath is appended to the site base URL when every
// thumbnail extraction layer comes up empty.
const placeholderThumbnailPath = "/img/no-image.jpg"

// VideoMetadata is one record per discovered video. It is created
// empty, enriched field by field through the fallback chains, and
// serialized to a JSON sidecar after retrieval completes, success or
// failure.
type VideoMetadata struct {
	SourceURL     string   `json:"source_url"`
	VideoCode     string   `json:"video_code"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	Description   string   `json:"description,omitempty"`
	ThumbnailURL  string   `json:"thumbnail_url"`
	TrailerURL    string   `json:"trailer_url"`
	Tags          []string `json:"tags,omitempty"`
	Actress       string   `json:"actress,omitempty"`
	Studio        string   `json:"studio,omitempty"`
	ReleaseDate   string   `json:"release_date,omitempty"`
	Screenshots   []string `json:"screenshots,omitempty"`

	DownloadSuccess  bool   `json:"download_success"`
	ThumbnailSuccess bool   `json:"thumbnail_success"`
	VideoPath        string `json:"video_path,omitempty"`
	ThumbnailPath    string `json:"thumbnail_path,omitempty"`

	ScrapedAt    time.Time  `json:"scraped_at"`
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`
}

// HasPlaceholderThumbnail reports whether the thumbnail is the
// fallback image rather than real artwork. Placeholders are recorded
// but never downloaded.
func (m *VideoMetadata) HasPlaceholderThumbnail() bool {
	return strings.Contains(m.ThumbnailURL, "no-image")
}

// Resolver orchestrates the structured-data and DOM extraction layers
// per field and applies field-specific defaults.
type Resolver struct {
	client  *Client
	baseURL string
	log     utils.Logger

	// OnDOMFallback, when set, is invoked once per field that had to
	// fall back to the heuristic DOM layer. Wired to metrics by the
	// crawler; tests use it to assert layer ordering.
	OnDOMFallback func(field string)
}

// NewResolver creates a metadata resolver using the shared client.
func NewResolver(client *Client, baseURL string, log utils.Logger) *Resolver {
	if log == nil {
		log = utils.NopLogger{}
	}
	return &Resolver{client: client, baseURL: baseURL, log: log}
}

// Resolve fetches a video page and resolves its metadata record.
// Transport failures surface as errors; extraction misses never do.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (*VideoMetadata, error) {
	doc, err := r.client.Document(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching video page: %w", err)
	}
	return r.ResolveDocument(pageURL, doc), nil
}

// ResolveDocument resolves metadata from an already parsed page. Every
// field tries the structured-data layer first, then the DOM cascade,
// then a field-specific default.
func (r *Resolver) ResolveDocument(pageURL string, doc *goquery.Document) *VideoMetadata {
	md := &VideoMetadata{
		SourceURL: pageURL,
		ScrapedAt: time.Now(),
	}

	var rec Record
	if state, ok := ExtractState(doc); ok {
		if cur, ok := state.CurrentVideo(); ok {
			rec = cur
		}
	}

	// The DOM extractor is built lazily so pages fully described by
	// structured data never touch the heuristic layer.
	var dom *DOMExtractor
	domLayer := func(field string) *DOMExtractor {
		if dom == nil {
			dom = NewDOMExtractor(doc, r.baseURL)
		}
		if r.OnDOMFallback != nil {
			r.OnDOMFallback(field)
		}
		return dom
	}

	md.Title = r.resolveField(rec, "title",
		func(rec Record) (string, bool) { return rec.Str("title", "name") },
		func() (string, bool) { return domLayer("title").Title() },
	)
	md.Description = r.resolveField(rec, "description",
		func(rec Record) (string, bool) { return rec.Str("description", "summary") },
		func() (string, bool) { return domLayer("description").Description() },
	)
	md.ThumbnailURL = r.resolveField(rec, "thumbnail",
		func(rec Record) (string, bool) { return rec.Str("image", "thumbnail", "thumbnailUrl", "poster") },
		func() (string, bool) { return domLayer("thumbnail").Thumbnail() },
	)
	md.TrailerURL = r.resolveField(rec, "trailer",
		func(rec Record) (string, bool) { return rec.Str("trailer", "trailerUrl", "video", "videoUrl") },
		func() (string, bool) { return domLayer("trailer").TrailerURL() },
	)
	md.Actress = r.resolveField(rec, "actress",
		func(rec Record) (string, bool) {
			if casts := rec.StrList("casts", "actresses"); len(casts) > 0 {
				return casts[0], true
			}
			return rec.NestedStr("actress", "cast")
		},
		func() (string, bool) { return domLayer("actress").Actress() },
	)
	md.Studio = r.resolveField(rec, "studio",
		func(rec Record) (string, bool) { return rec.NestedStr("studio", "maker", "label") },
		func() (string, bool) { return domLayer("studio").Studio() },
	)
	md.ReleaseDate = r.resolveField(rec, "release_date",
		func(rec Record) (string, bool) { return rec.Str("releaseDate", "release_date", "released") },
		func() (string, bool) { return domLayer("release_date").ReleaseDate() },
	)

	if rec != nil {
		md.Tags = pipeline.Dedup(rec.StrList("categories", "tags", "genres"))
	}
	if len(md.Tags) == 0 {
		md.Tags = domLayer("tags").Tags()
	}

	if rec != nil {
		md.Screenshots = normalizeScreenshots(r.baseURL, rec.StrList("screenshots", "gallery", "samples"))
	}
	if len(md.Screenshots) == 0 {
		md.Screenshots = domLayer("screenshots").Screenshots()
	}

	md.ThumbnailURL = catalog.AbsoluteURL(r.baseURL, md.ThumbnailURL)
	md.TrailerURL = catalog.AbsoluteURL(r.baseURL, md.TrailerURL)

	// Resolve the content code before reconciliation; the
	// description-vs-title rule depends on it.
	if code, ok := resolveCode(rec); ok {
		md.VideoCode = code
	} else {
		md.VideoCode = catalog.FromPage(md.Title, pageURL)
	}

	r.reconcileTitle(md)
	r.applyDefaults(md, pageURL)

	return md
}

// resolveField applies the layer ordering for one scalar field.
func (r *Resolver) resolveField(rec Record, field string,
	fromState func(Record) (string, bool),
	fromDOM func() (string, bool),
) string {
	if rec != nil {
		if v, ok := fromState(rec); ok {
			return pipeline.CleanText(v)
		}
	}
	if v, ok := fromDOM(); ok {
		return pipeline.CleanText(v)
	}
	return ""
}

// reconcileTitle applies the description quality rule: a non-boilerplate
// description replaces the title when it mentions the video code or is
// longer than the current title. A title still equal to the boilerplate
// is replaced unconditionally when any description exists.
func (r *Resolver) reconcileTitle(md *VideoMetadata) {
	md.OriginalTitle = md.Title

	desc := pipeline.StripHTML(md.Description)
	if desc == "" {
		return
	}

	if desc != genericDescription {
		mentionsCode := md.VideoCode != "" &&
			strings.Contains(strings.ToUpper(desc), strings.ToUpper(md.VideoCode))
		if mentionsCode || len(desc) > len(md.Title) {
			md.Title = desc
		}
	}

	if md.Title == genericDescription {
		md.Title = desc
	}
}

// applyDefaults fills remaining gaps with field-specific placeholders.
func (r *Resolver) applyDefaults(md *VideoMetadata, pageURL string) {
	if md.Title == "" {
		if seg := catalog.LastPathSegment(pageURL); seg != "" {
			md.Title = catalog.DisplayNameFromSlug(seg)
		} else {
			md.Title = md.VideoCode
		}
		md.OriginalTitle = md.Title
	}
	if md.ThumbnailURL == "" {
		md.ThumbnailURL = strings.TrimRight(r.baseURL, "/") + placeholderThumbnailPath
		r.log.WithField("url", md.SourceURL).Warn("no thumbnail found, using placeholder")
	}
}

// resolveCode prefers the structured record's own identifier over
// title/URL derivation.
func resolveCode(rec Record) (string, bool) {
	if rec == nil {
		return "", false
	}
	if raw, ok := rec.Str("dvdId", "dvd_id", "code", "contentId"); ok {
		if code, ok := catalog.Normalize(raw); ok {
			return code, true
		}
	}
	return "", false
}

// normalizeScreenshots absolutizes, deduplicates, filters icon/logo
// matches, and caps the screenshot list.
func normalizeScreenshots(baseURL string, urls []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, u := range urls {
		abs := catalog.AbsoluteURL(baseURL, u)
		if abs == "" || iconPatternRE.MatchString(abs) {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
		if len(out) == maxScreenshots {
			break
		}
	}
	return out
}

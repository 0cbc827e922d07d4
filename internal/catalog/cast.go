// internal/catalog/cast.go
package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BaseURL is the catalog site all page URLs are resolved against.
const BaseURL = "https://javtrailers.com"

// CastListing identifies one performer listing page. Name is derived
// from the URL slug when no richer name is available from a resolver.
type CastListing struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

var titleCaser = cases.Title(language.English)

// NewCastListing builds a listing from a performer page URL.
func NewCastListing(rawURL string) CastListing {
	return CastListing{
		URL:  rawURL,
		Name: DisplayNameFromSlug(LastPathSegment(rawURL)),
	}
}

// CastSearchURL builds the paged performer search URL for a free-text
// name. Page numbers start at 1.
func CastSearchURL(base, name string, page int) string {
	if base == "" {
		base = BaseURL
	}
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("keyword", name)
	if page > 1 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	return strings.TrimRight(base, "/") + "/search?" + q.Encode()
}

// CastPageURL builds the listing URL for a performer slug with paging.
func CastPageURL(base, slug string, page int) string {
	if base == "" {
		base = BaseURL
	}
	u := strings.TrimRight(base, "/") + "/casts/" + url.PathEscape(slug)
	if page > 1 {
		u += fmt.Sprintf("?page=%d", page)
	}
	return u
}

// DisplayNameFromSlug converts a URL slug such as "yua-mikami" into a
// display name ("Yua Mikami").
func DisplayNameFromSlug(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	words := strings.ReplaceAll(slug, "-", " ")
	words = strings.ReplaceAll(words, "_", " ")
	return titleCaser.String(strings.TrimSpace(words))
}

// AbsoluteURL resolves a possibly relative href against the catalog
// base. Already absolute URLs pass through unchanged.
func AbsoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if base == "" {
		base = BaseURL
	}
	baseU, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseU.ResolveReference(ref).String()
}

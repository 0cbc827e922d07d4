// internal/scraper/search.go
package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/TrailerScrapexter/internal/catalog"
	"github.com/valpere/TrailerScrapexter/internal/pipeline"
)

// Listing is one video card on a catalog or search page.
type Listing struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// SearchCast returns the video listings for a performer name, one page
// at a time. The name is matched by the site's search; a slug-shaped
// name ("yua-mikami") goes straight to the performer listing page.
func (r *Resolver) SearchCast(ctx context.Context, name string, page int) ([]Listing, error) {
	var pageURL string
	if isSlug(name) {
		pageURL = catalog.CastPageURL(r.baseURL, name, page)
	} else {
		pageURL = catalog.CastSearchURL(r.baseURL, name, page)
	}

	doc, err := r.client.Document(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetching listing page: %w", err)
	}
	return r.ParseListings(doc), nil
}

// ParseListings extracts video cards from a listing page. Structured
// data is tried first; the DOM card cascade covers the rest.
func (r *Resolver) ParseListings(doc *goquery.Document) []Listing {
	if state, ok := ExtractState(doc); ok {
		if listings := listingsFromState(r.baseURL, state); len(listings) > 0 {
			return listings
		}
	}
	return r.listingsFromDOM(doc)
}

// listingsFromState projects the videos collection out of the page
// state payload.
func listingsFromState(baseURL string, state State) []Listing {
	for _, path := range [][]string{{"state", "videos"}, {"videos"}} {
		v, ok := state.Lookup(path...)
		if !ok {
			continue
		}

		var listings []Listing
		appendRec := func(rec Record) {
			title, _ := rec.Str("title", "name")
			pageRef, _ := rec.Str("url", "link", "slug")
			thumb, _ := rec.Str("image", "thumbnail", "poster")
			if title == "" && pageRef == "" {
				return
			}
			if pageRef != "" && !strings.Contains(pageRef, "/") {
				pageRef = "/video/" + pageRef
			}
			listings = append(listings, Listing{
				Title:     pipeline.CleanText(title),
				URL:       catalog.AbsoluteURL(baseURL, pageRef),
				Thumbnail: catalog.AbsoluteURL(baseURL, thumb),
			})
		}

		switch coll := v.(type) {
		case []interface{}:
			for _, item := range coll {
				if rec, ok := asRecord(item); ok {
					appendRec(rec)
				}
			}
		case map[string]interface{}:
			for _, item := range coll {
				if rec, ok := asRecord(item); ok {
					appendRec(rec)
				}
			}
		}
		if len(listings) > 0 {
			return listings
		}
	}
	return nil
}

// listingsFromDOM walks video card links. Selector order goes from the
// site's card markup down to any anchor that links a video page.
func (r *Resolver) listingsFromDOM(doc *goquery.Document) []Listing {
	selectors := []string{
		".video-card a[href*='/video/']",
		".card a[href*='/video/']",
		"a[href*='/video/']",
	}

	for _, sel := range selectors {
		var listings []Listing
		seen := make(map[string]struct{})

		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" {
				return
			}
			abs := catalog.AbsoluteURL(r.baseURL, href)
			if _, dup := seen[abs]; dup {
				return
			}

			title := pipeline.CleanText(s.AttrOr("title", ""))
			if title == "" {
				title = pipeline.CleanText(s.Find("img").First().AttrOr("alt", ""))
			}
			if title == "" {
				title = pipeline.CleanText(s.Text())
			}

			thumb := imageSource(s.Find("img").First())

			seen[abs] = struct{}{}
			listings = append(listings, Listing{
				Title:     title,
				URL:       abs,
				Thumbnail: catalog.AbsoluteURL(r.baseURL, thumb),
			})
		})

		if len(listings) > 0 {
			return listings
		}
	}
	return nil
}

// isSlug reports whether a performer name is already URL-slug shaped.
func isSlug(name string) bool {
	if name == "" || strings.Contains(name, " ") {
		return false
	}
	return strings.ToLower(name) == name
}

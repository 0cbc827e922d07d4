// Package media locates retrievable video sources for a catalog entry,
// working through progressively heavier strategies: direct CDN path
// construction, in-page markup extraction, and rendered-browser
// extraction.
package media

import (
	"regexp"
	"strings"
)

var (
	imageExtRE = regexp.MustCompile(`(?i)\.(jpe?g|png|gif|webp|svg|ico|bmp|avif)(\?|$)`)

	videoExtRE = regexp.MustCompile(`(?i)\.(mp4|m3u8|webm|mov|flv|wmv|avi|mkv)(\?|$)`)

	// Path fragments that mark known video delivery endpoints even when
	// the URL carries no recognizable extension.
	videoPathRE = regexp.MustCompile(`(?i)(litevideo|hlsvideo|freepv|/videos?/|/trailers?/|/stream/)`)

	// A generic application/octet-stream answer confirms nothing, so
	// it is not listed; URLs that already carry a video pattern never
	// reach the content-type check.
	videoContentTypes = []string{
		"video/",
		"application/vnd.apple.mpegurl",
		"application/x-mpegurl",
	}
)

// IsImageURL reports whether the URL points at an image by extension.
func IsImageURL(rawURL string) bool {
	return imageExtRE.MatchString(rawURL)
}

// IsManifestURL reports whether the URL is an adaptive-streaming
// playlist.
func IsManifestURL(rawURL string) bool {
	stripped, _, _ := strings.Cut(rawURL, "?")
	return strings.HasSuffix(strings.ToLower(stripped), ".m3u8")
}

// HasVideoPattern reports whether the URL matches a known video
// extension or delivery path.
func HasVideoPattern(rawURL string) bool {
	return videoExtRE.MatchString(rawURL) || videoPathRE.MatchString(rawURL)
}

// IsVideoContentType reports whether a Content-Type header value
// identifies a video payload.
func IsVideoContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, prefix := range videoContentTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// Prober confirms a candidate URL with a lightweight request.
type Prober interface {
	ProbeContentType(rawURL string) (contentType string, exists bool)
}

// AcceptVideoURL decides whether a URL may be treated as a video
// source. Image URLs are rejected outright. A URL passes on pattern
// alone, or on a confirming content-type probe; anything still
// ambiguous is rejected rather than risked.
func AcceptVideoURL(rawURL string, prober Prober) bool {
	if rawURL == "" || IsImageURL(rawURL) {
		return false
	}
	if strings.HasPrefix(rawURL, "blob:") || strings.HasPrefix(rawURL, "data:") {
		return false
	}
	if HasVideoPattern(rawURL) {
		return true
	}
	if prober == nil {
		return false
	}
	ct, exists := prober.ProbeContentType(rawURL)
	return exists && IsVideoContentType(ct)
}

// RankSources orders candidate URLs with streaming manifests first,
// preserving the original order within each group.
func RankSources(urls []string) []string {
	manifests := make([]string, 0, len(urls))
	files := make([]string, 0, len(urls))
	for _, u := range urls {
		if IsManifestURL(u) {
			manifests = append(manifests, u)
		} else {
			files = append(files, u)
		}
	}
	return append(manifests, files...)
}

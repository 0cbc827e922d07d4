// internal/browser/collector.go
package browser

import (
	"sort"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
)

// streamMIMETypes are response MIME types that identify a media stream
// regardless of URL shape.
var streamMIMETypes = map[string]bool{
	"application/vnd.apple.mpegurl": true,
	"application/x-mpegurl":         true,
	"audio/mpegurl":                 true,
	"audio/x-mpegurl":               true,
	"video/mp4":                     true,
	"video/webm":                    true,
}

// collector accumulates media URLs observed through browser network
// traffic and DOM scans, deduplicated and ranked with streaming
// manifests first.
type collector struct {
	mu   sync.Mutex
	urls []string
	seen map[string]struct{}
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{})}
}

// Add records a URL when it looks like retrievable media. Blob-scheme
// URLs are excluded outright: they reference in-memory browser objects
// nothing outside the page can fetch.
func (c *collector) Add(rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.HasPrefix(rawURL, "blob:") || strings.HasPrefix(rawURL, "data:") {
		return
	}
	if !looksLikeMediaURL(rawURL) {
		return
	}
	c.add(rawURL)
}

// AddByMIME records a URL whose response MIME type the server already
// confirmed as a stream; URL-shape checks are skipped.
func (c *collector) AddByMIME(rawURL, mime string) {
	if strings.HasPrefix(rawURL, "blob:") {
		return
	}
	if !streamMIMETypes[strings.ToLower(mime)] {
		return
	}
	c.add(rawURL)
}

func (c *collector) add(rawURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.seen[rawURL]; dup {
		return
	}
	c.seen[rawURL] = struct{}{}
	c.urls = append(c.urls, rawURL)
}

// URLs returns the captured URLs, adaptive-streaming manifests before
// direct files, stable within each group.
func (c *collector) URLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.urls))
	copy(out, c.urls)
	sort.SliceStable(out, func(i, j int) bool {
		return isManifestURL(out[i]) && !isManifestURL(out[j])
	})
	return out
}

// Empty reports whether nothing has been captured yet.
func (c *collector) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.urls) == 0
}

// Listen returns an event handler for chromedp.ListenTarget feeding
// network traffic into the collector.
func (c *collector) Listen(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		c.Add(e.Request.URL)
	case *network.EventResponseReceived:
		c.AddByMIME(e.Response.URL, e.Response.MimeType)
	}
}

// isManifestURL matches adaptive-streaming playlist URLs.
func isManifestURL(u string) bool {
	stripped, _, _ := strings.Cut(u, "?")
	return strings.HasSuffix(strings.ToLower(stripped), ".m3u8")
}

// looksLikeMediaURL is the URL-shape filter for network capture.
func looksLikeMediaURL(u string) bool {
	stripped, _, _ := strings.Cut(strings.ToLower(u), "?")
	return strings.HasSuffix(stripped, ".mp4") ||
		strings.HasSuffix(stripped, ".m3u8") ||
		strings.HasSuffix(stripped, ".webm")
}

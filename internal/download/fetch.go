package download

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/valpere/TrailerScrapexter/internal/catalog"
	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// streamClient is the slice of the HTTP client the asset fetcher
// needs; scraper.Client satisfies it.
type streamClient interface {
	GetStream(ctx context.Context, rawURL string) (*http.Response, error)
}

// Fetcher retrieves plain file assets (thumbnails, screenshots) by
// streaming HTTP, with the content sanity checks the video tools get
// from their own success criteria.
type Fetcher struct {
	client streamClient
	log    utils.Logger
}

// NewFetcher builds an asset fetcher around a streaming client.
func NewFetcher(client streamClient, log utils.Logger) *Fetcher {
	if log == nil {
		log = utils.NopLogger{}
	}
	return &Fetcher{client: client, log: log}
}

// FetchAsset streams rawURL into outputPath. A zero-length result is
// deleted and reported as failure. When the server answers a media
// request with an HTML page, the page is searched once for a direct
// source element before giving up.
func (f *Fetcher) FetchAsset(ctx context.Context, rawURL, outputPath string) error {
	return f.fetch(ctx, rawURL, outputPath, true)
}

func (f *Fetcher) fetch(ctx context.Context, rawURL, outputPath string, allowRescue bool) error {
	resp, err := f.client.GetStream(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(strings.ToLower(contentType), "text/html") && !hasAssetExtension(rawURL) {
		if !allowRescue {
			return utils.NewError(utils.ErrCodeContentType, "asset request answered with HTML").
				WithContext("url", rawURL)
		}
		rescued, ok := findDirectSource(resp.Body)
		if !ok {
			return utils.NewError(utils.ErrCodeContentType, "asset request answered with HTML and no direct source").
				WithContext("url", rawURL)
		}
		rescued = catalog.AbsoluteURL(rawURL, rescued)
		f.log.WithField("url", rescued).Info("recovered direct media link from HTML response")
		return f.fetch(ctx, rescued, outputPath, false)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}

	written, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(outputPath)
		return utils.WrapError(copyErr, utils.ErrCodeNetworkTimeout, "asset stream interrupted").
			WithContext("url", rawURL)
	}
	if closeErr != nil {
		os.Remove(outputPath)
		return closeErr
	}
	if written == 0 {
		os.Remove(outputPath)
		return utils.NewError(utils.ErrCodeEmptyPayload, "asset response was empty").
			WithContext("url", rawURL)
	}
	return nil
}

// findDirectSource scans an HTML payload for a video source element
// pointing at a direct file.
func findDirectSource(r io.Reader) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", false
	}
	var found string
	doc.Find("video source[src], source[src], video[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, ok := sel.Attr("src")
		if ok && strings.HasSuffix(strings.ToLower(src), ".mp4") {
			found = src
			return false
		}
		return true
	})
	return found, found != ""
}

func hasAssetExtension(rawURL string) bool {
	stripped, _, _ := strings.Cut(strings.ToLower(rawURL), "?")
	for _, ext := range []string{".mp4", ".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(stripped, ext) {
			return true
		}
	}
	return false
}

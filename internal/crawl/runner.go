// Package crawl drives the sequential per-video loop: listing pages in,
// persisted assets out. One video at a time, shared sessions, polite
// pauses, cooperative cancellation at video boundaries.
package crawl

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/valpere/TrailerScrapexter/internal/catalog"
	"github.com/valpere/TrailerScrapexter/internal/download"
	"github.com/valpere/TrailerScrapexter/internal/media"
	"github.com/valpere/TrailerScrapexter/internal/monitoring"
	"github.com/valpere/TrailerScrapexter/internal/scraper"
	"github.com/valpere/TrailerScrapexter/internal/store"
	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// Result is the outcome for one video.
type Result struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Directory   string `json:"directory"`
	VideoOK     bool   `json:"video_ok"`
	ThumbnailOK bool   `json:"thumbnail_ok"`
	Screenshots int    `json:"screenshots"`
	Skipped     bool   `json:"skipped"`
}

// Summary accumulates outcomes across a run.
type Summary struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Runner owns the shared sessions and strategy objects for one crawl.
type Runner struct {
	resolver *scraper.Resolver
	locator  *media.Locator
	driver   *download.Driver
	fetcher  *download.Fetcher
	layout   *store.Layout
	index    *store.Index
	metrics  *monitoring.MetricsManager

	minPause time.Duration
	maxPause time.Duration
	log      utils.Logger
	rng      *rand.Rand
}

// Options bundles the Runner's collaborators. Index and Metrics may be
// nil; pauses default to a small jittered window.
type Options struct {
	Resolver *scraper.Resolver
	Locator  *media.Locator
	Driver   *download.Driver
	Fetcher  *download.Fetcher
	Layout   *store.Layout
	Index    *store.Index
	Metrics  *monitoring.MetricsManager
	MinPause time.Duration
	MaxPause time.Duration
	Logger   utils.Logger
}

// NewRunner assembles a crawl runner.
func NewRunner(opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = utils.NopLogger{}
	}
	minPause, maxPause := opts.MinPause, opts.MaxPause
	if minPause <= 0 {
		minPause = 500 * time.Millisecond
	}
	if maxPause < minPause {
		maxPause = minPause
	}
	return &Runner{
		resolver: opts.Resolver,
		locator:  opts.Locator,
		driver:   opts.Driver,
		fetcher:  opts.Fetcher,
		layout:   opts.Layout,
		index:    opts.Index,
		metrics:  opts.Metrics,
		minPause: minPause,
		maxPause: maxPause,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CrawlCast walks a performer's catalog pages and processes every
// listed video in order. A single video's failure never aborts the
// run; cancellation is honored at the next video boundary.
func (r *Runner) CrawlCast(ctx context.Context, name string, pages int) (*Summary, error) {
	if pages < 1 {
		pages = 1
	}
	summary := &Summary{}

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		listings, err := r.resolver.SearchCast(ctx, name, page)
		if err != nil {
			return summary, fmt.Errorf("failed to list page %d for %q: %w", page, name, err)
		}
		if r.metrics != nil {
			r.metrics.PageScraped("listing")
		}
		if len(listings) == 0 {
			break
		}
		r.log.WithFields(map[string]interface{}{
			"cast": name,
			"page": page,
			"hits": len(listings),
		}).Info("processing listing page")

		for _, listing := range listings {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			res, err := r.ProcessVideo(ctx, listing.URL, name)
			summary.Processed++
			switch {
			case err != nil:
				summary.Failed++
				r.log.WithFields(map[string]interface{}{
					"url":   listing.URL,
					"error": err.Error(),
				}).Warn("video failed, continuing crawl")
			case res.Skipped:
				summary.Skipped++
			case res.VideoOK && res.ThumbnailOK:
				summary.Succeeded++
			default:
				summary.Failed++
			}

			r.pause(ctx)
		}
	}

	return summary, nil
}

// ProcessVideo runs the full per-video pipeline: resolve, locate,
// retrieve, persist. The metadata sidecar is written whatever the
// outcome.
func (r *Runner) ProcessVideo(ctx context.Context, videoURL, actressName string) (*Result, error) {
	md, err := r.resolver.Resolve(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", videoURL, err)
	}
	if r.metrics != nil {
		r.metrics.PageScraped("video")
	}

	if catalog.IsUnknown(md.VideoCode) {
		return nil, utils.NewError(utils.ErrCodeExtractionFailed, "no identifiable content code").
			WithContext("url", videoURL)
	}

	actress := actressName
	if actress == "" {
		actress = md.Actress
	}
	if actress == "" {
		actress = "Unknown"
	}

	result := &Result{
		Code:      md.VideoCode,
		Title:     md.Title,
		Directory: r.layout.VideoDir(actress, md.VideoCode),
	}

	if r.index != nil {
		done, err := r.index.Completed(md.VideoCode)
		if err != nil {
			r.log.WithField("error", err.Error()).Warn("crawl index lookup failed")
		} else if done {
			r.log.WithField("code", md.VideoCode).Info("already downloaded, skipping")
			result.Skipped = true
			return result, nil
		}
	}

	r.downloadAssets(ctx, md, actress, result)

	now := time.Now().UTC()
	md.DownloadedAt = &now
	md.DownloadSuccess = result.VideoOK
	md.ThumbnailSuccess = result.ThumbnailOK
	if err := r.layout.WriteSidecar(actress, md); err != nil {
		r.log.WithField("error", err.Error()).Error("failed to write metadata sidecar")
	}

	if r.index != nil {
		if err := r.index.Record(md.VideoCode, videoURL, result.VideoOK && result.ThumbnailOK); err != nil {
			r.log.WithField("error", err.Error()).Warn("failed to record crawl outcome")
		}
	}

	return result, nil
}

// downloadAssets retrieves the trailer, thumbnail, and screenshots,
// recording per-asset outcomes on the metadata.
func (r *Runner) downloadAssets(ctx context.Context, md *scraper.VideoMetadata, actress string, result *Result) {
	if err := r.layout.EnsureVideoDir(actress, md.VideoCode); err != nil {
		r.log.WithField("error", err.Error()).Error("failed to create video directory")
		return
	}

	srcURL := md.TrailerURL
	if srcURL == "" || !media.AcceptVideoURL(srcURL, nil) {
		src, err := r.locator.Locate(ctx, md.VideoCode, md.SourceURL)
		if err != nil {
			r.log.WithFields(map[string]interface{}{
				"code":  md.VideoCode,
				"error": err.Error(),
			}).Warn("no media source located")
		} else {
			srcURL = src.URL
			if r.metrics != nil {
				r.metrics.SourceLocated(string(src.Origin))
			}
		}
	}

	if srcURL != "" {
		videoPath := r.layout.VideoPath(actress, md.VideoCode, md.Title)
		start := time.Now()
		if err := r.driver.DownloadVideo(ctx, srcURL, videoPath); err != nil {
			r.log.WithFields(map[string]interface{}{
				"code":  md.VideoCode,
				"error": err.Error(),
			}).Warn("trailer download failed")
		} else {
			result.VideoOK = true
			md.VideoPath = videoPath
			if r.metrics != nil {
				r.metrics.AssetWritten("video")
			}
		}
		if r.metrics != nil {
			r.metrics.DownloadOutcome("video", result.VideoOK)
			r.metrics.ObserveDownloadDuration("video", time.Since(start).Seconds())
		}
	}

	if md.ThumbnailURL != "" && !md.HasPlaceholderThumbnail() {
		thumbPath := r.layout.ThumbnailPath(actress, md.VideoCode)
		if err := r.fetcher.FetchAsset(ctx, md.ThumbnailURL, thumbPath); err != nil {
			r.log.WithFields(map[string]interface{}{
				"code":  md.VideoCode,
				"error": err.Error(),
			}).Warn("thumbnail download failed")
		} else {
			result.ThumbnailOK = true
			md.ThumbnailPath = thumbPath
			if r.metrics != nil {
				r.metrics.AssetWritten("thumbnail")
			}
		}
		if r.metrics != nil {
			r.metrics.DownloadOutcome("thumbnail", result.ThumbnailOK)
		}
	} else {
		r.log.WithField("code", md.VideoCode).Warn("skipping placeholder thumbnail")
	}

	for i, shotURL := range md.Screenshots {
		if ctx.Err() != nil {
			return
		}
		shotPath := r.layout.ScreenshotPath(actress, md.VideoCode, i+1)
		if err := r.fetcher.FetchAsset(ctx, shotURL, shotPath); err != nil {
			r.log.WithFields(map[string]interface{}{
				"url":   shotURL,
				"error": err.Error(),
			}).Debug("screenshot download failed")
			continue
		}
		result.Screenshots++
		if r.metrics != nil {
			r.metrics.AssetWritten("screenshot")
		}
	}
}

// pause sleeps a jittered politeness interval, returning early on
// cancellation.
func (r *Runner) pause(ctx context.Context) {
	window := r.maxPause - r.minPause
	d := r.minPause
	if window > 0 {
		d += time.Duration(r.rng.Int63n(int64(window)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

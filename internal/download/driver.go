package download

import (
	"context"

	"github.com/valpere/TrailerScrapexter/internal/media"
	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// StreamCopier is the stream-copy layer; FFmpeg satisfies it.
type StreamCopier interface {
	Copy(ctx context.Context, srcURL, outputPath string, hls bool) error
}

// MediaFetcher is the general downloader layer; YtDlp satisfies it.
type MediaFetcher interface {
	Fetch(ctx context.Context, srcURL, outputPath string, aggressive bool) error
}

// Driver layers the external tools: stream copy first, then the
// general downloader in normal and finally aggressive mode. Each layer
// is retried under the shared policy before the next is tried.
type Driver struct {
	copier  StreamCopier
	fetcher MediaFetcher
	policy  Policy
	log     utils.Logger
}

// NewDriver assembles the retrieval driver.
func NewDriver(copier StreamCopier, fetcher MediaFetcher, policy Policy, log utils.Logger) *Driver {
	if log == nil {
		log = utils.NopLogger{}
	}
	return &Driver{copier: copier, fetcher: fetcher, policy: policy, log: log}
}

// DownloadVideo retrieves srcURL into outputPath, working down the
// tool layers until one produces a non-empty file.
func (d *Driver) DownloadVideo(ctx context.Context, srcURL, outputPath string) error {
	hls := media.IsManifestURL(srcURL)
	log := d.log.WithFields(map[string]interface{}{
		"url": srcURL,
		"hls": hls,
	})

	err := d.policy.Do(ctx, func() error {
		return d.copier.Copy(ctx, srcURL, outputPath, hls)
	})
	if err == nil {
		return nil
	}
	log.WithField("error", err.Error()).Warn("stream copy failed, falling back to downloader")

	if ctx.Err() != nil {
		return ctx.Err()
	}
	err = d.policy.Do(ctx, func() error {
		return d.fetcher.Fetch(ctx, srcURL, outputPath, false)
	})
	if err == nil {
		return nil
	}
	log.WithField("error", err.Error()).Warn("downloader failed, retrying in aggressive mode")

	if ctx.Err() != nil {
		return ctx.Err()
	}
	err = d.policy.Do(ctx, func() error {
		return d.fetcher.Fetch(ctx, srcURL, outputPath, true)
	})
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeToolFailed, "all retrieval layers failed").
			WithContext("url", srcURL)
	}
	return nil
}

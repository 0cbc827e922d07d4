package download

import (
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// YtDlp drives the general-purpose media downloader used when stream
// copy fails. Aggressive mode is a second-chance configuration with
// elevated retry counts; it runs only after a normal attempt failed.
type YtDlp struct {
	Path      string
	Timeout   time.Duration
	UserAgent string
	Referer   string
	log       utils.Logger
}

// NewYtDlp builds a YtDlp driver. An empty path defaults to the tool
// name resolved through PATH.
func NewYtDlp(path string, timeout time.Duration, userAgent, referer string, log utils.Logger) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	if log == nil {
		log = utils.NopLogger{}
	}
	return &YtDlp{Path: path, Timeout: timeout, UserAgent: userAgent, Referer: referer, log: log}
}

// Fetch downloads srcURL into outputPath.
func (y *YtDlp) Fetch(ctx context.Context, srcURL, outputPath string, aggressive bool) error {
	if y.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, y.Timeout)
		defer cancel()
	}

	args := y.buildArgs(srcURL, outputPath, aggressive)
	y.log.WithFields(map[string]interface{}{
		"tool":       y.Path,
		"url":        srcURL,
		"aggressive": aggressive,
	}).Debug("invoking media downloader")

	cmd := exec.CommandContext(ctx, y.Path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return utils.WrapError(err, utils.ErrCodeToolFailed, "yt-dlp download failed").
			WithContext("url", srcURL).
			WithContext("output", tailOf(string(output), 500))
	}

	return requireNonEmpty(outputPath, srcURL)
}

func (y *YtDlp) buildArgs(srcURL, outputPath string, aggressive bool) []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		// Best muxed format, falling back to merging best video+audio.
		"-f", "b/bv*+ba",
		"--hls-prefer-ffmpeg",
		"-o", outputPath,
	}
	if y.UserAgent != "" {
		args = append(args, "--user-agent", y.UserAgent)
	}
	if y.Referer != "" {
		args = append(args, "--referer", y.Referer)
	}

	if aggressive {
		args = append(args,
			"--retries", "10",
			"--fragment-retries", "10",
			"--ignore-errors",
			"--no-abort-on-error",
		)
	} else {
		args = append(args,
			"--retries", "3",
			"--fragment-retries", "3",
		)
	}

	return append(args, srcURL)
}

package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// FFmpeg drives the stream-copy tool. It never re-encodes: the source
// stream is copied into the output container.
type FFmpeg struct {
	Path      string
	Timeout   time.Duration
	UserAgent string
	Referer   string
	log       utils.Logger
}

// NewFFmpeg builds an FFmpeg driver. An empty path defaults to the
// tool name resolved through PATH.
func NewFFmpeg(path string, timeout time.Duration, userAgent, referer string, log utils.Logger) *FFmpeg {
	if path == "" {
		path = "ffmpeg"
	}
	if log == nil {
		log = utils.NopLogger{}
	}
	return &FFmpeg{Path: path, Timeout: timeout, UserAgent: userAgent, Referer: referer, log: log}
}

// Copy retrieves srcURL into outputPath by stream copy. hls selects the
// protocol whitelist needed for segmented streams.
func (f *FFmpeg) Copy(ctx context.Context, srcURL, outputPath string, hls bool) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	args := f.buildArgs(srcURL, outputPath, hls)
	f.log.WithFields(map[string]interface{}{
		"tool": f.Path,
		"url":  srcURL,
	}).Debug("invoking stream copy")

	cmd := exec.CommandContext(ctx, f.Path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return utils.WrapError(err, utils.ErrCodeToolFailed, "ffmpeg stream copy failed").
			WithContext("url", srcURL).
			WithContext("output", tailOf(string(output), 500))
	}

	return requireNonEmpty(outputPath, srcURL)
}

func (f *FFmpeg) buildArgs(srcURL, outputPath string, hls bool) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}

	if hls {
		args = append(args, "-protocol_whitelist", "file,http,https,tcp,tls,crypto")
	}
	args = append(args,
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
	)
	if f.UserAgent != "" {
		args = append(args, "-user_agent", f.UserAgent)
	}
	if f.Referer != "" {
		args = append(args, "-headers", fmt.Sprintf("Referer: %s\r\n", f.Referer))
	}

	args = append(args, "-i", srcURL, "-c", "copy")
	if hls {
		// HLS audio arrives as ADTS; remux it for the mp4 container.
		args = append(args, "-bsf:a", "aac_adtstoasc")
	}
	return append(args, outputPath)
}

// requireNonEmpty enforces the success criterion shared by every
// external tool: a present, non-empty output file. Empty artifacts are
// removed so the auditor never sees them.
func requireNonEmpty(outputPath, srcURL string) error {
	info, err := os.Stat(outputPath)
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeToolFailed, "tool produced no output file").
			WithContext("url", srcURL)
	}
	if info.Size() == 0 {
		os.Remove(outputPath)
		return utils.NewError(utils.ErrCodeEmptyPayload, "tool produced an empty output file").
			WithContext("url", srcURL)
	}
	return nil
}

func tailOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

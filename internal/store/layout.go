// Package store persists downloaded assets and metadata sidecars under
// a per-performer, per-code directory layout, and audits the tree for
// completeness.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/valpere/TrailerScrapexter/internal/catalog"
)

const (
	screenshotsDirName = "screenshots"
	sidecarSuffix      = "_metadata.json"
	maxFilenameLen     = 50
)

var invalidFilenameRE = regexp.MustCompile(`[\\/*?:"<>|]`)

// SanitizeFilename makes a string safe for use as a file or directory
// name: spaces become underscores, filesystem-hostile characters are
// stripped, and the result is capped at 50 characters.
func SanitizeFilename(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	s = invalidFilenameRE.ReplaceAllString(s, "")
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	return s
}

// Layout computes asset paths under a root directory.
type Layout struct {
	Root string
}

// NewLayout builds a layout rooted at dir ("downloads" by default).
func NewLayout(dir string) *Layout {
	if dir == "" {
		dir = "downloads"
	}
	return &Layout{Root: dir}
}

// VideoDir is the leaf directory for one video.
func (l *Layout) VideoDir(actress, code string) string {
	return filepath.Join(l.Root, SanitizeFilename(actress), SanitizeFilename(code))
}

// ScreenshotsDir is the screenshots subdirectory of a leaf.
func (l *Layout) ScreenshotsDir(actress, code string) string {
	return filepath.Join(l.VideoDir(actress, code), screenshotsDirName)
}

// VideoFilename derives the trailer filename from the resolved title.
// The code is prepended only when the title does not already carry it
// in some spelling.
func (l *Layout) VideoFilename(code, title string) string {
	base := SanitizeFilename(title)
	if base == "" {
		base = SanitizeFilename(code)
	} else if !catalog.TitleHasCode(title, code) {
		base = SanitizeFilename(code + " " + title)
	}
	return base + ".mp4"
}

// VideoPath is the full trailer path for a video.
func (l *Layout) VideoPath(actress, code, title string) string {
	return filepath.Join(l.VideoDir(actress, code), l.VideoFilename(code, title))
}

// ThumbnailPath is the cover image path for a video.
func (l *Layout) ThumbnailPath(actress, code string) string {
	return filepath.Join(l.VideoDir(actress, code), SanitizeFilename(code)+"_thumbnail.jpg")
}

// ScreenshotPath numbers screenshots from 1.
func (l *Layout) ScreenshotPath(actress, code string, n int) string {
	name := fmt.Sprintf("%s_screenshot_%d.jpg", SanitizeFilename(code), n)
	return filepath.Join(l.ScreenshotsDir(actress, code), name)
}

// SidecarPath is the metadata JSON path for a video.
func (l *Layout) SidecarPath(actress, code string) string {
	return filepath.Join(l.VideoDir(actress, code), SanitizeFilename(code)+sidecarSuffix)
}

// EnsureVideoDir creates the leaf directory.
func (l *Layout) EnsureVideoDir(actress, code string) error {
	return os.MkdirAll(l.VideoDir(actress, code), 0o755)
}

// EnsureScreenshotsDir creates the screenshots subdirectory.
func (l *Layout) EnsureScreenshotsDir(actress, code string) error {
	return os.MkdirAll(l.ScreenshotsDir(actress, code), 0o755)
}

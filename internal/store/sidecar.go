package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/valpere/TrailerScrapexter/internal/scraper"
)

// WriteSidecar persists the metadata JSON for a video. It is written
// on every outcome, success or failure, so later audits and retries
// can see what happened.
func (l *Layout) WriteSidecar(actress string, md *scraper.VideoMetadata) error {
	if err := l.EnsureVideoDir(actress, md.VideoCode); err != nil {
		return fmt.Errorf("failed to create video directory: %w", err)
	}

	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	path := l.SidecarPath(actress, md.VideoCode)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata sidecar: %w", err)
	}
	return nil
}

// ReadSidecar loads a previously written metadata sidecar.
func (l *Layout) ReadSidecar(actress, code string) (*scraper.VideoMetadata, error) {
	data, err := os.ReadFile(l.SidecarPath(actress, code))
	if err != nil {
		return nil, err
	}
	var md scraper.VideoMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to decode metadata sidecar: %w", err)
	}
	return &md, nil
}

package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// AuditReport summarizes one auditor sweep.
type AuditReport struct {
	Examined int      `json:"examined"`
	Kept     int      `json:"kept"`
	Pruned   []string `json:"pruned,omitempty"`
}

// Audit sweeps the download tree and removes every leaf directory that
// is missing any of its three required artifacts: a non-empty video, a
// non-empty thumbnail, and a metadata sidecar. Incomplete leaves are
// removed wholesale, never partially repaired, and a performer
// directory emptied by pruning is removed too. The sweep is idempotent.
func (l *Layout) Audit(log utils.Logger) (*AuditReport, error) {
	if log == nil {
		log = utils.NopLogger{}
	}
	report := &AuditReport{}

	actresses, err := os.ReadDir(l.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return nil, err
	}

	for _, actress := range actresses {
		if !actress.IsDir() {
			continue
		}
		actressDir := filepath.Join(l.Root, actress.Name())

		leaves, err := os.ReadDir(actressDir)
		if err != nil {
			return nil, err
		}
		remaining := 0
		for _, leaf := range leaves {
			if !leaf.IsDir() {
				continue
			}
			leafDir := filepath.Join(actressDir, leaf.Name())
			report.Examined++

			if leafComplete(leafDir) {
				report.Kept++
				remaining++
				continue
			}

			log.WithField("dir", leafDir).Info("pruning incomplete video directory")
			if err := os.RemoveAll(leafDir); err != nil {
				return nil, err
			}
			report.Pruned = append(report.Pruned, leafDir)
		}

		if remaining == 0 {
			if empty, err := dirEmpty(actressDir); err == nil && empty {
				log.WithField("dir", actressDir).Info("removing emptied performer directory")
				if err := os.Remove(actressDir); err != nil {
					return nil, err
				}
			}
		}
	}

	return report, nil
}

// leafComplete checks the three-artifact requirement for one video
// directory.
func leafComplete(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	var hasVideo, hasThumbnail, hasMetadata bool
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		path := filepath.Join(dir, entry.Name())

		switch {
		case strings.HasSuffix(name, ".mp4"):
			if nonEmpty(path) {
				hasVideo = true
			}
		case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"), strings.HasSuffix(name, ".png"):
			if nonEmpty(path) {
				hasThumbnail = true
			}
		case strings.HasSuffix(name, ".json"):
			hasMetadata = true
		}
	}
	return hasVideo && hasThumbnail && hasMetadata
}

func nonEmpty(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}

func dirEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

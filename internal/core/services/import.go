package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

// snapshotPage mirrors the raw listing page layout written by the
// response snapshots, so saved pages replay through the same handlers.
type snapshotPage struct {
	Items    []json.RawMessage   `json:"items"`
	Metadata domain.PageMetadata `json:"metadata"`
}

// ImportStats summarizes one offline replay pass.
type ImportStats struct {
	Files   int
	Entries int
	Skipped int
}

// ImportService replays response snapshots from disk through an asset
// handler, so an archive can be rebuilt without touching the upstream.
type ImportService struct {
	responseDir string
}

func NewImportService(responseDir string) *ImportService {
	return &ImportService{responseDir: responseDir}
}

// ImportSnapshots feeds every saved page whose file name matches the
// asset type into the handler. Files that fail to parse are skipped
// with a warning, as are entries the handler rejects.
func (s *ImportService) ImportSnapshots(ctx context.Context, assetType domain.AssetType, handler ports.AssetHandler) (ImportStats, error) {
	stats := ImportStats{}
	if !assetType.Valid() {
		return stats, domain.ErrInvalidAssetType
	}

	entries, err := os.ReadDir(s.responseDir)
	if err != nil {
		return stats, fmt.Errorf("read snapshot dir %s: %w", s.responseDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if !strings.Contains(e.Name(), string(assetType)) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		path := filepath.Join(s.responseDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("snapshot not readable, skipping")
			continue
		}

		var page snapshotPage
		if err := json.Unmarshal(data, &page); err != nil {
			log.WithError(err).WithField("path", path).Warn("snapshot not parseable, skipping")
			continue
		}
		stats.Files++

		for _, entry := range page.Items {
			if err := handler.HandleEntry(ctx, entry); err != nil {
				log.WithError(err).WithField("path", path).Warn("entry skipped")
				stats.Skipped++
				continue
			}
			stats.Entries++
		}
	}

	log.WithFields(log.Fields{
		"asset_type": assetType,
		"files":      stats.Files,
		"entries":    stats.Entries,
		"skipped":    stats.Skipped,
	}).Info("snapshot import finished")

	return stats, nil
}

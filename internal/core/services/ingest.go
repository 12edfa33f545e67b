package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

// ModelIngestor maps one model listing entry into persisted rows. When a
// model is already known, versions the fresh entry no longer reports are
// merged back in before the upsert, so a re-scrape never loses versions.
type ModelIngestor struct {
	repo ports.ModelRepository
}

func NewModelIngestor(repo ports.ModelRepository) *ModelIngestor {
	return &ModelIngestor{repo: repo}
}

func (i *ModelIngestor) HandleEntry(ctx context.Context, entry json.RawMessage) error {
	model := &domain.Model{}
	if err := json.Unmarshal(entry, model); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEntry, err)
	}
	if model.ID == 0 {
		return domain.ErrMissingID
	}
	model.Raw = entry

	existing, err := i.repo.GetByID(ctx, model.ID)
	if err != nil && !errors.Is(err, domain.ErrModelNotFound) {
		return fmt.Errorf("lookup model %d: %w", model.ID, err)
	}

	if existing != nil {
		merged := 0
		for _, v := range existing.ModelVersions {
			if !model.HasVersion(v.ID) {
				model.ModelVersions = append(model.ModelVersions, v)
				merged++
			}
		}
		if merged > 0 {
			log.WithFields(log.Fields{
				"model_id": model.ID,
				"merged":   merged,
			}).Info("retaining model versions absent from fresh entry")
		}
	} else {
		log.WithField("model_id", model.ID).Debug("new model")
	}

	return i.repo.Upsert(ctx, model)
}

// ImageIngestor maps one image listing entry into a persisted row and,
// when an image directory is configured, downloads the image file itself.
type ImageIngestor struct {
	repo     ports.ImageRepository
	source   ports.MetadataSource
	imageDir string
}

func NewImageIngestor(repo ports.ImageRepository, source ports.MetadataSource, imageDir string) *ImageIngestor {
	return &ImageIngestor{repo: repo, source: source, imageDir: imageDir}
}

func (i *ImageIngestor) HandleEntry(ctx context.Context, entry json.RawMessage) error {
	image := &domain.Image{}
	if err := json.Unmarshal(entry, image); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEntry, err)
	}
	if image.ID == 0 {
		return domain.ErrMissingID
	}
	image.Raw = entry

	if i.imageDir != "" && image.URL != "" {
		existing, err := i.repo.GetByID(ctx, image.ID)
		if err != nil && !errors.Is(err, domain.ErrImageNotFound) {
			return fmt.Errorf("lookup image %d: %w", image.ID, err)
		}
		if existing != nil && existing.FilePath != "" {
			image.FilePath = existing.FilePath
		} else {
			outputPath := filepath.Join(i.imageDir, imageFileName(image.URL))
			if err := i.source.DownloadAsset(ctx, image.URL, outputPath); err != nil {
				// Metadata is still worth keeping without the file.
				log.WithError(err).WithField("image_id", image.ID).Warn("image download failed")
			} else {
				image.FilePath = outputPath
			}
		}
	}

	return i.repo.Upsert(ctx, image)
}

func imageFileName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}

// Ensure interface compliance
var (
	_ ports.AssetHandler = (*ModelIngestor)(nil)
	_ ports.AssetHandler = (*ImageIngestor)(nil)
)

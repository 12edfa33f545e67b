package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

// ModelFileExtensions is the allow-list for local files worth hashing.
var ModelFileExtensions = []string{".safetensors", ".ckpt", ".pt", ".zip", ".pth"}

// ImageExtensions is the allow-list for cover image downloads.
var ImageExtensions = []string{".jpeg", ".jpg", ".png"}

// coverImageWidths is the fallback ladder tried after the image's own
// width fails to download.
var coverImageWidths = []int{1080, 720, 576, 480}

// EnrichResult describes what enrichment did for one local file.
type EnrichResult struct {
	Path       string
	Hash       string
	Version    *domain.ModelVersion
	Model      *domain.Model
	CoverImage string
	Skipped    bool
	Reason     string
}

// EnrichService matches local model files to upstream metadata by content
// hash and writes sidecar files next to them: <name>.hash,
// <name>_model_version.json, <name>_model.json and a cover image.
type EnrichService struct {
	source ports.MetadataSource

	// checkFilename additionally requires the local file name to appear
	// in the matched version's file list.
	checkFilename bool
}

func NewEnrichService(source ports.MetadataSource, checkFilename bool) *EnrichService {
	return &EnrichService{source: source, checkFilename: checkFilename}
}

// EnrichFolder enriches every file under dir. Per-file failures and
// lookup misses are reported and skipped; the batch never aborts.
func (s *EnrichService) EnrichFolder(ctx context.Context, dir string) ([]EnrichResult, error) {
	var results []EnrichResult
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		res, err := s.EnrichFile(ctx, p)
		if err != nil {
			log.WithError(err).WithField("path", p).Warn("enrichment failed, skipping file")
			results = append(results, EnrichResult{Path: p, Skipped: true, Reason: err.Error()})
			return nil
		}
		results = append(results, *res)
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("walk %s: %w", dir, err)
	}
	return results, nil
}

// EnrichFile enriches one local model file. Files outside the extension
// allow-list and hash-lookup misses produce a skipped result, not an
// error.
func (s *EnrichService) EnrichFile(ctx context.Context, modelFilePath string) (*EnrichResult, error) {
	result := &EnrichResult{Path: modelFilePath}

	info, err := os.Stat(modelFilePath)
	if err != nil || info.IsDir() {
		result.Skipped = true
		result.Reason = domain.ErrNotAFile.Error()
		log.WithField("path", modelFilePath).Warn("not a regular file, skipping")
		return result, nil
	}

	dir := filepath.Dir(modelFilePath)
	fileName := filepath.Base(modelFilePath)
	ext := strings.ToLower(filepath.Ext(fileName))
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	if !contains(ModelFileExtensions, ext) {
		result.Skipped = true
		result.Reason = domain.ErrUnsupportedExtension.Error()
		log.WithFields(log.Fields{"path": modelFilePath, "ext": ext}).Info("extension not allow-listed, skipping")
		return result, nil
	}

	hash, err := s.ensureHash(modelFilePath, filepath.Join(dir, stem+".hash"))
	if err != nil {
		return nil, err
	}
	result.Hash = hash

	version, err := s.ensureVersionMetadata(ctx, hash, fileName, filepath.Join(dir, stem+"_model_version.json"))
	if err != nil {
		if errors.Is(err, domain.ErrHashNotFound) {
			result.Skipped = true
			result.Reason = domain.ErrHashNotFound.Error()
			log.WithFields(log.Fields{"path": modelFilePath, "hash": hash}).Info("no upstream match for hash, skipping")
			return result, nil
		}
		return nil, err
	}
	result.Version = version

	model, err := s.ensureModelMetadata(ctx, version.ModelID, filepath.Join(dir, stem+"_model.json"))
	if err != nil {
		return nil, err
	}
	result.Model = model

	coverPath, err := s.downloadCoverImage(ctx, dir, stem, version)
	if err != nil {
		// A missing cover is not worth failing the file over.
		log.WithError(err).WithField("path", modelFilePath).Warn("cover image download failed")
	}
	result.CoverImage = coverPath

	return result, nil
}

// ensureHash reads the hash sidecar or computes and writes it.
func (s *EnrichService) ensureHash(modelFilePath, hashPath string) (string, error) {
	if data, err := os.ReadFile(hashPath); err == nil {
		return strings.TrimSpace(string(data)), nil
	}

	f, err := os.Open(modelFilePath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", modelFilePath, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", modelFilePath, err)
	}
	hash := strings.ToUpper(hex.EncodeToString(h.Sum(nil)))

	if err := os.WriteFile(hashPath, []byte(hash), 0o644); err != nil {
		return "", fmt.Errorf("write hash sidecar: %w", err)
	}
	return hash, nil
}

func (s *EnrichService) ensureVersionMetadata(ctx context.Context, hash, fileName, sidecarPath string) (*domain.ModelVersion, error) {
	if data, err := os.ReadFile(sidecarPath); err == nil {
		version := &domain.ModelVersion{}
		if err := json.Unmarshal(data, version); err != nil {
			return nil, fmt.Errorf("read version sidecar: %w", err)
		}
		return version, nil
	}

	version, err := s.source.GetModelVersionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	if s.checkFilename && !versionHasFile(version, fileName) {
		log.WithFields(log.Fields{
			"file": fileName,
			"hash": hash,
		}).Warn("matched version does not list this file name")
	}

	if err := writeJSONSidecar(sidecarPath, version); err != nil {
		return nil, err
	}
	return version, nil
}

func (s *EnrichService) ensureModelMetadata(ctx context.Context, modelID int64, sidecarPath string) (*domain.Model, error) {
	if data, err := os.ReadFile(sidecarPath); err == nil {
		model := &domain.Model{}
		if err := json.Unmarshal(data, model); err != nil {
			return nil, fmt.Errorf("read model sidecar: %w", err)
		}
		return model, nil
	}

	model, err := s.source.GetModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if err := writeJSONSidecar(sidecarPath, model); err != nil {
		return nil, err
	}
	return model, nil
}

// downloadCoverImage saves the first non-video preview of the version,
// walking the width fallback ladder until one download succeeds.
func (s *EnrichService) downloadCoverImage(ctx context.Context, dir, stem string, version *domain.ModelVersion) (string, error) {
	var cover *domain.VersionImage
	for i := range version.Images {
		if version.Images[i].Type != "video" {
			cover = &version.Images[i]
			break
		}
	}
	if cover == nil {
		return "", nil
	}

	ext := strings.ToLower(path.Ext(cover.URL))
	if !contains(ImageExtensions, ext) {
		log.WithField("ext", ext).Warn("unsupported cover image extension")
		return "", nil
	}

	imagePath := filepath.Join(dir, stem+ext)
	if info, err := os.Stat(imagePath); err == nil && info.Size() > 0 {
		return imagePath, nil
	}

	widths := append([]int{0}, coverImageWidths...)
	var lastErr error
	for _, width := range widths {
		if err := s.source.DownloadAsset(ctx, FixImageURL(*cover, width), imagePath); err != nil {
			lastErr = err
			continue
		}
		return imagePath, nil
	}
	return "", lastErr
}

// FixImageURL rewrites the width segment of an image delivery URL. A
// non-positive width restores the image's own width.
func FixImageURL(image domain.VersionImage, width int) string {
	if width <= 0 {
		width = image.Width
	}
	parts := strings.Split(image.URL, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, "width=") {
			parts[i] = fmt.Sprintf("width=%d", width)
		}
	}
	return strings.Join(parts, "/")
}

func versionHasFile(version *domain.ModelVersion, fileName string) bool {
	for _, f := range version.Files {
		if f.Name == fileName {
			return true
		}
	}
	return false
}

func writeJSONSidecar(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sidecar %s: %w", path, err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

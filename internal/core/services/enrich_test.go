package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"civitai-archiver/internal/core/domain"
	"civitai-archiver/internal/testutil"
)

func writeModelFile(t *testing.T, dir, name, content string) (string, string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	sum := sha256.Sum256([]byte(content))
	return path, strings.ToUpper(hex.EncodeToString(sum[:]))
}

func TestEnrichFile_WritesSidecars(t *testing.T) {
	dir := t.TempDir()
	path, hash := writeModelFile(t, dir, "model.safetensors", "weights")

	source := new(testutil.MockMetadataSource)
	version := &domain.ModelVersion{
		ID:      70,
		ModelID: 7,
		Images: []domain.VersionImage{
			{URL: "https://host/width=450/img.jpeg", Width: 450, Type: "image"},
		},
	}
	source.On("GetModelVersionByHash", mock.Anything, hash).Return(version, nil)
	source.On("GetModel", mock.Anything, int64(7)).Return(&domain.Model{ID: 7, Name: "m"}, nil)
	source.On("DownloadAsset", mock.Anything, "https://host/width=450/img.jpeg", filepath.Join(dir, "model.jpeg")).Return(nil)

	svc := NewEnrichService(source, false)
	result, err := svc.EnrichFile(context.Background(), path)

	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, hash, result.Hash)
	assert.Equal(t, int64(70), result.Version.ID)
	assert.Equal(t, int64(7), result.Model.ID)
	assert.Equal(t, filepath.Join(dir, "model.jpeg"), result.CoverImage)

	hashData, err := os.ReadFile(filepath.Join(dir, "model.hash"))
	require.NoError(t, err)
	assert.Equal(t, hash, string(hashData))

	assert.FileExists(t, filepath.Join(dir, "model_model_version.json"))
	assert.FileExists(t, filepath.Join(dir, "model_model.json"))
	source.AssertExpectations(t)
}

func TestEnrichFile_HashMissSkips(t *testing.T) {
	dir := t.TempDir()
	path, hash := writeModelFile(t, dir, "model.safetensors", "unknown weights")

	source := new(testutil.MockMetadataSource)
	source.On("GetModelVersionByHash", mock.Anything, hash).Return(nil, domain.ErrHashNotFound)

	svc := NewEnrichService(source, false)
	result, err := svc.EnrichFile(context.Background(), path)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, domain.ErrHashNotFound.Error(), result.Reason)
	source.AssertNotCalled(t, "GetModel", mock.Anything, mock.Anything)
	source.AssertNotCalled(t, "DownloadAsset", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrichFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeModelFile(t, dir, "notes.txt", "not a model")

	source := new(testutil.MockMetadataSource)
	svc := NewEnrichService(source, false)
	result, err := svc.EnrichFile(context.Background(), path)

	require.NoError(t, err)
	assert.True(t, result.Skipped)
	source.AssertNotCalled(t, "GetModelVersionByHash", mock.Anything, mock.Anything)
}

func TestEnrichFile_ReusesHashSidecar(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeModelFile(t, dir, "model.ckpt", "weights")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.hash"), []byte("CAFEBABE"), 0o644))

	source := new(testutil.MockMetadataSource)
	source.On("GetModelVersionByHash", mock.Anything, "CAFEBABE").Return(nil, domain.ErrHashNotFound)

	svc := NewEnrichService(source, false)
	_, err := svc.EnrichFile(context.Background(), path)

	require.NoError(t, err)
	source.AssertExpectations(t)
}

func TestEnrichFile_ReusesVersionSidecar(t *testing.T) {
	dir := t.TempDir()
	path, _ := writeModelFile(t, dir, "model.pt", "weights")
	sidecar := `{"id":70,"modelId":7}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model_model_version.json"), []byte(sidecar), 0o644))

	source := new(testutil.MockMetadataSource)
	source.On("GetModel", mock.Anything, int64(7)).Return(&domain.Model{ID: 7}, nil)

	svc := NewEnrichService(source, false)
	result, err := svc.EnrichFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, int64(70), result.Version.ID)
	source.AssertNotCalled(t, "GetModelVersionByHash", mock.Anything, mock.Anything)
}

func TestEnrichFile_CoverWidthFallback(t *testing.T) {
	dir := t.TempDir()
	path, hash := writeModelFile(t, dir, "model.safetensors", "weights")

	source := new(testutil.MockMetadataSource)
	version := &domain.ModelVersion{
		ID:      70,
		ModelID: 7,
		Images: []domain.VersionImage{
			{URL: "https://host/width=450/img.jpeg", Width: 450, Type: "image"},
		},
	}
	source.On("GetModelVersionByHash", mock.Anything, hash).Return(version, nil)
	source.On("GetModel", mock.Anything, int64(7)).Return(&domain.Model{ID: 7}, nil)

	imagePath := filepath.Join(dir, "model.jpeg")
	source.On("DownloadAsset", mock.Anything, "https://host/width=450/img.jpeg", imagePath).Return(domain.ErrUpstreamStatus)
	source.On("DownloadAsset", mock.Anything, "https://host/width=1080/img.jpeg", imagePath).Return(nil)

	svc := NewEnrichService(source, false)
	result, err := svc.EnrichFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, imagePath, result.CoverImage)
	source.AssertExpectations(t)
}

func TestEnrichFile_VideoOnlyPreviewsSkipCover(t *testing.T) {
	dir := t.TempDir()
	path, hash := writeModelFile(t, dir, "model.safetensors", "weights")

	source := new(testutil.MockMetadataSource)
	version := &domain.ModelVersion{
		ID:      70,
		ModelID: 7,
		Images: []domain.VersionImage{
			{URL: "https://host/width=450/clip.mp4", Width: 450, Type: "video"},
		},
	}
	source.On("GetModelVersionByHash", mock.Anything, hash).Return(version, nil)
	source.On("GetModel", mock.Anything, int64(7)).Return(&domain.Model{ID: 7}, nil)

	svc := NewEnrichService(source, false)
	result, err := svc.EnrichFile(context.Background(), path)

	require.NoError(t, err)
	assert.Empty(t, result.CoverImage)
	source.AssertNotCalled(t, "DownloadAsset", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnrichFolder_MixedContent(t *testing.T) {
	dir := t.TempDir()
	_, hash := writeModelFile(t, dir, "a.safetensors", "weights a")
	writeModelFile(t, dir, "readme.txt", "docs")

	source := new(testutil.MockMetadataSource)
	source.On("GetModelVersionByHash", mock.Anything, hash).Return(nil, domain.ErrHashNotFound)

	svc := NewEnrichService(source, false)
	results, err := svc.EnrichFolder(context.Background(), dir)

	require.NoError(t, err)
	// a.safetensors (miss), a.hash sidecar, readme.txt
	skipped := 0
	for _, r := range results {
		if r.Skipped {
			skipped++
		}
	}
	assert.Equal(t, len(results), skipped)
	assert.GreaterOrEqual(t, len(results), 2)
}

func TestFixImageURL(t *testing.T) {
	img := domain.VersionImage{URL: "https://host/xG1nkqKTMzGDvpLrqFT7WA/width=450/img.jpeg", Width: 450}

	assert.Equal(t,
		"https://host/xG1nkqKTMzGDvpLrqFT7WA/width=1080/img.jpeg",
		FixImageURL(img, 1080))
	assert.Equal(t,
		"https://host/xG1nkqKTMzGDvpLrqFT7WA/width=450/img.jpeg",
		FixImageURL(img, 0))
}

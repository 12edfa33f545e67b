package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

func writeSnapshot(t *testing.T, dir, name string, itemIDs ...int64) {
	t.Helper()
	items := make([]map[string]int64, 0, len(itemIDs))
	for _, id := range itemIDs {
		items = append(items, map[string]int64{"id": id})
	}
	data, err := json.Marshal(map[string]interface{}{"items": items})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestImportSnapshots_ReplaysMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "https___host_api_v1_models_page1.json", 1, 2, 3)
	writeSnapshot(t, dir, "https___host_api_v1_models_page2.json", 4, 5)
	writeSnapshot(t, dir, "https___host_api_v1_images_page1.json", 9)

	var seen []int64
	handler := ports.AssetHandlerFunc(func(ctx context.Context, entry json.RawMessage) error {
		var e struct {
			ID int64 `json:"id"`
		}
		require.NoError(t, json.Unmarshal(entry, &e))
		seen = append(seen, e.ID)
		return nil
	})

	stats, err := NewImportService(dir).ImportSnapshots(context.Background(), domain.AssetModels, handler)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 5, stats.Entries)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, seen)
}

func TestImportSnapshots_UnparseableFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "https___host_api_v1_models_page1.json", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "https___host_api_v1_models_bad.json"), []byte("{"), 0o644))

	calls := 0
	handler := ports.AssetHandlerFunc(func(ctx context.Context, entry json.RawMessage) error {
		calls++
		return nil
	})

	stats, err := NewImportService(dir).ImportSnapshots(context.Background(), domain.AssetModels, handler)

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, calls)
}

func TestImportSnapshots_HandlerErrorsCounted(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "https___host_api_v1_models_page1.json", 1, 2)

	handler := ports.AssetHandlerFunc(func(ctx context.Context, entry json.RawMessage) error {
		return domain.ErrMissingID
	})

	stats, err := NewImportService(dir).ImportSnapshots(context.Background(), domain.AssetModels, handler)

	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, 2, stats.Skipped)
}

func TestImportSnapshots_MissingDir(t *testing.T) {
	_, err := NewImportService("/nonexistent/snapshots").ImportSnapshots(
		context.Background(), domain.AssetModels,
		ports.AssetHandlerFunc(func(ctx context.Context, entry json.RawMessage) error { return nil }))
	assert.Error(t, err)
}

func TestImportSnapshots_InvalidAssetType(t *testing.T) {
	_, err := NewImportService(t.TempDir()).ImportSnapshots(
		context.Background(), domain.AssetType("posts"),
		ports.AssetHandlerFunc(func(ctx context.Context, entry json.RawMessage) error { return nil }))
	assert.ErrorIs(t, err, domain.ErrInvalidAssetType)
}

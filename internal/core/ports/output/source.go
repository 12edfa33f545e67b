package ports

import (
	"context"

	"civitai-archiver/internal/core/domain"
)

// CollectStats summarizes one pass of the pagination loop.
type CollectStats struct {
	Pages      int
	Entries    int
	Skipped    int
	LastCursor string
}

// AssetCollector walks a paginated listing endpoint, invoking the handler
// once per entry. On retry exhaustion it aborts and returns the last
// transport error together with the stats gathered so far.
type AssetCollector interface {
	CollectAssets(ctx context.Context, assetType domain.AssetType, startURL string, handler AssetHandler) (CollectStats, error)
}

// MetadataSource exposes the lookup endpoints used by enrichment.
type MetadataSource interface {
	GetModel(ctx context.Context, id int64) (*domain.Model, error)
	GetModelVersion(ctx context.Context, id int64) (*domain.ModelVersion, error)
	GetModelVersionByHash(ctx context.Context, hash string) (*domain.ModelVersion, error)
	DownloadAsset(ctx context.Context, assetURL, outputPath string) error
}

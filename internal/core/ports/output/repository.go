package ports

import (
	"context"

	"github.com/google/uuid"

	"civitai-archiver/internal/core/domain"
)

type ModelListFilter struct {
	Type   string
	NSFW   *bool
	Search string
	SortBy string
	Order  string
	Limit  int
	Offset int
}

type ImageListFilter struct {
	Username string
	Limit    int
	Offset   int
}

// TypeCount is one row of the per-type catalog breakdown.
type TypeCount struct {
	Type     string
	Models   int64
	Versions int64
}

// ModelRepository persists model entries keyed by their upstream numeric id.
// Upsert replaces an existing row with the same external id.
type ModelRepository interface {
	Upsert(ctx context.Context, model *domain.Model) error
	GetByID(ctx context.Context, id int64) (*domain.Model, error)
	List(ctx context.Context, filter ModelListFilter) ([]*domain.Model, int64, error)
	Count(ctx context.Context) (int64, error)
	CountVersions(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) ([]TypeCount, error)
}

type ImageRepository interface {
	Upsert(ctx context.Context, image *domain.Image) error
	GetByID(ctx context.Context, id int64) (*domain.Image, error)
	List(ctx context.Context, filter ImageListFilter) ([]*domain.Image, int64, error)
	Count(ctx context.Context) (int64, error)
}

type ScrapeRunRepository interface {
	Create(ctx context.Context, run *domain.ScrapeRun) error
	Update(ctx context.Context, run *domain.ScrapeRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ScrapeRun, error)
	Latest(ctx context.Context, assetType domain.AssetType) (*domain.ScrapeRun, error)
}

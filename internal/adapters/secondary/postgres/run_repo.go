package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

type scrapeRunRepo struct {
	pool *pgxpool.Pool
}

func NewScrapeRunRepository(pool *pgxpool.Pool) ports.ScrapeRunRepository {
	return &scrapeRunRepo{pool: pool}
}

func (r *scrapeRunRepo) Create(ctx context.Context, run *domain.ScrapeRun) error {
	query := `
		INSERT INTO scrape_run
			(id, asset_type, started_at, finished_at, status, last_cursor,
			 pages_fetched, entries_ingested, entries_skipped, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID, string(run.AssetType), run.StartedAt, run.FinishedAt,
		string(run.Status), run.LastCursor,
		run.PagesFetched, run.EntriesIngested, run.EntriesSkipped, run.Error,
	)
	if err != nil {
		return fmt.Errorf("create scrape run: %w", err)
	}
	return nil
}

func (r *scrapeRunRepo) Update(ctx context.Context, run *domain.ScrapeRun) error {
	query := `
		UPDATE scrape_run
		SET finished_at = $1, status = $2, last_cursor = $3,
			pages_fetched = $4, entries_ingested = $5, entries_skipped = $6, error = $7
		WHERE id = $8
	`
	result, err := r.pool.Exec(ctx, query,
		run.FinishedAt, string(run.Status), run.LastCursor,
		run.PagesFetched, run.EntriesIngested, run.EntriesSkipped, run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update scrape run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *scrapeRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ScrapeRun, error) {
	query := `
		SELECT id, asset_type, started_at, finished_at, status, last_cursor,
			   pages_fetched, entries_ingested, entries_skipped, error
		FROM scrape_run
		WHERE id = $1
	`
	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get scrape run by id: %w", err)
	}
	return run, nil
}

// Latest returns the most recently started run for an asset type, used to
// resume an aborted scrape from its last cursor.
func (r *scrapeRunRepo) Latest(ctx context.Context, assetType domain.AssetType) (*domain.ScrapeRun, error) {
	query := `
		SELECT id, asset_type, started_at, finished_at, status, last_cursor,
			   pages_fetched, entries_ingested, entries_skipped, error
		FROM scrape_run
		WHERE asset_type = $1
		ORDER BY started_at DESC
		LIMIT 1
	`
	run, err := scanRun(r.pool.QueryRow(ctx, query, string(assetType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("get latest scrape run: %w", err)
	}
	return run, nil
}

func scanRun(row pgx.Row) (*domain.ScrapeRun, error) {
	run := &domain.ScrapeRun{}
	var assetType, status string

	err := row.Scan(
		&run.ID, &assetType, &run.StartedAt, &run.FinishedAt, &status,
		&run.LastCursor, &run.PagesFetched, &run.EntriesIngested,
		&run.EntriesSkipped, &run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.AssetType = domain.AssetType(assetType)
	run.Status = domain.RunStatus(status)
	return run, nil
}

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"civitai-archiver/internal/core/domain"
	ports "civitai-archiver/internal/core/ports/output"
)

type modelRepo struct {
	pool *pgxpool.Pool
}

func NewModelRepository(pool *pgxpool.Pool) ports.ModelRepository {
	return &modelRepo{pool: pool}
}

// Upsert writes the model row and its version and file rows in one
// transaction. Versions already persisted but absent from the incoming
// entry are left untouched.
func (r *modelRepo) Upsert(ctx context.Context, model *domain.Model) error {
	if model.ID == 0 {
		return domain.ErrMissingID
	}

	dataJSON, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO model (id, name, type, nsfw, creator, data)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, type = EXCLUDED.type, nsfw = EXCLUDED.nsfw,
			creator = EXCLUDED.creator, data = EXCLUDED.data, updated_at = NOW()
	`
	_, err = tx.Exec(ctx, query,
		model.ID, model.Name, string(model.Type), model.NSFW,
		model.Creator.Username, dataJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert model: %w", err)
	}

	for i := range model.ModelVersions {
		if err := upsertVersion(ctx, tx, model.ID, &model.ModelVersions[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

func upsertVersion(ctx context.Context, tx pgx.Tx, modelID int64, version *domain.ModelVersion) error {
	if version.ID == 0 {
		return domain.ErrMissingID
	}

	dataJSON, err := json.Marshal(version)
	if err != nil {
		return fmt.Errorf("marshal model version: %w", err)
	}

	query := `
		INSERT INTO model_version (id, model_id, name, base_model, published_at, download_url, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, base_model = EXCLUDED.base_model,
			published_at = EXCLUDED.published_at, download_url = EXCLUDED.download_url,
			data = EXCLUDED.data, updated_at = NOW()
	`
	_, err = tx.Exec(ctx, query,
		version.ID, modelID, version.Name, version.BaseModel,
		version.PublishedAt, version.DownloadURL, dataJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert model version: %w", err)
	}

	for _, file := range version.Files {
		fileQuery := `
			INSERT INTO model_file (id, model_version_id, name, type, size_kb, sha256, is_primary, download_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, type = EXCLUDED.type, size_kb = EXCLUDED.size_kb,
				sha256 = EXCLUDED.sha256, is_primary = EXCLUDED.is_primary,
				download_url = EXCLUDED.download_url
		`
		_, err = tx.Exec(ctx, fileQuery,
			file.ID, version.ID, file.Name, file.Type, file.SizeKB,
			file.Hashes.SHA256, file.Primary, file.DownloadURL,
		)
		if err != nil {
			return fmt.Errorf("upsert model file: %w", err)
		}
	}

	return nil
}

func (r *modelRepo) GetByID(ctx context.Context, id int64) (*domain.Model, error) {
	var dataJSON []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM model WHERE id = $1`, id).Scan(&dataJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrModelNotFound
		}
		return nil, fmt.Errorf("get model by id: %w", err)
	}

	model := &domain.Model{}
	if err := json.Unmarshal(dataJSON, model); err != nil {
		return nil, fmt.Errorf("unmarshal model data: %w", err)
	}
	model.Raw = dataJSON

	versions, err := r.loadVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	model.ModelVersions = versions

	return model, nil
}

// loadVersions returns all persisted versions for a model, which may be a
// superset of the versions the upstream listing last reported.
func (r *modelRepo) loadVersions(ctx context.Context, modelID int64) ([]domain.ModelVersion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT data FROM model_version WHERE model_id = $1 ORDER BY id DESC`, modelID)
	if err != nil {
		return nil, fmt.Errorf("load model versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.ModelVersion
	for rows.Next() {
		var dataJSON []byte
		if err := rows.Scan(&dataJSON); err != nil {
			return nil, fmt.Errorf("scan model version row: %w", err)
		}
		var v domain.ModelVersion
		if err := json.Unmarshal(dataJSON, &v); err != nil {
			return nil, fmt.Errorf("unmarshal model version data: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model version rows: %w", err)
	}

	return versions, nil
}

func (r *modelRepo) List(ctx context.Context, filter ports.ModelListFilter) ([]*domain.Model, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argPos))
		args = append(args, filter.Type)
		argPos++
	}
	if filter.NSFW != nil {
		conditions = append(conditions, fmt.Sprintf("nsfw = $%d", argPos))
		args = append(args, *filter.NSFW)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM model WHERE %s", whereClause)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count models: %w", err)
	}

	orderBy := "updated_at DESC"
	if filter.SortBy != "" {
		dir := "DESC"
		if filter.Order == "asc" {
			dir = "ASC"
		}
		orderBy = fmt.Sprintf("%s %s", filter.SortBy, dir)
	}

	query := fmt.Sprintf(`
		SELECT data FROM model
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, argPos, argPos+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []*domain.Model
	for rows.Next() {
		var dataJSON []byte
		if err := rows.Scan(&dataJSON); err != nil {
			return nil, 0, fmt.Errorf("scan model row: %w", err)
		}
		m := &domain.Model{}
		if err := json.Unmarshal(dataJSON, m); err != nil {
			return nil, 0, fmt.Errorf("unmarshal model data: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate model rows: %w", err)
	}

	return models, total, nil
}

func (r *modelRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM model`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count models: %w", err)
	}
	return total, nil
}

func (r *modelRepo) CountVersions(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM model_version`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count model versions: %w", err)
	}
	return total, nil
}

func (r *modelRepo) CountByType(ctx context.Context) ([]ports.TypeCount, error) {
	query := `
		SELECT m.type, COUNT(DISTINCT m.id), COUNT(mv.id)
		FROM model m
		LEFT JOIN model_version mv ON mv.model_id = m.id
		GROUP BY m.type
		ORDER BY m.type
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count models by type: %w", err)
	}
	defer rows.Close()

	var counts []ports.TypeCount
	for rows.Next() {
		var tc ports.TypeCount
		if err := rows.Scan(&tc.Type, &tc.Models, &tc.Versions); err != nil {
			return nil, fmt.Errorf("scan type count row: %w", err)
		}
		counts = append(counts, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate type count rows: %w", err)
	}

	return counts, nil
}

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

type imageRepo struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) ports.ImageRepository {
	return &imageRepo{pool: pool}
}

func (r *imageRepo) Upsert(ctx context.Context, image *domain.Image) error {
	if image.ID == 0 {
		return domain.ErrMissingID
	}

	dataJSON := image.Raw
	if len(dataJSON) == 0 {
		var err error
		dataJSON, err = json.Marshal(image)
		if err != nil {
			return fmt.Errorf("marshal image: %w", err)
		}
	}

	query := `
		INSERT INTO image (id, url, hash, width, height, nsfw_level, username, post_id, file_path, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE
		SET url = EXCLUDED.url, hash = EXCLUDED.hash, width = EXCLUDED.width,
			height = EXCLUDED.height, nsfw_level = EXCLUDED.nsfw_level,
			username = EXCLUDED.username, post_id = EXCLUDED.post_id,
			file_path = CASE WHEN EXCLUDED.file_path <> '' THEN EXCLUDED.file_path ELSE image.file_path END,
			data = EXCLUDED.data, updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		image.ID, image.URL, image.Hash, image.Width, image.Height,
		image.NSFWLevel, image.Username, image.PostID, image.FilePath, dataJSON,
	)
	if err != nil {
		return fmt.Errorf("upsert image: %w", err)
	}
	return nil
}

func (r *imageRepo) GetByID(ctx context.Context, id int64) (*domain.Image, error) {
	var dataJSON []byte
	var filePath string
	err := r.pool.QueryRow(ctx,
		`SELECT data, file_path FROM image WHERE id = $1`, id).Scan(&dataJSON, &filePath)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("get image by id: %w", err)
	}

	image := &domain.Image{}
	if err := json.Unmarshal(dataJSON, image); err != nil {
		return nil, fmt.Errorf("unmarshal image data: %w", err)
	}
	image.FilePath = filePath
	image.Raw = dataJSON

	return image, nil
}

func (r *imageRepo) List(ctx context.Context, filter ports.ImageListFilter) ([]*domain.Image, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filter.Username != "" {
		conditions = append(conditions, fmt.Sprintf("username = $%d", argPos))
		args = append(args, filter.Username)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM image WHERE %s", whereClause)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT data, file_path FROM image
		WHERE %s
		ORDER BY updated_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []*domain.Image
	for rows.Next() {
		var dataJSON []byte
		var filePath string
		if err := rows.Scan(&dataJSON, &filePath); err != nil {
			return nil, 0, fmt.Errorf("scan image row: %w", err)
		}
		img := &domain.Image{}
		if err := json.Unmarshal(dataJSON, img); err != nil {
			return nil, 0, fmt.Errorf("unmarshal image data: %w", err)
		}
		img.FilePath = filePath
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate image rows: %w", err)
	}

	return images, total, nil
}

func (r *imageRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM image`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return total, nil
}

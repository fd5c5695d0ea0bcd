package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/darave/studio/internal/model"
)

// PostgresImageRepo はPostgreSQLを使用した記事画像リポジトリ。
type PostgresImageRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresImageRepo はPostgresImageRepoを生成する。
func NewPostgresImageRepo(db *sql.DB, timeout time.Duration) *PostgresImageRepo {
	return &PostgresImageRepo{db: db, timeout: timeout}
}

// Create は画像を保存する。
func (r *PostgresImageRepo) Create(ctx context.Context, img *model.Image) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO blog_images (post_id, url, storage_key, alt_text, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		img.PostID, img.URL, img.StorageKey, img.AltText, img.UploadedBy,
	).Scan(&img.ID, &img.CreatedAt)
	return wrapErr(ctx, "insert image", err)
}

// FindByID は指定IDの画像を取得する。見つからない場合はnilを返す。
func (r *PostgresImageRepo) FindByID(ctx context.Context, id int64) (*model.Image, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	img := &model.Image{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, url, storage_key, alt_text, uploaded_by, created_at
		 FROM blog_images WHERE id = $1`,
		id,
	).Scan(&img.ID, &img.PostID, &img.URL, &img.StorageKey, &img.AltText, &img.UploadedBy, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(ctx, "find image", err)
	}
	return img, nil
}

// ListByPost は記事に紐付く画像を登録順に返す。
func (r *PostgresImageRepo) ListByPost(ctx context.Context, postID int64) ([]*model.Image, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, url, storage_key, alt_text, uploaded_by, created_at
		 FROM blog_images WHERE post_id = $1 ORDER BY created_at DESC, id DESC`,
		postID,
	)
	if err != nil {
		return nil, wrapErr(ctx, "list images", err)
	}
	defer rows.Close()

	images := []*model.Image{}
	for rows.Next() {
		img := &model.Image{}
		if err := rows.Scan(&img.ID, &img.PostID, &img.URL, &img.StorageKey, &img.AltText,
			&img.UploadedBy, &img.CreatedAt); err != nil {
			return nil, wrapErr(ctx, "scan image", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(ctx, "list images", err)
	}
	return images, nil
}

// Delete は画像のレコードを削除する。ストレージ上のオブジェクトは呼び出し側で削除する。
func (r *PostgresImageRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_images WHERE id = $1`, id)
	if err != nil {
		return false, wrapErr(ctx, "delete image", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ ImageRepository = (*PostgresImageRepo)(nil)

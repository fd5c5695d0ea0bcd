package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/darave/studio/internal/model"
)

// PostgresTagRepo はPostgreSQLを使用したタグリポジトリ。
type PostgresTagRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresTagRepo はPostgresTagRepoを生成する。
func NewPostgresTagRepo(db *sql.DB, timeout time.Duration) *PostgresTagRepo {
	return &PostgresTagRepo{db: db, timeout: timeout}
}

// List は全タグを名前順に返す。
func (r *PostgresTagRepo) List(ctx context.Context) ([]*model.Tag, error) {
	return r.queryTags(ctx, "list tags",
		`SELECT id, name, slug, created_at FROM blog_tags ORDER BY name`)
}

// ListByPost は記事に付いたタグを名前順に返す。
func (r *PostgresTagRepo) ListByPost(ctx context.Context, postID int64) ([]*model.Tag, error) {
	return r.queryTags(ctx, "list post tags",
		`SELECT t.id, t.name, t.slug, t.created_at
		 FROM blog_tags t
		 JOIN blog_post_tags pt ON pt.tag_id = t.id
		 WHERE pt.post_id = $1
		 ORDER BY t.name`,
		postID)
}

// FindByNameOrSlug は名前またはslugが一致するタグを取得する。見つからない場合はnilを返す。
func (r *PostgresTagRepo) FindByNameOrSlug(ctx context.Context, name, slug string) (*model.Tag, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tag := &model.Tag{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, slug, created_at FROM blog_tags WHERE name = $1 OR slug = $2 LIMIT 1`,
		name, slug,
	).Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(ctx, "find tag", err)
	}
	return tag, nil
}

// Create はタグを作成する。
func (r *PostgresTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO blog_tags (name, slug) VALUES ($1, $2) RETURNING id, created_at`,
		tag.Name, tag.Slug,
	).Scan(&tag.ID, &tag.CreatedAt)
	return wrapErr(ctx, "insert tag", err)
}

// ReplaceForPost は記事のタグを同一トランザクションで付け替える。
func (r *PostgresTagRepo) ReplaceForPost(ctx context.Context, postID int64, tagIDs []int64) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr(ctx, "begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM blog_post_tags WHERE post_id = $1`, postID); err != nil {
		return wrapErr(ctx, "clear post tags", err)
	}

	if len(tagIDs) > 0 {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO blog_post_tags (post_id, tag_id)
			 SELECT $1, unnest($2::bigint[])
			 ON CONFLICT DO NOTHING`,
			postID, pq.Array(tagIDs),
		)
		if err != nil {
			return wrapErr(ctx, "insert post tags", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresTagRepo) queryTags(ctx context.Context, op, query string, args ...any) ([]*model.Tag, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	defer rows.Close()

	tags := []*model.Tag{}
	for rows.Next() {
		t := &model.Tag{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return nil, wrapErr(ctx, op, err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	return tags, nil
}

// compile-time interface check
var _ TagRepository = (*PostgresTagRepo)(nil)

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darave/studio/internal/model"
)

const postColumns = `id, title, slug, content, excerpt, author, author_id, category,
	read_time, published, featured_image, created_at, updated_at`

// searchResultLimit は検索結果の最大件数。
const searchResultLimit = 50

// PostgresPostRepo はPostgreSQLを使用したブログ記事リポジトリ。
type PostgresPostRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB, timeout time.Duration) *PostgresPostRepo {
	return &PostgresPostRepo{db: db, timeout: timeout}
}

// List は記事を新しい順に返す。limitが0以下の場合は全件を返す。
func (r *PostgresPostRepo) List(ctx context.Context, includeDrafts bool, limit int) ([]*model.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts`
	if !includeDrafts {
		query += ` WHERE published`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	return r.queryPosts(ctx, "list blog posts", query, args...)
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindByID(ctx context.Context, id int64) (*model.BlogPost, error) {
	return r.findOne(ctx, "find blog post by ID",
		`SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id)
}

// FindBySlug は指定slugの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresPostRepo) FindBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	return r.findOne(ctx, "find blog post by slug",
		`SELECT `+postColumns+` FROM blog_posts WHERE slug = $1`, slug)
}

// ListByCategory は指定カテゴリの公開記事を新しい順に返す。
func (r *PostgresPostRepo) ListByCategory(ctx context.Context, category string) ([]*model.BlogPost, error) {
	return r.queryPosts(ctx, "list blog posts by category",
		`SELECT `+postColumns+` FROM blog_posts
		 WHERE published AND category = $1
		 ORDER BY created_at DESC, id DESC`,
		category)
}

// Search はタイトル・本文・抜粋に部分一致する公開記事を返す。
// LIKEのメタ文字はエスケープし、リテラルとして扱う。
func (r *PostgresPostRepo) Search(ctx context.Context, query string) ([]*model.BlogPost, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.queryPosts(ctx, "search blog posts",
		`SELECT `+postColumns+` FROM blog_posts
		 WHERE published AND (title ILIKE $1 OR content ILIKE $1 OR excerpt ILIKE $1)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		pattern, searchResultLimit)
}

// Create は記事を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.BlogPost) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO blog_posts
		   (title, slug, content, excerpt, author, author_id, category, read_time, published, featured_image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		post.Title, post.Slug, post.Content, post.Excerpt, post.Author, post.AuthorID,
		post.Category, post.ReadTime, post.Published, post.FeaturedImage,
	).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	return wrapErr(ctx, "insert blog post", err)
}

// Update は指定フィールドのみ更新し、更新後の記事を返す。見つからない場合はnilを返す。
func (r *PostgresPostRepo) Update(ctx context.Context, id int64, upd model.BlogPostUpdate) (*model.BlogPost, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Slug != nil {
		add("slug", *upd.Slug)
	}
	if upd.Content != nil {
		add("content", *upd.Content)
	}
	if upd.Excerpt != nil {
		add("excerpt", *upd.Excerpt)
	}
	if upd.Author != nil {
		add("author", *upd.Author)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.ReadTime != nil {
		add("read_time", *upd.ReadTime)
	}
	if upd.Published != nil {
		add("published", *upd.Published)
	}
	if upd.FeaturedImage != nil {
		if *upd.FeaturedImage == "" {
			sets = append(sets, "featured_image = NULL")
		} else {
			add("featured_image", *upd.FeaturedImage)
		}
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE blog_posts SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), postColumns)

	return r.findOne(ctx, "update blog post", query, args...)
}

// Delete は記事を削除する。コメントとタグ付けはCASCADEで削除される。
func (r *PostgresPostRepo) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return false, wrapErr(ctx, "delete blog post", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresPostRepo) findOne(ctx context.Context, op, query string, args ...any) (*model.BlogPost, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	post, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	return post, nil
}

func (r *PostgresPostRepo) queryPosts(ctx context.Context, op, query string, args ...any) ([]*model.BlogPost, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	defer rows.Close()

	posts := []*model.BlogPost{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, wrapErr(ctx, op, err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	return posts, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.BlogPost, error) {
	p := &model.BlogPost{}
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Author, &p.AuthorID,
		&p.Category, &p.ReadTime, &p.Published, &p.FeaturedImage, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// escapeLike はLIKEパターンのメタ文字をエスケープする。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)

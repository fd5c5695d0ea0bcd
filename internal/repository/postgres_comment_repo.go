package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/darave/studio/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB, timeout time.Duration) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db, timeout: timeout}
}

// ListApproved は承認済みコメントを新しい順に返す。
func (r *PostgresCommentRepo) ListApproved(ctx context.Context, postID int64) ([]*model.Comment, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, user_id, guest_name, guest_email, content, approved, created_at
		 FROM blog_comments
		 WHERE post_id = $1 AND approved
		 ORDER BY created_at DESC, id DESC`,
		postID,
	)
	if err != nil {
		return nil, wrapErr(ctx, "list comments", err)
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		c := &model.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.GuestName, &c.GuestEmail,
			&c.Content, &c.Approved, &c.CreatedAt); err != nil {
			return nil, wrapErr(ctx, "scan comment", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(ctx, "list comments", err)
	}
	return comments, nil
}

// Create はコメントを保存する。
func (r *PostgresCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO blog_comments (post_id, user_id, guest_name, guest_email, content, approved)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.PostID, c.UserID, c.GuestName, c.GuestEmail, c.Content, c.Approved,
	).Scan(&c.ID, &c.CreatedAt)
	return wrapErr(ctx, "insert comment", err)
}

// Approve はコメントを承認済みにする。
func (r *PostgresCommentRepo) Approve(ctx context.Context, id int64) (bool, error) {
	return r.execAffecting(ctx, "approve comment", `UPDATE blog_comments SET approved = true WHERE id = $1`, id)
}

// Delete はコメントを削除する。
func (r *PostgresCommentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return r.execAffecting(ctx, "delete comment", `DELETE FROM blog_comments WHERE id = $1`, id)
}

func (r *PostgresCommentRepo) execAffecting(ctx context.Context, op, query string, id int64) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, wrapErr(ctx, op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)

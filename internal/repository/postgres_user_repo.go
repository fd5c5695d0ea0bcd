package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/darave/studio/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB, timeout time.Duration) *PostgresUserRepo {
	return &PostgresUserRepo{db: db, timeout: timeout}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, "find user by ID",
		`SELECT id, email, password, name, created_at FROM users WHERE id = $1`, id)
}

// FindByEmail はemailが完全一致するユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "find user by email",
		`SELECT id, email, password, name, created_at FROM users WHERE email = $1`, email)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, op, query string, arg any) (*model.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	return user, nil
}

// Create はユーザーを作成し、採番されたIDと作成日時をuserに設定する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password, name)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		user.Email, user.PasswordHash, user.Name,
	).Scan(&user.ID, &user.CreatedAt)
	return wrapErr(ctx, "insert user", err)
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)

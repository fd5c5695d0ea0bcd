package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/darave/studio/internal/model"
)

// PostgresLeadRepo は公開フォームの送信内容を保存するリポジトリ。
// 送信内容は作成後に更新・削除しない。
type PostgresLeadRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresLeadRepo はPostgresLeadRepoを生成する。
func NewPostgresLeadRepo(db *sql.DB, timeout time.Duration) *PostgresLeadRepo {
	return &PostgresLeadRepo{db: db, timeout: timeout}
}

// CreateRegistration は事前登録を保存する。
func (r *PostgresLeadRepo) CreateRegistration(ctx context.Context, reg *model.Registration) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO registrations (email, interest, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		reg.Email, reg.Interest, reg.UserID,
	).Scan(&reg.ID, &reg.CreatedAt)
	return wrapErr(ctx, "insert registration", err)
}

// CreateGameSubmission はゲーム指標の送信を保存する。
func (r *PostgresLeadRepo) CreateGameSubmission(ctx context.Context, s *model.GameSubmission) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO game_submissions
		   (email, game_name, game_link, daily_active_users, total_visits, revenue, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		s.Email, s.GameName, s.GameLink, s.DailyActiveUsers, s.TotalVisits, s.Revenue, s.UserID,
	).Scan(&s.ID, &s.CreatedAt)
	return wrapErr(ctx, "insert game submission", err)
}

// CreateAssetSubmission はアセット制作依頼を保存する。
func (r *PostgresLeadRepo) CreateAssetSubmission(ctx context.Context, s *model.AssetSubmission) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO asset_submissions (email, assets_count, asset_links, additional_notes, user_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		s.Email, s.AssetsCount, s.AssetLinks, s.AdditionalNotes, s.UserID,
	).Scan(&s.ID, &s.CreatedAt)
	return wrapErr(ctx, "insert asset submission", err)
}

// FindNewsletterByEmail は購読済みのemailを検索する。見つからない場合はnilを返す。
func (r *PostgresLeadRepo) FindNewsletterByEmail(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	sub := &model.NewsletterSubscription{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM newsletter_subscriptions WHERE email = $1`,
		email,
	).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(ctx, "find newsletter subscription", err)
	}
	return sub, nil
}

// CreateNewsletterSubscription は購読を保存する。emailが重複する場合はErrUniqueViolationを返す。
func (r *PostgresLeadRepo) CreateNewsletterSubscription(ctx context.Context, s *model.NewsletterSubscription) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO newsletter_subscriptions (email)
		 VALUES ($1)
		 RETURNING id, created_at`,
		s.Email,
	).Scan(&s.ID, &s.CreatedAt)
	return wrapErr(ctx, "insert newsletter subscription", err)
}

// compile-time interface check
var _ LeadRepository = (*PostgresLeadRepo)(nil)

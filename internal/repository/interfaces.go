// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
//
// 実装は生成時に受け取った*sql.DBを共有し、クエリごとにタイムアウト付きcontextを使う。
// 「見つからない」はエラーではなくnilで返す。
package repository

import (
	"context"

	"github.com/darave/studio/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
	// FindByEmail はemailが完全一致するユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Create はユーザーを作成し、採番されたIDと作成日時をuserに設定する。
	// emailが重複する場合はErrUniqueViolationを返す。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れまたは存在しない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// Save はセッションを作成または更新する。コミット完了後に返る。
	Save(ctx context.Context, session *model.Session) error
	// DeleteByID は指定IDのセッションを削除する。存在しなくてもエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}

// LeadRepository は公開フォームの送信内容の永続化インターフェース。
type LeadRepository interface {
	CreateRegistration(ctx context.Context, r *model.Registration) error
	CreateGameSubmission(ctx context.Context, s *model.GameSubmission) error
	CreateAssetSubmission(ctx context.Context, s *model.AssetSubmission) error
	// FindNewsletterByEmail は購読済みのemailを検索する。見つからない場合はnilを返す。
	FindNewsletterByEmail(ctx context.Context, email string) (*model.NewsletterSubscription, error)
	CreateNewsletterSubscription(ctx context.Context, s *model.NewsletterSubscription) error
}

// PostRepository はブログ記事の永続化インターフェース。
type PostRepository interface {
	// List は記事を新しい順に返す。includeDraftsがfalseの場合は公開記事のみ。
	List(ctx context.Context, includeDrafts bool, limit int) ([]*model.BlogPost, error)
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.BlogPost, error)
	// FindBySlug は指定slugの記事を取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.BlogPost, error)
	// ListByCategory は指定カテゴリの公開記事を新しい順に返す。
	ListByCategory(ctx context.Context, category string) ([]*model.BlogPost, error)
	// Search はタイトル・本文・抜粋に部分一致する公開記事を返す。
	Search(ctx context.Context, query string) ([]*model.BlogPost, error)
	// Create は記事を作成する。slugが重複する場合はErrUniqueViolationを返す。
	Create(ctx context.Context, post *model.BlogPost) error
	// Update は指定フィールドのみ更新し、更新後の記事を返す。見つからない場合はnilを返す。
	Update(ctx context.Context, id int64, upd model.BlogPostUpdate) (*model.BlogPost, error)
	// Delete は記事を削除する。削除対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// CommentRepository はコメントの永続化インターフェース。
type CommentRepository interface {
	// ListApproved は承認済みコメントを新しい順に返す。
	ListApproved(ctx context.Context, postID int64) ([]*model.Comment, error)
	Create(ctx context.Context, c *model.Comment) error
	// Approve はコメントを承認済みにする。対象がなかった場合はfalseを返す。
	Approve(ctx context.Context, id int64) (bool, error)
	// Delete はコメントを削除する。対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

// TagRepository はタグの永続化インターフェース。
type TagRepository interface {
	List(ctx context.Context) ([]*model.Tag, error)
	// FindByNameOrSlug は名前またはslugが一致するタグを取得する。見つからない場合はnilを返す。
	FindByNameOrSlug(ctx context.Context, name, slug string) (*model.Tag, error)
	Create(ctx context.Context, tag *model.Tag) error
	ListByPost(ctx context.Context, postID int64) ([]*model.Tag, error)
	// ReplaceForPost は記事のタグを同一トランザクションで付け替える。
	// 存在しないタグIDが含まれる場合はErrForeignKeyViolationを返し、何も変更しない。
	ReplaceForPost(ctx context.Context, postID int64, tagIDs []int64) error
}

// ImageRepository は記事画像の永続化インターフェース。
type ImageRepository interface {
	Create(ctx context.Context, img *model.Image) error
	FindByID(ctx context.Context, id int64) (*model.Image, error)
	ListByPost(ctx context.Context, postID int64) ([]*model.Image, error)
	// Delete は画像を削除する。対象がなかった場合はfalseを返す。
	Delete(ctx context.Context, id int64) (bool, error)
}

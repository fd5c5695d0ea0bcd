// Package blog はブログ記事・コメント・タグ・画像の業務ロジックを提供する。
//
// 一意性（記事slug・タグ名）は書き込み前に確認し、同時書き込みで一意制約に
// 当たった場合も同じDuplicateResourceに変換する。
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
	"github.com/darave/studio/internal/security"
	"github.com/darave/studio/internal/storage"
)

// クライアントに返すメッセージ
const (
	MessagePostNotFound    = "Blog post not found"
	MessageSlugExists      = "A post with this slug already exists"
	MessageCommentNotFound = "Comment not found"
	MessageTagExists       = "A tag with this name already exists"
	MessageTagNotFound     = "Tag not found"
	MessageImageNotFound   = "Image not found"
)

const (
	// excerptLength は導出する抜粋の最大文字数。
	excerptLength = 160
	// wordsPerMinute は読了時間の算出に使う読書速度。
	wordsPerMinute = 200
	// listLimit は一覧APIが返す記事数の上限。
	listLimit = 100
)

// Repositories はServiceが使うリポジトリ一式。
type Repositories struct {
	Posts    repository.PostRepository
	Comments repository.CommentRepository
	Tags     repository.TagRepository
	Images   repository.ImageRepository
}

// Service はブログの業務ロジックを提供する。
type Service struct {
	posts     repository.PostRepository
	comments  repository.CommentRepository
	tags      repository.TagRepository
	images    repository.ImageRepository
	sanitizer security.ContentSanitizer
	store     storage.ObjectStore
	maxUpload int64
}

// NewService はServiceを生成する。storeがnilの場合はアップロードを無効にする。
func NewService(repos Repositories, sanitizer security.ContentSanitizer, store storage.ObjectStore, maxUpload int64) *Service {
	if store == nil {
		store = storage.Disabled{}
	}
	return &Service{
		posts:     repos.Posts,
		comments:  repos.Comments,
		tags:      repos.Tags,
		images:    repos.Images,
		sanitizer: sanitizer,
		store:     store,
		maxUpload: maxUpload,
	}
}

// PostDraft は記事作成の入力。Slug・Excerpt・ReadTimeは空なら導出する。
type PostDraft struct {
	Title         string
	Slug          string
	Content       string
	Excerpt       string
	Author        string
	Category      string
	ReadTime      string
	Published     *bool
	FeaturedImage *string
	AuthorID      int64
}

// ListPosts は記事を新しい順に返す。下書きは認証済みの呼び出しにのみ含める。
func (s *Service) ListPosts(ctx context.Context, includeDrafts bool) ([]*model.BlogPost, error) {
	return s.posts.List(ctx, includeDrafts, listLimit)
}

// GetPost はslugで記事を取得する。下書きはincludeDraftsがfalseなら見つからない扱いにする。
func (s *Service) GetPost(ctx context.Context, postSlug string, includeDrafts bool) (*model.BlogPost, error) {
	post, err := s.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if post == nil || (!post.Published && !includeDrafts) {
		return nil, model.NewNotFoundError(MessagePostNotFound)
	}
	return post, nil
}

// ListByCategory は指定カテゴリの公開記事を返す。
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*model.BlogPost, error) {
	return s.posts.ListByCategory(ctx, category)
}

// Search はタイトル・本文・抜粋に部分一致する公開記事を返す。
func (s *Service) Search(ctx context.Context, query string) ([]*model.BlogPost, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.BlogPost{}, nil
	}
	return s.posts.Search(ctx, query)
}

// CreatePost は記事を作成する。本文はサニタイズしてから保存する。
func (s *Service) CreatePost(ctx context.Context, d PostDraft) (*model.BlogPost, error) {
	postSlug := d.Slug
	if postSlug == "" {
		postSlug = slug.Make(d.Title)
	}
	if postSlug == "" {
		return nil, model.NewFieldError("slug", "Slug could not be derived from the title")
	}

	existing, err := s.posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateResourceError("slug", MessageSlugExists)
	}

	content, plain, err := s.sanitizeContent(d.Content)
	if err != nil {
		return nil, err
	}

	post := &model.BlogPost{
		Title:         d.Title,
		Slug:          postSlug,
		Content:       content,
		Excerpt:       d.Excerpt,
		Author:        d.Author,
		Category:      d.Category,
		ReadTime:      d.ReadTime,
		Published:     true,
		FeaturedImage: d.FeaturedImage,
	}
	if d.AuthorID != 0 {
		authorID := d.AuthorID
		post.AuthorID = &authorID
	}
	if d.Published != nil {
		post.Published = *d.Published
	}
	if post.Excerpt == "" {
		post.Excerpt = deriveExcerpt(plain)
	}
	if post.ReadTime == "" {
		post.ReadTime = deriveReadTime(plain)
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, model.NewDuplicateResourceError("slug", MessageSlugExists)
		}
		return nil, err
	}

	slog.Info("blog post created", slog.Int64("post_id", post.ID), slog.String("slug", post.Slug))
	return post, nil
}

// UpdatePost は指定フィールドのみ更新する。slugを変更する場合は他記事との重複を確認する。
func (s *Service) UpdatePost(ctx context.Context, id int64, upd model.BlogPostUpdate) (*model.BlogPost, error) {
	if upd.Content != nil {
		content, _, err := s.sanitizeContent(*upd.Content)
		if err != nil {
			return nil, err
		}
		upd.Content = &content
	}
	if upd.Slug != nil {
		existing, err := s.posts.FindBySlug(ctx, *upd.Slug)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, model.NewDuplicateResourceError("slug", MessageSlugExists)
		}
	}

	post, err := s.posts.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, model.NewDuplicateResourceError("slug", MessageSlugExists)
		}
		return nil, err
	}
	if post == nil {
		return nil, model.NewNotFoundError(MessagePostNotFound)
	}
	return post, nil
}

// sanitizeContent は本文をサニタイズし、テキストも画像も残らない場合はエラーにする。
func (s *Service) sanitizeContent(raw string) (content, plain string, err error) {
	content = s.sanitizer.SanitizePost(raw)
	plain = s.sanitizer.PlainText(content)
	if plain == "" && !strings.Contains(content, "<img") {
		return "", "", model.NewFieldError("content", "Content is required")
	}
	return content, plain, nil
}

// DeletePost は記事を削除する。コメントとタグ付けはDBのカスケードで消える。
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	deleted, err := s.posts.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewNotFoundError(MessagePostNotFound)
	}
	slog.Info("blog post deleted", slog.Int64("post_id", id))
	return nil
}

// requirePost は記事の存在を確認する。
func (s *Service) requirePost(ctx context.Context, id int64) (*model.BlogPost, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, model.NewNotFoundError(MessagePostNotFound)
	}
	return post, nil
}

// deriveExcerpt はプレーンテキストの先頭から単語境界で切った抜粋を作る。
func deriveExcerpt(plain string) string {
	if utf8.RuneCountInString(plain) <= excerptLength {
		return plain
	}
	runes := []rune(plain)
	cut := string(runes[:excerptLength])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

// deriveReadTime は語数から「N min read」を算出する。最短1分。
func deriveReadTime(plain string) string {
	words := len(strings.Fields(plain))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

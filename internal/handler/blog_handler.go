package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/darave/studio/internal/blog"
	"github.com/darave/studio/internal/middleware"
	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/validation"
)

// MessagePostDeleted は記事削除成功時のメッセージ。
const MessagePostDeleted = "Blog post deleted successfully"

// BlogServiceInterface はブログハンドラーが必要とするサービスインターフェース。
type BlogServiceInterface interface {
	ListPosts(ctx context.Context, includeDrafts bool) ([]*model.BlogPost, error)
	GetPost(ctx context.Context, slug string, includeDrafts bool) (*model.BlogPost, error)
	ListByCategory(ctx context.Context, category string) ([]*model.BlogPost, error)
	Search(ctx context.Context, query string) ([]*model.BlogPost, error)
	CreatePost(ctx context.Context, d blog.PostDraft) (*model.BlogPost, error)
	UpdatePost(ctx context.Context, id int64, upd model.BlogPostUpdate) (*model.BlogPost, error)
	DeletePost(ctx context.Context, id int64) error
	RSS(ctx context.Context, info blog.FeedInfo) ([]byte, error)

	ListComments(ctx context.Context, slug string) ([]*model.Comment, error)
	AddComment(ctx context.Context, slug string, d blog.CommentDraft) (*model.Comment, error)
	ApproveComment(ctx context.Context, id int64) error
	DeleteComment(ctx context.Context, id int64) error

	ListTags(ctx context.Context) ([]*model.Tag, error)
	CreateTag(ctx context.Context, name, slug string) (*model.Tag, error)
	PostTags(ctx context.Context, postID int64) ([]*model.Tag, error)
	SetPostTags(ctx context.Context, postID int64, tagIDs []int64) ([]*model.Tag, error)

	UploadsEnabled() bool
	MaxUploadBytes() int64
	AddImage(ctx context.Context, d blog.ImageDraft) (*model.Image, error)
	UploadImage(ctx context.Context, up blog.Upload, d blog.ImageDraft) (*model.Image, error)
	PostImages(ctx context.Context, postID int64) ([]*model.Image, error)
	DeleteImage(ctx context.Context, id int64) error
}

var _ BlogServiceInterface = (*blog.Service)(nil)

// BlogHandler はブログ記事・コメント・タグ・画像のHTTPハンドラー。
// 読み取りは誰でも可能で、書き込みのルートはRequireAuthの内側に置く。
type BlogHandler struct {
	responder
	service   BlogServiceInterface
	validator *validation.Validator
	feed      blog.FeedInfo
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(service BlogServiceInterface, v *validation.Validator, feed blog.FeedInfo, exposeDetail bool) *BlogHandler {
	return &BlogHandler{
		responder: responder{exposeDetail: exposeDetail},
		service:   service,
		validator: v,
		feed:      feed,
	}
}

// ListPosts は記事一覧を返す。下書きはログイン中のみ含める。
// GET /api/blog
func (h *BlogHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	_, authed := middleware.UserIDFromContext(r.Context())
	posts, err := h.service.ListPosts(r.Context(), authed)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetPost はslugで記事を返す。
// GET /api/blog/{slug}
func (h *BlogHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	_, authed := middleware.UserIDFromContext(r.Context())
	post, err := h.service.GetPost(r.Context(), chi.URLParam(r, "slug"), authed)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// ListByCategory はカテゴリ別の記事一覧を返す。
// GET /api/blog/category/{category}
func (h *BlogHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListByCategory(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// Search は記事を検索する。
// GET /api/blog/search/{query}
func (h *BlogHandler) Search(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.Search(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// RSS は公開記事のRSSフィードを返す。
// GET /api/blog/rss
func (h *BlogHandler) RSS(w http.ResponseWriter, r *http.Request) {
	body, err := h.service.RSS(r.Context(), h.feed)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Debug("failed to write rss", slog.String("error", err.Error()))
	}
}

// CreatePost は記事を作成する。
// POST /api/blog
func (h *BlogHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in validation.BlogPostInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	post, err := h.service.CreatePost(r.Context(), blog.PostDraft{
		Title:         in.Title,
		Slug:          in.Slug,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		Author:        in.Author,
		Category:      in.Category,
		ReadTime:      in.ReadTime,
		Published:     in.Published,
		FeaturedImage: in.FeaturedImage,
		AuthorID:      userID,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// UpdatePost は記事を部分更新する。
// PUT /api/blog/{id}
func (h *BlogHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var in validation.BlogPostPatch
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	post, err := h.service.UpdatePost(r.Context(), id, model.BlogPostUpdate{
		Title:         in.Title,
		Slug:          in.Slug,
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		Author:        in.Author,
		Category:      in.Category,
		ReadTime:      in.ReadTime,
		Published:     in.Published,
		FeaturedImage: in.FeaturedImage,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost は記事を削除する。
// DELETE /api/blog/{id}
func (h *BlogHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.service.DeletePost(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: MessagePostDeleted})
}

package blog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/darave/studio/internal/model"
)

// MessageGuestIdentity はゲスト投稿で名前かメールが欠けている場合のメッセージ。
const MessageGuestIdentity = "Please provide your name and email"

// CommentDraft はコメント投稿の入力。UserIDがnilの場合はゲスト投稿。
type CommentDraft struct {
	Content    string
	GuestName  *string
	GuestEmail *string
	UserID     *int64
}

// ListComments は記事の承認済みコメントを返す。
func (s *Service) ListComments(ctx context.Context, postSlug string) ([]*model.Comment, error) {
	post, err := s.GetPost(ctx, postSlug, false)
	if err != nil {
		return nil, err
	}
	return s.comments.ListApproved(ctx, post.ID)
}

// AddComment は記事にコメントを投稿する。
// ログインユーザーのコメントは即時公開し、ゲストのコメントは承認待ちにする。
func (s *Service) AddComment(ctx context.Context, postSlug string, d CommentDraft) (*model.Comment, error) {
	post, err := s.GetPost(ctx, postSlug, false)
	if err != nil {
		return nil, err
	}

	c := &model.Comment{
		PostID:   post.ID,
		UserID:   d.UserID,
		Approved: d.UserID != nil,
	}
	if d.UserID == nil {
		name := trimmed(d.GuestName)
		email := trimmed(d.GuestEmail)
		if name == "" {
			return nil, model.NewFieldError("guestName", MessageGuestIdentity)
		}
		if email == "" {
			return nil, model.NewFieldError("guestEmail", MessageGuestIdentity)
		}
		name = s.sanitizer.SanitizeComment(name)
		c.GuestName = &name
		c.GuestEmail = &email
	}

	c.Content = s.sanitizer.SanitizeComment(d.Content)
	if c.Content == "" {
		return nil, model.NewFieldError("content", "Content is required")
	}

	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	slog.Info("comment created",
		slog.Int64("comment_id", c.ID),
		slog.Int64("post_id", post.ID),
		slog.Bool("approved", c.Approved),
	)
	return c, nil
}

// ApproveComment は承認待ちのコメントを公開する。
func (s *Service) ApproveComment(ctx context.Context, id int64) error {
	ok, err := s.comments.Approve(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewNotFoundError(MessageCommentNotFound)
	}
	return nil
}

// DeleteComment はコメントを削除する。
func (s *Service) DeleteComment(ctx context.Context, id int64) error {
	ok, err := s.comments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewNotFoundError(MessageCommentNotFound)
	}
	return nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

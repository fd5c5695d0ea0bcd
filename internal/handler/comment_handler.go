package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/darave/studio/internal/blog"
	"github.com/darave/studio/internal/validation"
)

// クライアントに返すメッセージ
const (
	MessageCommentApproved = "Comment approved"
	MessageCommentDeleted  = "Comment deleted successfully"
)

// ListComments は記事の承認済みコメントを返す。
// GET /api/blog/{slug}/comments
func (h *BlogHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// AddComment はコメントを投稿する。ゲストは名前とメールが必須。
// POST /api/blog/{slug}/comments
func (h *BlogHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var in validation.CommentInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	draft := blog.CommentDraft{Content: in.Content, UserID: optionalUserID(r)}
	if draft.UserID == nil {
		draft.GuestName = in.GuestName
		draft.GuestEmail = in.GuestEmail
	}

	comment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "slug"), draft)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

// ApproveComment は承認待ちのコメントを公開する。
// PUT /api/blog/comments/{id}/approve
func (h *BlogHandler) ApproveComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.service.ApproveComment(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: MessageCommentApproved})
}

// DeleteComment はコメントを削除する。
// DELETE /api/blog/comments/{id}
func (h *BlogHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.service.DeleteComment(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: MessageCommentDeleted})
}

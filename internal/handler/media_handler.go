package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/darave/studio/internal/blog"
	"github.com/darave/studio/internal/middleware"
	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/validation"
)

// MessageImageDeleted は画像削除成功時のメッセージ。
const MessageImageDeleted = "Image deleted successfully"

const (
	// multipartMemory はmultipartフォームをメモリに保持する上限。超えた分は一時ファイルになる。
	multipartMemory = 1 << 20
	// multipartOverhead はファイル以外のフォーム部分に許容するサイズ。
	multipartOverhead = 64 << 10
	// sniffLength はContent-Type判定に読む先頭バイト数。
	sniffLength = 512
)

// ListTags はタグ一覧を返す。
// GET /api/blog/tags
func (h *BlogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// CreateTag はタグを作成する。
// POST /api/blog/tags
func (h *BlogHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in validation.TagInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	tag, err := h.service.CreateTag(r.Context(), in.Name, in.Slug)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// PostTags は記事のタグを返す。
// GET /api/blog/{postID}/tags
func (h *BlogHandler) PostTags(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	tags, err := h.service.PostTags(r.Context(), postID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// SetPostTags は記事のタグを置き換える。
// POST /api/blog/{postID}/tags
func (h *BlogHandler) SetPostTags(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	var in validation.PostTagsInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	tags, err := h.service.SetPostTags(r.Context(), postID, in.TagIDs)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// PostImages は記事の画像を返す。
// GET /api/blog/{postID}/images
func (h *BlogHandler) PostImages(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postID")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	images, err := h.service.PostImages(r.Context(), postID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// CreateImage は画像を登録する。
// JSONの場合はURLを登録し、multipartの場合はfileフィールドをストレージにアップロードする。
// POST /api/blog/images
func (h *BlogHandler) CreateImage(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		h.uploadImage(w, r)
		return
	}

	var in validation.ImageInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	uploader, _ := middleware.UserIDFromContext(r.Context())
	img, err := h.service.AddImage(r.Context(), blog.ImageDraft{
		URL:        in.URL,
		AltText:    in.AltText,
		PostID:     in.PostID,
		UploadedBy: uploader,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (h *BlogHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	// 無効時は本文を読む前に断る
	if !h.service.UploadsEnabled() {
		h.handleServiceError(w, r, model.NewStorageDisabledError())
		return
	}

	limit := h.service.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.handleServiceError(w, r, model.NewPayloadTooLargeError(limit))
			return
		}
		h.handleServiceError(w, r, model.NewFieldError("file", "Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	meta, err := h.uploadMeta(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.handleServiceError(w, r, model.NewFieldError("file", "File is required"))
		return
	}
	defer file.Close()

	// Content-Typeはクライアントの申告ではなく中身から判定する
	head := make([]byte, sniffLength)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		h.handleServiceError(w, r, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	head = head[:n]

	uploader, _ := middleware.UserIDFromContext(r.Context())
	img, err := h.service.UploadImage(r.Context(), blog.Upload{
		Filename:    header.Filename,
		ContentType: http.DetectContentType(head),
		Size:        header.Size,
		Body:        io.MultiReader(bytes.NewReader(head), file),
	}, blog.ImageDraft{
		AltText:    meta.AltText,
		PostID:     meta.PostID,
		UploadedBy: uploader,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

// uploadMeta はmultipartフォームのaltTextとpostIdを取り出して検証する。
func (h *BlogHandler) uploadMeta(r *http.Request) (*validation.ImageUploadInput, error) {
	meta := &validation.ImageUploadInput{}
	if alt := strings.TrimSpace(r.FormValue("altText")); alt != "" {
		meta.AltText = &alt
	}
	if raw := strings.TrimSpace(r.FormValue("postId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, model.NewFieldError("postId", "postId must be an integer")
		}
		meta.PostID = &id
	}
	if err := h.validator.Struct(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// DeleteImage は画像を削除する。
// DELETE /api/blog/images/{id}
func (h *BlogHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if err := h.service.DeleteImage(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: MessageImageDeleted})
}

package blog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
	"github.com/darave/studio/internal/storage"
)

// imageKeyPrefix はアップロード画像のオブジェクトキーの接頭辞。
const imageKeyPrefix = "blog"

// ImageDraft はURL指定による画像登録の入力。
type ImageDraft struct {
	URL        string
	AltText    *string
	PostID     *int64
	UploadedBy int64
}

// Upload はアップロードされたファイル。
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadsEnabled はファイルアップロードが可能かを返す。
func (s *Service) UploadsEnabled() bool {
	return s.store.Enabled()
}

// MaxUploadBytes はアップロードの上限サイズを返す。
func (s *Service) MaxUploadBytes() int64 {
	return s.maxUpload
}

// AddImage は外部URLの画像を登録する。
func (s *Service) AddImage(ctx context.Context, d ImageDraft) (*model.Image, error) {
	img := &model.Image{
		PostID:  d.PostID,
		URL:     d.URL,
		AltText: d.AltText,
	}
	if d.UploadedBy != 0 {
		uploader := d.UploadedBy
		img.UploadedBy = &uploader
	}
	if err := s.createImage(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

// UploadImage は画像ファイルをオブジェクトストレージに保存して登録する。
// 登録に失敗した場合は保存したオブジェクトを削除する。
func (s *Service) UploadImage(ctx context.Context, up Upload, d ImageDraft) (*model.Image, error) {
	if !s.store.Enabled() {
		return nil, model.NewStorageDisabledError()
	}
	if s.maxUpload > 0 && up.Size > s.maxUpload {
		return nil, model.NewPayloadTooLargeError(s.maxUpload)
	}
	if !strings.HasPrefix(up.ContentType, "image/") {
		return nil, model.NewFieldError("file", "Only image uploads are allowed")
	}

	key := storage.NewObjectKey(imageKeyPrefix, up.Filename)
	url, err := s.store.Put(ctx, key, up.ContentType, up.Body, up.Size)
	if err != nil {
		return nil, model.NewInternalError(fmt.Errorf("failed to store image: %w", err))
	}

	img := &model.Image{
		PostID:     d.PostID,
		URL:        url,
		StorageKey: &key,
		AltText:    d.AltText,
	}
	if d.UploadedBy != 0 {
		uploader := d.UploadedBy
		img.UploadedBy = &uploader
	}
	if err := s.createImage(ctx, img); err != nil {
		s.removeObject(ctx, key)
		return nil, err
	}

	slog.Info("image uploaded", slog.Int64("image_id", img.ID), slog.String("key", key))
	return img, nil
}

func (s *Service) createImage(ctx context.Context, img *model.Image) error {
	if err := s.images.Create(ctx, img); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return model.NewNotFoundError(MessagePostNotFound)
		}
		return err
	}
	return nil
}

// PostImages は記事の画像を新しい順に返す。
func (s *Service) PostImages(ctx context.Context, postID int64) ([]*model.Image, error) {
	return s.images.ListByPost(ctx, postID)
}

// DeleteImage は画像を削除する。アップロードされた画像はストレージからも削除する。
func (s *Service) DeleteImage(ctx context.Context, id int64) error {
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if img == nil {
		return model.NewNotFoundError(MessageImageNotFound)
	}

	deleted, err := s.images.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewNotFoundError(MessageImageNotFound)
	}

	if img.StorageKey != nil {
		s.removeObject(ctx, *img.StorageKey)
	}
	return nil
}

// removeObject はオブジェクトを削除する。失敗はログのみで、孤立オブジェクトとして残る。
func (s *Service) removeObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete stored image",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

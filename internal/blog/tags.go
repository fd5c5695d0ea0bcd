package blog

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
)

// ListTags はすべてのタグを名前順に返す。
func (s *Service) ListTags(ctx context.Context) ([]*model.Tag, error) {
	return s.tags.List(ctx)
}

// CreateTag はタグを作成する。slugが空なら名前から導出する。
func (s *Service) CreateTag(ctx context.Context, name, tagSlug string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if tagSlug == "" {
		tagSlug = slug.Make(name)
	}
	if tagSlug == "" {
		return nil, model.NewFieldError("slug", "Slug could not be derived from the name")
	}

	existing, err := s.tags.FindByNameOrSlug(ctx, name, tagSlug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateResourceError("name", MessageTagExists)
	}

	tag := &model.Tag{Name: name, Slug: tagSlug}
	if err := s.tags.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, model.NewDuplicateResourceError("name", MessageTagExists)
		}
		return nil, err
	}
	return tag, nil
}

// PostTags は記事に付いたタグを返す。
func (s *Service) PostTags(ctx context.Context, postID int64) ([]*model.Tag, error) {
	if _, err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}
	return s.tags.ListByPost(ctx, postID)
}

// SetPostTags は記事のタグを指定の集合に置き換える。
// 存在しないタグIDが含まれる場合は何も変更せずNotFoundを返す。
func (s *Service) SetPostTags(ctx context.Context, postID int64, tagIDs []int64) ([]*model.Tag, error) {
	if _, err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	if err := s.tags.ReplaceForPost(ctx, postID, dedupe(tagIDs)); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, model.NewNotFoundError(MessageTagNotFound)
		}
		return nil, err
	}
	return s.tags.ListByPost(ctx, postID)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

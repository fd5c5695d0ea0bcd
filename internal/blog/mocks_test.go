package blog

import (
	"context"
	"io"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
	"github.com/darave/studio/internal/security"
	"github.com/darave/studio/internal/storage"
)

// mockPostRepo はPostRepositoryのモック実装。
type mockPostRepo struct {
	listFn           func(ctx context.Context, includeDrafts bool, limit int) ([]*model.BlogPost, error)
	findByIDFn       func(ctx context.Context, id int64) (*model.BlogPost, error)
	findBySlugFn     func(ctx context.Context, slug string) (*model.BlogPost, error)
	listByCategoryFn func(ctx context.Context, category string) ([]*model.BlogPost, error)
	searchFn         func(ctx context.Context, query string) ([]*model.BlogPost, error)
	createFn         func(ctx context.Context, post *model.BlogPost) error
	updateFn         func(ctx context.Context, id int64, upd model.BlogPostUpdate) (*model.BlogPost, error)
	deleteFn         func(ctx context.Context, id int64) (bool, error)
}

var _ repository.PostRepository = (*mockPostRepo)(nil)

func (m *mockPostRepo) List(ctx context.Context, includeDrafts bool, limit int) ([]*model.BlogPost, error) {
	return m.listFn(ctx, includeDrafts, limit)
}
func (m *mockPostRepo) FindByID(ctx context.Context, id int64) (*model.BlogPost, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockPostRepo) FindBySlug(ctx context.Context, slug string) (*model.BlogPost, error) {
	return m.findBySlugFn(ctx, slug)
}
func (m *mockPostRepo) ListByCategory(ctx context.Context, category string) ([]*model.BlogPost, error) {
	return m.listByCategoryFn(ctx, category)
}
func (m *mockPostRepo) Search(ctx context.Context, query string) ([]*model.BlogPost, error) {
	return m.searchFn(ctx, query)
}
func (m *mockPostRepo) Create(ctx context.Context, post *model.BlogPost) error {
	return m.createFn(ctx, post)
}
func (m *mockPostRepo) Update(ctx context.Context, id int64, upd model.BlogPostUpdate) (*model.BlogPost, error) {
	return m.updateFn(ctx, id, upd)
}
func (m *mockPostRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return m.deleteFn(ctx, id)
}

// mockCommentRepo はCommentRepositoryのモック実装。
type mockCommentRepo struct {
	listApprovedFn func(ctx context.Context, postID int64) ([]*model.Comment, error)
	createFn       func(ctx context.Context, c *model.Comment) error
	approveFn      func(ctx context.Context, id int64) (bool, error)
	deleteFn       func(ctx context.Context, id int64) (bool, error)
}

var _ repository.CommentRepository = (*mockCommentRepo)(nil)

func (m *mockCommentRepo) ListApproved(ctx context.Context, postID int64) ([]*model.Comment, error) {
	return m.listApprovedFn(ctx, postID)
}
func (m *mockCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	return m.createFn(ctx, c)
}
func (m *mockCommentRepo) Approve(ctx context.Context, id int64) (bool, error) {
	return m.approveFn(ctx, id)
}
func (m *mockCommentRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return m.deleteFn(ctx, id)
}

// mockTagRepo はTagRepositoryのモック実装。
type mockTagRepo struct {
	listFn             func(ctx context.Context) ([]*model.Tag, error)
	findByNameOrSlugFn func(ctx context.Context, name, slug string) (*model.Tag, error)
	createFn           func(ctx context.Context, tag *model.Tag) error
	listByPostFn       func(ctx context.Context, postID int64) ([]*model.Tag, error)
	replaceForPostFn   func(ctx context.Context, postID int64, tagIDs []int64) error
}

var _ repository.TagRepository = (*mockTagRepo)(nil)

func (m *mockTagRepo) List(ctx context.Context) ([]*model.Tag, error) {
	return m.listFn(ctx)
}
func (m *mockTagRepo) FindByNameOrSlug(ctx context.Context, name, slug string) (*model.Tag, error) {
	return m.findByNameOrSlugFn(ctx, name, slug)
}
func (m *mockTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	return m.createFn(ctx, tag)
}
func (m *mockTagRepo) ListByPost(ctx context.Context, postID int64) ([]*model.Tag, error) {
	return m.listByPostFn(ctx, postID)
}
func (m *mockTagRepo) ReplaceForPost(ctx context.Context, postID int64, tagIDs []int64) error {
	return m.replaceForPostFn(ctx, postID, tagIDs)
}

// mockImageRepo はImageRepositoryのモック実装。
type mockImageRepo struct {
	createFn     func(ctx context.Context, img *model.Image) error
	findByIDFn   func(ctx context.Context, id int64) (*model.Image, error)
	listByPostFn func(ctx context.Context, postID int64) ([]*model.Image, error)
	deleteFn     func(ctx context.Context, id int64) (bool, error)
}

var _ repository.ImageRepository = (*mockImageRepo)(nil)

func (m *mockImageRepo) Create(ctx context.Context, img *model.Image) error {
	return m.createFn(ctx, img)
}
func (m *mockImageRepo) FindByID(ctx context.Context, id int64) (*model.Image, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockImageRepo) ListByPost(ctx context.Context, postID int64) ([]*model.Image, error) {
	return m.listByPostFn(ctx, postID)
}
func (m *mockImageRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return m.deleteFn(ctx, id)
}

// mockStore はObjectStoreのモック実装。
type mockStore struct {
	putFn    func(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	deleteFn func(ctx context.Context, key string) error
}

var _ storage.ObjectStore = (*mockStore)(nil)

func (m *mockStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	return m.putFn(ctx, key, contentType, body, size)
}
func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}
func (m *mockStore) Enabled() bool { return true }

type testDeps struct {
	posts    *mockPostRepo
	comments *mockCommentRepo
	tags     *mockTagRepo
	images   *mockImageRepo
	store    storage.ObjectStore
}

func newTestService(d testDeps) *Service {
	if d.posts == nil {
		d.posts = &mockPostRepo{}
	}
	if d.comments == nil {
		d.comments = &mockCommentRepo{}
	}
	if d.tags == nil {
		d.tags = &mockTagRepo{}
	}
	if d.images == nil {
		d.images = &mockImageRepo{}
	}
	return NewService(Repositories{
		Posts:    d.posts,
		Comments: d.comments,
		Tags:     d.tags,
		Images:   d.images,
	}, security.NewContentSanitizer(), d.store, 1024)
}

func publishedPost(id int64, slug string) *model.BlogPost {
	return &model.BlogPost{ID: id, Slug: slug, Title: "Post " + slug, Published: true}
}

func ptr[T any](v T) *T { return &v }

package handler

import (
	"context"
	"net/http"

	"github.com/darave/studio/internal/blog"
	"github.com/darave/studio/internal/model"
)

// --- モック定義 ---

type mockCredentialService struct {
	createUserFn        func(ctx context.Context, email, password, name string) (*model.User, error)
	verifyCredentialsFn func(ctx context.Context, email, password string) (*model.User, error)
	getUserFn           func(ctx context.Context, id int64) (*model.User, error)
}

var _ CredentialService = (*mockCredentialService)(nil)

func (m *mockCredentialService) CreateUser(ctx context.Context, email, password, name string) (*model.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, email, password, name)
	}
	return &model.User{ID: 1, Email: email, Name: name}, nil
}

func (m *mockCredentialService) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	if m.verifyCredentialsFn != nil {
		return m.verifyCredentialsFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockCredentialService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	if m.getUserFn != nil {
		return m.getUserFn(ctx, id)
	}
	return nil, nil
}

type mockSessionService struct {
	attachUserFn func(ctx context.Context, w http.ResponseWriter, s *model.Session, userID int64) error
	destroyFn    func(ctx context.Context, w http.ResponseWriter, s *model.Session) error
}

var _ SessionService = (*mockSessionService)(nil)

func (m *mockSessionService) AttachUser(ctx context.Context, w http.ResponseWriter, s *model.Session, userID int64) error {
	if m.attachUserFn != nil {
		return m.attachUserFn(ctx, w, s, userID)
	}
	s.Data.UserID = &userID
	return nil
}

func (m *mockSessionService) Destroy(ctx context.Context, w http.ResponseWriter, s *model.Session) error {
	if m.destroyFn != nil {
		return m.destroyFn(ctx, w, s)
	}
	return nil
}

type mockLeadService struct {
	submitRegistrationFn func(ctx context.Context, r *model.Registration) error
	submitGameFn         func(ctx context.Context, g *model.GameSubmission) error
	submitAssetFn        func(ctx context.Context, a *model.AssetSubmission) error
	subscribeFn          func(ctx context.Context, email string) (*model.NewsletterSubscription, error)
}

var _ LeadServiceInterface = (*mockLeadService)(nil)

func (m *mockLeadService) SubmitRegistration(ctx context.Context, r *model.Registration) error {
	if m.submitRegistrationFn != nil {
		return m.submitRegistrationFn(ctx, r)
	}
	r.ID = 1
	return nil
}

func (m *mockLeadService) SubmitGame(ctx context.Context, g *model.GameSubmission) error {
	if m.submitGameFn != nil {
		return m.submitGameFn(ctx, g)
	}
	g.ID = 1
	return nil
}

func (m *mockLeadService) SubmitAsset(ctx context.Context, a *model.AssetSubmission) error {
	if m.submitAssetFn != nil {
		return m.submitAssetFn(ctx, a)
	}
	a.ID = 1
	return nil
}

func (m *mockLeadService) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, email)
	}
	return &model.NewsletterSubscription{ID: 1, Email: email}, nil
}

// mockBlogService はBlogServiceInterfaceのモック実装。
// 未設定の関数は空の結果を返す。
type mockBlogService struct {
	listPostsFn      func(ctx context.Context, includeDrafts bool) ([]*model.BlogPost, error)
	getPostFn        func(ctx context.Context, slug string, includeDrafts bool) (*model.BlogPost, error)
	listByCategoryFn func(ctx context.Context, category string) ([]*model.BlogPost, error)
	searchFn         func(ctx context.Context, query string) ([]*model.BlogPost, error)
	createPostFn     func(ctx context.Context, d blog.PostDraft) (*model.BlogPost, error)
	updatePostFn     func(ctx context.Context, id int64, upd model.BlogPostUpdate) (*model.BlogPost, error)
	deletePostFn     func(ctx context.Context, id int64) error
	rssFn            func(ctx context.Context, info blog.FeedInfo) ([]byte, error)

	listCommentsFn   func(ctx context.Context, slug string) ([]*model.Comment, error)
	addCommentFn     func(ctx context.Context, slug string, d blog.CommentDraft) (*model.Comment, error)
	approveCommentFn func(ctx context.Context, id int64) error
	deleteCommentFn  func(ctx context.Context, id int64) error

	listTagsFn    func(ctx context.Context) ([]*model.Tag, error)
	createTagFn   func(ctx context.Context, name, slug string) (*model.Tag, error)
	postTagsFn    func(ctx context.Context, postID int64) ([]*model.Tag, error)
	setPostTagsFn func(ctx context.Context, postID int64, tagIDs []int64) ([]*model.Tag, error)

	uploadsEnabled bool
	maxUpload      int64
	addImageFn     func(ctx context.Context, d blog.ImageDraft) (*model.Image, error)
	uploadImageFn  func(ctx context.Context, up blog.Upload, d blog.ImageDraft) (*model.Image, error)
	postImagesFn   func(ctx context.Context, postID int64) ([]*model.Image, error)
	deleteImageFn  func(ctx context.Context, id int64) error
}

var _ BlogServiceInterface = (*mockBlogService)(nil)

func (m *mockBlogService) ListPosts(ctx context.Context, includeDrafts bool) ([]*model.BlogPost, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx, includeDrafts)
	}
	return []*model.BlogPost{}, nil
}

func (m *mockBlogService) GetPost(ctx context.Context, slug string, includeDrafts bool) (*model.BlogPost, error) {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, slug, includeDrafts)
	}
	return nil, model.NewNotFoundError(blog.MessagePostNotFound)
}

func (m *mockBlogService) ListByCategory(ctx context.Context, category string) ([]*model.BlogPost, error) {
	if m.listByCategoryFn != nil {
		return m.listByCategoryFn(ctx, category)
	}
	return []*model.BlogPost{}, nil
}

func (m *mockBlogService) Search(ctx context.Context, query string) ([]*model.BlogPost, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return []*model.BlogPost{}, nil
}

func (m *mockBlogService) CreatePost(ctx context.Context, d blog.PostDraft) (*model.BlogPost, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, d)
	}
	return &model.BlogPost{ID: 1, Title: d.Title, Slug: d.Slug}, nil
}

func (m *mockBlogService) UpdatePost(ctx context.Context, id int64, upd model.BlogPostUpdate) (*model.BlogPost, error) {
	if m.updatePostFn != nil {
		return m.updatePostFn(ctx, id, upd)
	}
	return &model.BlogPost{ID: id}, nil
}

func (m *mockBlogService) DeletePost(ctx context.Context, id int64) error {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, id)
	}
	return nil
}

func (m *mockBlogService) RSS(ctx context.Context, info blog.FeedInfo) ([]byte, error) {
	if m.rssFn != nil {
		return m.rssFn(ctx, info)
	}
	return []byte("<rss/>"), nil
}

func (m *mockBlogService) ListComments(ctx context.Context, slug string) ([]*model.Comment, error) {
	if m.listCommentsFn != nil {
		return m.listCommentsFn(ctx, slug)
	}
	return []*model.Comment{}, nil
}

func (m *mockBlogService) AddComment(ctx context.Context, slug string, d blog.CommentDraft) (*model.Comment, error) {
	if m.addCommentFn != nil {
		return m.addCommentFn(ctx, slug, d)
	}
	return &model.Comment{ID: 1, Content: d.Content}, nil
}

func (m *mockBlogService) ApproveComment(ctx context.Context, id int64) error {
	if m.approveCommentFn != nil {
		return m.approveCommentFn(ctx, id)
	}
	return nil
}

func (m *mockBlogService) DeleteComment(ctx context.Context, id int64) error {
	if m.deleteCommentFn != nil {
		return m.deleteCommentFn(ctx, id)
	}
	return nil
}

func (m *mockBlogService) ListTags(ctx context.Context) ([]*model.Tag, error) {
	if m.listTagsFn != nil {
		return m.listTagsFn(ctx)
	}
	return []*model.Tag{}, nil
}

func (m *mockBlogService) CreateTag(ctx context.Context, name, slug string) (*model.Tag, error) {
	if m.createTagFn != nil {
		return m.createTagFn(ctx, name, slug)
	}
	return &model.Tag{ID: 1, Name: name, Slug: slug}, nil
}

func (m *mockBlogService) PostTags(ctx context.Context, postID int64) ([]*model.Tag, error) {
	if m.postTagsFn != nil {
		return m.postTagsFn(ctx, postID)
	}
	return []*model.Tag{}, nil
}

func (m *mockBlogService) SetPostTags(ctx context.Context, postID int64, tagIDs []int64) ([]*model.Tag, error) {
	if m.setPostTagsFn != nil {
		return m.setPostTagsFn(ctx, postID, tagIDs)
	}
	return []*model.Tag{}, nil
}

func (m *mockBlogService) UploadsEnabled() bool { return m.uploadsEnabled }

func (m *mockBlogService) MaxUploadBytes() int64 { return m.maxUpload }

func (m *mockBlogService) AddImage(ctx context.Context, d blog.ImageDraft) (*model.Image, error) {
	if m.addImageFn != nil {
		return m.addImageFn(ctx, d)
	}
	return &model.Image{ID: 1, URL: d.URL}, nil
}

func (m *mockBlogService) UploadImage(ctx context.Context, up blog.Upload, d blog.ImageDraft) (*model.Image, error) {
	if m.uploadImageFn != nil {
		return m.uploadImageFn(ctx, up, d)
	}
	return &model.Image{ID: 1}, nil
}

func (m *mockBlogService) PostImages(ctx context.Context, postID int64) ([]*model.Image, error) {
	if m.postImagesFn != nil {
		return m.postImagesFn(ctx, postID)
	}
	return []*model.Image{}, nil
}

func (m *mockBlogService) DeleteImage(ctx context.Context, id int64) error {
	if m.deleteImageFn != nil {
		return m.deleteImageFn(ctx, id)
	}
	return nil
}

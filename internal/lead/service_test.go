package lead

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
)

// mockLeadRepo はLeadRepositoryのモック実装。
type mockLeadRepo struct {
	createRegistrationFn    func(ctx context.Context, r *model.Registration) error
	createGameSubmissionFn  func(ctx context.Context, s *model.GameSubmission) error
	createAssetSubmissionFn func(ctx context.Context, s *model.AssetSubmission) error
	findNewsletterByEmailFn func(ctx context.Context, email string) (*model.NewsletterSubscription, error)
	createNewsletterFn      func(ctx context.Context, s *model.NewsletterSubscription) error
}

var _ repository.LeadRepository = (*mockLeadRepo)(nil)

func (m *mockLeadRepo) CreateRegistration(ctx context.Context, r *model.Registration) error {
	return m.createRegistrationFn(ctx, r)
}

func (m *mockLeadRepo) CreateGameSubmission(ctx context.Context, s *model.GameSubmission) error {
	return m.createGameSubmissionFn(ctx, s)
}

func (m *mockLeadRepo) CreateAssetSubmission(ctx context.Context, s *model.AssetSubmission) error {
	return m.createAssetSubmissionFn(ctx, s)
}

func (m *mockLeadRepo) FindNewsletterByEmail(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	return m.findNewsletterByEmailFn(ctx, email)
}

func (m *mockLeadRepo) CreateNewsletterSubscription(ctx context.Context, s *model.NewsletterSubscription) error {
	return m.createNewsletterFn(ctx, s)
}

func TestSubscribe_New(t *testing.T) {
	created := false
	repo := &mockLeadRepo{
		findNewsletterByEmailFn: func(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
			return nil, nil
		},
		createNewsletterFn: func(ctx context.Context, s *model.NewsletterSubscription) error {
			created = true
			s.ID = 3
			return nil
		},
	}

	sub, err := NewService(repo).Subscribe(context.Background(), "fan@example.com")

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(3), sub.ID)
	assert.Equal(t, "fan@example.com", sub.Email)
}

// 購読済みemailは書き込みを行わずに重複エラーになること
func TestSubscribe_AlreadySubscribed(t *testing.T) {
	repo := &mockLeadRepo{
		findNewsletterByEmailFn: func(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
			return &model.NewsletterSubscription{ID: 1, Email: email}, nil
		},
		createNewsletterFn: func(ctx context.Context, s *model.NewsletterSubscription) error {
			t.Fatal("insert must not run for an existing subscription")
			return nil
		},
	}

	_, err := NewService(repo).Subscribe(context.Background(), "fan@example.com")

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.ErrCodeDuplicateResource, apiErr.Code)
	assert.Equal(t, MessageAlreadySubscribed, apiErr.Message)
}

func TestSubscribe_RaceMapsToDuplicate(t *testing.T) {
	repo := &mockLeadRepo{
		findNewsletterByEmailFn: func(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
			return nil, nil
		},
		createNewsletterFn: func(ctx context.Context, s *model.NewsletterSubscription) error {
			return &repository.ConstraintError{Kind: repository.ErrUniqueViolation, Constraint: "newsletter_subscriptions_email_key"}
		},
	}

	_, err := NewService(repo).Subscribe(context.Background(), "fan@example.com")

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, model.ErrCodeDuplicateResource, apiErr.Code)
}

func TestSubmissions_PropagateRepositoryErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &mockLeadRepo{
		createRegistrationFn:    func(ctx context.Context, r *model.Registration) error { return boom },
		createGameSubmissionFn:  func(ctx context.Context, s *model.GameSubmission) error { return boom },
		createAssetSubmissionFn: func(ctx context.Context, s *model.AssetSubmission) error { return boom },
	}
	svc := NewService(repo)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SubmitRegistration(ctx, &model.Registration{Email: "a@example.com"}), boom)
	assert.ErrorIs(t, svc.SubmitGame(ctx, &model.GameSubmission{Email: "a@example.com"}), boom)
	assert.ErrorIs(t, svc.SubmitAsset(ctx, &model.AssetSubmission{Email: "a@example.com"}), boom)
}

func TestSubmitGame_KeepsOwnerAndMetrics(t *testing.T) {
	var saved *model.GameSubmission
	repo := &mockLeadRepo{
		createGameSubmissionFn: func(ctx context.Context, s *model.GameSubmission) error {
			saved = s
			s.ID = 10
			return nil
		},
	}
	owner := int64(5)
	dau := int64(1200)

	g := &model.GameSubmission{Email: "dev@example.com", GameName: "Orbit", GameLink: "https://orbit.example", DailyActiveUsers: &dau, UserID: &owner}
	require.NoError(t, NewService(repo).SubmitGame(context.Background(), g))

	assert.Equal(t, int64(10), g.ID)
	assert.Equal(t, &owner, saved.UserID)
	assert.Equal(t, int64(1200), *saved.DailyActiveUsers)
	assert.Nil(t, saved.Revenue)
}

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn    func(ctx context.Context, id int64) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	createFn      func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return nil
}

// テストではbcryptの最小コストで高速化する
var testHasher = BcryptHasher{Cost: bcrypt.MinCost}

func newTestService(t *testing.T, repo repository.UserRepository) *Service {
	t.Helper()
	svc, err := NewService(repo, testHasher)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func assertAPIErrorCode(t *testing.T, err error, code string) *model.APIError {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != code {
		t.Fatalf("Code = %q, want %q", apiErr.Code, code)
	}
	return apiErr
}

func TestCreateUser_HashesPasswordAndHidesHash(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepo{
		createFn: func(_ context.Context, user *model.User) error {
			cp := *user
			stored = &cp
			user.ID = 1
			return nil
		},
	}
	svc := newTestService(t, repo)

	user, err := svc.CreateUser(context.Background(), "alice@example.com", "Str0ng!Pass", "Alice")
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if user.ID != 1 || user.Email != "alice@example.com" || user.Name != "Alice" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.PasswordHash != "" {
		t.Error("returned user must not carry the password hash")
	}
	if stored == nil || stored.PasswordHash == "Str0ng!Pass" {
		t.Fatal("password must be stored hashed")
	}
	if err := testHasher.Compare(stored.PasswordHash, "Str0ng!Pass"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

// 72バイトを超えるパスワードも登録でき、末尾まで照合に使われること
func TestCreateUser_LongPassword(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepo{
		createFn: func(_ context.Context, user *model.User) error {
			cp := *user
			stored = &cp
			user.ID = 1
			return nil
		},
		findByEmailFn: func(_ context.Context, _ string) (*model.User, error) {
			if stored == nil {
				return nil, nil
			}
			cp := *stored
			return &cp, nil
		},
	}
	svc := newTestService(t, repo)

	long := "Aa1!" + strings.Repeat("x", 70)
	if _, err := svc.CreateUser(context.Background(), "long@example.com", long, "Long"); err != nil {
		t.Fatalf("CreateUser returned error for a %d-byte password: %v", len(long), err)
	}

	if _, err := svc.VerifyCredentials(context.Background(), "long@example.com", long); err != nil {
		t.Errorf("VerifyCredentials with the same password: %v", err)
	}
	// 73バイト目以降だけが異なるパスワードは拒否される
	other := long[:len(long)-1] + "y"
	_, err := svc.VerifyCredentials(context.Background(), "long@example.com", other)
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
}

func TestCreateUser_DuplicateEmail_CheckedBeforeWrite(t *testing.T) {
	created := false
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email}, nil
		},
		createFn: func(_ context.Context, _ *model.User) error {
			created = true
			return nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.CreateUser(context.Background(), "alice@example.com", "Str0ng!Pass", "Alice")

	apiErr := assertAPIErrorCode(t, err, model.ErrCodeDuplicateResource)
	if apiErr.Message != "User already exists" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "User already exists")
	}
	if created {
		t.Error("Create must not be called for a duplicate email")
	}
}

// 事前チェックをすり抜けた同時登録も制約違反ではなくDuplicateResourceになること
func TestCreateUser_RaceLoser_MappedToDuplicate(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(_ context.Context, _ *model.User) error {
			return &repository.ConstraintError{Kind: repository.ErrUniqueViolation, Constraint: "users_email_key", Err: errors.New("pq: duplicate key")}
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.CreateUser(context.Background(), "alice@example.com", "Str0ng!Pass", "Alice")

	apiErr := assertAPIErrorCode(t, err, model.ErrCodeDuplicateResource)
	if apiErr.Message != "User already exists" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestCreateUser_RepositoryError_Propagates(t *testing.T) {
	repoErr := errors.New("connection reset")
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, _ string) (*model.User, error) {
			return nil, repoErr
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.CreateUser(context.Background(), "alice@example.com", "Str0ng!Pass", "Alice")

	if !errors.Is(err, repoErr) {
		t.Fatalf("expected repository error, got %v", err)
	}
}

func TestVerifyCredentials_Success(t *testing.T) {
	hash, _ := testHasher.Hash("Str0ng!Pass")
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			return &model.User{ID: 3, Email: email, Name: "Alice", PasswordHash: hash}, nil
		},
	}
	svc := newTestService(t, repo)

	user, err := svc.VerifyCredentials(context.Background(), "alice@example.com", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("VerifyCredentials returned error: %v", err)
	}
	if user.ID != 3 {
		t.Errorf("ID = %d, want 3", user.ID)
	}
	if user.PasswordHash != "" {
		t.Error("returned user must not carry the password hash")
	}
}

// 存在しないユーザーとパスワード誤りは区別できないこと
func TestVerifyCredentials_UnknownUserAndWrongPassword_Identical(t *testing.T) {
	hash, _ := testHasher.Hash("Str0ng!Pass")
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			if email == "alice@example.com" {
				return &model.User{ID: 3, Email: email, PasswordHash: hash}, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(t, repo)

	_, errUnknown := svc.VerifyCredentials(context.Background(), "nobody@example.com", "Str0ng!Pass")
	_, errWrong := svc.VerifyCredentials(context.Background(), "alice@example.com", "Wr0ng!Pass")

	a := assertAPIErrorCode(t, errUnknown, model.ErrCodeInvalidCredentials)
	b := assertAPIErrorCode(t, errWrong, model.ErrCodeInvalidCredentials)
	if a.Message != b.Message || a.Error() != b.Error() {
		t.Errorf("errors differ: %q vs %q", a.Error(), b.Error())
	}
}

func TestGetUser_NotFound_ReturnsNil(t *testing.T) {
	svc := newTestService(t, &mockUserRepo{})

	user, err := svc.GetUser(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

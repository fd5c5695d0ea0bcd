// Package auth はパスワード認証の資格情報ストアを提供する。
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
)

// MessageUserExists は登録済みemailで登録しようとした場合のメッセージ。
const MessageUserExists = "User already exists"

// PasswordHasher はパスワードの一方向ハッシュ化と照合を行う。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher はbcryptによるPasswordHasher実装。ソルトはハッシュに含まれる。
// bcryptは72バイトを超える入力を扱えないため、SHA-256でまとめてから渡す。
// これにより長いパスワードも切り詰められずに全体が照合される。
type BcryptHasher struct {
	Cost int
}

// Hash はパスワードをハッシュ化する。
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword(prehash(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare はハッシュとパスワードを照合する。一致しない場合はエラーを返す。
func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password))
}

// prehash はパスワードを44バイトのbase64文字列にする。
// 生のダイジェストはNULバイトを含み得るため、そのままbcryptに渡さない。
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

// Service はユーザー資格情報の作成と検証を行う。
type Service struct {
	users  repository.UserRepository
	hasher PasswordHasher
	// dummyHash はユーザー不在時にも照合を行い、応答時間を揃えるためのハッシュ。
	dummyHash string
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, hasher PasswordHasher) (*Service, error) {
	dummy, err := hasher.Hash("timing-equalizer-Aa1!")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &Service{users: users, hasher: hasher, dummyHash: dummy}, nil
}

// CreateUser はユーザーを作成する。
// emailの重複は書き込み前に確認し、同時登録ですり抜けた場合も一意制約違反を
// 同じDuplicateResourceとして返す。返すユーザーにはハッシュを含めない。
func (s *Service) CreateUser(ctx context.Context, email, password, name string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateResourceError("email", MessageUserExists)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: hash, Name: name}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			slog.Warn("concurrent registration rejected by unique constraint", slog.String("email", email))
			return nil, model.NewDuplicateResourceError("email", MessageUserExists)
		}
		return nil, err
	}

	slog.Info("user registered", slog.Int64("user_id", user.ID))
	user.PasswordHash = ""
	return user, nil
}

// VerifyCredentials はemailとパスワードを検証する。
// ユーザー不在とパスワード不一致はどちらも同じInvalidCredentialsを返す。
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		_ = s.hasher.Compare(s.dummyHash, password)
		return nil, model.NewInvalidCredentialsError()
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	user.PasswordHash = ""
	return user, nil
}

// GetUser は指定IDのユーザーをハッシュなしで返す。見つからない場合はnilを返す。
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil || user == nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

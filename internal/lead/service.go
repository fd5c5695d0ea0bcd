// Package lead は公開フォーム（事前登録・ゲーム指標・アセット依頼・ニュースレター）の受付を提供する。
package lead

import (
	"context"
	"errors"
	"log/slog"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/repository"
)

// MessageAlreadySubscribed は購読済みemailで再購読しようとした場合のメッセージ。
const MessageAlreadySubscribed = "This email is already subscribed"

// Service は公開フォームの送信内容を保存する。
// ログイン中の送信にはハンドラーがUserIDを設定する。
type Service struct {
	leads repository.LeadRepository
}

// NewService はServiceを生成する。
func NewService(leads repository.LeadRepository) *Service {
	return &Service{leads: leads}
}

// SubmitRegistration は事前登録を保存する。
func (s *Service) SubmitRegistration(ctx context.Context, r *model.Registration) error {
	if err := s.leads.CreateRegistration(ctx, r); err != nil {
		return err
	}
	slog.Info("registration received", slog.Int64("registration_id", r.ID))
	return nil
}

// SubmitGame はゲーム指標の送信を保存する。
func (s *Service) SubmitGame(ctx context.Context, g *model.GameSubmission) error {
	if err := s.leads.CreateGameSubmission(ctx, g); err != nil {
		return err
	}
	slog.Info("game submission received", slog.Int64("submission_id", g.ID))
	return nil
}

// SubmitAsset はアセット制作依頼を保存する。
func (s *Service) SubmitAsset(ctx context.Context, a *model.AssetSubmission) error {
	if err := s.leads.CreateAssetSubmission(ctx, a); err != nil {
		return err
	}
	slog.Info("asset submission received", slog.Int64("submission_id", a.ID))
	return nil
}

// Subscribe はニュースレター購読を登録する。
// 購読済みのemailは書き込み前に検出し、同時購読で一意制約に当たった場合も同じエラーにする。
func (s *Service) Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	existing, err := s.leads.FindNewsletterByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, model.NewDuplicateResourceError("email", MessageAlreadySubscribed)
	}

	sub := &model.NewsletterSubscription{Email: email}
	if err := s.leads.CreateNewsletterSubscription(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, model.NewDuplicateResourceError("email", MessageAlreadySubscribed)
		}
		return nil, err
	}
	return sub, nil
}

package handler

import (
	"context"
	"net/http"

	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/validation"
)

// クライアントに返すメッセージ
const (
	MessageGameSubmitted  = "Game submission saved successfully"
	MessageAssetSubmitted = "Asset submission saved successfully"
	MessageSubscribed     = "Successfully subscribed to newsletter"
)

// LeadServiceInterface は公開フォームハンドラーが必要とするサービスインターフェース。
type LeadServiceInterface interface {
	SubmitRegistration(ctx context.Context, r *model.Registration) error
	SubmitGame(ctx context.Context, g *model.GameSubmission) error
	SubmitAsset(ctx context.Context, a *model.AssetSubmission) error
	Subscribe(ctx context.Context, email string) (*model.NewsletterSubscription, error)
}

// submissionResponse は{message, submission}形式のレスポンス。
type submissionResponse struct {
	Message    string `json:"message"`
	Submission any    `json:"submission"`
}

// LeadHandler は認証不要の公開フォームを受け付けるHTTPハンドラー。
// ログイン中であれば送信内容に所有ユーザーIDを付与する。
type LeadHandler struct {
	responder
	service   LeadServiceInterface
	validator *validation.Validator
}

// NewLeadHandler はLeadHandlerを生成する。
func NewLeadHandler(service LeadServiceInterface, v *validation.Validator, exposeDetail bool) *LeadHandler {
	return &LeadHandler{
		responder: responder{exposeDetail: exposeDetail},
		service:   service,
		validator: v,
	}
}

// CreateRegistration は事前登録を受け付ける。
// POST /api/registrations
func (h *LeadHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var in validation.RegistrationInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	reg := &model.Registration{
		Email:    in.Email,
		Interest: in.Interest,
		UserID:   optionalUserID(r),
	}
	if err := h.service.SubmitRegistration(r.Context(), reg); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// SubmitGame はゲーム指標の送信を受け付ける。
// POST /api/submissions/game
func (h *LeadHandler) SubmitGame(w http.ResponseWriter, r *http.Request) {
	var in validation.GameSubmissionInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	sub := &model.GameSubmission{
		Email:            in.Email,
		GameName:         in.GameName,
		GameLink:         in.GameLink,
		DailyActiveUsers: in.DailyActiveUsers.Ptr(),
		TotalVisits:      in.TotalVisits.Ptr(),
		Revenue:          in.Revenue.Ptr(),
		UserID:           optionalUserID(r),
	}
	if err := h.service.SubmitGame(r.Context(), sub); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, submissionResponse{Message: MessageGameSubmitted, Submission: sub})
}

// SubmitAsset はアセット制作依頼を受け付ける。
// POST /api/submissions/asset
func (h *LeadHandler) SubmitAsset(w http.ResponseWriter, r *http.Request) {
	var in validation.AssetSubmissionInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	sub := &model.AssetSubmission{
		Email:           in.Email,
		AssetsCount:     in.AssetsCount.Ptr(),
		AssetLinks:      in.AssetLinks,
		AdditionalNotes: in.AdditionalNotes,
		UserID:          optionalUserID(r),
	}
	if err := h.service.SubmitAsset(r.Context(), sub); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, submissionResponse{Message: MessageAssetSubmitted, Submission: sub})
}

// Subscribe はニュースレター購読を受け付ける。
// POST /api/newsletter/subscribe
func (h *LeadHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in validation.NewsletterInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if _, err := h.service.Subscribe(r.Context(), in.Email); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: MessageSubscribed})
}

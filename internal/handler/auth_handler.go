package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/darave/studio/internal/metrics"
	"github.com/darave/studio/internal/middleware"
	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/validation"
)

// MessageLoggedOut はログアウト成功時のメッセージ。
const MessageLoggedOut = "Logged out successfully"

// CredentialService は認証ハンドラーが必要とする資格情報ストアのインターフェース。
type CredentialService interface {
	CreateUser(ctx context.Context, email, password, name string) (*model.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// SessionService はセッションへのユーザー紐付けと破棄を行うインターフェース。
type SessionService interface {
	AttachUser(ctx context.Context, w http.ResponseWriter, s *model.Session, userID int64) error
	Destroy(ctx context.Context, w http.ResponseWriter, s *model.Session) error
}

// userResponse は{user:{id,email,name}}形式のレスポンス。
type userResponse struct {
	User model.PublicUser `json:"user"`
}

// AuthHandler は登録・ログイン・ログアウト・現在ユーザー取得のHTTPハンドラー。
type AuthHandler struct {
	responder
	credentials CredentialService
	sessions    SessionService
	validator   *validation.Validator
	metrics     metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(credentials CredentialService, sessions SessionService, v *validation.Validator, collector metrics.MetricsCollector, exposeDetail bool) *AuthHandler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &AuthHandler{
		responder:   responder{exposeDetail: exposeDetail},
		credentials: credentials,
		sessions:    sessions,
		validator:   v,
		metrics:     collector,
	}
}

// Register はユーザーを登録し、そのままログイン状態にする。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in validation.RegisterInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.recordAttempt("register", err)
		h.handleServiceError(w, r, err)
		return
	}

	user, err := h.credentials.CreateUser(r.Context(), in.Email, in.Password, in.Name)
	if err != nil {
		h.recordAttempt("register", err)
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.signIn(w, r, user.ID); err != nil {
		h.recordAttempt("register", err)
		h.handleServiceError(w, r, err)
		return
	}

	h.recordAttempt("register", nil)
	writeJSON(w, http.StatusCreated, userResponse{User: user.Public()})
}

// Login はemailとパスワードを検証してセッションにユーザーを紐付ける。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in validation.LoginInput
	if err := decodeJSON(w, r, h.validator, &in); err != nil {
		h.recordAttempt("login", err)
		h.handleServiceError(w, r, err)
		return
	}

	user, err := h.credentials.VerifyCredentials(r.Context(), in.Email, in.Password)
	if err != nil {
		h.recordAttempt("login", err)
		h.handleServiceError(w, r, err)
		return
	}

	if err := h.signIn(w, r, user.ID); err != nil {
		h.recordAttempt("login", err)
		h.handleServiceError(w, r, err)
		return
	}

	h.recordAttempt("login", nil)
	writeJSON(w, http.StatusOK, userResponse{User: user.Public()})
}

// Logout はセッションを破棄する。未ログインや破棄済みのセッションでも成功する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := middleware.SessionFromContext(r.Context())
	if err := h.sessions.Destroy(r.Context(), w, s); err != nil {
		h.metrics.RecordSessionStoreError("destroy")
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: MessageLoggedOut})
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.handleServiceError(w, r, model.NewUnauthenticatedError())
		return
	}

	user, err := h.credentials.GetUser(r.Context(), userID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if user == nil {
		// セッションが残ったままユーザーが削除された場合
		slog.Warn("session references missing user", slog.Int64("user_id", userID))
		h.handleServiceError(w, r, model.NewUnauthenticatedError())
		return
	}

	writeJSON(w, http.StatusOK, userResponse{User: user.Public()})
}

// signIn はセッションにユーザーを紐付ける。保存完了後にのみレスポンスを返す。
func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, userID int64) error {
	s := middleware.SessionFromContext(r.Context())
	if err := h.sessions.AttachUser(r.Context(), w, s, userID); err != nil {
		h.metrics.RecordSessionStoreError("save")
		return err
	}
	middleware.NoteUser(r.Context(), userID)
	return nil
}

func (h *AuthHandler) recordAttempt(action string, err error) {
	h.metrics.RecordAuthAttempt(action, attemptOutcome(err))
}

// attemptOutcome は認証操作の結果をメトリクス用のラベルに変換する。
func attemptOutcome(err error) string {
	if err == nil {
		return "success"
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case model.ErrCodeValidation:
			return "invalid_input"
		case model.ErrCodeInvalidCredentials:
			return "rejected"
		case model.ErrCodeDuplicateResource:
			return "duplicate"
		}
	}
	return "error"
}

package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/darave/studio/internal/model"
)

const (
	// csrfCookieName はCSRFトークンを保持するCookieの名前。
	// フロントエンドからJavaScriptで読み取れるよう、HttpOnlyではない。
	csrfCookieName = "csrf_token"
	// csrfHeaderName は状態変更リクエストでトークンを送り返すヘッダー名。
	csrfHeaderName = "X-CSRF-Token"

	csrfTokenBytes   = 32
	csrfCookieMaxAge = 24 * 60 * 60
)

var (
	errCSRFMissingCookie = errors.New("missing cookie token")
	errCSRFMissingHeader = errors.New("missing header token")
	errCSRFMismatch      = errors.New("token mismatch")
)

// CSRFConfig はCSRFミドルウェアの設定。
type CSRFConfig struct {
	CookieSecure bool
	CookieDomain string
	// CrossSite はフロントエンドが別オリジンの場合にSameSite=Noneを使う。
	CrossSite bool
}

// csrfGuard はダブルサブミットCookie方式のトークン発行と検証を行う。
type csrfGuard struct {
	config CSRFConfig
}

type csrfTokenResponse struct {
	Token string `json:"token"`
}

// NewCSRFMiddleware はダブルサブミットCookie方式のCSRF検証ミドルウェアを返す。
// GET/HEAD/OPTIONSは検証せず、トークンCookieがなければ発行する。
// それ以外のメソッドはCookieとX-CSRF-Tokenヘッダーの一致を必須とし、不一致は403にする。
func NewCSRFMiddleware(config CSRFConfig) func(next http.Handler) http.Handler {
	g := csrfGuard{config: config}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isSafeMethod(r.Method) {
				if err := g.verify(r); err != nil {
					slog.Warn("CSRF validation failed",
						slog.String("reason", err.Error()),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					WriteErrorResponse(w, http.StatusForbidden, model.NewCSRFError())
					return
				}
			} else if g.current(r) == "" {
				if _, err := g.issue(w); err != nil {
					slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewCSRFTokenHandler は GET /api/csrf-token のハンドラーを返す。
// Cookieに有効なトークンがあればそれを返し、なければ新規発行する。
func NewCSRFTokenHandler(config CSRFConfig) http.Handler {
	g := csrfGuard{config: config}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := g.current(r)
		if token == "" {
			var err error
			if token, err = g.issue(w); err != nil {
				slog.Error("failed to generate CSRF token", slog.String("error", err.Error()))
				WriteInternalServerError(w)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(csrfTokenResponse{Token: token})
	})
}

// current はリクエストのCookieに載っているトークンを返す。なければ空文字。
func (g csrfGuard) current(r *http.Request) string {
	c, err := r.Cookie(csrfCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (g csrfGuard) verify(r *http.Request) error {
	cookieToken := g.current(r)
	headerToken := r.Header.Get(csrfHeaderName)
	switch {
	case cookieToken == "":
		return errCSRFMissingCookie
	case headerToken == "":
		return errCSRFMissingHeader
	case subtle.ConstantTimeCompare([]byte(cookieToken), []byte(headerToken)) != 1:
		return errCSRFMismatch
	}
	return nil
}

// issue は新しいトークンを生成してCookieに設定する。
func (g csrfGuard) issue(w http.ResponseWriter) (string, error) {
	key := securecookie.GenerateRandomKey(csrfTokenBytes)
	if key == nil {
		return "", errors.New("random source unavailable")
	}
	token := base64.RawURLEncoding.EncodeToString(key)

	sameSite := http.SameSiteLaxMode
	if g.config.CrossSite {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		Domain:   g.config.CookieDomain,
		MaxAge:   csrfCookieMaxAge,
		HttpOnly: false,
		// SameSite=NoneはSecureなしでは拒否される
		Secure:   g.config.CookieSecure || g.config.CrossSite,
		SameSite: sameSite,
	})
	return token, nil
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

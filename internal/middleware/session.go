// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/darave/studio/internal/metrics"
	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
	sessionContextKey = contextKey("session")
	// requestUserContextKey はアクセスログ用のユーザーIDスロットのキー。
	requestUserContextKey = contextKey("request_user")
)

// SessionLoader はセッションの読み込みに必要なインターフェース。
// session.Managerの部分集合として定義する。
type SessionLoader interface {
	Load(ctx context.Context, r *http.Request) (*model.Session, error)
}

var _ SessionLoader = (*session.Manager)(nil)

// NewSessionMiddleware は署名付きCookieからセッションを読み込み、
// リクエストコンテキストに注入するミドルウェアを返す。
// Cookieがない・無効な場合は匿名セッションを注入して処理を続ける。
// セッションストアに到達できない場合は匿名扱いにせず500を返す。
func NewSessionMiddleware(loader SessionLoader, collector metrics.MetricsCollector) func(next http.Handler) http.Handler {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := loader.Load(r.Context(), r)
			if err != nil {
				slog.Error("failed to load session",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
				)
				collector.RecordSessionStoreError("load")
				WriteErrorResponse(w, http.StatusInternalServerError, model.NewSessionStoreUnavailableError(err))
				return
			}

			if userID, ok := session.CurrentUserID(s); ok {
				NoteUser(r.Context(), userID)
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), s)))
		})
	}
}

// RequireAuth は認証済みセッションを必須とするミドルウェア。
// NewSessionMiddlewareの後に配置する。匿名セッションには401を返す。
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションが注入されていない場合は匿名セッションを返す。
func SessionFromContext(ctx context.Context) *model.Session {
	if s, ok := ctx.Value(sessionContextKey).(*model.Session); ok && s != nil {
		return s
	}
	return &model.Session{IsNew: true}
}

// UserIDFromContext はリクエストコンテキストのセッションに紐付いたユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (int64, bool) {
	s, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok {
		return 0, false
	}
	return session.CurrentUserID(s)
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// requestUser はロギングミドルウェアと内側のハンドラーで共有するユーザーIDスロット。
type requestUser struct {
	userID int64
}

func withRequestUser(r *http.Request) (*http.Request, *requestUser) {
	slot := &requestUser{}
	return r.WithContext(context.WithValue(r.Context(), requestUserContextKey, slot)), slot
}

// NoteUser はアクセスログに出力するユーザーIDを記録する。
// ログイン・登録でセッションにユーザーを紐付けたハンドラーからも呼ぶ。
func NoteUser(ctx context.Context, userID int64) {
	if slot, ok := ctx.Value(requestUserContextKey).(*requestUser); ok {
		slot.userID = userID
	}
}

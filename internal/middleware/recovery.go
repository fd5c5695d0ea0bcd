package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/darave/studio/internal/model"
)

// NewRecoveryMiddleware はpanic発生時にプロセスクラッシュを防ぎ、
// JSON形式の500レスポンスを返すミドルウェアを生成する。
// exposeDetailがtrueの場合（非本番環境）はpanicの内容をdetailに含める。
func NewRecoveryMiddleware(exposeDetail bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)

				detail := ""
				if exposeDetail {
					detail = fmt.Sprint(rec)
				}
				WriteErrorResponseWithDetail(w, http.StatusInternalServerError, model.NewInternalError(nil), detail)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

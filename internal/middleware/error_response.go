package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/darave/studio/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// バリデーション失敗時は最初の違反フィールドと違反一覧を含む。
type ErrorResponseBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Category string            `json:"category"`
	Field    string            `json:"field,omitempty"`
	Errors   []model.Violation `json:"errors,omitempty"`
	Action   string            `json:"action,omitempty"`
	Detail   string            `json:"detail,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	WriteErrorResponseWithDetail(w, statusCode, apiErr, "")
}

// WriteErrorResponseWithDetail はdetailフィールド付きでエラーレスポンスを書き込む。
// detailは非本番環境の500系レスポンスでのみ指定する。
func WriteErrorResponseWithDetail(w http.ResponseWriter, statusCode int, apiErr *model.APIError, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	body := ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Field:    apiErr.Field,
		Errors:   apiErr.Violations,
		Action:   apiErr.Action,
		Detail:   detail,
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError(nil))
}

// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/darave/studio/internal/middleware"
	"github.com/darave/studio/internal/model"
	"github.com/darave/studio/internal/validation"
)

// maxJSONBodyBytes はJSONリクエストボディの上限サイズ。
const maxJSONBodyBytes = 1 << 20

// messageResponse はメッセージのみを返すレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// responder はエラーレスポンスの書き込みを担う。各ハンドラーに埋め込んで使う。
type responder struct {
	// exposeDetail は500系レスポンスに内部エラーの内容を含めるかどうか（非本番のみ）。
	exposeDetail bool
}

// writeJSON はvをJSONでエンコードして書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func (rs responder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
	}

	statusCode := mapAPIErrorToHTTPStatus(apiErr)
	if statusCode < http.StatusInternalServerError {
		middleware.WriteErrorResponse(w, statusCode, apiErr)
		return
	}

	// 内部原因はサーバー側のログにのみ出力する
	slog.Error("request failed",
		slog.String("code", apiErr.Code),
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)

	if apiErr.Code == model.ErrCodeUpstreamTimeout {
		w.Header().Set("Retry-After", "1")
	}
	detail := ""
	if rs.exposeDetail {
		detail = err.Error()
	}
	middleware.WriteErrorResponseWithDetail(w, statusCode, apiErr, detail)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeDuplicateResource, model.ErrCodeStorageDisabled:
		return http.StatusBadRequest
	case model.ErrCodeUnauthenticated, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeCSRF:
		return http.StatusForbidden
	case model.ErrCodeNotFound:
		return http.StatusNotFound
	case model.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case model.ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		// UPSTREAM_TIMEOUT, SESSION_STORE_UNAVAILABLE, INTERNAL_ERROR
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディを読み込み、スキーマへデコードして検証する。
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validation.Validator, dst any) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return model.NewPayloadTooLargeError(tooLarge.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	return v.Decode(raw, dst)
}

// pathID はURLパラメータから正の整数IDを取り出す。
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewFieldError(name, "ID must be a positive integer")
	}
	return id, nil
}

// optionalUserID はセッションのユーザーIDを返す。匿名の場合はnil。
func optionalUserID(r *http.Request) *int64 {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}

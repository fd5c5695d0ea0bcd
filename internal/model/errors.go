// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// 失敗の種類はCodeで識別し、HTTPステータスへの変換はハンドラ層で一箇所にまとめる。
type APIError struct {
	Code       string      // エラーコード
	Message    string      // クライアント向けメッセージ
	Category   string      // カテゴリ: auth, validation, resource, rate_limit, system
	Field      string      // 最初に違反したフィールド（検証エラーのみ）
	Violations []Violation // 違反の全リスト（検証順）
	Action     string      // ユーザー向け対処方法
	Err        error       // 内部原因。ログにのみ出力する
}

// Violation は1件のフィールド違反を表す。
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は内部原因を返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeValidation              = "VALIDATION_ERROR"
	ErrCodeUnauthenticated         = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials      = "INVALID_CREDENTIALS"
	ErrCodeDuplicateResource       = "DUPLICATE_RESOURCE"
	ErrCodeNotFound                = "NOT_FOUND"
	ErrCodeRateLimited             = "RATE_LIMITED"
	ErrCodeUpstreamTimeout         = "UPSTREAM_TIMEOUT"
	ErrCodeSessionStoreUnavailable = "SESSION_STORE_UNAVAILABLE"
	ErrCodeInternal                = "INTERNAL_ERROR"
	ErrCodePayloadTooLarge         = "PAYLOAD_TOO_LARGE"
	ErrCodeStorageDisabled         = "STORAGE_DISABLED"
	ErrCodeCSRF                    = "CSRF_TOKEN_INVALID"
	ErrCodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
)

// NewValidationError は検証エラーを生成する。
// MessageとFieldには最初の違反を設定する。
func NewValidationError(violations []Violation) *APIError {
	e := &APIError{
		Code:       ErrCodeValidation,
		Message:    "Invalid request body",
		Category:   "validation",
		Violations: violations,
	}
	if len(violations) > 0 {
		e.Field = violations[0].Field
		e.Message = violations[0].Message
	}
	return e
}

// NewFieldError は単一フィールドの検証エラーを生成する。
func NewFieldError(field, message string) *APIError {
	return NewValidationError([]Violation{{Field: field, Message: message}})
}

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Not authenticated",
		Category: "auth",
		Action:   "Please log in and try again.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー不在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
	}
}

// NewDuplicateResourceError は一意制約違反エラーを生成する。
func NewDuplicateResourceError(field, message string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateResource,
		Message:  message,
		Category: "resource",
		Field:    field,
	}
}

// NewNotFoundError はリソース未検出エラーを生成する。
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeNotFound,
		Message:  message,
		Category: "resource",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests, please try again later.",
		Category: "rate_limit",
		Action:   "Wait before retrying.",
	}
}

// NewUpstreamTimeoutError はデータベース応答のタイムアウトエラーを生成する。
func NewUpstreamTimeoutError(err error) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamTimeout,
		Message:  "The service is temporarily unavailable. Please try again.",
		Category: "system",
		Err:      err,
	}
}

// NewSessionStoreUnavailableError はセッションストア障害エラーを生成する。
func NewSessionStoreUnavailableError(err error) *APIError {
	return &APIError{
		Code:     ErrCodeSessionStoreUnavailable,
		Message:  "The service is temporarily unavailable. Please try again.",
		Category: "system",
		Err:      err,
	}
}

// NewInternalError は予期しないエラーを生成する。
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Err:      err,
	}
}

// NewPayloadTooLargeError はアップロードサイズ超過エラーを生成する。
func NewPayloadTooLargeError(limit int64) *APIError {
	return &APIError{
		Code:     ErrCodePayloadTooLarge,
		Message:  fmt.Sprintf("File exceeds the maximum size of %d bytes", limit),
		Category: "validation",
		Field:    "file",
	}
}

// NewStorageDisabledError はオブジェクトストレージ未設定時のエラーを生成する。
func NewStorageDisabledError() *APIError {
	return &APIError{
		Code:     ErrCodeStorageDisabled,
		Message:  "File uploads are not configured",
		Category: "validation",
		Action:   "Provide an image URL instead.",
	}
}

// NewCSRFError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRF,
		Message:  "CSRF token validation failed",
		Category: "auth",
		Action:   "Fetch a token from /api/csrf-token and send it in the X-CSRF-Token header.",
	}
}

// NewMethodNotAllowedError はルートが対応していないHTTPメソッドのエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  "Method not allowed",
		Category: "resource",
	}
}

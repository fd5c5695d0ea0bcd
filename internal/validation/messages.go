package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// messageFor は違反1件をユーザー向けメッセージに変換する。
func messageFor(fe validator.FieldError) string {
	label := humanize(fe.Field())

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "url", "http_url":
		return "Please enter a valid URL"
	case "min":
		if isNumeric(fe.Kind()) {
			return label + " must be a non-negative integer"
		}
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "max":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("%s must be at most %s", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "gt":
		return label + " must be a positive integer"
	case "has_upper":
		return label + " must contain at least one uppercase letter"
	case "has_lower":
		return label + " must contain at least one lowercase letter"
	case "has_digit":
		return label + " must contain at least one number"
	case "has_symbol":
		return label + " must contain at least one special character"
	case "slug":
		return label + " may only contain lowercase letters, numbers and hyphens"
	default:
		return label + " is invalid"
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// humanize はcamelCaseのフィールド名を文頭大文字の語句にする。
// 例: "dailyActiveUsers" -> "Daily active users"
func humanize(field string) string {
	if field == "" {
		return "Value"
	}
	var b strings.Builder
	for i, r := range field {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteByte(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Package validation はリクエストペイロードのスキーマ検証を提供する。
//
// Decodeは生のJSON（オブジェクト、またはオブジェクトをエンコードしたJSON文字列）を
// スキーマ構造体へ変換し、validateタグの制約を検証する。未知のフィールドは破棄する。
// 失敗時は最初の違反フィールドと違反の全リストを持つ*model.APIErrorを返す。
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"github.com/darave/studio/internal/model"
)

// bodyField は本文全体に関する違反のフィールド名。
const bodyField = "body"

// Validator はスキーマ検証器。並行利用しても安全。
type Validator struct {
	validate *validator.Validate
}

// New はカスタムルールを登録したValidatorを生成する。
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// 違反フィールド名はJSON上の名前で報告する
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(countValue, Count{})

	mustRegister(v, "has_upper", hasRune(isASCIIUpper))
	mustRegister(v, "has_lower", hasRune(isASCIILower))
	mustRegister(v, "has_digit", hasRune(isASCIIDigit))
	mustRegister(v, "has_symbol", hasRune(isSymbol))
	mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
		return slug.IsSlug(fl.Field().String())
	})

	return &Validator{validate: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

func hasRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

// 大文字・小文字・数字はASCIIに限る。ÜやßはisSymbol側に数える。
func isASCIIUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

func isASCIILower(r rune) bool {
	return r >= 'a' && r <= 'z'
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// isSymbol は英数字以外の文字を記号とみなす。
func isSymbol(r rune) bool {
	return !isASCIILower(r) && !isASCIIUpper(r) && !isASCIIDigit(r)
}

// Decode はrawをdstへデコードし、制約を検証する。
// dstは構造体へのポインタであること。
func (v *Validator) Decode(raw []byte, dst any) error {
	body, err := unwrapBody(raw)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return decodeError(err)
	}

	return v.Struct(dst)
}

// Struct はデコード済みの値の制約を検証する。
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return model.NewInternalError(fmt.Errorf("validate: %w", err))
	}

	violations := make([]model.Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, model.Violation{
			Field:   fe.Field(),
			Message: messageFor(fe),
		})
	}
	return model.NewValidationError(violations)
}

// unwrapBody は本文を検証可能なJSONオブジェクトに正規化する。
// 空の本文とnullは空オブジェクトとして扱い、JSON文字列は中身を再解析する。
func unwrapBody(raw []byte) ([]byte, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return []byte("{}"), nil
	}

	if body[0] == '"' {
		var inner string
		if err := json.Unmarshal(body, &inner); err != nil {
			return nil, model.NewFieldError(bodyField, "Invalid JSON body")
		}
		body = bytes.TrimSpace([]byte(inner))
		if len(body) == 0 {
			return []byte("{}"), nil
		}
	}

	if body[0] != '{' {
		return nil, model.NewFieldError(bodyField, "Request body must be a JSON object")
	}
	return body, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return model.NewFieldError(typeErr.Field, typeMessage(typeErr))
	}
	return model.NewFieldError(bodyField, "Invalid JSON body")
}

func typeMessage(e *json.UnmarshalTypeError) string {
	label := e.Field
	if i := strings.LastIndexByte(label, '.'); i >= 0 {
		label = label[i+1:]
	}
	switch e.Type.Kind() {
	case reflect.Slice, reflect.Array:
		return label + " must be an array"
	case reflect.String:
		return humanize(label) + " must be a string"
	case reflect.Bool:
		return humanize(label) + " must be true or false"
	case reflect.Int, reflect.Int32, reflect.Int64:
		return humanize(label) + " must be an integer"
	default:
		return humanize(label) + " has an invalid type"
	}
}

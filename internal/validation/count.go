package validation

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Count は任意の数値指標。JSONの数値と数値文字列の両方を受け付ける。
// null・空文字列・未指定は「値なし」として扱う。
type Count struct {
	value   int64
	present bool
	valid   bool
}

// NewCount は値ありのCountを生成する。
func NewCount(n int64) Count {
	return Count{value: n, present: true, valid: true}
}

// UnmarshalJSON はjson.Unmarshalerを実装する。
// 数値として解釈できない値もエラーにはせず、検証段階でフィールド違反として報告する。
func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			c.present = true
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
	}

	c.present = true
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		c.value, c.valid = n, true
		return nil
	}
	// 1e3 や 12.0 のような整数値の浮動小数表記も受け付ける
	if f, err := strconv.ParseFloat(text, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt64 {
		c.value, c.valid = int64(f), true
	}
	return nil
}

// MarshalJSON はjson.Marshalerを実装する。
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.present || !c.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(c.value, 10)), nil
}

// Ptr は値があればそのポインタを、なければnilを返す。
func (c Count) Ptr() *int64 {
	if !c.present || !c.valid {
		return nil
	}
	v := c.value
	return &v
}

// countValue はvalidatorに渡す検証用の値を返す。
// 値なしは0、整数として解釈できない値は-1として扱い、min=0で弾く。
func countValue(field reflect.Value) any {
	c, ok := field.Interface().(Count)
	if !ok || !c.present {
		return int64(0)
	}
	if !c.valid {
		return int64(-1)
	}
	return c.value
}

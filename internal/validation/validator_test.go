package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darave/studio/internal/model"
)

func requireValidationError(t *testing.T, err error) *model.APIError {
	t.Helper()
	require.Error(t, err)
	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr), "expected *model.APIError, got %T", err)
	require.Equal(t, model.ErrCodeValidation, apiErr.Code)
	require.NotEmpty(t, apiErr.Violations)
	assert.Equal(t, apiErr.Violations[0].Field, apiErr.Field)
	assert.Equal(t, apiErr.Violations[0].Message, apiErr.Message)
	return apiErr
}

func TestDecode_Register_Valid(t *testing.T) {
	v := New()
	var in RegisterInput

	err := v.Decode([]byte(`{"email":"alice@example.com","password":"Str0ng!Pass","name":"Alice","role":"admin"}`), &in)

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", in.Email)
	assert.Equal(t, "Str0ng!Pass", in.Password)
	assert.Equal(t, "Alice", in.Name)
}

func TestDecode_Register_PasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		message  string
	}{
		{"too short", "Sh0r!t", "Password must be at least 8 characters"},
		{"no uppercase", "str0ng!pass", "Password must contain at least one uppercase letter"},
		{"no lowercase", "STR0NG!PASS", "Password must contain at least one lowercase letter"},
		{"no digit", "Strong!Pass", "Password must contain at least one number"},
		{"no symbol", "Str0ngPass1", "Password must contain at least one special character"},
		{"empty", "", "Password is required"},
		{"non-ASCII uppercase only", "Übung123!", "Password must contain at least one uppercase letter"},
		{"non-ASCII lowercase only", "STR0NG!ß", "Password must contain at least one lowercase letter"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in RegisterInput
			body := `{"email":"alice@example.com","name":"Alice","password":"` + tt.password + `"}`

			apiErr := requireValidationError(t, v.Decode([]byte(body), &in))

			assert.Equal(t, "password", apiErr.Field)
			assert.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestDecode_Register_PasswordPolicy_AcceptsCompliant(t *testing.T) {
	v := New()
	long := "Aa1!" + strings.Repeat("x", 70)
	for _, pw := range []string{"Str0ng!Pass", "aB3$aB3$", "Pässw0rd-lang", "Zz9 zzzzzz", long} {
		var in RegisterInput
		body := `{"email":"bob@example.com","name":"Bob","password":"` + pw + `"}`
		assert.NoError(t, v.Decode([]byte(body), &in), "password %q should satisfy policy", pw)
	}
}

func TestDecode_Register_InvalidEmail(t *testing.T) {
	v := New()
	var in RegisterInput

	apiErr := requireValidationError(t, v.Decode([]byte(`{"email":"not-an-email","password":"Str0ng!Pass","name":"Alice"}`), &in))

	assert.Equal(t, "email", apiErr.Field)
	assert.Equal(t, "Please enter a valid email address", apiErr.Message)
}

func TestDecode_Register_ViolationsInFieldOrder(t *testing.T) {
	v := New()
	var in RegisterInput

	apiErr := requireValidationError(t, v.Decode([]byte(`{"email":"bad","password":"weak","name":"A"}`), &in))

	require.Len(t, apiErr.Violations, 3)
	assert.Equal(t, "email", apiErr.Violations[0].Field)
	assert.Equal(t, "password", apiErr.Violations[1].Field)
	assert.Equal(t, "name", apiErr.Violations[2].Field)
	assert.Equal(t, "Name must be at least 2 characters", apiErr.Violations[2].Message)
}

func TestDecode_AcceptsJSONStringBody(t *testing.T) {
	v := New()
	var in LoginInput

	err := v.Decode([]byte(`"{\"email\":\"alice@example.com\",\"password\":\"x\"}"`), &in)

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", in.Email)
}

func TestDecode_EmptyBody_ReportsRequiredFields(t *testing.T) {
	v := New()
	var in LoginInput

	apiErr := requireValidationError(t, v.Decode(nil, &in))

	assert.Equal(t, "email", apiErr.Field)
	assert.Equal(t, "Email is required", apiErr.Message)
	require.Len(t, apiErr.Violations, 2)
	assert.Equal(t, "Password is required", apiErr.Violations[1].Message)
}

func TestDecode_MalformedBody(t *testing.T) {
	tests := map[string]string{
		"broken json": `{"email":`,
		"array":       `[1,2,3]`,
		"number":      `42`,
		"bad string":  `"not json"`,
	}
	v := New()
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			var in LoginInput
			apiErr := requireValidationError(t, v.Decode([]byte(body), &in))
			assert.Equal(t, "body", apiErr.Field)
		})
	}
}

func TestDecode_WrongFieldType(t *testing.T) {
	v := New()
	var in LoginInput

	apiErr := requireValidationError(t, v.Decode([]byte(`{"email":123,"password":"x"}`), &in))

	assert.Equal(t, "email", apiErr.Field)
	assert.Equal(t, "Email must be a string", apiErr.Message)
}

func TestDecode_GameSubmission_NumericFields(t *testing.T) {
	v := New()
	var in GameSubmissionInput

	err := v.Decode([]byte(`{
		"email":"dev@studio.io",
		"gameName":"Skyforge",
		"gameLink":"https://www.roblox.com/games/1/skyforge",
		"dailyActiveUsers":"1200",
		"totalVisits":45000,
		"revenue":""
	}`), &in)

	require.NoError(t, err)
	require.NotNil(t, in.DailyActiveUsers.Ptr())
	assert.Equal(t, int64(1200), *in.DailyActiveUsers.Ptr())
	require.NotNil(t, in.TotalVisits.Ptr())
	assert.Equal(t, int64(45000), *in.TotalVisits.Ptr())
	assert.Nil(t, in.Revenue.Ptr())
}

func TestDecode_GameSubmission_RejectsNegativeAndFractional(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"negative number", `-5`},
		{"negative string", `"-5"`},
		{"fraction", `12.5`},
		{"text", `"lots"`},
		{"bool", `true`},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in GameSubmissionInput
			body := `{"email":"dev@studio.io","gameName":"Skyforge","gameLink":"https://example.com","revenue":` + tt.value + `}`

			apiErr := requireValidationError(t, v.Decode([]byte(body), &in))

			assert.Equal(t, "revenue", apiErr.Field)
			assert.Equal(t, "Revenue must be a non-negative integer", apiErr.Message)
		})
	}
}

func TestDecode_GameSubmission_RequiredAndURL(t *testing.T) {
	v := New()
	var in GameSubmissionInput

	apiErr := requireValidationError(t, v.Decode([]byte(`{"email":"dev@studio.io","gameLink":"nope"}`), &in))

	require.Len(t, apiErr.Violations, 2)
	assert.Equal(t, "Game name is required", apiErr.Violations[0].Message)
	assert.Equal(t, "Please enter a valid URL", apiErr.Violations[1].Message)
}

func TestDecode_BlogPost_SlugRule(t *testing.T) {
	v := New()

	var ok BlogPostInput
	require.NoError(t, v.Decode([]byte(`{"title":"Hello","slug":"hello-world-2","content":"x","author":"A","category":"News"}`), &ok))

	var bad BlogPostInput
	apiErr := requireValidationError(t, v.Decode([]byte(`{"title":"Hello","slug":"Hello World","content":"x","author":"A","category":"News"}`), &bad))
	assert.Equal(t, "slug", apiErr.Field)
}

func TestDecode_BlogPostPatch_OnlyValidatesPresentFields(t *testing.T) {
	v := New()

	var patch BlogPostPatch
	require.NoError(t, v.Decode([]byte(`{"published":false}`), &patch))
	require.NotNil(t, patch.Published)
	assert.False(t, *patch.Published)
	assert.Nil(t, patch.Title)

	var empty BlogPostPatch
	apiErr := requireValidationError(t, v.Decode([]byte(`{"title":""}`), &empty))
	assert.Equal(t, "title", apiErr.Field)
}

func TestDecode_PostTags(t *testing.T) {
	v := New()

	var in PostTagsInput
	require.NoError(t, v.Decode([]byte(`{"tagIds":[]}`), &in))
	assert.Empty(t, in.TagIDs)

	var notArray PostTagsInput
	apiErr := requireValidationError(t, v.Decode([]byte(`{"tagIds":"1,2"}`), &notArray))
	assert.Equal(t, "tagIds", apiErr.Field)
	assert.Equal(t, "tagIds must be an array", apiErr.Message)

	var missing PostTagsInput
	apiErr = requireValidationError(t, v.Decode([]byte(`{}`), &missing))
	assert.Equal(t, "tagIds", apiErr.Field)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Daily active users", humanize("dailyActiveUsers"))
	assert.Equal(t, "Email", humanize("email"))
	assert.Equal(t, "Value", humanize(""))
}

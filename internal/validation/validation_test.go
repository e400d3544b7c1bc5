package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("jane@example.com"))
	assert.True(t, IsValidEmail("jane+billing@example.co.uk"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("jane@"))
	assert.False(t, IsValidEmail(""))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  ", 100))
	assert.Equal(t, "he", SanitizeString("hello", 2))
	assert.Equal(t, "ab", SanitizeString("a\x00b", 100))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	errs := Validate(
		Required("name", ""),
		Required("email", "jane@example.com"),
		Accepted("terms", false),
	)
	assert.Len(t, errs, 2)
	assert.True(t, errs.Has("name"))
	assert.True(t, errs.Has("terms"))
	assert.False(t, errs.Has("email"))
}

func TestValidate_Empty(t *testing.T) {
	errs := Validate(
		Required("name", "Jane"),
		Email("email", "jane@example.com"),
	)
	assert.Empty(t, errs)
}

func TestMinLength(t *testing.T) {
	assert.NotNil(t, MinLength("password", "12345", 6)())
	assert.Nil(t, MinLength("password", "123456", 6)())
	// Empty values are left to Required.
	assert.Nil(t, MinLength("password", "", 6)())
}

func TestMatches(t *testing.T) {
	assert.Nil(t, Matches("password", "secret", "secret")())
	assert.NotNil(t, Matches("password", "secret", "other")())
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{{Field: "street", Message: "is required"}}
	assert.Equal(t, "street: is required", errs.Error())
	assert.Equal(t, "validation failed", Errors{}.Error())
}

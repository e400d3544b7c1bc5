// Package validation provides field-level input validation for the Billflow API.
package validation

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/gin-gonic/gin"
)

// MaxRequestSize is the maximum request body size (1MB)
const MaxRequestSize = 1 << 20 // 1MB

// MaxNameLength is the maximum length for name fields
const MaxNameLength = 255

// RequestSizeMiddleware limits request body size
func RequestSizeMiddleware(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}

// IsValidEmail checks if a string is a well-formed email address
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// SanitizeString removes dangerous characters and limits length
func SanitizeString(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	s = strings.ReplaceAll(s, "\x00", "")
	return s
}

// Error represents a single field-level validation error
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a collection of field-level validation errors
type Errors []Error

// Error implements the error interface
func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	return e[0].Field + ": " + e[0].Message
}

// Has reports whether an error was recorded for the given field.
func (e Errors) Has(field string) bool {
	for _, v := range e {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Validate runs the given validators and collects their errors
func Validate(validators ...func() *Error) Errors {
	var errs Errors
	for _, v := range validators {
		if err := v(); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// Required checks if a field is non-empty
func Required(field, value string) func() *Error {
	return func() *Error {
		if strings.TrimSpace(value) == "" {
			return &Error{Field: field, Message: "is required"}
		}
		return nil
	}
}

// Email checks if a field is a well-formed email address
func Email(field, value string) func() *Error {
	return func() *Error {
		if value == "" {
			return nil // Use Required for required fields
		}
		if !IsValidEmail(value) {
			return &Error{Field: field, Message: "must be a valid email address"}
		}
		return nil
	}
}

// MaxLength checks if a field exceeds max length
func MaxLength(field, value string, max int) func() *Error {
	return func() *Error {
		if len(value) > max {
			return &Error{Field: field, Message: "exceeds maximum length"}
		}
		return nil
	}
}

// MinLength checks if a field is shorter than min length
func MinLength(field, value string, min int) func() *Error {
	return func() *Error {
		if value != "" && len(value) < min {
			return &Error{Field: field, Message: "is too short"}
		}
		return nil
	}
}

// Accepted checks that a boolean field (terms checkbox) is true
func Accepted(field string, value bool) func() *Error {
	return func() *Error {
		if !value {
			return &Error{Field: field, Message: "must be accepted"}
		}
		return nil
	}
}

// Matches checks that two fields carry the same value (password confirmation)
func Matches(field, value, confirmation string) func() *Error {
	return func() *Error {
		if value != confirmation {
			return &Error{Field: field, Message: "does not match confirmation"}
		}
		return nil
	}
}

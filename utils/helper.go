package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePhoneNumber accepts numbers parseable in the US region or any
// number carrying an explicit country code.
func ValidatePhoneNumber(phoneNumber string) bool {
	num, err := libphonenumber.Parse(phoneNumber, "US")
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	result := make([]T, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func DereferencePtr[T any](ptr *T) T {
	if ptr == nil {
		var zero T
		return zero
	}
	return *ptr
}

func NilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ProcessValidationErrors flattens binding failures into a field to
// message map for 400 responses.
func ProcessValidationErrors(err error) map[string]string {
	details := map[string]string{}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			details[lowerFirst(fieldError.Field())] = validationMessage(fieldError)
		}
	}
	return details
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fieldError.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldError.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fieldError.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fieldError.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.ReplaceAll(fieldError.Param(), " ", ", "))
	default:
		return "is invalid"
	}
}

// GetThisMonthRange returns the first instant of the current month and
// the first instant of the next month.
func GetThisMonthRange() (time.Time, time.Time) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0)
	return start, end
}

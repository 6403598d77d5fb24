package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxNotesLength         = 1024
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidatePositiveAmount checks that a monetary amount is a positive, finite number.
func ValidatePositiveAmount(v float64, fieldName string) error {
	if v != v { // NaN
		return fmt.Errorf("%w: %s is not a valid number", ErrValidationFailed, fieldName)
	}
	if v <= 0 {
		return fmt.Errorf("%w: %s must be a positive number", ErrValidationFailed, fieldName)
	}
	return nil
}

// ParseTimestamp parses an ISO8601/RFC3339 timestamp sent by the app.
// Date-only values ("2006-01-02") are accepted as midnight UTC.
func ParseTimestamp(s, fieldName string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s is not a valid ISO8601 timestamp", ErrValidationFailed, fieldName)
}

package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxSymbolLength        = 32
	MaxCurrencyCodeLength  = 3
	MaxUserIDLength        = 128
)

var (
	symbolPattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-=^_]*$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	userIDPattern   = regexp.MustCompile(`^[A-Za-z0-9._@\-]+$`)
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

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// ValidateSymbol checks an instrument symbol such as "VFV.TO" or "BRK-B".
func ValidateSymbol(symbol, fieldName string) error {
	if err := ValidateStringNotEmpty(symbol, fieldName); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(symbol, MaxSymbolLength, fieldName); err != nil {
		return err
	}
	return ValidateStringRegex(symbol, symbolPattern, fieldName, "letters, digits and . - = ^ _")
}

// ValidateCurrencyCode checks a 3-letter ISO currency code (uppercase).
func ValidateCurrencyCode(code, fieldName string) error {
	return ValidateStringRegex(code, currencyPattern, fieldName, "3-letter ISO code")
}

// ValidateUserID checks a caller-supplied user id.
func ValidateUserID(userID string) error {
	if err := ValidateStringNotEmpty(userID, "user_id"); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(userID, MaxUserIDLength, "user_id"); err != nil {
		return err
	}
	return ValidateStringRegex(userID, userIDPattern, "user_id", "letters, digits and . _ @ -")
}

// ValidateNonNegative rejects negative amounts.
func ValidateNonNegative(d decimal.Decimal, fieldName string) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidatePositive rejects zero and negative amounts.
func ValidatePositive(d decimal.Decimal, fieldName string) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateNullNonNegative rejects a present, negative amount.
func ValidateNullNonNegative(d decimal.NullDecimal, fieldName string) error {
	if !d.Valid {
		return nil
	}
	return ValidateNonNegative(d.Decimal, fieldName)
}

// ValidateDateString parses a YYYY-MM-DD date.
func ValidateDateString(s, fieldName string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') must be a YYYY-MM-DD date", ErrValidationFailed, fieldName, s)
	}
	return t, nil
}

// ValidateIntRange checks that v is within [minVal, maxVal].
func ValidateIntRange(v, minVal, maxVal int, fieldName string) error {
	if v < minVal || v > maxVal {
		return fmt.Errorf("%w: %s must be between %d and %d", ErrValidationFailed, fieldName, minVal, maxVal)
	}
	return nil
}

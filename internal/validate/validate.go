// Package validate holds the pure field validators used by the
// conversational flows. Each function returns the parsed (and where
// applicable normalized) value, or a validation error with the text
// shown to the user.
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/OttoOtter-hub/TyreTerra/pkg/apperr"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Quantity parses a base-10 integer and requires it to be positive.
func Quantity(text string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, apperr.Validation("Please enter a valid number for quantity:")
	}
	if qty <= 0 {
		return 0, apperr.Validation("Quantity must be a positive number. Try again:")
	}
	return qty, nil
}

// Price parses a positive decimal. Both '.' and ',' are accepted as the
// decimal separator and spaces are stripped.
func Price(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, apperr.Validation("Please enter a valid number for price:")
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, apperr.Validation("Price must be a positive number. Try again:")
	}
	return price, nil
}

// TaxID requires a digit string of length exactly 10 or 12.
func TaxID(text string) (string, error) {
	id := strings.TrimSpace(text)
	if !isDigits(id) || (len(id) != 10 && len(id) != 12) {
		return "", apperr.Validation("❌ Invalid TIN format. Enter 10 or 12 digits:")
	}
	return id, nil
}

// Phone normalizes a leading +7 country code to 8, strips separators,
// and requires exactly 11 digits starting with 8. The normalized form
// is returned.
func Phone(text string) (string, error) {
	phone := strings.TrimSpace(text)
	phone = strings.Replace(phone, "+7", "8", 1)
	for _, sep := range []string{" ", "-", "(", ")"} {
		phone = strings.ReplaceAll(phone, sep, "")
	}
	if !isDigits(phone) || len(phone) != 11 || !strings.HasPrefix(phone, "8") {
		return "", apperr.Validation("❌ Invalid phone format. Enter in format 89991234567:")
	}
	return phone, nil
}

// Email requires a standard local@domain.tld shape.
func Email(text string) (string, error) {
	email := strings.TrimSpace(text)
	if !emailPattern.MatchString(email) {
		return "", apperr.Validation("❌ Invalid email format. Enter a valid email:")
	}
	return email, nil
}

// FreeText accepts any non-empty input, trimmed.
func FreeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperr.Validation("Input cannot be empty. Try again:")
	}
	return trimmed, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

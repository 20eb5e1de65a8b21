package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidName      = NewError(KindValidation, "invalid_name", "invalid name")
	ErrInvalidCurrency  = NewError(KindValidation, "invalid_currency", "invalid currency code")
	ErrAmountTooLarge   = NewError(KindValidation, "amount_too_large", "amount exceeds maximum allowed")
	ErrAmountPrecision  = NewError(KindValidation, "amount_precision", "amount has more than two decimal places")
	ErrInvalidEmail     = NewError(KindValidation, "invalid_email", "invalid email format")
	ErrPasswordTooWeak  = NewError(KindValidation, "password_too_weak", "password does not meet requirements")
	ErrMemoTooLong      = NewError(KindValidation, "memo_too_long", "memo exceeds maximum length")
	ErrMissingReference = NewError(KindValidation, "missing_reference", "reference is required")
)

// Validation constants
const (
	MaxNameLength     = 255
	MaxMemoLength     = 1000
	MaxAmountCents    = 100000000000000 // one trillion in major units
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	upperRegex  = regexp.MustCompile(`[A-Z]`)
	lowerRegex  = regexp.MustCompile(`[a-z]`)
	numberRegex = regexp.MustCompile(`[0-9]`)
)

// ValidateName validates a display name
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return ErrInvalidName.Withf("%s cannot be empty", field)
	}

	if len(name) > MaxNameLength {
		return ErrInvalidName.Withf("%s exceeds %d characters", field, MaxNameLength)
	}

	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return ErrInvalidCurrency.Withf("%s is not a valid ISO 4217 currency code", currency)
	}

	return nil
}

// ValidateAmountCents validates a posting amount in minor units
func ValidateAmountCents(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if amount > MaxAmountCents {
		return ErrAmountTooLarge.Withf("maximum amount is %d cents", int64(MaxAmountCents))
	}

	return nil
}

// AmountToCents converts a decimal amount in major units to cents.
func AmountToCents(amount decimal.Decimal) (int64, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidAmount
	}

	cents := amount.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, ErrAmountPrecision
	}

	if cents.GreaterThan(decimal.NewFromInt(MaxAmountCents)) {
		return 0, ErrAmountTooLarge.Withf("maximum amount is %d cents", int64(MaxAmountCents))
	}

	return cents.IntPart(), nil
}

// CentsToAmount renders cents as a decimal amount in major units.
func CentsToAmount(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ValidateMemo validates free-text memo length
func ValidateMemo(memo string) error {
	if utf8.RuneCountInString(memo) > MaxMemoLength {
		return ErrMemoTooLong.Withf("memo exceeds %d characters", MaxMemoLength)
	}
	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooWeak.Withf("password must be at least %d characters", MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return ErrPasswordTooWeak.Withf("password must not exceed %d characters", MaxPasswordLength)
	}

	if !upperRegex.MatchString(password) || !lowerRegex.MatchString(password) || !numberRegex.MatchString(password) {
		return ErrPasswordTooWeak.Withf("password must contain uppercase, lowercase, and numbers")
	}

	return nil
}

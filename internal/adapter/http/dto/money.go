package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/opsledger/internal/domain"
)

// DateLayout is the wire format of business dates.
const DateLayout = "2006-01-02"

// ParseCents converts a decimal amount string such as "300.00" to cents.
// Amounts must be positive with at most two decimal places.
func ParseCents(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, domain.ErrInvalidAmount.Withf("invalid amount %q", amount)
	}
	return domain.AmountToCents(d)
}

// ParseOptionalCents is ParseCents where an empty string means zero.
func ParseOptionalCents(amount string) (int64, error) {
	if amount == "" {
		return 0, nil
	}
	return ParseCents(amount)
}

// FormatCents renders cents as a decimal string with two places.
func FormatCents(cents int64) string {
	return domain.CentsToAmount(cents).StringFixed(2)
}

// ParseDate parses a YYYY-MM-DD business date. An empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, domain.ErrInvalidBizDate.Withf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a business date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	t.Run("valid name", func(t *testing.T) {
		if err := ValidateName("name", "Office Printer"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		err := ValidateName("name", "   ")
		if !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected ErrInvalidName, got %v", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		err := ValidateName("name", strings.Repeat("a", MaxNameLength+1))
		if !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected ErrInvalidName, got %v", err)
		}
	})
}

func TestValidateCurrency(t *testing.T) {
	t.Parallel()

	if err := ValidateCurrency("cny"); err != nil {
		t.Fatalf("expected lowercase currency to be accepted, got %v", err)
	}

	err := ValidateCurrency("XYZ")
	if !errors.Is(err, ErrInvalidCurrency) {
		t.Fatalf("expected ErrInvalidCurrency, got %v", err)
	}
}

func TestValidateAmountCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		amount   int64
		expected error
	}{
		{name: "positive", amount: 1},
		{name: "zero", amount: 0, expected: ErrInvalidAmount},
		{name: "negative", amount: -5, expected: ErrInvalidAmount},
		{name: "too large", amount: MaxAmountCents + 1, expected: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmountCents(tt.amount)
			if tt.expected == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expected != nil && !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestAmountToCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		cents    int64
		expected error
	}{
		{input: "300.00", cents: 30000},
		{input: "0.01", cents: 1},
		{input: "12.5", cents: 1250},
		{input: "0", expected: ErrInvalidAmount},
		{input: "-1", expected: ErrInvalidAmount},
		{input: "1.005", expected: ErrAmountPrecision},
		{input: "2000000000000", expected: ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cents, err := AmountToCents(decimal.RequireFromString(tt.input))
			if tt.expected != nil {
				if !errors.Is(err, tt.expected) {
					t.Fatalf("expected %v, got %v", tt.expected, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cents != tt.cents {
				t.Fatalf("expected %d cents, got %d", tt.cents, cents)
			}
		})
	}
}

func TestCentsToAmount(t *testing.T) {
	if got := CentsToAmount(70000).StringFixed(2); got != "700.00" {
		t.Fatalf("expected 700.00, got %s", got)
	}
}

func TestValidateMemo(t *testing.T) {
	if err := ValidateMemo("short"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateMemo(strings.Repeat("m", MaxMemoLength+1)); !errors.Is(err, ErrMemoTooLong) {
		t.Fatalf("expected ErrMemoTooLong, got %v", err)
	}
	// Length counts characters, not bytes.
	if err := ValidateMemo(strings.Repeat("租", MaxMemoLength)); err != nil {
		t.Fatalf("expected %d multi-byte characters to be accepted, got %v", MaxMemoLength, err)
	}
	if err := ValidateMemo(strings.Repeat("租", MaxMemoLength+1)); !errors.Is(err, ErrMemoTooLong) {
		t.Fatalf("expected ErrMemoTooLong, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	if err := ValidateEmail("user@example.com"); err != nil {
		t.Fatalf("expected valid email, got %v", err)
	}

	if err := ValidateEmail("invalid-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		password string
		valid    bool
	}{
		{name: "valid", password: "Password123", valid: true},
		{name: "too short", password: "Pw1", valid: false},
		{name: "missing uppercase", password: "password123", valid: false},
		{name: "missing number", password: "Password", valid: false},
		{name: "too long", password: "Aa1" + strings.Repeat("x", MaxPasswordLength), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid && err != nil {
				t.Fatalf("expected valid password, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrPasswordTooWeak) {
				t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
			}
		})
	}
}

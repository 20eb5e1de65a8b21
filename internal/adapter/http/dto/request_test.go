package dto

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		want    int64
		wantErr error
	}{
		{name: "two places", amount: "300.00", want: 30000},
		{name: "integer", amount: "200", want: 20000},
		{name: "one place", amount: "12.5", want: 1250},
		{name: "smallest unit", amount: "0.01", want: 1},
		{name: "too precise", amount: "1.001", wantErr: domain.ErrAmountPrecision},
		{name: "at maximum", amount: "1000000000000.00", want: domain.MaxAmountCents},
		{name: "above maximum", amount: "1000000000000.01", wantErr: domain.ErrAmountTooLarge},
		{name: "past int64", amount: "184467440737095517.16", wantErr: domain.ErrAmountTooLarge},
		{name: "zero", amount: "0", wantErr: domain.ErrInvalidAmount},
		{name: "negative", amount: "-5.00", wantErr: domain.ErrInvalidAmount},
		{name: "not a number", amount: "abc", wantErr: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCents(tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCents(%q) error = %v, want %v", tt.amount, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCents(%q) unexpected error: %v", tt.amount, err)
			}
			if got != tt.want {
				t.Fatalf("ParseCents(%q) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}

func TestFormatCents(t *testing.T) {
	tests := map[int64]string{
		0:       "0.00",
		1:       "0.01",
		70000:   "700.00",
		-30050:  "-300.50",
		1234567: "12345.67",
	}
	for cents, want := range tests {
		if got := FormatCents(cents); got != want {
			t.Fatalf("FormatCents(%d) = %s, want %s", cents, got, want)
		}
	}
}

func TestPurchaseAssetRequest_ToUseCaseInput(t *testing.T) {
	req := &PurchaseAssetRequest{
		Name:       "Laptop",
		CategoryID: "cat-it",
		AccountID:  "acc-cash",
		Currency:   "CNY",
		Amount:     "300.00",
		BizDate:    "2024-01-10",
		Custodian:  "alice",
	}

	got, err := req.ToUseCaseInput("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.AmountCents != 30000 || got.Actor != "bob" || got.Custodian != "alice" {
		t.Fatalf("unexpected input %+v", got)
	}
	if !got.BizDate.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected biz date %s", got.BizDate)
	}
}

func TestPayRentRequest_DefaultAmount(t *testing.T) {
	req := &PayRentRequest{
		PropertyID: "prop-1",
		AccountID:  "acc-cash",
		Currency:   "CNY",
		Year:       2024,
		Month:      1,
		BizDate:    "2024-01-31",
	}

	got, err := req.ToUseCaseInput("bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AmountCents != 0 {
		t.Fatalf("expected zero amount to defer to the property rent, got %d", got.AmountCents)
	}
}

func TestCreateEmployeeRequest_ToUseCaseInput(t *testing.T) {
	req := &CreateEmployeeRequest{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		PersonalEmail:   "ada@home.example",
		DepartmentID:    "dept-eng",
		InitialPassword: "s3cret-pass",
		Role:            "operator",
	}

	got := req.ToUseCaseInput("admin")
	if got.Role != domain.RoleOperator || got.Actor != "admin" || got.PersonalEmail != "ada@home.example" {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "valid",
			body: `{"account_id":"acc-cash","biz_date":"2024-01-10"}`,
		},
		{
			name:    "missing field",
			body:    `{"biz_date":"2024-01-10"}`,
			wantErr: "account_id is required",
		},
		{
			name:    "bad date",
			body:    `{"account_id":"acc-cash","biz_date":"10/01/2024"}`,
			wantErr: "biz_date must be a YYYY-MM-DD date",
		},
		{
			name:    "unknown field",
			body:    `{"account_id":"acc-cash","biz_date":"2024-01-10","extra":1}`,
			wantErr: "invalid request body",
		},
		{
			name:    "malformed",
			body:    `{`,
			wantErr: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))

			var req PayBillRequest
			err := Decode(r, &req)

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

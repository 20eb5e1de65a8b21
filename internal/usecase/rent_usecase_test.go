package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

func addProperty(f *fixture, status domain.PropertyStatus) {
	f.store.AddProperty(&domain.RentalProperty{
		ID:               "prop-1",
		Name:             "Office 12B",
		Status:           status,
		Landlord:         "Harbor Estates",
		Occupant:         "sales",
		Location:         "Dock St 12",
		MonthlyRentCents: 12000,
	})
}

func TestRentUseCase_PayRent(t *testing.T) {
	f := newFixture(t)
	addProperty(f, domain.PropertyActive)

	out, err := f.rent().PayRent(context.Background(), usecase.PayRentInput{
		PropertyID: "prop-1",
		AccountID:  cashAccount,
		Currency:   "CNY",
		Year:       2024,
		Month:      1,
		BizDate:    jan10,
		Actor:      "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, "JZ20240110-001", out.VoucherNo)
	assert.Equal(t, int64(88000), out.BalanceAfterCents)

	payments := f.store.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, out.PaymentID, payments[0].ID)
	assert.Equal(t, out.FlowID, payments[0].FlowID)
	assert.Equal(t, int64(12000), payments[0].AmountCents)
	assert.Equal(t, domain.RentPeriod{Year: 2024, Month: 1}, payments[0].Period)

	assert.Equal(t, "2024-01", f.store.Property("prop-1").LastPaidPeriod)

	flows := f.store.Flows()
	require.Len(t, flows, 1)
	assert.Equal(t, domain.FlowExpense, flows[0].Type)
	assert.Equal(t, "Harbor Estates", flows[0].Counterparty)

	// Paying rent does not touch tracked fields.
	assert.Empty(t, f.store.ChangeLogs())
}

func TestRentUseCase_PayRent_Twice(t *testing.T) {
	f := newFixture(t)
	addProperty(f, domain.PropertyActive)
	uc := f.rent()
	ctx := context.Background()

	input := usecase.PayRentInput{
		PropertyID: "prop-1",
		AccountID:  cashAccount,
		Currency:   "CNY",
		Year:       2024,
		Month:      1,
		BizDate:    jan10,
	}

	first, err := uc.PayRent(ctx, input)
	require.NoError(t, err)

	_, err = uc.PayRent(ctx, input)
	require.ErrorIs(t, err, domain.ErrDuplicateRentPayment)
	assert.Equal(t, domain.KindDuplicate, domain.KindOf(err))

	flows := f.store.Flows()
	require.Len(t, flows, 1)
	assert.Equal(t, first.FlowID, flows[0].ID)
	assert.Len(t, f.store.Snapshots(), 1)
	assert.Len(t, f.store.Payments(), 1)

	// The next month is still payable.
	input.Month = 2
	second, err := uc.PayRent(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "JZ20240110-002", second.VoucherNo)
	assert.Equal(t, "2024-02", f.store.Property("prop-1").LastPaidPeriod)
}

// A payment racing past the pre-check is stopped by the unique period and
// the ledger rows of the loser are rolled back.
func TestRentUseCase_PayRent_ConcurrentDuplicate(t *testing.T) {
	f := newFixture(t)
	addProperty(f, domain.PropertyActive)

	f.store.BeforeFlowCreate = func(entry *domain.CashFlowEntry) {
		f.store.BeforeFlowCreate = nil
		tx, err := f.store.TxManager().Begin(context.Background())
		require.NoError(t, err)
		require.NoError(t, f.store.RentalRepo().CreatePayment(context.Background(), tx, &domain.RentPayment{
			ID:         "pay-other",
			PropertyID: "prop-1",
			Period:     domain.RentPeriod{Year: 2024, Month: 1},
		}))
		require.NoError(t, tx.Commit(context.Background()))
	}

	_, err := f.rent().PayRent(context.Background(), usecase.PayRentInput{
		PropertyID: "prop-1",
		AccountID:  cashAccount,
		Currency:   "CNY",
		Year:       2024,
		Month:      1,
		BizDate:    jan10,
	})

	require.ErrorIs(t, err, domain.ErrDuplicateRentPayment)
	assert.Empty(t, f.store.Flows())
	assert.Len(t, f.store.Payments(), 1)
}

func TestRentUseCase_PayRent_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    domain.PropertyStatus
		input     usecase.PayRentInput
		errorType error
	}{
		{
			name:      "missing property",
			input:     usecase.PayRentInput{AccountID: cashAccount, Currency: "CNY", Year: 2024, Month: 1, BizDate: jan10},
			errorType: domain.ErrMissingEntity,
		},
		{
			name:      "invalid month",
			status:    domain.PropertyActive,
			input:     usecase.PayRentInput{PropertyID: "prop-1", AccountID: cashAccount, Currency: "CNY", Year: 2024, Month: 13, BizDate: jan10},
			errorType: domain.ErrInvalidPeriod,
		},
		{
			name:      "unknown property",
			input:     usecase.PayRentInput{PropertyID: "prop-1", AccountID: cashAccount, Currency: "CNY", Year: 2024, Month: 1, BizDate: jan10},
			errorType: domain.ErrPropertyNotFound,
		},
		{
			name:      "terminated lease",
			status:    domain.PropertyTerminated,
			input:     usecase.PayRentInput{PropertyID: "prop-1", AccountID: cashAccount, Currency: "CNY", Year: 2024, Month: 1, BizDate: jan10},
			errorType: domain.ErrPropertyTerminated,
		},
		{
			name:      "rent exceeds balance",
			status:    domain.PropertyActive,
			input:     usecase.PayRentInput{PropertyID: "prop-1", AccountID: cashAccount, Currency: "CNY", Year: 2024, Month: 1, AmountCents: 500000, BizDate: jan10},
			errorType: domain.ErrInsufficientBalance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.status != "" {
				addProperty(f, tt.status)
			}

			_, err := f.rent().PayRent(context.Background(), tt.input)

			require.ErrorIs(t, err, tt.errorType)
			assert.Empty(t, f.store.Payments())
			assert.Empty(t, f.store.Flows())
		})
	}
}

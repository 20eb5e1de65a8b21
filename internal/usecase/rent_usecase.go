package usecase

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// RentUseCase handles monthly rent payments.
type RentUseCase struct {
	engine     *PostingEngine
	rentalRepo RentalRepository
	idGen      IDGenerator
}

// NewRentUseCase creates a new RentUseCase.
func NewRentUseCase(engine *PostingEngine, rentalRepo RentalRepository, idGen IDGenerator) *RentUseCase {
	return &RentUseCase{
		engine:     engine,
		rentalRepo: rentalRepo,
		idGen:      idGen,
	}
}

// PayRentInput represents input for paying one month of rent.
type PayRentInput struct {
	PropertyID string
	AccountID  string
	Currency   string
	Year       int
	Month      int
	// AmountCents defaults to the property's monthly rent when zero.
	AmountCents int64
	BizDate     time.Time
	CategoryID  string
	Memo        string
	Actor       string
}

// PayRentOutput is the result of a rent payment.
type PayRentOutput struct {
	PaymentID          string
	FlowID             string
	VoucherNo          string
	BalanceBeforeCents int64
	BalanceAfterCents  int64
}

// PayRent posts the rent expense and records the payment for its period.
// A second payment for the same property and period fails with DUPLICATE.
func (uc *RentUseCase) PayRent(ctx context.Context, input PayRentInput) (*PayRentOutput, error) {
	if input.PropertyID == "" {
		return nil, domain.ErrMissingEntity.Withf("property id is required")
	}

	period := domain.RentPeriod{Year: input.Year, Month: input.Month}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	property, err := uc.rentalRepo.GetProperty(ctx, input.PropertyID)
	if err != nil {
		return nil, err
	}

	amount := input.AmountCents
	if amount == 0 {
		amount = property.MonthlyRentCents
	}

	payment := &domain.RentPayment{
		ID:          uc.idGen.Generate(),
		PropertyID:  property.ID,
		Period:      period,
		AmountCents: amount,
		CreatedBy:   input.Actor,
	}

	result, err := uc.engine.Post(ctx, Operation{
		Kind:     OpPayRent,
		BizDate:  input.BizDate,
		Currency: input.Currency,
		Actor:    input.Actor,
		RefType:  domain.EntityRentalProperty,
		RefID:    property.ID,
		Legs: []Leg{{
			AccountID:    input.AccountID,
			Type:         domain.FlowExpense,
			AmountCents:  amount,
			CategoryID:   input.CategoryID,
			Counterparty: property.Landlord,
			Memo:         input.Memo,
		}},
		Mutation: MutationFuncs{
			CheckFunc: func(ctx context.Context) error {
				if err := property.CheckPayable(); err != nil {
					return err
				}

				paid, err := uc.rentalRepo.PaymentExists(ctx, property.ID, period)
				if err != nil {
					return err
				}
				if paid {
					return domain.ErrDuplicateRentPayment.Withf("rent for property %s period %s is already paid", property.ID, period)
				}
				return nil
			},
			ApplyFunc: func(ctx context.Context, tx Transaction, entries []*domain.CashFlowEntry) (*ChangeInput, error) {
				payment.FlowID = entries[0].ID
				payment.PaidAt = entries[0].CreatedAt

				// Unique on (property, year, month), so a concurrent payment fails here.
				if err := uc.rentalRepo.CreatePayment(ctx, tx, payment); err != nil {
					return nil, err
				}

				updated := property.Clone()
				if period.String() > updated.LastPaidPeriod {
					updated.LastPaidPeriod = period.String()
				}
				updated.UpdatedAt = entries[0].CreatedAt

				if err := uc.rentalRepo.UpdateLastPaid(ctx, tx, updated); err != nil {
					return nil, err
				}

				return &ChangeInput{
					EntityType: domain.EntityRentalProperty,
					EntityID:   property.ID,
					ChangeType: domain.ChangeTypeRent,
					Before:     property,
					After:      updated,
					Memo:       input.Memo,
				}, nil
			},
		},
	})
	if err != nil {
		return nil, err
	}

	entry := result.Entries[0]

	return &PayRentOutput{
		PaymentID:          payment.ID,
		FlowID:             entry.EntryID,
		VoucherNo:          entry.VoucherNo,
		BalanceBeforeCents: entry.BalanceBeforeCents,
		BalanceAfterCents:  entry.BalanceAfterCents,
	}, nil
}

package usecase

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// BillUseCase handles payable bill payments.
type BillUseCase struct {
	engine   *PostingEngine
	billRepo BillRepository
}

// NewBillUseCase creates a new BillUseCase.
func NewBillUseCase(engine *PostingEngine, billRepo BillRepository) *BillUseCase {
	return &BillUseCase{
		engine:   engine,
		billRepo: billRepo,
	}
}

// PayBillInput represents input for paying a bill in full.
type PayBillInput struct {
	AccountID string
	BizDate   time.Time
	Memo      string
	Actor     string
}

// PayBillOutput is the result of a bill payment.
type PayBillOutput struct {
	FlowID             string
	VoucherNo          string
	BalanceBeforeCents int64
	BalanceAfterCents  int64
}

// PayBill posts the bill amount as an expense and marks the bill paid.
func (uc *BillUseCase) PayBill(ctx context.Context, billID string, input PayBillInput) (*PayBillOutput, error) {
	if billID == "" {
		return nil, domain.ErrMissingEntity.Withf("bill id is required")
	}

	bill, err := uc.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}

	result, err := uc.engine.Post(ctx, Operation{
		Kind:     OpPayBill,
		BizDate:  input.BizDate,
		Currency: bill.Currency,
		Actor:    input.Actor,
		RefType:  domain.EntityBill,
		RefID:    bill.ID,
		Legs: []Leg{{
			AccountID:    input.AccountID,
			Type:         domain.FlowExpense,
			AmountCents:  bill.AmountCents,
			CategoryID:   bill.CategoryID,
			Counterparty: bill.Vendor,
			Memo:         input.Memo,
		}},
		Mutation: MutationFuncs{
			CheckFunc: func(ctx context.Context) error {
				return bill.CheckPayable()
			},
			ApplyFunc: func(ctx context.Context, tx Transaction, entries []*domain.CashFlowEntry) (*ChangeInput, error) {
				paidAt := entries[0].CreatedAt

				paid := bill.Clone()
				paid.Status = domain.BillPaid
				paid.FlowID = entries[0].ID
				paid.PaidAt = &paidAt
				paid.UpdatedAt = paidAt

				// Conditional on the stored status, so a concurrent payment fails here.
				if err := uc.billRepo.MarkPaid(ctx, tx, paid); err != nil {
					return nil, err
				}

				return &ChangeInput{
					EntityType: domain.EntityBill,
					EntityID:   bill.ID,
					ChangeType: domain.ChangeTypeBillPaid,
					Before:     bill,
					After:      paid,
					Memo:       input.Memo,
				}, nil
			},
		},
	})
	if err != nil {
		return nil, err
	}

	entry := result.Entries[0]

	return &PayBillOutput{
		FlowID:             entry.EntryID,
		VoucherNo:          entry.VoucherNo,
		BalanceBeforeCents: entry.BalanceBeforeCents,
		BalanceAfterCents:  entry.BalanceAfterCents,
	}, nil
}

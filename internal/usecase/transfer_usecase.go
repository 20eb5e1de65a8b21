package usecase

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// TransferUseCase handles cash transfers between accounts.
type TransferUseCase struct {
	engine *PostingEngine
	idGen  IDGenerator
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(engine *PostingEngine, idGen IDGenerator) *TransferUseCase {
	return &TransferUseCase{
		engine: engine,
		idGen:  idGen,
	}
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	AmountCents   int64
	Currency      string
	BizDate       time.Time
	CategoryID    string
	Memo          string
	Actor         string
}

// TransferOutput is the result of a transfer. Entries holds the source leg
// then the destination leg.
type TransferOutput struct {
	TransferID string
	Entries    []PostedEntry
}

// Transfer posts an expense on the source and an income on the destination
// in one transaction.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferOutput, error) {
	transfer := &domain.Transfer{
		ID:            uc.idGen.Generate(),
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		AmountCents:   input.AmountCents,
		Currency:      input.Currency,
		BizDate:       input.BizDate,
		Memo:          input.Memo,
	}

	// Validate before touching storage
	if err := transfer.Validate(); err != nil {
		return nil, err
	}

	result, err := uc.engine.Post(ctx, Operation{
		Kind:     OpTransfer,
		BizDate:  transfer.BizDate,
		Currency: transfer.Currency,
		Actor:    input.Actor,
		RefType:  domain.EntityTransfer,
		RefID:    transfer.ID,
		Legs: []Leg{
			{
				AccountID:    transfer.FromAccountID,
				Type:         domain.FlowExpense,
				AmountCents:  transfer.AmountCents,
				CategoryID:   input.CategoryID,
				Counterparty: transfer.ToAccountID,
				Memo:         transfer.Memo,
			},
			{
				AccountID:    transfer.ToAccountID,
				Type:         domain.FlowIncome,
				AmountCents:  transfer.AmountCents,
				CategoryID:   input.CategoryID,
				Counterparty: transfer.FromAccountID,
				Memo:         transfer.Memo,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	return &TransferOutput{
		TransferID: transfer.ID,
		Entries:    result.Entries,
	}, nil
}

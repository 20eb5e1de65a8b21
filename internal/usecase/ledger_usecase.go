package usecase

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// LedgerUseCase handles ledger read operations.
type LedgerUseCase struct {
	accountRepo  AccountRepository
	openingRepo  OpeningBalanceRepository
	snapshotRepo AccountTransactionRepository
	clock        Clock
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	accountRepo AccountRepository,
	openingRepo OpeningBalanceRepository,
	snapshotRepo AccountTransactionRepository,
	clock Clock,
) *LedgerUseCase {
	return &LedgerUseCase{
		accountRepo:  accountRepo,
		openingRepo:  openingRepo,
		snapshotRepo: snapshotRepo,
		clock:        clock,
	}
}

// AccountBalance is an account's balance at the end of a business date.
type AccountBalance struct {
	AccountID    string
	Currency     string
	AsOf         time.Time
	BalanceCents int64
}

// Balance returns the balance including every posting dated on or before
// asOf. A zero asOf means today.
func (uc *LedgerUseCase) Balance(ctx context.Context, accountID string, asOf time.Time) (*AccountBalance, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if asOf.IsZero() {
		asOf = uc.clock.Now()
	}
	asOf = domain.DateOf(asOf)

	// Everything before the start of the next day.
	balance, err := BalanceBefore(ctx, nil, uc.openingRepo, uc.snapshotRepo, account.ID, asOf.AddDate(0, 0, 1), time.Time{})
	if err != nil {
		return nil, err
	}

	return &AccountBalance{
		AccountID:    account.ID,
		Currency:     account.Currency,
		AsOf:         asOf,
		BalanceCents: balance,
	}, nil
}

package usecase

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// ReconciliationUseCase checks stored balance snapshots against a replay of
// the ledger. It reports drift and never rewrites rows.
type ReconciliationUseCase struct {
	accountRepo  AccountRepository
	openingRepo  OpeningBalanceRepository
	snapshotRepo AccountTransactionRepository
	clock        Clock
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	openingRepo OpeningBalanceRepository,
	snapshotRepo AccountTransactionRepository,
	clock Clock,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo:  accountRepo,
		openingRepo:  openingRepo,
		snapshotRepo: snapshotRepo,
		clock:        clock,
	}
}

// StaleSnapshot is a snapshot whose stored balances disagree with the replay.
type StaleSnapshot struct {
	SnapshotID          string
	FlowID              string
	TransactionDate     time.Time
	StoredBeforeCents   int64
	ExpectedBeforeCents int64
	StoredAfterCents    int64
	ExpectedAfterCents  int64
	// Inconsistent is set when the row's own after != before ± amount.
	Inconsistent bool
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID    string
	Checked      int
	Stale        []StaleSnapshot
	BalanceCents int64
	IsReconciled bool
	LastChecked  time.Time
}

// ReconcileAccount replays an account's snapshots in (transaction date,
// created at) order from its opening balance. Rows stored before a backdated
// posting show up as stale.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	var running int64

	opening, err := uc.openingRepo.Get(ctx, nil, domain.OpeningBalanceRefAccount, account.ID)
	if err != nil {
		return nil, err
	}
	if opening != nil {
		running = opening.AmountCents
	}

	snapshots, err := uc.snapshotRepo.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	result := &ReconciliationResult{
		AccountID:   account.ID,
		Checked:     len(snapshots),
		LastChecked: uc.clock.Now(),
	}

	for _, s := range snapshots {
		expectedBefore := running
		expectedAfter := running + s.SignedAmount()

		inconsistent := !s.Consistent()
		if inconsistent || s.BalanceBeforeCents != expectedBefore || s.BalanceAfterCents != expectedAfter {
			result.Stale = append(result.Stale, StaleSnapshot{
				SnapshotID:          s.ID,
				FlowID:              s.FlowID,
				TransactionDate:     s.TransactionDate,
				StoredBeforeCents:   s.BalanceBeforeCents,
				ExpectedBeforeCents: expectedBefore,
				StoredAfterCents:    s.BalanceAfterCents,
				ExpectedAfterCents:  expectedAfter,
				Inconsistent:        inconsistent,
			})
		}

		running = expectedAfter
	}

	result.BalanceCents = running
	result.IsReconciled = len(result.Stale) == 0

	return result, nil
}

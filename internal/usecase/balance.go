package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// BalanceBefore computes an account's balance immediately before a posting
// dated asOfDate and created at asOfCreatedAt: the opening balance plus the
// signed sum of every earlier snapshot. Same-day snapshots count only when
// created strictly before asOfCreatedAt.
//
// Snapshots already stored after a backdated posting are not recomputed.
func BalanceBefore(
	ctx context.Context,
	tx Transaction,
	openings OpeningBalanceRepository,
	snapshots AccountTransactionRepository,
	accountID string,
	asOfDate, asOfCreatedAt time.Time,
) (int64, error) {
	var balance int64

	opening, err := openings.Get(ctx, tx, domain.OpeningBalanceRefAccount, accountID)
	if err != nil {
		return 0, fmt.Errorf("load opening balance for %s: %w", accountID, err)
	}
	if opening != nil {
		balance = opening.AmountCents
	}

	cutoff := domain.BalanceCutoff{Date: domain.DateOf(asOfDate), CreatedAt: asOfCreatedAt}

	sum, err := snapshots.SumBefore(ctx, tx, accountID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sum snapshots for %s: %w", accountID, err)
	}

	return balance + sum, nil
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// AllocateVoucher returns the next voucher number for bizDate inside tx.
//
// The number is count+1 of entries already on that date. Two transactions
// can compute the same number; the unique (biz_date, voucher_no) index
// rejects the loser with domain.ErrVoucherConflict and the posting engine
// retries the whole transaction with a fresh count.
func AllocateVoucher(ctx context.Context, tx Transaction, flows CashFlowRepository, bizDate time.Time) (string, error) {
	count, err := flows.CountByBizDate(ctx, tx, domain.DateOf(bizDate))
	if err != nil {
		return "", fmt.Errorf("count entries for %s: %w", bizDate.Format(time.DateOnly), err)
	}

	return domain.FormatVoucherNo(bizDate, count+1), nil
}

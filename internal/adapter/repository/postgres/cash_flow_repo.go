package postgres

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// CashFlowRepository implements usecase.CashFlowRepository.
type CashFlowRepository struct {
	pool DB
}

// NewCashFlowRepository creates a new CashFlowRepository.
func NewCashFlowRepository(pool DB) *CashFlowRepository {
	return &CashFlowRepository{pool: pool}
}

// CountByBizDate counts the entries dated bizDate visible to tx.
func (r *CashFlowRepository) CountByBizDate(ctx context.Context, tx usecase.Transaction, bizDate time.Time) (int, error) {
	q, err := conn(r.pool, tx)
	if err != nil {
		return 0, err
	}

	var count int
	err = q.QueryRow(ctx, `SELECT COUNT(*) FROM cash_flow_entries WHERE biz_date = $1`, bizDate).Scan(&count)
	return count, err
}

// Create inserts an entry. A taken voucher number fails with
// domain.ErrVoucherConflict.
func (r *CashFlowRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CashFlowEntry) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO cash_flow_entries (
			id, voucher_no, biz_date, flow_type, account_id, category_id, amount_cents,
			counterparty, memo, ref_type, ref_id, confirmed, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = pgxTx.Exec(ctx, query,
		entry.ID,
		entry.VoucherNo,
		entry.BizDate,
		string(entry.Type),
		entry.AccountID,
		entry.CategoryID,
		entry.AmountCents,
		entry.Counterparty,
		entry.Memo,
		entry.RefType,
		entry.RefID,
		entry.Confirmed,
		entry.CreatedBy,
		entry.CreatedAt,
	)

	return mapError(err)
}

// AccountTransactionRepository implements usecase.AccountTransactionRepository.
type AccountTransactionRepository struct {
	pool DB
}

// NewAccountTransactionRepository creates a new AccountTransactionRepository.
func NewAccountTransactionRepository(pool DB) *AccountTransactionRepository {
	return &AccountTransactionRepository{pool: pool}
}

// Create inserts a balance snapshot.
func (r *AccountTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, snapshot *domain.AccountTransaction) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO account_transactions (
			id, account_id, flow_id, transaction_date, transaction_type, amount_cents,
			balance_before_cents, balance_after_cents, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = pgxTx.Exec(ctx, query,
		snapshot.ID,
		snapshot.AccountID,
		snapshot.FlowID,
		snapshot.TransactionDate,
		string(snapshot.TransactionType),
		snapshot.AmountCents,
		snapshot.BalanceBeforeCents,
		snapshot.BalanceAfterCents,
		snapshot.CreatedAt,
	)

	return mapError(err)
}

// SumBefore returns the signed sum of the account's snapshots that fall
// before cutoff. Served by idx_account_transactions_account_date.
func (r *AccountTransactionRepository) SumBefore(ctx context.Context, tx usecase.Transaction, accountID string, cutoff domain.BalanceCutoff) (int64, error) {
	q, err := conn(r.pool, tx)
	if err != nil {
		return 0, err
	}

	query := `
		SELECT COALESCE(SUM(
			CASE WHEN transaction_type = 'income' THEN amount_cents ELSE -amount_cents END
		), 0)::BIGINT
		FROM account_transactions
		WHERE account_id = $1
		  AND (transaction_date < $2 OR (transaction_date = $2 AND created_at < $3))
	`

	var sum int64
	err = q.QueryRow(ctx, query, accountID, domain.DateOf(cutoff.Date), cutoff.CreatedAt).Scan(&sum)
	return sum, err
}

// ListByAccount returns the account's snapshots in (transaction date,
// created at) order.
func (r *AccountTransactionRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.AccountTransaction, error) {
	query := `
		SELECT id, account_id, flow_id, transaction_date, transaction_type, amount_cents,
		       balance_before_cents, balance_after_cents, created_at
		FROM account_transactions
		WHERE account_id = $1
		ORDER BY transaction_date, created_at, id
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*domain.AccountTransaction
	for rows.Next() {
		var s domain.AccountTransaction
		var flowType string
		if err := rows.Scan(
			&s.ID,
			&s.AccountID,
			&s.FlowID,
			&s.TransactionDate,
			&flowType,
			&s.AmountCents,
			&s.BalanceBeforeCents,
			&s.BalanceAfterCents,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		s.TransactionType = domain.FlowType(flowType)
		snapshots = append(snapshots, &s)
	}

	return snapshots, rows.Err()
}

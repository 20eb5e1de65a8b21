package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool DB) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id, name, currency, active, allow_negative, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var account domain.Account
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Currency,
		&account.Active,
		&account.AllowNegative,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound.Withf("account %s not found", id)
		}
		return nil, err
	}

	return &account, nil
}

// OpeningBalanceRepository implements usecase.OpeningBalanceRepository.
type OpeningBalanceRepository struct {
	pool DB
}

// NewOpeningBalanceRepository creates a new OpeningBalanceRepository.
func NewOpeningBalanceRepository(pool DB) *OpeningBalanceRepository {
	return &OpeningBalanceRepository{pool: pool}
}

// Get returns the opening balance of a referenced object, or nil when none
// was recorded.
func (r *OpeningBalanceRepository) Get(ctx context.Context, tx usecase.Transaction, refType, refID string) (*domain.OpeningBalance, error) {
	q, err := conn(r.pool, tx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ref_type, ref_id, amount_cents, as_of
		FROM opening_balances
		WHERE ref_type = $1 AND ref_id = $2
	`

	var opening domain.OpeningBalance
	err = q.QueryRow(ctx, query, refType, refID).Scan(
		&opening.RefType,
		&opening.RefID,
		&opening.AmountCents,
		&opening.AsOf,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &opening, nil
}

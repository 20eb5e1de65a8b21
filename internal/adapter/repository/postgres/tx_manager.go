package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/opsledger/internal/usecase"
)

// querier is the subset of pgx shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is satisfied by *pgxpool.Pool and by pgxmock pools in tests.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	pool DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool DB) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction. Constraint violations raised at commit
// are translated like those raised by statements.
func (t *Tx) Commit(ctx context.Context) error {
	return mapError(t.tx.Commit(ctx))
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// conn returns the querier for tx, or the pool when tx is nil.
func conn(pool DB, tx usecase.Transaction) (querier, error) {
	if tx == nil {
		return pool, nil
	}

	pgTx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("postgres: unsupported transaction type %T", tx)
	}

	return pgTx.tx, nil
}

// mustTx returns the pgx transaction for a write; writes never run on the pool.
func mustTx(tx usecase.Transaction) (pgx.Tx, error) {
	if tx == nil {
		return nil, fmt.Errorf("postgres: write requires a transaction")
	}

	pgTx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("postgres: unsupported transaction type %T", tx)
	}

	return pgTx.tx, nil
}

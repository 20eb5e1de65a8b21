package usecase

import (
	"context"
)

// withTx runs fn in its own transaction and commits when fn succeeds.
func withTx(ctx context.Context, txManager TransactionManager, fn func(tx Transaction) error) error {
	tx, err := txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

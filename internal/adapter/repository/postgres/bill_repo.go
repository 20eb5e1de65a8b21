package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// BillRepository implements usecase.BillRepository.
type BillRepository struct {
	pool DB
}

// NewBillRepository creates a new BillRepository.
func NewBillRepository(pool DB) *BillRepository {
	return &BillRepository{pool: pool}
}

// GetByID retrieves a bill by ID.
func (r *BillRepository) GetByID(ctx context.Context, id string) (*domain.PayableBill, error) {
	query := `
		SELECT id, vendor, category_id, currency, amount_cents, due_date, status,
		       COALESCE(flow_id, ''), paid_at, created_at, updated_at
		FROM payable_bills
		WHERE id = $1
	`

	var b domain.PayableBill
	var status string
	var dueDate *time.Time
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Vendor,
		&b.CategoryID,
		&b.Currency,
		&b.AmountCents,
		&dueDate,
		&status,
		&b.FlowID,
		&b.PaidAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBillNotFound.Withf("bill %s not found", id)
		}
		return nil, err
	}
	b.Status = domain.BillStatus(status)
	if dueDate != nil {
		b.DueDate = *dueDate
	}

	return &b, nil
}

// MarkPaid records payment. The update only matches an unpaid bill, so a
// concurrent payment leaves zero rows and fails.
func (r *BillRepository) MarkPaid(ctx context.Context, tx usecase.Transaction, bill *domain.PayableBill) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE payable_bills
		SET status = 'paid', flow_id = $2, paid_at = $3, updated_at = $4
		WHERE id = $1 AND status = 'unpaid'
	`

	tag, err := pgxTx.Exec(ctx, query, bill.ID, bill.FlowID, bill.PaidAt, bill.UpdatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBillAlreadyPaid.Withf("bill %s is already paid", bill.ID)
	}

	return nil
}

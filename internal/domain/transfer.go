package domain

import (
	"time"
)

// EntityTransfer is the ref type stamped on both legs of a transfer.
const EntityTransfer = "transfer"

// Transfer moves cash between two accounts as an expense on the source and
// an income on the destination, posted together.
type Transfer struct {
	ID            string
	FromAccountID string
	ToAccountID   string
	AmountCents   int64
	Currency      string
	BizDate       time.Time
	Memo          string
}

// Validate validates transfer request.
func (t *Transfer) Validate() error {
	if t.FromAccountID == "" {
		return ErrMissingAccount
	}

	if t.ToAccountID == "" {
		return ErrMissingDestination
	}

	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}

	if t.AmountCents <= 0 {
		return ErrInvalidAmount
	}

	if t.BizDate.IsZero() {
		return ErrInvalidBizDate
	}

	return nil
}

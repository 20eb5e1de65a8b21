package domain

import (
	"time"
)

// FlowType is the direction of a cash movement.
type FlowType string

const (
	FlowIncome  FlowType = "income"
	FlowExpense FlowType = "expense"
)

// Valid reports whether t is a known flow type.
func (t FlowType) Valid() bool {
	return t == FlowIncome || t == FlowExpense
}

// Signed returns amountCents with the sign this flow applies to a balance.
func (t FlowType) Signed(amountCents int64) int64 {
	if t == FlowExpense {
		return -amountCents
	}
	return amountCents
}

// CashFlowEntry is an append-only ledger entry for a single cash movement.
type CashFlowEntry struct {
	ID           string
	VoucherNo    string
	BizDate      time.Time
	Type         FlowType
	AccountID    string
	CategoryID   string
	AmountCents  int64
	Counterparty string
	Memo         string
	RefType      string
	RefID        string
	Confirmed    bool
	CreatedBy    string
	CreatedAt    time.Time
}

// Validate validates the entry before insert.
func (e *CashFlowEntry) Validate() error {
	if e.AccountID == "" {
		return ErrMissingAccount
	}

	if !e.Type.Valid() {
		return ErrInvalidFlowType
	}

	if e.AmountCents <= 0 {
		return ErrInvalidAmount
	}

	if e.BizDate.IsZero() {
		return ErrInvalidBizDate
	}

	return nil
}

// AccountTransaction is the balance snapshot captured when a CashFlowEntry is posted.
type AccountTransaction struct {
	ID                 string
	AccountID          string
	FlowID             string
	TransactionDate    time.Time
	TransactionType    FlowType
	AmountCents        int64
	BalanceBeforeCents int64
	BalanceAfterCents  int64
	CreatedAt          time.Time
}

// NewAccountTransaction builds the snapshot for flow given the balance before it.
func NewAccountTransaction(id string, flow *CashFlowEntry, balanceBefore int64) *AccountTransaction {
	return &AccountTransaction{
		ID:                 id,
		AccountID:          flow.AccountID,
		FlowID:             flow.ID,
		TransactionDate:    flow.BizDate,
		TransactionType:    flow.Type,
		AmountCents:        flow.AmountCents,
		BalanceBeforeCents: balanceBefore,
		BalanceAfterCents:  balanceBefore + flow.Type.Signed(flow.AmountCents),
		CreatedAt:          flow.CreatedAt,
	}
}

// Consistent reports whether after = before ± amount holds.
func (t *AccountTransaction) Consistent() bool {
	return t.BalanceAfterCents == t.BalanceBeforeCents+t.TransactionType.Signed(t.AmountCents)
}

// SignedAmount is the contribution of this snapshot to the account balance.
func (t *AccountTransaction) SignedAmount() int64 {
	return t.TransactionType.Signed(t.AmountCents)
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BalanceCutoff selects the snapshots that precede a posting: every row on an
// earlier date, plus rows on the same date created strictly before CreatedAt.
type BalanceCutoff struct {
	Date      time.Time
	CreatedAt time.Time
}

// Includes reports whether a snapshot dated date and created at createdAt
// falls before the cutoff.
func (c BalanceCutoff) Includes(date, createdAt time.Time) bool {
	d := DateOf(date)
	cd := DateOf(c.Date)

	if d.Before(cd) {
		return true
	}

	return d.Equal(cd) && createdAt.Before(c.CreatedAt)
}

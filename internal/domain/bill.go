package domain

import (
	"time"
)

// BillStatus is the payment state of a payable bill.
type BillStatus string

const (
	BillUnpaid BillStatus = "unpaid"
	BillPaid   BillStatus = "paid"
)

// EntityBill is the entity type recorded for bill payments.
const EntityBill = "payable_bill"

// PayableBill is an amount owed to a vendor.
type PayableBill struct {
	ID          string
	Vendor      string
	CategoryID  string
	Currency    string
	AmountCents int64
	DueDate     time.Time
	Status      BillStatus
	FlowID      string
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TrackedState implements Trackable.
func (b *PayableBill) TrackedState() TrackedState {
	if b == nil {
		return TrackedState{}
	}
	return TrackedState{Status: string(b.Status)}
}

// CheckPayable verifies the bill has not been paid yet.
func (b *PayableBill) CheckPayable() error {
	if b.Status == BillPaid {
		return ErrBillAlreadyPaid.Withf("bill %s is already paid", b.ID)
	}
	return nil
}

// Clone returns a copy safe to mutate.
func (b *PayableBill) Clone() *PayableBill {
	cp := *b
	return &cp
}

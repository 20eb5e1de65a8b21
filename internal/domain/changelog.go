package domain

import (
	"time"
)

// Tracked field names. Changes to any other field never produce a change log row.
const (
	FieldStatus    = "status"
	FieldCustodian = "custodian"
	FieldLocation  = "location"
)

// ChangeType labels the transition a change log row records.
type ChangeType string

const (
	ChangeTypePurchase ChangeType = "purchase"
	ChangeTypeSale     ChangeType = "sale"
	ChangeTypeMove     ChangeType = "move"
	ChangeTypeRent     ChangeType = "rent_payment"
	ChangeTypeBillPaid ChangeType = "bill_payment"
	ChangeTypeOnboard  ChangeType = "onboard"
)

// TrackedState is the audited subset of an entity's fields.
type TrackedState struct {
	Status    string
	Custodian string
	Location  string
}

// Trackable is implemented by entities whose state transitions are audited.
type Trackable interface {
	TrackedState() TrackedState
}

// FieldChange is a single from/to pair.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// ChangeLogEntry is an immutable audit row for one entity mutation.
type ChangeLogEntry struct {
	ID         string
	EntityType string
	EntityID   string
	ChangeType ChangeType
	ChangeDate time.Time
	Changes    []FieldChange
	Memo       string
	CreatedBy  string
	CreatedAt  time.Time
}

// Diff returns the tracked fields that differ between before and after, in
// a fixed order. A nil before is treated as the zero state.
func Diff(before, after Trackable) []FieldChange {
	var b, a TrackedState
	if before != nil {
		b = before.TrackedState()
	}
	if after != nil {
		a = after.TrackedState()
	}

	var changes []FieldChange
	if b.Status != a.Status {
		changes = append(changes, FieldChange{Field: FieldStatus, From: b.Status, To: a.Status})
	}
	if b.Custodian != a.Custodian {
		changes = append(changes, FieldChange{Field: FieldCustodian, From: b.Custodian, To: a.Custodian})
	}
	if b.Location != a.Location {
		changes = append(changes, FieldChange{Field: FieldLocation, From: b.Location, To: a.Location})
	}

	return changes
}

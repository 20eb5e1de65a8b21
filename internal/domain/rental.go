package domain

import (
	"fmt"
	"time"
)

// PropertyStatus is the lease state of a rental property.
type PropertyStatus string

const (
	PropertyActive     PropertyStatus = "active"
	PropertyTerminated PropertyStatus = "terminated"
)

// EntityRentalProperty is the entity type recorded for rent payments.
const EntityRentalProperty = "rental_property"

// RentalProperty is a leased property the company pays rent on.
type RentalProperty struct {
	ID               string
	Name             string
	Status           PropertyStatus
	Landlord         string
	Occupant         string
	Location         string
	MonthlyRentCents int64
	LastPaidPeriod   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TrackedState implements Trackable. The occupant is audited as custodian.
func (p *RentalProperty) TrackedState() TrackedState {
	if p == nil {
		return TrackedState{}
	}
	return TrackedState{Status: string(p.Status), Custodian: p.Occupant, Location: p.Location}
}

// CheckPayable verifies rent may be paid on the property.
func (p *RentalProperty) CheckPayable() error {
	if p.Status == PropertyTerminated {
		return ErrPropertyTerminated.Withf("property %s lease is terminated", p.ID)
	}
	return nil
}

// Clone returns a copy safe to mutate.
func (p *RentalProperty) Clone() *RentalProperty {
	cp := *p
	return &cp
}

// RentPeriod is a calendar month of rent.
type RentPeriod struct {
	Year  int
	Month int
}

// Validate checks the period is a real month.
func (r RentPeriod) Validate() error {
	if r.Year < 1900 || r.Year > 9999 {
		return ErrInvalidPeriod.Withf("invalid year %d", r.Year)
	}
	if r.Month < 1 || r.Month > 12 {
		return ErrInvalidPeriod.Withf("invalid month %d", r.Month)
	}
	return nil
}

// String renders the period as YYYY-MM.
func (r RentPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", r.Year, r.Month)
}

// RentPayment records that a property's rent was paid for one period.
// (PropertyID, Year, Month) is unique.
type RentPayment struct {
	ID          string
	PropertyID  string
	Period      RentPeriod
	AmountCents int64
	FlowID      string
	PaidAt      time.Time
	CreatedBy   string
}

package domain

import (
	"time"
)

// OpeningBalanceRefAccount is the ref type used for account opening balances.
const OpeningBalanceRefAccount = "account"

// Account represents a cash account. Its balance is always derived from
// the opening balance and the account's balance snapshots.
type Account struct {
	ID            string
	Name          string
	Currency      string
	Active        bool
	AllowNegative bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CheckPostable verifies the account can take a posting in currency.
func (a *Account) CheckPostable(currency string) error {
	if !a.Active {
		return ErrAccountInactive.Withf("account %s is inactive", a.ID)
	}

	if a.Currency != currency {
		return ErrCurrencyMismatch.Withf("account %s is %s, posting is %s", a.ID, a.Currency, currency)
	}

	return nil
}

// ValidateExpense checks the account may pay amountCents out of balanceBefore.
func (a *Account) ValidateExpense(balanceBefore, amountCents int64) error {
	if !a.AllowNegative && balanceBefore-amountCents < 0 {
		return ErrInsufficientBalance.Withf("account %s has %d cents, needs %d", a.ID, balanceBefore, amountCents)
	}
	return nil
}

// OpeningBalance seeds balance computation for a referenced object.
type OpeningBalance struct {
	RefType     string
	RefID       string
	AmountCents int64
	AsOf        time.Time
}

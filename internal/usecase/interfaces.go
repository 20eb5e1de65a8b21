package usecase

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Account, error)
}

// OpeningBalanceRepository defines data access for opening balances.
type OpeningBalanceRepository interface {
	// Get returns nil, nil when no opening balance is recorded.
	Get(ctx context.Context, tx Transaction, refType, refID string) (*domain.OpeningBalance, error)
}

// CashFlowRepository defines data access for ledger entries.
type CashFlowRepository interface {
	CountByBizDate(ctx context.Context, tx Transaction, bizDate time.Time) (int, error)
	// Create returns domain.ErrVoucherConflict when the voucher number is taken.
	Create(ctx context.Context, tx Transaction, entry *domain.CashFlowEntry) error
}

// AccountTransactionRepository defines data access for balance snapshots.
type AccountTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, snapshot *domain.AccountTransaction) error
	// SumBefore returns the signed sum of snapshots the cutoff includes.
	SumBefore(ctx context.Context, tx Transaction, accountID string, cutoff domain.BalanceCutoff) (int64, error)
	// ListByAccount returns snapshots ordered by transaction date, then creation time.
	ListByAccount(ctx context.Context, accountID string) ([]*domain.AccountTransaction, error)
}

// AssetRepository defines data access for fixed assets.
type AssetRepository interface {
	Create(ctx context.Context, tx Transaction, asset *domain.FixedAsset) error
	GetByID(ctx context.Context, id string) (*domain.FixedAsset, error)
	// MarkSold returns domain.ErrAssetAlreadySold when the stored asset is already sold.
	MarkSold(ctx context.Context, tx Transaction, asset *domain.FixedAsset) error
	// UpdatePlacement returns domain.ErrAssetNotMovable when the stored asset is terminal.
	UpdatePlacement(ctx context.Context, tx Transaction, asset *domain.FixedAsset) error
}

// RentalRepository defines data access for rental properties and rent payments.
type RentalRepository interface {
	GetProperty(ctx context.Context, id string) (*domain.RentalProperty, error)
	PaymentExists(ctx context.Context, propertyID string, period domain.RentPeriod) (bool, error)
	// CreatePayment returns domain.ErrDuplicateRentPayment when the period is already paid.
	CreatePayment(ctx context.Context, tx Transaction, payment *domain.RentPayment) error
	UpdateLastPaid(ctx context.Context, tx Transaction, property *domain.RentalProperty) error
}

// BillRepository defines data access for payable bills.
type BillRepository interface {
	GetByID(ctx context.Context, id string) (*domain.PayableBill, error)
	// MarkPaid returns domain.ErrBillAlreadyPaid when the stored bill is already paid.
	MarkPaid(ctx context.Context, tx Transaction, bill *domain.PayableBill) error
}

// EmployeeRepository defines data access for employees and department membership.
type EmployeeRepository interface {
	DepartmentExists(ctx context.Context, departmentID string) (bool, error)
	CompanyEmailTaken(ctx context.Context, email string) (bool, error)
	// Create returns domain.ErrDuplicateCompanyEmail when the company email is taken.
	Create(ctx context.Context, tx Transaction, employee *domain.Employee) error
	Delete(ctx context.Context, tx Transaction, id string) error
	AddToDepartment(ctx context.Context, tx Transaction, member *domain.DepartmentMember) error
	RemoveFromDepartment(ctx context.Context, tx Transaction, memberID string) error
}

// UserRepository defines data access for login users.
type UserRepository interface {
	Create(ctx context.Context, tx Transaction, user *domain.User) error
	Delete(ctx context.Context, tx Transaction, id string) error
}

// ChangeLogRepository defines data access for change log rows.
type ChangeLogRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.ChangeLogEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*domain.ChangeLogEntry, error)
}

// MailRouter is the external directory/mail-routing service.
type MailRouter interface {
	// EnsureDestination registers address as a verified forwarding destination.
	EnsureDestination(ctx context.Context, address string) error
	// CreateRoutingRule forwards mail for from to to and returns the rule ID.
	CreateRoutingRule(ctx context.Context, from, to string) (string, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Lock is a held distributed lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker obtains short-lived distributed locks.
type Locker interface {
	Obtain(ctx context.Context, key string) (Lock, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can run again.
	Release(ctx context.Context, key string) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

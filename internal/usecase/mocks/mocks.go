package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// ErrTxClosed is returned when a finished transaction is used.
var ErrTxClosed = errors.New("mocks: transaction already closed")

// Store is an in-memory implementation of every repository and of the
// transaction manager. Writes made through a transaction are staged and
// become visible to other readers only on Commit. Unique and conditional
// constraints are checked when the write is staged and again at Commit,
// mirroring what the database enforces.
type Store struct {
	mu sync.Mutex

	accounts    map[string]*domain.Account
	openings    map[string]*domain.OpeningBalance
	flows       []*domain.CashFlowEntry
	snapshots   []*domain.AccountTransaction
	assets      map[string]*domain.FixedAsset
	properties  map[string]*domain.RentalProperty
	payments    []*domain.RentPayment
	bills       map[string]*domain.PayableBill
	departments map[string]bool
	employees   map[string]*domain.Employee
	users       map[string]*domain.User
	members     map[string]*domain.DepartmentMember
	changeLogs  []*domain.ChangeLogEntry

	failures map[string]error

	// BeforeFlowCreate runs before a ledger entry is staged, outside the
	// store lock. Tests use it to commit a competing entry.
	BeforeFlowCreate func(entry *domain.CashFlowEntry)

	Begins    int
	Commits   int
	Rollbacks int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]*domain.Account),
		openings:    make(map[string]*domain.OpeningBalance),
		assets:      make(map[string]*domain.FixedAsset),
		properties:  make(map[string]*domain.RentalProperty),
		bills:       make(map[string]*domain.PayableBill),
		departments: make(map[string]bool),
		employees:   make(map[string]*domain.Employee),
		users:       make(map[string]*domain.User),
		members:     make(map[string]*domain.DepartmentMember),
		failures:    make(map[string]error),
	}
}

// Fail makes the named operation (for example "AssetRepository.MarkSold")
// return err until cleared with a nil err.
func (s *Store) Fail(operation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, operation)
		return
	}
	s.failures[operation] = err
}

func (s *Store) failure(operation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[operation]
}

// Seeding helpers write committed state directly.

func (s *Store) AddAccount(account *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
}

func (s *Store) AddOpeningBalance(opening *domain.OpeningBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openings[opening.RefType+":"+opening.RefID] = opening
}

func (s *Store) AddAsset(asset *domain.FixedAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset.ID] = asset.Clone()
}

func (s *Store) AddProperty(property *domain.RentalProperty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.properties[property.ID] = property.Clone()
}

func (s *Store) AddBill(bill *domain.PayableBill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bills[bill.ID] = bill.Clone()
}

func (s *Store) AddDepartment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.departments[id] = true
}

func (s *Store) AddEmployee(employee *domain.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *employee
	s.employees[employee.ID] = &cp
}

// CommitFlow inserts a committed ledger entry, bypassing transactions.
func (s *Store) CommitFlow(entry *domain.CashFlowEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.voucherTaken(entry, nil) {
		return domain.ErrVoucherConflict
	}
	cp := *entry
	s.flows = append(s.flows, &cp)
	return nil
}

// CommitSnapshot inserts a committed balance snapshot, bypassing transactions.
func (s *Store) CommitSnapshot(snapshot *domain.AccountTransaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snapshot
	s.snapshots = append(s.snapshots, &cp)
}

// Inspection helpers read committed state.

func (s *Store) Flows() []*domain.CashFlowEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.CashFlowEntry(nil), s.flows...)
}

func (s *Store) Snapshots() []*domain.AccountTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.AccountTransaction(nil), s.snapshots...)
}

func (s *Store) ChangeLogs() []*domain.ChangeLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.ChangeLogEntry(nil), s.changeLogs...)
}

func (s *Store) Payments() []*domain.RentPayment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*domain.RentPayment(nil), s.payments...)
}

func (s *Store) Asset(id string) *domain.FixedAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assets[id]; ok {
		return a.Clone()
	}
	return nil
}

func (s *Store) Property(id string) *domain.RentalProperty {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.properties[id]; ok {
		return p.Clone()
	}
	return nil
}

func (s *Store) Bill(id string) *domain.PayableBill {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bills[id]; ok {
		return b.Clone()
	}
	return nil
}

func (s *Store) Employee(id string) *domain.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.employees[id]; ok {
		cp := *e
		return &cp
	}
	return nil
}

func (s *Store) User(id string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (s *Store) Members() []*domain.DepartmentMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]*domain.DepartmentMember, 0, len(s.members))
	for _, m := range s.members {
		members = append(members, m)
	}
	return members
}

// Repository views

func (s *Store) TxManager() usecase.TransactionManager                { return txManager{s} }
func (s *Store) AccountRepo() usecase.AccountRepository               { return accountRepo{s} }
func (s *Store) OpeningRepo() usecase.OpeningBalanceRepository        { return openingRepo{s} }
func (s *Store) FlowRepo() usecase.CashFlowRepository                 { return flowRepo{s} }
func (s *Store) SnapshotRepo() usecase.AccountTransactionRepository   { return snapshotRepo{s} }
func (s *Store) AssetRepo() usecase.AssetRepository                   { return assetRepo{s} }
func (s *Store) RentalRepo() usecase.RentalRepository                 { return rentalRepo{s} }
func (s *Store) BillRepo() usecase.BillRepository                     { return billRepo{s} }
func (s *Store) EmployeeRepo() usecase.EmployeeRepository             { return employeeRepo{s} }
func (s *Store) UserRepo() usecase.UserRepository                     { return userRepo{s} }
func (s *Store) ChangeLogRepo() usecase.ChangeLogRepository           { return changeLogRepo{s} }

// op is a staged write: check validates it against committed state and
// apply makes it visible. Both run under the store lock.
type op struct {
	check func() error
	apply func()
}

// Tx is a staged transaction.
type Tx struct {
	store     *Store
	ops       []op
	flows     []*domain.CashFlowEntry
	snapshots []*domain.AccountTransaction
	done      bool
}

type txManager struct{ s *Store }

func (m txManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.s.failure("TransactionManager.Begin"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.Begins++
	return &Tx{store: m.s}, nil
}

// Commit checks every staged write again and applies all of them, or none.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxClosed
	}
	t.done = true

	if err := t.store.failure("Transaction.Commit"); err != nil {
		t.store.countRollback()
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range t.ops {
		if err := o.check(); err != nil {
			s.Rollbacks++
			return err
		}
	}
	for _, o := range t.ops {
		o.apply()
	}
	s.Commits++
	return nil
}

func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.countRollback()
	return nil
}

func (s *Store) countRollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Rollbacks++
}

// stage validates o now and queues it for Commit.
func (s *Store) stage(tx usecase.Transaction, o op) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := o.check(); err != nil {
		return err
	}
	t.ops = append(t.ops, o)
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t == nil {
		return nil, fmt.Errorf("mocks: write requires a transaction, got %T", tx)
	}
	if t.done {
		return nil, ErrTxClosed
	}
	return t, nil
}

// staged returns tx as *Tx when it is a live mock transaction.
func staged(tx usecase.Transaction) *Tx {
	if t, ok := tx.(*Tx); ok && t != nil && !t.done {
		return t
	}
	return nil
}

func (s *Store) voucherTaken(entry *domain.CashFlowEntry, t *Tx) bool {
	for _, f := range s.flows {
		if f.VoucherNo == entry.VoucherNo && f.BizDate.Equal(entry.BizDate) {
			return true
		}
	}
	if t != nil {
		for _, f := range t.flows {
			if f != entry && f.VoucherNo == entry.VoucherNo && f.BizDate.Equal(entry.BizDate) {
				return true
			}
		}
	}
	return false
}

// AccountRepository

type accountRepo struct{ s *Store }

func (r accountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if err := r.s.failure("AccountRepository.GetByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.accounts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound.Withf("account %s not found", id)
}

// OpeningBalanceRepository

type openingRepo struct{ s *Store }

func (r openingRepo) Get(ctx context.Context, tx usecase.Transaction, refType, refID string) (*domain.OpeningBalance, error) {
	if err := r.s.failure("OpeningBalanceRepository.Get"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o, ok := r.s.openings[refType+":"+refID]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

// CashFlowRepository

type flowRepo struct{ s *Store }

func (r flowRepo) CountByBizDate(ctx context.Context, tx usecase.Transaction, bizDate time.Time) (int, error) {
	if err := r.s.failure("CashFlowRepository.CountByBizDate"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	day := domain.DateOf(bizDate)
	count := 0
	for _, f := range r.s.flows {
		if domain.DateOf(f.BizDate).Equal(day) {
			count++
		}
	}
	if t := staged(tx); t != nil {
		for _, f := range t.flows {
			if domain.DateOf(f.BizDate).Equal(day) {
				count++
			}
		}
	}
	return count, nil
}

func (r flowRepo) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CashFlowEntry) error {
	if err := r.s.failure("CashFlowRepository.Create"); err != nil {
		return err
	}
	if hook := r.s.BeforeFlowCreate; hook != nil {
		hook(entry)
	}

	t, err := asTx(tx)
	if err != nil {
		return err
	}

	cp := *entry
	err = r.s.stage(tx, op{
		check: func() error {
			if r.s.voucherTaken(&cp, t) {
				return domain.ErrVoucherConflict.Withf("voucher %s already allocated", cp.VoucherNo)
			}
			return nil
		},
		apply: func() { r.s.flows = append(r.s.flows, &cp) },
	})
	if err != nil {
		return err
	}
	t.flows = append(t.flows, &cp)
	return nil
}

// AccountTransactionRepository

type snapshotRepo struct{ s *Store }

func (r snapshotRepo) Create(ctx context.Context, tx usecase.Transaction, snapshot *domain.AccountTransaction) error {
	if err := r.s.failure("AccountTransactionRepository.Create"); err != nil {
		return err
	}
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	cp := *snapshot
	err = r.s.stage(tx, op{
		check: func() error {
			for _, existing := range r.s.snapshots {
				if existing.FlowID == cp.FlowID {
					return domain.ErrDuplicateSnapshot
				}
			}
			return nil
		},
		apply: func() { r.s.snapshots = append(r.s.snapshots, &cp) },
	})
	if err != nil {
		return err
	}
	t.snapshots = append(t.snapshots, &cp)
	return nil
}

func (r snapshotRepo) SumBefore(ctx context.Context, tx usecase.Transaction, accountID string, cutoff domain.BalanceCutoff) (int64, error) {
	if err := r.s.failure("AccountTransactionRepository.SumBefore"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rows := r.s.snapshots
	if t := staged(tx); t != nil {
		rows = append(append([]*domain.AccountTransaction(nil), rows...), t.snapshots...)
	}

	var sum int64
	for _, snap := range rows {
		if snap.AccountID == accountID && cutoff.Includes(snap.TransactionDate, snap.CreatedAt) {
			sum += snap.SignedAmount()
		}
	}
	return sum, nil
}

func (r snapshotRepo) ListByAccount(ctx context.Context, accountID string) ([]*domain.AccountTransaction, error) {
	if err := r.s.failure("AccountTransactionRepository.ListByAccount"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var rows []*domain.AccountTransaction
	for _, snap := range r.s.snapshots {
		if snap.AccountID == accountID {
			cp := *snap
			rows = append(rows, &cp)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].TransactionDate.Equal(rows[j].TransactionDate) {
			return rows[i].TransactionDate.Before(rows[j].TransactionDate)
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
	return rows, nil
}

// AssetRepository

type assetRepo struct{ s *Store }

func (r assetRepo) Create(ctx context.Context, tx usecase.Transaction, asset *domain.FixedAsset) error {
	if err := r.s.failure("AssetRepository.Create"); err != nil {
		return err
	}
	cp := asset.Clone()
	return r.s.stage(tx, op{
		check: func() error {
			if _, ok := r.s.assets[cp.ID]; ok {
				return domain.ErrDuplicate.Withf("asset %s already exists", cp.ID)
			}
			return nil
		},
		apply: func() { r.s.assets[cp.ID] = cp },
	})
}

func (r assetRepo) GetByID(ctx context.Context, id string) (*domain.FixedAsset, error) {
	if err := r.s.failure("AssetRepository.GetByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.s.assets[id]; ok {
		return a.Clone(), nil
	}
	return nil, domain.ErrAssetNotFound.Withf("asset %s not found", id)
}

func (r assetRepo) MarkSold(ctx context.Context, tx usecase.Transaction, asset *domain.FixedAsset) error {
	if err := r.s.failure("AssetRepository.MarkSold"); err != nil {
		return err
	}
	cp := asset.Clone()
	return r.s.stage(tx, op{
		check: func() error {
			stored, ok := r.s.assets[cp.ID]
			if !ok {
				return domain.ErrAssetNotFound
			}
			if stored.Status == domain.AssetSold {
				return domain.ErrAssetAlreadySold.Withf("asset %s is already sold", cp.ID)
			}
			if stored.Status.Terminal() {
				return domain.ErrAssetNotSellable.Withf("asset %s is %s", cp.ID, stored.Status)
			}
			return nil
		},
		apply: func() { r.s.assets[cp.ID] = cp },
	})
}

func (r assetRepo) UpdatePlacement(ctx context.Context, tx usecase.Transaction, asset *domain.FixedAsset) error {
	if err := r.s.failure("AssetRepository.UpdatePlacement"); err != nil {
		return err
	}
	cp := asset.Clone()
	return r.s.stage(tx, op{
		check: func() error {
			stored, ok := r.s.assets[cp.ID]
			if !ok {
				return domain.ErrAssetNotFound
			}
			if stored.Status.Terminal() {
				return domain.ErrAssetNotMovable.Withf("asset %s is %s", cp.ID, stored.Status)
			}
			return nil
		},
		apply: func() {
			stored := r.s.assets[cp.ID]
			stored.Custodian = cp.Custodian
			stored.Location = cp.Location
			stored.Memo = cp.Memo
			stored.UpdatedAt = cp.UpdatedAt
		},
	})
}

// RentalRepository

type rentalRepo struct{ s *Store }

func (r rentalRepo) GetProperty(ctx context.Context, id string) (*domain.RentalProperty, error) {
	if err := r.s.failure("RentalRepository.GetProperty"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.properties[id]; ok {
		return p.Clone(), nil
	}
	return nil, domain.ErrPropertyNotFound.Withf("property %s not found", id)
}

func (r rentalRepo) PaymentExists(ctx context.Context, propertyID string, period domain.RentPeriod) (bool, error) {
	if err := r.s.failure("RentalRepository.PaymentExists"); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.paymentExists(propertyID, period), nil
}

func (s *Store) paymentExists(propertyID string, period domain.RentPeriod) bool {
	for _, p := range s.payments {
		if p.PropertyID == propertyID && p.Period == period {
			return true
		}
	}
	return false
}

func (r rentalRepo) CreatePayment(ctx context.Context, tx usecase.Transaction, payment *domain.RentPayment) error {
	if err := r.s.failure("RentalRepository.CreatePayment"); err != nil {
		return err
	}
	cp := *payment
	return r.s.stage(tx, op{
		check: func() error {
			if r.s.paymentExists(cp.PropertyID, cp.Period) {
				return domain.ErrDuplicateRentPayment.Withf("rent for property %s period %s is already paid", cp.PropertyID, cp.Period)
			}
			return nil
		},
		apply: func() { r.s.payments = append(r.s.payments, &cp) },
	})
}

func (r rentalRepo) UpdateLastPaid(ctx context.Context, tx usecase.Transaction, property *domain.RentalProperty) error {
	if err := r.s.failure("RentalRepository.UpdateLastPaid"); err != nil {
		return err
	}
	cp := property.Clone()
	return r.s.stage(tx, op{
		check: func() error {
			if _, ok := r.s.properties[cp.ID]; !ok {
				return domain.ErrPropertyNotFound
			}
			return nil
		},
		apply: func() {
			stored := r.s.properties[cp.ID]
			if cp.LastPaidPeriod > stored.LastPaidPeriod {
				stored.LastPaidPeriod = cp.LastPaidPeriod
			}
			stored.UpdatedAt = cp.UpdatedAt
		},
	})
}

// BillRepository

type billRepo struct{ s *Store }

func (r billRepo) GetByID(ctx context.Context, id string) (*domain.PayableBill, error) {
	if err := r.s.failure("BillRepository.GetByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if b, ok := r.s.bills[id]; ok {
		return b.Clone(), nil
	}
	return nil, domain.ErrBillNotFound.Withf("bill %s not found", id)
}

func (r billRepo) MarkPaid(ctx context.Context, tx usecase.Transaction, bill *domain.PayableBill) error {
	if err := r.s.failure("BillRepository.MarkPaid"); err != nil {
		return err
	}
	cp := bill.Clone()
	return r.s.stage(tx, op{
		check: func() error {
			stored, ok := r.s.bills[cp.ID]
			if !ok {
				return domain.ErrBillNotFound
			}
			if stored.Status == domain.BillPaid {
				return domain.ErrBillAlreadyPaid.Withf("bill %s is already paid", cp.ID)
			}
			return nil
		},
		apply: func() { r.s.bills[cp.ID] = cp },
	})
}

// EmployeeRepository

type employeeRepo struct{ s *Store }

func (r employeeRepo) DepartmentExists(ctx context.Context, departmentID string) (bool, error) {
	if err := r.s.failure("EmployeeRepository.DepartmentExists"); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.departments[departmentID], nil
}

func (r employeeRepo) CompanyEmailTaken(ctx context.Context, email string) (bool, error) {
	if err := r.s.failure("EmployeeRepository.CompanyEmailTaken"); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.companyEmailTaken(email), nil
}

func (s *Store) companyEmailTaken(email string) bool {
	for _, e := range s.employees {
		if e.CompanyEmail == email {
			return true
		}
	}
	return false
}

func (r employeeRepo) Create(ctx context.Context, tx usecase.Transaction, employee *domain.Employee) error {
	if err := r.s.failure("EmployeeRepository.Create"); err != nil {
		return err
	}
	cp := *employee
	return r.s.stage(tx, op{
		check: func() error {
			if r.s.companyEmailTaken(cp.CompanyEmail) {
				return domain.ErrDuplicateCompanyEmail.Withf("company email %s is taken", cp.CompanyEmail)
			}
			return nil
		},
		apply: func() { r.s.employees[cp.ID] = &cp },
	})
}

func (r employeeRepo) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if err := r.s.failure("EmployeeRepository.Delete"); err != nil {
		return err
	}
	return r.s.stage(tx, op{
		check: func() error { return nil },
		apply: func() { delete(r.s.employees, id) },
	})
}

func (r employeeRepo) AddToDepartment(ctx context.Context, tx usecase.Transaction, member *domain.DepartmentMember) error {
	if err := r.s.failure("EmployeeRepository.AddToDepartment"); err != nil {
		return err
	}
	cp := *member
	return r.s.stage(tx, op{
		check: func() error {
			if !r.s.departments[cp.DepartmentID] {
				return domain.ErrDepartmentNotFound
			}
			return nil
		},
		apply: func() { r.s.members[cp.ID] = &cp },
	})
}

func (r employeeRepo) RemoveFromDepartment(ctx context.Context, tx usecase.Transaction, memberID string) error {
	if err := r.s.failure("EmployeeRepository.RemoveFromDepartment"); err != nil {
		return err
	}
	return r.s.stage(tx, op{
		check: func() error { return nil },
		apply: func() { delete(r.s.members, memberID) },
	})
}

// UserRepository

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, tx usecase.Transaction, user *domain.User) error {
	if err := r.s.failure("UserRepository.Create"); err != nil {
		return err
	}
	cp := *user
	return r.s.stage(tx, op{
		check: func() error {
			for _, u := range r.s.users {
				if u.Email == cp.Email {
					return domain.ErrDuplicate.Withf("user %s already exists", cp.Email)
				}
			}
			return nil
		},
		apply: func() { r.s.users[cp.ID] = &cp },
	})
}

func (r userRepo) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if err := r.s.failure("UserRepository.Delete"); err != nil {
		return err
	}
	return r.s.stage(tx, op{
		check: func() error { return nil },
		apply: func() { delete(r.s.users, id) },
	})
}

// ChangeLogRepository

type changeLogRepo struct{ s *Store }

func (r changeLogRepo) Create(ctx context.Context, tx usecase.Transaction, entry *domain.ChangeLogEntry) error {
	if err := r.s.failure("ChangeLogRepository.Create"); err != nil {
		return err
	}
	cp := *entry
	cp.Changes = append([]domain.FieldChange(nil), entry.Changes...)
	return r.s.stage(tx, op{
		check: func() error { return nil },
		apply: func() { r.s.changeLogs = append(r.s.changeLogs, &cp) },
	})
}

func (r changeLogRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*domain.ChangeLogEntry, error) {
	if err := r.s.failure("ChangeLogRepository.ListByEntity"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var entries []*domain.ChangeLogEntry
	for _, e := range r.s.changeLogs {
		if e.EntityType == entityType && e.EntityID == entityID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Retrier retries operations that fail with domain.ErrVoucherConflict, up
// to MaxRetries times after the first attempt.
type Retrier struct {
	MaxRetries int

	mu       sync.Mutex
	attempts int
}

func NewRetrier(maxRetries int) *Retrier {
	return &Retrier{MaxRetries: maxRetries}
}

func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	for i := 0; ; i++ {
		r.mu.Lock()
		r.attempts++
		r.mu.Unlock()

		err := operation()
		if err == nil || !errors.Is(err, domain.ErrVoucherConflict) || i >= r.MaxRetries {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}

// Attempts returns the number of operation calls so far.
func (r *Retrier) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Clock returns a time that advances by Step on every call.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start, Step: time.Millisecond}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.Step)
	return now
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("mock-id-%04d", m.counter)
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte("processing")
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Get returns the stored value for key.
func (m *MockIdempotencyStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

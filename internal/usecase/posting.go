package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/infrastructure/metrics"
)

// OperationKind names the business action behind a posting.
type OperationKind string

const (
	OpPurchaseAsset OperationKind = "purchase_asset"
	OpSellAsset     OperationKind = "sell_asset"
	OpPayRent       OperationKind = "pay_rent"
	OpPayBill       OperationKind = "pay_bill"
	OpTransfer      OperationKind = "transfer"
)

// Leg is one cash movement of an operation.
type Leg struct {
	AccountID    string
	Type         domain.FlowType
	AmountCents  int64
	CategoryID   string
	Counterparty string
	Memo         string
}

// Mutation is the business-entity side of a posting.
type Mutation interface {
	// Check runs before the transaction opens and must not write.
	Check(ctx context.Context) error
	// Apply runs inside the posting transaction after the ledger writes.
	// It returns the change to audit, or nil when there is none.
	Apply(ctx context.Context, tx Transaction, entries []*domain.CashFlowEntry) (*ChangeInput, error)
}

// MutationFuncs adapts a pair of functions to Mutation. Nil functions are no-ops.
type MutationFuncs struct {
	CheckFunc func(ctx context.Context) error
	ApplyFunc func(ctx context.Context, tx Transaction, entries []*domain.CashFlowEntry) (*ChangeInput, error)
}

func (m MutationFuncs) Check(ctx context.Context) error {
	if m.CheckFunc == nil {
		return nil
	}
	return m.CheckFunc(ctx)
}

func (m MutationFuncs) Apply(ctx context.Context, tx Transaction, entries []*domain.CashFlowEntry) (*ChangeInput, error) {
	if m.ApplyFunc == nil {
		return nil, nil
	}
	return m.ApplyFunc(ctx, tx, entries)
}

// Operation is a business action that moves cash.
type Operation struct {
	Kind     OperationKind
	BizDate  time.Time
	Currency string
	Actor    string
	RefType  string
	RefID    string
	Legs     []Leg
	Mutation Mutation
}

// PostedEntry is the outcome of one leg.
type PostedEntry struct {
	EntryID            string
	SnapshotID         string
	AccountID          string
	VoucherNo          string
	BalanceBeforeCents int64
	BalanceAfterCents  int64
}

// PostingResult is the outcome of a committed posting.
type PostingResult struct {
	Entries   []PostedEntry
	ChangeLog *domain.ChangeLogEntry
}

// PostingDeps are the collaborators of a PostingEngine. Locker, Metrics
// and Logger are optional.
type PostingDeps struct {
	TxManager  TransactionManager
	Accounts   AccountRepository
	Openings   OpeningBalanceRepository
	Flows      CashFlowRepository
	Snapshots  AccountTransactionRepository
	ChangeLogs ChangeLogRepository
	IDGen      IDGenerator
	Clock      Clock
	Retrier    Retrier
	Locker     Locker
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
	TxTimeout  time.Duration
}

// PostingEngine posts ledger entries, balance snapshots, the entity
// mutation and its change log in one storage transaction.
type PostingEngine struct {
	deps PostingDeps
}

// NewPostingEngine creates a new PostingEngine.
func NewPostingEngine(deps PostingDeps) *PostingEngine {
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.TxTimeout <= 0 {
		deps.TxTimeout = DefaultTransactionTimeout
	}
	if deps.Retrier == nil {
		deps.Retrier = singleAttempt{}
	}
	return &PostingEngine{deps: deps}
}

// Post validates op, checks preconditions and commits it atomically.
// A voucher conflict retries the whole transaction with a fresh count;
// exhausting the retries returns domain.ErrSequenceContention.
func (e *PostingEngine) Post(ctx context.Context, op Operation) (*PostingResult, error) {
	start := time.Now()

	result, err := e.post(ctx, op)

	if e.deps.Metrics != nil {
		e.deps.Metrics.PostingDuration.WithLabelValues(string(op.Kind)).Observe(time.Since(start).Seconds())
		e.deps.Metrics.Postings.WithLabelValues(string(op.Kind), outcome(err)).Inc()
		if err == nil {
			for _, leg := range op.Legs {
				e.deps.Metrics.PostingAmount.WithLabelValues(string(leg.Type)).Observe(float64(leg.AmountCents))
			}
		}
	}

	return result, err
}

func (e *PostingEngine) post(ctx context.Context, op Operation) (*PostingResult, error) {
	op.Currency = strings.ToUpper(strings.TrimSpace(op.Currency))

	// 0. Validate inputs before starting transaction
	if err := validateOperation(op); err != nil {
		return nil, err
	}

	// 1. Preconditions
	accounts, err := e.loadAccounts(ctx, op)
	if err != nil {
		return nil, err
	}

	if op.Mutation != nil {
		if err := op.Mutation.Check(ctx); err != nil {
			return nil, err
		}
	}

	// 2. Post, retrying the whole transaction on voucher conflicts
	var result *PostingResult
	attempts := 0

	err = e.deps.Retrier.Retry(ctx, func() error {
		attempts++
		if attempts > 1 && e.deps.Metrics != nil {
			e.deps.Metrics.VoucherRetries.Inc()
		}

		var postErr error
		result, postErr = e.postOnce(ctx, op, accounts)
		return postErr
	})
	if err != nil {
		if errors.Is(err, domain.ErrVoucherConflict) {
			if e.deps.Metrics != nil {
				e.deps.Metrics.SequenceContention.Inc()
			}
			e.deps.Logger.Error().
				Str("operation", string(op.Kind)).
				Int("attempts", attempts).
				Msg("voucher sequence contention")
			return nil, domain.ErrSequenceContention.Wrap(err)
		}
		return nil, err
	}

	return result, nil
}

func (e *PostingEngine) postOnce(ctx context.Context, op Operation, accounts map[string]*domain.Account) (*PostingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.deps.TxTimeout)
	defer cancel()

	release := e.acquireLocks(ctx, op)
	defer release()

	tx, err := e.deps.TxManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	bizDate := domain.DateOf(op.BizDate)

	result := &PostingResult{Entries: make([]PostedEntry, 0, len(op.Legs))}
	entries := make([]*domain.CashFlowEntry, 0, len(op.Legs))

	var last time.Time
	for _, leg := range op.Legs {
		posted, entry, err := e.postLeg(ctx, tx, op, accounts[leg.AccountID], leg, bizDate, last)
		if err != nil {
			return nil, err
		}
		last = entry.CreatedAt

		result.Entries = append(result.Entries, *posted)
		entries = append(entries, entry)
	}

	if op.Mutation != nil {
		change, err := op.Mutation.Apply(ctx, tx, entries)
		if err != nil {
			return nil, err
		}

		if change != nil {
			if change.Actor == "" {
				change.Actor = op.Actor
			}
			if change.ChangeDate.IsZero() {
				change.ChangeDate = bizDate
			}

			result.ChangeLog, err = RecordChange(ctx, tx, e.deps.ChangeLogs, e.deps.IDGen, last, *change)
			if err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if result.ChangeLog != nil && e.deps.Metrics != nil {
		e.deps.Metrics.ChangeLogsRecorded.WithLabelValues(result.ChangeLog.EntityType).Inc()
	}

	return result, nil
}

func (e *PostingEngine) postLeg(
	ctx context.Context,
	tx Transaction,
	op Operation,
	account *domain.Account,
	leg Leg,
	bizDate, previous time.Time,
) (*PostedEntry, *domain.CashFlowEntry, error) {
	// Every visible row dated on or before bizDate precedes this one,
	// including earlier legs of the same posting.
	before, err := BalanceBefore(ctx, tx, e.deps.Openings, e.deps.Snapshots, account.ID, bizDate.AddDate(0, 0, 1), time.Time{})
	if err != nil {
		return nil, nil, err
	}

	if leg.Type == domain.FlowExpense {
		if err := account.ValidateExpense(before, leg.AmountCents); err != nil {
			return nil, nil, err
		}
	}

	voucherNo, err := AllocateVoucher(ctx, tx, e.deps.Flows, bizDate)
	if err != nil {
		return nil, nil, err
	}

	// Stamped after the reads so the row sorts after everything it counted.
	createdAt := e.deps.Clock.Now().UTC().Truncate(time.Microsecond)
	if !createdAt.After(previous) {
		createdAt = previous.Add(time.Microsecond)
	}

	entry := &domain.CashFlowEntry{
		ID:           e.deps.IDGen.Generate(),
		VoucherNo:    voucherNo,
		BizDate:      bizDate,
		Type:         leg.Type,
		AccountID:    account.ID,
		CategoryID:   leg.CategoryID,
		AmountCents:  leg.AmountCents,
		Counterparty: leg.Counterparty,
		Memo:         leg.Memo,
		RefType:      op.RefType,
		RefID:        op.RefID,
		Confirmed:    true,
		CreatedBy:    op.Actor,
		CreatedAt:    createdAt,
	}

	if err := entry.Validate(); err != nil {
		return nil, nil, err
	}
	if err := e.deps.Flows.Create(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	snapshot := domain.NewAccountTransaction(e.deps.IDGen.Generate(), entry, before)
	if err := e.deps.Snapshots.Create(ctx, tx, snapshot); err != nil {
		return nil, nil, err
	}

	return &PostedEntry{
		EntryID:            entry.ID,
		SnapshotID:         snapshot.ID,
		AccountID:          account.ID,
		VoucherNo:          voucherNo,
		BalanceBeforeCents: snapshot.BalanceBeforeCents,
		BalanceAfterCents:  snapshot.BalanceAfterCents,
	}, entry, nil
}

func (e *PostingEngine) loadAccounts(ctx context.Context, op Operation) (map[string]*domain.Account, error) {
	accounts := make(map[string]*domain.Account, len(op.Legs))

	for _, leg := range op.Legs {
		if _, ok := accounts[leg.AccountID]; ok {
			continue
		}

		account, err := e.deps.Accounts.GetByID(ctx, leg.AccountID)
		if err != nil {
			return nil, err
		}

		if err := account.CheckPostable(op.Currency); err != nil {
			return nil, err
		}

		accounts[leg.AccountID] = account
	}

	return accounts, nil
}

// acquireLocks serializes postings per account and per business date when a
// Locker is configured. Locks are best-effort: the unique voucher index
// remains the guarantee, so a lock that cannot be obtained is logged and
// skipped.
func (e *PostingEngine) acquireLocks(ctx context.Context, op Operation) func() {
	if e.deps.Locker == nil {
		return func() {}
	}

	keys := lockKeys(op)
	held := make([]Lock, 0, len(keys))

	for _, key := range keys {
		lock, err := e.deps.Locker.Obtain(ctx, key)
		if err != nil {
			e.countLock("skipped")
			e.deps.Logger.Warn().Err(err).Str("key", key).Msg("posting lock not obtained, relying on unique constraints")
			continue
		}
		e.countLock("obtained")
		held = append(held, lock)
	}

	return func() {
		releaseCtx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(releaseCtx); err != nil {
				e.deps.Logger.Warn().Err(err).Msg("failed to release posting lock")
			}
		}
	}
}

func (e *PostingEngine) countLock(outcome string) {
	if e.deps.Metrics != nil {
		e.deps.Metrics.LockAcquisitions.WithLabelValues(outcome).Inc()
	}
}

// lockKeys returns account keys then the voucher key, each group sorted,
// so concurrent postings acquire in the same order.
func lockKeys(op Operation) []string {
	seen := make(map[string]bool, len(op.Legs))
	keys := make([]string, 0, len(op.Legs)+1)

	for _, leg := range op.Legs {
		if seen[leg.AccountID] {
			continue
		}
		seen[leg.AccountID] = true
		keys = append(keys, "ledger:account:"+leg.AccountID)
	}
	sort.Strings(keys)

	return append(keys, "ledger:voucher:"+op.BizDate.Format("20060102"))
}

func validateOperation(op Operation) error {
	if len(op.Legs) == 0 {
		return domain.ErrNoLegs
	}

	if op.BizDate.IsZero() {
		return domain.ErrInvalidBizDate
	}

	if err := domain.ValidateCurrency(op.Currency); err != nil {
		return err
	}

	for i, leg := range op.Legs {
		if leg.AccountID == "" {
			return domain.ErrMissingAccount.Withf("leg %d has no account", i)
		}

		if !leg.Type.Valid() {
			return domain.ErrInvalidFlowType.Withf("leg %d has flow type %q", i, leg.Type)
		}

		if err := domain.ValidateAmountCents(leg.AmountCents); err != nil {
			return err
		}

		if err := domain.ValidateMemo(leg.Memo); err != nil {
			return err
		}
	}

	return nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return strings.ToLower(string(domain.KindOf(err)))
}

type singleAttempt struct{}

func (singleAttempt) Retry(_ context.Context, operation func() error) error {
	return operation()
}

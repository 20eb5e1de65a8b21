package usecase_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/infrastructure/metrics"
	"github.com/iho/opsledger/internal/usecase"
	"github.com/iho/opsledger/internal/usecase/mocks"
)

const (
	cashAccount = "acc-cash"
	bankAccount = "acc-bank"
)

var (
	jan10 = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	jan11 = time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	store    *mocks.Store
	retrier  *mocks.Retrier
	clock    *mocks.Clock
	idGen    *mocks.MockIDGenerator
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	engine   *usecase.PostingEngine
}

// newFixture seeds a CNY cash account with 100000 cents and an empty bank account.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    mocks.NewStore(),
		retrier:  mocks.NewRetrier(5),
		clock:    mocks.NewClock(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)),
		idGen:    mocks.NewMockIDGenerator(),
		registry: prometheus.NewRegistry(),
	}
	f.metrics = metrics.New(f.registry)

	f.store.AddAccount(&domain.Account{ID: cashAccount, Name: "Cash", Currency: "CNY", Active: true})
	f.store.AddAccount(&domain.Account{ID: bankAccount, Name: "Bank", Currency: "CNY", Active: true})
	f.store.AddOpeningBalance(&domain.OpeningBalance{
		RefType:     domain.OpeningBalanceRefAccount,
		RefID:       cashAccount,
		AmountCents: 100000,
		AsOf:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	f.engine = f.newEngine(nil)
	return f
}

func (f *fixture) newEngine(locker usecase.Locker) *usecase.PostingEngine {
	return usecase.NewPostingEngine(usecase.PostingDeps{
		TxManager:  f.store.TxManager(),
		Accounts:   f.store.AccountRepo(),
		Openings:   f.store.OpeningRepo(),
		Flows:      f.store.FlowRepo(),
		Snapshots:  f.store.SnapshotRepo(),
		ChangeLogs: f.store.ChangeLogRepo(),
		IDGen:      f.idGen,
		Clock:      f.clock,
		Retrier:    f.retrier,
		Locker:     locker,
		Metrics:    f.metrics,
		Logger:     zerolog.Nop(),
	})
}

func (f *fixture) assets() *usecase.AssetUseCase {
	return usecase.NewAssetUseCase(f.engine, f.store.TxManager(), f.store.AssetRepo(), f.store.ChangeLogRepo(), f.idGen, f.clock)
}

func (f *fixture) rent() *usecase.RentUseCase {
	return usecase.NewRentUseCase(f.engine, f.store.RentalRepo(), f.idGen)
}

func (f *fixture) bills() *usecase.BillUseCase {
	return usecase.NewBillUseCase(f.engine, f.store.BillRepo())
}

func (f *fixture) transfers() *usecase.TransferUseCase {
	return usecase.NewTransferUseCase(f.engine, f.idGen)
}

func (f *fixture) ledger() *usecase.LedgerUseCase {
	return usecase.NewLedgerUseCase(f.store.AccountRepo(), f.store.OpeningRepo(), f.store.SnapshotRepo(), f.clock)
}

func (f *fixture) reconciliation() *usecase.ReconciliationUseCase {
	return usecase.NewReconciliationUseCase(f.store.AccountRepo(), f.store.OpeningRepo(), f.store.SnapshotRepo(), f.clock)
}

func (f *fixture) addAsset(id string, status domain.AssetStatus) {
	f.store.AddAsset(&domain.FixedAsset{
		ID:                 id,
		Name:               "Laptop",
		Status:             status,
		Custodian:          "alice",
		Location:           "HQ-3F",
		PurchaseDate:       time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		PurchasePriceCents: 800000,
	})
}

// rowCounts returns the number of committed ledger entries, snapshots and change logs.
func (f *fixture) rowCounts() (flows, snapshots, changeLogs int) {
	return len(f.store.Flows()), len(f.store.Snapshots()), len(f.store.ChangeLogs())
}

// counter sums every series of the named counter.
func (f *fixture) counter(t *testing.T, name string) float64 {
	t.Helper()

	families, err := f.registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

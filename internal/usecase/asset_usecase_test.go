package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

func strPtr(s string) *string { return &s }

func TestAssetUseCase_PurchaseAsset_SequentialVouchers(t *testing.T) {
	f := newFixture(t)
	uc := f.assets()
	ctx := context.Background()

	first, err := uc.PurchaseAsset(ctx, usecase.PurchaseAssetInput{
		Name:        "Laptop",
		CategoryID:  "cat-equipment",
		AccountID:   cashAccount,
		Currency:    "CNY",
		AmountCents: 30000,
		BizDate:     jan10,
		Vendor:      "Acme",
		Custodian:   "alice",
		Location:    "HQ-3F",
		Actor:       "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, "JZ20240110-001", first.VoucherNo)
	assert.Equal(t, int64(100000), first.BalanceBeforeCents)
	assert.Equal(t, int64(70000), first.BalanceAfterCents)

	second, err := uc.PurchaseAsset(ctx, usecase.PurchaseAssetInput{
		Name:        "Monitor",
		AccountID:   cashAccount,
		Currency:    "CNY",
		AmountCents: 20000,
		BizDate:     jan10,
		Actor:       "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, "JZ20240110-002", second.VoucherNo)
	assert.Equal(t, int64(70000), second.BalanceBeforeCents)
	assert.Equal(t, int64(50000), second.BalanceAfterCents)

	asset := f.store.Asset(first.AssetID)
	require.NotNil(t, asset)
	assert.Equal(t, domain.AssetInUse, asset.Status)
	assert.Equal(t, int64(30000), asset.PurchasePriceCents)
	assert.True(t, asset.PurchaseDate.Equal(jan10))

	flows := f.store.Flows()
	require.Len(t, flows, 2)
	assert.Equal(t, domain.EntityAsset, flows[0].RefType)
	assert.Equal(t, first.AssetID, flows[0].RefID)
	assert.True(t, flows[0].Confirmed)

	history, err := uc.History(ctx, first.AssetID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.ChangeTypePurchase, history[0].ChangeType)
	assert.Equal(t, "admin", history[0].CreatedBy)
	assert.Equal(t, []domain.FieldChange{
		{Field: domain.FieldStatus, From: "", To: "in_use"},
		{Field: domain.FieldCustodian, From: "", To: "alice"},
		{Field: domain.FieldLocation, From: "", To: "HQ-3F"},
	}, history[0].Changes)
}

func TestAssetUseCase_PurchaseAsset_InsufficientBalance(t *testing.T) {
	f := newFixture(t)

	_, err := f.assets().PurchaseAsset(context.Background(), usecase.PurchaseAssetInput{
		Name:        "Server",
		AccountID:   cashAccount,
		Currency:    "CNY",
		AmountCents: 150000,
		BizDate:     jan10,
	})

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Empty(t, f.store.Flows())
	assert.Empty(t, f.store.ChangeLogs())
}

func TestAssetUseCase_PurchaseAsset_AssetInsertFailsRollsBack(t *testing.T) {
	f := newFixture(t)
	f.store.Fail("AssetRepository.Create", domain.ErrDuplicate)

	_, err := f.assets().PurchaseAsset(context.Background(), usecase.PurchaseAssetInput{
		Name:        "Laptop",
		AccountID:   cashAccount,
		Currency:    "CNY",
		AmountCents: 30000,
		BizDate:     jan10,
	})

	require.ErrorIs(t, err, domain.ErrDuplicate)
	flows, snapshots, changeLogs := f.rowCounts()
	assert.Zero(t, flows)
	assert.Zero(t, snapshots)
	assert.Zero(t, changeLogs)
}

func TestAssetUseCase_SellAsset(t *testing.T) {
	f := newFixture(t)
	uc := f.assets()
	ctx := context.Background()
	f.addAsset("asset-1", domain.AssetInUse)

	out, err := uc.SellAsset(ctx, "asset-1", usecase.SellAssetInput{
		AccountID:   bankAccount,
		Currency:    "CNY",
		AmountCents: 250000,
		BizDate:     jan11,
		Buyer:       "Bob's Resale",
		Actor:       "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, "JZ20240111-001", out.VoucherNo)
	assert.Equal(t, int64(0), out.BalanceBeforeCents)
	assert.Equal(t, int64(250000), out.BalanceAfterCents)

	asset := f.store.Asset("asset-1")
	assert.Equal(t, domain.AssetSold, asset.Status)
	assert.Empty(t, asset.Custodian)
	require.NotNil(t, asset.SaleDate)
	assert.True(t, asset.SaleDate.Equal(jan11))
	require.NotNil(t, asset.SalePriceCents)
	assert.Equal(t, int64(250000), *asset.SalePriceCents)

	logs := f.store.ChangeLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, domain.ChangeTypeSale, logs[0].ChangeType)
	assert.True(t, logs[0].ChangeDate.Equal(jan11))
	assert.Equal(t, []domain.FieldChange{
		{Field: domain.FieldStatus, From: "in_use", To: "sold"},
		{Field: domain.FieldCustodian, From: "alice", To: ""},
	}, logs[0].Changes)
}

func TestAssetUseCase_SellAsset_AlreadySold(t *testing.T) {
	f := newFixture(t)
	uc := f.assets()
	ctx := context.Background()
	f.addAsset("asset-1", domain.AssetInUse)

	input := usecase.SellAssetInput{
		AccountID:   bankAccount,
		Currency:    "CNY",
		AmountCents: 250000,
		BizDate:     jan11,
	}

	_, err := uc.SellAsset(ctx, "asset-1", input)
	require.NoError(t, err)

	flows, snapshots, changeLogs := f.rowCounts()

	_, err = uc.SellAsset(ctx, "asset-1", input)
	require.ErrorIs(t, err, domain.ErrAssetAlreadySold)
	assert.Equal(t, domain.KindBusiness, domain.KindOf(err))

	flowsAfter, snapshotsAfter, changeLogsAfter := f.rowCounts()
	assert.Equal(t, flows, flowsAfter)
	assert.Equal(t, snapshots, snapshotsAfter)
	assert.Equal(t, changeLogs, changeLogsAfter)
}

func TestAssetUseCase_SellAsset_Errors(t *testing.T) {
	tests := []struct {
		name      string
		assetID   string
		status    domain.AssetStatus
		errorType error
	}{
		{name: "missing id", assetID: "", errorType: domain.ErrMissingEntity},
		{name: "unknown asset", assetID: "asset-missing", errorType: domain.ErrAssetNotFound},
		{name: "scrapped asset", assetID: "asset-1", status: domain.AssetScrapped, errorType: domain.ErrAssetNotSellable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.status != "" {
				f.addAsset("asset-1", tt.status)
			}

			_, err := f.assets().SellAsset(context.Background(), tt.assetID, usecase.SellAssetInput{
				AccountID:   bankAccount,
				Currency:    "CNY",
				AmountCents: 100,
				BizDate:     jan11,
			})

			require.ErrorIs(t, err, tt.errorType)
			assert.Empty(t, f.store.Flows())
		})
	}
}

// A sale that passed the pre-check but loses to a concurrent sale fails on
// the conditional update and leaves no ledger rows.
func TestAssetUseCase_SellAsset_ConcurrentSaleLoses(t *testing.T) {
	f := newFixture(t)
	f.addAsset("asset-1", domain.AssetInUse)

	f.store.BeforeFlowCreate = func(entry *domain.CashFlowEntry) {
		f.store.BeforeFlowCreate = nil
		sold := f.store.Asset("asset-1")
		sold.Status = domain.AssetSold
		f.store.AddAsset(sold)
	}

	_, err := f.assets().SellAsset(context.Background(), "asset-1", usecase.SellAssetInput{
		AccountID:   bankAccount,
		Currency:    "CNY",
		AmountCents: 100,
		BizDate:     jan11,
	})

	require.ErrorIs(t, err, domain.ErrAssetAlreadySold)
	assert.Empty(t, f.store.Flows())
	assert.Empty(t, f.store.Snapshots())
}

func TestAssetUseCase_MoveAsset(t *testing.T) {
	tests := []struct {
		name        string
		input       usecase.MoveAssetInput
		wantLog     bool
		wantChanges []domain.FieldChange
	}{
		{
			name:    "custodian and location bundled in one row",
			input:   usecase.MoveAssetInput{Custodian: strPtr("bob"), Location: strPtr("HQ-5F"), Actor: "admin"},
			wantLog: true,
			wantChanges: []domain.FieldChange{
				{Field: domain.FieldCustodian, From: "alice", To: "bob"},
				{Field: domain.FieldLocation, From: "HQ-3F", To: "HQ-5F"},
			},
		},
		{
			name:    "location only",
			input:   usecase.MoveAssetInput{Location: strPtr("Warehouse")},
			wantLog: true,
			wantChanges: []domain.FieldChange{
				{Field: domain.FieldLocation, From: "HQ-3F", To: "Warehouse"},
			},
		},
		{
			name:    "memo only writes no row",
			input:   usecase.MoveAssetInput{Memo: strPtr("sticker replaced")},
			wantLog: false,
		},
		{
			name:    "unchanged values write no row",
			input:   usecase.MoveAssetInput{Custodian: strPtr("alice"), Location: strPtr("HQ-3F")},
			wantLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.addAsset("asset-1", domain.AssetInUse)

			entry, err := f.assets().MoveAsset(context.Background(), "asset-1", tt.input)
			require.NoError(t, err)

			logs := f.store.ChangeLogs()
			if !tt.wantLog {
				assert.Nil(t, entry)
				assert.Empty(t, logs)
				return
			}

			require.NotNil(t, entry)
			require.Len(t, logs, 1)
			assert.Equal(t, domain.ChangeTypeMove, logs[0].ChangeType)
			assert.Equal(t, tt.wantChanges, logs[0].Changes)
		})
	}
}

func TestAssetUseCase_MoveAsset_MemoPersisted(t *testing.T) {
	f := newFixture(t)
	f.addAsset("asset-1", domain.AssetInUse)

	_, err := f.assets().MoveAsset(context.Background(), "asset-1", usecase.MoveAssetInput{Memo: strPtr("sticker replaced")})
	require.NoError(t, err)

	assert.Equal(t, "sticker replaced", f.store.Asset("asset-1").Memo)
	assert.Empty(t, f.store.Flows())
	assert.Empty(t, f.store.ChangeLogs(), "memo is not a tracked field")
}

func TestAssetUseCase_MoveAsset_SoldAsset(t *testing.T) {
	f := newFixture(t)
	f.addAsset("asset-1", domain.AssetSold)

	_, err := f.assets().MoveAsset(context.Background(), "asset-1", usecase.MoveAssetInput{Custodian: strPtr("bob")})

	require.ErrorIs(t, err, domain.ErrAssetNotMovable)
	assert.Empty(t, f.store.ChangeLogs())
}

func TestAssetUseCase_MoveAsset_ChangeLogFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.addAsset("asset-1", domain.AssetInUse)
	f.store.Fail("ChangeLogRepository.Create", domain.ErrDuplicate)

	_, err := f.assets().MoveAsset(context.Background(), "asset-1", usecase.MoveAssetInput{Custodian: strPtr("bob")})

	require.Error(t, err)
	assert.Equal(t, "alice", f.store.Asset("asset-1").Custodian)
}

func TestAssetUseCase_GetAssetAndHistory(t *testing.T) {
	f := newFixture(t)
	uc := f.assets()
	ctx := context.Background()

	out, err := uc.PurchaseAsset(ctx, usecase.PurchaseAssetInput{
		Name:        "Printer",
		AccountID:   cashAccount,
		Currency:    "CNY",
		AmountCents: 15000,
		BizDate:     jan10,
		Location:    "HQ-1F",
		Actor:       "admin",
	})
	require.NoError(t, err)

	_, err = uc.MoveAsset(ctx, out.AssetID, usecase.MoveAssetInput{Location: strPtr("HQ-2F"), Actor: "bob"})
	require.NoError(t, err)

	asset, err := uc.GetAsset(ctx, out.AssetID)
	require.NoError(t, err)
	assert.Equal(t, "HQ-2F", asset.Location)

	history, err := uc.History(ctx, out.AssetID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChangeTypePurchase, history[0].ChangeType)
	assert.Equal(t, "admin", history[0].CreatedBy)
	assert.Equal(t, domain.ChangeTypeMove, history[1].ChangeType)
	assert.Equal(t, "bob", history[1].CreatedBy)

	_, err = uc.GetAsset(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

package usecase

import (
	"context"
	"time"

	"github.com/iho/opsledger/internal/domain"
)

// AssetUseCase handles fixed asset purchase, sale and placement.
type AssetUseCase struct {
	engine        *PostingEngine
	txManager     TransactionManager
	assetRepo     AssetRepository
	changeLogRepo ChangeLogRepository
	idGen         IDGenerator
	clock         Clock
}

// NewAssetUseCase creates a new AssetUseCase.
func NewAssetUseCase(
	engine *PostingEngine,
	txManager TransactionManager,
	assetRepo AssetRepository,
	changeLogRepo ChangeLogRepository,
	idGen IDGenerator,
	clock Clock,
) *AssetUseCase {
	return &AssetUseCase{
		engine:        engine,
		txManager:     txManager,
		assetRepo:     assetRepo,
		changeLogRepo: changeLogRepo,
		idGen:         idGen,
		clock:         clock,
	}
}

// PurchaseAssetInput represents input for purchasing an asset.
type PurchaseAssetInput struct {
	Name        string
	CategoryID  string
	AccountID   string
	Currency    string
	AmountCents int64
	BizDate     time.Time
	Vendor      string
	Custodian   string
	Location    string
	Memo        string
	Actor       string
}

// PurchaseAssetOutput is the result of a purchase.
type PurchaseAssetOutput struct {
	AssetID            string
	FlowID             string
	VoucherNo          string
	BalanceBeforeCents int64
	BalanceAfterCents  int64
}

// PurchaseAsset pays for a new asset and registers it in one transaction.
func (uc *AssetUseCase) PurchaseAsset(ctx context.Context, input PurchaseAssetInput) (*PurchaseAssetOutput, error) {
	if err := domain.ValidateName("asset name", input.Name); err != nil {
		return nil, err
	}

	asset := &domain.FixedAsset{
		ID:                 uc.idGen.Generate(),
		Name:               input.Name,
		CategoryID:         input.CategoryID,
		Status:             domain.AssetInUse,
		Custodian:          input.Custodian,
		Location:           input.Location,
		Memo:               input.Memo,
		PurchaseDate:       domain.DateOf(input.BizDate),
		PurchasePriceCents: input.AmountCents,
	}

	result, err := uc.engine.Post(ctx, Operation{
		Kind:     OpPurchaseAsset,
		BizDate:  input.BizDate,
		Currency: input.Currency,
		Actor:    input.Actor,
		RefType:  domain.EntityAsset,
		RefID:    asset.ID,
		Legs: []Leg{{
			AccountID:    input.AccountID,
			Type:         domain.FlowExpense,
			AmountCents:  input.AmountCents,
			CategoryID:   input.CategoryID,
			Counterparty: input.Vendor,
			Memo:         input.Memo,
		}},
		Mutation: MutationFuncs{
			ApplyFunc: func(ctx context.Context, tx Transaction, entries []*domain.CashFlowEntry) (*ChangeInput, error) {
				asset.CreatedAt = entries[0].CreatedAt
				asset.UpdatedAt = entries[0].CreatedAt

				if err := uc.assetRepo.Create(ctx, tx, asset); err != nil {
					return nil, err
				}

				return &ChangeInput{
					EntityType: domain.EntityAsset,
					EntityID:   asset.ID,
					ChangeType: domain.ChangeTypePurchase,
					After:      asset,
					Memo:       input.Memo,
				}, nil
			},
		},
	})
	if err != nil {
		return nil, err
	}

	entry := result.Entries[0]

	return &PurchaseAssetOutput{
		AssetID:            asset.ID,
		FlowID:             entry.EntryID,
		VoucherNo:          entry.VoucherNo,
		BalanceBeforeCents: entry.BalanceBeforeCents,
		BalanceAfterCents:  entry.BalanceAfterCents,
	}, nil
}

// SellAssetInput represents input for selling an asset.
type SellAssetInput struct {
	AccountID   string
	Currency    string
	AmountCents int64
	BizDate     time.Time
	CategoryID  string
	Buyer       string
	Memo        string
	Actor       string
}

// SellAssetOutput is the result of a sale.
type SellAssetOutput struct {
	FlowID             string
	VoucherNo          string
	BalanceBeforeCents int64
	BalanceAfterCents  int64
}

// SellAsset receives the sale proceeds and marks the asset sold in one transaction.
func (uc *AssetUseCase) SellAsset(ctx context.Context, assetID string, input SellAssetInput) (*SellAssetOutput, error) {
	if assetID == "" {
		return nil, domain.ErrMissingEntity.Withf("asset id is required")
	}

	var current *domain.FixedAsset

	result, err := uc.engine.Post(ctx, Operation{
		Kind:     OpSellAsset,
		BizDate:  input.BizDate,
		Currency: input.Currency,
		Actor:    input.Actor,
		RefType:  domain.EntityAsset,
		RefID:    assetID,
		Legs: []Leg{{
			AccountID:    input.AccountID,
			Type:         domain.FlowIncome,
			AmountCents:  input.AmountCents,
			CategoryID:   input.CategoryID,
			Counterparty: input.Buyer,
			Memo:         input.Memo,
		}},
		Mutation: MutationFuncs{
			CheckFunc: func(ctx context.Context) error {
				asset, err := uc.assetRepo.GetByID(ctx, assetID)
				if err != nil {
					return err
				}
				if err := asset.CheckSellable(); err != nil {
					return err
				}
				current = asset
				return nil
			},
			ApplyFunc: func(ctx context.Context, tx Transaction, entries []*domain.CashFlowEntry) (*ChangeInput, error) {
				saleDate := entries[0].BizDate
				salePrice := input.AmountCents

				sold := current.Clone()
				sold.Status = domain.AssetSold
				sold.Custodian = ""
				sold.SaleDate = &saleDate
				sold.SalePriceCents = &salePrice
				sold.UpdatedAt = entries[0].CreatedAt

				// Conditional on the stored status, so a concurrent sale fails here.
				if err := uc.assetRepo.MarkSold(ctx, tx, sold); err != nil {
					return nil, err
				}

				return &ChangeInput{
					EntityType: domain.EntityAsset,
					EntityID:   assetID,
					ChangeType: domain.ChangeTypeSale,
					Before:     current,
					After:      sold,
					Memo:       input.Memo,
				}, nil
			},
		},
	})
	if err != nil {
		return nil, err
	}

	entry := result.Entries[0]

	return &SellAssetOutput{
		FlowID:             entry.EntryID,
		VoucherNo:          entry.VoucherNo,
		BalanceBeforeCents: entry.BalanceBeforeCents,
		BalanceAfterCents:  entry.BalanceAfterCents,
	}, nil
}

// MoveAssetInput changes an asset's placement. Nil fields are left unchanged.
type MoveAssetInput struct {
	Custodian  *string
	Location   *string
	Memo       *string
	ChangeDate time.Time
	Actor      string
}

// MoveAsset updates custodian, location or memo without moving cash. A change
// log row is written only when custodian or location actually changed; the
// returned entry is nil otherwise.
func (uc *AssetUseCase) MoveAsset(ctx context.Context, assetID string, input MoveAssetInput) (*domain.ChangeLogEntry, error) {
	if assetID == "" {
		return nil, domain.ErrMissingEntity.Withf("asset id is required")
	}

	if input.Memo != nil {
		if err := domain.ValidateMemo(*input.Memo); err != nil {
			return nil, err
		}
	}

	current, err := uc.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	if err := current.CheckMovable(); err != nil {
		return nil, err
	}

	now := uc.clock.Now().UTC().Truncate(time.Microsecond)

	moved := current.Clone()
	if input.Custodian != nil {
		moved.Custodian = *input.Custodian
	}
	if input.Location != nil {
		moved.Location = *input.Location
	}
	if input.Memo != nil {
		moved.Memo = *input.Memo
	}
	moved.UpdatedAt = now

	memo := ""
	if input.Memo != nil {
		memo = *input.Memo
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	var entry *domain.ChangeLogEntry

	err = withTx(ctx, uc.txManager, func(tx Transaction) error {
		if err := uc.assetRepo.UpdatePlacement(ctx, tx, moved); err != nil {
			return err
		}

		var err error
		entry, err = RecordChange(ctx, tx, uc.changeLogRepo, uc.idGen, now, ChangeInput{
			EntityType: domain.EntityAsset,
			EntityID:   assetID,
			ChangeType: domain.ChangeTypeMove,
			ChangeDate: input.ChangeDate,
			Before:     current,
			After:      moved,
			Actor:      input.Actor,
			Memo:       memo,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetAsset returns an asset by ID.
func (uc *AssetUseCase) GetAsset(ctx context.Context, assetID string) (*domain.FixedAsset, error) {
	return uc.assetRepo.GetByID(ctx, assetID)
}

// History returns an asset's change log, oldest first.
func (uc *AssetUseCase) History(ctx context.Context, assetID string) ([]*domain.ChangeLogEntry, error) {
	return uc.changeLogRepo.ListByEntity(ctx, domain.EntityAsset, assetID)
}

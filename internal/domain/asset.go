package domain

import (
	"time"
)

// AssetStatus is the lifecycle state of a fixed asset.
type AssetStatus string

const (
	AssetInUse    AssetStatus = "in_use"
	AssetIdle     AssetStatus = "idle"
	AssetSold     AssetStatus = "sold"
	AssetScrapped AssetStatus = "scrapped"
)

// Terminal reports whether no further sale or move is possible.
func (s AssetStatus) Terminal() bool {
	return s == AssetSold || s == AssetScrapped
}

// EntityAsset is the entity type recorded on asset change logs and ledger refs.
const EntityAsset = "fixed_asset"

// FixedAsset is a purchased asset tracked through its lifecycle.
type FixedAsset struct {
	ID                 string
	Name               string
	CategoryID         string
	Status             AssetStatus
	Custodian          string
	Location           string
	Memo               string
	PurchaseDate       time.Time
	PurchasePriceCents int64
	SaleDate           *time.Time
	SalePriceCents     *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TrackedState implements Trackable.
func (a *FixedAsset) TrackedState() TrackedState {
	if a == nil {
		return TrackedState{}
	}
	return TrackedState{Status: string(a.Status), Custodian: a.Custodian, Location: a.Location}
}

// CheckSellable verifies the asset can be sold.
func (a *FixedAsset) CheckSellable() error {
	switch a.Status {
	case AssetSold:
		return ErrAssetAlreadySold.Withf("asset %s is already sold", a.ID)
	case AssetScrapped:
		return ErrAssetNotSellable.Withf("asset %s is scrapped", a.ID)
	}
	return nil
}

// CheckMovable verifies the asset's custodian or location can change.
func (a *FixedAsset) CheckMovable() error {
	if a.Status.Terminal() {
		return ErrAssetNotMovable.Withf("asset %s is %s", a.ID, a.Status)
	}
	return nil
}

// Clone returns a copy safe to mutate.
func (a *FixedAsset) Clone() *FixedAsset {
	cp := *a
	return &cp
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// AssetRepository implements usecase.AssetRepository.
type AssetRepository struct {
	pool DB
}

// NewAssetRepository creates a new AssetRepository.
func NewAssetRepository(pool DB) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// Create inserts a new asset.
func (r *AssetRepository) Create(ctx context.Context, tx usecase.Transaction, asset *domain.FixedAsset) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO fixed_assets (
			id, name, category_id, status, custodian, location, memo,
			purchase_date, purchase_price_cents, sale_date, sale_price_cents, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = pgxTx.Exec(ctx, query,
		asset.ID,
		asset.Name,
		asset.CategoryID,
		string(asset.Status),
		asset.Custodian,
		asset.Location,
		asset.Memo,
		asset.PurchaseDate,
		asset.PurchasePriceCents,
		asset.SaleDate,
		asset.SalePriceCents,
		asset.CreatedAt,
		asset.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves an asset by ID.
func (r *AssetRepository) GetByID(ctx context.Context, id string) (*domain.FixedAsset, error) {
	query := `
		SELECT id, name, category_id, status, custodian, location, memo,
		       purchase_date, purchase_price_cents, sale_date, sale_price_cents, created_at, updated_at
		FROM fixed_assets
		WHERE id = $1
	`

	var asset domain.FixedAsset
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&asset.ID,
		&asset.Name,
		&asset.CategoryID,
		&status,
		&asset.Custodian,
		&asset.Location,
		&asset.Memo,
		&asset.PurchaseDate,
		&asset.PurchasePriceCents,
		&asset.SaleDate,
		&asset.SalePriceCents,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAssetNotFound.Withf("asset %s not found", id)
		}
		return nil, err
	}
	asset.Status = domain.AssetStatus(status)

	return &asset, nil
}

// MarkSold records the sale. The update only matches an asset that is not
// already sold or scrapped; a concurrent sale leaves zero rows and fails.
func (r *AssetRepository) MarkSold(ctx context.Context, tx usecase.Transaction, asset *domain.FixedAsset) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE fixed_assets
		SET status = $2, custodian = $3, sale_date = $4, sale_price_cents = $5, updated_at = $6
		WHERE id = $1 AND status NOT IN ('sold', 'scrapped')
	`

	tag, err := pgxTx.Exec(ctx, query,
		asset.ID,
		string(domain.AssetSold),
		asset.Custodian,
		asset.SaleDate,
		asset.SalePriceCents,
		asset.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAssetAlreadySold.Withf("asset %s is no longer sellable", asset.ID)
	}

	return nil
}

// UpdatePlacement changes custodian, location and memo of an asset that is
// still in service.
func (r *AssetRepository) UpdatePlacement(ctx context.Context, tx usecase.Transaction, asset *domain.FixedAsset) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE fixed_assets
		SET custodian = $2, location = $3, memo = $4, updated_at = $5
		WHERE id = $1 AND status NOT IN ('sold', 'scrapped')
	`

	tag, err := pgxTx.Exec(ctx, query,
		asset.ID,
		asset.Custodian,
		asset.Location,
		asset.Memo,
		asset.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAssetNotMovable.Withf("asset %s is no longer in service", asset.ID)
	}

	return nil
}

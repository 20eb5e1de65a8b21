package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// RentalRepository implements usecase.RentalRepository.
type RentalRepository struct {
	pool DB
}

// NewRentalRepository creates a new RentalRepository.
func NewRentalRepository(pool DB) *RentalRepository {
	return &RentalRepository{pool: pool}
}

// GetProperty retrieves a rental property by ID.
func (r *RentalRepository) GetProperty(ctx context.Context, id string) (*domain.RentalProperty, error) {
	query := `
		SELECT id, name, status, landlord, occupant, location, monthly_rent_cents,
		       last_paid_period, created_at, updated_at
		FROM rental_properties
		WHERE id = $1
	`

	var p domain.RentalProperty
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&status,
		&p.Landlord,
		&p.Occupant,
		&p.Location,
		&p.MonthlyRentCents,
		&p.LastPaidPeriod,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPropertyNotFound.Withf("property %s not found", id)
		}
		return nil, err
	}
	p.Status = domain.PropertyStatus(status)

	return &p, nil
}

// PaymentExists reports whether rent for the period was already paid.
func (r *RentalRepository) PaymentExists(ctx context.Context, propertyID string, period domain.RentPeriod) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM rent_payments WHERE property_id = $1 AND year = $2 AND month = $3
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, propertyID, period.Year, period.Month).Scan(&exists)
	return exists, err
}

// CreatePayment records a rent payment. A second payment for the same
// property and period fails with domain.ErrDuplicateRentPayment.
func (r *RentalRepository) CreatePayment(ctx context.Context, tx usecase.Transaction, payment *domain.RentPayment) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rent_payments (id, property_id, year, month, amount_cents, flow_id, paid_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = pgxTx.Exec(ctx, query,
		payment.ID,
		payment.PropertyID,
		payment.Period.Year,
		payment.Period.Month,
		payment.AmountCents,
		payment.FlowID,
		payment.PaidAt,
		payment.CreatedBy,
	)

	return mapError(err)
}

// UpdateLastPaid advances the property's last paid period. An older period
// never moves it backwards.
func (r *RentalRepository) UpdateLastPaid(ctx context.Context, tx usecase.Transaction, property *domain.RentalProperty) error {
	pgxTx, err := mustTx(tx)
	if err != nil {
		return err
	}

	query := `
		UPDATE rental_properties
		SET last_paid_period = GREATEST(last_paid_period, $2), updated_at = $3
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, property.ID, property.LastPaidPeriod, property.UpdatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrPropertyNotFound.Withf("property %s not found", property.ID)
	}

	return nil
}

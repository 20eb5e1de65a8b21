package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/opsledger/internal/domain"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation      = "23505"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// Unique constraints declared in migrations.
const (
	constraintVoucherNo    = "cash_flow_entries_biz_date_voucher_no_key"
	constraintSnapshotFlow = "account_transactions_flow_id_key"
	constraintRentPeriod   = "rent_payments_property_id_year_month_key"
	constraintCompanyEmail = "employees_company_email_key"
)

// mapError translates unique violations into domain errors. Other errors
// are returned unchanged so the retrier can still classify them.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgErrUniqueViolation {
		return err
	}

	switch pgErr.ConstraintName {
	case constraintVoucherNo:
		return domain.ErrVoucherConflict.Wrap(err)
	case constraintSnapshotFlow:
		return domain.ErrDuplicateSnapshot.Wrap(err)
	case constraintRentPeriod:
		return domain.ErrDuplicateRentPayment.Wrap(err)
	case constraintCompanyEmail:
		return domain.ErrDuplicateCompanyEmail.Wrap(err)
	}

	return domain.ErrDuplicate.Withf("%s violates %s", pgErr.TableName, pgErr.ConstraintName).Wrap(err)
}

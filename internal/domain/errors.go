package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable error category exposed to callers.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindBusiness   Kind = "BUSINESS_ERROR"
	KindDuplicate  Kind = "DUPLICATE"
	KindInternal   Kind = "INTERNAL"
)

// Error is a typed domain error. Two errors match under errors.Is when they
// share kind and reason, so sentinels can be re-messaged without losing identity.
type Error struct {
	kind    Kind
	reason  string
	message string
	cause   error
}

// NewError creates a typed error.
func NewError(kind Kind, reason, message string) *Error {
	return &Error{kind: kind, reason: reason, message: message}
}

// WrapError creates a typed error carrying cause.
func WrapError(kind Kind, cause error, reason, message string) *Error {
	return &Error{kind: kind, reason: reason, message: message, cause: cause}
}

func (e *Error) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *Error) Reason() string {
	if e == nil {
		return ""
	}
	return e.reason
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches on kind and reason.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.kind == t.kind && e.reason == t.reason
}

// Withf returns a copy with a more specific message.
func (e *Error) Withf(format string, args ...any) *Error {
	cp := *e
	cp.message = fmt.Sprintf(format, args...)
	return &cp
}

// Wrap returns a copy carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// KindOf returns the kind of the first typed error in the chain, INTERNAL otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind()
	}
	return KindInternal
}

// AsError returns the first typed error in the chain.
func AsError(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return nil
}

var (
	// Validation errors
	ErrInvalidInput       = NewError(KindValidation, "invalid_input", "invalid input")
	ErrInvalidAmount      = NewError(KindValidation, "invalid_amount", "amount must be positive")
	ErrInvalidBizDate     = NewError(KindValidation, "invalid_biz_date", "business date is required")
	ErrInvalidFlowType    = NewError(KindValidation, "invalid_flow_type", "flow type must be income or expense")
	ErrMissingAccount     = NewError(KindValidation, "missing_account", "account is required")
	ErrMissingDestination = NewError(KindValidation, "missing_destination", "transfer destination is required")
	ErrSameAccount        = NewError(KindValidation, "same_account", "cannot transfer to same account")
	ErrInvalidPeriod      = NewError(KindValidation, "invalid_period", "invalid rent period")
	ErrNoLegs             = NewError(KindValidation, "no_legs", "posting has no ledger legs")
	ErrTooManyExternal    = NewError(KindValidation, "too_many_external_steps", "too many external steps")
	ErrCannotDeriveEmail  = NewError(KindValidation, "cannot_derive_email", "cannot derive company email from name")
	ErrMissingEntity      = NewError(KindValidation, "missing_entity", "business entity reference is required")

	// Not found errors
	ErrAccountNotFound    = NewError(KindNotFound, "account_not_found", "account not found")
	ErrAssetNotFound      = NewError(KindNotFound, "asset_not_found", "asset not found")
	ErrPropertyNotFound   = NewError(KindNotFound, "property_not_found", "rental property not found")
	ErrBillNotFound       = NewError(KindNotFound, "bill_not_found", "bill not found")
	ErrDepartmentNotFound = NewError(KindNotFound, "department_not_found", "department not found")
	ErrEmployeeNotFound   = NewError(KindNotFound, "employee_not_found", "employee not found")

	// Business errors
	ErrAccountInactive     = NewError(KindBusiness, "account_inactive", "account is inactive")
	ErrCurrencyMismatch    = NewError(KindBusiness, "currency_mismatch", "currency does not match account currency")
	ErrInsufficientBalance = NewError(KindBusiness, "insufficient_balance", "insufficient account balance")
	ErrAssetAlreadySold    = NewError(KindBusiness, "asset_already_sold", "asset is already sold")
	ErrAssetNotSellable    = NewError(KindBusiness, "asset_not_sellable", "asset cannot be sold in its current status")
	ErrAssetNotMovable     = NewError(KindBusiness, "asset_not_movable", "asset cannot be moved in its current status")
	ErrBillAlreadyPaid     = NewError(KindBusiness, "bill_already_paid", "bill is already paid")
	ErrPropertyTerminated  = NewError(KindBusiness, "property_terminated", "rental property lease is terminated")

	// Duplicate errors
	ErrDuplicateRentPayment  = NewError(KindDuplicate, "duplicate_rent_payment", "rent for this period is already paid")
	ErrDuplicateCompanyEmail = NewError(KindDuplicate, "duplicate_company_email", "company email is already taken")
	ErrDuplicateSnapshot     = NewError(KindDuplicate, "duplicate_snapshot", "ledger entry already has a balance snapshot")
	ErrDuplicate             = NewError(KindDuplicate, "unique_violation", "record already exists")

	// Internal errors
	ErrVoucherConflict    = NewError(KindInternal, "voucher_conflict", "voucher number already allocated")
	ErrSequenceContention = NewError(KindInternal, "sequence_contention", "voucher sequence contention: retries exhausted")
)

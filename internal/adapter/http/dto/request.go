package dto

import (
	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// PurchaseAssetRequest represents a request to buy a fixed asset.
type PurchaseAssetRequest struct {
	Name       string `json:"name"        validate:"required,max=200"`
	CategoryID string `json:"category_id" validate:"required"`
	AccountID  string `json:"account_id"  validate:"required"`
	Currency   string `json:"currency"    validate:"required,len=3"`
	Amount     string `json:"amount"      validate:"required"`
	BizDate    string `json:"biz_date"    validate:"required,datetime=2006-01-02"`
	Vendor     string `json:"vendor,omitempty"`
	Custodian  string `json:"custodian,omitempty"`
	Location   string `json:"location,omitempty"`
	Memo       string `json:"memo,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PurchaseAssetRequest) ToUseCaseInput(actor string) (usecase.PurchaseAssetInput, error) {
	amount, err := ParseCents(r.Amount)
	if err != nil {
		return usecase.PurchaseAssetInput{}, err
	}
	bizDate, err := ParseDate(r.BizDate)
	if err != nil {
		return usecase.PurchaseAssetInput{}, err
	}

	return usecase.PurchaseAssetInput{
		Name:        r.Name,
		CategoryID:  r.CategoryID,
		AccountID:   r.AccountID,
		Currency:    r.Currency,
		AmountCents: amount,
		BizDate:     bizDate,
		Vendor:      r.Vendor,
		Custodian:   r.Custodian,
		Location:    r.Location,
		Memo:        r.Memo,
		Actor:       actor,
	}, nil
}

// SellAssetRequest represents a request to sell a fixed asset.
type SellAssetRequest struct {
	AccountID  string `json:"account_id"  validate:"required"`
	Currency   string `json:"currency"    validate:"required,len=3"`
	Amount     string `json:"amount"      validate:"required"`
	BizDate    string `json:"biz_date"    validate:"required,datetime=2006-01-02"`
	CategoryID string `json:"category_id,omitempty"`
	Buyer      string `json:"buyer,omitempty"`
	Memo       string `json:"memo,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *SellAssetRequest) ToUseCaseInput(actor string) (usecase.SellAssetInput, error) {
	amount, err := ParseCents(r.Amount)
	if err != nil {
		return usecase.SellAssetInput{}, err
	}
	bizDate, err := ParseDate(r.BizDate)
	if err != nil {
		return usecase.SellAssetInput{}, err
	}

	return usecase.SellAssetInput{
		AccountID:   r.AccountID,
		Currency:    r.Currency,
		AmountCents: amount,
		BizDate:     bizDate,
		CategoryID:  r.CategoryID,
		Buyer:       r.Buyer,
		Memo:        r.Memo,
		Actor:       actor,
	}, nil
}

// MoveAssetRequest changes where an asset is and who holds it. Omitted
// fields are left unchanged.
type MoveAssetRequest struct {
	Custodian  *string `json:"custodian,omitempty"`
	Location   *string `json:"location,omitempty"`
	Memo       *string `json:"memo,omitempty"`
	ChangeDate string  `json:"change_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ToUseCaseInput converts to use case input.
func (r *MoveAssetRequest) ToUseCaseInput(actor string) (usecase.MoveAssetInput, error) {
	changeDate, err := ParseDate(r.ChangeDate)
	if err != nil {
		return usecase.MoveAssetInput{}, err
	}

	return usecase.MoveAssetInput{
		Custodian:  r.Custodian,
		Location:   r.Location,
		Memo:       r.Memo,
		ChangeDate: changeDate,
		Actor:      actor,
	}, nil
}

// PayRentRequest represents a monthly rent payment. An empty amount means
// the property's monthly rent.
type PayRentRequest struct {
	PropertyID string `json:"property_id" validate:"required"`
	AccountID  string `json:"account_id"  validate:"required"`
	Currency   string `json:"currency"    validate:"required,len=3"`
	Year       int    `json:"year"        validate:"required,min=1900,max=9999"`
	Month      int    `json:"month"       validate:"required,min=1,max=12"`
	Amount     string `json:"amount,omitempty"`
	BizDate    string `json:"biz_date"    validate:"required,datetime=2006-01-02"`
	CategoryID string `json:"category_id,omitempty"`
	Memo       string `json:"memo,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PayRentRequest) ToUseCaseInput(actor string) (usecase.PayRentInput, error) {
	amount, err := ParseOptionalCents(r.Amount)
	if err != nil {
		return usecase.PayRentInput{}, err
	}
	bizDate, err := ParseDate(r.BizDate)
	if err != nil {
		return usecase.PayRentInput{}, err
	}

	return usecase.PayRentInput{
		PropertyID:  r.PropertyID,
		AccountID:   r.AccountID,
		Currency:    r.Currency,
		Year:        r.Year,
		Month:       r.Month,
		AmountCents: amount,
		BizDate:     bizDate,
		CategoryID:  r.CategoryID,
		Memo:        r.Memo,
		Actor:       actor,
	}, nil
}

// PayBillRequest represents payment of a payable bill.
type PayBillRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	BizDate   string `json:"biz_date"   validate:"required,datetime=2006-01-02"`
	Memo      string `json:"memo,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PayBillRequest) ToUseCaseInput(actor string) (usecase.PayBillInput, error) {
	bizDate, err := ParseDate(r.BizDate)
	if err != nil {
		return usecase.PayBillInput{}, err
	}

	return usecase.PayBillInput{
		AccountID: r.AccountID,
		BizDate:   bizDate,
		Memo:      r.Memo,
		Actor:     actor,
	}, nil
}

// TransferRequest represents a transfer between two accounts.
type TransferRequest struct {
	FromAccountID string `json:"from_account_id" validate:"required"`
	ToAccountID   string `json:"to_account_id"   validate:"required"`
	Currency      string `json:"currency"        validate:"required,len=3"`
	Amount        string `json:"amount"          validate:"required"`
	BizDate       string `json:"biz_date"        validate:"required,datetime=2006-01-02"`
	CategoryID    string `json:"category_id,omitempty"`
	Memo          string `json:"memo,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput(actor string) (usecase.TransferInput, error) {
	amount, err := ParseCents(r.Amount)
	if err != nil {
		return usecase.TransferInput{}, err
	}
	bizDate, err := ParseDate(r.BizDate)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		AmountCents:   amount,
		Currency:      r.Currency,
		BizDate:       bizDate,
		CategoryID:    r.CategoryID,
		Memo:          r.Memo,
		Actor:         actor,
	}, nil
}

// CreateEmployeeRequest represents onboarding of a new employee.
type CreateEmployeeRequest struct {
	FirstName       string `json:"first_name"       validate:"required,max=100"`
	LastName        string `json:"last_name"        validate:"required,max=100"`
	PersonalEmail   string `json:"personal_email"   validate:"required,email"`
	DepartmentID    string `json:"department_id"    validate:"required"`
	Position        string `json:"position,omitempty"`
	InitialPassword string `json:"initial_password" validate:"required,min=8"`
	Role            string `json:"role,omitempty"   validate:"omitempty,oneof=admin operator viewer"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEmployeeRequest) ToUseCaseInput(actor string) usecase.CreateEmployeeInput {
	return usecase.CreateEmployeeInput{
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		PersonalEmail:   r.PersonalEmail,
		DepartmentID:    r.DepartmentID,
		Position:        r.Position,
		InitialPassword: r.InitialPassword,
		Role:            domain.Role(r.Role),
		Actor:           actor,
	}
}

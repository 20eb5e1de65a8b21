package dto

import (
	"time"

	"github.com/iho/opsledger/internal/domain"
	"github.com/iho/opsledger/internal/usecase"
)

// PostingResponse is the ledger side of a posted operation.
type PostingResponse struct {
	FlowID        string `json:"flow_id"`
	VoucherNo     string `json:"voucher_no"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
}

func newPosting(flowID, voucherNo string, before, after int64) PostingResponse {
	return PostingResponse{
		FlowID:        flowID,
		VoucherNo:     voucherNo,
		BalanceBefore: FormatCents(before),
		BalanceAfter:  FormatCents(after),
	}
}

// PurchaseAssetResponse is returned after an asset purchase.
type PurchaseAssetResponse struct {
	AssetID string `json:"asset_id"`
	PostingResponse
}

// PurchaseAssetFromOutput converts use case output to response.
func PurchaseAssetFromOutput(out *usecase.PurchaseAssetOutput) *PurchaseAssetResponse {
	return &PurchaseAssetResponse{
		AssetID:         out.AssetID,
		PostingResponse: newPosting(out.FlowID, out.VoucherNo, out.BalanceBeforeCents, out.BalanceAfterCents),
	}
}

// AssetResponse represents a fixed asset in API responses.
type AssetResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CategoryID    string    `json:"category_id"`
	Status        string    `json:"status"`
	Custodian     string    `json:"custodian,omitempty"`
	Location      string    `json:"location,omitempty"`
	Memo          string    `json:"memo,omitempty"`
	PurchaseDate  string    `json:"purchase_date"`
	PurchasePrice string    `json:"purchase_price"`
	SaleDate      string    `json:"sale_date,omitempty"`
	SalePrice     string    `json:"sale_price,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AssetFromDomain converts a domain asset to response.
func AssetFromDomain(a *domain.FixedAsset) *AssetResponse {
	resp := &AssetResponse{
		ID:            a.ID,
		Name:          a.Name,
		CategoryID:    a.CategoryID,
		Status:        string(a.Status),
		Custodian:     a.Custodian,
		Location:      a.Location,
		Memo:          a.Memo,
		PurchaseDate:  FormatDate(a.PurchaseDate),
		PurchasePrice: FormatCents(a.PurchasePriceCents),
		UpdatedAt:     a.UpdatedAt,
	}
	if a.SaleDate != nil {
		resp.SaleDate = FormatDate(*a.SaleDate)
	}
	if a.SalePriceCents != nil {
		resp.SalePrice = FormatCents(*a.SalePriceCents)
	}
	return resp
}

// SellAssetFromOutput converts use case output to response.
func SellAssetFromOutput(out *usecase.SellAssetOutput) *PostingResponse {
	resp := newPosting(out.FlowID, out.VoucherNo, out.BalanceBeforeCents, out.BalanceAfterCents)
	return &resp
}

// PayRentResponse is returned after a rent payment.
type PayRentResponse struct {
	PaymentID string `json:"payment_id"`
	PostingResponse
}

// PayRentFromOutput converts use case output to response.
func PayRentFromOutput(out *usecase.PayRentOutput) *PayRentResponse {
	return &PayRentResponse{
		PaymentID:       out.PaymentID,
		PostingResponse: newPosting(out.FlowID, out.VoucherNo, out.BalanceBeforeCents, out.BalanceAfterCents),
	}
}

// PayBillFromOutput converts use case output to response.
func PayBillFromOutput(out *usecase.PayBillOutput) *PostingResponse {
	resp := newPosting(out.FlowID, out.VoucherNo, out.BalanceBeforeCents, out.BalanceAfterCents)
	return &resp
}

// EntryResponse is one leg of a multi-leg posting.
type EntryResponse struct {
	FlowID        string `json:"flow_id"`
	AccountID     string `json:"account_id"`
	VoucherNo     string `json:"voucher_no"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
}

// TransferResponse is returned after a transfer.
type TransferResponse struct {
	TransferID string          `json:"transfer_id"`
	Entries    []EntryResponse `json:"entries"`
}

// TransferFromOutput converts use case output to response.
func TransferFromOutput(out *usecase.TransferOutput) *TransferResponse {
	entries := make([]EntryResponse, len(out.Entries))
	for i, e := range out.Entries {
		entries[i] = EntryResponse{
			FlowID:        e.EntryID,
			AccountID:     e.AccountID,
			VoucherNo:     e.VoucherNo,
			BalanceBefore: FormatCents(e.BalanceBeforeCents),
			BalanceAfter:  FormatCents(e.BalanceAfterCents),
		}
	}
	return &TransferResponse{TransferID: out.TransferID, Entries: entries}
}

// EmployeeResponse is returned after onboarding.
type EmployeeResponse struct {
	EmployeeID     string `json:"employee_id"`
	UserID         string `json:"user_id"`
	CompanyEmail   string `json:"company_email"`
	RoutingCreated bool   `json:"routing_created"`
}

// EmployeeFromOutput converts use case output to response.
func EmployeeFromOutput(out *usecase.CreateEmployeeOutput) *EmployeeResponse {
	return &EmployeeResponse{
		EmployeeID:     out.EmployeeID,
		UserID:         out.UserID,
		CompanyEmail:   out.CompanyEmail,
		RoutingCreated: out.RoutingCreated,
	}
}

// FieldChangeResponse is one changed field of a change log row.
type FieldChangeResponse struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// ChangeLogResponse represents a change log row.
type ChangeLogResponse struct {
	ID         string                `json:"id"`
	EntityType string                `json:"entity_type"`
	EntityID   string                `json:"entity_id"`
	ChangeType string                `json:"change_type"`
	ChangeDate string                `json:"change_date"`
	Changes    []FieldChangeResponse `json:"changes"`
	Memo       string                `json:"memo,omitempty"`
	CreatedBy  string                `json:"created_by"`
	CreatedAt  time.Time             `json:"created_at"`
}

// ChangeLogFromDomain converts a domain change log row to response.
func ChangeLogFromDomain(e *domain.ChangeLogEntry) *ChangeLogResponse {
	changes := make([]FieldChangeResponse, len(e.Changes))
	for i, c := range e.Changes {
		changes[i] = FieldChangeResponse{Field: c.Field, From: c.From, To: c.To}
	}
	return &ChangeLogResponse{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ChangeType: string(e.ChangeType),
		ChangeDate: FormatDate(e.ChangeDate),
		Changes:    changes,
		Memo:       e.Memo,
		CreatedBy:  e.CreatedBy,
		CreatedAt:  e.CreatedAt,
	}
}

// ChangeLogsFromDomain converts domain change log rows to responses.
func ChangeLogsFromDomain(entries []*domain.ChangeLogEntry) []*ChangeLogResponse {
	result := make([]*ChangeLogResponse, len(entries))
	for i, e := range entries {
		result[i] = ChangeLogFromDomain(e)
	}
	return result
}

// BalanceResponse is an account balance at the end of a business date.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Currency  string `json:"currency"`
	AsOf      string `json:"as_of"`
	Balance   string `json:"balance"`
}

// BalanceFromUseCase converts a use case balance to response.
func BalanceFromUseCase(b *usecase.AccountBalance) *BalanceResponse {
	return &BalanceResponse{
		AccountID: b.AccountID,
		Currency:  b.Currency,
		AsOf:      FormatDate(b.AsOf),
		Balance:   FormatCents(b.BalanceCents),
	}
}

// StaleSnapshotResponse is a snapshot whose stored balances disagree with the replay.
type StaleSnapshotResponse struct {
	SnapshotID     string `json:"snapshot_id"`
	FlowID         string `json:"flow_id"`
	Date           string `json:"transaction_date"`
	StoredBefore   string `json:"stored_before"`
	ExpectedBefore string `json:"expected_before"`
	StoredAfter    string `json:"stored_after"`
	ExpectedAfter  string `json:"expected_after"`
	Inconsistent   bool   `json:"inconsistent"`
}

// VerifyResponse reports a snapshot verification run.
type VerifyResponse struct {
	AccountID    string                  `json:"account_id"`
	Checked      int                     `json:"checked"`
	Balance      string                  `json:"balance"`
	IsReconciled bool                    `json:"is_reconciled"`
	Stale        []StaleSnapshotResponse `json:"stale"`
	CheckedAt    time.Time               `json:"checked_at"`
}

// VerifyFromResult converts a reconciliation result to response.
func VerifyFromResult(r *usecase.ReconciliationResult) *VerifyResponse {
	stale := make([]StaleSnapshotResponse, len(r.Stale))
	for i, s := range r.Stale {
		stale[i] = StaleSnapshotResponse{
			SnapshotID:     s.SnapshotID,
			FlowID:         s.FlowID,
			Date:           FormatDate(s.TransactionDate),
			StoredBefore:   FormatCents(s.StoredBeforeCents),
			ExpectedBefore: FormatCents(s.ExpectedBeforeCents),
			StoredAfter:    FormatCents(s.StoredAfterCents),
			ExpectedAfter:  FormatCents(s.ExpectedAfterCents),
			Inconsistent:   s.Inconsistent,
		}
	}
	return &VerifyResponse{
		AccountID:    r.AccountID,
		Checked:      r.Checked,
		Balance:      FormatCents(r.BalanceCents),
		IsReconciled: r.IsReconciled,
		Stale:        stale,
		CheckedAt:    r.LastChecked,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

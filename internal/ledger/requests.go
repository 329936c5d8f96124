package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Details are the optional descriptive fields of a ledger entry.
type Details struct {
	BillDate      *time.Time
	PaidDate      *time.Time
	PaidAmount    decimal.NullDecimal
	ActualAmount  decimal.NullDecimal
	CategoryID    string
	SubcategoryID string
	MethodID      string
	Tags          string
	Description   string
	ReferenceID   string
	Notes         string
}

// CreateRequest is either an EntryRequest or a TransferRequest.
type CreateRequest interface {
	createRequest()
}

// EntryRequest describes one ledger entry. It is the payload of Create for
// ordinary transactions and of Update.
type EntryRequest struct {
	// FinID is the correlation id to use on Create. Empty means generate one.
	// Update keeps the stored correlation id and ignores this field.
	FinID       string
	FinanceType models.FinanceType
	Flow        models.Flow
	AccountID   string
	Amount      decimal.Decimal
	Details
}

// TransferRequest moves Amount from SourceAccountID to TargetAccountID as two
// entries sharing one correlation id.
type TransferRequest struct {
	FinID           string
	SourceAccountID string
	TargetAccountID string
	Amount          decimal.Decimal
	Details
}

func (EntryRequest) createRequest()    {}
func (TransferRequest) createRequest() {}

func (r EntryRequest) validate(op string) error {
	if r.FinanceType == "" {
		return validationError(op, "finance_type", "finance_type is required")
	}
	if !r.FinanceType.Valid() {
		return validationError(op, "finance_type", "unknown finance_type "+string(r.FinanceType))
	}
	if err := checkAmount(op, r.Amount); err != nil {
		return err
	}
	if r.Flow == "" {
		return validationError(op, "flow", "flow is required")
	}
	if !r.Flow.Valid() {
		return validationError(op, "flow", "flow must be debit or credit")
	}
	if strings.TrimSpace(r.AccountID) == "" {
		return validationError(op, "account_id", "account_id is required")
	}
	return r.Details.validate(op)
}

func (r TransferRequest) validate(op string) error {
	if strings.TrimSpace(r.SourceAccountID) == "" {
		return validationError(op, "source_account_id", "source_account_id is required")
	}
	if strings.TrimSpace(r.TargetAccountID) == "" {
		return validationError(op, "target_account_id", "target_account_id is required")
	}
	if r.SourceAccountID == r.TargetAccountID {
		return validationError(op, "target_account_id", "source and target accounts must differ")
	}
	if err := checkAmount(op, r.Amount); err != nil {
		return err
	}
	return r.Details.validate(op)
}

func (d Details) validate(op string) error {
	if d.PaidAmount.Valid && !models.FitsScale(d.PaidAmount.Decimal) {
		return scaleError(op, "paid_amount")
	}
	if d.ActualAmount.Valid && !models.FitsScale(d.ActualAmount.Decimal) {
		return scaleError(op, "actual_amount")
	}
	return nil
}

func checkAmount(op string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return validationError(op, "amount", "amount must be greater than zero")
	}
	if !models.FitsScale(amount) {
		return scaleError(op, "amount")
	}
	return nil
}

func scaleError(op, field string) error {
	return validationError(op, field, fmt.Sprintf("%s has more than %d decimal places", field, models.MoneyScale))
}

// Legs splits the transfer into its debit leg on the source account and its
// credit leg on the target account.
func (r TransferRequest) Legs() (debit, credit EntryRequest) {
	debit = EntryRequest{
		FinID:       r.FinID,
		FinanceType: models.FinanceTransfer,
		Flow:        models.FlowDebit,
		AccountID:   r.SourceAccountID,
		Amount:      r.Amount,
		Details:     r.Details,
	}
	credit = EntryRequest{
		FinID:       r.FinID,
		FinanceType: models.FinanceTransfer,
		Flow:        models.FlowCredit,
		AccountID:   r.TargetAccountID,
		Amount:      r.Amount,
		Details:     r.Details,
	}
	return debit, credit
}

// entry builds the row for r. Timestamps are both set to now; Update
// restores the stored CreatedAt afterwards.
func (r EntryRequest) entry(txnID, finID string, now time.Time) models.Transaction {
	return models.Transaction{
		ID:            txnID,
		FinID:         finID,
		BillDate:      r.BillDate,
		PaidDate:      r.PaidDate,
		Amount:        r.Amount,
		PaidAmount:    r.PaidAmount,
		ActualAmount:  r.ActualAmount,
		Flow:          r.Flow,
		FinanceType:   r.FinanceType,
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		AccountID:     r.AccountID,
		MethodID:      r.MethodID,
		Tags:          r.Tags,
		Description:   r.Description,
		ReferenceID:   r.ReferenceID,
		Notes:         r.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

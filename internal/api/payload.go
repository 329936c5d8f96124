package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sheikh-saqib/money-management-ledger/internal/ledger"
	"github.com/sheikh-saqib/money-management-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// date accepts YYYY-MM-DD or RFC 3339 and null.
type date struct {
	t *time.Time
}

func (d *date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.t = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		d.t = nil
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.t = &t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}

// transactionPayload is the JSON body of create and update requests.
type transactionPayload struct {
	FinID           string              `json:"fin_id"`
	FinanceType     string              `json:"finance_type"`
	Flow            string              `json:"flow"`
	AccountID       string              `json:"account_id"`
	SourceAccountID string              `json:"source_account_id"`
	TargetAccountID string              `json:"target_account_id"`
	Amount          *decimal.Decimal    `json:"amount"`
	BillDate        date                `json:"bill_date"`
	PaidDate        date                `json:"paid_date"`
	PaidAmount      decimal.NullDecimal `json:"paid_amount"`
	ActualAmount    decimal.NullDecimal `json:"actual_amount"`
	CategoryID      string              `json:"category_id"`
	SubcategoryID   string              `json:"subcategory_id"`
	MethodID        string              `json:"method_id"`
	Tags            string              `json:"tags"`
	Description     string              `json:"description"`
	ReferenceID     string              `json:"reference_id"`
	Notes           string              `json:"notes"`
}

func (p transactionPayload) amount() decimal.Decimal {
	if p.Amount == nil {
		return decimal.Zero
	}
	return *p.Amount
}

func (p transactionPayload) details() ledger.Details {
	return ledger.Details{
		BillDate:      p.BillDate.t,
		PaidDate:      p.PaidDate.t,
		PaidAmount:    p.PaidAmount,
		ActualAmount:  p.ActualAmount,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		MethodID:      p.MethodID,
		Tags:          p.Tags,
		Description:   p.Description,
		ReferenceID:   p.ReferenceID,
		Notes:         p.Notes,
	}
}

// createRequest picks the transfer variant when finance_type is transfer.
func (p transactionPayload) createRequest() ledger.CreateRequest {
	if models.FinanceType(p.FinanceType) == models.FinanceTransfer {
		return ledger.TransferRequest{
			FinID:           p.FinID,
			SourceAccountID: p.SourceAccountID,
			TargetAccountID: p.TargetAccountID,
			Amount:          p.amount(),
			Details:         p.details(),
		}
	}
	return p.entryRequest()
}

func (p transactionPayload) entryRequest() ledger.EntryRequest {
	return ledger.EntryRequest{
		FinID:       p.FinID,
		FinanceType: models.FinanceType(p.FinanceType),
		Flow:        models.Flow(p.Flow),
		AccountID:   p.AccountID,
		Amount:      p.amount(),
		Details:     p.details(),
	}
}

type accountPayload struct {
	ID      string           `json:"account_id"`
	Name    string           `json:"account_name"`
	Type    string           `json:"account_type"`
	Balance *decimal.Decimal `json:"balance"`
	Active  *bool            `json:"is_active"`
}

func (p accountPayload) account() models.Account {
	a := models.Account{
		ID:     p.ID,
		Name:   p.Name,
		Type:   models.AccountType(p.Type),
		Active: true,
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
	return a
}

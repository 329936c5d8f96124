package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidAccount is returned when an account cannot be created as requested.
var ErrInvalidAccount = errors.New("invalid account")

// AccountType is the kind of place money is held in.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCash       AccountType = "cash"
	AccountCredit     AccountType = "credit"
	AccountWallet     AccountType = "wallet"
	AccountInvestment AccountType = "investment"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCash, AccountCredit, AccountWallet, AccountInvestment:
		return true
	}
	return false
}

// Account holds money. Balance is a cached value that always equals the
// signed sum of the ledger entries referencing the account.
type Account struct {
	ID        string          `json:"account_id"`
	Name      string          `json:"account_name"`
	Type      AccountType     `json:"account_type"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_ts"`
	UpdatedAt time.Time       `json:"updated_ts"`
}

// Validate checks the fields required to open an account.
func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: account_name is required", ErrInvalidAccount)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown account_type %q", ErrInvalidAccount, a.Type)
	}
	if !FitsScale(a.Balance) {
		return fmt.Errorf("%w: balance has more than %d decimal places", ErrInvalidAccount, MoneyScale)
	}
	return nil
}

package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType says whether a payment settles a supplier or a customer
// account.
type AccountType string

const (
	AccountSupplier AccountType = "supplier"
	AccountCustomer AccountType = "customer"
)

// Payment records money changing hands against a supplier or customer
// account. Payments are immutable once recorded; corrections are new
// payments.
type Payment struct {
	Meta
	AccountID   string          `json:"accountId"`
	AccountType AccountType     `json:"accountType"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Note        string          `json:"note,omitempty"`
}

// Validate checks the payment before any store write. A non-positive
// amount is rejected here, before the local write.
func (p *Payment) Validate() error {
	if p.AccountID == "" {
		return invalid("accountId", "is required")
	}
	if p.AccountType != AccountSupplier && p.AccountType != AccountCustomer {
		return invalid("accountType", "must be supplier or customer")
	}
	if p.Date.IsZero() {
		return invalid("date", "is required")
	}
	if !p.Amount.IsPositive() {
		return invalid("amount", "must be positive")
	}
	if p.Method == "" {
		return invalid("method", "is required")
	}
	return nil
}

package schema

import "github.com/shopspring/decimal"

// BalanceType says which way an account balance points: payable means the
// shop owes the account, receivable means the account owes the shop.
type BalanceType string

const (
	BalancePayable    BalanceType = "payable"
	BalanceReceivable BalanceType = "receivable"
)

// Supplier is a vendor account. OpeningBalance is fixed at creation;
// CurrentBalance and BalanceType are derived snapshots recomputed from the
// supplier's ledger history, not authoritative state.
type Supplier struct {
	Meta
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Address        string          `json:"address,omitempty"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	BalanceType    BalanceType     `json:"balanceType"`
}

// Validate checks the supplier before any store write.
func (s *Supplier) Validate() error {
	if s.Name == "" {
		return invalid("name", "is required")
	}
	if s.OpeningBalance.IsNegative() {
		return invalid("openingBalance", "cannot be negative")
	}
	return nil
}

// SupplierPatch is a partial update for Supplier. The opening balance is
// deliberately not patchable: it is fixed at creation.
type SupplierPatch struct {
	Name           *string
	Phone          *string
	Address        *string
	CurrentBalance *decimal.Decimal
	BalanceType    *BalanceType
}

// Validate checks only the fields the patch sets.
func (p *SupplierPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return invalid("name", "cannot be cleared")
	}
	if p.BalanceType != nil && *p.BalanceType != BalancePayable && *p.BalanceType != BalanceReceivable {
		return invalid("balanceType", "must be payable or receivable")
	}
	return nil
}

// Apply merges the patch into the supplier.
func (p *SupplierPatch) Apply(s *Supplier) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.Address != nil {
		s.Address = *p.Address
	}
	if p.CurrentBalance != nil {
		s.CurrentBalance = *p.CurrentBalance
	}
	if p.BalanceType != nil {
		s.BalanceType = *p.BalanceType
	}
}

// Customer is a buyer account, with the same balance snapshot semantics as
// Supplier.
type Customer struct {
	Meta
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Address        string          `json:"address,omitempty"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	BalanceType    BalanceType     `json:"balanceType"`
}

// Validate checks the customer before any store write.
func (c *Customer) Validate() error {
	if c.Name == "" {
		return invalid("name", "is required")
	}
	if c.OpeningBalance.IsNegative() {
		return invalid("openingBalance", "cannot be negative")
	}
	return nil
}

// CustomerPatch is a partial update for Customer.
type CustomerPatch struct {
	Name           *string
	Phone          *string
	Address        *string
	CurrentBalance *decimal.Decimal
	BalanceType    *BalanceType
}

// Validate checks only the fields the patch sets.
func (p *CustomerPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return invalid("name", "cannot be cleared")
	}
	if p.BalanceType != nil && *p.BalanceType != BalancePayable && *p.BalanceType != BalanceReceivable {
		return invalid("balanceType", "must be payable or receivable")
	}
	return nil
}

// Apply merges the patch into the customer.
func (p *CustomerPatch) Apply(c *Customer) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.CurrentBalance != nil {
		c.CurrentBalance = *p.CurrentBalance
	}
	if p.BalanceType != nil {
		c.BalanceType = *p.BalanceType
	}
}

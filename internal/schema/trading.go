package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one row of a sale or purchase.
type LineItem struct {
	ProductID   string          `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

func (li *LineItem) validate() error {
	if li.ProductName == "" {
		return invalid("productName", "is required")
	}
	if li.Quantity <= 0 {
		return invalid("quantity", "must be positive")
	}
	if li.UnitPrice.IsNegative() {
		return invalid("unitPrice", "cannot be negative")
	}
	return nil
}

// Sale is a customer invoice. Due is the unpaid remainder carried on the
// customer's ledger.
type Sale struct {
	Meta
	InvoiceNo    string          `json:"invoiceNo"`
	CustomerID   string          `json:"customerId,omitempty"`
	CustomerName string          `json:"customerName"`
	Date         time.Time       `json:"date"`
	Items        []LineItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Due          decimal.Decimal `json:"due"`
}

// Validate checks the sale before any store write.
func (s *Sale) Validate() error {
	if s.CustomerName == "" {
		return invalid("customerName", "is required")
	}
	if s.Date.IsZero() {
		return invalid("date", "is required")
	}
	if len(s.Items) == 0 {
		return invalid("items", "at least one line item is required")
	}
	for i := range s.Items {
		if err := s.Items[i].validate(); err != nil {
			return err
		}
	}
	if s.Total.IsNegative() {
		return invalid("total", "cannot be negative")
	}
	if s.Paid.IsNegative() {
		return invalid("paid", "cannot be negative")
	}
	return nil
}

// SalePatch is a partial update for Sale. Line items are replaced
// wholesale when set; editing a single row is a UI concern.
type SalePatch struct {
	CustomerID   *string
	CustomerName *string
	Date         *time.Time
	Items        []LineItem
	Total        *decimal.Decimal
	Paid         *decimal.Decimal
	Due          *decimal.Decimal
}

// Validate checks only the fields the patch sets.
func (p *SalePatch) Validate() error {
	if p.CustomerName != nil && *p.CustomerName == "" {
		return invalid("customerName", "cannot be cleared")
	}
	if p.Date != nil && p.Date.IsZero() {
		return invalid("date", "cannot be cleared")
	}
	for i := range p.Items {
		if err := p.Items[i].validate(); err != nil {
			return err
		}
	}
	if p.Total != nil && p.Total.IsNegative() {
		return invalid("total", "cannot be negative")
	}
	if p.Paid != nil && p.Paid.IsNegative() {
		return invalid("paid", "cannot be negative")
	}
	return nil
}

// Apply merges the patch into the sale.
func (p *SalePatch) Apply(s *Sale) {
	if p.CustomerID != nil {
		s.CustomerID = *p.CustomerID
	}
	if p.CustomerName != nil {
		s.CustomerName = *p.CustomerName
	}
	if p.Date != nil {
		s.Date = *p.Date
	}
	if p.Items != nil {
		s.Items = p.Items
	}
	if p.Total != nil {
		s.Total = *p.Total
	}
	if p.Paid != nil {
		s.Paid = *p.Paid
	}
	if p.Due != nil {
		s.Due = *p.Due
	}
}

// Purchase is a supplier bill, the mirror image of Sale.
type Purchase struct {
	Meta
	InvoiceNo    string          `json:"invoiceNo"`
	SupplierID   string          `json:"supplierId,omitempty"`
	SupplierName string          `json:"supplierName"`
	Date         time.Time       `json:"date"`
	Items        []LineItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Due          decimal.Decimal `json:"due"`
}

// Validate checks the purchase before any store write.
func (p *Purchase) Validate() error {
	if p.SupplierName == "" {
		return invalid("supplierName", "is required")
	}
	if p.Date.IsZero() {
		return invalid("date", "is required")
	}
	if len(p.Items) == 0 {
		return invalid("items", "at least one line item is required")
	}
	for i := range p.Items {
		if err := p.Items[i].validate(); err != nil {
			return err
		}
	}
	if p.Total.IsNegative() {
		return invalid("total", "cannot be negative")
	}
	if p.Paid.IsNegative() {
		return invalid("paid", "cannot be negative")
	}
	return nil
}

// PurchasePatch is a partial update for Purchase.
type PurchasePatch struct {
	SupplierID   *string
	SupplierName *string
	Date         *time.Time
	Items        []LineItem
	Total        *decimal.Decimal
	Paid         *decimal.Decimal
	Due          *decimal.Decimal
}

// Validate checks only the fields the patch sets.
func (p *PurchasePatch) Validate() error {
	if p.SupplierName != nil && *p.SupplierName == "" {
		return invalid("supplierName", "cannot be cleared")
	}
	if p.Date != nil && p.Date.IsZero() {
		return invalid("date", "cannot be cleared")
	}
	for i := range p.Items {
		if err := p.Items[i].validate(); err != nil {
			return err
		}
	}
	if p.Total != nil && p.Total.IsNegative() {
		return invalid("total", "cannot be negative")
	}
	if p.Paid != nil && p.Paid.IsNegative() {
		return invalid("paid", "cannot be negative")
	}
	return nil
}

// Apply merges the patch into the purchase.
func (p *PurchasePatch) Apply(pu *Purchase) {
	if p.SupplierID != nil {
		pu.SupplierID = *p.SupplierID
	}
	if p.SupplierName != nil {
		pu.SupplierName = *p.SupplierName
	}
	if p.Date != nil {
		pu.Date = *p.Date
	}
	if p.Items != nil {
		pu.Items = p.Items
	}
	if p.Total != nil {
		pu.Total = *p.Total
	}
	if p.Paid != nil {
		pu.Paid = *p.Paid
	}
	if p.Due != nil {
		pu.Due = *p.Due
	}
}

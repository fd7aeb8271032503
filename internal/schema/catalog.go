package schema

import "github.com/shopspring/decimal"

// Entity kind names, used to scope local tables and remote collections.
const (
	KindCategory = "categories"
	KindProduct  = "products"
	KindSupplier = "suppliers"
	KindCustomer = "customers"
	KindSale     = "sales"
	KindPurchase = "purchases"
	KindPayment  = "payments"
)

// Category groups products for display and reporting.
type Category struct {
	Meta
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks the category before any store write.
func (c *Category) Validate() error {
	if c.Name == "" {
		return invalid("name", "is required")
	}
	return nil
}

// CategoryPatch is a partial update for Category. Nil fields are left
// unchanged.
type CategoryPatch struct {
	Name        *string
	Description *string
}

// Validate checks only the fields the patch sets.
func (p *CategoryPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return invalid("name", "cannot be cleared")
	}
	return nil
}

// Apply merges the patch into the category.
func (p *CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
}

// Product is a stocked item: phone cases, chargers, screen protectors and
// the like. Prices are decimals to keep currency math exact.
type Product struct {
	Meta
	Name          string          `json:"name"`
	CategoryID    string          `json:"categoryId,omitempty"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SalePrice     decimal.Decimal `json:"salePrice"`
	Stock         int64           `json:"stock"`
}

// Validate checks the product before any store write.
func (p *Product) Validate() error {
	if p.Name == "" {
		return invalid("name", "is required")
	}
	if p.PurchasePrice.IsNegative() {
		return invalid("purchasePrice", "cannot be negative")
	}
	if p.SalePrice.IsNegative() {
		return invalid("salePrice", "cannot be negative")
	}
	if p.Stock < 0 {
		return invalid("stock", "cannot be negative")
	}
	return nil
}

// ProductPatch is a partial update for Product.
type ProductPatch struct {
	Name          *string
	CategoryID    *string
	PurchasePrice *decimal.Decimal
	SalePrice     *decimal.Decimal
	Stock         *int64
}

// Validate checks only the fields the patch sets.
func (p *ProductPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return invalid("name", "cannot be cleared")
	}
	if p.PurchasePrice != nil && p.PurchasePrice.IsNegative() {
		return invalid("purchasePrice", "cannot be negative")
	}
	if p.SalePrice != nil && p.SalePrice.IsNegative() {
		return invalid("salePrice", "cannot be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return invalid("stock", "cannot be negative")
	}
	return nil
}

// Apply merges the patch into the product.
func (p *ProductPatch) Apply(prod *Product) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.CategoryID != nil {
		prod.CategoryID = *p.CategoryID
	}
	if p.PurchasePrice != nil {
		prod.PurchasePrice = *p.PurchasePrice
	}
	if p.SalePrice != nil {
		prod.SalePrice = *p.SalePrice
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
}

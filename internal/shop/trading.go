package shop

import (
	"context"

	"github.com/thantzaw/pocketpos/internal/ledger"
	"github.com/thantzaw/pocketpos/internal/schema"
)

// Sales manages customer invoices.
type Sales struct {
	saleService
	shop *Shop
}

// Create stores a new sale. A missing invoice number is generated, and
// the due amount is always recomputed from total and paid. When the
// sale leaves a due against a known customer account, a sale entry is
// appended to that customer's ledger.
func (s *Sales) Create(ctx context.Context, sale *schema.Sale) (string, error) {
	if sale.InvoiceNo == "" {
		sale.InvoiceNo = newInvoiceNo("INV", sale.Date)
	}
	sale.Due = sale.Total.Sub(sale.Paid)

	localID, err := s.saleService.Create(ctx, sale)
	if err != nil {
		return "", err
	}

	if sale.CustomerID != "" && sale.Due.IsPositive() {
		s.shop.appendEntry(ledger.Entry{
			AccountID:   sale.CustomerID,
			AccountType: schema.AccountCustomer,
			Type:        ledger.EntrySale,
			Description: "Invoice " + sale.InvoiceNo,
			Date:        sale.Date,
			Amount:      sale.Due,
		})
	}

	return localID, nil
}

// Purchases manages supplier bills.
type Purchases struct {
	purchaseService
	shop *Shop
}

// Create stores a new purchase, mirroring Sales.Create: generated
// invoice number, recomputed due, and a purchase entry on the
// supplier's ledger when a due remains.
func (p *Purchases) Create(ctx context.Context, purchase *schema.Purchase) (string, error) {
	if purchase.InvoiceNo == "" {
		purchase.InvoiceNo = newInvoiceNo("PUR", purchase.Date)
	}
	purchase.Due = purchase.Total.Sub(purchase.Paid)

	localID, err := p.purchaseService.Create(ctx, purchase)
	if err != nil {
		return "", err
	}

	if purchase.SupplierID != "" && purchase.Due.IsPositive() {
		p.shop.appendEntry(ledger.Entry{
			AccountID:   purchase.SupplierID,
			AccountType: schema.AccountSupplier,
			Type:        ledger.EntryPurchase,
			Description: "Invoice " + purchase.InvoiceNo,
			Date:        purchase.Date,
			Amount:      purchase.Due,
		})
	}

	return localID, nil
}

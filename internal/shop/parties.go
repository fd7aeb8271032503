package shop

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/thantzaw/pocketpos/internal/ledger"
	"github.com/thantzaw/pocketpos/internal/schema"
)

// Suppliers manages vendor accounts and their balance snapshots.
type Suppliers struct {
	supplierService
	shop *Shop
}

// Create stores a new supplier. The balance snapshot starts at the
// opening balance, payable.
func (s *Suppliers) Create(ctx context.Context, sup *schema.Supplier) (string, error) {
	sup.CurrentBalance = sup.OpeningBalance
	sup.BalanceType = schema.BalancePayable
	return s.supplierService.Create(ctx, sup)
}

// RecalculateBalance refolds the supplier's ledger history and stores
// the derived snapshot back through the sync engine.
func (s *Suppliers) RecalculateBalance(ctx context.Context, localID string) error {
	sup, err := s.Get(ctx, localID)
	if err != nil {
		return err
	}

	return s.shop.ledger.RecalculateBalance(ctx, accountKey(&sup.Meta), sup.OpeningBalance,
		func(balanceType schema.BalanceType, current decimal.Decimal) error {
			return s.Update(ctx, localID, &schema.SupplierPatch{
				CurrentBalance: &current,
				BalanceType:    &balanceType,
			})
		})
}

// Statement returns the supplier's running-balance history.
func (s *Suppliers) Statement(ctx context.Context, localID string) ([]ledger.Step, error) {
	sup, err := s.Get(ctx, localID)
	if err != nil {
		return nil, err
	}

	entries, err := s.shop.ledger.EntriesFor(ctx, accountKey(&sup.Meta))
	if err != nil {
		return nil, err
	}

	steps, _ := ledger.ComputeRunningBalance(sup.OpeningBalance, entries)
	return steps, nil
}

// Customers manages buyer accounts, the mirror of Suppliers.
type Customers struct {
	customerService
	shop *Shop
}

// Create stores a new customer with the initial balance snapshot.
func (c *Customers) Create(ctx context.Context, cust *schema.Customer) (string, error) {
	cust.CurrentBalance = cust.OpeningBalance
	cust.BalanceType = schema.BalancePayable
	return c.customerService.Create(ctx, cust)
}

// RecalculateBalance refolds the customer's ledger history and stores
// the derived snapshot back through the sync engine.
func (c *Customers) RecalculateBalance(ctx context.Context, localID string) error {
	cust, err := c.Get(ctx, localID)
	if err != nil {
		return err
	}

	return c.shop.ledger.RecalculateBalance(ctx, accountKey(&cust.Meta), cust.OpeningBalance,
		func(balanceType schema.BalanceType, current decimal.Decimal) error {
			return c.Update(ctx, localID, &schema.CustomerPatch{
				CurrentBalance: &current,
				BalanceType:    &balanceType,
			})
		})
}

// Statement returns the customer's running-balance history.
func (c *Customers) Statement(ctx context.Context, localID string) ([]ledger.Step, error) {
	cust, err := c.Get(ctx, localID)
	if err != nil {
		return nil, err
	}

	entries, err := c.shop.ledger.EntriesFor(ctx, accountKey(&cust.Meta))
	if err != nil {
		return nil, err
	}

	steps, _ := ledger.ComputeRunningBalance(cust.OpeningBalance, entries)
	return steps, nil
}

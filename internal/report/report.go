// Package report computes sales and purchase summaries from local
// state. Reports never touch the network: they aggregate whatever the
// local store currently holds, which is exactly what an offline shop
// sees on screen.
package report

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thantzaw/pocketpos/internal/schema"
	"github.com/thantzaw/pocketpos/internal/shop"
)

// DayTotal is one row of a per-day rollup.
type DayTotal struct {
	Day   string // YYYY-MM-DD
	Count int
	Total decimal.Decimal
	Paid  decimal.Decimal
	Due   decimal.Decimal
}

// Summary aggregates one document type over a date range.
type Summary struct {
	From, To time.Time

	Count int
	Total decimal.Decimal
	Paid  decimal.Decimal
	Due   decimal.Decimal

	Days []DayTotal
}

// Reporter builds summaries from the shop's local records.
type Reporter struct {
	shop *shop.Shop
}

// New creates a Reporter over the given shop.
func New(sh *shop.Shop) *Reporter {
	return &Reporter{shop: sh}
}

// SalesSummary aggregates sales whose date falls in [from, to].
func (r *Reporter) SalesSummary(ctx context.Context, from, to time.Time) (*Summary, error) {
	sales, err := r.shop.Sales.List(ctx)
	if err != nil {
		return nil, err
	}

	s := newSummary(from, to)
	for _, sale := range sales {
		s.add(sale.Date, sale.Total, sale.Paid, sale.Due)
	}
	s.finish()
	return s, nil
}

// PurchasesSummary aggregates purchases whose date falls in [from, to].
func (r *Reporter) PurchasesSummary(ctx context.Context, from, to time.Time) (*Summary, error) {
	purchases, err := r.shop.Purchases.List(ctx)
	if err != nil {
		return nil, err
	}

	s := newSummary(from, to)
	for _, p := range purchases {
		s.add(p.Date, p.Total, p.Paid, p.Due)
	}
	s.finish()
	return s, nil
}

// LowStock returns products at or below the threshold, lowest first.
func (r *Reporter) LowStock(ctx context.Context, threshold int64) ([]*schema.Product, error) {
	products, err := r.shop.Products.List(ctx)
	if err != nil {
		return nil, err
	}

	var out []*schema.Product
	for _, p := range products {
		if p.Stock <= threshold {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func newSummary(from, to time.Time) *Summary {
	return &Summary{
		From:  from,
		To:    to,
		Total: decimal.Zero,
		Paid:  decimal.Zero,
		Due:   decimal.Zero,
	}
}

// add folds one document into the summary if its date is in range.
func (s *Summary) add(date time.Time, total, paid, due decimal.Decimal) {
	if date.Before(s.From) || date.After(s.To) {
		return
	}

	s.Count++
	s.Total = s.Total.Add(total)
	s.Paid = s.Paid.Add(paid)
	s.Due = s.Due.Add(due)

	day := date.Format("2006-01-02")
	for i := range s.Days {
		if s.Days[i].Day == day {
			s.Days[i].Count++
			s.Days[i].Total = s.Days[i].Total.Add(total)
			s.Days[i].Paid = s.Days[i].Paid.Add(paid)
			s.Days[i].Due = s.Days[i].Due.Add(due)
			return
		}
	}
	s.Days = append(s.Days, DayTotal{Day: day, Count: 1, Total: total, Paid: paid, Due: due})
}

// finish orders the per-day rows chronologically.
func (s *Summary) finish() {
	sort.SliceStable(s.Days, func(i, j int) bool { return s.Days[i].Day < s.Days[j].Day })
}

package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thantzaw/pocketpos/internal/remotedb"
	"github.com/thantzaw/pocketpos/internal/schema"
)

func day(n int) time.Time {
	return time.Date(2026, time.March, n, 0, 0, 0, 0, time.UTC)
}

func entry(t EntryType, n int, amount string) Entry {
	return Entry{
		AccountID:   "acct-1",
		AccountType: schema.AccountSupplier,
		Type:        t,
		Date:        day(n),
		Amount:      decimal.RequireFromString(amount),
	}
}

func TestComputeRunningBalance(t *testing.T) {
	opening := decimal.RequireFromString("100")
	entries := []Entry{
		entry(EntryPurchase, 1, "50"),
		entry(EntryPayment, 2, "30"),
		entry(EntryPurchase, 3, "20"),
	}

	steps, final := ComputeRunningBalance(opening, entries)

	want := []string{"150", "120", "140"}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, w := range want {
		if steps[i].Running.String() != w {
			t.Errorf("step %d: expected running balance %s, got %s", i, w, steps[i].Running)
		}
	}
	if final.String() != "140" {
		t.Errorf("expected final balance 140, got %s", final)
	}

	balanceType, current := DeriveBalance(final)
	if balanceType != schema.BalancePayable {
		t.Errorf("expected payable, got %s", balanceType)
	}
	if current.String() != "140" {
		t.Errorf("expected current balance 140, got %s", current)
	}
}

func TestDeriveBalanceSignFlip(t *testing.T) {
	_, final := ComputeRunningBalance(decimal.Zero, []Entry{
		entry(EntryPayment, 1, "50"),
	})

	balanceType, current := DeriveBalance(final)
	if balanceType != schema.BalanceReceivable {
		t.Errorf("expected receivable, got %s", balanceType)
	}
	if current.String() != "50" {
		t.Errorf("expected current balance 50, got %s", current)
	}
}

func TestComputeRunningBalanceOrdersByDate(t *testing.T) {
	// Entries arrive out of order; the fold must still apply them by
	// date ascending.
	entries := []Entry{
		entry(EntryPayment, 3, "10"),
		entry(EntrySale, 1, "40"),
		entry(EntryPurchase, 2, "5"),
	}

	steps, final := ComputeRunningBalance(decimal.Zero, entries)

	if steps[0].Entry.Type != EntrySale || steps[0].Running.String() != "40" {
		t.Errorf("expected sale first at 40, got %s at %s", steps[0].Entry.Type, steps[0].Running)
	}
	if final.String() != "35" {
		t.Errorf("expected final balance 35, got %s", final)
	}
}

func TestComputeRunningBalanceEmpty(t *testing.T) {
	opening := decimal.RequireFromString("75")
	steps, final := ComputeRunningBalance(opening, nil)
	if len(steps) != 0 {
		t.Errorf("expected no steps, got %d", len(steps))
	}
	if !final.Equal(opening) {
		t.Errorf("expected opening balance %s back, got %s", opening, final)
	}
}

func TestAppendValidates(t *testing.T) {
	store := remotedb.NewMemoryStore()
	l := New(store.Mem("ledger_entries"), nil)

	bad := entry(EntryPayment, 1, "50")
	bad.Amount = decimal.Zero
	if err := l.Append(context.Background(), bad); err == nil {
		t.Error("expected non-positive amount to be rejected")
	}
	if store.Mem("ledger_entries").Len() != 0 {
		t.Error("rejected entry must not reach the collection")
	}
}

func TestRecalculateBalance(t *testing.T) {
	ctx := context.Background()
	store := remotedb.NewMemoryStore()
	l := New(store.Mem("ledger_entries"), nil)

	for _, e := range []Entry{
		entry(EntryPurchase, 1, "50"),
		entry(EntryPayment, 2, "30"),
		entry(EntryPurchase, 3, "20"),
	} {
		if err := l.Append(ctx, e); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	// A second account's entries must not leak into the fold.
	other := entry(EntryPurchase, 1, "999")
	other.AccountID = "acct-2"
	if err := l.Append(ctx, other); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var gotType schema.BalanceType
	var gotCurrent decimal.Decimal
	err := l.RecalculateBalance(ctx, "acct-1", decimal.RequireFromString("100"),
		func(bt schema.BalanceType, current decimal.Decimal) error {
			gotType = bt
			gotCurrent = current
			return nil
		})
	if err != nil {
		t.Fatalf("RecalculateBalance failed: %v", err)
	}

	if gotType != schema.BalancePayable {
		t.Errorf("expected payable, got %s", gotType)
	}
	if gotCurrent.String() != "140" {
		t.Errorf("expected 140, got %s", gotCurrent)
	}
}

func TestRecalculateBalanceOffline(t *testing.T) {
	store := remotedb.NewMemoryStore()
	l := New(store.Mem("ledger_entries"), nil)
	store.SetOnline(false)

	err := l.RecalculateBalance(context.Background(), "acct-1", decimal.Zero,
		func(schema.BalanceType, decimal.Decimal) error {
			t.Error("apply must not run when the ledger cannot be read")
			return nil
		})
	if !errors.Is(err, remotedb.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestFromPayment(t *testing.T) {
	p := &schema.Payment{
		AccountID:   "acct-9",
		AccountType: schema.AccountCustomer,
		Date:        day(5),
		Amount:      decimal.RequireFromString("25.50"),
		Method:      "cash",
		Note:        "partial settlement",
	}

	e := FromPayment(p)
	if e.Type != EntryPayment {
		t.Errorf("expected payment entry, got %s", e.Type)
	}
	if e.AccountID != "acct-9" || e.AccountType != schema.AccountCustomer {
		t.Errorf("account fields not carried over: %+v", e)
	}
	if e.Description != "Payment by cash: partial settlement" {
		t.Errorf("expected method and note in description, got %q", e.Description)
	}
	if err := e.Validate(); err != nil {
		t.Errorf("entry from valid payment must validate: %v", err)
	}

	// Without a note the description is the method alone.
	p.Note = ""
	if got := FromPayment(p).Description; got != "Payment by cash" {
		t.Errorf("expected method-only description, got %q", got)
	}
}

// Package ledger derives supplier and customer balances from immutable
// ledger entries.
//
// Entries are append-only documents in a remote collection, one per
// purchase, sale, or payment against an account. Balances are never
// stored authoritatively: they are folds over the account's entry
// history in ascending date order, starting from the opening balance.
// Purchase and sale entries increase the signed balance, payments
// decrease it. A non-negative signed balance is payable (the shop owes
// the account), a negative one is receivable, and the displayed amount
// is the absolute value.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/thantzaw/pocketpos/internal/remotedb"
	"github.com/thantzaw/pocketpos/internal/schema"
)

// EntryType classifies a ledger entry by the document that produced it.
type EntryType string

const (
	EntryPurchase EntryType = "purchase"
	EntrySale     EntryType = "sale"
	EntryPayment  EntryType = "payment"
)

// Entry is one immutable line in an account's ledger. Amount is always
// positive; the entry type decides the sign during the fold.
type Entry struct {
	AccountID   string             `json:"accountId"`
	AccountType schema.AccountType `json:"accountType"`
	Type        EntryType          `json:"type"`
	Description string             `json:"description,omitempty"`
	Date        time.Time          `json:"date"`
	Amount      decimal.Decimal    `json:"amount"`
}

// Validate checks the entry before it is appended.
func (e *Entry) Validate() error {
	if e.AccountID == "" {
		return fmt.Errorf("ledger entry: account id is required")
	}
	if e.AccountType != schema.AccountSupplier && e.AccountType != schema.AccountCustomer {
		return fmt.Errorf("ledger entry: account type must be supplier or customer")
	}
	if e.Type != EntryPurchase && e.Type != EntrySale && e.Type != EntryPayment {
		return fmt.Errorf("ledger entry: unknown type %q", e.Type)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("ledger entry: date is required")
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("ledger entry: amount must be positive")
	}
	return nil
}

// signed returns the entry's contribution to the signed balance.
func (e *Entry) signed() decimal.Decimal {
	if e.Type == EntryPayment {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Step is one row of a running-balance statement.
type Step struct {
	Entry   Entry
	Running decimal.Decimal
}

// ComputeRunningBalance folds the entries in ascending date order from
// the opening balance and returns the per-entry running balances along
// with the final signed balance. The input slice is not modified.
func ComputeRunningBalance(opening decimal.Decimal, entries []Entry) ([]Step, decimal.Decimal) {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	steps := make([]Step, 0, len(ordered))
	running := opening
	for _, e := range ordered {
		running = running.Add(e.signed())
		steps = append(steps, Step{Entry: e, Running: running})
	}
	return steps, running
}

// DeriveBalance converts a signed balance into the stored snapshot
// shape: payable while non-negative, receivable once it goes below
// zero, with the magnitude as the displayed amount.
func DeriveBalance(signed decimal.Decimal) (schema.BalanceType, decimal.Decimal) {
	if signed.IsNegative() {
		return schema.BalanceReceivable, signed.Abs()
	}
	return schema.BalancePayable, signed
}

// Ledger appends entries to and reads entries from the remote ledger
// collection.
type Ledger struct {
	entries remotedb.Collection
	logger  *log.Logger
}

// New creates a Ledger over the given entries collection.
func New(entries remotedb.Collection, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.New(os.Stderr, "[ledger] ", log.LstdFlags)
	}
	return &Ledger{entries: entries, logger: logger}
}

// Append writes one entry to the remote collection. Entries are never
// updated or deleted after this point.
func (l *Ledger) Append(ctx context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry: %w", err)
	}

	if _, err := l.entries.Create(ctx, data); err != nil {
		return fmt.Errorf("failed to append ledger entry for %s: %w", e.AccountID, err)
	}
	return nil
}

// EntriesFor returns the account's full entry history in ascending date
// order.
func (l *Ledger) EntriesFor(ctx context.Context, accountID string) ([]Entry, error) {
	docs, err := l.entries.ListFiltered(ctx, "accountId", remotedb.OpEqual, accountID, "date", false)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		var e Entry
		if err := json.Unmarshal(d.Data, &e); err != nil {
			l.logger.Printf("WARNING: skipping undecodable ledger entry %s: %v", d.ID, err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// RecalculateBalance reads the account's entry history, folds from the
// opening balance, and hands the derived snapshot to apply, which
// persists it through the account's sync engine. The fold itself never
// writes; a failed apply leaves the stored snapshot stale, to be fixed
// by the next recalculation.
func (l *Ledger) RecalculateBalance(ctx context.Context, accountID string, opening decimal.Decimal, apply func(balanceType schema.BalanceType, current decimal.Decimal) error) error {
	entries, err := l.EntriesFor(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load ledger for %s: %w", accountID, err)
	}

	_, signed := ComputeRunningBalance(opening, entries)
	balanceType, current := DeriveBalance(signed)

	if err := apply(balanceType, current); err != nil {
		return fmt.Errorf("failed to store balance for %s: %w", accountID, err)
	}

	l.logger.Printf("recalculated balance for %s: %s %s over %d entries",
		accountID, current.String(), balanceType, len(entries))
	return nil
}

// FromPayment builds the ledger entry for a recorded payment. The
// description carries the payment method, with the note appended when
// one was given.
func FromPayment(p *schema.Payment) Entry {
	desc := "Payment by " + p.Method
	if p.Note != "" {
		desc += ": " + p.Note
	}
	return Entry{
		AccountID:   p.AccountID,
		AccountType: p.AccountType,
		Type:        EntryPayment,
		Description: desc,
		Date:        p.Date,
		Amount:      p.Amount,
	}
}

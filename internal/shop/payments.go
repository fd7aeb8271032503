package shop

import (
	"context"

	"github.com/thantzaw/pocketpos/internal/ledger"
	"github.com/thantzaw/pocketpos/internal/schema"
	possync "github.com/thantzaw/pocketpos/internal/sync"
)

// Payments records money movements against supplier and customer
// accounts. Payments are immutable: there is no update, and a wrong
// payment is corrected by recording another one.
type Payments struct {
	engine *possync.Engine[*schema.Payment]
	shop   *Shop
}

// Record validates and stores the payment locally, schedules its push,
// and appends the matching ledger entry to the remote collection. The
// two writes are not coordinated: if the ledger append fails, the
// payment still exists and the append failure is logged. The account's
// balance snapshot is not touched here; callers recalculate it when
// they need a fresh value.
func (p *Payments) Record(ctx context.Context, pay *schema.Payment) (string, error) {
	localID, err := p.engine.Create(ctx, pay)
	if err != nil {
		return "", err
	}

	p.shop.appendEntry(ledger.FromPayment(pay))
	return localID, nil
}

// Get returns one payment by local id.
func (p *Payments) Get(ctx context.Context, localID string) (*schema.Payment, error) {
	return p.engine.Get(ctx, localID)
}

// List returns all local payments, newest first.
func (p *Payments) List(ctx context.Context) ([]*schema.Payment, error) {
	return p.engine.ListAll(ctx)
}

// PendingCount returns the number of payments awaiting push.
func (p *Payments) PendingCount(ctx context.Context) (int, error) {
	return p.engine.PendingCount(ctx)
}

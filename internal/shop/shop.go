// Package shop binds the sync engines, the ledger, and the schema types
// into the per-entity services the CLI and UI layers call.
//
// Every service follows the same shape: typed create, patch-based
// update, delete, get, list. All writes are local-first through the
// sync engine; the ledger side-writes for sales, purchases, and
// payments are fire-and-forget remote appends.
package shop

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/thantzaw/pocketpos/internal/daemon"
	"github.com/thantzaw/pocketpos/internal/ledger"
	"github.com/thantzaw/pocketpos/internal/localdb"
	"github.com/thantzaw/pocketpos/internal/remotedb"
	"github.com/thantzaw/pocketpos/internal/schema"
	possync "github.com/thantzaw/pocketpos/internal/sync"
)

// LedgerCollection is the remote collection holding account ledger
// entries.
const LedgerCollection = "ledger_entries"

// appendTimeout bounds one background ledger append.
const appendTimeout = 30 * time.Second

// Shop is the root service registry. One instance per process.
type Shop struct {
	Categories *Categories
	Products   *Products
	Suppliers  *Suppliers
	Customers  *Customers
	Sales      *Sales
	Purchases  *Purchases
	Payments   *Payments

	ledger *ledger.Ledger
	logger *log.Logger
	wg     sync.WaitGroup
}

// New wires every entity service to its local table and remote
// collection. online gates fire-and-forget remote deletes; nil means
// always online. If logger is nil, a default stderr logger is used.
func New(db *localdb.DB, store remotedb.Store, online func() bool, logger *log.Logger) *Shop {
	if logger == nil {
		logger = log.New(os.Stderr, "[shop] ", log.LstdFlags)
	}

	sh := &Shop{
		ledger: ledger.New(store.Collection(LedgerCollection), logger),
		logger: logger,
	}

	sh.Categories = &Categories{categoryService: newService[*schema.Category, *schema.CategoryPatch](
		db, store, online, logger,
		schema.KindCategory, func() *schema.Category { return &schema.Category{} })}
	sh.Products = &Products{productService: newService[*schema.Product, *schema.ProductPatch](
		db, store, online, logger,
		schema.KindProduct, func() *schema.Product { return &schema.Product{} })}
	sh.Suppliers = &Suppliers{supplierService: newService[*schema.Supplier, *schema.SupplierPatch](
		db, store, online, logger,
		schema.KindSupplier, func() *schema.Supplier { return &schema.Supplier{} }), shop: sh}
	sh.Customers = &Customers{customerService: newService[*schema.Customer, *schema.CustomerPatch](
		db, store, online, logger,
		schema.KindCustomer, func() *schema.Customer { return &schema.Customer{} }), shop: sh}
	sh.Sales = &Sales{saleService: newService[*schema.Sale, *schema.SalePatch](
		db, store, online, logger,
		schema.KindSale, func() *schema.Sale { return &schema.Sale{} }), shop: sh}
	sh.Purchases = &Purchases{purchaseService: newService[*schema.Purchase, *schema.PurchasePatch](
		db, store, online, logger,
		schema.KindPurchase, func() *schema.Purchase { return &schema.Purchase{} }), shop: sh}
	sh.Payments = &Payments{
		engine: possync.New(schema.KindPayment,
			db.Table(schema.KindPayment),
			store.Collection(schema.KindPayment),
			online,
			func() *schema.Payment { return &schema.Payment{} },
			logger),
		shop: sh,
	}

	return sh
}

// Ledger exposes the ledger engine for statement queries.
func (sh *Shop) Ledger() *ledger.Ledger { return sh.ledger }

// Syncers returns every entity syncer, in a stable order.
func (sh *Shop) Syncers() []possync.Syncer {
	return []possync.Syncer{
		sh.Categories.Syncer(),
		sh.Products.Syncer(),
		sh.Suppliers.Syncer(),
		sh.Customers.Syncer(),
		sh.Sales.Syncer(),
		sh.Purchases.Syncer(),
		sh.Payments.engine,
	}
}

// RegisterAutoSync registers one sync job per entity kind with the
// scheduler: push everything pending, then pull-and-reconcile.
func (sh *Shop) RegisterAutoSync(a *daemon.AutoSync) {
	for _, s := range sh.Syncers() {
		s := s
		a.Register(s.Kind(), func(ctx context.Context) error {
			if _, _, err := s.SyncAll(ctx); err != nil {
				return err
			}
			return s.Pull(ctx)
		})
	}
}

// WatchRemote subscribes every entity kind to remote changes so edits
// from other devices are pulled in as they happen. The returned stop
// function cancels all subscriptions.
func (sh *Shop) WatchRemote(ctx context.Context, interval time.Duration) (stop func()) {
	stops := make([]func(), 0, len(sh.Syncers()))
	for _, s := range sh.Syncers() {
		stops = append(stops, s.Watch(ctx, interval))
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// SyncAll pushes every pending record of every kind and returns the
// aggregate counts. Used by the manual sync command.
func (sh *Shop) SyncAll(ctx context.Context) (pushed, failed int, err error) {
	for _, s := range sh.Syncers() {
		p, f, err := s.SyncAll(ctx)
		if err != nil {
			return pushed, failed, fmt.Errorf("sync-all for %s: %w", s.Kind(), err)
		}
		pushed += p
		failed += f
	}
	return pushed, failed, nil
}

// PendingCounts returns the per-kind pending record counts.
func (sh *Shop) PendingCounts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int)
	for _, s := range sh.Syncers() {
		n, err := s.PendingCount(ctx)
		if err != nil {
			return nil, fmt.Errorf("pending count for %s: %w", s.Kind(), err)
		}
		out[s.Kind()] = n
	}
	return out, nil
}

// Wait blocks until all background pushes, pulls, and ledger appends
// finish. Used for graceful shutdown and by tests.
func (sh *Shop) Wait() {
	sh.Categories.Wait()
	sh.Products.Wait()
	sh.Suppliers.Wait()
	sh.Customers.Wait()
	sh.Sales.Wait()
	sh.Purchases.Wait()
	sh.Payments.engine.Wait()
	sh.wg.Wait()
}

// appendEntry writes a ledger entry to the remote collection in the
// background. The entity write it follows has already committed
// locally; a failed append is logged and left for manual repair.
func (sh *Shop) appendEntry(e ledger.Entry) {
	sh.wg.Add(1)
	go func() {
		defer sh.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()
		if err := sh.ledger.Append(ctx, e); err != nil {
			sh.logger.Printf("WARNING: ledger append failed for %s: %v", e.AccountID, err)
		}
	}()
}

// accountKey is the identifier ledger entries use to reference an
// account: the remote id once assigned, the local id before that.
func accountKey(m *schema.Meta) string {
	if m.RemoteID != "" {
		return m.RemoteID
	}
	return m.LocalID
}

// newInvoiceNo generates an invoice number: prefix, date, random hex
// suffix. Uniqueness relies on the suffix, same as local record ids.
func newInvoiceNo(prefix string, date time.Time) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%s-%s", prefix, date.Format("20060102"), hex.EncodeToString(buf))
}

package shop

import (
	"context"
	"log"

	"github.com/thantzaw/pocketpos/internal/localdb"
	"github.com/thantzaw/pocketpos/internal/remotedb"
	"github.com/thantzaw/pocketpos/internal/schema"
	possync "github.com/thantzaw/pocketpos/internal/sync"
)

// patch is a typed partial update for one record type.
type patch[T any] interface {
	Validate() error
	Apply(T)
}

// service is the engine wrapper shared by every entity service: typed
// create, patch-based update, and the read/delete/sync passthroughs.
type service[T schema.Record, P patch[T]] struct {
	engine *possync.Engine[T]
}

func newService[T schema.Record, P patch[T]](db *localdb.DB, store remotedb.Store, online func() bool, logger *log.Logger, kind string, newRecord func() T) service[T, P] {
	return service[T, P]{
		engine: possync.New(kind,
			db.Table(kind),
			store.Collection(kind),
			online,
			newRecord,
			logger),
	}
}

// Create writes the record locally and schedules a background push.
func (s *service[T, P]) Create(ctx context.Context, rec T) (string, error) {
	return s.engine.Create(ctx, rec)
}

// Update applies the patch to the stored record. The patch is validated
// first, then the patched record as a whole.
func (s *service[T, P]) Update(ctx context.Context, localID string, p P) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.engine.Update(ctx, localID, func(rec T) error {
		p.Apply(rec)
		return rec.Validate()
	})
}

// Delete removes the record locally; a missing record is a no-op.
func (s *service[T, P]) Delete(ctx context.Context, localID string) error {
	return s.engine.Delete(ctx, localID)
}

// Get returns one record by local id.
func (s *service[T, P]) Get(ctx context.Context, localID string) (T, error) {
	return s.engine.Get(ctx, localID)
}

// List returns all local records, newest first, and triggers a
// background pull.
func (s *service[T, P]) List(ctx context.Context) ([]T, error) {
	return s.engine.ListAll(ctx)
}

// PendingCount returns the number of records awaiting push.
func (s *service[T, P]) PendingCount(ctx context.Context) (int, error) {
	return s.engine.PendingCount(ctx)
}

// Syncer exposes the kind-agnostic sync interface for scheduling.
func (s *service[T, P]) Syncer() possync.Syncer {
	return s.engine
}

// Wait blocks until the engine's background work finishes.
func (s *service[T, P]) Wait() {
	s.engine.Wait()
}

package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	gosync "sync"
	"time"

	"github.com/thantzaw/pocketpos/internal/localdb"
	"github.com/thantzaw/pocketpos/internal/remotedb"
	"github.com/thantzaw/pocketpos/internal/schema"
)

// ErrNotFound is returned by Update when no local record exists for the
// requested local id.
var ErrNotFound = errors.New("sync: record not found")

// pushTimeout bounds a single background push or pull pass.
const pushTimeout = 30 * time.Second

// Engine is the per-entity sync engine. T is the concrete record type,
// e.g. *schema.Supplier.
//
// One Engine exists per entity kind. Local writes are serialized by an
// internal mutex; remote I/O happens outside the lock so a slow network
// never blocks local operations.
type Engine[T schema.Record] struct {
	kind      string
	local     *localdb.Table
	remote    remotedb.Collection
	online    func() bool
	newRecord func() T
	logger    *log.Logger

	mu       gosync.Mutex
	bg       gosync.WaitGroup
	inflight map[string]bool // local ids with a background push running
	rerun    map[string]bool // pushes requested while one was in flight
}

// New creates an Engine for one entity kind.
//
// online reports current connectivity; it gates only the fire-and-forget
// remote delete, never local writes. newRecord returns a fresh zero
// record for decoding. If logger is nil, a default logger writing to
// stderr is used.
//
// Example:
//
//	engine := sync.New(schema.KindSupplier,
//	    db.Table(schema.KindSupplier),
//	    store.Collection(schema.KindSupplier),
//	    monitor.Online,
//	    func() *schema.Supplier { return &schema.Supplier{} },
//	    nil)
func New[T schema.Record](kind string, local *localdb.Table, remote remotedb.Collection, online func() bool, newRecord func() T, logger *log.Logger) *Engine[T] {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync:"+kind+"] ", log.LstdFlags)
	}
	if online == nil {
		online = func() bool { return true }
	}
	return &Engine[T]{
		kind:      kind,
		local:     local,
		remote:    remote,
		online:    online,
		newRecord: newRecord,
		logger:    logger,
		inflight:  make(map[string]bool),
		rerun:     make(map[string]bool),
	}
}

// Kind implements Syncer.
func (e *Engine[T]) Kind() string { return e.kind }

// Create validates the record, assigns a fresh local id, writes it to
// the local store as pending, and schedules a background push. The local
// id is returned immediately; the caller never waits on network I/O.
func (e *Engine[T]) Create(ctx context.Context, rec T) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	meta := rec.SyncMeta()
	meta.LocalID = schema.NewLocalID()
	meta.RemoteID = ""
	meta.Status = schema.StatusPending
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}

	e.mu.Lock()
	err := e.putLocal(ctx, rec)
	e.mu.Unlock()
	if err != nil {
		return "", err
	}

	e.schedulePush(meta.LocalID)
	return meta.LocalID, nil
}

// Update loads the record, applies mutate, forces it back to pending,
// persists locally and schedules a background push. Returns ErrNotFound
// if no local record exists; mutate errors (validation) abort before any
// write.
func (e *Engine[T]) Update(ctx context.Context, localID string, mutate func(T) error) error {
	e.mu.Lock()
	rec, err := e.getLocal(ctx, localID)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	if err := mutate(rec); err != nil {
		e.mu.Unlock()
		return err
	}

	rec.SyncMeta().Status = schema.StatusPending
	err = e.putLocal(ctx, rec)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.schedulePush(localID)
	return nil
}

// Delete removes the record from the local store. A missing record is a
// silent no-op. If the record has a remote id and the system is online,
// a fire-and-forget remote delete is issued; its failure is logged,
// never surfaced, never retried.
func (e *Engine[T]) Delete(ctx context.Context, localID string) error {
	e.mu.Lock()
	row, err := e.local.Get(ctx, localID)
	if errors.Is(err, localdb.ErrNotFound) {
		e.mu.Unlock()
		return nil
	}
	if err != nil {
		e.mu.Unlock()
		return err
	}

	if err := e.local.Delete(ctx, localID); err != nil {
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	if row.RemoteID != "" && e.online() {
		remoteID := row.RemoteID
		e.bg.Add(1)
		go func() {
			defer e.bg.Done()
			bgCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
			defer cancel()
			if err := e.remote.Delete(bgCtx, remoteID); err != nil {
				e.logger.Printf("WARNING: remote delete failed for %s: %v", remoteID, err)
			}
		}()
	}

	return nil
}

// Get returns a single record by local id, without touching the network.
func (e *Engine[T]) Get(ctx context.Context, localID string) (T, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getLocal(ctx, localID)
}

// ListAll triggers a non-blocking pull-and-reconcile and returns all
// local records sorted by creation time descending. The caller always
// gets current local state without waiting on network latency; pull
// results become visible on a subsequent call.
func (e *Engine[T]) ListAll(ctx context.Context) ([]T, error) {
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := e.Pull(bgCtx); err != nil {
			e.logger.Printf("WARNING: pull failed: %v", err)
		}
	}()

	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.local.All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := e.decode(row)
		if err != nil {
			e.logger.Printf("WARNING: skipping undecodable record %s: %v", row.LocalID, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// SyncAll implements Syncer. Every pending record is pushed
// sequentially; one failure does not abort the batch.
func (e *Engine[T]) SyncAll(ctx context.Context) (pushed, failed int, err error) {
	e.mu.Lock()
	rows, err := e.local.ByStatus(ctx, schema.StatusPending)
	e.mu.Unlock()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to scan pending records: %w", err)
	}

	for _, row := range rows {
		e.mu.Lock()
		busy := e.inflight[row.LocalID]
		e.mu.Unlock()
		if busy {
			continue // a background push already has this record
		}

		rec, err := e.decode(row)
		if err != nil {
			e.logger.Printf("WARNING: skipping undecodable record %s: %v", row.LocalID, err)
			failed++
			continue
		}
		if err := e.Push(ctx, rec); err != nil {
			e.logger.Printf("WARNING: push failed for %s: %v", row.LocalID, err)
			failed++
			continue
		}
		pushed++
	}

	if pushed > 0 || failed > 0 {
		e.logger.Printf("sync-all complete: pushed=%d failed=%d", pushed, failed)
	}
	return pushed, failed, nil
}

// PendingCount implements Syncer.
func (e *Engine[T]) PendingCount(ctx context.Context) (int, error) {
	return e.local.CountByStatus(ctx, schema.StatusPending)
}

// Push writes one record to the remote store: a create when the record
// has no remote id yet (capturing the server-assigned id, exactly once),
// an update otherwise. On success the record is marked synced and
// persisted locally; on failure it is left pending and the error is
// returned for the caller to log.
func (e *Engine[T]) Push(ctx context.Context, rec T) error {
	meta := rec.SyncMeta()

	payload, err := remotePayload(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", meta.LocalID, err)
	}

	if meta.RemoteID == "" {
		id, err := e.remote.Create(ctx, payload)
		if err != nil {
			return err
		}
		meta.RemoteID = id
	} else {
		if err := e.remote.Update(ctx, meta.RemoteID, payload); err != nil {
			return err
		}
	}

	meta.Status = schema.StatusSynced

	e.mu.Lock()
	defer e.mu.Unlock()

	// The record may have been deleted locally while the push was in
	// flight; persisting now would resurrect it.
	row, err := e.local.Get(ctx, meta.LocalID)
	if errors.Is(err, localdb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// The record changed locally while the push was in flight. Keep the
	// newer pending doc and record only the remote id, so the follow-up
	// push issues an update instead of a second create. The comparison
	// ignores the sync envelope; map marshaling sorts keys, so equal
	// payloads compare byte-equal.
	stored, err := stripEnvelope(row.Doc)
	if err != nil {
		return fmt.Errorf("failed to decode stored record %s: %w", meta.LocalID, err)
	}
	if string(stored) != string(payload) {
		row.RemoteID = meta.RemoteID
		return e.local.Put(ctx, row)
	}

	return e.putLocal(ctx, rec)
}

// Pull implements Syncer: one pull-and-reconcile pass.
//
// Remote-side deletions win: local synced records whose remote id is
// absent from the remote set are deleted. Remote-only records are
// inserted as new synced local records, but only when there are zero
// pending local records, so a record mid-push is never duplicated.
func (e *Engine[T]) Pull(ctx context.Context) error {
	docs, err := e.remote.ListOrdered(ctx, "created_at", true)
	if err != nil {
		return err
	}

	remoteIDs := make(map[string]bool, len(docs))
	for _, d := range docs {
		remoteIDs[d.ID] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.local.All(ctx)
	if err != nil {
		return err
	}

	pending := 0
	localByRemote := make(map[string]bool, len(rows))
	for _, row := range rows {
		if row.RemoteID != "" {
			localByRemote[row.RemoteID] = true
		}
		if row.Status == schema.StatusPending {
			pending++
			continue
		}
		if row.RemoteID != "" && !remoteIDs[row.RemoteID] {
			if err := e.local.Delete(ctx, row.LocalID); err != nil {
				e.logger.Printf("WARNING: failed to drop remotely deleted record %s: %v", row.LocalID, err)
			}
		}
	}

	// Pending-guard: skip remote-only inserts while any local push may
	// still be outstanding.
	if pending > 0 {
		return nil
	}

	for _, doc := range docs {
		if localByRemote[doc.ID] {
			continue
		}

		rec := e.newRecord()
		if err := json.Unmarshal(doc.Data, rec); err != nil {
			e.logger.Printf("WARNING: skipping undecodable remote document %s: %v", doc.ID, err)
			continue
		}

		meta := rec.SyncMeta()
		meta.LocalID = schema.NewLocalID()
		meta.RemoteID = doc.ID
		meta.Status = schema.StatusSynced
		meta.CreatedAt = doc.CreatedAt

		if err := e.putLocal(ctx, rec); err != nil {
			e.logger.Printf("WARNING: failed to store pulled record %s: %v", doc.ID, err)
		}
	}

	return nil
}

// Watch subscribes to the remote collection and runs a pull whenever
// its contents change. The returned stop function cancels the
// subscription. Used by the daemon so remote edits from other devices
// land without waiting for the next reconnect.
func (e *Engine[T]) Watch(ctx context.Context, interval time.Duration) (stop func()) {
	return e.remote.Subscribe(ctx, interval, func([]*remotedb.Document) {
		pullCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := e.Pull(pullCtx); err != nil {
			e.logger.Printf("WARNING: pull after remote change failed: %v", err)
		}
	})
}

// Wait blocks until all in-flight background pushes and pulls finish.
// Used for graceful shutdown and by tests; background work is otherwise
// fire-and-forget.
func (e *Engine[T]) Wait() {
	e.bg.Wait()
}

// schedulePush spawns the background push for one record. At most one
// push per local id is in flight at a time; a write landing while one
// runs flags a rerun instead of spawning a second goroutine, so two
// quick writes can never both see an unassigned remote id and create
// duplicate remote documents.
func (e *Engine[T]) schedulePush(localID string) {
	e.mu.Lock()
	if e.inflight[localID] {
		e.rerun[localID] = true
		e.mu.Unlock()
		return
	}
	e.inflight[localID] = true
	e.mu.Unlock()

	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		for {
			e.pushPending(localID)

			e.mu.Lock()
			if e.rerun[localID] {
				delete(e.rerun, localID)
				e.mu.Unlock()
				continue
			}
			delete(e.inflight, localID)
			e.mu.Unlock()
			return
		}
	}()
}

// pushPending is one background push attempt. The record is re-read at
// push time so the push always carries the latest local state.
func (e *Engine[T]) pushPending(localID string) {
	ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
	defer cancel()

	e.mu.Lock()
	rec, err := e.getLocal(ctx, localID)
	e.mu.Unlock()
	if errors.Is(err, ErrNotFound) {
		return // deleted before the push ran
	}
	if err != nil {
		e.logger.Printf("WARNING: failed to load record %s for push: %v", localID, err)
		return
	}

	if rec.SyncMeta().Status != schema.StatusPending {
		return // an earlier push already confirmed this state
	}

	if err := e.Push(ctx, rec); err != nil {
		e.logger.Printf("WARNING: push failed for %s: %v", localID, err)
	}
}

// getLocal reads and decodes one record. Callers hold e.mu.
func (e *Engine[T]) getLocal(ctx context.Context, localID string) (T, error) {
	var zero T

	row, err := e.local.Get(ctx, localID)
	if errors.Is(err, localdb.ErrNotFound) {
		return zero, fmt.Errorf("%w: %s/%s", ErrNotFound, e.kind, localID)
	}
	if err != nil {
		return zero, err
	}

	return e.decode(row)
}

// putLocal encodes and stores one record. Callers hold e.mu.
func (e *Engine[T]) putLocal(ctx context.Context, rec T) error {
	meta := rec.SyncMeta()

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", meta.LocalID, err)
	}

	return e.local.Put(ctx, &localdb.Row{
		LocalID:   meta.LocalID,
		RemoteID:  meta.RemoteID,
		Status:    meta.Status,
		CreatedAt: meta.CreatedAt,
		Doc:       doc,
	})
}

// decode builds a record from a stored row. The bookkeeping columns are
// authoritative over whatever the JSON says.
func (e *Engine[T]) decode(row *localdb.Row) (T, error) {
	rec := e.newRecord()
	if err := json.Unmarshal(row.Doc, rec); err != nil {
		var zero T
		return zero, err
	}

	meta := rec.SyncMeta()
	meta.LocalID = row.LocalID
	meta.RemoteID = row.RemoteID
	meta.Status = row.Status
	meta.CreatedAt = row.CreatedAt

	return rec, nil
}

// remotePayload strips the sync envelope from a record before it crosses
// the adapter boundary. The local identifier never reaches the remote
// store, and the remote id and status live in the store's own columns.
func remotePayload(rec schema.Record) (json.RawMessage, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return stripEnvelope(raw)
}

// stripEnvelope removes the sync bookkeeping fields from a marshaled
// record.
func stripEnvelope(raw json.RawMessage) (json.RawMessage, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	delete(m, "localId")
	delete(m, "id")
	delete(m, "syncStatus")

	return json.Marshal(m)
}

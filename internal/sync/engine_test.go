package sync

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thantzaw/pocketpos/internal/localdb"
	"github.com/thantzaw/pocketpos/internal/remotedb"
	"github.com/thantzaw/pocketpos/internal/schema"
)

// setupEngine creates a category engine over a temp local database and a
// memory remote store.
func setupEngine(t *testing.T) (*Engine[*schema.Category], *remotedb.MemoryStore, *remotedb.MemoryCollection) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "local.db")
	db, err := localdb.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open local database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	store := remotedb.NewMemoryStore()
	col := store.Mem(schema.KindCategory)

	engine := New(schema.KindCategory,
		db.Table(schema.KindCategory),
		col,
		func() bool { return store.Ping(context.Background()) == nil },
		func() *schema.Category { return &schema.Category{} },
		log.New(os.Stderr, "[test] ", 0))

	return engine, store, col
}

func mustCreate(t *testing.T, e *Engine[*schema.Category], name string) string {
	t.Helper()
	id, err := e.Create(context.Background(), &schema.Category{Name: name})
	if err != nil {
		t.Fatalf("Create(%s) failed: %v", name, err)
	}
	return id
}

func TestCreateIsLocalFirst(t *testing.T) {
	engine, store, col := setupEngine(t)
	store.SetOnline(false)

	localID := mustCreate(t, engine, "Chargers")
	engine.Wait()

	// The record must be visible locally despite the dead network.
	rec, err := engine.Get(context.Background(), localID)
	if err != nil {
		t.Fatalf("Get after offline create failed: %v", err)
	}
	if rec.Status != schema.StatusPending {
		t.Errorf("expected pending status, got %s", rec.Status)
	}
	if rec.RemoteID != "" {
		t.Errorf("expected empty remote id, got %q", rec.RemoteID)
	}
	if col.Len() != 0 {
		t.Errorf("expected no remote documents, got %d", col.Len())
	}
}

func TestCreatePushAssignsRemoteID(t *testing.T) {
	engine, _, col := setupEngine(t)

	localID := mustCreate(t, engine, "Cases")
	engine.Wait()

	rec, err := engine.Get(context.Background(), localID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Status != schema.StatusSynced {
		t.Errorf("expected synced status, got %s", rec.Status)
	}
	if rec.RemoteID == "" {
		t.Error("expected remote id to be assigned")
	}
	if col.Len() != 1 {
		t.Errorf("expected 1 remote document, got %d", col.Len())
	}
}

func TestPendingInvariant(t *testing.T) {
	engine, store, _ := setupEngine(t)

	store.SetOnline(false)
	mustCreate(t, engine, "Offline A")
	store.SetOnline(true)
	mustCreate(t, engine, "Online B")
	engine.Wait()

	recs, err := engine.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	engine.Wait()

	for _, rec := range recs {
		if rec.Status == schema.StatusSynced && rec.RemoteID == "" {
			t.Errorf("record %s is synced with empty remote id", rec.LocalID)
		}
		if rec.RemoteID == "" && rec.Status != schema.StatusPending {
			t.Errorf("record %s has empty remote id but status %s", rec.LocalID, rec.Status)
		}
	}
}

func TestCreateRejectsInvalidData(t *testing.T) {
	engine, _, _ := setupEngine(t)

	_, err := engine.Create(context.Background(), &schema.Category{})
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	count, err := engine.PendingCount(context.Background())
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no pending records after rejected create, got %d", count)
	}
}

func TestUpdateNotFound(t *testing.T) {
	engine, _, _ := setupEngine(t)

	err := engine.Update(context.Background(), "missing", func(c *schema.Category) error {
		c.Name = "anything"
		return nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateForcesPending(t *testing.T) {
	engine, store, _ := setupEngine(t)

	localID := mustCreate(t, engine, "Cables")
	engine.Wait()

	store.SetOnline(false)
	err := engine.Update(context.Background(), localID, func(c *schema.Category) error {
		c.Name = "USB Cables"
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	engine.Wait()

	rec, err := engine.Get(context.Background(), localID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Name != "USB Cables" {
		t.Errorf("expected updated name, got %q", rec.Name)
	}
	if rec.Status != schema.StatusPending {
		t.Errorf("expected pending after offline update, got %s", rec.Status)
	}
	if rec.RemoteID == "" {
		t.Error("remote id must survive the update")
	}
}

func TestPushIdempotent(t *testing.T) {
	engine, _, col := setupEngine(t)

	localID := mustCreate(t, engine, "Screen Protectors")
	engine.Wait()

	rec, err := engine.Get(context.Background(), localID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	remoteID := rec.RemoteID

	// Pushing an already-synced record twice must not duplicate the
	// remote document or touch the identifiers.
	for i := 0; i < 2; i++ {
		if err := engine.Push(context.Background(), rec); err != nil {
			t.Fatalf("Push %d failed: %v", i+1, err)
		}
	}

	after, err := engine.Get(context.Background(), localID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if after.RemoteID != remoteID {
		t.Errorf("remote id changed: %q -> %q", remoteID, after.RemoteID)
	}
	if after.Status != schema.StatusSynced {
		t.Errorf("expected synced, got %s", after.Status)
	}
	if col.Len() != 1 {
		t.Errorf("expected 1 remote document, got %d", col.Len())
	}
}

func TestDeleteOfflineSkipsRemote(t *testing.T) {
	engine, store, col := setupEngine(t)

	localID := mustCreate(t, engine, "Earphones")
	engine.Wait()

	store.SetOnline(false)
	if err := engine.Delete(context.Background(), localID); err != nil {
		t.Fatalf("offline Delete failed: %v", err)
	}
	engine.Wait()

	if _, err := engine.Get(context.Background(), localID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected record gone locally, got %v", err)
	}
	if col.DeleteCalls != 0 {
		t.Errorf("expected no remote delete attempts while offline, got %d", col.DeleteCalls)
	}
}

func TestDeleteOnlinePropagates(t *testing.T) {
	engine, _, col := setupEngine(t)

	localID := mustCreate(t, engine, "Power Banks")
	engine.Wait()

	if err := engine.Delete(context.Background(), localID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	engine.Wait()

	if col.Len() != 0 {
		t.Errorf("expected remote document removed, got %d left", col.Len())
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	engine, _, _ := setupEngine(t)

	if err := engine.Delete(context.Background(), "never-existed"); err != nil {
		t.Errorf("expected silent no-op, got %v", err)
	}
}

func TestPullRemoteDeletionWins(t *testing.T) {
	engine, _, col := setupEngine(t)

	localID := mustCreate(t, engine, "Holders")
	engine.Wait()

	rec, err := engine.Get(context.Background(), localID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Another device deletes the document remotely.
	if err := col.Delete(context.Background(), rec.RemoteID); err != nil {
		t.Fatalf("remote delete failed: %v", err)
	}

	if err := engine.Pull(context.Background()); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	if _, err := engine.Get(context.Background(), localID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected local record dropped after remote deletion, got %v", err)
	}
}

func TestPullInsertsRemoteOnlyRecords(t *testing.T) {
	engine, _, col := setupEngine(t)

	data, _ := json.Marshal(map[string]any{"name": "Imported", "createdAt": time.Now().UTC()})
	col.Seed("remote-123", time.Now().UTC(), data)

	if err := engine.Pull(context.Background()); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	recs, err := engine.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	engine.Wait()

	if len(recs) != 1 {
		t.Fatalf("expected 1 record after pull, got %d", len(recs))
	}
	got := recs[0]
	if got.Name != "Imported" {
		t.Errorf("expected imported name, got %q", got.Name)
	}
	if got.RemoteID != "remote-123" {
		t.Errorf("expected remote id carried over, got %q", got.RemoteID)
	}
	if got.Status != schema.StatusSynced {
		t.Errorf("expected synced, got %s", got.Status)
	}
	if got.LocalID == "" || got.LocalID == "remote-123" {
		t.Errorf("expected fresh local id, got %q", got.LocalID)
	}
}

func TestPullPendingGuardBlocksInserts(t *testing.T) {
	engine, store, col := setupEngine(t)

	store.SetOnline(false)
	mustCreate(t, engine, "Mid Push")
	engine.Wait()

	data, _ := json.Marshal(map[string]any{"name": "Concurrent Remote"})
	col.Seed("remote-456", time.Now().UTC(), data)
	store.SetOnline(true)

	if err := engine.Pull(context.Background()); err != nil {
		t.Fatalf("Pull failed: %v", err)
	}

	recs, err := engine.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	engine.Wait()

	if len(recs) != 1 {
		t.Fatalf("pending-guard violated: expected 1 local record, got %d", len(recs))
	}
	if recs[0].Name != "Mid Push" {
		t.Errorf("expected only the pending record, got %q", recs[0].Name)
	}
}

func TestSyncAllPushesEveryPending(t *testing.T) {
	engine, store, col := setupEngine(t)

	store.SetOnline(false)
	mustCreate(t, engine, "One")
	mustCreate(t, engine, "Two")
	engine.Wait()

	store.SetOnline(true)
	pushed, failed, err := engine.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll failed: %v", err)
	}
	if pushed != 2 || failed != 0 {
		t.Errorf("expected pushed=2 failed=0, got pushed=%d failed=%d", pushed, failed)
	}
	if col.Len() != 2 {
		t.Errorf("expected 2 remote documents, got %d", col.Len())
	}

	count, err := engine.PendingCount(context.Background())
	if err != nil {
		t.Fatalf("PendingCount failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no pending records after sync-all, got %d", count)
	}
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	engine, store, _ := setupEngine(t)

	store.SetOnline(false)
	mustCreate(t, engine, "A")
	mustCreate(t, engine, "B")
	engine.Wait()

	// Still offline: both pushes fail, neither aborts the batch.
	pushed, failed, err := engine.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll returned batch error: %v", err)
	}
	if pushed != 0 || failed != 2 {
		t.Errorf("expected pushed=0 failed=2, got pushed=%d failed=%d", pushed, failed)
	}

	count, _ := engine.PendingCount(context.Background())
	if count != 2 {
		t.Errorf("expected both records still pending, got %d", count)
	}
}

func TestListAllNewestFirst(t *testing.T) {
	engine, store, _ := setupEngine(t)
	store.SetOnline(false)

	first := &schema.Category{Name: "Older"}
	first.CreatedAt = time.Now().Add(-time.Hour).UTC()
	if _, err := engine.Create(context.Background(), first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	mustCreate(t, engine, "Newer")
	engine.Wait()

	recs, err := engine.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	engine.Wait()

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Name != "Newer" || recs[1].Name != "Older" {
		t.Errorf("expected newest first, got [%s, %s]", recs[0].Name, recs[1].Name)
	}
}

func TestWatchPullsRemoteChanges(t *testing.T) {
	engine, _, col := setupEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := engine.Watch(ctx, 5*time.Millisecond)
	defer stop()

	data, _ := json.Marshal(map[string]any{"name": "From Another Device"})
	col.Seed("remote-789", time.Now().UTC(), data)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		recs, err := engine.ListAll(context.Background())
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		if len(recs) == 1 && recs[0].RemoteID == "remote-789" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("remote change was never pulled into the local store")
}

func TestUpdateDuringCreatePushNoDuplicate(t *testing.T) {
	engine, _, col := setupEngine(t)
	ctx := context.Background()

	// The update lands while the create's background push may still be
	// in flight. Whatever the interleaving, the remote side must end up
	// with exactly one document, and it must carry the updated fields.
	localID := mustCreate(t, engine, "Stands")
	err := engine.Update(ctx, localID, func(c *schema.Category) error {
		c.Name = "Phone Stands"
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	engine.Wait()

	if col.CreateCalls != 1 {
		t.Errorf("expected 1 remote create, got %d", col.CreateCalls)
	}
	if col.Len() != 1 {
		t.Fatalf("expected 1 remote document, got %d", col.Len())
	}

	rec, err := engine.Get(ctx, localID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Status != schema.StatusSynced {
		t.Errorf("expected synced after pushes drained, got %s", rec.Status)
	}
	if rec.Name != "Phone Stands" {
		t.Errorf("expected updated name locally, got %q", rec.Name)
	}

	docs, err := col.ListOrdered(ctx, "created_at", true)
	if err != nil {
		t.Fatalf("ListOrdered failed: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(docs[0].Data, &m); err != nil {
		t.Fatalf("failed to decode remote payload: %v", err)
	}
	if m["name"] != "Phone Stands" {
		t.Errorf("remote document missing the update, got %v", m["name"])
	}
}

func TestLocalIDNeverSentRemote(t *testing.T) {
	engine, _, col := setupEngine(t)

	mustCreate(t, engine, "Boundary Check")
	engine.Wait()

	docs, err := col.ListOrdered(context.Background(), "created_at", true)
	if err != nil {
		t.Fatalf("ListOrdered failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	var m map[string]any
	if err := json.Unmarshal(docs[0].Data, &m); err != nil {
		t.Fatalf("failed to decode remote payload: %v", err)
	}
	for _, key := range []string{"localId", "syncStatus", "id"} {
		if _, ok := m[key]; ok {
			t.Errorf("remote payload leaked %q", key)
		}
	}
}

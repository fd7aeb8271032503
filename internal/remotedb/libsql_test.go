package remotedb

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

// openLocalLibSQL opens the libsql adapter over a temp file database.
// The driver speaks the same SQL against a local file as against a
// hosted instance, which is enough to test the adapter contract.
func openLocalLibSQL(t *testing.T) *LibSQLStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "remote.db")
	store, err := OpenLibSQL("file:"+path, "")
	if err != nil {
		t.Fatalf("failed to open libsql store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Ping(context.Background()); err != nil {
		t.Skipf("libsql driver unavailable: %v", err)
	}
	return store
}

func TestLibSQLUpdateMissingFails(t *testing.T) {
	store := openLocalLibSQL(t)
	col := store.Collection("categories")
	ctx := context.Background()

	id, err := col.Create(ctx, json.RawMessage(`{"name":"Chargers"}`))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Updating an id that never existed must surface an error, same as
	// the memory adapter, so a push against a vanished document fails
	// instead of silently succeeding.
	if err := col.Update(ctx, "no-such-id", json.RawMessage(`{"name":"Ghost"}`)); err == nil {
		t.Error("expected error updating a missing document, got nil")
	}

	if err := col.Update(ctx, id, json.RawMessage(`{"name":"USB Chargers"}`)); err != nil {
		t.Fatalf("Update of existing document failed: %v", err)
	}

	docs, err := col.ListOrdered(ctx, "created_at", false)
	if err != nil {
		t.Fatalf("ListOrdered failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	var m map[string]any
	if err := json.Unmarshal(docs[0].Data, &m); err != nil {
		t.Fatalf("failed to decode document: %v", err)
	}
	if m["name"] != "USB Chargers" {
		t.Errorf("expected updated name, got %v", m["name"])
	}
}

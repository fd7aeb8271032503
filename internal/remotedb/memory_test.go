package remotedb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestOfflineFailsEverything(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.SetOnline(false)
	col := store.Mem("suppliers")

	if _, err := col.Create(ctx, json.RawMessage(`{}`)); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Create: expected ErrUnavailable, got %v", err)
	}
	if err := col.Update(ctx, "x", json.RawMessage(`{}`)); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Update: expected ErrUnavailable, got %v", err)
	}
	if err := col.Delete(ctx, "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Delete: expected ErrUnavailable, got %v", err)
	}
	if _, err := col.ListOrdered(ctx, "created_at", true); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ListOrdered: expected ErrUnavailable, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ping: expected ErrUnavailable, got %v", err)
	}
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	ctx := context.Background()
	col := NewMemoryStore().Mem("suppliers")

	id1, err := col.Create(ctx, json.RawMessage(`{"name":"a"}`))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id2, err := col.Create(ctx, json.RawMessage(`{"name":"b"}`))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Errorf("expected distinct non-empty ids, got %q and %q", id1, id2)
	}
	if col.Len() != 2 {
		t.Errorf("expected 2 documents, got %d", col.Len())
	}
}

func TestUpdateMissingDocument(t *testing.T) {
	col := NewMemoryStore().Mem("suppliers")
	if err := col.Update(context.Background(), "ghost", json.RawMessage(`{}`)); err == nil {
		t.Error("expected update of a missing document to fail")
	}
}

func TestDeleteMissingIsIdempotent(t *testing.T) {
	col := NewMemoryStore().Mem("suppliers")
	if err := col.Delete(context.Background(), "ghost"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}

func TestListFilteredByField(t *testing.T) {
	ctx := context.Background()
	col := NewMemoryStore().Mem("ledger_entries")

	docs := []string{
		`{"accountId":"a1","date":"2026-03-01T00:00:00Z"}`,
		`{"accountId":"a2","date":"2026-03-02T00:00:00Z"}`,
		`{"accountId":"a1","date":"2026-03-03T00:00:00Z"}`,
	}
	for _, d := range docs {
		if _, err := col.Create(ctx, json.RawMessage(d)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := col.ListFiltered(ctx, "accountId", OpEqual, "a1", "date", false)
	if err != nil {
		t.Fatalf("ListFiltered failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}

	var first, second map[string]string
	if err := json.Unmarshal(got[0].Data, &first); err != nil {
		t.Fatalf("bad document: %v", err)
	}
	if err := json.Unmarshal(got[1].Data, &second); err != nil {
		t.Fatalf("bad document: %v", err)
	}
	if first["date"] >= second["date"] {
		t.Errorf("expected ascending date order, got %s then %s", first["date"], second["date"])
	}
}

func TestListFilteredComparisonOps(t *testing.T) {
	ctx := context.Background()
	col := NewMemoryStore().Mem("ledger_entries")

	for _, d := range []string{
		`{"date":"2026-03-01T00:00:00Z"}`,
		`{"date":"2026-03-05T00:00:00Z"}`,
		`{"date":"2026-03-09T00:00:00Z"}`,
	} {
		if _, err := col.Create(ctx, json.RawMessage(d)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	after, err := col.ListFiltered(ctx, "date", OpGreaterEqual, "2026-03-05T00:00:00Z", "date", false)
	if err != nil {
		t.Fatalf("ListFiltered failed: %v", err)
	}
	if len(after) != 2 {
		t.Errorf("expected 2 documents on or after the cutoff, got %d", len(after))
	}

	if _, err := col.ListFiltered(ctx, "date", "~", "x", "date", false); err == nil {
		t.Error("expected unsupported op to be rejected")
	}
}

func TestSubscribeDeliversChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	col := NewMemoryStore().Mem("categories")

	changes := make(chan int, 16)
	stop := col.Subscribe(ctx, 5*time.Millisecond, func(docs []*Document) {
		changes <- len(docs)
	})
	defer stop()

	if _, err := col.Create(ctx, json.RawMessage(`{"name":"x"}`)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// The first delivery may be the initial empty set; wait for the
	// change set that includes the new document.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-changes:
			if n == 1 {
				return
			}
		case <-deadline:
			t.Fatal("subscription never delivered the new document")
		}
	}
}

func TestCollectionReturnsSameInstance(t *testing.T) {
	store := NewMemoryStore()
	a := store.Mem("sales")
	b := store.Collection("sales")
	if a != b {
		t.Error("expected the same collection instance for one name")
	}
}

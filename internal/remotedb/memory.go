package remotedb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and by the sync
// engine's offline simulations. Flipping SetOnline(false) makes every
// operation fail with ErrUnavailable, the same way a dead network would.
type MemoryStore struct {
	mu          sync.Mutex
	online      bool
	collections map[string]*MemoryCollection
}

// NewMemoryStore creates an empty store in the online state.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		online:      true,
		collections: make(map[string]*MemoryCollection),
	}
}

// SetOnline toggles simulated connectivity for the whole store.
func (s *MemoryStore) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

// Ping fails with ErrUnavailable while the store is offline.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return ErrUnavailable
	}
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Collection returns the named collection, creating it on first use.
func (s *MemoryStore) Collection(name string) Collection {
	return s.Mem(name)
}

// Mem is Collection with the concrete type, so tests can reach the
// call counters and seeding helpers.
func (s *MemoryStore) Mem(name string) *MemoryCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		c = &MemoryCollection{store: s}
		s.collections[name] = c
	}
	return c
}

// MemoryCollection holds documents in insertion order and counts calls
// for test assertions.
type MemoryCollection struct {
	store *MemoryStore

	mu   sync.Mutex
	docs []*Document

	CreateCalls int
	UpdateCalls int
	DeleteCalls int
	ListCalls   int
}

func (c *MemoryCollection) offline() bool {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return !c.store.online
}

// Seed inserts a document directly, bypassing the online check and the
// call counters. Tests use it to stand up remote state.
func (c *MemoryCollection) Seed(id string, createdAt time.Time, data json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = append(c.docs, &Document{ID: id, CreatedAt: createdAt, Data: data})
}

// Len returns the current document count.
func (c *MemoryCollection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *MemoryCollection) Create(ctx context.Context, data json.RawMessage) (string, error) {
	c.mu.Lock()
	c.CreateCalls++
	c.mu.Unlock()

	if c.offline() {
		return "", ErrUnavailable
	}

	id := uuid.NewString()
	c.mu.Lock()
	c.docs = append(c.docs, &Document{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Data:      append(json.RawMessage(nil), data...),
	})
	c.mu.Unlock()

	return id, nil
}

func (c *MemoryCollection) Update(ctx context.Context, id string, data json.RawMessage) error {
	c.mu.Lock()
	c.UpdateCalls++
	c.mu.Unlock()

	if c.offline() {
		return ErrUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.docs {
		if d.ID == id {
			d.Data = append(json.RawMessage(nil), data...)
			return nil
		}
	}
	return fmt.Errorf("document %s not found", id)
}

func (c *MemoryCollection) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	c.DeleteCalls++
	c.mu.Unlock()

	if c.offline() {
		return ErrUnavailable
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range c.docs {
		if d.ID == id {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

// fieldValue extracts a comparable string for a logical field.
func fieldValue(d *Document, field string) string {
	if field == "created_at" {
		return d.CreatedAt.Format(time.RFC3339Nano)
	}

	var m map[string]any
	if err := json.Unmarshal(d.Data, &m); err != nil {
		return ""
	}
	switch v := m[field].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c *MemoryCollection) snapshot(orderField string, descending bool) []*Document {
	c.mu.Lock()
	out := make([]*Document, len(c.docs))
	copy(out, c.docs)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := fieldValue(out[i], orderField), fieldValue(out[j], orderField)
		if descending {
			return a > b
		}
		return a < b
	})
	return out
}

func (c *MemoryCollection) ListOrdered(ctx context.Context, field string, descending bool) ([]*Document, error) {
	c.mu.Lock()
	c.ListCalls++
	c.mu.Unlock()

	if c.offline() {
		return nil, ErrUnavailable
	}
	return c.snapshot(field, descending), nil
}

func (c *MemoryCollection) ListFiltered(ctx context.Context, field, op string, value string, orderField string, descending bool) ([]*Document, error) {
	c.mu.Lock()
	c.ListCalls++
	c.mu.Unlock()

	if c.offline() {
		return nil, ErrUnavailable
	}

	var out []*Document
	for _, d := range c.snapshot(orderField, descending) {
		v := fieldValue(d, field)
		keep := false
		switch op {
		case OpEqual:
			keep = v == value
		case OpLess:
			keep = v < value
		case OpLessEqual:
			keep = v <= value
		case OpGreater:
			keep = v > value
		case OpGreaterEqual:
			keep = v >= value
		default:
			return nil, fmt.Errorf("unsupported filter op %q", op)
		}
		if keep {
			out = append(out, d)
		}
	}
	return out, nil
}

func (c *MemoryCollection) Subscribe(ctx context.Context, interval time.Duration, fn func([]*Document)) (stop func()) {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last string
		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				docs, err := c.ListOrdered(subCtx, "created_at", true)
				if err != nil {
					continue
				}
				fp := fingerprint(docs)
				if fp == last {
					continue
				}
				last = fp
				fn(docs)
			}
		}
	}()

	return cancel
}

// Package remotedb provides the remote document store consumed by the
// sync engines.
//
// The remote store is an eventually consistent mirror of local state. It
// is never read synchronously on the UI path: every call into this
// package happens behind the sync boundary, where failures are caught,
// logged and dropped rather than surfaced.
//
// Two implementations are provided: a libSQL-backed store for the hosted
// database the shop syncs against, and an in-memory store for tests and
// offline simulation.
package remotedb

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrUnavailable is returned when the remote store cannot be reached.
// Sync engines treat any error from this package as a sync failure, but
// tests use this sentinel to simulate network loss.
var ErrUnavailable = errors.New("remotedb: store unavailable")

// Document is one remote record: the server-assigned id, the remote
// creation timestamp, and the entity JSON. Dates inside Data are
// RFC-3339 strings; the conversion happens at this boundary.
type Document struct {
	ID        string
	CreatedAt time.Time
	Data      json.RawMessage
}

// Filter ops accepted by ListFiltered.
const (
	OpEqual        = "=="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreater      = ">"
	OpGreaterEqual = ">="
)

// Collection is a remote document collection for one entity kind.
//
// All methods may fail with network errors at any time; callers own the
// catch-and-log boundary.
type Collection interface {
	// Create inserts a new document and returns its server-assigned id.
	Create(ctx context.Context, data json.RawMessage) (string, error)

	// Update replaces the document with the given id.
	Update(ctx context.Context, id string, data json.RawMessage) error

	// Delete removes the document with the given id. Deleting a missing
	// document is not an error (idempotent).
	Delete(ctx context.Context, id string) error

	// ListOrdered returns the full collection ordered by a field.
	// The field "created_at" refers to the document creation timestamp;
	// any other field is looked up inside the document JSON.
	ListOrdered(ctx context.Context, field string, descending bool) ([]*Document, error)

	// ListFiltered returns documents where field op value holds, ordered
	// by orderField. Field lookup rules match ListOrdered.
	ListFiltered(ctx context.Context, field, op string, value string, orderField string, descending bool) ([]*Document, error)

	// Subscribe polls the collection and invokes fn with the full
	// document set whenever it changes. The returned stop function
	// cancels the subscription; it is safe to call more than once.
	Subscribe(ctx context.Context, interval time.Duration, fn func([]*Document)) (stop func())
}

// Store hands out collections and answers reachability probes.
type Store interface {
	Collection(name string) Collection

	// Ping reports whether the remote store is currently reachable. The
	// connectivity monitor uses this as its probe.
	Ping(ctx context.Context) error

	Close() error
}

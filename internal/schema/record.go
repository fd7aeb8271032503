package schema

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// SyncStatus tracks whether a record's local state has been confirmed
// persisted remotely.
type SyncStatus string

const (
	// StatusPending means the local state has not been confirmed remote.
	StatusPending SyncStatus = "pending"
	// StatusSynced means the last known local state matches a
	// successfully written remote document.
	StatusSynced SyncStatus = "synced"
)

// Meta is the sync envelope embedded in every entity record.
//
// LocalID is the stable primary key in the local store, assigned once at
// creation and never reassigned. RemoteID is empty until the first
// successful push; once assigned it never changes.
type Meta struct {
	LocalID   string     `json:"localId"`
	RemoteID  string     `json:"id"`
	Status    SyncStatus `json:"syncStatus"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SyncMeta returns the embedded envelope. It exists so entity types
// satisfy Record through embedding.
func (m *Meta) SyncMeta() *Meta { return m }

// Record is implemented by every syncable entity type.
type Record interface {
	SyncMeta() *Meta
	Validate() error
}

// NewLocalID generates a client-side identifier: a unix-millisecond
// timestamp with a random hex suffix. Collisions are negligible for
// single-device use, and the timestamp prefix keeps ids roughly ordered
// by creation time.
func NewLocalID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}

// ValidationError reports caller-supplied data failing shape constraints.
// It is surfaced synchronously, before any store write occurs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

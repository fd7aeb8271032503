// Package schema defines the entity records stored in the local database
// and mirrored to the remote store.
//
// Every entity embeds Meta, the sync envelope shared by all record types:
// a client-generated local identifier (the local store primary key), the
// server-assigned remote identifier (empty until the first successful
// push), and the sync status.
//
// Records are written local-first: the local store is the source of truth
// for reads, and the remote store is an eventually consistent mirror. The
// invariant maintained throughout is that a record marked synced always
// carries a non-empty remote id, and a record with an empty remote id is
// always pending.
//
// Updates go through explicit per-entity patch types with pointer fields
// rather than untyped merges, so every field change is validated before it
// touches the store.
package schema

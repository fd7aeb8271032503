// Package sync implements the offline-first synchronization engine shared
// by every entity type.
//
// Each entity kind (categories, suppliers, customers, products, sales,
// purchases, payments) gets one Engine instance wired to its local table
// and remote collection. The engine enforces the local-first contract:
//
//  1. Create/Update/Delete write the local store synchronously and return
//     before any network I/O. The caller never waits on the remote store
//     and local operations cannot fail due to network unavailability.
//  2. After a local write, a background push is scheduled. On success the
//     record flips to synced and the server-assigned remote id is
//     captured; on failure the record stays pending and the error is
//     logged. There is no retry until the next sync trigger.
//  3. ListAll kicks off a non-blocking pull-and-reconcile and returns
//     current local state immediately; pull results become visible on a
//     subsequent call.
//  4. SyncAll pushes every pending record sequentially, isolating
//     per-record failures, and is driven by the reconnect scheduler or a
//     manual sync command.
//
// Pull-and-reconcile merges remote state into the local store: local
// synced records whose remote id is gone from the remote set are deleted
// (remote-side deletion wins), and remote-only records are inserted as
// new synced local records, but only when zero local pending records
// exist. That pending-guard is a deliberate simplification: it skips
// picking up concurrent remote inserts while pushes are outstanding, in
// exchange for never duplicating a record that is mid-push.
//
// Sync failures never propagate to callers of the local write path. The
// only user-visible signal is the pending record count.
package sync

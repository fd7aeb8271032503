package sync

import (
	"context"
	"time"
)

// Syncer is the kind-agnostic face of an Engine, used by the auto-sync
// scheduler and the CLI, which iterate over every entity type without
// caring about the concrete record type.
type Syncer interface {
	// Kind returns the entity kind this syncer owns, e.g. "suppliers".
	Kind() string

	// SyncAll pushes every locally pending record sequentially. A failed
	// push is logged and counted but does not abort the batch. The
	// returned error covers only the local pending scan; push failures
	// are reported through the failed count.
	SyncAll(ctx context.Context) (pushed, failed int, err error)

	// PendingCount returns the number of records not yet confirmed
	// remote. This is the aggregate indicator surfaced to users.
	PendingCount(ctx context.Context) (int, error)

	// Pull runs one pull-and-reconcile pass synchronously. ListAll runs
	// the same pass in the background; this entry point exists for the
	// daemon and for deterministic tests.
	Pull(ctx context.Context) error

	// Watch pulls whenever the remote collection changes, until the
	// returned stop function is called.
	Watch(ctx context.Context, interval time.Duration) (stop func())
}

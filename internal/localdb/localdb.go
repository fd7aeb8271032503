// Package localdb provides the embedded SQLite store that backs all
// entity tables on the device.
//
// The local database is the sole source of truth for reads: every entity
// write lands here synchronously before any network I/O is attempted, so
// the application keeps working with no connectivity at all.
//
// All entity kinds share one records table scoped by kind, keyed by the
// client-generated local id, with the JSON document stored alongside the
// sync bookkeeping columns. An index on (kind, sync_status) makes the
// pending scans used by sync-all cheap.
//
// The database runs in WAL mode for concurrent readers during writes,
// using the pure-Go ncruces/go-sqlite3 driver.
package localdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/thantzaw/pocketpos/internal/schema"
)

// ErrNotFound is returned by Table.Get when no row exists for the
// requested local id.
var ErrNotFound = errors.New("localdb: record not found")

// DB wraps the SQLite connection for the local record store.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a connection to the local database at the specified path,
// creating the parent directory if needed.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	db, err := localdb.Open(".pocketpos/local.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	// WAL for concurrent reads during background pushes.
	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Close closes the database connection after checkpointing the WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the records table if it doesn't exist. Idempotent.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS records (
		kind        TEXT NOT NULL,
		local_id    TEXT NOT NULL,
		remote_id   TEXT NOT NULL DEFAULT '',
		sync_status TEXT NOT NULL DEFAULT 'pending',
		created_at  TEXT NOT NULL,
		doc         TEXT NOT NULL,
		PRIMARY KEY (kind, local_id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_status ON records(kind, sync_status);
	CREATE INDEX IF NOT EXISTS idx_records_remote ON records(kind, remote_id);
	`

	if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Table returns a view of the records table scoped to one entity kind.
func (db *DB) Table(kind string) *Table {
	return &Table{db: db, kind: kind}
}

// Row is one stored record: the sync bookkeeping columns plus the JSON
// document.
type Row struct {
	LocalID   string
	RemoteID  string
	Status    schema.SyncStatus
	CreatedAt time.Time
	Doc       []byte
}

// Table is a per-kind view of the local record store.
type Table struct {
	db   *DB
	kind string
}

// Kind returns the entity kind this table is scoped to.
func (t *Table) Kind() string { return t.kind }

// Get retrieves a record by local id. Returns ErrNotFound if absent.
func (t *Table) Get(ctx context.Context, localID string) (*Row, error) {
	query := `
	SELECT local_id, remote_id, sync_status, created_at, doc
	FROM records
	WHERE kind = ? AND local_id = ?
	`

	row, err := scanRow(t.db.conn.QueryRowContext(ctx, query, t.kind, localID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s/%s: %w", t.kind, localID, err)
	}
	return row, nil
}

// Put inserts or replaces a record. Last writer wins; there is no
// optimistic concurrency control on the local store.
func (t *Table) Put(ctx context.Context, r *Row) error {
	query := `
	INSERT INTO records (kind, local_id, remote_id, sync_status, created_at, doc)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(kind, local_id) DO UPDATE SET
		remote_id   = excluded.remote_id,
		sync_status = excluded.sync_status,
		doc         = excluded.doc
	`

	_, err := t.db.conn.ExecContext(ctx, query,
		t.kind,
		r.LocalID,
		r.RemoteID,
		string(r.Status),
		r.CreatedAt.Format(time.RFC3339Nano),
		string(r.Doc),
	)
	if err != nil {
		return fmt.Errorf("failed to put record %s/%s: %w", t.kind, r.LocalID, err)
	}
	return nil
}

// Delete removes a record. Returns nil if the record doesn't exist
// (idempotent).
func (t *Table) Delete(ctx context.Context, localID string) error {
	query := `DELETE FROM records WHERE kind = ? AND local_id = ?`
	if _, err := t.db.conn.ExecContext(ctx, query, t.kind, localID); err != nil {
		return fmt.Errorf("failed to delete record %s/%s: %w", t.kind, localID, err)
	}
	return nil
}

// All returns every record of this kind, newest first.
func (t *Table) All(ctx context.Context) ([]*Row, error) {
	query := `
	SELECT local_id, remote_id, sync_status, created_at, doc
	FROM records
	WHERE kind = ?
	ORDER BY created_at DESC
	`

	rows, err := t.db.conn.QueryContext(ctx, query, t.kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list records for %s: %w", t.kind, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// ByStatus returns every record of this kind with the given sync status,
// oldest first so sync-all pushes in creation order.
func (t *Table) ByStatus(ctx context.Context, status schema.SyncStatus) ([]*Row, error) {
	query := `
	SELECT local_id, remote_id, sync_status, created_at, doc
	FROM records
	WHERE kind = ? AND sync_status = ?
	ORDER BY created_at ASC
	`

	rows, err := t.db.conn.QueryContext(ctx, query, t.kind, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records for %s: %w", status, t.kind, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// CountByStatus returns the number of records with the given sync status.
// The pending count is the only sync signal surfaced to users.
func (t *Table) CountByStatus(ctx context.Context, status schema.SyncStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM records WHERE kind = ? AND sync_status = ?`
	err := t.db.conn.QueryRowContext(ctx, query, t.kind, string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s records for %s: %w", status, t.kind, err)
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRow(s scannable) (*Row, error) {
	var r Row
	var status, createdAt, doc string

	if err := s.Scan(&r.LocalID, &r.RemoteID, &status, &createdAt, &doc); err != nil {
		return nil, err
	}

	r.Status = schema.SyncStatus(status)
	r.Doc = []byte(doc)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		r.CreatedAt = t
	}

	return &r, nil
}

func scanRows(rows *sql.Rows) ([]*Row, error) {
	var out []*Row

	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return out, nil
}

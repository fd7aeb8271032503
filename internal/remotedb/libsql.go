package remotedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"
)

// collection names come from schema kind constants, but guard anyway
// since names are interpolated into DDL.
var validCollectionName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// LibSQLStore is the hosted remote store, backed by a Turso/libSQL
// database reached over the network.
//
// Each collection maps to one table (id TEXT PRIMARY KEY, created_at
// TEXT, doc TEXT), created lazily on first use. Filtering on document
// fields uses json_extract over the doc column.
type LibSQLStore struct {
	conn *sql.DB

	mu      sync.Mutex
	created map[string]bool // collections whose table is known to exist
}

// OpenLibSQL connects to a remote libSQL database.
//
// The URL is a libsql:// database URL; authToken may be empty for
// unauthenticated local instances.
//
// Example:
//
//	store, err := remotedb.OpenLibSQL("libsql://shop-thantzaw.turso.io", token)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func OpenLibSQL(url, authToken string) (*LibSQLStore, error) {
	dsn := url
	if authToken != "" {
		dsn = fmt.Sprintf("%s?authToken=%s", url, authToken)
	}

	conn, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetConnMaxIdleTime(time.Minute)

	return &LibSQLStore{
		conn:    conn,
		created: make(map[string]bool),
	}, nil
}

// Ping reports whether the remote database is reachable right now.
func (s *LibSQLStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close closes the remote connection.
func (s *LibSQLStore) Close() error {
	return s.conn.Close()
}

// Collection returns the collection with the given name. Panics on a
// malformed name; names are compile-time constants in practice.
func (s *LibSQLStore) Collection(name string) Collection {
	if !validCollectionName.MatchString(name) {
		panic(fmt.Sprintf("remotedb: invalid collection name %q", name))
	}
	return &libsqlCollection{store: s, table: "col_" + name}
}

type libsqlCollection struct {
	store *LibSQLStore
	table string
}

// ensureTable creates the collection table on first use.
func (c *libsqlCollection) ensureTable(ctx context.Context) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.store.created[c.table] {
		return nil
	}

	ddl := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id         TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		doc        TEXT NOT NULL
	)`, c.table)

	if _, err := c.store.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", c.table, err)
	}

	c.store.created[c.table] = true
	return nil
}

func (c *libsqlCollection) Create(ctx context.Context, data json.RawMessage) (string, error) {
	if err := c.ensureTable(ctx); err != nil {
		return "", err
	}

	id := uuid.NewString()
	query := fmt.Sprintf(`INSERT INTO %s (id, created_at, doc) VALUES (?, ?, ?)`, c.table)

	_, err := c.store.conn.ExecContext(ctx, query,
		id, time.Now().UTC().Format(time.RFC3339Nano), string(data))
	if err != nil {
		return "", fmt.Errorf("failed to create document in %s: %w", c.table, err)
	}

	return id, nil
}

func (c *libsqlCollection) Update(ctx context.Context, id string, data json.RawMessage) error {
	if err := c.ensureTable(ctx); err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET doc = ? WHERE id = ?`, c.table)
	res, err := c.store.conn.ExecContext(ctx, query, string(data), id)
	if err != nil {
		return fmt.Errorf("failed to update document %s in %s: %w", id, c.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s not found in %s", id, c.table)
	}
	return nil
}

func (c *libsqlCollection) Delete(ctx context.Context, id string) error {
	if err := c.ensureTable(ctx); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, c.table)
	if _, err := c.store.conn.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete document %s from %s: %w", id, c.table, err)
	}
	return nil
}

// orderExpr maps a logical field to a SQL ordering expression.
func (c *libsqlCollection) orderExpr(field string) string {
	if field == "created_at" {
		return "created_at"
	}
	return fmt.Sprintf("json_extract(doc, '$.%s')", field)
}

func direction(descending bool) string {
	if descending {
		return "DESC"
	}
	return "ASC"
}

func (c *libsqlCollection) ListOrdered(ctx context.Context, field string, descending bool) ([]*Document, error) {
	if err := c.ensureTable(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, created_at, doc FROM %s ORDER BY %s %s`,
		c.table, c.orderExpr(field), direction(descending))

	rows, err := c.store.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.table, err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

func (c *libsqlCollection) ListFiltered(ctx context.Context, field, op string, value string, orderField string, descending bool) ([]*Document, error) {
	if err := c.ensureTable(ctx); err != nil {
		return nil, err
	}

	var sqlOp string
	switch op {
	case OpEqual:
		sqlOp = "="
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		sqlOp = op
	default:
		return nil, fmt.Errorf("unsupported filter op %q", op)
	}

	query := fmt.Sprintf(`SELECT id, created_at, doc FROM %s WHERE %s %s ? ORDER BY %s %s`,
		c.table, c.orderExpr(field), sqlOp, c.orderExpr(orderField), direction(descending))

	rows, err := c.store.conn.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("failed to filter %s: %w", c.table, err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// Subscribe polls the collection at the given interval and delivers the
// full document set whenever the contents change. Poll errors are
// swallowed; the next tick tries again.
func (c *libsqlCollection) Subscribe(ctx context.Context, interval time.Duration, fn func([]*Document)) (stop func()) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var lastFingerprint string
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
				if fp == lastFingerprint {
					continue
				}
				lastFingerprint = fp
				fn(docs)
			}
		}
	}()

	return cancel
}

// fingerprint is a cheap change detector over a document set.
func fingerprint(docs []*Document) string {
	newest := ""
	if len(docs) > 0 {
		newest = docs[0].ID + docs[0].CreatedAt.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%d|%s", len(docs), newest)
}

func scanDocuments(rows *sql.Rows) ([]*Document, error) {
	var docs []*Document

	for rows.Next() {
		var d Document
		var createdAt, doc string

		if err := rows.Scan(&d.ID, &createdAt, &doc); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			d.CreatedAt = t
		}
		d.Data = json.RawMessage(doc)

		docs = append(docs, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

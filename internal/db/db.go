// Package db implements the document store on SQLite, including the
// change-notification broker behind store.Store subscriptions.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver with database/sql
	"github.com/oklog/ulid/v2"

	"github.com/go-ports/teamflow/internal/store"
)

// DB is a SQLite-backed store.Store. One row per document; fields are kept
// as a JSON blob so collections stay schema-less.
type DB struct {
	db   *sql.DB
	path string

	broker broker
}

// Open opens (or creates) the document database at path and initialises the
// schema.
func Open(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("db.Open: %w", err)
	}
	d := &DB{db: sqldb, path: path}
	if err := d.createSchema(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db.Open createSchema: %w", err)
	}
	return d, nil
}

// Close tears down all subscriptions and closes the database.
func (d *DB) Close() error {
	d.closeAll()
	return d.db.Close()
}

func (d *DB) createSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			fields     TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		`CREATE INDEX IF NOT EXISTS documents_collection ON documents (collection)`,
	}
	for _, s := range stmts {
		if _, err := d.db.Exec(s); err != nil {
			return fmt.Errorf("createSchema exec: %w\nSQL: %s", err, s)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// GetDocument fetches a single document by id. A miss is (nil, false, nil).
func (d *DB) GetDocument(ctx context.Context, collection, id string) (store.Record, bool, error) {
	var raw string
	err := d.db.QueryRowContext(ctx,
		`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("GetDocument: %w", err)
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return nil, false, fmt.Errorf("GetDocument: %w", err)
	}
	return fields, true, nil
}

// QueryDocuments returns all documents in collection matching q.
func (d *DB) QueryDocuments(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	docs, err := d.scanCollection(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("QueryDocuments: %w", err)
	}
	return q.Apply(docs), nil
}

// scanCollection reads every document of a collection in insertion order.
func (d *DB) scanCollection(ctx context.Context, collection string) ([]store.Document, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, fields FROM documents WHERE collection = ? ORDER BY rowid`,
		collection,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("doc %s: %w", id, err)
		}
		docs = append(docs, store.Document{ID: id, Fields: fields})
	}
	return docs, rows.Err()
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// SetDocument writes a document under a caller-chosen id, merging into any
// existing fields when merge is set.
func (d *DB) SetDocument(ctx context.Context, collection, id string, fields store.Record, merge bool) error {
	d.broker.mu.Lock()
	defer d.broker.mu.Unlock()

	existing, found, err := d.GetDocument(ctx, collection, id)
	if err != nil {
		return fmt.Errorf("SetDocument: %w", err)
	}
	if !merge || !found {
		existing = nil
	}
	if err := d.writeDoc(ctx, d.db, collection, id, store.ApplyUpdate(existing, fields), found); err != nil {
		return fmt.Errorf("SetDocument: %w", err)
	}
	d.notifyLocked(ctx, collection)
	return nil
}

// UpdateDocument merges fields into an existing document.
// Returns store.ErrNotFound when the document does not exist.
func (d *DB) UpdateDocument(ctx context.Context, collection, id string, fields store.Record) error {
	d.broker.mu.Lock()
	defer d.broker.mu.Unlock()

	existing, found, err := d.GetDocument(ctx, collection, id)
	if err != nil {
		return fmt.Errorf("UpdateDocument: %w", err)
	}
	if !found {
		return fmt.Errorf("UpdateDocument %s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err := d.writeDoc(ctx, d.db, collection, id, store.ApplyUpdate(existing, fields), true); err != nil {
		return fmt.Errorf("UpdateDocument: %w", err)
	}
	d.notifyLocked(ctx, collection)
	return nil
}

// AddDocument writes a document under a freshly generated ULID.
func (d *DB) AddDocument(ctx context.Context, collection string, fields store.Record) (string, error) {
	id := strings.ToLower(ulid.Make().String())

	d.broker.mu.Lock()
	defer d.broker.mu.Unlock()

	if err := d.writeDoc(ctx, d.db, collection, id, store.ApplyUpdate(nil, fields), false); err != nil {
		return "", fmt.Errorf("AddDocument: %w", err)
	}
	d.notifyLocked(ctx, collection)
	return id, nil
}

// BatchWrite applies all ops in one transaction and notifies each affected
// collection once.
func (d *DB) BatchWrite(ctx context.Context, ops []store.WriteOp) error {
	if len(ops) == 0 {
		return nil
	}

	d.broker.mu.Lock()
	defer d.broker.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("BatchWrite begin: %w", err)
	}

	affected := make(map[string]bool, len(ops))
	for _, op := range ops {
		if err := d.applyOp(ctx, tx, op); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("BatchWrite %s %s/%s: %w", op.Kind, op.Collection, op.ID, err)
		}
		affected[op.Collection] = true
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("BatchWrite commit: %w", err)
	}

	for collection := range affected {
		d.notifyLocked(ctx, collection)
	}
	return nil
}

func (d *DB) applyOp(ctx context.Context, tx *sql.Tx, op store.WriteOp) error {
	switch op.Kind {
	case store.WriteDelete:
		_, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`,
			op.Collection, op.ID,
		)
		return err

	case store.WriteSet, store.WriteUpdate:
		var raw string
		var existing store.Record
		found := true
		err := tx.QueryRowContext(ctx,
			`SELECT fields FROM documents WHERE collection = ? AND id = ?`,
			op.Collection, op.ID,
		).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			found = false
		case err != nil:
			return err
		default:
			if existing, err = decodeFields(raw); err != nil {
				return err
			}
		}
		if op.Kind == store.WriteUpdate && !found {
			return store.ErrNotFound
		}
		if op.Kind == store.WriteSet && !op.Merge {
			existing = nil
		}
		return d.writeDoc(ctx, tx, op.Collection, op.ID, store.ApplyUpdate(existing, op.Fields), found)

	default:
		return fmt.Errorf("unknown write kind %q", op.Kind)
	}
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (d *DB) writeDoc(ctx context.Context, ex execer, collection, id string, fields store.Record, exists bool) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if exists {
		_, err = ex.ExecContext(ctx,
			`UPDATE documents SET fields = ?, updated_at = ? WHERE collection = ? AND id = ?`,
			string(raw), now, collection, id,
		)
		return err
	}
	_, err = ex.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (collection, id, fields, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		collection, id, string(raw), now, now,
	)
	return err
}

func decodeFields(raw string) (store.Record, error) {
	var fields store.Record
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}

// Package store defines the document-store interface the application is
// written against, along with the query and write primitives it needs.
// Implementations own persistence and change notification; everything here
// is backend-agnostic.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by UpdateDocument when the target document does
// not exist. Point reads signal a miss through their found return instead.
var ErrNotFound = errors.New("document not found")

// Record is the schema-less field set of a document. Values carry JSON
// types: string, float64, bool, nil, []any and map[string]any.
type Record = map[string]any

// Document pairs a record with its id within a collection.
type Document struct {
	ID     string
	Fields Record
}

// SnapshotFunc receives the full current result set for a subscribed query.
// It is invoked once with the initial result set and again after every
// committed write that may change it. Each payload is authoritative for its
// query; payloads from sibling subscriptions are unordered relative to it.
type SnapshotFunc func(docs []Document)

// Store is the data-access surface backing all readers, views and mutations.
type Store interface {
	// GetDocument fetches a single document. A missing document is a
	// legitimate outcome reported via found, not an error.
	GetDocument(ctx context.Context, collection, id string) (Record, bool, error)

	// QueryDocuments returns all documents matching q.
	QueryDocuments(ctx context.Context, collection string, q Query) ([]Document, error)

	// Subscribe registers fn against the query. Delivery per subscription is
	// ordered by commit order; intermediate snapshots may be coalesced to
	// the latest, never reordered. The returned function deregisters the
	// subscription and does not return until no further callbacks will run.
	Subscribe(ctx context.Context, collection string, q Query, fn SnapshotFunc) (func(), error)

	// SetDocument writes a document with a caller-chosen id. With merge set,
	// fields are merged into an existing document instead of replacing it.
	SetDocument(ctx context.Context, collection, id string, fields Record, merge bool) error

	// UpdateDocument merges fields into an existing document and returns
	// ErrNotFound when it does not exist.
	UpdateDocument(ctx context.Context, collection, id string, fields Record) error

	// AddDocument writes a document under a freshly generated id.
	AddDocument(ctx context.Context, collection string, fields Record) (string, error)

	// BatchWrite applies all ops atomically as a unit.
	BatchWrite(ctx context.Context, ops []WriteOp) error

	// Close releases the store.
	Close() error
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// Write op kinds accepted by BatchWrite.
const (
	WriteSet    = "set"
	WriteUpdate = "update"
	WriteDelete = "delete"
)

// WriteOp is one entry in a batched write.
type WriteOp struct {
	Kind       string
	Collection string
	ID         string
	Fields     Record // nil for delete
	Merge      bool   // set only
}

// ArrayUnion is an update value that appends each element to a list-valued
// field only if not already present. Safe under concurrent writers and
// idempotent on retry.
type ArrayUnion struct {
	Values []any
}

// Union builds an ArrayUnion update value.
func Union(values ...any) ArrayUnion {
	return ArrayUnion{Values: values}
}

// ApplyUpdate merges updates into existing, resolving ArrayUnion values at
// the field level. existing may be nil.
func ApplyUpdate(existing, updates Record) Record {
	out := make(Record, len(existing)+len(updates))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range updates {
		au, ok := v.(ArrayUnion)
		if !ok {
			out[k] = v
			continue
		}
		list, _ := out[k].([]any)
		for _, val := range au.Values {
			if !containsValue(list, val) {
				list = append(list, val)
			}
		}
		out[k] = list
	}
	return out
}

func containsValue(list []any, val any) bool {
	for _, v := range list {
		if equalValues(v, val) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// Encode projects a typed entity into a Record via its JSON form.
func Encode(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store.Encode: %w", err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("store.Encode: %w", err)
	}
	return r, nil
}

// EncodeValue projects any Go value into its JSON-typed form, for use as a
// single field value in an update.
func EncodeValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store.EncodeValue: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("store.EncodeValue: %w", err)
	}
	return out, nil
}

// Decode projects a Record into a typed entity via its JSON form.
func Decode[T any](r Record) (T, error) {
	var out T
	b, err := json.Marshal(r)
	if err != nil {
		return out, fmt.Errorf("store.Decode: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("store.Decode: %w", err)
	}
	return out, nil
}

// DecodeAll projects a document list into typed entities, copying each
// document id into the record's id field.
func DecodeAll[T any](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		fields := make(Record, len(d.Fields)+1)
		for k, v := range d.Fields {
			fields[k] = v
		}
		fields["id"] = d.ID
		v, err := Decode[T](fields)
		if err != nil {
			return nil, fmt.Errorf("store.DecodeAll: doc %s: %w", d.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

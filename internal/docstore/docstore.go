// Package docstore is a small keyed document store. Documents are flat maps of
// top-level fields to JSON values, grouped in named collections.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Update when the document doesn't exist.
var ErrNotFound = errors.New("document not found")

// Document maps top-level field names to their JSON encoded values.
type Document map[string]json.RawMessage

// Store is the document access used by the remote history backend.
type Store interface {
	// Get returns the document at key. The bool is false when it doesn't exist.
	Get(ctx context.Context, key string) (Document, bool, error)
	// Set writes doc at key. With merge the fields of doc are written over
	// the fields of any existing document, otherwise doc replaces it.
	Set(ctx context.Context, key string, doc Document, merge bool) error
	// Update writes the fields of doc over the fields of an existing
	// document. Returns ErrNotFound if there is none.
	Update(ctx context.Context, key string, doc Document) error
}

func mergeInto(dst, src Document) Document {
	if dst == nil {
		dst = make(Document, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

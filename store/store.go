package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Doc is a single document's field set.
type Doc map[string]any

var (
	ErrNotFound = errors.New("document not found")
	ErrBadPath  = errors.New("invalid document path")
)

// Store is the document-store boundary. Paths alternate collection and
// document segments ("posts/<id>", "posts/<id>/echoes/<uid>"); subcollections
// nest under a document. Delete is idempotent.
type Store interface {
	// Create adds a document with a generated id and returns that id.
	Create(ctx context.Context, collection string, fields Doc) (string, error)
	// Set writes a document at path; merge=true upserts field-by-field,
	// merge=false replaces the whole document.
	Set(ctx context.Context, path string, fields Doc, merge bool) error
	// Update applies a partial update to an existing document.
	Update(ctx context.Context, path string, fields Doc) error
	// Get returns the document's fields with its id under "_id".
	Get(ctx context.Context, path string) (Doc, error)
	// List returns the documents of a collection ordered by a field.
	List(ctx context.Context, collection string, orderBy string, desc bool, limit int) ([]Doc, error)
	Delete(ctx context.Context, path string) error
}

// Docs is the active store handle. Connected in main, swapped by tests.
var Docs Store

type incrementValue struct {
	Delta int64
}

type serverTimestamp struct{}

// Increment is a field-value sentinel resolved to an atomic counter delta.
func Increment(delta int64) any {
	return incrementValue{Delta: delta}
}

// ServerTimestamp is a field-value sentinel resolved to a store-assigned
// monotonic write time.
func ServerTimestamp() any {
	return serverTimestamp{}
}

func (d Doc) ID() string {
	s, _ := d["_id"].(string)
	return s
}

func (d Doc) String(key string) string {
	s, _ := d[key].(string)
	return s
}

func (d Doc) Int(key string) int64 {
	switch v := d[key].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func (d Doc) Time(key string) time.Time {
	t, _ := d[key].(time.Time)
	return t
}

// splitDocPath validates a document path and returns its segments.
func splitDocPath(path string) ([]string, error) {
	segs := strings.Split(path, "/")
	if len(segs) < 2 || len(segs)%2 != 0 {
		return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
	}
	return segs, nil
}

// splitCollectionPath validates a collection path and returns its segments.
func splitCollectionPath(path string) ([]string, error) {
	segs := strings.Split(path, "/")
	if len(segs)%2 != 1 {
		return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
	}
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
	}
	return segs, nil
}

// collectionName folds the collection segments of a path into a flat
// backend collection name ("posts/p1/echoes" -> "posts.echoes").
func collectionName(segs []string) string {
	var cols []string
	for i := 0; i < len(segs); i += 2 {
		cols = append(cols, segs[i])
	}
	return strings.Join(cols, ".")
}
